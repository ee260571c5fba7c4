package similarity

import (
	apperrors "courseintel/pkg/errors"
)

// Index is an immutable content-similarity structure over a fixed corpus:
// L2-normalized TF-IDF feature vectors plus the dense pairwise cosine
// matrix derived from them. Row i of the corpus maps to row/column i of the
// matrix. Once built, an Index is never mutated; dataset changes produce a
// wholesale rebuild.
//
// The matrix materialization is O(N²) in corpus size and is the dominant
// scaling limit of the whole system. For large catalogs an approximate
// nearest-neighbor structure could replace it behind the same query
// contract; the full matrix is the correctness baseline.
type Index struct {
	vocab    []string
	features [][]float64
	sim      [][]float64
}

// Build tokenizes every content string, fits a TF-IDF vocabulary capped at
// vocabLimit terms, and materializes the cosine matrix. The build is a pure
// function of the content strings. Returns ErrEmptyCorpus when no document
// yields a single vocabulary term, and ErrInvalidParameter for a
// non-positive vocabLimit.
func Build(contents []string, vocabLimit int) (*Index, error) {
	if vocabLimit <= 0 {
		return nil, apperrors.Newf(apperrors.ErrInvalidParameter, 400, "vocabulary limit must be positive, got %d", vocabLimit)
	}

	docs := make([][]string, len(contents))
	for i, content := range contents {
		docs[i] = Tokenize(content)
	}

	v := fitVectorizer(docs, vocabLimit)
	if v == nil {
		return nil, apperrors.New(apperrors.ErrEmptyCorpus, 422, "no vocabulary terms extractable from corpus")
	}

	n := len(docs)
	features := make([][]float64, n)
	for i, doc := range docs {
		features[i] = v.vectorize(doc)
	}

	// Rows are unit vectors (or zero), so cosine reduces to a dot product.
	// Only the lower triangle is computed; the upper is mirrored.
	sim := make([][]float64, n)
	for i := 0; i < n; i++ {
		sim[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		// Self-similarity is 1 by definition, including for rows whose
		// content produced the zero vector.
		sim[i][i] = 1
		for j := 0; j < i; j++ {
			s := dot(features[i], features[j])
			sim[i][j] = s
			sim[j][i] = s
		}
	}

	return &Index{
		vocab:    v.terms,
		features: features,
		sim:      sim,
	}, nil
}

// Size returns the number of corpus rows.
func (x *Index) Size() int {
	return len(x.sim)
}

// VocabularySize returns the number of terms in the frozen vocabulary.
func (x *Index) VocabularySize() int {
	return len(x.vocab)
}

// Row returns the similarity vector of row i against every corpus row.
// The returned slice is owned by the index and must not be mutated.
func (x *Index) Row(i int) []float64 {
	return x.sim[i]
}

// Similarity returns the cosine similarity between rows i and j.
func (x *Index) Similarity(i, j int) float64 {
	return x.sim[i][j]
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
