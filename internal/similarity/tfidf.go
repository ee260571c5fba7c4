package similarity

import (
	"math"
	"sort"
)

// vectorizer holds a vocabulary frozen at fit time and the per-term
// document frequencies needed for IDF weighting.
type vectorizer struct {
	terms     []string
	termIndex map[string]int
	idf       []float64
}

// fitVectorizer builds the vocabulary over the tokenized corpus, keeping at
// most vocabLimit terms. Terms are ranked by total frequency across the
// corpus; ties break alphabetically so fits are deterministic. Returns nil
// when no term survives tokenization.
func fitVectorizer(docs [][]string, vocabLimit int) *vectorizer {
	termCounts := make(map[string]int)
	docFrequencies := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{}, len(doc))
		for _, term := range doc {
			termCounts[term]++
			if _, ok := seen[term]; !ok {
				docFrequencies[term]++
				seen[term] = struct{}{}
			}
		}
	}
	if len(termCounts) == 0 {
		return nil
	}

	terms := make([]string, 0, len(termCounts))
	for term := range termCounts {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if termCounts[terms[i]] != termCounts[terms[j]] {
			return termCounts[terms[i]] > termCounts[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > vocabLimit {
		terms = terms[:vocabLimit]
	}
	sort.Strings(terms)

	v := &vectorizer{
		terms:     terms,
		termIndex: make(map[string]int, len(terms)),
		idf:       make([]float64, len(terms)),
	}
	n := float64(len(docs))
	for i, term := range terms {
		v.termIndex[term] = i
		// Smoothed IDF: ln((1+N)/(1+df)) + 1 keeps terms present in every
		// document from being zeroed out entirely.
		v.idf[i] = math.Log((1+n)/(1+float64(docFrequencies[term]))) + 1
	}
	return v
}

// vectorize converts a tokenized document into an L2-normalized TF-IDF
// vector over the frozen vocabulary. Documents with no in-vocabulary terms
// produce the zero vector.
func (v *vectorizer) vectorize(doc []string) []float64 {
	vec := make([]float64, len(v.terms))
	for _, term := range doc {
		if i, ok := v.termIndex[term]; ok {
			vec[i]++
		}
	}
	var norm float64
	for i := range vec {
		vec[i] *= v.idf[i]
		norm += vec[i] * vec[i]
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}
