// Package recommend serves ranked course recommendations from immutable
// snapshots. A snapshot pairs an enriched dataset with its similarity
// index; queries are lock-free reads against whichever snapshot was active
// when they started.
package recommend

import (
	"sort"
	"time"

	"courseintel/internal/catalog"
	"courseintel/internal/similarity"
	apperrors "courseintel/pkg/errors"
)

// Snapshot is an immutable, versioned pairing of the enriched dataset and
// the similarity index built from it. Row i of Courses corresponds to
// row/column i of the index. Snapshots are never mutated after Build; a
// dataset refresh constructs a new one and swaps it in atomically.
type Snapshot struct {
	Version string
	BuiltAt time.Time
	Courses []catalog.EnrichedCourse
	Index   *similarity.Index

	rowByID map[int64]int
}

// NewSnapshot assembles a snapshot over an already-enriched dataset and its
// index. The two must come from the same dataset in the same row order.
func NewSnapshot(version string, courses []catalog.EnrichedCourse, index *similarity.Index) *Snapshot {
	rowByID := make(map[int64]int, len(courses))
	for i, c := range courses {
		rowByID[c.ID] = i
	}
	return &Snapshot{
		Version: version,
		BuiltAt: time.Now().UTC(),
		Courses: courses,
		Index:   index,
		rowByID: rowByID,
	}
}

// Recommendation is a single ranked candidate.
type Recommendation struct {
	Course     catalog.EnrichedCourse `json:"course"`
	Similarity float64                `json:"similarity_score"`
}

// Recommend returns up to topN courses most similar to the query course,
// admitting only candidates with at least minReviews reviews that are not
// flagged suspicious. The query course itself is always excluded. Ties in
// similarity preserve original dataset order. An empty result is a
// legitimate outcome, not an error.
func (s *Snapshot) Recommend(courseID int64, topN int, minReviews int64) ([]Recommendation, error) {
	if topN <= 0 {
		return nil, apperrors.Newf(apperrors.ErrInvalidParameter, 400, "topN must be positive, got %d", topN)
	}
	if minReviews < 0 {
		return nil, apperrors.Newf(apperrors.ErrInvalidParameter, 400, "minReviews must be non-negative, got %d", minReviews)
	}
	row, ok := s.rowByID[courseID]
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrCourseNotFound, 404, "course %d not in snapshot %s", courseID, s.Version)
	}

	sims := s.Index.Row(row)
	order := make([]int, len(sims))
	for i := range order {
		order[i] = i
	}
	// Stable sort keeps original row order on equal similarity; the
	// tie-break policy is part of the query contract.
	sort.SliceStable(order, func(a, b int) bool {
		return sims[order[a]] > sims[order[b]]
	})

	results := make([]Recommendation, 0, topN)
	for _, idx := range order {
		if idx == row {
			continue
		}
		candidate := s.Courses[idx]
		if candidate.Reviews < minReviews || candidate.Suspicious {
			continue
		}
		results = append(results, Recommendation{
			Course:     candidate,
			Similarity: sims[idx],
		})
		if len(results) == topN {
			break
		}
	}
	return results, nil
}

// TopInSubject returns the topN non-suspicious courses of a subject with at
// least minReviews reviews, ranked by Bayesian popularity descending with
// original dataset order breaking ties. Does not consult the similarity
// index. An empty result is success.
func (s *Snapshot) TopInSubject(subject string, minReviews int64, topN int) ([]catalog.EnrichedCourse, error) {
	if topN <= 0 {
		return nil, apperrors.Newf(apperrors.ErrInvalidParameter, 400, "topN must be positive, got %d", topN)
	}
	if minReviews < 0 {
		return nil, apperrors.Newf(apperrors.ErrInvalidParameter, 400, "minReviews must be non-negative, got %d", minReviews)
	}

	matched := make([]catalog.EnrichedCourse, 0)
	for _, c := range s.Courses {
		if c.Subject == subject && c.Reviews >= minReviews && !c.Suspicious {
			matched = append(matched, c)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].BayesianPopularity > matched[j].BayesianPopularity
	})
	if len(matched) > topN {
		matched = matched[:topN]
	}
	return matched, nil
}

// Lookup returns the enriched course for an ID.
func (s *Snapshot) Lookup(courseID int64) (catalog.EnrichedCourse, error) {
	row, ok := s.rowByID[courseID]
	if !ok {
		return catalog.EnrichedCourse{}, apperrors.Newf(apperrors.ErrCourseNotFound, 404, "course %d not in snapshot %s", courseID, s.Version)
	}
	return s.Courses[row], nil
}
