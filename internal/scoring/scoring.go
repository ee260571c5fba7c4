// Package scoring derives reliability-adjusted metrics from raw course
// records: engagement normalization, Bayesian shrinkage of popularity and
// quality scores toward the dataset mean, confidence tiers, and the
// suspicious-metrics flag.
package scoring

import (
	"courseintel/internal/catalog"
	apperrors "courseintel/pkg/errors"
)

// Params holds the scoring heuristics. The defaults come from the source
// dataset analysis; there is no stated derivation for them, so they are
// kept configurable rather than tuned.
type Params struct {
	// MinEvidence is the shrinkage constant m: the number of reviews at
	// which a course's own score and the dataset mean carry equal weight.
	MinEvidence float64
	// SuspicionEngagement and SuspicionMaxSubs flag rows whose metrics are
	// statistically implausible: a near-100% review rate is only plausible
	// at tiny sample sizes and likely indicates fabricated or test data.
	SuspicionEngagement float64
	SuspicionMaxSubs    int64
}

// DefaultParams returns the heuristics used by the original dataset analysis.
func DefaultParams() Params {
	return Params{
		MinEvidence:         10,
		SuspicionEngagement: 0.99,
		SuspicionMaxSubs:    50,
	}
}

// EngagementRate returns reviews/subscribers, or 0 when there are no
// subscribers. Never NaN or Inf.
func EngagementRate(reviews, subscribers int64) float64 {
	if subscribers <= 0 {
		return 0
	}
	return float64(reviews) / float64(subscribers)
}

// Mean returns the arithmetic mean of values, or ErrInsufficientData when
// the slice is empty (the population prior is undefined).
func Mean(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, apperrors.New(apperrors.ErrInsufficientData, 422, "population mean undefined over empty dataset")
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), nil
}

// Shrink blends a raw score toward the population prior based on evidence:
//
//	adjusted = (v/(v+m))*raw + (m/(v+m))*priorMean
//
// As evidence grows the adjusted score approaches the raw score; with no
// evidence it collapses to the prior. A negative minEvidence is rejected
// with ErrInvalidParameter. minEvidence of zero disables shrinkage.
func Shrink(raw, evidence, priorMean, minEvidence float64) (float64, error) {
	if minEvidence < 0 {
		return 0, apperrors.Newf(apperrors.ErrInvalidParameter, 400, "minEvidence must be non-negative, got %v", minEvidence)
	}
	total := evidence + minEvidence
	if total == 0 {
		return raw, nil
	}
	return (evidence/total)*raw + (minEvidence/total)*priorMean, nil
}

// ConfidenceFor maps a review count to its confidence tier.
func ConfidenceFor(reviews int64) catalog.Confidence {
	switch {
	case reviews >= 100:
		return catalog.ConfidenceHigh
	case reviews >= 20:
		return catalog.ConfidenceMedium
	case reviews >= 5:
		return catalog.ConfidenceLow
	default:
		return catalog.ConfidenceVeryLow
	}
}

// Suspicious reports whether the engagement/subscriber pair trips the
// implausibility heuristic.
func (p Params) Suspicious(engagement float64, subscribers int64) bool {
	return engagement >= p.SuspicionEngagement && subscribers < p.SuspicionMaxSubs
}

// Enrich derives the full enriched projection for every course. The
// popularity and quality priors are each computed once over the whole
// dataset and threaded through explicitly, so each row's scores stay a pure
// function of (row, prior). Returns ErrInsufficientData on an empty dataset.
func Enrich(courses []catalog.Course, p Params) ([]catalog.EnrichedCourse, error) {
	popScores := make([]float64, len(courses))
	for i, c := range courses {
		popScores[i] = c.PopularityScore
	}
	popMean, err := Mean(popScores)
	if err != nil {
		return nil, err
	}

	var qualityMean float64
	var haveQuality bool
	qualityScores := make([]float64, 0, len(courses))
	for _, c := range courses {
		if c.HasQuality {
			qualityScores = append(qualityScores, c.QualityScore)
		}
	}
	if len(qualityScores) > 0 {
		qualityMean, err = Mean(qualityScores)
		if err != nil {
			return nil, err
		}
		haveQuality = true
	}

	enriched := make([]catalog.EnrichedCourse, len(courses))
	for i, c := range courses {
		evidence := float64(c.Reviews)
		engagement := EngagementRate(c.Reviews, c.Subscribers)

		bayesPop, err := Shrink(c.PopularityScore, evidence, popMean, p.MinEvidence)
		if err != nil {
			return nil, err
		}

		ec := catalog.EnrichedCourse{
			Course:             c,
			Engagement:         engagement,
			BayesianPopularity: bayesPop,
			Confidence:         ConfidenceFor(c.Reviews),
			Suspicious:         p.Suspicious(engagement, c.Subscribers),
		}
		if haveQuality && c.HasQuality {
			bayesQuality, err := Shrink(c.QualityScore, evidence, qualityMean, p.MinEvidence)
			if err != nil {
				return nil, err
			}
			ec.BayesianQuality = bayesQuality
		}
		enriched[i] = ec
	}
	return enriched, nil
}
