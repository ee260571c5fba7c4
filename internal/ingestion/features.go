package ingestion

import (
	"time"

	"courseintel/internal/catalog"
)

// Weights of the composite raw scores. The popularity score blends reach
// (subscribers), volume of feedback (reviews), and feedback intensity
// (review rate); the quality score drops reach. Each component is
// normalized by its dataset-wide maximum before weighting.
const (
	popularityWeightSubs    = 0.4
	popularityWeightReviews = 0.3
	popularityWeightRate    = 0.3

	qualityWeightReviews = 0.5
	qualityWeightRate    = 0.5
)

// EngineerFeatures computes the raw popularity and quality scores, the
// derived per-course ratios, and the categorical buckets for every course,
// in place. The scores are the initial values the Bayesian scorer later
// shrinks; they are meaningful only relative to the dataset they were
// normalized against, which is why the importer recomputes them on every
// run. now anchors the course-age calculation.
func EngineerFeatures(courses []catalog.Course, now time.Time) {
	var maxSubs, maxReviews int64
	var maxRate float64
	rates := make([]float64, len(courses))
	for i, c := range courses {
		if c.Subscribers > maxSubs {
			maxSubs = c.Subscribers
		}
		if c.Reviews > maxReviews {
			maxReviews = c.Reviews
		}
		if c.Subscribers > 0 {
			rates[i] = float64(c.Reviews) / float64(c.Subscribers)
		}
		if rates[i] > maxRate {
			maxRate = rates[i]
		}
	}

	norm := func(v, max float64) float64 {
		if max <= 0 {
			return 0
		}
		return v / max
	}

	for i := range courses {
		c := &courses[i]
		subsNorm := norm(float64(c.Subscribers), float64(maxSubs))
		reviewsNorm := norm(float64(c.Reviews), float64(maxReviews))
		rateNorm := norm(rates[i], maxRate)

		c.PopularityScore = popularityWeightSubs*subsNorm +
			popularityWeightReviews*reviewsNorm +
			popularityWeightRate*rateNorm
		c.QualityScore = qualityWeightReviews*reviewsNorm +
			qualityWeightRate*rateNorm
		c.HasQuality = true

		if !c.PublishedAt.IsZero() && now.After(c.PublishedAt) {
			c.CourseAgeMonths = now.Sub(c.PublishedAt).Hours() / 24 / 30
		}
		if c.Lectures > 0 {
			c.AvgLectureHours = c.ContentHours / float64(c.Lectures)
		}
		if c.ContentHours > 0 {
			c.PricePerHour = c.Price / c.ContentHours
		}

		c.LengthCategory = lengthCategory(c.ContentHours)
		c.PriceCategory = priceCategory(c.Price)
	}
}

func lengthCategory(hours float64) string {
	switch {
	case hours < 2:
		return "Short"
	case hours < 10:
		return "Medium"
	default:
		return "Long"
	}
}

func priceCategory(price float64) string {
	switch {
	case price == 0:
		return "Free"
	case price < 50:
		return "Budget"
	case price < 100:
		return "Mid-Range"
	default:
		return "Premium"
	}
}
