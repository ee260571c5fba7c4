package analytics

import (
	"sort"

	"courseintel/internal/catalog"
	apperrors "courseintel/pkg/errors"
)

// PriceReport summarizes the price distribution of comparable courses and
// suggests a price point based on the top performers by Bayesian
// popularity. A Count of 0 means no comparable courses matched; that is a
// legitimate outcome, not a failure.
type PriceReport struct {
	Subject      string  `json:"subject"`
	Level        string  `json:"level"`
	Count        int     `json:"count"`
	MeanPrice    float64 `json:"mean_price"`
	MedianPrice  float64 `json:"median_price"`
	P25Price     float64 `json:"p25_price"`
	P75Price     float64 `json:"p75_price"`
	OptimalPrice float64 `json:"optimal_price"`
}

// AdvisePrice builds a PriceReport over non-suspicious paid courses of the
// given subject and level with at least minReviews reviews. OptimalPrice is
// the median price of the top topPercent of matches ranked by Bayesian
// popularity (at least one course).
func AdvisePrice(courses []catalog.EnrichedCourse, subject, level string, minReviews int64, topPercent float64) (PriceReport, error) {
	if minReviews < 0 {
		return PriceReport{}, apperrors.Newf(apperrors.ErrInvalidParameter, 400, "minReviews must be non-negative, got %d", minReviews)
	}
	if topPercent <= 0 || topPercent > 1 {
		return PriceReport{}, apperrors.Newf(apperrors.ErrInvalidParameter, 400, "topPercent must be in (0,1], got %v", topPercent)
	}

	matched := make([]catalog.EnrichedCourse, 0)
	for _, c := range courses {
		if c.Suspicious || c.Subject != subject || c.Level != level {
			continue
		}
		if c.Price <= 0 || c.Reviews < minReviews {
			continue
		}
		matched = append(matched, c)
	}

	report := PriceReport{Subject: subject, Level: level, Count: len(matched)}
	if len(matched) == 0 {
		return report, nil
	}

	prices := make([]float64, len(matched))
	var sum float64
	for i, c := range matched {
		prices[i] = c.Price
		sum += c.Price
	}
	sort.Float64s(prices)

	report.MeanPrice = sum / float64(len(prices))
	report.MedianPrice = quantile(prices, 0.5)
	report.P25Price = quantile(prices, 0.25)
	report.P75Price = quantile(prices, 0.75)

	topCount := int(float64(len(matched)) * topPercent)
	if topCount < 1 {
		topCount = 1
	}
	byScore := make([]catalog.EnrichedCourse, len(matched))
	copy(byScore, matched)
	sort.SliceStable(byScore, func(i, j int) bool {
		return byScore[i].BayesianPopularity > byScore[j].BayesianPopularity
	})
	topPrices := make([]float64, topCount)
	for i := 0; i < topCount; i++ {
		topPrices[i] = byScore[i].Price
	}
	sort.Float64s(topPrices)
	report.OptimalPrice = quantile(topPrices, 0.5)

	return report, nil
}

// quantile returns the q-quantile of sorted values using linear
// interpolation between adjacent ranks.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lower := int(pos)
	if lower >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lower)
	return sorted[lower]*(1-frac) + sorted[lower+1]*frac
}
