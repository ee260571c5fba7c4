// Package analytics computes read-only aggregates over an enriched course
// snapshot: catalog overview statistics, per-subject performance, yearly
// publishing trends, and price advice. Suspicious rows are excluded from
// every aggregate.
package analytics

import (
	"sort"

	"courseintel/internal/catalog"
)

// SubjectStats aggregates courses of one subject.
type SubjectStats struct {
	Subject               string  `json:"subject"`
	Courses               int     `json:"courses"`
	AvgPrice              float64 `json:"avg_price"`
	TotalSubscribers      int64   `json:"total_subscribers"`
	AvgSubscribers        float64 `json:"avg_subscribers"`
	AvgReviews            float64 `json:"avg_reviews"`
	AvgEngagement         float64 `json:"avg_engagement"`
	AvgBayesianPopularity float64 `json:"avg_bayesian_popularity"`
}

// YearStats aggregates courses published in one year.
type YearStats struct {
	Year                  int     `json:"year"`
	Published             int     `json:"published"`
	AvgPrice              float64 `json:"avg_price"`
	AvgSubscribers        float64 `json:"avg_subscribers"`
	AvgBayesianPopularity float64 `json:"avg_bayesian_popularity"`
}

// Overview is the catalog-wide summary.
type Overview struct {
	TotalCourses     int            `json:"total_courses"`
	Subjects         int            `json:"subjects"`
	TotalSubscribers int64          `json:"total_subscribers"`
	PaidCourses      int            `json:"paid_courses"`
	FreeCourses      int            `json:"free_courses"`
	AvgPaidPrice     float64        `json:"avg_paid_price"`
	AvgEngagement    float64        `json:"avg_engagement"`
	SubjectStats     []SubjectStats `json:"subject_stats"`
	YearlyTrend      []YearStats    `json:"yearly_trend"`
}

// BuildOverview computes the catalog summary. Counts and the subscriber
// total span the full dataset; averages and the per-subject/per-year
// breakdowns exclude suspicious rows, and the subject breakdown further
// requires minReviews reviews so thin evidence does not skew the averages.
func BuildOverview(courses []catalog.EnrichedCourse, minReviews int64) Overview {
	o := Overview{}
	subjects := make(map[string]struct{})
	for _, c := range courses {
		o.TotalCourses++
		o.TotalSubscribers += c.Subscribers
		if c.Subject != "" {
			subjects[c.Subject] = struct{}{}
		}
		if c.IsPaid {
			o.PaidCourses++
		} else {
			o.FreeCourses++
		}
	}
	o.Subjects = len(subjects)

	var paidPriceSum, engagementSum float64
	var paidCount, cleanCount int
	for _, c := range courses {
		if c.Suspicious {
			continue
		}
		cleanCount++
		engagementSum += c.Engagement
		if c.Price > 0 {
			paidPriceSum += c.Price
			paidCount++
		}
	}
	if paidCount > 0 {
		o.AvgPaidPrice = paidPriceSum / float64(paidCount)
	}
	if cleanCount > 0 {
		o.AvgEngagement = engagementSum / float64(cleanCount)
	}

	o.SubjectStats = subjectBreakdown(courses, minReviews)
	o.YearlyTrend = yearlyTrend(courses)
	return o
}

func subjectBreakdown(courses []catalog.EnrichedCourse, minReviews int64) []SubjectStats {
	type acc struct {
		count        int
		priceSum     float64
		subsSum      int64
		reviewsSum   int64
		engageSum    float64
		bayesPopSum  float64
	}
	bySubject := make(map[string]*acc)
	for _, c := range courses {
		if c.Suspicious || c.Reviews < minReviews || c.Subject == "" {
			continue
		}
		a := bySubject[c.Subject]
		if a == nil {
			a = &acc{}
			bySubject[c.Subject] = a
		}
		a.count++
		a.priceSum += c.Price
		a.subsSum += c.Subscribers
		a.reviewsSum += c.Reviews
		a.engageSum += c.Engagement
		a.bayesPopSum += c.BayesianPopularity
	}

	stats := make([]SubjectStats, 0, len(bySubject))
	for subject, a := range bySubject {
		n := float64(a.count)
		stats = append(stats, SubjectStats{
			Subject:               subject,
			Courses:               a.count,
			AvgPrice:              a.priceSum / n,
			TotalSubscribers:      a.subsSum,
			AvgSubscribers:        float64(a.subsSum) / n,
			AvgReviews:            float64(a.reviewsSum) / n,
			AvgEngagement:         a.engageSum / n,
			AvgBayesianPopularity: a.bayesPopSum / n,
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].TotalSubscribers != stats[j].TotalSubscribers {
			return stats[i].TotalSubscribers > stats[j].TotalSubscribers
		}
		return stats[i].Subject < stats[j].Subject
	})
	return stats
}

func yearlyTrend(courses []catalog.EnrichedCourse) []YearStats {
	type acc struct {
		count       int
		priceSum    float64
		subsSum     int64
		bayesPopSum float64
	}
	byYear := make(map[int]*acc)
	for _, c := range courses {
		if c.Suspicious || c.PublishedYear == 0 {
			continue
		}
		a := byYear[c.PublishedYear]
		if a == nil {
			a = &acc{}
			byYear[c.PublishedYear] = a
		}
		a.count++
		a.priceSum += c.Price
		a.subsSum += c.Subscribers
		a.bayesPopSum += c.BayesianPopularity
	}

	trend := make([]YearStats, 0, len(byYear))
	for year, a := range byYear {
		n := float64(a.count)
		trend = append(trend, YearStats{
			Year:                  year,
			Published:             a.count,
			AvgPrice:              a.priceSum / n,
			AvgSubscribers:        float64(a.subsSum) / n,
			AvgBayesianPopularity: a.bayesPopSum / n,
		})
	}
	sort.Slice(trend, func(i, j int) bool { return trend[i].Year < trend[j].Year })
	return trend
}

// Subjects returns the distinct subjects in the dataset, sorted.
func Subjects(courses []catalog.EnrichedCourse) []string {
	seen := make(map[string]struct{})
	for _, c := range courses {
		if c.Subject != "" {
			seen[c.Subject] = struct{}{}
		}
	}
	subjects := make([]string, 0, len(seen))
	for s := range seen {
		subjects = append(subjects, s)
	}
	sort.Strings(subjects)
	return subjects
}
