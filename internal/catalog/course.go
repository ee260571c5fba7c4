// Package catalog defines the course data model: the raw Course record as
// loaded from the dataset provider and the EnrichedCourse projection the
// scoring engine derives from it.
package catalog

import "time"

// Confidence buckets how much review evidence backs a course's score.
type Confidence string

const (
	ConfidenceHigh    Confidence = "High"
	ConfidenceMedium  Confidence = "Medium"
	ConfidenceLow     Confidence = "Low"
	ConfidenceVeryLow Confidence = "Very Low"
)

// Course is a single row of the course dataset. IDs are unique across the
// dataset; the ingestion job deduplicates before rows reach the engine.
// QualityScore is optional in the source data, so its presence is tracked
// explicitly instead of being inferred at runtime.
type Course struct {
	ID            int64     `json:"course_id"`
	Title         string    `json:"course_title"`
	URL           string    `json:"url,omitempty"`
	Subject       string    `json:"subject"`
	Level         string    `json:"level"`
	Price         float64   `json:"price"`
	IsPaid        bool      `json:"is_paid"`
	Subscribers   int64     `json:"num_subscribers"`
	Reviews       int64     `json:"num_reviews"`
	Lectures      int       `json:"num_lectures"`
	ContentHours  float64   `json:"content_duration"`
	PublishedAt   time.Time `json:"published_timestamp"`
	PublishedYear int       `json:"published_year"`

	// Engineered by the ingestion job.
	PopularityScore float64 `json:"popularity_score"`
	QualityScore    float64 `json:"quality_score,omitempty"`
	HasQuality      bool    `json:"-"`
	CourseAgeMonths float64 `json:"course_age_months,omitempty"`
	AvgLectureHours float64 `json:"avg_lecture_duration,omitempty"`
	PricePerHour    float64 `json:"price_per_hour,omitempty"`
	LengthCategory  string  `json:"length_category,omitempty"`
	PriceCategory   string  `json:"price_category,omitempty"`
}

// EnrichedCourse is a Course plus the derived reliability fields. It is a
// pure function of the Course and the dataset-wide score means, recomputed
// on every snapshot rebuild and never persisted as authoritative.
type EnrichedCourse struct {
	Course

	// Engagement is reviews/subscribers, always recomputed (never trusted
	// from input) and 0 when there are no subscribers.
	Engagement         float64    `json:"engagement_rate"`
	BayesianPopularity float64    `json:"bayesian_popularity"`
	BayesianQuality    float64    `json:"bayesian_quality,omitempty"`
	Confidence         Confidence `json:"confidence_level"`
	Suspicious         bool       `json:"is_suspicious"`
}

// ContentText returns the text the similarity index is built from: title and
// subject joined by a space, with missing values treated as empty.
func (c Course) ContentText() string {
	return c.Title + " " + c.Subject
}
