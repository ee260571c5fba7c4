package ingestion

import (
	"math"
	"testing"
	"time"

	"courseintel/internal/catalog"
)

func TestEngineerFeaturesScores(t *testing.T) {
	courses := []catalog.Course{
		{ID: 1, Subscribers: 1000, Reviews: 100}, // max subs, max reviews, max rate
		{ID: 2, Subscribers: 500, Reviews: 25},
		{ID: 3, Subscribers: 0, Reviews: 0},
	}
	EngineerFeatures(courses, time.Now().UTC())

	// The course leading every component gets the full weighted score.
	if math.Abs(courses[0].PopularityScore-1) > 1e-9 {
		t.Errorf("top course popularity = %v, want 1", courses[0].PopularityScore)
	}
	if math.Abs(courses[0].QualityScore-1) > 1e-9 {
		t.Errorf("top course quality = %v, want 1", courses[0].QualityScore)
	}

	// Course 2: subs 0.5, reviews 0.25, rate (25/500)/(100/1000) = 0.5.
	wantPop := 0.4*0.5 + 0.3*0.25 + 0.3*0.5
	if math.Abs(courses[1].PopularityScore-wantPop) > 1e-9 {
		t.Errorf("course 2 popularity = %v, want %v", courses[1].PopularityScore, wantPop)
	}
	wantQual := 0.5*0.25 + 0.5*0.5
	if math.Abs(courses[1].QualityScore-wantQual) > 1e-9 {
		t.Errorf("course 2 quality = %v, want %v", courses[1].QualityScore, wantQual)
	}

	if courses[2].PopularityScore != 0 || courses[2].QualityScore != 0 {
		t.Errorf("zero-activity course scores = %v/%v, want 0/0",
			courses[2].PopularityScore, courses[2].QualityScore)
	}
	for i, c := range courses {
		if !c.HasQuality {
			t.Errorf("course %d HasQuality = false, want true after feature engineering", i)
		}
	}
}

func TestEngineerFeaturesAllZeros(t *testing.T) {
	courses := []catalog.Course{{ID: 1}, {ID: 2}}
	EngineerFeatures(courses, time.Now().UTC())
	for i, c := range courses {
		if c.PopularityScore != 0 || c.QualityScore != 0 {
			t.Errorf("course %d scores = %v/%v, want 0/0 with no signal",
				i, c.PopularityScore, c.QualityScore)
		}
		if c.CourseAgeMonths != 0 || c.AvgLectureHours != 0 || c.PricePerHour != 0 {
			t.Errorf("course %d derived ratios should stay 0 without inputs: %+v", i, c)
		}
	}
}

func TestEngineerFeaturesDerivedRatios(t *testing.T) {
	now := time.Date(2017, 7, 1, 0, 0, 0, 0, time.UTC)
	courses := []catalog.Course{
		{
			ID:           1,
			Price:        90,
			Lectures:     30,
			ContentHours: 6,
			PublishedAt:  now.AddDate(0, 0, -60),
			Subscribers:  100,
			Reviews:      10,
		},
	}
	EngineerFeatures(courses, now)
	c := courses[0]

	if math.Abs(c.CourseAgeMonths-2) > 1e-9 {
		t.Errorf("CourseAgeMonths = %v, want 2", c.CourseAgeMonths)
	}
	if math.Abs(c.AvgLectureHours-0.2) > 1e-9 {
		t.Errorf("AvgLectureHours = %v, want 0.2", c.AvgLectureHours)
	}
	if math.Abs(c.PricePerHour-15) > 1e-9 {
		t.Errorf("PricePerHour = %v, want 15", c.PricePerHour)
	}
}

func TestLengthCategory(t *testing.T) {
	cases := []struct {
		hours float64
		want  string
	}{
		{0, "Short"},
		{1.9, "Short"},
		{2, "Medium"},
		{9.9, "Medium"},
		{10, "Long"},
		{40, "Long"},
	}
	for _, tc := range cases {
		if got := lengthCategory(tc.hours); got != tc.want {
			t.Errorf("lengthCategory(%v) = %q, want %q", tc.hours, got, tc.want)
		}
	}
}

func TestPriceCategory(t *testing.T) {
	cases := []struct {
		price float64
		want  string
	}{
		{0, "Free"},
		{10, "Budget"},
		{49.99, "Budget"},
		{50, "Mid-Range"},
		{99.99, "Mid-Range"},
		{100, "Premium"},
		{200, "Premium"},
	}
	for _, tc := range cases {
		if got := priceCategory(tc.price); got != tc.want {
			t.Errorf("priceCategory(%v) = %q, want %q", tc.price, got, tc.want)
		}
	}
}
