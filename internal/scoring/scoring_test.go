package scoring

import (
	"errors"
	"math"
	"testing"

	"courseintel/internal/catalog"
	apperrors "courseintel/pkg/errors"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestEngagementRate(t *testing.T) {
	cases := []struct {
		reviews, subscribers int64
		want                 float64
	}{
		{50, 500, 0.1},
		{10, 10, 1},
		{0, 100, 0},
		{5, 0, 0},
		{5, -1, 0},
		{0, 0, 0},
	}
	for _, tc := range cases {
		got := EngagementRate(tc.reviews, tc.subscribers)
		if !almostEqual(got, tc.want) {
			t.Errorf("EngagementRate(%d, %d) = %v, want %v", tc.reviews, tc.subscribers, got, tc.want)
		}
		if math.IsNaN(got) || math.IsInf(got, 0) {
			t.Errorf("EngagementRate(%d, %d) = %v, must be finite", tc.reviews, tc.subscribers, got)
		}
	}
}

func TestMeanEmptyDataset(t *testing.T) {
	_, err := Mean(nil)
	if !errors.Is(err, apperrors.ErrInsufficientData) {
		t.Fatalf("Mean(nil) error = %v, want ErrInsufficientData", err)
	}
}

func TestMean(t *testing.T) {
	got, err := Mean([]float64{0.2, 0.4, 0.6})
	if err != nil {
		t.Fatalf("Mean returned error: %v", err)
	}
	if !almostEqual(got, 0.4) {
		t.Errorf("Mean = %v, want 0.4", got)
	}
}

func TestShrinkNegativeMinEvidence(t *testing.T) {
	_, err := Shrink(0.5, 10, 0.4, -1)
	if !errors.Is(err, apperrors.ErrInvalidParameter) {
		t.Fatalf("Shrink with negative minEvidence error = %v, want ErrInvalidParameter", err)
	}
}

func TestShrinkBoundsBetweenRawAndMean(t *testing.T) {
	cases := []struct {
		raw, mean, minEvidence float64
		evidence               float64
	}{
		{0.9, 0.5, 10, 0},
		{0.9, 0.5, 10, 2},
		{0.9, 0.5, 10, 100},
		{0.1, 0.5, 10, 3},
		{0.1, 0.5, 0, 3},
		{0.5, 0.5, 10, 7},
	}
	for _, tc := range cases {
		got, err := Shrink(tc.raw, tc.evidence, tc.mean, tc.minEvidence)
		if err != nil {
			t.Fatalf("Shrink returned error: %v", err)
		}
		lo, hi := math.Min(tc.raw, tc.mean), math.Max(tc.raw, tc.mean)
		if got < lo-1e-12 || got > hi+1e-12 {
			t.Errorf("Shrink(raw=%v, v=%v, mean=%v, m=%v) = %v, outside [%v, %v]",
				tc.raw, tc.evidence, tc.mean, tc.minEvidence, got, lo, hi)
		}
	}
}

func TestShrinkMonotonicInEvidence(t *testing.T) {
	const raw, mean, m = 0.9, 0.5, 10.0
	prev := mean
	for _, evidence := range []float64{0, 1, 5, 10, 50, 100, 1000, 100000} {
		got, err := Shrink(raw, evidence, mean, m)
		if err != nil {
			t.Fatalf("Shrink returned error: %v", err)
		}
		if got < prev-1e-12 {
			t.Errorf("Shrink not monotonic: evidence=%v gave %v after %v", evidence, got, prev)
		}
		prev = got
	}
	// Extremes: no evidence collapses to the prior, huge evidence approaches raw.
	atZero, _ := Shrink(raw, 0, mean, m)
	if !almostEqual(atZero, mean) {
		t.Errorf("Shrink with zero evidence = %v, want prior %v", atZero, mean)
	}
	atInf, _ := Shrink(raw, 1e12, mean, m)
	if math.Abs(atInf-raw) > 1e-9 {
		t.Errorf("Shrink with huge evidence = %v, want close to raw %v", atInf, raw)
	}
}

func TestShrinkZeroMinEvidence(t *testing.T) {
	got, err := Shrink(0.3, 0, 0.7, 0)
	if err != nil {
		t.Fatalf("Shrink returned error: %v", err)
	}
	if !almostEqual(got, 0.3) {
		t.Errorf("Shrink with m=0, v=0 = %v, want raw 0.3", got)
	}
}

func TestConfidenceBoundaries(t *testing.T) {
	cases := []struct {
		reviews int64
		want    catalog.Confidence
	}{
		{0, catalog.ConfidenceVeryLow},
		{4, catalog.ConfidenceVeryLow},
		{5, catalog.ConfidenceLow},
		{19, catalog.ConfidenceLow},
		{20, catalog.ConfidenceMedium},
		{99, catalog.ConfidenceMedium},
		{100, catalog.ConfidenceHigh},
		{100000, catalog.ConfidenceHigh},
	}
	for _, tc := range cases {
		if got := ConfidenceFor(tc.reviews); got != tc.want {
			t.Errorf("ConfidenceFor(%d) = %q, want %q", tc.reviews, got, tc.want)
		}
	}
}

func TestSuspicious(t *testing.T) {
	p := DefaultParams()
	cases := []struct {
		engagement  float64
		subscribers int64
		want        bool
	}{
		{1.0, 10, true},
		{0.99, 49, true},
		{0.99, 50, false}, // at the subscriber threshold the flag must clear
		{1.0, 50, false},
		{0.98, 10, false},
		{0.5, 5, false},
	}
	for _, tc := range cases {
		if got := p.Suspicious(tc.engagement, tc.subscribers); got != tc.want {
			t.Errorf("Suspicious(%v, %d) = %v, want %v", tc.engagement, tc.subscribers, got, tc.want)
		}
	}
}

func TestEnrichEmptyDataset(t *testing.T) {
	_, err := Enrich(nil, DefaultParams())
	if !errors.Is(err, apperrors.ErrInsufficientData) {
		t.Fatalf("Enrich(nil) error = %v, want ErrInsufficientData", err)
	}
}

func TestEnrich(t *testing.T) {
	courses := []catalog.Course{
		{ID: 1, Title: "A", Subject: "X", Reviews: 100, Subscribers: 1000, PopularityScore: 0.9},
		{ID: 2, Title: "B", Subject: "X", Reviews: 2, Subscribers: 5, PopularityScore: 0.1},
		{ID: 3, Title: "C", Subject: "Y", Reviews: 50, Subscribers: 500, PopularityScore: 0.5},
	}
	enriched, err := Enrich(courses, DefaultParams())
	if err != nil {
		t.Fatalf("Enrich returned error: %v", err)
	}
	if len(enriched) != 3 {
		t.Fatalf("Enrich returned %d rows, want 3", len(enriched))
	}

	mean := (0.9 + 0.1 + 0.5) / 3

	// A has strong evidence: adjusted stays near raw.
	a := enriched[0]
	if math.Abs(a.BayesianPopularity-0.9) > math.Abs(a.BayesianPopularity-mean) {
		t.Errorf("A adjusted %v should be closer to raw 0.9 than to mean %v", a.BayesianPopularity, mean)
	}

	// B has almost no evidence: adjusted collapses toward the mean.
	b := enriched[1]
	if math.Abs(b.BayesianPopularity-mean) > math.Abs(b.BayesianPopularity-0.1) {
		t.Errorf("B adjusted %v should be closer to mean %v than to raw 0.1", b.BayesianPopularity, mean)
	}
	wantB := (2.0/12.0)*0.1 + (10.0/12.0)*mean
	if !almostEqual(b.BayesianPopularity, wantB) {
		t.Errorf("B adjusted = %v, want %v", b.BayesianPopularity, wantB)
	}

	if a.Confidence != catalog.ConfidenceHigh {
		t.Errorf("A confidence = %q, want High", a.Confidence)
	}
	if b.Confidence != catalog.ConfidenceVeryLow {
		t.Errorf("B confidence = %q, want Very Low", b.Confidence)
	}
	if enriched[2].Confidence != catalog.ConfidenceMedium {
		t.Errorf("C confidence = %q, want Medium", enriched[2].Confidence)
	}

	for i, e := range enriched {
		want := EngagementRate(courses[i].Reviews, courses[i].Subscribers)
		if !almostEqual(e.Engagement, want) {
			t.Errorf("row %d engagement = %v, want %v", i, e.Engagement, want)
		}
	}
}

func TestEnrichSuspicionFlag(t *testing.T) {
	courses := []catalog.Course{
		{ID: 1, Reviews: 10, Subscribers: 10, PopularityScore: 0.5},  // 100% engagement, tiny sample
		{ID: 2, Reviews: 50, Subscribers: 50, PopularityScore: 0.5},  // 100% engagement but at the threshold
		{ID: 3, Reviews: 10, Subscribers: 100, PopularityScore: 0.5},
	}
	enriched, err := Enrich(courses, DefaultParams())
	if err != nil {
		t.Fatalf("Enrich returned error: %v", err)
	}
	if !enriched[0].Suspicious {
		t.Error("row 0 should be suspicious")
	}
	if enriched[1].Suspicious {
		t.Error("row 1 should not be suspicious at 50 subscribers")
	}
	if enriched[2].Suspicious {
		t.Error("row 2 should not be suspicious")
	}
}

func TestEnrichQualityOnlyWhenPresent(t *testing.T) {
	courses := []catalog.Course{
		{ID: 1, Reviews: 100, Subscribers: 1000, PopularityScore: 0.9, QualityScore: 0.8, HasQuality: true},
		{ID: 2, Reviews: 10, Subscribers: 100, PopularityScore: 0.3},
	}
	enriched, err := Enrich(courses, DefaultParams())
	if err != nil {
		t.Fatalf("Enrich returned error: %v", err)
	}
	if enriched[0].BayesianQuality == 0 {
		t.Error("row 0 has a quality score, bayesian quality should be set")
	}
	if enriched[1].BayesianQuality != 0 {
		t.Error("row 1 has no quality score, bayesian quality should stay zero")
	}
}
