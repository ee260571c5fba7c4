// Package benchmark contains Go benchmarks for the similarity index build
// and the snapshot query path, measuring throughput and allocation behaviour.
package benchmark

import (
	"fmt"
	"testing"

	"courseintel/internal/catalog"
	"courseintel/internal/recommend"
	"courseintel/internal/scoring"
	"courseintel/internal/similarity"
)

var subjects = []string{"Business Finance", "Web Development", "Musical Instruments", "Graphic Design"}

var titleTerms = []string{
	"python", "javascript", "trading", "investing", "guitar", "piano",
	"photoshop", "illustrator", "react", "django", "accounting", "forex",
	"beginners", "advanced", "masterclass", "bootcamp", "complete", "ultimate",
}

func syntheticCatalog(n int) []catalog.Course {
	courses := make([]catalog.Course, n)
	for i := range courses {
		courses[i] = catalog.Course{
			ID:      int64(i + 1),
			Title:   fmt.Sprintf("%s %s %s", titleTerms[i%len(titleTerms)], titleTerms[(i+5)%len(titleTerms)], titleTerms[(i+11)%len(titleTerms)]),
			Subject: subjects[i%len(subjects)],
			Price:   float64(20 + i%180),
			IsPaid:  true,
			// Spread review counts so every confidence tier is represented.
			Reviews:         int64(i % 500),
			Subscribers:     int64(100 + (i%500)*20),
			PopularityScore: float64(i%100) / 100,
		}
	}
	return courses
}

func syntheticContents(n int) []string {
	courses := syntheticCatalog(n)
	contents := make([]string, n)
	for i, c := range courses {
		contents[i] = c.ContentText()
	}
	return contents
}

// BenchmarkIndexBuild measures the O(N²) similarity matrix materialization
// at various corpus sizes.
func BenchmarkIndexBuild(b *testing.B) {
	sizes := []int{100, 500, 2000}
	for _, size := range sizes {
		b.Run(fmt.Sprintf("courses_%d", size), func(b *testing.B) {
			contents := syntheticContents(size)
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				idx, err := similarity.Build(contents, 500)
				if err != nil {
					b.Fatal(err)
				}
				_ = idx
			}
		})
	}
}

// BenchmarkTokenize measures tokenization throughput on a typical title.
func BenchmarkTokenize(b *testing.B) {
	text := "The Complete Python Bootcamp: From Zero to Hero in Python 3 Web Development"
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tokens := similarity.Tokenize(text)
		_ = tokens
	}
}

func buildBenchSnapshot(b *testing.B, n int) *recommend.Snapshot {
	b.Helper()
	enriched, err := scoring.Enrich(syntheticCatalog(n), scoring.DefaultParams())
	if err != nil {
		b.Fatal(err)
	}
	contents := make([]string, len(enriched))
	for i, c := range enriched {
		contents[i] = c.ContentText()
	}
	index, err := similarity.Build(contents, 500)
	if err != nil {
		b.Fatal(err)
	}
	return recommend.NewSnapshot("bench", enriched, index)
}

// BenchmarkRecommend measures single-query latency over 2 000 courses.
func BenchmarkRecommend(b *testing.B) {
	snap := buildBenchSnapshot(b, 2000)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		results, err := snap.Recommend(int64(i%2000)+1, 10, 5)
		if err != nil {
			b.Fatal(err)
		}
		_ = results
	}
}

// BenchmarkRecommendParallel measures concurrent read throughput against a
// single snapshot.
func BenchmarkRecommendParallel(b *testing.B) {
	snap := buildBenchSnapshot(b, 2000)
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		var i int64
		for pb.Next() {
			i++
			results, err := snap.Recommend(i%2000+1, 10, 5)
			if err != nil {
				b.Fatal(err)
			}
			_ = results
		}
	})
}

// BenchmarkEnrich measures the Bayesian enrichment pass.
func BenchmarkEnrich(b *testing.B) {
	courses := syntheticCatalog(5000)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		enriched, err := scoring.Enrich(courses, scoring.DefaultParams())
		if err != nil {
			b.Fatal(err)
		}
		_ = enriched
	}
}
