// Package ingestion implements the batch import job: it parses the course
// CSV, cleans and deduplicates rows, engineers the raw popularity and
// quality scores the Bayesian scorer later adjusts, bulk-loads PostgreSQL,
// and announces the refresh on Kafka.
package ingestion

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"courseintel/internal/catalog"
)

// Report counts what happened to the rows of one import run.
type Report struct {
	RowsRead      int `json:"rows_read"`
	MissingFields int `json:"missing_fields"`
	BadRecords    int `json:"bad_records"`
	Duplicates    int `json:"duplicates"`
	Imported      int `json:"imported"`
}

// requiredColumns are the CSV headers the parser needs to locate.
var requiredColumns = []string{
	"course_id", "course_title", "is_paid", "price", "num_subscribers",
	"num_reviews", "num_lectures", "level", "content_duration",
	"published_timestamp", "subject",
}

// ParseCSV reads the raw course CSV, dropping rows that lack a title or
// subject, defaulting missing prices to 0, and deduplicating by course ID
// keeping the first occurrence. Column order is taken from the header row.
func ParseCSV(r io.Reader) ([]catalog.Course, Report, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, Report{}, fmt.Errorf("reading CSV header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := col[name]; !ok {
			return nil, Report{}, fmt.Errorf("CSV missing required column %q", name)
		}
	}
	urlCol, hasURL := col["url"]

	var report Report
	var courses []catalog.Course
	seen := make(map[int64]struct{})

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, Report{}, fmt.Errorf("reading CSV row: %w", err)
		}
		report.RowsRead++

		field := func(name string) string {
			i := col[name]
			if i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		title := field("course_title")
		subject := field("subject")
		if title == "" || subject == "" {
			report.MissingFields++
			continue
		}

		id, err := strconv.ParseInt(field("course_id"), 10, 64)
		if err != nil {
			report.BadRecords++
			continue
		}
		if _, dup := seen[id]; dup {
			report.Duplicates++
			continue
		}

		c := catalog.Course{
			ID:      id,
			Title:   title,
			Subject: subject,
			Level:   field("level"),
			IsPaid:  parseBool(field("is_paid")),
			Price:   parseFloatDefault(field("price"), 0),
		}
		if hasURL && urlCol < len(record) {
			c.URL = strings.TrimSpace(record[urlCol])
		}
		c.Subscribers, err = strconv.ParseInt(field("num_subscribers"), 10, 64)
		if err != nil {
			report.BadRecords++
			continue
		}
		c.Reviews, err = strconv.ParseInt(field("num_reviews"), 10, 64)
		if err != nil {
			report.BadRecords++
			continue
		}
		c.Lectures, _ = strconv.Atoi(field("num_lectures"))
		c.ContentHours = parseFloatDefault(field("content_duration"), 0)

		c.PublishedAt, err = time.Parse(time.RFC3339, field("published_timestamp"))
		if err != nil {
			report.BadRecords++
			continue
		}
		c.PublishedYear = c.PublishedAt.Year()

		seen[id] = struct{}{}
		courses = append(courses, c)
	}
	report.Imported = len(courses)
	return courses, report, nil
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "t", "1", "yes":
		return true
	default:
		return false
	}
}

func parseFloatDefault(s string, def float64) float64 {
	if s == "" {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return v
}
