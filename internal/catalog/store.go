package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"courseintel/pkg/postgres"
)

// Store is the PostgreSQL-backed dataset provider. The engine only reads
// from it; writes happen in the importer job.
type Store struct {
	db     *postgres.Client
	table  string
	logger *slog.Logger
}

// NewStore creates a Store reading from the given table.
func NewStore(db *postgres.Client, table string) *Store {
	return &Store{
		db:     db,
		table:  table,
		logger: slog.Default().With("component", "catalog-store"),
	}
}

// LoadAll returns every course row ordered by ID. Row order is what anchors
// the similarity matrix indices, so it must be deterministic.
func (s *Store) LoadAll(ctx context.Context) ([]Course, error) {
	query := fmt.Sprintf(`
		SELECT course_id, course_title, url, subject, level, price, is_paid,
		       num_subscribers, num_reviews, num_lectures, content_duration,
		       published_timestamp, published_year,
		       popularity_score, quality_score,
		       course_age_months, avg_lecture_duration, price_per_hour,
		       length_category, price_category
		FROM %s
		ORDER BY course_id`, pq.QuoteIdentifier(s.table))

	rows, err := s.db.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying courses: %w", err)
	}
	defer rows.Close()

	var courses []Course
	for rows.Next() {
		var c Course
		var url, lengthCat, priceCat sql.NullString
		var quality sql.NullFloat64
		if err := rows.Scan(
			&c.ID, &c.Title, &url, &c.Subject, &c.Level, &c.Price, &c.IsPaid,
			&c.Subscribers, &c.Reviews, &c.Lectures, &c.ContentHours,
			&c.PublishedAt, &c.PublishedYear,
			&c.PopularityScore, &quality,
			&c.CourseAgeMonths, &c.AvgLectureHours, &c.PricePerHour,
			&lengthCat, &priceCat,
		); err != nil {
			return nil, fmt.Errorf("scanning course row: %w", err)
		}
		c.URL = url.String
		c.LengthCategory = lengthCat.String
		c.PriceCategory = priceCat.String
		if quality.Valid {
			c.QualityScore = quality.Float64
			c.HasQuality = true
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating course rows: %w", err)
	}
	s.logger.Debug("courses loaded", "count", len(courses))
	return courses, nil
}

// ReplaceAll bulk-loads courses into the table via COPY inside a single
// transaction, optionally truncating first. Used by the importer job.
func (s *Store) ReplaceAll(ctx context.Context, courses []Course, truncate bool) error {
	return s.db.InTx(ctx, func(tx *sql.Tx) error {
		if truncate {
			if _, err := tx.ExecContext(ctx, fmt.Sprintf("TRUNCATE TABLE %s", pq.QuoteIdentifier(s.table))); err != nil {
				return fmt.Errorf("truncating %s: %w", s.table, err)
			}
		}
		stmt, err := tx.PrepareContext(ctx, pq.CopyIn(s.table,
			"course_id", "course_title", "url", "subject", "level", "price",
			"is_paid", "num_subscribers", "num_reviews", "num_lectures",
			"content_duration", "published_timestamp", "published_year",
			"popularity_score", "quality_score", "course_age_months",
			"avg_lecture_duration", "price_per_hour", "length_category",
			"price_category",
		))
		if err != nil {
			return fmt.Errorf("preparing copy: %w", err)
		}
		for _, c := range courses {
			var quality any
			if c.HasQuality {
				quality = c.QualityScore
			}
			if _, err := stmt.ExecContext(ctx,
				c.ID, c.Title, c.URL, c.Subject, c.Level, c.Price,
				c.IsPaid, c.Subscribers, c.Reviews, c.Lectures,
				c.ContentHours, c.PublishedAt, c.PublishedYear,
				c.PopularityScore, quality, c.CourseAgeMonths,
				c.AvgLectureHours, c.PricePerHour, c.LengthCategory,
				c.PriceCategory,
			); err != nil {
				return fmt.Errorf("copying course %d: %w", c.ID, err)
			}
		}
		if _, err := stmt.ExecContext(ctx); err != nil {
			return fmt.Errorf("flushing copy: %w", err)
		}
		if err := stmt.Close(); err != nil {
			return fmt.Errorf("closing copy statement: %w", err)
		}
		s.logger.Info("courses loaded into postgres", "table", s.table, "count", len(courses))
		return nil
	})
}
