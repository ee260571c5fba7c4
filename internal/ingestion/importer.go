package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"courseintel/internal/catalog"
	"courseintel/pkg/config"
	"courseintel/pkg/kafka"
	"courseintel/pkg/metrics"
	"courseintel/pkg/resilience"
)

// RefreshEvent is published on the catalog-refresh topic after a successful
// import so serving instances rebuild their snapshots.
type RefreshEvent struct {
	Source      string    `json:"source"`
	Courses     int       `json:"courses"`
	CompletedAt time.Time `json:"completed_at"`
}

// Importer runs the batch import: CSV → clean/dedupe → feature engineering
// → Postgres bulk load → refresh event.
type Importer struct {
	store    *catalog.Store
	producer *kafka.Producer
	metrics  *metrics.Metrics
	cfg      config.ImporterConfig
	logger   *slog.Logger
}

// NewImporter creates an Importer. producer and metrics may be nil (the
// load still happens; downstream notification and instrumentation are
// skipped).
func NewImporter(store *catalog.Store, producer *kafka.Producer, m *metrics.Metrics, cfg config.ImporterConfig) *Importer {
	return &Importer{
		store:    store,
		producer: producer,
		metrics:  m,
		cfg:      cfg,
		logger:   slog.Default().With("component", "importer"),
	}
}

// Run executes a full import of the configured CSV file.
func (im *Importer) Run(ctx context.Context) (Report, error) {
	f, err := os.Open(im.cfg.CSVPath)
	if err != nil {
		return Report{}, fmt.Errorf("opening %s: %w", im.cfg.CSVPath, err)
	}
	defer f.Close()

	courses, report, err := ParseCSV(f)
	if err != nil {
		return report, fmt.Errorf("parsing %s: %w", im.cfg.CSVPath, err)
	}
	im.logger.Info("csv parsed",
		"rows_read", report.RowsRead,
		"missing_fields", report.MissingFields,
		"bad_records", report.BadRecords,
		"duplicates", report.Duplicates,
		"imported", report.Imported,
	)
	if im.metrics != nil {
		im.metrics.RowsRejectedTotal.WithLabelValues("missing_fields").Add(float64(report.MissingFields))
		im.metrics.RowsRejectedTotal.WithLabelValues("bad_record").Add(float64(report.BadRecords))
		im.metrics.RowsRejectedTotal.WithLabelValues("duplicate").Add(float64(report.Duplicates))
	}

	EngineerFeatures(courses, time.Now().UTC())

	if err := im.store.ReplaceAll(ctx, courses, im.cfg.Truncate); err != nil {
		return report, fmt.Errorf("loading courses: %w", err)
	}
	if im.metrics != nil {
		im.metrics.CoursesImportedTotal.Add(float64(len(courses)))
	}

	if im.producer != nil {
		event := RefreshEvent{
			Source:      im.cfg.CSVPath,
			Courses:     len(courses),
			CompletedAt: time.Now().UTC(),
		}
		err := resilience.Retry(ctx, "publish-refresh", resilience.Policy{}, func() error {
			return im.producer.Publish(ctx, kafka.Event{Key: "catalog-refresh", Value: event})
		})
		if err != nil {
			// The data is already loaded; a lost notification only delays
			// the snapshot rebuild until the next manual refresh.
			im.logger.Error("failed to publish refresh event", "error", err)
		} else {
			im.logger.Info("refresh event published", "courses", event.Courses)
		}
	}
	return report, nil
}
