package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"courseintel/internal/catalog"
	"courseintel/internal/ingestion"
	"courseintel/pkg/config"
	"courseintel/pkg/kafka"
	"courseintel/pkg/logger"
	"courseintel/pkg/postgres"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	csvPath := flag.String("csv", "", "path to the course CSV (overrides config)")
	truncate := flag.Bool("truncate", false, "truncate the courses table before loading")
	skipPublish := flag.Bool("skip-publish", false, "skip publishing the refresh event")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *csvPath != "" {
		cfg.Importer.CSVPath = *csvPath
	}
	if *truncate {
		cfg.Importer.Truncate = true
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting course importer",
		"csv", cfg.Importer.CSVPath,
		"table", cfg.Importer.Table,
		"truncate", cfg.Importer.Truncate,
	)

	db, err := postgres.New(cfg.Postgres)
	if err != nil {
		slog.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	store := catalog.NewStore(db, cfg.Importer.Table)

	var producer *kafka.Producer
	if !*skipPublish {
		producer = kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.CatalogRefresh)
		defer producer.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	importer := ingestion.NewImporter(store, producer, nil, cfg.Importer)
	report, err := importer.Run(ctx)
	if err != nil {
		slog.Error("import failed", "error", err)
		os.Exit(1)
	}
	slog.Info("import complete",
		"rows_read", report.RowsRead,
		"imported", report.Imported,
		"missing_fields", report.MissingFields,
		"bad_records", report.BadRecords,
		"duplicates", report.Duplicates,
	)
}
