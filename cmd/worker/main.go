package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/finance-assistant/internal/export"
	infraBQ "github.com/dvloznov/finance-assistant/internal/infra/bigquery"
	"github.com/dvloznov/finance-assistant/internal/jobs/inmemory"
	"github.com/dvloznov/finance-assistant/internal/logger"
)

func main() {
	var (
		projectID   = flag.String("project", os.Getenv("GOOGLE_CLOUD_PROJECT"), "GCP project ID (or set GOOGLE_CLOUD_PROJECT)")
		datasetID   = flag.String("dataset", "", "BigQuery dataset (default finance)")
		bucket      = flag.String("bucket", os.Getenv("GCS_BUCKET"), "GCS bucket for report exports (or set GCS_BUCKET)")
		notionToken = flag.String("notion-token", os.Getenv("NOTION_TOKEN"), "Notion API token (or set NOTION_TOKEN)")
		notionDB    = flag.String("notion-db", os.Getenv("NOTION_REPORTS_DB"), "Notion database ID for exported reports (or set NOTION_REPORTS_DB)")
	)
	flag.Parse()

	log := logger.New("worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo, err := infraBQ.NewRepository(ctx, *projectID, *datasetID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery repository")
	}
	defer repo.Close()

	var archiver *export.GCSArchiver
	if *bucket != "" {
		archiver, err = export.NewGCSArchiver(ctx, *bucket)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create GCS archiver")
		}
		defer archiver.Close()
	}

	var notionExporter *export.NotionExporter
	if *notionToken != "" && *notionDB != "" {
		notionExporter = export.NewNotionExporter(export.NewNotionClient(*notionToken), *notionDB)
	}

	exporter := export.NewExporter(repo, archiver, notionExporter, log)

	// In production this queue would be replaced with Cloud Tasks or
	// Pub/Sub; the in-memory queue serves single-instance deployments.
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore)

	log.Info().Msg("Starting worker service")

	if err := jobQueue.Start(ctx, exporter.Handle); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	log.Info().Msg("Worker service started, waiting for jobs...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker service...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}

	log.Info().Msg("Worker service exited")
}
