package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dvloznov/finance-assistant/internal/api/handlers"
	"github.com/dvloznov/finance-assistant/internal/api/middleware"
	"github.com/dvloznov/finance-assistant/internal/assistant"
	"github.com/dvloznov/finance-assistant/internal/export"
	infraBQ "github.com/dvloznov/finance-assistant/internal/infra/bigquery"
	"github.com/dvloznov/finance-assistant/internal/jobs/inmemory"
	"github.com/dvloznov/finance-assistant/internal/logger"
	"github.com/dvloznov/finance-assistant/internal/query"
)

func main() {
	var (
		port         = flag.String("port", "8080", "HTTP server port")
		projectID    = flag.String("project", os.Getenv("GOOGLE_CLOUD_PROJECT"), "GCP project ID (or set GOOGLE_CLOUD_PROJECT)")
		datasetID    = flag.String("dataset", "", "BigQuery dataset (default finance)")
		model        = flag.String("model", os.Getenv("GEMINI_MODEL"), "Gemini model name (or set GEMINI_MODEL)")
		bucket       = flag.String("bucket", os.Getenv("GCS_BUCKET"), "GCS bucket for report exports (or set GCS_BUCKET)")
		notionToken  = flag.String("notion-token", os.Getenv("NOTION_TOKEN"), "Notion API token (or set NOTION_TOKEN)")
		notionDB     = flag.String("notion-db", os.Getenv("NOTION_REPORTS_DB"), "Notion database ID for exported reports (or set NOTION_REPORTS_DB)")
	)
	flag.Parse()

	log := logger.New("api")
	ctx := context.Background()

	repo, err := infraBQ.NewRepository(ctx, *projectID, *datasetID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery repository")
	}
	defer repo.Close()

	generator, err := assistant.NewGeminiGenerator(ctx, *model)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini generator")
	}

	executor := query.NewExecutor(repo, logger.New("query"))
	chatAssistant := assistant.New(generator, executor, repo, repo, logger.New("assistant"))

	// Export infrastructure. Targets stay optional: an unconfigured target
	// fails the job that names it, not the whole service.
	var archiver *export.GCSArchiver
	if *bucket != "" {
		archiver, err = export.NewGCSArchiver(ctx, *bucket)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create GCS archiver")
		}
		defer archiver.Close()
	} else {
		log.Warn().Msg("No GCS bucket configured - gcs report exports will fail")
	}

	var notionExporter *export.NotionExporter
	if *notionToken != "" && *notionDB != "" {
		notionExporter = export.NewNotionExporter(export.NewNotionClient(*notionToken), *notionDB)
	} else {
		log.Warn().Msg("Notion not configured - notion report exports will fail")
	}

	exporter := export.NewExporter(repo, archiver, notionExporter, logger.New("export"))

	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	go func() {
		log.Info().Msg("Starting export job worker")
		if err := jobQueue.Start(workerCtx, exporter.Handle); err != nil {
			log.Error().Err(err).Msg("Export job worker stopped with error")
		}
	}()

	chatHandler := handlers.NewChatHandler(chatAssistant, repo, log)
	conversationsHandler := handlers.NewConversationsHandler(repo, log)
	reportsHandler := handlers.NewReportsHandler(repo, jobQueue, log)
	jobsHandler := handlers.NewJobsHandler(jobStore, log)

	apiMux := http.NewServeMux()

	apiMux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			chatHandler.PostChat(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	apiMux.HandleFunc("/api/conversations", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			conversationsHandler.ListConversations(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	apiMux.HandleFunc("/api/conversations/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		rest := strings.TrimPrefix(r.URL.Path, "/api/conversations/")
		conversationID, ok := strings.CutSuffix(rest, "/messages")
		if !ok || conversationID == "" {
			middleware.WriteError(w, http.StatusNotFound, "Not found")
			return
		}
		conversationsHandler.ListMessages(w, r, conversationID)
	})

	apiMux.HandleFunc("/api/reports", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			reportsHandler.ListReports(w, r)
		case http.MethodPost:
			reportsHandler.CreateReport(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	apiMux.HandleFunc("/api/reports/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/api/reports/")
		if reportID, ok := strings.CutSuffix(rest, "/export"); ok && reportID != "" {
			if r.Method != http.MethodPost {
				middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
				return
			}
			reportsHandler.ExportReport(w, r, reportID)
			return
		}
		if r.Method != http.MethodGet || rest == "" {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		reportsHandler.GetReport(w, r, rest)
	})

	apiMux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobsHandler.ListJobs(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	apiMux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
		if jobID == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
			return
		}
		jobsHandler.GetJob(w, r, jobID)
	})

	// The health check sits outside the user scope.
	mux := http.NewServeMux()
	mux.Handle("/api/", middleware.UserID(apiMux))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(mux),
			),
		),
	)

	server := &http.Server{
		Addr:        ":" + *port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// Streaming chat turns can exceed a short write timeout.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", *port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	log.Info().Msg("Server exited")
}
