package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-assistant/internal/assistant"
	"github.com/dvloznov/finance-assistant/internal/chat"
	"github.com/dvloznov/finance-assistant/internal/export"
	infraBQ "github.com/dvloznov/finance-assistant/internal/infra/bigquery"
	"github.com/dvloznov/finance-assistant/internal/jobs"
	"github.com/dvloznov/finance-assistant/internal/logger"
	"github.com/dvloznov/finance-assistant/internal/query"
)

func main() {
	log := logger.New("cli")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "ask":
		runAsk(log)
	case "history":
		runHistory(log)
	case "export":
		runExport(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Finance Assistant CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  ask       Ask a one-shot question and print the formatted answer")
	fmt.Println("  history   Print a conversation's messages")
	fmt.Println("  export    Export a saved report to GCS or Notion")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

func newRepository(ctx context.Context, log zerolog.Logger, projectID, datasetID string) *infraBQ.Repository {
	repo, err := infraBQ.NewRepository(ctx, projectID, datasetID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery repository")
	}
	return repo
}

func runAsk(log zerolog.Logger) {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	userID := fs.String("user", os.Getenv("FINANCE_USER_ID"), "user ID (or set FINANCE_USER_ID)")
	conversationID := fs.String("conversation", "", "existing conversation ID (optional)")
	projectID := fs.String("project", os.Getenv("GOOGLE_CLOUD_PROJECT"), "GCP project ID")
	model := fs.String("model", os.Getenv("GEMINI_MODEL"), "Gemini model name")
	fs.Parse(os.Args[2:])

	if *userID == "" {
		log.Fatal().Msg("Error: --user is required")
	}
	message := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if message == "" {
		log.Fatal().Msg("Error: a question is required, e.g. cli ask --user u1 how much did I spend last month")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	repo := newRepository(ctx, log, *projectID, "")
	defer repo.Close()

	generator, err := assistant.NewGeminiGenerator(ctx, *model)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini generator")
	}

	executor := query.NewExecutor(repo, log)
	a := assistant.New(generator, executor, repo, repo, log)

	cid := *conversationID
	if cid == "" {
		conv, err := startConversation(ctx, repo, *userID, message)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create conversation")
		}
		cid = conv
	}

	err = a.RunTurn(ctx, *userID, cid, message, func(e assistant.Event) {
		switch e.Type {
		case "delta":
			fmt.Print(e.Delta)
		case "response":
			fmt.Println()
			printResponse(e.Response)
		case "error":
			fmt.Fprintln(os.Stderr, "error:", e.Error)
		}
	})
	if err != nil {
		os.Exit(1)
	}
	fmt.Println("\nconversation:", cid)
}

func startConversation(ctx context.Context, repo *infraBQ.Repository, userID, message string) (string, error) {
	title := message
	if len(title) > 60 {
		title = title[:60]
	}
	conv := &chat.Conversation{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     title,
		CreatedAt: time.Now(),
	}
	if err := repo.CreateConversation(ctx, conv); err != nil {
		return "", err
	}
	return conv.ID, nil
}

func printResponse(resp any) {
	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		fmt.Println(resp)
		return
	}
	fmt.Println(string(out))
}

func runHistory(log zerolog.Logger) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	userID := fs.String("user", os.Getenv("FINANCE_USER_ID"), "user ID (or set FINANCE_USER_ID)")
	conversationID := fs.String("conversation", "", "conversation ID")
	projectID := fs.String("project", os.Getenv("GOOGLE_CLOUD_PROJECT"), "GCP project ID")
	fs.Parse(os.Args[2:])

	if *userID == "" || *conversationID == "" {
		log.Fatal().Msg("Error: --user and --conversation are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	repo := newRepository(ctx, log, *projectID, "")
	defer repo.Close()

	messages, err := repo.ListMessages(ctx, *userID, *conversationID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list messages")
	}

	for _, m := range messages {
		fmt.Printf("[%s] %s: %s\n", m.CreatedAt.Format(time.RFC3339), m.Role, m.Content)
	}
}

func runExport(log zerolog.Logger) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	userID := fs.String("user", os.Getenv("FINANCE_USER_ID"), "user ID (or set FINANCE_USER_ID)")
	reportID := fs.String("report", "", "report ID")
	targets := fs.String("targets", jobs.TargetGCS, "comma-separated export targets (gcs, notion)")
	projectID := fs.String("project", os.Getenv("GOOGLE_CLOUD_PROJECT"), "GCP project ID")
	bucket := fs.String("bucket", os.Getenv("GCS_BUCKET"), "GCS bucket for report exports")
	notionToken := fs.String("notion-token", os.Getenv("NOTION_TOKEN"), "Notion API token")
	notionDB := fs.String("notion-db", os.Getenv("NOTION_REPORTS_DB"), "Notion database ID")
	fs.Parse(os.Args[2:])

	if *userID == "" || *reportID == "" {
		log.Fatal().Msg("Error: --user and --report are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	repo := newRepository(ctx, log, *projectID, "")
	defer repo.Close()

	var archiver *export.GCSArchiver
	if *bucket != "" {
		var err error
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

	// The CLI runs the job in-process rather than enqueueing it.
	job := &jobs.ExportReportJob{
		JobID:    "cli",
		ReportID: *reportID,
		UserID:   *userID,
		Targets:  strings.Split(*targets, ","),
	}
	if err := exporter.Handle(ctx, job); err != nil {
		log.Fatal().Err(err).Msg("Export failed")
	}

	fmt.Println("Export completed successfully.")
}
