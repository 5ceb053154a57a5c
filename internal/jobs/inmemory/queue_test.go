package inmemory

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dvloznov/finance-assistant/internal/jobs"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestQueueProcessesJob(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, store)
	defer q.Close()

	processed := make(chan string, 1)
	handler := func(_ context.Context, job jobs.Job) error {
		processed <- job.GetID()
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := q.Start(ctx, handler); err != nil {
		t.Fatalf("Start: %v", err)
	}

	job := &jobs.ExportReportJob{
		ReportID: "r1",
		UserID:   "u1",
		Targets:  []string{jobs.TargetGCS},
	}
	if err := q.PublishExportReport(ctx, job); err != nil {
		t.Fatalf("PublishExportReport: %v", err)
	}
	if job.JobID == "" {
		t.Fatal("publish should assign a job ID")
	}

	select {
	case id := <-processed:
		if id != job.JobID {
			t.Errorf("processed %q, want %q", id, job.JobID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("job never processed")
	}

	waitFor(t, 2*time.Second, func() bool {
		got, err := store.GetJob(context.Background(), job.JobID)
		return err == nil && got.Status == jobs.JobStatusCompleted
	})
}

func TestQueueRetriesFailedJob(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, store)
	defer q.Close()

	var attempts atomic.Int64
	handler := func(_ context.Context, job jobs.Job) error {
		if attempts.Add(1) < 2 {
			return errors.New("transient export failure")
		}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := q.Start(ctx, handler); err != nil {
		t.Fatalf("Start: %v", err)
	}

	job := &jobs.ExportReportJob{ReportID: "r1", UserID: "u1", MaxRetries: 3}
	if err := q.PublishExportReport(ctx, job); err != nil {
		t.Fatalf("PublishExportReport: %v", err)
	}

	waitFor(t, 5*time.Second, func() bool {
		got, err := store.GetJob(context.Background(), job.JobID)
		return err == nil && got.Status == jobs.JobStatusCompleted
	})

	got, _ := store.GetJob(context.Background(), job.JobID)
	if got.RetryCount != 1 {
		t.Errorf("RetryCount = %d, want 1", got.RetryCount)
	}
}

func TestQueueRejectsAfterClose(t *testing.T) {
	q := NewQueue(1, nil)
	if err := q.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	err := q.PublishExportReport(context.Background(), &jobs.ExportReportJob{ReportID: "r1"})
	if err == nil {
		t.Fatal("expected error on closed queue")
	}
}

func TestStoreFiltersJobs(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	seed := []*jobs.ExportReportJob{
		{JobID: "j1", ReportID: "r1", UserID: "alice", Status: jobs.JobStatusPending},
		{JobID: "j2", ReportID: "r2", UserID: "alice", Status: jobs.JobStatusCompleted},
		{JobID: "j3", ReportID: "r3", UserID: "bob", Status: jobs.JobStatusPending},
	}
	for _, j := range seed {
		if err := store.SaveJob(ctx, j); err != nil {
			t.Fatalf("SaveJob: %v", err)
		}
	}

	got, err := store.ListJobs(ctx, jobs.JobFilter{UserID: "alice", Status: jobs.JobStatusPending})
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if len(got) != 1 || got[0].JobID != "j1" {
		t.Errorf("got %v, want only j1", got)
	}

	if _, err := store.GetJob(ctx, "missing"); err == nil {
		t.Error("expected error for missing job")
	}
}

func TestStoreReturnsCopies(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	job := &jobs.ExportReportJob{JobID: "j1", ReportID: "r1", Status: jobs.JobStatusPending}
	if err := store.SaveJob(ctx, job); err != nil {
		t.Fatalf("SaveJob: %v", err)
	}

	got, err := store.GetJob(ctx, "j1")
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	got.Status = jobs.JobStatusFailed

	again, _ := store.GetJob(ctx, "j1")
	if again.Status != jobs.JobStatusPending {
		t.Errorf("stored job mutated through returned copy")
	}
}
