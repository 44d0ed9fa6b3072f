package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"student-report-service/internal/models"
)

func newTask(id string) *models.ReportTask {
	return &models.ReportTask{
		ID:         id,
		StudentID:  "s1",
		ReportKind: models.ReportKindPerformance,
		Status:     models.TaskStatusPending,
		Message:    "Initializing report generation...",
		CreatedAt:  time.Now(),
	}
}

func TestMemoryTaskStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryTaskStore()

	if err := store.Create(ctx, newTask("t1")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.Create(ctx, newTask("t1")); err == nil {
		t.Error("duplicate Create should fail")
	}

	if err := store.MarkProcessing(ctx, "t1", "Performance Report"); err != nil {
		t.Fatalf("MarkProcessing: %v", err)
	}
	if err := store.SetProgress(ctx, "t1", 40, "Analyzing GPA trends..."); err != nil {
		t.Fatalf("SetProgress: %v", err)
	}

	task, err := store.Get(ctx, "t1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if task.Status != models.TaskStatusProcessing || task.Progress != 40 || task.Title != "Performance Report" {
		t.Errorf("task = %+v", task)
	}

	result := &models.ReportPayload{ReportKind: models.ReportKindPerformance}
	if err := store.Complete(ctx, "t1", result, "http://example.com/report.txt"); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	task, _ = store.Get(ctx, "t1")
	if task.Status != models.TaskStatusCompleted {
		t.Errorf("Status = %s, want completed", task.Status)
	}
	if task.Progress != 100 {
		t.Errorf("Progress = %d, want 100", task.Progress)
	}
	if task.Message != "Report generated successfully!" {
		t.Errorf("Message = %q", task.Message)
	}
	if task.Result == nil || task.CompletedAt == nil {
		t.Error("completed task missing result or completion time")
	}
	if task.FileURL != "http://example.com/report.txt" {
		t.Errorf("FileURL = %q", task.FileURL)
	}
}

func TestMemoryTaskStoreTerminalImmutable(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryTaskStore()
	_ = store.Create(ctx, newTask("t1"))
	_ = store.Fail(ctx, "t1", "boom")

	if err := store.SetProgress(ctx, "t1", 50, "late write"); err == nil {
		t.Error("SetProgress on failed task should be rejected")
	}
	if err := store.Complete(ctx, "t1", nil, ""); err == nil {
		t.Error("Complete on failed task should be rejected")
	}
	if err := store.Fail(ctx, "t1", "again"); err == nil {
		t.Error("Fail on failed task should be rejected")
	}

	task, _ := store.Get(ctx, "t1")
	if task.Status != models.TaskStatusFailed || task.Error != "boom" || task.Progress != 0 {
		t.Errorf("terminal task mutated: %+v", task)
	}
}

func TestMemoryTaskStoreNotFound(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryTaskStore()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Get error = %v, want ErrTaskNotFound", err)
	}
	if err := store.MarkProcessing(ctx, "missing", "x"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("MarkProcessing error = %v, want ErrTaskNotFound", err)
	}
}

func TestMemoryTaskStoreSnapshots(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryTaskStore()
	_ = store.Create(ctx, newTask("t1"))

	task, _ := store.Get(ctx, "t1")
	task.Status = models.TaskStatusCompleted

	stored, _ := store.Get(ctx, "t1")
	if stored.Status != models.TaskStatusPending {
		t.Error("Get must return a copy, not shared state")
	}
}

func TestMemoryTaskStoreListByStudent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryTaskStore()
	_ = store.Create(ctx, newTask("t1"))
	_ = store.Create(ctx, newTask("t2"))
	other := newTask("t3")
	other.StudentID = "s2"
	_ = store.Create(ctx, other)

	tasks, err := store.ListByStudent(ctx, "s1")
	if err != nil {
		t.Fatalf("ListByStudent: %v", err)
	}
	if len(tasks) != 2 {
		t.Errorf("got %d tasks for s1, want 2", len(tasks))
	}
}
