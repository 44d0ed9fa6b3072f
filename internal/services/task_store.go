package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"student-report-service/internal/models"
)

// TaskStore persists report tasks. Each task has a single writer (the worker
// that owns it) after creation, so implementations only need per-task write
// atomicity. Implementations must refuse writes to terminal tasks.
type TaskStore interface {
	Create(ctx context.Context, task *models.ReportTask) error
	Get(ctx context.Context, taskID string) (*models.ReportTask, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.ReportTask, error)

	MarkProcessing(ctx context.Context, taskID, title string) error
	SetProgress(ctx context.Context, taskID string, progress int, message string) error
	Complete(ctx context.Context, taskID string, result *models.ReportPayload, fileURL string) error
	Fail(ctx context.Context, taskID string, errMsg string) error
}

// MemoryTaskStore keeps tasks in memory. Used when MongoDB is not configured
// and by the test suite.
type MemoryTaskStore struct {
	tasks map[string]*models.ReportTask
	mutex sync.RWMutex
}

// NewMemoryTaskStore creates an empty in-memory task store
func NewMemoryTaskStore() *MemoryTaskStore {
	return &MemoryTaskStore{
		tasks: make(map[string]*models.ReportTask),
	}
}

// Create stores a new task
func (s *MemoryTaskStore) Create(ctx context.Context, task *models.ReportTask) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.tasks[task.ID]; exists {
		return fmt.Errorf("task already exists: %s", task.ID)
	}
	copied := *task
	s.tasks[task.ID] = &copied
	return nil
}

// Get returns a snapshot of the task
func (s *MemoryTaskStore) Get(ctx context.Context, taskID string) (*models.ReportTask, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	task, exists := s.tasks[taskID]
	if !exists {
		return nil, ErrTaskNotFound
	}
	copied := *task
	return &copied, nil
}

// ListByStudent returns snapshots of all tasks for a student
func (s *MemoryTaskStore) ListByStudent(ctx context.Context, studentID string) ([]models.ReportTask, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var tasks []models.ReportTask
	for _, task := range s.tasks {
		if task.StudentID == studentID {
			tasks = append(tasks, *task)
		}
	}
	return tasks, nil
}

// MarkProcessing moves a pending task into processing
func (s *MemoryTaskStore) MarkProcessing(ctx context.Context, taskID, title string) error {
	return s.update(taskID, func(task *models.ReportTask) {
		task.Status = models.TaskStatusProcessing
		task.Title = title
	})
}

// SetProgress records a progress step on a processing task
func (s *MemoryTaskStore) SetProgress(ctx context.Context, taskID string, progress int, message string) error {
	return s.update(taskID, func(task *models.ReportTask) {
		task.Progress = progress
		task.Message = message
	})
}

// Complete moves a task into the completed terminal state
func (s *MemoryTaskStore) Complete(ctx context.Context, taskID string, result *models.ReportPayload, fileURL string) error {
	return s.update(taskID, func(task *models.ReportTask) {
		now := time.Now()
		task.Status = models.TaskStatusCompleted
		task.Progress = 100
		task.Message = "Report generated successfully!"
		task.Result = result
		task.FileURL = fileURL
		task.CompletedAt = &now
	})
}

// Fail moves a task into the failed terminal state
func (s *MemoryTaskStore) Fail(ctx context.Context, taskID string, errMsg string) error {
	return s.update(taskID, func(task *models.ReportTask) {
		task.Status = models.TaskStatusFailed
		task.Error = errMsg
	})
}

func (s *MemoryTaskStore) update(taskID string, apply func(*models.ReportTask)) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	task, exists := s.tasks[taskID]
	if !exists {
		return ErrTaskNotFound
	}
	if task.Status.IsTerminal() {
		return fmt.Errorf("task %s is %s and cannot be updated", taskID, task.Status)
	}
	apply(task)
	return nil
}
