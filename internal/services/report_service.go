package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"student-report-service/internal/models"
	"student-report-service/internal/utils"
	"student-report-service/internal/validation"
)

// ReportService is the entry point to the report pipeline: it accepts
// generation requests, dispatches background workers, and exposes the
// status/result polling surface. All access is ownership-checked against
// the requester: a student may only reach their own reports, staff may
// reach any.
type ReportService struct {
	tasks     TaskStore
	stats     *StatisticsService
	formatter *FormatterService
	artifacts ArtifactStore // optional; nil disables artifact upload
	validator *validation.ReportValidator
	dispatch  *Dispatcher
	stepDelay time.Duration
}

// NewReportService creates a new report service
func NewReportService(
	tasks TaskStore,
	stats *StatisticsService,
	formatter *FormatterService,
	artifacts ArtifactStore,
	validator *validation.ReportValidator,
	dispatch *Dispatcher,
	stepDelay time.Duration,
) *ReportService {
	return &ReportService{
		tasks:     tasks,
		stats:     stats,
		formatter: formatter,
		artifacts: artifacts,
		validator: validator,
		dispatch:  dispatch,
		stepDelay: stepDelay,
	}
}

// RequestReport validates the report kind, creates a pending task, and hands
// it to a background worker. It returns the created task immediately; the
// caller polls GetStatus for the outcome.
func (s *ReportService) RequestReport(ctx context.Context, studentID, kindStr string, requester models.Requester) (*models.ReportTask, error) {
	kind, ok := models.ParseReportKind(kindStr)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidReportKind, kindStr)
	}

	if !canAccess(requester, studentID) {
		return nil, ErrForbidden
	}

	task := &models.ReportTask{
		ID:         utils.GenerateUUID(),
		StudentID:  studentID,
		ReportKind: kind,
		Status:     models.TaskStatusPending,
		Progress:   0,
		Message:    "Initializing report generation...",
		CreatedAt:  time.Now(),
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create report task: %w", err)
	}

	taskID := task.ID
	if err := s.dispatch.Dispatch(func() { s.runTask(taskID, studentID, kind) }); err != nil {
		// The queue is saturated. Fail the task rather than dropping the
		// request without an observable status.
		if failErr := s.tasks.Fail(ctx, taskID, err.Error()); failErr != nil {
			log.Printf("WARNING: failed to mark task %s as failed: %v", taskID, failErr)
		}
		failed, getErr := s.tasks.Get(ctx, taskID)
		if getErr != nil {
			return nil, err
		}
		return failed, nil
	}

	return task, nil
}

// GetStatus returns a snapshot of the task
func (s *ReportService) GetStatus(ctx context.Context, taskID string, requester models.Requester) (*models.ReportTask, error) {
	task, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !canAccess(requester, task.StudentID) {
		return nil, ErrForbidden
	}
	return task, nil
}

// GetResult returns the completed task. It fails with ErrReportNotReady
// until the task reaches the completed state.
func (s *ReportService) GetResult(ctx context.Context, taskID string, requester models.Requester) (*models.ReportTask, error) {
	task, err := s.GetStatus(ctx, taskID, requester)
	if err != nil {
		return nil, err
	}
	if task.Status != models.TaskStatusCompleted {
		return nil, ErrReportNotReady
	}
	if task.Result == nil {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

// ListReports returns all of a student's report tasks
func (s *ReportService) ListReports(ctx context.Context, studentID string, requester models.Requester) ([]models.ReportTask, error) {
	if !canAccess(requester, studentID) {
		return nil, ErrForbidden
	}
	return s.tasks.ListByStudent(ctx, studentID)
}

// GenerateNow builds and renders a report synchronously, bypassing the task
// pipeline. Used by the scheduled report sender.
func (s *ReportService) GenerateNow(ctx context.Context, studentID string, kind models.ReportKind) (*models.ReportPayload, string, error) {
	payload := s.stats.Build(ctx, kind, studentID)
	if payload.Error != "" {
		return nil, "", fmt.Errorf("report generation failed: %s", payload.Error)
	}
	return payload, s.formatter.RenderText(payload), nil
}

func canAccess(requester models.Requester, studentID string) bool {
	return requester.IsStaff() || requester.UserID == studentID
}

// processingSteps returns the kind-specific step descriptions a worker
// walks through while a report is generated
func processingSteps(kind models.ReportKind) []string {
	switch kind {
	case models.ReportKindPerformance:
		return []string{
			"Gathering academic records...",
			"Analyzing GPA trends...",
			"Processing course completion data...",
			"Generating performance insights...",
			"Compiling final report...",
		}
	case models.ReportKindEndorsement:
		return []string{
			"Collecting peer endorsements...",
			"Analyzing endorsement patterns...",
			"Calculating credibility scores...",
			"Generating social insights...",
			"Compiling final report...",
		}
	default:
		return []string{
			"Gathering comprehensive data...",
			"Analyzing academic performance...",
			"Processing peer interactions...",
			"Generating holistic insights...",
			"Compiling final report...",
		}
	}
}

// runTask drives one task through its lifecycle. It is the single writer for
// the task after creation. Failures never propagate: they become the task's
// failed state, and if even that write fails the error is logged and dropped
// since no caller is waiting.
func (s *ReportService) runTask(taskID, studentID string, kind models.ReportKind) {
	ctx := context.Background()

	if err := s.tasks.MarkProcessing(ctx, taskID, kind.Title()); err != nil {
		// The task must still reach a terminal state a poller can observe.
		s.failTask(ctx, taskID, fmt.Sprintf("failed to start report generation: %v", err))
		return
	}

	steps := processingSteps(kind)
	for i, step := range steps {
		if s.stepDelay > 0 {
			time.Sleep(s.stepDelay)
		}
		progress := int(math.Round(float64(i+1) / float64(len(steps)) * 100))
		if err := s.tasks.SetProgress(ctx, taskID, progress, step); err != nil {
			s.failTask(ctx, taskID, fmt.Sprintf("failed to record progress: %v", err))
			return
		}
	}

	payload := s.stats.Build(ctx, kind, studentID)
	if payload.Error != "" {
		s.failTask(ctx, taskID, payload.Error)
		return
	}

	if s.validator != nil {
		if err := s.validator.ValidatePayload(payload); err != nil {
			s.failTask(ctx, taskID, err.Error())
			return
		}
	}

	artifact := s.formatter.RenderText(payload)

	var fileURL string
	if s.artifacts != nil {
		name := fmt.Sprintf("report_%s_%s.txt", taskID, time.Now().Format("20060102_150405"))
		url, err := s.artifacts.SaveArtifact(ctx, name, []byte(artifact), "text/plain")
		if err != nil {
			s.failTask(ctx, taskID, fmt.Sprintf("failed to store report artifact: %v", err))
			return
		}
		fileURL = url
	}

	if err := s.tasks.Complete(ctx, taskID, payload, fileURL); err != nil {
		s.failTask(ctx, taskID, fmt.Sprintf("failed to persist completed report: %v", err))
	}
}

func (s *ReportService) failTask(ctx context.Context, taskID, reason string) {
	if err := s.tasks.Fail(ctx, taskID, reason); err != nil {
		log.Printf("WARNING: failed to mark task %s as failed (%s): %v", taskID, reason, err)
	}
}
