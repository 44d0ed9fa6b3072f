package models

import "time"

// TaskStatus represents the lifecycle state of a report task
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// IsTerminal reports whether the status is completed or failed
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// ReportKind identifies which report a task generates
type ReportKind string

const (
	ReportKindPerformance   ReportKind = "performance"
	ReportKindEndorsement   ReportKind = "endorsement"
	ReportKindComprehensive ReportKind = "comprehensive"
)

// ParseReportKind validates a report kind string
func ParseReportKind(s string) (ReportKind, bool) {
	switch ReportKind(s) {
	case ReportKindPerformance, ReportKindEndorsement, ReportKindComprehensive:
		return ReportKind(s), true
	}
	return "", false
}

// Title returns the human-readable report title for the kind
func (k ReportKind) Title() string {
	switch k {
	case ReportKindPerformance:
		return "Performance Report"
	case ReportKindEndorsement:
		return "Endorsement Report"
	case ReportKindComprehensive:
		return "Comprehensive Report"
	}
	return "Report"
}

// ReportTask is the persisted lifecycle record of one report generation request.
// A task is created pending, driven through processing by exactly one worker,
// and never mutated again once it reaches completed or failed.
type ReportTask struct {
	ID          string         `bson:"_id" json:"taskId"`
	StudentID   string         `bson:"studentId" json:"studentId"`
	ReportKind  ReportKind     `bson:"reportKind" json:"reportKind"`
	Status      TaskStatus     `bson:"status" json:"status"`
	Progress    int            `bson:"progress" json:"progress"`
	Title       string         `bson:"title" json:"title"`
	Message     string         `bson:"message" json:"message"`
	FileURL     string         `bson:"fileUrl,omitempty" json:"fileUrl,omitempty"`
	Result      *ReportPayload `bson:"result,omitempty" json:"result"`
	Error       string         `bson:"error,omitempty" json:"error"`
	CreatedAt   time.Time      `bson:"createdAt" json:"createdAt"`
	CompletedAt *time.Time     `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
}
