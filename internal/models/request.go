package models

// GenerateReportRequest is the body of POST /api/students/reports/generate.
// StudentID defaults to the authenticated user when omitted.
type GenerateReportRequest struct {
	StudentID  string `json:"studentId"`
	ReportKind string `json:"reportType" binding:"required"`
}

// TaskResponse is returned when a report task is accepted
type TaskResponse struct {
	TaskID     string `json:"taskId"`
	Status     string `json:"status"`
	ReportKind string `json:"reportType"`
	Message    string `json:"message"`
	CreatedAt  string `json:"createdAt"`
}

// StatusResponse is the polling surface for a report task
type StatusResponse struct {
	TaskID      string         `json:"taskId"`
	Status      string         `json:"status"`
	Progress    int            `json:"progress"`
	Title       string         `json:"title"`
	Message     string         `json:"message"`
	ReportKind  string         `json:"reportType"`
	CreatedAt   string         `json:"createdAt"`
	Result      *ReportPayload `json:"result"`
	Error       string         `json:"error,omitempty"`
	CompletedAt string         `json:"completedAt,omitempty"`
}

// DownloadResponse wraps a completed report payload for download
type DownloadResponse struct {
	StudentID   string         `json:"studentId"`
	ReportKind  string         `json:"reportType"`
	Title       string         `json:"title"`
	GeneratedAt string         `json:"generatedAt"`
	FileURL     string         `json:"fileUrl,omitempty"`
	Data        *ReportPayload `json:"data"`
}

// EmailReportRequest asks for a completed report to be emailed
type EmailReportRequest struct {
	Recipient string `json:"recipient" binding:"required,email"`
}

// SubscribeRequest opts a student into scheduled weekly reports
type SubscribeRequest struct {
	StudentID  string `json:"studentId"`
	Email      string `json:"email" binding:"required,email"`
	ReportKind string `json:"reportType"`
}

// TokenRequest is the boundary shim for the external identity provider:
// it exchanges an already-authenticated identity for a service JWT.
type TokenRequest struct {
	UserID   string `json:"userId" binding:"required"`
	Username string `json:"username" binding:"required"`
	Email    string `json:"email"`
	Role     string `json:"role" binding:"required,oneof=student lecturer admin"`
}

// TokenResponse carries the issued JWT
type TokenResponse struct {
	Token string `json:"token"`
}
