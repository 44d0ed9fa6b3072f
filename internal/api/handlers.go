package api

import (
	"errors"
	"log"
	"net/http"
	"time"

	"student-report-service/internal/middleware"
	"student-report-service/internal/models"
	"student-report-service/internal/services"
	"student-report-service/internal/utils"

	"github.com/gin-gonic/gin"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	reportService    *services.ReportService
	statsService     *services.StatisticsService
	formatterService *services.FormatterService
	pdfService       *services.PDFService
	emailService     *services.EmailService          // nil when SendGrid is not configured
	scheduledService *services.ScheduledReportService // nil when scheduling is disabled
	jwtService       *services.JWTService
}

// NewHandlers creates a new handlers instance
func NewHandlers(
	reportService *services.ReportService,
	statsService *services.StatisticsService,
	formatterService *services.FormatterService,
	pdfService *services.PDFService,
	emailService *services.EmailService,
	scheduledService *services.ScheduledReportService,
	jwtService *services.JWTService,
) *Handlers {
	return &Handlers{
		reportService:    reportService,
		statsService:     statsService,
		formatterService: formatterService,
		pdfService:       pdfService,
		emailService:     emailService,
		scheduledService: scheduledService,
		jwtService:       jwtService,
	}
}

// TokenHandler handles POST /api/auth/token.
// It exchanges an already-authenticated identity for a service JWT.
func (h *Handlers) TokenHandler(c *gin.Context) {
	var req models.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.jwtService.GenerateToken(req.UserID, req.Username, req.Email, req.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, models.TokenResponse{Token: token})
}

// GenerateReportHandler handles POST /api/students/reports/generate
func (h *Handlers) GenerateReportHandler(c *gin.Context) {
	var req models.GenerateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	requester := middleware.GetRequester(c)
	studentID := req.StudentID
	if studentID == "" {
		studentID = requester.UserID
	}

	task, err := h.reportService.RequestReport(c.Request.Context(), studentID, req.ReportKind, requester)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, models.TaskResponse{
		TaskID:     task.ID,
		Status:     string(task.Status),
		ReportKind: string(task.ReportKind),
		Message:    task.Message,
		CreatedAt:  utils.FormatTimestamp(task.CreatedAt),
	})
}

// ReportStatusHandler handles GET /api/students/reports/status/:taskId
func (h *Handlers) ReportStatusHandler(c *gin.Context) {
	taskID := c.Param("taskId")
	if taskID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "taskId is required"})
		return
	}

	task, err := h.reportService.GetStatus(c.Request.Context(), taskID, middleware.GetRequester(c))
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, statusResponse(task))
}

// ListReportsHandler handles GET /api/students/reports
func (h *Handlers) ListReportsHandler(c *gin.Context) {
	requester := middleware.GetRequester(c)
	studentID := c.Query("studentId")
	if studentID == "" {
		studentID = requester.UserID
	}

	tasks, err := h.reportService.ListReports(c.Request.Context(), studentID, requester)
	if err != nil {
		h.renderError(c, err)
		return
	}

	responses := make([]models.StatusResponse, 0, len(tasks))
	for i := range tasks {
		responses = append(responses, statusResponse(&tasks[i]))
	}

	c.JSON(http.StatusOK, gin.H{"studentId": studentID, "reports": responses})
}

// DownloadReportHandler handles GET /api/students/reports/download/:taskId
func (h *Handlers) DownloadReportHandler(c *gin.Context) {
	taskID := c.Param("taskId")
	if taskID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "taskId is required"})
		return
	}

	task, err := h.reportService.GetResult(c.Request.Context(), taskID, middleware.GetRequester(c))
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.DownloadResponse{
		StudentID:   task.StudentID,
		ReportKind:  string(task.ReportKind),
		Title:       task.Title,
		GeneratedAt: task.Result.GeneratedAt,
		FileURL:     task.FileURL,
		Data:        task.Result,
	})
}

// EmailReportHandler handles POST /api/students/reports/email/:taskId
func (h *Handlers) EmailReportHandler(c *gin.Context) {
	if h.emailService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "email delivery is not configured"})
		return
	}

	taskID := c.Param("taskId")
	if taskID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "taskId is required"})
		return
	}

	var req models.EmailReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.reportService.GetResult(c.Request.Context(), taskID, middleware.GetRequester(c))
	if err != nil {
		h.renderError(c, err)
		return
	}

	reportText := h.formatterService.RenderText(task.Result)

	pdfData, err := h.pdfService.GenerateReportPDF(task.Result)
	if err != nil {
		log.Printf("WARNING: failed to generate PDF for task %s: %v, continuing without PDF", taskID, err)
		pdfData = nil
	}

	studentName := task.Result.StudentName()
	if studentName == "" {
		studentName = task.StudentID
	}

	if err := h.emailService.SendReportEmail(req.Recipient, studentName, task.Result, reportText, pdfData); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send email"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Report sent", "recipient": req.Recipient})
}

// SubscribeHandler handles POST /api/students/reports/subscribe
func (h *Handlers) SubscribeHandler(c *gin.Context) {
	if h.scheduledService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scheduled reports are not configured"})
		return
	}

	var req models.SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	requester := middleware.GetRequester(c)
	studentID := req.StudentID
	if studentID == "" {
		studentID = requester.UserID
	}
	if !requester.IsStaff() && requester.UserID != studentID {
		h.renderError(c, services.ErrForbidden)
		return
	}

	sub := &models.ReportSubscription{
		StudentID:  studentID,
		Email:      req.Email,
		ReportKind: models.ReportKind(req.ReportKind),
		CreatedAt:  time.Now(),
	}

	if err := h.scheduledService.Subscribe(c.Request.Context(), sub); err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Subscribed to weekly reports", "studentId": studentID})
}

// UnsubscribeHandler handles POST /api/students/reports/unsubscribe
func (h *Handlers) UnsubscribeHandler(c *gin.Context) {
	if h.scheduledService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scheduled reports are not configured"})
		return
	}

	requester := middleware.GetRequester(c)
	studentID := c.Query("studentId")
	if studentID == "" {
		studentID = requester.UserID
	}
	if !requester.IsStaff() && requester.UserID != studentID {
		h.renderError(c, services.ErrForbidden)
		return
	}

	if err := h.scheduledService.Unsubscribe(c.Request.Context(), studentID); err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Unsubscribed from weekly reports", "studentId": studentID})
}

// EndorsementAnalyticsHandler handles GET /api/students/endorsements/analytics.
// It computes the endorsement analytics synchronously, without a task.
func (h *Handlers) EndorsementAnalyticsHandler(c *gin.Context) {
	requester := middleware.GetRequester(c)
	studentID := c.Query("studentId")
	if studentID == "" {
		studentID = requester.UserID
	}
	if !requester.IsStaff() && requester.UserID != studentID {
		h.renderError(c, services.ErrForbidden)
		return
	}

	report := h.statsService.BuildEndorsement(c.Request.Context(), studentID)
	if report.Error != "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": report.Error})
		return
	}

	c.JSON(http.StatusOK, report)
}

// renderError maps service errors to HTTP status codes
func (h *Handlers) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidReportKind):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrReportNotReady):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// statusResponse builds the polling response for a task
func statusResponse(task *models.ReportTask) models.StatusResponse {
	response := models.StatusResponse{
		TaskID:     task.ID,
		Status:     string(task.Status),
		Progress:   task.Progress,
		Title:      task.Title,
		Message:    task.Message,
		ReportKind: string(task.ReportKind),
		CreatedAt:  utils.FormatTimestamp(task.CreatedAt),
	}

	if task.Status == models.TaskStatusCompleted {
		response.Result = task.Result
	} else if task.Status == models.TaskStatusFailed {
		response.Error = task.Error
	}
	if task.CompletedAt != nil {
		response.CompletedAt = utils.FormatTimestamp(*task.CompletedAt)
	}

	return response
}
