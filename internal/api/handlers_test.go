package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"student-report-service/internal/models"
	"student-report-service/internal/services"
	"student-report-service/internal/validation"

	"github.com/gin-gonic/gin"
)

type testEnv struct {
	router    *gin.Engine
	jwt       *services.JWTService
	taskStore *services.MemoryTaskStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	records := services.NewMemoryRecordSource()
	records.AddStudent(models.Student{ID: "s1", Username: "jane", Email: "jane@example.edu", Role: "student"})
	records.AddGPARecords("s1",
		models.GPARecord{StudentID: "s1", Semester: "Fall 2025", SemesterStart: time.Now(), GPA: 3.6, CGPA: 3.5, TotalCredits: 18, CompletedCredits: 18},
		models.GPARecord{StudentID: "s1", Semester: "Spring 2025", SemesterStart: time.Now().AddDate(0, -6, 0), GPA: 3.3, CGPA: 3.3, TotalCredits: 18, CompletedCredits: 15},
	)
	records.AddEndorsements("s1",
		models.Endorsement{TargetID: "s1", Endorser: "alex", Skill: "Teamwork", Rating: 5, CreatedAt: time.Now()},
		models.Endorsement{TargetID: "s1", Endorser: "sam", Rating: 4, CreatedAt: time.Now().Add(-time.Hour)},
	)

	validator, err := validation.NewReportValidator()
	if err != nil {
		t.Fatalf("failed to compile payload schema: %v", err)
	}

	dispatcher := services.NewDispatcher(2, 16)
	dispatcher.Start()
	t.Cleanup(dispatcher.Stop)

	taskStore := services.NewMemoryTaskStore()
	statsService := services.NewStatisticsService(records)
	formatterService := services.NewFormatterService()
	reportService := services.NewReportService(
		taskStore, statsService, formatterService, nil, validator, dispatcher, 0,
	)

	jwtService := services.NewJWTService("test-secret", time.Hour)

	handlers := NewHandlers(
		reportService,
		statsService,
		formatterService,
		services.NewPDFService(),
		nil, // email not configured
		nil, // scheduling not configured
		jwtService,
	)

	return &testEnv{
		router:    SetupRoutes(handlers, jwtService, ""),
		jwt:       jwtService,
		taskStore: taskStore,
	}
}

func (e *testEnv) token(t *testing.T, userID, role string) string {
	t.Helper()
	token, err := e.jwt.GenerateToken(userID, userID, userID+"@example.edu", role)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return token
}

func (e *testEnv) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	e.router.ServeHTTP(recorder, req)
	return recorder
}

func decode(t *testing.T, recorder *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", recorder.Body.String(), err)
	}
}

func (e *testEnv) pollStatus(t *testing.T, taskID, token string) models.StatusResponse {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		recorder := e.request(t, http.MethodGet, "/api/students/reports/status/"+taskID, token, nil)
		if recorder.Code != http.StatusOK {
			t.Fatalf("status poll returned %d: %s", recorder.Code, recorder.Body.String())
		}
		var status models.StatusResponse
		decode(t, recorder, &status)
		if status.Status == string(models.TaskStatusCompleted) || status.Status == string(models.TaskStatusFailed) {
			return status
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("task %s never reached a terminal state", taskID)
	return models.StatusResponse{}
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)
	recorder := env.request(t, http.MethodGet, "/health", "", nil)
	if recorder.Code != http.StatusOK {
		t.Errorf("health returned %d", recorder.Code)
	}
}

func TestTokenEndpoint(t *testing.T) {
	env := newTestEnv(t)

	recorder := env.request(t, http.MethodPost, "/api/auth/token", "", models.TokenRequest{
		UserID: "s1", Username: "jane", Email: "jane@example.edu", Role: "student",
	})
	if recorder.Code != http.StatusOK {
		t.Fatalf("token endpoint returned %d: %s", recorder.Code, recorder.Body.String())
	}

	var response models.TokenResponse
	decode(t, recorder, &response)
	if response.Token == "" {
		t.Fatal("empty token")
	}

	// Rejects unknown roles.
	recorder = env.request(t, http.MethodPost, "/api/auth/token", "", models.TokenRequest{
		UserID: "s1", Username: "jane", Role: "superuser",
	})
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("invalid role returned %d", recorder.Code)
	}
}

func TestGenerateRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	recorder := env.request(t, http.MethodPost, "/api/students/reports/generate", "", models.GenerateReportRequest{ReportKind: "performance"})
	if recorder.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated generate returned %d", recorder.Code)
	}

	recorder = env.request(t, http.MethodPost, "/api/students/reports/generate", "garbage-token", models.GenerateReportRequest{ReportKind: "performance"})
	if recorder.Code != http.StatusUnauthorized {
		t.Errorf("bad token generate returned %d", recorder.Code)
	}
}

func TestGenerateAndPollReport(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "s1", "student")

	recorder := env.request(t, http.MethodPost, "/api/students/reports/generate", token, models.GenerateReportRequest{ReportKind: "comprehensive"})
	if recorder.Code != http.StatusAccepted {
		t.Fatalf("generate returned %d: %s", recorder.Code, recorder.Body.String())
	}

	var accepted models.TaskResponse
	decode(t, recorder, &accepted)
	if accepted.TaskID == "" {
		t.Fatal("missing taskId")
	}
	if accepted.Status != string(models.TaskStatusPending) {
		t.Errorf("initial status = %q", accepted.Status)
	}
	if accepted.Message != "Initializing report generation..." {
		t.Errorf("initial message = %q", accepted.Message)
	}

	status := env.pollStatus(t, accepted.TaskID, token)
	if status.Status != string(models.TaskStatusCompleted) {
		t.Fatalf("task failed: %s", status.Error)
	}
	if status.Progress != 100 {
		t.Errorf("final progress = %d", status.Progress)
	}
	if status.Result == nil || status.Result.Performance == nil || status.Result.Endorsement == nil {
		t.Fatal("completed comprehensive report missing sections")
	}
	if len(status.Result.OverallAssessment) == 0 {
		t.Error("comprehensive report missing overall assessment")
	}

	// Download the completed report.
	recorder = env.request(t, http.MethodGet, "/api/students/reports/download/"+accepted.TaskID, token, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("download returned %d: %s", recorder.Code, recorder.Body.String())
	}
	var download models.DownloadResponse
	decode(t, recorder, &download)
	if download.StudentID != "s1" || download.Data == nil {
		t.Errorf("download = %+v", download)
	}

	// List includes the task.
	recorder = env.request(t, http.MethodGet, "/api/students/reports", token, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("list returned %d", recorder.Code)
	}
	var list struct {
		StudentID string                  `json:"studentId"`
		Reports   []models.StatusResponse `json:"reports"`
	}
	decode(t, recorder, &list)
	if len(list.Reports) != 1 {
		t.Errorf("got %d reports, want 1", len(list.Reports))
	}
}

func TestGenerateInvalidKind(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "s1", "student")

	recorder := env.request(t, http.MethodPost, "/api/students/reports/generate", token, models.GenerateReportRequest{ReportKind: "astrology"})
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("invalid kind returned %d: %s", recorder.Code, recorder.Body.String())
	}
}

func TestOwnershipEnforcement(t *testing.T) {
	env := newTestEnv(t)
	owner := env.token(t, "s1", "student")
	intruder := env.token(t, "s2", "student")
	lecturer := env.token(t, "lect-1", "lecturer")

	// A student cannot generate for another student.
	recorder := env.request(t, http.MethodPost, "/api/students/reports/generate", intruder, models.GenerateReportRequest{
		StudentID: "s1", ReportKind: "performance",
	})
	if recorder.Code != http.StatusForbidden {
		t.Errorf("cross-student generate returned %d", recorder.Code)
	}

	// Staff can.
	recorder = env.request(t, http.MethodPost, "/api/students/reports/generate", lecturer, models.GenerateReportRequest{
		StudentID: "s1", ReportKind: "performance",
	})
	if recorder.Code != http.StatusAccepted {
		t.Fatalf("staff generate returned %d: %s", recorder.Code, recorder.Body.String())
	}
	var accepted models.TaskResponse
	decode(t, recorder, &accepted)

	// The owning student may poll, another student may not.
	recorder = env.request(t, http.MethodGet, "/api/students/reports/status/"+accepted.TaskID, owner, nil)
	if recorder.Code != http.StatusOK {
		t.Errorf("owner status returned %d", recorder.Code)
	}
	recorder = env.request(t, http.MethodGet, "/api/students/reports/status/"+accepted.TaskID, intruder, nil)
	if recorder.Code != http.StatusForbidden {
		t.Errorf("intruder status returned %d", recorder.Code)
	}
}

func TestStatusNotFound(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "s1", "student")

	recorder := env.request(t, http.MethodGet, "/api/students/reports/status/does-not-exist", token, nil)
	if recorder.Code != http.StatusNotFound {
		t.Errorf("unknown task returned %d", recorder.Code)
	}
}

func TestDownloadNotReady(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "s1", "student")

	// Seed a pending task the worker never picks up.
	pending := &models.ReportTask{
		ID:         "pending-task",
		StudentID:  "s1",
		ReportKind: models.ReportKindPerformance,
		Status:     models.TaskStatusPending,
		CreatedAt:  time.Now(),
	}
	if err := env.taskStore.Create(t.Context(), pending); err != nil {
		t.Fatalf("Create: %v", err)
	}

	recorder := env.request(t, http.MethodGet, "/api/students/reports/download/pending-task", token, nil)
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("not-ready download returned %d: %s", recorder.Code, recorder.Body.String())
	}
}

func TestEmailNotConfigured(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "s1", "student")

	recorder := env.request(t, http.MethodPost, "/api/students/reports/email/some-task", token, models.EmailReportRequest{Recipient: "jane@example.edu"})
	if recorder.Code != http.StatusServiceUnavailable {
		t.Errorf("email without SendGrid returned %d", recorder.Code)
	}
}

func TestEndorsementAnalytics(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "s1", "student")

	recorder := env.request(t, http.MethodGet, "/api/students/endorsements/analytics", token, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("analytics returned %d: %s", recorder.Code, recorder.Body.String())
	}

	var report models.EndorsementReport
	decode(t, recorder, &report)
	if report.Summary.TotalEndorsements != 2 {
		t.Errorf("TotalEndorsements = %d, want 2", report.Summary.TotalEndorsements)
	}
	if report.Summary.AverageRating != 4.5 {
		t.Errorf("AverageRating = %g, want 4.5", report.Summary.AverageRating)
	}

	// A student cannot read another student's analytics.
	recorder = env.request(t, http.MethodGet, "/api/students/endorsements/analytics?studentId=s1", env.token(t, "s2", "student"), nil)
	if recorder.Code != http.StatusForbidden {
		t.Errorf("cross-student analytics returned %d", recorder.Code)
	}
}
