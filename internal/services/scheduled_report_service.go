package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"student-report-service/internal/models"

	"github.com/robfig/cron/v3"
)

// SubscriptionStore persists weekly report subscriptions
type SubscriptionStore interface {
	UpsertSubscription(ctx context.Context, sub *models.ReportSubscription) error
	RemoveSubscription(ctx context.Context, studentID string) error
	GetSubscription(ctx context.Context, studentID string) (*models.ReportSubscription, error)
	ListSubscriptions(ctx context.Context) ([]models.ReportSubscription, error)
}

// MemorySubscriptionStore is an in-memory SubscriptionStore for running
// without MongoDB
type MemorySubscriptionStore struct {
	mu   sync.RWMutex
	subs map[string]models.ReportSubscription
}

// NewMemorySubscriptionStore creates an empty in-memory subscription store
func NewMemorySubscriptionStore() *MemorySubscriptionStore {
	return &MemorySubscriptionStore{subs: make(map[string]models.ReportSubscription)}
}

func (s *MemorySubscriptionStore) UpsertSubscription(ctx context.Context, sub *models.ReportSubscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[sub.StudentID] = *sub
	return nil
}

func (s *MemorySubscriptionStore) RemoveSubscription(ctx context.Context, studentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, studentID)
	return nil
}

func (s *MemorySubscriptionStore) GetSubscription(ctx context.Context, studentID string) (*models.ReportSubscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.subs[studentID]
	if !ok {
		return nil, nil
	}
	return &sub, nil
}

func (s *MemorySubscriptionStore) ListSubscriptions(ctx context.Context) ([]models.ReportSubscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	subs := make([]models.ReportSubscription, 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	return subs, nil
}

// ScheduledReportService sends subscribed students their weekly report by
// email on a cron schedule
type ScheduledReportService struct {
	reports *ReportService
	email   *EmailService
	pdf     *PDFService
	store   SubscriptionStore
	cron    *cron.Cron

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

// NewScheduledReportService creates a new scheduled report service
func NewScheduledReportService(
	reports *ReportService,
	email *EmailService,
	pdf *PDFService,
	store SubscriptionStore,
) *ScheduledReportService {
	// Create cron with seconds precision
	c := cron.New(cron.WithSeconds())

	return &ScheduledReportService{
		reports: reports,
		email:   email,
		pdf:     pdf,
		store:   store,
		cron:    c,
		entries: make(map[string]cron.EntryID),
	}
}

// Start starts the cron scheduler
func (s *ScheduledReportService) Start() {
	s.cron.Start()
	log.Println("Weekly report cron scheduler started")
}

// Stop stops the cron scheduler
func (s *ScheduledReportService) Stop() {
	s.cron.Stop()
	log.Println("Weekly report cron scheduler stopped")
}

// Subscribe persists the subscription and schedules its weekly send
func (s *ScheduledReportService) Subscribe(ctx context.Context, sub *models.ReportSubscription) error {
	if sub.ReportKind == "" {
		sub.ReportKind = models.ReportKindComprehensive
	}
	if _, ok := models.ParseReportKind(string(sub.ReportKind)); !ok {
		return fmt.Errorf("%w: %s", ErrInvalidReportKind, sub.ReportKind)
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now()
	}

	if err := s.store.UpsertSubscription(ctx, sub); err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}

	return s.schedule(sub)
}

// Unsubscribe removes the subscription and cancels its schedule
func (s *ScheduledReportService) Unsubscribe(ctx context.Context, studentID string) error {
	if err := s.store.RemoveSubscription(ctx, studentID); err != nil {
		return fmt.Errorf("failed to remove subscription: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if entryID, ok := s.entries[studentID]; ok {
		s.cron.Remove(entryID)
		delete(s.entries, studentID)
		log.Printf("Unscheduled weekly report for student %s", studentID)
	}
	return nil
}

// LoadAndScheduleSubscriptions loads all subscriptions from the store and
// schedules them. Called once at startup.
func (s *ScheduledReportService) LoadAndScheduleSubscriptions(ctx context.Context) error {
	subs, err := s.store.ListSubscriptions(ctx)
	if err != nil {
		return fmt.Errorf("failed to load subscriptions: %w", err)
	}

	log.Printf("Loading %d weekly report subscriptions", len(subs))

	scheduled := 0
	for i := range subs {
		if err := s.schedule(&subs[i]); err != nil {
			log.Printf("WARNING: failed to schedule weekly report for student %s: %v", subs[i].StudentID, err)
			continue
		}
		scheduled++
	}

	log.Printf("Successfully scheduled %d weekly report emails", scheduled)
	return nil
}

// schedule registers the subscription's cron entry, replacing any previous
// entry for the same student
func (s *ScheduledReportService) schedule(sub *models.ReportSubscription) error {
	var schedule string

	if sub.NextTriggerTime != nil {
		// Recurring weekly at the weekday and time of day of the trigger time.
		// Cron format with seconds: second minute hour day month weekday.
		t := sub.NextTriggerTime
		schedule = fmt.Sprintf("%d %d %d * * %d", t.Second(), t.Minute(), t.Hour(), int(t.Weekday()))
		log.Printf("Scheduling weekly %s report for student %s at %s (recurring weekly) - email: %s",
			sub.ReportKind, sub.StudentID, t.Format("Monday 15:04:05"), sub.Email)
	} else {
		// Default: Monday at 08:00:00
		schedule = "0 0 8 * * 1"
		log.Printf("Scheduling weekly %s report for student %s at Monday 08:00:00 (default) - email: %s",
			sub.ReportKind, sub.StudentID, sub.Email)
	}

	studentID := sub.StudentID
	email := sub.Email
	kind := sub.ReportKind

	entryID, err := s.cron.AddFunc(schedule, func() {
		s.sendWeeklyReport(studentID, email, kind)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule weekly report: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.entries[studentID]; ok {
		s.cron.Remove(old)
	}
	s.entries[studentID] = entryID
	return nil
}

// sendWeeklyReport generates and emails one subscriber's report
func (s *ScheduledReportService) sendWeeklyReport(studentID, email string, kind models.ReportKind) {
	log.Printf("Generating weekly %s report for student %s", kind, studentID)

	ctx := context.Background()

	payload, reportText, err := s.reports.GenerateNow(ctx, studentID, kind)
	if err != nil {
		log.Printf("ERROR: Failed to generate weekly report for student %s: %v", studentID, err)
		return
	}

	pdfData, err := s.pdf.GenerateReportPDF(payload)
	if err != nil {
		log.Printf("WARNING: Failed to generate PDF for student %s: %v, continuing without PDF", studentID, err)
		pdfData = nil
	}

	studentName := payload.StudentName()
	if studentName == "" {
		studentName = studentID
	}

	if err := s.email.SendReportEmail(email, studentName, payload, reportText, pdfData); err != nil {
		log.Printf("ERROR: Failed to send weekly report email to %s for student %s: %v", email, studentID, err)
		return
	}

	log.Printf("Successfully sent weekly report email to %s for student %s", email, studentID)
}
