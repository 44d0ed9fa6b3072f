package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"student-report-service/internal/models"
)

// brokenRecordSource fails every lookup. Used to exercise the error marker path.
type brokenRecordSource struct{}

func (brokenRecordSource) Student(ctx context.Context, studentID string) (*models.Student, error) {
	return nil, errors.New("records unavailable")
}
func (brokenRecordSource) GPARecords(ctx context.Context, studentID string) ([]models.GPARecord, error) {
	return nil, errors.New("records unavailable")
}
func (brokenRecordSource) Grades(ctx context.Context, studentID string) ([]models.Grade, error) {
	return nil, errors.New("records unavailable")
}
func (brokenRecordSource) Endorsements(ctx context.Context, studentID string) ([]models.Endorsement, error) {
	return nil, errors.New("records unavailable")
}
func (brokenRecordSource) Achievements(ctx context.Context, studentID string) ([]models.Achievement, error) {
	return nil, errors.New("records unavailable")
}

func gpaHistory(gpas ...float64) []models.GPARecord {
	records := make([]models.GPARecord, len(gpas))
	for i, gpa := range gpas {
		records[i] = models.GPARecord{
			Semester:      "Semester",
			SemesterStart: time.Now().AddDate(0, -6*i, 0),
			GPA:           gpa,
			CGPA:          gpa,
		}
	}
	return records
}

func TestGPATrend(t *testing.T) {
	tests := []struct {
		name string
		gpas []float64 // most recent first
		want string
	}{
		{"improving", []float64{3.8, 3.2, 3.0}, TrendImproving},
		{"declining", []float64{3.0, 3.5, 3.8}, TrendDeclining},
		{"stable within dead band", []float64{3.5, 3.45, 3.4}, TrendStable},
		{"small rise within dead band", []float64{3.08, 3.0}, TrendStable},
		{"single record", []float64{3.5}, TrendInsufficientData},
		{"window ignores older records", []float64{3.0, 3.0, 3.0, 1.0}, TrendStable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := gpaTrend(gpaHistory(tt.gpas...))
			if got != tt.want {
				t.Errorf("gpaTrend(%v) = %q, want %q", tt.gpas, got, tt.want)
			}
		})
	}
}

func TestBuildPerformance(t *testing.T) {
	source := NewMemoryRecordSource()
	source.AddStudent(models.Student{ID: "s1", Username: "jane", Email: "jane@example.edu"})
	source.AddGPARecords("s1", gpaHistory(2.5, 2.8, 3.1)...)
	source.AddGrades("s1",
		models.Grade{StudentID: "s1", Course: "Databases", GradeValue: 65, CreditsEarned: 3},
		models.Grade{StudentID: "s1", Course: "Algorithms", GradeValue: 88, CreditsEarned: 6},
		models.Grade{StudentID: "s1", Course: "Calculus", GradeValue: 50, CreditsEarned: 3},
	)

	svc := NewStatisticsService(source)
	report := svc.BuildPerformance(context.Background(), "s1")

	if report.Error != "" {
		t.Fatalf("unexpected error: %s", report.Error)
	}
	if report.GPAAnalysis.CurrentGPA != 2.5 {
		t.Errorf("CurrentGPA = %g, want 2.5", report.GPAAnalysis.CurrentGPA)
	}
	if report.GPAAnalysis.AverageGPA != 2.8 {
		t.Errorf("AverageGPA = %g, want 2.8", report.GPAAnalysis.AverageGPA)
	}
	if report.GPAAnalysis.Trend != TrendDeclining {
		t.Errorf("Trend = %q, want %q", report.GPAAnalysis.Trend, TrendDeclining)
	}
	if len(report.SemesterBreakdown) != 3 {
		t.Errorf("SemesterBreakdown has %d rows, want 3", len(report.SemesterBreakdown))
	}
	if len(report.CoursePerformance) != 3 {
		t.Errorf("CoursePerformance has %d rows, want 3", len(report.CoursePerformance))
	}

	// GPA below 3.0 selects the study-habits tier plus the low-grade call-out.
	if len(report.Recommendations) != 4 {
		t.Fatalf("got %d recommendations, want 4: %v", len(report.Recommendations), report.Recommendations)
	}
	last := report.Recommendations[len(report.Recommendations)-1]
	if last != "Seek additional help in: Calculus, Databases" {
		t.Errorf("low-grade recommendation = %q", last)
	}
}

func TestBuildPerformanceNoRecords(t *testing.T) {
	svc := NewStatisticsService(NewMemoryRecordSource())
	report := svc.BuildPerformance(context.Background(), "ghost")

	if report.Error != "" {
		t.Fatalf("unexpected error: %s", report.Error)
	}
	if report.GPAAnalysis.Trend != TrendStable {
		t.Errorf("Trend = %q, want %q for empty history", report.GPAAnalysis.Trend, TrendStable)
	}
	if len(report.Recommendations) != 1 {
		t.Fatalf("got %d recommendations, want 1", len(report.Recommendations))
	}
	if !strings.Contains(report.Recommendations[0], "No GPA data available") {
		t.Errorf("recommendation = %q", report.Recommendations[0])
	}
}

func TestBuildEndorsement(t *testing.T) {
	source := NewMemoryRecordSource()
	source.AddStudent(models.Student{ID: "s1", Username: "jane"})
	now := time.Now()
	source.AddEndorsements("s1",
		models.Endorsement{Endorser: "a", Skill: "Programming", Rating: 5, CreatedAt: now},
		models.Endorsement{Endorser: "b", Skill: "Programming", Rating: 4, CreatedAt: now.Add(-time.Hour)},
		models.Endorsement{Endorser: "a", Skill: "Teamwork", Rating: 5, Achievement: "Hackathon Winner", CreatedAt: now.Add(-2 * time.Hour)},
		models.Endorsement{Endorser: "c", Rating: 3, Comment: "solid work", Achievement: "Imaginary Prize", CreatedAt: now.Add(-3 * time.Hour)},
	)
	source.AddAchievements("s1",
		models.Achievement{StudentID: "s1", Title: "Hackathon Winner", DateAchieved: now.AddDate(0, -1, 0)},
		models.Achievement{StudentID: "s1", Title: "Dean's List", DateAchieved: now.AddDate(0, -3, 0)},
	)

	svc := NewStatisticsService(source)
	report := svc.BuildEndorsement(context.Background(), "s1")

	if report.Error != "" {
		t.Fatalf("unexpected error: %s", report.Error)
	}
	if report.Summary.TotalEndorsements != 4 {
		t.Errorf("TotalEndorsements = %d, want 4", report.Summary.TotalEndorsements)
	}
	if report.Summary.AverageRating != 4.25 {
		t.Errorf("AverageRating = %g, want 4.25", report.Summary.AverageRating)
	}
	if report.Summary.UniqueEndorsers != 3 {
		t.Errorf("UniqueEndorsers = %d, want 3", report.Summary.UniqueEndorsers)
	}
	// Only held achievements count: "Dean's List" has no endorsement and
	// "Imaginary Prize" is not an achievement the student holds.
	if report.Summary.EndorsedAchievements != 1 {
		t.Errorf("EndorsedAchievements = %d, want 1", report.Summary.EndorsedAchievements)
	}

	wantDistribution := map[string]int{"1": 0, "2": 0, "3": 1, "4": 1, "5": 2}
	for key, want := range wantDistribution {
		if got := report.RatingDistribution[key]; got != want {
			t.Errorf("RatingDistribution[%s] = %d, want %d", key, got, want)
		}
	}

	prog, ok := report.SkillAnalytics["Programming"]
	if !ok {
		t.Fatal("missing Programming skill analytics")
	}
	if prog.Count != 2 || prog.AverageRating != 4.5 {
		t.Errorf("Programming = %+v, want count 2 avg 4.5", prog)
	}

	if len(report.RecentEndorsements) != 4 {
		t.Fatalf("got %d recent endorsements, want 4", len(report.RecentEndorsements))
	}
	if report.RecentEndorsements[3].Skill != "General" {
		t.Errorf("skill-less endorsement labeled %q, want General", report.RecentEndorsements[3].Skill)
	}

	// Average 4.25 falls in the 4.0 tier; only 2 distinct skills, no diversity note.
	if len(report.Insights) != 1 {
		t.Fatalf("got %d insights, want 1: %v", len(report.Insights), report.Insights)
	}
	if !strings.Contains(report.Insights[0], "Strong peer endorsement") {
		t.Errorf("insight = %q", report.Insights[0])
	}
}

func TestBuildEndorsementNoEndorsements(t *testing.T) {
	svc := NewStatisticsService(NewMemoryRecordSource())
	report := svc.BuildEndorsement(context.Background(), "ghost")

	if report.Summary.AverageRating != 0 {
		t.Errorf("AverageRating = %g, want 0", report.Summary.AverageRating)
	}
	if len(report.Insights) != 1 || !strings.Contains(report.Insights[0], "No endorsements received yet") {
		t.Errorf("insights = %v", report.Insights)
	}
}

func TestBuildComprehensiveAssessment(t *testing.T) {
	source := NewMemoryRecordSource()
	source.AddStudent(models.Student{ID: "s1", Username: "jane"})
	source.AddGPARecords("s1", gpaHistory(3.6, 3.4, 3.2)...)
	now := time.Now()
	for i, endorser := range []string{"a", "b", "c", "d", "e"} {
		source.AddEndorsements("s1", models.Endorsement{
			Endorser:  endorser,
			Rating:    4,
			CreatedAt: now.Add(-time.Duration(i) * time.Hour),
		})
	}

	svc := NewStatisticsService(source)
	payload := svc.Build(context.Background(), models.ReportKindComprehensive, "s1")

	if payload.Error != "" {
		t.Fatalf("unexpected error: %s", payload.Error)
	}
	if payload.Performance == nil || payload.Endorsement == nil {
		t.Fatal("comprehensive payload missing a section")
	}

	want := []string{
		"Strong academic performance with excellent GPA",
		"Active participant in peer learning community",
		"Well-rounded student with strong academic and social engagement",
	}
	if len(payload.OverallAssessment) != len(want) {
		t.Fatalf("assessment = %v, want %v", payload.OverallAssessment, want)
	}
	for i := range want {
		if payload.OverallAssessment[i] != want[i] {
			t.Errorf("assessment[%d] = %q, want %q", i, payload.OverallAssessment[i], want[i])
		}
	}
}

func TestBuildErrorMarker(t *testing.T) {
	svc := NewStatisticsService(brokenRecordSource{})

	payload := svc.Build(context.Background(), models.ReportKindPerformance, "s1")
	if payload.Error == "" {
		t.Fatal("expected error marker for failing record source")
	}
	if !strings.Contains(payload.Error, "performance report generation failed") {
		t.Errorf("error = %q", payload.Error)
	}

	payload = svc.Build(context.Background(), models.ReportKindComprehensive, "s1")
	if payload.Error == "" {
		t.Fatal("expected comprehensive payload to carry the section error")
	}
	if len(payload.OverallAssessment) != 0 {
		t.Errorf("failed comprehensive report should not carry an assessment: %v", payload.OverallAssessment)
	}
}
