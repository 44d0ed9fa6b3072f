package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"student-report-service/internal/models"
)

// FormatterService renders a report payload into the plain-text artifact.
// Output depends only on the payload and the wall clock (the Generated line).
type FormatterService struct{}

// NewFormatterService creates a new formatter service
func NewFormatterService() *FormatterService {
	return &FormatterService{}
}

// RenderText renders the payload to the final artifact text
func (s *FormatterService) RenderText(payload *models.ReportPayload) string {
	return strings.Join(s.Render(payload), "\n")
}

// Render renders the payload as a sequence of text lines
func (s *FormatterService) Render(payload *models.ReportPayload) []string {
	if payload.Error != "" {
		return []string{fmt.Sprintf("Report Generation Failed: %s", payload.Error)}
	}

	switch payload.ReportKind {
	case models.ReportKindPerformance:
		return s.renderPerformance(payload.Performance)
	case models.ReportKindEndorsement:
		return s.renderEndorsement(payload.Endorsement)
	case models.ReportKindComprehensive:
		return s.renderComprehensive(payload)
	}
	return []string{fmt.Sprintf("Report Generation Failed: unknown report type: %s", payload.ReportKind)}
}

func (s *FormatterService) renderPerformance(data *models.PerformanceReport) []string {
	lines := []string{
		"STUDENT PERFORMANCE REPORT",
		strings.Repeat("=", 50),
		fmt.Sprintf("Student: %s", data.Student.Username),
		fmt.Sprintf("Email: %s", data.Student.Email),
		fmt.Sprintf("Department: %s", orNotSpecified(data.Student.Department)),
		fmt.Sprintf("Year: %s", orNotSpecified(data.Student.Year)),
		generatedLine(),
		"",
		"GPA ANALYSIS",
		strings.Repeat("-", 30),
		fmt.Sprintf("Current GPA: %g", data.GPAAnalysis.CurrentGPA),
		fmt.Sprintf("Current CGPA: %g", data.GPAAnalysis.CurrentCGPA),
		fmt.Sprintf("Average GPA: %g", data.GPAAnalysis.AverageGPA),
		fmt.Sprintf("GPA Trend: %s", data.GPAAnalysis.Trend),
		fmt.Sprintf("Total Credits: %d", data.GPAAnalysis.TotalCredits),
		fmt.Sprintf("Completed Credits: %d", data.GPAAnalysis.CompletedCredits),
		"",
		"SEMESTER BREAKDOWN",
		strings.Repeat("-", 30),
	}

	for _, semester := range data.SemesterBreakdown {
		lines = append(lines, fmt.Sprintf("%s: GPA %g, CGPA %g, Credits: %d",
			semester.Semester, semester.GPA, semester.CGPA, semester.CreditsCompleted))
	}

	lines = append(lines, "", "RECOMMENDATIONS", strings.Repeat("-", 30))
	for i, recommendation := range data.Recommendations {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, recommendation))
	}

	return lines
}

func (s *FormatterService) renderEndorsement(data *models.EndorsementReport) []string {
	lines := []string{
		"PEER ENDORSEMENT ANALYTICS REPORT",
		strings.Repeat("=", 50),
		fmt.Sprintf("Student: %s", data.Student.Username),
		fmt.Sprintf("Email: %s", data.Student.Email),
		generatedLine(),
		"",
		"SUMMARY",
		strings.Repeat("-", 30),
		fmt.Sprintf("Total Endorsements: %d", data.Summary.TotalEndorsements),
		fmt.Sprintf("Average Rating: %g/5", data.Summary.AverageRating),
		fmt.Sprintf("Unique Endorsers: %d", data.Summary.UniqueEndorsers),
		fmt.Sprintf("Achievements with Endorsements: %d", data.Summary.EndorsedAchievements),
		"",
		"RATING DISTRIBUTION",
		strings.Repeat("-", 30),
	}

	for rating := 1; rating <= 5; rating++ {
		key := fmt.Sprintf("%d", rating)
		lines = append(lines, fmt.Sprintf("%s stars: %d endorsements", key, data.RatingDistribution[key]))
	}

	if len(data.SkillAnalytics) > 0 {
		lines = append(lines, "", "SKILL ENDORSEMENTS", strings.Repeat("-", 30))
		skills := make([]string, 0, len(data.SkillAnalytics))
		for skill := range data.SkillAnalytics {
			skills = append(skills, skill)
		}
		sort.Strings(skills)
		for _, skill := range skills {
			stat := data.SkillAnalytics[skill]
			lines = append(lines, fmt.Sprintf("%s: %d endorsements, Avg: %.1f/5",
				skill, stat.Count, stat.AverageRating))
		}
	}

	lines = append(lines, "", "RECENT ENDORSEMENTS", strings.Repeat("-", 30))
	for i, endorsement := range data.RecentEndorsements {
		if i >= 5 {
			break
		}
		lines = append(lines, fmt.Sprintf("%s - %d stars (%s) - %s",
			endorsement.Endorser, endorsement.Rating, endorsement.Skill, endorsement.Date))
		if endorsement.Comment != "" {
			lines = append(lines, fmt.Sprintf("  Comment: %s", endorsement.Comment))
		}
	}

	return lines
}

func (s *FormatterService) renderComprehensive(payload *models.ReportPayload) []string {
	perf := payload.Performance
	endo := payload.Endorsement

	lines := []string{
		"COMPREHENSIVE STUDENT REPORT",
		strings.Repeat("=", 50),
		fmt.Sprintf("Student: %s", perf.Student.Username),
		fmt.Sprintf("Email: %s", perf.Student.Email),
		generatedLine(),
		"",
		"ACADEMIC PERFORMANCE SUMMARY",
		strings.Repeat("-", 40),
		fmt.Sprintf("Current GPA: %g", perf.GPAAnalysis.CurrentGPA),
		fmt.Sprintf("Current CGPA: %g", perf.GPAAnalysis.CurrentCGPA),
		fmt.Sprintf("GPA Trend: %s", perf.GPAAnalysis.Trend),
		"",
		"PEER ENDORSEMENT SUMMARY",
		strings.Repeat("-", 40),
		fmt.Sprintf("Total Endorsements: %d", endo.Summary.TotalEndorsements),
		fmt.Sprintf("Average Rating: %g/5", endo.Summary.AverageRating),
		"",
		"OVERALL ASSESSMENT",
		strings.Repeat("-", 40),
	}

	for _, insight := range payload.OverallAssessment {
		lines = append(lines, fmt.Sprintf("* %s", insight))
	}

	return lines
}

func generatedLine() string {
	return fmt.Sprintf("Generated: %s", time.Now().Format("2006-01-02 15:04:05"))
}

func orNotSpecified(value string) string {
	if value == "" {
		return "Not specified"
	}
	return value
}
