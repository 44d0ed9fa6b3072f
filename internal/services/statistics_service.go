package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"student-report-service/internal/models"
	"student-report-service/internal/utils"
)

// Trend labels for GPA movement classification
const (
	TrendImproving        = "improving"
	TrendDeclining        = "declining"
	TrendStable           = "stable"
	TrendInsufficientData = "insufficient_data"
)

// StatisticsService computes report payloads from a student's stored records.
// Aggregation is side-effect free: record retrieval failures are folded into
// the payload's error marker so the worker can decide how to proceed.
type StatisticsService struct {
	records RecordSource
}

// NewStatisticsService creates a new statistics service
func NewStatisticsService(records RecordSource) *StatisticsService {
	return &StatisticsService{records: records}
}

// Build computes the payload for the given report kind
func (s *StatisticsService) Build(ctx context.Context, kind models.ReportKind, studentID string) *models.ReportPayload {
	payload := &models.ReportPayload{
		ReportKind:  kind,
		GeneratedAt: utils.FormatTimestamp(time.Now()),
	}

	switch kind {
	case models.ReportKindPerformance:
		perf := s.BuildPerformance(ctx, studentID)
		payload.Performance = perf
		payload.Error = perf.Error
	case models.ReportKindEndorsement:
		endo := s.BuildEndorsement(ctx, studentID)
		payload.Endorsement = endo
		payload.Error = endo.Error
	case models.ReportKindComprehensive:
		perf := s.BuildPerformance(ctx, studentID)
		endo := s.BuildEndorsement(ctx, studentID)
		payload.Performance = perf
		payload.Endorsement = endo
		switch {
		case perf.Error != "":
			payload.Error = perf.Error
		case endo.Error != "":
			payload.Error = endo.Error
		default:
			payload.OverallAssessment = overallAssessment(perf, endo)
		}
	default:
		payload.Error = fmt.Sprintf("unknown report type: %s", kind)
	}

	return payload
}

// BuildPerformance computes the academic performance view for a student
func (s *StatisticsService) BuildPerformance(ctx context.Context, studentID string) *models.PerformanceReport {
	student, err := s.records.Student(ctx, studentID)
	if err != nil {
		return &models.PerformanceReport{Error: fmt.Sprintf("performance report generation failed: %v", err)}
	}
	gpaRecords, err := s.records.GPARecords(ctx, studentID)
	if err != nil {
		return &models.PerformanceReport{Error: fmt.Sprintf("performance report generation failed: %v", err)}
	}
	grades, err := s.records.Grades(ctx, studentID)
	if err != nil {
		return &models.PerformanceReport{Error: fmt.Sprintf("performance report generation failed: %v", err)}
	}

	report := &models.PerformanceReport{
		Student:           studentInfo(student),
		CoursePerformance: make([]models.CoursePerformance, 0, len(grades)),
		SemesterBreakdown: make([]models.SemesterGPA, 0, len(gpaRecords)),
	}

	if len(gpaRecords) > 0 {
		latest := gpaRecords[0]
		var sum float64
		for _, record := range gpaRecords {
			sum += record.GPA
		}
		report.GPAAnalysis = models.GPAAnalysis{
			CurrentGPA:       latest.GPA,
			CurrentCGPA:      latest.CGPA,
			AverageGPA:       utils.Round2(sum / float64(len(gpaRecords))),
			Trend:            gpaTrend(gpaRecords),
			TotalCredits:     latest.TotalCredits,
			CompletedCredits: latest.CompletedCredits,
		}
	} else {
		report.GPAAnalysis = models.GPAAnalysis{Trend: TrendStable}
	}

	for _, grade := range grades {
		report.CoursePerformance = append(report.CoursePerformance, models.CoursePerformance{
			Course:   grade.Course,
			Grade:    grade.GradeValue,
			Letter:   grade.Letter(),
			Semester: grade.Semester,
			Credits:  grade.CreditsEarned,
		})
	}

	for _, record := range gpaRecords {
		report.SemesterBreakdown = append(report.SemesterBreakdown, models.SemesterGPA{
			Semester:         record.Semester,
			GPA:              record.GPA,
			CGPA:             record.CGPA,
			CreditsCompleted: record.CompletedCredits,
		})
	}

	report.Recommendations = performanceRecommendations(gpaRecords, grades)
	return report
}

// BuildEndorsement computes the peer endorsement analytics view for a student
func (s *StatisticsService) BuildEndorsement(ctx context.Context, studentID string) *models.EndorsementReport {
	student, err := s.records.Student(ctx, studentID)
	if err != nil {
		return &models.EndorsementReport{Error: fmt.Sprintf("endorsement report generation failed: %v", err)}
	}
	endorsements, err := s.records.Endorsements(ctx, studentID)
	if err != nil {
		return &models.EndorsementReport{Error: fmt.Sprintf("endorsement report generation failed: %v", err)}
	}
	achievements, err := s.records.Achievements(ctx, studentID)
	if err != nil {
		return &models.EndorsementReport{Error: fmt.Sprintf("endorsement report generation failed: %v", err)}
	}

	report := &models.EndorsementReport{
		Student:            studentInfo(student),
		RatingDistribution: make(map[string]int, 5),
		SkillAnalytics:     make(map[string]models.SkillStat),
		RecentEndorsements: make([]models.RecentEndorsement, 0, 10),
	}

	for i := 1; i <= 5; i++ {
		report.RatingDistribution[fmt.Sprintf("%d", i)] = 0
	}

	endorsers := make(map[string]struct{})
	endorsedRefs := make(map[string]struct{})
	skillRatings := make(map[string][]int)
	var ratingSum int

	for _, e := range endorsements {
		ratingSum += e.Rating
		if e.Rating >= 1 && e.Rating <= 5 {
			report.RatingDistribution[fmt.Sprintf("%d", e.Rating)]++
		}
		endorsers[e.Endorser] = struct{}{}
		if e.Achievement != "" {
			endorsedRefs[e.Achievement] = struct{}{}
		}
		if e.Skill != "" {
			skillRatings[e.Skill] = append(skillRatings[e.Skill], e.Rating)
		}
	}

	// An achievement counts as endorsed only when the student actually holds
	// the achievement record some endorsement points at.
	var endorsedAchievements int
	for _, a := range achievements {
		if _, ok := endorsedRefs[a.Title]; ok {
			endorsedAchievements++
		}
	}

	report.Summary = models.EndorsementSummary{
		TotalEndorsements:    len(endorsements),
		UniqueEndorsers:      len(endorsers),
		EndorsedAchievements: endorsedAchievements,
	}
	if len(endorsements) > 0 {
		report.Summary.AverageRating = utils.Round2(float64(ratingSum) / float64(len(endorsements)))
	}

	for skill, ratings := range skillRatings {
		var sum int
		for _, r := range ratings {
			sum += r
		}
		report.SkillAnalytics[skill] = models.SkillStat{
			Count:         len(ratings),
			AverageRating: utils.Round2(float64(sum) / float64(len(ratings))),
		}
	}

	for i, e := range endorsements {
		if i >= 10 {
			break
		}
		skill := e.Skill
		if skill == "" {
			skill = "General"
		}
		report.RecentEndorsements = append(report.RecentEndorsements, models.RecentEndorsement{
			Endorser: e.Endorser,
			Rating:   e.Rating,
			Comment:  e.Comment,
			Skill:    skill,
			Date:     utils.FormatDate(e.CreatedAt),
		})
	}

	report.Insights = endorsementInsights(endorsements, report.Summary.AverageRating, len(skillRatings))
	return report
}

func studentInfo(student *models.Student) models.StudentInfo {
	return models.StudentInfo{
		Username:   student.Username,
		Email:      student.Email,
		Department: student.Department,
		Year:       student.Year,
	}
}

// gpaTrend classifies GPA movement over the recent window (up to 3 records,
// most recent first): the newest GPA against the oldest in the window, with a
// 0.1 dead band.
func gpaTrend(records []models.GPARecord) string {
	if len(records) < 2 {
		return TrendInsufficientData
	}

	window := records
	if len(window) > 3 {
		window = window[:3]
	}

	newest := window[0].GPA
	oldest := window[len(window)-1].GPA

	switch {
	case newest > oldest+0.1:
		return TrendImproving
	case newest < oldest-0.1:
		return TrendDeclining
	}
	return TrendStable
}

// performanceRecommendations produces advice tiered by the current GPA, plus
// a call-out naming courses graded below 70.
func performanceRecommendations(gpaRecords []models.GPARecord, grades []models.Grade) []string {
	var recommendations []string

	if len(gpaRecords) == 0 {
		return []string{"No GPA data available. Focus on consistent academic performance."}
	}

	currentGPA := gpaRecords[0].GPA
	switch {
	case currentGPA < 2.0:
		recommendations = append(recommendations,
			"Consider meeting with academic advisor to discuss improvement strategies",
			"Focus on foundational courses to build strong academic base",
			"Utilize campus tutoring and academic support services",
		)
	case currentGPA < 3.0:
		recommendations = append(recommendations,
			"Maintain consistent study schedule and seek help when needed",
			"Consider forming study groups for challenging courses",
			"Focus on time management and organization skills",
		)
	default:
		recommendations = append(recommendations,
			"Continue maintaining excellent academic performance",
			"Consider taking on leadership roles or research opportunities",
			"Explore advanced courses in your field of interest",
		)
	}

	seen := make(map[string]struct{})
	var lowCourses []string
	for _, grade := range grades {
		if grade.GradeValue < 70 {
			if _, dup := seen[grade.Course]; !dup {
				seen[grade.Course] = struct{}{}
				lowCourses = append(lowCourses, grade.Course)
			}
		}
	}
	if len(lowCourses) > 0 {
		sort.Strings(lowCourses)
		recommendations = append(recommendations,
			fmt.Sprintf("Seek additional help in: %s", strings.Join(lowCourses, ", ")))
	}

	return recommendations
}

// endorsementInsights produces qualitative feedback keyed by the average
// rating, plus a skill-diversity note when endorsements span 3+ skills.
func endorsementInsights(endorsements []models.Endorsement, averageRating float64, distinctSkills int) []string {
	if len(endorsements) == 0 {
		return []string{"No endorsements received yet. Consider sharing more achievements."}
	}

	var insights []string
	switch {
	case averageRating >= 4.5:
		insights = append(insights, "Excellent peer recognition! Your work is highly valued by peers.")
	case averageRating >= 4.0:
		insights = append(insights, "Strong peer endorsement. Maintain your collaborative approach.")
	default:
		insights = append(insights, "Good peer feedback. Consider seeking more specific endorsements.")
	}

	if distinctSkills >= 3 {
		insights = append(insights, fmt.Sprintf("Diverse skill recognition across %d different areas.", distinctSkills))
	}

	return insights
}

// overallAssessment combines the academic and endorsement views into the
// comprehensive report's assessment list.
func overallAssessment(perf *models.PerformanceReport, endo *models.EndorsementReport) []string {
	var assessment []string

	gpa := perf.GPAAnalysis.CurrentGPA
	switch {
	case gpa >= 3.5:
		assessment = append(assessment, "Strong academic performance with excellent GPA")
	case gpa >= 3.0:
		assessment = append(assessment, "Good academic standing with consistent performance")
	default:
		assessment = append(assessment, "Academic performance needs improvement")
	}

	count := endo.Summary.TotalEndorsements
	avg := endo.Summary.AverageRating
	switch {
	case count >= 10 && avg >= 4.0:
		assessment = append(assessment, "Excellent peer recognition and collaboration skills")
	case count >= 5:
		assessment = append(assessment, "Active participant in peer learning community")
	default:
		assessment = append(assessment, "Opportunity to increase peer engagement and visibility")
	}

	if gpa >= 3.0 && count >= 5 {
		assessment = append(assessment, "Well-rounded student with strong academic and social engagement")
	}

	return assessment
}
