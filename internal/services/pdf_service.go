package services

import (
	"bytes"
	"fmt"
	"sort"

	"student-report-service/internal/models"

	"github.com/jung-kurt/gofpdf/v2"
)

// PDFService renders report payloads as PDF documents
type PDFService struct{}

// NewPDFService creates a new PDF service
func NewPDFService() *PDFService {
	return &PDFService{}
}

// GenerateReportPDF generates a PDF from a report payload
func (s *PDFService) GenerateReportPDF(payload *models.ReportPayload) ([]byte, error) {
	if payload == nil || payload.Error != "" {
		return nil, fmt.Errorf("invalid report data")
	}

	// Create PDF document (A4, portrait)
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 20, 15)
	pdf.SetAutoPageBreak(true, 20)

	pdf.AliasNbPages("{nb}")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Arial", "", 9)
		pdf.SetTextColor(108, 117, 125)
		pdf.SetX(15)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	pdf.SetFont("Arial", "B", 24)
	pdf.SetTextColor(0, 102, 204)
	pdf.CellFormat(0, 20, payload.ReportKind.Title(), "", 0, "C", false, 0, "")

	pdf.Ln(15)
	pdf.SetFont("Arial", "", 12)
	pdf.SetTextColor(108, 117, 125)
	pdf.CellFormat(0, 10, fmt.Sprintf("Generated: %s", payload.GeneratedAt), "", 0, "C", false, 0, "")
	pdf.Ln(12)

	if payload.Performance != nil {
		s.addPerformanceSection(pdf, payload.Performance)
	}
	if payload.Endorsement != nil {
		s.addEndorsementSection(pdf, payload.Endorsement)
	}
	if len(payload.OverallAssessment) > 0 {
		s.addHeader(pdf, "Overall Assessment")
		s.addBulletList(pdf, payload.OverallAssessment)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	return buf.Bytes(), nil
}

// addHeader adds a section header with an underline rule
func (s *PDFService) addHeader(pdf *gofpdf.Fpdf, title string) {
	pdf.Ln(6)
	pdf.SetFont("Arial", "B", 16)
	pdf.SetTextColor(33, 37, 41)
	pdf.CellFormat(0, 10, title, "", 0, "L", false, 0, "")

	pdf.Ln(10)
	pdf.SetLineWidth(0.5)
	pdf.SetDrawColor(0, 102, 204)
	pdf.Line(15, pdf.GetY(), 195, pdf.GetY())
	pdf.Ln(6)
}

func (s *PDFService) addKeyValue(pdf *gofpdf.Fpdf, key, value string) {
	pdf.SetFont("Arial", "B", 10)
	pdf.SetTextColor(33, 37, 41)
	pdf.CellFormat(60, 7, key, "", 0, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 7, value, "", 0, "L", false, 0, "")
	pdf.Ln(7)
}

func (s *PDFService) addBulletList(pdf *gofpdf.Fpdf, items []string) {
	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(33, 37, 41)
	for _, item := range items {
		pdf.SetX(20)
		pdf.MultiCell(170, 6, "- "+item, "", "L", false)
		pdf.Ln(1)
	}
	pdf.Ln(4)
}

func (s *PDFService) addPerformanceSection(pdf *gofpdf.Fpdf, report *models.PerformanceReport) {
	s.addHeader(pdf, "Academic Performance")

	s.addKeyValue(pdf, "Student", report.Student.Username)
	s.addKeyValue(pdf, "Current GPA", fmt.Sprintf("%.2f", report.GPAAnalysis.CurrentGPA))
	s.addKeyValue(pdf, "Cumulative GPA", fmt.Sprintf("%.2f", report.GPAAnalysis.CurrentCGPA))
	s.addKeyValue(pdf, "Average GPA", fmt.Sprintf("%.2f", report.GPAAnalysis.AverageGPA))
	s.addKeyValue(pdf, "Trend", report.GPAAnalysis.Trend)
	s.addKeyValue(pdf, "Credits", fmt.Sprintf("%d of %d completed",
		report.GPAAnalysis.CompletedCredits, report.GPAAnalysis.TotalCredits))
	pdf.Ln(4)

	if len(report.SemesterBreakdown) > 0 {
		s.addSemesterTable(pdf, report.SemesterBreakdown)
	}

	if len(report.Recommendations) > 0 {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 8, "Recommendations", "", 0, "L", false, 0, "")
		pdf.Ln(8)
		s.addBulletList(pdf, report.Recommendations)
	}
}

// addSemesterTable adds the semester GPA breakdown as a table
func (s *PDFService) addSemesterTable(pdf *gofpdf.Fpdf, rows []models.SemesterGPA) {
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(0, 102, 204)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(70, 8, "Semester", "1", 0, "L", true, 0, "")
	pdf.CellFormat(35, 8, "GPA", "1", 0, "C", true, 0, "")
	pdf.CellFormat(35, 8, "CGPA", "1", 0, "C", true, 0, "")
	pdf.CellFormat(40, 8, "Credits", "1", 0, "C", true, 0, "")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(33, 37, 41)
	fill := false
	for _, row := range rows {
		if fill {
			pdf.SetFillColor(248, 249, 250)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}
		pdf.CellFormat(70, 7, row.Semester, "1", 0, "L", true, 0, "")
		pdf.CellFormat(35, 7, fmt.Sprintf("%.2f", row.GPA), "1", 0, "C", true, 0, "")
		pdf.CellFormat(35, 7, fmt.Sprintf("%.2f", row.CGPA), "1", 0, "C", true, 0, "")
		pdf.CellFormat(40, 7, fmt.Sprintf("%d", row.CreditsCompleted), "1", 0, "C", true, 0, "")
		pdf.Ln(7)
		fill = !fill
	}
	pdf.Ln(6)
}

func (s *PDFService) addEndorsementSection(pdf *gofpdf.Fpdf, report *models.EndorsementReport) {
	s.addHeader(pdf, "Peer Endorsements")

	s.addKeyValue(pdf, "Student", report.Student.Username)
	s.addKeyValue(pdf, "Total Endorsements", fmt.Sprintf("%d", report.Summary.TotalEndorsements))
	s.addKeyValue(pdf, "Average Rating", fmt.Sprintf("%.2f / 5", report.Summary.AverageRating))
	s.addKeyValue(pdf, "Unique Endorsers", fmt.Sprintf("%d", report.Summary.UniqueEndorsers))
	s.addKeyValue(pdf, "Endorsed Achievements", fmt.Sprintf("%d", report.Summary.EndorsedAchievements))
	pdf.Ln(4)

	if len(report.SkillAnalytics) > 0 {
		skills := make([]string, 0, len(report.SkillAnalytics))
		for skill := range report.SkillAnalytics {
			skills = append(skills, skill)
		}
		sort.Strings(skills)

		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 8, "Skill Analytics", "", 0, "L", false, 0, "")
		pdf.Ln(8)

		lines := make([]string, 0, len(skills))
		for _, skill := range skills {
			stat := report.SkillAnalytics[skill]
			lines = append(lines, fmt.Sprintf("%s: %d endorsements, average rating %.2f", skill, stat.Count, stat.AverageRating))
		}
		s.addBulletList(pdf, lines)
	}

	if len(report.Insights) > 0 {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 8, "Insights", "", 0, "L", false, 0, "")
		pdf.Ln(8)
		s.addBulletList(pdf, report.Insights)
	}
}
