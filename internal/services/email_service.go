package services

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"time"

	"student-report-service/internal/config"
	"student-report-service/internal/models"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// EmailService handles email sending via SendGrid
type EmailService struct {
	apiKey    string
	fromEmail string
	fromName  string
	client    *sendgrid.Client
}

// NewEmailService creates a new email service
func NewEmailService(cfg config.EmailConfig) *EmailService {
	client := sendgrid.NewSendClient(cfg.APIKey)
	return &EmailService{
		apiKey:    cfg.APIKey,
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		client:    client,
	}
}

// SendReportEmail sends a generated report to the recipient with the text
// rendering and, when available, a PDF attachment
func (s *EmailService) SendReportEmail(
	toEmail string,
	studentName string,
	payload *models.ReportPayload,
	reportText string,
	pdfData []byte,
) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail("", toEmail)
	subject := fmt.Sprintf("%s - %s", payload.ReportKind.Title(), studentName)

	htmlContent := s.buildReportEmailHTML(studentName, payload)
	plainTextContent := s.buildReportEmailText(studentName, payload)

	message := mail.NewSingleEmail(from, subject, to, plainTextContent, htmlContent)

	stamp := time.Now().Format("20060102")

	if reportText != "" {
		attachment := mail.NewAttachment()
		attachment.SetContent(base64.StdEncoding.EncodeToString([]byte(reportText)))
		attachment.SetType("text/plain")
		attachment.SetFilename(fmt.Sprintf("%s-report-%s.txt", payload.ReportKind, stamp))
		attachment.SetDisposition("attachment")
		message.AddAttachment(attachment)
	}

	if len(pdfData) > 0 {
		attachment := mail.NewAttachment()
		attachment.SetContent(base64.StdEncoding.EncodeToString(pdfData))
		attachment.SetType("application/pdf")
		attachment.SetFilename(fmt.Sprintf("%s-report-%s.pdf", payload.ReportKind, stamp))
		attachment.SetDisposition("attachment")
		message.AddAttachment(attachment)
	}

	response, err := s.client.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send email via SendGrid: %w", err)
	}

	if response.StatusCode >= 400 {
		return fmt.Errorf("SendGrid API error: status %d, body: %s", response.StatusCode, response.Body)
	}

	return nil
}

// buildReportEmailHTML builds the HTML content for the report email
func (s *EmailService) buildReportEmailHTML(studentName string, payload *models.ReportPayload) string {
	var html bytes.Buffer

	html.WriteString(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #0066cc; color: white; padding: 20px; border-radius: 8px 8px 0 0; }
        .content { background-color: #f8f9fa; padding: 20px; border-radius: 0 0 8px 8px; }
        .summary-box { background-color: white; padding: 15px; border-radius: 5px; margin: 15px 0; border-left: 4px solid #0066cc; }
        .footer { text-align: center; color: #666; font-size: 12px; margin-top: 30px; padding-top: 20px; border-top: 1px solid #eee; }
    </style>
</head>
<body>
    <div class="header">
        <h1 style="margin: 0;">` + payload.ReportKind.Title() + `</h1>
        <p style="margin: 5px 0 0 0; opacity: 0.9;">` + studentName + `</p>
    </div>
    <div class="content">
        <p>Hello,</p>
        <p>The requested <strong>` + payload.ReportKind.Title() + `</strong> for <strong>` + studentName + `</strong> is ready.</p>`)

	for _, line := range emailHighlights(payload) {
		html.WriteString(`
        <div class="summary-box">
            <p style="margin: 0;">` + line + `</p>
        </div>`)
	}

	html.WriteString(`
        <p>The complete report is attached.</p>
        <p>Best regards,<br>Student Records Team</p>
    </div>
    <div class="footer">
        <p>This is an automated email. Please do not reply.</p>
        <p>Generated on ` + payload.GeneratedAt + `</p>
    </div>
</body>
</html>`)

	return html.String()
}

// buildReportEmailText builds the plain text content for the report email
func (s *EmailService) buildReportEmailText(studentName string, payload *models.ReportPayload) string {
	var text bytes.Buffer

	text.WriteString(fmt.Sprintf(`%s
%s

Hello,

The requested %s for %s is ready.

`, payload.ReportKind.Title(), studentName, payload.ReportKind.Title(), studentName))

	for _, line := range emailHighlights(payload) {
		text.WriteString(line + "\n")
	}

	text.WriteString(`
The complete report is attached.

Best regards,
Student Records Team

---
This is an automated email. Please do not reply.
Generated on ` + payload.GeneratedAt)

	return text.String()
}

// emailHighlights picks the headline numbers shown in the email body
func emailHighlights(payload *models.ReportPayload) []string {
	var lines []string
	if payload.Performance != nil {
		lines = append(lines, fmt.Sprintf("Current GPA: %.2f (trend: %s)",
			payload.Performance.GPAAnalysis.CurrentGPA, payload.Performance.GPAAnalysis.Trend))
	}
	if payload.Endorsement != nil {
		lines = append(lines, fmt.Sprintf("Peer endorsements: %d (average rating %.2f)",
			payload.Endorsement.Summary.TotalEndorsements, payload.Endorsement.Summary.AverageRating))
	}
	return lines
}
