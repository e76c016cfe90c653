// internal/stages/communication/dispatch/service.go
package dispatch

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"finaid-pipeline/internal/common/logger"
	"finaid-pipeline/internal/common/metrics"
	"finaid-pipeline/internal/models"
	"finaid-pipeline/internal/stages/communication/render"
)

// Service simulates bulk message dispatch. No transport is performed; a
// "sent" result means the message rendered cleanly and would have been sent.
type Service struct {
	renderer *render.Service
	logger   logger.Logger
}

// NewService creates a new dispatch simulator on top of a renderer.
func NewService(renderer *render.Service, log logger.Logger) *Service {
	return &Service{
		renderer: renderer,
		logger:   log,
	}
}

// Execute renders the named template once per recipient, sequentially and in
// input order. A failed render produces a failed result for that recipient
// and the batch continues.
func (s *Service) Execute(ctx context.Context, templateName string, recipients []models.MergedRecord) (*models.DispatchReport, error) {
	report := &models.DispatchReport{
		BatchID:  uuid.New().String(),
		Template: templateName,
		Results:  make([]models.DispatchResult, 0, len(recipients)),
	}

	for _, recipient := range recipients {
		result := s.dispatchOne(templateName, recipient)
		report.Results = append(report.Results, result)
		if result.Status == models.StatusSent {
			report.Sent++
		} else {
			report.Failed++
		}
		metrics.DispatchResults.WithLabelValues(result.Status).Inc()
	}

	s.logger.Info("Bulk dispatch simulation complete", map[string]interface{}{
		"batch_id": report.BatchID,
		"template": templateName,
		"sent":     report.Sent,
		"failed":   report.Failed,
	})

	return report, nil
}

func (s *Service) dispatchOne(templateName string, recipient models.MergedRecord) models.DispatchResult {
	result := models.DispatchResult{StudentID: recipient.Borrower.StudentID}

	if _, err := s.renderer.Render(templateName, Fields(recipient)); err != nil {
		result.Status = models.StatusFailed
		result.Error = err.Error()
		return result
	}

	result.Status = models.StatusSent
	result.Email = recipient.Borrower.Email
	result.MessageID = uuid.New().String()
	result.SentAt = time.Now().UTC().Format(time.RFC3339)
	return result
}

// Fields builds the per-recipient substitution map from a merged record.
// Blank source values are left out so a template referencing them fails the
// render for that recipient instead of producing a message with holes.
func Fields(rec models.MergedRecord) map[string]string {
	fields := map[string]string{
		"days_delinquent":     strconv.Itoa(rec.Borrower.DelinquentDays()),
		"outstanding_balance": formatMoney(rec.Borrower.OutstandingBalance),
		"risk_tier":           string(rec.Risk.Tier),
	}
	optional := map[string]string{
		"student_id": rec.Borrower.StudentID,
		"first_name": rec.Borrower.FirstName,
		"last_name":  rec.Borrower.LastName,
		"email":      rec.Borrower.Email,
		"loan_type":  rec.Borrower.LoanType,
		"major":      rec.Student.Major,
		"program":    rec.Student.Program,
	}
	for key, value := range optional {
		if value != "" {
			fields[key] = value
		}
	}
	return fields
}

// formatMoney renders an amount with thousands separators and two decimals,
// e.g. 15000 -> "15,000.00".
func formatMoney(amount float64) string {
	s := fmt.Sprintf("%.2f", amount)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign = "-"
		s = s[1:]
	}
	dot := strings.IndexByte(s, '.')
	whole, frac := s[:dot], s[dot:]

	var b strings.Builder
	b.WriteString(sign)
	for i, digit := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}
	b.WriteString(frac)
	return b.String()
}
