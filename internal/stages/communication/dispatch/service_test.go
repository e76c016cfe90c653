// internal/stages/communication/dispatch/service_test.go
package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finaid-pipeline/internal/common/config"
	"finaid-pipeline/internal/common/logger"
	"finaid-pipeline/internal/models"
	"finaid-pipeline/internal/stages/communication/render"
)

func createTestService(t *testing.T) *Service {
	renderer, err := render.NewService(render.ConfigFrom(config.Default()), logger.NewTestLogger(t))
	require.NoError(t, err)
	return NewService(renderer, logger.NewTestLogger(t))
}

func intPtr(v int) *int { return &v }

func recipient(id string, days int) models.MergedRecord {
	return models.MergedRecord{
		Borrower: models.BorrowerRecord{
			StudentID:          id,
			FirstName:          "Maria",
			LastName:           "Santos",
			Email:              id + "@example.edu",
			DaysDelinquent:     intPtr(days),
			OutstandingBalance: 15000,
			LoanType:           "Direct Subsidized",
		},
		Student: models.StudentRecord{Major: "Nursing"},
	}
}

func TestExecute_AllSent(t *testing.T) {
	svc := createTestService(t)

	recipients := []models.MergedRecord{
		recipient("STU001000", 200),
		recipient("STU001001", 45),
		recipient("STU001002", 10),
	}

	report, err := svc.Execute(context.Background(), models.TemplateDefaultPrevention, recipients)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Sent)
	assert.Equal(t, 0, report.Failed)
	require.Len(t, report.Results, 3)

	_, err = uuid.Parse(report.BatchID)
	assert.NoError(t, err)

	for i, result := range report.Results {
		assert.Equal(t, recipients[i].Borrower.StudentID, result.StudentID, "input order preserved")
		assert.Equal(t, models.StatusSent, result.Status)
		assert.Equal(t, recipients[i].Borrower.Email, result.Email)

		_, err := uuid.Parse(result.MessageID)
		assert.NoError(t, err)
		_, err = time.Parse(time.RFC3339, result.SentAt)
		assert.NoError(t, err)
	}
}

func TestExecute_RenderFailureDoesNotAbortBatch(t *testing.T) {
	svc := createTestService(t)

	undeclared := recipient("STU001001", 45)
	undeclared.Student.Major = "" // payment_plan references {{major}}

	recipients := []models.MergedRecord{
		recipient("STU001000", 200),
		undeclared,
		recipient("STU001002", 10),
	}

	report, err := svc.Execute(context.Background(), models.TemplatePaymentPlan, recipients)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Sent)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Results, 3)

	failed := report.Results[1]
	assert.Equal(t, "STU001001", failed.StudentID)
	assert.Equal(t, models.StatusFailed, failed.Status)
	assert.Contains(t, failed.Error, "major")
	assert.Empty(t, failed.MessageID)
	assert.Empty(t, failed.SentAt)
}

func TestExecute_UnknownTemplateFailsEveryRecipient(t *testing.T) {
	svc := createTestService(t)

	recipients := []models.MergedRecord{
		recipient("STU001000", 200),
		recipient("STU001001", 45),
	}

	report, err := svc.Execute(context.Background(), "no_such_template", recipients)
	require.NoError(t, err)

	assert.Equal(t, 0, report.Sent)
	assert.Equal(t, 2, report.Failed)
	for _, result := range report.Results {
		assert.Equal(t, models.StatusFailed, result.Status)
		assert.Contains(t, result.Error, "no_such_template")
	}
}

func TestFields_FormatsBalance(t *testing.T) {
	rec := recipient("STU001000", 200)
	fields := Fields(rec)

	assert.Equal(t, "15,000.00", fields["outstanding_balance"])
	assert.Equal(t, "200", fields["days_delinquent"])
	assert.Equal(t, "Nursing", fields["major"])
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{amount: 0, want: "0.00"},
		{amount: 999.5, want: "999.50"},
		{amount: 8250.5, want: "8,250.50"},
		{amount: 1234567.891, want: "1,234,567.89"},
		{amount: -15000, want: "-15,000.00"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatMoney(tt.amount))
	}
}
