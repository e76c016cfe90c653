// internal/stages/reporting/export/service_test.go
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finaid-pipeline/internal/common/config"
	commonerrors "finaid-pipeline/internal/common/errors"
	"finaid-pipeline/internal/common/logger"
	"finaid-pipeline/internal/models"
)

func createTestService(t *testing.T) *Service {
	return NewService(ConfigFrom(config.Default()), logger.NewTestLogger(t))
}

func intPtr(v int) *int { return &v }

func classified(id string, tier models.RiskTier, score, balance float64) models.MergedRecord {
	return models.MergedRecord{
		Borrower: models.BorrowerRecord{
			StudentID:          id,
			FirstName:          "Maria",
			LastName:           "Santos",
			Email:              id + "@example.edu",
			DaysDelinquent:     intPtr(90),
			OutstandingBalance: balance,
			LoanType:           "Direct Subsidized",
		},
		Student: models.StudentRecord{Major: "Nursing"},
		Risk:    models.RiskAssessment{Score: score, Tier: tier},
	}
}

func readSheet(t *testing.T, buf *bytes.Buffer) [][]string {
	rows, err := csv.NewReader(buf).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestExecute_DetailCarriesRecommendation(t *testing.T) {
	svc := createTestService(t)

	records := []models.MergedRecord{
		classified("STU001000", models.TierHigh, 0.9, 15000),
		classified("STU001001", models.TierLow, 0.1, 2000),
	}

	var detail, summary bytes.Buffer
	err := svc.Execute(context.Background(), records, "", &detail, &summary)
	require.NoError(t, err)

	rows := readSheet(t, &detail)
	require.Len(t, rows, 3)
	assert.Equal(t, detailHeader, rows[0])
	assert.Equal(t, "STU001000", rows[1][0])
	assert.Equal(t, "HIGH", rows[1][9])
	assert.Contains(t, rows[1][10], "Urgent outreach")
	assert.Contains(t, rows[2][10], "Informational")
}

func TestExecute_SummaryAlwaysListsAllTiers(t *testing.T) {
	svc := createTestService(t)

	records := []models.MergedRecord{
		classified("STU001000", models.TierHigh, 0.9, 15000),
		classified("STU001001", models.TierHigh, 0.85, 5000),
	}

	var detail, summary bytes.Buffer
	err := svc.Execute(context.Background(), records, "", &detail, &summary)
	require.NoError(t, err)

	rows := readSheet(t, &summary)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"HIGH", "2", "20000.00"}, rows[1])
	assert.Equal(t, []string{"MEDIUM", "0", "0.00"}, rows[2])
	assert.Equal(t, []string{"LOW", "0", "0.00"}, rows[3])
}

func TestExecute_TierFilter(t *testing.T) {
	svc := createTestService(t)

	records := []models.MergedRecord{
		classified("STU001000", models.TierHigh, 0.9, 15000),
		classified("STU001001", models.TierLow, 0.1, 2000),
	}

	var detail, summary bytes.Buffer
	err := svc.Execute(context.Background(), records, models.TierHigh, &detail, &summary)
	require.NoError(t, err)

	rows := readSheet(t, &detail)
	require.Len(t, rows, 2)
	assert.Equal(t, "STU001000", rows[1][0])
}

func TestExecute_EmptyFilteredSetStillWritesSheets(t *testing.T) {
	svc := createTestService(t)

	records := []models.MergedRecord{
		classified("STU001000", models.TierLow, 0.1, 2000),
	}

	var detail, summary bytes.Buffer
	err := svc.Execute(context.Background(), records, models.TierHigh, &detail, &summary)
	require.Error(t, err)
	assert.True(t, commonerrors.HasCode(err, commonerrors.ErrCodeEmptyResult))

	detailRows := readSheet(t, &detail)
	assert.Len(t, detailRows, 1, "header only")

	summaryRows := readSheet(t, &summary)
	require.Len(t, summaryRows, 4)
	assert.Equal(t, []string{"HIGH", "0", "0.00"}, summaryRows[1])
}

func TestExecuteToDir_WritesConfiguredFiles(t *testing.T) {
	svc := createTestService(t)
	dir := t.TempDir()

	records := []models.MergedRecord{
		classified("STU001000", models.TierMedium, 0.5, 8000),
	}

	err := svc.ExecuteToDir(context.Background(), records, "", dir)
	require.NoError(t, err)

	for _, name := range []string{"delinquency_detail.csv", "delinquency_summary.csv"} {
		_, statErr := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, statErr, name)
	}
}
