// internal/stages/analysis/majors/service_test.go
package majors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finaid-pipeline/internal/common/config"
	"finaid-pipeline/internal/common/logger"
	"finaid-pipeline/internal/models"
)

func createTestService(t *testing.T) *Service {
	return NewService(ConfigFrom(config.Default()), logger.NewTestLogger(t))
}

func intPtr(v int) *int { return &v }

func record(major string, score float64, balance float64, days int) models.MergedRecord {
	return models.MergedRecord{
		Borrower: models.BorrowerRecord{
			DaysDelinquent:     intPtr(days),
			OutstandingBalance: balance,
		},
		Student: models.StudentRecord{Major: major},
		Risk:    models.RiskAssessment{Score: score},
	}
}

func TestExecute_GroupsAndAggregates(t *testing.T) {
	svc := createTestService(t)

	records := []models.MergedRecord{
		record("Nursing", 0.9, 15000, 200),
		record("Nursing", 0.7, 5000, 90),
		record("Business", 0.2, 8000, 10),
	}

	summaries, err := svc.Execute(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	nursing := summaries[0]
	assert.Equal(t, "Nursing", nursing.Major)
	assert.Equal(t, 2, nursing.StudentCount)
	assert.Equal(t, 0.8, nursing.AvgRiskScore)
	assert.Equal(t, 10000.0, nursing.AvgOutstandingBalance)
	assert.Equal(t, 20000.0, nursing.TotalOutstandingBalance)
	assert.Equal(t, 145.0, nursing.AvgDaysDelinquent)
	assert.Equal(t, models.TierHigh, nursing.RiskTier)

	business := summaries[1]
	assert.Equal(t, "Business", business.Major)
	assert.Equal(t, models.TierLow, business.RiskTier)
}

func TestExecute_SortedByDescendingRiskThenMajor(t *testing.T) {
	svc := createTestService(t)

	records := []models.MergedRecord{
		record("Zoology", 0.5, 1000, 40),
		record("Art", 0.5, 1000, 40),
		record("Math", 0.9, 1000, 200),
	}

	summaries, err := svc.Execute(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, summaries, 3)

	assert.Equal(t, "Math", summaries[0].Major)
	assert.Equal(t, "Art", summaries[1].Major)
	assert.Equal(t, "Zoology", summaries[2].Major)
}

func TestExecute_MissingMajorGroupsAsUndeclared(t *testing.T) {
	svc := createTestService(t)

	records := []models.MergedRecord{
		record("", 0.5, 2000, 45),
		record("", 0.5, 3000, 45),
	}

	summaries, err := svc.Execute(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, UndeclaredMajor, summaries[0].Major)
	assert.Equal(t, 2, summaries[0].StudentCount)
}

func TestExecute_RoundsToTwoDecimals(t *testing.T) {
	svc := createTestService(t)

	records := []models.MergedRecord{
		record("Nursing", 0.333, 1000.004, 1),
		record("Nursing", 0.333, 1000.004, 2),
	}

	summaries, err := svc.Execute(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 0.33, summaries[0].AvgRiskScore)
	assert.Equal(t, 2000.01, summaries[0].TotalOutstandingBalance)
	assert.Equal(t, 1.5, summaries[0].AvgDaysDelinquent)
}

func TestExecute_EmptyInput(t *testing.T) {
	svc := createTestService(t)

	summaries, err := svc.Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestExecute_CountsPartitionInput(t *testing.T) {
	svc := createTestService(t)

	records := []models.MergedRecord{
		record("Nursing", 0.9, 100, 10),
		record("Business", 0.2, 100, 10),
		record("", 0.4, 100, 10),
		record("Nursing", 0.1, 100, 10),
	}

	summaries, err := svc.Execute(context.Background(), records)
	require.NoError(t, err)

	total := 0
	for _, s := range summaries {
		total += s.StudentCount
	}
	assert.Equal(t, len(records), total)
}
