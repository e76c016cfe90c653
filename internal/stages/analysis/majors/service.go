// internal/stages/analysis/majors/service.go
package majors

import (
	"context"
	"math"
	"sort"

	"finaid-pipeline/internal/common/logger"
	"finaid-pipeline/internal/models"
)

// Service aggregates classified records into per-major summaries.
type Service struct {
	config Config
	logger logger.Logger
}

// NewService creates a new major analytics service.
func NewService(config Config, log logger.Logger) *Service {
	return &Service{
		config: config,
		logger: log,
	}
}

// Execute groups the records by declared major and computes per-group
// averages and totals. Summaries are recomputed on every call; nothing is
// cached between runs. An empty input yields an empty slice and no error.
func (s *Service) Execute(ctx context.Context, records []models.MergedRecord) ([]models.MajorSummary, error) {
	groups := make(map[string][]models.MergedRecord)
	for _, rec := range records {
		major := rec.Student.Major
		if major == "" {
			major = UndeclaredMajor
		}
		groups[major] = append(groups[major], rec)
	}

	summaries := make([]models.MajorSummary, 0, len(groups))
	for major, members := range groups {
		summaries = append(summaries, s.summarize(major, members))
	}

	// descending average risk, ties broken by major name for stable output
	sort.SliceStable(summaries, func(i, j int) bool {
		if summaries[i].AvgRiskScore != summaries[j].AvgRiskScore {
			return summaries[i].AvgRiskScore > summaries[j].AvgRiskScore
		}
		return summaries[i].Major < summaries[j].Major
	})

	s.logger.Info("Major aggregation complete", map[string]interface{}{
		"records": len(records),
		"majors":  len(summaries),
	})

	return summaries, nil
}

func (s *Service) summarize(major string, members []models.MergedRecord) models.MajorSummary {
	var riskSum, balanceSum, daysSum float64
	for _, rec := range members {
		riskSum += rec.Risk.Score
		balanceSum += rec.Borrower.OutstandingBalance
		daysSum += float64(rec.Borrower.DelinquentDays())
	}

	count := float64(len(members))
	avgRisk := round2(riskSum / count)

	return models.MajorSummary{
		Major:                   major,
		StudentCount:            len(members),
		AvgRiskScore:            avgRisk,
		AvgOutstandingBalance:   round2(balanceSum / count),
		TotalOutstandingBalance: round2(balanceSum),
		AvgDaysDelinquent:       round2(daysSum / count),
		RiskTier:                s.tierFor(avgRisk),
	}
}

func (s *Service) tierFor(score float64) models.RiskTier {
	switch {
	case score >= s.config.Tiers.High:
		return models.TierHigh
	case score >= s.config.Tiers.Medium:
		return models.TierMedium
	default:
		return models.TierLow
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
