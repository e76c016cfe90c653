// internal/stages/reporting/export/service.go
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	commonerrors "finaid-pipeline/internal/common/errors"
	"finaid-pipeline/internal/common/logger"
	"finaid-pipeline/internal/common/metrics"
	"finaid-pipeline/internal/models"
)

var detailHeader = []string{
	"student_id", "first_name", "last_name", "email", "major",
	"days_delinquent", "outstanding_balance", "loan_type",
	"risk_score", "risk_tier", "recommendation",
}

var summaryHeader = []string{"risk_tier", "student_count", "total_outstanding_balance"}

// all three tiers always appear in the summary, highest first
var summaryTiers = []models.RiskTier{models.TierHigh, models.TierMedium, models.TierLow}

// Service writes classified records as a detail sheet plus a per-tier
// summary sheet.
type Service struct {
	config Config
	logger logger.Logger
}

// NewService creates a new report exporter.
func NewService(config Config, log logger.Logger) *Service {
	return &Service{
		config: config,
		logger: log,
	}
}

// Execute writes both sheets, filtered to tierFilter when non-empty. Both
// sheets are written even when the filtered set is empty; the returned
// error is then EMPTY_RESULT so the caller can flag it, with the zeroed
// summary already on disk.
func (s *Service) Execute(ctx context.Context, records []models.MergedRecord, tierFilter models.RiskTier, detail, summary io.Writer) error {
	filtered := records
	if tierFilter != "" {
		filtered = make([]models.MergedRecord, 0, len(records))
		for _, rec := range records {
			if rec.Risk.Tier == tierFilter {
				filtered = append(filtered, rec)
			}
		}
	}

	if err := s.writeDetail(detail, filtered); err != nil {
		return err
	}
	if err := s.writeSummary(summary, filtered); err != nil {
		return err
	}

	s.logger.Info("Report export complete", map[string]interface{}{
		"records":     len(filtered),
		"tier_filter": string(tierFilter),
	})

	if len(filtered) == 0 {
		return commonerrors.NewEmptyResultError("no records matched the export filter")
	}
	return nil
}

// ExecuteToDir writes both sheets into dir using the configured file names.
func (s *Service) ExecuteToDir(ctx context.Context, records []models.MergedRecord, tierFilter models.RiskTier, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return commonerrors.NewExportFailedError("detail", err)
	}

	detail, err := os.Create(filepath.Join(dir, s.config.DetailFile))
	if err != nil {
		return commonerrors.NewExportFailedError("detail", err)
	}
	defer detail.Close()

	summary, err := os.Create(filepath.Join(dir, s.config.SummaryFile))
	if err != nil {
		return commonerrors.NewExportFailedError("summary", err)
	}
	defer summary.Close()

	return s.Execute(ctx, records, tierFilter, detail, summary)
}

func (s *Service) writeDetail(w io.Writer, records []models.MergedRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(detailHeader); err != nil {
		return commonerrors.NewExportFailedError("detail", err)
	}
	for _, rec := range records {
		row := []string{
			rec.Borrower.StudentID,
			rec.Borrower.FirstName,
			rec.Borrower.LastName,
			rec.Borrower.Email,
			rec.Student.Major,
			strconv.Itoa(rec.Borrower.DelinquentDays()),
			fmt.Sprintf("%.2f", rec.Borrower.OutstandingBalance),
			rec.Borrower.LoanType,
			fmt.Sprintf("%.4f", rec.Risk.Score),
			string(rec.Risk.Tier),
			s.recommendation(rec.Risk.Tier),
		}
		if err := cw.Write(row); err != nil {
			return commonerrors.NewExportFailedError("detail", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return commonerrors.NewExportFailedError("detail", err)
	}
	metrics.ExportsWritten.WithLabelValues("detail").Inc()
	return nil
}

func (s *Service) writeSummary(w io.Writer, records []models.MergedRecord) error {
	counts := make(map[models.RiskTier]int)
	balances := make(map[models.RiskTier]float64)
	for _, rec := range records {
		counts[rec.Risk.Tier]++
		balances[rec.Risk.Tier] += rec.Borrower.OutstandingBalance
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(summaryHeader); err != nil {
		return commonerrors.NewExportFailedError("summary", err)
	}
	for _, tier := range summaryTiers {
		row := []string{
			string(tier),
			strconv.Itoa(counts[tier]),
			fmt.Sprintf("%.2f", balances[tier]),
		}
		if err := cw.Write(row); err != nil {
			return commonerrors.NewExportFailedError("summary", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return commonerrors.NewExportFailedError("summary", err)
	}
	metrics.ExportsWritten.WithLabelValues("summary").Inc()
	return nil
}

func (s *Service) recommendation(tier models.RiskTier) string {
	switch tier {
	case models.TierHigh:
		return s.config.Recommendations.High
	case models.TierMedium:
		return s.config.Recommendations.Medium
	default:
		return s.config.Recommendations.Low
	}
}
