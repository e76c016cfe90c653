// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"finaid-pipeline/internal/common/config"
	commonerrors "finaid-pipeline/internal/common/errors"
	"finaid-pipeline/internal/common/logger"
	"finaid-pipeline/internal/common/metrics"
	"finaid-pipeline/internal/models"
	"finaid-pipeline/internal/stages/analysis/majors"
	"finaid-pipeline/internal/stages/analysis/risk"
	"finaid-pipeline/internal/stages/communication/dispatch"
	"finaid-pipeline/internal/stages/communication/render"
	"finaid-pipeline/internal/stages/ingestion/merge"
	"finaid-pipeline/internal/stages/ingestion/normalize"
	"finaid-pipeline/internal/stages/reporting/export"
)

// Pipeline wires the stages together. It is immutable after construction
// and safe to share; per-run state lives in a Session.
type Pipeline struct {
	config     *config.Config
	logger     logger.Logger
	normalizer *normalize.Service
	merger     *merge.Service
	classifier *risk.Service
	aggregator *majors.Service
	renderer   *render.Service
	dispatcher *dispatch.Service
	exporter   *export.Service
}

// New builds a pipeline from a validated application config.
func New(cfg *config.Config, log logger.Logger) (*Pipeline, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	classifier, err := risk.NewService(risk.ConfigFrom(cfg), log)
	if err != nil {
		return nil, err
	}
	renderer, err := render.NewService(render.ConfigFrom(cfg), log)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		config:     cfg,
		logger:     log,
		normalizer: normalize.NewService(normalize.ConfigFrom(cfg), log),
		merger:     merge.NewService(log),
		classifier: classifier,
		aggregator: majors.NewService(majors.ConfigFrom(cfg), log),
		renderer:   renderer,
		dispatcher: dispatch.NewService(renderer, log),
		exporter:   export.NewService(export.ConfigFrom(cfg), log),
	}, nil
}

// NewSession starts an independent run. Sessions own all per-run state and
// never observe each other.
func (p *Pipeline) NewSession() *Session {
	return &Session{pipeline: p}
}

// Session carries one run's datasets through the stages in order:
// ingest both files, Merge, Classify, then analyze, export, or dispatch.
type Session struct {
	pipeline   *Pipeline
	borrowers  []models.BorrowerRecord
	students   []models.StudentRecord
	merged     []models.MergedRecord
	stats      *merge.Stats
	classified bool
}

// IngestDelinquency parses and normalizes a delinquency report. A failure
// here leaves any previously ingested student records intact.
func (s *Session) IngestDelinquency(ctx context.Context, r io.Reader) error {
	defer s.observe("ingest_delinquency")()

	table, err := s.pipeline.normalizer.ParseCSV(string(normalize.KindDelinquency), r)
	if err != nil {
		return err
	}
	s.borrowers = s.pipeline.normalizer.NormalizeBorrowers(ctx, table)
	return nil
}

// IngestStudentRecords parses and normalizes a student-records export.
func (s *Session) IngestStudentRecords(ctx context.Context, r io.Reader) error {
	defer s.observe("ingest_student_records")()

	table, err := s.pipeline.normalizer.ParseCSV(string(normalize.KindStudentRecords), r)
	if err != nil {
		return err
	}
	s.students = s.pipeline.normalizer.NormalizeStudents(ctx, table)
	return nil
}

// Merge joins the two ingested datasets. The returned stats carry the
// unmatched counts on both sides so callers can surface the silent drops.
func (s *Session) Merge(ctx context.Context) (*merge.Stats, error) {
	if s.borrowers == nil || s.students == nil {
		return nil, fmt.Errorf("merge requires both datasets to be ingested first")
	}
	defer s.observe("merge")()

	merged, stats, err := s.pipeline.merger.Execute(ctx, s.borrowers, s.students)
	if err != nil {
		return nil, err
	}
	s.merged = merged
	s.stats = stats
	s.classified = false
	return stats, nil
}

// Classify attaches a risk assessment to every merged record.
func (s *Session) Classify(ctx context.Context) error {
	if s.merged == nil {
		return fmt.Errorf("classify requires a merged dataset")
	}
	defer s.observe("classify")()

	s.merged = s.pipeline.classifier.Classify(ctx, s.merged)
	s.classified = true
	return nil
}

// AnalyzeMajors aggregates the classified records per major.
func (s *Session) AnalyzeMajors(ctx context.Context) ([]models.MajorSummary, error) {
	if !s.classified {
		return nil, fmt.Errorf("major analysis requires classified records")
	}
	defer s.observe("analyze_majors")()

	return s.pipeline.aggregator.Execute(ctx, s.merged)
}

// Export writes the detail and summary sheets for the classified records.
func (s *Session) Export(ctx context.Context, tierFilter models.RiskTier, detail, summary io.Writer) error {
	if !s.classified {
		return fmt.Errorf("export requires classified records")
	}
	defer s.observe("export")()

	return s.pipeline.exporter.Execute(ctx, s.merged, tierFilter, detail, summary)
}

// ExportToDir writes both sheets into dir using the configured file names.
func (s *Session) ExportToDir(ctx context.Context, tierFilter models.RiskTier, dir string) error {
	if !s.classified {
		return fmt.Errorf("export requires classified records")
	}
	defer s.observe("export")()

	return s.pipeline.exporter.ExecuteToDir(ctx, s.merged, tierFilter, dir)
}

// SimulateDispatch renders the named template for every classified record
// and reports per-recipient outcomes without sending anything.
func (s *Session) SimulateDispatch(ctx context.Context, templateName string) (*models.DispatchReport, error) {
	if !s.classified {
		return nil, fmt.Errorf("dispatch requires classified records")
	}
	defer s.observe("dispatch")()

	return s.pipeline.dispatcher.Execute(ctx, templateName, s.merged)
}

// RenderPreview renders the named template against the first classified
// record, for caller-driven display before a bulk run.
func (s *Session) RenderPreview(templateName string) (*models.RenderedMessage, error) {
	if len(s.merged) == 0 || !s.classified {
		return nil, commonerrors.NewEmptyResultError("no classified records to preview against")
	}
	return s.pipeline.renderer.Render(templateName, dispatch.Fields(s.merged[0]))
}

// Records exposes the session's current merged dataset for display layers.
func (s *Session) Records() []models.MergedRecord {
	return s.merged
}

// Stats returns the most recent merge statistics, nil before Merge.
func (s *Session) Stats() *merge.Stats {
	return s.stats
}

func (s *Session) observe(stage string) func() {
	start := time.Now()
	return func() {
		metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}
}
