// cmd/pipeline-runner/main.go
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"finaid-pipeline/internal/common/config"
	commonerrors "finaid-pipeline/internal/common/errors"
	"finaid-pipeline/internal/common/logger"
	"finaid-pipeline/internal/common/observability"
	"finaid-pipeline/internal/models"
	"finaid-pipeline/internal/pipeline"
)

func main() {
	nsldsPath := flag.String("nslds", "", "path to the NSLDS delinquent borrower report (CSV)")
	sisPath := flag.String("sis", "", "path to the SIS student records export (CSV)")
	outDir := flag.String("out", "reports", "directory for the exported sheets")
	templateName := flag.String("template", models.TemplateDefaultPrevention, "outreach template for dispatch simulation")
	dispatchFlag := flag.Bool("dispatch", false, "simulate bulk dispatch after classification")
	tierFilter := flag.String("tier", "", "restrict the export to one risk tier (HIGH, MEDIUM, LOW)")
	configPath := flag.String("config", "", "explicit config file path")
	flag.Parse()

	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting pipeline runner...")

	if *nsldsPath == "" || *sisPath == "" {
		zapLog.Fatal("both -nslds and -sis input files are required")
	}

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFromFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("pipeline-runner")
	defer obs.Shutdown()

	if cfg.App.MetricsAddress != "" {
		go func() {
			http.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.App.MetricsAddress, nil); err != nil {
				zapLog.Warn("metrics endpoint stopped", zap.Error(err))
			}
		}()
		zapLog.Info("Metrics endpoint listening", zap.String("address", cfg.App.MetricsAddress))
	}

	p, err := pipeline.New(cfg, log)
	if err != nil {
		zapLog.Fatal("pipeline init failed", zap.Error(err))
	}

	ctx := context.Background()
	start := time.Now()
	status := "success"

	if err := run(ctx, p, *nsldsPath, *sisPath, *outDir, *templateName, models.RiskTier(*tierFilter), *dispatchFlag, zapLog); err != nil {
		status = "failure"
		obs.RecordRun(ctx, status)
		obs.RecordRunDuration(ctx, time.Since(start), status)
		zapLog.Fatal("pipeline run failed", zap.Error(err))
	}

	obs.RecordRun(ctx, status)
	obs.RecordRunDuration(ctx, time.Since(start), status)
	zapLog.Info("Pipeline run complete", zap.Duration("elapsed", time.Since(start)))
}

func run(ctx context.Context, p *pipeline.Pipeline, nsldsPath, sisPath, outDir, templateName string, tier models.RiskTier, dispatch bool, zapLog *zap.Logger) error {
	session := p.NewSession()

	nslds, err := os.Open(nsldsPath)
	if err != nil {
		return err
	}
	defer nslds.Close()
	if err := session.IngestDelinquency(ctx, nslds); err != nil {
		return err
	}

	sis, err := os.Open(sisPath)
	if err != nil {
		return err
	}
	defer sis.Close()
	if err := session.IngestStudentRecords(ctx, sis); err != nil {
		return err
	}

	stats, err := session.Merge(ctx)
	if err != nil {
		return err
	}
	if stats.UnmatchedBorrowers > 0 || stats.UnmatchedStudents > 0 {
		zapLog.Warn("Unmatched records dropped by merge",
			zap.String("join_key", string(stats.JoinKey)),
			zap.Int("unmatched_borrowers", stats.UnmatchedBorrowers),
			zap.Int("unmatched_students", stats.UnmatchedStudents),
		)
	}

	if err := session.Classify(ctx); err != nil {
		return err
	}

	summaries, err := session.AnalyzeMajors(ctx)
	if err != nil {
		return err
	}
	for _, summary := range summaries {
		zapLog.Info("Major summary",
			zap.String("major", summary.Major),
			zap.Int("students", summary.StudentCount),
			zap.Float64("avg_risk", summary.AvgRiskScore),
			zap.String("tier", string(summary.RiskTier)),
		)
	}

	if err := session.ExportToDir(ctx, tier, outDir); err != nil {
		if !commonerrors.HasCode(err, commonerrors.ErrCodeEmptyResult) {
			return err
		}
		// zeroed sheets are already on disk
		zapLog.Warn("No records matched the export filter", zap.String("tier", string(tier)))
	}
	zapLog.Info("Sheets exported", zap.String("dir", outDir))

	if dispatch {
		report, err := session.SimulateDispatch(ctx, templateName)
		if err != nil {
			return err
		}
		zapLog.Info("Dispatch simulation",
			zap.String("batch_id", report.BatchID),
			zap.String("template", report.Template),
			zap.Int("sent", report.Sent),
			zap.Int("failed", report.Failed),
		)
	}

	return nil
}
