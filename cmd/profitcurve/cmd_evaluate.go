package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"churn-profit/internal/cfg"
	"churn-profit/internal/dataset"
	"churn-profit/internal/metrics"
	"churn-profit/internal/ml"
	"churn-profit/internal/report"
	"churn-profit/internal/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	gridUniform    = "uniform"
	gridPercentile = "percentile"
)

type evaluateOptions struct {
	train       string
	test        string
	output      string
	dataPath    string
	metricsFile string
	concurrency int
	resample    int
	grid        string
}

func newEvaluateCommand() *cobra.Command {
	var opts evaluateOptions

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate configured models and select the most profitable",
		Long: `Fit every configured model on the training CSV, score the test CSV and build
one profit curve per model. Writes profit_curves.csv, selection.json and
summary.txt to the output directory.

The joint curve table uses the first successful model's thresholds as its
axis. Pass --resample N to place every model on a shared grid of N
thresholds instead; this changes the table layout.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := cfg.Load()
			if err != nil {
				return err
			}
			opts.apply(cmd, &settings)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runEvaluate(ctx, settings, opts.grid, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.train, "train", "", "Training CSV (overrides TRAIN_PATH)")
	cmd.Flags().StringVar(&opts.test, "test", "", "Test CSV (overrides TEST_PATH)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Report directory (overrides OUTPUT_PATH)")
	cmd.Flags().StringVar(&opts.dataPath, "data-path", "", "Archive the run in this directory (overrides DATA_PATH)")
	cmd.Flags().StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file (overrides METRICS_FILE)")
	cmd.Flags().IntVarP(&opts.concurrency, "concurrency", "c", 0, "Models evaluated in parallel (overrides CONCURRENCY)")
	cmd.Flags().IntVar(&opts.resample, "resample", 0, "Resample curves onto a shared grid with this many thresholds (overrides RESAMPLE_STEPS)")
	cmd.Flags().StringVar(&opts.grid, "grid", gridUniform, "Resampling grid: uniform or percentile")

	return cmd
}

func (o evaluateOptions) apply(cmd *cobra.Command, s *cfg.Settings) {
	flags := cmd.Flags()
	if flags.Changed("train") {
		s.TrainPath = o.train
	}
	if flags.Changed("test") {
		s.TestPath = o.test
	}
	if flags.Changed("output") {
		s.OutputPath = o.output
	}
	if flags.Changed("data-path") {
		s.DataPath = o.dataPath
	}
	if flags.Changed("metrics-file") {
		s.MetricsFile = o.metricsFile
	}
	if flags.Changed("concurrency") {
		s.Concurrency = o.concurrency
	}
	if flags.Changed("resample") {
		s.ResampleSteps = o.resample
	}
}

// runEvaluate performs one full evaluation run and writes its reports.
func runEvaluate(ctx context.Context, settings cfg.Settings, grid string, stdout io.Writer) error {
	if err := settings.RequireDatasets(); err != nil {
		return err
	}
	if grid != gridUniform && grid != gridPercentile {
		return fmt.Errorf("unknown grid %q: use %s or %s", grid, gridUniform, gridPercentile)
	}
	if settings.ResampleSteps == 1 || settings.ResampleSteps < 0 {
		return fmt.Errorf("resample needs at least 2 thresholds, got %d", settings.ResampleSteps)
	}

	train, err := dataset.LoadCSV(settings.TrainPath, settings.LabelColumn)
	if err != nil {
		return fmt.Errorf("failed to load training set: %w", err)
	}
	test, err := dataset.LoadCSV(settings.TestPath, settings.LabelColumn)
	if err != nil {
		return fmt.Errorf("failed to load test set: %w", err)
	}

	models, err := ml.FromConfigs(settings.Models)
	if err != nil {
		return err
	}

	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	selector := ml.NewSelector(ml.NewEvaluator(metrics.NewWrapper(m)), settings.Concurrency)

	log.Info().
		Strs("models", settings.ModelNames()).
		Int("train_rows", train.Len()).
		Int("test_rows", test.Len()).
		Int("concurrency", settings.Concurrency).
		Msg("Starting evaluation")

	selection, selErr := selector.SelectBest(ctx, models, settings.CostBenefit, train, test)
	if selection == nil {
		return selErr
	}

	table, err := buildTable(selection.Results, settings.ResampleSteps, grid)
	if err != nil {
		return err
	}

	reporter := report.NewReporter(selection, table, settings.CostBenefit, settings.OutputPath)
	if err := reporter.GenerateReport(); err != nil {
		return fmt.Errorf("failed to generate reports: %w", err)
	}
	reporter.PrintSummary(stdout)

	if settings.DataPath != "" {
		if err := archiveRun(settings, selection, train.Len(), test.Len(), stdout); err != nil {
			return err
		}
	}

	if settings.MetricsFile != "" {
		if err := m.WriteTextfile(settings.MetricsFile); err != nil {
			return err
		}
		log.Info().Str("file", settings.MetricsFile).Msg("Metrics written")
	}

	if errors.Is(selErr, ml.ErrAllModelsFailed) {
		return &ModelsFailedError{Failed: len(selection.Failures)}
	}
	if selErr != nil {
		return selErr
	}

	log.Info().Str("output", settings.OutputPath).Msg("Evaluation completed successfully")
	return nil
}

func buildTable(results []ml.ModelResult, steps int, grid string) (report.Table, error) {
	if len(results) == 0 {
		return report.Table{}, nil
	}
	if steps == 0 {
		return report.Aggregate(results)
	}

	var (
		thresholds []float64
		err        error
	)
	switch grid {
	case gridPercentile:
		thresholds, err = report.PercentileGrid(report.PooledThresholds(results), steps)
	default:
		thresholds, err = report.UniformGrid(steps)
	}
	if err != nil {
		return report.Table{}, err
	}

	log.Info().Str("grid", grid).Int("thresholds", len(thresholds)).Msg("Resampling curves onto a shared grid")
	return report.AggregateOnGrid(results, thresholds)
}

func archiveRun(settings cfg.Settings, selection *ml.Selection, trainRows, testRows int, stdout io.Writer) error {
	if err := os.MkdirAll(settings.DataPath, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	store, err := storage.New(settings.DataPath)
	if err != nil {
		return err
	}
	defer store.Close()

	rec := storage.NewRunRecord(selection, settings.CostBenefit, trainRows, testRows)
	if err := store.StoreRun(rec); err != nil {
		return fmt.Errorf("failed to archive run: %w", err)
	}

	log.Info().Str("run", rec.ID).Str("path", settings.DataPath).Msg("Run archived")
	fmt.Fprintf(stdout, "Run ID: %s\n", rec.ID)
	return nil
}
