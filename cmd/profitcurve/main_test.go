package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"churn-profit/internal/cfg"
	"churn-profit/internal/common"
	"churn-profit/internal/profit"
	"churn-profit/internal/report"
	"churn-profit/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const trainCSV = `tenure,charges,churn
1,90,1
2,85,1
3,80,1
20,30,0
24,25,0
30,20,0
4,70,1
28,35,0
`

const testCSV = `tenure,charges,churn
2,88,1
26,22,0
5,75,1
22,40,0
`

func writeDatasets(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	train := filepath.Join(dir, "train.csv")
	test := filepath.Join(dir, "test.csv")
	require.NoError(t, os.WriteFile(train, []byte(trainCSV), 0o644))
	require.NoError(t, os.WriteFile(test, []byte(testCSV), 0o644))
	return train, test
}

func testSettings(t *testing.T) cfg.Settings {
	t.Helper()
	train, test := writeDatasets(t)
	return cfg.Settings{
		CostBenefit: profit.NewCostBenefit(80, -70, -10, 0),
		TrainPath:   train,
		TestPath:    test,
		LabelColumn: "churn",
		Models: []cfg.ModelConfig{
			{Name: "logistic", Type: common.ModelTypeLogistic, LearningRate: 0.01, Iterations: 200},
			{Name: "prior", Type: common.ModelTypePrior},
		},
		Concurrency: 2,
		OutputPath:  filepath.Join(t.TempDir(), "reports"),
	}
}

func TestModelsFailedError(t *testing.T) {
	err := &ModelsFailedError{Failed: 3}
	assert.Equal(t, "all 3 models failed", err.Error())

	var target *ModelsFailedError
	assert.True(t, errors.As(errors.Join(err, errors.New("context")), &target))
}

func TestRunEvaluate_WritesReportsAndArchive(t *testing.T) {
	settings := testSettings(t)
	settings.DataPath = filepath.Join(t.TempDir(), "archive")
	settings.MetricsFile = filepath.Join(t.TempDir(), "metrics.prom")

	var out bytes.Buffer
	require.NoError(t, runEvaluate(context.Background(), settings, gridUniform, &out))

	for _, name := range []string{report.CurvesFile, report.SelectionFile, report.SummaryFile} {
		_, err := os.Stat(filepath.Join(settings.OutputPath, name))
		assert.NoError(t, err, "expected %s", name)
	}
	assert.Contains(t, out.String(), "PROFIT CURVE RESULTS")
	assert.Contains(t, out.String(), "Run ID:")

	metricsText, err := os.ReadFile(settings.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(metricsText), "profit_evaluations_total 2")

	store, err := storage.New(settings.DataPath)
	require.NoError(t, err)
	defer store.Close()
	runs, err := store.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.NotNil(t, runs[0].Best)
	assert.Len(t, runs[0].Models, 2)
	assert.Equal(t, 8, runs[0].TrainRows)
	assert.Equal(t, 4, runs[0].TestRows)
}

func TestRunEvaluate_Resampled(t *testing.T) {
	settings := testSettings(t)
	settings.ResampleSteps = 11

	require.NoError(t, runEvaluate(context.Background(), settings, gridUniform, &bytes.Buffer{}))

	data, err := os.ReadFile(filepath.Join(settings.OutputPath, report.CurvesFile))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 12, "header plus one row per grid threshold")
	assert.Equal(t, "threshold,logistic,prior", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "0,"))
	assert.True(t, strings.HasPrefix(lines[11], "1,"))

	settings.OutputPath = filepath.Join(t.TempDir(), "pct")
	require.NoError(t, runEvaluate(context.Background(), settings, gridPercentile, &bytes.Buffer{}))
}

func TestRunEvaluate_AllModelsFailed(t *testing.T) {
	settings := testSettings(t)
	settings.Models = []cfg.ModelConfig{
		{Name: "gbm", Type: common.ModelTypeRemote, URL: "http://127.0.0.1:1", Timeout: time.Second},
	}

	err := runEvaluate(context.Background(), settings, gridUniform, &bytes.Buffer{})
	var failed *ModelsFailedError
	require.True(t, errors.As(err, &failed))
	assert.Equal(t, 1, failed.Failed)

	data, readErr := os.ReadFile(filepath.Join(settings.OutputPath, report.SelectionFile))
	require.NoError(t, readErr)
	var decoded struct {
		Failures []struct {
			Model string `json:"model"`
			Stage string `json:"stage"`
		} `json:"failures"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded.Failures, 1)
	assert.Equal(t, "gbm", decoded.Failures[0].Model)
	assert.Equal(t, "fit", decoded.Failures[0].Stage)
}

func TestRunEvaluate_InputErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *cfg.Settings)
		grid   string
	}{
		{"missing datasets", func(s *cfg.Settings) { s.TestPath = "" }, gridUniform},
		{"unknown grid", func(s *cfg.Settings) {}, "random"},
		{"missing file", func(s *cfg.Settings) { s.TrainPath = filepath.Join(t.TempDir(), "nope.csv") }, gridUniform},
		{"wrong label column", func(s *cfg.Settings) { s.LabelColumn = "left" }, gridUniform},
		{"bad model", func(s *cfg.Settings) { s.Models = []cfg.ModelConfig{{Name: "x", Type: "svm"}} }, gridUniform},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := testSettings(t)
			tt.mutate(&settings)
			err := runEvaluate(context.Background(), settings, tt.grid, &bytes.Buffer{})
			assert.Error(t, err)
			var failed *ModelsFailedError
			assert.False(t, errors.As(err, &failed))
		})
	}
}

func TestRunsCommands(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.New(dir)
	require.NoError(t, err)
	rec := storage.RunRecord{
		ID:          "run-42",
		CreatedAt:   time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
		CostBenefit: profit.NewCostBenefit(80, -70, -10, 0),
		Best:        &storage.ModelRecord{Model: "logistic", Threshold: 0.4, Profit: 40},
		Models:      []storage.ModelRecord{{Model: "logistic", Threshold: 0.4, Profit: 40}},
	}
	require.NoError(t, store.StoreRun(rec))
	require.NoError(t, store.Close())

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"runs", "list", "--data-path", dir})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "run-42")
	assert.Contains(t, out.String(), "logistic")
	assert.Contains(t, out.String(), "0.4000")

	out.Reset()
	cmd = newRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"runs", "show", "run-42", "--data-path", dir})
	require.NoError(t, cmd.Execute())
	var shown storage.RunRecord
	require.NoError(t, json.Unmarshal(out.Bytes(), &shown))
	assert.Equal(t, "run-42", shown.ID)

	cmd = newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"runs", "show", "missing", "--data-path", dir})
	err = cmd.Execute()
	assert.True(t, errors.Is(err, storage.ErrRunNotFound))
}

func TestRunsList_NoArchive(t *testing.T) {
	t.Setenv(common.EnvDataPath, "")
	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"runs", "list"})
	assert.Error(t, cmd.Execute())
}

func TestPrintRuns_Empty(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printRuns(&out, nil))
	assert.Equal(t, "no runs archived\n", out.String())
}

func TestLocalModels(t *testing.T) {
	models, err := localModels([]cfg.ModelConfig{
		{Name: "lr", Type: common.ModelTypeLogistic, LearningRate: 0.1, Iterations: 10},
		{Name: "gbm", Type: common.ModelTypeRemote, URL: "http://x", Timeout: time.Second},
	})
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.Equal(t, "lr", models[0].ID)

	_, err = localModels([]cfg.ModelConfig{{Name: "gbm", Type: common.ModelTypeRemote}})
	assert.Error(t, err)
}

func TestEvaluateCommand_FlagOverrides(t *testing.T) {
	settings := cfg.Settings{TrainPath: "a.csv", Concurrency: 1, ResampleSteps: 0}
	cmd := newEvaluateCommand()
	require.NoError(t, cmd.ParseFlags([]string{"--train", "b.csv", "-c", "4", "--resample", "21"}))

	var opts evaluateOptions
	opts.train, _ = cmd.Flags().GetString("train")
	opts.concurrency, _ = cmd.Flags().GetInt("concurrency")
	opts.resample, _ = cmd.Flags().GetInt("resample")
	opts.apply(cmd, &settings)

	assert.Equal(t, "b.csv", settings.TrainPath)
	assert.Equal(t, 4, settings.Concurrency)
	assert.Equal(t, 21, settings.ResampleSteps)
	assert.Empty(t, settings.TestPath, "unset flags leave settings alone")
}
