package cfg

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"churn-profit/internal/common"
	"churn-profit/internal/profit"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type ConfigFile struct {
	CostBenefit struct {
		TruePositive  *float64 `yaml:"truePositive"`
		FalsePositive *float64 `yaml:"falsePositive"`
		FalseNegative *float64 `yaml:"falseNegative"`
		TrueNegative  *float64 `yaml:"trueNegative"`
	} `yaml:"costBenefit"`

	Data struct {
		Train       string `yaml:"train"`
		Test        string `yaml:"test"`
		LabelColumn string `yaml:"labelColumn"`
	} `yaml:"data"`

	Models []ModelEntry `yaml:"models"`

	Evaluation struct {
		Concurrency   int `yaml:"concurrency"`
		ResampleSteps int `yaml:"resampleSteps"`
	} `yaml:"evaluation"`

	Output struct {
		Path        string `yaml:"path"`
		MetricsFile string `yaml:"metricsFile"`
	} `yaml:"output"`

	System struct {
		DataPath string `yaml:"dataPath"`
		LogLevel string `yaml:"logLevel"`
	} `yaml:"system"`
}

type ModelEntry struct {
	Name         string  `yaml:"name"`
	Type         string  `yaml:"type"`
	LearningRate float64 `yaml:"learningRate"`
	Iterations   int     `yaml:"iterations"`
	L2           float64 `yaml:"l2"`
	URL          string  `yaml:"url"`
	Timeout      string  `yaml:"timeout"`
}

// Load resolves settings. A .env file in the working directory is applied
// first when present; then CONFIG_FILE is read if set, otherwise the
// environment alone is used.
func Load() (Settings, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Settings{}, fmt.Errorf("failed to load .env: %w", err)
	}

	if configPath := os.Getenv(common.EnvConfigFile); configPath != "" {
		return loadFromYAML(configPath)
	}
	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	models, err := modelsFromEntries(config.Models)
	if err != nil {
		return Settings{}, err
	}
	if env := os.Getenv(common.EnvModels); env != "" {
		if models, err = modelsFromEnv(env); err != nil {
			return Settings{}, err
		}
	}

	cb := config.CostBenefit
	settings := Settings{
		CostBenefit: profit.NewCostBenefit(
			getFloatFromEnvOrPtr(common.EnvCostTP, cb.TruePositive, common.DefaultCostTP),
			getFloatFromEnvOrPtr(common.EnvCostFP, cb.FalsePositive, common.DefaultCostFP),
			getFloatFromEnvOrPtr(common.EnvCostFN, cb.FalseNegative, common.DefaultCostFN),
			getFloatFromEnvOrPtr(common.EnvCostTN, cb.TrueNegative, common.DefaultCostTN),
		),
		TrainPath:     getEnvOrDefault(common.EnvTrainPath, config.Data.Train),
		TestPath:      getEnvOrDefault(common.EnvTestPath, config.Data.Test),
		LabelColumn:   getEnvOrDefault(common.EnvLabelColumn, orDefault(config.Data.LabelColumn, common.DefaultLabelColumn)),
		Models:        models,
		Concurrency:   getIntFromEnvOrConfig(common.EnvConcurrency, config.Evaluation.Concurrency, common.DefaultConcurrency),
		ResampleSteps: getIntFromEnvOrConfig(common.EnvResampleSteps, config.Evaluation.ResampleSteps, 0),
		OutputPath:    getEnvOrDefault(common.EnvOutputPath, orDefault(config.Output.Path, common.DefaultOutputPath)),
		MetricsFile:   getEnvOrDefault(common.EnvMetricsFile, config.Output.MetricsFile),
		DataPath:      getEnvOrDefault(common.EnvDataPath, config.System.DataPath),
		LogLevel:      getEnvOrDefault(common.EnvLogLevel, orDefault(config.System.LogLevel, common.DefaultLogLevel)),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func loadFromEnv() (Settings, error) {
	models, err := modelsFromEnv(getEnvOrDefault(common.EnvModels, common.DefaultModels))
	if err != nil {
		return Settings{}, err
	}

	settings := Settings{
		CostBenefit: profit.NewCostBenefit(
			getFloatOrDefault(common.EnvCostTP, common.DefaultCostTP),
			getFloatOrDefault(common.EnvCostFP, common.DefaultCostFP),
			getFloatOrDefault(common.EnvCostFN, common.DefaultCostFN),
			getFloatOrDefault(common.EnvCostTN, common.DefaultCostTN),
		),
		TrainPath:     os.Getenv(common.EnvTrainPath),
		TestPath:      os.Getenv(common.EnvTestPath),
		LabelColumn:   getEnvOrDefault(common.EnvLabelColumn, common.DefaultLabelColumn),
		Models:        models,
		Concurrency:   getIntOrDefault(common.EnvConcurrency, common.DefaultConcurrency),
		ResampleSteps: getIntOrDefault(common.EnvResampleSteps, 0),
		OutputPath:    getEnvOrDefault(common.EnvOutputPath, common.DefaultOutputPath),
		MetricsFile:   os.Getenv(common.EnvMetricsFile),
		DataPath:      os.Getenv(common.EnvDataPath), // optional
		LogLevel:      getEnvOrDefault(common.EnvLogLevel, common.DefaultLogLevel),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func modelsFromEntries(entries []ModelEntry) ([]ModelConfig, error) {
	models := make([]ModelConfig, 0, len(entries))
	for _, e := range entries {
		timeout, err := time.ParseDuration(orDefault(e.Timeout, common.DefaultRemoteTimeout))
		if err != nil {
			return nil, fmt.Errorf("model %s: invalid timeout %q: %w", e.Name, e.Timeout, err)
		}
		mc := ModelConfig{
			Name:         orDefault(e.Name, e.Type),
			Type:         strings.ToLower(strings.TrimSpace(e.Type)),
			LearningRate: e.LearningRate,
			Iterations:   e.Iterations,
			L2:           e.L2,
			URL:          e.URL,
			Timeout:      timeout,
		}
		applyModelDefaults(&mc)
		models = append(models, mc)
	}
	return models, nil
}

// modelsFromEnv turns a comma-separated list of model types into configs
// named after their type. Hyper-parameters come from the LOGISTIC_* and
// REMOTE_* variables.
func modelsFromEnv(list string) ([]ModelConfig, error) {
	timeout, err := time.ParseDuration(getEnvOrDefault(common.EnvRemoteTimeout, common.DefaultRemoteTimeout))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", common.EnvRemoteTimeout, err)
	}

	var models []ModelConfig
	for _, t := range splitOrDefault(list, nil) {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		mc := ModelConfig{
			Name:         t,
			Type:         t,
			LearningRate: getFloatOrDefault(common.EnvLearningRate, common.DefaultLearningRate),
			Iterations:   getIntOrDefault(common.EnvIterations, common.DefaultIterations),
			L2:           getFloatOrDefault(common.EnvL2, common.DefaultL2),
			URL:          os.Getenv(common.EnvRemoteURL),
			Timeout:      timeout,
		}
		models = append(models, mc)
	}
	return models, nil
}

func applyModelDefaults(mc *ModelConfig) {
	if mc.Type != common.ModelTypeLogistic {
		return
	}
	if mc.LearningRate == 0 {
		mc.LearningRate = common.DefaultLearningRate
	}
	if mc.Iterations == 0 {
		mc.Iterations = common.DefaultIterations
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getIntFromEnvOrConfig(key string, configValue, defaultValue int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

// getFloatFromEnvOrPtr distinguishes an explicit zero in the file from an
// absent value, since zero is a legitimate payoff.
func getFloatFromEnvOrPtr(key string, configValue *float64, defaultValue float64) float64 {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseFloat(env, 64); err == nil {
			return val
		}
	}
	if configValue != nil {
		return *configValue
	}
	return defaultValue
}

func splitOrDefault(v string, def []string) []string {
	if v == "" {
		return def
	}
	return strings.Split(v, ",")
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// validateSettings performs comprehensive validation of configuration values
func validateSettings(settings *Settings) error {
	nonZero := false
	for i := range settings.CostBenefit {
		for j, v := range settings.CostBenefit[i] {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("cost-benefit cell [%d][%d] must be finite, got %v", i, j, v)
			}
			if v != 0 {
				nonZero = true
			}
		}
	}
	if !nonZero {
		return errors.New(common.ErrMsgZeroCostBenefit)
	}

	if strings.TrimSpace(settings.LabelColumn) == "" {
		return fmt.Errorf("label column cannot be empty")
	}

	if settings.Concurrency < 1 || settings.Concurrency > common.MaxConcurrency {
		return fmt.Errorf("concurrency must be between 1 and %d, got %d", common.MaxConcurrency, settings.Concurrency)
	}
	if settings.ResampleSteps != 0 &&
		(settings.ResampleSteps < common.MinResampleSteps || settings.ResampleSteps > common.MaxResampleSteps) {
		return fmt.Errorf("resample steps must be 0 (off) or between %d and %d, got %d",
			common.MinResampleSteps, common.MaxResampleSteps, settings.ResampleSteps)
	}
	if settings.OutputPath == "" {
		return fmt.Errorf("output path cannot be empty")
	}

	if len(settings.Models) == 0 {
		return errors.New(common.ErrMsgModelRequired)
	}
	seen := make(map[string]bool, len(settings.Models))
	for _, m := range settings.Models {
		if m.Name == "" {
			return fmt.Errorf("model name cannot be empty")
		}
		if seen[m.Name] {
			return fmt.Errorf("duplicate model name %q", m.Name)
		}
		seen[m.Name] = true

		switch m.Type {
		case common.ModelTypeLogistic:
			if m.LearningRate <= 0 || m.LearningRate > common.MaxLearningRate {
				return fmt.Errorf("model %s: learning rate must be between 0 and %v, got %f", m.Name, common.MaxLearningRate, m.LearningRate)
			}
			if m.Iterations < 1 || m.Iterations > common.MaxIterations {
				return fmt.Errorf("model %s: iterations must be between 1 and %d, got %d", m.Name, common.MaxIterations, m.Iterations)
			}
			if m.L2 < 0 {
				return fmt.Errorf("model %s: l2 must be non-negative, got %f", m.Name, m.L2)
			}
		case common.ModelTypePrior:
		case common.ModelTypeRemote:
			if m.URL == "" {
				return fmt.Errorf("model %s: remote models need a url", m.Name)
			}
			if m.Timeout < time.Second || m.Timeout > 10*time.Minute {
				return fmt.Errorf("model %s: timeout must be between 1s and 10m, got %v", m.Name, m.Timeout)
			}
		default:
			return fmt.Errorf("model %s: unknown type %q", m.Name, m.Type)
		}
	}

	return nil
}
