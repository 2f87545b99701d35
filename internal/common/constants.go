package common

// Environment variable keys
const (
	EnvConfigFile    = "CONFIG_FILE"
	EnvCostTP        = "COST_TRUE_POSITIVE"
	EnvCostFP        = "COST_FALSE_POSITIVE"
	EnvCostFN        = "COST_FALSE_NEGATIVE"
	EnvCostTN        = "COST_TRUE_NEGATIVE"
	EnvTrainPath     = "TRAIN_PATH"
	EnvTestPath      = "TEST_PATH"
	EnvLabelColumn   = "LABEL_COLUMN"
	EnvModels        = "MODELS"
	EnvLearningRate  = "LOGISTIC_LEARNING_RATE"
	EnvIterations    = "LOGISTIC_ITERATIONS"
	EnvL2            = "LOGISTIC_L2"
	EnvRemoteURL     = "REMOTE_MODEL_URL"
	EnvRemoteTimeout = "REMOTE_TIMEOUT"
	EnvConcurrency   = "CONCURRENCY"
	EnvResampleSteps = "RESAMPLE_STEPS"
	EnvOutputPath    = "OUTPUT_PATH"
	EnvMetricsFile   = "METRICS_FILE"
	EnvDataPath      = "DATA_PATH"
	EnvLogLevel      = "LOG_LEVEL"
)

// Model types
const (
	ModelTypeLogistic = "logistic"
	ModelTypePrior    = "prior"
	ModelTypeRemote   = "remote"
)

// Configuration defaults
const (
	DefaultCostTP        = 80.0
	DefaultCostFP        = -70.0
	DefaultCostFN        = -10.0
	DefaultCostTN        = 0.0
	DefaultLabelColumn   = "churn"
	DefaultModels        = "logistic,prior"
	DefaultLearningRate  = 0.1
	DefaultIterations    = 500
	DefaultL2            = 0.0
	DefaultConcurrency   = 1
	DefaultOutputPath    = "reports"
	DefaultLogLevel      = "info"
	DefaultRemoteTimeout = "30s"
)

// Validation constants
const (
	MaxConcurrency   = 64
	MinResampleSteps = 2
	MaxResampleSteps = 10000
	MaxLearningRate  = 10.0
	MaxIterations    = 1000000
)

// Common error messages
const (
	ErrMsgModelRequired    = "at least one model must be configured"
	ErrMsgDatasetsRequired = "train and test dataset paths are required"
	ErrMsgZeroCostBenefit  = "cost-benefit matrix must have at least one non-zero cell"
)
