package common

// Environment variable keys
const (
	EnvConfigFile         = "CONFIG_FILE"
	EnvEnvFile            = "ENV_FILE"
	EnvPort               = "PORT"
	EnvLOSModelPath       = "LOS_MODEL_PATH"
	EnvInsuranceModelPath = "INSURANCE_MODEL_PATH"
	EnvPatientModelPath   = "PATIENT_MODEL_PATH"
	EnvModelFormat        = "MODEL_FORMAT"
	EnvModelServiceURL    = "MODEL_SERVICE_URL"
	EnvPythonPath         = "PYTHON_PATH"
	EnvPredictTimeout     = "PREDICT_TIMEOUT"
	EnvReadTimeout        = "READ_TIMEOUT"
	EnvWriteTimeout       = "WRITE_TIMEOUT"
	EnvShutdownTimeout    = "SHUTDOWN_TIMEOUT"
	EnvLogLevel           = "LOG_LEVEL"
	EnvLogFormat          = "LOG_FORMAT"
)

// Configuration defaults
const (
	DefaultEnvFile            = ".env"
	DefaultPort               = 8501
	DefaultLOSModelPath       = "models/xgb_los_model.pkl"
	DefaultInsuranceModelPath = "models/xgb_Insurance_cost_model.pkl"
	DefaultPatientModelPath   = "models/xgb_Patient_cost_model.pkl"
	DefaultModelFormat        = "joblib"
	DefaultLogLevel           = "info"
	DefaultLogFormat          = "text"
)

// Timeout defaults in seconds
const (
	DefaultPredictTimeoutSec  = 10
	DefaultReadTimeoutSec     = 10
	DefaultWriteTimeoutSec    = 30
	DefaultShutdownTimeoutSec = 5
)
