package cfg

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"hospredict/internal/common"
	"hospredict/internal/ml"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Settings struct {
	Port int

	ModelFormat        ml.Format
	LOSModelPath       string
	InsuranceModelPath string
	PatientModelPath   string
	ModelServiceURL    string
	PythonPath         string
	PredictTimeout     time.Duration

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	LogLevel  string
	LogFormat string
}

type ConfigFile struct {
	Server struct {
		Port            int    `yaml:"port"`
		ReadTimeout     string `yaml:"readTimeout"`
		WriteTimeout    string `yaml:"writeTimeout"`
		ShutdownTimeout string `yaml:"shutdownTimeout"`
	} `yaml:"server"`

	Models struct {
		Format         string `yaml:"format"`
		LOSPath        string `yaml:"losPath"`
		InsurancePath  string `yaml:"insurancePath"`
		PatientPath    string `yaml:"patientPath"`
		ServiceURL     string `yaml:"serviceURL"`
		PythonPath     string `yaml:"pythonPath"`
		PredictTimeout string `yaml:"predictTimeout"`
	} `yaml:"models"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

// Load reads settings from CONFIG_FILE when set, otherwise from the
// environment. A .env file (or ENV_FILE) is applied first when present;
// variables already set in the process win.
func Load() (Settings, error) {
	if err := loadDotEnv(getEnvOrDefault(common.EnvEnvFile, common.DefaultEnvFile)); err != nil {
		return Settings{}, err
	}

	if configPath := os.Getenv(common.EnvConfigFile); configPath != "" {
		return loadFromYAML(configPath)
	}
	return loadFromEnv()
}

func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load %s: %w", path, err)
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

	format, err := ml.ParseFormat(getEnvOrDefault(common.EnvModelFormat, orDefault(config.Models.Format, common.DefaultModelFormat)))
	if err != nil {
		return Settings{}, err
	}

	settings := Settings{
		Port:               getIntFromEnvOrConfig(common.EnvPort, config.Server.Port, common.DefaultPort),
		ModelFormat:        format,
		LOSModelPath:       getEnvOrDefault(common.EnvLOSModelPath, orDefault(config.Models.LOSPath, common.DefaultLOSModelPath)),
		InsuranceModelPath: getEnvOrDefault(common.EnvInsuranceModelPath, orDefault(config.Models.InsurancePath, common.DefaultInsuranceModelPath)),
		PatientModelPath:   getEnvOrDefault(common.EnvPatientModelPath, orDefault(config.Models.PatientPath, common.DefaultPatientModelPath)),
		ModelServiceURL:    getEnvOrDefault(common.EnvModelServiceURL, config.Models.ServiceURL),
		PythonPath:         getEnvOrDefault(common.EnvPythonPath, config.Models.PythonPath),
		PredictTimeout:     getDurationFromEnvOrConfig(common.EnvPredictTimeout, config.Models.PredictTimeout, common.DefaultPredictTimeoutSec*time.Second),
		ReadTimeout:        getDurationFromEnvOrConfig(common.EnvReadTimeout, config.Server.ReadTimeout, common.DefaultReadTimeoutSec*time.Second),
		WriteTimeout:       getDurationFromEnvOrConfig(common.EnvWriteTimeout, config.Server.WriteTimeout, common.DefaultWriteTimeoutSec*time.Second),
		ShutdownTimeout:    getDurationFromEnvOrConfig(common.EnvShutdownTimeout, config.Server.ShutdownTimeout, common.DefaultShutdownTimeoutSec*time.Second),
		LogLevel:           getEnvOrDefault(common.EnvLogLevel, orDefault(config.Logging.Level, common.DefaultLogLevel)),
		LogFormat:          getEnvOrDefault(common.EnvLogFormat, orDefault(config.Logging.Format, common.DefaultLogFormat)),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func loadFromEnv() (Settings, error) {
	format, err := ml.ParseFormat(getEnvOrDefault(common.EnvModelFormat, common.DefaultModelFormat))
	if err != nil {
		return Settings{}, err
	}

	settings := Settings{
		Port:               getIntOrDefault(common.EnvPort, common.DefaultPort),
		ModelFormat:        format,
		LOSModelPath:       getEnvOrDefault(common.EnvLOSModelPath, common.DefaultLOSModelPath),
		InsuranceModelPath: getEnvOrDefault(common.EnvInsuranceModelPath, common.DefaultInsuranceModelPath),
		PatientModelPath:   getEnvOrDefault(common.EnvPatientModelPath, common.DefaultPatientModelPath),
		ModelServiceURL:    os.Getenv(common.EnvModelServiceURL),
		PythonPath:         os.Getenv(common.EnvPythonPath), // optional, discovered when empty
		PredictTimeout:     getDurationOrDefault(common.EnvPredictTimeout, common.DefaultPredictTimeoutSec*time.Second),
		ReadTimeout:        getDurationOrDefault(common.EnvReadTimeout, common.DefaultReadTimeoutSec*time.Second),
		WriteTimeout:       getDurationOrDefault(common.EnvWriteTimeout, common.DefaultWriteTimeoutSec*time.Second),
		ShutdownTimeout:    getDurationOrDefault(common.EnvShutdownTimeout, common.DefaultShutdownTimeoutSec*time.Second),
		LogLevel:           getEnvOrDefault(common.EnvLogLevel, common.DefaultLogLevel),
		LogFormat:          getEnvOrDefault(common.EnvLogFormat, common.DefaultLogFormat),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

// LoadConfig converts the model settings for ml.LoadModels.
func (s Settings) LoadConfig() ml.LoadConfig {
	return ml.LoadConfig{
		Format:            s.ModelFormat,
		LOSPath:           s.LOSModelPath,
		InsuranceCostPath: s.InsuranceModelPath,
		PatientCostPath:   s.PatientModelPath,
		ServiceURL:        s.ModelServiceURL,
		PythonPath:        s.PythonPath,
		Timeout:           s.PredictTimeout,
	}
}

// Addr is the listen address for the HTTP server.
func (s Settings) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
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

func getDurationFromEnvOrConfig(key, configValue string, defaultValue time.Duration) time.Duration {
	if env := os.Getenv(key); env != "" {
		if d, err := time.ParseDuration(env); err == nil {
			return d
		}
	}
	if d, err := time.ParseDuration(configValue); err == nil {
		return d
	}
	return defaultValue
}

// validateSettings performs range checks on configuration values
func validateSettings(settings *Settings) error {
	if settings.Port < 1 || settings.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", settings.Port)
	}

	switch settings.ModelFormat {
	case ml.FormatRemote:
		if settings.ModelServiceURL == "" {
			return fmt.Errorf("model service URL is required for the remote model format")
		}
		u, err := url.Parse(settings.ModelServiceURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid model service URL %q", settings.ModelServiceURL)
		}
	default:
		if settings.LOSModelPath == "" || settings.InsuranceModelPath == "" || settings.PatientModelPath == "" {
			return fmt.Errorf("all three model paths are required")
		}
	}

	if settings.PredictTimeout < 100*time.Millisecond || settings.PredictTimeout > 5*time.Minute {
		return fmt.Errorf("predict timeout must be between 100ms and 5m, got %v", settings.PredictTimeout)
	}
	if settings.ReadTimeout < time.Second || settings.ReadTimeout > 5*time.Minute {
		return fmt.Errorf("read timeout must be between 1s and 5m, got %v", settings.ReadTimeout)
	}
	if settings.WriteTimeout < time.Second || settings.WriteTimeout > 5*time.Minute {
		return fmt.Errorf("write timeout must be between 1s and 5m, got %v", settings.WriteTimeout)
	}
	if settings.WriteTimeout < settings.PredictTimeout {
		return fmt.Errorf("write timeout (%v) must not be shorter than predict timeout (%v)", settings.WriteTimeout, settings.PredictTimeout)
	}
	if settings.ShutdownTimeout <= 0 || settings.ShutdownTimeout > time.Minute {
		return fmt.Errorf("shutdown timeout must be between 0 and 1m, got %v", settings.ShutdownTimeout)
	}

	switch strings.ToLower(settings.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("log format must be text or json, got %q", settings.LogFormat)
	}
	switch strings.ToLower(settings.LogLevel) {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("unknown log level %q", settings.LogLevel)
	}

	return nil
}
