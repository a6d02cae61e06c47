package main

import (
	"os"

	"hospredict/internal/cfg"
	"hospredict/internal/common"
	"hospredict/internal/exitcode"
	"hospredict/internal/logging"

	"github.com/spf13/cobra"
)

var (
	configFile string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:           "hospredict",
	Short:         "Hospital length-of-stay and cost predictor",
	Long:          "Predicts hospital length of stay and insurance, patient and total cost for cardiac intervention patients using pre-trained regression models.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "YAML config file (or set CONFIG_FILE)")
	pf.StringVar(&logLevel, "log-level", "", "Log level: trace, debug, info, warn, error (overrides LOG_LEVEL)")
	pf.StringVar(&logFormat, "log-format", "", "Log format: text or json (overrides LOG_FORMAT)")
}

// loadSettings resolves configuration and sets up logging. Flags win over
// the environment and the config file.
func loadSettings() (cfg.Settings, error) {
	if configFile != "" {
		if err := os.Setenv(common.EnvConfigFile, configFile); err != nil {
			return cfg.Settings{}, withCode(exitcode.UsageError, err)
		}
	}

	s, err := cfg.Load()
	if err != nil {
		return cfg.Settings{}, withCode(exitcode.UsageError, err)
	}
	if logLevel != "" {
		s.LogLevel = logLevel
	}
	if logFormat != "" {
		s.LogFormat = logFormat
	}

	logging.Setup(s.LogLevel, s.LogFormat)
	return s, nil
}
