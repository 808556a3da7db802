package common

import (
	"fmt"
	"os"

	"github.com/ducminhle1904/trend-rsi-backtest/internal/logger"
	"github.com/ducminhle1904/trend-rsi-backtest/pkg/config"
)

// LoadConfig loads the env file, then the config file with environment
// overrides, then applies the shared flag overrides.
func LoadConfig(flags *CommonFlags) (*config.AppConfig, error) {
	if err := config.LoadEnvFile(*flags.EnvFile); err != nil {
		return nil, fmt.Errorf("load %s: %w", *flags.EnvFile, err)
	}
	cfg, err := config.Load(*flags.ConfigFile)
	if err != nil {
		return nil, err
	}
	if *flags.LogLevel != "" {
		cfg.LogLevel = *flags.LogLevel
	}
	return cfg, nil
}

// NewLogger opens the session logger configured in cfg.
func NewLogger(cfg *config.AppConfig, session string) (*logger.Logger, error) {
	return logger.New(logger.Options{
		Dir:     cfg.LogDir,
		Session: session,
		Level:   cfg.LogLevel,
		Console: os.Stderr,
	})
}
