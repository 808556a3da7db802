package common

import (
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"
)

// CommonFlags are the flags every command accepts.
type CommonFlags struct {
	ConfigFile *string
	EnvFile    *string
	LogLevel   *string
	Version    *bool
}

// RegisterCommonFlags registers the shared flags on fs.
func RegisterCommonFlags(fs *flag.FlagSet) *CommonFlags {
	return &CommonFlags{
		ConfigFile: fs.String("config", "", "Config file (yaml, json or toml); defaults apply when empty"),
		EnvFile:    fs.String("env", ".env", "Environment file with API credentials"),
		LogLevel:   fs.String("log-level", "", "Override the configured log level (debug, info, warn, error)"),
		Version:    fs.Bool("version", false, "Show version information"),
	}
}

// FlagValidator collects flag errors so they can be reported together.
type FlagValidator struct {
	errors []string
}

func NewFlagValidator() *FlagValidator {
	return &FlagValidator{errors: make([]string, 0)}
}

// ValidateInt validates an int flag value
func (v *FlagValidator) ValidateInt(name string, value int, min, max int) *FlagValidator {
	if value < min || value > max {
		v.errors = append(v.errors, fmt.Sprintf("%s must be between %d and %d, got: %d", name, min, max, value))
	}
	return v
}

// ValidateChoice accepts an empty value or one of choices.
func (v *FlagValidator) ValidateChoice(name, value string, choices []string) *FlagValidator {
	if value == "" {
		return v
	}
	for _, choice := range choices {
		if value == choice {
			return v
		}
	}
	v.errors = append(v.errors, fmt.Sprintf("%s must be one of [%s], got: %s", name, strings.Join(choices, ", "), value))
	return v
}

// ValidateNonNegativeDuration rejects negative durations.
func (v *FlagValidator) ValidateNonNegativeDuration(name string, value time.Duration) *FlagValidator {
	if value < 0 {
		v.errors = append(v.errors, fmt.Sprintf("%s must not be negative, got: %s", name, value))
	}
	return v
}

func (v *FlagValidator) HasErrors() bool {
	return len(v.errors) > 0
}

// GetError joins every collected error, or returns nil.
func (v *FlagValidator) GetError() error {
	if !v.HasErrors() {
		return nil
	}
	return errors.New("flag validation failed:\n  - " + strings.Join(v.errors, "\n  - "))
}
