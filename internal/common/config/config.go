// internal/common/config/config.go
package config

import (
	"fmt"

	"sector-insights/internal/common/errors"
)

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Source    SourceConfig    `mapstructure:"source"`
	Inference InferenceConfig `mapstructure:"inference"`
	Report    ReportConfig    `mapstructure:"report"`
	Camunda   CamundaConfig   `mapstructure:"camunda"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// SourceConfig locates the delimited dataset in object storage.
type SourceConfig struct {
	Bucket   string `mapstructure:"bucket"`
	Key      string `mapstructure:"key"`
	Region   string `mapstructure:"region"`
	Encoding string `mapstructure:"encoding"`
}

// Validate reports the first missing required setting. It is checked per
// request, not at load time, so a misconfigured process still answers health
// checks and returns a configuration failure for pipeline calls.
func (s SourceConfig) Validate() error {
	var missing []string
	if s.Bucket == "" {
		missing = append(missing, "BUCKET_NAME")
	}
	if s.Key == "" {
		missing = append(missing, "FILE_NAME")
	}
	if len(missing) > 0 {
		return errors.NewConfigurationError(missing)
	}
	return nil
}

// InferenceConfig holds settings for the hosted text-generation model.
type InferenceConfig struct {
	Region    string `mapstructure:"region"`
	ModelID   string `mapstructure:"model_id"`
	MaxTokens int    `mapstructure:"max_tokens"`
}

// ReportConfig holds static text stamped into every report.
type ReportConfig struct {
	Attribution string `mapstructure:"attribution"`
}

type CamundaConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	BrokerAddress string `mapstructure:"broker_address"`
	MaxJobsActive int    `mapstructure:"max_jobs_active"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

func (l LoggingConfig) validate() error {
	switch l.Level {
	case "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", l.Level)
}
