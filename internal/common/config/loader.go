// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Default values applied when neither the config file nor the environment sets a key.
const (
	DefaultServerAddress  = ":8080"
	DefaultSourceEncoding = "latin-1"
	DefaultRegion         = "us-east-1"
	DefaultModelID        = "anthropic.claude-3-haiku-20240307-v1:0"
	DefaultMaxTokens      = 500
	DefaultAttribution    = "Prepared by Esteban Rojano | Data Architecture Demo"
)

// knownEncodings mirrors records.LookupEncoding; config cannot import the
// pipeline packages.
var knownEncodings = map[string]bool{
	"latin-1":      true,
	"latin1":       true,
	"iso-8859-1":   true,
	"windows-1252": true,
	"cp1252":       true,
	"utf-8":        true,
	"utf8":         true,
}

func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // ignore error if not found

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()

	// AutomaticEnv only resolves keys viper already knows about.
	v.SetDefault("app.name", "sector-insights")
	v.SetDefault("app.version", "dev")
	v.SetDefault("app.environment", "development")
	v.SetDefault("server.address", DefaultServerAddress)
	v.SetDefault("source.bucket", "")
	v.SetDefault("source.key", "")
	v.SetDefault("source.region", "")
	v.SetDefault("source.encoding", DefaultSourceEncoding)
	v.SetDefault("inference.region", DefaultRegion)
	v.SetDefault("inference.model_id", DefaultModelID)
	v.SetDefault("inference.max_tokens", DefaultMaxTokens)
	v.SetDefault("report.attribution", DefaultAttribution)
	v.SetDefault("camunda.enabled", false)
	v.SetDefault("camunda.broker_address", "")
	v.SetDefault("camunda.max_jobs_active", 5)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")

	// SOURCE_BUCKET, INFERENCE_MODEL_ID, ...
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			if expanded := os.ExpandEnv(strVal); expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig honors the bare variable names the service was first
// deployed with.
func overrideEmptyConfig(cfg *Config) {
	if cfg.Source.Bucket == "" {
		if val := os.Getenv("BUCKET_NAME"); val != "" {
			cfg.Source.Bucket = val
		}
	}
	if cfg.Source.Key == "" {
		if val := os.Getenv("FILE_NAME"); val != "" {
			cfg.Source.Key = val
		}
	}
	if cfg.Source.Region == "" {
		if val := os.Getenv("AWS_REGION"); val != "" {
			cfg.Source.Region = val
		}
	}
}

// applyDefaults covers values that were explicitly set to their zero value.
func applyDefaults(cfg *Config) {
	if cfg.Server.Address == "" {
		cfg.Server.Address = DefaultServerAddress
	}
	if cfg.Source.Encoding == "" {
		cfg.Source.Encoding = DefaultSourceEncoding
	}
	cfg.Source.Encoding = strings.ToLower(strings.TrimSpace(cfg.Source.Encoding))
	if cfg.Inference.Region == "" {
		cfg.Inference.Region = DefaultRegion
	}
	if cfg.Inference.ModelID == "" {
		cfg.Inference.ModelID = DefaultModelID
	}
	if cfg.Inference.MaxTokens == 0 {
		cfg.Inference.MaxTokens = DefaultMaxTokens
	}
	if cfg.Report.Attribution == "" {
		cfg.Report.Attribution = DefaultAttribution
	}
	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 5
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

// validateConfig rejects structurally invalid values. Missing source location
// is checked per request instead; see SourceConfig.Validate.
func validateConfig(cfg *Config) error {
	if err := cfg.Logging.validate(); err != nil {
		return err
	}
	if cfg.Inference.MaxTokens < 0 {
		return fmt.Errorf("inference.max_tokens must be positive")
	}
	if !knownEncodings[cfg.Source.Encoding] {
		return fmt.Errorf("source.encoding %q is not supported", cfg.Source.Encoding)
	}
	if cfg.Camunda.Enabled && cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required when camunda.enabled is true")
	}
	return nil
}
