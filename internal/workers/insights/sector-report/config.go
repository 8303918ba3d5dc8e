package sectorreport

import (
	"sector-insights/internal/common/config"
)

type Config struct {
	Source      config.SourceConfig
	ModelID     string
	MaxTokens   int
	Attribution string
}

// ConfigFrom projects the application config onto what the pipeline reads.
func ConfigFrom(cfg *config.Config) *Config {
	return &Config{
		Source:      cfg.Source,
		ModelID:     cfg.Inference.ModelID,
		MaxTokens:   cfg.Inference.MaxTokens,
		Attribution: cfg.Report.Attribution,
	}
}

func DefaultConfig() *Config {
	return &Config{
		Source:      config.SourceConfig{Encoding: config.DefaultSourceEncoding},
		ModelID:     config.DefaultModelID,
		MaxTokens:   config.DefaultMaxTokens,
		Attribution: config.DefaultAttribution,
	}
}
