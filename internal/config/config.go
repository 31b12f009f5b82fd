// Package config loads the extraction configuration recognized by §6,
// using github.com/spf13/viper exactly the way the teacher's
// internal/config/config.go does: a nested struct with mapstructure tags,
// env var binding, and "file not found" treated as fine rather than fatal.
// Only cmd/ imports this package — the core itself (pkg/langextract and
// internal/langextract/*) never depends on viper, keeping config loading an
// external collaborator per spec.md §1.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// ExtractConfig mirrors every recognized key enumerated in §6.
type ExtractConfig struct {
	MaxCharBuffer             int     `mapstructure:"max_char_buffer"`
	BatchLength               int     `mapstructure:"batch_length"`
	MaxWorkers                int     `mapstructure:"max_workers"`
	Temperature               float64 `mapstructure:"temperature"`
	FormatType                string  `mapstructure:"format_type"`
	FenceOutput               *bool   `mapstructure:"fence_output"`
	Debug                     bool    `mapstructure:"debug"`
	ExtractionPasses          int     `mapstructure:"extraction_passes"`
	EnableMultipass           bool    `mapstructure:"enable_multipass"`
	MultipassMinExtractions   int     `mapstructure:"multipass_min_extractions"`
	MultipassQualityThreshold float64 `mapstructure:"multipass_quality_threshold"`
	AdditionalContext         string  `mapstructure:"additional_context"`
	ModelID                   string  `mapstructure:"model_id"`

	Provider struct {
		APIKey  string `mapstructure:"api_key"`
		BaseURL string `mapstructure:"base_url"`
	} `mapstructure:"provider"`
}

// Default returns the defaults documented in §6.
func Default() ExtractConfig {
	return ExtractConfig{
		MaxCharBuffer:             1000,
		BatchLength:               10,
		MaxWorkers:                10,
		Temperature:               0.5,
		FormatType:                "json",
		ExtractionPasses:          1,
		MultipassMinExtractions:   1,
		MultipassQualityThreshold: 0.3,
	}
}

// Load reads config.yaml from the current directory (if present) and env
// vars, merged over Default().
func Load() (ExtractConfig, error) {
	cfg := Default()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()
	viper.BindEnv("provider.api_key", "OPENAI_API_KEY")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return cfg, fmt.Errorf("config: reading config file: %w", err)
		}
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, nil
}
