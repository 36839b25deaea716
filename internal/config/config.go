// Package config loads the storyforge configuration file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full configuration, read from YAML with flag overrides
// applied on top by the CLI.
type Config struct {
	// external services
	TTSEndpoint        string `yaml:"tts_endpoint"`
	TranscriptEndpoint string `yaml:"transcript_endpoint"`

	// API keys, usually left empty here in favor of environment variables
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	GeminiAPIKey    string `yaml:"gemini_api_key"`
	OpenAIAPIKey    string `yaml:"openai_api_key"`

	// rendering
	QualityPreset string `yaml:"quality_preset"`
	MaxWorkers    int    `yaml:"max_workers"`
	ScratchDir    string `yaml:"scratch_dir"`

	// transcription and speech
	WhisperModel string `yaml:"whisper_model"`
	Voice        string `yaml:"voice"`

	// rewriting
	RewriteProvider string `yaml:"rewrite_provider"`
	RewriteModel    string `yaml:"rewrite_model"`
	TargetLanguage  string `yaml:"target_language"`
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		TTSEndpoint:        "http://localhost:8880/v1/audio/speech",
		TranscriptEndpoint: "https://tactiq-apps-prod.tactiq.io/transcript",
		QualityPreset:      "high_quality",
		MaxWorkers:         4,
		WhisperModel:       "whisper-1",
		Voice:              "af_sky",
		RewriteProvider:    "anthropic",
		TargetLanguage:     "Spanish",
	}
}

// Load reads a YAML config file over the defaults. A missing path returns
// the defaults unchanged; a present but unreadable file is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// APIKey resolves a key from config or the given environment variable,
// preferring the environment.
func (c Config) APIKey(configured, envVar string) string {
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	return configured
}
