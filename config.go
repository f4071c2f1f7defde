package imagegen

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds the environment driven configuration shared by the CLI and
// the web editor.
type Config struct {
	// FalKey authenticates against the fal API. Required for real calls.
	FalKey string `env:"FAL_KEY"`

	// SourceImageBase is prepended to short source-image references.
	SourceImageBase string `env:"SOURCE_IMAGE_URL" envDefault:"https://example.com/k/"`
	// SafetensorsBase is prepended to short LoRA references.
	SafetensorsBase string `env:"SAFETENSORS_URL" envDefault:"https://example.com/j/"`

	// Directories
	AssetsDir  string `env:"IMAGEGEN_ASSETS_DIR" envDefault:"assets"`
	PromptsDir string `env:"IMAGEGEN_PROMPTS_DIR" envDefault:"prompts"`
	StylesDir  string `env:"IMAGEGEN_STYLES_DIR" envDefault:"styles"`

	// Web editor
	HTTPPort     int    `env:"IMAGEEDIT_PORT" envDefault:"8321"`
	StartupModel string `env:"IMAGEEDIT_STARTUP_MODEL" envDefault:"schnell"`

	// SaveCleanCopy mirrors asset deletions into the metadata-stripped
	// copy directory maintained next to AssetsDir.
	SaveCleanCopy bool `env:"SAVE_CLEAN_COPY" envDefault:"false"`

	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
}

// LoadConfig reads .env (silently skipped when absent) and parses the
// environment into a Config.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	cfg.SourceImageBase = strings.TrimSpace(cfg.SourceImageBase)
	cfg.SafetensorsBase = strings.TrimSpace(cfg.SafetensorsBase)
	return cfg, nil
}

// Addr returns the listen address for the web editor.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// NewLogger builds the process logger from the configured level, with a
// console writer outside production.
func NewLogger(cfg *Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.Environment == "production" {
		logger = zerolog.New(os.Stderr)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	return logger.Level(level).With().Timestamp().Logger()
}
