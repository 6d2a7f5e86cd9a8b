// Package config reads the settings of hydrocouple from the environment and
// from an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds the settings.
type Config struct {
	LogLevel   string  `env:"HYDROCOUPLE_LOG_LEVEL" envDefault:"warn"`
	BackendDir string  `env:"HYDROCOUPLE_BACKEND_DIR"`
	DumpDir    string  `env:"HYDROCOUPLE_DUMP_DIR" envDefault:"."`
	RTol       float64 `env:"HYDROCOUPLE_RTOL" envDefault:"1e-5"`
	ATol       float64 `env:"HYDROCOUPLE_ATOL" envDefault:"1e-8"`
}

// Load reads the given .env files, or ./.env if none is given and it
// exists, then parses the environment. Variables already set win over the
// files.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); err == nil {
			files = []string{".env"}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}

	if len(files) > 0 {
		if err := godotenv.Load(files...); err != nil {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.RTol < 0 || cfg.ATol < 0 {
		return nil, fmt.Errorf("tolerances cannot be negative")
	}

	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	return cfg, nil
}

// Logger creates a logger writing to stderr at the configured level.
func (c *Config) Logger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.WarnLevel
	}

	logger.SetLevel(level)

	return logger
}
