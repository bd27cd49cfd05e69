// Package config loads runner configuration from a YAML file, a .env file
// and environment variables, in that order of increasing precedence.
// Configuration is fixed at process start; changing budgets while
// executions are running is undefined behavior.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ormasoftchile/qago/pkg/record"
)

// Config is the process-wide runner configuration.
type Config struct {
	ReportTitle        string `yaml:"report_title"`
	ReportPath         string `yaml:"report_path"`
	TracePath          string `yaml:"trace_path"`
	MaxAttachmentBytes int    `yaml:"max_attachment_bytes"`
	MaskSensitiveData  bool   `yaml:"mask_sensitive_data"`
	Parallel           int    `yaml:"parallel"`
	EnvFile            string `yaml:"env_file"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ReportTitle:        "QA report",
		ReportPath:         "report.json",
		MaxAttachmentBytes: record.DefaultMaxAttachmentBytes,
		MaskSensitiveData:  true,
		Parallel:           1,
		EnvFile:            ".env",
	}
}

// Load reads the YAML file at path (missing file is not an error), loads the
// configured .env file, then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// run on defaults
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			dec := yaml.NewDecoder(bytes.NewReader(data))
			dec.KnownFields(true)
			if err := dec.Decode(&cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	// .env never overrides variables already set in the environment.
	if cfg.EnvFile != "" {
		if _, err := os.Stat(cfg.EnvFile); err == nil {
			if err := godotenv.Load(cfg.EnvFile); err != nil {
				return cfg, fmt.Errorf("load env file %s: %w", cfg.EnvFile, err)
			}
		}
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

// Apply pushes the process-wide settings into the recording layer. Call once
// at startup, before any execution begins.
func (c Config) Apply() {
	record.SetMaxAttachmentBytes(c.MaxAttachmentBytes)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("QAGO_REPORT_TITLE"); v != "" {
		cfg.ReportTitle = v
	}
	if v := os.Getenv("QAGO_REPORT_PATH"); v != "" {
		cfg.ReportPath = v
	}
	if v := os.Getenv("QAGO_TRACE_PATH"); v != "" {
		cfg.TracePath = v
	}
	if v := os.Getenv("QAGO_MAX_ATTACHMENT_BYTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxAttachmentBytes = n
		}
	}
	if v := os.Getenv("QAGO_MASK_SENSITIVE_DATA"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.MaskSensitiveData = b
		}
	}
	if v := os.Getenv("QAGO_PARALLEL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Parallel = n
		}
	}
}
