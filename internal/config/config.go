package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"taskflow/internal/util"
)

// Suggestion configures the external inference collaborator used for
// AI-assisted task creation. An empty APIKey disables the remote path and
// the local generator is used directly.
type Suggestion struct {
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Config holds the server settings. Values come from, in increasing
// precedence: built-in defaults, the optional YAML file, environment
// variables.
type Config struct {
	Addr        string     `yaml:"addr"`
	DBPath      string     `yaml:"db_path"`
	DataDir     string     `yaml:"data_dir"`
	FrontendURL string     `yaml:"frontend_url"`
	AdminEmail  string     `yaml:"admin_email"`
	Suggestion  Suggestion `yaml:"suggestion"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:        ":8080",
		DBPath:      "data/taskflow.db",
		DataDir:     "data",
		FrontendURL: "http://localhost:3000",
		Suggestion: Suggestion{
			Model:          "mistralai/Mixtral-8x7B-Instruct-v0.1",
			TimeoutSeconds: 15,
		},
	}
}

// Load reads the YAML file at path (missing file is not an error when path
// is empty) and applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// Optional file; fall through to env overrides.
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	cfg.Addr = util.EnvOrDefault("TASKFLOW_ADDR", cfg.Addr)
	cfg.DBPath = util.EnvOrDefault("TASKFLOW_DB_PATH", cfg.DBPath)
	cfg.DataDir = util.EnvOrDefault("TASKFLOW_DATA_DIR", cfg.DataDir)
	cfg.FrontendURL = util.EnvOrDefault("TASKFLOW_FRONTEND_URL", cfg.FrontendURL)
	cfg.AdminEmail = util.EnvOrDefault("TASKFLOW_ADMIN_EMAIL", cfg.AdminEmail)
	cfg.Suggestion.APIKey = util.EnvOrDefault("HUGGINGFACE_API_KEY", cfg.Suggestion.APIKey)
	cfg.Suggestion.Model = util.EnvOrDefault("HUGGINGFACE_MODEL", cfg.Suggestion.Model)
	if raw := os.Getenv("TASKFLOW_SUGGESTION_TIMEOUT"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("parse TASKFLOW_SUGGESTION_TIMEOUT: %w", err)
		}
		cfg.Suggestion.TimeoutSeconds = seconds
	}

	return cfg, nil
}
