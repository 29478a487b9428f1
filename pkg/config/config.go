package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const ConfigFileName = ".gh-mcp.yml"

// EnvToken is the environment variable holding the GitHub credential.
const EnvToken = "GITHUB_TOKEN"

// Repository identifies the target owner/repo namespace for an operation.
type Repository struct {
	Owner string `yaml:"owner"`
	Repo  string `yaml:"repo"`
}

// FullName returns the repository in "owner/repo" format.
func (r Repository) FullName() string {
	return r.Owner + "/" + r.Repo
}

// IsZero reports whether no repository has been configured.
func (r Repository) IsZero() bool {
	return r.Owner == "" && r.Repo == ""
}

// Validate checks that both owner and repo are present and well formed.
func (r Repository) Validate() error {
	if r.Owner == "" || r.Repo == "" {
		return fmt.Errorf("repository requires both owner and repo (got %q)", r.FullName())
	}
	if strings.Contains(r.Owner, "/") || strings.Contains(r.Repo, "/") {
		return fmt.Errorf("invalid repository %q: owner and repo must not contain '/'", r.FullName())
	}
	return nil
}

// Config holds server settings loaded from the config file and environment.
type Config struct {
	Repository Repository `yaml:"repository"`
	Workers    int        `yaml:"workers"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Workers: 5,
	}
}

// Load reads configuration from .gh-mcp.yml (searched upward from the working
// directory) and applies environment overrides. A missing file is not an
// error; environment variables alone are enough to run.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if path := findConfigFile(); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file at %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Environment variables take precedence over the file.
	if owner := os.Getenv("GITHUB_OWNER"); owner != "" {
		cfg.Repository.Owner = owner
	}
	if repo := os.Getenv("GITHUB_REPO"); repo != "" {
		cfg.Repository.Repo = repo
	}

	if cfg.Workers < 1 {
		cfg.Workers = DefaultConfig().Workers
	}

	return cfg, nil
}

// Save writes the configuration to the given path.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Token returns the GitHub credential from the environment.
func Token() string {
	return os.Getenv(EnvToken)
}

// RequireToken checks that the credential is present. It does not contact
// GitHub; validity is established on first API use.
func RequireToken() error {
	if Token() == "" {
		return fmt.Errorf("%s environment variable not set", EnvToken)
	}
	return nil
}

// findConfigFile searches for the config file in current and parent directories.
func findConfigFile() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}
