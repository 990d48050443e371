package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/anthropics/capstan/internal/domain"
)

// LinterConfig defines one linter provider binary.
type LinterConfig struct {
	Command    string   `json:"command"`
	Args       []string `json:"args"`
	Extensions []string `json:"extensions"`
}

// ModelConfig defines the completion backend.
type ModelConfig struct {
	BaseURL   string `json:"base_url"`
	Model     string `json:"model"`
	APIKeyEnv string `json:"api_key_env"`
}

// WebConfig defines the search provider backend.
type WebConfig struct {
	Endpoint     string `json:"endpoint"`
	APIKeyEnv    string `json:"api_key_env"`
	CacheSize    int    `json:"cache_size"`
	ResultLimit  int    `json:"result_limit"`
	SummaryChars int    `json:"summary_chars"`
}

// Config holds the runtime's configuration.
type Config struct {
	DBPath            string                  `json:"db_path"`
	Workspace         string                  `json:"workspace"`
	StateDir          string                  `json:"state_dir"`
	ListenAddr        string                  `json:"listen_addr"`
	DefaultMode       string                  `json:"default_mode"`
	MaxIterations     int                     `json:"max_iterations"`
	CommandTimeoutSec int                     `json:"command_timeout_sec"`
	Model             ModelConfig             `json:"model"`
	Web               WebConfig               `json:"web"`
	Linters           map[string]LinterConfig `json:"linters"`
}

// Load reads a JSON config file, applies defaults, and validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config JSON: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = ":9810"
	}
	if c.DefaultMode == "" {
		c.DefaultMode = string(domain.ModeAsk)
	}
	if c.MaxIterations == 0 {
		c.MaxIterations = 25
	}
	if c.CommandTimeoutSec == 0 {
		c.CommandTimeoutSec = 60
	}
	if c.StateDir == "" && c.Workspace != "" {
		c.StateDir = c.Workspace + "/.capstan"
	}
	if c.Model.Model == "" {
		c.Model.Model = "gpt-4o"
	}
	if c.Model.APIKeyEnv == "" {
		c.Model.APIKeyEnv = "OPENAI_API_KEY"
	}
	if c.Web.CacheSize == 0 {
		c.Web.CacheSize = 128
	}
	if c.Web.ResultLimit == 0 {
		c.Web.ResultLimit = 5
	}
	if c.Web.SummaryChars == 0 {
		c.Web.SummaryChars = 512
	}
}

func (c *Config) validate() error {
	var problems []string

	if c.DBPath == "" {
		problems = append(problems, "db_path is required")
	}
	if c.Workspace == "" {
		problems = append(problems, "workspace is required")
	}
	if !domain.ValidMode(domain.Mode(c.DefaultMode)) {
		problems = append(problems, fmt.Sprintf("default_mode %q is not ask or agent", c.DefaultMode))
	}
	if c.MaxIterations < 1 {
		problems = append(problems, "max_iterations must be positive")
	}

	if len(problems) > 0 {
		return &domain.RuntimeError{
			Code:    domain.ErrConfigInvalid.Code,
			Message: fmt.Sprintf("%s: %v", domain.ErrConfigInvalid.Message, problems),
		}
	}
	return nil
}
