package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Output formats understood by the report renderer.
var OutputFormats = []string{"table", "markdown", "json"}

// Environment variables read by LoadEnv.
const (
	EnvAPIKey  = "OPENAI_API_KEY"
	EnvModel   = "CLAIMAUDIT_NARRATIVE_MODEL"
	EnvBaseURL = "CLAIMAUDIT_NARRATIVE_BASE_URL"
)

// Config holds all runtime configuration for a claimaudit run.
type Config struct {
	ClaimsPath    string
	ReferencePath string
	LogFormat     string // "text" or "json"
	LogLevel      string
	Output        string // one of OutputFormats
	OutputFile    string
	Narrative     NarrativeConfig
}

// NarrativeConfig controls the optional external narrative generator.
type NarrativeConfig struct {
	Enabled           bool
	APIKey            string
	Model             string
	BaseURL           string
	Timeout           time.Duration
	RequestsPerMinute int
	MaxRetries        int
}

// yamlConfig is the on-disk YAML structure.
type yamlConfig struct {
	ReferenceFile string `yaml:"reference_file"`
	Output        string `yaml:"output"`
	LogLevel      string `yaml:"log_level"`
	Narrative     struct {
		Enabled           *bool  `yaml:"enabled"`
		Model             string `yaml:"model"`
		BaseURL           string `yaml:"base_url"`
		Timeout           string `yaml:"timeout"`
		RequestsPerMinute int    `yaml:"requests_per_minute"`
		MaxRetries        *int   `yaml:"max_retries"`
	} `yaml:"narrative"`
}

// Default returns the configuration used when no flags or files override it.
func Default() Config {
	return Config{
		LogFormat: "text",
		LogLevel:  "info",
		Output:    "table",
		Narrative: NarrativeConfig{
			Timeout:           10 * time.Second,
			RequestsPerMinute: 30,
			MaxRetries:        2,
		},
	}
}

// LoadFromFile reads a YAML config file and merges its values into Config.
// Only keys present in the file override current values.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	if yc.ReferenceFile != "" {
		c.ReferencePath = yc.ReferenceFile
	}
	if yc.Output != "" {
		c.Output = yc.Output
	}
	if yc.LogLevel != "" {
		c.LogLevel = yc.LogLevel
	}
	n := yc.Narrative
	if n.Enabled != nil {
		c.Narrative.Enabled = *n.Enabled
	}
	if n.Model != "" {
		c.Narrative.Model = n.Model
	}
	if n.BaseURL != "" {
		c.Narrative.BaseURL = n.BaseURL
	}
	if n.Timeout != "" {
		d, err := time.ParseDuration(n.Timeout)
		if err != nil {
			return fmt.Errorf("parse narrative.timeout: %w", err)
		}
		c.Narrative.Timeout = d
	}
	if n.RequestsPerMinute != 0 {
		c.Narrative.RequestsPerMinute = n.RequestsPerMinute
	}
	if n.MaxRetries != nil {
		c.Narrative.MaxRetries = *n.MaxRetries
	}
	return nil
}

// LoadEnv reads a .env file from the working directory when present, then
// fills narrative settings that are still empty from the environment.
func (c *Config) LoadEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	if c.Narrative.APIKey == "" {
		c.Narrative.APIKey = os.Getenv(EnvAPIKey)
	}
	if c.Narrative.Model == "" {
		c.Narrative.Model = os.Getenv(EnvModel)
	}
	if c.Narrative.BaseURL == "" {
		c.Narrative.BaseURL = os.Getenv(EnvBaseURL)
	}
	return nil
}

// Validate checks required fields and returns an error if the config is invalid.
func (c *Config) Validate() error {
	if c.ClaimsPath == "" {
		return fmt.Errorf("--claims is required")
	}
	if _, err := os.Stat(c.ClaimsPath); err != nil {
		return fmt.Errorf("claims file not accessible: %w", err)
	}
	return c.ValidateOutput()
}

// ValidateOutput checks the report format and narrative settings. A missing
// API key is not an error: the run falls back to the template narrative.
func (c *Config) ValidateOutput() error {
	valid := false
	for _, f := range OutputFormats {
		if c.Output == f {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("unknown output format %q (want one of %v)", c.Output, OutputFormats)
	}
	if c.ReferencePath != "" {
		if _, err := os.Stat(c.ReferencePath); err != nil {
			return fmt.Errorf("reference file not accessible: %w", err)
		}
	}
	if c.Narrative.Enabled {
		if c.Narrative.Timeout <= 0 {
			return fmt.Errorf("narrative timeout must be positive, got %s", c.Narrative.Timeout)
		}
		if c.Narrative.MaxRetries < 0 {
			return fmt.Errorf("narrative max retries must be >= 0, got %d", c.Narrative.MaxRetries)
		}
	}
	return nil
}
