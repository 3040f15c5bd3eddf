package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadFromFile_Valid(t *testing.T) {
	path := writeFile(t, "config.yaml", `
output: markdown
narrative:
  enabled: true
  model: gpt-4o
  timeout: 3s
  max_retries: 0
`)
	c := Default()
	if err := c.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if c.Output != "markdown" {
		t.Errorf("output = %q, want markdown", c.Output)
	}
	if !c.Narrative.Enabled || c.Narrative.Model != "gpt-4o" {
		t.Errorf("narrative = %+v", c.Narrative)
	}
	if c.Narrative.Timeout != 3*time.Second {
		t.Errorf("timeout = %v, want 3s", c.Narrative.Timeout)
	}
	if c.Narrative.MaxRetries != 0 {
		t.Errorf("max retries = %d, want explicit 0", c.Narrative.MaxRetries)
	}
	if c.Narrative.RequestsPerMinute != 30 {
		t.Errorf("requests per minute = %d, want default 30 kept", c.Narrative.RequestsPerMinute)
	}
}

func TestLoadFromFile_BadTimeout(t *testing.T) {
	path := writeFile(t, "config.yaml", "narrative:\n  timeout: soon\n")
	c := Default()
	if err := c.LoadFromFile(path); err == nil {
		t.Fatal("expected error for bad timeout")
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	c := Default()
	if err := c.LoadFromFile("/nonexistent/config.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadEnv_FillsEmptyNarrativeSettings(t *testing.T) {
	t.Setenv(EnvAPIKey, "sk-test")
	t.Setenv(EnvModel, "env-model")
	c := Default()
	c.Narrative.Model = "flag-model"
	if err := c.LoadEnv(); err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if c.Narrative.APIKey != "sk-test" {
		t.Errorf("api key = %q", c.Narrative.APIKey)
	}
	if c.Narrative.Model != "flag-model" {
		t.Errorf("model = %q, flag value should win", c.Narrative.Model)
	}
}

func TestValidate(t *testing.T) {
	claims := writeFile(t, "claims.json", "[]")

	c := Default()
	if err := c.Validate(); err == nil {
		t.Error("expected error without --claims")
	}

	c.ClaimsPath = claims
	if err := c.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}

	c.Output = "html"
	if err := c.Validate(); err == nil {
		t.Error("expected error for unknown output format")
	}

	c.Output = "json"
	c.Narrative.Enabled = true
	if err := c.Validate(); err != nil {
		t.Errorf("narrative without api key should still validate: %v", err)
	}
	c.Narrative.Timeout = 0
	if err := c.Validate(); err == nil {
		t.Error("expected error for zero narrative timeout")
	}
	c.Narrative.Timeout = 10 * time.Second
	c.Narrative.APIKey = "sk-test"
	if err := c.Validate(); err != nil {
		t.Errorf("Validate with api key: %v", err)
	}

	c.ReferencePath = "/nonexistent/reference.yaml"
	if err := c.Validate(); err == nil {
		t.Error("expected error for missing reference file")
	}
}
