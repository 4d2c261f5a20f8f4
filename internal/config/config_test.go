package config

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func validConfig() *Config {
	cfg := &Config{
		LocalDir: "/repo",
		UseCache: true,
	}
	applyDefaults(cfg)
	ApplyPatternDefaults(cfg)
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Expected valid config, got: %v", err)
	}
}

func TestValidate_BothSourcesRejected(t *testing.T) {
	cfg := validConfig()
	cfg.RepoURL = "https://github.com/example/project"

	if err := cfg.Validate(); err == nil {
		t.Error("Expected error when both repo URL and local dir are set")
	}
}

func TestValidate_NeitherSourceRejected(t *testing.T) {
	cfg := validConfig()
	cfg.LocalDir = ""

	if err := cfg.Validate(); err == nil {
		t.Error("Expected error when neither repo URL nor local dir is set")
	}
}

func TestValidate_FieldBounds(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero max file size", func(c *Config) { c.MaxFileSize = 0 }},
		{"empty language", func(c *Config) { c.Language = "" }},
		{"zero max abstractions", func(c *Config) { c.MaxAbstractions = 0 }},
		{"zero max tokens", func(c *Config) { c.MaxTokens = 0 }},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }},
		{"excessive retries", func(c *Config) { c.MaxRetries = 11 }},
		{"no include patterns", func(c *Config) { c.IncludePatterns = nil }},
		{"missing base URL", func(c *Config) { c.Model.BaseURL = "" }},
		{"missing model name", func(c *Config) { c.Model.ModelName = "" }},
		{"temperature too high", func(c *Config) { c.Model.Temperature = 2.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("Expected validation error for %s", tt.name)
			}
		})
	}
}

func TestApplyPatternDefaults_CodeMode(t *testing.T) {
	cfg := &Config{LocalDir: "/repo"}
	ApplyPatternDefaults(cfg)

	if !slices.Contains(cfg.IncludePatterns, "*.go") {
		t.Error("Expected code mode include patterns to contain *.go")
	}
	if !slices.Contains(cfg.IncludePatterns, "*.py") {
		t.Error("Expected code mode include patterns to contain *.py")
	}
	if !slices.Contains(cfg.ExcludePatterns, "node_modules/*") {
		t.Error("Expected exclude patterns to contain node_modules/*")
	}
}

func TestApplyPatternDefaults_TextOnlyMode(t *testing.T) {
	cfg := &Config{LocalDir: "/repo", TextOnly: true}
	ApplyPatternDefaults(cfg)

	if !slices.Contains(cfg.IncludePatterns, "*.md") {
		t.Error("Expected text-only include patterns to contain *.md")
	}
	if !slices.Contains(cfg.IncludePatterns, "*.txt") {
		t.Error("Expected text-only include patterns to contain *.txt")
	}
	if slices.Contains(cfg.IncludePatterns, "*.go") {
		t.Error("Text-only include patterns must not contain *.go")
	}
}

func TestApplyPatternDefaults_UserPatternsPreserved(t *testing.T) {
	cfg := &Config{
		LocalDir:        "/repo",
		TextOnly:        true,
		IncludePatterns: []string{"*.proto"},
	}
	ApplyPatternDefaults(cfg)

	if len(cfg.IncludePatterns) != 1 || cfg.IncludePatterns[0] != "*.proto" {
		t.Errorf("Expected user include patterns preserved, got %v", cfg.IncludePatterns)
	}
	if len(cfg.ExcludePatterns) == 0 {
		t.Error("Expected exclude pattern defaults to still apply")
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.OutputDir != DefaultOutputDir {
		t.Errorf("Expected default output dir %q, got %q", DefaultOutputDir, cfg.OutputDir)
	}
	if cfg.MaxFileSize != DefaultMaxFileSize {
		t.Errorf("Expected default max file size %d, got %d", DefaultMaxFileSize, cfg.MaxFileSize)
	}
	if cfg.Language != DefaultLanguage {
		t.Errorf("Expected default language %q, got %q", DefaultLanguage, cfg.Language)
	}
	if cfg.MaxAbstractions != DefaultMaxAbstractions {
		t.Errorf("Expected default max abstractions %d, got %d", DefaultMaxAbstractions, cfg.MaxAbstractions)
	}
	if cfg.MaxTokens != DefaultMaxTokens {
		t.Errorf("Expected default max tokens %d, got %d", DefaultMaxTokens, cfg.MaxTokens)
	}
	if !cfg.UseCache {
		t.Error("Expected caching enabled by default")
	}
	if cfg.Model.Temperature != DefaultTemperature {
		t.Errorf("Expected default temperature %v, got %v", DefaultTemperature, cfg.Model.Temperature)
	}
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("Load failed for a missing config file: %v", err)
	}

	if cfg.OutputDir != DefaultOutputDir {
		t.Errorf("Expected default output dir %q, got %q", DefaultOutputDir, cfg.OutputDir)
	}
	if !cfg.UseCache {
		t.Error("Expected caching enabled by default")
	}

	// Flags-only usage: layering the source locator afterwards is enough
	// to pass validation.
	cfg.LocalDir = "/repo"
	ApplyPatternDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected flags-only configuration to validate, got %v", err)
	}
}

func TestLoad_ExplicitZeroTemperaturePreserved(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
local_dir = "/repo"

[model]
temperature = 0.0
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Model.Temperature != 0 {
		t.Errorf("Expected explicit temperature 0 to be kept, got %v", cfg.Model.Temperature)
	}
}

func TestLoad_TOMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
local_dir = "/repo"
language = "spanish"
max_abstractions = 5

[model]
base_url = "https://example.com/v1"
model_name = "test-model"
temperature = 0.2
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.LocalDir != "/repo" {
		t.Errorf("Expected local dir /repo, got %q", cfg.LocalDir)
	}
	if cfg.Language != "spanish" {
		t.Errorf("Expected language spanish, got %q", cfg.Language)
	}
	if cfg.MaxAbstractions != 5 {
		t.Errorf("Expected 5 max abstractions, got %d", cfg.MaxAbstractions)
	}
	if cfg.Model.ModelName != "test-model" {
		t.Errorf("Expected model name test-model, got %q", cfg.Model.ModelName)
	}
	// Defaults still fill the gaps.
	if cfg.Model.RateLimitPerMinute != 60 {
		t.Errorf("Expected default rate limit 60, got %d", cfg.Model.RateLimitPerMinute)
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("local_dir = [broken"), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Expected parse error for invalid TOML")
	}
}

func TestLoadSecrets(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "gh-token")
	t.Setenv("LLM_API_KEY", "llm-key")
	t.Setenv("OPENAI_API_KEY", "openai-key")

	secrets := LoadSecrets()
	if secrets.GitHubToken != "gh-token" {
		t.Errorf("Expected gh-token, got %q", secrets.GitHubToken)
	}
	// LLM_API_KEY takes precedence over OPENAI_API_KEY.
	if secrets.APIKey != "llm-key" {
		t.Errorf("Expected llm-key, got %q", secrets.APIKey)
	}
}

func TestLoadSecrets_OpenAIFallback(t *testing.T) {
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "openai-key")

	secrets := LoadSecrets()
	if secrets.APIKey != "openai-key" {
		t.Errorf("Expected openai-key fallback, got %q", secrets.APIKey)
	}
}
