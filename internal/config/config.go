package config

import (
	"fmt"
	"os"
)

// Config represents the complete run configuration. It is assembled from
// an optional TOML file, environment variables, and CLI flags, then frozen:
// nothing mutates it once the pipeline starts.
type Config struct {
	// Source locator: exactly one of RepoURL and LocalDir must be set.
	RepoURL  string `toml:"repo_url"`
	LocalDir string `toml:"local_dir"`

	ProjectName     string   `toml:"project_name"` // Derived from the locator when empty
	OutputDir       string   `toml:"output_dir"`
	IncludePatterns []string `toml:"include_patterns"`
	ExcludePatterns []string `toml:"exclude_patterns"`
	MaxFileSize     int64    `toml:"max_file_size"`
	Language        string   `toml:"language"`
	MaxAbstractions int      `toml:"max_abstractions"`
	TextOnly        bool     `toml:"text_only"`
	MaxTokens       int      `toml:"max_tokens"` // Advisory per-request token budget

	CacheFile string `toml:"cache_file"`
	LogDir    string `toml:"log_dir"`

	// UseCache is CLI-controlled (--no-cache); defaults to true.
	UseCache bool `toml:"-"`

	// MaxRetries enables the retry decorator around the backend client.
	// Zero keeps the core's no-retry contract.
	MaxRetries int `toml:"max_retries"`

	Model ModelConfig `toml:"model"`
}

// ModelConfig represents the model backend endpoint settings.
type ModelConfig struct {
	BaseURL            string  `toml:"base_url"`
	ModelName          string  `toml:"model_name"`
	Temperature        float64 `toml:"temperature"`
	MaxOutputTokens    int     `toml:"max_output_tokens"`
	RateLimitPerMinute int     `toml:"rate_limit_per_minute"`
	HTTPTimeoutSeconds int     `toml:"http_timeout_seconds"` // 0 = no timeout
}

// Secrets holds sensitive credentials loaded from environment variables.
type Secrets struct {
	APIKey      string
	GitHubToken string
}

// Validate checks the assembled configuration. Configuration errors are
// fatal and must be surfaced before any stage executes.
func (c *Config) Validate() error {
	if c.RepoURL != "" && c.LocalDir != "" {
		return fmt.Errorf("repo URL and local directory are mutually exclusive, got both")
	}
	if c.RepoURL == "" && c.LocalDir == "" {
		return fmt.Errorf("either a repo URL or a local directory is required")
	}

	if c.OutputDir == "" {
		return fmt.Errorf("output directory is required")
	}
	if c.MaxFileSize < 1 {
		return fmt.Errorf("max file size must be at least 1 byte (got %d)", c.MaxFileSize)
	}
	if c.Language == "" {
		return fmt.Errorf("language is required")
	}
	if c.MaxAbstractions < 1 {
		return fmt.Errorf("max abstractions must be at least 1 (got %d)", c.MaxAbstractions)
	}
	if c.MaxTokens < 1 {
		return fmt.Errorf("max tokens must be at least 1 (got %d)", c.MaxTokens)
	}
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("max retries must be between 0 and 10 (got %d)", c.MaxRetries)
	}
	if len(c.IncludePatterns) == 0 {
		return fmt.Errorf("at least one include pattern is required")
	}

	return validateModelConfig(c.Model)
}

func validateModelConfig(mc ModelConfig) error {
	if mc.BaseURL == "" {
		return fmt.Errorf("model.base_url is required")
	}
	if mc.ModelName == "" {
		return fmt.Errorf("model.model_name is required")
	}
	if mc.Temperature < 0 || mc.Temperature > 2 {
		return fmt.Errorf("model.temperature must be between 0 and 2 (got %.2f)", mc.Temperature)
	}
	if mc.MaxOutputTokens < 1 {
		return fmt.Errorf("model.max_output_tokens must be at least 1 (got %d)", mc.MaxOutputTokens)
	}
	if mc.RateLimitPerMinute < 1 {
		return fmt.Errorf("model.rate_limit_per_minute must be at least 1 (got %d)", mc.RateLimitPerMinute)
	}
	if mc.HTTPTimeoutSeconds < 0 {
		return fmt.Errorf("model.http_timeout_seconds must not be negative (got %d)", mc.HTTPTimeoutSeconds)
	}
	return nil
}

// LoadSecrets loads sensitive credentials from environment variables.
func LoadSecrets() *Secrets {
	secrets := &Secrets{
		GitHubToken: os.Getenv("GITHUB_TOKEN"),
	}

	if key := os.Getenv("LLM_API_KEY"); key != "" {
		secrets.APIKey = key
	} else if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		secrets.APIKey = key
	}

	return secrets
}
