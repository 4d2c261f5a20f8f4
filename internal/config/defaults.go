package config

import (
	"os"

	"github.com/lamim/tutorialforge/internal/calllog"
	"github.com/lamim/tutorialforge/internal/llmcache"
)

// DefaultIncludePatterns covers common source and build files for code
// analysis mode.
var DefaultIncludePatterns = []string{
	"*.py", "*.js", "*.jsx", "*.ts", "*.tsx", "*.go", "*.java", "*.pyi", "*.pyx",
	"*.c", "*.cc", "*.cpp", "*.h", "*.md", "*.rst", "Dockerfile",
	"Makefile", "*.yaml", "*.yml",
}

// TextOnlyIncludePatterns focuses on documentation files for text-only mode.
var TextOnlyIncludePatterns = []string{
	"*.md", "*.txt", "*.rst", "*.markdown", "README*", "documentation/*", "docs/*", "*.html", "*.mdx",
}

// DefaultExcludePatterns filters out build output, vendored code, and test
// trees in code analysis mode.
var DefaultExcludePatterns = []string{
	"assets/*", "data/*", "examples/*", "images/*", "public/*", "static/*", "temp/*",
	"docs/*",
	"venv/*", ".venv/*", "*test*", "tests/*", "v1/*",
	"dist/*", "build/*", "experimental/*", "deprecated/*", "misc/*",
	"legacy/*", ".git/*", ".github/*", ".next/*", ".vscode/*", "obj/*", "bin/*", "node_modules/*", "*.log",
}

// TextOnlyExcludePatterns is more permissive with documentation directories.
var TextOnlyExcludePatterns = []string{
	"venv/*", ".venv/*", "node_modules/*", ".git/*", ".github/*", ".next/*", ".vscode/*",
	"dist/*", "build/*", "obj/*", "bin/*", "*.log",
}

const (
	// DefaultOutputDir is the base directory for generated tutorials.
	DefaultOutputDir = "output"
	// DefaultMaxFileSize is the per-file size cap in bytes (~100KB).
	DefaultMaxFileSize = 100000
	// DefaultLanguage is the tutorial prose language.
	DefaultLanguage = "english"
	// DefaultMaxAbstractions caps how many abstractions are identified.
	DefaultMaxAbstractions = 10
	// DefaultMaxTokens is the advisory per-request token budget.
	DefaultMaxTokens = 30000
	// DefaultTemperature is applied before the config file is read; an
	// explicit 0.0 in the file is kept, not treated as unset.
	DefaultTemperature = 0.7
)

// DefaultPatternsFor returns the default include and exclude pattern sets
// for the given mode.
func DefaultPatternsFor(textOnly bool) (include, exclude []string) {
	if textOnly {
		return TextOnlyIncludePatterns, TextOnlyExcludePatterns
	}
	return DefaultIncludePatterns, DefaultExcludePatterns
}

// applyDefaults sets default values for optional configuration fields.
// Pattern defaults are applied last so text-only mode can influence them.
func applyDefaults(cfg *Config) {
	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultOutputDir
	}
	if cfg.MaxFileSize == 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	if cfg.MaxAbstractions == 0 {
		cfg.MaxAbstractions = DefaultMaxAbstractions
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.CacheFile == "" {
		cfg.CacheFile = llmcache.DefaultCacheFile
	}
	if cfg.LogDir == "" {
		cfg.LogDir = os.Getenv(calllog.LogDirEnvVar)
	}
	if cfg.LogDir == "" {
		cfg.LogDir = calllog.DefaultLogDir
	}

	if cfg.Model.BaseURL == "" {
		cfg.Model.BaseURL = os.Getenv("LLM_BASE_URL")
	}
	if cfg.Model.BaseURL == "" {
		cfg.Model.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model.ModelName == "" {
		cfg.Model.ModelName = os.Getenv("LLM_MODEL")
	}
	if cfg.Model.ModelName == "" {
		cfg.Model.ModelName = "gpt-4.1-mini"
	}
	if cfg.Model.MaxOutputTokens == 0 {
		cfg.Model.MaxOutputTokens = 8192
	}
	if cfg.Model.RateLimitPerMinute == 0 {
		cfg.Model.RateLimitPerMinute = 60
	}
}

// ApplyPatternDefaults fills the include and exclude pattern sets when the
// user supplied neither flags nor config values. Which default set is used
// depends on the text-only mode flag.
func ApplyPatternDefaults(cfg *Config) {
	include, exclude := DefaultPatternsFor(cfg.TextOnly)
	if len(cfg.IncludePatterns) == 0 {
		cfg.IncludePatterns = include
	}
	if len(cfg.ExcludePatterns) == 0 {
		cfg.ExcludePatterns = exclude
	}
}
