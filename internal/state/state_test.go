package state

import (
	"testing"

	"github.com/lamim/tutorialforge/internal/config"
)

func testConfig() *config.Config {
	cfg := &config.Config{
		LocalDir:        "/repo",
		OutputDir:       "output",
		MaxFileSize:     100000,
		Language:        "english",
		UseCache:        true,
		MaxAbstractions: 10,
		MaxTokens:       30000,
		IncludePatterns: []string{"*.go"},
		Model: config.ModelConfig{
			BaseURL:            "https://example.com/v1",
			ModelName:          "test-model",
			Temperature:        0.7,
			MaxOutputTokens:    4096,
			RateLimitPerMinute: 60,
		},
	}
	return cfg
}

func TestNew_InitialSentinels(t *testing.T) {
	st, err := New(testConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if st.RunID == "" {
		t.Error("Expected a run ID")
	}
	if st.Files != nil {
		t.Error("Expected Files to start unset")
	}
	if st.Abstractions != nil {
		t.Error("Expected Abstractions to start unset")
	}
	if st.Relationships != nil {
		t.Error("Expected Relationships to start unset")
	}
	if st.ChapterOrder != nil {
		t.Error("Expected ChapterOrder to start unset")
	}
	if st.Chapters != nil {
		t.Error("Expected Chapters to start unset")
	}
	if st.FinalOutputDir != "" {
		t.Error("Expected FinalOutputDir to start empty")
	}
}

func TestNew_RejectsBothSources(t *testing.T) {
	cfg := testConfig()
	cfg.RepoURL = "https://github.com/example/project"

	if _, err := New(cfg); err == nil {
		t.Error("Expected error when both source locators are set")
	}
}

func TestNew_RejectsNeitherSource(t *testing.T) {
	cfg := testConfig()
	cfg.LocalDir = ""

	if _, err := New(cfg); err == nil {
		t.Error("Expected error when neither source locator is set")
	}
}

func TestNew_ProjectNameFromConfig(t *testing.T) {
	cfg := testConfig()
	cfg.ProjectName = "myproject"

	st, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if st.ProjectName != "myproject" {
		t.Errorf("Expected project name myproject, got %q", st.ProjectName)
	}
}
