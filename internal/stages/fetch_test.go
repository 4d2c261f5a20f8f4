package stages

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/lamim/tutorialforge/internal/config"
	"github.com/lamim/tutorialforge/internal/state"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMatchPattern(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"*.go", "main.go", true},
		{"*.go", "internal/server/handler.go", true}, // basename match
		{"*.go", "main.go.bak", false},
		{"docs/*", "docs/guide.md", true},
		{"docs/*", "docs/api/reference.md", true}, // * crosses separators
		{"docs/*", "src/docs.go", false},
		{"*test*", "internal/llm_test.go", true},
		{"README.md", "README.md", true},
		{"README.md", "pkg/README.md", true},
		{"?.txt", "a.txt", true},
		{"?.txt", "ab.txt", false},
	}

	for _, tt := range tests {
		if got := matchPattern(tt.pattern, tt.path); got != tt.want {
			t.Errorf("matchPattern(%q, %q) = %v, want %v", tt.pattern, tt.path, got, tt.want)
		}
	}
}

func TestShouldInclude(t *testing.T) {
	include := []string{"*.go", "*.md"}
	exclude := []string{"*test*", "vendor/*"}

	tests := []struct {
		path string
		want bool
	}{
		{"main.go", true},
		{"README.md", true},
		{"server_test.go", false},
		{"vendor/lib/code.go", false},
		{"image.png", false},
	}

	for _, tt := range tests {
		if got := shouldInclude(tt.path, include, exclude); got != tt.want {
			t.Errorf("shouldInclude(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestParseGitHubURL(t *testing.T) {
	tests := []struct {
		url       string
		owner     string
		repo      string
		expectErr bool
	}{
		{"https://github.com/lamim/tutorialforge", "lamim", "tutorialforge", false},
		{"https://github.com/lamim/tutorialforge.git", "lamim", "tutorialforge", false},
		{"https://github.com/lamim/tutorialforge/", "lamim", "tutorialforge", false},
		{"https://gitlab.com/lamim/tutorialforge", "", "", true},
		{"not a url", "", "", true},
	}

	for _, tt := range tests {
		owner, repo, err := parseGitHubURL(tt.url)
		if tt.expectErr {
			if err == nil {
				t.Errorf("parseGitHubURL(%q) expected error, got %s/%s", tt.url, owner, repo)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseGitHubURL(%q) unexpected error: %v", tt.url, err)
			continue
		}
		if owner != tt.owner || repo != tt.repo {
			t.Errorf("parseGitHubURL(%q) = %s/%s, want %s/%s", tt.url, owner, repo, tt.owner, tt.repo)
		}
	}
}

func testConfig(dir string) *config.Config {
	return &config.Config{
		LocalDir:        dir,
		OutputDir:       "output",
		IncludePatterns: []string{"*.go", "*.md"},
		ExcludePatterns: []string{"*test*"},
		MaxFileSize:     100000,
		Language:        "english",
		MaxAbstractions: 10,
		MaxTokens:       30000,
		UseCache:        true,
		Model: config.ModelConfig{
			BaseURL:            "https://api.example.test/v1",
			ModelName:          "test-model",
			Temperature:        0.7,
			MaxOutputTokens:    8192,
			RateLimitPerMinute: 60,
		},
	}
}

func TestFetchRepoLocalDir(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "main.go", "package main\n")
	writeTestFile(t, dir, "internal/server.go", "package internal\n")
	writeTestFile(t, dir, "internal/server_test.go", "package internal\n")
	writeTestFile(t, dir, "README.md", "# readme\n")
	writeTestFile(t, dir, "logo.png", "\x89PNG\xff\xfe")
	writeTestFile(t, dir, "notes.txt", "plain text\n")

	cfg := testConfig(dir)
	st, err := state.New(cfg)
	if err != nil {
		t.Fatalf("state.New failed: %v", err)
	}

	stage := NewFetchRepo("", discardLogger())
	if err := stage.Run(context.Background(), st); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	got := make(map[string]bool)
	for _, f := range st.Files {
		got[f.Path] = true
	}
	for _, want := range []string{"main.go", "internal/server.go", "README.md"} {
		if !got[want] {
			t.Errorf("expected %s to be fetched, files: %v", want, got)
		}
	}
	for _, skip := range []string{"internal/server_test.go", "logo.png", "notes.txt"} {
		if got[skip] {
			t.Errorf("expected %s to be skipped", skip)
		}
	}

	if st.ProjectName != filepath.Base(dir) {
		t.Errorf("ProjectName = %q, want %q", st.ProjectName, filepath.Base(dir))
	}
}

func TestFetchRepoSkipsOversizedFiles(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "small.go", "package small\n")
	big := make([]byte, 200)
	for i := range big {
		big[i] = 'a'
	}
	writeTestFile(t, dir, "big.go", string(big))

	cfg := testConfig(dir)
	cfg.MaxFileSize = 100
	st, err := state.New(cfg)
	if err != nil {
		t.Fatalf("state.New failed: %v", err)
	}

	stage := NewFetchRepo("", discardLogger())
	if err := stage.Run(context.Background(), st); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(st.Files) != 1 || st.Files[0].Path != "small.go" {
		t.Errorf("expected only small.go, got %+v", st.Files)
	}
}

func TestFetchRepoNoMatchesFails(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "data.bin", "binary-ish")

	cfg := testConfig(dir)
	st, err := state.New(cfg)
	if err != nil {
		t.Fatalf("state.New failed: %v", err)
	}

	stage := NewFetchRepo("", discardLogger())
	if err := stage.Run(context.Background(), st); err == nil {
		t.Fatal("expected error when no files match")
	}
}

func TestFetchRepoKeepsConfiguredProjectName(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "main.go", "package main\n")

	cfg := testConfig(dir)
	cfg.ProjectName = "custom-name"
	st, err := state.New(cfg)
	if err != nil {
		t.Fatalf("state.New failed: %v", err)
	}

	stage := NewFetchRepo("", discardLogger())
	if err := stage.Run(context.Background(), st); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if st.ProjectName != "custom-name" {
		t.Errorf("ProjectName = %q, want custom-name", st.ProjectName)
	}
}

func writeTestFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}
