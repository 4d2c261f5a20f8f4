package stages

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/lamim/tutorialforge/internal/state"
	"github.com/lamim/tutorialforge/pkg/models"
)

// FetchRepo is the first pipeline stage: it collects the source files the
// rest of the run analyzes.
//
// Reads: run configuration (source locator, patterns, max file size).
// Writes: State.Files, and State.ProjectName when not configured.
type FetchRepo struct {
	logger     *slog.Logger
	httpClient *http.Client
	token      string
}

// NewFetchRepo creates the fetch stage. token is the optional GitHub
// access credential used for remote sources.
func NewFetchRepo(token string, logger *slog.Logger) *FetchRepo {
	return &FetchRepo{
		logger:     logger,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		token:      token,
	}
}

func (s *FetchRepo) Name() string { return "fetch_repo" }

func (s *FetchRepo) Run(ctx context.Context, st *state.State) error {
	cfg := st.Config

	var (
		files []models.FileInfo
		err   error
	)
	if cfg.LocalDir != "" {
		if st.ProjectName == "" {
			st.ProjectName = filepath.Base(filepath.Clean(cfg.LocalDir))
		}
		files, err = s.crawlLocal(ctx, cfg.LocalDir, cfg.IncludePatterns, cfg.ExcludePatterns, cfg.MaxFileSize)
	} else {
		owner, repo, parseErr := parseGitHubURL(cfg.RepoURL)
		if parseErr != nil {
			return parseErr
		}
		if st.ProjectName == "" {
			st.ProjectName = repo
		}
		files, err = s.crawlGitHub(ctx, owner, repo, cfg.IncludePatterns, cfg.ExcludePatterns, cfg.MaxFileSize)
	}
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return fmt.Errorf("no files matched the include/exclude patterns")
	}

	st.Files = files
	s.logger.Info("Fetched source files",
		"project", st.ProjectName,
		"count", len(files))
	return nil
}

func (s *FetchRepo) crawlLocal(ctx context.Context, root string, include, exclude []string, maxSize int64) ([]models.FileInfo, error) {
	var files []models.FileInfo

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if !shouldInclude(rel, include, exclude) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.Size() > maxSize {
			s.logger.Debug("Skipping oversized file", "path", rel, "size", info.Size())
			return nil
		}

		data, err := os.ReadFile(p)
		if err != nil {
			s.logger.Warn("Skipping unreadable file", "path", rel, "error", err)
			return nil
		}
		if !utf8.Valid(data) {
			s.logger.Debug("Skipping binary file", "path", rel)
			return nil
		}

		files = append(files, models.FileInfo{Path: rel, Content: string(data)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to crawl directory %s: %w", root, err)
	}

	return files, nil
}

// githubTreeResponse is the subset of the git trees API we consume.
type githubTreeResponse struct {
	Tree []struct {
		Path string `json:"path"`
		Type string `json:"type"`
		Size int64  `json:"size"`
	} `json:"tree"`
	Truncated bool `json:"truncated"`
}

func (s *FetchRepo) crawlGitHub(ctx context.Context, owner, repo string, include, exclude []string, maxSize int64) ([]models.FileInfo, error) {
	treeURL := fmt.Sprintf("https://api.github.com/repos/%s/%s/git/trees/HEAD?recursive=1", owner, repo)
	var tree githubTreeResponse
	if err := s.getJSON(ctx, treeURL, &tree); err != nil {
		return nil, fmt.Errorf("failed to list repository tree: %w", err)
	}
	if tree.Truncated {
		s.logger.Warn("Repository tree truncated by the API, some files may be missing",
			"owner", owner, "repo", repo)
	}

	var files []models.FileInfo
	for _, entry := range tree.Tree {
		if entry.Type != "blob" {
			continue
		}
		if !shouldInclude(entry.Path, include, exclude) {
			continue
		}
		if entry.Size > maxSize {
			s.logger.Debug("Skipping oversized file", "path", entry.Path, "size", entry.Size)
			continue
		}

		rawURL := fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/HEAD/%s", owner, repo, entry.Path)
		content, err := s.getRaw(ctx, rawURL)
		if err != nil {
			return nil, fmt.Errorf("failed to download %s: %w", entry.Path, err)
		}
		if !utf8.Valid(content) {
			s.logger.Debug("Skipping binary file", "path", entry.Path)
			continue
		}

		files = append(files, models.FileInfo{Path: entry.Path, Content: string(content)})
	}

	return files, nil
}

func (s *FetchRepo) getJSON(ctx context.Context, url string, out interface{}) error {
	body, err := s.getRaw(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse API response: %w", err)
	}
	return nil
}

func (s *FetchRepo) getRaw(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			s.logger.Warn("Failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s returned status %d", url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

var githubURLRegex = regexp.MustCompile(`^https?://github\.com/([^/]+)/([^/]+?)(?:\.git)?/?$`)

func parseGitHubURL(url string) (owner, repo string, err error) {
	matches := githubURLRegex.FindStringSubmatch(strings.TrimSpace(url))
	if matches == nil {
		return "", "", fmt.Errorf("unsupported repository URL: %s", url)
	}
	return matches[1], matches[2], nil
}

// shouldInclude applies the include and exclude glob sets to a
// slash-separated relative path. A file is kept when any include pattern
// matches and no exclude pattern does.
func shouldInclude(rel string, include, exclude []string) bool {
	matched := false
	for _, pattern := range include {
		if matchPattern(pattern, rel) {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}

	for _, pattern := range exclude {
		if matchPattern(pattern, rel) {
			return false
		}
	}
	return true
}

// matchPattern matches a glob pattern against the relative path and, for
// basename-style patterns, against the final path element. Unlike
// filepath.Match, * crosses path separators, so "docs/*" matches every
// file below docs/ at any depth.
func matchPattern(pattern, rel string) bool {
	if globMatch(pattern, rel) {
		return true
	}
	if !strings.Contains(pattern, "/") {
		return globMatch(pattern, path.Base(rel))
	}
	return false
}

func globMatch(pattern, name string) bool {
	re, err := globToRegexp(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(name)
}

func globToRegexp(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}
