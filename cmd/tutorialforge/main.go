package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lamim/tutorialforge/internal/calllog"
	"github.com/lamim/tutorialforge/internal/config"
	"github.com/lamim/tutorialforge/internal/llm"
	"github.com/lamim/tutorialforge/internal/llmcache"
	"github.com/lamim/tutorialforge/internal/logging"
	"github.com/lamim/tutorialforge/internal/metrics"
	"github.com/lamim/tutorialforge/internal/pipeline"
	"github.com/lamim/tutorialforge/internal/stages"
	"github.com/lamim/tutorialforge/internal/state"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var (
	configPath      string
	envFile         string
	repoURL         string
	localDir        string
	projectName     string
	githubToken     string
	outputDir       string
	includePatterns []string
	excludePatterns []string
	maxFileSize     int64
	language        string
	maxAbstractions int
	maxTokens       int
	maxRetries      int
	textOnly        bool
	noCache         bool
	verbose         bool

	cacheFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tutorialforge",
		Short: "TutorialForge - Codebase Tutorial Generator",
		Long: `TutorialForge turns a codebase into a beginner-friendly tutorial.
It crawls a GitHub repository or local directory, asks an LLM to identify
the core abstractions and their relationships, and writes an ordered set
of Markdown chapters with an index and relationship diagram.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Generate a tutorial for a codebase",
		Long: `Run the complete tutorial generation pipeline:
1. Fetch the source files (GitHub repository or local directory)
2. Identify the core abstractions
3. Analyze the relationships between them
4. Decide the chapter order
5. Write one chapter per abstraction
6. Combine everything into the output directory`,
		RunE: runGeneration,
	}

	runCmd.Flags().StringVar(&repoURL, "repo", "", "GitHub repository URL to analyze")
	runCmd.Flags().StringVar(&localDir, "dir", "", "Local directory to analyze")
	runCmd.Flags().StringVarP(&projectName, "name", "n", "", "Project name (derived from the source when omitted)")
	runCmd.Flags().StringVarP(&outputDir, "output", "o", "", "Base output directory")
	runCmd.Flags().StringVarP(&githubToken, "token", "t", "", "GitHub access token (falls back to GITHUB_TOKEN)")
	runCmd.Flags().StringSliceVarP(&includePatterns, "include", "i", nil, "File patterns to include (e.g. \"*.go\")")
	runCmd.Flags().StringSliceVarP(&excludePatterns, "exclude", "e", nil, "File patterns to exclude (e.g. \"*test*\")")
	runCmd.Flags().Int64VarP(&maxFileSize, "max-size", "s", 0, "Maximum file size in bytes")
	runCmd.Flags().StringVar(&language, "language", "", "Tutorial language")
	runCmd.Flags().IntVar(&maxAbstractions, "max-abstractions", 0, "Maximum number of abstractions to identify")
	runCmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "Advisory per-request token budget")
	runCmd.Flags().IntVar(&maxRetries, "max-retries", 0, "Retries for transient model errors (0 disables retrying)")
	runCmd.Flags().BoolVar(&textOnly, "text-only", false, "Analyze documentation files instead of code")
	runCmd.Flags().BoolVar(&noCache, "no-cache", false, "Bypass the response cache")
	runCmd.Flags().StringVar(&configPath, "config", "config.toml", "Path to configuration file")
	runCmd.Flags().StringVar(&envFile, "env-file", ".env", "Path to environment file")
	runCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the response cache",
		Long:  "Inspect or clear the cached model responses reused across runs",
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show response cache statistics",
		RunE:  cacheStats,
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all cached responses",
		RunE:  cacheClear,
	}

	for _, c := range []*cobra.Command{statsCmd, clearCmd} {
		c.Flags().StringVar(&cacheFile, "cache-file", llmcache.DefaultCacheFile, "Path to the cache file")
	}

	cacheCmd.AddCommand(statsCmd)
	cacheCmd.AddCommand(clearCmd)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(cacheCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runGeneration(cmd *cobra.Command, args []string) error {
	if envFile != "" {
		if err := loadEnvFile(envFile); err != nil {
			if !os.IsNotExist(err) {
				fmt.Fprintf(os.Stderr, "Warning: failed to load env file: %v\n", err)
			}
		} else if verbose {
			fmt.Fprintf(os.Stderr, "Loaded env file: %s\n", envFile)
		}
	}

	// The default config.toml is optional; a path the user asked for is not.
	if cmd.Flags().Changed("config") {
		if _, err := os.Stat(configPath); err != nil {
			return fmt.Errorf("config file %s: %w", configPath, err)
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	applyFlags(cmd, cfg)
	config.ApplyPatternDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	secrets := config.LoadSecrets()
	if githubToken != "" {
		secrets.GitHubToken = githubToken
	}
	if secrets.APIKey == "" {
		return fmt.Errorf("LLM_API_KEY (or OPENAI_API_KEY) environment variable must be set")
	}

	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger, logFile, err := logging.Setup(cfg.LogDir, logLevel)
	if err != nil {
		return fmt.Errorf("failed to setup logger: %w", err)
	}
	defer func() {
		if logFile != nil {
			_ = logFile.Sync()
			_ = logFile.Close()
		}
	}()

	st, err := state.New(cfg)
	if err != nil {
		return err
	}

	logger.Info("TutorialForge starting",
		"version", Version,
		"run_id", st.RunID,
		"config", configPath)

	audit, err := calllog.New(cfg.LogDir, logger)
	if err != nil {
		return fmt.Errorf("failed to open call log: %w", err)
	}
	defer func() {
		if err := audit.Close(); err != nil {
			logger.Error("failed to close call log", "error", err)
		}
	}()

	var client llm.Client = llm.NewHTTPClient(cfg.Model, secrets.APIKey, logger)
	if cfg.MaxRetries > 0 {
		client = llm.NewRetryClient(client, cfg.MaxRetries, logger)
	}

	collector := metrics.NewCollector(logger)
	store := llmcache.NewFileStore(cfg.CacheFile)
	gateway := llm.NewGateway(client, store, audit, collector, logger)

	pipe := pipeline.New([]pipeline.Stage{
		stages.NewFetchRepo(secrets.GitHubToken, logger),
		stages.NewIdentifyAbstractions(gateway, logger),
		stages.NewAnalyzeRelationships(gateway, logger),
		stages.NewOrderChapters(gateway, logger),
		stages.NewWriteChapters(gateway, collector, !verbose, logger),
		stages.NewCombineTutorial(logger),
	}, collector, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := pipe.Run(ctx, st); err != nil {
		if ctx.Err() != nil {
			logger.Warn("Generation interrupted")
			return fmt.Errorf("generation interrupted")
		}
		return fmt.Errorf("generation failed: %w", err)
	}

	st.Stats.LLMCalls = gateway.BackendCalls()
	st.Stats.CacheHits = gateway.CacheHits()

	logger.Info("Generation complete",
		"chapters", st.Stats.ChaptersWritten,
		"llm_calls", st.Stats.LLMCalls,
		"cache_hits", st.Stats.CacheHits,
		"duration", st.Stats.TotalDuration,
		"output_dir", st.FinalOutputDir)
	return nil
}

// applyFlags layers explicitly set CLI flags over the file configuration.
// Only flags the user changed are applied, so file values survive.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("repo") {
		cfg.RepoURL = repoURL
	}
	if cmd.Flags().Changed("dir") {
		cfg.LocalDir = localDir
	}
	if cmd.Flags().Changed("name") {
		cfg.ProjectName = projectName
	}
	if cmd.Flags().Changed("output") {
		cfg.OutputDir = outputDir
	}
	if cmd.Flags().Changed("include") {
		cfg.IncludePatterns = includePatterns
	}
	if cmd.Flags().Changed("exclude") {
		cfg.ExcludePatterns = excludePatterns
	}
	if cmd.Flags().Changed("max-size") {
		cfg.MaxFileSize = maxFileSize
	}
	if cmd.Flags().Changed("language") {
		cfg.Language = language
	}
	if cmd.Flags().Changed("max-abstractions") {
		cfg.MaxAbstractions = maxAbstractions
	}
	if cmd.Flags().Changed("max-tokens") {
		cfg.MaxTokens = maxTokens
	}
	if cmd.Flags().Changed("max-retries") {
		cfg.MaxRetries = maxRetries
	}
	if cmd.Flags().Changed("text-only") {
		cfg.TextOnly = textOnly
	}
	if noCache {
		cfg.UseCache = false
	}
}

func cacheStats(cmd *cobra.Command, args []string) error {
	store := llmcache.NewFileStore(cacheFile)
	entries, err := store.Load()
	if err != nil {
		return fmt.Errorf("failed to read cache: %w", err)
	}

	var promptBytes, responseBytes int
	for prompt, response := range entries {
		promptBytes += len(prompt)
		responseBytes += len(response)
	}

	fmt.Printf("Cache file:     %s\n", cacheFile)
	fmt.Printf("Entries:        %d\n", len(entries))
	fmt.Printf("Prompt bytes:   %d\n", promptBytes)
	fmt.Printf("Response bytes: %d\n", responseBytes)
	return nil
}

func cacheClear(cmd *cobra.Command, args []string) error {
	if err := os.Remove(cacheFile); err != nil {
		if os.IsNotExist(err) {
			fmt.Printf("Cache file %s does not exist, nothing to clear\n", cacheFile)
			return nil
		}
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	fmt.Printf("Cleared cache file %s\n", cacheFile)
	return nil
}

// loadEnvFile loads environment variables from a KEY=VALUE file.
func loadEnvFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		if err := os.Setenv(key, value); err != nil {
			return err
		}
	}

	return nil
}
