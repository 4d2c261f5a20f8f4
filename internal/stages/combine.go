package stages

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/lamim/tutorialforge/internal/state"
)

// CombineTutorial writes the generated chapters and an index page to the
// output directory. It is the only stage that touches the final output
// location.
//
// Reads: State.Chapters, State.Relationships, State.Abstractions.
// Writes: State.FinalOutputDir.
type CombineTutorial struct {
	logger *slog.Logger
}

func NewCombineTutorial(logger *slog.Logger) *CombineTutorial {
	return &CombineTutorial{logger: logger}
}

func (s *CombineTutorial) Name() string { return "combine_tutorial" }

func (s *CombineTutorial) Run(ctx context.Context, st *state.State) error {
	outDir := filepath.Join(st.Config.OutputDir, st.ProjectName)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	indexPath := filepath.Join(outDir, "index.md")
	if err := os.WriteFile(indexPath, []byte(s.renderIndex(st)), 0o644); err != nil {
		return fmt.Errorf("failed to write index: %w", err)
	}

	for _, ch := range st.Chapters {
		path := filepath.Join(outDir, ch.Filename)
		if err := os.WriteFile(path, []byte(ch.Content), 0o644); err != nil {
			return fmt.Errorf("failed to write chapter %d: %w", ch.Number, err)
		}
	}

	st.FinalOutputDir = outDir
	s.logger.Info("Combined tutorial",
		"dir", outDir,
		"chapters", len(st.Chapters))
	return nil
}

func (s *CombineTutorial) renderIndex(st *state.State) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Tutorial: %s\n\n", st.ProjectName)
	b.WriteString(strings.TrimSpace(st.Relationships.Summary))
	b.WriteString("\n\n")

	if st.Config.RepoURL != "" {
		fmt.Fprintf(&b, "Source repository: [%s](%s)\n\n", st.Config.RepoURL, st.Config.RepoURL)
	}

	b.WriteString(renderMermaidFlowchart(st))
	b.WriteString("\n## Chapters\n\n")
	for _, ch := range st.Chapters {
		fmt.Fprintf(&b, "%d. [%s](%s)\n", ch.Number, ch.Title, ch.Filename)
	}
	b.WriteString("\n")

	return b.String()
}

// renderMermaidFlowchart draws the abstraction relationship graph. Node
// ids are positional (A0, A1, ...) so labels can carry arbitrary text.
func renderMermaidFlowchart(st *state.State) string {
	var b strings.Builder
	b.WriteString("```mermaid\nflowchart TD\n")
	for i, a := range st.Abstractions {
		fmt.Fprintf(&b, "    A%d[\"%s\"]\n", i, mermaidEscape(a.Name))
	}
	for _, rel := range st.Relationships.Relationships {
		label := strings.TrimSpace(rel.Label)
		if label != "" {
			fmt.Fprintf(&b, "    A%d -- \"%s\" --> A%d\n", rel.FromIndex, mermaidEscape(label), rel.ToIndex)
		} else {
			fmt.Fprintf(&b, "    A%d --> A%d\n", rel.FromIndex, rel.ToIndex)
		}
	}
	b.WriteString("```\n")
	return b.String()
}

func mermaidEscape(s string) string {
	return strings.NewReplacer("\"", "&quot;", "\n", " ").Replace(s)
}
