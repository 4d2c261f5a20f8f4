package stages

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lamim/tutorialforge/internal/llm"
	"github.com/lamim/tutorialforge/internal/state"
	"github.com/lamim/tutorialforge/internal/util"
	"github.com/lamim/tutorialforge/pkg/models"
)

// AnalyzeRelationships asks the model for a project summary and the
// interactions between the identified abstractions.
//
// Reads: State.Files, State.Abstractions. Writes: State.Relationships.
type AnalyzeRelationships struct {
	invoker llm.Invoker
	logger  *slog.Logger
}

func NewAnalyzeRelationships(invoker llm.Invoker, logger *slog.Logger) *AnalyzeRelationships {
	return &AnalyzeRelationships{invoker: invoker, logger: logger}
}

func (s *AnalyzeRelationships) Name() string { return "analyze_relationships" }

func (s *AnalyzeRelationships) Run(ctx context.Context, st *state.State) error {
	cfg := st.Config

	context_ := relationshipPromptContext(st)
	prompt, err := util.RenderTemplate(analyzeRelationshipsTemplate, map[string]interface{}{
		"ProjectName":         st.ProjectName,
		"AbstractionListing":  abstractionListing(st.Abstractions),
		"FileContext":         context_,
		"LanguageInstruction": languageInstruction(cfg.Language),
	})
	if err != nil {
		return fmt.Errorf("failed to render prompt: %w", err)
	}

	response, err := s.invoker.Invoke(ctx, prompt, cfg.UseCache)
	if err != nil {
		return err
	}

	var graph models.RelationshipGraph
	if err := yaml.Unmarshal([]byte(util.ExtractYAML(response)), &graph); err != nil {
		return fmt.Errorf("failed to parse relationship analysis: %w", err)
	}

	if strings.TrimSpace(graph.Summary) == "" {
		return fmt.Errorf("relationship analysis is missing a project summary")
	}
	if len(graph.Relationships) == 0 {
		return fmt.Errorf("relationship analysis returned no relationships")
	}

	involved := make(map[int]bool)
	for i, rel := range graph.Relationships {
		if rel.FromIndex < 0 || rel.FromIndex >= len(st.Abstractions) ||
			rel.ToIndex < 0 || rel.ToIndex >= len(st.Abstractions) {
			return fmt.Errorf("relationship %d references abstraction index out of range 0-%d",
				i, len(st.Abstractions)-1)
		}
		involved[rel.FromIndex] = true
		involved[rel.ToIndex] = true
	}
	for i, a := range st.Abstractions {
		if !involved[i] {
			return fmt.Errorf("abstraction %q is not involved in any relationship", a.Name)
		}
	}

	st.Relationships = &graph
	s.logger.Info("Analyzed relationships", "count", len(graph.Relationships))
	return nil
}

// relationshipPromptContext combines the abstraction descriptions with the
// code of every file any abstraction references.
func relationshipPromptContext(st *state.State) string {
	var b strings.Builder
	for i, a := range st.Abstractions {
		fmt.Fprintf(&b, "--- Abstraction %d: %s ---\n%s\n\n", i, a.Name, a.Description)
	}
	b.WriteString(fileContext(st.Files, relevantFileIndices(st.Abstractions)))
	return b.String()
}
