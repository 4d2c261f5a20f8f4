package stages

import (
	"context"
	"fmt"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/lamim/tutorialforge/internal/llm"
	"github.com/lamim/tutorialforge/internal/state"
	"github.com/lamim/tutorialforge/internal/util"
	"github.com/lamim/tutorialforge/pkg/models"
)

// IdentifyAbstractions asks the model for the core concepts of the
// codebase and validates the structured answer.
//
// Reads: State.Files. Writes: State.Abstractions.
type IdentifyAbstractions struct {
	invoker llm.Invoker
	logger  *slog.Logger
}

func NewIdentifyAbstractions(invoker llm.Invoker, logger *slog.Logger) *IdentifyAbstractions {
	return &IdentifyAbstractions{invoker: invoker, logger: logger}
}

func (s *IdentifyAbstractions) Name() string { return "identify_abstractions" }

func (s *IdentifyAbstractions) Run(ctx context.Context, st *state.State) error {
	cfg := st.Config

	prompt, err := util.RenderTemplate(identifyAbstractionsTemplate, map[string]interface{}{
		"ProjectName":         st.ProjectName,
		"FileContext":         fileContext(st.Files, nil),
		"FileListing":         fileListing(st.Files),
		"MaxAbstractions":     cfg.MaxAbstractions,
		"LanguageInstruction": languageInstruction(cfg.Language),
	})
	if err != nil {
		return fmt.Errorf("failed to render prompt: %w", err)
	}

	response, err := s.invoker.Invoke(ctx, prompt, cfg.UseCache)
	if err != nil {
		return err
	}

	var abstractions []models.Abstraction
	if err := yaml.Unmarshal([]byte(util.ExtractYAML(response)), &abstractions); err != nil {
		return fmt.Errorf("failed to parse abstraction list: %w", err)
	}

	if len(abstractions) == 0 {
		return fmt.Errorf("model returned no abstractions")
	}
	for i, a := range abstractions {
		if a.Name == "" {
			return fmt.Errorf("abstraction %d has no name", i)
		}
		if a.Description == "" {
			return fmt.Errorf("abstraction %q has no description", a.Name)
		}
		for _, idx := range a.FileIndices {
			if idx < 0 || idx >= len(st.Files) {
				return fmt.Errorf("abstraction %q references file index %d, valid range is 0-%d",
					a.Name, idx, len(st.Files)-1)
			}
		}
	}

	if len(abstractions) > cfg.MaxAbstractions {
		s.logger.Warn("Model exceeded the abstraction limit, truncating",
			"returned", len(abstractions),
			"limit", cfg.MaxAbstractions)
		abstractions = abstractions[:cfg.MaxAbstractions]
	}

	st.Abstractions = abstractions
	s.logger.Info("Identified abstractions", "count", len(abstractions))
	return nil
}
