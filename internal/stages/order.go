package stages

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lamim/tutorialforge/internal/llm"
	"github.com/lamim/tutorialforge/internal/state"
	"github.com/lamim/tutorialforge/internal/util"
)

// OrderChapters asks the model for the pedagogical ordering of the
// abstractions and validates that the answer is a permutation.
//
// Reads: State.Abstractions, State.Relationships. Writes: State.ChapterOrder.
type OrderChapters struct {
	invoker llm.Invoker
	logger  *slog.Logger
}

func NewOrderChapters(invoker llm.Invoker, logger *slog.Logger) *OrderChapters {
	return &OrderChapters{invoker: invoker, logger: logger}
}

func (s *OrderChapters) Name() string { return "order_chapters" }

func (s *OrderChapters) Run(ctx context.Context, st *state.State) error {
	cfg := st.Config

	prompt, err := util.RenderTemplate(orderChaptersTemplate, map[string]interface{}{
		"ProjectName":         st.ProjectName,
		"AbstractionListing":  abstractionListing(st.Abstractions),
		"RelationshipContext": relationshipSummaryContext(st),
	})
	if err != nil {
		return fmt.Errorf("failed to render prompt: %w", err)
	}

	response, err := s.invoker.Invoke(ctx, prompt, cfg.UseCache)
	if err != nil {
		return err
	}

	order, err := parseChapterOrder(util.ExtractYAML(response))
	if err != nil {
		return err
	}

	if err := validatePermutation(order, len(st.Abstractions)); err != nil {
		return err
	}

	st.ChapterOrder = order
	s.logger.Info("Ordered chapters", "count", len(order))
	return nil
}

func relationshipSummaryContext(st *state.State) string {
	var b strings.Builder
	b.WriteString("Summary:\n")
	b.WriteString(st.Relationships.Summary)
	b.WriteString("\n\nRelationships:\n")
	for _, rel := range st.Relationships.Relationships {
		fmt.Fprintf(&b, "- %s (%d) -> %s (%d): %s\n",
			st.Abstractions[rel.FromIndex].Name, rel.FromIndex,
			st.Abstractions[rel.ToIndex].Name, rel.ToIndex,
			rel.Label)
	}
	return b.String()
}

// parseChapterOrder reads the ordered index list. Entries are either plain
// integers or "N # name" strings, since models annotate the indices with
// names despite the comment syntax shown in the prompt.
func parseChapterOrder(text string) ([]int, error) {
	var raw []interface{}
	if err := yaml.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse chapter order: %w", err)
	}

	order := make([]int, 0, len(raw))
	for i, entry := range raw {
		switch v := entry.(type) {
		case int:
			order = append(order, v)
		case string:
			head, _, _ := strings.Cut(v, "#")
			idx, err := strconv.Atoi(strings.TrimSpace(head))
			if err != nil {
				return nil, fmt.Errorf("chapter order entry %d is not an index: %q", i, v)
			}
			order = append(order, idx)
		default:
			return nil, fmt.Errorf("chapter order entry %d has unexpected type %T", i, entry)
		}
	}
	return order, nil
}

// validatePermutation checks that order contains each of 0..n-1 exactly once.
func validatePermutation(order []int, n int) error {
	if len(order) != n {
		return fmt.Errorf("chapter order has %d entries, expected %d", len(order), n)
	}
	seen := make(map[int]bool, n)
	for _, idx := range order {
		if idx < 0 || idx >= n {
			return fmt.Errorf("chapter order index %d out of range 0-%d", idx, n-1)
		}
		if seen[idx] {
			return fmt.Errorf("chapter order repeats index %d", idx)
		}
		seen[idx] = true
	}
	return nil
}
