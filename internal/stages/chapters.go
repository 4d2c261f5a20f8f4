package stages

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/schollz/progressbar/v3"

	"github.com/lamim/tutorialforge/internal/llm"
	"github.com/lamim/tutorialforge/internal/metrics"
	"github.com/lamim/tutorialforge/internal/state"
	"github.com/lamim/tutorialforge/internal/util"
	"github.com/lamim/tutorialforge/pkg/models"
)

// maxPreviousContextRunes bounds how much earlier-chapter text is carried
// into each chapter prompt.
const maxPreviousContextRunes = 12000

// WriteChapters generates one tutorial chapter per abstraction, in the
// decided order. Chapters are written sequentially so each prompt can
// carry the text of the chapters before it.
//
// Reads: State.Files, State.Abstractions, State.ChapterOrder.
// Writes: State.Chapters, State.Stats.ChaptersWritten.
type WriteChapters struct {
	invoker   llm.Invoker
	collector *metrics.Collector
	logger    *slog.Logger
	progress  bool
}

func NewWriteChapters(invoker llm.Invoker, collector *metrics.Collector, progress bool, logger *slog.Logger) *WriteChapters {
	return &WriteChapters{
		invoker:   invoker,
		collector: collector,
		logger:    logger,
		progress:  progress,
	}
}

func (s *WriteChapters) Name() string { return "write_chapters" }

func (s *WriteChapters) Run(ctx context.Context, st *state.State) error {
	cfg := st.Config

	chapterListing := chapterPlanListing(st)

	var bar *progressbar.ProgressBar
	if s.progress {
		bar = progressbar.NewOptions(len(st.ChapterOrder),
			progressbar.OptionSetDescription("Writing chapters"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(30),
			progressbar.OptionClearOnFinish(),
		)
	}

	chapters := make([]models.Chapter, 0, len(st.ChapterOrder))
	var previous strings.Builder

	for pos, absIdx := range st.ChapterOrder {
		abstraction := st.Abstractions[absIdx]
		number := pos + 1

		prompt, err := util.RenderTemplate(writeChapterTemplate, map[string]interface{}{
			"ProjectName":            st.ProjectName,
			"AbstractionName":        abstraction.Name,
			"AbstractionDescription": abstraction.Description,
			"ChapterNumber":          number,
			"ChapterListing":         chapterListing,
			"PreviousContext":        truncatedPreviousContext(previous.String()),
			"FileContext":            fileContext(st.Files, abstraction.FileIndices),
			"LanguageInstruction":    languageInstruction(cfg.Language),
		})
		if err != nil {
			return fmt.Errorf("failed to render prompt for chapter %d: %w", number, err)
		}

		content, err := s.invoker.Invoke(ctx, prompt, cfg.UseCache)
		if err != nil {
			return fmt.Errorf("failed to write chapter %d (%s): %w", number, abstraction.Name, err)
		}
		content = normalizeChapterContent(content, number, abstraction.Name)

		chapters = append(chapters, models.Chapter{
			AbstractionIndex: absIdx,
			Number:           number,
			Title:            abstraction.Name,
			Filename:         chapterFilename(number, abstraction.Name),
			Content:          content,
		})
		s.collector.IncrementChapters()

		fmt.Fprintf(&previous, "%s\n\n", content)
		if bar != nil {
			if err := bar.Add(1); err != nil {
				s.logger.Debug("Progress bar update failed", "error", err)
			}
		}
		s.logger.Info("Wrote chapter", "number", number, "title", abstraction.Name)
	}

	st.Chapters = chapters
	st.Stats.ChaptersWritten = len(chapters)
	return nil
}

func chapterPlanListing(st *state.State) string {
	var b strings.Builder
	for pos, absIdx := range st.ChapterOrder {
		fmt.Fprintf(&b, "%d # %s\n", pos+1, st.Abstractions[absIdx].Name)
	}
	return b.String()
}

func truncatedPreviousContext(s string) string {
	if s == "" {
		return "(none, this is the first chapter)"
	}
	runes := []rune(s)
	if len(runes) <= maxPreviousContextRunes {
		return s
	}
	// Keep the tail: the most recent chapters matter most for transitions.
	return "... (earlier chapters omitted)\n" + string(runes[len(runes)-maxPreviousContextRunes:])
}

// normalizeChapterContent ensures the chapter opens with its heading even
// when the model forgets the instruction.
func normalizeChapterContent(content string, number int, title string) string {
	content = strings.TrimSpace(content)
	heading := fmt.Sprintf("# Chapter %d", number)
	if !strings.HasPrefix(content, heading) {
		content = fmt.Sprintf("# Chapter %d: %s\n\n%s", number, title, content)
	}
	return content + "\n"
}

var unsafeFilenameRegex = regexp.MustCompile(`[^a-z0-9]+`)

// chapterFilename derives a stable, filesystem-safe name like
// "01_query_processing.md".
func chapterFilename(number int, title string) string {
	slug := unsafeFilenameRegex.ReplaceAllString(strings.ToLower(title), "_")
	slug = strings.Trim(slug, "_")
	if slug == "" {
		slug = "chapter"
	}
	return fmt.Sprintf("%02d_%s.md", number, slug)
}
