// Package pipeline executes an ordered sequence of stages against one
// shared state container.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lamim/tutorialforge/internal/metrics"
	"github.com/lamim/tutorialforge/internal/state"
)

// Stage is one unit of work. It reads designated fields of the state
// container and writes its designated output fields; a stage must only
// write the fields it owns. A stage that needs model inference performs
// its gateway calls sequentially inside Run.
type Stage interface {
	Name() string
	Run(ctx context.Context, st *state.State) error
}

// Pipeline runs stages strictly in order against a single state container.
// Stage i+1 begins only after stage i completes without error; the first
// failure aborts the run with no partial-result recovery.
type Pipeline struct {
	stages    []Stage
	logger    *slog.Logger
	collector *metrics.Collector
}

// New creates a pipeline over the given stages.
func New(stages []Stage, collector *metrics.Collector, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		stages:    stages,
		logger:    logger,
		collector: collector,
	}
}

// Run executes every stage in order against st. The error returned by a
// failed stage propagates unmodified inside the wrap, and no later stage
// runs after a failure.
func (p *Pipeline) Run(ctx context.Context, st *state.State) error {
	st.Stats.StartTime = time.Now()

	p.logger.Info("Starting pipeline",
		"run_id", st.RunID,
		"stages", len(p.stages))

	for i, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return err
		}

		p.logger.Info("Running stage",
			"stage", stage.Name(),
			"position", fmt.Sprintf("%d/%d", i+1, len(p.stages)))

		start := time.Now()
		err := stage.Run(ctx, st)
		duration := time.Since(start)
		p.collector.RecordStage(stage.Name(), duration, err == nil)

		if err != nil {
			p.logger.Error("Stage failed, aborting run",
				"stage", stage.Name(),
				"duration", duration,
				"error", err)
			return fmt.Errorf("stage %s failed: %w", stage.Name(), err)
		}

		p.logger.Info("Stage complete",
			"stage", stage.Name(),
			"duration", duration)
	}

	st.Stats.EndTime = time.Now()
	st.Stats.TotalDuration = st.Stats.EndTime.Sub(st.Stats.StartTime)

	p.logger.Info("Pipeline complete",
		"run_id", st.RunID,
		"duration", st.Stats.TotalDuration,
		"output_dir", st.FinalOutputDir)

	return nil
}
