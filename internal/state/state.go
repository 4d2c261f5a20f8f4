// Package state defines the shared container threaded through every
// pipeline stage of one tutorial generation run.
package state

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/lamim/tutorialforge/internal/config"
	"github.com/lamim/tutorialforge/pkg/models"
)

// State is the single mutable record holding all inputs, intermediate
// artifacts, and final outputs of one run. One pipeline execution owns one
// State exclusively for its lifetime; it is never shared between runs.
//
// Intermediate fields follow a single-writer discipline: each is written
// once by the stage responsible for it and only read afterwards. The
// strict sequential stage order is what enforces write-then-read, not any
// synchronization primitive.
type State struct {
	// RunID identifies this run in operational logs.
	RunID string

	// Config is the immutable run configuration.
	Config *config.Config

	// ProjectName starts from the configuration and is derived from the
	// source locator by the fetch stage when absent.
	ProjectName string

	// Intermediate artifacts, in stage order.
	Files         []models.FileInfo         // written by fetch
	Abstractions  []models.Abstraction      // written by identify abstractions
	Relationships *models.RelationshipGraph // written by analyze relationships
	ChapterOrder  []int                     // written by order chapters
	Chapters      []models.Chapter          // written by write chapters

	// FinalOutputDir is the path to the generated tutorial, written by the
	// combine stage. Empty until the run completes successfully.
	FinalOutputDir string

	// Stats accumulates run statistics for the final report.
	Stats models.RunStats
}

// New builds the initial container from a validated configuration.
// Intermediate and final fields start as their absent sentinels.
func New(cfg *config.Config) (*State, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &State{
		RunID:       uuid.New().String(),
		Config:      cfg,
		ProjectName: cfg.ProjectName,
	}, nil
}
