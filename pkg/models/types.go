package models

import "time"

// FileInfo represents a single fetched source file.
// Index positions are stable for the lifetime of a run: prompts refer to
// files by index, so the slice must never be reordered after fetch.
type FileInfo struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Abstraction represents one core concept identified in the codebase.
type Abstraction struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	FileIndices []int  `yaml:"file_indices" json:"file_indices"`
}

// Relationship is a directed edge between two abstractions.
// FromIndex and ToIndex refer to positions in the abstractions slice.
type Relationship struct {
	FromIndex int    `yaml:"from_abstraction" json:"from_abstraction"`
	ToIndex   int    `yaml:"to_abstraction" json:"to_abstraction"`
	Label     string `yaml:"label" json:"label"`
}

// RelationshipGraph holds the project summary and the edges between
// abstractions produced by the relationship analysis stage.
type RelationshipGraph struct {
	Summary       string         `yaml:"summary" json:"summary"`
	Relationships []Relationship `yaml:"relationships" json:"relationships"`
}

// Chapter represents one drafted tutorial chapter.
type Chapter struct {
	AbstractionIndex int    `json:"abstraction_index"`
	Number           int    `json:"number"`
	Title            string `json:"title"`
	Filename         string `json:"filename"`
	Content          string `json:"content"`
}

// RunStats tracks aggregate statistics for one pipeline run.
type RunStats struct {
	StartTime       time.Time     `json:"start_time"`
	EndTime         time.Time     `json:"end_time"`
	TotalDuration   time.Duration `json:"total_duration"`
	LLMCalls        int           `json:"llm_calls"`
	CacheHits       int           `json:"cache_hits"`
	ChaptersWritten int           `json:"chapters_written"`
}
