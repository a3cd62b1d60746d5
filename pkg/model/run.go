// Package model holds the domain types shared between the engine, the
// CLI, and result persistence.
package model

import "time"

// RunRequest describes one invocation of the connected-components
// engine: which store to read and how many ranks to simulate it with.
type RunRequest struct {
	InputPath string
	Processes int
	Transport string
}

// RunResult is the outcome of one completed run, persisted by
// internal/repository and optionally uploaded via internal/storage.
type RunResult struct {
	ID             int64     `gorm:"primaryKey;autoIncrement"`
	InputPath      string    `gorm:"column:input_path;size:1024;not null"`
	VertexCount    int32     `gorm:"column:vertex_count;not null"`
	Processes      int       `gorm:"column:processes;not null"`
	ComponentCount int32     `gorm:"column:component_count;not null"`
	DurationMillis int64     `gorm:"column:duration_millis;not null"`
	Transport      string    `gorm:"column:transport;size:32;not null"`
	CreatedAt      time.Time `gorm:"column:created_at"`
}

// TableName overrides GORM's pluralized default so the table name stays
// stable across renames of the Go type.
func (RunResult) TableName() string {
	return "run_results"
}
