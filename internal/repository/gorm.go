package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/ChristopherKotthoff/distributed-ccl-graph-contraction/pkg/model"
	"gorm.io/gorm"
)

// RunRepository persists a record of each completed engine run.
type RunRepository interface {
	SaveRun(ctx context.Context, run *model.RunResult) error
	GetRunByID(ctx context.Context, id int64) (*model.RunResult, error)
	ListRecentRuns(ctx context.Context, limit int) ([]*model.RunResult, error)
}

// GormRunRepository implements RunRepository using GORM.
type GormRunRepository struct {
	db *gorm.DB
}

// NewGormRunRepository creates a new GormRunRepository.
func NewGormRunRepository(db *gorm.DB) *GormRunRepository {
	return &GormRunRepository{db: db}
}

// SaveRun inserts a completed run record.
func (r *GormRunRepository) SaveRun(ctx context.Context, run *model.RunResult) error {
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to save run result: %w", err)
	}
	return nil
}

// GetRunByID retrieves a run record by its id.
func (r *GormRunRepository) GetRunByID(ctx context.Context, id int64) (*model.RunResult, error) {
	var run model.RunResult

	err := r.db.WithContext(ctx).Where("id = ?", id).First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("run not found: %d", id)
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	return &run, nil
}

// ListRecentRuns returns the most recent run records, newest first.
func (r *GormRunRepository) ListRecentRuns(ctx context.Context, limit int) ([]*model.RunResult, error) {
	var runs []*model.RunResult

	err := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query recent runs: %w", err)
	}

	return runs, nil
}
