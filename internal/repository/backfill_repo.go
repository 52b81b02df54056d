package repository

import (
	"context"

	"github.com/timmy/plantgram/internal/domain"
	"gorm.io/gorm"
)

// BackfillRunRepository persists backfill run records.
type BackfillRunRepository struct {
	db *gorm.DB
}

// NewBackfillRunRepository creates a new BackfillRunRepository.
func NewBackfillRunRepository(db *gorm.DB) *BackfillRunRepository {
	return &BackfillRunRepository{db: db}
}

// Create inserts a new run record.
func (r *BackfillRunRepository) Create(ctx context.Context, run *domain.BackfillRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

// Save writes the full run record, including counters and status.
func (r *BackfillRunRepository) Save(ctx context.Context, run *domain.BackfillRun) error {
	return r.db.WithContext(ctx).Save(run).Error
}

// Latest returns the most recent run.
func (r *BackfillRunRepository) Latest(ctx context.Context) (*domain.BackfillRun, error) {
	var run domain.BackfillRun
	if err := r.db.WithContext(ctx).Order("started_at DESC").First(&run).Error; err != nil {
		return nil, translate(err)
	}
	return &run, nil
}
