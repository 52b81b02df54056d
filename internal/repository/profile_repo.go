package repository

import (
	"context"

	"github.com/timmy/plantgram/internal/domain"
	"gorm.io/gorm"
)

// ProfileRepository handles profile data operations.
type ProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new ProfileRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *ProfileRepository: repository instance bound to db.
func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetByID retrieves a profile by its ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: profile ID.
// Returns:
//   - *domain.Profile: profile record if found.
//   - error: ErrNotFound if no row matches.
func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	var profile domain.Profile
	if err := r.db.WithContext(ctx).First(&profile, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &profile, nil
}

// Create inserts a new profile.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - profile: profile to persist; ID must be set.
// Returns:
//   - error: ErrDuplicate if the ID or username is taken.
func (r *ProfileRepository) Create(ctx context.Context, profile *domain.Profile) error {
	return translate(r.db.WithContext(ctx).Create(profile).Error)
}

// Update applies a column patch to the profile with the given ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: profile ID.
//   - updates: column name to value map.
// Returns:
//   - error: ErrNotFound if no row was updated.
func (r *ProfileRepository) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&domain.Profile{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of profiles with the given ID (0 or 1).
func (r *ProfileRepository) Count(ctx context.Context, id string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Profile{}).Where("id = ?", id).Count(&count).Error
	return count, err
}
