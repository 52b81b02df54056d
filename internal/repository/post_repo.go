package repository

import (
	"context"

	"github.com/timmy/plantgram/internal/domain"
	"gorm.io/gorm"
)

// PostRepository handles plant post data operations.
type PostRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new PostRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *PostRepository: repository instance bound to db.
func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

// Create inserts a new post.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - post: post to persist; ID must be set.
// Returns:
//   - error: non-nil if the insert fails.
func (r *PostRepository) Create(ctx context.Context, post *domain.PlantPost) error {
	return translate(r.db.WithContext(ctx).Create(post).Error)
}

// GetByID retrieves a post by its ID with its author preloaded.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: post ID.
// Returns:
//   - *domain.PlantPost: post record if found.
//   - error: ErrNotFound if no row matches.
func (r *PostRepository) GetByID(ctx context.Context, id string) (*domain.PlantPost, error) {
	var post domain.PlantPost
	if err := r.db.WithContext(ctx).Preload("Author").First(&post, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

// List retrieves posts newest first.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - limit: maximum number of posts to return.
//   - offset: number of posts to skip.
// Returns:
//   - []domain.PlantPost: posts in the requested page.
//   - error: non-nil if the query fails.
func (r *PostRepository) List(ctx context.Context, limit, offset int) ([]domain.PlantPost, error) {
	var posts []domain.PlantPost
	err := r.db.WithContext(ctx).
		Preload("Author").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	return posts, err
}

// ListWithoutAuthorComment returns posts, oldest first, that have no comment
// by the given author.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - authorID: comment author to exclude.
//   - limit: maximum number of posts to return.
// Returns:
//   - []domain.PlantPost: posts still lacking a comment by authorID.
//   - error: non-nil if the query fails.
func (r *PostRepository) ListWithoutAuthorComment(ctx context.Context, authorID string, limit int) ([]domain.PlantPost, error) {
	var posts []domain.PlantPost
	sub := r.db.Model(&domain.Comment{}).Select("post_id").Where("user_id = ?", authorID)
	err := r.db.WithContext(ctx).
		Where("id NOT IN (?)", sub).
		Order("created_at ASC").
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

// Update applies a column patch to a post.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: post ID.
//   - updates: column name to value map.
// Returns:
//   - error: ErrNotFound if no row was updated.
func (r *PostRepository) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	if len(updates) == 0 {
		_, err := r.GetByID(ctx, id)
		return err
	}
	result := r.db.WithContext(ctx).Model(&domain.PlantPost{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a post together with its comments and likes.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: post ID.
// Returns:
//   - error: ErrNotFound if the post does not exist.
func (r *PostRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&domain.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&domain.Like{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&domain.PlantPost{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
