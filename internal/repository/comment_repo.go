package repository

import (
	"context"

	"github.com/timmy/plantgram/internal/domain"
	"gorm.io/gorm"
)

// CommentRepository handles comment data operations.
type CommentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *CommentRepository: repository instance bound to db.
func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// ListByPostID returns the comments on a post, oldest first, with authors preloaded.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - postID: post ID.
// Returns:
//   - []domain.Comment: comments on the post.
//   - error: non-nil if the query fails.
func (r *CommentRepository) ListByPostID(ctx context.Context, postID string) ([]domain.Comment, error) {
	var comments []domain.Comment
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&comments).Error
	return comments, err
}

// GetByID retrieves a comment by its ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: comment ID.
// Returns:
//   - *domain.Comment: comment if found.
//   - error: ErrNotFound if no row matches.
func (r *CommentRepository) GetByID(ctx context.Context, id string) (*domain.Comment, error) {
	var comment domain.Comment
	if err := r.db.WithContext(ctx).First(&comment, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &comment, nil
}

// Create inserts a new comment.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - comment: comment to persist; ID must be set.
// Returns:
//   - error: ErrDuplicate if a unique index rejects the row.
func (r *CommentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	return translate(r.db.WithContext(ctx).Omit("Author").Create(comment).Error)
}

// UpdateContent replaces the content of a comment.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: comment ID.
//   - content: new comment body.
// Returns:
//   - error: ErrNotFound if no row was updated.
func (r *CommentRepository) UpdateContent(ctx context.Context, id, content string) error {
	result := r.db.WithContext(ctx).Model(&domain.Comment{}).Where("id = ?", id).Update("content", content)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a comment.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: comment ID.
// Returns:
//   - error: ErrNotFound if no row was deleted.
func (r *CommentRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Comment{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountByPost returns the number of comments on a post.
func (r *CommentRepository) CountByPost(ctx context.Context, postID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Comment{}).Where("post_id = ?", postID).Count(&count).Error
	return count, err
}
