package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/timmy/plantgram/internal/domain"
	"gorm.io/gorm"
)

// LikeRepository handles like data operations.
type LikeRepository struct {
	db *gorm.DB
}

// NewLikeRepository creates a new LikeRepository.
func NewLikeRepository(db *gorm.DB) *LikeRepository {
	return &LikeRepository{db: db}
}

// Toggle likes the post for the user, or removes the like if it exists.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - postID: post ID.
//   - userID: liking user.
// Returns:
//   - bool: true if the post is liked after the call.
//   - error: non-nil if the query fails.
func (r *LikeRepository) Toggle(ctx context.Context, postID, userID string) (bool, error) {
	liked := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&domain.Like{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			return nil
		}
		like := &domain.Like{ID: uuid.New().String(), PostID: postID, UserID: userID}
		if err := tx.Create(like).Error; err != nil {
			return translate(err)
		}
		liked = true
		return nil
	})
	if errors.Is(err, ErrDuplicate) {
		// A concurrent toggle inserted the same like first.
		return true, nil
	}
	return liked, err
}

// Count returns the number of likes on a post.
func (r *LikeRepository) Count(ctx context.Context, postID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Like{}).Where("post_id = ?", postID).Count(&count).Error
	return count, err
}

// HasLiked reports whether the user liked the post.
func (r *LikeRepository) HasLiked(ctx context.Context, postID, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Like{}).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Count(&count).Error
	return count > 0, err
}
