package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/timmy/plantgram/internal/repository"
)

// LikeStore is the like persistence used by LikeService.
type LikeStore interface {
	Toggle(ctx context.Context, postID, userID string) (bool, error)
	Count(ctx context.Context, postID string) (int64, error)
	HasLiked(ctx context.Context, postID, userID string) (bool, error)
}

// LikeSummary is a post's like state for one viewer.
type LikeSummary struct {
	PostID string `json:"post_id"`
	Count  int64  `json:"count"`
	Liked  bool   `json:"liked"`
}

// LikeService toggles and counts likes.
type LikeService struct {
	likes LikeStore
	posts PostGetter
}

// NewLikeService creates a new like service.
func NewLikeService(likes LikeStore, posts PostGetter) *LikeService {
	return &LikeService{likes: likes, posts: posts}
}

// Toggle likes or unlikes postID for userID and returns the new summary.
func (s *LikeService) Toggle(ctx context.Context, postID, userID string) (*LikeSummary, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidLike)
	}
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("load post: %w", err)
	}

	liked, err := s.likes.Toggle(ctx, postID, userID)
	if err != nil {
		return nil, fmt.Errorf("toggle like: %w", err)
	}
	count, err := s.likes.Count(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("count likes: %w", err)
	}
	return &LikeSummary{PostID: postID, Count: count, Liked: liked}, nil
}

// Summary returns the like count and, when userID is set, whether that user
// liked the post.
func (s *LikeService) Summary(ctx context.Context, postID, userID string) (*LikeSummary, error) {
	count, err := s.likes.Count(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("count likes: %w", err)
	}
	summary := &LikeSummary{PostID: postID, Count: count}
	if userID = strings.TrimSpace(userID); userID != "" {
		liked, err := s.likes.HasLiked(ctx, postID, userID)
		if err != nil {
			return nil, fmt.Errorf("check like: %w", err)
		}
		summary.Liked = liked
	}
	return summary, nil
}
