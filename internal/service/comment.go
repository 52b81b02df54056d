package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/timmy/plantgram/internal/domain"
	"github.com/timmy/plantgram/internal/logger"
	"github.com/timmy/plantgram/internal/repository"
)

// MaxCommentRunes bounds human comment content.
const MaxCommentRunes = 1000

// CommentStore is the comment persistence used by CommentService.
type CommentStore interface {
	ListByPostID(ctx context.Context, postID string) ([]domain.Comment, error)
	GetByID(ctx context.Context, id string) (*domain.Comment, error)
	Create(ctx context.Context, comment *domain.Comment) error
	UpdateContent(ctx context.Context, id, content string) error
	Delete(ctx context.Context, id string) error
}

// CommentListCache is the read-through cache in front of ListByPostID.
// SetIfVersion must refuse a list read before a later invalidation.
type CommentListCache interface {
	Get(postID string) ([]domain.Comment, bool)
	Version() uint64
	SetIfVersion(postID string, version uint64, comments []domain.Comment) bool
}

// CommentService handles human comments. Fairy comments go through
// CommentPublisher.
type CommentService struct {
	comments    CommentStore
	posts       PostGetter
	cache       CommentListCache
	invalidator Invalidator
	personaID   string
	logger      *logger.Logger
}

// NewCommentService creates a new comment service.
// Parameters:
//   - comments: comment store.
//   - posts: used to reject comments on missing posts.
//   - cache: optional list cache; nil disables caching.
//   - invalidator: signalled after every write.
//   - personaID: reserved author id; humans cannot post as the fairy.
//   - log: base logger.
//
// Returns:
//   - *CommentService: ready for concurrent use.
func NewCommentService(
	comments CommentStore,
	posts PostGetter,
	cache CommentListCache,
	invalidator Invalidator,
	personaID string,
	log *logger.Logger,
) *CommentService {
	if invalidator == nil {
		invalidator = Invalidators(nil)
	}
	return &CommentService{
		comments:    comments,
		posts:       posts,
		cache:       cache,
		invalidator: invalidator,
		personaID:   personaID,
		logger:      log,
	}
}

func (s *CommentService) log(ctx context.Context) *logger.Logger {
	return logger.FromContextOr(ctx, s.logger)
}

func validateCommentContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", ErrEmptyComment
	}
	if utf8.RuneCountInString(content) > MaxCommentRunes {
		return "", ErrCommentTooLong
	}
	return content, nil
}

// ListByPost returns a post's comments oldest first.
func (s *CommentService) ListByPost(ctx context.Context, postID string) ([]domain.Comment, error) {
	var version uint64
	if s.cache != nil {
		if comments, ok := s.cache.Get(postID); ok {
			return comments, nil
		}
		version = s.cache.Version()
	}

	comments, err := s.comments.ListByPostID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	if s.cache != nil {
		s.cache.SetIfVersion(postID, version, comments)
	}
	return comments, nil
}

// Create adds a human comment to a post.
func (s *CommentService) Create(ctx context.Context, postID, userID, content string) (*domain.Comment, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidComment)
	}
	if userID == s.personaID {
		return nil, fmt.Errorf("%w: user_id is reserved", ErrInvalidComment)
	}
	content, err := validateCommentContent(content)
	if err != nil {
		return nil, err
	}

	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("load post: %w", err)
	}

	comment := &domain.Comment{
		ID:      uuid.New().String(),
		PostID:  postID,
		UserID:  userID,
		Content: content,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	s.invalidator.Invalidate(postID)
	s.log(ctx).WithFields(logger.Fields{
		logger.FieldPostID: postID,
		logger.FieldUserID: userID,
	}).Debug("Comment created")
	return comment, nil
}

// Update replaces a comment's content.
func (s *CommentService) Update(ctx context.Context, id, content string) (*domain.Comment, error) {
	content, err := validateCommentContent(content)
	if err != nil {
		return nil, err
	}

	existing, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.comments.UpdateContent(ctx, id, content); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("update comment: %w", err)
	}

	s.invalidator.Invalidate(existing.PostID)
	existing.Content = content
	return existing, nil
}

// Delete removes a comment.
func (s *CommentService) Delete(ctx context.Context, id string) error {
	existing, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.comments.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCommentNotFound
		}
		return fmt.Errorf("delete comment: %w", err)
	}

	s.invalidator.Invalidate(existing.PostID)
	return nil
}

func (s *CommentService) get(ctx context.Context, id string) (*domain.Comment, error) {
	c, err := s.comments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("load comment: %w", err)
	}
	return c, nil
}
