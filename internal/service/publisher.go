package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/timmy/plantgram/internal/domain"
	"github.com/timmy/plantgram/internal/repository"
)

// CommentCreator inserts comments.
type CommentCreator interface {
	Create(ctx context.Context, comment *domain.Comment) error
}

// CommentPublisher inserts the fairy's comment and signals invalidation.
// It does not retry.
type CommentPublisher struct {
	comments    CommentCreator
	personaID   string
	invalidator Invalidator
}

// NewCommentPublisher creates a publisher attributing comments to personaID.
func NewCommentPublisher(comments CommentCreator, personaID string, invalidator Invalidator) *CommentPublisher {
	if invalidator == nil {
		invalidator = Invalidators(nil)
	}
	return &CommentPublisher{comments: comments, personaID: personaID, invalidator: invalidator}
}

// Publish inserts text as the persona's comment on postID. The persona
// profile must already exist.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - postID: target post.
//   - text: comment body; must not be blank.
//
// Returns:
//   - *domain.Comment: the stored comment.
//   - error: ErrEmptyComment for blank text, ErrAlreadyCommented when the
//     store already holds a persona comment for the post, or ErrPublish.
func (p *CommentPublisher) Publish(ctx context.Context, postID, text string) (*domain.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyComment
	}

	key := postID
	comment := &domain.Comment{
		ID:             uuid.New().String(),
		PostID:         postID,
		UserID:         p.personaID,
		Content:        text,
		PersonaPostKey: &key,
	}
	if err := p.comments.Create(ctx, comment); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyCommented
		}
		return nil, fmt.Errorf("%w: %v", ErrPublish, err)
	}

	p.invalidator.Invalidate(postID)
	return comment, nil
}
