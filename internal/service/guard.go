package service

import (
	"context"

	"github.com/timmy/plantgram/internal/domain"
	"github.com/timmy/plantgram/internal/logger"
)

// CommentLister reads a post's comments.
type CommentLister interface {
	ListByPostID(ctx context.Context, postID string) ([]domain.Comment, error)
}

// DuplicateGuard answers whether the fairy already commented on a post.
type DuplicateGuard struct {
	comments  CommentLister
	personaID string
	logger    *logger.Logger
}

// NewDuplicateGuard creates a guard for personaID.
func NewDuplicateGuard(comments CommentLister, personaID string, log *logger.Logger) *DuplicateGuard {
	return &DuplicateGuard{comments: comments, personaID: personaID, logger: log}
}

func (g *DuplicateGuard) log(ctx context.Context) *logger.Logger {
	return logger.FromContextOr(ctx, g.logger)
}

// HasPersonaCommented reports whether any comment on postID is authored by
// the persona. A read failure is logged and reported as false.
func (g *DuplicateGuard) HasPersonaCommented(ctx context.Context, postID string) bool {
	comments, err := g.comments.ListByPostID(ctx, postID)
	if err != nil {
		g.log(ctx).WithError(err).WithField(logger.FieldPostID, postID).
			Warn("Duplicate guard read failed, assuming no persona comment")
		return false
	}
	for _, c := range comments {
		if c.UserID == g.personaID {
			return true
		}
	}
	return false
}
