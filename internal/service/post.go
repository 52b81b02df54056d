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

// MaxTitleRunes bounds post titles.
const MaxTitleRunes = 100

// PostStore is the post persistence used by PostService.
type PostStore interface {
	Create(ctx context.Context, post *domain.PlantPost) error
	GetByID(ctx context.Context, id string) (*domain.PlantPost, error)
	List(ctx context.Context, limit, offset int) ([]domain.PlantPost, error)
	Update(ctx context.Context, id string, updates map[string]interface{}) error
	Delete(ctx context.Context, id string) error
}

// AutoScheduler defers the automatic fairy trigger.
type AutoScheduler interface {
	Schedule(postID string) bool
	Cancel(postID string) bool
}

// ImageRemover deletes a stored image by its public URL.
type ImageRemover interface {
	DeleteByURL(ctx context.Context, url string) error
}

// PostServiceOptions carries the optional collaborators of PostService.
type PostServiceOptions struct {
	// AutoComment schedules the fairy after every successful create.
	AutoComment bool
	Scheduler   AutoScheduler
	Images      ImageRemover
	// OnDelete hooks run after a post is removed.
	OnDelete []func(postID string)
}

// PostService handles post CRUD.
type PostService struct {
	posts  PostStore
	opts   PostServiceOptions
	logger *logger.Logger
}

// NewPostService creates a new post service.
func NewPostService(posts PostStore, opts PostServiceOptions, log *logger.Logger) *PostService {
	return &PostService{posts: posts, opts: opts, logger: log}
}

func (s *PostService) log(ctx context.Context) *logger.Logger {
	return logger.FromContextOr(ctx, s.logger)
}

// CreatePostInput is the caller-supplied part of a new post.
type CreatePostInput struct {
	UserID      string `json:"user_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	PlantType   string `json:"plant_type"`
	Location    string `json:"location"`
}

func validateTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidPost)
	}
	if utf8.RuneCountInString(title) > MaxTitleRunes {
		return fmt.Errorf("%w: title must be at most %d characters", ErrInvalidPost, MaxTitleRunes)
	}
	return nil
}

// Create stores a new post and, when enabled, schedules the automatic fairy
// comment for it.
func (s *PostService) Create(ctx context.Context, in CreatePostInput) (*domain.PlantPost, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidPost)
	}
	if err := validateTitle(in.Title); err != nil {
		return nil, err
	}

	post := &domain.PlantPost{
		ID:          uuid.New().String(),
		UserID:      strings.TrimSpace(in.UserID),
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		ImageURL:    strings.TrimSpace(in.ImageURL),
		PlantType:   strings.TrimSpace(in.PlantType),
		Location:    strings.TrimSpace(in.Location),
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	if s.opts.AutoComment && s.opts.Scheduler != nil {
		s.opts.Scheduler.Schedule(post.ID)
	}

	s.log(ctx).WithField(logger.FieldPostID, post.ID).Info("Post created")
	return post, nil
}

// Get returns a post with its author.
func (s *PostService) Get(ctx context.Context, id string) (*domain.PlantPost, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return post, nil
}

// List returns posts newest first. limit defaults to 20 and is capped at 100.
func (s *PostService) List(ctx context.Context, limit, offset int) ([]domain.PlantPost, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.posts.List(ctx, limit, offset)
}

// Update applies patch and returns the updated post.
func (s *PostService) Update(ctx context.Context, id string, patch domain.PostPatch) (*domain.PlantPost, error) {
	if patch.Title != nil {
		if err := validateTitle(*patch.Title); err != nil {
			return nil, err
		}
		title := strings.TrimSpace(*patch.Title)
		patch.Title = &title
	}
	if err := s.posts.Update(ctx, id, patch.Updates()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("update post: %w", err)
	}
	return s.Get(ctx, id)
}

// Delete removes a post with its comments and likes. A pending automatic
// fairy comment is cancelled first. Image removal is best effort.
func (s *PostService) Delete(ctx context.Context, id string) error {
	post, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if s.opts.Scheduler != nil {
		s.opts.Scheduler.Cancel(id)
	}

	if err := s.posts.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPostNotFound
		}
		return fmt.Errorf("delete post: %w", err)
	}

	if post.ImageURL != "" && s.opts.Images != nil {
		if err := s.opts.Images.DeleteByURL(ctx, post.ImageURL); err != nil {
			s.log(ctx).WithError(err).WithField(logger.FieldPostID, id).Warn("Failed to delete post image")
		}
	}

	for _, hook := range s.opts.OnDelete {
		hook(id)
	}

	s.log(ctx).WithField(logger.FieldPostID, id).Info("Post deleted")
	return nil
}
