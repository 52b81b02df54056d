package service

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/timmy/plantgram/internal/config"
	"github.com/timmy/plantgram/internal/domain"
	"github.com/timmy/plantgram/internal/logger"
	"github.com/timmy/plantgram/internal/repository"
)

func newTestLogger() *logger.Logger {
	return logger.New(&logger.Config{Level: "error", Format: "json", Output: io.Discard})
}

var testPersona = config.PersonaConfig{
	ID:          config.DefaultPersonaID,
	Username:    "plant_fairy",
	DisplayName: "식물 요정",
	AvatarURL:   "/images/plant-fairy-avatar.png",
	Bio:         "식물 요정이에요",
}

type fakeProfileStore struct {
	mu        sync.Mutex
	profiles  map[string]domain.Profile
	getErr    error
	createErr error
	updateErr error
	creates   int
	updates   int
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{profiles: make(map[string]domain.Profile)}
}

func (s *fakeProfileStore) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	p, ok := s.profiles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (s *fakeProfileStore) Create(ctx context.Context, profile *domain.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates++
	if s.createErr != nil {
		return s.createErr
	}
	if _, ok := s.profiles[profile.ID]; ok {
		return repository.ErrDuplicate
	}
	s.profiles[profile.ID] = *profile
	return nil
}

func (s *fakeProfileStore) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates++
	if s.updateErr != nil {
		return s.updateErr
	}
	p, ok := s.profiles[id]
	if !ok {
		return repository.ErrNotFound
	}
	if v, ok := updates["avatar_url"].(string); ok {
		p.AvatarURL = v
	}
	s.profiles[id] = p
	return nil
}

func (s *fakeProfileStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.profiles)
}

// fakeCommentStore enforces the persona uniqueness the real index provides.
type fakeCommentStore struct {
	mu        sync.Mutex
	comments  []domain.Comment
	listErr   error
	createErr error
	creates   int
}

func (s *fakeCommentStore) ListByPostID(ctx context.Context, postID string) ([]domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []domain.Comment
	for _, c := range s.comments {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *fakeCommentStore) GetByID(ctx context.Context, id string) (*domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.comments {
		if c.ID == id {
			c := c
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *fakeCommentStore) Create(ctx context.Context, comment *domain.Comment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates++
	if s.createErr != nil {
		return s.createErr
	}
	if comment.PersonaPostKey != nil {
		for _, c := range s.comments {
			if c.PersonaPostKey != nil && *c.PersonaPostKey == *comment.PersonaPostKey {
				return repository.ErrDuplicate
			}
		}
	}
	s.comments = append(s.comments, *comment)
	return nil
}

func (s *fakeCommentStore) UpdateContent(ctx context.Context, id, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.comments {
		if s.comments[i].ID == id {
			s.comments[i].Content = content
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *fakeCommentStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.comments {
		if s.comments[i].ID == id {
			s.comments = append(s.comments[:i], s.comments[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *fakeCommentStore) countBy(postID, userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.comments {
		if c.PostID == postID && c.UserID == userID {
			n++
		}
	}
	return n
}

type fakePostStore struct {
	mu      sync.Mutex
	posts   map[string]domain.PlantPost
	deleted []string
}

func newFakePostStore(posts ...domain.PlantPost) *fakePostStore {
	s := &fakePostStore{posts: make(map[string]domain.PlantPost)}
	for _, p := range posts {
		s.posts[p.ID] = p
	}
	return s
}

func (s *fakePostStore) Create(ctx context.Context, post *domain.PlantPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts[post.ID] = *post
	return nil
}

func (s *fakePostStore) GetByID(ctx context.Context, id string) (*domain.PlantPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (s *fakePostStore) List(ctx context.Context, limit, offset int) ([]domain.PlantPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.PlantPost, 0, len(s.posts))
	for _, p := range s.posts {
		out = append(out, p)
	}
	return out, nil
}

func (s *fakePostStore) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return repository.ErrNotFound
	}
	if v, ok := updates["title"].(string); ok {
		p.Title = v
	}
	if v, ok := updates["description"].(string); ok {
		p.Description = v
	}
	s.posts[id] = p
	return nil
}

func (s *fakePostStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.posts, id)
	s.deleted = append(s.deleted, id)
	return nil
}

type recordingInvalidator struct {
	mu    sync.Mutex
	calls []string
}

func (r *recordingInvalidator) Invalidate(postID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, postID)
}

func (r *recordingInvalidator) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

type fakeBackend struct {
	name  string
	fn    func(ctx context.Context, req ChatRequest) (string, error)
	calls int32
}

func (b *fakeBackend) Name() string { return b.name }

func (b *fakeBackend) Complete(ctx context.Context, req ChatRequest) (string, error) {
	atomic.AddInt32(&b.calls, 1)
	return b.fn(ctx, req)
}

func (b *fakeBackend) callCount() int {
	return int(atomic.LoadInt32(&b.calls))
}

// runnerFunc adapts a function to PostRunner.
type runnerFunc func(ctx context.Context, postID string, trigger Trigger) (*RunResult, error)

func (f runnerFunc) RunByID(ctx context.Context, postID string, trigger Trigger) (*RunResult, error) {
	return f(ctx, postID, trigger)
}

type guardFunc func(ctx context.Context, postID string) bool

func (f guardFunc) HasCommented(ctx context.Context, postID string) bool { return f(ctx, postID) }

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
