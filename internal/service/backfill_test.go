package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/timmy/plantgram/internal/domain"
)

type fakeUncommentedLister struct {
	posts []domain.PlantPost
	err   error
}

func (l *fakeUncommentedLister) ListWithoutAuthorComment(ctx context.Context, authorID string, limit int) ([]domain.PlantPost, error) {
	if l.err != nil {
		return nil, l.err
	}
	if limit < len(l.posts) {
		return l.posts[:limit], nil
	}
	return l.posts, nil
}

type fakeRunStore struct {
	mu   sync.Mutex
	runs map[string]domain.BackfillRun
}

func (s *fakeRunStore) Create(ctx context.Context, run *domain.BackfillRun) error {
	return s.Save(ctx, run)
}

func (s *fakeRunStore) Save(ctx context.Context, run *domain.BackfillRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runs == nil {
		s.runs = make(map[string]domain.BackfillRun)
	}
	s.runs[run.ID] = *run
	return nil
}

func (s *fakeRunStore) only(t *testing.T) domain.BackfillRun {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.runs) != 1 {
		t.Fatalf("expected one run record, got %d", len(s.runs))
	}
	for _, r := range s.runs {
		return r
	}
	return domain.BackfillRun{}
}

func TestBackfillService_Run(t *testing.T) {
	posts := []domain.PlantPost{
		{ID: "p1", UserID: "u1", Title: "새싹"},
		{ID: "p2", UserID: "u1", Title: "Tuesday"},
		{ID: "p3", UserID: "u1", Title: "꽃"},
	}
	f := newWorkflowFixture(t, posts...)

	// p2 already has a fairy comment the lister did not see.
	key := "p2"
	f.comments.comments = append(f.comments.comments, domain.Comment{ID: "c", PostID: "p2", UserID: testPersona.ID, PersonaPostKey: &key})

	runs := &fakeRunStore{}
	registry := NewPersonaRegistry(f.profiles, testPersona, newTestLogger())
	svc := NewBackfillService(&fakeUncommentedLister{posts: posts}, runs, f.workflow, registry, newTestLogger(), &BackfillConfig{Workers: 2})

	stats, err := svc.Run(context.Background(), &BackfillOptions{Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if stats.Total != 3 || stats.Published != 2 || stats.Skipped != 1 || stats.Failed != 0 {
		t.Errorf("unexpected stats %+v", stats)
	}
	for _, p := range posts {
		if n := f.comments.countBy(p.ID, testPersona.ID); n != 1 {
			t.Errorf("post %s has %d fairy comments", p.ID, n)
		}
	}

	run := runs.only(t)
	if run.Status != domain.RunStatusCompleted || run.Published != 2 || run.Skipped != 1 || run.CompletedAt == nil {
		t.Errorf("unexpected run record %+v", run)
	}
}

func TestBackfillService_DryRun(t *testing.T) {
	posts := []domain.PlantPost{{ID: "p1", UserID: "u1", Title: "새싹"}}
	f := newWorkflowFixture(t, posts...)
	registry := NewPersonaRegistry(f.profiles, testPersona, newTestLogger())
	svc := NewBackfillService(&fakeUncommentedLister{posts: posts}, nil, f.workflow, registry, newTestLogger(), nil)

	stats, err := svc.Run(context.Background(), &BackfillOptions{DryRun: true})
	if err != nil {
		t.Fatal(err)
	}
	if stats.Previewed != 1 || stats.Published != 0 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if f.comments.creates != 0 || f.profiles.count() != 0 {
		t.Error("dry run must not write")
	}
}

func TestBackfillService_Errors(t *testing.T) {
	f := newWorkflowFixture(t)
	registry := NewPersonaRegistry(f.profiles, testPersona, newTestLogger())

	svc := NewBackfillService(&fakeUncommentedLister{err: errors.New("db down")}, nil, f.workflow, registry, newTestLogger(), nil)
	if _, err := svc.Run(context.Background(), &BackfillOptions{}); err == nil {
		t.Error("expected listing error")
	}

	f.profiles.getErr = errors.New("db down")
	svc = NewBackfillService(&fakeUncommentedLister{}, nil, f.workflow, registry, newTestLogger(), nil)
	if _, err := svc.Run(context.Background(), &BackfillOptions{}); !errors.Is(err, ErrPersonaBootstrap) {
		t.Errorf("expected ErrPersonaBootstrap, got %v", err)
	}
}
