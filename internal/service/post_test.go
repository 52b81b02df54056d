package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/timmy/plantgram/internal/domain"
)

type fakeScheduler struct {
	mu        sync.Mutex
	scheduled []string
	cancelled []string
}

func (s *fakeScheduler) Schedule(postID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduled = append(s.scheduled, postID)
	return true
}

func (s *fakeScheduler) Cancel(postID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelled = append(s.cancelled, postID)
	return true
}

type fakeImageRemover struct {
	urls []string
	err  error
}

func (r *fakeImageRemover) DeleteByURL(ctx context.Context, url string) error {
	r.urls = append(r.urls, url)
	return r.err
}

func TestPostService_Create(t *testing.T) {
	tests := []struct {
		name      string
		in        CreatePostInput
		auto      bool
		wantErr   error
		scheduled int
	}{
		{
			name:      "schedules fairy",
			in:        CreatePostInput{UserID: "u1", Title: " 새 잎 "},
			auto:      true,
			scheduled: 1,
		},
		{
			name: "auto disabled",
			in:   CreatePostInput{UserID: "u1", Title: "새 잎"},
		},
		{
			name:    "blank title",
			in:      CreatePostInput{UserID: "u1", Title: "  "},
			auto:    true,
			wantErr: ErrInvalidPost,
		},
		{
			name:    "missing user",
			in:      CreatePostInput{Title: "새 잎"},
			auto:    true,
			wantErr: ErrInvalidPost,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sched := &fakeScheduler{}
			svc := NewPostService(newFakePostStore(), PostServiceOptions{AutoComment: tt.auto, Scheduler: sched}, newTestLogger())

			post, err := svc.Create(context.Background(), tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				if len(sched.scheduled) != 0 {
					t.Error("invalid post must not be scheduled")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if post.ID == "" || post.Title != "새 잎" {
				t.Errorf("unexpected post %+v", post)
			}
			if len(sched.scheduled) != tt.scheduled {
				t.Errorf("expected %d scheduled, got %d", tt.scheduled, len(sched.scheduled))
			}
		})
	}
}

func TestPostService_Delete(t *testing.T) {
	store := newFakePostStore(domain.PlantPost{ID: "p1", UserID: "u1", Title: "t", ImageURL: "http://cdn/u1/a.png"})
	sched := &fakeScheduler{}
	images := &fakeImageRemover{err: errors.New("gone")}
	var deletedHook []string
	svc := NewPostService(store, PostServiceOptions{
		Scheduler: sched,
		Images:    images,
		OnDelete:  []func(string){func(id string) { deletedHook = append(deletedHook, id) }},
	}, newTestLogger())

	if err := svc.Delete(context.Background(), "p1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(sched.cancelled) != 1 || sched.cancelled[0] != "p1" {
		t.Errorf("expected pending fairy task to be cancelled, got %v", sched.cancelled)
	}
	if len(images.urls) != 1 {
		t.Errorf("expected image delete attempt, got %v", images.urls)
	}
	if len(deletedHook) != 1 {
		t.Errorf("expected delete hook, got %v", deletedHook)
	}

	if err := svc.Delete(context.Background(), "p1"); !errors.Is(err, ErrPostNotFound) {
		t.Errorf("expected ErrPostNotFound, got %v", err)
	}
}

func TestPostService_Update(t *testing.T) {
	store := newFakePostStore(domain.PlantPost{ID: "p1", UserID: "u1", Title: "old"})
	svc := NewPostService(store, PostServiceOptions{}, newTestLogger())
	ctx := context.Background()

	blank := " "
	if _, err := svc.Update(ctx, "p1", domain.PostPatch{Title: &blank}); !errors.Is(err, ErrInvalidPost) {
		t.Errorf("expected ErrInvalidPost, got %v", err)
	}

	title := " new "
	post, err := svc.Update(ctx, "p1", domain.PostPatch{Title: &title})
	if err != nil {
		t.Fatal(err)
	}
	if post.Title != "new" {
		t.Errorf("expected trimmed title, got %q", post.Title)
	}

	if _, err := svc.Update(ctx, "missing", domain.PostPatch{Title: &title}); !errors.Is(err, ErrPostNotFound) {
		t.Errorf("expected ErrPostNotFound, got %v", err)
	}
}
