package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/timmy/plantgram/internal/cache"
	"github.com/timmy/plantgram/internal/domain"
)

func newCommentFixture() (*CommentService, *fakeCommentStore, *recordingInvalidator, *cache.CommentListCache) {
	store := &fakeCommentStore{}
	inv := &recordingInvalidator{}
	lists := cache.NewCommentListCache(10, time.Minute)
	posts := newFakePostStore(domain.PlantPost{ID: "p1", UserID: "u1", Title: "t"})
	svc := NewCommentService(store, posts, lists, Invalidators{lists, inv}, testPersona.ID, newTestLogger())
	return svc, store, inv, lists
}

func TestCommentService_CreateValidation(t *testing.T) {
	tests := []struct {
		name    string
		postID  string
		userID  string
		content string
		wantErr error
	}{
		{"empty content", "p1", "u2", "   ", ErrEmptyComment},
		{"too long", "p1", "u2", strings.Repeat("가", MaxCommentRunes+1), ErrCommentTooLong},
		{"missing user", "p1", "", "hi", ErrInvalidComment},
		{"persona id reserved", "p1", testPersona.ID, "hi", ErrInvalidComment},
		{"missing post", "nope", "u2", "hi", ErrPostNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, inv, _ := newCommentFixture()
			_, err := svc.Create(context.Background(), tt.postID, tt.userID, tt.content)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if store.creates != 0 || inv.count() != 0 {
				t.Error("rejected comment must not be stored or invalidate")
			}
		})
	}
}

func TestCommentService_MaxLengthAccepted(t *testing.T) {
	svc, _, _, _ := newCommentFixture()
	if _, err := svc.Create(context.Background(), "p1", "u2", strings.Repeat("가", MaxCommentRunes)); err != nil {
		t.Errorf("expected %d runes to be accepted, got %v", MaxCommentRunes, err)
	}
}

func TestCommentService_ReadThroughAndInvalidate(t *testing.T) {
	svc, store, inv, lists := newCommentFixture()
	ctx := context.Background()

	list, err := svc.ListByPost(ctx, "p1")
	if err != nil || len(list) != 0 {
		t.Fatalf("expected empty list, got %v %v", list, err)
	}
	if lists.Len() != 1 {
		t.Fatalf("expected cached list, got %d entries", lists.Len())
	}

	c, err := svc.Create(ctx, "p1", "u2", "귀여워요")
	if err != nil {
		t.Fatal(err)
	}
	if lists.Len() != 0 {
		t.Error("create must drop the cached list")
	}
	if inv.count() != 1 {
		t.Errorf("expected one invalidation, got %d", inv.count())
	}

	list, _ = svc.ListByPost(ctx, "p1")
	if len(list) != 1 {
		t.Fatalf("expected fresh list with 1 comment, got %d", len(list))
	}

	// A direct store write is invisible until invalidated.
	store.comments = append(store.comments, domain.Comment{ID: "x", PostID: "p1", UserID: "u3", Content: "hi"})
	if list, _ := svc.ListByPost(ctx, "p1"); len(list) != 1 {
		t.Errorf("expected cached list, got %d comments", len(list))
	}

	updated, err := svc.Update(ctx, c.ID, "정말 귀여워요")
	if err != nil {
		t.Fatal(err)
	}
	if updated.Content != "정말 귀여워요" {
		t.Errorf("unexpected content %q", updated.Content)
	}
	if list, _ := svc.ListByPost(ctx, "p1"); len(list) != 2 {
		t.Errorf("expected 2 comments after update invalidated, got %d", len(list))
	}

	if err := svc.Delete(ctx, c.ID); err != nil {
		t.Fatal(err)
	}
	if err := svc.Delete(ctx, c.ID); !errors.Is(err, ErrCommentNotFound) {
		t.Errorf("expected ErrCommentNotFound, got %v", err)
	}
	if inv.count() != 3 {
		t.Errorf("expected 3 invalidations, got %d", inv.count())
	}
}

// pausingCommentStore snapshots the list on the first read, then blocks
// until release is closed before returning it.
type pausingCommentStore struct {
	*fakeCommentStore
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (s *pausingCommentStore) ListByPostID(ctx context.Context, postID string) ([]domain.Comment, error) {
	list, err := s.fakeCommentStore.ListByPostID(ctx, postID)
	paused := false
	s.once.Do(func() { paused = true })
	if paused {
		close(s.entered)
		<-s.release
	}
	return list, err
}

func TestCommentService_FillRacingInvalidateIsDropped(t *testing.T) {
	ctx := context.Background()
	store := &fakeCommentStore{}
	paused := &pausingCommentStore{
		fakeCommentStore: store,
		entered:          make(chan struct{}),
		release:          make(chan struct{}),
	}
	lists := cache.NewCommentListCache(10, time.Minute)
	posts := newFakePostStore(domain.PlantPost{ID: "p1", UserID: "u1", Title: "t"})
	svc := NewCommentService(paused, posts, lists, lists, testPersona.ID, newTestLogger())
	publisher := NewCommentPublisher(store, testPersona.ID, lists)

	done := make(chan []domain.Comment, 1)
	go func() {
		list, _ := svc.ListByPost(ctx, "p1")
		done <- list
	}()

	<-paused.entered
	if _, err := publisher.Publish(ctx, "p1", "새싹이 예뻐요."); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	close(paused.release)

	if old := <-done; len(old) != 0 {
		t.Fatalf("in-flight read should see the old list, got %d", len(old))
	}
	if lists.Len() != 0 {
		t.Fatal("list read before the invalidation must not be cached")
	}
	list, err := svc.ListByPost(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Errorf("expected the published comment after invalidation, got %d", len(list))
	}
}
