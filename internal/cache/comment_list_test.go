package cache

import (
	"testing"
	"time"

	"github.com/timmy/plantgram/internal/domain"
)

func comments(ids ...string) []domain.Comment {
	out := make([]domain.Comment, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.Comment{ID: id})
	}
	return out
}

func TestCommentListCache_GetSetInvalidate(t *testing.T) {
	c := NewCommentListCache(10, time.Minute)

	if _, ok := c.Get("p1"); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Set("p1", comments("a", "b"))
	got, ok := c.Get("p1")
	if !ok || len(got) != 2 {
		t.Fatalf("expected 2 cached comments, got %v (ok=%v)", got, ok)
	}

	// Callers must not be able to mutate the cached slice.
	got[0].ID = "mutated"
	again, _ := c.Get("p1")
	if again[0].ID != "a" {
		t.Errorf("cache entry was mutated through returned slice")
	}

	c.Invalidate("p1")
	if _, ok := c.Get("p1"); ok {
		t.Error("expected miss after invalidate")
	}
}

func TestCommentListCache_TTL(t *testing.T) {
	now := time.Now()
	c := NewCommentListCache(10, time.Second)
	c.now = func() time.Time { return now }

	c.Set("p1", comments("a"))
	now = now.Add(2 * time.Second)
	if _, ok := c.Get("p1"); ok {
		t.Error("expected expired entry to miss")
	}
	if c.Len() != 0 {
		t.Errorf("expected expired entry to be dropped, len=%d", c.Len())
	}
}

func TestCommentListCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewCommentListCache(2, time.Minute)

	c.Set("p1", comments("a"))
	c.Set("p2", comments("b"))
	c.Get("p1") // p2 is now the oldest
	c.Set("p3", comments("c"))

	if _, ok := c.Get("p2"); ok {
		t.Error("expected p2 to be evicted")
	}
	if _, ok := c.Get("p1"); !ok {
		t.Error("expected p1 to survive")
	}
	if _, ok := c.Get("p3"); !ok {
		t.Error("expected p3 to be cached")
	}
}

func TestCommentListCache_SetIfVersion(t *testing.T) {
	c := NewCommentListCache(10, time.Minute)

	v := c.Version()
	if !c.SetIfVersion("p1", v, comments("a")) {
		t.Fatal("expected fill with a current version to be stored")
	}

	stale := c.Version()
	c.Invalidate("p2")
	if c.SetIfVersion("p3", stale, comments("b")) {
		t.Error("fill started before an invalidation must be dropped")
	}
	if _, ok := c.Get("p3"); ok {
		t.Error("dropped fill must not be readable")
	}
	if _, ok := c.Get("p1"); !ok {
		t.Error("unrelated entries survive other posts' invalidation")
	}
}
