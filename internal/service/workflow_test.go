package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/timmy/plantgram/internal/domain"
	"github.com/timmy/plantgram/internal/repository"
)

type workflowFixture struct {
	posts         *fakePostStore
	profiles      *fakeProfileStore
	comments      *fakeCommentStore
	invalidations *recordingInvalidator
	workflow      *FairyWorkflow
}

func newWorkflowFixture(t *testing.T, posts ...domain.PlantPost) *workflowFixture {
	t.Helper()
	log := newTestLogger()
	f := &workflowFixture{
		posts:         newFakePostStore(posts...),
		profiles:      newFakeProfileStore(),
		comments:      &fakeCommentStore{},
		invalidations: &recordingInvalidator{},
	}
	gen := NewCommentGenerator(nil, nil, NewTemplateGenerator(NewRandSource(1), 0), GeneratorConfig{}, log)
	f.workflow = NewFairyWorkflow(
		f.posts,
		NewDuplicateGuard(f.comments, testPersona.ID, log),
		gen,
		NewPersonaRegistry(f.profiles, testPersona, log),
		NewCommentPublisher(f.comments, testPersona.ID, f.invalidations),
		time.Second,
		log,
	)
	return f
}

func TestFairyWorkflow_PublishThenNoOp(t *testing.T) {
	post := domain.PlantPost{ID: "post-1", UserID: "user-1", Title: "새싹이 자랐어요"}
	f := newWorkflowFixture(t, post)
	ctx := context.Background()

	if f.workflow.HasCommented(ctx, post.ID) {
		t.Fatal("guard reported a comment before any run")
	}

	res, err := f.workflow.RunByID(ctx, post.ID, TriggerManual)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if res.Outcome != OutcomePublished || res.Comment == nil {
		t.Fatalf("expected published comment, got %+v", res)
	}
	if res.Comment.UserID != testPersona.ID || res.Comment.Content == "" {
		t.Errorf("unexpected comment %+v", res.Comment)
	}
	if f.profiles.count() != 1 {
		t.Errorf("expected persona to be created, got %d profiles", f.profiles.count())
	}
	if f.invalidations.count() != 1 {
		t.Errorf("expected one invalidation, got %d", f.invalidations.count())
	}

	if !f.workflow.HasCommented(ctx, post.ID) {
		t.Fatal("guard did not see the published comment")
	}

	res, err = f.workflow.RunByID(ctx, post.ID, TriggerManual)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if res.Outcome != OutcomeAlreadyCommented {
		t.Errorf("expected already commented, got %s", res.Outcome)
	}
	if n := f.comments.countBy(post.ID, testPersona.ID); n != 1 {
		t.Errorf("expected one fairy comment, got %d", n)
	}
	if f.invalidations.count() != 1 {
		t.Errorf("no-op run must not invalidate, got %d", f.invalidations.count())
	}
}

func TestFairyWorkflow_ConcurrentRunsPublishOnce(t *testing.T) {
	post := domain.PlantPost{ID: "post-1", UserID: "user-1", Title: "Tuesday"}
	f := newWorkflowFixture(t, post)

	var wg sync.WaitGroup
	results := make(chan *RunResult, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(trigger Trigger) {
			defer wg.Done()
			res, err := f.workflow.RunByID(context.Background(), post.ID, trigger)
			if err != nil {
				t.Errorf("run failed: %v", err)
				return
			}
			results <- res
		}([]Trigger{TriggerAuto, TriggerManual}[i%2])
	}
	wg.Wait()
	close(results)

	published := 0
	for res := range results {
		if res.Outcome == OutcomePublished {
			published++
		}
	}
	if published != 1 {
		t.Errorf("expected exactly one published outcome, got %d", published)
	}
	if n := f.comments.countBy(post.ID, testPersona.ID); n != 1 {
		t.Errorf("expected one fairy comment, got %d", n)
	}
}

func TestFairyWorkflow_StoreRejectsDuplicate(t *testing.T) {
	post := domain.PlantPost{ID: "post-1", UserID: "user-1", Title: "Tuesday"}
	f := newWorkflowFixture(t, post)

	// Another process already stored the fairy comment, but the guard read fails.
	key := post.ID
	f.comments.comments = append(f.comments.comments, domain.Comment{
		ID: "c-0", PostID: post.ID, UserID: testPersona.ID, Content: "먼저 왔어요", PersonaPostKey: &key,
	})
	f.comments.listErr = errors.New("replica lag")

	res, err := f.workflow.RunByID(context.Background(), post.ID, TriggerAuto)
	if err != nil {
		t.Fatalf("expected duplicate to be a no-op success, got %v", err)
	}
	if res.Outcome != OutcomeAlreadyCommented {
		t.Errorf("expected already commented, got %s", res.Outcome)
	}
	if f.invalidations.count() != 0 {
		t.Errorf("expected no invalidation, got %d", f.invalidations.count())
	}
}

func TestFairyWorkflow_Errors(t *testing.T) {
	post := domain.PlantPost{ID: "post-1", UserID: "user-1", Title: "Tuesday"}

	t.Run("missing post", func(t *testing.T) {
		f := newWorkflowFixture(t)
		_, err := f.workflow.RunByID(context.Background(), "nope", TriggerManual)
		if !errors.Is(err, ErrPostNotFound) {
			t.Errorf("expected ErrPostNotFound, got %v", err)
		}
	})

	t.Run("persona bootstrap aborts publish", func(t *testing.T) {
		f := newWorkflowFixture(t, post)
		f.profiles.createErr = errors.New("no permission")
		_, err := f.workflow.RunByID(context.Background(), post.ID, TriggerManual)
		if !errors.Is(err, ErrPersonaBootstrap) {
			t.Errorf("expected ErrPersonaBootstrap, got %v", err)
		}
		if f.comments.creates != 0 {
			t.Errorf("expected no insert, got %d", f.comments.creates)
		}
	})

	t.Run("insert failure", func(t *testing.T) {
		f := newWorkflowFixture(t, post)
		f.comments.createErr = errors.New("disk full")
		_, err := f.workflow.RunByID(context.Background(), post.ID, TriggerManual)
		if !errors.Is(err, ErrPublish) {
			t.Errorf("expected ErrPublish, got %v", err)
		}
		if f.invalidations.count() != 0 {
			t.Errorf("failed publish must not invalidate")
		}
	})
}

func TestCommentPublisher(t *testing.T) {
	store := &fakeCommentStore{}
	inv := &recordingInvalidator{}
	pub := NewCommentPublisher(store, testPersona.ID, inv)
	ctx := context.Background()

	if _, err := pub.Publish(ctx, "post-1", "  "); !errors.Is(err, ErrEmptyComment) {
		t.Errorf("expected ErrEmptyComment, got %v", err)
	}

	c, err := pub.Publish(ctx, "post-1", " 안녕하세요! ")
	if err != nil {
		t.Fatal(err)
	}
	if c.Content != "안녕하세요!" || c.PersonaPostKey == nil || *c.PersonaPostKey != "post-1" {
		t.Errorf("unexpected comment %+v", c)
	}

	if _, err := pub.Publish(ctx, "post-1", "또 왔어요"); !errors.Is(err, ErrAlreadyCommented) {
		t.Errorf("expected ErrAlreadyCommented, got %v", err)
	}
	if inv.count() != 1 {
		t.Errorf("expected one invalidation, got %d", inv.count())
	}
}

func TestDuplicateGuard(t *testing.T) {
	store := &fakeCommentStore{comments: []domain.Comment{
		{ID: "1", PostID: "p1", UserID: "human"},
		{ID: "2", PostID: "p2", UserID: testPersona.ID},
	}}
	guard := NewDuplicateGuard(store, testPersona.ID, newTestLogger())
	ctx := context.Background()

	if guard.HasPersonaCommented(ctx, "p1") {
		t.Error("p1 has only a human comment")
	}
	if !guard.HasPersonaCommented(ctx, "p2") {
		t.Error("p2 has a fairy comment")
	}

	store.listErr = repository.ErrNotFound
	if guard.HasPersonaCommented(ctx, "p2") {
		t.Error("read failure must report false")
	}
}

func TestFairyWorkflow_HangingBackendLeavesTimeToPublish(t *testing.T) {
	post := domain.PlantPost{ID: "post-1", UserID: "user-1", Title: "새싹이 자랐어요"}
	f := newWorkflowFixture(t, post)
	log := newTestLogger()

	hanging := &fakeBackend{name: "hanging", fn: func(ctx context.Context, req ChatRequest) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	// The remote budget is longer than the whole run.
	gen := NewCommentGenerator([]TextGenerator{hanging}, nil, NewTemplateGenerator(NewRandSource(1), 0),
		enabledConfig(300*time.Millisecond), log)
	f.workflow = NewFairyWorkflow(
		f.posts,
		NewDuplicateGuard(f.comments, testPersona.ID, log),
		gen,
		NewPersonaRegistry(f.profiles, testPersona, log),
		NewCommentPublisher(f.comments, testPersona.ID, f.invalidations),
		200*time.Millisecond,
		log,
	)

	res, err := f.workflow.RunByID(context.Background(), post.ID, TriggerManual)
	if err != nil {
		t.Fatalf("run failed after a hanging backend: %v", err)
	}
	if res.Outcome != OutcomePublished || res.Generation.Source != SourceFallback {
		t.Errorf("expected a published fallback comment, got %s/%s", res.Outcome, res.Generation.Source)
	}
	if hanging.callCount() != 1 {
		t.Errorf("expected one remote attempt, got %d", hanging.callCount())
	}
	if f.profiles.count() != 1 {
		t.Error("persona must be created within the run deadline")
	}
}
