package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestManualTrigger_StateMachine(t *testing.T) {
	ctx := context.Background()

	t.Run("mount hidden when already commented", func(t *testing.T) {
		tr := NewManualTrigger("p1", guardFunc(func(context.Context, string) bool { return true }), nil)
		if st := tr.Mount(ctx); st != StateHidden {
			t.Fatalf("expected hidden, got %s", st)
		}
		res := tr.Activate(ctx)
		if res.Ran || res.State != StateHidden {
			t.Errorf("activate on hidden must be a no-op, got %+v", res)
		}
	})

	t.Run("idle activate is a no-op", func(t *testing.T) {
		var calls int32
		runner := runnerFunc(func(context.Context, string, Trigger) (*RunResult, error) {
			atomic.AddInt32(&calls, 1)
			return &RunResult{}, nil
		})
		tr := NewManualTrigger("p1", guardFunc(func(context.Context, string) bool { return false }), runner)
		if res := tr.Activate(ctx); res.Ran || res.State != StateIdle {
			t.Errorf("expected idle no-op, got %+v", res)
		}
		if calls != 0 {
			t.Errorf("runner called %d times", calls)
		}
	})

	t.Run("visible to hidden on success", func(t *testing.T) {
		var gotTrigger Trigger
		runner := runnerFunc(func(_ context.Context, _ string, trigger Trigger) (*RunResult, error) {
			gotTrigger = trigger
			return &RunResult{Outcome: OutcomePublished}, nil
		})
		tr := NewManualTrigger("p1", guardFunc(func(context.Context, string) bool { return false }), runner)
		if st := tr.Mount(ctx); st != StateVisible {
			t.Fatalf("expected visible, got %s", st)
		}
		res := tr.Activate(ctx)
		if !res.Ran || res.State != StateHidden || res.Err != nil {
			t.Fatalf("unexpected result %+v", res)
		}
		if gotTrigger != TriggerManual {
			t.Errorf("expected manual trigger, got %s", gotTrigger)
		}
		if again := tr.Activate(ctx); again.Ran {
			t.Error("second activate must be a no-op")
		}
	})

	t.Run("failure returns to visible with error", func(t *testing.T) {
		fail := true
		runner := runnerFunc(func(context.Context, string, Trigger) (*RunResult, error) {
			if fail {
				return nil, ErrPublish
			}
			return &RunResult{}, nil
		})
		tr := NewManualTrigger("p1", guardFunc(func(context.Context, string) bool { return false }), runner)
		tr.Mount(ctx)

		res := tr.Activate(ctx)
		if !res.Ran || res.State != StateVisible || !errors.Is(res.Err, ErrPublish) {
			t.Fatalf("unexpected result %+v", res)
		}
		if st := tr.Status(); st.State != StateVisible || st.Error == "" {
			t.Errorf("expected visible with error, got %+v", st)
		}

		fail = false
		res = tr.Activate(ctx)
		if res.State != StateHidden {
			t.Errorf("retry should succeed, got %+v", res)
		}
		if st := tr.Status(); st.Error != "" {
			t.Errorf("error should clear after success, got %q", st.Error)
		}
	})
}

func TestManualTrigger_LoadingRejectsActivate(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	var calls int32
	runner := runnerFunc(func(context.Context, string, Trigger) (*RunResult, error) {
		atomic.AddInt32(&calls, 1)
		close(entered)
		<-release
		return &RunResult{}, nil
	})
	tr := NewManualTrigger("p1", guardFunc(func(context.Context, string) bool { return false }), runner)
	tr.Mount(context.Background())

	done := make(chan ActivateResult)
	go func() { done <- tr.Activate(context.Background()) }()
	<-entered

	if res := tr.Activate(context.Background()); res.Ran || res.State != StateLoading {
		t.Errorf("activate while loading must be a no-op, got %+v", res)
	}
	close(release)
	if res := <-done; res.State != StateHidden {
		t.Errorf("expected hidden, got %+v", res)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("expected one run, got %d", n)
	}
}

func TestManualTriggers_Registry(t *testing.T) {
	guard := guardFunc(func(context.Context, string) bool { return false })
	reg := NewManualTriggers(guard, nil, 2)

	a := reg.Get("p1", "v1")
	if reg.Get("p1", "v1") != a {
		t.Error("expected the same trigger for the same post and view")
	}
	if reg.Get("p1", "v2") == a {
		t.Error("views must not share triggers")
	}

	reg.Forget("p1")
	if reg.Get("p1", "v1") == a {
		t.Error("forget should drop the post's triggers")
	}

	reg.Get("p2", "")
	reg.Get("p3", "")
	reg.mu.Lock()
	n := len(reg.triggers)
	reg.mu.Unlock()
	if n > 2 {
		t.Errorf("expected at most 2 triggers, got %d", n)
	}
}
