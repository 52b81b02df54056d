package service

import (
	"context"
	"strings"
	"sync"
)

// TriggerState is the state of a manual fairy trigger.
type TriggerState string

const (
	StateIdle    TriggerState = "idle"    // not yet checked
	StateHidden  TriggerState = "hidden"  // the fairy already commented
	StateVisible TriggerState = "visible" // the user may ask for a comment
	StateLoading TriggerState = "loading" // a request is in flight
)

// GuardChecker reports whether the fairy already commented on a post.
type GuardChecker interface {
	HasCommented(ctx context.Context, postID string) bool
}

// ManualTrigger is the user-facing "ask the fairy" control for one post in
// one view:
//
//	Idle --Mount--> Hidden | Visible
//	Visible --Activate--> Loading --ok--> Hidden
//	                      Loading --fail--> Visible (error kept for retry)
type ManualTrigger struct {
	postID string
	guard  GuardChecker
	runner PostRunner

	mu      sync.Mutex
	state   TriggerState
	lastErr error
}

// NewManualTrigger creates an Idle trigger for postID.
func NewManualTrigger(postID string, guard GuardChecker, runner PostRunner) *ManualTrigger {
	return &ManualTrigger{postID: postID, guard: guard, runner: runner, state: StateIdle}
}

// TriggerStatus is a snapshot of a trigger.
type TriggerStatus struct {
	State TriggerState `json:"state"`
	Error string       `json:"error,omitempty"`
}

// Status returns the current state and the last error, if any.
func (t *ManualTrigger) Status() TriggerStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	st := TriggerStatus{State: t.state}
	if t.lastErr != nil {
		st.Error = t.lastErr.Error()
	}
	return st
}

// Mount runs the initial guard check. It only has an effect in Idle.
func (t *ManualTrigger) Mount(ctx context.Context) TriggerState {
	t.mu.Lock()
	if t.state != StateIdle {
		defer t.mu.Unlock()
		return t.state
	}
	t.mu.Unlock()

	commented := t.guard.HasCommented(ctx, t.postID)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == StateIdle {
		if commented {
			t.state = StateHidden
		} else {
			t.state = StateVisible
		}
	}
	return t.state
}

// ActivateResult reports what Activate did.
type ActivateResult struct {
	Ran    bool
	State  TriggerState
	Result *RunResult
	Err    error
}

// Activate runs the workflow if the trigger is Visible. In any other state
// it does nothing and returns Ran=false.
func (t *ManualTrigger) Activate(ctx context.Context) ActivateResult {
	t.mu.Lock()
	if t.state != StateVisible {
		state := t.state
		t.mu.Unlock()
		return ActivateResult{State: state}
	}
	t.state = StateLoading
	t.lastErr = nil
	t.mu.Unlock()

	result, err := t.runner.RunByID(ctx, t.postID, TriggerManual)

	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		t.state = StateVisible
		t.lastErr = err
		return ActivateResult{Ran: true, State: t.state, Err: err}
	}
	t.state = StateHidden
	return ActivateResult{Ran: true, State: t.state, Result: result}
}

// ManualTriggers keeps one trigger per post and view. Hidden triggers are
// dropped since a fresh Mount reaches Hidden again through the guard.
type ManualTriggers struct {
	guard   GuardChecker
	runner  PostRunner
	maxSize int

	mu       sync.Mutex
	triggers map[string]*ManualTrigger
}

// NewManualTriggers creates a registry holding at most maxSize triggers.
func NewManualTriggers(guard GuardChecker, runner PostRunner, maxSize int) *ManualTriggers {
	if maxSize <= 0 {
		maxSize = 10000
	}
	return &ManualTriggers{
		guard:    guard,
		runner:   runner,
		maxSize:  maxSize,
		triggers: make(map[string]*ManualTrigger),
	}
}

func triggerKey(postID, viewID string) string {
	if viewID == "" {
		viewID = "default"
	}
	return postID + "/" + viewID
}

// Get returns the trigger for the post and view, creating an Idle one.
func (m *ManualTriggers) Get(postID, viewID string) *ManualTrigger {
	key := triggerKey(postID, viewID)

	m.mu.Lock()
	defer m.mu.Unlock()

	if t, ok := m.triggers[key]; ok {
		return t
	}
	if len(m.triggers) >= m.maxSize {
		m.evictLocked()
	}
	t := NewManualTrigger(postID, m.guard, m.runner)
	m.triggers[key] = t
	return t
}

// Forget drops every trigger of postID.
func (m *ManualTriggers) Forget(postID string) {
	prefix := postID + "/"
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.triggers {
		if strings.HasPrefix(key, prefix) {
			delete(m.triggers, key)
		}
	}
}

// Release drops the trigger once it is hidden.
func (m *ManualTriggers) Release(postID, viewID string, t *ManualTrigger) {
	if t.Status().State != StateHidden {
		return
	}
	key := triggerKey(postID, viewID)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.triggers[key] == t {
		delete(m.triggers, key)
	}
}

// evictLocked removes triggers that are not loading until there is room.
func (m *ManualTriggers) evictLocked() {
	for key, t := range m.triggers {
		if len(m.triggers) < m.maxSize {
			return
		}
		if t.Status().State != StateLoading {
			delete(m.triggers, key)
		}
	}
}
