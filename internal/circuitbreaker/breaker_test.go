package circuitbreaker

import (
	"testing"
	"time"
)

func TestBreaker_TripsAndRecovers(t *testing.T) {
	now := time.Now()
	b := New(2, time.Minute)
	b.now = func() time.Time { return now }

	var transitions []string
	b.OnTransition(func(key string, from, to State) {
		transitions = append(transitions, from.String()+"->"+to.String())
	})

	if !b.Allow("openai") {
		t.Fatal("new key should be allowed")
	}
	b.RecordFailure("openai")
	if b.State("openai") != StateClosed {
		t.Fatal("one failure should not trip the breaker")
	}
	b.RecordFailure("openai")
	if b.State("openai") != StateOpen {
		t.Fatal("expected open after threshold failures")
	}
	if b.Allow("openai") {
		t.Error("open breaker should reject")
	}
	if !b.Allow("gemini") {
		t.Error("other keys are independent")
	}

	now = now.Add(time.Minute)
	if !b.Allow("openai") {
		t.Fatal("expected probe after cooldown")
	}
	if b.Allow("openai") {
		t.Error("only one probe allowed while half-open")
	}
	b.RecordSuccess("openai")
	if b.State("openai") != StateClosed {
		t.Errorf("expected closed after successful probe, got %s", b.State("openai"))
	}

	want := []string{"closed->open", "open->half_open", "half_open->closed"}
	if len(transitions) != len(want) {
		t.Fatalf("expected transitions %v, got %v", want, transitions)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition %d: expected %s, got %s", i, want[i], transitions[i])
		}
	}
}

func TestBreaker_FailedProbeReopens(t *testing.T) {
	now := time.Now()
	b := New(1, time.Second)
	b.now = func() time.Time { return now }

	b.RecordFailure("k")
	now = now.Add(time.Second)
	if !b.Allow("k") {
		t.Fatal("expected probe")
	}
	b.RecordFailure("k")
	if b.State("k") != StateOpen {
		t.Errorf("expected open after failed probe, got %s", b.State("k"))
	}
}
