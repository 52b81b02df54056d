package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/timmy/plantgram/internal/logger"
	"github.com/timmy/plantgram/internal/metrics"
)

// PostRunner runs the fairy workflow for a post ID.
type PostRunner interface {
	RunByID(ctx context.Context, postID string, trigger Trigger) (*RunResult, error)
}

type pendingTask struct {
	cancel context.CancelFunc
}

// Scheduler runs the automatic fairy trigger a fixed delay after a post is
// created. Each pending task can be cancelled individually (post deleted)
// or all at once (Shutdown).
type Scheduler struct {
	runner PostRunner
	delay  time.Duration
	logger *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	pending map[string]*pendingTask
	closed  bool
}

// NewScheduler creates a scheduler firing delay after Schedule.
func NewScheduler(runner PostRunner, delay time.Duration, log *logger.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		runner:  runner,
		delay:   delay,
		logger:  log.WithField(logger.FieldComponent, "scheduler"),
		ctx:     ctx,
		cancel:  cancel,
		pending: make(map[string]*pendingTask),
	}
}

// Schedule queues the automatic trigger for postID. It returns false when the
// post already has a pending task or the scheduler is shut down.
func (s *Scheduler) Schedule(postID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	if _, ok := s.pending[postID]; ok {
		return false
	}

	ctx, cancel := context.WithCancel(s.ctx)
	task := &pendingTask{cancel: cancel}
	s.pending[postID] = task
	metrics.PendingAutoComments.Inc()

	s.wg.Add(1)
	go s.fire(ctx, postID, task)
	return true
}

func (s *Scheduler) fire(ctx context.Context, postID string, task *pendingTask) {
	defer s.wg.Done()
	defer s.finish(postID, task)

	timer := time.NewTimer(s.delay)
	defer timer.Stop()

	log := s.logger.WithField(logger.FieldPostID, postID)
	select {
	case <-ctx.Done():
		log.Debug("Automatic fairy comment cancelled before firing")
		return
	case <-timer.C:
	}

	ctx = log.WithContext(ctx)
	result, err := s.runner.RunByID(ctx, postID, TriggerAuto)
	switch {
	case errors.Is(err, context.Canceled):
		log.Debug("Automatic fairy comment cancelled while running")
	case err != nil:
		// Nobody asked for this comment, so failures are only logged.
		log.WithError(err).Warn("Automatic fairy comment failed")
	default:
		log.WithField("outcome", result.Outcome.String()).Debug("Automatic fairy comment done")
	}
}

func (s *Scheduler) finish(postID string, task *pendingTask) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending[postID] == task {
		delete(s.pending, postID)
		metrics.PendingAutoComments.Dec()
	}
	task.cancel()
}

// Cancel aborts the pending or running task for postID.
func (s *Scheduler) Cancel(postID string) bool {
	s.mu.Lock()
	task, ok := s.pending[postID]
	if ok {
		delete(s.pending, postID)
		metrics.PendingAutoComments.Dec()
	}
	s.mu.Unlock()

	if ok {
		task.cancel()
	}
	return ok
}

// IsPending reports whether postID has a task that has not finished.
func (s *Scheduler) IsPending(postID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[postID]
	return ok
}

// PendingCount returns the number of unfinished tasks.
func (s *Scheduler) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Shutdown cancels every task and waits for them to return or ctx to end.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
