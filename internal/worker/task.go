package worker

import (
	"context"
	"sync"
	"time"

	"github.com/Priya8975/merchant-activity-service/internal/domain"
)

// Task is the handle of one background import run.
type Task struct {
	id   string
	done chan struct{}

	mu  sync.Mutex
	run domain.ImportRun
	err error
}

func newTask(id string) *Task {
	return &Task{
		id:   id,
		done: make(chan struct{}),
		run: domain.ImportRun{
			ID:        id,
			State:     domain.RunStateRunning,
			StartedAt: time.Now().UTC(),
		},
	}
}

func (t *Task) ID() string {
	return t.id
}

// Done is closed once the run has finished and its lock is released.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the run finishes or ctx is done. Giving up on ctx does
// not stop the run.
func (t *Task) Wait(ctx context.Context) (domain.ImportSummary, error) {
	select {
	case <-t.done:
	case <-ctx.Done():
		return domain.ImportSummary{}, ctx.Err()
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.run.Summary, t.err
}

// Status returns a snapshot of the run.
func (t *Task) Status() domain.ImportRun {
	t.mu.Lock()
	defer t.mu.Unlock()

	run := t.run
	if run.FinishedAt != nil {
		finished := *run.FinishedAt
		run.FinishedAt = &finished
	}
	return run
}

func (t *Task) complete(summary domain.ImportSummary, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now().UTC()
	t.run.FinishedAt = &now
	t.run.Summary = summary
	t.err = err
	if err != nil {
		t.run.State = domain.RunStateFailed
		t.run.Error = err.Error()
	} else {
		t.run.State = domain.RunStateCompleted
	}
}

func (t *Task) finished() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}
