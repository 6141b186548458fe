package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Priya8975/merchant-activity-service/internal/domain"
	"github.com/Priya8975/merchant-activity-service/internal/ingest"
	"github.com/Priya8975/merchant-activity-service/internal/metrics"
)

var (
	// ErrRunInProgress means another process holds the import lock.
	ErrRunInProgress = errors.New("import run already in progress")
	// ErrRunPanicked wraps a panic recovered from inside a run.
	ErrRunPanicked = errors.New("import run panicked")
)

// DefaultLockTTL bounds how long a crashed run can block the next one.
const DefaultLockTTL = time.Hour

// WriterSource hands out one storage session per run.
type WriterSource interface {
	AcquireWriter(ctx context.Context) (ingest.Writer, func(), error)
}

// RunStateStore coordinates runs across processes and records the last one.
type RunStateStore interface {
	AcquireRunLock(ctx context.Context, runID string, ttl time.Duration) (bool, error)
	ReleaseRunLock(ctx context.Context, runID string) error
	SaveRunState(ctx context.Context, run domain.ImportRun) error
}

// RunObserver is told about every run as it starts and as it finishes.
// PublishRun must not block.
type RunObserver interface {
	PublishRun(run domain.ImportRun)
}

// Launcher starts import runs in the background. At most one task runs per
// Launcher; a second Start while one is running returns the running task.
type Launcher struct {
	source  WriterSource
	cfg     ingest.Config
	state   RunStateStore
	lockTTL time.Duration
	logger  *slog.Logger

	mu       sync.Mutex
	current  *Task
	observer RunObserver
}

// NewLauncher creates a launcher. state may be nil, in which case runs are
// neither locked nor recorded outside the process.
func NewLauncher(source WriterSource, cfg ingest.Config, state RunStateStore, lockTTL time.Duration, logger *slog.Logger) *Launcher {
	if lockTTL <= 0 {
		lockTTL = DefaultLockTTL
	}
	return &Launcher{
		source:  source,
		cfg:     cfg,
		state:   state,
		lockTTL: lockTTL,
		logger:  logger,
	}
}

// SetObserver registers o to receive run updates. Call it before the first
// Start.
func (l *Launcher) SetObserver(o RunObserver) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.observer = o
}

// Start launches a run and returns its handle without waiting for it.
// The run does not inherit ctx's cancellation.
func (l *Launcher) Start(ctx context.Context) *Task {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current != nil && !l.current.finished() {
		return l.current
	}

	t := newTask(uuid.NewString())
	l.current = t
	l.logger.Info("import run started", "run_id", t.id)
	if l.observer != nil {
		l.observer.PublishRun(t.Status())
	}

	go l.execute(context.WithoutCancel(ctx), t)
	return t
}

// Current returns the running or most recently finished task, or nil if
// nothing has been started.
func (l *Launcher) Current() *Task {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

func (l *Launcher) execute(ctx context.Context, t *Task) {
	defer close(t.done)

	if l.state != nil {
		ok, err := l.state.AcquireRunLock(ctx, t.id, l.lockTTL)
		if err != nil {
			l.finish(t, domain.ImportSummary{}, err)
			return
		}
		if !ok {
			l.finish(t, domain.ImportSummary{}, ErrRunInProgress)
			return
		}
		defer func() {
			if err := l.state.ReleaseRunLock(ctx, t.id); err != nil {
				l.logger.Warn("failed to release run lock", "run_id", t.id, "error", err)
			}
		}()
		l.saveState(ctx, t.Status())
	}

	summary, err := l.run(ctx, t.id)
	l.finish(t, summary, err)

	if l.state != nil {
		l.saveState(ctx, t.Status())
	}
}

// run executes one import on its own storage session. A panic anywhere in
// the pipeline is turned into an error here.
func (l *Launcher) run(ctx context.Context, runID string) (summary domain.ImportSummary, err error) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("import run panicked",
				"run_id", runID,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			metrics.RunsTotal.WithLabelValues("failed").Inc()
			err = fmt.Errorf("%w: %v", ErrRunPanicked, r)
		}
	}()

	writer, release, err := l.source.AcquireWriter(ctx)
	if err != nil {
		metrics.RunsTotal.WithLabelValues("failed").Inc()
		return summary, fmt.Errorf("%w: opening storage session: %w", ingest.ErrWrite, err)
	}
	defer release()

	return ingest.NewImporter(l.cfg, writer, l.logger).Run(ctx)
}

func (l *Launcher) finish(t *Task, summary domain.ImportSummary, err error) {
	t.complete(summary, err)

	l.mu.Lock()
	observer := l.observer
	l.mu.Unlock()
	if observer != nil {
		observer.PublishRun(t.Status())
	}

	switch {
	case err != nil:
		l.logger.Error("import task failed",
			"run_id", t.id,
			"files_processed", summary.FilesProcessed,
			"rows_inserted", summary.RowsInserted,
			"rows_skipped", summary.RowsSkipped,
			"error", err,
		)
	case summary.AlreadyLoaded:
		l.logger.Info("data already present, import skipped", "run_id", t.id)
	default:
		l.logger.Info("import finished",
			"run_id", t.id,
			"files_processed", summary.FilesProcessed,
			"rows_inserted", summary.RowsInserted,
			"rows_skipped", summary.RowsSkipped,
		)
	}
}

func (l *Launcher) saveState(ctx context.Context, run domain.ImportRun) {
	if err := l.state.SaveRunState(ctx, run); err != nil {
		l.logger.Warn("failed to save run state", "run_id", run.ID, "error", err)
	}
}
