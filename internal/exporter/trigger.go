package exporter

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrAlreadyRunning is returned when a trigger is rejected because an export
// is in flight. Distinct from a run failure: no new job was started.
var ErrAlreadyRunning = errors.New("export already running")

// Trigger drives the exporter on behalf of an operator or the scheduler and
// owns every status write. Accepts are serialized through an in-process mutex
// on top of the file-backed guard, so the check-then-act race only matters
// across processes.
type Trigger struct {
	logger   *zap.Logger
	exporter *Exporter
	status   *StatusStore
	cleaner  *Cleaner

	mu sync.Mutex
	wg sync.WaitGroup
}

func NewTrigger(exporter *Exporter, status *StatusStore, cleaner *Cleaner, logger *zap.Logger) *Trigger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Trigger{
		logger:   logger,
		exporter: exporter,
		status:   status,
		cleaner:  cleaner,
	}
}

// Manual accepts an operator-initiated export. It writes an optimistic
// running status so an immediate poll observes the run, then executes the
// engine in the background. Callers poll the status store for completion.
func (t *Trigger) Manual(onlyNew *bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	start, err := t.accept()
	if err != nil {
		return err
	}

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		// The caller's request context dies as soon as the trigger is
		// accepted; the run keeps its own lifetime.
		t.finish(context.Background(), start, onlyNew)
	}()

	return nil
}

// Scheduled runs the daily unconditional export synchronously, then the
// retention cleaner. The engine error is returned so the command wrapper can
// exit non-zero for external alerting.
func (t *Trigger) Scheduled(ctx context.Context) error {
	t.mu.Lock()
	start, err := t.accept()
	t.mu.Unlock()

	if errors.Is(err, ErrAlreadyRunning) {
		// The scheduler is the sole unattended caller; hitting the guard
		// means an operator run is in flight. Skip this tick.
		t.logger.Warn("scheduled export skipped, another run is in flight")
		return nil
	}
	if err != nil {
		return err
	}

	runErr := t.finish(ctx, start, nil)

	if t.cleaner != nil {
		removed, err := t.cleaner.Clean()
		if err != nil {
			t.logger.Warn("retention cleanup failed", zap.Error(err))
		} else if removed > 0 {
			t.logger.Info("retention cleanup done", zap.Int("removed", removed))
		}
	}

	return runErr
}

// Wait blocks until background manual runs have finished.
func (t *Trigger) Wait() {
	t.wg.Wait()
}

// accept performs the guard check and the optimistic running write. Callers
// must hold t.mu.
func (t *Trigger) accept() (time.Time, error) {
	if t.status.IsRunning() {
		return time.Time{}, ErrAlreadyRunning
	}

	now := time.Now()
	status := Status{
		State:     StateRunning,
		StartedAt: &now,
		Progress:  &Progress{Message: "starting"},
	}

	if !CanTransition(t.status.Load().State, StateRunning) {
		// Load() maps any unknown persisted state to idle, so this only
		// guards against future lifecycle changes.
		return time.Time{}, ErrInvalidTransition
	}

	if err := t.status.Save(status); err != nil {
		return time.Time{}, err
	}

	return now, nil
}

func (t *Trigger) finish(ctx context.Context, start time.Time, onlyNew *bool) error {
	results, err := t.exporter.Run(ctx, RunOptions{OnlyNew: onlyNew, Stamp: start})

	completed := time.Now()
	terminal := Status{
		StartedAt:   &start,
		CompletedAt: &completed,
	}

	if err != nil {
		t.logger.Error("export run failed", zap.Error(err))
		terminal.State = StateFailed
		terminal.Error = err.Error()
	} else {
		terminal.State = StateCompleted
		terminal.Result = assemble(results)
	}

	if saveErr := t.status.Save(terminal); saveErr != nil {
		t.logger.Error("failed to persist terminal status", zap.Error(saveErr))
	}

	return err
}

func assemble(results []Result) *RunResult {
	run := &RunResult{}
	for i := range results {
		switch results[i].Format {
		case "csv":
			run.CSV = &results[i]
		case "xml":
			run.XML = &results[i]
		}
	}
	return run
}
