package exporter

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultStalenessThreshold is a generous upper bound for a full catalog
// export. A running status older than this is treated as abandoned.
const DefaultStalenessThreshold = 30 * time.Minute

type Progress struct {
	Current int    `json:"current"`
	Total   int    `json:"total"`
	Message string `json:"message,omitempty"`
}

type RunResult struct {
	CSV *Result `json:"csv,omitempty"`
	XML *Result `json:"xml,omitempty"`
}

// Status is the persisted record of the current (or last) export run.
type Status struct {
	State       State      `json:"status"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Progress    *Progress  `json:"progress,omitempty"`
	Error       string     `json:"error,omitempty"`
	Result      *RunResult `json:"result,omitempty"`
}

// StatusStore persists the export status to a single file. Every read goes to
// disk; there is no in-memory cache, so a concurrently updated file is always
// observed fresh.
type StatusStore struct {
	path       string
	staleAfter time.Duration
	logger     *zap.Logger
	mu         sync.Mutex
}

func NewStatusStore(path string, staleAfter time.Duration, logger *zap.Logger) *StatusStore {
	if staleAfter <= 0 {
		staleAfter = DefaultStalenessThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusStore{
		path:       path,
		staleAfter: staleAfter,
		logger:     logger,
	}
}

// Load returns the persisted status. A missing or corrupt file reads as idle;
// status corruption is never fatal.
func (s *StatusStore) Load() Status {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return Status{State: StateIdle}
	}
	if err != nil {
		s.logger.Warn("failed to read status file", zap.Error(err))
		return Status{State: StateIdle}
	}

	var status Status
	if err := json.Unmarshal(data, &status); err != nil {
		s.logger.Warn("corrupt status file, treating as idle", zap.Error(err))
		return Status{State: StateIdle}
	}

	if status.State == "" {
		return Status{State: StateIdle}
	}

	return status
}

// Save atomically overwrites the persisted status.
func (s *StatusStore) Save(status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.write(status)
}

func (s *StatusStore) write(status Status) error {
	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return err
	}

	tempPath := s.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return err
	}

	// Sync to disk to shrink the window in which a crash leaves a stale
	// running state behind.
	if file, err := os.OpenFile(tempPath, os.O_RDWR, 0644); err == nil {
		file.Sync()
		file.Close()
	}

	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return err
	}

	s.logger.Debug("status saved", zap.String("state", string(status.State)))
	return nil
}

// IsRunning reports whether an export is currently in flight. A running
// status whose start time exceeds the staleness threshold is treated as an
// abandoned run: it reads as not running and the store is reset to idle so
// subsequent checks are cheap.
func (s *StatusStore) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := s.Load()
	if status.State != StateRunning {
		return false
	}

	if status.StartedAt != nil && time.Since(*status.StartedAt) <= s.staleAfter {
		return true
	}

	s.logger.Warn("stale running status, resetting to idle",
		zap.Timep("started_at", status.StartedAt),
		zap.Duration("staleness_threshold", s.staleAfter),
	)
	if err := s.write(Status{State: StateIdle}); err != nil {
		s.logger.Warn("failed to reset stale status", zap.Error(err))
	}
	return false
}
