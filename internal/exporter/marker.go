package exporter

import (
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Marker persists the timestamp of the last fully successful export. Its
// absence signals a first run; the engine then exports the entire eligible
// catalog.
type Marker struct {
	path   string
	logger *zap.Logger
	mu     sync.Mutex
}

func NewMarker(path string, logger *zap.Logger) *Marker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Marker{
		path:   path,
		logger: logger,
	}
}

// Last returns the marker timestamp, or nil when no marker exists or the file
// does not parse. Corruption reads as "no prior export".
func (m *Marker) Last() *time.Time {
	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		m.logger.Warn("failed to read marker file", zap.Error(err))
		return nil
	}

	ts, err := time.Parse(time.RFC3339, strings.TrimSpace(string(data)))
	if err != nil {
		m.logger.Warn("corrupt marker file, treating as first run", zap.Error(err))
		return nil
	}

	return &ts
}

// Advance atomically overwrites the marker. Called once per successful full
// run, after both format artifacts have been produced.
func (m *Marker) Advance(ts time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tempPath := m.path + ".tmp"
	if err := os.WriteFile(tempPath, []byte(ts.Format(time.RFC3339)), 0644); err != nil {
		return err
	}

	if file, err := os.OpenFile(tempPath, os.O_RDWR, 0644); err == nil {
		file.Sync()
		file.Close()
	}

	if err := os.Rename(tempPath, m.path); err != nil {
		os.Remove(tempPath)
		return err
	}

	m.logger.Info("last-export marker advanced", zap.Time("timestamp", ts))
	return nil
}
