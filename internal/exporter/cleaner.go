package exporter

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// DefaultRetention is how long export artifacts are kept on disk.
const DefaultRetention = 7 * 24 * time.Hour

// Cleaner deletes export artifacts older than the retention window. Only
// files matching the export naming pattern are considered; everything else in
// the directory is left alone.
type Cleaner struct {
	dir       string
	retention time.Duration
	logger    *zap.Logger
}

func NewCleaner(dir string, retention time.Duration, logger *zap.Logger) *Cleaner {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cleaner{
		dir:       dir,
		retention: retention,
		logger:    logger,
	}
}

// Clean removes expired artifacts and returns how many files were deleted.
// A file that cannot be deleted is logged and skipped; it will be retried on
// the next pass.
func (c *Cleaner) Clean() (int, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading artifact directory: %w", err)
	}

	cutoff := time.Now().Add(-c.retention)
	removed := 0

	for _, entry := range entries {
		if entry.IsDir() || !artifactPattern.MatchString(entry.Name()) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			c.logger.Warn("failed to stat artifact",
				zap.String("file", entry.Name()),
				zap.Error(err),
			)
			continue
		}

		if !info.ModTime().Before(cutoff) {
			continue
		}

		fullPath := filepath.Join(c.dir, entry.Name())
		if err := os.Remove(fullPath); err != nil {
			c.logger.Warn("failed to delete expired artifact",
				zap.String("path", fullPath),
				zap.Error(err),
			)
			continue
		}

		c.logger.Info("expired artifact deleted",
			zap.String("path", fullPath),
			zap.Time("mod_time", info.ModTime()),
		)
		removed++
	}

	return removed, nil
}
