package local

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

type Option func(*Repository)

// Repository stores export artifacts on the local filesystem. The local copy
// is the authoritative artifact; remote uploads are best-effort.
type Repository struct {
	basePath string
	logger   *zap.Logger
}

func WithLogger(logger *zap.Logger) Option {
	return func(r *Repository) {
		r.logger = logger
	}
}

func New(basePath string, opts ...Option) *Repository {
	r := &Repository{
		basePath: basePath,
		logger:   zap.NewNop(),
	}

	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Path returns the absolute location a key is written to.
func (r *Repository) Path(key string) string {
	return filepath.Join(r.basePath, key)
}

// Dir returns the artifact directory.
func (r *Repository) Dir() string {
	return r.basePath
}

func (r *Repository) Write(ctx context.Context, key string, reader io.Reader) error {
	fullPath := r.Path(key)
	r.logger.Info("writing file", zap.String("path", fullPath))

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return err
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return err
	}
	defer file.Close()

	if _, err := io.Copy(file, reader); err != nil {
		return err
	}

	return file.Sync()
}
