package internal

import (
	"context"
	"io"
)

// Repository is remote object storage for export artifacts.
type Repository interface {
	// Write stores the object under key with the given content type.
	Write(ctx context.Context, key string, contentType string, reader io.Reader) error

	// URL returns the public URL of an object previously written under key.
	URL(key string) string
}
