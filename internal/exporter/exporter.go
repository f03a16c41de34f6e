package exporter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vitrina/feedsmith/internal"
	"github.com/vitrina/feedsmith/internal/catalog"
	"github.com/vitrina/feedsmith/internal/local"
)

// FilenamePrefix starts every export artifact name.
const FilenamePrefix = "products-export-"

// RemoteKeyPrefix is where artifacts land in object storage.
const RemoteKeyPrefix = "exports"

const stampLayout = "2006-01-02-15-04-05"

// artifactPattern matches export data files and their sidecars. The cleaner
// and the run lister only ever touch files matching it.
var artifactPattern = regexp.MustCompile(
	`^products-export-(\d{4}-\d{2}-\d{2}-\d{2}-\d{2}-\d{2})\.(csv|xml)(\.meta\.json)?$`,
)

// Filename builds an artifact name from the shared timestamp token. Both
// formats of one run share the token so a lister can pair them.
func Filename(stamp time.Time, format string) string {
	return fmt.Sprintf("%s%s.%s", FilenamePrefix, stamp.Format(stampLayout), format)
}

// Source yields the eligible catalog records for a run. A nil since means a
// full export.
type Source interface {
	Eligible(ctx context.Context, since *time.Time) ([]catalog.Record, error)
}

// Encoder turns the eligible record list into one interchange format.
type Encoder interface {
	Format() string
	ContentType() string
	Encode(records []catalog.Record, generatedAt time.Time) ([]byte, error)
}

// Result describes one produced artifact. Immutable after creation.
type Result struct {
	Path        string    `json:"path"`
	RemoteKey   string    `json:"remote_key,omitempty"`
	RemoteURL   string    `json:"remote_url,omitempty"`
	Records     int       `json:"records"`
	Format      string    `json:"format"`
	CompletedAt time.Time `json:"completed_at"`
}

// Sidecar is the metadata file written next to each artifact.
type Sidecar struct {
	Records     int       `json:"records"`
	Format      string    `json:"format"`
	CompletedAt time.Time `json:"completed_at"`
	Filename    string    `json:"filename"`
}

type Option func(*Exporter)

func WithLogger(logger *zap.Logger) Option {
	return func(e *Exporter) {
		e.logger = logger
	}
}

func WithSource(source Source) Option {
	return func(e *Exporter) {
		e.source = source
	}
}

func WithEncoders(encoders ...Encoder) Option {
	return func(e *Exporter) {
		e.encoders = encoders
	}
}

// WithArtifacts sets the local repository holding the authoritative copies.
func WithArtifacts(artifacts *local.Repository) Option {
	return func(e *Exporter) {
		e.artifacts = artifacts
	}
}

// WithRemote sets optional object storage. Upload failures never fail a run.
func WithRemote(remote internal.Repository) Option {
	return func(e *Exporter) {
		e.remote = remote
	}
}

func WithMarker(marker *Marker) Option {
	return func(e *Exporter) {
		e.marker = marker
	}
}

// WithProgress registers a callback invoked as the run advances.
func WithProgress(fn func(Progress)) Option {
	return func(e *Exporter) {
		e.progress = fn
	}
}

// Exporter materializes the eligible catalog into every configured format,
// writes artifacts locally, uploads them best-effort and advances the
// last-export marker. It is the only writer of the marker.
type Exporter struct {
	logger    *zap.Logger
	source    Source
	encoders  []Encoder
	artifacts *local.Repository
	remote    internal.Repository
	marker    *Marker
	progress  func(Progress)
}

func New(opts ...Option) *Exporter {
	e := &Exporter{
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunOptions control a single run. A nil OnlyNew derives the incremental flag
// from marker presence; an explicit false forces a full export.
type RunOptions struct {
	OnlyNew *bool
	Stamp   time.Time
}

// ArtifactsDir returns the directory holding the local artifacts.
func (e *Exporter) ArtifactsDir() string {
	return e.artifacts.Dir()
}

func (e *Exporter) report(p Progress) {
	if e.progress != nil {
		e.progress(p)
	}
}

// Run executes one full export cycle and returns one Result per format. The
// marker is advanced only after every format has finished.
func (e *Exporter) Run(ctx context.Context, opts RunOptions) ([]Result, error) {
	start := time.Now()
	stamp := opts.Stamp
	if stamp.IsZero() {
		stamp = start
	}

	rid := uuid.Must(uuid.NewUUID())
	l := e.logger.With(zap.String("run_id", rid.String()))

	last := e.marker.Last()
	onlyNew := last != nil
	if opts.OnlyNew != nil {
		onlyNew = *opts.OnlyNew && last != nil
	}

	var since *time.Time
	if onlyNew {
		since = last
	} else if last == nil {
		l.Warn("no last-export marker, exporting full catalog; subsequent runs will be incremental")
	}

	l.Info("starting export run",
		zap.Bool("only_new", onlyNew),
		zap.Timep("since", since),
		zap.Time("stamp", stamp),
	)

	e.report(Progress{Message: "querying catalog"})

	records, err := e.source.Eligible(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("querying eligible records: %w", err)
	}

	l.Info("eligible records collected", zap.Int("count", len(records)))

	total := len(e.encoders)
	results := make([]Result, 0, total)

	for i, enc := range e.encoders {
		e.report(Progress{
			Current: i,
			Total:   total,
			Message: fmt.Sprintf("encoding %s", enc.Format()),
		})

		result, err := e.export(ctx, l, enc, records, stamp)
		if err != nil {
			return nil, err
		}
		results = append(results, *result)
	}

	// Both formats are done; only now may the incremental window move.
	if err := e.marker.Advance(start); err != nil {
		return nil, fmt.Errorf("advancing last-export marker: %w", err)
	}

	e.report(Progress{Current: total, Total: total, Message: "done"})

	l.Info("export run finished",
		zap.Int("records", len(records)),
		zap.Int("artifacts", len(results)),
		zap.Duration("duration", time.Since(start)),
	)

	return results, nil
}

func (e *Exporter) export(
	ctx context.Context,
	l *zap.Logger,
	enc Encoder,
	records []catalog.Record,
	stamp time.Time,
) (*Result, error) {
	data, err := enc.Encode(records, stamp)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", enc.Format(), err)
	}

	filename := Filename(stamp, enc.Format())
	if err := e.artifacts.Write(ctx, filename, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("writing %s artifact: %w", enc.Format(), err)
	}

	completed := time.Now()
	sidecar := Sidecar{
		Records:     len(records),
		Format:      enc.Format(),
		CompletedAt: completed,
		Filename:    filename,
	}

	meta, err := json.MarshalIndent(sidecar, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s sidecar: %w", enc.Format(), err)
	}

	metaName := filename + ".meta.json"
	if err := e.artifacts.Write(ctx, metaName, bytes.NewReader(meta)); err != nil {
		return nil, fmt.Errorf("writing %s sidecar: %w", enc.Format(), err)
	}

	result := Result{
		Path:        e.artifacts.Path(filename),
		Records:     len(records),
		Format:      enc.Format(),
		CompletedAt: completed,
	}

	if e.remote != nil {
		key := path.Join(RemoteKeyPrefix, filename)
		if err := e.remote.Write(ctx, key, enc.ContentType(), bytes.NewReader(data)); err != nil {
			// The local artifact is authoritative; a failed upload only
			// costs the remote URL.
			l.Warn("artifact upload failed",
				zap.String("key", key),
				zap.Error(err),
			)
		} else {
			result.RemoteKey = key
			result.RemoteURL = e.remote.URL(key)

			metaKey := path.Join(RemoteKeyPrefix, metaName)
			if err := e.remote.Write(ctx, metaKey, "application/json; charset=utf-8", bytes.NewReader(meta)); err != nil {
				l.Warn("sidecar upload failed",
					zap.String("key", metaKey),
					zap.Error(err),
				)
			}
		}
	}

	l.Info("artifact produced",
		zap.String("format", enc.Format()),
		zap.String("path", result.Path),
		zap.Int("records", result.Records),
		zap.String("remote_url", result.RemoteURL),
	)

	return &result, nil
}
