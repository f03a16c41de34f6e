package config

import (
	"database/sql"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/vitrina/feedsmith/internal"
	"github.com/vitrina/feedsmith/internal/catalog"
	"github.com/vitrina/feedsmith/internal/csv"
	"github.com/vitrina/feedsmith/internal/exporter"
	"github.com/vitrina/feedsmith/internal/local"
	"github.com/vitrina/feedsmith/internal/s3"
	"github.com/vitrina/feedsmith/internal/xml"
)

const (
	statusFilename = "export-status.json"
	markerFilename = "last-export.txt"
)

// InitializeTrigger wires the full export pipeline from configuration. The
// caller owns the database handle's lifetime.
func InitializeTrigger(c *Feedsmith, db *sql.DB, logger *zap.Logger) (*exporter.Trigger, error) {
	source := catalog.NewSource(
		db,
		catalog.WithTable(c.Exporter.Source.Table),
		catalog.WithLogger(logger.Named("catalog")),
	)

	artifacts := local.New(
		c.Exporter.Artifacts.Path,
		local.WithLogger(logger.Named("artifacts")),
	)

	var remote internal.Repository
	if c.Exporter.Repository.Type == "s3" {
		remote = s3.New(
			s3.WithLogger(logger.Named("s3")),
			s3.WithRegion(c.Exporter.Repository.S3.Region),
			s3.WithBucket(c.Exporter.Repository.S3.Bucket),
			s3.WithPrefix(c.Exporter.Repository.S3.Prefix),
			s3.WithEndpoint(c.Exporter.Repository.S3.Endpoint),
			s3.WithForcePathStyle(c.Exporter.Repository.S3.ForcePathStyle),
		)
	}

	staleAfter := time.Duration(c.Exporter.StalenessMinutes) * time.Minute
	status := exporter.NewStatusStore(
		filepath.Join(c.Exporter.Artifacts.Path, statusFilename),
		staleAfter,
		logger.Named("status"),
	)

	marker := exporter.NewMarker(
		filepath.Join(c.Exporter.Artifacts.Path, markerFilename),
		logger.Named("marker"),
	)

	engine := exporter.New(
		exporter.WithLogger(logger.Named("exporter")),
		exporter.WithSource(source),
		exporter.WithEncoders(
			csv.New(csv.WithPublicBaseURL(c.Exporter.PublicBaseURL)),
			xml.New(xml.WithPublicBaseURL(c.Exporter.PublicBaseURL)),
		),
		exporter.WithArtifacts(artifacts),
		exporter.WithRemote(remote),
		exporter.WithMarker(marker),
		exporter.WithProgress(func(p exporter.Progress) {
			st := status.Load()
			if st.State != exporter.StateRunning {
				return
			}
			st.Progress = &p
			if err := status.Save(st); err != nil {
				logger.Warn("failed to persist progress", zap.Error(err))
			}
		}),
	)

	retention := time.Duration(c.Exporter.Artifacts.RetentionDays) * 24 * time.Hour
	cleaner := exporter.NewCleaner(
		c.Exporter.Artifacts.Path,
		retention,
		logger.Named("cleaner"),
	)

	return exporter.NewTrigger(engine, status, cleaner, logger.Named("trigger")), nil
}
