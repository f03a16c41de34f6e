package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Source reads eligible catalog records from a relational store. Eligibility
// (active flag plus provenance class) is applied in SQL so ineligible rows
// never cross the wire.
type Source struct {
	DB    *sql.DB
	Table string

	logger *zap.Logger
}

type SourceOption func(*Source)

func WithTable(table string) SourceOption {
	return func(s *Source) {
		s.Table = table
	}
}

func WithLogger(logger *zap.Logger) SourceOption {
	return func(s *Source) {
		s.logger = logger
	}
}

func NewSource(db *sql.DB, opts ...SourceOption) *Source {
	s := Source{
		DB:     db,
		Table:  "products",
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(&s)
	}

	return &s
}

func (s *Source) Close(ctx context.Context) error {
	return s.DB.Close()
}

// Eligible returns all exportable records. When since is non-nil only records
// created or updated at or after the cutoff are returned.
func (s *Source) Eligible(ctx context.Context, since *time.Time) ([]Record, error) {
	placeholders := make([]string, len(ExportableProvenances))
	args := make([]any, 0, len(ExportableProvenances)+1)
	for i, p := range ExportableProvenances {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args = append(args, string(p))
	}

	query := fmt.Sprintf(
		`SELECT id, name, article, category_path, price, currency, material,
			gender, season, description, sizes, images, active,
			created_at, updated_at, slug, provenance
		FROM %s
		WHERE active = TRUE AND provenance IN (%s)`,
		s.Table,
		strings.Join(placeholders, ", "),
	)

	if since != nil {
		n := len(args) + 1
		query += fmt.Sprintf(" AND (created_at >= $%d OR updated_at >= $%d)", n, n)
		args = append(args, *since)
	}

	query += " ORDER BY id"

	s.logger.Debug("querying eligible records",
		zap.String("table", s.Table),
		zap.Timep("since", since),
	)

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying catalog: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			r           Record
			description sql.NullString
			sizes       []byte
			images      []byte
			provenance  string
		)

		if err := rows.Scan(
			&r.ID, &r.Name, &r.Article, &r.Category, &r.Price, &r.Currency,
			&r.Material, &r.Gender, &r.Season, &description, &sizes, &images,
			&r.Active, &r.CreatedAt, &r.UpdatedAt, &r.Slug, &provenance,
		); err != nil {
			return nil, fmt.Errorf("scanning catalog row: %w", err)
		}

		r.Description = description.String
		r.Provenance = Provenance(provenance)

		// Sizes.UnmarshalJSON is total and degrades to SizeNone.
		if len(sizes) > 0 {
			_ = json.Unmarshal(sizes, &r.Sizes)
		}

		// A malformed images payload degrades to no images.
		if len(images) > 0 {
			if err := json.Unmarshal(images, &r.Images); err != nil {
				s.logger.Warn("malformed images payload",
					zap.Int64("id", r.ID),
					zap.Error(err),
				)
				r.Images = nil
			}
		}

		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading catalog rows: %w", err)
	}

	return records, nil
}
