package csv

import (
	"bytes"
	stdcsv "encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vitrina/feedsmith/internal/catalog"
)

// Columns is the fixed export column order. Downstream consumers key on
// position, not header names.
var Columns = []string{
	"id",
	"name",
	"article",
	"category",
	"price",
	"currency",
	"material",
	"gender",
	"season",
	"description",
	"sizes",
	"images",
	"active",
	"created_at",
	"updated_at",
	"url",
}

const timeLayout = "2006-01-02 15:04:05"

// bom marks the file as UTF-8 so spreadsheet tools detect the encoding.
var bom = []byte{0xEF, 0xBB, 0xBF}

type Option func(*Encoder)

// WithPublicBaseURL sets the base used to build per-product public URLs.
func WithPublicBaseURL(base string) Option {
	return func(e *Encoder) {
		e.baseURL = strings.TrimRight(base, "/")
	}
}

// Encoder renders catalog records as a UTF-8 CSV document with a header row.
// Quoting follows RFC 4180 via encoding/csv, so any field containing a comma,
// quote or newline round-trips through a standard CSV parser.
type Encoder struct {
	baseURL string
}

func New(opts ...Option) *Encoder {
	e := &Encoder{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Encoder) Format() string {
	return "csv"
}

func (e *Encoder) ContentType() string {
	return "text/csv; charset=utf-8"
}

func (e *Encoder) Encode(records []catalog.Record, _ time.Time) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(bom)

	w := stdcsv.NewWriter(&buf)
	if err := w.Write(Columns); err != nil {
		return nil, fmt.Errorf("writing csv header: %w", err)
	}

	for _, r := range records {
		row := []string{
			strconv.FormatInt(r.ID, 10),
			r.Name,
			r.Article,
			r.Category,
			strconv.FormatFloat(r.Price, 'f', 2, 64),
			r.Currency,
			r.Material,
			r.Gender,
			r.Season,
			r.Description,
			r.Sizes.Format(),
			strings.Join(r.Images, ", "),
			yesNo(r.Active),
			r.CreatedAt.Format(timeLayout),
			r.UpdatedAt.Format(timeLayout),
			e.productURL(r.Slug),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("writing csv row for record %d: %w", r.ID, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flushing csv: %w", err)
	}

	return buf.Bytes(), nil
}

func (e *Encoder) productURL(slug string) string {
	if e.baseURL == "" || slug == "" {
		return ""
	}
	return e.baseURL + "/products/" + slug
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
