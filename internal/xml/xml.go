package xml

import (
	"bytes"
	stdxml "encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/vitrina/feedsmith/internal/catalog"
)

const timeLayout = "2006-01-02 15:04:05"

// CDATA wraps free text in a CDATA section. encoding/xml splits any literal
// "]]>" in the text across adjacent sections, so arbitrary user input cannot
// terminate the section early.
type CDATA struct {
	Text string `xml:",cdata"`
}

type Product struct {
	ID          int64    `xml:"id"`
	Name        string   `xml:"name"`
	Article     string   `xml:"article"`
	Category    string   `xml:"category"`
	Price       string   `xml:"price"`
	Currency    string   `xml:"currency"`
	Material    string   `xml:"material"`
	Gender      string   `xml:"gender"`
	Season      string   `xml:"season"`
	Description CDATA    `xml:"description"`
	Sizes       string   `xml:"sizes"`
	Images      []string `xml:"images>image"`
	Active      bool     `xml:"active"`
	CreatedAt   string   `xml:"created_at"`
	UpdatedAt   string   `xml:"updated_at"`
	URL         string   `xml:"url"`
}

type feed struct {
	XMLName     stdxml.Name `xml:"products"`
	GeneratedAt string      `xml:"generated_at,attr"`
	Products    []Product   `xml:"product"`
}

type Option func(*Encoder)

// WithPublicBaseURL sets the base used to build per-product public URLs.
func WithPublicBaseURL(base string) Option {
	return func(e *Encoder) {
		e.baseURL = strings.TrimRight(base, "/")
	}
}

// Encoder renders catalog records as a well-formed XML document. Text fields
// rely on encoding/xml entity escaping; the description is carried in a CDATA
// section.
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
	return "xml"
}

func (e *Encoder) ContentType() string {
	return "application/xml; charset=utf-8"
}

func (e *Encoder) Encode(records []catalog.Record, generatedAt time.Time) ([]byte, error) {
	doc := feed{
		GeneratedAt: generatedAt.Format(timeLayout),
		Products:    make([]Product, 0, len(records)),
	}

	for _, r := range records {
		doc.Products = append(doc.Products, Product{
			ID:          r.ID,
			Name:        r.Name,
			Article:     r.Article,
			Category:    r.Category,
			Price:       fmt.Sprintf("%.2f", r.Price),
			Currency:    r.Currency,
			Material:    r.Material,
			Gender:      r.Gender,
			Season:      r.Season,
			Description: CDATA{Text: r.Description},
			Sizes:       r.Sizes.Format(),
			Images:      r.Images,
			Active:      r.Active,
			CreatedAt:   r.CreatedAt.Format(timeLayout),
			UpdatedAt:   r.UpdatedAt.Format(timeLayout),
			URL:         e.productURL(r.Slug),
		})
	}

	body, err := stdxml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling xml feed: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(stdxml.Header)
	buf.Write(body)
	buf.WriteByte('\n')

	return buf.Bytes(), nil
}

func (e *Encoder) productURL(slug string) string {
	if e.baseURL == "" || slug == "" {
		return ""
	}
	return e.baseURL + "/products/" + slug
}
