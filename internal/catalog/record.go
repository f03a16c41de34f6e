package catalog

import (
	"time"
)

// Provenance records where a catalog entry came from.
type Provenance string

const (
	// ProvenanceCatalog is an entry created through the admin.
	ProvenanceCatalog Provenance = "catalog"
	// ProvenanceImport is an entry ingested from a supplier feed.
	ProvenanceImport Provenance = "import"
	// ProvenanceDraft is an unfinished entry and is never exported.
	ProvenanceDraft Provenance = "draft"
)

// ExportableProvenances is the fixed set of provenance classes eligible for
// export.
var ExportableProvenances = []Provenance{
	ProvenanceCatalog,
	ProvenanceImport,
}

// Record is a single catalog entry as seen by the export pipeline. The
// pipeline only reads records; the catalog itself is owned elsewhere.
type Record struct {
	ID          int64
	Name        string
	Article     string
	Category    string
	Price       float64
	Currency    string
	Material    string
	Gender      string
	Season      string
	Description string
	Sizes       Sizes
	Images      []string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Slug        string
	Provenance  Provenance
}

// Exportable reports whether the record passes the eligibility predicate:
// active and belonging to one of the exportable provenance classes.
func (r Record) Exportable() bool {
	if !r.Active {
		return false
	}
	for _, p := range ExportableProvenances {
		if r.Provenance == p {
			return true
		}
	}
	return false
}
