package catalog

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// SizeKind discriminates the shapes the sizes column arrives in. Upstream
// systems have written three different representations over time and all of
// them are still present in the catalog.
type SizeKind int

const (
	// SizeNone covers null, empty and unrecognized payloads.
	SizeNone SizeKind = iota
	// SizePairs is a list of {size, count} objects.
	SizePairs
	// SizeLabels is a flat list of size labels.
	SizeLabels
	// SizeFlags is a map of label -> availability.
	SizeFlags
)

type SizeCount struct {
	Size  string `json:"size"`
	Count int    `json:"count"`
}

// Sizes is a tagged union over the three known wire shapes. Only the field
// matching Kind is populated.
type Sizes struct {
	Kind   SizeKind
	Pairs  []SizeCount
	Labels []string
	Flags  map[string]bool
}

// UnmarshalJSON detects the wire shape. It never returns an error: a payload
// that matches none of the known shapes decodes as SizeNone so that a single
// malformed record cannot abort an export run.
func (s *Sizes) UnmarshalJSON(data []byte) error {
	*s = Sizes{}

	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return nil
	}

	var flags map[string]bool
	if err := json.Unmarshal(data, &flags); err == nil {
		s.Kind = SizeFlags
		s.Flags = flags
		return nil
	}

	var pairs []SizeCount
	if err := json.Unmarshal(data, &pairs); err == nil {
		s.Kind = SizePairs
		s.Pairs = pairs
		return nil
	}

	var labels []string
	if err := json.Unmarshal(data, &labels); err == nil {
		s.Kind = SizeLabels
		s.Labels = labels
		return nil
	}

	// Some feeds send numeric size labels.
	var numbers []float64
	if err := json.Unmarshal(data, &numbers); err == nil {
		s.Kind = SizeLabels
		for _, n := range numbers {
			s.Labels = append(s.Labels, strconv.FormatFloat(n, 'f', -1, 64))
		}
		return nil
	}

	return nil
}

func (s Sizes) MarshalJSON() ([]byte, error) {
	switch s.Kind {
	case SizePairs:
		return json.Marshal(s.Pairs)
	case SizeLabels:
		return json.Marshal(s.Labels)
	case SizeFlags:
		return json.Marshal(s.Flags)
	}
	return []byte("null"), nil
}

// Format renders the sizes for export. The rendering is total: every kind,
// including SizeNone and empty inputs, yields a string.
//
//	[{size: "38", count: 2}, {size: "39", count: 1}] -> "38(2), 39(1)"
//	["38", "39"]                                     -> "38, 39"
//	{"38": true, "39": false}                        -> "38"
func (s Sizes) Format() string {
	switch s.Kind {
	case SizePairs:
		parts := make([]string, 0, len(s.Pairs))
		for _, p := range s.Pairs {
			if p.Count > 0 {
				parts = append(parts, fmt.Sprintf("%s(%d)", p.Size, p.Count))
			} else {
				parts = append(parts, p.Size)
			}
		}
		return strings.Join(parts, ", ")

	case SizeLabels:
		return strings.Join(s.Labels, ", ")

	case SizeFlags:
		available := make([]string, 0, len(s.Flags))
		for label, ok := range s.Flags {
			if ok {
				available = append(available, label)
			}
		}
		sort.Strings(available)
		return strings.Join(available, ", ")
	}

	return ""
}
