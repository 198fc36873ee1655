// Package transform implements the per-row stages of the trip pipeline:
// column normalization, the quality filter and feature derivation. Every
// function here is pure and safe to call from any number of goroutines.
package transform

import (
	"github.com/esamtronics/nyc-taxi-etl-pipeline/internal/taxi"
)

// Projection is the result of normalizing a batch's column identifiers.
//
// Index maps a canonical identifier to its position in the source schema.
// Dropped lists the canonical identifiers that were removed; Raw keeps the
// original spelling per position for diagnostics.
type Projection struct {
	Index   map[string]int
	Dropped []string
	Raw     []string
}

var dropped = func() map[string]struct{} {
	m := make(map[string]struct{}, len(taxi.DroppedColumns))
	for _, c := range taxi.DroppedColumns {
		m[c] = struct{}{}
	}
	return m
}()

// IsDropped reports whether a canonical identifier is removed by Normalize.
func IsDropped(canonical string) bool {
	_, ok := dropped[canonical]
	return ok
}

// Normalize canonicalizes the identifiers of a batch schema and removes the
// fixed set of unused columns. It is applied once per batch, never per row.
// When two source columns canonicalize to the same identifier the first one
// wins.
func Normalize(columns []string) Projection {
	p := Projection{
		Index: make(map[string]int, len(columns)),
		Raw:   append([]string(nil), columns...),
	}
	for i, c := range columns {
		name := taxi.CanonicalIdentifier(c)
		if IsDropped(name) {
			p.Dropped = append(p.Dropped, name)
			continue
		}
		if _, seen := p.Index[name]; seen {
			continue
		}
		p.Index[name] = i
	}
	return p
}

// Missing returns the required identifiers absent from the projection.
// Dropped columns are never required.
func (p Projection) Missing(required []string) []string {
	var out []string
	for _, r := range required {
		if IsDropped(r) {
			continue
		}
		if _, ok := p.Index[r]; !ok {
			out = append(out, r)
		}
	}
	return out
}
