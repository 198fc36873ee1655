// Package enrich joins derived trips against the location lookup.
//
// The lookup is small, so it is loaded completely into a hash index that
// every transform worker shares read-only. This replaces a shuffle join:
// trips never move, the index is replicated by reference.
package enrich

import "github.com/esamtronics/nyc-taxi-etl-pipeline/internal/taxi"

// Duplicate records a lookup row whose LocationID was already indexed.
type Duplicate struct {
	LocationID int32
	Kept       taxi.Location
	Ignored    taxi.Location
}

// Index is an immutable LocationID -> Location map.
type Index struct {
	byID map[int32]taxi.Location
}

// NewIndex builds an index from lookup rows. The first row for an id wins;
// later rows with the same id are returned as duplicates so that the join
// can never emit a trip more than once.
func NewIndex(locs []taxi.Location) (*Index, []Duplicate) {
	idx := &Index{byID: make(map[int32]taxi.Location, len(locs))}
	var dups []Duplicate
	for _, l := range locs {
		if prev, ok := idx.byID[l.LocationID]; ok {
			dups = append(dups, Duplicate{LocationID: l.LocationID, Kept: prev, Ignored: l})
			continue
		}
		idx.byID[l.LocationID] = l
	}
	return idx, dups
}

// Len returns the number of distinct location ids.
func (x *Index) Len() int { return len(x.byID) }

// Lookup returns the location for id.
func (x *Index) Lookup(id int32) (taxi.Location, bool) {
	l, ok := x.byID[id]
	return l, ok
}

// Join attaches Borough and Zone of the trip's pickup location. It is a
// left outer join: a trip with no pickup id, or an id missing from the
// index, is returned with nil Borough and Zone. The boolean reports whether
// a match was found.
func (x *Index) Join(e taxi.EnrichedTrip) (taxi.EnrichedTrip, bool) {
	e.Borough, e.Zone = nil, nil
	if e.PULocationID == nil {
		return e, false
	}
	l, ok := x.byID[*e.PULocationID]
	if !ok {
		return e, false
	}
	e.Borough = l.Borough
	e.Zone = l.Zone
	return e, true
}
