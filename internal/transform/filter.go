package transform

import "github.com/esamtronics/nyc-taxi-etl-pipeline/internal/taxi"

// Distance bounds of the quality filter, in miles. A trip passes when
// MinTripDistance < distance <= MaxTripDistance.
const (
	MinTripDistance = 0.1
	MaxTripDistance = 300
)

// Reason identifies the first quality predicate a trip failed.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonMissingPickup
	ReasonMissingDropoff
	ReasonDistanceOutOfRange
	ReasonNegativeTotal
)

// Reasons lists every rejection reason, in evaluation order.
var Reasons = []Reason{
	ReasonMissingPickup,
	ReasonMissingDropoff,
	ReasonDistanceOutOfRange,
	ReasonNegativeTotal,
}

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonMissingPickup:
		return "missing_pickup"
	case ReasonMissingDropoff:
		return "missing_dropoff"
	case ReasonDistanceOutOfRange:
		return "distance_out_of_range"
	case ReasonNegativeTotal:
		return "negative_total"
	default:
		return "unknown"
	}
}

// Check evaluates the quality filter. The predicates form a pure
// conjunction; the returned reason only tells which one failed first and is
// used for drop accounting. A NULL distance or total fails its predicate.
// NaN fails every comparison, so a NaN distance or total is dropped.
func Check(t *taxi.Trip) Reason {
	switch {
	case t.Pickup == nil:
		return ReasonMissingPickup
	case t.Dropoff == nil:
		return ReasonMissingDropoff
	case t.TripDistance == nil || !(*t.TripDistance > MinTripDistance && *t.TripDistance <= MaxTripDistance):
		return ReasonDistanceOutOfRange
	case t.TotalAmount == nil || !(*t.TotalAmount >= 0):
		return ReasonNegativeTotal
	}
	return ReasonNone
}

// Keep reports whether t passes the quality filter.
func Keep(t *taxi.Trip) bool { return Check(t) == ReasonNone }
