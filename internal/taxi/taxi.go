// Package taxi defines the trip and location records that flow through the
// pipeline, together with the fixed input schema and the ordered output
// schema written to the sink.
package taxi

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Source column identifiers of the yellow taxi trip dataset.
const (
	ColVendorID             = "VendorID"
	ColPickup               = "tpep_pickup_datetime"
	ColDropoff              = "tpep_dropoff_datetime"
	ColPassengerCount       = "passenger_count"
	ColTripDistance         = "trip_distance"
	ColRatecodeID           = "RatecodeID"
	ColStoreAndFwdFlag      = "store_and_fwd_flag"
	ColPULocationID         = "PULocationID"
	ColDOLocationID         = "DOLocationID"
	ColPaymentType          = "payment_type"
	ColFareAmount           = "fare_amount"
	ColExtra                = "extra"
	ColMTATax               = "mta_tax"
	ColTipAmount            = "tip_amount"
	ColTollsAmount          = "tolls_amount"
	ColImprovementSurcharge = "improvement_surcharge"
	ColTotalAmount          = "total_amount"
	ColCongestionSurcharge  = "congestion_surcharge"
	ColAirportFee           = "Airport_fee"
)

// Derived and joined column identifiers.
const (
	ColTripDurationSec = "trip_duration_sec"
	ColAverageSpeedMPH = "average_speed_mph"
	ColTripCategory    = "trip_category"
	ColPickupHour      = "pickup_hour"
	ColDayOfWeek       = "day_of_week"
	ColMonth           = "month"
	ColIsWeekend       = "is_weekend"
	ColBorough         = "Borough"
	ColZone            = "Zone"
)

// Lookup table column identifiers.
const (
	ColLocationID  = "LocationID"
	ColServiceZone = "service_zone"
)

// InputColumns is the fixed 19-field trip schema in source order.
var InputColumns = []string{
	ColVendorID, ColPickup, ColDropoff, ColPassengerCount, ColTripDistance,
	ColRatecodeID, ColStoreAndFwdFlag, ColPULocationID, ColDOLocationID,
	ColPaymentType, ColFareAmount, ColExtra, ColMTATax, ColTipAmount,
	ColTollsAmount, ColImprovementSurcharge, ColTotalAmount,
	ColCongestionSurcharge, ColAirportFee,
}

// DroppedColumns are removed during normalization and never reach the sink.
var DroppedColumns = []string{
	ColRatecodeID,
	ColStoreAndFwdFlag,
	ColImprovementSurcharge,
	ColCongestionSurcharge,
	ColAirportFee,
}

// Kind is the logical type of an output column. Storage backends map kinds
// onto dialect-specific SQL types.
type Kind string

const (
	KindInt       Kind = "int"
	KindBigInt    Kind = "bigint"
	KindDouble    Kind = "double"
	KindTimestamp Kind = "timestamp"
	KindText      Kind = "text"
)

// Column is one output column.
type Column struct {
	Name string
	Kind Kind
}

// OutputColumns is the ordered sink schema: the trip columns that survive
// normalization, the derived features, then the joined lookup attributes.
var OutputColumns = []Column{
	{ColVendorID, KindInt},
	{ColPickup, KindTimestamp},
	{ColDropoff, KindTimestamp},
	{ColPassengerCount, KindBigInt},
	{ColTripDistance, KindDouble},
	{ColPULocationID, KindInt},
	{ColDOLocationID, KindInt},
	{ColPaymentType, KindBigInt},
	{ColFareAmount, KindDouble},
	{ColExtra, KindDouble},
	{ColMTATax, KindDouble},
	{ColTipAmount, KindDouble},
	{ColTollsAmount, KindDouble},
	{ColTotalAmount, KindDouble},
	{ColTripDurationSec, KindBigInt},
	{ColAverageSpeedMPH, KindDouble},
	{ColTripCategory, KindText},
	{ColPickupHour, KindInt},
	{ColDayOfWeek, KindInt},
	{ColMonth, KindInt},
	{ColIsWeekend, KindText},
	{ColBorough, KindText},
	{ColZone, KindText},
}

// OutputColumnNames returns the names of OutputColumns in order.
func OutputColumnNames() []string {
	out := make([]string, len(OutputColumns))
	for i, c := range OutputColumns {
		out[i] = c.Name
	}
	return out
}

// Trip is one ride after normalization. Every field is nullable in the
// source, hence the pointers.
type Trip struct {
	VendorID       *int32
	Pickup         *time.Time
	Dropoff        *time.Time
	PassengerCount *int64
	TripDistance   *float64
	PULocationID   *int32
	DOLocationID   *int32
	PaymentType    *int64
	FareAmount     *float64
	Extra          *float64
	MTATax         *float64
	TipAmount      *float64
	TollsAmount    *float64
	TotalAmount    *float64
}

// Location maps a taxi zone id to its borough and zone names.
type Location struct {
	LocationID  int32
	Borough     *string
	Zone        *string
	ServiceZone *string
}

// EnrichedTrip is the output record: a Trip plus derived features and the
// lookup attributes of its pickup location.
type EnrichedTrip struct {
	Trip

	TripDurationSec int64
	AverageSpeedMPH *float64
	TripCategory    string
	PickupHour      int32
	DayOfWeek       int32
	Month           int32
	IsWeekend       string

	Borough *string
	Zone    *string
}

// Values returns the record as a positional row aligned with OutputColumns.
// NULL fields are returned as untyped nil so drivers encode SQL NULL.
func (e *EnrichedTrip) Values() []any {
	return []any{
		i32(e.VendorID),
		ts(e.Pickup),
		ts(e.Dropoff),
		i64(e.PassengerCount),
		f64(e.TripDistance),
		i32(e.PULocationID),
		i32(e.DOLocationID),
		i64(e.PaymentType),
		f64(e.FareAmount),
		f64(e.Extra),
		f64(e.MTATax),
		f64(e.TipAmount),
		f64(e.TollsAmount),
		f64(e.TotalAmount),
		e.TripDurationSec,
		f64(e.AverageSpeedMPH),
		e.TripCategory,
		e.PickupHour,
		e.DayOfWeek,
		e.Month,
		e.IsWeekend,
		str(e.Borough),
		str(e.Zone),
	}
}

func i32(p *int32) any {
	if p == nil {
		return nil
	}
	return *p
}

func i64(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

func f64(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func ts(p *time.Time) any {
	if p == nil {
		return nil
	}
	return *p
}

func str(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

// CanonicalIdentifier strips incidental leading/trailing whitespace from a
// column identifier and normalizes it to NFC so that visually identical
// headers compare equal.
func CanonicalIdentifier(name string) string {
	name = strings.TrimPrefix(name, "\uFEFF")
	name = strings.TrimFunc(name, unicode.IsSpace)
	if norm.NFC.IsNormalString(name) {
		return name
	}
	return norm.NFC.String(name)
}
