package transform

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/esamtronics/nyc-taxi-etl-pipeline/internal/taxi"
)

// Trip categories and weekend labels.
const (
	CategoryShort  = "short"
	CategoryMedium = "medium"
	CategoryLong   = "long"

	LabelWeekend = "Weekend"
	LabelWeekday = "Weekday"
)

// Derive computes the calculated columns of a trip that passed the quality
// filter. Join fields are left nil; see enrich.Index.Join.
//
// Derive expects both timestamps and the distance to be present and panics
// otherwise; run Check first.
func Derive(t taxi.Trip) taxi.EnrichedTrip {
	pickup := *t.Pickup
	dur := DurationSeconds(pickup, *t.Dropoff)
	dow := DayOfWeek(pickup)

	return taxi.EnrichedTrip{
		Trip:            t,
		TripDurationSec: dur,
		AverageSpeedMPH: AverageSpeed(*t.TripDistance, dur),
		TripCategory:    Category(*t.TripDistance),
		PickupHour:      int32(pickup.Hour()),
		DayOfWeek:       dow,
		Month:           int32(pickup.Month()),
		IsWeekend:       WeekendLabel(dow),
	}
}

// DurationSeconds returns dropoff minus pickup in whole epoch seconds. Each
// timestamp is floored to the second before subtracting. The result is not
// clamped: a dropoff before the pickup yields a negative duration.
func DurationSeconds(pickup, dropoff time.Time) int64 {
	return dropoff.Unix() - pickup.Unix()
}

// AverageSpeed returns distance / (duration in hours), rounded half-up to
// two decimals. A zero duration has no defined speed and yields nil.
func AverageSpeed(distance float64, durationSec int64) *float64 {
	if durationSec == 0 {
		return nil
	}
	v := RoundHalfUp(distance/(float64(durationSec)/3600), 2)
	return &v
}

// Category buckets a trip distance: short up to and including 2 miles,
// medium up to and including 10, long above that.
func Category(distance float64) string {
	switch {
	case distance <= 2:
		return CategoryShort
	case distance <= 10:
		return CategoryMedium
	default:
		return CategoryLong
	}
}

// DayOfWeek returns the 1-indexed day of the week of t with 1 = Sunday and
// 7 = Saturday, read from t's own representation.
func DayOfWeek(t time.Time) int32 {
	return int32(t.Weekday()) + 1
}

// WeekendLabel maps a 1-indexed day of week onto Weekend/Weekday.
func WeekendLabel(dayOfWeek int32) string {
	if dayOfWeek == 1 || dayOfWeek == 7 {
		return LabelWeekend
	}
	return LabelWeekday
}

// RoundHalfUp rounds x to the given number of decimal places, ties away
// from zero, working on the shortest decimal representation of x so that
// values such as 1.005 round to 1.01. NaN and infinities are returned as is.
func RoundHalfUp(x float64, places int32) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	out, _ := decimal.NewFromFloat(x).Round(places).Float64()
	return out
}
