// Package parquet decodes yellow taxi trip files into taxi.Trip records.
//
// Column identifiers are canonicalized before binding, so a file whose
// header carries stray whitespace still matches. The five dropped columns
// are never decoded. Numeric columns are coerced across the physical
// types found in published trip files (passenger_count has been written
// both as INT64 and DOUBLE over the years).
package parquet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	pq "github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/deprecated"

	"github.com/esamtronics/nyc-taxi-etl-pipeline/internal/taxi"
	"github.com/esamtronics/nyc-taxi-etl-pipeline/internal/transform"
)

// Object is a sized random-access input.
type Object interface {
	io.ReaderAt
	Size() int64
}

// Stats describes one decoded file.
type Stats struct {
	RowGroups      int
	Rows           int64
	DroppedColumns []string
	ExtraColumns   []string
}

// ErrSchemaMismatch is returned when required trip columns are absent.
var ErrSchemaMismatch = errors.New("parquet: schema mismatch")

// readBatch is the number of rows pulled from a row group per call.
const readBatch = 1024

// RequiredColumns are the trip columns that must be present in every file.
func RequiredColumns() []string {
	var out []string
	for _, c := range taxi.InputColumns {
		if !transform.IsDropped(c) {
			out = append(out, c)
		}
	}
	return out
}

// Inspect opens obj and checks its schema without decoding any rows. It
// reports the same schema errors ReadTrips would.
func Inspect(obj Object) (Stats, error) {
	var st Stats
	f, err := pq.OpenFile(obj, obj.Size())
	if err != nil {
		return st, fmt.Errorf("parquet: open: %w", err)
	}
	if _, err := bind(f.Schema(), &st); err != nil {
		return st, err
	}
	st.RowGroups = len(f.RowGroups())
	st.Rows = f.NumRows()
	return st, nil
}

// ReadTrips decodes every row of obj and calls emit once per row, in file
// order. A non-nil error from emit stops the read and is returned as is.
func ReadTrips(ctx context.Context, obj Object, emit func(taxi.Trip) error) (Stats, error) {
	var st Stats

	f, err := pq.OpenFile(obj, obj.Size())
	if err != nil {
		return st, fmt.Errorf("parquet: open: %w", err)
	}

	setters, err := bind(f.Schema(), &st)
	if err != nil {
		return st, err
	}

	buf := make([]pq.Row, readBatch)
	for _, rg := range f.RowGroups() {
		st.RowGroups++
		if err := readRowGroup(ctx, rg, buf, setters, emit, &st); err != nil {
			return st, err
		}
	}
	return st, nil
}

func readRowGroup(ctx context.Context, rg pq.RowGroup, buf []pq.Row, setters []setter, emit func(taxi.Trip) error, st *Stats) error {
	rows := rg.Rows()
	defer rows.Close()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := rows.ReadRows(buf)
		for _, row := range buf[:n] {
			var t taxi.Trip
			for _, v := range row {
				if v.IsNull() {
					continue
				}
				c := v.Column()
				if c < 0 || c >= len(setters) || setters[c] == nil {
					continue
				}
				setters[c](&t, v)
			}
			st.Rows++
			if eerr := emit(t); eerr != nil {
				return eerr
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("parquet: read rows: %w", err)
		}
	}
}

// setter stores one non-null value on a trip.
type setter func(*taxi.Trip, pq.Value)

// bind maps every leaf column of the file onto a setter, indexed by column
// position. Dropped and unknown columns get a nil setter.
func bind(schema *pq.Schema, st *Stats) ([]setter, error) {
	paths := schema.Columns()
	names := make([]string, len(paths))
	for i, p := range paths {
		if len(p) == 1 {
			names[i] = p[0]
		} else {
			names[i] = strings.Join(p, ".")
		}
	}

	proj := transform.Normalize(names)
	st.DroppedColumns = proj.Dropped

	if missing := proj.Missing(RequiredColumns()); len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing columns %s", ErrSchemaMismatch, strings.Join(missing, ", "))
	}

	known := make(map[string]struct{}, len(taxi.InputColumns))
	for _, c := range taxi.InputColumns {
		known[c] = struct{}{}
	}
	for name := range proj.Index {
		if _, ok := known[name]; !ok {
			st.ExtraColumns = append(st.ExtraColumns, name)
		}
	}
	sort.Strings(st.ExtraColumns)

	setters := make([]setter, len(paths))
	for _, name := range RequiredColumns() {
		i := proj.Index[name]
		leaf, ok := schema.Lookup(paths[i]...)
		if !ok {
			return nil, fmt.Errorf("%w: column %q not found", ErrSchemaMismatch, name)
		}
		s, err := setterFor(name, leaf.Node.Type())
		if err != nil {
			return nil, err
		}
		setters[i] = s
	}
	return setters, nil
}

func setterFor(name string, typ pq.Type) (setter, error) {
	switch name {
	case taxi.ColPickup, taxi.ColDropoff:
		dec, err := timestampDecoder(typ)
		if err != nil {
			return nil, fmt.Errorf("%w: column %s: %v", ErrSchemaMismatch, name, err)
		}
		if name == taxi.ColPickup {
			return func(t *taxi.Trip, v pq.Value) { ts := dec(v); t.Pickup = &ts }, nil
		}
		return func(t *taxi.Trip, v pq.Value) { ts := dec(v); t.Dropoff = &ts }, nil
	}

	if !isNumeric(typ.Kind()) {
		return nil, fmt.Errorf("%w: column %s: unsupported physical type %s", ErrSchemaMismatch, name, typ.Kind())
	}

	switch name {
	case taxi.ColVendorID:
		return func(t *taxi.Trip, v pq.Value) { t.VendorID = ptr(int32(asInt64(v))) }, nil
	case taxi.ColPULocationID:
		return func(t *taxi.Trip, v pq.Value) { t.PULocationID = ptr(int32(asInt64(v))) }, nil
	case taxi.ColDOLocationID:
		return func(t *taxi.Trip, v pq.Value) { t.DOLocationID = ptr(int32(asInt64(v))) }, nil
	case taxi.ColPassengerCount:
		return func(t *taxi.Trip, v pq.Value) { t.PassengerCount = ptr(asInt64(v)) }, nil
	case taxi.ColPaymentType:
		return func(t *taxi.Trip, v pq.Value) { t.PaymentType = ptr(asInt64(v)) }, nil
	case taxi.ColTripDistance:
		return func(t *taxi.Trip, v pq.Value) { t.TripDistance = ptr(asFloat64(v)) }, nil
	case taxi.ColFareAmount:
		return func(t *taxi.Trip, v pq.Value) { t.FareAmount = ptr(asFloat64(v)) }, nil
	case taxi.ColExtra:
		return func(t *taxi.Trip, v pq.Value) { t.Extra = ptr(asFloat64(v)) }, nil
	case taxi.ColMTATax:
		return func(t *taxi.Trip, v pq.Value) { t.MTATax = ptr(asFloat64(v)) }, nil
	case taxi.ColTipAmount:
		return func(t *taxi.Trip, v pq.Value) { t.TipAmount = ptr(asFloat64(v)) }, nil
	case taxi.ColTollsAmount:
		return func(t *taxi.Trip, v pq.Value) { t.TollsAmount = ptr(asFloat64(v)) }, nil
	case taxi.ColTotalAmount:
		return func(t *taxi.Trip, v pq.Value) { t.TotalAmount = ptr(asFloat64(v)) }, nil
	}
	return nil, fmt.Errorf("parquet: no binding for column %s", name)
}

// timestampDecoder returns a converter for INT64 (millis, micros or nanos
// since the epoch, micros when unannotated) and legacy INT96 timestamps.
// Results are in UTC with no zone conversion.
func timestampDecoder(typ pq.Type) (func(pq.Value) time.Time, error) {
	switch typ.Kind() {
	case pq.Int96:
		return func(v pq.Value) time.Time { return int96Time(v.Int96()) }, nil
	case pq.Int64:
		unit := timestampUnit(typ)
		return func(v pq.Value) time.Time { return epochTime(v.Int64(), unit) }, nil
	default:
		return nil, fmt.Errorf("unsupported timestamp physical type %s", typ.Kind())
	}
}

func timestampUnit(typ pq.Type) time.Duration {
	if lt := typ.LogicalType(); lt != nil && lt.Timestamp != nil {
		switch u := lt.Timestamp.Unit; {
		case u.Millis != nil:
			return time.Millisecond
		case u.Nanos != nil:
			return time.Nanosecond
		default:
			return time.Microsecond
		}
	}
	if ct := typ.ConvertedType(); ct != nil && *ct == deprecated.TimestampMillis {
		return time.Millisecond
	}
	return time.Microsecond
}

func epochTime(n int64, unit time.Duration) time.Time {
	switch unit {
	case time.Millisecond:
		return time.UnixMilli(n).UTC()
	case time.Nanosecond:
		return time.Unix(0, n).UTC()
	default:
		return time.UnixMicro(n).UTC()
	}
}

// julianUnixEpoch is the Julian day number of 1970-01-01.
const julianUnixEpoch = 2440588

// int96Time decodes the Impala/Spark INT96 layout: nanoseconds of the day
// in the low 8 bytes, Julian day in the high 4.
func int96Time(i deprecated.Int96) time.Time {
	nanos := int64(uint64(i[1])<<32 | uint64(i[0]))
	days := int64(i[2]) - julianUnixEpoch
	return time.Unix(days*86400, nanos).UTC()
}

func isNumeric(k pq.Kind) bool {
	switch k {
	case pq.Int32, pq.Int64, pq.Float, pq.Double:
		return true
	}
	return false
}

// asInt64 truncates floating values toward zero.
func asInt64(v pq.Value) int64 {
	switch v.Kind() {
	case pq.Int32:
		return int64(v.Int32())
	case pq.Float:
		return int64(v.Float())
	case pq.Double:
		return int64(v.Double())
	default:
		return v.Int64()
	}
}

func asFloat64(v pq.Value) float64 {
	switch v.Kind() {
	case pq.Int32:
		return float64(v.Int32())
	case pq.Int64:
		return float64(v.Int64())
	case pq.Float:
		return float64(v.Float())
	default:
		return v.Double()
	}
}

func ptr[T any](v T) *T { return &v }
