// Package csv reads the taxi zone lookup table.
//
// The file is small and is read completely. Header identifiers are
// canonicalized the same way as trip columns, which also strips a leading
// BOM; cell values are kept as written except that empty cells become NULL.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"

	"github.com/esamtronics/nyc-taxi-etl-pipeline/internal/taxi"
)

// Options configures ReadLocations.
type Options struct {
	// Comma is the field delimiter; ',' when zero.
	Comma rune

	// Encoding names the file charset (WHATWG label, e.g. "windows-1252").
	// Empty or "utf-8" reads the bytes as is.
	Encoding string

	// LazyQuotes relaxes quote handling in encoding/csv.
	LazyQuotes bool

	// OnSkip, when set, is called for every data row that cannot carry a
	// join key: a short row or a non-integer LocationID.
	OnSkip func(line int, err error)
}

// ErrMissingHeader is returned when a required lookup column is absent.
var ErrMissingHeader = errors.New("csv: missing required header")

// RequiredHeaders are the lookup columns the join needs.
var RequiredHeaders = []string{taxi.ColLocationID, taxi.ColBorough, taxi.ColZone}

// ReadLocations parses the lookup table from r.
func ReadLocations(ctx context.Context, r io.Reader, opt Options) ([]taxi.Location, error) {
	dec, err := decoder(r, opt.Encoding)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(dec)
	if opt.Comma != 0 {
		cr.Comma = opt.Comma
	}
	cr.LazyQuotes = opt.LazyQuotes
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	hdr, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file", ErrMissingHeader)
	}
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}

	idx := make(map[string]int, len(hdr))
	for i, h := range hdr {
		name := taxi.CanonicalIdentifier(h)
		if _, dup := idx[name]; !dup {
			idx[name] = i
		}
	}
	var missing []string
	for _, h := range RequiredHeaders {
		if _, ok := idx[h]; !ok {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingHeader, strings.Join(missing, ", "))
	}
	idCol, boroughCol, zoneCol := idx[taxi.ColLocationID], idx[taxi.ColBorough], idx[taxi.ColZone]
	serviceCol, hasService := idx[taxi.ColServiceZone]

	var out []taxi.Location
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("csv: %w", err)
		}
		// First line of the record; quoted fields may span several.
		line, _ := cr.FieldPos(0)

		if idCol >= len(rec) {
			skip(opt, line, fmt.Errorf("row has %d fields, LocationID is field %d", len(rec), idCol+1))
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSpace(rec[idCol]), 10, 32)
		if err != nil {
			skip(opt, line, fmt.Errorf("LocationID %q: %w", rec[idCol], err))
			continue
		}

		loc := taxi.Location{
			LocationID: int32(id),
			Borough:    cell(rec, boroughCol),
			Zone:       cell(rec, zoneCol),
		}
		if hasService {
			loc.ServiceZone = cell(rec, serviceCol)
		}
		out = append(out, loc)
	}
}

func skip(opt Options, line int, err error) {
	if opt.OnSkip != nil {
		opt.OnSkip(line, err)
	}
}

// cell returns a copy of rec[i], or nil when empty or absent.
func cell(rec []string, i int) *string {
	if i >= len(rec) || rec[i] == "" {
		return nil
	}
	v := strings.Clone(rec[i])
	return &v
}

func decoder(r io.Reader, name string) (io.Reader, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "utf-8" || name == "utf8" {
		return r, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("csv: unknown encoding %q: %w", name, err)
	}
	return transform.NewReader(r, enc.NewDecoder()), nil
}
