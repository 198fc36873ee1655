package pipeline

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/esamtronics/nyc-taxi-etl-pipeline/internal/transform"
)

// Summary reports what one run did.
type Summary struct {
	Job   string `json:"job"`
	RunID string `json:"run_id"`

	Read            int64            `json:"read"`
	Kept            int64            `json:"kept"`
	Dropped         int64            `json:"dropped"`
	DroppedByReason map[string]int64 `json:"dropped_by_reason"`
	Unmatched       int64            `json:"unmatched"`
	Written         int64            `json:"written"`
	Batches         int64            `json:"batches"`

	LookupRows       int   `json:"lookup_rows"`
	LookupDuplicates int   `json:"lookup_duplicates"`
	LookupSkipped    int64 `json:"lookup_skipped"`
	RowGroups        int   `json:"row_groups"`

	Duration time.Duration `json:"duration_ns"`

	// Fingerprint identifies the output row set independently of row order.
	Fingerprint string `json:"fingerprint"`
}

// numReasons sizes the per-reason drop counters, ReasonNone included.
const numReasons = int(transform.ReasonNegativeTotal) + 1

// counters holds cross-goroutine statistics for one run. All fields are
// updated atomically.
type counters struct {
	read        atomic.Int64 // rows decoded from the trip file
	kept        atomic.Int64 // rows that passed the quality filter
	unmatched   atomic.Int64 // kept rows with no lookup match
	batches     atomic.Int64 // sink batches flushed
	fingerprint atomic.Uint64
	dropped     [numReasons]atomic.Int64 // indexed by transform.Reason
}

func (c *counters) drop(r transform.Reason) {
	if int(r) < len(c.dropped) {
		c.dropped[r].Add(1)
	}
}

func (c *counters) droppedByReason() (map[string]int64, int64) {
	out := make(map[string]int64, len(transform.Reasons))
	var total int64
	for _, r := range transform.Reasons {
		n := c.dropped[r].Load()
		out[r.String()] = n
		total += n
	}
	return out, total
}

// Value tags of the canonical row encoding.
const (
	tagNull   = 'n'
	tagInt    = 'i'
	tagFloat  = 'f'
	tagTime   = 't'
	tagString = 's'
	tagOther  = 'o'
)

// appendCanonical encodes one output row so that equal rows always produce
// equal bytes, whatever the process or platform.
func appendCanonical(buf []byte, row []any) []byte {
	for _, v := range row {
		switch x := v.(type) {
		case nil:
			buf = append(buf, tagNull)
		case int32:
			buf = append(buf, tagInt)
			buf = binary.BigEndian.AppendUint64(buf, uint64(int64(x)))
		case int64:
			buf = append(buf, tagInt)
			buf = binary.BigEndian.AppendUint64(buf, uint64(x))
		case float64:
			buf = append(buf, tagFloat)
			buf = binary.BigEndian.AppendUint64(buf, math.Float64bits(x))
		case time.Time:
			buf = append(buf, tagTime)
			buf = binary.BigEndian.AppendUint64(buf, uint64(x.UnixNano()))
		case string:
			buf = append(buf, tagString)
			buf = binary.BigEndian.AppendUint32(buf, uint32(len(x)))
			buf = append(buf, x...)
		default:
			buf = append(buf, tagOther)
			s := fmt.Sprint(x)
			buf = strconv.AppendInt(buf, int64(len(s)), 10)
			buf = append(buf, ':')
			buf = append(buf, s...)
		}
	}
	return buf
}

// hashRow returns the xxh3 hash of row's canonical encoding, reusing scratch.
func hashRow(scratch *[]byte, row []any) uint64 {
	*scratch = appendCanonical((*scratch)[:0], row)
	return xxh3.Hash(*scratch)
}

func formatFingerprint(sum uint64, rows int64) string {
	return fmt.Sprintf("%d:%016x", rows, sum)
}
