package parser

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/atikulmunna/towerscan/internal/model"
)

// Parser converts an input stream into typed location records.
// Rows that cannot be converted are rejected individually; only stream-level
// problems (unreadable input, missing required columns) return an error.
type Parser interface {
	Parse(r io.Reader, source string) (Batch, error)
}

// Batch is the outcome of parsing one source.
type Batch struct {
	Records  []model.LocationRecord
	Rejected []*RowError
}

func (b *Batch) append(other Batch) {
	b.Records = append(b.Records, other.Records...)
	b.Rejected = append(b.Rejected, other.Rejected...)
}

// ErrMissingColumn is returned when a required column is absent from the header.
var ErrMissingColumn = errors.New("missing required column")

// RowError describes a single rejected row.
type RowError struct {
	Source string
	Line   int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("%s:%d: %v", e.Source, e.Line, e.Err)
	}
	return fmt.Sprintf("%s:%d: column %s: %v", e.Source, e.Line, e.Column, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Options tune record construction.
type Options struct {
	// DefaultConfidence is used when a row carries no confidence value.
	DefaultConfidence float64
}

// DefaultOptions returns options with a confidence default of 1.0.
func DefaultOptions() Options {
	return Options{DefaultConfidence: 1.0}
}

// ---------------------------------------------------------------------------
// Column names
// ---------------------------------------------------------------------------

const (
	colPage       = "page"
	colItem       = "item"
	colUTC        = "utcdatetime"
	colLocal      = "localdatetime"
	colLat        = "latitude"
	colLon        = "longitude"
	colTimeZone   = "timezone"
	colCity       = "city"
	colCounty     = "county"
	colState      = "state"
	colCountry    = "country"
	colCellType   = "celltype"
	colConfidence = "confidence"
)

var requiredColumns = []string{colPage, colItem, colUTC, colLat, colLon}

// normalizeKey folds header spellings like "UTCDateTime", "utc_datetime"
// and "UTC DateTime" onto one key.
func normalizeKey(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("_", "", " ", "", "-", "").Replace(s)
}

// ---------------------------------------------------------------------------
// Record construction
// ---------------------------------------------------------------------------

// fieldGetter returns the trimmed value of a column and whether it is present.
type fieldGetter func(col string) (string, bool)

// buildRecord constructs a record from string fields, failing on the first
// field that cannot be converted.
func buildRecord(get fieldGetter, opts Options) (model.LocationRecord, *RowError) {
	var rec model.LocationRecord
	var err error

	if rec.Page, err = parseInt(get, colPage); err != nil {
		return rec, &RowError{Column: colPage, Err: err}
	}
	if rec.Item, err = parseInt(get, colItem); err != nil {
		return rec, &RowError{Column: colItem, Err: err}
	}

	raw, _ := get(colUTC)
	if raw == "" {
		return rec, &RowError{Column: colUTC, Err: errors.New("empty timestamp")}
	}
	if rec.UTCTime, err = ParseTimestamp(raw); err != nil {
		return rec, &RowError{Column: colUTC, Err: err}
	}

	if raw, _ = get(colLocal); raw != "" {
		if rec.LocalTime, err = ParseTimestamp(raw); err != nil {
			return rec, &RowError{Column: colLocal, Err: err}
		}
	}

	if rec.Latitude, err = parseCoord(get, colLat, 90); err != nil {
		return rec, &RowError{Column: colLat, Err: err}
	}
	if rec.Longitude, err = parseCoord(get, colLon, 180); err != nil {
		return rec, &RowError{Column: colLon, Err: err}
	}

	rec.Confidence = opts.DefaultConfidence
	if raw, _ = get(colConfidence); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return rec, &RowError{Column: colConfidence, Err: fmt.Errorf("invalid number %q", raw)}
		}
		rec.Confidence = v
	}

	rec.TimeZone, _ = get(colTimeZone)
	rec.City, _ = get(colCity)
	rec.County, _ = get(colCounty)
	rec.State, _ = get(colState)
	rec.Country, _ = get(colCountry)
	rec.CellType, _ = get(colCellType)

	return rec, nil
}

func parseInt(get fieldGetter, col string) (int, error) {
	raw, _ := get(col)
	if raw == "" {
		return 0, errors.New("empty value")
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		// Exports sometimes write integral ids as "12.0".
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil || f != math.Trunc(f) {
			return 0, fmt.Errorf("invalid integer %q", raw)
		}
		v = int(f)
	}
	return v, nil
}

// parseCoord returns 0 for a blank value, the "unknown" sentinel.
func parseCoord(get fieldGetter, col string, limit float64) (float64, error) {
	raw, _ := get(col)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid number %q", raw)
	}
	if v < -limit || v > limit {
		return 0, fmt.Errorf("%v out of range [-%v, %v]", v, limit, limit)
	}
	return v, nil
}

// ---------------------------------------------------------------------------
// Timestamps
// ---------------------------------------------------------------------------

// timestampLayouts are tried in order. Carrier exports use the short US form.
var timestampLayouts = []string{
	"1/2/06 15:04",
	"1/2/2006 15:04",
	"1/2/06 15:04:05",
	"1/2/2006 15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// ParseTimestamp parses a timestamp in any supported layout. Values without
// an offset are taken as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
