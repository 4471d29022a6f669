// Package dataset describes the GHRSST Level 4 products that can be read over
// OPeNDAP and resolves the address of a single-point subset for one day.
package dataset

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// CompressedSuffix is appended to the file path of days the archive stores
// gzip-compressed.
const CompressedSuffix = ".gz"

// ErrInvalidArgument is returned when exactly one of latitude and longitude
// is supplied.
var ErrInvalidArgument = errors.New("dataset: both or neither of lat and lon must be specified")

// Descriptor holds everything needed to address one SST product. The values
// returned by this package are copies and safe to modify.
type Descriptor struct {
	LatMin, LatMax float64
	LatLen         int
	LonMin, LonMax float64
	LonLen         int

	// Variable is the SST variable requested in the subset clause.
	Variable string

	// Template is a fmt format taking year, day-of-year, year, month, day.
	Template string

	// Short identifies the product in output filenames.
	Short string

	// CompressedBefore is the first day stored uncompressed. The zero value
	// means the product is never compressed.
	CompressedBefore time.Time
}

// GridIndex is a position in the product's lat/lon grid.
type GridIndex struct {
	Row    int
	Column int
}

// ShortName returns the identifier used in output filenames.
func (d Descriptor) ShortName() string {
	return d.Short
}

// NearestRow returns the latitude index closest to lat. Values outside
// [LatMin, LatMax] are not clamped and yield indices outside the grid.
func (d Descriptor) NearestRow(lat float64) int {
	return nearest(lat, d.LatMin, d.LatMax, d.LatLen)
}

// NearestColumn returns the longitude index closest to lon. Values outside
// [LonMin, LonMax] are not clamped and yield indices outside the grid.
func (d Descriptor) NearestColumn(lon float64) int {
	return nearest(lon, d.LonMin, d.LonMax, d.LonLen)
}

// Nearest returns both indices for a coordinate.
func (d Descriptor) Nearest(lat, lon float64) GridIndex {
	return GridIndex{Row: d.NearestRow(lat), Column: d.NearestColumn(lon)}
}

// nearest rounds half up by truncating after adding 0.5, which matches the
// archive's own index convention for in-range values.
func nearest(v, lo, hi float64, length int) int {
	return int(0.5 + (v-lo)/(hi-lo)*float64(length-1))
}

// DayOfYear returns the 1-based ordinal day of date within its year.
func DayOfYear(date time.Time) int {
	return date.YearDay()
}

// UsesCompressed reports whether the archive stores date's file gzip-compressed.
func (d Descriptor) UsesCompressed(date time.Time) bool {
	if d.CompressedBefore.IsZero() {
		return false
	}
	return civil(date).Before(civil(d.CompressedBefore))
}

// Address resolves the OPeNDAP address of the file for date. When lat and
// lon are both non-nil a subset clause selecting the single nearest cell of
// Variable and of the lat and lon axes is appended.
func (d Descriptor) Address(date time.Time, lat, lon *float64) (string, error) {
	if (lat == nil) != (lon == nil) {
		return "", ErrInvalidArgument
	}

	tmpl := d.Template
	if d.UsesCompressed(date) {
		tmpl += CompressedSuffix
	}
	addr := fmt.Sprintf(tmpl, date.Year(), DayOfYear(date), date.Year(), int(date.Month()), date.Day())

	if lat == nil {
		return addr, nil
	}
	idx := d.Nearest(*lat, *lon)
	return addr + subsetClause(d.Variable, idx), nil
}

func subsetClause(variable string, idx GridIndex) string {
	r, c := idx.Row, idx.Column
	return fmt.Sprintf("?%s[0:1:0][%d:1:%d][%d:1:%d],lat[%d:1:%d],lon[%d:1:%d]",
		variable, r, r, c, c, r, r, c, c)
}

// CompressedAddress returns address with CompressedSuffix added to the end
// of its path. ok is false when the path already carries the suffix.
func CompressedAddress(address string) (compressed string, ok bool) {
	path, query, hasQuery := strings.Cut(address, "?")
	if strings.HasSuffix(path, CompressedSuffix) {
		return address, false
	}
	if !hasQuery {
		return path + CompressedSuffix, true
	}
	return path + CompressedSuffix + "?" + query, true
}

// WithBaseURL returns a copy of d that reads from a mirror of the archive.
// base replaces DefaultBaseURL at the start of the template.
func (d Descriptor) WithBaseURL(base string) Descriptor {
	if base == "" || !strings.HasPrefix(d.Template, DefaultBaseURL) {
		return d
	}
	d.Template = strings.TrimSuffix(base, "/") + strings.TrimPrefix(d.Template, DefaultBaseURL)
	return d
}

func civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
