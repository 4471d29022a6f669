package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/christuart/ghrsst/internal/extract"
)

// ErrWrite is matched by every CSVWriter failure.
var ErrWrite = errors.New("storage: write output")

// Header is the first line of every output file.
var Header = []string{"year", "month", "day", "latitude", "longitude", "analysed_sst"}

const stampLayout = "20060102"

// FileSpec is what an output filename encodes.
type FileSpec struct {
	Short string
	Start time.Time
	End   time.Time
	Lat   float64
	Lon   float64
}

// Filename returns e.g. "gpb_from_20140602_to_20200411_at_42.575N_141.675E.csv".
func (s FileSpec) Filename() string {
	return fmt.Sprintf("%s_from_%s_to_%s_at_%.3fN_%.3fE.csv",
		s.Short, s.Start.Format(stampLayout), s.End.Format(stampLayout), s.Lat, s.Lon)
}

var filenameRE = regexp.MustCompile(`^(.+)_from_(\d{8})_to_(\d{8})_at_(-?\d+\.\d{3})N_(-?\d+\.\d{3})E\.csv$`)

// ParseFilename reverses FileSpec.Filename. Coordinates come back rounded
// to three decimals.
func ParseFilename(name string) (FileSpec, error) {
	m := filenameRE.FindStringSubmatch(name)
	if m == nil {
		return FileSpec{}, fmt.Errorf("filename %q does not match the output naming scheme", name)
	}

	var (
		spec FileSpec
		err  error
	)
	spec.Short = m[1]
	if spec.Start, err = time.Parse(stampLayout, m[2]); err != nil {
		return FileSpec{}, fmt.Errorf("filename %q: start date: %w", name, err)
	}
	if spec.End, err = time.Parse(stampLayout, m[3]); err != nil {
		return FileSpec{}, fmt.Errorf("filename %q: end date: %w", name, err)
	}
	if spec.Lat, err = strconv.ParseFloat(m[4], 64); err != nil {
		return FileSpec{}, fmt.Errorf("filename %q: latitude: %w", name, err)
	}
	if spec.Lon, err = strconv.ParseFloat(m[5], 64); err != nil {
		return FileSpec{}, fmt.Errorf("filename %q: longitude: %w", name, err)
	}
	return spec, nil
}

// CSVWriter writes rows to an output file, flushing after every row so
// progress is visible while a long run is going.
type CSVWriter struct {
	f      *os.File
	w      *csv.Writer
	closed bool
}

// CreateCSV creates (or truncates) path and writes the header.
func CreateCSV(path string) (*CSVWriter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: create: %w", ErrWrite, err)
	}
	c := &CSVWriter{f: f, w: csv.NewWriter(f)}
	if err := c.write(Header); err != nil {
		f.Close()
		return nil, err
	}
	return c, nil
}

// WriteRow satisfies extract.RowSink.
func (c *CSVWriter) WriteRow(r extract.Row) error {
	return c.write([]string{
		strconv.Itoa(r.Date.Year()),
		strconv.Itoa(int(r.Date.Month())),
		strconv.Itoa(r.Date.Day()),
		strconv.FormatFloat(r.Latitude, 'f', 3, 64),
		strconv.FormatFloat(r.Longitude, 'f', 3, 64),
		strconv.FormatFloat(r.SST, 'f', 2, 64),
	})
}

func (c *CSVWriter) write(record []string) error {
	if c.closed {
		return fmt.Errorf("%w: %s is closed", ErrWrite, c.f.Name())
	}
	if err := c.w.Write(record); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		return fmt.Errorf("%w: flush: %w", ErrWrite, err)
	}
	return nil
}

// Path returns the output file's path.
func (c *CSVWriter) Path() string {
	return c.f.Name()
}

// Close flushes and closes the file. It is safe to call more than once.
func (c *CSVWriter) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		c.f.Close()
		return fmt.Errorf("%w: flush: %w", ErrWrite, err)
	}
	return c.f.Close()
}
