// Package extract builds a point time series by fetching one subset per day.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/christuart/ghrsst/internal/dataset"
)

// KelvinOffset converts the archive's Kelvin values to Celsius.
const KelvinOffset = 273.15

const dateLayout = "2006-01-02"

var (
	// ErrRemoteUnavailable is matched by Opener errors meaning the day's file
	// does not exist or the server could not be reached.
	ErrRemoteUnavailable = errors.New("remote unavailable")

	// ErrNoValue is matched by Subset errors meaning the cell holds no
	// retrieval (land, ice, gap in coverage).
	ErrNoValue = errors.New("no value at cell")
)

// Subset is one opened day of data.
type Subset interface {
	Scalar(name string, index ...int) (float64, error)
	Close() error
}

// Opener opens the subset at a resolved address.
type Opener interface {
	OpenSubset(ctx context.Context, address string) (Subset, error)
}

// RowSink receives rows as they are produced.
type RowSink interface {
	WriteRow(Row) error
}

// RangeRequest contains input parameters for a time series.
type RangeRequest struct {
	Descriptor dataset.Descriptor
	Start      time.Time
	End        time.Time // inclusive
	Lat        float64
	Lon        float64
}

// Row is one day of the time series. Latitude and Longitude are the grid
// cell centre reported by the dataset, not the requested point.
type Row struct {
	Date      time.Time
	Latitude  float64
	Longitude float64
	SST       float64 // °C
}

// Summary counts what a FetchRange call did.
type Summary struct {
	Days    int
	Rows    int
	Missing int
}

// Service fetches a time series one day at a time.
type Service struct {
	opener Opener
}

func NewService(opener Opener) *Service {
	return &Service{opener: opener}
}

// FetchRange fetches every day from req.Start to req.End inclusive, in
// ascending order. Days whose file is unavailable or whose cell holds no
// value are logged and skipped. Any other failure stops the run; the rows
// gathered so far are returned with the error. Each row is passed to sink,
// when non-nil, as soon as it is read.
func (s *Service) FetchRange(ctx context.Context, req RangeRequest, sink RowSink) ([]Row, Summary, error) {
	var (
		rows    []Row
		summary Summary
	)

	for day := civil(req.Start); !day.After(civil(req.End)); day = day.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return rows, summary, err
		}
		summary.Days++
		slog.InfoContext(ctx, "fetching day", "date", day.Format(dateLayout))

		row, err := s.fetchDay(ctx, req.Descriptor, day, req.Lat, req.Lon)
		switch {
		case errors.Is(err, ErrRemoteUnavailable), errors.Is(err, ErrNoValue):
			summary.Missing++
			slog.WarnContext(ctx, "no data", "date", day.Format(dateLayout), "error", err)
			continue
		case err != nil:
			return rows, summary, fmt.Errorf("%s: %w", day.Format(dateLayout), err)
		}

		slog.DebugContext(ctx, "sst read", "date", day.Format(dateLayout), "sst", row.SST,
			"latitude", row.Latitude, "longitude", row.Longitude)
		rows = append(rows, row)
		summary.Rows++

		if sink != nil {
			if err := sink.WriteRow(row); err != nil {
				return rows, summary, fmt.Errorf("write row %s: %w", day.Format(dateLayout), err)
			}
		}
	}

	slog.InfoContext(ctx, "range complete", "days", summary.Days, "rows", summary.Rows, "missing", summary.Missing)
	return rows, summary, nil
}

// fetchDay reads one day. The subset is closed before it returns so that at
// most one connection to the archive is held at a time.
func (s *Service) fetchDay(ctx context.Context, d dataset.Descriptor, day time.Time, lat, lon float64) (row Row, err error) {
	address, err := d.Address(day, &lat, &lon)
	if err != nil {
		return Row{}, err
	}

	sub, err := s.opener.OpenSubset(ctx, address)
	if err != nil {
		return Row{}, err
	}
	defer func() {
		if cerr := sub.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close subset: %w", cerr)
		}
	}()

	kelvin, err := sub.Scalar(d.Variable, 0, 0, 0)
	if err != nil {
		return Row{}, err
	}
	gotLat, err := sub.Scalar("lat", 0)
	if err != nil {
		return Row{}, err
	}
	gotLon, err := sub.Scalar("lon", 0)
	if err != nil {
		return Row{}, err
	}

	return Row{
		Date:      day,
		Latitude:  gotLat,
		Longitude: gotLon,
		SST:       kelvin - KelvinOffset,
	}, nil
}

func civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
