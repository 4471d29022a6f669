package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/christuart/ghrsst/internal/adapters/opendap"
	"github.com/christuart/ghrsst/internal/dataset"
	"github.com/christuart/ghrsst/internal/exitcode"
	"github.com/christuart/ghrsst/internal/extract"
	"github.com/christuart/ghrsst/internal/storage"
)

type stubSubset struct{ kelvin float64 }

func (s stubSubset) Scalar(name string, index ...int) (float64, error) {
	switch name {
	case "analysed_sst":
		return s.kelvin, nil
	case "lat":
		return 42.574997, nil
	case "lon":
		return 141.67499, nil
	}
	return 0, fmt.Errorf("no variable %q", name)
}

func (s stubSubset) Close() error { return nil }

// stubOpener serves every address except those containing a missing stamp.
type stubOpener struct {
	missing   []string
	addresses []string
}

func (o *stubOpener) OpenSubset(ctx context.Context, address string) (extract.Subset, error) {
	o.addresses = append(o.addresses, address)
	for _, m := range o.missing {
		if strings.Contains(address, m) {
			return nil, fmt.Errorf("%w: %s", opendap.ErrRemoteUnavailable, address)
		}
	}
	return stubSubset{kelvin: 288.15}, nil
}

func testOptions(t *testing.T) options {
	t.Helper()
	return options{
		descriptor: dataset.GeoPolarBlended,
		start:      time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		end:        time.Date(2020, 1, 3, 0, 0, 0, 0, time.UTC),
		lat:        42.575,
		lon:        141.675,
		outDir:     t.TempDir(),
	}
}

func TestRun_WritesCSV(t *testing.T) {
	opts := testOptions(t)
	opener := &stubOpener{missing: []string{"/20200102"}}

	path, err := run(context.Background(), opts, opener)
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}

	if filepath.Base(path) != "gpb_from_20200101_to_20200103_at_42.575N_141.675E.csv" {
		t.Errorf("unexpected output name %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "year,month,day,latitude,longitude,analysed_sst\n" +
		"2020,1,1,42.575,141.675,15.00\n" +
		"2020,1,3,42.575,141.675,15.00\n"
	if string(data) != want {
		t.Errorf("output =\n%s\nwant\n%s", data, want)
	}
}

func TestRun_GzFallback(t *testing.T) {
	opts := testOptions(t)
	opts.end = opts.start
	opts.gzFallback = true
	opener := &stubOpener{missing: []string{".nc?"}}

	if _, err := run(context.Background(), opts, opener); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if len(opener.addresses) != 2 || !strings.Contains(opener.addresses[1], ".nc.gz?") {
		t.Errorf("expected a compressed retry, got %v", opener.addresses)
	}
}

func TestRun_OutputDirMissing(t *testing.T) {
	opts := testOptions(t)
	opts.outDir = filepath.Join(opts.outDir, "missing")

	_, err := run(context.Background(), opts, &stubOpener{})
	if exitCodeFor(err) != exitcode.StorageError {
		t.Fatalf("expected storage error, got %v", err)
	}
}

// stubArchive records uploads and fails them when err is set.
type stubArchive struct {
	keys  []string
	paths []string
	err   error
}

func (a *stubArchive) PutFile(ctx context.Context, key, path string) error {
	a.keys = append(a.keys, key)
	a.paths = append(a.paths, path)
	return a.err
}

func TestArchiveOutput(t *testing.T) {
	opts := testOptions(t)
	opts.runID = "01890c24-905b-7122-b170-b60814e6ee06"

	path, err := run(context.Background(), opts, &stubOpener{})
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}

	archive := &stubArchive{}
	if err := archiveOutput(context.Background(), opts, path, archive); err != nil {
		t.Fatalf("archiveOutput() error = %v", err)
	}

	wantKey := "podaac/gpb/2020-01-01_2020-01-03/01890c24-905b-7122-b170-b60814e6ee06.csv"
	if len(archive.keys) != 1 || archive.keys[0] != wantKey {
		t.Errorf("uploaded keys = %v, want [%s]", archive.keys, wantKey)
	}
	if len(archive.paths) != 1 || archive.paths[0] != path {
		t.Errorf("uploaded paths = %v, want [%s]", archive.paths, path)
	}
}

func TestArchiveOutput_Failure(t *testing.T) {
	opts := testOptions(t)
	opts.runID = "01890c24-905b-7122-b170-b60814e6ee06"

	archive := &stubArchive{err: errors.New("connection reset by peer")}
	err := archiveOutput(context.Background(), opts, filepath.Join(opts.outDir, "out.csv"), archive)
	if !errors.Is(err, storage.ErrArchive) {
		t.Fatalf("expected ErrArchive, got %v", err)
	}
	if !strings.Contains(err.Error(), "podaac/gpb/2020-01-01_2020-01-03/") {
		t.Errorf("error does not name the object key: %v", err)
	}
	if got := exitCodeFor(err); got != exitcode.StorageError {
		t.Errorf("exitCodeFor() = %d, want %d", got, exitcode.StorageError)
	}
}

func TestParseOptions_Defaults(t *testing.T) {
	now := time.Date(2020, 4, 12, 17, 50, 0, 0, time.UTC)
	opts, err := parseOptions(nil, now, io.Discard)
	if err != nil {
		t.Fatalf("parseOptions() error = %v", err)
	}

	if opts.descriptor.ShortName() != "gpb" {
		t.Errorf("default source = %s, want gpb", opts.descriptor.ShortName())
	}
	if !opts.start.Equal(time.Date(2014, 6, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("default start = %v", opts.start)
	}
	if !opts.end.Equal(time.Date(2020, 4, 11, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("default end = %v, want yesterday", opts.end)
	}
	if opts.lat != 42.575 || opts.lon != 141.675 {
		t.Errorf("default point = %v, %v", opts.lat, opts.lon)
	}
	if opts.gzFallback {
		t.Error("gz fallback should be off by default")
	}
}

func TestParseOptions_Flags(t *testing.T) {
	args := []string{
		"-s", "2016-02-09", "--end_date", "2016-02-12",
		"--latitude", "-33.9", "--longitude", "18.4",
		"--source", "GeoPolarBlendedNight", "-gz-fallback",
		"-run-id", "01890c24-905b-7122-b170-b60814e6ee06",
	}
	opts, err := parseOptions(args, time.Now(), io.Discard)
	if err != nil {
		t.Fatalf("parseOptions() error = %v", err)
	}
	if opts.descriptor.ShortName() != "gpb_night" {
		t.Errorf("source = %s", opts.descriptor.ShortName())
	}
	if opts.start.Format(dateLayout) != "2016-02-09" || opts.end.Format(dateLayout) != "2016-02-12" {
		t.Errorf("range = %v .. %v", opts.start, opts.end)
	}
	if opts.lat != -33.9 || opts.lon != 18.4 || !opts.gzFallback {
		t.Errorf("unexpected options %+v", opts)
	}
	if opts.runID != "01890c24-905b-7122-b170-b60814e6ee06" {
		t.Errorf("run-id = %s", opts.runID)
	}
}

func TestParseOptions_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown source", []string{"-source", "MUR"}},
		{"bad start", []string{"-s", "02/06/2014"}},
		{"bad end", []string{"-e", "yesterday"}},
		{"end before start", []string{"-s", "2020-01-02", "-e", "2020-01-01"}},
		{"bad latitude", []string{"-latitude", "north"}},
		{"bad run-id", []string{"-run-id", "550e8400-e29b-41d4-a716-446655440000"}},
		{"positional", []string{"extra"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseOptions(tt.args, time.Now(), io.Discard); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("2020-01-01: %w", storage.ErrWrite), exitcode.StorageError},
		{fmt.Errorf("upload: %w", storage.ErrArchive), exitcode.StorageError},
		{fmt.Errorf("2020-01-01: %w", opendap.ErrUnexpectedStatus), exitcode.APIError},
		{fmt.Errorf("2020-01-01: %w", opendap.ErrDecode), exitcode.DataError},
		{context.Canceled, exitcode.ApplicationError},
		{errors.New("boom"), exitcode.ApplicationError},
	}

	for _, tt := range tests {
		if got := exitCodeFor(tt.err); got != tt.want {
			t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
