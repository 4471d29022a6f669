package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/christuart/ghrsst/internal/adapters/opendap"
	"github.com/christuart/ghrsst/internal/config"
	"github.com/christuart/ghrsst/internal/dataset"
	"github.com/christuart/ghrsst/internal/exitcode"
	"github.com/christuart/ghrsst/internal/extract"
	"github.com/christuart/ghrsst/internal/model"
	"github.com/christuart/ghrsst/internal/storage"
)

const dateLayout = "2006-01-02"

// options holds the parsed command line.
type options struct {
	descriptor dataset.Descriptor
	start      time.Time
	end        time.Time
	lat        float64
	lon        float64
	gzFallback bool
	outDir     string
	runID      model.RunID
}

func main() {
	// Configure the global logger
	slog.SetDefault(newLogger("info"))

	// Ensure environment variables are loaded
	err := godotenv.Load()
	if err != nil {
		slog.Warn("failed to load env vars", "error", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(exitcode.ConfigError)
	}
	slog.SetDefault(newLogger(cfg.LogLevel))

	// Parse and validate flags
	opts, err := parseOptions(os.Args[1:], time.Now(), os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(exitcode.Success)
	}
	if err != nil {
		slog.Error("invalid arguments", "error", err)
		fmt.Fprintf(os.Stderr, "Usage: %v\n", err)
		os.Exit(exitcode.ConfigError)
	}
	if opts.outDir == "" {
		opts.outDir = cfg.OutputDir
	}
	opts.descriptor = opts.descriptor.WithBaseURL(cfg.BaseURL)

	// Create a cancellable context (for graceful shutdown)
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var archive *storage.Archive
	if cfg.ArchiveEnabled() {
		if opts.runID == "" {
			if opts.runID, err = model.NewRunID(); err != nil {
				slog.Error("failed to generate run-id", "error", err)
				os.Exit(exitcode.ApplicationError)
			}
		}
		archive, err = storage.NewArchive(ctx, storage.ArchiveConfig{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			Bucket:    cfg.MinIOBucket,
			UseSSL:    cfg.MinIOUseSSL,
		})
		if err != nil {
			slog.Error("failed to connect to archive", "error", err)
			os.Exit(exitcode.NetworkError)
		}
	}

	client := opendap.NewClient(cfg.HTTPTimeout, cfg.ResponseSuffix)

	path, err := run(ctx, opts, client)
	if err != nil {
		slog.Error("application error", "error", err, "file", path)
		os.Exit(exitCodeFor(err))
	}
	slog.Info("finished writing", "file", path)

	if archive != nil {
		if err := archiveOutput(ctx, opts, path, archive); err != nil {
			slog.Error("failed to archive output", "error", err, "file", path)
			os.Exit(exitCodeFor(err))
		}
	}

	slog.Info("shutdown complete")
}

// run fetches the whole range into a new CSV file and returns its path. The
// file is closed on every return path, including errors.
func run(ctx context.Context, opts options, opener extract.Opener) (path string, err error) {
	spec := storage.FileSpec{
		Short: opts.descriptor.ShortName(),
		Start: opts.start,
		End:   opts.end,
		Lat:   opts.lat,
		Lon:   opts.lon,
	}
	path = filepath.Join(opts.outDir, spec.Filename())

	out, err := storage.CreateCSV(path)
	if err != nil {
		return path, err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if opts.gzFallback {
		opener = extract.FallbackOpener{Opener: opener}
	}

	req := extract.RangeRequest{
		Descriptor: opts.descriptor,
		Start:      opts.start,
		End:        opts.end,
		Lat:        opts.lat,
		Lon:        opts.lon,
	}
	slog.InfoContext(ctx, "run started", "dataset", spec.Short, "start", opts.start.Format(dateLayout),
		"end", opts.end.Format(dateLayout), "latitude", opts.lat, "longitude", opts.lon, "file", path)

	if _, _, err := extract.NewService(opener).FetchRange(ctx, req, out); err != nil {
		return path, err
	}
	return path, nil
}

// archiver stores a finished output file under an object key.
type archiver interface {
	PutFile(ctx context.Context, key, path string) error
}

// archiveOutput uploads the CSV at path under
// podaac/{short name}/{start}_{end}/{run-id}.csv.
func archiveOutput(ctx context.Context, opts options, path string, a archiver) error {
	key := storage.ObjectKey{
		Source:    "podaac",
		Dataset:   opts.descriptor.ShortName(),
		Start:     opts.start.Format(dateLayout),
		End:       opts.end.Format(dateLayout),
		RunID:     opts.runID,
		Extension: "csv",
	}.Key()
	if err := a.PutFile(ctx, key, path); err != nil {
		if errors.Is(err, storage.ErrArchive) {
			return err
		}
		return fmt.Errorf("%w: %s: %w", storage.ErrArchive, key, err)
	}
	return nil
}

func parseOptions(args []string, now time.Time, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("sstfetch", flag.ContinueOnError)
	fs.SetOutput(stderr)

	yesterday := now.AddDate(0, 0, -1).Format(dateLayout)
	var startStr, endStr, source, runID string
	var opts options

	fs.StringVar(&startStr, "s", "2014-06-02", "The first date to collect SST for (YYYY-MM-DD)")
	fs.StringVar(&startStr, "start_date", "2014-06-02", "The first date to collect SST for (YYYY-MM-DD)")
	fs.StringVar(&endStr, "e", yesterday, "The last date to collect SST for (YYYY-MM-DD, default yesterday)")
	fs.StringVar(&endStr, "end_date", yesterday, "The last date to collect SST for (YYYY-MM-DD, default yesterday)")
	fs.Float64Var(&opts.lat, "latitude", 42.575, "The latitude (degrees north) to collect SST for")
	fs.Float64Var(&opts.lon, "longitude", 141.675, "The longitude (degrees east) to collect SST for")
	fs.StringVar(&source, "source", string(model.GeoPolarBlended), "Dataset to use: "+joinSources())
	fs.BoolVar(&opts.gzFallback, "gz-fallback", false, "Retry unavailable days once with the .gz compressed address")
	fs.StringVar(&opts.outDir, "out-dir", "", "Directory for the output CSV (default $SST_OUTPUT_DIR or .)")
	fs.StringVar(&runID, "run-id", "", "Run identifier for the archived copy (UUIDv7, generated when empty)")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	var err error
	if opts.descriptor, err = dataset.Lookup(model.Source(source)); err != nil {
		return options{}, err
	}
	if opts.start, err = time.Parse(dateLayout, startStr); err != nil {
		return options{}, fmt.Errorf("start date must be in YYYY-MM-DD format: %w", err)
	}
	if opts.end, err = time.Parse(dateLayout, endStr); err != nil {
		return options{}, fmt.Errorf("end date must be in YYYY-MM-DD format: %w", err)
	}
	if opts.end.Before(opts.start) {
		return options{}, fmt.Errorf("end date %s is before start date %s", endStr, startStr)
	}
	if runID != "" {
		opts.runID = model.RunID(runID)
		if err := opts.runID.Validate(); err != nil {
			return options{}, err
		}
	}

	d := opts.descriptor
	if opts.lat < d.LatMin || opts.lat > d.LatMax || opts.lon < d.LonMin || opts.lon > d.LonMax {
		slog.Warn("coordinates outside the dataset grid, requests will likely fail",
			"latitude", opts.lat, "longitude", opts.lon, "dataset", d.ShortName())
	}

	return opts, nil
}

func joinSources() string {
	names := make([]string, len(model.Sources))
	for i, s := range model.Sources {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrWrite), errors.Is(err, storage.ErrArchive):
		return exitcode.StorageError
	case errors.Is(err, opendap.ErrUnexpectedStatus):
		return exitcode.APIError
	case errors.Is(err, opendap.ErrDecode):
		return exitcode.DataError
	default:
		return exitcode.ApplicationError
	}
}

func newLogger(level string) *slog.Logger {
	logLevel := new(slog.LevelVar)
	switch level {
	case "debug":
		logLevel.Set(slog.LevelDebug)
	case "warn":
		logLevel.Set(slog.LevelWarn)
	case "error":
		logLevel.Set(slog.LevelError)
	default:
		logLevel.Set(slog.LevelInfo)
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}
