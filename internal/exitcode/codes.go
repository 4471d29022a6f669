package exitcode

// Exit codes for the sstfetch CLI.
// Wrapper scripts can use these to decide whether to re-run from the last
// date written.
const (
	// Success - the whole date range was processed (days without data included)
	Success = 0

	// ConfigError - missing or invalid flags or environment
	// Don't retry: fix the config first
	ConfigError = 1

	// NetworkError - transport failure outside the per-day fetch (archive upload)
	// Retry with backoff
	NetworkError = 2

	// APIError - OPeNDAP server answered with an unexpected status
	// Check logs, the address or the index range may be wrong
	APIError = 3

	// StorageError - failed to write the CSV or to archive it in MinIO/S3
	// Retry with backoff
	StorageError = 4

	// DataError - the server sent something that is not a readable subset
	// Don't retry: investigate the data
	DataError = 5

	// ApplicationError - interrupted or failed for any other reason
	// Restart from the last date in the output file
	ApplicationError = 6
)
