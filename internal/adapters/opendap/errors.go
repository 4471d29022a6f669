package opendap

import (
	"errors"
	"fmt"

	"github.com/christuart/ghrsst/internal/extract"
)

var (
	// ErrRemoteUnavailable matches failures where the file does not exist on
	// the server or the server could not be reached. Callers may skip the
	// day and carry on.
	ErrRemoteUnavailable = extract.ErrRemoteUnavailable

	// ErrUnexpectedStatus matches any other non-200 response.
	ErrUnexpectedStatus = errors.New("opendap: unexpected status")

	// ErrDecode is returned when the response is not a readable netCDF file.
	ErrDecode = errors.New("opendap: decode response")

	// ErrFillValue is returned by Handle.Scalar when the cell holds the
	// variable's _FillValue (land, ice or no retrieval).
	ErrFillValue = extract.ErrNoValue
)

// UnavailableError describes a not-found or unreachable address.
type UnavailableError struct {
	Address    string
	StatusCode int // zero for transport failures
	Err        error
}

func (e *UnavailableError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("opendap: %s unavailable (status %d)", e.Address, e.StatusCode)
	}
	return fmt.Sprintf("opendap: %s unavailable: %v", e.Address, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

func (e *UnavailableError) Is(target error) bool { return target == ErrRemoteUnavailable }

// apiError represents an error response from the OPeNDAP server.
type apiError struct {
	StatusCode int
	Message    string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("opendap: %s (status %d)", e.Message, e.StatusCode)
}

func (e *apiError) Is(target error) bool { return target == ErrUnexpectedStatus }
