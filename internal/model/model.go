package model

import (
	"fmt"

	"github.com/google/uuid"
)

// Source names an SST product as accepted on the command line.
type Source string

const (
	GeoPolarBlended      Source = "GeoPolarBlended"
	GeoPolarBlendedNight Source = "GeoPolarBlendedNight"
	CMCZeroPointTwoDeg   Source = "CMCZeroPointTwoDeg"
)

// Sources lists the known sources in help-text order.
var Sources = []Source{GeoPolarBlended, GeoPolarBlendedNight, CMCZeroPointTwoDeg}

// Validate checks that the Source is one of the known products.
func (s Source) Validate() error {
	for _, known := range Sources {
		if s == known {
			return nil
		}
	}
	return fmt.Errorf("unknown source %q: must be one of %v", string(s), Sources)
}

// RunID identifies one extraction run. It is a UUIDv7 so archived outputs
// sort by creation time.
type RunID string

// NewRunID generates a fresh UUIDv7 run identifier.
func NewRunID() (RunID, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate run-id: %w", err)
	}
	return RunID(id.String()), nil
}

// Validate checks that the RunID is a valid UUIDv7.
func (r RunID) Validate() error {
	if r == "" {
		return fmt.Errorf("run-id cannot be empty")
	}
	id, err := uuid.Parse(string(r))
	if err != nil {
		return fmt.Errorf("run-id must be a valid UUID: %w", err)
	}
	if id.Version() != uuid.Version(7) {
		return fmt.Errorf("run-id must be a UUIDv7, got v%d", id.Version())
	}
	return nil
}

// String returns the run ID as a string.
func (r RunID) String() string {
	return string(r)
}
