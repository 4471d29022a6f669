package extract

import (
	"context"
	"errors"
	"log/slog"

	"github.com/christuart/ghrsst/internal/dataset"
)

// FallbackOpener retries an unavailable address once with the compressed
// file suffix before giving up.
type FallbackOpener struct {
	Opener Opener
}

// OpenSubset tries address, then its compressed form. Only
// ErrRemoteUnavailable triggers the second attempt.
func (f FallbackOpener) OpenSubset(ctx context.Context, address string) (Subset, error) {
	candidates := []string{address}
	if compressed, ok := dataset.CompressedAddress(address); ok {
		candidates = append(candidates, compressed)
	}

	var err error
	for i, candidate := range candidates {
		if i > 0 {
			slog.InfoContext(ctx, "retrying with compressed address", "address", candidate)
		}
		var sub Subset
		sub, err = f.Opener.OpenSubset(ctx, candidate)
		if err == nil {
			return sub, nil
		}
		if !errors.Is(err, ErrRemoteUnavailable) {
			return nil, err
		}
	}
	return nil, err
}
