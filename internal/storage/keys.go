package storage

import (
	"fmt"

	"github.com/christuart/ghrsst/internal/model"
)

// ObjectKey locates an archived output file in the bucket.
type ObjectKey struct {
	Source    string
	Dataset   string // descriptor short name
	Start     string // in YYYY-MM-DD format
	End       string // in YYYY-MM-DD format
	RunID     model.RunID
	Extension string
}

func (k ObjectKey) Key() string {
	return fmt.Sprintf("%s/%s/%s_%s/%s.%s", k.Source, k.Dataset, k.Start, k.End, k.RunID, k.Extension)
}
