package service

import (
	"context"
	"time"

	"github.com/khoahotran/pictures/internal/domain/media"
)

// ExtractedMetadata is whatever could be read from the file itself. Nil fields were not found.
type ExtractedMetadata struct {
	MimeType string
	Date     *time.Time
	Width    *int
	Height   *int
	Duration *float64
	Location *media.Location
	Exif     map[string]any
}

type MetadataExtractor interface {
	Extract(ctx context.Context, name string, data []byte) (*ExtractedMetadata, error)
}
