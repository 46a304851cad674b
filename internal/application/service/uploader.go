package service

import (
	"context"
	"io"
)

// Uploader ships a file to off-device object storage and returns where it landed.
type Uploader interface {
	Upload(ctx context.Context, file io.Reader, folder string, publicID string) (string, error)
	Delete(ctx context.Context, publicID string) error
}
