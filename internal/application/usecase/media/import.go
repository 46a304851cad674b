package media

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/khoahotran/pictures/internal/application/service"
	"github.com/khoahotran/pictures/internal/domain/media"
	"github.com/khoahotran/pictures/pkg/apperror"
	"github.com/khoahotran/pictures/pkg/logger"
)

var SupportedTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"image/bmp":       true,
	"video/mp4":       true,
	"video/webm":      true,
	"video/ogg":       true,
	"video/quicktime": true,
	"video/x-msvideo": true,
	"video/avi":       true,
}

func IsSupported(mimeType string) bool {
	return SupportedTypes[mimeType]
}

// TagRegistrar makes sure tag names used on import exist as tags.
type TagRegistrar interface {
	Ensure(ctx context.Context, names []string) error
}

type ImportUseCase struct {
	library   *LibraryUseCase
	extractor service.MetadataExtractor
	tags      TagRegistrar
	logger    logger.Logger
}

func NewImportUseCase(lib *LibraryUseCase, ex service.MetadataExtractor, tags TagRegistrar, log logger.Logger) *ImportUseCase {
	return &ImportUseCase{library: lib, extractor: ex, tags: tags, logger: log}
}

type ImportFile struct {
	Name         string
	Data         []byte
	DeclaredMIME string
	LastModified *time.Time
}

// ImportOptions override anything read from the files.
type ImportOptions struct {
	AlbumID  *int64
	Tags     []string
	Date     *time.Time
	Duration *float64
}

type ImportResult struct {
	Name  string           `json:"name"`
	Item  *media.MediaItem `json:"item,omitempty"`
	Error string           `json:"error,omitempty"`
}

// Import handles each file on its own. A rejected file does not stop the batch.
func (uc *ImportUseCase) Import(ctx context.Context, files []ImportFile, opts ImportOptions) []ImportResult {
	if len(opts.Tags) > 0 && uc.tags != nil {
		if err := uc.tags.Ensure(ctx, opts.Tags); err != nil {
			uc.logger.Warn("Could not register import tags", zap.Error(err))
		}
	}

	results := make([]ImportResult, 0, len(files))
	for _, f := range files {
		item, err := uc.ImportOne(ctx, f, opts)
		res := ImportResult{Name: f.Name, Item: item}
		if err != nil {
			res.Error = err.Error()
			uc.logger.Warn("Import rejected file", zap.String("file", f.Name), zap.Error(err))
		}
		results = append(results, res)
	}
	return results
}

func (uc *ImportUseCase) ImportOne(ctx context.Context, f ImportFile, opts ImportOptions) (*media.MediaItem, error) {
	extracted, err := uc.extractor.Extract(ctx, f.Name, f.Data)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Sprintf("cannot read %s", f.Name), err)
	}

	mimeType := extracted.MimeType
	if !IsSupported(mimeType) && IsSupported(f.DeclaredMIME) && mimeType == "application/octet-stream" {
		mimeType = f.DeclaredMIME
	}
	if !IsSupported(mimeType) {
		return nil, apperror.NewInvalidInput(fmt.Sprintf("unsupported file type: %s", mimeType), nil)
	}

	meta := media.Metadata{
		Date:     extracted.Date,
		AlbumID:  opts.AlbumID,
		Tags:     opts.Tags,
		Location: extracted.Location,
		Width:    extracted.Width,
		Height:   extracted.Height,
		Duration: extracted.Duration,
		Exif:     extracted.Exif,
	}
	if opts.Date != nil {
		meta.Date = opts.Date
	}
	if opts.Duration != nil {
		meta.Duration = opts.Duration
	}

	return uc.library.AddMedia(ctx, AddMediaInput{
		File:         f.Data,
		Name:         f.Name,
		MimeType:     mimeType,
		LastModified: f.LastModified,
		Metadata:     meta,
	})
}
