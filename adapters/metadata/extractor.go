package metadata

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
	"go.uber.org/zap"

	"github.com/khoahotran/pictures/internal/application/service"
	"github.com/khoahotran/pictures/internal/domain/media"
	"github.com/khoahotran/pictures/pkg/logger"
)

// exif fields with more values than this (thumbnails, maker notes) are left out of the map
const maxExifValues = 64

// Extractor reads what it can from the file bytes. Every step is best effort; only the mime
// type is always filled.
type Extractor struct {
	logger logger.Logger
}

func NewExtractor(log logger.Logger) *Extractor {
	return &Extractor{logger: log}
}

var _ service.MetadataExtractor = (*Extractor)(nil)

func (e *Extractor) Extract(ctx context.Context, name string, data []byte) (*service.ExtractedMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := &service.ExtractedMetadata{MimeType: DetectMIME(data)}
	log := e.logger.With(zap.String("file", name), zap.String("mime", out.MimeType))

	switch {
	case strings.HasPrefix(out.MimeType, "image/"):
		if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
			out.Width, out.Height = &cfg.Width, &cfg.Height
		}
		if err := readExif(data, out); err != nil {
			log.Debug("No exif data", zap.Error(err))
		}
	case strings.HasPrefix(out.MimeType, "video/"):
		if err := readContainerTags(data, out); err != nil {
			log.Debug("No container tags", zap.Error(err))
		}
	}
	return out, nil
}

// DetectMIME sniffs the content type and drops any parameters.
func DetectMIME(data []byte) string {
	mt := mimetype.Detect(data).String()
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	return strings.TrimSpace(mt)
}

type exifWalker map[string]any

func (w exifWalker) Walk(name exif.FieldName, t *tiff.Tag) error {
	if t.Count > maxExifValues {
		return nil
	}
	w[string(name)] = strings.Trim(t.String(), `"`)
	return nil
}

func readExif(data []byte, out *service.ExtractedMetadata) error {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return err
	}

	fields := exifWalker{}
	if err := x.Walk(fields); err != nil {
		return err
	}
	if len(fields) > 0 {
		out.Exif = fields
	}

	if taken, err := x.DateTime(); err == nil {
		t := taken.UTC()
		out.Date = &t
	}
	if lat, long, err := x.LatLong(); err == nil {
		out.Location = &media.Location{Latitude: lat, Longitude: long}
	}
	return nil
}

func readContainerTags(data []byte, out *service.ExtractedMetadata) error {
	m, err := tag.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return err
	}

	fields := map[string]any{
		"format":   string(m.Format()),
		"fileType": string(m.FileType()),
	}
	if v := m.Title(); v != "" {
		fields["title"] = v
	}
	if v := m.Artist(); v != "" {
		fields["artist"] = v
	}
	if v := m.Year(); v != 0 {
		fields["year"] = v
	}
	for k, v := range m.Raw() {
		if s, ok := v.(string); ok {
			fields[k] = s
		}
	}
	out.Exif = fields

	if raw, ok := fields["day"].(string); ok {
		if t, err := parseContainerDate(raw); err == nil {
			out.Date = &t
		}
	}
	return nil
}

var errUnknownDate = errors.New("unrecognised date format")

func parseContainerDate(raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02", "2006"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", errUnknownDate, raw)
}
