package media

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type MediaType string

const (
	TypeImage MediaType = "image"
	TypeVideo MediaType = "video"
)

var (
	ErrUnsupportedMIME = errors.New("mime type is neither image nor video")
	ErrTypeMismatch    = errors.New("type does not match mime type")
	ErrMissingID       = errors.New("media id is required")
)

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name,omitempty"`
}

// MediaItem is one stored asset. JSON names are the persisted field names and must stay stable.
type MediaItem struct {
	ID            string         `json:"id"`
	File          []byte         `json:"-"`
	Name          string         `json:"name"`
	Type          MediaType      `json:"type"`
	MimeType      string         `json:"mimeType"`
	Size          int64          `json:"size"`
	Date          time.Time      `json:"date"`
	AlbumID       *int64         `json:"albumId"`
	Tags          []string       `json:"tags"`
	Location      *Location      `json:"location"`
	Width         *int           `json:"width"`
	Height        *int           `json:"height"`
	Duration      *float64       `json:"duration"`
	Exif          map[string]any `json:"exif"`
	IsFavorite    bool           `json:"isFavorite"`
	IsHidden      bool           `json:"isHidden"`
	EditedVersion *string        `json:"editedVersion"`
	OriginalID    *string        `json:"originalId"`
	Revision      int64          `json:"revision"`
}

// TypeFromMIME derives the stored type from the top-level mime category.
func TypeFromMIME(mimeType string) (MediaType, error) {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return TypeImage, nil
	case strings.HasPrefix(mimeType, "video/"):
		return TypeVideo, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedMIME, mimeType)
}

// NewID builds "<unix millis>-<9 random chars>".
func NewID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("%d-%s", now.UnixMilli(), suffix)
}

// Validate is checked on insertion only.
func (m *MediaItem) Validate() error {
	if m.ID == "" {
		return ErrMissingID
	}
	t, err := TypeFromMIME(m.MimeType)
	if err != nil {
		return err
	}
	if t != m.Type {
		return fmt.Errorf("%w: %s vs %s", ErrTypeMismatch, m.Type, m.MimeType)
	}
	return nil
}

func (m *MediaItem) HasTag(name string) bool {
	for _, t := range m.Tags {
		if t == name {
			return true
		}
	}
	return false
}

// Clone copies the item deeply enough that mutating the copy never touches the original.
func (m *MediaItem) Clone() *MediaItem {
	c := *m
	if m.File != nil {
		c.File = append([]byte(nil), m.File...)
	}
	c.Tags = append([]string(nil), m.Tags...)
	if m.AlbumID != nil {
		id := *m.AlbumID
		c.AlbumID = &id
	}
	if m.Location != nil {
		loc := *m.Location
		c.Location = &loc
	}
	if m.Exif != nil {
		c.Exif = make(map[string]any, len(m.Exif))
		for k, v := range m.Exif {
			c.Exif[k] = v
		}
	}
	return &c
}

// Metadata is what a caller may supply alongside the file on insertion.
type Metadata struct {
	Date     *time.Time
	AlbumID  *int64
	Tags     []string
	Location *Location
	Width    *int
	Height   *int
	Duration *float64
	Exif     map[string]any
}

// Stats aggregates the media collection by type.
type Stats struct {
	TotalItems int   `json:"totalItems"`
	TotalSize  int64 `json:"totalSize"`
	ImageCount int   `json:"imageCount"`
	VideoCount int   `json:"videoCount"`
	ImageSize  int64 `json:"imageSize"`
	VideoSize  int64 `json:"videoSize"`
}

func (s *Stats) Add(m *MediaItem) {
	s.TotalItems++
	s.TotalSize += m.Size
	switch m.Type {
	case TypeImage:
		s.ImageCount++
		s.ImageSize += m.Size
	case TypeVideo:
		s.VideoCount++
		s.VideoSize += m.Size
	}
}

type Repository interface {
	Save(ctx context.Context, item *MediaItem) error
	// FindByID returns nil, nil when the id is absent.
	FindByID(ctx context.Context, id string) (*MediaItem, error)
	Update(ctx context.Context, id string, upd Update) (*MediaItem, error)
	// Delete removes permanently. Deleting an absent id is not an error.
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter Filter) ([]*MediaItem, error)
	Search(ctx context.Context, query string, opts SearchOptions) ([]*MediaItem, error)
	Stats(ctx context.Context) (*Stats, error)
	CountByAlbum(ctx context.Context, albumID int64) (int, error)
	ListLarge(ctx context.Context, threshold int64) ([]*MediaItem, error)
	ListSince(ctx context.Context, since time.Time) ([]*MediaItem, error)
}
