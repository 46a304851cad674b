package tag

import (
	"context"
	"errors"
	"strings"
	"time"
)

const DefaultColor = "#999999"

var ErrEmptyName = errors.New("tag name is required")

// Tag is referenced from media by Name, not ID. Renaming is not offered because existing
// media would keep the old name.
type Tag struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"createdAt"`
}

func (t *Tag) Validate() error {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return ErrEmptyName
	}
	if t.Color == "" {
		t.Color = DefaultColor
	}
	return nil
}

type Repository interface {
	// Save assigns the id. A duplicate name is a conflict.
	Save(ctx context.Context, t *Tag) error
	FindByName(ctx context.Context, name string) (*Tag, error)
	List(ctx context.Context) ([]*Tag, error)
}
