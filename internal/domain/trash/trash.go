package trash

import (
	"context"
	"time"

	"github.com/khoahotran/pictures/internal/domain/media"
)

const DefaultRetention = 30 * 24 * time.Hour

// Entry is a soft-deleted media item. Its id is the original media id.
type Entry struct {
	media.MediaItem
	DeletedAt time.Time `json:"deletedAt"`
}

func (e *Entry) Expired(now time.Time, retention time.Duration) bool {
	return now.Sub(e.DeletedAt) > retention
}

// DaysLeft rounds up, so an entry deleted a moment ago has the full retention left.
func (e *Entry) DaysLeft(now time.Time, retention time.Duration) int {
	left := e.DeletedAt.Add(retention).Sub(now)
	if left <= 0 {
		return 0
	}
	day := 24 * time.Hour
	return int((left + day - 1) / day)
}

type Repository interface {
	// MoveToTrash removes the item from media and records it here in one transaction.
	MoveToTrash(ctx context.Context, id string) (*Entry, error)
	// List returns unexpired entries, newest deletion first. Expired entries are purged.
	List(ctx context.Context) ([]*Entry, error)
	Restore(ctx context.Context, id string) (*media.MediaItem, error)
	Delete(ctx context.Context, id string) error
	Empty(ctx context.Context) (int, error)
	PurgeExpired(ctx context.Context) (int, error)
}
