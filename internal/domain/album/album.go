package album

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/khoahotran/pictures/internal/domain/media"
)

var ErrEmptyName = errors.New("album name is required")

type Album struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	CoverID   *string   `json:"coverId"`
	IsPrivate bool      `json:"isPrivate"`
	// PasswordHash is a bcrypt hash; it is persisted but never rendered to clients.
	PasswordHash *string `json:"passwordHash,omitempty"`
	// ItemCount is written as zero and not kept current. WithStats carries the live count.
	ItemCount int `json:"itemCount"`
}

func (a *Album) Validate() error {
	a.Name = strings.TrimSpace(a.Name)
	if a.Name == "" {
		return ErrEmptyName
	}
	return nil
}

func (a *Album) HasPassword() bool {
	return a.PasswordHash != nil && *a.PasswordHash != ""
}

// Public returns a copy without the password hash.
func (a *Album) Public() *Album {
	out := *a
	out.PasswordHash = nil
	return &out
}

type Update struct {
	Name         *string
	CoverID      media.Optional[*string]
	IsPrivate    *bool
	PasswordHash media.Optional[*string]
}

func (u Update) Apply(a *Album) {
	if u.Name != nil {
		a.Name = *u.Name
	}
	if u.CoverID.Valid {
		a.CoverID = u.CoverID.Value
	}
	if u.IsPrivate != nil {
		a.IsPrivate = *u.IsPrivate
	}
	if u.PasswordHash.Valid {
		a.PasswordHash = u.PasswordHash.Value
	}
}

// WithStats is the read-side join of an album with its live member count and cover.
type WithStats struct {
	*Album
	ItemCount int              `json:"itemCount"`
	Cover     *media.MediaItem `json:"cover"`
}

// ChooseCover keeps the configured cover while it is still a member, otherwise takes the
// first member in the default order. members must already be sorted date descending.
func ChooseCover(a *Album, members []*media.MediaItem) *media.MediaItem {
	if len(members) == 0 {
		return nil
	}
	if a.CoverID != nil {
		for _, m := range members {
			if m.ID == *a.CoverID {
				return m
			}
		}
	}
	return members[0]
}

type Repository interface {
	// Save assigns a fresh monotonic id and stores ItemCount as zero.
	Save(ctx context.Context, a *Album) error
	FindByID(ctx context.Context, id int64) (*Album, error)
	List(ctx context.Context) ([]*Album, error)
	ListPrivate(ctx context.Context) ([]*Album, error)
	Update(ctx context.Context, id int64, upd Update) (*Album, error)
	// Delete removes the album row only. Members keep their albumId.
	Delete(ctx context.Context, id int64) error
}
