package testutil

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/khoahotran/pictures/adapters/persistence"
	"github.com/khoahotran/pictures/internal/config"
	"github.com/khoahotran/pictures/internal/domain/trash"
	"github.com/khoahotran/pictures/pkg/logger"
)

type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// NewStore opens a fresh store under t.TempDir and closes it when the test ends.
func NewStore(t *testing.T, clock *Clock) *persistence.Store {
	t.Helper()

	var cfg config.Config
	cfg.Store.Path = filepath.Join(t.TempDir(), "pictures.db")
	cfg.Store.Name = "PicturesMediaDB"
	cfg.Store.Version = 2
	cfg.Store.OpenTimeout = time.Second
	cfg.Trash.Retention = trash.DefaultRetention

	store := persistence.NewBoltStore(cfg, logger.NewNopLogger(), persistence.WithClock(clock.Now))
	require.NoError(t, store.Ready(context.Background()))
	t.Cleanup(func() { store.Close() })
	return store
}
