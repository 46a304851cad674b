package trash

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/khoahotran/pictures/internal/application/service"
	"github.com/khoahotran/pictures/internal/domain/media"
	"github.com/khoahotran/pictures/internal/domain/trash"
	"github.com/khoahotran/pictures/pkg/logger"
)

type TrashUseCase struct {
	repo      trash.Repository
	retention time.Duration
	publisher service.EventPublisher
	logger    logger.Logger
	now       func() time.Time
}

type Option func(*TrashUseCase)

// WithClock sets the clock used for days-left. It should match the store's clock.
func WithClock(now func() time.Time) Option {
	return func(uc *TrashUseCase) { uc.now = now }
}

func NewTrashUseCase(r trash.Repository, retention time.Duration, pub service.EventPublisher, log logger.Logger, opts ...Option) *TrashUseCase {
	if retention <= 0 {
		retention = trash.DefaultRetention
	}
	uc := &TrashUseCase{repo: r, retention: retention, publisher: pub, logger: log, now: time.Now}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// EntryView is a trash entry with the whole days left before it is purged.
type EntryView struct {
	*trash.Entry
	DaysLeft int `json:"daysLeft"`
}

func (uc *TrashUseCase) List(ctx context.Context) ([]EntryView, error) {
	entries, err := uc.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	out := make([]EntryView, 0, len(entries))
	for _, e := range entries {
		out = append(out, EntryView{Entry: e, DaysLeft: e.DaysLeft(now, uc.retention)})
	}
	return out, nil
}

func (uc *TrashUseCase) Restore(ctx context.Context, id string) (*media.MediaItem, error) {
	item, err := uc.repo.Restore(ctx, id)
	if err != nil {
		return nil, err
	}
	uc.logger.Info("Media restored", zap.String("media_id", id))
	uc.notify(ctx, service.MediaRestored, id, nil)
	return item, nil
}

func (uc *TrashUseCase) DeleteForever(ctx context.Context, id string) error {
	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	uc.notify(ctx, service.MediaDeleted, id, nil)
	return nil
}

func (uc *TrashUseCase) Empty(ctx context.Context) (int, error) {
	n, err := uc.repo.Empty(ctx)
	if err != nil {
		return 0, err
	}
	uc.logger.Info("Trash emptied", zap.Int("count", n))
	uc.notify(ctx, service.TrashEmptied, "", map[string]int{"count": n})
	return n, nil
}

func (uc *TrashUseCase) PurgeExpired(ctx context.Context) (int, error) {
	n, err := uc.repo.PurgeExpired(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		uc.logger.Info("Expired trash purged", zap.Int("count", n))
		uc.notify(ctx, service.TrashPurged, "", map[string]int{"count": n})
	}
	return n, nil
}

// RunRetention purges once at start and then every interval until ctx ends.
func (uc *TrashUseCase) RunRetention(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := uc.PurgeExpired(ctx); err != nil && ctx.Err() == nil {
			uc.logger.Error("Trash retention run failed", err)
		}
		select {
		case <-ctx.Done():
			uc.logger.Info("Trash retention loop stopped")
			return
		case <-ticker.C:
		}
	}
}

func (uc *TrashUseCase) notify(ctx context.Context, kind service.ChangeKind, id string, data any) {
	if uc.publisher == nil {
		return
	}
	if err := uc.publisher.Publish(ctx, service.NewChangeEvent(kind, id, data)); err != nil {
		uc.logger.Error("Failed to publish change", err, zap.String("kind", string(kind)))
	}
}
