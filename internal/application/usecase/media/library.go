package media

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/khoahotran/pictures/internal/application/service"
	"github.com/khoahotran/pictures/internal/domain/media"
	"github.com/khoahotran/pictures/internal/domain/trash"
	"github.com/khoahotran/pictures/pkg/apperror"
	"github.com/khoahotran/pictures/pkg/logger"
)

type LibraryUseCase struct {
	mediaRepo media.Repository
	trashRepo trash.Repository
	publisher service.EventPublisher
	logger    logger.Logger
	now       func() time.Time
}

func NewLibraryUseCase(mr media.Repository, tr trash.Repository, pub service.EventPublisher, log logger.Logger) *LibraryUseCase {
	return &LibraryUseCase{mediaRepo: mr, trashRepo: tr, publisher: pub, logger: log, now: time.Now}
}

type AddMediaInput struct {
	File         []byte
	Name         string
	MimeType     string
	LastModified *time.Time
	Metadata     media.Metadata
}

// AddMedia stores a new item. Caller metadata wins over defaults; the date falls back to the
// file's last-modified time, then to now.
func (uc *LibraryUseCase) AddMedia(ctx context.Context, in AddMediaInput) (*media.MediaItem, error) {
	typ, err := media.TypeFromMIME(in.MimeType)
	if err != nil {
		return nil, apperror.NewInvalidInput("unsupported file type", err)
	}

	now := uc.now()
	date := now
	if in.LastModified != nil && !in.LastModified.IsZero() {
		date = *in.LastModified
	}
	if in.Metadata.Date != nil {
		date = *in.Metadata.Date
	}

	tags := in.Metadata.Tags
	if tags == nil {
		tags = []string{}
	}

	item := &media.MediaItem{
		ID:       media.NewID(now),
		File:     in.File,
		Name:     in.Name,
		Type:     typ,
		MimeType: in.MimeType,
		Size:     int64(len(in.File)),
		Date:     date.UTC(),
		AlbumID:  in.Metadata.AlbumID,
		Tags:     tags,
		Location: in.Metadata.Location,
		Width:    in.Metadata.Width,
		Height:   in.Metadata.Height,
		Duration: in.Metadata.Duration,
		Exif:     in.Metadata.Exif,
	}
	if err := uc.mediaRepo.Save(ctx, item); err != nil {
		return nil, err
	}

	uc.logger.Info("Media added", zap.String("media_id", item.ID), zap.String("type", string(item.Type)))
	uc.notify(ctx, service.MediaAdded, item.ID, item)
	return item, nil
}

// GetMedia returns nil without error when the id is unknown.
func (uc *LibraryUseCase) GetMedia(ctx context.Context, id string) (*media.MediaItem, error) {
	return uc.mediaRepo.FindByID(ctx, id)
}

func (uc *LibraryUseCase) ListMedia(ctx context.Context, filter media.Filter) ([]*media.MediaItem, error) {
	return uc.mediaRepo.List(ctx, filter)
}

func (uc *LibraryUseCase) UpdateMedia(ctx context.Context, id string, upd media.Update) (*media.MediaItem, error) {
	item, err := uc.mediaRepo.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	uc.notify(ctx, service.MediaUpdated, id, item)
	return item, nil
}

// ToggleFavorite flips the flag against the revision it read, so a racing writer turns this
// into a conflict instead of a silent double flip.
func (uc *LibraryUseCase) ToggleFavorite(ctx context.Context, id string) (*media.MediaItem, error) {
	current, err := uc.mediaRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, apperror.NewNotFound("media", id)
	}
	flipped := !current.IsFavorite
	return uc.UpdateMedia(ctx, id, media.Update{IsFavorite: &flipped, ExpectedRevision: &current.Revision})
}

// DeleteMedia soft-deletes into trash unless permanent is set. Permanent deletion of an
// unknown id succeeds; soft deletion of one is NotFound.
func (uc *LibraryUseCase) DeleteMedia(ctx context.Context, id string, permanent bool) error {
	if permanent {
		if err := uc.mediaRepo.Delete(ctx, id); err != nil {
			return err
		}
		uc.notify(ctx, service.MediaDeleted, id, nil)
		return nil
	}

	entry, err := uc.trashRepo.MoveToTrash(ctx, id)
	if err != nil {
		return err
	}
	uc.notify(ctx, service.MediaTrashed, id, map[string]any{"deletedAt": entry.DeletedAt})
	return nil
}

// DeleteMany runs one independent delete per id. Earlier deletions stand when a later one fails.
func (uc *LibraryUseCase) DeleteMany(ctx context.Context, ids []string, permanent bool) *media.BatchResult {
	result := &media.BatchResult{}
	for _, id := range ids {
		result.Record(id, uc.DeleteMedia(ctx, id, permanent))
	}
	if result.HasFailures() {
		uc.logger.Warn("Bulk delete partially failed",
			zap.Int("succeeded", len(result.Succeeded)),
			zap.Int("failed", len(result.Failed)),
		)
	}
	return result
}

func (uc *LibraryUseCase) Stats(ctx context.Context) (*media.Stats, error) {
	return uc.mediaRepo.Stats(ctx)
}

func (uc *LibraryUseCase) notify(ctx context.Context, kind service.ChangeKind, id string, data any) {
	if uc.publisher == nil {
		return
	}
	if err := uc.publisher.Publish(ctx, service.NewChangeEvent(kind, id, data)); err != nil {
		uc.logger.Error("Failed to publish change", err, zap.String("kind", string(kind)), zap.String("id", id))
	}
}
