package album

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/khoahotran/pictures/internal/application/service"
	"github.com/khoahotran/pictures/internal/domain/album"
	"github.com/khoahotran/pictures/internal/domain/media"
	"github.com/khoahotran/pictures/internal/domain/trash"
	"github.com/khoahotran/pictures/pkg/apperror"
	"github.com/khoahotran/pictures/pkg/auth"
	"github.com/khoahotran/pictures/pkg/logger"
)

type ManagerUseCase struct {
	albumRepo album.Repository
	mediaRepo media.Repository
	trashRepo trash.Repository
	tokens    *auth.JWTService
	publisher service.EventPublisher
	logger    logger.Logger
}

func NewManagerUseCase(
	ar album.Repository,
	mr media.Repository,
	tr trash.Repository,
	tokens *auth.JWTService,
	pub service.EventPublisher,
	log logger.Logger,
) *ManagerUseCase {
	return &ManagerUseCase{albumRepo: ar, mediaRepo: mr, trashRepo: tr, tokens: tokens, publisher: pub, logger: log}
}

type CreateAlbumInput struct {
	Name      string
	IsPrivate bool
	Password  string
	CoverID   *string
}

// CreateAlbum stores the album with a hashed password. Setting a password makes it private.
func (uc *ManagerUseCase) CreateAlbum(ctx context.Context, in CreateAlbumInput) (*album.Album, error) {
	a := &album.Album{Name: in.Name, IsPrivate: in.IsPrivate, CoverID: in.CoverID}
	if err := a.Validate(); err != nil {
		return nil, apperror.NewInvalidInput("album validation failed", err)
	}
	if in.Password != "" {
		hash, err := auth.HashPassword(in.Password)
		if err != nil {
			return nil, apperror.NewInternal("cannot hash album password", err)
		}
		a.PasswordHash = &hash
		a.IsPrivate = true
	}

	if err := uc.albumRepo.Save(ctx, a); err != nil {
		return nil, err
	}
	uc.logger.Info("Album created", zap.Int64("album_id", a.ID), zap.Bool("private", a.IsPrivate))
	uc.notify(ctx, service.AlbumCreated, a.ID, a.Public())
	return a, nil
}

func (uc *ManagerUseCase) GetAlbum(ctx context.Context, id int64) (*album.Album, error) {
	return uc.albumRepo.FindByID(ctx, id)
}

func (uc *ManagerUseCase) ListAlbums(ctx context.Context) ([]*album.Album, error) {
	return uc.albumRepo.List(ctx)
}

func (uc *ManagerUseCase) ListPrivateAlbums(ctx context.Context) ([]*album.Album, error) {
	return uc.albumRepo.ListPrivate(ctx)
}

type UpdateAlbumInput struct {
	Name      *string
	IsPrivate *bool
	// Password replaces the password; an empty string removes it.
	Password *string
	CoverID  media.Optional[*string]
}

func (uc *ManagerUseCase) UpdateAlbum(ctx context.Context, id int64, in UpdateAlbumInput) (*album.Album, error) {
	upd := album.Update{IsPrivate: in.IsPrivate, CoverID: in.CoverID}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperror.NewInvalidInput("album validation failed", album.ErrEmptyName)
		}
		upd.Name = &name
	}
	if in.Password != nil {
		if *in.Password == "" {
			upd.PasswordHash = media.Some[*string](nil)
		} else {
			hash, err := auth.HashPassword(*in.Password)
			if err != nil {
				return nil, apperror.NewInternal("cannot hash album password", err)
			}
			upd.PasswordHash = media.Some(&hash)
			private := true
			upd.IsPrivate = &private
		}
	}

	a, err := uc.albumRepo.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	uc.notify(ctx, service.AlbumUpdated, id, a.Public())
	return a, nil
}

func (uc *ManagerUseCase) RenameAlbum(ctx context.Context, id int64, name string) (*album.Album, error) {
	return uc.UpdateAlbum(ctx, id, UpdateAlbumInput{Name: &name})
}

// DeleteAlbum removes the album. Members are soft-deleted when deleteMedia is set, otherwise
// they are unlinked. Member changes are independent; failures are reported and the album row
// is still removed.
func (uc *ManagerUseCase) DeleteAlbum(ctx context.Context, id int64, deleteMedia bool) (*media.BatchResult, error) {
	if _, err := uc.albumRepo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	members, err := uc.members(ctx, id)
	if err != nil {
		return nil, err
	}

	result := &media.BatchResult{}
	for _, m := range members {
		if deleteMedia {
			var entry *trash.Entry
			if entry, err = uc.trashRepo.MoveToTrash(ctx, m.ID); err == nil {
				uc.notifyMedia(ctx, service.MediaTrashed, m.ID, map[string]any{"deletedAt": entry.DeletedAt})
			}
		} else {
			_, err = uc.mediaRepo.Update(ctx, m.ID, media.Update{AlbumID: media.Some[*int64](nil)})
		}
		result.Record(m.ID, err)
	}

	if err := uc.albumRepo.Delete(ctx, id); err != nil {
		return result, err
	}
	uc.logger.Info("Album deleted",
		zap.Int64("album_id", id),
		zap.Bool("delete_media", deleteMedia),
		zap.Int("members", len(members)),
		zap.Int("failed", len(result.Failed)),
	)
	uc.notify(ctx, service.AlbumDeleted, id, result)
	return result, nil
}

// MoveToAlbum files every id under albumID; nil unfiles them.
func (uc *ManagerUseCase) MoveToAlbum(ctx context.Context, ids []string, albumID *int64) (*media.BatchResult, error) {
	if albumID != nil {
		if _, err := uc.albumRepo.FindByID(ctx, *albumID); err != nil {
			return nil, err
		}
	}
	result := &media.BatchResult{}
	for _, id := range ids {
		_, err := uc.mediaRepo.Update(ctx, id, media.Update{AlbumID: media.Some(albumID)})
		result.Record(id, err)
	}
	return result, nil
}

// MergeAlbums moves every member of the sources into target and deletes the emptied sources.
// A source with failed moves is kept.
func (uc *ManagerUseCase) MergeAlbums(ctx context.Context, sourceIDs []int64, targetID int64) (*media.BatchResult, error) {
	if _, err := uc.albumRepo.FindByID(ctx, targetID); err != nil {
		return nil, err
	}

	result := &media.BatchResult{}
	for _, src := range sourceIDs {
		if src == targetID {
			continue
		}
		members, err := uc.members(ctx, src)
		if err != nil {
			return result, err
		}
		failed := len(result.Failed)
		for _, m := range members {
			_, err := uc.mediaRepo.Update(ctx, m.ID, media.Update{AlbumID: media.Some(&targetID)})
			result.Record(m.ID, err)
		}
		if len(result.Failed) > failed {
			uc.logger.Warn("Album merge left members behind", zap.Int64("album_id", src))
			continue
		}
		if err := uc.albumRepo.Delete(ctx, src); err != nil {
			return result, err
		}
		uc.notify(ctx, service.AlbumDeleted, src, nil)
	}
	uc.notify(ctx, service.AlbumUpdated, targetID, result)
	return result, nil
}

func (uc *ManagerUseCase) SetCover(ctx context.Context, albumID int64, mediaID string) (*album.Album, error) {
	item, err := uc.mediaRepo.FindByID(ctx, mediaID)
	if err != nil {
		return nil, err
	}
	if item == nil || item.AlbumID == nil || *item.AlbumID != albumID {
		return nil, apperror.NewInvalidInput(fmt.Sprintf("media %s is not in album %d", mediaID, albumID), nil)
	}
	return uc.UpdateAlbum(ctx, albumID, UpdateAlbumInput{CoverID: media.Some(&mediaID)})
}

func (uc *ManagerUseCase) GetAlbumWithStats(ctx context.Context, id int64) (*album.WithStats, error) {
	a, err := uc.albumRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return uc.withStats(ctx, a)
}

func (uc *ManagerUseCase) ListAlbumsWithStats(ctx context.Context) ([]*album.WithStats, error) {
	albums, err := uc.albumRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*album.WithStats, 0, len(albums))
	for _, a := range albums {
		ws, err := uc.withStats(ctx, a)
		if err != nil {
			return nil, err
		}
		out = append(out, ws)
	}
	return out, nil
}

func (uc *ManagerUseCase) withStats(ctx context.Context, a *album.Album) (*album.WithStats, error) {
	members, err := uc.members(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	cover := album.ChooseCover(a, members)
	if cover != nil {
		cover = cover.Clone()
		cover.File = nil
	}
	return &album.WithStats{Album: a, ItemCount: len(members), Cover: cover}, nil
}

func (uc *ManagerUseCase) members(ctx context.Context, id int64) ([]*media.MediaItem, error) {
	return uc.mediaRepo.List(ctx, media.Filter{AlbumID: media.Some(&id)})
}

// Unlock checks the password of a protected album and issues a token scoped to it.
func (uc *ManagerUseCase) Unlock(ctx context.Context, id int64, password string) (string, error) {
	a, err := uc.albumRepo.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	if !a.HasPassword() {
		return "", apperror.NewInvalidInput(fmt.Sprintf("album %d has no password", id), nil)
	}
	if err := auth.CheckPassword(*a.PasswordHash, password); err != nil {
		uc.logger.Warn("Album unlock rejected", zap.Int64("album_id", id))
		return "", apperror.NewUnauthorized("wrong album password", err)
	}
	token, err := uc.tokens.GenerateAlbumToken(id)
	if err != nil {
		return "", apperror.NewInternal("cannot issue album token", err)
	}
	return token, nil
}

// VerifyAccess allows open albums outright and protected ones only with a token for that album.
// An id with no album behind it locks nothing; items pointing at it count as unfiled.
func (uc *ManagerUseCase) VerifyAccess(ctx context.Context, id int64, token string) error {
	a, err := uc.albumRepo.FindByID(ctx, id)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !a.IsPrivate || !a.HasPassword() {
		return nil
	}
	if token == "" {
		return apperror.NewPermissionDenied(fmt.Sprintf("album %d is locked", id))
	}
	claims, err := uc.tokens.ValidateAlbumToken(token)
	if err != nil {
		return apperror.NewUnauthorized("invalid album token", err)
	}
	if claims.AlbumID != id {
		return apperror.NewPermissionDenied(fmt.Sprintf("token does not unlock album %d", id))
	}
	return nil
}

// LockedAlbumIDs returns the password-protected albums that token does not open.
func (uc *ManagerUseCase) LockedAlbumIDs(ctx context.Context, token string) (map[int64]bool, error) {
	private, err := uc.albumRepo.ListPrivate(ctx)
	if err != nil {
		return nil, err
	}
	var unlocked int64 = -1
	if token != "" {
		if claims, err := uc.tokens.ValidateAlbumToken(token); err == nil {
			unlocked = claims.AlbumID
		}
	}
	locked := make(map[int64]bool)
	for _, a := range private {
		if a.HasPassword() && a.ID != unlocked {
			locked[a.ID] = true
		}
	}
	return locked, nil
}

func (uc *ManagerUseCase) notify(ctx context.Context, kind service.ChangeKind, id int64, data any) {
	if uc.publisher == nil {
		return
	}
	evt := service.NewChangeEvent(kind, fmt.Sprint(id), data)
	if err := uc.publisher.Publish(ctx, evt); err != nil {
		uc.logger.Error("Failed to publish change", err, zap.String("kind", string(kind)), zap.Int64("album_id", id))
	}
}

func (uc *ManagerUseCase) notifyMedia(ctx context.Context, kind service.ChangeKind, id string, data any) {
	if uc.publisher == nil {
		return
	}
	if err := uc.publisher.Publish(ctx, service.NewChangeEvent(kind, id, data)); err != nil {
		uc.logger.Error("Failed to publish change", err, zap.String("kind", string(kind)), zap.String("media_id", id))
	}
}
