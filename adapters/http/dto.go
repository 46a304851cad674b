package http

import (
	"encoding/json"
	"time"

	"github.com/dustin/go-humanize"

	trashUC "github.com/khoahotran/pictures/internal/application/usecase/trash"
	"github.com/khoahotran/pictures/internal/domain/album"
	"github.com/khoahotran/pictures/internal/domain/media"
)

// Media DTOs

type MediaDTO struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Type          media.MediaType `json:"type"`
	MimeType      string          `json:"mimeType"`
	Size          int64           `json:"size"`
	SizeHuman     string          `json:"sizeHuman"`
	Date          time.Time       `json:"date"`
	AlbumID       *int64          `json:"albumId"`
	Tags          []string        `json:"tags"`
	Location      *media.Location `json:"location"`
	Width         *int            `json:"width"`
	Height        *int            `json:"height"`
	Duration      *float64        `json:"duration"`
	Exif          map[string]any  `json:"exif"`
	IsFavorite    bool            `json:"isFavorite"`
	IsHidden      bool            `json:"isHidden"`
	EditedVersion *string         `json:"editedVersion"`
	OriginalID    *string         `json:"originalId"`
	Revision      int64           `json:"revision"`
	FileURL       string          `json:"fileUrl"`
}

func ToMediaDTO(m *media.MediaItem) MediaDTO {
	tags := m.Tags
	if tags == nil {
		tags = []string{}
	}
	return MediaDTO{
		ID:            m.ID,
		Name:          m.Name,
		Type:          m.Type,
		MimeType:      m.MimeType,
		Size:          m.Size,
		SizeHuman:     humanize.IBytes(uint64(m.Size)),
		Date:          m.Date,
		AlbumID:       m.AlbumID,
		Tags:          tags,
		Location:      m.Location,
		Width:         m.Width,
		Height:        m.Height,
		Duration:      m.Duration,
		Exif:          m.Exif,
		IsFavorite:    m.IsFavorite,
		IsHidden:      m.IsHidden,
		EditedVersion: m.EditedVersion,
		OriginalID:    m.OriginalID,
		Revision:      m.Revision,
		FileURL:       "/api/media/" + m.ID + "/file",
	}
}

func ToMediaDTOs(items []*media.MediaItem) []MediaDTO {
	dtos := make([]MediaDTO, len(items))
	for i, m := range items {
		dtos[i] = ToMediaDTO(m)
	}
	return dtos
}

type StatsDTO struct {
	*media.Stats
	TotalSizeHuman string `json:"totalSizeHuman"`
	ImageSizeHuman string `json:"imageSizeHuman"`
	VideoSizeHuman string `json:"videoSizeHuman"`
}

func ToStatsDTO(s *media.Stats) StatsDTO {
	return StatsDTO{
		Stats:          s,
		TotalSizeHuman: humanize.IBytes(uint64(s.TotalSize)),
		ImageSizeHuman: humanize.IBytes(uint64(s.ImageSize)),
		VideoSizeHuman: humanize.IBytes(uint64(s.VideoSize)),
	}
}

type DeleteManyRequest struct {
	IDs       []string `json:"ids" binding:"required,min=1"`
	Permanent bool     `json:"permanent"`
}

// Album DTOs

type AlbumDTO struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"createdAt"`
	CoverID     *string   `json:"coverId"`
	IsPrivate   bool      `json:"isPrivate"`
	HasPassword bool      `json:"hasPassword"`
	ItemCount   int       `json:"itemCount"`
	Cover       *MediaDTO `json:"cover,omitempty"`
}

func ToAlbumDTO(a *album.Album) AlbumDTO {
	return AlbumDTO{
		ID:          a.ID,
		Name:        a.Name,
		CreatedAt:   a.CreatedAt,
		CoverID:     a.CoverID,
		IsPrivate:   a.IsPrivate,
		HasPassword: a.HasPassword(),
		ItemCount:   a.ItemCount,
	}
}

// ToAlbumStatsDTO leaves the cover out while the album is locked.
func ToAlbumStatsDTO(ws *album.WithStats, locked bool) AlbumDTO {
	dto := ToAlbumDTO(ws.Album)
	dto.ItemCount = ws.ItemCount
	if ws.Cover != nil && !locked {
		cover := ToMediaDTO(ws.Cover)
		dto.Cover = &cover
	}
	return dto
}

type CreateAlbumRequest struct {
	Name      string  `json:"name" binding:"required"`
	IsPrivate bool    `json:"isPrivate"`
	Password  string  `json:"password"`
	CoverID   *string `json:"coverId"`
}

type UpdateAlbumRequest struct {
	Name      *string `json:"name"`
	IsPrivate *bool   `json:"isPrivate"`
	Password  *string `json:"password"`
}

type DeleteAlbumRequest struct {
	DeleteMedia bool `json:"deleteMedia"`
}

type MoveMediaRequest struct {
	IDs     []string `json:"ids" binding:"required,min=1"`
	AlbumID *int64   `json:"albumId"`
}

type MergeAlbumsRequest struct {
	SourceIDs []int64 `json:"sourceIds" binding:"required,min=1"`
	TargetID  int64   `json:"targetId" binding:"required"`
}

type SetCoverRequest struct {
	MediaID string `json:"mediaId" binding:"required"`
}

type UnlockAlbumRequest struct {
	Password string `json:"password" binding:"required"`
}

// Tag DTOs

type CreateTagRequest struct {
	Name  string `json:"name" binding:"required"`
	Color string `json:"color"`
}

// Trash DTOs

type TrashEntryDTO struct {
	MediaDTO
	DeletedAt time.Time `json:"deletedAt"`
	DaysLeft  int       `json:"daysLeft"`
}

func ToTrashEntryDTOs(entries []trashUC.EntryView) []TrashEntryDTO {
	dtos := make([]TrashEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = TrashEntryDTO{
			MediaDTO:  ToMediaDTO(&e.MediaItem),
			DeletedAt: e.DeletedAt,
			DaysLeft:  e.DaysLeft,
		}
	}
	return dtos
}

// Settings DTOs

type SetSettingRequest struct {
	Value json.RawMessage `json:"value" binding:"required"`
}
