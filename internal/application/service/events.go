package service

import (
	"context"
	"time"
)

type ChangeKind string

const (
	MediaAdded     ChangeKind = "media.added"
	MediaUpdated   ChangeKind = "media.updated"
	MediaTrashed   ChangeKind = "media.trashed"
	MediaDeleted   ChangeKind = "media.deleted"
	MediaRestored  ChangeKind = "media.restored"
	TrashEmptied   ChangeKind = "trash.emptied"
	TrashPurged    ChangeKind = "trash.purged"
	AlbumCreated   ChangeKind = "album.created"
	AlbumUpdated   ChangeKind = "album.updated"
	AlbumDeleted   ChangeKind = "album.deleted"
	TagCreated     ChangeKind = "tag.created"
	SettingChanged ChangeKind = "setting.changed"
)

// ChangeEvent is emitted after a mutation has committed.
type ChangeEvent struct {
	Kind       ChangeKind `json:"kind"`
	ResourceID string     `json:"resourceId"`
	OccurredAt time.Time  `json:"occurredAt"`
	Data       any        `json:"data,omitempty"`
}

func NewChangeEvent(kind ChangeKind, resourceID string, data any) ChangeEvent {
	return ChangeEvent{Kind: kind, ResourceID: resourceID, OccurredAt: time.Now().UTC(), Data: data}
}

type EventPublisher interface {
	Publish(ctx context.Context, evt ChangeEvent) error
}
