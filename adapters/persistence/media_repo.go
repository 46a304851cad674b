package persistence

import (
	"context"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/khoahotran/pictures/internal/domain/media"
	"github.com/khoahotran/pictures/pkg/apperror"
	"github.com/khoahotran/pictures/pkg/logger"
)

var mediaTable = &table[media.MediaItem]{
	resource: "media",
	bucket:   bucketMedia,
	key:      func(m *media.MediaItem) []byte { return []byte(m.ID) },
	indexes: []index[media.MediaItem]{
		{field: "date", values: func(m *media.MediaItem) [][]byte { return one(encodeTime(m.Date)) }},
		{field: "type", values: func(m *media.MediaItem) [][]byte { return one([]byte(m.Type)) }},
		{field: "albumId", values: func(m *media.MediaItem) [][]byte {
			if m.AlbumID == nil {
				return nil
			}
			return one(encodeInt(*m.AlbumID))
		}},
		{field: "tags", values: func(m *media.MediaItem) [][]byte {
			out := make([][]byte, 0, len(m.Tags))
			for _, t := range m.Tags {
				out = append(out, []byte(t))
			}
			return out
		}},
		{field: "name", values: func(m *media.MediaItem) [][]byte { return one([]byte(m.Name)) }},
		{field: "size", values: func(m *media.MediaItem) [][]byte { return one(encodeInt(m.Size)) }},
	},
}

type boltMediaRepo struct {
	store  *Store
	logger logger.Logger
}

func NewBoltMediaRepo(store *Store, log logger.Logger) media.Repository {
	return &boltMediaRepo{store: store, logger: log}
}

func putBlob(tx *bolt.Tx, id string, data []byte) error {
	return tx.Bucket(bucketBlobs).Put([]byte(id), data)
}

func getBlob(tx *bolt.Tx, id string) []byte {
	raw := tx.Bucket(bucketBlobs).Get([]byte(id))
	if raw == nil {
		return nil
	}
	return append([]byte(nil), raw...)
}

func deleteBlob(tx *bolt.Tx, id string) error {
	return tx.Bucket(bucketBlobs).Delete([]byte(id))
}

func (r *boltMediaRepo) Save(ctx context.Context, item *media.MediaItem) error {
	if err := item.Validate(); err != nil {
		return apperror.NewInvalidInput("media item rejected", err)
	}
	item.Revision = 1
	if item.Tags == nil {
		item.Tags = []string{}
	}

	err := r.store.update(ctx, "bolt.media.save", func(tx *bolt.Tx) error {
		pk := []byte(item.ID)
		active, err := mediaTable.exists(tx, pk)
		if err != nil {
			return err
		}
		trashed, err := trashTable.exists(tx, pk)
		if err != nil {
			return err
		}
		if active || trashed {
			return apperror.NewConflict("media", "id", item.ID)
		}
		if err := putBlob(tx, item.ID, item.File); err != nil {
			return err
		}
		return mediaTable.put(tx, item)
	})
	if err != nil {
		return err
	}
	r.logger.Debug("Media saved", zap.String("media_id", item.ID), zap.Int64("size", item.Size))
	return nil
}

func (r *boltMediaRepo) FindByID(ctx context.Context, id string) (*media.MediaItem, error) {
	var item *media.MediaItem
	err := r.store.view(ctx, "bolt.media.find_by_id", func(tx *bolt.Tx) error {
		var err error
		item, err = mediaTable.get(tx, []byte(id))
		if err != nil || item == nil {
			return err
		}
		item.File = getBlob(tx, id)
		return nil
	})
	return item, err
}

func (r *boltMediaRepo) Update(ctx context.Context, id string, upd media.Update) (*media.MediaItem, error) {
	var item *media.MediaItem
	err := r.store.update(ctx, "bolt.media.update", func(tx *bolt.Tx) error {
		current, err := mediaTable.get(tx, []byte(id))
		if err != nil {
			return err
		}
		if current == nil {
			return apperror.NewNotFound("media", id)
		}
		if upd.ExpectedRevision != nil && *upd.ExpectedRevision != current.Revision {
			return apperror.NewRevisionConflict("media", id, *upd.ExpectedRevision, current.Revision)
		}
		upd.Apply(current)
		current.ID = id
		current.Revision++
		if err := mediaTable.put(tx, current); err != nil {
			return err
		}
		item = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *boltMediaRepo) Delete(ctx context.Context, id string) error {
	return r.store.update(ctx, "bolt.media.delete", func(tx *bolt.Tx) error {
		old, err := mediaTable.remove(tx, []byte(id))
		if err != nil || old == nil {
			return err
		}
		return deleteBlob(tx, id)
	})
}

func (r *boltMediaRepo) List(ctx context.Context, filter media.Filter) ([]*media.MediaItem, error) {
	var items []*media.MediaItem
	err := r.store.view(ctx, "bolt.media.list", func(tx *bolt.Tx) error {
		candidates, err := r.candidates(tx, filter)
		if err != nil {
			return err
		}
		items = make([]*media.MediaItem, 0, len(candidates))
		for _, m := range candidates {
			if filter.Match(m) {
				items = append(items, m)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	media.SortByDateDesc(items)
	return items, nil
}

// candidates narrows the scan with the most selective index the filter allows. The filter
// itself is still applied to every candidate.
func (r *boltMediaRepo) candidates(tx *bolt.Tx, filter media.Filter) ([]*media.MediaItem, error) {
	switch {
	case filter.AlbumID.Valid && filter.AlbumID.Value != nil:
		return mediaTable.lookup(tx, "albumId", encodeInt(*filter.AlbumID.Value))
	case len(filter.Tags) > 0:
		seen := make(map[string]struct{})
		var pks [][]byte
		for _, t := range filter.Tags {
			keys, err := mediaTable.lookupKeys(tx, "tags", []byte(t))
			if err != nil {
				return nil, err
			}
			for _, k := range keys {
				if _, dup := seen[string(k)]; dup {
					continue
				}
				seen[string(k)] = struct{}{}
				pks = append(pks, k)
			}
		}
		return mediaTable.getAll(tx, pks)
	case filter.Type != "":
		return mediaTable.lookup(tx, "type", []byte(filter.Type))
	}

	var all []*media.MediaItem
	err := mediaTable.scan(tx, func(m *media.MediaItem) error {
		all = append(all, m)
		return nil
	})
	return all, err
}

func (r *boltMediaRepo) Search(ctx context.Context, query string, opts media.SearchOptions) ([]*media.MediaItem, error) {
	var items []*media.MediaItem
	err := r.store.view(ctx, "bolt.media.search", func(tx *bolt.Tx) error {
		return mediaTable.scan(tx, func(m *media.MediaItem) error {
			if media.MatchesQuery(m, query) && opts.Match(m) {
				items = append(items, m)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	media.SortByDateDesc(items)
	return items, nil
}

func (r *boltMediaRepo) Stats(ctx context.Context) (*media.Stats, error) {
	stats := &media.Stats{}
	err := r.store.view(ctx, "bolt.media.stats", func(tx *bolt.Tx) error {
		return mediaTable.scan(tx, func(m *media.MediaItem) error {
			stats.Add(m)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *boltMediaRepo) CountByAlbum(ctx context.Context, albumID int64) (int, error) {
	var n int
	err := r.store.view(ctx, "bolt.media.count_by_album", func(tx *bolt.Tx) error {
		keys, err := mediaTable.lookupKeys(tx, "albumId", encodeInt(albumID))
		n = len(keys)
		return err
	})
	return n, err
}

func (r *boltMediaRepo) ListLarge(ctx context.Context, threshold int64) ([]*media.MediaItem, error) {
	return r.rangeList(ctx, "bolt.media.list_large", "size", encodeInt(threshold))
}

func (r *boltMediaRepo) ListSince(ctx context.Context, since time.Time) ([]*media.MediaItem, error) {
	return r.rangeList(ctx, "bolt.media.list_since", "date", encodeTime(since))
}

// rangeList returns items whose indexed value is at least lo, largest first.
func (r *boltMediaRepo) rangeList(ctx context.Context, op, field string, lo []byte) ([]*media.MediaItem, error) {
	var items []*media.MediaItem
	err := r.store.view(ctx, op, func(tx *bolt.Tx) error {
		pks, err := mediaTable.rangeKeys(tx, field, lo, nil, true)
		if err != nil {
			return err
		}
		items, err = mediaTable.getAll(tx, pks)
		return err
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}
