package persistence

import (
	"context"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/khoahotran/pictures/internal/domain/media"
	"github.com/khoahotran/pictures/internal/domain/trash"
	"github.com/khoahotran/pictures/pkg/apperror"
	"github.com/khoahotran/pictures/pkg/logger"
)

var trashTable = &table[trash.Entry]{
	resource: "trash entry",
	bucket:   bucketTrash,
	key:      func(e *trash.Entry) []byte { return []byte(e.ID) },
	indexes: []index[trash.Entry]{
		{field: "deletedAt", values: func(e *trash.Entry) [][]byte { return one(encodeTime(e.DeletedAt)) }},
	},
}

type boltTrashRepo struct {
	store  *Store
	logger logger.Logger
}

func NewBoltTrashRepo(store *Store, log logger.Logger) trash.Repository {
	return &boltTrashRepo{store: store, logger: log}
}

// MoveToTrash is the soft delete. The blob stays where it is; only the row moves.
func (r *boltTrashRepo) MoveToTrash(ctx context.Context, id string) (*trash.Entry, error) {
	var entry *trash.Entry
	err := r.store.update(ctx, "bolt.trash.move", func(tx *bolt.Tx) error {
		item, err := mediaTable.remove(tx, []byte(id))
		if err != nil {
			return err
		}
		if item == nil {
			return apperror.NewNotFound("media", id)
		}
		entry = &trash.Entry{MediaItem: *item, DeletedAt: r.store.now().UTC()}
		return trashTable.put(tx, entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// List purges expired entries in the same transaction, so a returned entry is never past
// retention and expired rows do not accumulate between purge runs.
func (r *boltTrashRepo) List(ctx context.Context) ([]*trash.Entry, error) {
	var entries []*trash.Entry
	var purged int
	err := r.store.update(ctx, "bolt.trash.list", func(tx *bolt.Tx) error {
		pks, err := trashTable.rangeKeys(tx, "deletedAt", nil, nil, true)
		if err != nil {
			return err
		}
		all, err := trashTable.getAll(tx, pks)
		if err != nil {
			return err
		}

		now := r.store.now()
		entries = make([]*trash.Entry, 0, len(all))
		for _, e := range all {
			if !e.Expired(now, r.store.retention) {
				entries = append(entries, e)
				continue
			}
			if err := purgeEntry(tx, e.ID); err != nil {
				return err
			}
			purged++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if purged > 0 {
		r.logger.Info("Purged expired trash on read", zap.Int("count", purged))
	}
	return entries, nil
}

func (r *boltTrashRepo) Restore(ctx context.Context, id string) (*media.MediaItem, error) {
	var item *media.MediaItem
	err := r.store.update(ctx, "bolt.trash.restore", func(tx *bolt.Tx) error {
		active, err := mediaTable.exists(tx, []byte(id))
		if err != nil {
			return err
		}
		if active {
			return apperror.NewConflict("media", "id", id)
		}
		entry, err := trashTable.remove(tx, []byte(id))
		if err != nil {
			return err
		}
		if entry == nil {
			return apperror.NewNotFound("trash entry", id)
		}
		restored := entry.MediaItem
		restored.Revision++
		if err := mediaTable.put(tx, &restored); err != nil {
			return err
		}
		item = &restored
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *boltTrashRepo) Delete(ctx context.Context, id string) error {
	return r.store.update(ctx, "bolt.trash.delete", func(tx *bolt.Tx) error {
		found, err := trashTable.exists(tx, []byte(id))
		if err != nil {
			return err
		}
		if !found {
			return apperror.NewNotFound("trash entry", id)
		}
		return purgeEntry(tx, id)
	})
}

func (r *boltTrashRepo) Empty(ctx context.Context) (int, error) {
	var n int
	err := r.store.update(ctx, "bolt.trash.empty", func(tx *bolt.Tx) error {
		var ids []string
		if err := trashTable.scan(tx, func(e *trash.Entry) error {
			ids = append(ids, e.ID)
			return nil
		}); err != nil {
			return err
		}
		for _, id := range ids {
			if err := purgeEntry(tx, id); err != nil {
				return err
			}
		}
		n = len(ids)
		return nil
	})
	return n, err
}

func (r *boltTrashRepo) PurgeExpired(ctx context.Context) (int, error) {
	var n int
	err := r.store.update(ctx, "bolt.trash.purge_expired", func(tx *bolt.Tx) error {
		cutoff := r.store.now().Add(-r.store.retention)
		pks, err := trashTable.rangeKeys(tx, "deletedAt", nil, encodeTime(cutoff), false)
		if err != nil {
			return err
		}
		for _, pk := range pks {
			if err := purgeEntry(tx, string(pk)); err != nil {
				return err
			}
		}
		n = len(pks)
		return nil
	})
	return n, err
}

func purgeEntry(tx *bolt.Tx, id string) error {
	if _, err := trashTable.remove(tx, []byte(id)); err != nil {
		return err
	}
	return deleteBlob(tx, id)
}
