package persistence

import (
	"context"

	bolt "go.etcd.io/bbolt"

	"github.com/khoahotran/pictures/internal/domain/tag"
	"github.com/khoahotran/pictures/pkg/apperror"
	"github.com/khoahotran/pictures/pkg/logger"
)

var tagTable = &table[tag.Tag]{
	resource: "tag",
	bucket:   bucketTags,
	key:      func(t *tag.Tag) []byte { return encodeInt(t.ID) },
	indexes: []index[tag.Tag]{
		{field: "name", unique: true, values: func(t *tag.Tag) [][]byte { return one([]byte(t.Name)) }},
	},
}

type boltTagRepo struct {
	store  *Store
	logger logger.Logger
}

func NewBoltTagRepo(store *Store, log logger.Logger) tag.Repository {
	return &boltTagRepo{store: store, logger: log}
}

func (r *boltTagRepo) Save(ctx context.Context, t *tag.Tag) error {
	return r.store.update(ctx, "bolt.tags.save", func(tx *bolt.Tx) error {
		existing, err := tagTable.lookupUnique(tx, "name", []byte(t.Name))
		if err != nil {
			return err
		}
		if existing != nil {
			return apperror.NewConflict("tag", "name", t.Name)
		}
		b, err := tagTable.root(tx)
		if err != nil {
			return err
		}
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		t.ID = int64(seq)
		if t.CreatedAt.IsZero() {
			t.CreatedAt = r.store.now().UTC()
		}
		return tagTable.put(tx, t)
	})
}

func (r *boltTagRepo) FindByName(ctx context.Context, name string) (*tag.Tag, error) {
	var t *tag.Tag
	err := r.store.view(ctx, "bolt.tags.find_by_name", func(tx *bolt.Tx) error {
		var err error
		t, err = tagTable.lookupUnique(tx, "name", []byte(name))
		if err != nil {
			return err
		}
		if t == nil {
			return apperror.NewNotFound("tag", name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// List returns tags ordered by name.
func (r *boltTagRepo) List(ctx context.Context) ([]*tag.Tag, error) {
	tags := make([]*tag.Tag, 0)
	err := r.store.view(ctx, "bolt.tags.list", func(tx *bolt.Tx) error {
		ib, err := tagTable.indexBucket(tx, "name")
		if err != nil {
			return err
		}
		return ib.ForEach(func(_, pk []byte) error {
			t, err := tagTable.get(tx, pk)
			if err != nil {
				return err
			}
			if t != nil {
				tags = append(tags, t)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return tags, nil
}
