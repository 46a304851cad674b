package persistence

import (
	"context"
	"strconv"

	bolt "go.etcd.io/bbolt"

	"github.com/khoahotran/pictures/internal/domain/album"
	"github.com/khoahotran/pictures/pkg/apperror"
	"github.com/khoahotran/pictures/pkg/logger"
)

var albumTable = &table[album.Album]{
	resource: "album",
	bucket:   bucketAlbums,
	key:      func(a *album.Album) []byte { return encodeInt(a.ID) },
	indexes: []index[album.Album]{
		{field: "name", values: func(a *album.Album) [][]byte { return one([]byte(a.Name)) }},
		{field: "isPrivate", values: func(a *album.Album) [][]byte { return one(encodeBool(a.IsPrivate)) }},
	},
}

type boltAlbumRepo struct {
	store  *Store
	logger logger.Logger
}

func NewBoltAlbumRepo(store *Store, log logger.Logger) album.Repository {
	return &boltAlbumRepo{store: store, logger: log}
}

func (r *boltAlbumRepo) Save(ctx context.Context, a *album.Album) error {
	return r.store.update(ctx, "bolt.albums.save", func(tx *bolt.Tx) error {
		b, err := albumTable.root(tx)
		if err != nil {
			return err
		}
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		a.ID = int64(seq)
		a.ItemCount = 0
		if a.CreatedAt.IsZero() {
			a.CreatedAt = r.store.now().UTC()
		}
		return albumTable.put(tx, a)
	})
}

func (r *boltAlbumRepo) FindByID(ctx context.Context, id int64) (*album.Album, error) {
	var a *album.Album
	err := r.store.view(ctx, "bolt.albums.find_by_id", func(tx *bolt.Tx) error {
		var err error
		a, err = albumTable.get(tx, encodeInt(id))
		if err != nil {
			return err
		}
		if a == nil {
			return apperror.NewNotFound("album", strconv.FormatInt(id, 10))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *boltAlbumRepo) List(ctx context.Context) ([]*album.Album, error) {
	albums := make([]*album.Album, 0)
	err := r.store.view(ctx, "bolt.albums.list", func(tx *bolt.Tx) error {
		return albumTable.scan(tx, func(a *album.Album) error {
			albums = append(albums, a)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return albums, nil
}

// ListPrivate reads the isPrivate index.
func (r *boltAlbumRepo) ListPrivate(ctx context.Context) ([]*album.Album, error) {
	var albums []*album.Album
	err := r.store.view(ctx, "bolt.albums.list_private", func(tx *bolt.Tx) error {
		var err error
		albums, err = albumTable.lookup(tx, "isPrivate", encodeBool(true))
		return err
	})
	return albums, err
}

func (r *boltAlbumRepo) Update(ctx context.Context, id int64, upd album.Update) (*album.Album, error) {
	var a *album.Album
	err := r.store.update(ctx, "bolt.albums.update", func(tx *bolt.Tx) error {
		current, err := albumTable.get(tx, encodeInt(id))
		if err != nil {
			return err
		}
		if current == nil {
			return apperror.NewNotFound("album", strconv.FormatInt(id, 10))
		}
		upd.Apply(current)
		current.ID = id
		if err := albumTable.put(tx, current); err != nil {
			return err
		}
		a = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *boltAlbumRepo) Delete(ctx context.Context, id int64) error {
	return r.store.update(ctx, "bolt.albums.delete", func(tx *bolt.Tx) error {
		_, err := albumTable.remove(tx, encodeInt(id))
		return err
	})
}
