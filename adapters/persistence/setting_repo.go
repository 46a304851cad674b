package persistence

import (
	"context"

	bolt "go.etcd.io/bbolt"

	"github.com/khoahotran/pictures/internal/domain/setting"
	"github.com/khoahotran/pictures/pkg/logger"
)

var settingTable = &table[setting.Setting]{
	resource: "setting",
	bucket:   bucketSettings,
	key:      func(s *setting.Setting) []byte { return []byte(s.Key) },
}

type boltSettingRepo struct {
	store  *Store
	logger logger.Logger
}

func NewBoltSettingRepo(store *Store, log logger.Logger) setting.Repository {
	return &boltSettingRepo{store: store, logger: log}
}

func (r *boltSettingRepo) Get(ctx context.Context, key string) (*setting.Setting, error) {
	var s *setting.Setting
	err := r.store.view(ctx, "bolt.settings.get", func(tx *bolt.Tx) error {
		var err error
		s, err = settingTable.get(tx, []byte(key))
		return err
	})
	return s, err
}

func (r *boltSettingRepo) Set(ctx context.Context, s *setting.Setting) error {
	return r.store.update(ctx, "bolt.settings.set", func(tx *bolt.Tx) error {
		return settingTable.put(tx, s)
	})
}

func (r *boltSettingRepo) Delete(ctx context.Context, key string) error {
	return r.store.update(ctx, "bolt.settings.delete", func(tx *bolt.Tx) error {
		_, err := settingTable.remove(tx, []byte(key))
		return err
	})
}

func (r *boltSettingRepo) List(ctx context.Context) ([]*setting.Setting, error) {
	settings := make([]*setting.Setting, 0)
	err := r.store.view(ctx, "bolt.settings.list", func(tx *bolt.Tx) error {
		return settingTable.scan(tx, func(s *setting.Setting) error {
			settings = append(settings, s)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return settings, nil
}
