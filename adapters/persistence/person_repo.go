package persistence

import (
	"context"
	"strconv"

	bolt "go.etcd.io/bbolt"

	"github.com/khoahotran/pictures/internal/domain/person"
	"github.com/khoahotran/pictures/pkg/apperror"
	"github.com/khoahotran/pictures/pkg/logger"
)

// people only exists from schema version 2.
var personTable = &table[person.Person]{
	resource: "person",
	bucket:   bucketPeople,
	key:      func(p *person.Person) []byte { return encodeInt(p.ID) },
	indexes: []index[person.Person]{
		{field: "name", values: func(p *person.Person) [][]byte { return one([]byte(p.Name)) }},
	},
}

type boltPersonRepo struct {
	store  *Store
	logger logger.Logger
}

func NewBoltPersonRepo(store *Store, log logger.Logger) person.Repository {
	return &boltPersonRepo{store: store, logger: log}
}

func (r *boltPersonRepo) Save(ctx context.Context, p *person.Person) error {
	return r.store.update(ctx, "bolt.people.save", func(tx *bolt.Tx) error {
		if p.ID == 0 {
			b, err := personTable.root(tx)
			if err != nil {
				return err
			}
			seq, err := b.NextSequence()
			if err != nil {
				return err
			}
			p.ID = int64(seq)
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = r.store.now().UTC()
		}
		if p.MediaIDs == nil {
			p.MediaIDs = []string{}
		}
		return personTable.put(tx, p)
	})
}

func (r *boltPersonRepo) FindByID(ctx context.Context, id int64) (*person.Person, error) {
	var p *person.Person
	err := r.store.view(ctx, "bolt.people.find_by_id", func(tx *bolt.Tx) error {
		var err error
		p, err = personTable.get(tx, encodeInt(id))
		if err != nil {
			return err
		}
		if p == nil {
			return apperror.NewNotFound("person", strconv.FormatInt(id, 10))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *boltPersonRepo) List(ctx context.Context) ([]*person.Person, error) {
	people := make([]*person.Person, 0)
	err := r.store.view(ctx, "bolt.people.list", func(tx *bolt.Tx) error {
		return personTable.scan(tx, func(p *person.Person) error {
			people = append(people, p)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return people, nil
}
