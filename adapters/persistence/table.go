package persistence

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/khoahotran/pictures/pkg/apperror"
)

const keySep = 0x00

// index maps a record to zero or more encoded values. Non-unique entries are stored as
// value|0x00|pk so equal values stay grouped and ordered; unique entries are value -> pk.
type index[T any] struct {
	field  string
	unique bool
	values func(rec *T) [][]byte
}

// table is one collection bucket plus its index buckets, named "<collection>:<field>".
// Every method runs inside the caller's transaction so index entries change with the record.
type table[T any] struct {
	resource string
	bucket   []byte
	key      func(rec *T) []byte
	indexes  []index[T]
}

func (t *table[T]) indexBucketName(field string) string {
	return string(t.bucket) + ":" + field
}

func (t *table[T]) indexNames() []string {
	names := make([]string, 0, len(t.indexes))
	for _, idx := range t.indexes {
		names = append(names, t.indexBucketName(idx.field))
	}
	return names
}

func (t *table[T]) root(tx *bolt.Tx) (*bolt.Bucket, error) {
	b := tx.Bucket(t.bucket)
	if b == nil {
		return nil, apperror.NewStorage(fmt.Sprintf("collection %s does not exist", t.bucket), nil)
	}
	return b, nil
}

func (t *table[T]) indexBucket(tx *bolt.Tx, field string) (*bolt.Bucket, error) {
	name := t.indexBucketName(field)
	b := tx.Bucket([]byte(name))
	if b == nil {
		return nil, apperror.NewStorage(fmt.Sprintf("index %s does not exist", name), nil)
	}
	return b, nil
}

func (t *table[T]) get(tx *bolt.Tx, pk []byte) (*T, error) {
	b, err := t.root(tx)
	if err != nil {
		return nil, err
	}
	raw := b.Get(pk)
	if raw == nil {
		return nil, nil
	}
	rec := new(T)
	if err := json.Unmarshal(raw, rec); err != nil {
		return nil, apperror.NewStorage(fmt.Sprintf("corrupt %s record %q", t.resource, pk), err)
	}
	return rec, nil
}

func (t *table[T]) exists(tx *bolt.Tx, pk []byte) (bool, error) {
	b, err := t.root(tx)
	if err != nil {
		return false, err
	}
	return b.Get(pk) != nil, nil
}

// put inserts or replaces rec, rewriting its index entries.
func (t *table[T]) put(tx *bolt.Tx, rec *T) error {
	b, err := t.root(tx)
	if err != nil {
		return err
	}
	pk := t.key(rec)

	old, err := t.get(tx, pk)
	if err != nil {
		return err
	}
	if old != nil {
		if err := t.unindex(tx, pk, old); err != nil {
			return err
		}
	}

	for _, idx := range t.indexes {
		ib, err := t.indexBucket(tx, idx.field)
		if err != nil {
			return err
		}
		for _, v := range idx.values(rec) {
			if idx.unique {
				if owner := ib.Get(v); owner != nil && !bytes.Equal(owner, pk) {
					return apperror.NewConflict(t.resource, idx.field, string(v))
				}
				if err := ib.Put(v, pk); err != nil {
					return err
				}
				continue
			}
			if err := ib.Put(compositeKey(v, pk), pk); err != nil {
				return err
			}
		}
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		return apperror.NewInternal(fmt.Sprintf("cannot encode %s record", t.resource), err)
	}
	return b.Put(pk, raw)
}

// remove deletes the record and its index entries, returning what was stored (nil if absent).
func (t *table[T]) remove(tx *bolt.Tx, pk []byte) (*T, error) {
	old, err := t.get(tx, pk)
	if err != nil || old == nil {
		return nil, err
	}
	if err := t.unindex(tx, pk, old); err != nil {
		return nil, err
	}
	b, err := t.root(tx)
	if err != nil {
		return nil, err
	}
	return old, b.Delete(pk)
}

func (t *table[T]) unindex(tx *bolt.Tx, pk []byte, rec *T) error {
	for _, idx := range t.indexes {
		ib, err := t.indexBucket(tx, idx.field)
		if err != nil {
			return err
		}
		for _, v := range idx.values(rec) {
			key := v
			if !idx.unique {
				key = compositeKey(v, pk)
			} else if owner := ib.Get(v); owner == nil || !bytes.Equal(owner, pk) {
				continue
			}
			if err := ib.Delete(key); err != nil {
				return err
			}
		}
	}
	return nil
}

// scan visits every record in primary key order.
func (t *table[T]) scan(tx *bolt.Tx, fn func(rec *T) error) error {
	b, err := t.root(tx)
	if err != nil {
		return err
	}
	return b.ForEach(func(k, v []byte) error {
		rec := new(T)
		if err := json.Unmarshal(v, rec); err != nil {
			return apperror.NewStorage(fmt.Sprintf("corrupt %s record %q", t.resource, k), err)
		}
		return fn(rec)
	})
}

// lookupUnique returns the record owning value in a unique index.
func (t *table[T]) lookupUnique(tx *bolt.Tx, field string, value []byte) (*T, error) {
	ib, err := t.indexBucket(tx, field)
	if err != nil {
		return nil, err
	}
	pk := ib.Get(value)
	if pk == nil {
		return nil, nil
	}
	return t.get(tx, pk)
}

// lookupKeys returns the primary keys indexed under exactly value.
func (t *table[T]) lookupKeys(tx *bolt.Tx, field string, value []byte) ([][]byte, error) {
	ib, err := t.indexBucket(tx, field)
	if err != nil {
		return nil, err
	}
	prefix := append(append([]byte(nil), value...), keySep)
	var pks [][]byte
	c := ib.Cursor()
	for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
		pks = append(pks, append([]byte(nil), v...))
	}
	return pks, nil
}

func (t *table[T]) lookup(tx *bolt.Tx, field string, value []byte) ([]*T, error) {
	pks, err := t.lookupKeys(tx, field, value)
	if err != nil {
		return nil, err
	}
	return t.getAll(tx, pks)
}

func (t *table[T]) getAll(tx *bolt.Tx, pks [][]byte) ([]*T, error) {
	out := make([]*T, 0, len(pks))
	for _, pk := range pks {
		rec, err := t.get(tx, pk)
		if err != nil {
			return nil, err
		}
		// a dangling index entry is skipped rather than failing the read
		if rec != nil {
			out = append(out, rec)
		}
	}
	return out, nil
}

// rangeKeys walks a non-unique index over values in [lo, hi). A nil bound is open.
// Values must share a fixed width for the bounds to be exact.
func (t *table[T]) rangeKeys(tx *bolt.Tx, field string, lo, hi []byte, desc bool) ([][]byte, error) {
	ib, err := t.indexBucket(tx, field)
	if err != nil {
		return nil, err
	}
	inRange := func(k []byte) bool {
		return (lo == nil || bytes.Compare(k, lo) >= 0) && (hi == nil || bytes.Compare(k, hi) < 0)
	}

	var pks [][]byte
	c := ib.Cursor()
	if !desc {
		k, v := c.First()
		if lo != nil {
			k, v = c.Seek(lo)
		}
		for ; k != nil && inRange(k); k, v = c.Next() {
			pks = append(pks, append([]byte(nil), v...))
		}
		return pks, nil
	}

	var k, v []byte
	if hi == nil {
		k, v = c.Last()
	} else if k, v = c.Seek(hi); k == nil {
		k, v = c.Last()
	} else {
		k, v = c.Prev()
	}
	for ; k != nil && inRange(k); k, v = c.Prev() {
		pks = append(pks, append([]byte(nil), v...))
	}
	return pks, nil
}

func compositeKey(value, pk []byte) []byte {
	key := make([]byte, 0, len(value)+1+len(pk))
	key = append(key, value...)
	key = append(key, keySep)
	return append(key, pk...)
}

// encodeInt flips the sign bit so big-endian byte order matches numeric order.
func encodeInt(v int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v)^(1<<63))
	return b
}

func decodeInt(b []byte) int64 {
	return int64(binary.BigEndian.Uint64(b) ^ (1 << 63))
}

func encodeTime(t time.Time) []byte {
	return encodeInt(t.UnixNano())
}

func encodeBool(v bool) []byte {
	if v {
		return []byte{1}
	}
	return []byte{0}
}

func one(v []byte) [][]byte {
	return [][]byte{v}
}
