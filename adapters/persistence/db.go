package persistence

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"syscall"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/khoahotran/pictures/internal/config"
	"github.com/khoahotran/pictures/internal/domain/trash"
	"github.com/khoahotran/pictures/pkg/apperror"
	"github.com/khoahotran/pictures/pkg/logger"
)

var tracer = otel.Tracer("pictures-store")

var (
	bucketMeta     = []byte("meta")
	bucketMedia    = []byte("media")
	bucketAlbums   = []byte("albums")
	bucketTags     = []byte("tags")
	bucketTrash    = []byte("trash")
	bucketSettings = []byte("settings")
	bucketPeople   = []byte("people")
	bucketBlobs    = []byte("blobs")

	keyName    = []byte("name")
	keyVersion = []byte("version")
)

// Store is the embedded media database. It is safe for concurrent use; bbolt serializes
// writers so every read-modify-write below runs in a single Update transaction.
type Store struct {
	path        string
	name        string
	version     int
	openTimeout time.Duration
	retention   time.Duration
	now         func() time.Time
	logger      logger.Logger

	db      *bolt.DB
	ready   chan struct{}
	openErr error
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithRetention(d time.Duration) Option {
	return func(s *Store) { s.retention = d }
}

// NewBoltStore returns immediately. The file is opened and migrated in the background; callers
// that arrive early wait in Ready.
func NewBoltStore(cfg config.Config, log logger.Logger, opts ...Option) *Store {
	s := &Store{
		path:        cfg.Store.Path,
		name:        cfg.Store.Name,
		version:     cfg.Store.Version,
		openTimeout: cfg.Store.OpenTimeout,
		retention:   cfg.Trash.Retention,
		now:         time.Now,
		logger:      log,
		ready:       make(chan struct{}),
	}
	if s.retention <= 0 {
		s.retention = trash.DefaultRetention
	}
	if s.version <= 0 {
		s.version = latestVersion()
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.open()
	return s
}

func (s *Store) open() {
	defer close(s.ready)

	db, err := bolt.Open(s.path, 0o600, &bolt.Options{Timeout: s.openTimeout})
	if err != nil {
		s.openErr = apperror.NewStorage(fmt.Sprintf("cannot open store at %s", s.path), err)
		s.logger.Error("Failed to open media store", err, zap.String("path", s.path))
		return
	}
	if err := s.migrate(db); err != nil {
		db.Close()
		s.openErr = err
		s.logger.Error("Failed to migrate media store", err, zap.String("path", s.path))
		return
	}
	s.db = db
	s.logger.Info("Media store ready",
		zap.String("path", s.path),
		zap.String("name", s.name),
		zap.Int("version", s.version),
	)
}

// Ready blocks until the store has opened, or ctx ends first. Once open it never
// looks at ctx, so an abandoned call still runs to completion.
func (s *Store) Ready(ctx context.Context) error {
	select {
	case <-s.ready:
		return s.openErr
	default:
	}
	select {
	case <-s.ready:
		return s.openErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) Close() error {
	<-s.ready
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Retention() time.Duration {
	return s.retention
}

// Snapshot writes a consistent copy of the whole database file to w.
func (s *Store) Snapshot(ctx context.Context, w io.Writer) (int64, error) {
	var n int64
	err := s.view(ctx, "bolt.snapshot", func(tx *bolt.Tx) error {
		var err error
		n, err = tx.WriteTo(w)
		return err
	})
	return n, err
}

type migration struct {
	version int
	apply   func(tx *bolt.Tx) error
}

var migrations = []migration{
	{version: 1, apply: func(tx *bolt.Tx) error {
		if err := createBuckets(tx, bucketMedia, bucketAlbums, bucketTags, bucketTrash, bucketSettings, bucketBlobs); err != nil {
			return err
		}
		return createIndexes(tx, mediaTable.indexNames(), albumTable.indexNames(), tagTable.indexNames(), trashTable.indexNames())
	}},
	{version: 2, apply: func(tx *bolt.Tx) error {
		if err := createBuckets(tx, bucketPeople); err != nil {
			return err
		}
		return createIndexes(tx, personTable.indexNames())
	}},
}

func latestVersion() int {
	return migrations[len(migrations)-1].version
}

// migrate applies every migration up to the configured version. Each one only creates
// what is missing, so reopening an up-to-date file changes nothing.
func (s *Store) migrate(db *bolt.DB) error {
	return db.Update(func(tx *bolt.Tx) error {
		meta, err := tx.CreateBucketIfNotExists(bucketMeta)
		if err != nil {
			return apperror.NewStorage("cannot create meta bucket", err)
		}

		if stored := meta.Get(keyName); stored != nil && string(stored) != s.name {
			return apperror.NewStorage(
				fmt.Sprintf("store at %s belongs to %q, not %q", s.path, stored, s.name), nil)
		}

		current := 0
		if raw := meta.Get(keyVersion); raw != nil {
			current, err = strconv.Atoi(string(raw))
			if err != nil {
				return apperror.NewStorage("corrupt schema version", err)
			}
		}
		if current > s.version {
			return apperror.NewStorage(
				fmt.Sprintf("store schema version %d is newer than supported version %d", current, s.version), nil)
		}

		for _, m := range migrations {
			if m.version > s.version {
				break
			}
			if err := m.apply(tx); err != nil {
				return apperror.NewStorage(fmt.Sprintf("migration to version %d failed", m.version), err)
			}
		}

		if err := meta.Put(keyName, []byte(s.name)); err != nil {
			return err
		}
		return meta.Put(keyVersion, []byte(strconv.Itoa(s.version)))
	})
}

func createBuckets(tx *bolt.Tx, names ...[]byte) error {
	for _, name := range names {
		if _, err := tx.CreateBucketIfNotExists(name); err != nil {
			return fmt.Errorf("create bucket %s: %w", name, err)
		}
	}
	return nil
}

func createIndexes(tx *bolt.Tx, groups ...[]string) error {
	for _, names := range groups {
		for _, name := range names {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create index %s: %w", name, err)
			}
		}
	}
	return nil
}

func (s *Store) view(ctx context.Context, op string, fn func(tx *bolt.Tx) error) error {
	return s.run(ctx, op, false, fn)
}

func (s *Store) update(ctx context.Context, op string, fn func(tx *bolt.Tx) error) error {
	return s.run(ctx, op, true, fn)
}

func (s *Store) run(ctx context.Context, op string, writable bool, fn func(tx *bolt.Tx) error) error {
	if err := s.Ready(ctx); err != nil {
		return err
	}

	_, span := tracer.Start(ctx, op)
	defer span.End()
	span.SetAttributes(attribute.Bool("writable", writable))

	var err error
	if writable {
		err = s.db.Update(fn)
	} else {
		err = s.db.View(fn)
	}
	if err != nil {
		err = storageError(op, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, op+" failed")
		return err
	}
	return nil
}

// storageError passes domain errors through and classifies engine failures.
func storageError(op string, err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, syscall.ENOSPC) {
		return apperror.NewStorage(op, errors.Join(apperror.ErrStoreFull, err))
	}
	return apperror.NewStorage(op, err)
}
