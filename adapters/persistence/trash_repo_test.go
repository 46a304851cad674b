package persistence

import (
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/khoahotran/pictures/internal/domain/media"
	"github.com/khoahotran/pictures/internal/domain/trash"
	"github.com/khoahotran/pictures/pkg/apperror"
)

func (s *StoreTestSuite) Test_Trash_SoftDeleteAndRestore() {
	a, _ := s.addAB()

	entry, err := s.trashRepo.MoveToTrash(s.ctx, a.ID)
	s.NoError(err)
	s.Equal(s.clock.Now(), entry.DeletedAt)

	gone, err := s.mediaRepo.FindByID(s.ctx, a.ID)
	s.NoError(err)
	s.Nil(gone)

	listed, err := s.trashRepo.List(s.ctx)
	s.NoError(err)
	s.Require().Len(listed, 1)
	s.Equal(a.ID, listed[0].ID)
	s.False(listed[0].DeletedAt.IsZero())

	restored, err := s.trashRepo.Restore(s.ctx, a.ID)
	s.NoError(err)
	s.Equal(a.ID, restored.ID)

	back, err := s.mediaRepo.FindByID(s.ctx, a.ID)
	s.NoError(err)
	s.Require().NotNil(back)
	s.Equal(a.File, back.File, "blob survives the round trip")
	s.Equal(a.Date, back.Date)

	listed, err = s.trashRepo.List(s.ctx)
	s.NoError(err)
	s.Empty(listed)
}

func (s *StoreTestSuite) Test_Trash_MissingIDs() {
	_, err := s.trashRepo.MoveToTrash(s.ctx, "ghost")
	s.ErrorIs(err, apperror.ErrNotFound)

	_, err = s.trashRepo.Restore(s.ctx, "ghost")
	s.ErrorIs(err, apperror.ErrNotFound)

	s.ErrorIs(s.trashRepo.Delete(s.ctx, "ghost"), apperror.ErrNotFound)
}

func (s *StoreTestSuite) Test_Trash_TrashedIDCannotBeReused() {
	a, _ := s.addAB()
	_, err := s.trashRepo.MoveToTrash(s.ctx, a.ID)
	s.Require().NoError(err)

	s.ErrorIs(s.mediaRepo.Save(s.ctx, s.newItem(a.ID, media.TypeImage, 1, s.clock.Now())), apperror.ErrConflict)
}

func (s *StoreTestSuite) Test_Trash_ListNeverReturnsExpired() {
	a, b := s.addAB()

	_, err := s.trashRepo.MoveToTrash(s.ctx, a.ID)
	s.Require().NoError(err)
	s.clock.Advance(20 * 24 * time.Hour)
	_, err = s.trashRepo.MoveToTrash(s.ctx, b.ID)
	s.Require().NoError(err)

	s.clock.Advance(11 * 24 * time.Hour)
	listed, err := s.trashRepo.List(s.ctx)
	s.NoError(err)
	s.Require().Len(listed, 1)
	s.Equal(b.ID, listed[0].ID)
	for _, e := range listed {
		s.LessOrEqual(s.clock.Now().Sub(e.DeletedAt), trash.DefaultRetention)
	}

	// the expired row was purged during the read, blob included
	_, err = s.trashRepo.Restore(s.ctx, a.ID)
	s.ErrorIs(err, apperror.ErrNotFound)
	s.NoError(s.store.db.View(func(tx *bolt.Tx) error {
		s.Nil(tx.Bucket(bucketBlobs).Get([]byte(a.ID)))
		return nil
	}))
}

func (s *StoreTestSuite) Test_Trash_ListOrdersNewestFirst() {
	a, b := s.addAB()
	_, err := s.trashRepo.MoveToTrash(s.ctx, a.ID)
	s.Require().NoError(err)
	s.clock.Advance(time.Minute)
	_, err = s.trashRepo.MoveToTrash(s.ctx, b.ID)
	s.Require().NoError(err)

	listed, err := s.trashRepo.List(s.ctx)
	s.NoError(err)
	s.Require().Len(listed, 2)
	s.Equal(b.ID, listed[0].ID)
	s.Equal(a.ID, listed[1].ID)
}

func (s *StoreTestSuite) Test_Trash_PurgeExpired() {
	a, b := s.addAB()
	_, err := s.trashRepo.MoveToTrash(s.ctx, a.ID)
	s.Require().NoError(err)
	s.clock.Advance(trash.DefaultRetention)
	_, err = s.trashRepo.MoveToTrash(s.ctx, b.ID)
	s.Require().NoError(err)

	n, err := s.trashRepo.PurgeExpired(s.ctx)
	s.NoError(err)
	s.Zero(n, "exactly at the boundary is still retained")

	s.clock.Advance(time.Second)
	n, err = s.trashRepo.PurgeExpired(s.ctx)
	s.NoError(err)
	s.Equal(1, n)

	listed, err := s.trashRepo.List(s.ctx)
	s.NoError(err)
	s.Require().Len(listed, 1)
	s.Equal(b.ID, listed[0].ID)
}

func (s *StoreTestSuite) Test_Trash_DeleteAndEmpty() {
	a, b := s.addAB()
	_, err := s.trashRepo.MoveToTrash(s.ctx, a.ID)
	s.Require().NoError(err)
	_, err = s.trashRepo.MoveToTrash(s.ctx, b.ID)
	s.Require().NoError(err)

	s.NoError(s.trashRepo.Delete(s.ctx, a.ID))

	n, err := s.trashRepo.Empty(s.ctx)
	s.NoError(err)
	s.Equal(1, n)

	listed, err := s.trashRepo.List(s.ctx)
	s.NoError(err)
	s.Empty(listed)

	n, err = s.trashRepo.Empty(s.ctx)
	s.NoError(err)
	s.Zero(n)
}

func (s *StoreTestSuite) Test_Trash_RestoreConflictsWithActiveItem() {
	a, _ := s.addAB()
	_, err := s.trashRepo.MoveToTrash(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Require().NoError(s.store.db.Update(func(tx *bolt.Tx) error {
		return mediaTable.put(tx, a)
	}))

	_, err = s.trashRepo.Restore(s.ctx, a.ID)
	s.ErrorIs(err, apperror.ErrConflict)

	listed, err := s.trashRepo.List(s.ctx)
	s.NoError(err)
	s.Len(listed, 1, "a failed restore leaves the entry in trash")
}
