package persistence

import (
	"encoding/json"
	"time"

	"github.com/khoahotran/pictures/internal/domain/album"
	"github.com/khoahotran/pictures/internal/domain/media"
	"github.com/khoahotran/pictures/internal/domain/person"
	"github.com/khoahotran/pictures/internal/domain/setting"
	"github.com/khoahotran/pictures/internal/domain/tag"
	"github.com/khoahotran/pictures/pkg/apperror"
)

func (s *StoreTestSuite) Test_Album_SaveAssignsMonotonicIDs() {
	first := &album.Album{Name: "Trip"}
	second := &album.Album{Name: "Home", IsPrivate: true}
	s.Require().NoError(s.albumRepo.Save(s.ctx, first))
	s.Require().NoError(s.albumRepo.Save(s.ctx, second))

	s.Equal(int64(1), first.ID)
	s.Equal(int64(2), second.ID)
	s.Equal(s.clock.Now(), first.CreatedAt)
	s.Zero(first.ItemCount)

	all, err := s.albumRepo.List(s.ctx)
	s.NoError(err)
	s.Require().Len(all, 2)
	s.Equal("Trip", all[0].Name)

	private, err := s.albumRepo.ListPrivate(s.ctx)
	s.NoError(err)
	s.Require().Len(private, 1)
	s.Equal("Home", private[0].Name)
}

func (s *StoreTestSuite) Test_Album_IDsAreNotReusedAfterDelete() {
	first := &album.Album{Name: "Trip"}
	s.Require().NoError(s.albumRepo.Save(s.ctx, first))
	s.Require().NoError(s.albumRepo.Delete(s.ctx, first.ID))

	next := &album.Album{Name: "Trip again"}
	s.Require().NoError(s.albumRepo.Save(s.ctx, next))
	s.Greater(next.ID, first.ID)
}

func (s *StoreTestSuite) Test_Album_UpdateAndNotFound() {
	a := &album.Album{Name: "Trip"}
	s.Require().NoError(s.albumRepo.Save(s.ctx, a))

	cover := "A"
	updated, err := s.albumRepo.Update(s.ctx, a.ID, album.Update{Name: ptr("Trip 2024"), CoverID: media.Some(&cover)})
	s.NoError(err)
	s.Equal("Trip 2024", updated.Name)
	s.Equal(&cover, updated.CoverID)

	_, err = s.albumRepo.Update(s.ctx, 999, album.Update{Name: ptr("x")})
	s.ErrorIs(err, apperror.ErrNotFound)

	_, err = s.albumRepo.FindByID(s.ctx, 999)
	s.ErrorIs(err, apperror.ErrNotFound)
}

func (s *StoreTestSuite) Test_Album_DeleteKeepsMedia() {
	a, _ := s.addAB()
	trip := &album.Album{Name: "Trip"}
	s.Require().NoError(s.albumRepo.Save(s.ctx, trip))
	_, err := s.mediaRepo.Update(s.ctx, a.ID, media.Update{AlbumID: media.Some(&trip.ID)})
	s.Require().NoError(err)

	s.NoError(s.albumRepo.Delete(s.ctx, trip.ID))
	s.NoError(s.albumRepo.Delete(s.ctx, trip.ID), "deleting twice is fine")

	found, err := s.mediaRepo.FindByID(s.ctx, a.ID)
	s.NoError(err)
	s.Require().NotNil(found)
	s.Equal(&trip.ID, found.AlbumID, "dangling reference is left for readers to treat as unfiled")
}

func (s *StoreTestSuite) Test_Tag_UniqueName() {
	beach := &tag.Tag{Name: "beach", Color: "#00aaff"}
	s.Require().NoError(s.tagRepo.Save(s.ctx, beach))
	s.Require().NoError(s.tagRepo.Save(s.ctx, &tag.Tag{Name: "arch", Color: tag.DefaultColor}))

	err := s.tagRepo.Save(s.ctx, &tag.Tag{Name: "beach"})
	s.ErrorIs(err, apperror.ErrConflict)

	all, err := s.tagRepo.List(s.ctx)
	s.NoError(err)
	s.Require().Len(all, 2)
	s.Equal("arch", all[0].Name)
	s.Equal("beach", all[1].Name)

	found, err := s.tagRepo.FindByName(s.ctx, "beach")
	s.NoError(err)
	s.Equal(beach.ID, found.ID)

	_, err = s.tagRepo.FindByName(s.ctx, "missing")
	s.ErrorIs(err, apperror.ErrNotFound)
}

func (s *StoreTestSuite) Test_Settings_RoundTrip() {
	missing, err := s.settingRepo.Get(s.ctx, "theme")
	s.NoError(err)
	s.Nil(missing)

	s.NoError(s.settingRepo.Set(s.ctx, &setting.Setting{Key: "theme", Value: json.RawMessage(`"dark"`)}))
	s.NoError(s.settingRepo.Set(s.ctx, &setting.Setting{Key: "gridSize", Value: json.RawMessage(`4`)}))
	s.NoError(s.settingRepo.Set(s.ctx, &setting.Setting{Key: "theme", Value: json.RawMessage(`"light"`)}))

	got, err := s.settingRepo.Get(s.ctx, "theme")
	s.NoError(err)
	s.JSONEq(`"light"`, string(got.Value))

	all, err := s.settingRepo.List(s.ctx)
	s.NoError(err)
	s.Len(all, 2)

	s.NoError(s.settingRepo.Delete(s.ctx, "theme"))
	s.NoError(s.settingRepo.Delete(s.ctx, "theme"))
	gone, err := s.settingRepo.Get(s.ctx, "theme")
	s.NoError(err)
	s.Nil(gone)
}

func (s *StoreTestSuite) Test_People() {
	p := &person.Person{Name: "Ana", MediaIDs: []string{"A"}}
	s.Require().NoError(s.personRepo.Save(s.ctx, p))
	s.NotZero(p.ID)
	s.Equal(s.clock.Now(), p.CreatedAt)

	found, err := s.personRepo.FindByID(s.ctx, p.ID)
	s.NoError(err)
	s.Equal([]string{"A"}, found.MediaIDs)

	p.MediaIDs = append(p.MediaIDs, "B")
	s.Require().NoError(s.personRepo.Save(s.ctx, p))
	all, err := s.personRepo.List(s.ctx)
	s.NoError(err)
	s.Require().Len(all, 1)
	s.Equal([]string{"A", "B"}, all[0].MediaIDs)
	s.WithinDuration(s.clock.Now(), all[0].CreatedAt, time.Second)
}
