package persistence

import (
	"sync"
	"time"

	"github.com/khoahotran/pictures/internal/domain/media"
	"github.com/khoahotran/pictures/pkg/apperror"
)

func ptr[T any](v T) *T { return &v }

func (s *StoreTestSuite) Test_Media_SaveThenFindIsEqual() {
	album := int64(4)
	item := s.newItem("1717200000000-abcdefghi", media.TypeImage, 2048, time.Date(2024, 5, 31, 8, 30, 0, 0, time.UTC))
	item.AlbumID = &album
	item.Tags = []string{"beach", "family"}
	item.Location = &media.Location{Latitude: 10.5, Longitude: 106.7}
	item.Width = ptr(4000)
	item.Height = ptr(3000)
	item.Exif = map[string]any{"Model": "Pixel 8"}

	s.Require().NoError(s.mediaRepo.Save(s.ctx, item))

	found, err := s.mediaRepo.FindByID(s.ctx, item.ID)
	s.NoError(err)
	s.Equal(item, found)
	s.Equal(int64(1), found.Revision)
}

func (s *StoreTestSuite) Test_Media_FindMissingIsNil() {
	found, err := s.mediaRepo.FindByID(s.ctx, "nope")
	s.NoError(err)
	s.Nil(found)
}

func (s *StoreTestSuite) Test_Media_SaveRejectsTypeMismatch() {
	item := s.newItem("x", media.TypeVideo, 1, s.clock.Now())
	item.MimeType = "image/png"
	s.ErrorIs(s.mediaRepo.Save(s.ctx, item), apperror.ErrInvalidInput)
}

func (s *StoreTestSuite) Test_Media_SaveRejectsDuplicateID() {
	s.addAB()
	dup := s.newItem("A", media.TypeImage, 1, s.clock.Now())
	s.ErrorIs(s.mediaRepo.Save(s.ctx, dup), apperror.ErrConflict)
}

func (s *StoreTestSuite) Test_Media_ListScenario() {
	s.addAB()

	all, err := s.mediaRepo.List(s.ctx, media.Filter{})
	s.NoError(err)
	s.Equal([]string{"B", "A"}, ids(all))
	for _, m := range all {
		s.Nil(m.File, "list results carry no blob")
	}

	videos, err := s.mediaRepo.List(s.ctx, media.Filter{Type: media.TypeVideo})
	s.NoError(err)
	s.Equal([]string{"B"}, ids(videos))

	big, err := s.mediaRepo.List(s.ctx, media.Filter{MinSize: ptr(int64(2000))})
	s.NoError(err)
	s.Equal([]string{"B"}, ids(big))

	searched, err := s.mediaRepo.Search(s.ctx, "", media.SearchOptions{MinSize: ptr(int64(2000))})
	s.NoError(err)
	s.Equal([]string{"B"}, ids(searched))
}

func (s *StoreTestSuite) Test_Media_FiltersComposeAsAnd() {
	albumID := int64(9)
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	fav := s.newItem("fav", media.TypeImage, 10, day)
	fav.IsFavorite = true
	fav.AlbumID = &albumID
	hidden := s.newItem("hidden", media.TypeImage, 10, day.Add(time.Hour))
	hidden.IsHidden = true
	hidden.Tags = []string{"private"}
	clip := s.newItem("clip", media.TypeVideo, 10, day.Add(2*time.Hour))
	clip.IsFavorite = true
	clip.Tags = []string{"trip"}
	for _, m := range []*media.MediaItem{fav, hidden, clip} {
		s.Require().NoError(s.mediaRepo.Save(s.ctx, m))
	}

	check := func(f media.Filter, want ...string) {
		got, err := s.mediaRepo.List(s.ctx, f)
		s.NoError(err)
		if want == nil {
			want = []string{}
		}
		s.Equal(want, ids(got))
	}

	check(media.Filter{Type: media.TypeImage}, "hidden", "fav")
	check(media.Filter{IsFavorite: ptr(true)}, "clip", "fav")
	check(media.Filter{IsFavorite: ptr(true), Type: media.TypeImage}, "fav")
	check(media.Filter{IsHidden: ptr(true)}, "hidden")
	check(media.Filter{IsHidden: ptr(false), IsFavorite: ptr(false)})
	check(media.Filter{AlbumID: media.Some(&albumID)}, "fav")
	check(media.Filter{AlbumID: media.Some[*int64](nil)}, "clip", "hidden")
	check(media.Filter{Tags: []string{"trip", "private"}}, "clip", "hidden")
	check(media.Filter{Tags: []string{"trip"}, Type: media.TypeImage})
}

func (s *StoreTestSuite) Test_Media_UpdateMergesAndBumpsRevision() {
	a, _ := s.addAB()

	updated, err := s.mediaRepo.Update(s.ctx, a.ID, media.Update{
		IsFavorite: ptr(true),
		Tags:       &[]string{"sunset"},
	})
	s.NoError(err)
	s.True(updated.IsFavorite)
	s.Equal(a.Name, updated.Name)
	s.Equal(int64(2), updated.Revision)

	tagged, err := s.mediaRepo.List(s.ctx, media.Filter{Tags: []string{"sunset"}})
	s.NoError(err)
	s.Equal([]string{"A"}, ids(tagged))
}

func (s *StoreTestSuite) Test_Media_UpdateMissingIsNotFound() {
	_, err := s.mediaRepo.Update(s.ctx, "ghost", media.Update{Name: ptr("x")})
	s.ErrorIs(err, apperror.ErrNotFound)
}

func (s *StoreTestSuite) Test_Media_UpdateRevisionConflict() {
	a, _ := s.addAB()

	_, err := s.mediaRepo.Update(s.ctx, a.ID, media.Update{Name: ptr("one"), ExpectedRevision: ptr(int64(1))})
	s.NoError(err)

	_, err = s.mediaRepo.Update(s.ctx, a.ID, media.Update{Name: ptr("two"), ExpectedRevision: ptr(int64(1))})
	s.ErrorIs(err, apperror.ErrConflict)

	found, err := s.mediaRepo.FindByID(s.ctx, a.ID)
	s.NoError(err)
	s.Equal("one", found.Name)
}

func (s *StoreTestSuite) Test_Media_ConcurrentDisjointUpdatesAreNotLost() {
	a, _ := s.addAB()

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := s.mediaRepo.Update(s.ctx, a.ID, media.Update{IsFavorite: ptr(true)})
		errs <- err
	}()
	go func() {
		defer wg.Done()
		_, err := s.mediaRepo.Update(s.ctx, a.ID, media.Update{Name: ptr("renamed.jpg")})
		errs <- err
	}()
	wg.Wait()
	close(errs)
	for err := range errs {
		s.NoError(err)
	}

	found, err := s.mediaRepo.FindByID(s.ctx, a.ID)
	s.NoError(err)
	s.True(found.IsFavorite)
	s.Equal("renamed.jpg", found.Name)
	s.Equal(int64(3), found.Revision)
}

func (s *StoreTestSuite) Test_Media_UnlinkAlbumUpdatesIndex() {
	a, _ := s.addAB()
	albumID := int64(1)
	_, err := s.mediaRepo.Update(s.ctx, a.ID, media.Update{AlbumID: media.Some(&albumID)})
	s.NoError(err)

	n, err := s.mediaRepo.CountByAlbum(s.ctx, albumID)
	s.NoError(err)
	s.Equal(1, n)

	_, err = s.mediaRepo.Update(s.ctx, a.ID, media.Update{AlbumID: media.Some[*int64](nil)})
	s.NoError(err)

	n, err = s.mediaRepo.CountByAlbum(s.ctx, albumID)
	s.NoError(err)
	s.Zero(n)
}

func (s *StoreTestSuite) Test_Media_PermanentDeleteIsIdempotent() {
	a, _ := s.addAB()

	s.NoError(s.mediaRepo.Delete(s.ctx, a.ID))
	s.NoError(s.mediaRepo.Delete(s.ctx, a.ID))

	found, err := s.mediaRepo.FindByID(s.ctx, a.ID)
	s.NoError(err)
	s.Nil(found)

	all, err := s.mediaRepo.List(s.ctx, media.Filter{Type: media.TypeImage})
	s.NoError(err)
	s.Empty(all)
}

func (s *StoreTestSuite) Test_Media_SearchMatchesNameTagsAndExif() {
	a, b := s.addAB()
	_, err := s.mediaRepo.Update(s.ctx, a.ID, media.Update{Exif: media.Some(map[string]any{"Make": "Canon"})})
	s.NoError(err)
	_, err = s.mediaRepo.Update(s.ctx, b.ID, media.Update{Tags: &[]string{"Holiday"}})
	s.NoError(err)

	byExif, err := s.mediaRepo.Search(s.ctx, "canon", media.SearchOptions{})
	s.NoError(err)
	s.Equal([]string{"A"}, ids(byExif))

	byTag, err := s.mediaRepo.Search(s.ctx, "HOLI", media.SearchOptions{})
	s.NoError(err)
	s.Equal([]string{"B"}, ids(byTag))

	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	byDate, err := s.mediaRepo.Search(s.ctx, ".bin", media.SearchOptions{DateTo: &day})
	s.NoError(err)
	s.Equal([]string{"A"}, ids(byDate))
}

func (s *StoreTestSuite) Test_Media_StatsAndRanges() {
	s.addAB()

	stats, err := s.mediaRepo.Stats(s.ctx)
	s.NoError(err)
	s.Equal(&media.Stats{TotalItems: 2, TotalSize: 6000, ImageCount: 1, VideoCount: 1, ImageSize: 1000, VideoSize: 5000}, stats)

	large, err := s.mediaRepo.ListLarge(s.ctx, 1000)
	s.NoError(err)
	s.Equal([]string{"B", "A"}, ids(large))

	larger, err := s.mediaRepo.ListLarge(s.ctx, 1001)
	s.NoError(err)
	s.Equal([]string{"B"}, ids(larger))

	since, err := s.mediaRepo.ListSince(s.ctx, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	s.NoError(err)
	s.Equal([]string{"B"}, ids(since))
}
