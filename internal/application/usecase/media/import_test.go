package media

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/khoahotran/pictures/adapters/persistence"
	"github.com/khoahotran/pictures/internal/application/service"
	"github.com/khoahotran/pictures/internal/domain/media"
	"github.com/khoahotran/pictures/internal/testutil"
	"github.com/khoahotran/pictures/pkg/apperror"
	"github.com/khoahotran/pictures/pkg/logger"
)

var assertErr = errors.New("sink unavailable")

type recordingTags struct{ names [][]string }

func (r *recordingTags) Ensure(_ context.Context, names []string) error {
	r.names = append(r.names, names)
	return nil
}

type ImportUseCaseTestSuite struct {
	suite.Suite
	ctx       context.Context
	extractor *testutil.MetadataExtractor
	tags      *recordingTags
	uc        *ImportUseCase
}

func TestImportUseCase(t *testing.T) {
	suite.Run(t, new(ImportUseCaseTestSuite))
}

func (s *ImportUseCaseTestSuite) SetupTest() {
	s.ctx = context.Background()
	clock := testutil.NewClock(time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC))
	repos := persistence.NewRepositories(testutil.NewStore(s.T(), clock), logger.NewNopLogger())

	lib := NewLibraryUseCase(repos.Media, repos.Trash, nil, logger.NewNopLogger())
	lib.now = clock.Now

	s.extractor = new(testutil.MetadataExtractor)
	s.tags = &recordingTags{}
	s.uc = NewImportUseCase(lib, s.extractor, s.tags, logger.NewNopLogger())
}

func (s *ImportUseCaseTestSuite) Test_OptionsOverrideExtractedMetadata() {
	taken := time.Date(2022, 5, 5, 10, 0, 0, 0, time.UTC)
	override := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	width := 640
	s.extractor.On("Extract", mock.Anything, "cat.jpg", mock.Anything).Return(&service.ExtractedMetadata{
		MimeType: "image/jpeg",
		Date:     &taken,
		Width:    &width,
		Exif:     map[string]any{"Model": "X100"},
	}, nil)

	albumID := int64(3)
	item, err := s.uc.ImportOne(s.ctx, ImportFile{Name: "cat.jpg", Data: []byte("jpg")}, ImportOptions{
		AlbumID: &albumID,
		Tags:    []string{"pets"},
		Date:    &override,
	})
	s.Require().NoError(err)
	s.Equal(override, item.Date)
	s.Equal(&albumID, item.AlbumID)
	s.Equal([]string{"pets"}, item.Tags)
	s.Equal(640, *item.Width)
	s.Equal("X100", item.Exif["Model"])
}

func (s *ImportUseCaseTestSuite) Test_ExtractedDateBeatsLastModified() {
	taken := time.Date(2022, 5, 5, 10, 0, 0, 0, time.UTC)
	modified := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.extractor.On("Extract", mock.Anything, mock.Anything, mock.Anything).
		Return(&service.ExtractedMetadata{MimeType: "image/png", Date: &taken}, nil)

	item, err := s.uc.ImportOne(s.ctx, ImportFile{Name: "a.png", Data: []byte("png"), LastModified: &modified}, ImportOptions{})
	s.Require().NoError(err)
	s.Equal(taken, item.Date)
}

func (s *ImportUseCaseTestSuite) Test_DeclaredTypeUsedWhenSniffingFails() {
	s.extractor.On("Extract", mock.Anything, mock.Anything, mock.Anything).
		Return(&service.ExtractedMetadata{MimeType: "application/octet-stream"}, nil)

	item, err := s.uc.ImportOne(s.ctx, ImportFile{Name: "clip.mov", Data: []byte("??"), DeclaredMIME: "video/quicktime"}, ImportOptions{})
	s.Require().NoError(err)
	s.Equal(media.TypeVideo, item.Type)
	s.Equal("video/quicktime", item.MimeType)
}

func (s *ImportUseCaseTestSuite) Test_ImportBatchKeepsGoingAfterRejection() {
	s.extractor.On("Extract", mock.Anything, "notes.txt", mock.Anything).
		Return(&service.ExtractedMetadata{MimeType: "text/plain"}, nil)
	s.extractor.On("Extract", mock.Anything, "ok.gif", mock.Anything).
		Return(&service.ExtractedMetadata{MimeType: "image/gif"}, nil)

	results := s.uc.Import(s.ctx, []ImportFile{
		{Name: "notes.txt", Data: []byte("hello")},
		{Name: "ok.gif", Data: []byte("GIF89a")},
	}, ImportOptions{Tags: []string{"inbox"}})

	s.Require().Len(results, 2)
	s.Contains(results[0].Error, "unsupported file type")
	s.Nil(results[0].Item)
	s.Empty(results[1].Error)
	s.NotNil(results[1].Item)
	s.Equal([][]string{{"inbox"}}, s.tags.names)
}

func (s *ImportUseCaseTestSuite) Test_UnsupportedIsValidationError() {
	s.extractor.On("Extract", mock.Anything, mock.Anything, mock.Anything).
		Return(&service.ExtractedMetadata{MimeType: "image/tiff"}, nil)

	_, err := s.uc.ImportOne(s.ctx, ImportFile{Name: "scan.tiff", Data: []byte("II*")}, ImportOptions{})
	s.ErrorIs(err, apperror.ErrInvalidInput)
}
