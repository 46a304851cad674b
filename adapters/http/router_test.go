package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"

	"github.com/khoahotran/pictures/adapters/event"
	"github.com/khoahotran/pictures/adapters/metadata"
	"github.com/khoahotran/pictures/adapters/persistence"
	albumUC "github.com/khoahotran/pictures/internal/application/usecase/album"
	mediaUC "github.com/khoahotran/pictures/internal/application/usecase/media"
	searchUC "github.com/khoahotran/pictures/internal/application/usecase/search"
	settingsUC "github.com/khoahotran/pictures/internal/application/usecase/settings"
	tagUC "github.com/khoahotran/pictures/internal/application/usecase/tag"
	trashUC "github.com/khoahotran/pictures/internal/application/usecase/trash"
	"github.com/khoahotran/pictures/internal/domain/media"
	"github.com/khoahotran/pictures/internal/testutil"
	"github.com/khoahotran/pictures/pkg/auth"
	"github.com/khoahotran/pictures/pkg/logger"
)

type APITestSuite struct {
	suite.Suite
	router *gin.Engine
	bus    *event.Bus
	repos  persistence.Repositories
}

func TestAPI(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}

func (s *APITestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	log := logger.NewNopLogger()
	clock := testutil.NewClock(time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC))
	store := testutil.NewStore(s.T(), clock)
	s.repos = persistence.NewRepositories(store, log)
	s.bus = event.NewBus(log)

	tokens := auth.NewJWTService("test-secret", time.Hour)
	library := mediaUC.NewLibraryUseCase(s.repos.Media, s.repos.Trash, s.bus, log)
	tags := tagUC.NewTagUseCase(s.repos.Tags, s.bus, log)
	importer := mediaUC.NewImportUseCase(library, metadata.NewExtractor(log), tags, log)
	albums := albumUC.NewManagerUseCase(s.repos.Albums, s.repos.Media, s.repos.Trash, tokens, s.bus, log)

	s.router = NewRouter(Handlers{
		Media:    NewMediaHandler(library, importer, albums, log),
		Albums:   NewAlbumHandler(albums, library),
		Tags:     NewTagHandler(tags),
		Trash:    NewTrashHandler(trashUC.NewTrashUseCase(s.repos.Trash, store.Retention(), s.bus, log, trashUC.WithClock(clock.Now))),
		Search:   NewSearchHandler(searchUC.NewSearchUseCase(s.repos.Media, log), albums, log),
		Settings: NewSettingsHandler(settingsUC.NewSettingsUseCase(s.repos.Settings, s.bus, log)),
		Events:   NewEventsHandler(s.bus, log),
	}, log)
}

func (s *APITestSuite) do(method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func (s *APITestSuite) decode(rr *httptest.ResponseRecorder, out any) {
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), out), rr.Body.String())
}

func pngBytes(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

func (s *APITestSuite) upload(name, contentType string, data []byte, fields map[string]string) *httptest.ResponseRecorder {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {`form-data; name="files"; filename="` + name + `"`},
		"Content-Type":        {contentType},
	})
	s.Require().NoError(err)
	_, _ = part.Write(data)
	for k, v := range fields {
		s.Require().NoError(mw.WriteField(k, v))
	}
	s.Require().NoError(mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/media", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func (s *APITestSuite) uploadOne(name string, fields map[string]string) MediaDTO {
	rr := s.upload(name, "image/png", pngBytes(4, 3), fields)
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())
	var results []uploadResultDTO
	s.decode(rr, &results)
	s.Require().Len(results, 1)
	s.Require().NotNil(results[0].Item, results[0].Error)
	return *results[0].Item
}

func (s *APITestSuite) Test_UploadThenFetch() {
	item := s.uploadOne("cat.png", map[string]string{"tags": "pets, cats"})
	s.Equal(media.TypeImage, item.Type)
	s.Equal("image/png", item.MimeType)
	s.Equal(4, *item.Width)
	s.Equal(3, *item.Height)
	s.Equal([]string{"pets", "cats"}, item.Tags)

	rr := s.do(http.MethodGet, "/api/media/"+item.ID, nil)
	s.Equal(http.StatusOK, rr.Code)

	rr = s.do(http.MethodGet, item.FileURL, nil)
	s.Equal(http.StatusOK, rr.Code)
	s.Equal("image/png", rr.Header().Get("Content-Type"))
	s.Equal(pngBytes(4, 3), rr.Body.Bytes())

	rr = s.do(http.MethodGet, "/api/tags", nil)
	s.Contains(rr.Body.String(), `"pets"`)
}

func (s *APITestSuite) Test_UploadRejectsUnsupportedType() {
	rr := s.upload("notes.txt", "text/plain", []byte("hello"), nil)
	s.Equal(http.StatusBadRequest, rr.Code)
	s.Contains(rr.Body.String(), "unsupported file type")
}

func (s *APITestSuite) Test_MissingMediaIs404() {
	rr := s.do(http.MethodGet, "/api/media/nope", nil)
	s.Equal(http.StatusNotFound, rr.Code)
	var body map[string]string
	s.decode(rr, &body)
	s.Equal("not found", body["error"])
}

func (s *APITestSuite) Test_PatchDistinguishesNullFromAbsent() {
	var album AlbumDTO
	s.decode(s.do(http.MethodPost, "/api/albums", gin.H{"name": "Trip"}), &album)
	item := s.uploadOne("a.png", map[string]string{"albumId": "1"})
	s.Require().Equal(album.ID, *item.AlbumID)

	rr := s.do(http.MethodPatch, "/api/media/"+item.ID, gin.H{"isFavorite": true})
	s.Require().Equal(http.StatusOK, rr.Code)
	var updated MediaDTO
	s.decode(rr, &updated)
	s.True(updated.IsFavorite)
	s.Equal(album.ID, *updated.AlbumID)

	rr = s.do(http.MethodPatch, "/api/media/"+item.ID, map[string]any{"albumId": nil})
	s.decode(rr, &updated)
	s.Nil(updated.AlbumID)

	rr = s.do(http.MethodPatch, "/api/media/"+item.ID, gin.H{"revision": 1, "name": "x.png"})
	s.Equal(http.StatusConflict, rr.Code)

	rr = s.do(http.MethodPatch, "/api/media/"+item.ID, gin.H{"size": 1})
	s.Equal(http.StatusBadRequest, rr.Code)
}

func (s *APITestSuite) Test_PatchNullClearsExif() {
	item := s.uploadOne("a.png", nil)

	var updated MediaDTO
	rr := s.do(http.MethodPatch, "/api/media/"+item.ID, gin.H{"exif": gin.H{"Model": "X100"}})
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	s.decode(rr, &updated)
	s.Equal("X100", updated.Exif["Model"])

	rr = s.do(http.MethodPatch, "/api/media/"+item.ID, gin.H{"name": "b.png"})
	s.Require().Equal(http.StatusOK, rr.Code)
	s.decode(rr, &updated)
	s.Equal("X100", updated.Exif["Model"], "absent exif is left alone")

	rr = s.do(http.MethodPatch, "/api/media/"+item.ID, map[string]any{"exif": nil})
	s.Require().Equal(http.StatusOK, rr.Code)
	updated.Exif = nil
	s.decode(rr, &updated)
	s.Nil(updated.Exif)
}

func (s *APITestSuite) Test_DanglingAlbumIsUnfiled() {
	item := s.uploadOne("a.png", nil)
	rr := s.do(http.MethodPatch, "/api/media/"+item.ID, gin.H{"albumId": 999})
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())

	var fetched MediaDTO
	rr = s.do(http.MethodGet, "/api/media/"+item.ID, nil)
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	s.decode(rr, &fetched)
	s.Equal(int64(999), *fetched.AlbumID)

	var items []MediaDTO
	rr = s.do(http.MethodGet, "/api/media?albumId=999", nil)
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	s.decode(rr, &items)
	s.Require().Len(items, 1)
	s.Equal(item.ID, items[0].ID)

	s.decode(s.do(http.MethodGet, "/api/media", nil), &items)
	s.Len(items, 1)

	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/albums/999", nil).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/albums/999/media", nil).Code)
}

func (s *APITestSuite) Test_TrashRoundTrip() {
	item := s.uploadOne("a.png", nil)

	rr := s.do(http.MethodDelete, "/api/media/"+item.ID, nil)
	s.Require().Equal(http.StatusNoContent, rr.Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/media/"+item.ID, nil).Code)

	var entries []TrashEntryDTO
	s.decode(s.do(http.MethodGet, "/api/trash", nil), &entries)
	s.Require().Len(entries, 1)
	s.Equal(30, entries[0].DaysLeft)

	rr = s.do(http.MethodPost, "/api/trash/"+item.ID+"/restore", nil)
	s.Require().Equal(http.StatusOK, rr.Code)
	s.Equal(http.StatusOK, s.do(http.MethodGet, "/api/media/"+item.ID, nil).Code)

	rr = s.do(http.MethodPost, "/api/trash/"+item.ID+"/restore", nil)
	s.Equal(http.StatusNotFound, rr.Code)
}

func (s *APITestSuite) Test_ListFiltersFromQuery() {
	s.uploadOne("a.png", nil)
	fav := s.uploadOne("b.png", nil)
	s.do(http.MethodPost, "/api/media/"+fav.ID+"/favorite", nil)

	var items []MediaDTO
	s.decode(s.do(http.MethodGet, "/api/media?isFavorite=true", nil), &items)
	s.Require().Len(items, 1)
	s.Equal(fav.ID, items[0].ID)

	s.decode(s.do(http.MethodGet, "/api/media?albumId=null&type=image", nil), &items)
	s.Len(items, 2)

	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/api/media?type=audio", nil).Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/api/media?minSize=big", nil).Code)
}

func (s *APITestSuite) Test_LockedAlbumNeedsToken() {
	var album AlbumDTO
	s.decode(s.do(http.MethodPost, "/api/albums", gin.H{"name": "Secret", "password": "hunter2"}), &album)
	s.True(album.HasPassword)
	s.NotContains(s.do(http.MethodGet, "/api/albums", nil).Body.String(), "passwordHash")

	hidden := s.uploadOne("private.png", map[string]string{"albumId": "1"})
	s.uploadOne("public.png", nil)

	s.Equal(http.StatusForbidden, s.do(http.MethodGet, "/api/albums/1/media", nil).Code)
	s.Equal(http.StatusForbidden, s.do(http.MethodGet, "/api/media/"+hidden.ID, nil).Code)

	var items []MediaDTO
	s.decode(s.do(http.MethodGet, "/api/media", nil), &items)
	s.Len(items, 1)

	s.Equal(http.StatusUnauthorized, s.do(http.MethodPost, "/api/albums/1/unlock", gin.H{"password": "nope"}).Code)

	var unlocked map[string]string
	s.decode(s.do(http.MethodPost, "/api/albums/1/unlock", gin.H{"password": "hunter2"}), &unlocked)
	token := unlocked["token"]
	s.Require().NotEmpty(token)

	rr := s.do(http.MethodGet, "/api/albums/1/media", nil, HeaderAlbumToken, token)
	s.Equal(http.StatusOK, rr.Code)
	s.decode(s.do(http.MethodGet, "/api/media", nil, HeaderAlbumToken, token), &items)
	s.Len(items, 2)
}

func (s *APITestSuite) Test_AlbumStatsAndDelete() {
	s.do(http.MethodPost, "/api/albums", gin.H{"name": "Trip"})
	item := s.uploadOne("a.png", map[string]string{"albumId": "1"})

	var album AlbumDTO
	s.decode(s.do(http.MethodGet, "/api/albums/1", nil), &album)
	s.Equal(1, album.ItemCount)
	s.Require().NotNil(album.Cover)
	s.Equal(item.ID, album.Cover.ID)

	var result media.BatchResult
	s.decode(s.do(http.MethodDelete, "/api/albums/1", nil), &result)
	s.Equal([]string{item.ID}, result.Succeeded)

	s.Equal(http.StatusOK, s.do(http.MethodGet, "/api/media/"+item.ID, nil).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodDelete, "/api/albums/1", nil).Code)
}

func (s *APITestSuite) Test_BulkDeleteReportsFailures() {
	a := s.uploadOne("a.png", nil)

	var result media.BatchResult
	s.decode(s.do(http.MethodPost, "/api/media/delete", gin.H{"ids": []string{a.ID, "ghost"}}), &result)
	s.Equal([]string{a.ID}, result.Succeeded)
	s.Require().Len(result.Failed, 1)
	s.Equal("ghost", result.Failed[0].ID)
}

func (s *APITestSuite) Test_SearchAndStats() {
	s.uploadOne("Screenshot_1.png", nil)
	s.uploadOne("beach.png", map[string]string{"tags": "summer"})

	var items []MediaDTO
	s.decode(s.do(http.MethodGet, "/api/search?q=SUMMER", nil), &items)
	s.Require().Len(items, 1)
	s.Equal("beach.png", items[0].Name)

	s.decode(s.do(http.MethodGet, "/api/search/screenshots", nil), &items)
	s.Require().Len(items, 1)
	s.Equal("Screenshot_1.png", items[0].Name)

	var stats map[string]any
	s.decode(s.do(http.MethodGet, "/api/stats", nil), &stats)
	s.EqualValues(2, stats["totalItems"])
	s.NotEmpty(stats["totalSizeHuman"])
}

func (s *APITestSuite) Test_Settings() {
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/settings/theme", nil).Code)
	s.Equal(http.StatusOK, s.do(http.MethodPut, "/api/settings/theme", gin.H{"value": "dark"}).Code)

	var got struct {
		Value string `json:"value"`
	}
	s.decode(s.do(http.MethodGet, "/api/settings/theme", nil), &got)
	s.Equal("dark", got.Value)
}

func (s *APITestSuite) Test_EventStream() {
	server := httptest.NewServer(s.router)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/events", nil)
	s.Require().NoError(err)
	resp, err := server.Client().Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal("text/event-stream", resp.Header.Get("Content-Type"))

	s.Require().Eventually(func() bool { return s.bus.Len() == 1 }, time.Second, 5*time.Millisecond)
	s.uploadOne("live.png", nil)

	lines := bufio.NewScanner(resp.Body)
	for lines.Scan() {
		if strings.HasPrefix(lines.Text(), "event:") {
			s.Equal("event:media.added", strings.ReplaceAll(lines.Text(), " ", ""))
			break
		}
	}
	cancel()
	s.Eventually(func() bool { return s.bus.Len() == 0 }, time.Second, 5*time.Millisecond)
}
