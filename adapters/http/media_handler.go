package http

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	albumUC "github.com/khoahotran/pictures/internal/application/usecase/album"
	mediaUC "github.com/khoahotran/pictures/internal/application/usecase/media"
	"github.com/khoahotran/pictures/internal/domain/media"
	"github.com/khoahotran/pictures/pkg/apperror"
	"github.com/khoahotran/pictures/pkg/logger"
)

type MediaHandler struct {
	library  *mediaUC.LibraryUseCase
	importer *mediaUC.ImportUseCase
	albums   *albumUC.ManagerUseCase
	logger   logger.Logger
}

func NewMediaHandler(
	library *mediaUC.LibraryUseCase,
	importer *mediaUC.ImportUseCase,
	albums *albumUC.ManagerUseCase,
	log logger.Logger,
) *MediaHandler {
	return &MediaHandler{library: library, importer: importer, albums: albums, logger: log}
}

func (h *MediaHandler) ListMedia(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		c.Error(err)
		return
	}
	if filter.AlbumID.Valid && filter.AlbumID.Value != nil {
		if err := h.albums.VerifyAccess(c.Request.Context(), *filter.AlbumID.Value, albumToken(c)); err != nil {
			c.Error(err)
			return
		}
	}

	items, err := h.library.ListMedia(c.Request.Context(), filter)
	if err != nil {
		c.Error(err)
		return
	}
	items, err = hideLocked(c, h.albums, items)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ToMediaDTOs(items))
}

func (h *MediaHandler) GetMedia(c *gin.Context) {
	item, ok := h.loadAccessible(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ToMediaDTO(item))
}

func (h *MediaHandler) GetMediaFile(c *gin.Context) {
	item, ok := h.loadAccessible(c)
	if !ok {
		return
	}
	c.Header("Content-Disposition", "inline; filename="+strconv.Quote(item.Name))
	c.Data(http.StatusOK, item.MimeType, item.File)
}

func (h *MediaHandler) loadAccessible(c *gin.Context) (*media.MediaItem, bool) {
	id := c.Param("id")
	item, err := h.library.GetMedia(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return nil, false
	}
	if item == nil {
		c.Error(apperror.NewNotFound("media", id))
		return nil, false
	}
	if item.AlbumID != nil {
		if err := h.albums.VerifyAccess(c.Request.Context(), *item.AlbumID, albumToken(c)); err != nil {
			c.Error(err)
			return nil, false
		}
	}
	return item, true
}

type uploadResultDTO struct {
	Name  string    `json:"name"`
	Item  *MediaDTO `json:"item,omitempty"`
	Error string    `json:"error,omitempty"`
}

// UploadMedia imports every part named "files" or "file". Optional form fields albumId, tags
// (comma separated), date and duration apply to all of them.
func (h *MediaHandler) UploadMedia(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.Error(apperror.NewInvalidInput("multipart form is required", err))
		return
	}
	headers := append(form.File["files"], form.File["file"]...)
	if len(headers) == 0 {
		c.Error(apperror.NewInvalidInput("'files' is required", nil))
		return
	}

	var opts mediaUC.ImportOptions
	if raw := c.PostForm("albumId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.Error(apperror.NewInvalidInput("albumId must be a number", err))
			return
		}
		opts.AlbumID = &id
	}
	for _, t := range strings.Split(c.PostForm("tags"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			opts.Tags = append(opts.Tags, t)
		}
	}
	if opts.Date, err = parseDate("date", c.PostForm("date")); err != nil {
		c.Error(err)
		return
	}
	if raw := c.PostForm("duration"); raw != "" {
		d, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.Error(apperror.NewInvalidInput("duration must be a number of seconds", err))
			return
		}
		opts.Duration = &d
	}

	files := make([]mediaUC.ImportFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			c.Error(apperror.NewInternal("failed to open file", err))
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			c.Error(apperror.NewInternal("failed to read file", err))
			return
		}
		files = append(files, mediaUC.ImportFile{
			Name:         fh.Filename,
			Data:         data,
			DeclaredMIME: fh.Header.Get("Content-Type"),
		})
	}

	results := h.importer.Import(c.Request.Context(), files, opts)
	out := make([]uploadResultDTO, len(results))
	status := http.StatusCreated
	for i, r := range results {
		out[i] = uploadResultDTO{Name: r.Name, Error: r.Error}
		if r.Item != nil {
			dto := ToMediaDTO(r.Item)
			out[i].Item = &dto
		} else if len(results) == 1 {
			status = http.StatusBadRequest
		}
	}
	c.JSON(status, out)
}

func (h *MediaHandler) UpdateMedia(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.Error(apperror.NewInvalidInput("cannot read body", err))
		return
	}
	upd, err := parseMediaUpdate(body)
	if err != nil {
		c.Error(err)
		return
	}
	item, err := h.library.UpdateMedia(c.Request.Context(), c.Param("id"), upd)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ToMediaDTO(item))
}

func (h *MediaHandler) ToggleFavorite(c *gin.Context) {
	item, err := h.library.ToggleFavorite(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ToMediaDTO(item))
}

// DeleteMedia moves the item to trash, or removes it for good with ?permanent=true.
func (h *MediaHandler) DeleteMedia(c *gin.Context) {
	permanent, _ := strconv.ParseBool(c.Query("permanent"))
	if err := h.library.DeleteMedia(c.Request.Context(), c.Param("id"), permanent); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *MediaHandler) DeleteManyMedia(c *gin.Context) {
	var req DeleteManyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput("invalid request data", err))
		return
	}
	c.JSON(http.StatusOK, h.library.DeleteMany(c.Request.Context(), req.IDs, req.Permanent))
}

func (h *MediaHandler) Stats(c *gin.Context) {
	stats, err := h.library.Stats(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ToStatsDTO(stats))
}

// hideLocked drops items filed in albums the caller has not unlocked.
func hideLocked(c *gin.Context, albums *albumUC.ManagerUseCase, items []*media.MediaItem) ([]*media.MediaItem, error) {
	locked, err := albums.LockedAlbumIDs(c.Request.Context(), albumToken(c))
	if err != nil || len(locked) == 0 {
		return items, err
	}
	out := items[:0]
	for _, m := range items {
		if m.AlbumID == nil || !locked[*m.AlbumID] {
			out = append(out, m)
		}
	}
	return out, nil
}
