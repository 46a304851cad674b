package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	albumUC "github.com/khoahotran/pictures/internal/application/usecase/album"
	searchUC "github.com/khoahotran/pictures/internal/application/usecase/search"
	"github.com/khoahotran/pictures/internal/domain/media"
	"github.com/khoahotran/pictures/pkg/apperror"
	"github.com/khoahotran/pictures/pkg/logger"
)

type SearchHandler struct {
	useCase *searchUC.SearchUseCase
	albums  *albumUC.ManagerUseCase
	logger  logger.Logger
}

func NewSearchHandler(uc *searchUC.SearchUseCase, albums *albumUC.ManagerUseCase, log logger.Logger) *SearchHandler {
	return &SearchHandler{useCase: uc, albums: albums, logger: log}
}

// Search takes q plus the media filter parameters. includeHidden=true also returns hidden items.
func (h *SearchHandler) Search(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		c.Error(err)
		return
	}
	includeHidden, _ := strconv.ParseBool(c.Query("includeHidden"))

	items, err := h.useCase.Search(c.Request.Context(), c.Query("q"), searchUC.Filters{
		Filter:        filter,
		IncludeHidden: includeHidden,
	})
	h.respond(c, items, err)
}

func (h *SearchHandler) Screenshots(c *gin.Context) {
	items, err := h.useCase.Screenshots(c.Request.Context())
	h.respond(c, items, err)
}

func (h *SearchHandler) LargeFiles(c *gin.Context) {
	threshold, err := queryInt(c, "threshold")
	if err != nil {
		c.Error(err)
		return
	}
	var t int64
	if threshold != nil {
		t = *threshold
	}
	items, err := h.useCase.LargeFiles(c.Request.Context(), t)
	h.respond(c, items, err)
}

func (h *SearchHandler) LongVideos(c *gin.Context) {
	seconds, err := strconv.ParseFloat(c.DefaultQuery("seconds", "0"), 64)
	if err != nil {
		c.Error(apperror.NewInvalidInput("seconds must be a number", err))
		return
	}
	items, err := h.useCase.LongVideos(c.Request.Context(), seconds)
	h.respond(c, items, err)
}

func (h *SearchHandler) Recent(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "0"))
	if err != nil {
		c.Error(apperror.NewInvalidInput("days must be a number", err))
		return
	}
	items, err := h.useCase.Recent(c.Request.Context(), days)
	h.respond(c, items, err)
}

func (h *SearchHandler) Duplicates(c *gin.Context) {
	groups, err := h.useCase.FindDuplicates(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	out := make([][]MediaDTO, 0, len(groups))
	for _, g := range groups {
		if g, err = hideLocked(c, h.albums, g); err != nil {
			c.Error(err)
			return
		}
		if len(g) > 1 {
			out = append(out, ToMediaDTOs(g))
		}
	}
	c.JSON(http.StatusOK, out)
}

// Timeline groups the visible library into today, yesterday, this week, this month and older.
func (h *SearchHandler) Timeline(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		c.Error(err)
		return
	}
	items, err := h.useCase.Search(c.Request.Context(), "", searchUC.Filters{Filter: filter})
	if err != nil {
		c.Error(err)
		return
	}
	if items, err = hideLocked(c, h.albums, items); err != nil {
		c.Error(err)
		return
	}
	groups := h.useCase.GroupByDate(items)
	c.JSON(http.StatusOK, gin.H{
		"today":     ToMediaDTOs(groups.Today),
		"yesterday": ToMediaDTOs(groups.Yesterday),
		"thisWeek":  ToMediaDTOs(groups.ThisWeek),
		"thisMonth": ToMediaDTOs(groups.ThisMonth),
		"older":     ToMediaDTOs(groups.Older),
	})
}

func (h *SearchHandler) respond(c *gin.Context, items []*media.MediaItem, err error) {
	if err != nil {
		c.Error(err)
		return
	}
	if items, err = hideLocked(c, h.albums, items); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ToMediaDTOs(items))
}
