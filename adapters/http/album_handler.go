package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	albumUC "github.com/khoahotran/pictures/internal/application/usecase/album"
	mediaUC "github.com/khoahotran/pictures/internal/application/usecase/media"
	"github.com/khoahotran/pictures/internal/domain/media"
	"github.com/khoahotran/pictures/pkg/apperror"
)

type AlbumHandler struct {
	useCase *albumUC.ManagerUseCase
	library *mediaUC.LibraryUseCase
}

func NewAlbumHandler(uc *albumUC.ManagerUseCase, library *mediaUC.LibraryUseCase) *AlbumHandler {
	return &AlbumHandler{useCase: uc, library: library}
}

func (h *AlbumHandler) CreateAlbum(c *gin.Context) {
	var req CreateAlbumRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput("invalid request data", err))
		return
	}
	a, err := h.useCase.CreateAlbum(c.Request.Context(), albumUC.CreateAlbumInput{
		Name:      req.Name,
		IsPrivate: req.IsPrivate,
		Password:  req.Password,
		CoverID:   req.CoverID,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, ToAlbumDTO(a))
}

// ListAlbums returns every album with its live count and cover.
func (h *AlbumHandler) ListAlbums(c *gin.Context) {
	albums, err := h.useCase.ListAlbumsWithStats(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	locked, err := h.useCase.LockedAlbumIDs(c.Request.Context(), albumToken(c))
	if err != nil {
		c.Error(err)
		return
	}
	dtos := make([]AlbumDTO, len(albums))
	for i, a := range albums {
		dtos[i] = ToAlbumStatsDTO(a, locked[a.ID])
	}
	c.JSON(http.StatusOK, dtos)
}

func (h *AlbumHandler) GetAlbum(c *gin.Context) {
	id, err := paramInt(c, "id")
	if err != nil {
		c.Error(err)
		return
	}
	ws, err := h.useCase.GetAlbumWithStats(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	locked := h.useCase.VerifyAccess(c.Request.Context(), id, albumToken(c)) != nil
	c.JSON(http.StatusOK, ToAlbumStatsDTO(ws, locked))
}

func (h *AlbumHandler) ListAlbumMedia(c *gin.Context) {
	id, err := paramInt(c, "id")
	if err != nil {
		c.Error(err)
		return
	}
	if _, err := h.useCase.GetAlbum(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}
	if err := h.useCase.VerifyAccess(c.Request.Context(), id, albumToken(c)); err != nil {
		c.Error(err)
		return
	}
	items, err := h.library.ListMedia(c.Request.Context(), media.Filter{AlbumID: media.Some(&id)})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ToMediaDTOs(items))
}

func (h *AlbumHandler) UpdateAlbum(c *gin.Context) {
	id, err := paramInt(c, "id")
	if err != nil {
		c.Error(err)
		return
	}
	var req UpdateAlbumRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput("invalid request data", err))
		return
	}
	a, err := h.useCase.UpdateAlbum(c.Request.Context(), id, albumUC.UpdateAlbumInput{
		Name:      req.Name,
		IsPrivate: req.IsPrivate,
		Password:  req.Password,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ToAlbumDTO(a))
}

// DeleteAlbum takes {"deleteMedia": true} to trash the members; by default they are unlinked.
func (h *AlbumHandler) DeleteAlbum(c *gin.Context) {
	id, err := paramInt(c, "id")
	if err != nil {
		c.Error(err)
		return
	}
	var req DeleteAlbumRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(apperror.NewInvalidInput("invalid request data", err))
			return
		}
	}
	result, err := h.useCase.DeleteAlbum(c.Request.Context(), id, req.DeleteMedia)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *AlbumHandler) MoveMedia(c *gin.Context) {
	var req MoveMediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput("invalid request data", err))
		return
	}
	result, err := h.useCase.MoveToAlbum(c.Request.Context(), req.IDs, req.AlbumID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *AlbumHandler) MergeAlbums(c *gin.Context) {
	var req MergeAlbumsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput("invalid request data", err))
		return
	}
	result, err := h.useCase.MergeAlbums(c.Request.Context(), req.SourceIDs, req.TargetID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *AlbumHandler) SetCover(c *gin.Context) {
	id, err := paramInt(c, "id")
	if err != nil {
		c.Error(err)
		return
	}
	var req SetCoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput("invalid request data", err))
		return
	}
	a, err := h.useCase.SetCover(c.Request.Context(), id, req.MediaID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ToAlbumDTO(a))
}

func (h *AlbumHandler) UnlockAlbum(c *gin.Context) {
	id, err := paramInt(c, "id")
	if err != nil {
		c.Error(err)
		return
	}
	var req UnlockAlbumRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput("invalid request data", err))
		return
	}
	token, err := h.useCase.Unlock(c.Request.Context(), id, req.Password)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}
