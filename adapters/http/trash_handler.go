package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	trashUC "github.com/khoahotran/pictures/internal/application/usecase/trash"
)

type TrashHandler struct {
	useCase *trashUC.TrashUseCase
}

func NewTrashHandler(uc *trashUC.TrashUseCase) *TrashHandler {
	return &TrashHandler{useCase: uc}
}

func (h *TrashHandler) ListTrash(c *gin.Context) {
	entries, err := h.useCase.List(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ToTrashEntryDTOs(entries))
}

func (h *TrashHandler) RestoreMedia(c *gin.Context) {
	item, err := h.useCase.Restore(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ToMediaDTO(item))
}

func (h *TrashHandler) DeleteForever(c *gin.Context) {
	if err := h.useCase.DeleteForever(c.Request.Context(), c.Param("id")); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TrashHandler) EmptyTrash(c *gin.Context) {
	n, err := h.useCase.Empty(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}
