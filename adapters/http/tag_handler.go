package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	tagUC "github.com/khoahotran/pictures/internal/application/usecase/tag"
	"github.com/khoahotran/pictures/pkg/apperror"
)

type TagHandler struct {
	useCase *tagUC.TagUseCase
}

func NewTagHandler(uc *tagUC.TagUseCase) *TagHandler {
	return &TagHandler{useCase: uc}
}

func (h *TagHandler) CreateTag(c *gin.Context) {
	var req CreateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput("invalid request data", err))
		return
	}
	t, err := h.useCase.CreateTag(c.Request.Context(), req.Name, req.Color)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *TagHandler) ListTags(c *gin.Context) {
	tags, err := h.useCase.ListTags(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, tags)
}
