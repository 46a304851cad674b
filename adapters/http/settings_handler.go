package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	backupUC "github.com/khoahotran/pictures/internal/application/usecase/backup"
	settingsUC "github.com/khoahotran/pictures/internal/application/usecase/settings"
	"github.com/khoahotran/pictures/pkg/apperror"
)

type SettingsHandler struct {
	useCase *settingsUC.SettingsUseCase
}

func NewSettingsHandler(uc *settingsUC.SettingsUseCase) *SettingsHandler {
	return &SettingsHandler{useCase: uc}
}

func (h *SettingsHandler) ListSettings(c *gin.Context) {
	settings, err := h.useCase.List(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// GetSetting answers 404 for a key that was never set.
func (h *SettingsHandler) GetSetting(c *gin.Context) {
	key := c.Param("key")
	value, err := h.useCase.Get(c.Request.Context(), key, nil)
	if err != nil {
		c.Error(err)
		return
	}
	if value == nil {
		c.Error(apperror.NewNotFound("setting", key))
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "value": value})
}

func (h *SettingsHandler) SetSetting(c *gin.Context) {
	var req SetSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput("invalid request data", err))
		return
	}
	key := c.Param("key")
	if err := h.useCase.Set(c.Request.Context(), key, req.Value); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "value": req.Value})
}

func (h *SettingsHandler) DeleteSetting(c *gin.Context) {
	if err := h.useCase.Delete(c.Request.Context(), c.Param("key")); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

type BackupHandler struct {
	useCase *backupUC.BackupUseCase
}

func NewBackupHandler(uc *backupUC.BackupUseCase) *BackupHandler {
	return &BackupHandler{useCase: uc}
}

func (h *BackupHandler) RunBackup(c *gin.Context) {
	res, err := h.useCase.Execute(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// DownloadSnapshot streams a copy of the database file.
func (h *BackupHandler) DownloadSnapshot(c *gin.Context) {
	c.Header("Content-Type", "application/octet-stream")
	c.Header("Content-Disposition", `attachment; filename="library.db"`)
	c.Status(http.StatusOK)
	if _, err := h.useCase.WriteTo(c.Request.Context(), c.Writer); err != nil {
		c.Error(err)
	}
}
