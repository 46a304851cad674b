package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khoahotran/pictures/pkg/logger"
)

type Handlers struct {
	Media    *MediaHandler
	Albums   *AlbumHandler
	Tags     *TagHandler
	Trash    *TrashHandler
	Search   *SearchHandler
	Settings *SettingsHandler
	Backup   *BackupHandler
	Events   *EventsHandler
}

// NewRouter wires every handler under /api. Handlers left nil are not mounted.
func NewRouter(h Handlers, log logger.Logger) *gin.Engine {
	router := gin.New()
	router.MaxMultipartMemory = 64 << 20
	router.Use(gin.Recovery(), RequestIDMiddleware(), LoggerMiddleware(log), ErrorMiddleware(log))

	api := router.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "UP"}) })

		mediaGroup := api.Group("/media")
		{
			mediaGroup.GET("", h.Media.ListMedia)
			mediaGroup.POST("", h.Media.UploadMedia)
			mediaGroup.POST("/delete", h.Media.DeleteManyMedia)
			mediaGroup.GET("/:id", h.Media.GetMedia)
			mediaGroup.GET("/:id/file", h.Media.GetMediaFile)
			mediaGroup.PATCH("/:id", h.Media.UpdateMedia)
			mediaGroup.POST("/:id/favorite", h.Media.ToggleFavorite)
			mediaGroup.DELETE("/:id", h.Media.DeleteMedia)
		}
		api.GET("/stats", h.Media.Stats)

		albums := api.Group("/albums")
		{
			albums.GET("", h.Albums.ListAlbums)
			albums.POST("", h.Albums.CreateAlbum)
			albums.POST("/move", h.Albums.MoveMedia)
			albums.POST("/merge", h.Albums.MergeAlbums)
			albums.GET("/:id", h.Albums.GetAlbum)
			albums.GET("/:id/media", h.Albums.ListAlbumMedia)
			albums.PATCH("/:id", h.Albums.UpdateAlbum)
			albums.DELETE("/:id", h.Albums.DeleteAlbum)
			albums.PUT("/:id/cover", h.Albums.SetCover)
			albums.POST("/:id/unlock", h.Albums.UnlockAlbum)
		}

		api.GET("/tags", h.Tags.ListTags)
		api.POST("/tags", h.Tags.CreateTag)

		trash := api.Group("/trash")
		{
			trash.GET("", h.Trash.ListTrash)
			trash.DELETE("", h.Trash.EmptyTrash)
			trash.POST("/:id/restore", h.Trash.RestoreMedia)
			trash.DELETE("/:id", h.Trash.DeleteForever)
		}

		search := api.Group("/search")
		{
			search.GET("", h.Search.Search)
			search.GET("/screenshots", h.Search.Screenshots)
			search.GET("/large", h.Search.LargeFiles)
			search.GET("/long-videos", h.Search.LongVideos)
			search.GET("/recent", h.Search.Recent)
			search.GET("/duplicates", h.Search.Duplicates)
			search.GET("/timeline", h.Search.Timeline)
		}

		settings := api.Group("/settings")
		{
			settings.GET("", h.Settings.ListSettings)
			settings.GET("/:key", h.Settings.GetSetting)
			settings.PUT("/:key", h.Settings.SetSetting)
			settings.DELETE("/:key", h.Settings.DeleteSetting)
		}

		if h.Backup != nil {
			api.POST("/backup", h.Backup.RunBackup)
			api.GET("/backup/snapshot", h.Backup.DownloadSnapshot)
		}
		if h.Events != nil {
			api.GET("/events", h.Events.Stream)
		}
	}
	return router
}
