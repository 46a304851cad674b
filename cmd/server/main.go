package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/khoahotran/pictures/adapters/event"
	httpAdapter "github.com/khoahotran/pictures/adapters/http"
	"github.com/khoahotran/pictures/adapters/media_storage"
	"github.com/khoahotran/pictures/adapters/metadata"
	"github.com/khoahotran/pictures/adapters/persistence"
	"github.com/khoahotran/pictures/internal/application/service"
	albumUC "github.com/khoahotran/pictures/internal/application/usecase/album"
	backupUC "github.com/khoahotran/pictures/internal/application/usecase/backup"
	mediaUC "github.com/khoahotran/pictures/internal/application/usecase/media"
	searchUC "github.com/khoahotran/pictures/internal/application/usecase/search"
	settingsUC "github.com/khoahotran/pictures/internal/application/usecase/settings"
	tagUC "github.com/khoahotran/pictures/internal/application/usecase/tag"
	trashUC "github.com/khoahotran/pictures/internal/application/usecase/trash"
	"github.com/khoahotran/pictures/internal/config"
	"github.com/khoahotran/pictures/pkg/auth"
	"github.com/khoahotran/pictures/pkg/logger"
	"github.com/khoahotran/pictures/pkg/tracing"
)

func main() {
	fmt.Println("Start Pictures API Server...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("cannot load config: %v", err))
	}

	appLogger := logger.NewZapLogger(cfg.App.Env)
	defer appLogger.Sync()

	tp, err := tracing.NewTracerProvider(cfg, appLogger, "pictures-server")
	if err != nil {
		appLogger.Fatal("Cannot init tracer provider", err)
	}
	if tp != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				appLogger.Error("Failed to shutdown tracer provider", err)
			}
		}()
	}

	// Store
	store := persistence.NewBoltStore(cfg, appLogger)
	defer store.Close()
	if err := store.Ready(ctx); err != nil {
		appLogger.Fatal("Cannot open media store", err, zap.String("path", cfg.Store.Path))
	}
	repos := persistence.NewRepositories(store, appLogger)

	// Events
	bus := event.NewBus(appLogger)
	publishers := event.Multi{bus}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPub, err := event.NewKafkaPublisher(cfg, appLogger)
		if err != nil {
			appLogger.Fatal("Cannot init Kafka publisher", err)
		}
		defer kafkaPub.Close()
		publishers = append(publishers, kafkaPub)
	}
	if cfg.Redis.Addr != "" {
		redisClient, err := event.NewRedisClient(cfg)
		if err != nil {
			appLogger.Fatal("Cannot connect Redis", err)
		}
		redisPub := event.NewRedisPublisher(redisClient, cfg.Redis.Channel, appLogger)
		defer redisPub.Close()
		publishers = append(publishers, redisPub)
	}
	var publisher service.EventPublisher = publishers

	// Services
	jwtSvc := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenLifespan)
	uploader, err := media_storage.NewUploader(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize backup uploader", err)
	}
	extractor := metadata.NewExtractor(appLogger)

	// Use Cases
	libraryUseCase := mediaUC.NewLibraryUseCase(repos.Media, repos.Trash, publisher, appLogger)
	tagUseCase := tagUC.NewTagUseCase(repos.Tags, publisher, appLogger)
	importUseCase := mediaUC.NewImportUseCase(libraryUseCase, extractor, tagUseCase, appLogger)
	albumUseCase := albumUC.NewManagerUseCase(repos.Albums, repos.Media, repos.Trash, jwtSvc, publisher, appLogger)
	trashUseCase := trashUC.NewTrashUseCase(repos.Trash, store.Retention(), publisher, appLogger)
	searchUseCase := searchUC.NewSearchUseCase(repos.Media, appLogger)
	settingsUseCase := settingsUC.NewSettingsUseCase(repos.Settings, publisher, appLogger)

	// HTTP Handlers
	handlers := httpAdapter.Handlers{
		Media:    httpAdapter.NewMediaHandler(libraryUseCase, importUseCase, albumUseCase, appLogger),
		Albums:   httpAdapter.NewAlbumHandler(albumUseCase, libraryUseCase),
		Tags:     httpAdapter.NewTagHandler(tagUseCase),
		Trash:    httpAdapter.NewTrashHandler(trashUseCase),
		Search:   httpAdapter.NewSearchHandler(searchUseCase, albumUseCase, appLogger),
		Settings: httpAdapter.NewSettingsHandler(settingsUseCase),
		Events:   httpAdapter.NewEventsHandler(bus, appLogger),
	}
	if uploader != nil {
		handlers.Backup = httpAdapter.NewBackupHandler(backupUC.NewBackupUseCase(cfg, store, uploader, appLogger))
	} else {
		appLogger.Info("Backup provider not configured, backup endpoints disabled")
	}

	go trashUseCase.RunRetention(ctx, cfg.Trash.PurgeInterval)

	router := httpAdapter.NewRouter(handlers, appLogger)
	srv := &http.Server{
		Addr:        ":" + cfg.App.Port,
		Handler:     router,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		appLogger.Info("Server running", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("Cannot run server", err)
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", err)
	}
}
