package backup

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/khoahotran/pictures/internal/application/service"
	"github.com/khoahotran/pictures/internal/config"
	"github.com/khoahotran/pictures/pkg/apperror"
	"github.com/khoahotran/pictures/pkg/logger"
)

// Snapshotter writes a consistent copy of the media store.
type Snapshotter interface {
	Snapshot(ctx context.Context, w io.Writer) (int64, error)
}

type BackupUseCase struct {
	cfg      config.Config
	store    Snapshotter
	uploader service.Uploader
	logger   logger.Logger
	now      func() time.Time
}

func NewBackupUseCase(cfg config.Config, store Snapshotter, uploader service.Uploader, log logger.Logger) *BackupUseCase {
	return &BackupUseCase{
		cfg:      cfg,
		store:    store,
		uploader: uploader,
		logger:   log,
		now:      time.Now,
	}
}

type Result struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
	Bytes    int64  `json:"bytes"`
}

// Execute snapshots the store into memory and uploads it under the backup folder.
func (uc *BackupUseCase) Execute(ctx context.Context) (*Result, error) {
	if uc.uploader == nil {
		return nil, apperror.NewInvalidInput("no backup provider is configured", nil)
	}
	uc.logger.Info("Starting library backup...")

	var out bytes.Buffer
	n, err := uc.store.Snapshot(ctx, &out)
	if err != nil {
		uc.logger.Error("Snapshot failed", err)
		return nil, err
	}

	timestamp := uc.now().UTC().Format("2006-01-02_15-04-05")
	folder := uc.cfg.Backup.Folder
	publicID := fmt.Sprintf("%s/library-%s.db", folder, timestamp)

	uploadURL, err := uc.uploader.Upload(ctx, bytes.NewReader(out.Bytes()), folder, publicID)
	if err != nil {
		uc.logger.Error("Failed to upload backup", err, zap.String("public_id", publicID))
		return nil, apperror.NewInternal("backup upload failed", err)
	}

	uc.logger.Info("Library backup completed and uploaded successfully",
		zap.String("url", uploadURL),
		zap.String("public_id", publicID),
		zap.Int64("bytes", n),
	)
	return &Result{URL: uploadURL, PublicID: publicID, Bytes: n}, nil
}

// WriteTo snapshots the store to w without uploading.
func (uc *BackupUseCase) WriteTo(ctx context.Context, w io.Writer) (int64, error) {
	return uc.store.Snapshot(ctx, w)
}
