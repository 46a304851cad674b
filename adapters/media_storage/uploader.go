package media_storage

import (
	"context"
	"fmt"

	"github.com/khoahotran/pictures/internal/application/service"
	"github.com/khoahotran/pictures/internal/config"
	"github.com/khoahotran/pictures/pkg/logger"
)

// NewUploader picks the backup target from backup.provider. An empty provider means backups
// are disabled and nil is returned without error.
func NewUploader(ctx context.Context, cfg config.Config, log logger.Logger) (service.Uploader, error) {
	switch cfg.Backup.Provider {
	case "":
		return nil, nil
	case "cloudinary":
		return NewCloudinaryAdapter(cfg, log)
	case "minio":
		return NewMinioAdapter(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("unknown backup provider %q", cfg.Backup.Provider)
	}
}
