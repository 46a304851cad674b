package settings

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/khoahotran/pictures/internal/application/service"
	"github.com/khoahotran/pictures/internal/domain/setting"
	"github.com/khoahotran/pictures/pkg/apperror"
	"github.com/khoahotran/pictures/pkg/logger"
)

type SettingsUseCase struct {
	repo      setting.Repository
	publisher service.EventPublisher
	logger    logger.Logger
}

func NewSettingsUseCase(r setting.Repository, pub service.EventPublisher, log logger.Logger) *SettingsUseCase {
	return &SettingsUseCase{repo: r, publisher: pub, logger: log}
}

// Get returns the stored value, or def when the key was never set.
func (uc *SettingsUseCase) Get(ctx context.Context, key string, def json.RawMessage) (json.RawMessage, error) {
	s, err := uc.repo.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return def, nil
	}
	return s.Value, nil
}

func (uc *SettingsUseCase) Set(ctx context.Context, key string, value json.RawMessage) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return apperror.NewInvalidInput("setting key is required", nil)
	}
	if !json.Valid(value) {
		return apperror.NewInvalidInput("setting value must be JSON", nil)
	}
	if err := uc.repo.Set(ctx, &setting.Setting{Key: key, Value: value}); err != nil {
		return err
	}
	if uc.publisher != nil {
		evt := service.NewChangeEvent(service.SettingChanged, key, value)
		if err := uc.publisher.Publish(ctx, evt); err != nil {
			uc.logger.Error("Failed to publish change", err, zap.String("setting", key))
		}
	}
	return nil
}

func (uc *SettingsUseCase) Delete(ctx context.Context, key string) error {
	return uc.repo.Delete(ctx, key)
}

func (uc *SettingsUseCase) List(ctx context.Context) ([]*setting.Setting, error) {
	return uc.repo.List(ctx)
}
