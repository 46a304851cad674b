package tag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/khoahotran/pictures/internal/application/service"
	"github.com/khoahotran/pictures/internal/domain/tag"
	"github.com/khoahotran/pictures/pkg/apperror"
	"github.com/khoahotran/pictures/pkg/logger"
)

type TagUseCase struct {
	repo      tag.Repository
	publisher service.EventPublisher
	logger    logger.Logger
}

func NewTagUseCase(r tag.Repository, pub service.EventPublisher, log logger.Logger) *TagUseCase {
	return &TagUseCase{repo: r, publisher: pub, logger: log}
}

func (uc *TagUseCase) CreateTag(ctx context.Context, name, color string) (*tag.Tag, error) {
	t := &tag.Tag{Name: name, Color: color}
	if err := t.Validate(); err != nil {
		return nil, apperror.NewInvalidInput("tag validation failed", err)
	}
	if err := uc.repo.Save(ctx, t); err != nil {
		return nil, err
	}
	if uc.publisher != nil {
		if err := uc.publisher.Publish(ctx, service.NewChangeEvent(service.TagCreated, fmt.Sprint(t.ID), t)); err != nil {
			uc.logger.Error("Failed to publish change", err, zap.String("tag", t.Name))
		}
	}
	return t, nil
}

func (uc *TagUseCase) ListTags(ctx context.Context) ([]*tag.Tag, error) {
	return uc.repo.List(ctx)
}

// Ensure creates any of names that are not tags yet, with the default color.
func (uc *TagUseCase) Ensure(ctx context.Context, names []string) error {
	var errs []error
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		_, err := uc.CreateTag(ctx, name, "")
		if err != nil && !errors.Is(err, apperror.ErrConflict) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
