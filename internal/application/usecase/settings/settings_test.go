package settings

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/pictures/adapters/persistence"
	"github.com/khoahotran/pictures/internal/application/service"
	"github.com/khoahotran/pictures/internal/testutil"
	"github.com/khoahotran/pictures/pkg/apperror"
	"github.com/khoahotran/pictures/pkg/logger"
)

func TestSettingsUseCase(t *testing.T) {
	ctx := context.Background()
	clock := testutil.NewClock(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC))
	repos := persistence.NewRepositories(testutil.NewStore(t, clock), logger.NewNopLogger())
	pub := new(testutil.EventPublisher)
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil)
	uc := NewSettingsUseCase(repos.Settings, pub, logger.NewNopLogger())

	got, err := uc.Get(ctx, "theme", json.RawMessage(`"light"`))
	require.NoError(t, err)
	assert.JSONEq(t, `"light"`, string(got))

	require.NoError(t, uc.Set(ctx, "theme", json.RawMessage(`"dark"`)))
	got, err = uc.Get(ctx, "theme", json.RawMessage(`"light"`))
	require.NoError(t, err)
	assert.JSONEq(t, `"dark"`, string(got))
	assert.Equal(t, []service.ChangeKind{service.SettingChanged}, pub.Kinds())

	assert.ErrorIs(t, uc.Set(ctx, "theme", json.RawMessage(`{bad`)), apperror.ErrInvalidInput)
	assert.ErrorIs(t, uc.Set(ctx, " ", json.RawMessage(`1`)), apperror.ErrInvalidInput)

	all, err := uc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, uc.Delete(ctx, "theme"))
	got, err = uc.Get(ctx, "theme", nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}
