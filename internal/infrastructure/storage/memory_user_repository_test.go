package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"fashion-ai/internal/domain/entity"
)

func TestMemoryUserRepository_GetCreatesOnce(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	first, err := repo.Get(ctx, 1, 10)
	require.NoError(t, err)
	second, err := repo.Get(ctx, 1, 10)
	require.NoError(t, err)

	require.Same(t, first, second)

	other, err := repo.Get(ctx, 2, 20)
	require.NoError(t, err)
	require.NotSame(t, first, other)
	require.Equal(t, int64(20), other.ChatID)
}

func TestMemoryUserRepository_UpdateState(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	user, err := repo.Get(ctx, 2, 20)
	require.NoError(t, err)

	require.NoError(t, repo.UpdateState(ctx, 2, entity.StateAwaitingPhoto))
	require.Equal(t, entity.StateAwaitingPhoto, user.State)

	// неизвестный пользователь игнорируется и не создаётся
	require.NoError(t, repo.UpdateState(ctx, 99, entity.StateProcessing))
	created, err := repo.Get(ctx, 99, 990)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, created.State)
}

func TestMemoryUserRepository_CancelledContext(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.Get(ctx, 1, 10)
	require.ErrorIs(t, err, context.Canceled)
	require.ErrorIs(t, repo.Save(ctx, entity.NewUser(1, 10)), context.Canceled)
	require.ErrorIs(t, repo.UpdateState(ctx, 1, entity.StateProcessing), context.Canceled)
}
