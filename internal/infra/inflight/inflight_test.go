package inflight

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/valkey-io/valkey-go/mock"
	"go.uber.org/mock/gomock"
)

func TestMemoryGuardRejectsWhilePending(t *testing.T) {
	g := NewMemoryGuard(time.Minute)
	ctx := context.Background()

	release, ok, err := g.Acquire(ctx, "session-a")
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = g.Acquire(ctx, "session-a")
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, _ = g.Acquire(ctx, "session-b")
	require.True(t, ok)

	release()
	release()
	_, ok, _ = g.Acquire(ctx, "session-a")
	require.True(t, ok)
}

func TestMemoryGuardExpiredClaimIsReplaced(t *testing.T) {
	g := NewMemoryGuard(time.Second)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return now }

	staleRelease, ok, _ := g.Acquire(context.Background(), "s")
	require.True(t, ok)

	now = now.Add(2 * time.Second)
	_, ok, _ = g.Acquire(context.Background(), "s")
	require.True(t, ok)

	// Releasing the expired claim must not drop the newer one.
	staleRelease()
	_, ok, _ = g.Acquire(context.Background(), "s")
	require.False(t, ok)
}

func TestValkeyGuardAcquire(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mock.NewClient(ctrl)
	g := NewValkeyGuard(client, "tg", 1500*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))

	client.EXPECT().
		Do(gomock.Any(), gomock.Any()).
		Return(mock.Result(mock.ValkeyString("OK")))

	release, ok, err := g.Acquire(context.Background(), "abc")
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, release)
}

func TestValkeyGuardBusy(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mock.NewClient(ctrl)
	g := NewValkeyGuard(client, "", time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))

	client.EXPECT().
		Do(gomock.Any(), gomock.Any()).
		Return(mock.Result(mock.ValkeyNil()))

	release, ok, err := g.Acquire(context.Background(), "abc")
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, release)
}

func TestValkeyGuardError(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mock.NewClient(ctrl)
	g := NewValkeyGuard(client, "", time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))

	client.EXPECT().
		Do(gomock.Any(), gomock.Any()).
		Return(mock.ErrorResult(errors.New("connection reset")))

	_, ok, err := g.Acquire(context.Background(), "abc")
	require.Error(t, err)
	require.False(t, ok)
}
