package conversation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestManagerLifecycle(t *testing.T) {
	manager := NewManager(chunksProvider("ok"))
	ctx := context.Background()

	session, err := manager.Create(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, session.ID())

	got, err := manager.Get(ctx, session.ID())
	require.NoError(t, err)
	require.Same(t, session, got)
	require.Len(t, manager.List(ctx), 1)

	require.NoError(t, manager.End(ctx, session.ID()))
	_, err = manager.Get(ctx, session.ID())
	require.ErrorIs(t, err, ErrSessionNotFound)
	require.ErrorIs(t, manager.End(ctx, session.ID()), ErrSessionNotFound)
	require.Empty(t, manager.List(ctx))
}

func TestManagerSessionsAreIndependent(t *testing.T) {
	manager := NewManager(chunksProvider("ok"))
	ctx := context.Background()

	a, _ := manager.Create(ctx)
	b, _ := manager.Create(ctx)

	_, err := a.Submit(ctx, "hello", nil)
	require.NoError(t, err)

	require.Len(t, a.Messages(), 3)
	require.Len(t, b.Messages(), 1)
}
