package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/linesearch-go/internal/domain/entities"
)

func TestInMemoryStore_AppendKeepsOrder(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, []entities.Record{{ID: "0", Content: "a"}, {ID: "1", Content: "b"}}))
	require.NoError(t, s.Append(ctx, []entities.Record{{ID: "0", Content: "c"}}))

	all, err := s.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].Content)
	assert.Equal(t, "b", all[1].Content)
	assert.Equal(t, "c", all[2].Content)
	assert.Equal(t, 3, s.Len())
}

func TestInMemoryStore_AllReturnsCopy(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Append(ctx, []entities.Record{{ID: "0", Content: "original"}}))

	all, _ := s.All(ctx)
	all[0].Content = "changed"

	again, _ := s.All(ctx)
	assert.Equal(t, "original", again[0].Content)
}

func TestInMemoryStore_Reset(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Append(ctx, []entities.Record{{ID: "0", Content: "a"}}))

	require.NoError(t, s.Reset(ctx))
	assert.Equal(t, 0, s.Len())

	all, err := s.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestInMemoryStore_CancelledContext(t *testing.T) {
	s := NewInMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, s.Append(ctx, []entities.Record{{ID: "0", Content: "a"}}))
	assert.Equal(t, 0, s.Len())
}
