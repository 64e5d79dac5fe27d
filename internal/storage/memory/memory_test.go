package memory

import (
	"context"
	"sync"
	"testing"

	"fintrack/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreBasics(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.SetMany(ctx, map[string]string{"a": "1", "b": "2"}))
	require.NoError(t, s.Set(ctx, "a", "3"))

	v, ok, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "3", v)

	require.NoError(t, s.Delete(ctx, "a", "zzz"))
	_, ok, _ = s.Get(ctx, "a")
	assert.False(t, ok)
	assert.Equal(t, 1, s.Len())
}

func TestStoreSeedIsCopied(t *testing.T) {
	seed := map[string]string{"income": "10"}
	s := NewWithData(seed)
	seed["income"] = "99"

	v, _, _ := s.Get(context.Background(), "income")
	assert.Equal(t, "10", v)
}

func TestStoreClosed(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Close())

	_, _, err := s.Get(ctx, "a")
	assert.ErrorIs(t, err, storage.ErrClosed)
	assert.ErrorIs(t, s.Set(ctx, "a", "b"), storage.ErrClosed)
	assert.ErrorIs(t, s.Ping(ctx), storage.ErrClosed)
}

func TestStoreConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.Set(ctx, "k", "v")
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, s.Len())
}
