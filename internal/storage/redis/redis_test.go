package redis

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyPrefix(t *testing.T) {
	s := &Store{Prefix: "fintrack"}
	assert.Equal(t, "fintrack:expenses", s.key("expenses"))

	bare := &Store{}
	assert.Equal(t, "expenses", bare.key("expenses"))
}

// Runs against a live server only when REDIS_ADDR is set.
func TestStoreAgainstRedis(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s := New(Config{Addr: addr, Prefix: fmt.Sprintf("fintrack-test-%d", time.Now().UnixNano())})
	defer s.Close()
	require.NoError(t, s.Ping(ctx))

	require.NoError(t, s.SetMany(ctx, map[string]string{"income": "500", "balance": "487.5"}))
	v, ok, err := s.Get(ctx, "balance")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "487.5", v)

	require.NoError(t, s.Delete(ctx, "income", "balance"))
	_, ok, err = s.Get(ctx, "income")
	require.NoError(t, err)
	assert.False(t, ok)
}
