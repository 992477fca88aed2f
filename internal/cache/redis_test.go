//go:build integration

package cache

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisCache_GetSet(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	c, err := NewRedisCache(Config{Addr: addr, DB: 15})
	if err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	key := fmt.Sprintf("%stest:getset:%d", KeyPrefix, time.Now().UnixNano())

	var got []int
	hit, err := c.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set(ctx, key, []int{1, 2, 3}, 10*time.Second))

	hit, err = c.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []int{1, 2, 3}, got)
}
