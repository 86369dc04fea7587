package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := NewFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

type summary struct {
	Calls int64 `json:"calls"`
}

func TestGetOrLoadJSONCachesValue(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	loads := 0
	load := func(context.Context) (*summary, error) {
		loads++
		return &summary{Calls: 7}, nil
	}

	got, err := GetOrLoadJSON(c, ctx, "report:a1", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.Calls)

	got, err = GetOrLoadJSON(c, ctx, "report:a1", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.Calls)
	assert.Equal(t, 1, loads)
	assert.True(t, mr.Exists("crm:report:a1"))
}

func TestGetOrLoadExpires(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	loads := 0
	load := func(context.Context) ([]byte, error) {
		loads++
		return []byte("x"), nil
	}

	_, err := c.GetOrLoad(ctx, "k", time.Second, load)
	require.NoError(t, err)
	mr.FastForward(2 * time.Second)
	_, err = c.GetOrLoad(ctx, "k", time.Second, load)
	require.NoError(t, err)
	assert.Equal(t, 2, loads)
}

func TestGetOrLoadDoesNotCacheErrors(t *testing.T) {
	c, mr := newTestCache(t)
	boom := errors.New("db down")

	_, err := c.GetOrLoad(context.Background(), "k", time.Minute, func(context.Context) ([]byte, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("crm:k"))
}

func TestDelete(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set("crm:k", "v"))

	require.NoError(t, c.Delete(context.Background(), "k"))
	assert.False(t, mr.Exists("crm:k"))
}
