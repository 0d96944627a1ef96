package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryCache_SetGet(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	defer c.Close()
	ctx := context.Background()

	_, ok := c.Get(ctx, "rates:USD")
	assert.False(t, ok, "empty cache should miss")

	c.Set(ctx, "rates:USD", []byte(`{"EUR":"0.92"}`), time.Minute)

	data, ok := c.Get(ctx, "rates:USD")
	assert.True(t, ok)
	assert.Equal(t, []byte(`{"EUR":"0.92"}`), data)
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "quote:AAPL", []byte(`{"price":"153.00"}`), 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	_, ok := c.Get(ctx, "quote:AAPL")
	assert.False(t, ok, "expired entry should miss")
}

func TestMemoryCache_Overwrite(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "k", []byte("old"), time.Minute)
	c.Set(ctx, "k", []byte("new"), time.Minute)

	data, ok := c.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, []byte("new"), data)
}

func TestMemoryCache_ConcurrentAccess(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	defer c.Close()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.Set(ctx, "shared", []byte("value"), time.Minute)
		}()
		go func() {
			defer wg.Done()
			c.Get(ctx, "shared")
		}()
	}
	wg.Wait()

	data, ok := c.Get(ctx, "shared")
	assert.True(t, ok)
	assert.Equal(t, []byte("value"), data)
}
