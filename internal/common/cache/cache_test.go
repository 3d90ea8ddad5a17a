package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilCacheService(t *testing.T) {
	svc := NewCacheService(nil)
	require.Nil(t, svc)
	ctx := context.Background()

	// A nil service is an always-miss cache, not a panic.
	var out bool
	assert.ErrorIs(t, svc.Get(ctx, "k", &out), ErrMiss)
	assert.NoError(t, svc.Set(ctx, "k", true, time.Second))
	assert.NoError(t, svc.Delete(ctx, "k", "k2"))
}
