package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowConsumesTokens(t *testing.T) {
	l := New(2, 0.001) // negligible refill within the test window

	assert.True(t, l.Allow())
	assert.True(t, l.Allow())
	assert.False(t, l.Allow())
}

func TestRefill(t *testing.T) {
	l := New(1, 100) // fast refill for test speed

	require.True(t, l.Allow())
	assert.False(t, l.Allow())

	time.Sleep(20 * time.Millisecond)
	assert.True(t, l.Allow())
}

func TestWaitAcquiresToken(t *testing.T) {
	l := New(1, 50)
	require.True(t, l.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	start := time.Now()
	require.NoError(t, l.Wait(ctx))
	assert.Less(t, time.Since(start), time.Second)
}

func TestWaitRespectsCancellation(t *testing.T) {
	l := New(1, 0.0001) // effectively no refill
	require.True(t, l.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := l.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewPerMinuteBurst(t *testing.T) {
	l := NewPerMinute(600) // 10/sec, burst 20

	// Initial bucket holds one second worth of tokens.
	assert.InDelta(t, 10, l.Available(), 1)
}

func TestReset(t *testing.T) {
	l := New(1, 0.0001)
	require.True(t, l.Allow())
	require.False(t, l.Allow())

	l.Reset()
	assert.True(t, l.Allow())
}

func TestPerKeyLimiterIsolatesKeys(t *testing.T) {
	pkl := NewPerKeyLimiter(PerKeyLimiterConfig{MaxTokens: 1, RefillRate: 0.001})
	defer pkl.Stop()

	assert.True(t, pkl.Allow("session-a"))
	assert.False(t, pkl.Allow("session-a"))
	assert.True(t, pkl.Allow("session-b"))
}

func TestPerKeyLimiterEmptyKey(t *testing.T) {
	pkl := NewPerKeyLimiter(PerKeyLimiterConfig{MaxTokens: 1, RefillRate: 0.001})
	defer pkl.Stop()

	for range 5 {
		assert.True(t, pkl.Allow(""))
	}
	assert.Zero(t, pkl.ActiveCount())
}

func TestPerKeyLimiterOnDrop(t *testing.T) {
	pkl := NewPerKeyLimiter(PerKeyLimiterConfig{MaxTokens: 1, RefillRate: 0.001})
	defer pkl.Stop()

	dropped := 0
	pkl.OnDrop(func() { dropped++ })

	pkl.Allow("s")
	pkl.Allow("s")
	assert.Equal(t, 1, dropped)
}

func TestPerKeyLimiterForget(t *testing.T) {
	pkl := NewPerKeyLimiter(PerKeyLimiterConfig{MaxTokens: 1, RefillRate: 0.001})
	defer pkl.Stop()

	pkl.Allow("s")
	require.Equal(t, 1, pkl.ActiveCount())

	pkl.Forget("s")
	assert.Zero(t, pkl.ActiveCount())
}
