package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fixedNow(l *Limiter, t *time.Time) {
	l.now = func() time.Time { return *t }
}

func TestLimiterAllowPerKey(t *testing.T) {
	t.Parallel()

	now := time.Unix(1700000000, 0)
	l := New(Config{RPS: 1, Burst: 2})
	fixedNow(l, &now)

	require.True(t, l.Allow("alice"))
	require.True(t, l.Allow("alice"))
	require.False(t, l.Allow("alice"), "burst exhausted")
	require.True(t, l.Allow("bob"), "buckets are per key")

	now = now.Add(time.Second)
	require.True(t, l.Allow("alice"), "one token refilled")
	require.False(t, l.Allow("alice"))
}

func TestLimiterDisabled(t *testing.T) {
	t.Parallel()

	l := New(Config{})
	require.False(t, l.Enabled())
	for i := 0; i < 100; i++ {
		require.True(t, l.Allow("k"))
	}
	require.Zero(t, l.Len())

	var nilLimiter *Limiter
	require.True(t, nilLimiter.Allow("k"))
}

func TestLimiterSweepDropsIdleBuckets(t *testing.T) {
	t.Parallel()

	now := time.Unix(1700000000, 0)
	l := New(Config{RPS: 5, Burst: 1, IdleTTL: time.Minute})
	fixedNow(l, &now)

	l.Allow("old")
	now = now.Add(50 * time.Second)
	l.Allow("fresh")
	now = now.Add(20 * time.Second)

	require.Equal(t, 1, l.Sweep())
	require.Equal(t, 1, l.Len())
}
