package transport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffGrowsToMax(t *testing.T) {
	b := NewBackoff(BackoffConfig{Initial: 100 * time.Millisecond, Max: 350 * time.Millisecond, Jitter: -1})

	var got []time.Duration
	for range 4 {
		got = append(got, b.Next())
	}
	assert.Equal(t, []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		350 * time.Millisecond,
		350 * time.Millisecond,
	}, got)
}

func TestBackoffJitterBounds(t *testing.T) {
	b := NewBackoff(BackoffConfig{})
	assert.Equal(t, JitterFactor, b.jitter)

	for range 20 {
		base := b.current
		d := b.Next()
		assert.GreaterOrEqual(t, d, base)
		assert.LessOrEqual(t, d, base+time.Duration(float64(base)*JitterFactor))
	}
}

func TestBackoffDefaults(t *testing.T) {
	b := NewBackoff(BackoffConfig{Multiplier: 0.5})
	assert.Equal(t, InitialBackoff, b.current)
	assert.Equal(t, BackoffMultiplier, b.multiplier)
	assert.Equal(t, JitterFactor, b.jitter)

	b = NewBackoff(BackoffConfig{Jitter: -1})
	assert.Equal(t, 0.0, b.jitter)
}
