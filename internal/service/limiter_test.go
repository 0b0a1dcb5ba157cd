package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiterPerUser(t *testing.T) {
	l := NewLimiter(1, 2)
	now := time.Now()

	assert.True(t, l.allowAt(1, now))
	assert.True(t, l.allowAt(1, now))
	assert.False(t, l.allowAt(1, now), "burst exhausted")

	assert.True(t, l.allowAt(2, now), "other users have their own bucket")

	assert.True(t, l.allowAt(1, now.Add(time.Minute)), "refilled after a minute")
}

func TestLimiterDisabled(t *testing.T) {
	l := NewLimiter(0, 0)
	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow(1))
	}
}
