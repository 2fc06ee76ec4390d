package stream

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHeartbeat_FiresOnlyAfterFullPeriod(t *testing.T) {
	now := time.Unix(1000, 0)
	h := newHeartbeat(30 * time.Second)
	h.now = func() time.Time { return now }
	h.last = now

	assert.False(t, h.due())

	now = now.Add(29 * time.Second)
	assert.False(t, h.due())

	now = now.Add(time.Second)
	assert.True(t, h.due(), "a full period has elapsed")
}

func TestHeartbeat_ResetsAfterFiring(t *testing.T) {
	now := time.Unix(1000, 0)
	h := newHeartbeat(30 * time.Second)
	h.now = func() time.Time { return now }
	h.last = now

	now = now.Add(45 * time.Second)
	assert.True(t, h.due())
	assert.False(t, h.due(), "firing resets the elapsed counter")

	now = now.Add(29 * time.Second)
	assert.False(t, h.due())

	now = now.Add(time.Second)
	assert.True(t, h.due())
}

func TestHeartbeat_NeverMoreThanOncePerPeriod(t *testing.T) {
	now := time.Unix(1000, 0)
	h := newHeartbeat(10 * time.Second)
	h.now = func() time.Time { return now }
	h.last = now

	fired := 0
	for i := 0; i < 100; i++ {
		now = now.Add(time.Second)
		if h.due() {
			fired++
		}
	}
	assert.Equal(t, 10, fired)
}
