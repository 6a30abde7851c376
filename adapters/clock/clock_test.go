package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixedClock(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	c := NewFixedClock(start)
	assert.Equal(t, start, c.Now())

	c.Advance(30 * time.Second)
	assert.Equal(t, start.Add(30*time.Second), c.Now())

	c.Set(start)
	assert.Equal(t, start, c.Now())
}

func TestSystemClock(t *testing.T) {
	before := time.Now()
	now := NewSystemClock().Now()
	assert.False(t, now.Before(before))
}
