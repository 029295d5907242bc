package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorTimings(t *testing.T) {
	c := NewCollector()
	c.RecordTiming(OpChat, 10*time.Millisecond)
	c.RecordTiming(OpChat, 30*time.Millisecond)

	snap := c.Snapshot()
	require.NotNil(t, snap.Chat)
	assert.Equal(t, int64(2), snap.Chat.Count)
	assert.Equal(t, int64(10), snap.Chat.MinTimeMs)
	assert.Equal(t, int64(30), snap.Chat.MaxTimeMs)
	assert.Equal(t, int64(40), snap.Chat.TotalTimeMs)
	assert.InDelta(t, 20.0, snap.Chat.AvgTimeMs, 0.001)

	// Untouched operations stay nil so they can be omitted from JSON.
	assert.Nil(t, snap.LLMFallback)
}

func TestCollectorCounters(t *testing.T) {
	c := NewCollector()
	c.RecordDegraded()
	c.RecordDegraded()
	c.RecordApology()

	snap := c.Snapshot()
	assert.Equal(t, int64(2), snap.Degraded)
	assert.Equal(t, int64(1), snap.Apologies)
	assert.GreaterOrEqual(t, snap.UptimeSeconds, 0.0)
}
