package pieceset

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBasicMetricsCollector(t *testing.T) {
	m := &BasicMetricsCollector{}
	boom := errors.New("boom")

	m.RecordSave(100, 2*time.Millisecond, nil)
	m.RecordSave(0, 4*time.Millisecond, boom)
	m.RecordLoad(100, time.Millisecond, nil)
	m.RecordDelete(time.Millisecond, nil)
	m.RecordPeerUpdate(nil)
	m.RecordPeerUpdate(boom)

	stats := m.GetStats()
	assert.Equal(t, int64(2), stats.SaveCount)
	assert.Equal(t, int64(1), stats.SaveErrors)
	assert.Equal(t, int64(100), stats.SaveBytes)
	assert.Equal(t, (3 * time.Millisecond).Nanoseconds(), stats.SaveAvgNanos)
	assert.Equal(t, int64(1), stats.LoadCount)
	assert.Equal(t, int64(100), stats.LoadBytes)
	assert.Equal(t, int64(1), stats.DeleteCount)
	assert.Zero(t, stats.DeleteErrors)
	assert.Equal(t, int64(2), stats.PeerUpdates)
	assert.Equal(t, int64(1), stats.PeerUpdateErrors)
}

func TestBasicMetricsCollector_Empty(t *testing.T) {
	stats := (&BasicMetricsCollector{}).GetStats()
	assert.Zero(t, stats.SaveAvgNanos)
	assert.Zero(t, stats.LoadAvgNanos)
}

func TestNoopMetricsCollector(t *testing.T) {
	var mc MetricsCollector = NoopMetricsCollector{}
	mc.RecordSave(1, time.Second, nil)
	mc.RecordPeerUpdate(errors.New("ignored"))
}
