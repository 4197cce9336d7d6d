package cmd

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kebairia/stackctl/internal/logger"
)

func TestNewScheduler_LongCycleDoesNotOverlapNextTick(t *testing.T) {
	scheduler := newScheduler(logger.Global(), cron.WithSeconds())

	var runs atomic.Int32
	_, err := scheduler.AddFunc("* * * * * *", func() {
		runs.Add(1)
		// outlive two schedule intervals
		time.Sleep(2200 * time.Millisecond)
	})
	require.NoError(t, err)

	scheduler.Start()
	time.Sleep(3200 * time.Millisecond)
	<-scheduler.Stop().Done()

	// Without the skip chain every one-second tick over the window fires,
	// giving three or more runs. With it, ticks during a sleeping cycle
	// are dropped.
	got := runs.Load()
	assert.GreaterOrEqual(t, got, int32(1))
	assert.LessOrEqual(t, got, int32(2))
}
