package assistant

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	testutil "github.com/trezcool/unichat/tests"
)

func TestReclaimer(t *testing.T) {
	logger := testutil.NewLogger()
	r := NewReclaimer(5*time.Millisecond, logger)

	var frees int32
	var samples int32
	r.free = func() { atomic.AddInt32(&frees, 1) }
	r.readMem = func() uint64 {
		if atomic.AddInt32(&samples, 1)%2 == 1 {
			return 3 << 20 // before
		}
		return 1 << 20 // after
	}

	ctx, cancel := context.WithCancel(context.Background())
	assert.True(t, r.Start(ctx))
	assert.False(t, r.Start(ctx), "second start is a no-op")

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&frees) >= 2 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-r.Done():
	case <-time.After(time.Second):
		t.Fatal("reclaimer did not stop")
	}
	assert.True(t, logger.Contains("info", "memory reclaimed: 3.0 MiB -> 1.0 MiB (freed 2.0 MiB)"))
	assert.True(t, logger.Contains("info", "memory reclaimer stopped"))
}

func TestReclaimer_grown(t *testing.T) {
	logger := testutil.NewLogger()
	r := NewReclaimer(time.Hour, logger)
	var samples int
	r.free = func() {}
	r.readMem = func() uint64 {
		samples++
		return uint64(samples) << 10
	}

	r.reclaim()
	assert.True(t, logger.Contains("info", "(freed 0 B)"))
}
