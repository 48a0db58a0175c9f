package assistant

import (
	"context"
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/trezcool/unichat/core"
)

// Reclaimer periodically forces a garbage collection and returns freed memory to the OS.
type Reclaimer struct {
	interval time.Duration
	logger   core.Logger

	once sync.Once
	done chan struct{}

	// overridden in tests
	readMem func() uint64
	free    func()
}

func NewReclaimer(interval time.Duration, logger core.Logger) *Reclaimer {
	return &Reclaimer{
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
		readMem:  memoryInUse,
		free:     debug.FreeOSMemory,
	}
}

// Start runs the reclaim loop in the background until ctx is done.
// Only the first call starts a loop; it reports whether this call did.
func (r *Reclaimer) Start(ctx context.Context) bool {
	var started bool
	r.once.Do(func() {
		started = true
		go r.loop(ctx)
	})
	return started
}

// Done is closed once the loop has stopped.
func (r *Reclaimer) Done() <-chan struct{} { return r.done }

func (r *Reclaimer) loop(ctx context.Context) {
	defer close(r.done)

	r.logger.Info(fmt.Sprintf("memory reclaimer started (every %s)", r.interval))
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("memory reclaimer stopped")
			return
		case <-ticker.C:
			r.reclaim()
		}
	}
}

func (r *Reclaimer) reclaim() {
	before := r.readMem()
	r.free()
	after := r.readMem()

	var freed uint64
	if before > after {
		freed = before - after
		reclaimedBytes.Add(float64(freed))
	}
	r.logger.Info(fmt.Sprintf(
		"memory reclaimed: %s -> %s (freed %s)",
		humanize.IBytes(before), humanize.IBytes(after), humanize.IBytes(freed),
	))
}

// memoryInUse returns the memory obtained from the OS and not yet returned to it.
func memoryInUse() uint64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.Sys - m.HeapReleased
}
