// Package stability keeps the shell usable on weak machines: a memory
// guard that decides when tabs should be frozen or unloaded, and a
// watchdog that polls system RAM and reports pressure so the shell can
// put tabs to sleep before the OS starts swapping.
package stability

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// SystemRAM returns the machine's total physical memory in bytes.
func SystemRAM() (uint64, error) {
	total, _, err := systemMemory()
	return total, err
}

// MemoryGuard decides when idle tabs should be frozen and how many tabs
// the shell allows. Low-RAM mode halves the thresholds.
type MemoryGuard struct {
	freezeAfter time.Duration
	memoryLimit uint64

	mu     sync.Mutex
	lowRAM bool

	now func() int64 // unix seconds
}

// NewMemoryGuard creates a guard. freezeAfter is the idle time before a
// background tab is frozen; memoryLimit is the RAM usage (bytes) above
// which tabs get unloaded.
func NewMemoryGuard(freezeAfter time.Duration, memoryLimit uint64) *MemoryGuard {
	return &MemoryGuard{
		freezeAfter: freezeAfter,
		memoryLimit: memoryLimit,
		now:         func() int64 { return time.Now().Unix() },
	}
}

// SetLowRAMMode toggles low-RAM mode.
func (g *MemoryGuard) SetLowRAMMode(enabled bool) {
	g.mu.Lock()
	g.lowRAM = enabled
	g.mu.Unlock()
}

// LowRAMMode reports whether low-RAM mode is on.
func (g *MemoryGuard) LowRAMMode() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lowRAM
}

// FreezeThreshold returns the idle time before a tab is frozen, halved
// in low-RAM mode.
func (g *MemoryGuard) FreezeThreshold() time.Duration {
	if g.LowRAMMode() {
		return g.freezeAfter / 2
	}
	return g.freezeAfter
}

// MemoryThreshold returns the RAM usage above which tabs get unloaded,
// halved in low-RAM mode.
func (g *MemoryGuard) MemoryThreshold() uint64 {
	if g.LowRAMMode() {
		return g.memoryLimit / 2
	}
	return g.memoryLimit
}

// MaxTabs returns the tab count limit for the current mode.
func (g *MemoryGuard) MaxTabs() int {
	if g.LowRAMMode() {
		return 5
	}
	return 15
}

// ShouldFreeze reports whether a background tab idle since lastActive
// (unix seconds) has crossed the freeze threshold. The active tab is
// never frozen.
func (g *MemoryGuard) ShouldFreeze(lastActive int64, active bool) bool {
	if active {
		return false
	}
	idle := g.now() - lastActive
	return idle > int64(g.FreezeThreshold().Seconds())
}

// Watchdog polls system memory and calls OnPressure when the used
// fraction crosses the threshold.
type Watchdog struct {
	interval  time.Duration
	threshold float64
	probe     func() (total, free uint64, err error)
	logger    *slog.Logger

	// OnPressure is called with the used fraction each time it is at or
	// above the threshold. Callers hook tab sleeping here.
	OnPressure func(usedFraction float64)
}

// WatchdogOption configures a Watchdog.
type WatchdogOption func(*Watchdog)

// WithProbe overrides the system memory probe.
func WithProbe(probe func() (total, free uint64, err error)) WatchdogOption {
	return func(w *Watchdog) { w.probe = probe }
}

// WithWatchdogLogger sets the logger.
func WithWatchdogLogger(l *slog.Logger) WatchdogOption {
	return func(w *Watchdog) { w.logger = l }
}

// NewWatchdog creates a watchdog that checks every interval and fires
// OnPressure when used RAM / total RAM >= threshold.
func NewWatchdog(interval time.Duration, threshold float64, opts ...WatchdogOption) *Watchdog {
	w := &Watchdog{
		interval:  interval,
		threshold: threshold,
		probe:     systemMemory,
		logger:    slog.Default(),
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Run blocks until ctx is cancelled, checking memory at the configured
// interval.
func (w *Watchdog) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.check()
		}
	}
}

func (w *Watchdog) check() {
	total, free, err := w.probe()
	if err != nil || total == 0 {
		w.logger.Warn("memory probe failed", "error", err)
		return
	}
	used := 1 - float64(free)/float64(total)
	if used >= w.threshold {
		w.logger.Warn("memory pressure", "used_fraction", used, "threshold", w.threshold)
		if w.OnPressure != nil {
			w.OnPressure(used)
		}
	}
}
