package stability

import (
	"testing"
	"time"
)

func TestMemoryGuardThresholds(t *testing.T) {
	g := NewMemoryGuard(10*time.Minute, 2_000_000_000)

	if got := g.FreezeThreshold(); got != 10*time.Minute {
		t.Errorf("FreezeThreshold = %v", got)
	}
	if got := g.MemoryThreshold(); got != 2_000_000_000 {
		t.Errorf("MemoryThreshold = %d", got)
	}
	if got := g.MaxTabs(); got != 15 {
		t.Errorf("MaxTabs = %d", got)
	}

	g.SetLowRAMMode(true)
	if got := g.FreezeThreshold(); got != 5*time.Minute {
		t.Errorf("low-RAM FreezeThreshold = %v", got)
	}
	if got := g.MemoryThreshold(); got != 1_000_000_000 {
		t.Errorf("low-RAM MemoryThreshold = %d", got)
	}
	if got := g.MaxTabs(); got != 5 {
		t.Errorf("low-RAM MaxTabs = %d", got)
	}
}

func TestShouldFreeze(t *testing.T) {
	g := NewMemoryGuard(10*time.Minute, 2_000_000_000)
	g.now = func() int64 { return 10_000 }

	if g.ShouldFreeze(10_000-601, true) {
		t.Error("active tab must never be frozen")
	}
	if g.ShouldFreeze(10_000-300, false) {
		t.Error("tab idle below threshold frozen")
	}
	if !g.ShouldFreeze(10_000-601, false) {
		t.Error("tab idle past threshold not frozen")
	}

	// Low-RAM mode halves the idle window.
	g.SetLowRAMMode(true)
	if !g.ShouldFreeze(10_000-301, false) {
		t.Error("low-RAM mode did not tighten freeze threshold")
	}
}

func TestWatchdogFiresOnPressure(t *testing.T) {
	var fired []float64
	w := NewWatchdog(time.Second, 0.85, WithProbe(func() (uint64, uint64, error) {
		return 1000, 100, nil // 90% used
	}))
	w.OnPressure = func(used float64) { fired = append(fired, used) }

	w.check()
	if len(fired) != 1 {
		t.Fatalf("OnPressure fired %d times, want 1", len(fired))
	}
	if fired[0] < 0.89 || fired[0] > 0.91 {
		t.Errorf("used fraction = %v, want ~0.9", fired[0])
	}
}

func TestWatchdogQuietBelowThreshold(t *testing.T) {
	w := NewWatchdog(time.Second, 0.85, WithProbe(func() (uint64, uint64, error) {
		return 1000, 500, nil // 50% used
	}))
	w.OnPressure = func(float64) { t.Error("OnPressure fired below threshold") }
	w.check()
}
