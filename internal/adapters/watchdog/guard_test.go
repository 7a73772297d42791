package watchdog

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestGuardFiresExactlyOnce(t *testing.T) {
	var fired atomic.Int32
	g := New(10*time.Millisecond, func() { fired.Add(1) })
	defer g.Stop()

	g.Refresh()
	time.Sleep(60 * time.Millisecond)
	if got := fired.Load(); got != 1 {
		t.Fatalf("expected exactly one fire, got %d", got)
	}

	// refreshing after the fire must not re-arm
	g.Refresh()
	time.Sleep(30 * time.Millisecond)
	if got := fired.Load(); got != 1 {
		t.Fatalf("guard re-armed after firing, fires=%d", got)
	}
}

func TestRefreshKeepsGuardQuiet(t *testing.T) {
	var fired atomic.Int32
	g := New(50*time.Millisecond, func() { fired.Add(1) })
	defer g.Stop()

	for i := 0; i < 10; i++ {
		g.Refresh()
		time.Sleep(10 * time.Millisecond)
	}
	if got := fired.Load(); got != 0 {
		t.Fatalf("guard fired despite steady refreshes: %d", got)
	}
}

func TestUnrefreshedGuardStaysDisarmed(t *testing.T) {
	var fired atomic.Int32
	g := New(10*time.Millisecond, func() { fired.Add(1) })
	defer g.Stop()

	// a logger with no active ports never refreshes; it must idle, not
	// restart-loop
	time.Sleep(50 * time.Millisecond)
	if got := fired.Load(); got != 0 {
		t.Fatalf("disarmed guard fired %d times", got)
	}
}

func TestStopDisarms(t *testing.T) {
	var fired atomic.Int32
	g := New(10*time.Millisecond, func() { fired.Add(1) })
	g.Refresh()
	g.Stop()

	time.Sleep(40 * time.Millisecond)
	if got := fired.Load(); got != 0 {
		t.Fatalf("stopped guard fired %d times", got)
	}
}
