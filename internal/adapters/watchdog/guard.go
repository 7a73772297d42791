// Package watchdog implements the loop's dead-man's switch.
package watchdog

import (
	"os"
	"sync"
	"time"

	"github.com/ghsecuritylab/488-final-project-code/internal/ports"
)

// Guard restarts the whole process if the loop stops making productive
// steps. The first Refresh arms the deadline and every later one pushes it
// out; letting it expire fires the restart function exactly once. A guard
// that is never refreshed never fires, so a board with no active ports can
// idle without restart-looping. The guard deliberately does not care why
// the loop stalled.
type Guard struct {
	mu      sync.Mutex
	timer   *time.Timer
	timeout time.Duration
	restart func()
	fired   bool
	stopped bool
}

// New creates a disarmed guard with the given deadline. A nil restart exits
// the process so the supervisor brings it back from a clean state.
func New(timeout time.Duration, restart func()) *Guard {
	if restart == nil {
		restart = func() { os.Exit(2) }
	}
	return &Guard{timeout: timeout, restart: restart}
}

func (g *Guard) fire() {
	g.mu.Lock()
	if g.fired || g.stopped {
		g.mu.Unlock()
		return
	}
	g.fired = true
	g.mu.Unlock()
	g.restart()
}

// Refresh arms the deadline on first use and pushes it out by the full
// timeout afterwards. After the guard has fired there is nothing left to
// refresh.
func (g *Guard) Refresh() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fired || g.stopped {
		return
	}
	if g.timer == nil {
		g.timer = time.AfterFunc(g.timeout, g.fire)
		return
	}
	g.timer.Reset(g.timeout)
}

// Stop disarms the guard permanently.
func (g *Guard) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stopped = true
	if g.timer != nil {
		g.timer.Stop()
	}
}

var _ ports.Watchdog = (*Guard)(nil)
