// Package analog provides the raw-sample sources the loop reads from: a
// deterministic simulator for development and tests, a sysfs IIO reader for
// on-board ADCs, and an OPC UA reader for networked instrumentation. All of
// them return a normalized sample in [0, 1].
package analog

import (
	"math"
	"sync"

	"github.com/ghsecuritylab/488-final-project-code/internal/ports"
)

// SimSource generates a deterministic per-channel waveform. Each read
// advances the channel's phase, so repeated reads walk the same curve on
// every run.
type SimSource struct {
	mu    sync.Mutex
	ticks map[int]int
}

func NewSimSource() *SimSource {
	return &SimSource{ticks: make(map[int]int)}
}

func (s *SimSource) Read(channel int) (float64, error) {
	s.mu.Lock()
	n := s.ticks[channel]
	s.ticks[channel] = n + 1
	s.mu.Unlock()

	// offset per channel so ports do not move in lockstep
	phase := float64(channel) * math.Pi / 4
	return (math.Sin(float64(n)/10+phase) + 1) / 2, nil
}

var _ ports.AnalogSource = (*SimSource)(nil)
