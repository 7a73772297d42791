package loop

import (
	"errors"
	"time"

	"github.com/ghsecuritylab/488-final-project-code/internal/domain"
	"github.com/ghsecuritylab/488-final-project-code/internal/ports"
)

type fakeObs struct {
	infos    []string
	errors   []string
	counters map[string]float64
	gauges   map[string]float64
}

func newFakeObs() *fakeObs {
	return &fakeObs{counters: map[string]float64{}, gauges: map[string]float64{}}
}

func (f *fakeObs) LogInfo(msg string, _ ...ports.Field)             { f.infos = append(f.infos, msg) }
func (f *fakeObs) LogError(msg string, _ error, _ ...ports.Field)   { f.errors = append(f.errors, msg) }
func (f *fakeObs) LogCritical(msg string, _ error, _ ...ports.Field) { f.errors = append(f.errors, msg) }
func (f *fakeObs) IncCounter(name string, v float64)                { f.counters[name] += v }
func (f *fakeObs) ObserveLatency(string, float64)                   {}
func (f *fakeObs) SetGauge(name string, v float64)                  { f.gauges[name] = v }

type fakeUplink struct {
	bringUpErr error

	connected    bool
	connectErr   error
	connectCalls int

	liveErr        error
	liveSuggest    time.Duration
	backlogSuggest time.Duration

	// 1-based index of the backlog send that fails once; 0 means never
	backlogFailAt int
	backlogCalls  int

	liveSent    []domain.Snapshot
	backlogSent []domain.Snapshot
}

func (f *fakeUplink) BringUp() error    { return f.bringUpErr }
func (f *fakeUplink) IsConnected() bool { return f.connected }

func (f *fakeUplink) Connect(ssid, password string) error {
	f.connectCalls++
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connected = true
	return nil
}

func (f *fakeUplink) SendLive(m *domain.BoardModel, snap domain.Snapshot) (time.Duration, error) {
	if f.liveErr != nil {
		return 0, f.liveErr
	}
	f.liveSent = append(f.liveSent, snap)
	return f.liveSuggest, nil
}

func (f *fakeUplink) SendBacklog(m *domain.BoardModel, snap domain.Snapshot) (time.Duration, error) {
	f.backlogCalls++
	if f.backlogFailAt != 0 && f.backlogCalls == f.backlogFailAt {
		return 0, errors.New("backlog send failed")
	}
	f.backlogSent = append(f.backlogSent, snap)
	return f.backlogSuggest, nil
}

type fakeBacklog struct {
	entries   []domain.Snapshot
	appendErr error
}

func (f *fakeBacklog) Append(snap domain.Snapshot) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.entries = append(f.entries, snap)
	return nil
}

func (f *fakeBacklog) HasPending() bool { return len(f.entries) > 0 }

func (f *fakeBacklog) Oldest() (domain.Snapshot, bool, error) {
	if len(f.entries) == 0 {
		return domain.Snapshot{}, false, nil
	}
	return f.entries[0], true, nil
}

func (f *fakeBacklog) DeleteOldest() error {
	if len(f.entries) > 0 {
		f.entries = f.entries[1:]
	}
	return nil
}

func (f *fakeBacklog) Stats() ports.BacklogStats {
	return ports.BacklogStats{Pending: len(f.entries), SizeBytes: int64(len(f.entries)) * 64}
}

type fakeSource struct {
	values map[int]float64
	err    error
}

func (f *fakeSource) Read(channel int) (float64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.values[channel], nil
}

type fakeGuard struct {
	refreshes int
	stopped   bool
}

func (f *fakeGuard) Refresh() { f.refreshes++ }
func (f *fakeGuard) Stop()    { f.stopped = true }
