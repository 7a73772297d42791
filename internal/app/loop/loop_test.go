package loop

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/ghsecuritylab/488-final-project-code/internal/boardcfg"
	"github.com/ghsecuritylab/488-final-project-code/internal/domain"
	"github.com/ghsecuritylab/488-final-project-code/internal/ports"
)

func testPolicy() ports.Policy {
	return ports.Policy{PollInterval: 50 * time.Millisecond, RetryBudget: 3, WatchdogMultiple: 5}
}

func newTestLoop(m *domain.BoardModel, src ports.AnalogSource, up *fakeUplink, bl *fakeBacklog, mode Mode) (*Loop, *fakeObs, *fakeGuard) {
	obs := newFakeObs()
	guard := &fakeGuard{}
	ctl := NewModeController(up, obs, 3)
	ctl.mode = mode
	return New(m, src, up, bl, ctl, guard, obs, testPolicy()), obs, guard
}

func tempModel(t *testing.T) *domain.BoardModel {
	t.Helper()
	m := boardcfg.Parse("SensorID:Temp,C,1.0,0.0,100.0\nPort A: 0\n", nil)
	m.ID = "IAC-7"
	if len(m.Ports) != 1 {
		t.Fatalf("fixture model wrong: %+v", m)
	}
	return m
}

func TestCycleScalesAndSendsLive(t *testing.T) {
	m := tempModel(t)
	up := &fakeUplink{connected: true}
	bl := &fakeBacklog{}
	l, obs, guard := newTestLoop(m, &fakeSource{values: map[int]float64{0: 0.5}}, up, bl, ModeOnline)

	l.runCycle(context.Background())

	if len(up.liveSent) != 1 {
		t.Fatalf("expected one live send, got %d", len(up.liveSent))
	}
	got := up.liveSent[0]
	if got.BoardID != "IAC-7" || len(got.Readings) != 1 {
		t.Fatalf("snapshot malformed: %+v", got)
	}
	if got.Readings[0].Value != 0.5 {
		t.Fatalf("raw 0.5 at multiplier 1.0 must give 0.5, got %f", got.Readings[0].Value)
	}
	if got.Readings[0].Description != "Temp in C" {
		t.Fatalf("derived description lost: %q", got.Readings[0].Description)
	}
	if len(bl.entries) != 0 {
		t.Fatal("nothing should be persisted on a healthy cycle")
	}
	if guard.refreshes != 1 {
		t.Fatalf("watchdog must be refreshed once per sampled port, got %d", guard.refreshes)
	}
	if obs.counters["iac_samples_sent_total"] != 1 {
		t.Fatalf("sent counter wrong: %f", obs.counters["iac_samples_sent_total"])
	}
}

func TestOutOfRangeSamplesBecomeSentinels(t *testing.T) {
	m := tempModel(t)
	up := &fakeUplink{connected: true}

	l, obs, _ := newTestLoop(m, &fakeSource{values: map[int]float64{0: 150}}, up, &fakeBacklog{}, ModeOnline)
	l.runCycle(context.Background())
	if v := up.liveSent[0].Readings[0].Value; !math.IsInf(v, 1) {
		t.Fatalf("scaled 150 above ceiling 100 must be +Inf, got %f", v)
	}

	l2, _, _ := newTestLoop(m, &fakeSource{values: map[int]float64{0: -5}}, up, &fakeBacklog{}, ModeOnline)
	l2.runCycle(context.Background())
	if v := up.liveSent[1].Readings[0].Value; !math.IsInf(v, -1) {
		t.Fatalf("scaled -5 below floor 0 must be -Inf, got %f", v)
	}

	if obs.counters["iac_range_violations_total"] != 1 {
		t.Fatalf("first loop must count one violation, got %f", obs.counters["iac_range_violations_total"])
	}
}

func TestOfflineCyclePersistsUnconditionally(t *testing.T) {
	m := tempModel(t)
	up := &fakeUplink{connected: true} // link health is irrelevant offline
	bl := &fakeBacklog{}
	l, obs, _ := newTestLoop(m, &fakeSource{values: map[int]float64{0: 0.5}}, up, bl, ModeOffline)

	l.runCycle(context.Background())

	if len(up.liveSent) != 0 || up.backlogCalls != 0 {
		t.Fatal("offline mode must not touch the uplink")
	}
	if len(bl.entries) != 1 {
		t.Fatalf("expected snapshot persisted, backlog has %d", len(bl.entries))
	}
	if obs.counters["iac_backlog_persists_total"] != 1 {
		t.Fatalf("persist counter wrong: %f", obs.counters["iac_backlog_persists_total"])
	}
}

func TestLiveSendFailurePersistsSnapshot(t *testing.T) {
	m := tempModel(t)
	up := &fakeUplink{connected: true, liveErr: errors.New("timeout")}
	bl := &fakeBacklog{}
	l, _, _ := newTestLoop(m, &fakeSource{values: map[int]float64{0: 0.5}}, up, bl, ModeOnline)

	l.runCycle(context.Background())

	if len(bl.entries) != 1 {
		t.Fatal("failed live send must fall back to the backlog, never drop")
	}
}

func TestDisconnectedCyclePersists(t *testing.T) {
	m := tempModel(t)
	up := &fakeUplink{connected: false, connectErr: errors.New("no ap")}
	bl := &fakeBacklog{}
	l, _, _ := newTestLoop(m, &fakeSource{values: map[int]float64{0: 0.5}}, up, bl, ModeOnline)

	l.runCycle(context.Background())

	if len(up.liveSent) != 0 {
		t.Fatal("must not send while disconnected")
	}
	if len(bl.entries) != 1 {
		t.Fatal("disconnected cycle must persist the snapshot")
	}
}

func TestBacklogDrainsOldestFirstAndStopsOnFailure(t *testing.T) {
	m := tempModel(t)
	e := func(v float64) domain.Snapshot {
		return domain.Snapshot{BoardID: "IAC-7", Readings: []domain.PortReading{{Name: "PortA", Value: v}}}
	}
	bl := &fakeBacklog{entries: []domain.Snapshot{e(1), e(2), e(3)}}
	up := &fakeUplink{connected: true, backlogFailAt: 2}
	l, _, _ := newTestLoop(m, &fakeSource{values: map[int]float64{0: 0.9}}, up, bl, ModeOnline)

	// cycle 1: entry 1 delivered, entry 2 fails, drain stops, live snapshot
	// is persisted behind the remaining history
	l.runCycle(context.Background())

	if len(up.backlogSent) != 1 || up.backlogSent[0].Readings[0].Value != 1 {
		t.Fatalf("expected only entry 1 delivered, got %+v", up.backlogSent)
	}
	if len(up.liveSent) != 0 {
		t.Fatal("live data must never jump ahead of pending history")
	}
	if len(bl.entries) != 3 { // e2, e3, live snapshot
		t.Fatalf("expected failed head retained plus live appended, got %d", len(bl.entries))
	}
	if bl.entries[0].Readings[0].Value != 2 {
		t.Fatal("failed entry must stay at the head for the next cycle")
	}

	// cycle 2: the link behaves, everything drains in order and the new
	// live snapshot goes out
	l.runCycle(context.Background())

	if len(bl.entries) != 0 {
		t.Fatalf("expected full drain, %d entries left", len(bl.entries))
	}
	vals := make([]float64, 0, len(up.backlogSent))
	for _, s := range up.backlogSent[1:] {
		vals = append(vals, s.Readings[0].Value)
	}
	if len(vals) != 3 || vals[0] != 2 || vals[1] != 3 {
		t.Fatalf("drain order wrong: %v", vals)
	}
	if len(up.liveSent) != 1 {
		t.Fatalf("expected the cycle-2 snapshot sent live, got %d", len(up.liveSent))
	}
}

func TestServerSuggestedIntervalAdopted(t *testing.T) {
	m := tempModel(t)
	up := &fakeUplink{connected: true, liveSuggest: 200 * time.Millisecond}
	l, _, _ := newTestLoop(m, &fakeSource{values: map[int]float64{0: 0.5}}, up, &fakeBacklog{}, ModeOnline)

	if l.Interval() != 50*time.Millisecond {
		t.Fatalf("unexpected starting interval %s", l.Interval())
	}
	l.runCycle(context.Background())
	if l.Interval() != 200*time.Millisecond {
		t.Fatalf("suggested interval not adopted: %s", l.Interval())
	}

	// non-positive suggestions leave the interval alone
	up.liveSuggest = 0
	l.runCycle(context.Background())
	if l.Interval() != 200*time.Millisecond {
		t.Fatalf("zero suggestion must not reset the interval: %s", l.Interval())
	}
}

func TestReadFailureKeepsPreviousValue(t *testing.T) {
	m := tempModel(t)
	src := &fakeSource{values: map[int]float64{0: 0.5}}
	up := &fakeUplink{connected: true}
	l, _, guard := newTestLoop(m, src, up, &fakeBacklog{}, ModeOnline)

	l.runCycle(context.Background())
	src.err = errors.New("adc busy")
	l.runCycle(context.Background())

	if len(up.liveSent) != 2 {
		t.Fatalf("expected two live sends, got %d", len(up.liveSent))
	}
	if v := up.liveSent[1].Readings[0].Value; v != 0.5 {
		t.Fatalf("failed read must keep the previous value, got %f", v)
	}
	if guard.refreshes != 1 {
		t.Fatalf("a failed read is not a productive step, refreshes=%d", guard.refreshes)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	m := tempModel(t)
	up := &fakeUplink{connected: true}
	l, _, _ := newTestLoop(m, &fakeSource{values: map[int]float64{0: 0.5}}, up, &fakeBacklog{}, ModeOnline)

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()

	err := l.Run(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if len(up.liveSent) == 0 {
		t.Fatal("expected at least one completed cycle before cancellation")
	}
}
