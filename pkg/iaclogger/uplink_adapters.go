package iaclogger

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ghsecuritylab/488-final-project-code/internal/domain"
)

// ErrChannelUplinkClosed is returned when a channel uplink is written to
// after being closed.
var ErrChannelUplinkClosed = errors.New("iaclogger: channel uplink closed")

// SnapshotSender receives one snapshot per delivery. fromBacklog is true
// when the snapshot is replayed history rather than a live reading.
type SnapshotSender func(snap Snapshot, fromBacklog bool) error

// NewCallbackUplink adapts a SnapshotSender into a full Uplink implementation
// so callers can plug arbitrary functions without defining structs. The
// resulting uplink reports itself as always connected; delivery failures are
// whatever the callback returns.
func NewCallbackUplink(name string, fn SnapshotSender) Uplink {
	if name == "" {
		name = "callback"
	}
	return &callbackUplink{name: name, fn: fn}
}

// NewChannelUplink exposes delivered snapshots via a channel; it returns the
// uplink, the read-only channel, and a close function that the caller should
// invoke during shutdown. A send after close fails with
// ErrChannelUplinkClosed, which routes the snapshot into the backlog.
func NewChannelUplink(name string, buffer int) (Uplink, <-chan Snapshot, func()) {
	if name == "" {
		name = "channel"
	}
	if buffer < 0 {
		buffer = 0
	}
	ch := make(chan Snapshot, buffer)
	u := &channelUplink{
		name:   name,
		ch:     ch,
		closed: make(chan struct{}),
	}
	return u, ch, func() { u.close() }
}

type callbackUplink struct {
	name string
	fn   SnapshotSender
}

func (u *callbackUplink) BringUp() error                { return nil }
func (u *callbackUplink) IsConnected() bool             { return true }
func (u *callbackUplink) Connect(ssid, pw string) error { return nil }

func (u *callbackUplink) SendLive(m *domain.BoardModel, snap domain.Snapshot) (time.Duration, error) {
	return 0, u.send(snap, false)
}

func (u *callbackUplink) SendBacklog(m *domain.BoardModel, snap domain.Snapshot) (time.Duration, error) {
	return 0, u.send(snap, true)
}

func (u *callbackUplink) send(snap domain.Snapshot, fromBacklog bool) error {
	if u.fn == nil {
		return fmt.Errorf("callback uplink %q: nil handler", u.name)
	}
	return u.fn(snap, fromBacklog)
}

type channelUplink struct {
	name   string
	ch     chan domain.Snapshot
	closed chan struct{}
	once   sync.Once
}

func (u *channelUplink) BringUp() error { return nil }

func (u *channelUplink) IsConnected() bool {
	select {
	case <-u.closed:
		return false
	default:
		return true
	}
}

func (u *channelUplink) Connect(ssid, pw string) error {
	select {
	case <-u.closed:
		return ErrChannelUplinkClosed
	default:
		return nil
	}
}

func (u *channelUplink) SendLive(m *domain.BoardModel, snap domain.Snapshot) (time.Duration, error) {
	return 0, u.deliver(snap)
}

func (u *channelUplink) SendBacklog(m *domain.BoardModel, snap domain.Snapshot) (time.Duration, error) {
	return 0, u.deliver(snap)
}

func (u *channelUplink) deliver(snap domain.Snapshot) error {
	select {
	case <-u.closed:
		return ErrChannelUplinkClosed
	default:
	}

	select {
	case <-u.closed:
		return ErrChannelUplinkClosed
	case u.ch <- snap:
		return nil
	}
}

func (u *channelUplink) close() {
	u.once.Do(func() {
		close(u.closed)
		close(u.ch)
	})
}
