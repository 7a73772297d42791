package iaclogger

import (
	"github.com/ghsecuritylab/488-final-project-code/internal/domain"
	"github.com/ghsecuritylab/488-final-project-code/internal/ports"
)

// BoardModel is the validated result of parsing a board configuration file.
// It is exported so custom uplinks and tooling can inspect the active ports.
type BoardModel = domain.BoardModel

// PortBinding describes one active port and its scaling/range parameters.
type PortBinding = domain.PortBinding

// SensorType is one declared sensor kind from the board configuration.
type SensorType = domain.SensorType

// Snapshot is the unit of delivery: one reading per active port, stamped
// with the board id and the sampling time.
type Snapshot = domain.Snapshot

// PortReading is a single port's scaled value inside a Snapshot.
type PortReading = domain.PortReading

// Uplink transmits snapshots to the remote store, live or from backlog.
type Uplink = ports.Uplink

// Backlog persists snapshots locally while the uplink is unavailable.
type Backlog = ports.Backlog

// BacklogStats exposes backlog occupancy for observability.
type BacklogStats = ports.BacklogStats

// AnalogSource reads raw normalized values from the board's input channels.
type AnalogSource = ports.AnalogSource

// Watchdog is the dead-man timer refreshed after each productive step.
type Watchdog = ports.Watchdog

// Observability emits metrics/logs about cycles, sends, and mode changes.
type Observability = ports.Observability

// Field is a structured log field used by Observability implementations.
type Field = ports.Field

// Policy holds the loop's timing and retry knobs.
type Policy = ports.Policy
