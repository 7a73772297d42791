package ports

import "github.com/ghsecuritylab/488-final-project-code/internal/domain"

// Backlog is the durable, ordered queue of snapshots that could not be
// delivered live. Entries are consumed strictly oldest-first and removed
// only after confirmed delivery, so a crash between send and delete can at
// most cause a duplicate delivery, never a loss or reorder.
type Backlog interface {
	// Append persists one snapshot at the tail. The write must be atomic
	// with respect to power loss.
	Append(snap domain.Snapshot) error

	// HasPending reports whether any undelivered entry remains.
	HasPending() bool

	// Oldest returns the head entry without removing it. ok is false when
	// the backlog is empty.
	Oldest() (snap domain.Snapshot, ok bool, err error)

	// DeleteOldest removes the head entry after its delivery was confirmed.
	DeleteOldest() error

	Stats() BacklogStats
}

// BacklogStats exposes backlog metadata for observability.
type BacklogStats struct {
	Pending   int
	SizeBytes int64
}
