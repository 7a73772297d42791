package ports

import (
	"time"

	"github.com/ghsecuritylab/488-final-project-code/internal/domain"
)

// Uplink is the radio-link collaborator: it carries snapshots to the remote
// database. Implementations are synchronous and may block for the duration
// of the underlying I/O.
//
// SendLive and SendBacklog return the server-suggested polling interval when
// the response carries one; zero means the server made no suggestion.
type Uplink interface {
	// BringUp initializes the link hardware/session once at startup.
	BringUp() error

	// IsConnected is a cheap, idempotent link check consulted before every
	// connect attempt.
	IsConnected() bool

	// Connect establishes the link with the board's credentials. It is only
	// invoked when IsConnected reports false.
	Connect(ssid, password string) error

	SendLive(m *domain.BoardModel, snap domain.Snapshot) (time.Duration, error)
	SendBacklog(m *domain.BoardModel, snap domain.Snapshot) (time.Duration, error)
}
