package uplink

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/ghsecuritylab/488-final-project-code/internal/domain"
	"github.com/ghsecuritylab/488-final-project-code/internal/ports"
)

// PGUplink writes snapshots straight into the remote Postgres/Timescale
// database. Used on boards with a wired NIC where the "radio link" is just a
// database connection. The insert is idempotent on (board_id, port, taken_at)
// so a duplicate backlog delivery after a crash between send and delete is
// harmless.
type PGUplink struct {
	db *sql.DB
}

func NewPGUplink(db *sql.DB) *PGUplink {
	return &PGUplink{db: db}
}

func (u *PGUplink) BringUp() error {
	if err := u.db.Ping(); err != nil {
		return fmt.Errorf("pg uplink: %w", err)
	}
	return nil
}

func (u *PGUplink) IsConnected() bool {
	return u.db.Ping() == nil
}

// Connect verifies the database session; credentials ride in the DSN, the
// board's WiFi credentials are not used on a wired uplink.
func (u *PGUplink) Connect(ssid, password string) error {
	_ = ssid
	_ = password
	if err := u.db.Ping(); err != nil {
		return fmt.Errorf("pg uplink connect: %w", err)
	}
	return nil
}

func (u *PGUplink) SendLive(m *domain.BoardModel, snap domain.Snapshot) (time.Duration, error) {
	return 0, u.insert(m, snap)
}

func (u *PGUplink) SendBacklog(m *domain.BoardModel, snap domain.Snapshot) (time.Duration, error) {
	return 0, u.insert(m, snap)
}

func (u *PGUplink) insert(m *domain.BoardModel, snap domain.Snapshot) error {
	if len(snap.Readings) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(m.TableName)
	b.WriteString(" (board_id, port, description, reading, taken_at) VALUES ")

	args := make([]any, 0, len(snap.Readings)*5)
	for i, r := range snap.Readings {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(fmt.Sprintf("($%d,$%d,$%d,$%d,$%d)",
			len(args)+1, len(args)+2, len(args)+3, len(args)+4, len(args)+5))
		args = append(args, snap.BoardID, r.Name, r.Description, r.Value, snap.TakenAt)
	}

	b.WriteString(" ON CONFLICT (board_id, port, taken_at) DO NOTHING")

	if _, err := u.db.Exec(b.String(), args...); err != nil {
		return fmt.Errorf("pg uplink insert: %w", err)
	}
	return nil
}

var _ ports.Uplink = (*PGUplink)(nil)
