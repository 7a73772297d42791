package uplink

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/ghsecuritylab/488-final-project-code/internal/domain"
	"github.com/ghsecuritylab/488-final-project-code/internal/ports"
)

// HTTPUplink delivers snapshots to the remote database's HTTP ingest
// endpoint at http://<remote ip>:<remote port><remote dir>. The response
// body may carry a server-suggested polling interval in seconds; an empty or
// non-numeric body means no suggestion.
type HTTPUplink struct {
	client *resty.Client
	model  *domain.BoardModel
}

type payload struct {
	Table    string          `json:"table"`
	Backlog  bool            `json:"backlog,omitempty"`
	Snapshot domain.Snapshot `json:"snapshot"`
}

func NewHTTPUplink(m *domain.BoardModel, timeout time.Duration) *HTTPUplink {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	c := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("User-Agent", "iac-logger")
	if strings.TrimSpace(m.HostName) != "" {
		// the remote end virtual-hosts on the configured hostname while we
		// dial its IP directly
		c.SetHeader("Host", m.HostName)
	}
	return &HTTPUplink{client: c, model: m}
}

func (u *HTTPUplink) baseURL() string {
	return fmt.Sprintf("http://%s:%d", u.model.RemoteIP, u.model.RemotePort)
}

func (u *HTTPUplink) BringUp() error {
	if strings.TrimSpace(u.model.RemoteIP) == "" || u.model.RemotePort == 0 {
		return fmt.Errorf("http uplink: no remote endpoint configured")
	}
	return nil
}

// IsConnected probes the remote host. Any HTTP response counts as link-up;
// only a transport failure means down.
func (u *HTTPUplink) IsConnected() bool {
	_, err := u.client.R().Head(u.baseURL() + "/")
	return err == nil
}

// Connect re-probes the link. Network association itself is the host OS's
// job on this platform, so credentials are accepted for interface parity but
// not transmitted.
func (u *HTTPUplink) Connect(ssid, password string) error {
	_ = ssid
	_ = password
	if u.IsConnected() {
		return nil
	}
	return fmt.Errorf("http uplink: %s:%d unreachable", u.model.RemoteIP, u.model.RemotePort)
}

func (u *HTTPUplink) SendLive(m *domain.BoardModel, snap domain.Snapshot) (time.Duration, error) {
	return u.send(m, snap, false)
}

func (u *HTTPUplink) SendBacklog(m *domain.BoardModel, snap domain.Snapshot) (time.Duration, error) {
	return u.send(m, snap, true)
}

func (u *HTTPUplink) send(m *domain.BoardModel, snap domain.Snapshot, backlog bool) (time.Duration, error) {
	resp, err := u.client.R().
		SetBody(payload{Table: m.TableName, Backlog: backlog, Snapshot: snap}).
		Post(u.baseURL() + m.RemoteDir)
	if err != nil {
		return 0, fmt.Errorf("http uplink send: %w", err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("http uplink send: remote returned %s", resp.Status())
	}
	return suggestedInterval(resp.String()), nil
}

// suggestedInterval interprets the response body as a polling interval in
// seconds. Non-positive and non-numeric bodies yield zero.
func suggestedInterval(body string) time.Duration {
	secs, err := strconv.ParseFloat(strings.TrimSpace(body), 64)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}

var _ ports.Uplink = (*HTTPUplink)(nil)
