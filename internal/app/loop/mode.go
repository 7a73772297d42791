package loop

import (
	"github.com/ghsecuritylab/488-final-project-code/internal/domain"
	"github.com/ghsecuritylab/488-final-project-code/internal/ports"
)

type Mode int

const (
	ModeOffline Mode = iota
	ModeOnline
)

func (m Mode) String() string {
	if m == ModeOnline {
		return "online"
	}
	return "offline"
}

// ModeController owns the online/offline state machine and the connect-retry
// budget. Once the budget is exhausted, offline is sticky for the remainder
// of execution; the only recovery is a process restart through the startup
// validation path.
type ModeController struct {
	uplink ports.Uplink
	obs    ports.Observability

	ssid     string
	password string

	budget    int
	remaining int
	mode      Mode
}

func NewModeController(uplink ports.Uplink, obs ports.Observability, retryBudget int) *ModeController {
	if retryBudget <= 0 {
		retryBudget = 1
	}
	return &ModeController{
		uplink:    uplink,
		obs:       obs,
		budget:    retryBudget,
		remaining: retryBudget,
		mode:      ModeOffline,
	}
}

// Startup decides the initial mode: offline when any networking field is
// missing or the link cannot be brought up, online otherwise. Run once,
// before the first cycle.
func (c *ModeController) Startup(m *domain.BoardModel) Mode {
	c.ssid = m.SSID
	c.password = m.Password
	c.mode = ModeOnline

	if missing := m.MissingNetworkFields(); len(missing) > 0 {
		for _, field := range missing {
			c.obs.LogInfo("no "+field+" specified, entering offline mode")
		}
		c.mode = ModeOffline
	}

	if c.mode == ModeOnline {
		if err := c.uplink.BringUp(); err != nil {
			c.obs.LogError("uplink was not initialized, entering offline mode", err)
			c.mode = ModeOffline
		}
	}

	if c.mode == ModeOnline {
		// one initial connect attempt; a failure spends retry budget but
		// does not force offline on its own
		c.EnsureConnected()
	}

	c.publishMode()
	return c.mode
}

func (c *ModeController) Mode() Mode { return c.mode }

// EnsureConnected reports whether the link is usable this cycle. The cheap
// link check always precedes a connect attempt; each failed connect spends
// one unit of retry budget and exhaustion downgrades to offline for good. A
// successful connect restores the full budget.
func (c *ModeController) EnsureConnected() bool {
	if c.mode == ModeOffline {
		return false
	}
	if c.uplink.IsConnected() {
		return true
	}

	c.obs.LogInfo("link down, trying to connect", ports.Field{Key: "ssid", Value: c.ssid})
	if err := c.uplink.Connect(c.ssid, c.password); err != nil {
		c.remaining--
		c.obs.IncCounter(ports.MetricConnectFailuresTotal, 1)
		c.obs.LogError("connection attempt failed", err,
			ports.Field{Key: "remaining_tries", Value: c.remaining})

		if c.remaining <= 0 {
			c.obs.LogInfo("connection failed too many times, activating offline mode",
				ports.Field{Key: "tries", Value: c.budget})
			c.mode = ModeOffline
			c.publishMode()
		}
		return false
	}

	c.remaining = c.budget
	c.obs.LogInfo("connected", ports.Field{Key: "ssid", Value: c.ssid})
	return c.uplink.IsConnected()
}

func (c *ModeController) publishMode() {
	if c.mode == ModeOffline {
		c.obs.SetGauge(ports.MetricOffline, 1)
	} else {
		c.obs.SetGauge(ports.MetricOffline, 0)
	}
}
