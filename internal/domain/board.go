package domain

import "strings"

// SensorType describes one class of sensor, not a physical port. Its id is
// its zero-based declaration order in the board configuration text.
type SensorType struct {
	Kind       string
	Unit       string
	Multiplier float64
	RangeStart float64
	RangeEnd   float64
}

// NoSensorDescription is the description given to a port binding whose
// sensor id does not resolve to a declared sensor type.
const NoSensorDescription = "No Sensor"

// PortBinding is one physical input channel bound to a SensorType by id.
// All fields are derived at parse time and immutable afterwards; live values
// are kept in a separate Readings container.
type PortBinding struct {
	Name         string
	SensorID     int
	Multiplier   float64
	Description  string
	RangeFloor   float64
	RangeCeiling float64
}

// BoardModel is the complete validated board configuration, built once at
// startup. Ports holds only active bindings (those that resolved to a
// declared sensor type).
type BoardModel struct {
	ID        string
	SSID      string
	Password  string
	TableName string

	RemoteIP   string
	RemotePort int
	RemoteDir  string
	HostName   string

	Sensors []SensorType
	Ports   []PortBinding
}

// MissingNetworkFields names every connectivity field that is blank or zero.
// A non-empty result forces offline mode; there is no partially-online mode.
func (m *BoardModel) MissingNetworkFields() []string {
	var missing []string
	if strings.TrimSpace(m.TableName) == "" {
		missing = append(missing, "database table name")
	}
	if strings.TrimSpace(m.RemoteDir) == "" {
		missing = append(missing, "remote directory")
	}
	if strings.TrimSpace(m.RemoteIP) == "" {
		missing = append(missing, "remote IP address")
	}
	if m.RemotePort == 0 {
		missing = append(missing, "remote port")
	}
	if strings.TrimSpace(m.HostName) == "" {
		missing = append(missing, "remote hostname")
	}
	return missing
}

// NetworkReady reports whether every field required to go online is populated.
func (m *BoardModel) NetworkReady() bool {
	return len(m.MissingNetworkFields()) == 0
}
