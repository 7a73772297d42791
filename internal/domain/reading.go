package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Out-of-range sentinels. A scaled sample above its port's ceiling is
// replaced by ErrHighValue, one below its floor by ErrLowValue; downstream
// consumers report the sentinel instead of treating it as an error.
var (
	ErrHighValue = math.Inf(1)
	ErrLowValue  = math.Inf(-1)
)

// PortReading is one port's scaled value at a point in time.
type PortReading struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Value       float64 `json:"value"`
}

// portReadingWire carries the value as an untyped field: JSON has no
// representation for the Inf sentinels, so they travel as "+Inf"/"-Inf"
// strings and every other value as a plain number.
type portReadingWire struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Value       any    `json:"value"`
}

func (r PortReading) MarshalJSON() ([]byte, error) {
	w := portReadingWire{Name: r.Name, Description: r.Description, Value: r.Value}
	switch {
	case math.IsInf(r.Value, 1):
		w.Value = "+Inf"
	case math.IsInf(r.Value, -1):
		w.Value = "-Inf"
	}
	return json.Marshal(w)
}

func (r *PortReading) UnmarshalJSON(data []byte) error {
	var w portReadingWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	r.Name = w.Name
	r.Description = w.Description
	switch v := w.Value.(type) {
	case float64:
		r.Value = v
	case string:
		switch v {
		case "+Inf":
			r.Value = ErrHighValue
		case "-Inf":
			r.Value = ErrLowValue
		default:
			return fmt.Errorf("port reading %q: unrecognized value %q", w.Name, v)
		}
	case nil:
		r.Value = 0
	default:
		return fmt.Errorf("port reading %q: unrecognized value type %T", w.Name, v)
	}
	return nil
}

// Snapshot is the full set of active-port readings taken in one polling
// cycle. It is the unit of delivery: sent live when the uplink is healthy,
// otherwise appended to the backlog.
type Snapshot struct {
	BoardID  string        `json:"board_id"`
	TakenAt  time.Time     `json:"taken_at"`
	Readings []PortReading `json:"readings"`
}

// Readings holds the latest scaled value for each active port, indexed by
// the port's position in BoardModel.Ports. The parsed model stays immutable;
// only this container is written each cycle.
type Readings struct {
	values []float64
}

func NewReadings(numPorts int) *Readings {
	return &Readings{values: make([]float64, numPorts)}
}

func (r *Readings) Set(port int, v float64) {
	r.values[port] = v
}

func (r *Readings) Value(port int) float64 {
	return r.values[port]
}

func (r *Readings) Len() int {
	return len(r.values)
}

// Snapshot pairs the current values with the model's port metadata.
func (r *Readings) Snapshot(m *BoardModel, takenAt time.Time) Snapshot {
	out := Snapshot{
		BoardID:  m.ID,
		TakenAt:  takenAt,
		Readings: make([]PortReading, len(m.Ports)),
	}
	for i, p := range m.Ports {
		out.Readings[i] = PortReading{
			Name:        p.Name,
			Description: p.Description,
			Value:       r.values[i],
		}
	}
	return out
}

// OutOfRange reports whether v is one of the range-violation sentinels.
func OutOfRange(v float64) bool {
	return math.IsInf(v, 1) || math.IsInf(v, -1)
}
