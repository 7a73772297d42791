// Package boardcfg turns the board's line-oriented configuration text into a
// validated domain.BoardModel.
//
// The grammar is permissive and line-at-a-time: a line that does not match a
// recognized directive shape is skipped without error. Port lines resolve
// sensor ids at parse time and may appear before the sensors they reference,
// so the parser makes two explicit passes over the input: sensors first,
// then connection/board/port lines.
package boardcfg

import (
	"log/slog"
	"os"
	"strings"

	"github.com/ghsecuritylab/488-final-project-code/internal/domain"
)

// Load reads and parses the configuration file at path. A file that cannot
// be read degrades to an empty model, which the caller must treat as
// "cannot reach online mode"; it is not a fatal condition.
func Load(path string, logger *slog.Logger) *domain.BoardModel {
	if logger == nil {
		logger = slog.Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		logger.Error("board config unreadable, starting with empty model", "path", path, "error", err)
		return &domain.BoardModel{}
	}
	return Parse(string(raw), logger)
}

// Parse builds a BoardModel from configuration text. It never fails: every
// malformed directive is skipped whole, never partially applied.
func Parse(text string, logger *slog.Logger) *domain.BoardModel {
	if logger == nil {
		logger = slog.Default()
	}
	lines := strings.Split(text, "\n")
	m := &domain.BoardModel{}

	// Pass one: collect sensor types. Ids are assigned by append order, not
	// by any number embedded in the line.
	for _, line := range lines {
		if sensor, ok := parseSensorLine(line); ok {
			m.Sensors = append(m.Sensors, sensor)
		}
	}

	// Pass two: connection, board identity, and port lines.
	for _, line := range lines {
		switch {
		case isSensorLine(line):
			// handled in pass one
		case isConnLine(line):
			parseConnLine(line, m)
		case isBoardLine(line):
			parseBoardLine(line, m)
		case strings.HasPrefix(line, "P"):
			if binding, ok := parsePortLine(line, m.Sensors); ok {
				m.Ports = append(m.Ports, binding)
			}
		}
	}

	dump(m, logger)
	return m
}

func isSensorLine(line string) bool {
	return strings.HasPrefix(line, "S") && strings.Contains(line, "SensorID")
}

func isConnLine(line string) bool {
	return strings.HasPrefix(line, "C") && strings.Contains(line, "ConnInfo")
}

func isBoardLine(line string) bool {
	return strings.HasPrefix(line, "B") && strings.Contains(line, "Board")
}

// parseSensorLine handles `SensorID...: kind, unit, multiplier, range_start,
// range_end`. The final field runs to end of line.
func parseSensorLine(line string) (domain.SensorType, bool) {
	if !isSensorLine(line) {
		return domain.SensorType{}, false
	}
	_, rest, found := strings.Cut(line, ":")
	if !found {
		return domain.SensorType{}, false
	}
	fields := strings.SplitN(rest, ",", 5)
	if len(fields) != 5 {
		return domain.SensorType{}, false
	}
	return domain.SensorType{
		Kind:       strings.TrimSpace(fields[0]),
		Unit:       strings.TrimSpace(fields[1]),
		Multiplier: atof(fields[2]),
		RangeStart: atof(fields[3]),
		RangeEnd:   atof(fields[4]),
	}, true
}

// parseConnLine handles `ConnInfo: remote_ip : remote_port : hostname :
// remote_dir`. The remote port is parsed only when its first character is a
// digit; otherwise it is set to 0, the "no value" sentinel that later forces
// offline mode.
func parseConnLine(line string, m *domain.BoardModel) {
	parts := strings.SplitN(line, ":", 5)
	if len(parts) != 5 {
		return
	}
	m.RemoteIP = strings.TrimSpace(parts[1])

	port := strings.TrimSpace(parts[2])
	if port != "" && port[0] >= '0' && port[0] <= '9' {
		m.RemotePort = atoi(port)
	} else {
		m.RemotePort = 0
	}

	m.HostName = strings.TrimSpace(parts[3])
	m.RemoteDir = strings.TrimSpace(parts[4])
}

// parseBoardLine handles `Board...: board_id, ssid, password, table_name`.
func parseBoardLine(line string, m *domain.BoardModel) {
	_, rest, found := strings.Cut(line, ":")
	if !found {
		return
	}
	fields := strings.SplitN(rest, ",", 4)
	if len(fields) != 4 {
		return
	}
	m.ID = strings.TrimSpace(fields[0])
	m.SSID = strings.TrimSpace(fields[1])
	m.Password = strings.TrimSpace(fields[2])
	m.TableName = strings.TrimSpace(fields[3])
}

// parsePortLine handles `P<name>: sensor_id`. The name keeps no space
// characters at all; internal spaces are deleted, not just trimmed. The
// returned bool is the binding's validity: a port whose derived multiplier
// is zero is not part of the model and is never sampled.
func parsePortLine(line string, sensors []domain.SensorType) (domain.PortBinding, bool) {
	name, rest, found := strings.Cut(line, ":")
	if !found {
		return domain.PortBinding{}, false
	}
	return deriveBinding(sensors, strings.ReplaceAll(name, " ", ""), atoi(rest))
}

// deriveBinding resolves a sensor id against the declared sensor types. An
// id with no matching sensor yields the "No Sensor" description and a zero
// multiplier, which marks the binding invalid.
func deriveBinding(sensors []domain.SensorType, name string, id int) (domain.PortBinding, bool) {
	binding := domain.PortBinding{
		Name:        name,
		SensorID:    id,
		Description: domain.NoSensorDescription,
	}
	if id >= 0 && id < len(sensors) {
		s := sensors[id]
		binding.Multiplier = s.Multiplier
		binding.Description = s.Kind + " in " + s.Unit
		binding.RangeFloor = s.RangeStart
		binding.RangeCeiling = s.RangeEnd
	}
	return binding, binding.Multiplier != 0
}

// dump logs a human-readable description of the parsed model. Diagnostic
// only; not part of the parser's contract.
func dump(m *domain.BoardModel, logger *slog.Logger) {
	logger.Info("parsed board configuration",
		"board_id", m.ID,
		"ssid", m.SSID,
		"table", m.TableName,
		"remote_ip", m.RemoteIP,
		"remote_port", m.RemotePort,
		"remote_dir", m.RemoteDir,
		"hostname", m.HostName,
		"sensors", len(m.Sensors),
		"ports", len(m.Ports),
	)
	for i, s := range m.Sensors {
		logger.Debug("sensor type",
			"id", i, "kind", s.Kind, "unit", s.Unit,
			"multiplier", s.Multiplier, "range_start", s.RangeStart, "range_end", s.RangeEnd)
	}
	for _, p := range m.Ports {
		logger.Debug("port binding",
			"name", p.Name, "sensor_id", p.SensorID, "multiplier", p.Multiplier,
			"description", p.Description, "floor", p.RangeFloor, "ceiling", p.RangeCeiling)
	}
}
