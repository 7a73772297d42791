package analog

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ghsecuritylab/488-final-project-code/internal/ports"
)

// IIOSource reads raw ADC counts from a Linux industrial-I/O device
// directory (in_voltage<N>_raw under /sys/bus/iio/devices/iio:deviceX) and
// normalizes them against the converter's bit depth.
type IIOSource struct {
	dir  string
	bits int
}

func NewIIOSource(dir string, bits int) *IIOSource {
	if bits <= 0 {
		bits = 12
	}
	return &IIOSource{dir: dir, bits: bits}
}

func (s *IIOSource) Read(channel int) (float64, error) {
	path := filepath.Join(s.dir, fmt.Sprintf("in_voltage%d_raw", channel))
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("iio read channel %d: %w", channel, err)
	}
	raw, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("iio parse channel %d: %w", channel, err)
	}

	fullScale := float64(int64(1)<<s.bits - 1)
	v := float64(raw) / fullScale
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return v, nil
}

var _ ports.AnalogSource = (*IIOSource)(nil)
