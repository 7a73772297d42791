package boardcfg

import (
	"strconv"
	"strings"
)

// atoi parses the leading integer of s, ignoring surrounding whitespace and
// anything trailing the digits. No digits means 0; the grammar has no error
// path for numeric fields.
func atoi(s string) int {
	s = strings.TrimSpace(s)
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	j := i
	for j < len(s) && s[j] >= '0' && s[j] <= '9' {
		j++
	}
	if j == i {
		return 0
	}
	n, err := strconv.Atoi(s[:j])
	if err != nil {
		return 0
	}
	return n
}

// atof parses the leading float of s with the same leniency as atoi.
func atof(s string) float64 {
	s = strings.TrimSpace(s)
	j := len(s)
	for j > 0 {
		if f, err := strconv.ParseFloat(s[:j], 64); err == nil {
			return f
		}
		j--
	}
	return 0
}
