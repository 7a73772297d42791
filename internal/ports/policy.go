package ports

import "time"

// Policy holds the loop's operating knobs. PollInterval may be replaced at
// runtime by a server-suggested interval; everything else is fixed after
// startup.
type Policy struct {
	PollInterval     time.Duration
	RetryBudget      int
	WatchdogMultiple int

	MaxBacklogBytes int64
}
