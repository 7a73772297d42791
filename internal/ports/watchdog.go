package ports

// Watchdog is a dead-man's switch around the sampling loop. Refresh re-arms
// the deadline after every productive step; if the deadline ever passes, the
// guard forces a restart of the whole process, regardless of why the loop
// stalled.
type Watchdog interface {
	Refresh()
	Stop()
}
