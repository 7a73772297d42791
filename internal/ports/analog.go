package ports

// AnalogSource is the raw sample collaborator: one read-capable channel per
// active port, returning a normalized sample in a fixed range. Reads are
// synchronous and may block.
type AnalogSource interface {
	Read(channel int) (float64, error)
}
