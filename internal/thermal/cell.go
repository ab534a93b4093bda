package thermal

import "sync/atomic"

// StatusCell is a single-writer atomic cell for the latest pushed status.
// Provider callbacks store into it from their own goroutine; the control
// loop loads it at the top of each tick. The 32-bit width guarantees the
// store is torn-read free.
type StatusCell struct {
	v atomic.Int32
}

// Store publishes a status update. Only provider callbacks write here.
func (c *StatusCell) Store(s Status) {
	c.v.Store(int32(s))
}

// Load returns the most recently pushed status.
func (c *StatusCell) Load() Status {
	return Status(c.v.Load())
}
