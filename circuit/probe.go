package circuit

import "github.com/sarchlab/akita/v4/sim"

// Timing is the outcome of one measurement.
type Timing struct {
	Trise sim.VTimeInSec
	Tfall sim.VTimeInSec
	Delay sim.VTimeInSec

	// Power is the average power in W.
	Power float64
}

// A Probe is one measured path of a sizable leaf. Most leaves own a single
// probe; a LUT owns one per input.
type Probe struct {
	name   string
	handle Handle
	timing Timing
}

// NewProbe creates a probe with no harness yet.
func NewProbe(name string) *Probe {
	return &Probe{name: name}
}

// Name returns the probe name.
func (p *Probe) Name() string {
	return p.name
}

// Handle returns the harness the probe measures.
func (p *Probe) Handle() Handle {
	return p.handle
}

// Attach binds the probe to an emitted harness.
func (p *Probe) Attach(h Handle) {
	p.handle = h
}

// Timing returns the last recorded measurement.
func (p *Probe) Timing() Timing {
	return p.timing
}

// Record stores a measurement.
func (p *Probe) Record(t Timing) {
	p.timing = t
}
