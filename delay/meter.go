package delay

import (
	"log/slog"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/tilesize/circuit"
)

// A Meter measures probes through a simulator and keeps the validity of the
// current evaluation.
type Meter struct {
	sim      Simulator
	valid    bool
	failures []string
}

// NewMeter creates a meter.
func NewMeter(s Simulator) *Meter {
	return &Meter{sim: s, valid: true}
}

// Reset starts a new evaluation.
func (m *Meter) Reset() {
	m.valid = true
	m.failures = nil
}

// Valid tells whether every measurement since Reset was valid.
func (m *Meter) Valid() bool {
	return m.valid
}

// Failures lists the probes that failed since Reset.
func (m *Meter) Failures() []string {
	return m.failures
}

// Measure simulates one probe and records the timing on it. Failed runs and
// negative times are replaced by Poison and invalidate the evaluation.
func (m *Meter) Measure(
	comp circuit.Named,
	p *circuit.Probe,
	params ParameterSet,
) circuit.Timing {
	res, err := m.sim.Run(p.Handle(), params)

	t := circuit.Timing{
		Trise: res.Trise,
		Tfall: res.Tfall,
		Power: res.Power,
	}

	switch {
	case err != nil:
		m.fail(comp, p, err.Error())
		t = poisoned()
	case res.Trise < 0 || res.Tfall < 0:
		m.fail(comp, p, "negative time",
			"trise", float64(res.Trise), "tfall", float64(res.Tfall))
		t = poisoned()
	default:
		t.Delay = max(res.Trise, res.Tfall)
	}

	p.Record(t)

	return t
}

func (m *Meter) fail(comp circuit.Named, p *circuit.Probe, reason string, args ...any) {
	m.valid = false
	m.failures = append(m.failures, comp.Name()+"."+p.Name())

	attrs := append([]any{
		"Component", comp.Name(),
		"Probe", p.Name(),
		"Reason", reason,
	}, args...)
	slog.Warn("simulation failed", attrs...)
}

func poisoned() circuit.Timing {
	return circuit.Timing{
		Trise: Poison,
		Tfall: Poison,
		Delay: Poison,
	}
}

// Sum adds delays measured in series.
func Sum(delays ...sim.VTimeInSec) sim.VTimeInSec {
	var total sim.VTimeInSec
	for _, d := range delays {
		total += d
	}

	return total
}
