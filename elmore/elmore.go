// Package elmore provides an analytical netlist backend and simulator. It
// reduces every harness stage to an RC ladder and reports its Elmore delay,
// which is enough to drive the sizing loop without an external simulator.
package elmore

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/tilesize/circuit"
	"github.com/sarchlab/tilesize/delay"
	"github.com/sarchlab/tilesize/tech"
)

// ln2 converts an RC time constant into a 50% delay.
const ln2 = 0.69

// Backend stores emitted descriptions and harnesses and simulates the
// harnesses on request.
type Backend struct {
	process tech.Process

	lock        sync.RWMutex
	subcircuits map[circuit.Handle]circuit.Description
	harnesses   map[circuit.Handle]circuit.Harness
}

var (
	_ circuit.Backend = (*Backend)(nil)
	_ delay.Simulator = (*Backend)(nil)
)

// NewBackend creates a backend for the given process.
func NewBackend(p tech.Process) *Backend {
	return &Backend{
		process:     p,
		subcircuits: make(map[circuit.Handle]circuit.Description),
		harnesses:   make(map[circuit.Handle]circuit.Harness),
	}
}

// Subcircuit records a description.
func (b *Backend) Subcircuit(d circuit.Description) circuit.Handle {
	b.lock.Lock()
	defer b.lock.Unlock()

	h := circuit.Handle("subckt." + d.Name)
	b.subcircuits[h] = d

	return h
}

// Harness records a harness.
func (b *Backend) Harness(hn circuit.Harness) circuit.Handle {
	b.lock.Lock()
	defer b.lock.Unlock()

	h := circuit.Handle("harness." + hn.Name)
	b.harnesses[h] = hn

	return h
}

// Description returns a recorded description.
func (b *Backend) Description(h circuit.Handle) (circuit.Description, bool) {
	b.lock.RLock()
	defer b.lock.RUnlock()

	d, ok := b.subcircuits[h]

	return d, ok
}

// NumHarnesses returns the number of recorded harnesses.
func (b *Backend) NumHarnesses() int {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return len(b.harnesses)
}

// Run computes the rise and fall delay of the harness output and its
// average switching power.
func (b *Backend) Run(
	h circuit.Handle,
	params delay.ParameterSet,
) (delay.Result, error) {
	b.lock.RLock()
	hn, ok := b.harnesses[h]
	b.lock.RUnlock()

	if !ok {
		return delay.Result{}, errors.Wrapf(delay.ErrSimulationFailed,
			"unknown harness %q", h)
	}

	if len(hn.Stages) == 0 {
		return delay.Result{}, errors.Wrapf(delay.ErrSimulationFailed,
			"harness %q has no stages", hn.Name)
	}

	ev := evaluator{process: b.process, params: params}

	rise, capRise, err := ev.path(hn.Stages, true)
	if err != nil {
		return delay.Result{}, errors.Wrapf(err, "harness %q", hn.Name)
	}

	fall, _, err := ev.path(hn.Stages, false)
	if err != nil {
		return delay.Result{}, errors.Wrapf(err, "harness %q", hn.Name)
	}

	vdd := b.process.Vdd
	power := capRise * vdd * vdd * float64(b.process.SwitchingFreq)

	return delay.Result{Trise: rise, Tfall: fall, Power: power}, nil
}

type evaluator struct {
	process tech.Process
	params  delay.ParameterSet
}

// path returns the delay until the last stage output reaches the requested
// transition, and the total switched capacitance.
func (e evaluator) path(
	stages []circuit.Stage,
	outRising bool,
) (sim.VTimeInSec, float64, error) {
	var total sim.VTimeInSec
	capTotal := 0.0

	n := len(stages)
	for i, st := range stages {
		rising := outRising == ((n-1-i)%2 == 0)

		tau, c, err := e.stage(st, rising)
		if err != nil {
			return 0, 0, errors.Wrapf(err, "stage %d", i)
		}

		total += sim.VTimeInSec(ln2 * tau)
		capTotal += c
	}

	return total, capTotal, nil
}

func (e evaluator) stage(st circuit.Stage, rising bool) (float64, float64, error) {
	r, cd, err := e.driver(st.Driver, rising)
	if err != nil {
		return 0, 0, err
	}

	tau := r * cd
	capTotal := cd

	for _, seg := range st.Segments {
		switch seg.Kind {
		case circuit.WireSegment:
			wr, wc, err := e.wire(seg.Wire)
			if err != nil {
				return 0, 0, err
			}

			c := wc * seg.Fraction * seg.Count
			r += wr * seg.Fraction
			tau += r * c
			capTotal += c
		case circuit.BranchWire:
			_, wc, err := e.wire(seg.Wire)
			if err != nil {
				return 0, 0, err
			}

			c := wc * seg.Count
			tau += r * c
			capTotal += c
		case circuit.SeriesDevice:
			sr, sd, err := e.series(seg.Device, rising)
			if err != nil {
				return 0, 0, err
			}

			tau += r * sd
			r += sr
			tau += r * sd
			capTotal += 2 * sd
		case circuit.GateLoad:
			w, err := e.width(seg.Device)
			if err != nil {
				return 0, 0, err
			}

			c := e.process.CGate * w * seg.Count
			tau += r * c
			capTotal += c
		case circuit.DiffusionLoad:
			w, err := e.width(seg.Device)
			if err != nil {
				return 0, 0, err
			}

			c := e.process.CDiff * w * seg.Count
			tau += r * c
			capTotal += c
		case circuit.FixedRC:
			r += seg.R
			tau += r * seg.C
			capTotal += seg.C
		default:
			panic("invalid segment kind")
		}
	}

	return tau, capTotal, nil
}

// driver returns the output resistance for the given transition and the
// diffusion capacitance of a driver. A nil driver is a minimum inverter.
func (e evaluator) driver(d *circuit.Device, rising bool) (float64, float64, error) {
	if d == nil {
		if rising {
			return e.process.Rp, 2 * e.process.CDiff, nil
		}
		return e.process.Rn, 2 * e.process.CDiff, nil
	}

	w, err := e.width(d)
	if err != nil {
		return 0, 0, err
	}

	pol := tech.NMOS
	base := e.process.Rn
	if rising {
		pol = tech.PMOS
		base = e.process.Rp
	}

	el, ok := d.Element(pol)
	if !ok {
		el = d.Elements()[0]
	}

	s, err := e.size(el.Name)
	if err != nil {
		return 0, 0, err
	}

	return base / s, e.process.CDiff * w, nil
}

// series returns the on-resistance of a conducting device and the diffusion
// capacitance on each of its sides.
func (e evaluator) series(d *circuit.Device, rising bool) (float64, float64, error) {
	w, err := e.width(d)
	if err != nil {
		return 0, 0, err
	}

	cd := e.process.CDiff * w

	switch d.Kind() {
	case tech.TransmissionGate:
		n, p, err := e.pair(d)
		if err != nil {
			return 0, 0, err
		}

		rn := e.process.Rn / n
		rp := e.process.Rp / p

		return rn * rp / (rn + rp), cd, nil
	default:
		el := d.Elements()[0]
		s, err := e.size(el.Name)
		if err != nil {
			return 0, 0, err
		}

		r := e.process.Rn / s
		if el.Polarity == tech.PMOS {
			r = e.process.Rp / s
		}

		// An NMOS passes a weak one.
		if rising && el.Polarity == tech.NMOS {
			r *= 2
		}

		return r, cd, nil
	}
}

func (e evaluator) pair(d *circuit.Device) (float64, float64, error) {
	en, okN := d.Element(tech.NMOS)
	ep, okP := d.Element(tech.PMOS)
	if !okN || !okP {
		return 0, 0, errors.Wrapf(delay.ErrSimulationFailed,
			"device %s is not complementary", d.Name())
	}

	n, err := e.size(en.Name)
	if err != nil {
		return 0, 0, err
	}

	p, err := e.size(ep.Name)
	if err != nil {
		return 0, 0, err
	}

	return n, p, nil
}

// width returns the summed drive strength of every element of a device.
func (e evaluator) width(d *circuit.Device) (float64, error) {
	total := 0.0
	for _, el := range d.Elements() {
		s, err := e.size(el.Name)
		if err != nil {
			return 0, err
		}
		total += s
	}

	return total, nil
}

func (e evaluator) size(name string) (float64, error) {
	s, ok := e.params[name]
	if !ok {
		return 0, errors.Wrapf(delay.ErrSimulationFailed, "missing parameter %s", name)
	}

	if s <= 0 {
		return 0, errors.Wrapf(delay.ErrSimulationFailed,
			"non-positive size %g for %s", s, name)
	}

	return s, nil
}

func (e evaluator) wire(w *circuit.Wire) (float64, float64, error) {
	r, okR := e.params[w.Name()+"_res"]
	c, okC := e.params[w.Name()+"_cap"]
	if !okR || !okC {
		return 0, 0, errors.Wrapf(delay.ErrSimulationFailed,
			"missing parasitics of %s", w.Name())
	}

	return r, c, nil
}

// String describes the backend contents.
func (b *Backend) String() string {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return fmt.Sprintf("elmore backend (%s): %d subcircuits, %d harnesses",
		b.process.Name, len(b.subcircuits), len(b.harnesses))
}
