// Package delay connects the circuit hierarchy to an electrical simulator
// and reduces the measured delays into the representative critical path.
package delay

import (
	"github.com/pkg/errors"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/tilesize/circuit"
)

// ErrSimulationFailed is returned by a simulator that could not produce a
// measurement.
var ErrSimulationFailed = errors.New("simulation failed")

// Poison replaces an invalid measurement.
const Poison sim.VTimeInSec = 1

// ParameterSet is the full parameter binding of one simulation: every
// sizing element by name plus <wire>_res and <wire>_cap for every wire.
type ParameterSet map[string]float64

// Result is what a simulation measures.
type Result struct {
	Trise sim.VTimeInSec
	Tfall sim.VTimeInSec
	Power float64
}

// A Simulator runs one harness with one parameter set. Calls block until the
// simulation finishes.
type Simulator interface {
	Run(h circuit.Handle, params ParameterSet) (Result, error)
}

// Marshal binds the current sizing and every wire computed in the current
// pass.
func Marshal(sz circuit.Sizing, s *circuit.Store) ParameterSet {
	params := make(ParameterSet, len(sz))
	for k, v := range sz {
		params[k] = v
	}

	for _, name := range s.WireNames() {
		rc := s.WireRC(circuit.Key(name))
		params[name+"_res"] = rc.R
		params[name+"_cap"] = rc.C
	}

	return params
}
