// Package opt sizes transistors and floorplans tiles by local search. It
// knows nothing about circuits: a Problem turns an assignment of named
// scalar parameters into an area, a delay and a validity flag.
package opt

import (
	"math"
	"sort"

	"github.com/sarchlab/akita/v4/sim"
)

// HeightParam is the parameter name of the floorplanned tile height.
const HeightParam = "tile_height"

// Assignment maps parameter names to values.
type Assignment map[string]float64

// Clone returns an independent copy.
func (a Assignment) Clone() Assignment {
	out := make(Assignment, len(a))
	for k, v := range a {
		out[k] = v
	}

	return out
}

// Names returns the parameter names in sorted order.
func (a Assignment) Names() []string {
	names := make([]string, 0, len(a))
	for k := range a {
		names = append(names, k)
	}

	sort.Strings(names)

	return names
}

// Evaluation is the outcome of one full area, wire, RC and delay pass.
type Evaluation struct {
	Area  float64
	Delay sim.VTimeInSec
	Valid bool
}

// A Problem evaluates assignments. Evaluate must recompute everything from
// the assignment it is given.
type Problem interface {
	Evaluate(a Assignment) Evaluation
}

// ProblemFactory creates an isolated problem for a worker.
type ProblemFactory func() (Problem, error)

// Cost combines area and delay as area^wArea * delay^wDelay.
func Cost(area float64, delay sim.VTimeInSec, wArea, wDelay float64) float64 {
	return math.Pow(area, wArea) * math.Pow(float64(delay), wDelay)
}

// Score returns the cost of an evaluation. Invalid evaluations cost +Inf so
// that they are never selected.
func Score(e Evaluation, wArea, wDelay float64) float64 {
	if !e.Valid {
		return math.Inf(1)
	}

	return Cost(e.Area, e.Delay, wArea, wDelay)
}
