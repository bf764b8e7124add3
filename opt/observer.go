package opt

import "github.com/sarchlab/akita/v4/sim"

// A Record describes one candidate evaluation.
type Record struct {
	Param string
	Step  int
	Value float64
	Area  float64
	Delay sim.VTimeInSec
	Cost  float64
	Valid bool
}

// An Observer is told about every candidate the searcher evaluates.
type Observer interface {
	Observe(r Record)
}
