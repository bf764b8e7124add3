package delay

import (
	"sort"

	"github.com/sarchlab/akita/v4/sim"
)

// Delay-weight categories on the representative path.
const (
	CategorySBMux            = "sb_mux"
	CategoryCBMux            = "cb_mux"
	CategoryLocalMux         = "local_mux"
	CategoryLocalBLEOutput   = "local_ble_output"
	CategoryGeneralBLEOutput = "general_ble_output"
	CategoryLUTFrac          = "lut_frac"
	CategoryRAM              = "ram"
)

// Categories measured but kept off the representative path, because they are
// folded into another term, duplicate another measurement or sit on a side
// path.
const (
	CategoryFlipFlop    = "ff"
	CategoryLUT         = "lut"
	CategoryLUTDriver   = "lut_driver"
	CategoryDriverNot   = "lut_driver_not"
	CategoryFractureMux = "fmux"
	CategoryCarryChain  = "carry_chain"
	CategoryMemory      = "memory"
)

// LUTCategory returns the category of the path through LUT input letter.
func LUTCategory(letter string) string {
	return "lut_" + letter
}

// Weights holds the fixed share of the path delay attributed to each
// category. Categories without a weight are excluded from the path.
type Weights map[string]float64

// DefaultWeights returns the empirical weights of a 6-LUT fabric.
func DefaultWeights() Weights {
	return Weights{
		CategorySBMux:            0.4107,
		CategoryCBMux:            0.0989,
		CategoryLocalMux:         0.0736,
		LUTCategory("a"):         0.0396,
		LUTCategory("b"):         0.0379,
		LUTCategory("c"):         0.0704,
		LUTCategory("d"):         0.0202,
		LUTCategory("e"):         0.0121,
		LUTCategory("f"):         0.0186,
		CategoryLUTFrac:          0.0186,
		CategoryLocalBLEOutput:   0.0267,
		CategoryGeneralBLEOutput: 0.0326,
		CategoryRAM:              0.15,
	}
}

// Lookup returns the weight of a category and whether it is on the path.
func (w Weights) Lookup(category string) (float64, bool) {
	v, ok := w[category]
	return v, ok
}

// Of returns the weight of a category, zero when excluded.
func (w Weights) Of(category string) float64 {
	return w[category]
}

// A Term is one weighted contribution to the representative path.
type Term struct {
	Name     string
	Category string
	Delay    sim.VTimeInSec
	Weight   float64
}

// Weighted returns the contribution of the term.
func (t Term) Weighted() sim.VTimeInSec {
	return t.Delay * sim.VTimeInSec(t.Weight)
}

// RepresentativePath sums the weighted delay of every term.
func RepresentativePath(terms []Term) sim.VTimeInSec {
	var total sim.VTimeInSec
	for _, t := range terms {
		total += t.Weighted()
	}

	return total
}

// PathBuilder collects the terms of one evaluation.
type PathBuilder struct {
	weights Weights
	terms   []Term
}

// NewPathBuilder creates a builder using the given weights.
func NewPathBuilder(w Weights) *PathBuilder {
	return &PathBuilder{weights: w}
}

// Add adds a term whose delay is the series sum of the given delays. It
// returns false, and adds nothing, when the category is excluded.
func (b *PathBuilder) Add(name, category string, delays ...sim.VTimeInSec) bool {
	w, ok := b.weights.Lookup(category)
	if !ok {
		return false
	}

	b.terms = append(b.terms, Term{
		Name:     name,
		Category: category,
		Delay:    Sum(delays...),
		Weight:   w,
	})

	return true
}

// Terms returns the terms sorted by name.
func (b *PathBuilder) Terms() []Term {
	out := make([]Term, len(b.terms))
	copy(out, b.terms)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out
}

// Delay returns the representative path delay.
func (b *PathBuilder) Delay() sim.VTimeInSec {
	return RepresentativePath(b.terms)
}
