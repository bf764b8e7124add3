package config

import (
	"fmt"

	"github.com/pkg/errors"
)

// Variant captures how a BLE is fractured. It is chosen once from the
// variant code and handed to every component that depends on it.
type Variant interface {
	Code() int
	Name() string

	// Levels is the number of fracturing mux levels after the LUT tree.
	Levels() int

	// FirstMux names the first fracturing mux leaf.
	FirstMux() string

	// MuxCount is the number of fracturing muxes at a level, from 1.
	MuxCount(level int) int

	// FlipFlops is the number of flip-flops per BLE.
	FlipFlops() int

	// GeneralOutput3 tells whether the general BLE outputs are 3:1 muxes.
	GeneralOutput3() bool

	// FlipFlopSelect is the fan-in of the flip-flop input select, or 0.
	FlipFlopSelect() int

	// DuplicatedInputs is the number of highest LUT inputs whose drivers
	// are physically duplicated.
	DuplicatedInputs() int

	// LUTSkip tells whether the LUT output can bypass into the carry chain.
	LUTSkip() bool
}

// Fracturable tells whether a variant splits the LUT at all.
func Fracturable(v Variant) bool {
	return v.Levels() > 0
}

// NewVariant returns the variant of a code.
func NewVariant(code int, useFLUTs bool) (Variant, error) {
	switch code {
	case 0:
		return classic{flut: useFLUTs}, nil
	case 1:
		return dualOutput{}, nil
	case 2, 3:
		return multiLevel{levels: code}, nil
	case 10:
		return lutSkip{}, nil
	default:
		return nil, errors.Errorf("unsupported variant code %d", code)
	}
}

type classic struct {
	flut bool
}

func (v classic) Code() int { return 0 }

func (v classic) Name() string {
	if v.flut {
		return "classic-fracturable"
	}
	return "classic"
}

func (v classic) Levels() int {
	if v.flut {
		return 1
	}
	return 0
}

func (v classic) FirstMux() string { return "flut_mux" }

func (v classic) MuxCount(level int) int {
	if level == 1 && v.flut {
		return 1
	}
	return 0
}

func (v classic) FlipFlops() int {
	if v.flut {
		return 2
	}
	return 1
}

func (v classic) GeneralOutput3() bool  { return false }
func (v classic) FlipFlopSelect() int   { return 0 }
func (v classic) DuplicatedInputs() int { return 0 }
func (v classic) LUTSkip() bool         { return false }

type dualOutput struct{}

func (dualOutput) Code() int        { return 1 }
func (dualOutput) Name() string     { return "dual-output" }
func (dualOutput) Levels() int      { return 1 }
func (dualOutput) FirstMux() string { return "fmux_l1" }

func (dualOutput) MuxCount(level int) int {
	if level == 1 {
		return 2
	}
	return 0
}

func (dualOutput) FlipFlops() int        { return 2 }
func (dualOutput) GeneralOutput3() bool  { return false }
func (dualOutput) FlipFlopSelect() int   { return 0 }
func (dualOutput) DuplicatedInputs() int { return 0 }
func (dualOutput) LUTSkip() bool         { return false }

type multiLevel struct {
	levels int
}

func (v multiLevel) Code() int        { return v.levels }
func (v multiLevel) Name() string     { return fmt.Sprintf("level-%d", v.levels) }
func (v multiLevel) Levels() int      { return v.levels }
func (v multiLevel) FirstMux() string { return "fmux_l1" }

func (v multiLevel) MuxCount(level int) int {
	switch {
	case level == 1:
		return max(2, 1<<(v.levels-1))
	case level > 1 && level <= v.levels:
		return 1 << (v.levels - level)
	default:
		return 0
	}
}

func (v multiLevel) FlipFlops() int        { return 3 }
func (v multiLevel) GeneralOutput3() bool  { return true }
func (v multiLevel) FlipFlopSelect() int   { return v.levels + 1 }
func (v multiLevel) DuplicatedInputs() int { return 2 }
func (v multiLevel) LUTSkip() bool         { return false }

type lutSkip struct {
	dualOutput
}

func (lutSkip) Code() int     { return 10 }
func (lutSkip) Name() string  { return "lut-skip" }
func (lutSkip) LUTSkip() bool { return true }
