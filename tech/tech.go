// Package tech describes the process technology a fabric is sized for: the
// minimum transistor geometry, the electrical constants of a minimum-width
// device and the metal stack used for wires.
package tech

import (
	"math"

	"github.com/pkg/errors"
	"github.com/sarchlab/akita/v4/sim"
)

// TransistorKind classifies a transistor by layout style. Inverters and
// transmission gates need N-well spacing and therefore use a larger area
// model than plain pass transistors.
type TransistorKind int

const (
	Inverter TransistorKind = iota
	TransmissionGate
	PassTransistor
	Other
)

// Name returns the name of the transistor kind.
func (k TransistorKind) Name() string {
	switch k {
	case Inverter:
		return "inv"
	case TransmissionGate:
		return "tgate"
	case PassTransistor:
		return "ptran"
	case Other:
		return "tran"
	default:
		panic("invalid transistor kind")
	}
}

// Polarity is the channel type of a sizing element.
type Polarity int

const (
	NMOS Polarity = iota
	PMOS
)

// Suffix returns the element-name suffix used for the polarity.
func (p Polarity) Suffix() string {
	switch p {
	case NMOS:
		return "_nmos"
	case PMOS:
		return "_pmos"
	default:
		panic("invalid polarity")
	}
}

// Process holds the process constants consumed by the area, wire and delay
// models.
type Process struct {
	Name   string `yaml:"name"`
	FinFET bool   `yaml:"finfet"`

	Vdd   float64 `yaml:"vdd"`
	Vsram float64 `yaml:"vsram"`
	Vth   float64 `yaml:"vth"`

	// MinWidth is the width of a minimum transistor in nm.
	MinWidth float64 `yaml:"min_width"`
	// MinTransistorArea is the layout area of a minimum-width transistor
	// in nm².
	MinTransistorArea float64 `yaml:"min_transistor_area"`
	// SRAMCellArea is the area of one configuration cell in
	// minimum-transistor units.
	SRAMCellArea float64 `yaml:"sram_cell_area"`

	// Rn and Rp are the on-resistances (ohm) of minimum-width devices.
	Rn float64 `yaml:"rn"`
	Rp float64 `yaml:"rp"`
	// CGate and CDiff are the gate and diffusion capacitances (F) of a
	// minimum-width device.
	CGate float64 `yaml:"cgate"`
	CDiff float64 `yaml:"cdiff"`

	// SwitchingFreq is the toggle rate used for average power.
	SwitchingFreq sim.Freq `yaml:"switching_freq"`

	Metal MetalStack `yaml:"metal"`
}

// DefaultProcess returns a 22 nm-like planar process.
func DefaultProcess() Process {
	return Process{
		Name:              "ptm22",
		Vdd:               0.8,
		Vsram:             1.0,
		Vth:               0.3,
		MinWidth:          45,
		MinTransistorArea: 33864,
		SRAMCellArea:      4,
		Rn:                8.0e3,
		Rp:                1.6e4,
		CGate:             4.5e-17,
		CDiff:             3.0e-17,
		SwitchingFreq:     250 * sim.MHz,
		Metal: MetalStack{
			{R: 0.054825, C: 1.75e-19},
			{R: 0.007862, C: 2.15e-19},
			{R: 0.029240, C: 1.90e-19},
			{R: 0.029240, C: 1.90e-19},
		},
	}
}

// Validate checks that the process constants are physically meaningful.
func (p Process) Validate() error {
	positive := map[string]float64{
		"vdd":                 p.Vdd,
		"min_width":           p.MinWidth,
		"min_transistor_area": p.MinTransistorArea,
		"sram_cell_area":      p.SRAMCellArea,
		"rn":                  p.Rn,
		"rp":                  p.Rp,
		"cgate":               p.CGate,
		"cdiff":               p.CDiff,
		"switching_freq":      float64(p.SwitchingFreq),
	}

	for _, key := range []string{
		"vdd", "min_width", "min_transistor_area", "sram_cell_area",
		"rn", "rp", "cgate", "cdiff", "switching_freq",
	} {
		if positive[key] <= 0 {
			return errors.Errorf("process %q: %s must be positive, got %g",
				p.Name, key, positive[key])
		}
	}

	if err := p.Metal.Validate(); err != nil {
		return errors.Wrapf(err, "process %q", p.Name)
	}

	return nil
}

// TransistorArea returns the layout area, in minimum-transistor units, of a
// transistor of the given kind and drive strength. For FinFET processes the
// size is the number of fins.
func TransistorArea(finfet bool, kind TransistorKind, size float64) float64 {
	if finfet {
		return 0.3694 + 0.0978*size + 0.5368*math.Sqrt(size)
	}

	switch kind {
	case Inverter, TransmissionGate:
		return 0.518 + 0.127*size + 0.428*math.Sqrt(size)
	default:
		return 0.447 + 0.128*size + 0.391*math.Sqrt(size)
	}
}

// Area returns the area in nm² of one sizing element.
func (p Process) Area(kind TransistorKind, size float64) float64 {
	return TransistorArea(p.FinFET, kind, size) * p.MinTransistorArea
}

// SRAMArea returns the area in nm² of one configuration cell.
func (p Process) SRAMArea() float64 {
	return p.SRAMCellArea * p.MinTransistorArea
}
