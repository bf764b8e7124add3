package fabric

import (
	"github.com/sarchlab/tilesize/circuit"
	"github.com/sarchlab/tilesize/delay"
	"github.com/sarchlab/tilesize/tech"
)

// A FlipFlop is a master-slave register built from two transmission-gate
// latches, with an optional input select mux.
type FlipFlop struct {
	*circuit.Leaf

	selectInputs int
	selectSize   MuxSize

	selL1, selL2, selRest *circuit.Device

	input        *circuit.Device
	tgate1       *circuit.Device
	cc11, cc12   *circuit.Device
	tgate2       *circuit.Device
	cc21, cc22   *circuit.Device
	outputDriver *circuit.Device

	wireSelect *circuit.Wire
	wireInput  *circuit.Wire
	wireTgate1 *circuit.Wire
	wireCC1    *circuit.Wire
	wireTgate2 *circuit.Wire
	wireCC2    *circuit.Wire

	probe *circuit.Probe
	load  circuit.Load
}

var _ circuit.SizableComponent = (*FlipFlop)(nil)

// NewFlipFlop creates a flip-flop. selectInputs is the fan-in of the input
// select mux: 0 for none, 2 for a register-select input, 3 or 4 for
// fractured BLEs.
func NewFlipFlop(name string, selectInputs int) *FlipFlop {
	f := &FlipFlop{
		Leaf:         circuit.NewLeaf(name, delay.CategoryFlipFlop, 0),
		selectInputs: selectInputs,
	}

	switch {
	case selectInputs == 0:
	case selectInputs == 2:
		f.selectSize = MuxSize{
			Required: 2, Level1: 2, Level2: 1, Implemented: 2, ConfigBits: 1,
		}
		f.selL1 = f.AddDevice(
			circuit.NewPassTransistor("ptran_"+name+"_input_select", 2))
	case selectInputs > 2:
		f.selectSize = TwoLevel(selectInputs)
		f.selL1 = f.AddDevice(
			circuit.NewPassTransistor("ptran_"+name+"_input_select_L1", 2))
		f.selL2 = f.AddDevice(
			circuit.NewPassTransistor("ptran_"+name+"_input_select_L2", 2))
	default:
		panic("invalid flip-flop select fan-in")
	}

	if f.selL1 != nil {
		f.selRest = f.AddDevice(
			circuit.NewTransistor("rest_"+name+"_input_select", tech.PMOS, 1))
		f.wireSelect = f.AddWire("wire_"+name+"_input_select", tech.LayerLocal)
	}

	f.input = f.AddDevice(circuit.NewInverter("inv_"+name+"_input", 1, 2))
	f.tgate1 = f.AddDevice(circuit.NewTransmissionGate("tgate_"+name+"_1", 1, 1))
	f.cc11 = f.AddDevice(circuit.NewInverter("inv_"+name+"_cc1_1", 1, 1))
	f.cc12 = f.AddDevice(circuit.NewInverter("inv_"+name+"_cc1_2", 1, 1))
	f.tgate2 = f.AddDevice(circuit.NewTransmissionGate("tgate_"+name+"_2", 1, 1))
	f.cc21 = f.AddDevice(circuit.NewInverter("inv_"+name+"_cc2_1", 1, 1))
	f.cc22 = f.AddDevice(circuit.NewInverter("inv_"+name+"_cc2_2", 1, 1))
	f.outputDriver = f.AddDevice(
		circuit.NewInverter("inv_"+name+"_output_driver", 2, 4))

	f.wireInput = f.AddWire("wire_"+name+"_input_out", tech.LayerLocal)
	f.wireTgate1 = f.AddWire("wire_"+name+"_tgate_1_out", tech.LayerLocal)
	f.wireCC1 = f.AddWire("wire_"+name+"_cc1_out", tech.LayerLocal)
	f.wireTgate2 = f.AddWire("wire_"+name+"_tgate_2_out", tech.LayerLocal)
	f.wireCC2 = f.AddWire("wire_"+name+"_cc2_out", tech.LayerLocal)

	f.probe = f.AddProbe(name)

	return f
}

// Input returns the first device of the data path.
func (f *FlipFlop) Input() *circuit.Device {
	if f.selL1 != nil {
		return f.selL1
	}

	return f.input
}

// SetLoad sets what the flip-flop output drives.
func (f *FlipFlop) SetLoad(l circuit.Load) {
	f.load = l
}

// Generate describes the flip-flop.
func (f *FlipFlop) Generate(b circuit.Backend) circuit.Generated {
	return f.Emit(b)
}

// GenerateTop emits the clock-to-Q harness.
func (f *FlipFlop) GenerateTop(b circuit.Backend) {
	f.EmitHarness(b, f.probe,
		circuit.Drive(nil).
			Series(f.tgate2).
			Drains(f.tgate2, 1).
			Wire(f.wireTgate2).
			Gates(f.cc21, 1).
			Drains(f.cc22, 1).
			Stage(),
		circuit.Drive(f.cc21).
			Wire(f.wireCC2).
			Gates(f.outputDriver, 1).
			Gates(f.cc22, 1).
			Stage(),
		circuit.Drive(f.outputDriver).
			Append(segments(f.load)...).
			Stage(),
	)
}

// UpdateArea writes the latches, the buffers and the select mux.
func (f *FlipFlop) UpdateArea(s *circuit.Store) float64 {
	area := s.Area(f.input) +
		2*s.Area(f.tgate1) + s.Area(f.cc11) + s.Area(f.cc12) +
		2*s.Area(f.tgate2) + s.Area(f.cc21) + s.Area(f.cc22) +
		s.Area(f.outputDriver)

	if f.selL1 != nil {
		area += float64(f.selectSize.Implemented)*s.Area(f.selL1) + s.Area(f.selRest)
	}
	if f.selL2 != nil {
		area += float64(f.selectSize.Level2) * s.Area(f.selL2)
	}

	return f.StoreArea(s, area, f.selectSize.ConfigBits)
}

// UpdateWires sizes each internal wire from the two devices it connects.
func (f *FlipFlop) UpdateWires(ctx circuit.WireContext) {
	between := func(a, b *circuit.Device) float64 {
		return (ctx.Width(a) + ctx.Width(b)) / 4
	}

	if f.wireSelect != nil {
		ctx.SetWireLength(f.wireSelect, between(f.selL1, f.input))
	}

	ctx.SetWireLength(f.wireInput, between(f.input, f.tgate1))
	ctx.SetWireLength(f.wireTgate1, between(f.tgate1, f.cc11))
	ctx.SetWireLength(f.wireCC1, between(f.cc11, f.tgate2))
	ctx.SetWireLength(f.wireTgate2, between(f.tgate2, f.cc21))
	ctx.SetWireLength(f.wireCC2, between(f.cc21, f.outputDriver))
}

// tapInput hangs count flip-flop inputs on a load.
func (f *FlipFlop) tapInput(l *FanoutLoad, count float64) {
	if f.selL1 != nil {
		l.Drains(f.Name(), f.selL1, count)
		return
	}

	l.Gates(f.Name(), f.input, count)
}
