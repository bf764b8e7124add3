package fabric

import (
	"math"

	"github.com/sarchlab/tilesize/circuit"
	"github.com/sarchlab/tilesize/tech"
)

// MuxSize is the two-level implementation of a multiplexer.
type MuxSize struct {
	Required    int
	Level1      int
	Level2      int
	Implemented int
	Unused      int
	ConfigBits  int
}

// TwoLevel splits a multiplexer of the required fan-in into two levels with
// one-hot select at each level.
func TwoLevel(required int) MuxSize {
	if required < 1 {
		panic("multiplexer needs at least one input")
	}

	level2 := int(math.Floor(math.Sqrt(float64(required))))
	level1 := int(math.Ceil(float64(required) / float64(level2)))

	return MuxSize{
		Required:    required,
		Level1:      level1,
		Level2:      level2,
		Implemented: level1 * level2,
		Unused:      level1*level2 - required,
		ConfigBits:  level1 + level2,
	}
}

// passDevice creates the switch of a multiplexer level.
func passDevice(name string, tgates bool, size float64) *circuit.Device {
	if tgates {
		return circuit.NewTransmissionGate("tgate_"+name, size, size)
	}

	return circuit.NewPassTransistor("ptran_"+name, size)
}

// MuxConfig describes a routing multiplexer.
type MuxConfig struct {
	Required  int
	Inverters int
	TGates    bool
	Category  string
	Weight    float64
}

// A RoutingMux is a two-level multiplexer followed by one or two buffer
// inverters. Switch-block, connection-block and local muxes are routing
// muxes.
type RoutingMux struct {
	*circuit.Leaf

	size   MuxSize
	tgates bool

	l1, l2, rest *circuit.Device
	inv1, inv2   *circuit.Device

	wireL1, wireL2, wireDriver *circuit.Wire

	probe *circuit.Probe
	load  circuit.Load
	input *SwitchedWireLoad
}

var _ circuit.SizableComponent = (*RoutingMux)(nil)

// NewRoutingMux creates a routing multiplexer.
func NewRoutingMux(name string, cfg MuxConfig) *RoutingMux {
	if cfg.Inverters < 1 || cfg.Inverters > 2 {
		panic("routing mux needs one or two inverters")
	}

	m := &RoutingMux{
		Leaf:   circuit.NewLeaf(name, cfg.Category, cfg.Weight),
		size:   TwoLevel(cfg.Required),
		tgates: cfg.TGates,
	}

	m.l1 = m.AddDevice(passDevice(name+"_L1", cfg.TGates, 2))
	m.l2 = m.AddDevice(passDevice(name+"_L2", cfg.TGates, 2))
	if !cfg.TGates {
		m.rest = m.AddDevice(circuit.NewTransistor("rest_"+name, tech.PMOS, 1))
	}

	m.inv1 = m.AddDevice(circuit.NewInverter("inv_"+name+"_1", 2, 4))
	if cfg.Inverters == 2 {
		m.inv2 = m.AddDevice(circuit.NewInverter("inv_"+name+"_2", 6, 12))
	}

	m.wireL1 = m.AddWire("wire_"+name+"_L1", tech.LayerLocal)
	m.wireL2 = m.AddWire("wire_"+name+"_L2", tech.LayerLocal)
	if m.inv2 != nil {
		m.wireDriver = m.AddWire("wire_"+name+"_driver", tech.LayerLocal)
	}

	m.probe = m.AddProbe(name)

	return m
}

// Size returns the implementation size.
func (m *RoutingMux) Size() MuxSize {
	return m.size
}

// L1 returns the first-level switch.
func (m *RoutingMux) L1() *circuit.Device {
	return m.l1
}

// L2 returns the second-level switch.
func (m *RoutingMux) L2() *circuit.Device {
	return m.l2
}

// Input returns the first inverter, the load the mux presents once on.
func (m *RoutingMux) Input() *circuit.Device {
	return m.inv1
}

// SetLoad sets what the mux output drives.
func (m *RoutingMux) SetLoad(l circuit.Load) {
	m.load = l
}

// SetInput sets the wire that reaches the mux inputs. The harness then
// starts at the far end of that wire.
func (m *RoutingMux) SetInput(l *SwitchedWireLoad) {
	m.input = l
}

// Generate describes the mux.
func (m *RoutingMux) Generate(b circuit.Backend) circuit.Generated {
	return m.Emit(b)
}

// GenerateTop emits the input-to-output harness.
func (m *RoutingMux) GenerateTop(b circuit.Backend) {
	first := circuit.Drive(nil)
	if m.input != nil {
		first.Append(m.input.Approach()...)
	}

	first.Series(m.l1).
		Drains(m.l1, float64(m.size.Level1-1)).
		Wire(m.wireL1).
		Series(m.l2).
		Drains(m.l2, float64(m.size.Level2-1)).
		Wire(m.wireL2).
		Gates(m.inv1, 1)
	if m.rest != nil {
		first.Drains(m.rest, 1)
	}

	stages := []circuit.Stage{first.Stage()}

	if m.inv2 == nil {
		stages = append(stages,
			circuit.Drive(m.inv1).Append(segments(m.load)...).Stage())
	} else {
		stages = append(stages,
			circuit.Drive(m.inv1).Wire(m.wireDriver).Gates(m.inv2, 1).Stage(),
			circuit.Drive(m.inv2).Append(segments(m.load)...).Stage())
	}

	m.EmitHarness(b, m.probe, stages...)
}

// UpdateArea writes level1*level2 first-level switches, level2 second-level
// switches, the restorer and the buffers, plus one configuration cell per
// select line.
func (m *RoutingMux) UpdateArea(s *circuit.Store) float64 {
	area := float64(m.size.Implemented)*s.Area(m.l1) +
		float64(m.size.Level2)*s.Area(m.l2) +
		s.Area(m.inv1)
	if m.rest != nil {
		area += s.Area(m.rest)
	}
	if m.inv2 != nil {
		area += s.Area(m.inv2)
	}

	return m.StoreArea(s, area, m.size.ConfigBits)
}

// UpdateWires sizes the level wires from the mux width and the driver wire
// from the inverters.
func (m *RoutingMux) UpdateWires(ctx circuit.WireContext) {
	w := ctx.Width(m) * ctx.Ratio
	ctx.SetWireLength(m.wireL1, w)
	ctx.SetWireLength(m.wireL2, w)

	if m.wireDriver != nil {
		ctx.SetWireLength(m.wireDriver,
			(ctx.Width(m.inv1)+ctx.Width(m.inv2))/4)
	}
}

// Mux2Config describes a 2:1 multiplexer.
type Mux2Config struct {
	TGates     bool
	ConfigBits int
	Category   string
	Weight     float64
}

// A Mux2 is a 2:1 multiplexer with a two-inverter buffer. BLE outputs,
// fracturing muxes and carry-chain muxes are 2:1 muxes.
type Mux2 struct {
	*circuit.Leaf

	configBits int

	pass, rest *circuit.Device
	inv1, inv2 *circuit.Device

	wireDriver *circuit.Wire

	probe *circuit.Probe
	load  circuit.Load
}

var _ circuit.SizableComponent = (*Mux2)(nil)

// NewMux2 creates a 2:1 multiplexer.
func NewMux2(name string, cfg Mux2Config) *Mux2 {
	m := &Mux2{
		Leaf:       circuit.NewLeaf(name, cfg.Category, cfg.Weight),
		configBits: cfg.ConfigBits,
	}

	m.pass = m.AddDevice(passDevice(name, cfg.TGates, 2))
	if !cfg.TGates {
		m.rest = m.AddDevice(circuit.NewTransistor("rest_"+name, tech.PMOS, 1))
	}

	m.inv1 = m.AddDevice(circuit.NewInverter("inv_"+name+"_1", 2, 3))
	m.inv2 = m.AddDevice(circuit.NewInverter("inv_"+name+"_2", 4, 8))
	m.wireDriver = m.AddWire("wire_"+name+"_driver", tech.LayerLocal)
	m.probe = m.AddProbe(name)

	return m
}

// Pass returns the input switch.
func (m *Mux2) Pass() *circuit.Device {
	return m.pass
}

// Input returns the first inverter.
func (m *Mux2) Input() *circuit.Device {
	return m.inv1
}

// SetLoad sets what the mux output drives.
func (m *Mux2) SetLoad(l circuit.Load) {
	m.load = l
}

// Generate describes the mux.
func (m *Mux2) Generate(b circuit.Backend) circuit.Generated {
	return m.Emit(b)
}

// GenerateTop emits the input-to-output harness.
func (m *Mux2) GenerateTop(b circuit.Backend) {
	first := circuit.Drive(nil).
		Series(m.pass).
		Drains(m.pass, 1).
		Gates(m.inv1, 1)
	if m.rest != nil {
		first.Drains(m.rest, 1)
	}

	m.EmitHarness(b, m.probe,
		first.Stage(),
		circuit.Drive(m.inv1).Wire(m.wireDriver).Gates(m.inv2, 1).Stage(),
		circuit.Drive(m.inv2).Append(segments(m.load)...).Stage(),
	)
}

// UpdateArea writes two switches, the restorer and the buffers.
func (m *Mux2) UpdateArea(s *circuit.Store) float64 {
	area := 2*s.Area(m.pass) + s.Area(m.inv1) + s.Area(m.inv2)
	if m.rest != nil {
		area += s.Area(m.rest)
	}

	return m.StoreArea(s, area, m.configBits)
}

// UpdateWires sizes the driver wire.
func (m *Mux2) UpdateWires(ctx circuit.WireContext) {
	ctx.SetWireLength(m.wireDriver,
		(ctx.Width(m.inv1)+ctx.Width(m.inv2))/4)
}

func segments(l circuit.Load) []circuit.Segment {
	if l == nil {
		return nil
	}

	return l.Segments()
}

// tapInput hangs count inputs of the mux on a load.
func (m *RoutingMux) tapInput(l *FanoutLoad, count float64) {
	l.Drains(m.Name(), m.l1, count)
}

// tapInput hangs count inputs of the mux on a load.
func (m *Mux2) tapInput(l *FanoutLoad, count float64) {
	l.Drains(m.Name(), m.pass, count)
}
