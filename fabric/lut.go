package fabric

import (
	"fmt"

	"github.com/sarchlab/tilesize/circuit"
	"github.com/sarchlab/tilesize/config"
	"github.com/sarchlab/tilesize/delay"
	"github.com/sarchlab/tilesize/tech"
)

// A LUT is one copy of the pass-transistor tree of a lookup table. A tree of
// depth d has 2^(d-j+1) switches at level j, counted from the configuration
// cells, internal buffers after level ceil(d/2) and an output buffer.
type LUT struct {
	*circuit.Leaf

	depth  int
	buffer int

	sramInv    *circuit.Device
	levels     []*circuit.Device
	int1, int2 *circuit.Device
	out1, out2 *circuit.Device
	intRest    *circuit.Device
	outRest    *circuit.Device

	wireSRAM   *circuit.Wire
	wireLevels []*circuit.Wire
	wireInt    *circuit.Wire
	wireOut    *circuit.Wire

	load circuit.Load
}

var _ circuit.SizableComponent = (*LUT)(nil)

// NewLUT creates a LUT tree of the given depth.
func NewLUT(name string, depth int, tgates bool) *LUT {
	if depth < 2 {
		panic("LUT tree must be at least 2 levels deep")
	}

	l := &LUT{
		Leaf:   circuit.NewLeaf(name, delay.CategoryLUT, 0),
		depth:  depth,
		buffer: (depth + 1) / 2,
	}

	l.sramInv = l.AddDevice(circuit.NewInverter("inv_"+name+"_0", 2, 2))
	for j := 1; j <= depth; j++ {
		d := l.AddDevice(passDevice(fmt.Sprintf("%s_L%d", name, j), tgates, 2))
		l.levels = append(l.levels, d)
	}

	l.int1 = l.AddDevice(circuit.NewInverter("inv_"+name+"_int_buffer_1", 2, 3))
	l.int2 = l.AddDevice(circuit.NewInverter("inv_"+name+"_int_buffer_2", 4, 6))
	l.out1 = l.AddDevice(circuit.NewInverter("inv_"+name+"_out_buffer_1", 3, 4))
	l.out2 = l.AddDevice(circuit.NewInverter("inv_"+name+"_out_buffer_2", 6, 9))
	if !tgates {
		l.intRest = l.AddDevice(
			circuit.NewTransistor("rest_"+name+"_int_buffer", tech.PMOS, 1))
		l.outRest = l.AddDevice(
			circuit.NewTransistor("rest_"+name+"_out_buffer", tech.PMOS, 1))
	}

	l.wireSRAM = l.AddWire("wire_"+name+"_sram_driver", tech.LayerLocal)
	for j := 1; j <= depth; j++ {
		l.wireLevels = append(l.wireLevels,
			l.AddWire(fmt.Sprintf("wire_%s_L%d", name, j), tech.LayerLocal))
	}
	l.wireInt = l.AddWire("wire_"+name+"_int_buffer", tech.LayerLocal)
	l.wireOut = l.AddWire("wire_"+name+"_out_buffer", tech.LayerLocal)

	for idx := 0; idx < depth; idx++ {
		l.AddProbe(config.InputName(idx))
	}

	return l
}

// Depth returns the number of tree levels.
func (l *LUT) Depth() int {
	return l.depth
}

// Level returns the switch of tree level j, counted from 1 at the
// configuration cells.
func (l *LUT) Level(j int) *circuit.Device {
	return l.levels[j-1]
}

// LevelOf returns the tree level an input drives. Input a sits nearest to
// the output.
func (l *LUT) LevelOf(idx int) int {
	return l.depth - idx
}

// SwitchesAt returns the number of switches at level j.
func (l *LUT) SwitchesAt(j int) int {
	return 1 << (l.depth - j + 1)
}

// Buffers returns the number of internal buffers.
func (l *LUT) Buffers() int {
	return 1 << (l.depth - l.buffer)
}

// ConfigBits returns the number of configuration cells of one copy.
func (l *LUT) ConfigBits() int {
	return 1 << l.depth
}

// Output returns the last buffer inverter.
func (l *LUT) Output() *circuit.Device {
	return l.out2
}

// SetLoad sets what the LUT output drives.
func (l *LUT) SetLoad(load circuit.Load) {
	l.load = load
}

// Generate describes the tree.
func (l *LUT) Generate(b circuit.Backend) circuit.Generated {
	return l.Emit(b)
}

// GenerateTop emits one harness per tree input, from the switch the input
// controls to the LUT output.
func (l *LUT) GenerateTop(b circuit.Backend) {
	for idx, p := range l.Probes() {
		l.EmitHarness(b, p, l.inputPath(l.LevelOf(idx))...)
	}
}

func (l *LUT) inputPath(level int) []circuit.Stage {
	var first *circuit.StageBuilder
	if level == 1 {
		first = circuit.Drive(l.sramInv).Wire(l.wireSRAM)
	} else {
		first = circuit.Drive(nil)
	}

	var stages []circuit.Stage

	j := level
	if level <= l.buffer {
		for ; j <= l.buffer; j++ {
			first.Series(l.Level(j)).Drains(l.Level(j), 1).Wire(l.wireLevels[j-1])
		}
		first.Gates(l.int1, 1)
		if l.intRest != nil {
			first.Drains(l.intRest, 1)
		}

		stages = append(stages,
			first.Stage(),
			circuit.Drive(l.int1).Wire(l.wireInt).Gates(l.int2, 1).Stage())
		first = circuit.Drive(l.int2)
	}

	for ; j <= l.depth; j++ {
		first.Series(l.Level(j)).Drains(l.Level(j), 1).Wire(l.wireLevels[j-1])
	}
	first.Gates(l.out1, 1)
	if l.outRest != nil {
		first.Drains(l.outRest, 1)
	}

	return append(stages,
		first.Stage(),
		circuit.Drive(l.out1).Wire(l.wireOut).Gates(l.out2, 1).Stage(),
		circuit.Drive(l.out2).Append(segments(l.load)...).Stage())
}

// UpdateArea writes the area of one copy of the tree.
func (l *LUT) UpdateArea(s *circuit.Store) float64 {
	area := float64(l.ConfigBits()) * s.Area(l.sramInv)
	for j := 1; j <= l.depth; j++ {
		area += float64(l.SwitchesAt(j)) * s.Area(l.Level(j))
	}

	buf := s.Area(l.int1) + s.Area(l.int2)
	if l.intRest != nil {
		buf += s.Area(l.intRest)
	}
	area += float64(l.Buffers()) * buf

	area += s.Area(l.out1) + s.Area(l.out2)
	if l.outRest != nil {
		area += s.Area(l.outRest)
	}

	return l.StoreArea(s, area, l.ConfigBits())
}

// UpdateWires spreads level j across 2^(j-1)/2^d of the tree width and sizes
// the buffer wires from the inverters.
func (l *LUT) UpdateWires(ctx circuit.WireContext) {
	width := ctx.Width(circuit.WithSRAM(l))

	ctx.SetWireLength(l.wireSRAM,
		(ctx.Width(l.sramInv)+ctx.Width(l.Level(1)))/4)

	for j := 1; j <= l.depth; j++ {
		ctx.SetWireLength(l.wireLevels[j-1],
			width*float64(int(1)<<(j-1))/float64(l.ConfigBits()))
	}

	ctx.SetWireLength(l.wireInt, (ctx.Width(l.int1)+ctx.Width(l.int2))/4)
	ctx.SetWireLength(l.wireOut, (ctx.Width(l.out1)+ctx.Width(l.out2))/4)
}

// Driver kinds of a LUT input.
const (
	DriverDefault   = "default"
	DriverRsel      = "rsel"
	DriverRegfb     = "regfb"
	DriverRegfbRsel = "regfb_rsel"
)

// DriverKind returns the driver kind of LUT input letter.
func DriverKind(letter, rsel, rfb string) string {
	isRsel := letter == rsel
	isRfb := false
	for _, r := range rfb {
		if string(r) == letter {
			isRfb = true
		}
	}

	switch {
	case isRsel && isRfb:
		return DriverRegfbRsel
	case isRsel:
		return DriverRsel
	case isRfb:
		return DriverRegfb
	default:
		return DriverDefault
	}
}

// A LUTDriver buffers one LUT input. Register-select and register-feedback
// inputs put a 2:1 mux in front of the buffer.
type LUTDriver struct {
	*circuit.Leaf

	kind  string
	muxes int

	pass, rest, inv0 *circuit.Device
	inv1, inv2       *circuit.Device

	wireMux, wire *circuit.Wire

	probe *circuit.Probe
	load  circuit.Load
}

var _ circuit.SizableComponent = (*LUTDriver)(nil)

// NewLUTDriver creates the driver of LUT input letter.
func NewLUTDriver(name, kind string, tgates bool) *LUTDriver {
	d := &LUTDriver{
		Leaf: circuit.NewLeaf(name, delay.CategoryLUTDriver, 0),
		kind: kind,
	}

	switch kind {
	case DriverDefault:
	case DriverRsel, DriverRegfb:
		d.muxes = 1
	case DriverRegfbRsel:
		d.muxes = 2
	default:
		panic("invalid LUT driver kind " + kind)
	}

	if d.muxes > 0 {
		d.pass = d.AddDevice(passDevice(name+"_0", tgates, 2))
		if !tgates {
			d.rest = d.AddDevice(circuit.NewTransistor("rest_"+name, tech.PMOS, 1))
		}
		d.inv0 = d.AddDevice(circuit.NewInverter("inv_"+name+"_0", 2, 2))
		d.wireMux = d.AddWire("wire_"+name+"_0", tech.LayerLocal)
	}

	d.inv1 = d.AddDevice(circuit.NewInverter("inv_"+name+"_1", 2, 3))
	d.inv2 = d.AddDevice(circuit.NewInverter("inv_"+name+"_2", 4, 6))
	d.wire = d.AddWire("wire_"+name, tech.LayerLocal)
	d.probe = d.AddProbe(name)

	return d
}

// DriverKind returns the driver kind.
func (d *LUTDriver) DriverKind() string {
	return d.kind
}

// Input returns the first device the local mux output drives.
func (d *LUTDriver) Input() *circuit.Device {
	if d.inv0 != nil {
		return d.pass
	}

	return d.inv1
}

// SetLoad sets what the driver output drives.
func (d *LUTDriver) SetLoad(l circuit.Load) {
	d.load = l
}

// Generate describes the driver.
func (d *LUTDriver) Generate(b circuit.Backend) circuit.Generated {
	return d.Emit(b)
}

// GenerateTop emits the input-to-tree harness.
func (d *LUTDriver) GenerateTop(b circuit.Backend) {
	var stages []circuit.Stage

	if d.muxes > 0 {
		first := circuit.Drive(nil).Series(d.pass).Drains(d.pass, 1).Gates(d.inv0, 1)
		if d.rest != nil {
			first.Drains(d.rest, 1)
		}

		stages = append(stages,
			first.Stage(),
			circuit.Drive(d.inv0).Wire(d.wireMux).Gates(d.inv1, 1).Stage())
	} else {
		stages = append(stages, circuit.Drive(nil).Gates(d.inv1, 1).Stage())
	}

	stages = append(stages,
		circuit.Drive(d.inv1).Wire(d.wire).Gates(d.inv2, 1).Stage(),
		circuit.Drive(d.inv2).Append(segments(d.load)...).Stage())

	d.EmitHarness(b, d.probe, stages...)
}

// UpdateArea writes the buffer and the select muxes.
func (d *LUTDriver) UpdateArea(s *circuit.Store) float64 {
	area := s.Area(d.inv1) + s.Area(d.inv2)

	if d.muxes > 0 {
		mux := 2*s.Area(d.pass) + s.Area(d.inv0)
		if d.rest != nil {
			mux += s.Area(d.rest)
		}
		area += float64(d.muxes) * mux
	}

	return d.StoreArea(s, area, d.muxes)
}

// UpdateWires sizes the buffer wires.
func (d *LUTDriver) UpdateWires(ctx circuit.WireContext) {
	ctx.SetWireLength(d.wire, (ctx.Width(d.inv1)+ctx.Width(d.inv2))/4)

	if d.wireMux != nil {
		ctx.SetWireLength(d.wireMux, (ctx.Width(d.inv0)+ctx.Width(d.inv1))/4)
	}
}

// A LUTDriverNot produces the complement of a LUT input for the other half
// of its tree level.
type LUTDriverNot struct {
	*circuit.Leaf

	inv1, inv2 *circuit.Device
	wire       *circuit.Wire

	probe *circuit.Probe
	load  circuit.Load
}

var _ circuit.SizableComponent = (*LUTDriverNot)(nil)

// NewLUTDriverNot creates the complement driver.
func NewLUTDriverNot(name string) *LUTDriverNot {
	d := &LUTDriverNot{
		Leaf: circuit.NewLeaf(name, delay.CategoryDriverNot, 0),
	}

	d.inv1 = d.AddDevice(circuit.NewInverter("inv_"+name+"_1", 1, 1))
	d.inv2 = d.AddDevice(circuit.NewInverter("inv_"+name+"_2", 2, 2))
	d.wire = d.AddWire("wire_"+name, tech.LayerLocal)
	d.probe = d.AddProbe(name)

	return d
}

// SetLoad sets what the driver output drives.
func (d *LUTDriverNot) SetLoad(l circuit.Load) {
	d.load = l
}

// Generate describes the driver.
func (d *LUTDriverNot) Generate(b circuit.Backend) circuit.Generated {
	return d.Emit(b)
}

// GenerateTop emits the complement path.
func (d *LUTDriverNot) GenerateTop(b circuit.Backend) {
	d.EmitHarness(b, d.probe,
		circuit.Drive(nil).Gates(d.inv1, 1).Stage(),
		circuit.Drive(d.inv1).Wire(d.wire).Gates(d.inv2, 1).Stage(),
		circuit.Drive(d.inv2).Append(segments(d.load)...).Stage())
}

// UpdateArea writes the two inverters.
func (d *LUTDriverNot) UpdateArea(s *circuit.Store) float64 {
	return d.StoreArea(s, s.Area(d.inv1)+s.Area(d.inv2), 0)
}

// UpdateWires sizes the buffer wire.
func (d *LUTDriverNot) UpdateWires(ctx circuit.WireContext) {
	ctx.SetWireLength(d.wire, (ctx.Width(d.inv1)+ctx.Width(d.inv2))/4)
}

// tapInput hangs count driver inputs on a load.
func (d *LUTDriver) tapInput(l *FanoutLoad, count float64) {
	if d.pass != nil {
		l.Drains(d.Name(), d.pass, count)
		return
	}

	l.Gates(d.Name(), d.inv1, count)
}
