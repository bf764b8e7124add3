package fabric

import (
	"fmt"

	"github.com/sarchlab/tilesize/circuit"
	"github.com/sarchlab/tilesize/config"
	"github.com/sarchlab/tilesize/delay"
	"github.com/sarchlab/tilesize/tech"
)

// A RowDecoderStage0 holds the predecoders: one NAND decoder per group of 2
// or 3 address bits.
type RowDecoderStage0 struct {
	*circuit.Leaf

	groups []int

	buffer *circuit.Device
	nands  map[int]*circuit.Device
	driver *circuit.Device
	wire   *circuit.Wire

	array *MemoryArray
	next  *RowDecoderStage3
	probe *circuit.Probe
}

var _ circuit.SizableComponent = (*RowDecoderStage0)(nil)

// NewRowDecoderStage0 creates the predecoders of an address split in groups.
func NewRowDecoderStage0(
	name string,
	groups []int,
	array *MemoryArray,
	next *RowDecoderStage3,
) *RowDecoderStage0 {
	r := &RowDecoderStage0{
		Leaf:   circuit.NewLeaf(name, delay.CategoryMemory, 0),
		groups: groups,
		nands:  make(map[int]*circuit.Device),
		array:  array,
		next:   next,
	}

	r.buffer = r.AddDevice(circuit.NewInverter("inv_"+name+"_1", 1, 2))
	for _, g := range groups {
		if g < 2 || g > 3 {
			panic("predecode groups hold 2 or 3 bits")
		}
		if _, ok := r.nands[g]; !ok {
			r.nands[g] = r.AddDevice(
				circuit.NewGate(fmt.Sprintf("nand%d_%s", g, name), 2, 1))
		}
	}
	r.driver = r.AddDevice(circuit.NewInverter("inv_"+name+"_2", 2, 4))
	r.wire = r.AddWire("wire_"+name, tech.LayerLocal)
	r.probe = r.AddProbe(name)

	return r
}

// Bits returns the number of address bits.
func (r *RowDecoderStage0) Bits() int {
	bits := 0
	for _, g := range r.groups {
		bits += g
	}

	return bits
}

// Input returns the address buffer, the load one address bit presents.
func (r *RowDecoderStage0) Input() *circuit.Device {
	return r.buffer
}

// Generate describes the predecoders.
func (r *RowDecoderStage0) Generate(b circuit.Backend) circuit.Generated {
	return r.Emit(b)
}

// GenerateTop emits the address-to-predecoded-line harness of the widest
// group.
func (r *RowDecoderStage0) GenerateTop(b circuit.Backend) {
	g := r.groups[0]
	nand := r.nands[g]
	rows := 1 << r.Bits()

	r.EmitHarness(b, r.probe,
		circuit.Drive(nil).Gates(r.buffer, 1).Stage(),
		circuit.Drive(r.buffer).Gates(nand, float64(int(1)<<(g-1))).Stage(),
		circuit.Drive(nand).Gates(r.driver, 1).Stage(),
		circuit.Drive(r.driver).
			Wire(r.wire).
			Gates(r.next.nand, float64(rows>>g)).
			Stage(),
	)
}

// UpdateArea writes the input buffers and, per group of s bits, 2^s NAND
// gates of fan-in s with their output drivers.
func (r *RowDecoderStage0) UpdateArea(s *circuit.Store) float64 {
	area := float64(r.Bits()) * s.Area(r.buffer)
	for _, g := range r.groups {
		gate := float64(g)*s.Area(r.nands[g]) + s.Area(r.driver)
		area += float64(int(1)<<g) * gate
	}

	return r.StoreArea(s, area, 0)
}

// UpdateWires runs the predecoded lines along the array.
func (r *RowDecoderStage0) UpdateWires(ctx circuit.WireContext) {
	ctx.SetWireLength(r.wire, ctx.Width(r.array))
}

// A RowDecoderStage3 is the final row decoder gate, one per word line, with
// one input per predecode group.
type RowDecoderStage3 struct {
	*circuit.Leaf

	fanin int
	rows  int

	nand *circuit.Device
	inv  *circuit.Device
	wire *circuit.Wire

	next  *WordlineDriver
	probe *circuit.Probe
}

var _ circuit.SizableComponent = (*RowDecoderStage3)(nil)

// NewRowDecoderStage3 creates the final decoder stage.
func NewRowDecoderStage3(name string, fanin, rows int, next *WordlineDriver) *RowDecoderStage3 {
	if fanin < 2 || fanin > 4 {
		panic("final row decoder gates support a fan-in of 2 to 4")
	}

	r := &RowDecoderStage3{
		Leaf:  circuit.NewLeaf(name, delay.CategoryMemory, 0),
		fanin: fanin,
		rows:  rows,
		next:  next,
	}

	r.nand = r.AddDevice(circuit.NewGate("nand_"+name, 2, 1))
	r.inv = r.AddDevice(circuit.NewInverter("inv_"+name, 2, 4))
	r.wire = r.AddWire("wire_"+name, tech.LayerLocal)
	r.probe = r.AddProbe(name)

	return r
}

// Fanin returns the gate fan-in.
func (r *RowDecoderStage3) Fanin() int {
	return r.fanin
}

// Generate describes the stage.
func (r *RowDecoderStage3) Generate(b circuit.Backend) circuit.Generated {
	return r.Emit(b)
}

// GenerateTop emits the predecoded-line-to-word-line-driver harness.
func (r *RowDecoderStage3) GenerateTop(b circuit.Backend) {
	r.EmitHarness(b, r.probe,
		circuit.Drive(nil).Gates(r.nand, 1).Stage(),
		circuit.Drive(r.nand).Wire(r.wire).Gates(r.inv, 1).Stage(),
		circuit.Drive(r.inv).Gates(r.next.inv1, 1).Stage(),
	)
}

// UpdateArea writes one gate per row.
func (r *RowDecoderStage3) UpdateArea(s *circuit.Store) float64 {
	gate := float64(r.fanin)*s.Area(r.nand) + s.Area(r.inv)

	return r.StoreArea(s, float64(r.rows)*gate, 0)
}

// UpdateWires sizes the gate-to-inverter wire.
func (r *RowDecoderStage3) UpdateWires(ctx circuit.WireContext) {
	ctx.SetWireLength(r.wire, (ctx.Width(r.nand)+ctx.Width(r.inv))/4)
}

// A WordlineDriver drives one word line across the array.
type WordlineDriver struct {
	*circuit.Leaf

	rows    int
	columns int

	inv1, inv2 *circuit.Device
	wire       *circuit.Wire

	array *MemoryArray
	probe *circuit.Probe
}

var _ circuit.SizableComponent = (*WordlineDriver)(nil)

// NewWordlineDriver creates the word line drivers.
func NewWordlineDriver(name string, rows, columns int, array *MemoryArray) *WordlineDriver {
	w := &WordlineDriver{
		Leaf:    circuit.NewLeaf(name, delay.CategoryMemory, 0),
		rows:    rows,
		columns: columns,
		array:   array,
	}

	w.inv1 = w.AddDevice(circuit.NewInverter("inv_"+name+"_1", 2, 4))
	w.inv2 = w.AddDevice(circuit.NewInverter("inv_"+name+"_2", 8, 16))
	w.wire = w.AddWire("wire_wordline", tech.LayerWordline)
	w.probe = w.AddProbe(name)

	return w
}

// Generate describes the drivers.
func (w *WordlineDriver) Generate(b circuit.Backend) circuit.Generated {
	return w.Emit(b)
}

// GenerateTop emits the word line harness, ending on every access
// transistor of the row.
func (w *WordlineDriver) GenerateTop(b circuit.Backend) {
	w.EmitHarness(b, w.probe,
		circuit.Drive(nil).Gates(w.inv1, 1).Stage(),
		circuit.Drive(w.inv1).Gates(w.inv2, 1).Stage(),
		circuit.Drive(w.inv2).
			Wire(w.wire).
			Gates(w.array.access, float64(w.columns)).
			Stage(),
	)
}

// UpdateArea writes one driver per row.
func (w *WordlineDriver) UpdateArea(s *circuit.Store) float64 {
	return w.StoreArea(s, float64(w.rows)*(s.Area(w.inv1)+s.Area(w.inv2)), 0)
}

// UpdateWires spans the array width.
func (w *WordlineDriver) UpdateWires(ctx circuit.WireContext) {
	ctx.SetWireLength(w.wire, ctx.Width(w.array))
}

// A MemoryArray is the bit-cell array of one bank with its precharge and
// sense devices. The cells themselves are leaf data of the memory
// technology.
type MemoryArray struct {
	*circuit.Leaf

	rows    int
	columns int
	cell    config.MemoryTechnology
	cellNm2 float64

	access    *circuit.Device
	precharge *circuit.Device
	sense     *circuit.Device
	bitline   *circuit.Wire

	crossbar *OutputCrossbar
	probe    *circuit.Probe
}

var _ circuit.SizableComponent = (*MemoryArray)(nil)

// NewMemoryArray creates an array of rows by columns cells.
func NewMemoryArray(
	name string,
	rows, columns int,
	cell config.MemoryTechnology,
	p tech.Process,
) *MemoryArray {
	a := &MemoryArray{
		Leaf:    circuit.NewLeaf(name, delay.CategoryMemory, 0),
		rows:    rows,
		columns: columns,
		cell:    cell,
		cellNm2: cell.CellArea * p.MinTransistorArea,
	}

	a.access = a.AddDevice(circuit.NewPassTransistor("ptran_"+name+"_access", 1))
	a.precharge = a.AddDevice(
		circuit.NewTransistor("precharge_"+name, tech.PMOS, 2))
	a.sense = a.AddDevice(circuit.NewInverter("inv_"+name+"_sense", 1, 2))
	a.bitline = a.AddWire("wire_bitline", tech.LayerBitline)
	a.probe = a.AddProbe(name)

	return a
}

// SetCrossbar sets the crossbar the sense inverters drive.
func (a *MemoryArray) SetCrossbar(x *OutputCrossbar) {
	a.crossbar = x
}

// Generate describes the array.
func (a *MemoryArray) Generate(b circuit.Backend) circuit.Generated {
	return a.Emit(b)
}

// GenerateTop emits the cell read harness down one bit line.
func (a *MemoryArray) GenerateTop(b circuit.Backend) {
	first := circuit.Drive(nil).
		Fixed(a.cell.CellResistance, 0).
		Series(a.access).
		Wire(a.bitline).
		Drains(a.access, float64(a.rows-1)).
		Drains(a.precharge, 1).
		Fixed(0, a.cell.CellCapacitance*float64(a.rows)).
		Gates(a.sense, 1)

	last := circuit.Drive(a.sense)
	if a.crossbar != nil {
		last.Drains(a.crossbar.column, 1)
	}

	a.EmitHarness(b, a.probe, first.Stage(), last.Stage())
}

// UpdateArea writes the cells, their access transistors and the per-column
// precharge and sense devices.
func (a *MemoryArray) UpdateArea(s *circuit.Store) float64 {
	cells := float64(a.rows * a.columns)
	area := cells*(a.cellNm2+s.Area(a.access)) +
		float64(a.columns)*(s.Area(a.precharge)+s.Area(a.sense))

	return a.StoreArea(s, area, 0)
}

// UpdateWires spans the square array height.
func (a *MemoryArray) UpdateWires(ctx circuit.WireContext) {
	ctx.SetWireLength(a.bitline, ctx.Width(a))
}

// A Decoder is a plain NAND-inverter decoder of a few bits, used for the
// column select and for the configurable data width.
type Decoder struct {
	*circuit.Leaf

	bits int

	nand *circuit.Device
	inv  *circuit.Device
	wire *circuit.Wire

	span  circuit.Named
	probe *circuit.Probe
	load  circuit.Load
}

var _ circuit.SizableComponent = (*Decoder)(nil)

// NewDecoder creates a decoder whose outputs run across span. A zero-bit
// decoder is empty.
func NewDecoder(name string, bits int, span circuit.Named) *Decoder {
	d := &Decoder{
		Leaf: circuit.NewLeaf(name, delay.CategoryMemory, 0),
		bits: bits,
		span: span,
	}

	if bits == 0 {
		return d
	}

	d.nand = d.AddDevice(circuit.NewGate("nand_"+name, 2, 1))
	d.inv = d.AddDevice(circuit.NewInverter("inv_"+name, 2, 4))
	d.wire = d.AddWire("wire_"+name, tech.LayerLocal)
	d.probe = d.AddProbe(name)

	return d
}

// Input returns the decoder gate, or nil for an empty decoder.
func (d *Decoder) Input() *circuit.Device {
	return d.nand
}

// SetLoad sets what the decoder outputs drive.
func (d *Decoder) SetLoad(l circuit.Load) {
	d.load = l
}

// Generate describes the decoder.
func (d *Decoder) Generate(b circuit.Backend) circuit.Generated {
	return d.Emit(b)
}

// GenerateTop emits the address-to-select harness.
func (d *Decoder) GenerateTop(b circuit.Backend) {
	if d.bits == 0 {
		return
	}

	d.EmitHarness(b, d.probe,
		circuit.Drive(nil).Gates(d.nand, 1).Stage(),
		circuit.Drive(d.nand).Gates(d.inv, 1).Stage(),
		circuit.Drive(d.inv).Wire(d.wire).Append(segments(d.load)...).Stage(),
	)
}

// UpdateArea writes 2^b gates of fan-in b.
func (d *Decoder) UpdateArea(s *circuit.Store) float64 {
	if d.bits == 0 {
		return d.StoreArea(s, 0, 0)
	}

	gate := float64(d.bits)*s.Area(d.nand) + s.Area(d.inv)

	return d.StoreArea(s, float64(int(1)<<d.bits)*gate, 0)
}

// UpdateWires runs the select lines across the span.
func (d *Decoder) UpdateWires(ctx circuit.WireContext) {
	if d.wire != nil {
		ctx.SetWireLength(d.wire, ctx.Width(d.span))
	}
}

// An OutputCrossbar selects one of 2^c columns per data bit and routes the
// data bits to the block outputs.
type OutputCrossbar struct {
	*circuit.Leaf

	width   int
	columns int

	column     *circuit.Device
	cross      *circuit.Device
	inv1, inv2 *circuit.Device

	wire       *circuit.Wire
	wireDriver *circuit.Wire

	probe *circuit.Probe
}

var _ circuit.SizableComponent = (*OutputCrossbar)(nil)

// NewOutputCrossbar creates a crossbar of data width outputs with a
// columns:1 column mux in front of each.
func NewOutputCrossbar(name string, width, columns int) *OutputCrossbar {
	x := &OutputCrossbar{
		Leaf:    circuit.NewLeaf(name, delay.CategoryMemory, 0),
		width:   width,
		columns: columns,
	}

	x.column = x.AddDevice(circuit.NewPassTransistor("ptran_"+name+"_column", 2))
	x.cross = x.AddDevice(circuit.NewPassTransistor("ptran_"+name, 2))
	x.inv1 = x.AddDevice(circuit.NewInverter("inv_"+name+"_1", 2, 4))
	x.inv2 = x.AddDevice(circuit.NewInverter("inv_"+name+"_2", 4, 8))
	x.wire = x.AddWire("wire_"+name, tech.LayerLocal)
	x.wireDriver = x.AddWire("wire_"+name+"_driver", tech.LayerLocal)
	x.probe = x.AddProbe(name)

	return x
}

// ColumnSelect returns the column mux switch.
func (x *OutputCrossbar) ColumnSelect() *circuit.Device {
	return x.column
}

// Crosspoint returns the crossbar switch.
func (x *OutputCrossbar) Crosspoint() *circuit.Device {
	return x.cross
}

// Generate describes the crossbar.
func (x *OutputCrossbar) Generate(b circuit.Backend) circuit.Generated {
	return x.Emit(b)
}

// GenerateTop emits the sense-to-output harness.
func (x *OutputCrossbar) GenerateTop(b circuit.Backend) {
	x.EmitHarness(b, x.probe,
		circuit.Drive(nil).
			Series(x.column).
			Drains(x.column, float64(x.columns-1)).
			Series(x.cross).
			Wire(x.wire).
			Drains(x.cross, float64(x.width-1)).
			Gates(x.inv1, 1).
			Stage(),
		circuit.Drive(x.inv1).Wire(x.wireDriver).Gates(x.inv2, 1).Stage(),
		circuit.Drive(x.inv2).Stage(),
	)
}

// UpdateArea writes the column muxes, the crosspoints and the output
// buffers, with one configuration cell per data bit.
func (x *OutputCrossbar) UpdateArea(s *circuit.Store) float64 {
	w := float64(x.width)
	area := w*float64(x.columns)*s.Area(x.column) +
		w*w*s.Area(x.cross) +
		w*(s.Area(x.inv1)+s.Area(x.inv2))

	return x.StoreArea(s, area, x.width)
}

// UpdateWires spans the crossbar and sizes the buffer wire.
func (x *OutputCrossbar) UpdateWires(ctx circuit.WireContext) {
	ctx.SetWireLength(x.wire, ctx.Width(x))
	ctx.SetWireLength(x.wireDriver, (ctx.Width(x.inv1)+ctx.Width(x.inv2))/4)
}
