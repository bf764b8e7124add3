package fabric

import (
	"github.com/sarchlab/tilesize/circuit"
	"github.com/sarchlab/tilesize/delay"
	"github.com/sarchlab/tilesize/tech"
)

// A CarryChain is one full-adder bit of the ripple carry chain.
type CarryChain struct {
	*circuit.Leaf

	cin    *circuit.Device
	xor    *circuit.Device
	tgate1 *circuit.Device
	tgate2 *circuit.Device
	sum    *circuit.Device

	wireInternal *circuit.Wire
	wireCarry    *circuit.Wire

	ble   circuit.Named
	probe *circuit.Probe
}

var _ circuit.SizableComponent = (*CarryChain)(nil)

// NewCarryChain creates a full adder. The carry wire spans one BLE.
func NewCarryChain(name string, ble circuit.Named) *CarryChain {
	c := &CarryChain{
		Leaf: circuit.NewLeaf(name, delay.CategoryCarryChain, 0),
		ble:  ble,
	}

	c.cin = c.AddDevice(circuit.NewInverter("inv_"+name+"_1", 1, 2))
	c.xor = c.AddDevice(circuit.NewGate("xor_"+name, 1, 2))
	c.tgate1 = c.AddDevice(circuit.NewTransmissionGate("tgate_"+name+"_1", 1, 1))
	c.tgate2 = c.AddDevice(circuit.NewTransmissionGate("tgate_"+name+"_2", 1, 1))
	c.sum = c.AddDevice(circuit.NewInverter("inv_"+name+"_2", 2, 4))

	c.wireInternal = c.AddWire("wire_"+name+"_1", tech.LayerLocal)
	c.wireCarry = c.AddWire("wire_"+name+"_2", tech.LayerLocal)

	c.probe = c.AddProbe(name)

	return c
}

// Input returns the carry-in inverter.
func (c *CarryChain) Input() *circuit.Device {
	return c.cin
}

// Generate describes the adder.
func (c *CarryChain) Generate(b circuit.Backend) circuit.Generated {
	return c.Emit(b)
}

// GenerateTop emits the carry-in to carry-out harness, ending on the next
// adder.
func (c *CarryChain) GenerateTop(b circuit.Backend) {
	c.EmitHarness(b, c.probe,
		circuit.Drive(nil).Gates(c.cin, 1).Stage(),
		circuit.Drive(c.cin).
			Wire(c.wireInternal).
			Series(c.tgate1).
			Drains(c.tgate2, 1).
			Wire(c.wireCarry).
			Gates(c.cin, 1).
			Gates(c.xor, 1).
			Stage(),
	)
}

// UpdateArea writes the adder.
func (c *CarryChain) UpdateArea(s *circuit.Store) float64 {
	area := s.Area(c.cin) + 2*s.Area(c.xor) +
		2*s.Area(c.tgate1) + 2*s.Area(c.tgate2) + s.Area(c.sum)

	return c.StoreArea(s, area, 0)
}

// UpdateWires sizes the internal wire from the devices and the carry wire
// from the BLE width.
func (c *CarryChain) UpdateWires(ctx circuit.WireContext) {
	ctx.SetWireLength(c.wireInternal, (ctx.Width(c.cin)+ctx.Width(c.tgate1))/4)
	ctx.SetWireLength(c.wireCarry, ctx.Width(c.ble))
}

// A CarryChainPerf drives the sum bit towards the BLE output mux.
type CarryChainPerf struct {
	*circuit.Leaf

	tgate *circuit.Device
	inv   *circuit.Device
	wire  *circuit.Wire

	probe *circuit.Probe
	load  circuit.Load
}

var _ circuit.SizableComponent = (*CarryChainPerf)(nil)

// NewCarryChainPerf creates the sum output stage.
func NewCarryChainPerf(name string) *CarryChainPerf {
	c := &CarryChainPerf{
		Leaf: circuit.NewLeaf(name, delay.CategoryCarryChain, 0),
	}

	c.tgate = c.AddDevice(circuit.NewTransmissionGate("tgate_"+name, 1, 1))
	c.inv = c.AddDevice(circuit.NewInverter("inv_"+name+"_1", 1, 2))
	c.wire = c.AddWire("wire_"+name, tech.LayerLocal)
	c.probe = c.AddProbe(name)

	return c
}

// SetLoad sets what the sum output drives.
func (c *CarryChainPerf) SetLoad(l circuit.Load) {
	c.load = l
}

// Generate describes the stage.
func (c *CarryChainPerf) Generate(b circuit.Backend) circuit.Generated {
	return c.Emit(b)
}

// GenerateTop emits the sum-to-output harness.
func (c *CarryChainPerf) GenerateTop(b circuit.Backend) {
	c.EmitHarness(b, c.probe,
		circuit.Drive(nil).Series(c.tgate).Wire(c.wire).Gates(c.inv, 1).Stage(),
		circuit.Drive(c.inv).Append(segments(c.load)...).Stage(),
	)
}

// UpdateArea writes the stage.
func (c *CarryChainPerf) UpdateArea(s *circuit.Store) float64 {
	return c.StoreArea(s, 2*s.Area(c.tgate)+s.Area(c.inv), 0)
}

// UpdateWires sizes the stage wire.
func (c *CarryChainPerf) UpdateWires(ctx circuit.WireContext) {
	ctx.SetWireLength(c.wire, (ctx.Width(c.tgate)+ctx.Width(c.inv))/4)
}

// A CarryChainInter drives the carry out of a cluster into the cluster
// below, across one tile height.
type CarryChainInter struct {
	*circuit.Leaf

	inv1, inv2 *circuit.Device
	wire       *circuit.Wire

	tile  circuit.Named
	next  *CarryChain
	probe *circuit.Probe
}

var _ circuit.SizableComponent = (*CarryChainInter)(nil)

// NewCarryChainInter creates the inter-cluster driver.
func NewCarryChainInter(name string, tile circuit.Named, next *CarryChain) *CarryChainInter {
	c := &CarryChainInter{
		Leaf: circuit.NewLeaf(name, delay.CategoryCarryChain, 0),
		tile: tile,
		next: next,
	}

	c.inv1 = c.AddDevice(circuit.NewInverter("inv_"+name+"_1", 2, 4))
	c.inv2 = c.AddDevice(circuit.NewInverter("inv_"+name+"_2", 4, 8))
	c.wire = c.AddWire("wire_"+name, tech.LayerRouting)
	c.probe = c.AddProbe(name)

	return c
}

// Input returns the first inverter.
func (c *CarryChainInter) Input() *circuit.Device {
	return c.inv1
}

// Generate describes the driver.
func (c *CarryChainInter) Generate(b circuit.Backend) circuit.Generated {
	return c.Emit(b)
}

// GenerateTop emits the cluster-to-cluster harness.
func (c *CarryChainInter) GenerateTop(b circuit.Backend) {
	c.EmitHarness(b, c.probe,
		circuit.Drive(nil).Gates(c.inv1, 1).Stage(),
		circuit.Drive(c.inv1).Gates(c.inv2, 1).Stage(),
		circuit.Drive(c.inv2).Wire(c.wire).Gates(c.next.Input(), 1).Stage(),
	)
}

// UpdateArea writes the two inverters.
func (c *CarryChainInter) UpdateArea(s *circuit.Store) float64 {
	return c.StoreArea(s, s.Area(c.inv1)+s.Area(c.inv2), 0)
}

// UpdateWires spans the tile height.
func (c *CarryChainInter) UpdateWires(ctx circuit.WireContext) {
	ctx.SetWireLength(c.wire, tileHeightOf(c.tile)(ctx))
}

// A CarrySkipAnd is the AND tree over the propagate signals of a cluster
// that lets the carry skip it.
type CarrySkipAnd struct {
	*circuit.Leaf

	fanin int
	bits  int

	nand *circuit.Device
	inv  *circuit.Device
	wire *circuit.Wire

	probe *circuit.Probe
	load  circuit.Load
}

var _ circuit.SizableComponent = (*CarrySkipAnd)(nil)

// NewCarrySkipAnd creates an AND tree of the given gate fan-in over bits
// inputs.
func NewCarrySkipAnd(name string, fanin, bits int) *CarrySkipAnd {
	if fanin < 2 || fanin > 4 {
		panic("carry skip gates support a fan-in of 2 to 4")
	}

	c := &CarrySkipAnd{
		Leaf:  circuit.NewLeaf(name, delay.CategoryCarryChain, 0),
		fanin: fanin,
		bits:  bits,
	}

	c.nand = c.AddDevice(circuit.NewGate("nand_"+name, 2, 1))
	c.inv = c.AddDevice(circuit.NewInverter("inv_"+name, 1, 2))
	c.wire = c.AddWire("wire_"+name, tech.LayerLocal)
	c.probe = c.AddProbe(name)

	return c
}

// Levels returns the number of gate levels of the tree.
func (c *CarrySkipAnd) Levels() int {
	levels := 0
	for n := c.bits; n > 1; n = ceilDiv(n, c.fanin) {
		levels++
	}

	return max(levels, 1)
}

// Gates returns the number of AND gates of the tree.
func (c *CarrySkipAnd) Gates() int {
	gates := 0
	for n := c.bits; n > 1; {
		n = ceilDiv(n, c.fanin)
		gates += n
	}

	return max(gates, 1)
}

// SetLoad sets what the tree output drives.
func (c *CarrySkipAnd) SetLoad(l circuit.Load) {
	c.load = l
}

// Generate describes the tree.
func (c *CarrySkipAnd) Generate(b circuit.Backend) circuit.Generated {
	return c.Emit(b)
}

// GenerateTop emits the propagate-to-skip harness through every level.
func (c *CarrySkipAnd) GenerateTop(b circuit.Backend) {
	stages := []circuit.Stage{circuit.Drive(nil).Gates(c.nand, 1).Stage()}

	levels := c.Levels()
	for l := 0; l < levels; l++ {
		stages = append(stages, circuit.Drive(c.nand).Gates(c.inv, 1).Stage())

		next := circuit.Drive(c.inv).WirePart(c.wire, 1/float64(levels))
		if l == levels-1 {
			next.Append(segments(c.load)...)
		} else {
			next.Gates(c.nand, 1)
		}
		stages = append(stages, next.Stage())
	}

	c.EmitHarness(b, c.probe, stages...)
}

// UpdateArea writes every gate: a fan-in f NAND stacks f transistors of
// each polarity.
func (c *CarrySkipAnd) UpdateArea(s *circuit.Store) float64 {
	gate := float64(c.fanin)*s.Area(c.nand) + s.Area(c.inv)

	return c.StoreArea(s, float64(c.Gates())*gate, 0)
}

// UpdateWires spans half the tree width.
func (c *CarrySkipAnd) UpdateWires(ctx circuit.WireContext) {
	ctx.SetWireLength(c.wire, ctx.Width(c)/2)
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
