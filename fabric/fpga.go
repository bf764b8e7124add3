// Package fabric builds the circuit hierarchy of an FPGA tile from its
// architecture parameters and evaluates it: area rollup, floorplanning, wire
// estimation, delay measurement and the representative critical path.
package fabric

import (
	"math"
	"sort"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/tilesize/circuit"
	"github.com/sarchlab/tilesize/config"
	"github.com/sarchlab/tilesize/delay"
	"github.com/sarchlab/tilesize/opt"
)

// bleOutput is a BLE output mux, 2:1 or 3:1 depending on the variant.
type bleOutput interface {
	circuit.SizableComponent

	SetLoad(l circuit.Load)
	tapInput(l *FanoutLoad, count float64)
}

// An FPGA is the circuit hierarchy of one tile, and of the RAM block when
// memory is enabled, together with the derived-value store of its current
// evaluation. An FPGA evaluates one assignment at a time.
type FPGA struct {
	name    string
	params  config.Params
	variant config.Variant
	backend circuit.Backend
	meter   *delay.Meter
	weights delay.Weights
	store   *circuit.Store
	names   *NameIDBinding

	tile     *circuit.Composite
	cluster  *circuit.Composite
	ble      *circuit.Composite
	lutTotal *circuit.Composite
	ram      *circuit.Composite

	sbMux, cbMux, localMux *RoutingMux

	lut        *LUT
	drivers    []*LUTDriver
	driverNots []*LUTDriverNot
	fmux       []*Mux2
	ff         *FlipFlop

	localOutput   *Mux2
	generalOutput bleOutput

	carry      []*CarryChain
	carryPerf  []*CarryChainPerf
	carryMux   *Mux2
	carryInter *CarryChainInter
	skipAnd    *CarrySkipAnd
	skipMux    *Mux2
	flutCC     *Mux2

	memory []circuit.SizableComponent

	routing  *SwitchedWireLoad
	bleLoads []circuit.Load

	leaves   []circuit.SizableComponent
	defaults circuit.Sizing

	sizing circuit.Sizing
	height float64
	ratio  float64
	terms  []delay.Term
	delay  sim.VTimeInSec
}

var _ opt.Problem = (*FPGA)(nil)

// Name returns the name of the fabric.
func (f *FPGA) Name() string {
	return f.name
}

// Params returns the architecture.
func (f *FPGA) Params() config.Params {
	return f.params
}

// Variant returns the fracturing variant.
func (f *FPGA) Variant() config.Variant {
	return f.variant
}

// Names returns the component naming of the fabric.
func (f *FPGA) Names() *NameIDBinding {
	return f.names
}

// Tile returns the tile root.
func (f *FPGA) Tile() *circuit.Composite {
	return f.tile
}

// RAM returns the RAM root, or nil when memory is disabled.
func (f *FPGA) RAM() *circuit.Composite {
	return f.ram
}

// Store returns the derived-value store of the last evaluation.
func (f *FPGA) Store() *circuit.Store {
	return f.store
}

// Leaves returns every sizable leaf of the fabric.
func (f *FPGA) Leaves() []circuit.SizableComponent {
	if f.leaves == nil {
		f.leaves = f.tile.Leaves()
		if f.ram != nil {
			f.leaves = append(f.leaves, f.ram.Leaves()...)
		}
	}

	return f.leaves
}

// Generate emits every description and harness to the backend, once, and
// returns the default sizing.
func (f *FPGA) Generate() circuit.Sizing {
	if f.defaults != nil {
		return f.defaults.Clone()
	}

	f.defaults = make(circuit.Sizing)

	roots := []*circuit.Composite{f.tile}
	if f.ram != nil {
		roots = append(roots, f.ram)
	}

	for _, r := range roots {
		g := r.Generate(f.backend)
		for k, v := range g.Defaults {
			f.defaults[k] = v
		}

		r.GenerateTop(f.backend)
	}

	circuit.Trace("fabric generated",
		"Component", f.name,
		"Transistor", len(f.defaults),
		"Leaves", len(f.Leaves()))

	return f.defaults.Clone()
}

// Evaluate runs a full pass on the assignment: the tile height entry, when
// present, floorplans the tile and every other entry overrides a default
// drive strength.
func (f *FPGA) Evaluate(a opt.Assignment) opt.Evaluation {
	f.Generate()

	sz := f.defaults.Clone()
	height := 0.0

	for k, v := range a {
		if k == opt.HeightParam {
			height = v
			continue
		}

		if _, ok := sz[k]; !ok {
			panic("unknown sizing element " + k)
		}
		sz[k] = v
	}

	f.UpdateArea(sz)
	f.Floorplan(height)
	f.UpdateWires()
	f.UpdateRC()
	f.UpdateDelays()

	e := opt.Evaluation{
		Area:  f.CostArea(),
		Delay: f.delay,
		Valid: f.meter.Valid(),
	}

	circuit.Trace("evaluation",
		"Component", f.name,
		"Area", e.Area,
		"Delay", float64(e.Delay),
		"Valid", e.Valid)

	return e
}

// UpdateArea starts a new pass and rolls the device areas of the sizing up
// to the roots.
func (f *FPGA) UpdateArea(sz circuit.Sizing) {
	f.sizing = sz
	f.store.Begin()
	f.store.SetArea(circuit.SRAMCell, f.params.Process.SRAMArea())

	for _, l := range f.Leaves() {
		for _, d := range l.Devices() {
			circuit.UpdateDeviceArea(f.store, d, sz, f.params.Process)
		}
	}

	f.tile.UpdateArea(f.store)
	if f.ram != nil {
		f.ram.UpdateArea(f.store)
	}
}

// Floorplan gives the tile the requested height, keeping its area. The
// height is clipped to the allowed aspect ratio. A zero height keeps the
// tile square.
func (f *FPGA) Floorplan(height float64) {
	area := f.store.Area(f.tile)
	side := math.Sqrt(area)

	if height <= 0 {
		f.height = side
		f.ratio = 1
		return
	}

	aspect := f.params.MaxTileAspect
	height = math.Min(math.Max(height, side/aspect), side*aspect)

	f.store.SetWidth(f.tile, area/height)
	f.height = height
	f.ratio = height / side
}

// UpdateWires writes every wire length of the pass.
func (f *FPGA) UpdateWires() {
	ctx := circuit.WireContext{Store: f.store, Ratio: f.ratio}

	f.tile.UpdateWires(ctx)
	if f.ram != nil {
		f.ram.UpdateWires(ctx)
	}
}

// UpdateRC converts the wire lengths into resistance and capacitance.
func (f *FPGA) UpdateRC() {
	f.store.UpdateRC(f.params.Process.Metal)
}

// UpdateDelays measures every probe and assembles the representative path.
func (f *FPGA) UpdateDelays() {
	f.meter.Reset()
	params := delay.Marshal(f.sizing, f.store)

	for _, l := range f.Leaves() {
		for _, p := range l.Probes() {
			f.meter.Measure(l, p, params)
		}
	}

	pb := delay.NewPathBuilder(f.weights)
	f.addPathTerms(pb)

	f.terms = pb.Terms()
	f.delay = delay.RepresentativePath(f.terms)
}

func delayOf(l circuit.SizableComponent) sim.VTimeInSec {
	return l.Probes()[0].Timing().Delay
}

func (f *FPGA) addPathTerms(pb *delay.PathBuilder) {
	for _, l := range []circuit.SizableComponent{
		f.sbMux, f.cbMux, f.localMux, f.localOutput, f.generalOutput,
	} {
		pb.Add(l.Name(), l.Category(), delayOf(l))
	}

	depth := f.lut.Depth()
	levels := f.variant.Levels()

	for idx, drv := range f.drivers {
		letter := config.InputName(idx)
		delays := []sim.VTimeInSec{delayOf(drv)}

		from := idx - depth + 1
		if idx < depth {
			delays = append(delays, f.lut.Probe(letter).Timing().Delay)
			from = 1
		}

		for k := from; k <= levels; k++ {
			delays = append(delays, delayOf(f.fmux[k-1]))
		}

		pb.Add("lut_"+letter, delay.LUTCategory(letter), delays...)
	}

	switch {
	case f.flutCC != nil:
		pb.Add(f.flutCC.Name(), delay.CategoryLUTFrac, delayOf(f.flutCC))
	case levels > 0:
		pb.Add(f.fmux[0].Name(), delay.CategoryLUTFrac, delayOf(f.fmux[0]))
	}

	if f.ram != nil {
		var ram []sim.VTimeInSec
		for _, l := range f.memory {
			if len(l.Probes()) > 0 {
				ram = append(ram, delayOf(l))
			}
		}

		pb.Add(f.ram.Name(), delay.CategoryRAM, ram...)
	}
}

// CostArea returns the area the optimiser minimises: the tile, plus the
// RAM block when memory is enabled.
func (f *FPGA) CostArea() float64 {
	area := f.store.Area(f.tile)
	if f.ram != nil {
		area += f.store.Area(f.ram)
	}

	return area
}

// Delay returns the representative path delay of the last evaluation.
func (f *FPGA) Delay() sim.VTimeInSec {
	return f.delay
}

// Valid tells whether every measurement of the last evaluation was valid.
func (f *FPGA) Valid() bool {
	return f.meter.Valid()
}

// Terms returns the representative path terms of the last evaluation.
func (f *FPGA) Terms() []delay.Term {
	return f.terms
}

// TileHeight returns the tile height of the last evaluation.
func (f *FPGA) TileHeight() float64 {
	return f.height
}

// InitialAssignment evaluates the default sizing and returns it together
// with the square tile height.
func (f *FPGA) InitialAssignment() opt.Assignment {
	a := opt.Assignment(f.Generate())
	f.Evaluate(a)
	a[opt.HeightParam] = f.height

	return a
}

// LowerBounds returns the minimum drive strength of every sizing element.
func (f *FPGA) LowerBounds() map[string]float64 {
	bounds := make(map[string]float64)
	for k := range f.Generate() {
		bounds[k] = 1
	}

	return bounds
}

// SizingGroups returns one search group per sizing element, in name order.
func (f *FPGA) SizingGroups() []opt.Group {
	names := f.Generate().Names()
	groups := make([]opt.Group, 0, len(names))
	for _, n := range names {
		groups = append(groups, opt.SingleParam(n))
	}

	return groups
}

// AreaSnapshot returns every area entry of the last pass in nm².
func (f *FPGA) AreaSnapshot() map[string]float64 {
	return f.store.Areas()
}

// WidthSnapshot returns every width entry of the last pass in nm.
func (f *FPGA) WidthSnapshot() map[string]float64 {
	return f.store.Widths()
}

// DelaySnapshot returns the delay of every probe of the last evaluation. A
// leaf with one probe is keyed by its name, others by leaf.probe.
func (f *FPGA) DelaySnapshot() map[string]sim.VTimeInSec {
	out := make(map[string]sim.VTimeInSec)

	for _, l := range f.Leaves() {
		probes := l.Probes()
		for _, p := range probes {
			key := l.Name()
			if len(probes) > 1 {
				key += "." + p.Name()
			}
			out[key] = p.Timing().Delay
		}
	}

	return out
}

// Report categories of the tile area.
const (
	AreaLUT             = "LUT"
	AreaFF              = "FF"
	AreaBLEOutput       = "BLE output"
	AreaLocalMux        = "Local mux"
	AreaConnectionBlock = "Connection block"
	AreaSwitchBlock     = "Switch block"
	AreaNonActive       = "Non-active"
)

// AreaShare is the contribution of one category to the tile area.
type AreaShare struct {
	Name    string
	Area    float64
	Percent float64
}

// AreaBreakdown splits the tile area of the last pass into report
// categories, in µm². Non-active is what the six active categories leave.
func (f *FPGA) AreaBreakdown() []AreaShare {
	p := f.params
	s := f.store
	withSRAM := func(n circuit.Named) float64 {
		return s.Area(circuit.WithSRAM(n))
	}

	lut := s.Area(f.lutTotal)
	for k, m := range f.fmux {
		lut += float64(f.variant.MuxCount(k+1)) * withSRAM(m)
	}

	ffCount := 1.0
	if config.Fracturable(f.variant) {
		ffCount = 2
	}

	n := float64(p.N)
	active := []AreaShare{
		{Name: AreaLUT, Area: n * lut},
		{Name: AreaFF, Area: n * ffCount * withSRAM(f.ff)},
		{Name: AreaBLEOutput, Area: n * (float64(p.Ofb)*withSRAM(f.localOutput) +
			float64(p.Or)*withSRAM(f.generalOutput))},
		{Name: AreaLocalMux, Area: n * float64(p.K) * withSRAM(f.localMux)},
		{Name: AreaConnectionBlock, Area: float64(p.I) * withSRAM(f.cbMux)},
		{Name: AreaSwitchBlock, Area: float64(p.NumSBMux()) * withSRAM(f.sbMux)},
	}

	tile := s.Area(f.tile)
	rest := tile
	for _, a := range active {
		rest -= a.Area
	}

	shares := append(active, AreaShare{Name: AreaNonActive, Area: rest})
	for i := range shares {
		shares[i].Percent = 100 * shares[i].Area / tile
		shares[i].Area /= 1e6
	}

	return shares
}

// Frequency returns the clock frequency of the representative path.
func (f *FPGA) Frequency() sim.Freq {
	if f.delay <= 0 {
		return 0
	}

	return sim.Freq(1 / float64(f.delay))
}

// LeafNames returns the sorted names of every sizable leaf.
func (f *FPGA) LeafNames() []string {
	names := make([]string, 0, len(f.Leaves()))
	for _, l := range f.Leaves() {
		names = append(names, l.Name())
	}

	sort.Strings(names)

	return names
}
