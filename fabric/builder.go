package fabric

import (
	"fmt"
	"math"

	"github.com/pkg/errors"

	"github.com/sarchlab/tilesize/circuit"
	"github.com/sarchlab/tilesize/config"
	"github.com/sarchlab/tilesize/delay"
	"github.com/sarchlab/tilesize/elmore"
	"github.com/sarchlab/tilesize/opt"
	"github.com/sarchlab/tilesize/tech"
)

// Builder can create FPGA fabrics.
type Builder struct {
	params    config.Params
	backend   circuit.Backend
	simulator delay.Simulator
	weights   delay.Weights
}

// MakeBuilder returns a builder for the default architecture.
func MakeBuilder() Builder {
	return Builder{
		params:  config.Default(),
		weights: delay.DefaultWeights(),
	}
}

// WithParams sets the architecture.
func (b Builder) WithParams(p config.Params) Builder {
	b.params = p
	return b
}

// WithBackend sets the backend that receives descriptions and harnesses.
func (b Builder) WithBackend(backend circuit.Backend) Builder {
	b.backend = backend
	return b
}

// WithSimulator sets the simulator that measures the harnesses.
func (b Builder) WithSimulator(s delay.Simulator) Builder {
	b.simulator = s
	return b
}

// WithWeights sets the delay weights of the representative path.
func (b Builder) WithWeights(w delay.Weights) Builder {
	b.weights = w
	return b
}

// Build validates the architecture and creates the circuit hierarchy. When
// no backend or simulator is set, an Elmore backend serves as both.
func (b Builder) Build(name string) (*FPGA, error) {
	if err := b.params.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid architecture")
	}

	if b.backend == nil || b.simulator == nil {
		e := elmore.NewBackend(b.params.Process)
		if b.backend == nil {
			b.backend = e
		}
		if b.simulator == nil {
			b.simulator = e
		}
	}

	f := &FPGA{
		name:    name,
		params:  b.params,
		variant: b.params.Variant(),
		backend: b.backend,
		meter:   delay.NewMeter(b.simulator),
		weights: b.weights,
		store:   circuit.NewStore(),
		names:   NewNameIDBinding(),
		ratio:   1,
	}

	f.build()

	return f, nil
}

// Factory returns a factory of isolated fabrics for parallel search. Each
// fabric is generated before it is handed out.
func (b Builder) Factory(name string) opt.ProblemFactory {
	return func() (opt.Problem, error) {
		f, err := b.Build(name)
		if err != nil {
			return nil, err
		}

		f.Generate()

		return f, nil
	}
}

func ceilInt(x float64) int {
	return int(math.Ceil(x - 1e-9))
}

func (f *FPGA) register(base string) string {
	return f.names.Register(base)
}

func (f *FPGA) build() {
	p := f.params

	f.tile = circuit.NewComposite(f.register("tile"))
	f.cluster = circuit.NewComposite(f.register("logic_cluster"))
	f.ble = circuit.NewComposite(f.register("ble"))
	f.lutTotal = circuit.NewComposite(f.register("lut_total"))

	f.buildRoutingMuxes()
	f.buildLUT()
	f.buildFractureMuxes()
	f.buildFlipFlop()
	f.buildBLEOutputs()
	f.buildCarryChain()
	f.connectBLE()
	f.assembleBLE()
	f.assembleCluster()
	f.assembleTile()

	if p.Memory.Enabled {
		f.buildRAM()
	}
}

func (f *FPGA) buildRoutingMuxes() {
	p := f.params
	numSB := p.NumSBMux()

	f.sbMux = NewRoutingMux(f.register("sb_mux"), MuxConfig{
		Required: (p.Fs-1)*p.L +
			ceilInt(float64(p.N*p.Or)*p.Fcout*float64(p.W)/float64(numSB)),
		Inverters: 2,
		TGates:    p.UseTGates,
		Category:  delay.CategorySBMux,
		Weight:    f.weights.Of(delay.CategorySBMux),
	})

	f.cbMux = NewRoutingMux(f.register("cb_mux"), MuxConfig{
		Required:  ceilInt(p.Fcin * float64(p.W)),
		Inverters: 2,
		TGates:    p.UseTGates,
		Category:  delay.CategoryCBMux,
		Weight:    f.weights.Of(delay.CategoryCBMux),
	})

	f.localMux = NewRoutingMux(f.register("local_mux"), MuxConfig{
		Required:  ceilInt(float64(p.I+p.N*p.Ofb) * p.Fclocal),
		Inverters: 1,
		TGates:    p.UseTGates,
		Category:  delay.CategoryLocalMux,
		Weight:    f.weights.Of(delay.CategoryLocalMux),
	})
}

func (f *FPGA) buildLUT() {
	p := f.params
	depth := p.LUTDepth()

	f.lut = NewLUT(f.register("lut"), depth, p.UseTGates)

	for idx := 0; idx < p.K; idx++ {
		letter := config.InputName(idx)
		kind := DriverKind(letter, p.Rsel, p.Rfb)

		drv := NewLUTDriver(f.register("lut_"+letter+"_driver"), kind, p.UseTGates)
		f.drivers = append(f.drivers, drv)

		if idx < depth {
			not := NewLUTDriverNot(f.register("lut_" + letter + "_driver_not"))
			f.driverNots = append(f.driverNots, not)
		}
	}
}

// fmuxName returns the leaf name of fracturing level k.
func (f *FPGA) fmuxName(k int) string {
	if k == 1 {
		return f.variant.FirstMux()
	}

	return fmt.Sprintf("fmux_l%d", k)
}

func (f *FPGA) buildFractureMuxes() {
	for k := 1; k <= f.variant.Levels(); k++ {
		m := NewMux2(f.register(f.fmuxName(k)), Mux2Config{
			TGates:     f.params.UseTGates,
			ConfigBits: 1,
			Category:   delay.CategoryFractureMux,
		})
		f.fmux = append(f.fmux, m)
	}
}

func (f *FPGA) buildFlipFlop() {
	sel := f.variant.FlipFlopSelect()
	if sel == 0 && f.params.Rsel != "" {
		sel = 2
	}

	f.ff = NewFlipFlop(f.register("ff"), sel)
}

func (f *FPGA) buildBLEOutputs() {
	p := f.params

	f.localOutput = NewMux2(f.register("local_ble_output"), Mux2Config{
		TGates:     p.UseTGates,
		ConfigBits: 1,
		Category:   delay.CategoryLocalBLEOutput,
		Weight:     f.weights.Of(delay.CategoryLocalBLEOutput),
	})

	if f.variant.GeneralOutput3() {
		f.generalOutput = NewRoutingMux(f.register("general_ble_output"), MuxConfig{
			Required:  3,
			Inverters: 2,
			TGates:    p.UseTGates,
			Category:  delay.CategoryGeneralBLEOutput,
			Weight:    f.weights.Of(delay.CategoryGeneralBLEOutput),
		})
	} else {
		f.generalOutput = NewMux2(f.register("general_ble_output"), Mux2Config{
			TGates:     p.UseTGates,
			ConfigBits: 1,
			Category:   delay.CategoryGeneralBLEOutput,
			Weight:     f.weights.Of(delay.CategoryGeneralBLEOutput),
		})
	}
}

func (f *FPGA) buildCarryChain() {
	p := f.params
	if !p.CarryChain {
		return
	}

	for bit := 0; bit < p.AdderBits; bit++ {
		f.carry = append(f.carry, NewCarryChain(f.register("carry_chain"), f.ble))
		f.carryPerf = append(f.carryPerf,
			NewCarryChainPerf(f.register("carry_chain_perf")))
	}

	f.carryMux = NewMux2(f.register("carry_chain_mux"), Mux2Config{
		TGates:     p.UseTGates,
		ConfigBits: 1,
		Category:   delay.CategoryCarryChain,
	})

	f.carryInter = NewCarryChainInter(f.register("carry_chain_inter"), f.tile, f.carry[0])

	if p.CarryChainType == config.CarrySkip {
		f.skipAnd = NewCarrySkipAnd(f.register("carry_chain_skip_and"),
			p.CarrySkipFanin, p.N*p.AdderBits)
		f.skipMux = NewMux2(f.register("carry_chain_skip_mux"), Mux2Config{
			TGates:     p.UseTGates,
			ConfigBits: 1,
			Category:   delay.CategoryCarryChain,
		})
	}

	if f.variant.LUTSkip() {
		f.flutCC = NewMux2(f.register("flut_cc_mux"), Mux2Config{
			TGates:     p.UseTGates,
			ConfigBits: 1,
			Category:   delay.CategoryCarryChain,
		})
	}
}

// newLocalLoad creates a short load inside a BLE.
func (f *FPGA) newLocalLoad(name string) *FanoutLoad {
	return newFanoutLoad(f.register(name), tech.LayerLocal, widthOf(f.ble, 0.25))
}

// tapOutputs hangs the flip-flop and the BLE output muxes on a load.
func (f *FPGA) tapOutputs(l *FanoutLoad, withFF bool) {
	if withFF {
		f.ff.tapInput(l, 1)
	}

	f.localOutput.tapInput(l, float64(f.params.Ofb))
	f.generalOutput.tapInput(l, float64(f.params.Or))
}

// connectBLE creates the loads inside a BLE and attaches them to their
// drivers.
func (f *FPGA) connectBLE() {
	p := f.params
	levels := f.variant.Levels()
	copies := float64(int(1) << levels)

	// LUT tree output.
	lutOut := f.newLocalLoad("lut_output_load")
	if levels == 0 {
		f.tapOutputs(lutOut, true)
	} else {
		f.fmux[0].tapInput(lutOut, 1)
		if !config.Fracturable(f.variant) || levels == 1 {
			f.ff.tapInput(lutOut, 1)
		}
	}
	f.lut.SetLoad(lutOut)
	f.bleLoads = append(f.bleLoads, lutOut)

	// Fracturing levels.
	for k := 1; k <= levels; k++ {
		l := f.newLocalLoad(f.fmuxName(k) + "_load")
		if k < levels {
			f.fmux[k].tapInput(l, 1)
		} else {
			f.tapOutputs(l, true)
			if f.flutCC != nil {
				f.flutCC.tapInput(l, 1)
			}
		}
		f.fmux[k-1].SetLoad(l)
		f.bleLoads = append(f.bleLoads, l)
	}

	// LUT input drivers.
	depth := f.lut.Depth()
	for idx, drv := range f.drivers {
		l := f.newLocalLoad(drv.Name() + "_load")

		if idx < depth {
			j := f.lut.LevelOf(idx)
			half := float64(f.lut.SwitchesAt(j)/2) * copies
			l.Gates(f.lut.Name(), f.lut.Level(j), half)
			l.Gates(f.driverNots[idx].Name(), f.driverNots[idx].inv1, 1)

			notLoad := f.newLocalLoad(f.driverNots[idx].Name() + "_load")
			notLoad.Gates(f.lut.Name(), f.lut.Level(j), half)
			f.driverNots[idx].SetLoad(notLoad)
			f.bleLoads = append(f.bleLoads, notLoad)
		} else {
			k := idx - depth + 1
			m := f.fmux[k-1]
			l.Gates(m.Name(), m.Pass(), float64(2*f.variant.MuxCount(k)))
		}

		drv.SetLoad(l)
		f.bleLoads = append(f.bleLoads, l)
	}

	// Flip-flop output.
	ffOut := f.newLocalLoad("ff_output_load")
	f.tapOutputs(ffOut, false)
	f.ff.SetLoad(ffOut)
	f.bleLoads = append(f.bleLoads, ffOut)

	// Carry chain.
	if p.CarryChain {
		mux := f.newLocalLoad("carry_chain_mux_load")
		f.tapOutputs(mux, true)
		f.carryMux.SetLoad(mux)

		sum := f.newLocalLoad("carry_chain_perf_load")
		f.carryMux.tapInput(sum, 1)
		for _, perf := range f.carryPerf {
			perf.SetLoad(sum)
		}

		f.bleLoads = append(f.bleLoads, mux, sum)

		if f.flutCC != nil {
			cc := f.newLocalLoad("flut_cc_mux_load")
			cc.Gates(f.carry[0].Name(), f.carry[0].Input(), 1)
			f.flutCC.SetLoad(cc)
			f.bleLoads = append(f.bleLoads, cc)
		}
	}
}

func (f *FPGA) assembleBLE() {
	p := f.params
	v := f.variant

	f.lutTotal.Add(f.lut, float64(int(1)<<v.Levels()))
	for idx, drv := range f.drivers {
		f.lutTotal.Add(drv, float64(f.driverInstances(idx)))
	}
	for _, not := range f.driverNots {
		f.lutTotal.Add(not, 1)
	}

	f.ble.Add(f.lutTotal, 1)
	for k, m := range f.fmux {
		f.ble.Add(m, float64(v.MuxCount(k+1)))
	}
	f.ble.Add(f.ff, float64(v.FlipFlops()))
	f.ble.Add(f.localOutput, float64(p.Ofb))
	f.ble.Add(f.generalOutput, float64(p.Or))

	for i := range f.carry {
		f.ble.Add(f.carry[i], 1)
		f.ble.Add(f.carryPerf[i], 1)
	}
	if f.carryMux != nil {
		f.ble.Add(f.carryMux, 1)
	}
	if f.flutCC != nil {
		f.ble.Add(f.flutCC, 1)
	}

	for _, l := range f.bleLoads {
		f.ble.AddLoad(l)
	}
}

// driverInstances returns the number of physical drivers of LUT input idx.
// The highest inputs of deeply fractured LUTs are duplicated.
func (f *FPGA) driverInstances(idx int) int {
	if idx >= f.params.K-f.variant.DuplicatedInputs() {
		return 2
	}

	return 1
}

func (f *FPGA) assembleCluster() {
	p := f.params

	// Cluster inputs reach the local muxes through the local routing.
	localRouting := newSwitchedWireLoad(f.register("local_routing"),
		tech.LayerLocal, 1,
		tileWidthOf(f.tile, p.InputTrackAccessSpan), f.localMux).
		Reach(f.localMux, ceilInt(float64(p.N*p.K)*p.Fclocal))
	f.cbMux.SetLoad(localRouting)

	localOut := f.newLocalLoad("local_mux_load")
	f.drivers[0].tapInput(localOut, 1)
	f.localMux.SetLoad(localOut)

	feedback := newFanoutLoad(f.register("local_ble_output_load"),
		tech.LayerLocal, widthOf(f.cluster, 0.5))
	f.localMux.tapInput(feedback, float64(ceilInt(float64(p.N*p.K)*p.Fclocal)))
	feedback.Drains(f.localMux.Name(), f.localMux.L2(), 1)
	feedback.Gates(f.localMux.Name(), f.localMux.Input(), 1)
	f.localOutput.SetLoad(feedback)

	f.cluster.Add(f.ble, float64(p.N))
	f.cluster.Add(f.localMux, float64(p.N*p.K))

	if f.carryInter != nil {
		f.cluster.Add(f.carryInter, 1)
	}

	if f.skipAnd != nil {
		and := f.newLocalLoad("carry_chain_skip_and_load")
		and.Gates(f.skipMux.Name(), f.skipMux.Pass(), 2)
		f.skipAnd.SetLoad(and)

		mux := f.newLocalLoad("carry_chain_skip_mux_load")
		mux.Gates(f.carryInter.Name(), f.carryInter.Input(), 1)
		f.skipMux.SetLoad(mux)

		f.cluster.Add(f.skipAnd, 1)
		f.cluster.Add(f.skipMux, 1)
		f.cluster.AddLoad(and).AddLoad(mux)
	}

	f.cluster.AddLoad(localRouting).AddLoad(localOut).AddLoad(feedback)
}

func (f *FPGA) assembleTile() {
	p := f.params

	f.routing = newSwitchedWireLoad(f.register("general_routing"),
		tech.LayerRouting, p.L,
		tileWidthOf(f.tile, float64(p.L)), f.sbMux).
		Reach(f.sbMux, p.Fs-1).
		ReachOn(f.cbMux, ceilInt(float64(p.I*f.cbMux.Size().Required)/float64(p.W)))
	f.sbMux.SetLoad(f.routing)

	tracks := ceilInt(p.Fcout * float64(p.W))
	access := newFanoutLoad(f.register("general_ble_output_load"),
		tech.LayerLocal, tileWidthOf(f.tile, p.OutputTrackAccessSpan))
	f.sbMux.tapInput(access, float64(tracks))
	access.Drains(f.sbMux.Name(), f.sbMux.L2(), 1)
	access.Gates(f.sbMux.Name(), f.sbMux.Input(), 1)
	f.generalOutput.SetLoad(access)

	f.tile.Add(f.sbMux, float64(p.NumSBMux()))
	f.tile.Add(f.cbMux, float64(p.I))
	f.tile.Add(f.cluster, 1)
	f.tile.WithFixedArea(p.HardBlockArea)
	f.tile.AddLoad(f.routing).AddLoad(access)
}

func (f *FPGA) buildRAM() {
	p := f.params
	m := p.Memory
	rows := m.Rows()
	columns := m.Columns()
	groups := m.PredecodeGroups()

	bank := circuit.NewComposite(f.register("ram_bank"))
	f.ram = circuit.NewComposite(f.register("ram"))

	array := NewMemoryArray(f.register("memory_array"), rows, columns,
		m.Technology, f.params.Process)
	wordline := NewWordlineDriver(f.register("wordline_driver"), rows, columns, array)
	stage3 := NewRowDecoderStage3(f.register("row_decoder_stage3"),
		len(groups), rows, wordline)
	stage0 := NewRowDecoderStage0(f.register("row_decoder_stage0"),
		groups, array, stage3)

	crossbar := NewOutputCrossbar(f.register("output_crossbar"),
		m.DataWidth(), int(1)<<m.ColumnDecoderBits)
	array.SetCrossbar(crossbar)

	column := NewDecoder(f.register("column_decoder"), m.ColumnDecoderBits, array)
	columnLoad := newFanoutLoad(f.register("column_decoder_load"),
		tech.LayerLocal, widthOf(crossbar, 1))
	columnLoad.Gates(crossbar.Name(), crossbar.ColumnSelect(), float64(m.DataWidth()))
	column.SetLoad(columnLoad)

	conf := NewDecoder(f.register("configurable_decoder"), m.ConfDecoderBits, crossbar)

	// Block inputs reach the RAM local muxes, which drive the decoders.
	localMux := NewRoutingMux(f.register("ram_local_mux"), MuxConfig{
		Required:  ceilInt(float64(p.I) * p.Fclocal),
		Inverters: 2,
		TGates:    p.UseTGates,
		Category:  delay.CategoryMemory,
	})
	localRouting := newSwitchedWireLoad(f.register("ram_local_routing"),
		tech.LayerLocal, 1,
		tileWidthOf(f.ram, p.InputTrackAccessSpan), localMux).
		Reach(localMux, ceilInt(float64(m.Inputs())*p.Fclocal))
	localMux.SetInput(localRouting)

	localLoad := newFanoutLoad(f.register("ram_local_mux_load"),
		tech.LayerLocal, widthOf(stage0, 0.5))
	localLoad.Gates(stage0.Name(), stage0.Input(), 2)
	if column.Input() != nil {
		localLoad.Gates(column.Name(), column.Input(), 2)
	}
	localMux.SetLoad(localLoad)

	bank.Add(stage0, 1).
		Add(stage3, 1).
		Add(wordline, 1).
		Add(array, 1).
		Add(column, 1).
		Add(crossbar, 1).
		AddLoad(columnLoad)

	f.ram.Add(bank, 2).
		Add(conf, 1).
		Add(localMux, float64(m.Inputs())).
		AddLoad(localRouting).
		AddLoad(localLoad)

	if m.ConfDecoderBits > 0 {
		confLoad := newFanoutLoad(f.register("configurable_decoder_load"),
			tech.LayerLocal, widthOf(crossbar, 1))
		confLoad.Gates(crossbar.Name(), crossbar.Crosspoint(), float64(m.DataWidth()))
		conf.SetLoad(confLoad)
		f.ram.AddLoad(confLoad)
	}

	f.memory = []circuit.SizableComponent{
		localMux, stage0, stage3, wordline, array, column, crossbar,
	}
}
