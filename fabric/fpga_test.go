package fabric_test

import (
	"math"

	"github.com/golang/mock/gomock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/tilesize/circuit"
	"github.com/sarchlab/tilesize/config"
	"github.com/sarchlab/tilesize/delay"
	"github.com/sarchlab/tilesize/elmore"
	"github.com/sarchlab/tilesize/fabric"
	"github.com/sarchlab/tilesize/opt"
)

func build(p config.Params) *fabric.FPGA {
	f, err := fabric.MakeBuilder().WithParams(p).Build("fpga")
	Expect(err).NotTo(HaveOccurred())

	return f
}

func level2Params() config.Params {
	p := config.Default()
	p.VariantCode = 2
	p.Rsel = ""

	return p
}

var _ = Describe("FPGA", func() {
	var (
		f *fabric.FPGA
		a opt.Assignment
	)

	BeforeEach(func() {
		f = build(config.Default())
		a = f.InitialAssignment()
	})

	It("should produce a valid evaluation with the default sizing", func() {
		e := f.Evaluate(a)

		Expect(e.Valid).To(BeTrue())
		Expect(e.Area).To(BeNumerically(">", 0))
		Expect(e.Delay).To(BeNumerically(">", 0))
		Expect(e.Delay).To(BeNumerically("<", delay.Poison))
		Expect(f.Frequency()).To(BeNumerically(">", 0))
	})

	It("should start from a square tile", func() {
		s := f.Store()

		Expect(a[opt.HeightParam]).To(Equal(math.Sqrt(s.Area(f.Tile()))))
	})

	It("should keep every width the square root of its area except the tile", func() {
		a[opt.HeightParam] *= 1.2
		f.Evaluate(a)

		areas := f.AreaSnapshot()
		widths := f.WidthSnapshot()
		Expect(widths).To(HaveLen(len(areas)))

		for name, area := range areas {
			if name == f.Tile().Name() {
				Expect(widths[name]).To(Equal(area / f.TileHeight()))
				continue
			}

			Expect(widths[name]).To(Equal(math.Sqrt(area)), name)
		}
	})

	It("should clip the tile height to the aspect limit", func() {
		side := a[opt.HeightParam]
		a[opt.HeightParam] = side * 100
		f.Evaluate(a)

		Expect(f.TileHeight()).To(
			BeNumerically("~", side*f.Params().MaxTileAspect, side*1e-9))
	})

	It("should give identical results for an unchanged assignment", func() {
		first := f.Evaluate(a)
		areas := f.AreaSnapshot()
		delays := f.DelaySnapshot()
		terms := f.Terms()

		second := f.Evaluate(a)

		Expect(second).To(Equal(first))
		Expect(f.AreaSnapshot()).To(Equal(areas))
		Expect(f.DelaySnapshot()).To(Equal(delays))
		Expect(f.Terms()).To(Equal(terms))
	})

	It("should compute every wire RC from its layer and length", func() {
		f.Evaluate(a)
		s := f.Store()
		metal := f.Params().Process.Metal

		names := s.WireNames()
		Expect(names).NotTo(BeEmpty())

		for _, n := range names {
			w := circuit.Key(n)
			layer := s.WireLayer(w)
			length := s.WireLength(w)

			Expect(s.WireRC(w)).To(Equal(metal.WireRC(layer, length)), n)
			Expect(s.WireRC(w).R).To(Equal(metal[layer].R * length))
			Expect(s.WireRC(w).C).To(Equal(metal[layer].C * length / 2))
		}
	})

	It("should sum the tile from its routing, cluster and hard block", func() {
		p := config.Default()
		p.HardBlockArea = 1e6
		f = build(p)
		f.Evaluate(f.InitialAssignment())

		s := f.Store()
		area := func(n string) float64 { return s.Area(circuit.Key(n)) }

		expected := p.HardBlockArea +
			float64(p.NumSBMux())*area("sb_mux_sram") +
			float64(p.I)*area("cb_mux_sram") +
			area("logic_cluster")

		Expect(s.Area(f.Tile())).To(BeNumerically("~", expected, expected*1e-12))
	})

	It("should break the tile area down into report categories", func() {
		f.Evaluate(a)
		shares := f.AreaBreakdown()

		var names []string
		total, percent := 0.0, 0.0
		for _, s := range shares {
			names = append(names, s.Name)
			total += s.Area
			percent += s.Percent
		}

		Expect(names).To(Equal([]string{
			fabric.AreaLUT, fabric.AreaFF, fabric.AreaBLEOutput,
			fabric.AreaLocalMux, fabric.AreaConnectionBlock,
			fabric.AreaSwitchBlock, fabric.AreaNonActive,
		}))
		Expect(total).To(BeNumerically("~", f.Store().Area(f.Tile())/1e6, 1e-6))
		Expect(percent).To(BeNumerically("~", 100, 1e-9))
		Expect(shares[len(shares)-1].Area).To(BeNumerically(">", -1e-9))
	})

	It("should put the routing and LUT inputs on the path", func() {
		f.Evaluate(a)

		var names []string
		for _, t := range f.Terms() {
			names = append(names, t.Name)
			Expect(t.Delay).To(BeNumerically(">", 0), t.Name)
		}

		Expect(names).To(ConsistOf(
			"sb_mux", "cb_mux", "local_mux",
			"local_ble_output", "general_ble_output",
			"lut_a", "lut_b", "lut_c", "lut_d", "lut_e", "lut_f",
		))
		Expect(f.Delay()).To(Equal(delay.RepresentativePath(f.Terms())))
	})

	It("should add the driver delay to the tree delay of a LUT input", func() {
		f.Evaluate(a)

		d := f.DelaySnapshot()
		for _, t := range f.Terms() {
			if t.Name == "lut_a" {
				Expect(t.Delay).To(Equal(d["lut_a_driver"] + d["lut.a"]))
			}
		}
	})

	It("should panic on an unknown sizing element", func() {
		a["no_such_transistor_nmos"] = 2

		Expect(func() { f.Evaluate(a) }).To(Panic())
	})

	It("should reject an inconsistent architecture", func() {
		p := config.Default()
		p.CarryChain = true
		p.CarryChainType = config.CarrySkip
		p.CarrySkipFanin = 5

		_, err := fabric.MakeBuilder().WithParams(p).Build("fpga")
		Expect(err).To(HaveOccurred())
	})

	It("should number duplicated carry chains", func() {
		p := config.Default()
		p.CarryChain = true
		p.AdderBits = 2
		f = build(p)

		Expect(f.LeafNames()).To(ContainElements(
			"carry_chain", "carry_chain_1",
			"carry_chain_perf", "carry_chain_perf_1",
			"carry_chain_inter", "carry_chain_mux"))

		id0, _ := f.Names().ID("carry_chain")
		id1, _ := f.Names().ID("carry_chain_1")
		Expect(id1).To(BeNumerically(">", id0))
	})

	It("should give every sizing element a lower bound and a group", func() {
		sz := f.Generate()

		Expect(f.LowerBounds()).To(HaveLen(len(sz)))
		Expect(f.SizingGroups()).To(HaveLen(len(sz)))
	})

	It("should never make the tile worse in a height search", func() {
		s, err := opt.MakeSearcherBuilder().
			WithProblem(f).
			WithMaxIterations(2).
			Build()
		Expect(err).NotTo(HaveOccurred())

		res := s.LocalSearch(a, opt.HeightParam)

		Expect(res.Cost).To(BeNumerically("<=", res.StartCost))
		Expect(math.IsInf(res.Cost, 1)).To(BeFalse())
	})
})

var _ = Describe("LUT total", func() {
	It("should count duplicated drivers once per instance", func() {
		p := level2Params()
		f := build(p)
		f.Evaluate(f.InitialAssignment())

		s := f.Store()
		withSRAM := func(n string) float64 {
			return s.Area(circuit.WithSRAM(circuit.Key(n)))
		}

		instances := []float64{1, 1, 1, 1, 2, 2}
		depth := p.LUTDepth()

		expected := 4 * withSRAM("lut")
		for idx, n := range instances {
			expected += n * withSRAM("lut_"+config.InputName(idx)+"_driver")
		}
		for idx := 0; idx < depth; idx++ {
			expected += withSRAM("lut_" + config.InputName(idx) + "_driver_not")
		}

		Expect(s.Area(circuit.Key("lut_total"))).
			To(BeNumerically("~", expected, expected*1e-12))
	})

	It("should not duplicate drivers of unfractured LUTs", func() {
		f := build(config.Default())
		f.Evaluate(f.InitialAssignment())

		s := f.Store()
		withSRAM := func(n string) float64 {
			return s.Area(circuit.WithSRAM(circuit.Key(n)))
		}

		expected := withSRAM("lut")
		for idx := 0; idx < 6; idx++ {
			expected += withSRAM("lut_" + config.InputName(idx) + "_driver")
		}
		for idx := 0; idx < 6; idx++ {
			expected += withSRAM("lut_" + config.InputName(idx) + "_driver_not")
		}

		Expect(s.Area(circuit.Key("lut_total"))).
			To(BeNumerically("~", expected, expected*1e-12))
	})
})

var _ = Describe("Variants", func() {
	DescribeTable("should build and evaluate",
		func(mutate func(p *config.Params), leaves []string) {
			p := config.Default()
			mutate(&p)
			f := build(p)

			e := f.Evaluate(f.InitialAssignment())

			Expect(e.Valid).To(BeTrue(), f.Variant().Name())
			Expect(f.LeafNames()).To(ContainElements(leaves))
		},
		Entry("classic", func(p *config.Params) {},
			[]string{"lut", "ff", "sb_mux"}),
		Entry("classic fracturable", func(p *config.Params) {
			p.UseFLUTs = true
		}, []string{"flut_mux"}),
		Entry("dual output", func(p *config.Params) {
			p.VariantCode = 1
		}, []string{"fmux_l1"}),
		Entry("level 2", func(p *config.Params) {
			p.VariantCode = 2
			p.Rsel = ""
		}, []string{"fmux_l1", "fmux_l2", "general_ble_output"}),
		Entry("level 3", func(p *config.Params) {
			p.VariantCode = 3
			p.Rsel = ""
		}, []string{"fmux_l1", "fmux_l2", "fmux_l3"}),
		Entry("LUT skip", func(p *config.Params) {
			p.VariantCode = 10
			p.CarryChain = true
		}, []string{"flut_cc_mux", "carry_chain"}),
		Entry("carry skip", func(p *config.Params) {
			p.CarryChain = true
			p.CarryChainType = config.CarrySkip
			p.CarrySkipFanin = 3
		}, []string{"carry_chain_skip_and", "carry_chain_skip_mux"}),
		Entry("transmission gates", func(p *config.Params) {
			p.UseTGates = true
		}, []string{"local_mux"}),
		Entry("memory", func(p *config.Params) {
			p.Memory.Enabled = true
		}, []string{
			"row_decoder_stage0", "row_decoder_stage3", "wordline_driver",
			"memory_array", "column_decoder", "configurable_decoder",
			"output_crossbar", "ram_local_mux",
		}),
	)

	It("should add the RAM to the path and the cost area", func() {
		p := config.Default()
		p.Memory.Enabled = true
		f := build(p)
		e := f.Evaluate(f.InitialAssignment())

		s := f.Store()
		Expect(e.Area).To(Equal(s.Area(f.Tile()) + s.Area(f.RAM())))

		var ram []delay.Term
		for _, t := range f.Terms() {
			if t.Category == delay.CategoryRAM {
				ram = append(ram, t)
			}
		}
		Expect(ram).To(HaveLen(1))
	})

	It("should use two banks and the local muxes per RAM", func() {
		p := config.Default()
		p.Memory.Enabled = true
		f := build(p)
		f.Evaluate(f.InitialAssignment())

		s := f.Store()
		expected := 2*s.Area(circuit.Key("ram_bank")) +
			s.Area(circuit.Key("configurable_decoder_sram")) +
			float64(p.Memory.Inputs())*s.Area(circuit.Key("ram_local_mux_sram"))
		Expect(s.Area(f.RAM())).To(BeNumerically("~", expected, expected*1e-12))
	})

	It("should count the fracturing muxes of a level-3 BLE", func() {
		p := config.Default()
		p.VariantCode = 3
		p.Rsel = ""
		f := build(p)

		counts := make(map[string]float64)

		var walk func(c *circuit.Composite)
		walk = func(c *circuit.Composite) {
			for _, ch := range c.Children() {
				if sub, ok := ch.Component.(*circuit.Composite); ok {
					walk(sub)
					continue
				}
				counts[ch.Component.Name()] = ch.Count
			}
		}
		walk(f.Tile())

		Expect(counts["fmux_l1"]).To(Equal(4.0))
		Expect(counts["fmux_l2"]).To(Equal(2.0))
		Expect(counts["fmux_l3"]).To(Equal(1.0))
		Expect(counts["ff"]).To(Equal(3.0))
		Expect(counts["lut"]).To(Equal(8.0))
	})
})

var _ = Describe("Simulation failures", func() {
	var (
		mockCtrl *gomock.Controller
		simMock  *MockSimulator
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		simMock = NewMockSimulator(mockCtrl)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should invalidate the pass on one negative fall time", func() {
		p := config.Default()
		backend := elmore.NewBackend(p.Process)
		target := circuit.Handle("harness.local_mux.local_mux")

		simMock.EXPECT().
			Run(gomock.Any(), gomock.Any()).
			DoAndReturn(func(h circuit.Handle, ps delay.ParameterSet) (delay.Result, error) {
				res, err := backend.Run(h, ps)
				if h == target {
					res.Tfall = -1e-12
				}
				return res, err
			}).
			AnyTimes()

		f, err := fabric.MakeBuilder().
			WithParams(p).
			WithBackend(backend).
			WithSimulator(simMock).
			Build("fpga")
		Expect(err).NotTo(HaveOccurred())

		e := f.Evaluate(opt.Assignment(f.Generate()))

		Expect(e.Valid).To(BeFalse())
		Expect(f.DelaySnapshot()["local_mux"]).To(Equal(delay.Poison))
		Expect(f.DelaySnapshot()["sb_mux"]).To(BeNumerically("<", sim.VTimeInSec(1e-6)))
	})
})
