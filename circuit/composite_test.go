package circuit_test

import (
	"math"

	gomock "github.com/golang/mock/gomock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tilesize/circuit"
	"github.com/sarchlab/tilesize/tech"
)

type bufferLeaf struct {
	*circuit.Leaf

	inv  *circuit.Device
	wire *circuit.Wire
}

var _ circuit.SizableComponent = (*bufferLeaf)(nil)

func newBufferLeaf(name string) *bufferLeaf {
	l := &bufferLeaf{Leaf: circuit.NewLeaf(name, "buffer", 0.5)}
	l.inv = l.AddDevice(circuit.NewInverter("inv_"+name, 1, 2))
	l.wire = l.AddWire("wire_"+name, tech.LayerLocal)
	l.AddProbe(name)

	return l
}

func (l *bufferLeaf) Generate(b circuit.Backend) circuit.Generated {
	return l.Emit(b)
}

func (l *bufferLeaf) GenerateTop(b circuit.Backend) {
	l.EmitHarness(b, l.Probes()[0],
		circuit.Drive(l.inv).Wire(l.wire).Stage())
}

func (l *bufferLeaf) UpdateArea(s *circuit.Store) float64 {
	return l.StoreArea(s, s.Area(l.inv), 1)
}

func (l *bufferLeaf) UpdateWires(ctx circuit.WireContext) {
	ctx.SetWireLength(l.wire, ctx.Width(l)/4*ctx.Ratio)
}

var _ = Describe("Composite", func() {
	var (
		mockCtrl *gomock.Controller
		backend  *MockBackend
		p        tech.Process
		s        *circuit.Store
		a, b     *bufferLeaf
		top      *circuit.Composite
		sizing   circuit.Sizing
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		backend = NewMockBackend(mockCtrl)
		p = tech.DefaultProcess()
		s = circuit.NewStore()

		a = newBufferLeaf("a")
		b = newBufferLeaf("b")
		top = circuit.NewComposite("top").
			Add(a, 3).
			Add(b, 1).
			WithFixedArea(1000)

		sizing = circuit.Sizing{
			"inv_a_nmos": 1, "inv_a_pmos": 2,
			"inv_b_nmos": 2, "inv_b_pmos": 4,
		}
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	updateArea := func() float64 {
		s.Begin()
		s.SetArea(circuit.SRAMCell, p.SRAMArea())
		for _, leaf := range top.Leaves() {
			for _, d := range leaf.Devices() {
				circuit.UpdateDeviceArea(s, d, sizing, p)
			}
		}

		return top.UpdateArea(s)
	}

	It("should generate children in order and collect defaults", func() {
		gomock.InOrder(
			backend.EXPECT().
				Subcircuit(gomock.Any()).
				DoAndReturn(func(d circuit.Description) circuit.Handle {
					Expect(d.Name).To(Equal("a"))
					return "a"
				}),
			backend.EXPECT().
				Subcircuit(gomock.Any()).
				DoAndReturn(func(d circuit.Description) circuit.Handle {
					Expect(d.Name).To(Equal("b"))
					return "b"
				}),
			backend.EXPECT().
				Subcircuit(gomock.Any()).
				DoAndReturn(func(d circuit.Description) circuit.Handle {
					Expect(d.Children).To(Equal([]string{"a", "b"}))
					return "top"
				}),
		)

		g := top.Generate(backend)

		Expect(g.Handle).To(Equal(circuit.Handle("top")))
		Expect(g.Defaults).To(HaveKeyWithValue("inv_a_nmos", 1.0))
		Expect(g.Defaults).To(HaveKeyWithValue("inv_b_pmos", 2.0))
		Expect(g.Wires).To(HaveLen(2))
	})

	It("should attach harness handles to probes", func() {
		backend.EXPECT().
			Harness(gomock.Any()).
			DoAndReturn(func(h circuit.Harness) circuit.Handle {
				return circuit.Handle(h.Name)
			}).
			Times(2)

		top.GenerateTop(backend)

		Expect(a.Probes()[0].Handle()).To(Equal(circuit.Handle("a.a")))
		Expect(b.Probes()[0].Handle()).To(Equal(circuit.Handle("b.b")))
	})

	It("should sum child contributions with their counts", func() {
		total := updateArea()

		sram := p.SRAMArea()
		invA := p.Area(tech.Inverter, 1) + p.Area(tech.Inverter, 2)
		invB := p.Area(tech.Inverter, 2) + p.Area(tech.Inverter, 4)
		expected := 3*(invA+sram) + (invB + sram) + 1000

		Expect(total).To(BeNumerically("~", expected, 1e-6))
		Expect(s.Area(top)).To(BeNumerically("~", expected, 1e-6))
		Expect(s.Area(a)).To(BeNumerically("~", invA, 1e-6))
		Expect(s.Area(circuit.WithSRAM(a))).
			To(BeNumerically("~", invA+sram, 1e-6))
	})

	It("should keep width the square root of area", func() {
		updateArea()

		for name, area := range s.Areas() {
			Expect(s.Width(circuit.Key(name))).To(Equal(math.Sqrt(area)))
		}
	})

	It("should give identical results when re-run", func() {
		first := updateArea()
		top.UpdateWires(circuit.WireContext{Store: s, Ratio: 1})
		firstWire := s.WireLength(a.wire)

		second := updateArea()
		top.UpdateWires(circuit.WireContext{Store: s, Ratio: 1})

		Expect(second).To(Equal(first))
		Expect(s.WireLength(a.wire)).To(Equal(firstWire))
	})

	It("should panic when a dependency is missing", func() {
		s.Begin()

		Expect(func() { top.UpdateArea(s) }).
			To(PanicWith(BeAssignableToTypeOf(&circuit.DependencyError{})))
	})

	It("should give each instance its own lists", func() {
		Expect(a.Devices()).To(HaveLen(1))
		Expect(b.Devices()).To(HaveLen(1))
		Expect(a.Devices()[0]).NotTo(BeIdenticalTo(b.Devices()[0]))
	})

	It("should list leaves once", func() {
		Expect(top.Leaves()).To(HaveLen(2))
		Expect(top.Kind()).To(Equal(circuit.Compound))
		Expect(a.Kind()).To(Equal(circuit.Sizable))
	})
})
