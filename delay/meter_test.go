package delay_test

import (
	"github.com/golang/mock/gomock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/tilesize/circuit"
	"github.com/sarchlab/tilesize/delay"
	"github.com/sarchlab/tilesize/tech"
)

var _ = Describe("Meter", func() {
	var (
		mockCtrl *gomock.Controller
		simMock  *MockSimulator
		meter    *delay.Meter
		probes   []*circuit.Probe
		params   delay.ParameterSet
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		simMock = NewMockSimulator(mockCtrl)
		meter = delay.NewMeter(simMock)

		probes = nil
		for _, name := range []string{"sb_mux", "cb_mux", "local_mux"} {
			p := circuit.NewProbe(name)
			p.Attach(circuit.Handle(name))
			probes = append(probes, p)
		}

		params = delay.ParameterSet{"inv_sb_mux_1_nmos": 2}
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should take the larger of rise and fall", func() {
		simMock.EXPECT().
			Run(circuit.Handle("sb_mux"), params).
			Return(delay.Result{Trise: 30e-12, Tfall: 40e-12, Power: 1e-6}, nil)

		t := meter.Measure(circuit.Key("sb_mux"), probes[0], params)

		Expect(t.Delay).To(Equal(sim.VTimeInSec(40e-12)))
		Expect(t.Power).To(Equal(1e-6))
		Expect(probes[0].Timing()).To(Equal(t))
		Expect(meter.Valid()).To(BeTrue())
	})

	It("should poison a failed simulation", func() {
		simMock.EXPECT().
			Run(gomock.Any(), gomock.Any()).
			Return(delay.Result{}, delay.ErrSimulationFailed)

		t := meter.Measure(circuit.Key("sb_mux"), probes[0], params)

		Expect(t.Delay).To(Equal(delay.Poison))
		Expect(meter.Valid()).To(BeFalse())
		Expect(meter.Failures()).To(ConsistOf("sb_mux.sb_mux"))
	})

	It("should invalidate the whole pass on one negative fall time", func() {
		simMock.EXPECT().
			Run(circuit.Handle("sb_mux"), gomock.Any()).
			Return(delay.Result{Trise: 30e-12, Tfall: 35e-12}, nil)
		simMock.EXPECT().
			Run(circuit.Handle("cb_mux"), gomock.Any()).
			Return(delay.Result{Trise: 20e-12, Tfall: -1e-12}, nil)
		simMock.EXPECT().
			Run(circuit.Handle("local_mux"), gomock.Any()).
			Return(delay.Result{Trise: 10e-12, Tfall: 12e-12}, nil)

		for _, p := range probes {
			meter.Measure(circuit.Key(p.Name()), p, params)
		}

		Expect(meter.Valid()).To(BeFalse())
		Expect(probes[0].Timing().Delay).To(Equal(sim.VTimeInSec(35e-12)))
		Expect(probes[1].Timing().Delay).To(Equal(delay.Poison))
		Expect(probes[2].Timing().Delay).To(Equal(sim.VTimeInSec(12e-12)))
	})

	It("should become valid again after a reset", func() {
		simMock.EXPECT().
			Run(gomock.Any(), gomock.Any()).
			Return(delay.Result{Trise: -1}, nil)

		meter.Measure(circuit.Key("sb_mux"), probes[0], params)
		meter.Reset()

		Expect(meter.Valid()).To(BeTrue())
		Expect(meter.Failures()).To(BeEmpty())
	})
})

var _ = Describe("Marshal", func() {
	It("should bind sizing and wire parasitics", func() {
		p := tech.DefaultProcess()
		s := circuit.NewStore()
		s.Begin()

		w := circuit.NewWire("wire_sb_mux_L1", tech.LayerLocal)
		s.SetWireLength(w, 200)
		s.UpdateRC(p.Metal)

		params := delay.Marshal(circuit.Sizing{"ptran_sb_mux_L1_nmos": 3}, s)

		Expect(params).To(HaveKeyWithValue("ptran_sb_mux_L1_nmos", 3.0))
		Expect(params).To(HaveKeyWithValue("wire_sb_mux_L1_res", p.Metal[0].R*200))
		Expect(params).To(HaveKeyWithValue("wire_sb_mux_L1_cap", p.Metal[0].C*200/2))
		Expect(params).To(HaveLen(3))
	})
})
