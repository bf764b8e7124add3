package elmore_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tilesize/circuit"
	"github.com/sarchlab/tilesize/delay"
	"github.com/sarchlab/tilesize/elmore"
	"github.com/sarchlab/tilesize/tech"
)

var _ = Describe("Backend", func() {
	var (
		p      tech.Process
		b      *elmore.Backend
		inv    *circuit.Device
		pass   *circuit.Device
		load   *circuit.Device
		w      *circuit.Wire
		handle circuit.Handle
		params delay.ParameterSet
	)

	BeforeEach(func() {
		p = tech.DefaultProcess()
		b = elmore.NewBackend(p)

		inv = circuit.NewInverter("inv_x", 1, 2)
		pass = circuit.NewPassTransistor("ptran_x", 2)
		load = circuit.NewInverter("inv_load", 1, 1)
		w = circuit.NewWire("wire_x", tech.LayerLocal)

		handle = b.Harness(circuit.Harness{
			Name:      "x",
			Component: "x",
			Probe:     "x",
			Stages: []circuit.Stage{
				circuit.Drive(inv).Wire(w).Gates(load, 4).Stage(),
			},
		})

		params = delay.ParameterSet{
			"inv_x_nmos":    1,
			"inv_x_pmos":    2,
			"ptran_x_nmos":  2,
			"inv_load_nmos": 1,
			"inv_load_pmos": 1,
			"wire_x_res":    100,
			"wire_x_cap":    1e-16,
		}
	})

	It("should compute the Elmore delay of one stage", func() {
		res, err := b.Run(handle, params)
		Expect(err).NotTo(HaveOccurred())

		cd := p.CDiff * 3
		cl := p.CGate * 2 * 4

		rRise := p.Rp / 2
		tauRise := rRise*cd + (rRise+100)*1e-16 + (rRise+100)*cl
		Expect(float64(res.Trise)).To(BeNumerically("~", 0.69*tauRise, 1e-20))

		rFall := p.Rn / 1
		tauFall := rFall*cd + (rFall+100)*1e-16 + (rFall+100)*cl
		Expect(float64(res.Tfall)).To(BeNumerically("~", 0.69*tauFall, 1e-20))

		Expect(res.Power).To(BeNumerically(">", 0))
	})

	It("should get faster with a stronger driver", func() {
		slow, _ := b.Run(handle, params)

		params["inv_x_nmos"] = 4
		params["inv_x_pmos"] = 8
		fast, _ := b.Run(handle, params)

		Expect(fast.Trise).To(BeNumerically("<", slow.Trise))
		Expect(fast.Tfall).To(BeNumerically("<", slow.Tfall))
	})

	It("should alternate transitions between stages", func() {
		h := b.Harness(circuit.Harness{
			Name: "two",
			Stages: []circuit.Stage{
				circuit.Drive(nil).Series(pass).Gates(inv, 1).Stage(),
				circuit.Drive(inv).Wire(w).Stage(),
			},
		})

		res, err := b.Run(h, params)

		Expect(err).NotTo(HaveOccurred())
		Expect(res.Trise).NotTo(Equal(res.Tfall))
	})

	It("should load the path with a branch wire but not its resistance", func() {
		h := b.Harness(circuit.Harness{
			Name: "branch",
			Stages: []circuit.Stage{
				circuit.Drive(inv).Branch(w, 2).Gates(load, 4).Stage(),
			},
		})

		res, err := b.Run(h, params)
		Expect(err).NotTo(HaveOccurred())

		cd := p.CDiff * 3
		cl := p.CGate * 2 * 4

		rFall := p.Rn / 1
		tauFall := rFall*cd + rFall*2e-16 + rFall*cl
		Expect(float64(res.Tfall)).To(BeNumerically("~", 0.69*tauFall, 1e-20))
	})

	It("should fail on a missing parameter", func() {
		delete(params, "wire_x_res")

		_, err := b.Run(handle, params)

		Expect(errors.Is(err, delay.ErrSimulationFailed)).To(BeTrue())
	})

	It("should fail on a non-positive size", func() {
		params["inv_x_pmos"] = 0

		_, err := b.Run(handle, params)

		Expect(errors.Is(err, delay.ErrSimulationFailed)).To(BeTrue())
	})

	It("should fail on an unknown harness", func() {
		_, err := b.Run("nope", params)

		Expect(errors.Is(err, delay.ErrSimulationFailed)).To(BeTrue())
	})

	It("should record descriptions", func() {
		h := b.Subcircuit(circuit.Description{Name: "sb_mux"})

		d, ok := b.Description(h)
		Expect(ok).To(BeTrue())
		Expect(d.Name).To(Equal("sb_mux"))
		Expect(b.NumHarnesses()).To(Equal(1))
	})
})
