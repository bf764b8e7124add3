package tech_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tilesize/tech"
)

var _ = Describe("Transistor area", func() {
	It("should use the well-spacing model for inverters and tgates", func() {
		expected := 0.518 + 0.127*4 + 0.428*2
		Expect(tech.TransistorArea(false, tech.Inverter, 4)).
			To(BeNumerically("~", expected, 1e-12))
		Expect(tech.TransistorArea(false, tech.TransmissionGate, 4)).
			To(BeNumerically("~", expected, 1e-12))
	})

	It("should use the compact model for pass transistors", func() {
		expected := 0.447 + 0.128*4 + 0.391*2
		Expect(tech.TransistorArea(false, tech.PassTransistor, 4)).
			To(BeNumerically("~", expected, 1e-12))
		Expect(tech.TransistorArea(false, tech.Other, 4)).
			To(BeNumerically("~", expected, 1e-12))
	})

	It("should use one model for every kind in FinFET", func() {
		expected := 0.3694 + 0.0978*9 + 0.5368*3
		for _, k := range []tech.TransistorKind{
			tech.Inverter, tech.TransmissionGate, tech.PassTransistor, tech.Other,
		} {
			Expect(tech.TransistorArea(true, k, 9)).
				To(BeNumerically("~", expected, 1e-12))
		}
	})

	It("should grow with drive strength", func() {
		prev := 0.0
		for s := 1.0; s < 20; s += 0.5 {
			a := tech.TransistorArea(false, tech.Inverter, s)
			Expect(a).To(BeNumerically(">", prev))
			prev = a
		}
	})

	It("should scale to nm² with the minimum transistor area", func() {
		p := tech.DefaultProcess()
		Expect(p.Area(tech.PassTransistor, 1)).To(BeNumerically("~",
			tech.TransistorArea(false, tech.PassTransistor, 1)*p.MinTransistorArea,
			1e-6))
		Expect(p.SRAMArea()).To(Equal(4 * p.MinTransistorArea))
	})
})

var _ = Describe("Metal stack", func() {
	It("should compute lumped RC with halved capacitance", func() {
		m := tech.MetalStack{{R: 2, C: 4}, {R: 1, C: 1}, {R: 1, C: 1}, {R: 1, C: 1}}
		rc := m.WireRC(tech.LayerLocal, 10)
		Expect(rc.R).To(Equal(20.0))
		Expect(rc.C).To(Equal(20.0))
	})

	It("should panic on a layer outside the stack", func() {
		m := tech.MetalStack{{R: 1, C: 1}}
		Expect(func() { m.WireRC(tech.LayerWordline, 1) }).To(Panic())
	})

	It("should reject a short stack", func() {
		m := tech.MetalStack{{R: 1, C: 1}}
		Expect(m.Validate()).To(HaveOccurred())
	})
})

var _ = Describe("Process", func() {
	It("should accept the default process", func() {
		Expect(tech.DefaultProcess().Validate()).To(Succeed())
	})

	It("should reject non-positive constants", func() {
		p := tech.DefaultProcess()
		p.Rn = 0
		err := p.Validate()
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("rn"))
	})

	It("should name kinds and polarities", func() {
		Expect(tech.Inverter.Name()).To(Equal("inv"))
		Expect(tech.NMOS.Suffix()).To(Equal("_nmos"))
		Expect(math.IsNaN(tech.TransistorArea(false, tech.Other, 0))).To(BeFalse())
	})
})
