package config_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tilesize/config"
)

var _ = Describe("Variant", func() {
	It("should describe the classic LUT", func() {
		v, err := config.NewVariant(0, false)
		Expect(err).NotTo(HaveOccurred())
		Expect(config.Fracturable(v)).To(BeFalse())
		Expect(v.FlipFlops()).To(Equal(1))
		Expect(v.MuxCount(1)).To(Equal(0))
	})

	It("should describe the fracturable classic LUT", func() {
		v, _ := config.NewVariant(0, true)
		Expect(v.Levels()).To(Equal(1))
		Expect(v.FirstMux()).To(Equal("flut_mux"))
		Expect(v.MuxCount(1)).To(Equal(1))
		Expect(v.FlipFlops()).To(Equal(2))
	})

	It("should duplicate the first level of the dual-output LUT", func() {
		v, _ := config.NewVariant(1, false)
		Expect(v.FirstMux()).To(Equal("fmux_l1"))
		Expect(v.MuxCount(1)).To(Equal(2))
	})

	It("should count level-3 muxes", func() {
		v, _ := config.NewVariant(3, false)
		Expect(v.MuxCount(1)).To(Equal(4))
		Expect(v.MuxCount(2)).To(Equal(2))
		Expect(v.MuxCount(3)).To(Equal(1))
		Expect(v.MuxCount(4)).To(Equal(0))
		Expect(v.FlipFlopSelect()).To(Equal(4))
		Expect(v.GeneralOutput3()).To(BeTrue())
		Expect(v.DuplicatedInputs()).To(Equal(2))
	})

	It("should count level-2 muxes", func() {
		v, _ := config.NewVariant(2, false)
		Expect(v.MuxCount(1)).To(Equal(2))
		Expect(v.MuxCount(2)).To(Equal(1))
		Expect(v.FlipFlopSelect()).To(Equal(3))
		Expect(v.FlipFlops()).To(Equal(3))
	})

	It("should let the LUT skip into the carry chain", func() {
		v, _ := config.NewVariant(10, false)
		Expect(v.LUTSkip()).To(BeTrue())
		Expect(v.Levels()).To(Equal(1))
		Expect(v.Code()).To(Equal(10))
	})

	It("should reject unknown codes", func() {
		_, err := config.NewVariant(4, false)
		Expect(err).To(HaveOccurred())
	})
})
