package opt_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/tilesize/opt"
)

var _ = Describe("Cost", func() {
	It("should multiply the weighted area and delay", func() {
		Expect(opt.Cost(4, 2, 1, 1)).To(Equal(8.0))
		Expect(opt.Cost(4, 2, 0.5, 2)).To(Equal(8.0))
		Expect(opt.Cost(4, 2, 0, 1)).To(Equal(2.0))
	})

	DescribeTable("should not decrease as area or delay grows",
		func(wArea, wDelay float64) {
			prev := 0.0
			for area := 1.0; area < 100; area *= 1.7 {
				c := opt.Cost(area, 3e-10, wArea, wDelay)
				Expect(c).To(BeNumerically(">=", prev))
				prev = c
			}

			prev = 0.0
			for d := 1e-11; d < 1e-8; d *= 1.7 {
				c := opt.Cost(7, sim.VTimeInSec(d), wArea, wDelay)
				Expect(c).To(BeNumerically(">=", prev))
				prev = c
			}
		},
		Entry("balanced", 1.0, 1.0),
		Entry("area only", 1.0, 0.0),
		Entry("delay heavy", 0.5, 2.0),
	)

	It("should score invalid evaluations as infinite", func() {
		e := opt.Evaluation{Area: 1, Delay: 1e-12, Valid: false}
		Expect(math.IsInf(opt.Score(e, 1, 1), 1)).To(BeTrue())
	})

	It("should clone assignments", func() {
		a := opt.Assignment{"b": 1, "a": 2}
		c := a.Clone()
		c["a"] = 5

		Expect(a["a"]).To(Equal(2.0))
		Expect(a.Names()).To(Equal([]string{"a", "b"}))
	})
})
