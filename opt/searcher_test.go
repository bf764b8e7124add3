package opt_test

import (
	"math"

	"github.com/golang/mock/gomock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tilesize/opt"
)

type funcProblem func(a opt.Assignment) opt.Evaluation

func (f funcProblem) Evaluate(a opt.Assignment) opt.Evaluation {
	return f(a)
}

func bowl(centers map[string]float64) funcProblem {
	return func(a opt.Assignment) opt.Evaluation {
		area := 1.0
		for k, c := range centers {
			area += (a[k] - c) * (a[k] - c)
		}

		return opt.Evaluation{Area: area, Delay: 1, Valid: true}
	}
}

var _ = Describe("Searcher", func() {
	var (
		mockCtrl *gomock.Controller
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	build := func(b opt.SearcherBuilder) *opt.Searcher {
		s, err := b.Build()
		Expect(err).NotTo(HaveOccurred())
		return s
	}

	It("should keep the start value of a flat problem after one iteration", func() {
		problem := NewMockProblem(mockCtrl)
		problem.EXPECT().
			Evaluate(gomock.Any()).
			Return(opt.Evaluation{Area: 10, Delay: 2e-10, Valid: true}).
			Times(21)

		s := build(opt.MakeSearcherBuilder().WithProblem(problem))
		res := s.LocalSearch(opt.Assignment{opt.HeightParam: 1000}, opt.HeightParam)

		Expect(res.Value).To(Equal(1000.0))
		Expect(res.Iterations).To(Equal(1))
		Expect(res.Converged).To(BeTrue())
		Expect(res.Moved).To(BeFalse())
	})

	It("should walk towards the minimum", func() {
		s := build(opt.MakeSearcherBuilder().
			WithProblem(bowl(map[string]float64{"x": 50})))

		res := s.LocalSearch(opt.Assignment{"x": 40}, "x")

		Expect(res.Iterations).To(Equal(4))
		Expect(res.Converged).To(BeTrue())
		Expect(res.Value).To(BeNumerically("~", 50, 0.2))
		Expect(res.Cost).To(BeNumerically("<=", res.StartCost))
	})

	It("should report running out of iterations", func() {
		s := build(opt.MakeSearcherBuilder().
			WithProblem(bowl(map[string]float64{"x": 50})).
			WithMaxIterations(2))

		res := s.LocalSearch(opt.Assignment{"x": 40}, "x")

		Expect(res.Iterations).To(Equal(2))
		Expect(res.Converged).To(BeFalse())
		Expect(res.Value).To(BeNumerically("~", 48.4, 1e-9))
		Expect(res.Cost).To(BeNumerically("<", res.StartCost))
	})

	It("should never select an invalid candidate", func() {
		valid := func(a opt.Assignment) opt.Evaluation {
			e := bowl(map[string]float64{"x": 50})(a)
			e.Valid = a["x"] <= 40
			return e
		}

		s := build(opt.MakeSearcherBuilder().WithProblem(funcProblem(valid)))
		res := s.LocalSearch(opt.Assignment{"x": 40}, "x")

		Expect(res.Value).To(Equal(40.0))
		Expect(res.Converged).To(BeTrue())
		Expect(math.IsInf(res.Cost, 1)).To(BeFalse())
	})

	It("should prefer staying put when every candidate is invalid", func() {
		invalid := func(a opt.Assignment) opt.Evaluation {
			return opt.Evaluation{Area: a["x"], Delay: 1, Valid: false}
		}

		s := build(opt.MakeSearcherBuilder().WithProblem(funcProblem(invalid)))
		res := s.LocalSearch(opt.Assignment{"x": 40}, "x")

		Expect(res.Value).To(Equal(40.0))
		Expect(res.Iterations).To(Equal(1))
	})

	It("should skip candidates below the lower bound", func() {
		s := build(opt.MakeSearcherBuilder().
			WithProblem(bowl(map[string]float64{"x": 0})).
			WithLowerBounds(map[string]float64{"x": 37.9}))

		res := s.LocalSearch(opt.Assignment{"x": 40}, "x")

		Expect(res.Value).To(BeNumerically("~", 38, 1e-9))
		Expect(res.Converged).To(BeTrue())
		Expect(res.Iterations).To(Equal(2))
	})

	It("should scale a group together", func() {
		s := build(opt.MakeSearcherBuilder().
			WithProblem(bowl(map[string]float64{"n": 5, "p": 10})))

		res := s.LocalSearchGroup(opt.Assignment{"n": 4, "p": 8},
			opt.Group{Name: "inv", Params: []string{"n", "p"}})

		Expect(res.Assignment["p"] / res.Assignment["n"]).
			To(BeNumerically("~", 2, 1e-9))
		Expect(res.Value).To(Equal(res.Assignment["n"]))
		Expect(res.Moved).To(BeTrue())
	})

	It("should give the same result with workers", func() {
		problem := bowl(map[string]float64{"x": 50})
		factory := func() (opt.Problem, error) { return problem, nil }

		serial := build(opt.MakeSearcherBuilder().WithProblem(problem))
		parallel := build(opt.MakeSearcherBuilder().WithWorkers(4, factory))

		a := opt.Assignment{"x": 40}
		Expect(parallel.LocalSearch(a, "x")).To(Equal(serial.LocalSearch(a, "x")))
	})

	It("should report every candidate to the observer", func() {
		problem := NewMockProblem(mockCtrl)
		problem.EXPECT().
			Evaluate(gomock.Any()).
			Return(opt.Evaluation{Area: 10, Delay: 2e-10, Valid: true}).
			AnyTimes()

		var steps []int
		observer := NewMockObserver(mockCtrl)
		observer.EXPECT().
			Observe(gomock.Any()).
			Do(func(r opt.Record) {
				Expect(r.Param).To(Equal("x"))
				steps = append(steps, r.Step)
			}).
			Times(21)

		s := build(opt.MakeSearcherBuilder().
			WithProblem(problem).
			WithObserver(observer))
		s.LocalSearch(opt.Assignment{"x": 1}, "x")

		Expect(steps[:5]).To(Equal([]int{0, -1, 1, -2, 2}))
	})

	It("should run coordinate descent until a pass moves nothing", func() {
		s := build(opt.MakeSearcherBuilder().
			WithProblem(bowl(map[string]float64{"x": 50, "y": 20})))

		res := s.CoordinateDescent(opt.Assignment{"x": 40, "y": 18},
			[]opt.Group{opt.SingleParam("x"), opt.SingleParam("y")})

		Expect(res.Converged).To(BeTrue())
		Expect(res.Passes).To(Equal(2))
		Expect(res.Assignment["x"]).To(BeNumerically("~", 50, 0.2))
		Expect(res.Assignment["y"]).To(BeNumerically("~", 20, 0.1))
	})

	It("should reject empty budgets", func() {
		_, err := opt.MakeSearcherBuilder().
			WithProblem(bowl(nil)).
			WithMaxIterations(0).
			Build()
		Expect(err).To(HaveOccurred())

		_, err = opt.MakeSearcherBuilder().Build()
		Expect(err).To(HaveOccurred())
	})
})
