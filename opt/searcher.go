package opt

import (
	"log/slog"
	"math"
	"sync"

	"github.com/pkg/errors"

	"github.com/sarchlab/tilesize/circuit"
)

// Neighbourhood is the number of 1% steps searched on each side of the
// current value.
const Neighbourhood = 10

// Step is the relative size of one neighbourhood step.
const Step = 0.01

// A Group is a set of parameters scaled together by the same factor.
type Group struct {
	Name   string
	Params []string
}

// SingleParam returns the group holding one parameter.
func SingleParam(name string) Group {
	return Group{Name: name, Params: []string{name}}
}

// SearchResult is the outcome of one local search.
type SearchResult struct {
	Assignment Assignment

	// Value is the final value of the first parameter of the group.
	Value     float64
	Cost      float64
	StartCost float64

	Iterations int
	Converged  bool
	Moved      bool
}

// DescentResult is the outcome of a coordinate descent.
type DescentResult struct {
	Assignment Assignment
	Cost       float64
	Passes     int
	Converged  bool
}

// SearcherBuilder creates searchers.
type SearcherBuilder struct {
	problem   Problem
	wArea     float64
	wDelay    float64
	maxIter   int
	maxPasses int
	workers   int
	factory   ProblemFactory
	observer  Observer
	lower     map[string]float64
}

// MakeSearcherBuilder returns a builder with unit weights.
func MakeSearcherBuilder() SearcherBuilder {
	return SearcherBuilder{
		wArea:     1,
		wDelay:    1,
		maxIter:   8,
		maxPasses: 4,
	}
}

// WithProblem sets the problem evaluated in the calling goroutine.
func (b SearcherBuilder) WithProblem(p Problem) SearcherBuilder {
	b.problem = p
	return b
}

// WithWeights sets the area and delay exponents of the cost.
func (b SearcherBuilder) WithWeights(wArea, wDelay float64) SearcherBuilder {
	b.wArea = wArea
	b.wDelay = wDelay
	return b
}

// WithMaxIterations sets the iteration budget of one local search.
func (b SearcherBuilder) WithMaxIterations(n int) SearcherBuilder {
	b.maxIter = n
	return b
}

// WithMaxPasses sets the pass budget of a coordinate descent.
func (b SearcherBuilder) WithMaxPasses(n int) SearcherBuilder {
	b.maxPasses = n
	return b
}

// WithWorkers evaluates the candidates of a neighbourhood on n problems
// created by factory.
func (b SearcherBuilder) WithWorkers(n int, factory ProblemFactory) SearcherBuilder {
	b.workers = n
	b.factory = factory
	return b
}

// WithObserver sets the observer told about every evaluation.
func (b SearcherBuilder) WithObserver(o Observer) SearcherBuilder {
	b.observer = o
	return b
}

// WithLowerBounds sets the smallest value each parameter may take.
func (b SearcherBuilder) WithLowerBounds(lower map[string]float64) SearcherBuilder {
	b.lower = lower
	return b
}

// Build creates the searcher.
func (b SearcherBuilder) Build() (*Searcher, error) {
	if b.maxIter < 1 || b.maxPasses < 1 {
		return nil, errors.New("search budgets must be positive")
	}

	if b.wArea < 0 || b.wDelay < 0 {
		return nil, errors.New("cost weights must not be negative")
	}

	s := &Searcher{
		problem:   b.problem,
		wArea:     b.wArea,
		wDelay:    b.wDelay,
		maxIter:   b.maxIter,
		maxPasses: b.maxPasses,
		observer:  b.observer,
		lower:     b.lower,
	}

	for i := 0; i < b.workers; i++ {
		p, err := b.factory()
		if err != nil {
			return nil, errors.Wrapf(err, "create worker %d", i)
		}
		s.pool = append(s.pool, p)
	}

	if s.problem == nil && len(s.pool) == 0 {
		return nil, errors.New("searcher needs a problem or workers")
	}

	return s, nil
}

// A Searcher runs symmetric-neighbourhood local searches.
type Searcher struct {
	problem   Problem
	pool      []Problem
	wArea     float64
	wDelay    float64
	maxIter   int
	maxPasses int
	observer  Observer
	lower     map[string]float64
}

// steps lists the neighbourhood in tie-breaking order: 0, -1, 1, -2, 2, ...
func steps() []int {
	out := []int{0}
	for i := 1; i <= Neighbourhood; i++ {
		out = append(out, -i, i)
	}

	return out
}

type candidate struct {
	step   int
	assign Assignment
	eval   Evaluation
	cost   float64
}

// LocalSearch searches one parameter.
func (s *Searcher) LocalSearch(a Assignment, name string) SearchResult {
	return s.LocalSearchGroup(a, SingleParam(name))
}

// LocalSearchGroup repeatedly evaluates the 21 candidates v*(1+0.01i) of
// the group and moves to the cheapest one. It stops when staying put is the
// best choice or the iteration budget runs out.
func (s *Searcher) LocalSearchGroup(a Assignment, g Group) SearchResult {
	if len(g.Params) == 0 {
		panic("empty parameter group")
	}

	cur := a.Clone()
	res := SearchResult{StartCost: math.NaN()}

	for it := 1; it <= s.maxIter; it++ {
		cands := s.neighbourhood(cur, g)
		s.evaluate(g, cands)

		best := 0
		for k := range cands {
			if cands[k].cost < cands[best].cost {
				best = k
			}
		}

		if it == 1 {
			res.StartCost = cands[0].cost
		}

		res.Iterations = it
		res.Cost = cands[best].cost

		circuit.Trace("local search",
			"Component", g.Name,
			"Iteration", it,
			"Value", cands[best].assign[g.Params[0]],
			"Cost", cands[best].cost)

		if best == 0 {
			res.Converged = true
			break
		}

		cur = cands[best].assign
		res.Moved = true
	}

	res.Assignment = cur
	res.Value = cur[g.Params[0]]

	return res
}

func (s *Searcher) neighbourhood(cur Assignment, g Group) []*candidate {
	var out []*candidate

	for _, i := range steps() {
		next := cur.Clone()
		skip := false

		for _, p := range g.Params {
			v, ok := cur[p]
			if !ok {
				panic("unknown parameter " + p)
			}

			next[p] = v * (1 + Step*float64(i))
			if lb, ok := s.lower[p]; ok && i != 0 && next[p] < lb {
				skip = true
			}
		}

		if !skip {
			out = append(out, &candidate{step: i, assign: next})
		}
	}

	return out
}

func (s *Searcher) evaluate(g Group, cands []*candidate) {
	if len(s.pool) == 0 {
		for _, c := range cands {
			c.eval = s.problem.Evaluate(c.assign)
		}
	} else {
		s.evaluateParallel(cands)
	}

	for _, c := range cands {
		c.cost = Score(c.eval, s.wArea, s.wDelay)
		s.observe(g, c)
	}
}

func (s *Searcher) evaluateParallel(cands []*candidate) {
	jobs := make(chan *candidate)
	wg := sync.WaitGroup{}

	for _, p := range s.pool {
		wg.Add(1)
		go func(p Problem) {
			defer wg.Done()
			for c := range jobs {
				c.eval = p.Evaluate(c.assign)
			}
		}(p)
	}

	for _, c := range cands {
		jobs <- c
	}
	close(jobs)

	wg.Wait()
}

func (s *Searcher) observe(g Group, c *candidate) {
	if s.observer == nil {
		return
	}

	s.observer.Observe(Record{
		Param: g.Name,
		Step:  c.step,
		Value: c.assign[g.Params[0]],
		Area:  c.eval.Area,
		Delay: c.eval.Delay,
		Cost:  c.cost,
		Valid: c.eval.Valid,
	})
}

// CoordinateDescent sweeps the groups in order, committing the best value of
// each, until a pass moves nothing or the pass budget runs out.
func (s *Searcher) CoordinateDescent(a Assignment, groups []Group) DescentResult {
	cur := a.Clone()
	res := DescentResult{}

	for pass := 1; pass <= s.maxPasses; pass++ {
		moved := false

		for _, g := range groups {
			r := s.LocalSearchGroup(cur, g)
			cur = r.Assignment
			res.Cost = r.Cost
			moved = moved || r.Moved
		}

		res.Passes = pass

		slog.Info("sizing pass done",
			"Iteration", pass,
			"Cost", res.Cost,
			"Moved", moved)

		if !moved {
			res.Converged = true
			break
		}
	}

	if !res.Converged {
		slog.Warn("sizing did not converge", "Passes", res.Passes)
	}

	res.Assignment = cur

	return res
}
