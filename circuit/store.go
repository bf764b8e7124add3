package circuit

import (
	"fmt"
	"math"
	"sort"

	"github.com/sarchlab/tilesize/tech"
)

// DependencyError is the panic value raised when a formula reads a derived
// entry that has not been written in the current pass. It always indicates a
// hierarchy-construction bug.
type DependencyError struct {
	Map  string
	Key  string
	Pass uint64
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s entry %q not computed in pass %d", e.Map, e.Key, e.Pass)
}

type entry struct {
	value float64
	pass  uint64
}

type wireEntry struct {
	length float64
	layer  tech.Layer
	rc     tech.RC
	hasRC  bool
	pass   uint64
}

// Store holds the derived maps of one evaluation: area, width, wire length,
// wire layer and wire RC. Every entry remembers the pass that wrote it and
// only entries of the current pass can be read.
type Store struct {
	pass  uint64
	area  map[string]entry
	width map[string]entry
	wires map[string]*wireEntry
}

// NewStore creates an empty store. Call Begin before writing.
func NewStore() *Store {
	return &Store{
		area:  make(map[string]entry),
		width: make(map[string]entry),
		wires: make(map[string]*wireEntry),
	}
}

// Begin starts a new pass. Every entry written before becomes unreadable.
func (s *Store) Begin() {
	s.pass++
}

// Pass returns the current pass number.
func (s *Store) Pass() uint64 {
	return s.pass
}

func (s *Store) mustBegun() {
	if s.pass == 0 {
		panic("store written before Begin")
	}
}

// SetArea writes an area and a square-layout width, sqrt(area).
func (s *Store) SetArea(n Named, area float64) {
	s.SetAreaAndWidth(n, area, math.Sqrt(area))
}

// SetAreaAndWidth writes an area with an explicit width.
func (s *Store) SetAreaAndWidth(n Named, area, width float64) {
	s.mustBegun()
	s.area[n.Name()] = entry{value: area, pass: s.pass}
	s.width[n.Name()] = entry{value: width, pass: s.pass}
}

// SetWidth overrides only the width of an entry written in this pass.
func (s *Store) SetWidth(n Named, width float64) {
	s.mustBegun()
	s.width[n.Name()] = entry{value: width, pass: s.pass}
}

// HasArea tells whether the area of n was written in this pass.
func (s *Store) HasArea(n Named) bool {
	e, ok := s.area[n.Name()]
	return ok && e.pass == s.pass
}

// Area returns the area of n written in this pass.
func (s *Store) Area(n Named) float64 {
	return s.read(s.area, "area", n.Name())
}

// Width returns the width of n written in this pass.
func (s *Store) Width(n Named) float64 {
	return s.read(s.width, "width", n.Name())
}

func (s *Store) read(m map[string]entry, mapName, k string) float64 {
	e, ok := m[k]
	if !ok || e.pass != s.pass {
		panic(&DependencyError{Map: mapName, Key: k, Pass: s.pass})
	}

	return e.value
}

// SetWireLength writes the length of a wire and records its layer.
func (s *Store) SetWireLength(w *Wire, length float64) {
	s.mustBegun()
	s.wires[w.Name()] = &wireEntry{
		length: length,
		layer:  w.Layer(),
		pass:   s.pass,
	}
}

func (s *Store) wire(w Named, mapName string) *wireEntry {
	e, ok := s.wires[w.Name()]
	if !ok || e.pass != s.pass {
		panic(&DependencyError{Map: mapName, Key: w.Name(), Pass: s.pass})
	}

	return e
}

// WireLength returns the length of a wire written in this pass.
func (s *Store) WireLength(w Named) float64 {
	return s.wire(w, "wire length").length
}

// WireLayer returns the layer of a wire written in this pass.
func (s *Store) WireLayer(w Named) tech.Layer {
	return s.wire(w, "wire layer").layer
}

// UpdateRC computes the RC of every wire written in this pass.
func (s *Store) UpdateRC(metal tech.MetalStack) {
	for _, e := range s.wires {
		if e.pass != s.pass {
			continue
		}

		e.rc = metal.WireRC(e.layer, e.length)
		e.hasRC = true
	}
}

// WireRC returns the RC of a wire computed in this pass.
func (s *Store) WireRC(w Named) tech.RC {
	e := s.wire(w, "wire RC")
	if !e.hasRC {
		panic(&DependencyError{Map: "wire RC", Key: w.Name(), Pass: s.pass})
	}

	return e.rc
}

// WireNames returns the sorted names of the wires written in this pass.
func (s *Store) WireNames() []string {
	names := make([]string, 0, len(s.wires))
	for n, e := range s.wires {
		if e.pass == s.pass {
			names = append(names, n)
		}
	}

	sort.Strings(names)

	return names
}

// Areas returns a copy of the area entries of this pass.
func (s *Store) Areas() map[string]float64 {
	return s.snapshot(s.area)
}

// Widths returns a copy of the width entries of this pass.
func (s *Store) Widths() map[string]float64 {
	return s.snapshot(s.width)
}

func (s *Store) snapshot(m map[string]entry) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, e := range m {
		if e.pass == s.pass {
			out[k] = e.value
		}
	}

	return out
}
