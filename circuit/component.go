// Package circuit defines the component model of an FPGA fabric: sizable
// leaf circuits that own transistors, compound circuits that aggregate
// children, load objects that only model interconnect, and the derived-value
// store that connects them during an evaluation pass.
package circuit

// Kind tells whether a component owns transistors directly.
type Kind int

const (
	Sizable Kind = iota
	Compound
)

// Name returns the name of the kind.
func (k Kind) Name() string {
	switch k {
	case Sizable:
		return "sizable"
	case Compound:
		return "compound"
	default:
		panic("invalid component kind")
	}
}

// Named is anything that can key the derived-value store.
type Named interface {
	Name() string
}

// A Component is a node of the circuit hierarchy.
type Component interface {
	Named

	Kind() Kind

	// Generate emits a simulatable description of the component and
	// returns the transistors it introduces with their default drive
	// strengths, and the wires it owns.
	Generate(b Backend) Generated

	// GenerateTop emits the stand-alone evaluation harnesses that the
	// delay interface later simulates.
	GenerateTop(b Backend)

	// UpdateArea writes the component's area and width into the store and
	// returns the area the component contributes to its parent.
	UpdateArea(s *Store) float64

	// UpdateWires writes the lengths of the wires the component owns.
	UpdateWires(ctx WireContext)
}

// A SizableComponent is a leaf circuit that owns transistors and takes part
// in the sizing search.
type SizableComponent interface {
	Component

	Devices() []*Device
	Wires() []*Wire
	Probes() []*Probe

	// Category names the delay-weight category of the leaf.
	Category() string

	// DelayWeight is the fixed share of the representative path delay
	// attributed to the leaf.
	DelayWeight() float64
}

// WireContext is passed down the hierarchy while wires are updated.
type WireContext struct {
	*Store

	// Ratio corrects mux-internal wire spans for a non-square tile.
	Ratio float64
}

// Handle identifies a description or harness emitted to a backend.
type Handle string

// Description is the backend-independent description of one subcircuit.
type Description struct {
	Name     string
	Devices  []*Device
	Wires    []*Wire
	Children []string

	// Fanout lists the on, partial and off loads per tile for load
	// objects, keyed by the loaded circuit's name.
	Fanout map[string][]FanoutCount
}

// FanoutCount is the number of on, partially-on and off loads of one kind.
type FanoutCount struct {
	On, Partial, Off int
}

// Total returns the number of loads regardless of state.
func (f FanoutCount) Total() int {
	return f.On + f.Partial + f.Off
}

// Backend receives descriptions and harnesses. The textual format is the
// backend's business.
type Backend interface {
	Subcircuit(d Description) Handle
	Harness(h Harness) Handle
}

// Generated is the result of Generate.
type Generated struct {
	Handle   Handle
	Defaults Sizing
	Wires    []*Wire
}

// merge folds another result into g.
func (g *Generated) merge(o Generated) {
	if g.Defaults == nil {
		g.Defaults = make(Sizing)
	}

	for k, v := range o.Defaults {
		g.Defaults[k] = v
	}

	g.Wires = append(g.Wires, o.Wires...)
}

type key string

func (k key) Name() string {
	return string(k)
}

// Key returns a store key for derived entries that have no component
// handle, such as the tile height.
func Key(name string) Named {
	return key(name)
}

// WithSRAM returns the key under which a component's area including its
// configuration cells is stored.
func WithSRAM(n Named) Named {
	return key(n.Name() + "_sram")
}

// SRAMCell is the key of the configuration cell area.
var SRAMCell Named = key("sram")
