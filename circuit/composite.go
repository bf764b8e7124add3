package circuit

// A Load models interconnect hanging on a net: its wires and the
// multiplexer inputs it reaches. Loads own no sized transistors.
type Load interface {
	Named

	Generate(b Backend) Generated
	UpdateWires(ctx WireContext)

	// Segments returns the harness segments the load adds to the stage
	// that drives it.
	Segments() []Segment
}

// Child is one entry of a composite with its replication count.
type Child struct {
	Component Component
	Count     float64
}

// Composite is a compound circuit. It aggregates its children and loads in
// insertion order and owns no transistors.
type Composite struct {
	name      string
	children  []Child
	loads     []Load
	fixedArea float64
}

// NewComposite creates an empty compound circuit.
func NewComposite(name string) *Composite {
	return &Composite{
		name:     name,
		children: []Child{},
		loads:    []Load{},
	}
}

// Add appends a child replicated count times. A zero count keeps the child
// in the hierarchy without contributing area.
func (c *Composite) Add(comp Component, count float64) *Composite {
	if count < 0 {
		panic("negative child count")
	}

	c.children = append(c.children, Child{Component: comp, Count: count})

	return c
}

// AddLoad appends a load object.
func (c *Composite) AddLoad(l Load) *Composite {
	c.loads = append(c.loads, l)
	return c
}

// WithFixedArea adds a constant area term, such as a hard block.
func (c *Composite) WithFixedArea(area float64) *Composite {
	c.fixedArea = area
	return c
}

// Name returns the composite name.
func (c *Composite) Name() string {
	return c.name
}

// Kind returns Compound.
func (c *Composite) Kind() Kind {
	return Compound
}

// Children returns the children in insertion order.
func (c *Composite) Children() []Child {
	return c.children
}

// Loads returns the loads in insertion order.
func (c *Composite) Loads() []Load {
	return c.loads
}

// Generate generates every child, then every load, and describes the
// composite itself.
func (c *Composite) Generate(b Backend) Generated {
	g := Generated{Defaults: make(Sizing)}
	desc := Description{
		Name:   c.name,
		Fanout: make(map[string][]FanoutCount),
	}

	for _, ch := range c.children {
		g.merge(ch.Component.Generate(b))
		desc.Children = append(desc.Children, ch.Component.Name())
	}

	for _, l := range c.loads {
		g.merge(l.Generate(b))
		desc.Children = append(desc.Children, l.Name())
	}

	g.Handle = b.Subcircuit(desc)

	return g
}

// GenerateTop forwards to every child.
func (c *Composite) GenerateTop(b Backend) {
	for _, ch := range c.children {
		ch.Component.GenerateTop(b)
	}
}

// UpdateArea sums the contributions of the children, each multiplied by its
// count, plus the fixed area.
func (c *Composite) UpdateArea(s *Store) float64 {
	total := c.fixedArea
	for _, ch := range c.children {
		total += ch.Count * ch.Component.UpdateArea(s)
	}

	s.SetArea(c, total)

	return total
}

// UpdateWires forwards to every child, then every load.
func (c *Composite) UpdateWires(ctx WireContext) {
	for _, ch := range c.children {
		ch.Component.UpdateWires(ctx)
	}

	for _, l := range c.loads {
		l.UpdateWires(ctx)
	}
}

// Leaves returns every sizable leaf below the composite in depth-first
// insertion order.
func (c *Composite) Leaves() []SizableComponent {
	var out []SizableComponent
	seen := make(map[string]bool)

	var walk func(Component)
	walk = func(comp Component) {
		switch v := comp.(type) {
		case *Composite:
			for _, ch := range v.children {
				walk(ch.Component)
			}
		case SizableComponent:
			if !seen[v.Name()] {
				seen[v.Name()] = true
				out = append(out, v)
			}
		}
	}
	walk(c)

	return out
}
