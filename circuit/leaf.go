package circuit

import "github.com/sarchlab/tilesize/tech"

// Leaf holds the bookkeeping shared by every sizable circuit. Concrete
// leaves embed it and provide the topology-specific Generate, GenerateTop,
// UpdateArea and UpdateWires.
type Leaf struct {
	name     string
	category string
	weight   float64

	devices []*Device
	wires   []*Wire
	probes  []*Probe
}

// NewLeaf creates leaf bookkeeping with its own empty device, wire and probe
// lists.
func NewLeaf(name, category string, weight float64) *Leaf {
	return &Leaf{
		name:     name,
		category: category,
		weight:   weight,
		devices:  []*Device{},
		wires:    []*Wire{},
		probes:   []*Probe{},
	}
}

// Name returns the leaf name.
func (l *Leaf) Name() string {
	return l.name
}

// Kind returns Sizable.
func (l *Leaf) Kind() Kind {
	return Sizable
}

// Category returns the delay-weight category.
func (l *Leaf) Category() string {
	return l.category
}

// DelayWeight returns the share of the representative path attributed to
// the leaf.
func (l *Leaf) DelayWeight() float64 {
	return l.weight
}

// Devices returns the devices the leaf owns.
func (l *Leaf) Devices() []*Device {
	return l.devices
}

// Wires returns the wires the leaf owns.
func (l *Leaf) Wires() []*Wire {
	return l.wires
}

// Probes returns the measured paths of the leaf.
func (l *Leaf) Probes() []*Probe {
	return l.probes
}

// Probe returns the probe with the given name, or nil.
func (l *Leaf) Probe(name string) *Probe {
	for _, p := range l.probes {
		if p.Name() == name {
			return p
		}
	}

	return nil
}

// Timing returns the timing of the primary probe.
func (l *Leaf) Timing() Timing {
	if len(l.probes) == 0 {
		return Timing{}
	}

	return l.probes[0].Timing()
}

// AddDevice registers a device.
func (l *Leaf) AddDevice(d *Device) *Device {
	l.devices = append(l.devices, d)
	return d
}

// AddWire registers a wire.
func (l *Leaf) AddWire(name string, layer tech.Layer) *Wire {
	w := NewWire(name, layer)
	l.wires = append(l.wires, w)

	return w
}

// AddProbe registers a measured path.
func (l *Leaf) AddProbe(name string) *Probe {
	p := NewProbe(name)
	l.probes = append(l.probes, p)

	return p
}

// Emit describes the leaf to the backend and returns the defaults of every
// sizing element it owns.
func (l *Leaf) Emit(b Backend) Generated {
	h := b.Subcircuit(Description{
		Name:    l.name,
		Devices: l.devices,
		Wires:   l.wires,
	})

	defaults := make(Sizing)
	for _, d := range l.devices {
		for _, e := range d.Elements() {
			defaults[e.Name] = e.Default
		}
	}

	wires := make([]*Wire, len(l.wires))
	copy(wires, l.wires)

	return Generated{Handle: h, Defaults: defaults, Wires: wires}
}

// EmitHarness emits the harness of probe p and attaches it.
func (l *Leaf) EmitHarness(b Backend, p *Probe, stages ...Stage) {
	h := b.Harness(Harness{
		Name:      l.name + "." + p.Name(),
		Component: l.name,
		Probe:     p.Name(),
		Stages:    stages,
	})
	p.Attach(h)
}

// StoreArea writes the leaf area without and with configuration cells and
// returns the latter, which is what the leaf contributes to its parent.
func (l *Leaf) StoreArea(s *Store, area float64, configBits int) float64 {
	withSRAM := area + float64(configBits)*s.Area(SRAMCell)

	s.SetArea(l, area)
	s.SetArea(WithSRAM(l), withSRAM)

	return withSRAM
}
