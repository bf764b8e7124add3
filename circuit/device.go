package circuit

import (
	"math"

	"github.com/sarchlab/tilesize/tech"
)

// Element is one independently sized channel of a device.
type Element struct {
	Name     string
	Polarity tech.Polarity
	Default  float64
}

// A Device is a transistor (or complementary transistor pair) owned by a
// sizable leaf.
type Device struct {
	name     string
	kind     tech.TransistorKind
	elements []Element
}

// NewDevice creates a device with explicit elements.
func NewDevice(name string, kind tech.TransistorKind, elems ...Element) *Device {
	d := &Device{
		name:     name,
		kind:     kind,
		elements: make([]Element, len(elems)),
	}
	copy(d.elements, elems)

	return d
}

// NewInverter creates an inverter with the given default NMOS and PMOS
// drive strengths.
func NewInverter(name string, nmos, pmos float64) *Device {
	return NewDevice(name, tech.Inverter,
		Element{Name: name + tech.NMOS.Suffix(), Polarity: tech.NMOS, Default: nmos},
		Element{Name: name + tech.PMOS.Suffix(), Polarity: tech.PMOS, Default: pmos},
	)
}

// NewPassTransistor creates an NMOS pass transistor.
func NewPassTransistor(name string, size float64) *Device {
	return NewDevice(name, tech.PassTransistor,
		Element{Name: name + tech.NMOS.Suffix(), Polarity: tech.NMOS, Default: size},
	)
}

// NewTransmissionGate creates a transmission gate.
func NewTransmissionGate(name string, nmos, pmos float64) *Device {
	return NewDevice(name, tech.TransmissionGate,
		Element{Name: name + tech.NMOS.Suffix(), Polarity: tech.NMOS, Default: nmos},
		Element{Name: name + tech.PMOS.Suffix(), Polarity: tech.PMOS, Default: pmos},
	)
}

// NewTransistor creates a single transistor of the "other" category, such as
// a level restorer or a set/reset device.
func NewTransistor(name string, p tech.Polarity, size float64) *Device {
	return NewDevice(name, tech.Other,
		Element{Name: name + p.Suffix(), Polarity: p, Default: size},
	)
}

// NewGate creates a static CMOS gate of the given fan-in, modelled as an
// inverter-like pair whose elements stand for the stacked network.
func NewGate(name string, nmos, pmos float64) *Device {
	return NewDevice(name, tech.Other,
		Element{Name: name + tech.NMOS.Suffix(), Polarity: tech.NMOS, Default: nmos},
		Element{Name: name + tech.PMOS.Suffix(), Polarity: tech.PMOS, Default: pmos},
	)
}

// Name returns the device name.
func (d *Device) Name() string {
	return d.name
}

// Kind returns the layout kind.
func (d *Device) Kind() tech.TransistorKind {
	return d.kind
}

// Elements returns the sizing elements.
func (d *Device) Elements() []Element {
	return d.elements
}

// Element returns the element of the given polarity.
func (d *Device) Element(p tech.Polarity) (Element, bool) {
	for _, e := range d.elements {
		if e.Polarity == p {
			return e, true
		}
	}

	return Element{}, false
}

// UpdateDeviceArea writes the area of a device, the sum of its element
// areas, and its width into the store.
func UpdateDeviceArea(s *Store, d *Device, sz Sizing, p tech.Process) {
	area := 0.0
	for _, e := range d.elements {
		area += p.Area(d.kind, sz.Get(e.Name))
	}

	s.SetAreaAndWidth(d, area, math.Sqrt(area))
}

// A Wire is an estimated interconnect segment on a fixed metal layer.
type Wire struct {
	name  string
	layer tech.Layer
}

// NewWire creates a wire handle.
func NewWire(name string, layer tech.Layer) *Wire {
	return &Wire{name: name, layer: layer}
}

// Name returns the wire name.
func (w *Wire) Name() string {
	return w.name
}

// Layer returns the metal layer.
func (w *Wire) Layer() tech.Layer {
	return w.layer
}
