package circuit

// SegmentKind tells how a harness segment loads the path.
type SegmentKind int

const (
	// WireSegment adds a fraction of a wire's R in series and its C to
	// ground.
	WireSegment SegmentKind = iota
	// SeriesDevice places a conducting transistor in the signal path.
	SeriesDevice
	// GateLoad hangs Count transistor gates on the path.
	GateLoad
	// DiffusionLoad hangs Count transistor drains on the path.
	DiffusionLoad
	// FixedRC adds a constant R in series and C to ground, for elements
	// given as leaf data rather than sized.
	FixedRC
	// BranchWire hangs Count whole wires off the path. Their C loads the
	// node but their R is not on the path.
	BranchWire
)

// A Segment is one element of a harness stage.
type Segment struct {
	Kind     SegmentKind
	Wire     *Wire
	Device   *Device
	Fraction float64
	Count    float64
	R, C     float64
}

// A Stage is the net driven by one driver. A nil driver is an ideal
// minimum-size source.
type Stage struct {
	Driver   *Device
	Segments []Segment
}

// A Harness is a stand-alone measurement of one probe: a chain of stages
// from the stimulus to the measured node. Consecutive stages are separated
// by an inverting driver.
type Harness struct {
	Name      string
	Component string
	Probe     string
	Stages    []Stage
}

// StageBuilder accumulates the segments of a stage.
type StageBuilder struct {
	stage Stage
}

// Drive starts a stage driven by d.
func Drive(d *Device) *StageBuilder {
	return &StageBuilder{stage: Stage{Driver: d}}
}

// Wire adds the whole wire w.
func (b *StageBuilder) Wire(w *Wire) *StageBuilder {
	return b.WirePart(w, 1)
}

// WirePart adds a fraction of w.
func (b *StageBuilder) WirePart(w *Wire, fraction float64) *StageBuilder {
	b.stage.Segments = append(b.stage.Segments,
		Segment{Kind: WireSegment, Wire: w, Fraction: fraction, Count: 1})
	return b
}

// Branch hangs count copies of w off the path.
func (b *StageBuilder) Branch(w *Wire, count float64) *StageBuilder {
	if count <= 0 {
		return b
	}

	b.stage.Segments = append(b.stage.Segments,
		Segment{Kind: BranchWire, Wire: w, Fraction: 1, Count: count})
	return b
}

// Series adds a conducting device.
func (b *StageBuilder) Series(d *Device) *StageBuilder {
	b.stage.Segments = append(b.stage.Segments,
		Segment{Kind: SeriesDevice, Device: d, Count: 1})
	return b
}

// Gates adds count gate loads of device d.
func (b *StageBuilder) Gates(d *Device, count float64) *StageBuilder {
	if count <= 0 {
		return b
	}

	b.stage.Segments = append(b.stage.Segments,
		Segment{Kind: GateLoad, Device: d, Count: count})
	return b
}

// Drains adds count diffusion loads of device d.
func (b *StageBuilder) Drains(d *Device, count float64) *StageBuilder {
	if count <= 0 {
		return b
	}

	b.stage.Segments = append(b.stage.Segments,
		Segment{Kind: DiffusionLoad, Device: d, Count: count})
	return b
}

// Fixed adds a constant resistance and capacitance.
func (b *StageBuilder) Fixed(r, c float64) *StageBuilder {
	b.stage.Segments = append(b.stage.Segments,
		Segment{Kind: FixedRC, R: r, C: c, Count: 1})
	return b
}

// Append adds segments produced elsewhere, typically by a load.
func (b *StageBuilder) Append(segs ...Segment) *StageBuilder {
	b.stage.Segments = append(b.stage.Segments, segs...)
	return b
}

// Stage returns the built stage.
func (b *StageBuilder) Stage() Stage {
	return b.stage
}

// Devices returns every device the harness references, drivers included.
func (h Harness) Devices() []*Device {
	seen := make(map[*Device]bool)
	var out []*Device

	add := func(d *Device) {
		if d == nil || seen[d] {
			return
		}
		seen[d] = true
		out = append(out, d)
	}

	for _, st := range h.Stages {
		add(st.Driver)
		for _, s := range st.Segments {
			add(s.Device)
		}
	}

	return out
}
