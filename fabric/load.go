package fabric

import (
	"math"

	"github.com/sarchlab/tilesize/circuit"
	"github.com/sarchlab/tilesize/tech"
)

// A lengthRule derives a wire length from the current pass.
type lengthRule func(ctx circuit.WireContext) float64

// widthOf spans a fraction of a component's width.
func widthOf(n circuit.Named, fraction float64) lengthRule {
	return func(ctx circuit.WireContext) float64 {
		return ctx.Width(n) * fraction
	}
}

// tileWidthOf spans a multiple of the tile width.
func tileWidthOf(tile circuit.Named, span float64) lengthRule {
	return func(ctx circuit.WireContext) float64 {
		return ctx.Width(tile) * span
	}
}

// tileHeightOf spans the tile height, which differs from its width once the
// tile is floorplanned.
func tileHeightOf(tile circuit.Named) lengthRule {
	return func(ctx circuit.WireContext) float64 {
		return ctx.Area(tile) / ctx.Width(tile)
	}
}

type tap struct {
	kind   circuit.SegmentKind
	device *circuit.Device
	count  float64
	target string
}

// A FanoutLoad is a wire ending on a fixed set of gates and drains, such as
// the net between a LUT output and the muxes it feeds.
type FanoutLoad struct {
	name   string
	wire   *circuit.Wire
	length lengthRule
	taps   []tap
}

var _ circuit.Load = (*FanoutLoad)(nil)

func newFanoutLoad(name string, layer tech.Layer, length lengthRule) *FanoutLoad {
	return &FanoutLoad{
		name:   name,
		wire:   circuit.NewWire("wire_"+name, layer),
		length: length,
		taps:   []tap{},
	}
}

// Gates adds count gate loads of a device of target.
func (l *FanoutLoad) Gates(target string, d *circuit.Device, count float64) *FanoutLoad {
	l.taps = append(l.taps,
		tap{kind: circuit.GateLoad, device: d, count: count, target: target})
	return l
}

// Drains adds count drain loads of a device of target.
func (l *FanoutLoad) Drains(target string, d *circuit.Device, count float64) *FanoutLoad {
	l.taps = append(l.taps,
		tap{kind: circuit.DiffusionLoad, device: d, count: count, target: target})
	return l
}

// Name returns the load name.
func (l *FanoutLoad) Name() string {
	return l.name
}

// Wire returns the wire of the load.
func (l *FanoutLoad) Wire() *circuit.Wire {
	return l.wire
}

// Generate describes the wire and the gates and drains it reaches.
func (l *FanoutLoad) Generate(b circuit.Backend) circuit.Generated {
	fanout := make(map[string][]circuit.FanoutCount)
	for _, t := range l.taps {
		c := circuit.FanoutCount{Off: int(math.Round(t.count))}
		if t.kind == circuit.GateLoad {
			c = circuit.FanoutCount{On: int(math.Round(t.count))}
		}
		fanout[t.target] = append(fanout[t.target], c)
	}

	h := b.Subcircuit(circuit.Description{
		Name:   l.name,
		Wires:  []*circuit.Wire{l.wire},
		Fanout: fanout,
	})

	return circuit.Generated{Handle: h, Wires: []*circuit.Wire{l.wire}}
}

// UpdateWires writes the wire length.
func (l *FanoutLoad) UpdateWires(ctx circuit.WireContext) {
	ctx.SetWireLength(l.wire, l.length(ctx))
}

// Segments returns the wire followed by every tap.
func (l *FanoutLoad) Segments() []circuit.Segment {
	b := circuit.Drive(nil).Wire(l.wire)
	for _, t := range l.taps {
		switch t.kind {
		case circuit.GateLoad:
			b.Gates(t.device, t.count)
		default:
			b.Drains(t.device, t.count)
		}
	}

	return b.Stage().Segments
}

// Tap states of a routing-mux input.
const (
	tapOn = iota
	tapPartial
	tapOff
)

var tapStates = [...]string{"on", "partial", "off"}

// tapWireSpan is the share of the target mux width a tap wire crosses.
const tapWireSpan = 0.5

// A switchTap is the number of inputs of one kind of routing mux that a
// wire reaches in one tile, with one short wire per input state.
type switchTap struct {
	mux   *RoutingMux
	total int
	on    bool
	wires [3]*circuit.Wire
}

// SwitchedWireLoad is a wire crossing one or more tiles and reaching
// routing-mux inputs in each of them. The wire ends on an input of the end
// mux in the far tile, and muxes reached with ReachOn also have one input on
// there. Of the others, those sharing a second-level group with a selected
// input are partially on and the rest are off.
type SwitchedWireLoad struct {
	name   string
	wire   *circuit.Wire
	layer  tech.Layer
	length lengthRule
	tiles  int
	taps   []*switchTap
	end    *RoutingMux
}

var _ circuit.Load = (*SwitchedWireLoad)(nil)

func newSwitchedWireLoad(
	name string,
	layer tech.Layer,
	tiles int,
	length lengthRule,
	end *RoutingMux,
) *SwitchedWireLoad {
	return &SwitchedWireLoad{
		name:   name,
		wire:   circuit.NewWire("wire_"+name, layer),
		layer:  layer,
		length: length,
		tiles:  tiles,
		taps:   []*switchTap{},
		end:    end,
	}
}

// Reach adds total inputs of mux per tile. Only the end mux has an input
// on.
func (l *SwitchedWireLoad) Reach(mux *RoutingMux, total int) *SwitchedWireLoad {
	return l.reach(mux, total, mux == l.end)
}

// ReachOn adds total inputs of mux per tile, one of which is on in the far
// tile.
func (l *SwitchedWireLoad) ReachOn(mux *RoutingMux, total int) *SwitchedWireLoad {
	return l.reach(mux, total, true)
}

func (l *SwitchedWireLoad) reach(mux *RoutingMux, total int, on bool) *SwitchedWireLoad {
	t := &switchTap{mux: mux, total: total, on: on}
	for i, state := range tapStates {
		t.wires[i] = circuit.NewWire(
			"wire_"+l.name+"_"+mux.Name()+"_"+state, l.layer)
	}

	l.taps = append(l.taps, t)

	return l
}

// Name returns the load name.
func (l *SwitchedWireLoad) Name() string {
	return l.name
}

// Wire returns the wire of the load.
func (l *SwitchedWireLoad) Wire() *circuit.Wire {
	return l.wire
}

// TapWire returns the wire from the main wire to one input of mux in the
// given state: "on", "partial" or "off". It returns nil when the load does
// not reach mux.
func (l *SwitchedWireLoad) TapWire(mux *RoutingMux, state string) *circuit.Wire {
	t := l.tap(mux)
	if t == nil {
		return nil
	}

	for i, s := range tapStates {
		if s == state {
			return t.wires[i]
		}
	}

	panic("unknown tap state " + state)
}

// Wires returns the main wire followed by every tap wire.
func (l *SwitchedWireLoad) Wires() []*circuit.Wire {
	wires := []*circuit.Wire{l.wire}
	for _, t := range l.taps {
		wires = append(wires, t.wires[:]...)
	}

	return wires
}

// TileFanout returns the on, partial and off inputs of mux reached in one
// tile.
func (l *SwitchedWireLoad) TileFanout(mux *RoutingMux, tile int) circuit.FanoutCount {
	if t := l.tap(mux); t != nil {
		return l.fanout(t, tile)
	}

	return circuit.FanoutCount{}
}

func (l *SwitchedWireLoad) tap(mux *RoutingMux) *switchTap {
	for _, t := range l.taps {
		if t.mux == mux {
			return t
		}
	}

	return nil
}

func (l *SwitchedWireLoad) fanout(t *switchTap, tile int) circuit.FanoutCount {
	on := 0
	if tile == l.tiles-1 && t.on {
		on = 1
	}

	remaining := max(t.total-on, 0)
	partial := int(math.Round(float64(remaining) / float64(t.mux.Size().Level2)))
	partial = min(partial, remaining)

	return circuit.FanoutCount{
		On:      on,
		Partial: partial,
		Off:     remaining - partial,
	}
}

// Generate describes the wires and the per-tile fan-out.
func (l *SwitchedWireLoad) Generate(b circuit.Backend) circuit.Generated {
	fanout := make(map[string][]circuit.FanoutCount)
	for _, t := range l.taps {
		for tile := 0; tile < l.tiles; tile++ {
			fanout[t.mux.Name()] = append(fanout[t.mux.Name()], l.fanout(t, tile))
		}
	}

	wires := l.Wires()
	h := b.Subcircuit(circuit.Description{
		Name:   l.name,
		Wires:  wires,
		Fanout: fanout,
	})

	return circuit.Generated{Handle: h, Wires: wires}
}

// UpdateWires writes the main wire length and sizes every tap wire from the
// mux it reaches.
func (l *SwitchedWireLoad) UpdateWires(ctx circuit.WireContext) {
	ctx.SetWireLength(l.wire, l.length(ctx))

	for _, t := range l.taps {
		length := widthOf(t.mux, tapWireSpan)(ctx)
		for _, w := range t.wires {
			ctx.SetWireLength(w, length)
		}
	}
}

// Segments returns the path to the end mux followed by the end mux input.
func (l *SwitchedWireLoad) Segments() []circuit.Segment {
	segs := l.Approach()
	if l.end == nil {
		return segs
	}

	return circuit.Drive(nil).
		Append(segs...).
		Drains(l.end.L1(), 1).
		Drains(l.end.L2(), 1).
		Gates(l.end.Input(), 1).
		Stage().Segments
}

// Approach splits the wire in two halves per tile with the tile's taps in
// between, and ends on the tap wire of the end mux. Every tap hangs its
// wire and the switches it sees: an off input the first level, a partially
// on input both levels, and an on input both levels and the buffer.
func (l *SwitchedWireLoad) Approach() []circuit.Segment {
	part := 1 / float64(2*l.tiles)
	b := circuit.Drive(nil)

	for tile := 0; tile < l.tiles; tile++ {
		b.WirePart(l.wire, part)

		for _, t := range l.taps {
			f := l.fanout(t, tile)
			if tile == l.tiles-1 && t.mux == l.end {
				f.On--
			}

			m := t.mux
			b.Branch(t.wires[tapOn], float64(f.On)).
				Branch(t.wires[tapPartial], float64(f.Partial)).
				Branch(t.wires[tapOff], float64(f.Off)).
				Drains(m.L1(), float64(f.Total())).
				Drains(m.L2(), float64(f.On+f.Partial)).
				Gates(m.Input(), float64(f.On))
		}

		b.WirePart(l.wire, part)
	}

	if t := l.tap(l.end); t != nil {
		b.Wire(t.wires[tapOn])
	}

	return b.Stage().Segments
}
