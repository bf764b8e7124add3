package tech

import "github.com/pkg/errors"

// Layer indexes the metal stack. Higher layers are wider and more widely
// spaced and carry longer signals.
type Layer int

const (
	LayerLocal Layer = iota
	LayerRouting
	LayerBitline
	LayerWordline
)

// Metal is one layer of the metal stack.
type Metal struct {
	// R is the resistance per nm in ohm.
	R float64 `yaml:"r"`
	// C is the capacitance per nm in F.
	C float64 `yaml:"c"`
}

// MetalStack lists metal layers from the lowest to the highest.
type MetalStack []Metal

// RC is the lumped resistance and capacitance of a wire.
type RC struct {
	R float64
	C float64
}

// Validate checks that all layers have positive parasitics and that the stack
// covers every layer the engine assigns.
func (m MetalStack) Validate() error {
	if len(m) <= int(LayerWordline) {
		return errors.Errorf("metal stack needs %d layers, got %d",
			int(LayerWordline)+1, len(m))
	}

	for i, l := range m {
		if l.R <= 0 || l.C <= 0 {
			return errors.Errorf("metal layer %d has non-positive parasitics", i)
		}
	}

	return nil
}

// WireRC returns the lumped RC of a wire of the given length (nm) on the given
// layer. The capacitance is halved to approximate a distributed line with a
// single lumped segment.
func (m MetalStack) WireRC(layer Layer, length float64) RC {
	if int(layer) < 0 || int(layer) >= len(m) {
		panic("invalid metal layer")
	}

	metal := m[layer]

	return RC{
		R: metal.R * length,
		C: metal.C * length / 2,
	}
}
