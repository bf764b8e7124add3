package circuit

import "sort"

// Sizing maps a sizing element name to its drive strength, in multiples of
// the minimum transistor width.
type Sizing map[string]float64

// Get returns the drive strength of an element. An element that was never
// generated is a construction bug and panics.
func (s Sizing) Get(name string) float64 {
	v, ok := s[name]
	if !ok {
		panic(&DependencyError{Map: "sizing", Key: name})
	}

	return v
}

// Clone returns an independent copy.
func (s Sizing) Clone() Sizing {
	c := make(Sizing, len(s))
	for k, v := range s {
		c[k] = v
	}

	return c
}

// Names returns the element names in sorted order.
func (s Sizing) Names() []string {
	names := make([]string, 0, len(s))
	for k := range s {
		names = append(names, k)
	}

	sort.Strings(names)

	return names
}
