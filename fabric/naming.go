package fabric

import "fmt"

// NameIDBinding hands out sequential IDs to component names as they are
// constructed, so that duplicated structures get unique names.
type NameIDBinding struct {
	// distributed is the number of IDs handed out so far.
	distributed int
	nameToID    map[string]int
	idToName    map[int]string
	bases       map[string]int
}

// NewNameIDBinding creates an empty binding.
func NewNameIDBinding() *NameIDBinding {
	return &NameIDBinding{
		nameToID: make(map[string]int),
		idToName: make(map[int]string),
		bases:    make(map[string]int),
	}
}

// Register returns a unique name derived from base and binds it to the next
// ID. The first use of a base keeps it unchanged, later uses get a
// _<n> suffix.
func (n *NameIDBinding) Register(base string) string {
	name := base
	if k := n.bases[base]; k > 0 {
		name = fmt.Sprintf("%s_%d", base, k)
	}
	n.bases[base]++

	if _, taken := n.nameToID[name]; taken {
		panic(fmt.Sprintf("component name %s registered twice", name))
	}

	n.nameToID[name] = n.distributed
	n.idToName[n.distributed] = name
	n.distributed++

	return name
}

// ID returns the ID of a registered name.
func (n *NameIDBinding) ID(name string) (int, bool) {
	id, ok := n.nameToID[name]
	return id, ok
}

// Name returns the name bound to an ID.
func (n *NameIDBinding) Name(id int) string {
	return n.idToName[id]
}

// Len returns the number of registered names.
func (n *NameIDBinding) Len() int {
	return n.distributed
}
