package config

import "github.com/pkg/errors"

// MemoryTechnology is the leaf data of one memory bit technology. The
// engine does not derive these numbers.
type MemoryTechnology struct {
	Name string `yaml:"name"`

	// CellArea is the bit-cell area in minimum-transistor units.
	CellArea float64 `yaml:"cell_area"`
	// CellResistance is the read path resistance of one cell in ohm.
	CellResistance float64 `yaml:"cell_resistance"`
	// CellCapacitance is the bit-line capacitance one cell adds in F.
	CellCapacitance float64 `yaml:"cell_capacitance"`
}

// SRAMTechnology returns six-transistor SRAM cell data.
func SRAMTechnology() MemoryTechnology {
	return MemoryTechnology{
		Name:            "sram",
		CellArea:        4,
		CellResistance:  2.0e4,
		CellCapacitance: 3.0e-17,
	}
}

// MTJTechnology returns magnetic tunnel junction cell data.
func MTJTechnology() MemoryTechnology {
	return MemoryTechnology{
		Name:            "mtj",
		CellArea:        2.5,
		CellResistance:  6.0e3,
		CellCapacitance: 2.0e-17,
	}
}

// Memory describes the embedded RAM block.
type Memory struct {
	Enabled bool `yaml:"enabled"`

	RowDecoderBits    int `yaml:"row_decoder_bits"`
	ColumnDecoderBits int `yaml:"column_decoder_bits"`
	ConfDecoderBits   int `yaml:"conf_decoder_bits"`

	Technology MemoryTechnology `yaml:"technology"`
}

// DefaultMemory returns a disabled 512x16 SRAM configuration.
func DefaultMemory() Memory {
	return Memory{
		RowDecoderBits:    8,
		ColumnDecoderBits: 2,
		ConfDecoderBits:   2,
		Technology:        SRAMTechnology(),
	}
}

// Rows returns the number of word lines of one bank.
func (m Memory) Rows() int {
	return 1 << m.RowDecoderBits
}

// Columns returns the number of bit lines of one bank.
func (m Memory) Columns() int {
	return (1 << m.ColumnDecoderBits) * m.DataWidth()
}

// DataWidth returns the number of bits read at once.
func (m Memory) DataWidth() int {
	return 1 << (m.ConfDecoderBits + 2)
}

// Inputs returns the number of block inputs: the row and column address
// bits and the write data.
func (m Memory) Inputs() int {
	return m.RowDecoderBits + m.ColumnDecoderBits + m.DataWidth()
}

// PredecodeGroups splits the row address into groups of 2 or 3 bits.
func (m Memory) PredecodeGroups() []int {
	return PredecodeGroups(m.RowDecoderBits)
}

// PredecodeGroups splits an address of the given width into groups of 3
// bits followed by groups of 2 bits, using as few groups as possible.
func PredecodeGroups(bits int) []int {
	n := (bits + 2) / 3
	threes := bits - 2*n

	groups := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if i < threes {
			groups = append(groups, 3)
		} else {
			groups = append(groups, 2)
		}
	}

	return groups
}

// Validate checks the decoder widths and cell data. A disabled memory is
// always valid.
func (m Memory) Validate() error {
	if !m.Enabled {
		return nil
	}

	if m.RowDecoderBits < 4 || m.RowDecoderBits > 10 {
		return errors.Errorf("row decoder bits %d out of range [4, 10]", m.RowDecoderBits)
	}

	if m.ColumnDecoderBits < 1 || m.ColumnDecoderBits > 4 {
		return errors.Errorf("column decoder bits %d out of range [1, 4]", m.ColumnDecoderBits)
	}

	if m.ConfDecoderBits < 0 || m.ConfDecoderBits > 3 {
		return errors.Errorf("configurable decoder bits %d out of range [0, 3]", m.ConfDecoderBits)
	}

	t := m.Technology
	if t.CellArea <= 0 || t.CellResistance <= 0 || t.CellCapacitance <= 0 {
		return errors.Errorf("memory technology %q needs positive cell data", t.Name)
	}

	return nil
}
