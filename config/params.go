// Package config holds the architecture parameters that a fabric is built
// from and checks them before anything is built.
package config

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/sarchlab/tilesize/tech"
)

// Carry chain implementations.
const (
	CarryRipple = "ripple"
	CarrySkip   = "skip"
)

// Params describes one FPGA architecture.
type Params struct {
	// N is the number of BLEs per cluster.
	N int `yaml:"n"`
	// K is the LUT size.
	K int `yaml:"k"`
	// W is the channel width.
	W int `yaml:"w"`
	// L is the wire segment length in tiles.
	L int `yaml:"l"`
	// I is the number of cluster inputs.
	I int `yaml:"i"`

	Fs      int     `yaml:"fs"`
	Fcin    float64 `yaml:"fcin"`
	Fcout   float64 `yaml:"fcout"`
	Fclocal float64 `yaml:"fclocal"`

	// Or and Ofb are the BLE outputs to general and to local routing.
	Or  int `yaml:"or"`
	Ofb int `yaml:"ofb"`

	// Rsel is the LUT input that can select the register input, or empty.
	Rsel string `yaml:"rsel"`
	// Rfb lists the LUT inputs with a register feedback mux.
	Rfb string `yaml:"rfb"`

	UseTGates   bool `yaml:"use_tgates"`
	UseFLUTs    bool `yaml:"use_fluts"`
	VariantCode int  `yaml:"variant"`

	CarryChain     bool   `yaml:"carry_chain"`
	CarryChainType string `yaml:"carry_chain_type"`
	CarrySkipFanin int    `yaml:"carry_skip_fanin"`
	AdderBits      int    `yaml:"adder_bits"`

	// The track access spans are fractions of the tile width that a BLE
	// output, or a cluster input, has to cross to reach its track.
	OutputTrackAccessSpan float64 `yaml:"output_track_access_span"`
	InputTrackAccessSpan  float64 `yaml:"input_track_access_span"`

	MaxTileAspect float64 `yaml:"max_tile_aspect"`

	// HardBlockArea is added to the tile area, in nm².
	HardBlockArea float64 `yaml:"hard_block_area"`

	Memory Memory `yaml:"memory"`

	AreaWeight  float64 `yaml:"area_weight"`
	DelayWeight float64 `yaml:"delay_weight"`

	MaxIterations int `yaml:"max_iterations"`
	MaxPasses     int `yaml:"max_passes"`

	Process tech.Process `yaml:"process"`
}

// Default returns a 10-BLE, 6-LUT cluster on the default process.
func Default() Params {
	return Params{
		N:                     10,
		K:                     6,
		W:                     320,
		L:                     4,
		I:                     40,
		Fs:                    3,
		Fcin:                  0.2,
		Fcout:                 0.025,
		Fclocal:               0.5,
		Or:                    2,
		Ofb:                   1,
		Rsel:                  "c",
		Rfb:                   "c",
		CarryChainType:        CarryRipple,
		CarrySkipFanin:        2,
		AdderBits:             1,
		OutputTrackAccessSpan: 0.25,
		InputTrackAccessSpan:  0.50,
		MaxTileAspect:         4,
		Memory:                DefaultMemory(),
		AreaWeight:            1,
		DelayWeight:           1,
		MaxIterations:         8,
		MaxPasses:             4,
		Process:               tech.DefaultProcess(),
	}
}

// Load reads a YAML architecture file on top of the defaults and validates
// the result.
func Load(path string) (Params, error) {
	p := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return p, errors.Wrapf(err, "read architecture file %s", path)
	}

	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, errors.Wrapf(err, "parse architecture file %s", path)
	}

	if err := p.Validate(); err != nil {
		return p, errors.Wrapf(err, "architecture file %s", path)
	}

	return p, nil
}

// Variant returns the fracturing variant of the architecture.
func (p Params) Variant() Variant {
	v, err := NewVariant(p.VariantCode, p.UseFLUTs)
	if err != nil {
		panic(err)
	}

	return v
}

// NumSBMux returns the number of switch-block muxes per tile.
func (p Params) NumSBMux() int {
	return 2 * p.W / p.L
}

// LUTDepth returns the number of tree levels of one LUT copy.
func (p Params) LUTDepth() int {
	return p.K - p.Variant().Levels()
}

// InputName returns the letter of LUT input idx.
func InputName(idx int) string {
	return string(rune('a' + idx))
}

// Validate rejects inconsistent architectures.
func (p Params) Validate() error {
	checks := []struct {
		ok  bool
		msg string
	}{
		{p.N >= 1, "N must be at least 1"},
		{p.K >= 3 && p.K <= 6, "K must be between 3 and 6"},
		{p.W >= 1, "W must be at least 1"},
		{p.L >= 1, "L must be at least 1"},
		{p.I >= 1, "I must be at least 1"},
		{p.Fs >= 2, "Fs must be at least 2"},
		{p.Fcin > 0 && p.Fcin <= 1, "Fcin must be in (0, 1]"},
		{p.Fcout > 0 && p.Fcout <= 1, "Fcout must be in (0, 1]"},
		{p.Fclocal > 0 && p.Fclocal <= 1, "Fclocal must be in (0, 1]"},
		{p.Or >= 1, "Or must be at least 1"},
		{p.Ofb >= 1, "Ofb must be at least 1"},
		{p.OutputTrackAccessSpan > 0 && p.OutputTrackAccessSpan <= 1,
			"output track access span must be in (0, 1]"},
		{p.InputTrackAccessSpan > 0 && p.InputTrackAccessSpan <= 1,
			"input track access span must be in (0, 1]"},
		{p.MaxTileAspect >= 1, "max tile aspect must be at least 1"},
		{p.HardBlockArea >= 0, "hard block area must not be negative"},
		{p.AreaWeight >= 0 && p.DelayWeight >= 0,
			"cost weights must not be negative"},
		{p.MaxIterations >= 1, "max iterations must be at least 1"},
		{p.MaxPasses >= 1, "max passes must be at least 1"},
	}

	for _, c := range checks {
		if !c.ok {
			return errors.New(c.msg)
		}
	}

	if p.NumSBMux() < 1 {
		return errors.Errorf("2W/L must be at least 1, got W=%d L=%d", p.W, p.L)
	}

	if err := p.validateInputs(); err != nil {
		return err
	}

	if err := p.validateVariant(); err != nil {
		return err
	}

	if err := p.validateCarryChain(); err != nil {
		return err
	}

	if err := p.Memory.Validate(); err != nil {
		return errors.Wrap(err, "memory")
	}

	return errors.Wrap(p.Process.Validate(), "process")
}

func (p Params) validateInputs() error {
	inRange := func(s string) bool {
		return len(s) == 1 && s[0] >= 'a' && int(s[0]-'a') < p.K
	}

	if p.Rsel != "" && !inRange(p.Rsel) {
		return errors.Errorf("Rsel %q is not a LUT input of a %d-LUT", p.Rsel, p.K)
	}

	seen := make(map[rune]bool)
	for _, r := range p.Rfb {
		if !inRange(string(r)) {
			return errors.Errorf("Rfb %q is not a LUT input of a %d-LUT", string(r), p.K)
		}
		if seen[r] {
			return errors.Errorf("Rfb lists input %q twice", string(r))
		}
		seen[r] = true
	}

	return nil
}

func (p Params) validateVariant() error {
	v, err := NewVariant(p.VariantCode, p.UseFLUTs)
	if err != nil {
		return err
	}

	if p.K-v.Levels() < 2 {
		return errors.Errorf("variant %s leaves a LUT tree shallower than 2 levels for K=%d",
			v.Name(), p.K)
	}

	if v.LUTSkip() && !p.CarryChain {
		return errors.Errorf("variant %s needs a carry chain", v.Name())
	}

	if v.FlipFlopSelect() > 0 && p.Rsel != "" {
		return errors.Errorf("variant %s selects the register input itself, Rsel must be empty",
			v.Name())
	}

	return nil
}

func (p Params) validateCarryChain() error {
	if !p.CarryChain {
		return nil
	}

	switch strings.ToLower(p.CarryChainType) {
	case CarryRipple:
	case CarrySkip:
		if p.CarrySkipFanin < 2 || p.CarrySkipFanin > 4 {
			return errors.Errorf("carry skip gate fan-in %d is not supported, need 2 to 4",
				p.CarrySkipFanin)
		}
	default:
		return errors.Errorf("unknown carry chain type %q", p.CarryChainType)
	}

	if p.AdderBits < 1 || p.AdderBits > 2 {
		return errors.Errorf("adder bits per BLE must be 1 or 2, got %d", p.AdderBits)
	}

	return nil
}
