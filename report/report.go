// Package report writes the text report of a sized tile, reads it back, and
// collates the reports of many runs.
package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/tilesize/config"
	"github.com/sarchlab/tilesize/delay"
	"github.com/sarchlab/tilesize/fabric"
	"github.com/sarchlab/tilesize/opt"
)

// Section headers of the report file.
const (
	HeaderArch = "ARCHITECTURE PARAMETERS:\n" +
		"-------------------------------------------------\n\n"
	HeaderResults = "SIZING RESULTS:\n" +
		"-------------------------------------------------\n\n"
	HeaderAreaBreakdown = "  TILE AREA CONTRIBUTIONS\n" +
		"  -----------------------\n  "
	HeaderPath = "  REPRESENTATIVE PATH\n" +
		"  -------------------\n  "
)

// An archKey is one architecture line of the report.
type archKey struct {
	label string
	key   string
	value func(p config.Params) string
}

func itoa(v int) string { return strconv.Itoa(v) }

func ftoa(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

var archKeys = []archKey{
	{"Number of BLEs per cluster (N)", "N",
		func(p config.Params) string { return itoa(p.N) }},
	{"LUT size (K)", "K",
		func(p config.Params) string { return itoa(p.K) }},
	{"LUT fracturability level", "use_fluts",
		func(p config.Params) string { return itoa(p.Variant().Levels()) }},
	{"Fracturing variant", "variant",
		func(p config.Params) string { return p.Variant().Name() }},
	{"Number of adder bits per ALM", "adder_bits",
		func(p config.Params) string { return itoa(p.AdderBits) }},
	{"Channel width (W)", "W",
		func(p config.Params) string { return itoa(p.W) }},
	{"Wire segment length (L)", "L",
		func(p config.Params) string { return itoa(p.L) }},
	{"Number of cluster inputs (I)", "I",
		func(p config.Params) string { return itoa(p.I) }},
	{"Number of BLE outputs to general routing (Or)", "Or",
		func(p config.Params) string { return itoa(p.Or) }},
	{"Number of BLE outputs to local routing (Ofb)", "Ofb",
		func(p config.Params) string { return itoa(p.Ofb) }},
	{"Total number of cluster outputs (N*Or)", "O",
		func(p config.Params) string { return itoa(p.N * p.Or) }},
	{"Switch block flexibility (Fs)", "Fs",
		func(p config.Params) string { return itoa(p.Fs) }},
	{"Cluster input flexibility (Fcin)", "Fcin",
		func(p config.Params) string { return ftoa(p.Fcin) }},
	{"Cluster output flexibility (Fcout)", "Fcout",
		func(p config.Params) string { return ftoa(p.Fcout) }},
	{"Local MUX population (Fclocal)", "Fclocal",
		func(p config.Params) string { return ftoa(p.Fclocal) }},
	{"LUT input for register selection MUX (Rsel)", "Rsel",
		func(p config.Params) string { return orNone(p.Rsel) }},
	{"LUT input(s) for register feedback MUX(es) (Rfb)", "Rfb",
		func(p config.Params) string { return orNone(p.Rfb) }},
	{"Use transmission gates", "use_tgates",
		func(p config.Params) string { return strconv.FormatBool(p.UseTGates) }},
	{"Carry chain", "carry_chain",
		func(p config.Params) string {
			if !p.CarryChain {
				return "none"
			}
			return p.CarryChainType
		}},
	{"Area weight", "area_weight",
		func(p config.Params) string { return ftoa(p.AreaWeight) }},
	{"Delay weight", "delay_weight",
		func(p config.Params) string { return ftoa(p.DelayWeight) }},
}

// ArchKeys returns the short names of the architecture lines, in report
// order.
func ArchKeys() []string {
	keys := make([]string, 0, len(archKeys))
	for _, k := range archKeys {
		keys = append(keys, k.key)
	}

	return keys
}

// Blocks lists the area categories of the tile, in report order.
var Blocks = []string{
	fabric.AreaLUT,
	fabric.AreaFF,
	fabric.AreaBLEOutput,
	fabric.AreaLocalMux,
	fabric.AreaConnectionBlock,
	fabric.AreaSwitchBlock,
	fabric.AreaNonActive,
}

// Summary is everything a report shows about one sized tile.
type Summary struct {
	Name       string
	Params     config.Params
	TileArea   float64
	TotalArea  float64
	TileHeight float64
	Delay      sim.VTimeInSec
	Frequency  sim.Freq
	Cost       float64
	Valid      bool
	Breakdown  []fabric.AreaShare
	Terms      []delay.Term
}

// FromFPGA summarizes the last evaluation of f.
func FromFPGA(f *fabric.FPGA) Summary {
	p := f.Params()

	return Summary{
		Name:       f.Name(),
		Params:     p,
		TileArea:   f.Store().Area(f.Tile()) / 1e6,
		TotalArea:  f.CostArea() / 1e6,
		TileHeight: f.TileHeight(),
		Delay:      f.Delay(),
		Frequency:  f.Frequency(),
		Cost:       opt.Cost(f.CostArea(), f.Delay(), p.AreaWeight, p.DelayWeight),
		Valid:      f.Valid(),
		Breakdown:  f.AreaBreakdown(),
		Terms:      f.Terms(),
	}
}

// Write writes the report of s.
func Write(w io.Writer, s Summary) error {
	bw := bufio.NewWriter(w)

	fmt.Fprint(bw, HeaderArch)
	for _, k := range archKeys {
		fmt.Fprintf(bw, "%s: %s\n", k.label, k.value(s.Params))
	}
	fmt.Fprint(bw, "\n")

	fmt.Fprint(bw, HeaderResults)
	fmt.Fprintf(bw, "Name: %s\n", s.Name)
	fmt.Fprintf(bw, "Tile area (um^2): %.3f\n", s.TileArea)
	fmt.Fprintf(bw, "Tile and RAM area (um^2): %.3f\n", s.TotalArea)
	fmt.Fprintf(bw, "Tile height (nm): %.1f\n", s.TileHeight)
	fmt.Fprintf(bw, "Representative path delay (ps): %.3f\n", float64(s.Delay)*1e12)
	fmt.Fprintf(bw, "Frequency (MHz): %.3f\n", float64(s.Frequency)/1e6)
	fmt.Fprintf(bw, "Cost: %g\n", s.Cost)
	fmt.Fprintf(bw, "Valid: %t\n", s.Valid)
	fmt.Fprint(bw, "\n")

	fmt.Fprint(bw, HeaderAreaBreakdown)
	fmt.Fprintf(bw, "%-20s%-22s%s\n", "Block", "Total Area (um^2)",
		"Fraction of total tile area")
	for _, a := range s.Breakdown {
		fmt.Fprintf(bw, "  %-20s%-22.3f%.3f%%\n", a.Name, a.Area, a.Percent)
	}
	fmt.Fprint(bw, "\n")

	fmt.Fprint(bw, HeaderPath)
	fmt.Fprintf(bw, "%-32s %-24s %-14s %s\n", "Term", "Category",
		"Delay (ps)", "Weight")
	for _, t := range s.Terms {
		fmt.Fprintf(bw, "  %-32s %-24s %-14.3f %g\n", t.Name, t.Category,
			float64(t.Delay)*1e12, t.Weight)
	}
	fmt.Fprint(bw, "\n")

	return errors.Wrap(bw.Flush(), "write report")
}

// WriteFile writes the report of s to path.
func WriteFile(path string, s Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create report %s", path)
	}

	if err := Write(f, s); err != nil {
		f.Close()
		return err
	}

	return errors.Wrapf(f.Close(), "close report %s", path)
}
