package report

import (
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Parsed holds what Parse reads back from a report.
type Parsed struct {
	Path string
	// Arch maps the short architecture key to its raw value.
	Arch map[string]string
	// Areas maps a block to its area in µm².
	Areas map[string]float64
	// Fractions maps a block to its share of the tile area, in [0, 1].
	Fractions map[string]float64
}

// ArchFloat returns an architecture value as a number.
func (p Parsed) ArchFloat(key string) (float64, bool) {
	v, ok := p.Arch[key]
	if !ok {
		return 0, false
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}

	return f, true
}

func findSection(text, header string) (string, error) {
	_, after, found := strings.Cut(text, header)
	if !found {
		return "", errors.Errorf("section %q not found", strings.TrimSpace(header))
	}

	section, _, _ := strings.Cut(after, "\n\n")

	return section, nil
}

// Parse reads the architecture and the tile area contributions of a report.
func Parse(text string) (Parsed, error) {
	p := Parsed{
		Arch:      make(map[string]string),
		Areas:     make(map[string]float64),
		Fractions: make(map[string]float64),
	}

	arch, err := findSection(text, HeaderArch)
	if err != nil {
		return p, err
	}

	labels := make(map[string]string)
	for _, k := range archKeys {
		labels[k.label] = k.key
	}

	for _, line := range strings.Split(arch, "\n") {
		label, value, found := strings.Cut(strings.TrimSpace(line), ": ")
		if !found {
			continue
		}

		if key, known := labels[label]; known {
			p.Arch[key] = value
		}
	}

	breakdown, err := findSection(text, HeaderAreaBreakdown)
	if err != nil {
		return p, err
	}

	for _, line := range strings.Split(breakdown, "\n") {
		if err := p.parseAreaLine(line); err != nil {
			return p, err
		}
	}

	return p, nil
}

func (p *Parsed) parseAreaLine(line string) error {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return nil
	}

	n := len(fields)
	pct, isPct := strings.CutSuffix(fields[n-1], "%")
	if !isPct {
		return nil
	}

	block := strings.Join(fields[:n-2], " ")
	if !isBlock(block) {
		return nil
	}

	area, err := strconv.ParseFloat(fields[n-2], 64)
	if err != nil {
		return errors.Wrapf(err, "area of %s", block)
	}

	frac, err := strconv.ParseFloat(pct, 64)
	if err != nil {
		return errors.Wrapf(err, "fraction of %s", block)
	}

	p.Areas[block] = area
	p.Fractions[block] = frac / 100

	return nil
}

func isBlock(name string) bool {
	for _, b := range Blocks {
		if b == name {
			return true
		}
	}

	return false
}

// ParseFile reads and parses the report at path.
func ParseFile(path string) (Parsed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Parsed{}, errors.Wrapf(err, "read report %s", path)
	}

	p, err := Parse(string(data))
	if err != nil {
		return p, errors.Wrapf(err, "report %s", path)
	}
	p.Path = path

	return p, nil
}
