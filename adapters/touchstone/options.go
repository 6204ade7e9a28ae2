// Package touchstone reads and writes Touchstone .sNp files. The option line
// parser and the numeric record scanner are shared with the DSD adapter.
package touchstone

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/elstanto/muncon/domain/usnp"
)

// Options is the content of a "# <unit> S <format> R <z0>" line.
type Options struct {
	Unit   usnp.FrequencyUnit
	Format usnp.Format
	Z0     float64
}

// DefaultOptions are the values assumed when a file has no option line.
// Legacy files without a header hold RI pairs.
func DefaultOptions() Options {
	return Options{Unit: usnp.GHz, Format: usnp.FormatRI, Z0: usnp.DefaultZ0}
}

// ParseOptionLine reads an option line. Tokens may appear in any order and in
// any case; missing tokens keep their defaults. A token ending in "Hz" is a
// frequency unit and must be a known one. Any other unrecognized token is a
// format tag and reads as RI.
func ParseOptionLine(line string) (Options, error) {
	opts := DefaultOptions()
	fields := strings.Fields(strings.TrimPrefix(strings.TrimSpace(line), "#"))
	for i := 0; i < len(fields); i++ {
		tok := strings.ToUpper(fields[i])
		switch tok {
		case "S":
		case "Y", "Z", "H", "G":
			return opts, fmt.Errorf("unsupported parameter type %s", tok)
		case "R":
			if i+1 >= len(fields) {
				return opts, fmt.Errorf("reference impedance missing after R")
			}
			z0, err := strconv.ParseFloat(fields[i+1], 64)
			if err != nil {
				return opts, fmt.Errorf("reference impedance %q: %w", fields[i+1], err)
			}
			opts.Z0 = z0
			i++
		default:
			if strings.HasSuffix(tok, "HZ") {
				u, err := usnp.ParseFrequencyUnit(fields[i])
				if err != nil {
					return opts, err
				}
				opts.Unit = u
				continue
			}
			opts.Format = usnp.ParseFormat(tok)
		}
	}
	return opts, nil
}

// String formats the option line.
func (o Options) String() string {
	return fmt.Sprintf("# %s S %s R %s", o.Unit, o.Format, FormatFloat(o.Z0))
}

// FormatFloat writes the shortest text that reads back as v.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
