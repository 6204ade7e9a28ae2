package usnp

import (
	"math"
	"math/cmplx"
	"strings"

	"github.com/elstanto/muncon/domain/core"
)

// Format is the numeric representation of one S-parameter value in a file.
type Format string

const (
	FormatRI Format = "RI" // real, imaginary
	FormatMA Format = "MA" // linear magnitude, angle in degrees
	FormatDB Format = "DB" // 20·log10 magnitude, angle in degrees
)

// ParseFormat maps a header tag to a Format. Unrecognized or empty tags are
// read as RI, which is what legacy files without a header contain.
func ParseFormat(tag string) Format {
	switch Format(strings.ToUpper(strings.TrimSpace(tag))) {
	case FormatMA:
		return FormatMA
	case FormatDB:
		return FormatDB
	default:
		return FormatRI
	}
}

// Valid reports whether f is one of the three known representations.
func (f Format) Valid() bool {
	return f == FormatRI || f == FormatMA || f == FormatDB
}

// ToRI converts the pair (a, b) read in format f to a complex value.
func ToRI(f Format, a, b float64) complex128 {
	switch f {
	case FormatMA:
		return cmplx.Rect(a, deg2rad(b))
	case FormatDB:
		return cmplx.Rect(math.Pow(10, a/20), deg2rad(b))
	default:
		return complex(a, b)
	}
}

// FromRI converts v to the pair written in format f. Angles are in degrees in
// (-180, 180]. A zero magnitude in DB is -Inf, which ToRI maps back to zero.
func FromRI(f Format, v complex128) (float64, float64) {
	switch f {
	case FormatMA:
		return cmplx.Abs(v), angleDeg(v)
	case FormatDB:
		return 20 * math.Log10(cmplx.Abs(v)), angleDeg(v)
	default:
		return real(v), imag(v)
	}
}

func deg2rad(deg float64) float64 { return deg * math.Pi / 180 }

func angleDeg(v complex128) float64 {
	a := cmplx.Phase(v) * 180 / math.Pi
	if a == -180 {
		a = 180
	}
	return a
}

// FrequencyUnit is a frequency tag from a file header. The tag itself carries
// the multiplier, so writers never have to recover it from a rescaled value.
type FrequencyUnit string

const (
	Hz  FrequencyUnit = "Hz"
	KHz FrequencyUnit = "KHz"
	MHz FrequencyUnit = "MHz"
	GHz FrequencyUnit = "GHz"
)

var unitMultipliers = map[FrequencyUnit]float64{
	Hz:  1,
	KHz: 1e3,
	MHz: 1e6,
	GHz: 1e9,
}

// ParseFrequencyUnit maps a header tag to a unit. Matching ignores case, as
// Touchstone headers are commonly written in upper case.
func ParseFrequencyUnit(tag string) (FrequencyUnit, error) {
	t := strings.TrimSpace(tag)
	for u := range unitMultipliers {
		if strings.EqualFold(string(u), t) {
			return u, nil
		}
	}
	return "", core.NewUnknownFrequencyUnitError(tag)
}

// Multiplier returns the factor converting a raw value in u to Hz. Unknown
// units return 0.
func (u FrequencyUnit) Multiplier() float64 {
	return unitMultipliers[u]
}

// ToHz converts a raw header-unit value to Hz.
func (u FrequencyUnit) ToHz(raw float64) (float64, error) {
	m, ok := unitMultipliers[u]
	if !ok {
		return 0, core.NewUnknownFrequencyUnitError(string(u))
	}
	return raw * m, nil
}

// FromHz converts a value in Hz to the raw value written under u.
func (u FrequencyUnit) FromHz(hz float64) (float64, error) {
	m, ok := unitMultipliers[u]
	if !ok {
		return 0, core.NewUnknownFrequencyUnitError(string(u))
	}
	return hz / m, nil
}
