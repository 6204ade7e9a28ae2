package usnp

import (
	"math"

	"github.com/elstanto/muncon/domain/core"

	"gonum.org/v1/gonum/mat"
)

// DefaultZ0 is the reference impedance assumed when a source supplies none.
const DefaultZ0 = 50

// Dataset is one S-parameter network with uncertainty.
//
// A Dataset is immutable once built: every accessor returns a copy. Only
// Builder creates Datasets, so a consumer may assume all fields are set together
// and share the same frequency axis.
type Dataset struct {
	id       core.DatasetID
	ports    int
	z0       []complex128
	freqs    []float64
	sparams  [][]complex128  // F x ports², row-major over (out, in)
	cov      []*mat.SymDense // F x W x W, nil when not computed
	comments []string
}

// ID returns the identifier assigned at build time.
func (d *Dataset) ID() core.DatasetID { return d.id }

// Ports returns the number of physical ports.
func (d *Dataset) Ports() int { return d.ports }

// Len returns the number of frequency points F.
func (d *Dataset) Len() int { return len(d.freqs) }

// Width returns the length of the real flattened S-parameter vector, 2·ports².
func (d *Dataset) Width() int { return VectorWidth(d.ports) }

// VectorWidth returns 2·ports², the dimension of one per-frequency covariance matrix.
func VectorWidth(ports int) int { return 2 * ports * ports }

// Z0 returns the per-port reference impedance.
func (d *Dataset) Z0() []complex128 {
	return append([]complex128(nil), d.z0...)
}

// Frequencies returns the frequency axis in Hz.
func (d *Dataset) Frequencies() []float64 {
	return append([]float64(nil), d.freqs...)
}

// Frequency returns the frequency at index f in Hz.
func (d *Dataset) Frequency(f int) float64 { return d.freqs[f] }

// SParams returns the flattened S-parameter row at frequency index f.
func (d *Dataset) SParams(f int) []complex128 {
	return append([]complex128(nil), d.sparams[f]...)
}

// SParam returns S(out, in) at frequency index f, with 1-based port numbers.
func (d *Dataset) SParam(f, out, in int) complex128 {
	return d.sparams[f][(out-1)*d.ports+(in-1)]
}

// Vector returns the re/im interleaved vector at frequency index f.
func (d *Dataset) Vector(f int) *mat.VecDense {
	return mat.NewVecDense(d.Width(), Interleave(d.sparams[f]))
}

// HasCovariance reports whether a covariance was computed for this dataset.
func (d *Dataset) HasCovariance() bool { return d.cov != nil }

// Covariance returns a copy of the covariance matrix at frequency index f, or
// nil when the dataset carries no covariance.
func (d *Dataset) Covariance(f int) *mat.SymDense {
	if d.cov == nil {
		return nil
	}
	c := mat.NewSymDense(d.Width(), nil)
	c.CopySym(d.cov[f])
	return c
}

// StandardUncertainty returns sqrt(diag(covariance)) at frequency index f, in
// vector order. It returns nil when no covariance is present.
func (d *Dataset) StandardUncertainty(f int) []float64 {
	if d.cov == nil {
		return nil
	}
	w := d.Width()
	u := make([]float64, w)
	for i := 0; i < w; i++ {
		u[i] = math.Sqrt(math.Max(d.cov[f].At(i, i), 0))
	}
	return u
}

// Comments returns the annotation lines carried from the source file.
func (d *Dataset) Comments() []string {
	return append([]string(nil), d.comments...)
}

// Fingerprint hashes the numeric content (ports, frequencies, S-parameters and
// covariance). Two datasets with the same numbers share a fingerprint
// regardless of ID or comments.
func (d *Dataset) Fingerprint() core.Hash {
	var h core.FloatHasher
	h.Int(d.ports)
	h.Int(len(d.freqs))
	h.Floats(d.freqs...)
	for _, row := range d.sparams {
		h.Floats(Interleave(row)...)
	}
	if d.cov != nil {
		w := d.Width()
		for _, c := range d.cov {
			for i := 0; i < w; i++ {
				for j := i; j < w; j++ {
					h.Floats(c.At(i, j))
				}
			}
		}
	}
	return h.Sum()
}

// Interleave flattens complex values into [re0, im0, re1, im1, ...].
func Interleave(row []complex128) []float64 {
	out := make([]float64, 2*len(row))
	for i, v := range row {
		out[2*i] = real(v)
		out[2*i+1] = imag(v)
	}
	return out
}

// Deinterleave is the inverse of Interleave.
func Deinterleave(v []float64) []complex128 {
	out := make([]complex128, len(v)/2)
	for i := range out {
		out[i] = complex(v[2*i], v[2*i+1])
	}
	return out
}
