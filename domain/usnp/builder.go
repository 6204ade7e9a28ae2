package usnp

import (
	"github.com/elstanto/muncon/domain/core"

	"gonum.org/v1/gonum/mat"
)

// Builder is the provisional structure readers and engines fill field by
// field. Nothing is validated until Build, which either returns a complete
// Dataset or an error.
type Builder struct {
	ports    int
	z0       []complex128
	freqs    []float64
	sparams  [][]complex128
	cov      []*mat.SymDense
	comments []string
}

// NewBuilder starts a dataset with a fixed port count.
func NewBuilder(ports int) (*Builder, error) {
	if ports < 1 {
		return nil, core.NewInvalidPortCountError(ports)
	}
	b := &Builder{ports: ports}
	b.SetZ0(DefaultZ0)
	return b, nil
}

// Derive starts a builder sharing ports, reference impedance, frequencies and
// comments with d. S-parameters and covariance are left empty.
func Derive(d *Dataset) *Builder {
	return &Builder{
		ports:    d.ports,
		z0:       d.Z0(),
		freqs:    d.Frequencies(),
		comments: d.Comments(),
	}
}

// Ports returns the fixed port count.
func (b *Builder) Ports() int { return b.ports }

// SetZ0 sets the per-port reference impedance. A slice whose length differs
// from the port count is not an error: its first element is broadcast to all
// ports, which is how single-value legacy headers are read.
func (b *Builder) SetZ0(z0 ...complex128) *Builder {
	switch {
	case len(z0) == b.ports:
		b.z0 = append([]complex128(nil), z0...)
	case len(z0) > 0:
		b.z0 = make([]complex128, b.ports)
		for i := range b.z0 {
			b.z0[i] = z0[0]
		}
	}
	return b
}

// SetFrequencies replaces the frequency axis (Hz).
func (b *Builder) SetFrequencies(freqs []float64) *Builder {
	b.freqs = append([]float64(nil), freqs...)
	return b
}

// SetSParams replaces all S-parameter rows.
func (b *Builder) SetSParams(rows [][]complex128) *Builder {
	b.sparams = make([][]complex128, len(rows))
	for i, r := range rows {
		b.sparams[i] = append([]complex128(nil), r...)
	}
	return b
}

// AppendPoint adds one frequency and its S-parameter row.
func (b *Builder) AppendPoint(freq float64, row []complex128) *Builder {
	b.freqs = append(b.freqs, freq)
	b.sparams = append(b.sparams, append([]complex128(nil), row...))
	return b
}

// SetCovariance replaces the per-frequency covariance. A nil slice marks the
// covariance as not computed.
func (b *Builder) SetCovariance(cov []*mat.SymDense) *Builder {
	if cov == nil {
		b.cov = nil
		return b
	}
	b.cov = make([]*mat.SymDense, len(cov))
	for i, c := range cov {
		b.cov[i] = cloneSym(c)
	}
	return b
}

// AppendCovariance adds the covariance for the next frequency index.
func (b *Builder) AppendCovariance(c *mat.SymDense) *Builder {
	b.cov = append(b.cov, cloneSym(c))
	return b
}

// SetComments replaces the comment lines.
func (b *Builder) SetComments(comments []string) *Builder {
	b.comments = append([]string(nil), comments...)
	return b
}

// AddComment appends one comment line verbatim.
func (b *Builder) AddComment(line string) *Builder {
	b.comments = append(b.comments, line)
	return b
}

// Build validates every array against the port count and frequency axis.
func (b *Builder) Build() (*Dataset, error) {
	nf := len(b.freqs)
	if len(b.z0) != b.ports {
		return nil, core.NewShapeError("z0", len(b.z0), b.ports)
	}
	if len(b.sparams) != nf {
		return nil, core.NewShapeError("sparams", len(b.sparams), nf)
	}
	n := b.ports * b.ports
	for _, row := range b.sparams {
		if len(row) != n {
			return nil, core.NewShapeError("sparams row", len(row), n)
		}
	}
	if b.cov != nil {
		if len(b.cov) != nf {
			return nil, core.NewShapeError("covariance", len(b.cov), nf)
		}
		w := VectorWidth(b.ports)
		for _, c := range b.cov {
			if c == nil {
				return nil, core.NewShapeError("covariance matrix", 0, w)
			}
			if r, _ := c.Dims(); r != w {
				return nil, core.NewShapeError("covariance matrix", r, w)
			}
		}
	}

	d := &Dataset{
		id:       core.NewDatasetID(),
		ports:    b.ports,
		z0:       append([]complex128(nil), b.z0...),
		freqs:    append([]float64(nil), b.freqs...),
		sparams:  make([][]complex128, nf),
		comments: append([]string(nil), b.comments...),
	}
	for i, row := range b.sparams {
		d.sparams[i] = append([]complex128(nil), row...)
	}
	if b.cov != nil {
		d.cov = make([]*mat.SymDense, nf)
		for i, c := range b.cov {
			d.cov[i] = cloneSym(c)
		}
	}
	return d, nil
}

func cloneSym(c *mat.SymDense) *mat.SymDense {
	if c == nil {
		return nil
	}
	r, _ := c.Dims()
	out := mat.NewSymDense(r, nil)
	out.CopySym(c)
	return out
}
