package usnp

import (
	"gonum.org/v1/gonum/mat"
)

// Port-order conventions. Rows are row-major over (out, in): for two ports the
// order is S11 S12 S21 S22. Touchstone writes two-port data as S11 S21 S12 S22,
// so rows crossing that boundary go through SwapS12S21. Port counts other than
// one or two pass through unchanged.

// swapPerm maps real vector indices of a two-port row with S12 and S21 exchanged.
var swapPerm = [8]int{0, 1, 4, 5, 2, 3, 6, 7}

// PadTo2Port lays a one-port row out as a two-port row: S11 is kept and S12,
// S21, S22 are zero.
func PadTo2Port(row []complex128) []complex128 {
	if len(row) != 1 {
		return append([]complex128(nil), row...)
	}
	return []complex128{row[0], 0, 0, 0}
}

// SwapS12S21 exchanges S12 and S21 of a two-port row. It is an involution.
func SwapS12S21(row []complex128) []complex128 {
	out := append([]complex128(nil), row...)
	if len(row) == 4 {
		out[1], out[2] = row[2], row[1]
	}
	return out
}

// SwapV12V21 applies the S12/S21 exchange to both axes of a two-port
// covariance matrix, so the result stays symmetric.
func SwapV12V21(c *mat.SymDense) *mat.SymDense {
	n, _ := c.Dims()
	out := mat.NewSymDense(n, nil)
	if n != len(swapPerm) {
		out.CopySym(c)
		return out
	}
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			out.SetSym(i, j, c.At(swapPerm[i], swapPerm[j]))
		}
	}
	return out
}

// PadCovarianceTo2Port embeds a one-port 2×2 covariance in the S11 block of
// an 8×8 two-port covariance. Other sizes are copied.
func PadCovarianceTo2Port(c *mat.SymDense) *mat.SymDense {
	n, _ := c.Dims()
	if n != VectorWidth(1) {
		out := mat.NewSymDense(n, nil)
		out.CopySym(c)
		return out
	}
	out := mat.NewSymDense(VectorWidth(2), nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			out.SetSym(i, j, c.At(i, j))
		}
	}
	return out
}

// TwoPortLayout returns d unchanged when it is not a one-port dataset;
// otherwise a two-port copy with zero S12, S21, S22 and, when present, the
// covariance padded to match.
func TwoPortLayout(d *Dataset) (*Dataset, error) {
	if d.Ports() != 1 {
		return d, nil
	}
	b, err := NewBuilder(2)
	if err != nil {
		return nil, err
	}
	b.SetZ0(d.z0[0]).SetComments(d.comments)
	for f := range d.freqs {
		b.AppendPoint(d.freqs[f], PadTo2Port(d.sparams[f]))
		if d.cov != nil {
			b.AppendCovariance(PadCovarianceTo2Port(d.cov[f]))
		}
	}
	return b.Build()
}

// Transpose2Port swaps S12 and S21 in every row of a two-port dataset. The
// covariance axes are swapped only when swapCovariance is set: the two
// exchanges are configured independently.
func Transpose2Port(d *Dataset, swapCovariance bool) (*Dataset, error) {
	if d.Ports() != 2 {
		return d, nil
	}
	b := Derive(d)
	for f := range d.freqs {
		b.sparams = append(b.sparams, SwapS12S21(d.sparams[f]))
		if d.cov != nil {
			c := d.cov[f]
			if swapCovariance {
				c = SwapV12V21(c)
			}
			b.AppendCovariance(c)
		}
	}
	return b.Build()
}
