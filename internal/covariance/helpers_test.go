package covariance

import (
	"testing"

	"github.com/elstanto/muncon/domain/usnp"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

var testFreqs = []float64{1e9, 2e9, 3e9}

// dataset builds a dataset over testFreqs whose row at each frequency is
// rowAt(f).
func dataset(t *testing.T, ports int, rowAt func(f int) []complex128) *usnp.Dataset {
	t.Helper()
	b, err := usnp.NewBuilder(ports)
	require.NoError(t, err)
	for f, freq := range testFreqs {
		b.AppendPoint(freq, rowAt(f))
	}
	d, err := b.Build()
	require.NoError(t, err)
	return d
}

func twoPortRow(f int) []complex128 {
	x := float64(f)
	return []complex128{
		complex(0.1+0.01*x, -0.05),
		complex(0.9, -0.1*x),
		complex(0.88, -0.1*x+0.01),
		complex(0.2, 0.3-0.02*x),
	}
}

func isSymmetric(m mat.Matrix, tol float64) bool {
	r, _ := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < r; j++ {
			d := m.At(i, j) - m.At(j, i)
			if d > tol || d < -tol {
				return false
			}
		}
	}
	return true
}

func minEigen(t *testing.T, s *mat.SymDense) float64 {
	t.Helper()
	var es mat.EigenSym
	require.True(t, es.Factorize(s, false))
	vals := es.Values(nil)
	min := vals[0]
	for _, v := range vals {
		if v < min {
			min = v
		}
	}
	return min
}
