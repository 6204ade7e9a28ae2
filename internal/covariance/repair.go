package covariance

import (
	"errors"
	"fmt"
	"math"

	"github.com/elstanto/muncon/domain/core"

	"gonum.org/v1/gonum/mat"
)

// Epsilon is the float64 machine epsilon.
const Epsilon = 0x1p-52

// Symmetrize builds an exactly symmetric matrix from the upper triangle and
// diagonal of c. It panics with mat.ErrSquare if c is not square.
func Symmetrize(c mat.Matrix) *mat.SymDense {
	r, k := c.Dims()
	if r != k {
		panic(mat.ErrSquare)
	}
	s := mat.NewSymDense(r, nil)
	for i := 0; i < r; i++ {
		for j := i; j < r; j++ {
			s.SetSym(i, j, c.At(i, j))
		}
	}
	return s
}

// clipFloor is the smallest eigenvalue kept after repair. It is machine
// epsilon, raised in proportion to the spectral radius so that the rebuilt
// matrix still factorizes once reconstruction rounding is accounted for.
func clipFloor(values []float64) float64 {
	n := float64(len(values))
	var maxAbs float64
	for _, v := range values {
		maxAbs = math.Max(maxAbs, math.Abs(v))
	}
	return math.Max(Epsilon, 32*n*math.Sqrt(n)*Epsilon*maxAbs)
}

// Repair returns a positive definite approximation of c: symmetrize, take the
// symmetric eigendecomposition c = Q·D·Qᵗ, clip eigenvalues below the floor,
// and rebuild Q·D'·Qᵗ. A matrix that is already positive definite comes back
// unchanged to within rounding.
func Repair(c mat.Matrix) (*mat.SymDense, error) {
	r, k := c.Dims()
	if r != k {
		return nil, fmt.Errorf("%w: %dx%d matrix is not square", core.ErrCovarianceNotRepairable, r, k)
	}
	s := Symmetrize(c)
	if !finite(s) {
		return nil, fmt.Errorf("%w: non-finite entry", core.ErrCovarianceNotRepairable)
	}

	var es mat.EigenSym
	if !es.Factorize(s, true) {
		return nil, fmt.Errorf("%w: eigendecomposition did not converge", core.ErrCovarianceNotRepairable)
	}
	values := es.Values(nil)
	var q mat.Dense
	es.VectorsTo(&q)

	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: non-finite eigenvalue", core.ErrCovarianceNotRepairable)
		}
	}
	floor := clipFloor(values)

	// Q·D'·Qᵗ = (Q·sqrt(D'))·(Q·sqrt(D'))ᵗ
	scaled := mat.NewDense(r, r, nil)
	for j, v := range values {
		sq := math.Sqrt(math.Max(v, floor))
		for i := 0; i < r; i++ {
			scaled.Set(i, j, q.At(i, j)*sq)
		}
	}
	out := mat.NewSymDense(r, nil)
	out.SymOuterK(1, scaled)
	return out, nil
}

var errStillIndefinite = errors.New("repaired matrix is not positive definite")

// Factor returns the lower Cholesky factor L with c = L·Lᵗ. When c is not
// positive definite it is repaired first and repaired is true. The original
// matrix is never used after a failed factorization.
func Factor(c *mat.SymDense) (l *mat.TriDense, repaired bool, err error) {
	n, _ := c.Dims()
	if !finite(c) {
		return nil, false, fmt.Errorf("%w: non-finite entry", core.ErrCovarianceNotRepairable)
	}
	var chol mat.Cholesky
	if chol.Factorize(c) {
		l = mat.NewTriDense(n, mat.Lower, nil)
		chol.LTo(l)
		return l, false, nil
	}

	fixed, err := Repair(c)
	if err != nil {
		return nil, true, err
	}
	if !chol.Factorize(fixed) {
		return nil, true, fmt.Errorf("%w: %v", core.ErrCovarianceNotRepairable, errStillIndefinite)
	}
	l = mat.NewTriDense(n, mat.Lower, nil)
	chol.LTo(l)
	return l, true, nil
}

func finite(s *mat.SymDense) bool {
	n, _ := s.Dims()
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := s.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}
