package covariance

import (
	"context"
	"errors"
	"fmt"

	"github.com/elstanto/muncon/domain/core"
	"github.com/elstanto/muncon/domain/usnp"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var errNilReference = errors.New("covariance: reference dataset is nil")

// Estimator computes the mean response and covariance of an ensemble.
type Estimator struct {
	opts options
}

// NewEstimator creates an estimator.
func NewEstimator(opts ...Option) *Estimator {
	return &Estimator{opts: buildOptions(opts)}
}

// Estimate returns a dataset sharing ports, frequencies and reference
// impedance with reference, whose S-parameters are the per-frequency mean and
// whose covariance is the unbiased sample covariance of the ensemble about
// that mean.
//
// With useEnsembleMean the mean is the arithmetic mean of the samples;
// otherwise the reference's own S-parameters are used as the mean, so the
// covariance measures spread about the externally supplied best estimate.
func (e *Estimator) Estimate(ctx context.Context, reference *usnp.Dataset, samples []*usnp.Dataset, useEnsembleMean bool) (*usnp.Dataset, error) {
	if reference == nil {
		return nil, errNilReference
	}
	if len(samples) < 2 {
		return nil, core.NewInsufficientSamplesError(len(samples))
	}
	if err := e.checkAxes(reference, samples); err != nil {
		return nil, err
	}

	nf := reference.Len()
	means := make([][]complex128, nf)
	covs := make([]*mat.SymDense, nf)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.workers)
	for f := 0; f < nf; f++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			means[f], covs[f] = estimateAt(reference, samples, f, useEnsembleMean)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.opts.log.Debug("estimated covariance over %d points from %d samples (ensemble mean: %t)", nf, len(samples), useEnsembleMean)
	return usnp.Derive(reference).SetSParams(means).SetCovariance(covs).Build()
}

func (e *Estimator) checkAxes(reference *usnp.Dataset, samples []*usnp.Dataset) error {
	ref := reference.Frequencies()
	tol := e.opts.freqTol
	for i, s := range samples {
		if s == nil {
			return fmt.Errorf("%w: sample %d is nil", core.ErrShapeMismatch, i)
		}
		if s.Ports() != reference.Ports() {
			return core.NewPortMismatchError(i, s.Ports(), reference.Ports())
		}
		if s.Len() != len(ref) {
			return core.NewFrequencyLengthError(i, s.Len(), len(ref))
		}
		for f, want := range ref {
			if got := s.Frequency(f); !scalar.EqualWithinAbsOrRel(got, want, tol, tol) {
				return core.NewFrequencyValueError(i, f, got, want)
			}
		}
	}
	return nil
}

// estimateAt stacks the samples at frequency f into an N×W matrix X and
// returns (mean, (X-mean)ᵗ(X-mean)/(N-1)).
func estimateAt(reference *usnp.Dataset, samples []*usnp.Dataset, f int, useEnsembleMean bool) ([]complex128, *mat.SymDense) {
	n := len(samples)
	w := reference.Width()

	x := mat.NewDense(n, w, nil)
	for i, s := range samples {
		x.SetRow(i, usnp.Interleave(s.SParams(f)))
	}

	var mean []float64
	if useEnsembleMean {
		// Averaging offsets from the first sample keeps an ensemble of
		// identical rows exactly at that row.
		mean = make([]float64, w)
		col := make([]float64, n)
		for j := 0; j < w; j++ {
			mat.Col(col, j, x)
			x0 := col[0]
			for i := range col {
				col[i] -= x0
			}
			mean[j] = x0 + stat.Mean(col, nil)
		}
	} else {
		mean = usnp.Interleave(reference.SParams(f))
	}

	dev := mat.NewDense(n, w, nil)
	dev.Apply(func(i, j int, v float64) float64 { return v - mean[j] }, x)

	cov := mat.NewSymDense(w, nil)
	cov.SymOuterK(1/float64(n-1), dev.T())
	return usnp.Deinterleave(mean), cov
}
