package covariance

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/elstanto/muncon/domain/core"
	"github.com/elstanto/muncon/domain/usnp"
	"github.com/elstanto/muncon/internal/rng"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

var errNilGenerator = errors.New("covariance: random generator is nil")

// Sampler draws correlated synthetic datasets from a mean and covariance.
type Sampler struct {
	opts options
}

// NewSampler creates a sampler.
func NewSampler(opts ...Option) *Sampler {
	return &Sampler{opts: buildOptions(opts)}
}

// Sample draws m datasets. At every frequency, sample k is mean + L·z with
// C = L·Lᵗ and z standard normal, drawn independently per frequency and per
// sample. The outputs carry no covariance.
//
// r is consumed once up front to seed one generator per frequency, so the
// draws are reproducible for a given r regardless of the worker count.
func (s *Sampler) Sample(ctx context.Context, ds *usnp.Dataset, m int, r *rand.Rand) ([]*usnp.Dataset, error) {
	if r == nil {
		return nil, errNilGenerator
	}
	if m < 1 {
		return nil, fmt.Errorf("covariance: sample count %d must be positive", m)
	}
	if !ds.HasCovariance() {
		return nil, core.ErrMissingCovariance
	}

	nf := ds.Len()
	seeds := rng.Split(r, nf)
	draws := make([]*mat.Dense, nf)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.workers)
	for f := 0; f < nf; f++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			l, repaired, err := Factor(ds.Covariance(f))
			if err != nil {
				return core.NewNotRepairableError(f, ds.Frequency(f), err.Error())
			}
			if repaired {
				s.opts.log.Debug("covariance at index %d (%g Hz) repaired before factorization", f, ds.Frequency(f))
			}
			draws[f] = drawAt(ds.Vector(f), l, m, rand.New(rand.NewSource(seeds[f])))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]*usnp.Dataset, m)
	rows := make([][]complex128, nf)
	for k := 0; k < m; k++ {
		for f := 0; f < nf; f++ {
			rows[f] = usnp.Deinterleave(draws[f].RawRowView(k))
		}
		d, err := usnp.Derive(ds).SetSParams(rows).Build()
		if err != nil {
			return nil, err
		}
		out[k] = d
	}
	s.opts.log.Debug("drew %d samples over %d points", m, nf)
	return out, nil
}

func drawAt(mean *mat.VecDense, l *mat.TriDense, m int, r *rand.Rand) *mat.Dense {
	w := mean.Len()
	out := mat.NewDense(m, w, nil)
	z := mat.NewVecDense(w, nil)
	x := mat.NewVecDense(w, nil)
	for k := 0; k < m; k++ {
		for j := 0; j < w; j++ {
			z.SetVec(j, r.NormFloat64())
		}
		x.MulVec(l, z)
		x.AddVec(x, mean)
		out.SetRow(k, x.RawVector().Data)
	}
	return out
}
