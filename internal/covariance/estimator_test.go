package covariance

import (
	"context"
	"math/rand"
	"testing"

	"github.com/elstanto/muncon/domain/core"
	"github.com/elstanto/muncon/domain/usnp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

func TestEstimate_IdenticalSamplesGiveZeroCovariance(t *testing.T) {
	ref := dataset(t, 2, twoPortRow)
	for _, n := range []int{2, 3, 10} {
		samples := make([]*usnp.Dataset, n)
		for i := range samples {
			samples[i] = dataset(t, 2, twoPortRow)
		}
		for _, useMean := range []bool{true, false} {
			out, err := NewEstimator().Estimate(context.Background(), ref, samples, useMean)
			require.NoError(t, err)
			require.True(t, out.HasCovariance())
			for f := 0; f < out.Len(); f++ {
				assert.True(t, mat.Equal(mat.NewSymDense(8, nil), out.Covariance(f)), "n=%d f=%d", n, f)
				assert.Equal(t, ref.SParams(f), out.SParams(f))
			}
		}
	}
}

func TestEstimate_PlusMinusDelta(t *testing.T) {
	x := []complex128{0.3 - 0.2i}
	delta := []complex128{0.01 + 0.02i}
	shift := func(sign float64) func(int) []complex128 {
		return func(int) []complex128 {
			return []complex128{x[0] + complex(sign, 0)*delta[0]}
		}
	}
	ref := dataset(t, 1, func(int) []complex128 { return []complex128{0.5} })
	samples := []*usnp.Dataset{
		dataset(t, 1, shift(0)),
		dataset(t, 1, shift(1)),
		dataset(t, 1, shift(-1)),
	}

	out, err := NewEstimator().Estimate(context.Background(), ref, samples, true)
	require.NoError(t, err)

	// Two deviations ±δ over N-1 = 2 give δᵗδ.
	d := mat.NewVecDense(2, usnp.Interleave(delta))
	want := mat.NewSymDense(2, nil)
	want.SymOuterK(1, d)
	for f := 0; f < out.Len(); f++ {
		got := out.SParams(f)[0]
		assert.InDelta(t, real(x[0]), real(got), 1e-15)
		assert.InDelta(t, imag(x[0]), imag(got), 1e-15)
		assert.True(t, mat.EqualApprox(want, out.Covariance(f), 1e-15))
	}
}

func TestEstimate_ReferenceMeanPolicy(t *testing.T) {
	ref := dataset(t, 1, func(int) []complex128 { return []complex128{1} })
	samples := []*usnp.Dataset{
		dataset(t, 1, func(int) []complex128 { return []complex128{2} }),
		dataset(t, 1, func(int) []complex128 { return []complex128{2} }),
	}

	out, err := NewEstimator().Estimate(context.Background(), ref, samples, false)
	require.NoError(t, err)
	for f := 0; f < out.Len(); f++ {
		assert.Equal(t, complex128(1), out.SParams(f)[0])
		// Two deviations of 1 about the reference over N-1 = 1.
		assert.InDelta(t, 2.0, out.Covariance(f).At(0, 0), 1e-15)
		assert.InDelta(t, 0.0, out.Covariance(f).At(1, 1), 1e-15)
	}

	out, err = NewEstimator().Estimate(context.Background(), ref, samples, true)
	require.NoError(t, err)
	assert.Equal(t, complex128(2), out.SParams(0)[0])
	assert.InDelta(t, 0.0, out.Covariance(0).At(0, 0), 1e-15)
}

func TestEstimate_MatchesGeneralCovarianceRoutine(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	ref := dataset(t, 2, twoPortRow)
	samples := make([]*usnp.Dataset, 25)
	for i := range samples {
		samples[i] = dataset(t, 2, func(f int) []complex128 {
			row := twoPortRow(f)
			for k := range row {
				row[k] += complex(0.01*r.NormFloat64(), 0.02*r.NormFloat64())
			}
			return row
		})
	}

	out, err := NewEstimator(WithWorkers(2)).Estimate(context.Background(), ref, samples, true)
	require.NoError(t, err)

	for f := 0; f < out.Len(); f++ {
		x := mat.NewDense(len(samples), 8, nil)
		for i, s := range samples {
			x.SetRow(i, usnp.Interleave(s.SParams(f)))
		}
		var want mat.SymDense
		stat.CovarianceMatrix(&want, x, nil)
		assert.True(t, mat.EqualApprox(&want, out.Covariance(f), 1e-14), "f=%d", f)
	}
	assert.Equal(t, ref.Frequencies(), out.Frequencies())
	assert.Equal(t, ref.Z0(), out.Z0())
}

func TestEstimate_WorkerCountDoesNotChangeResult(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	ref := dataset(t, 2, twoPortRow)
	samples := make([]*usnp.Dataset, 5)
	for i := range samples {
		samples[i] = dataset(t, 2, func(f int) []complex128 {
			row := twoPortRow(f)
			row[0] += complex(r.NormFloat64(), 0)
			return row
		})
	}
	a, err := NewEstimator(WithWorkers(1)).Estimate(context.Background(), ref, samples, false)
	require.NoError(t, err)
	b, err := NewEstimator(WithWorkers(8)).Estimate(context.Background(), ref, samples, false)
	require.NoError(t, err)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
}

func TestEstimate_InsufficientSamples(t *testing.T) {
	ref := dataset(t, 2, twoPortRow)
	for _, samples := range [][]*usnp.Dataset{nil, {ref}} {
		_, err := NewEstimator().Estimate(context.Background(), ref, samples, true)
		assert.ErrorIs(t, err, core.ErrInsufficientSamples)
	}
}

func TestEstimate_FrequencyMismatch(t *testing.T) {
	ref := dataset(t, 1, func(int) []complex128 { return []complex128{0.5} })

	short, err := usnp.Derive(ref).
		SetFrequencies(testFreqs[:2]).
		SetSParams([][]complex128{{0.5}, {0.5}}).
		Build()
	require.NoError(t, err)

	shifted, err := usnp.Derive(ref).
		SetFrequencies([]float64{1e9, 2.001e9, 3e9}).
		SetSParams([][]complex128{{0.5}, {0.5}, {0.5}}).
		Build()
	require.NoError(t, err)

	nudged, err := usnp.Derive(ref).
		SetFrequencies([]float64{1e9, 2e9 * (1 + 1e-12), 3e9}).
		SetSParams([][]complex128{{0.5}, {0.5}, {0.5}}).
		Build()
	require.NoError(t, err)

	_, err = NewEstimator().Estimate(context.Background(), ref, []*usnp.Dataset{ref, short}, true)
	assert.ErrorIs(t, err, core.ErrFrequencyMismatch)
	assert.Contains(t, err.Error(), "sample 1")

	_, err = NewEstimator().Estimate(context.Background(), ref, []*usnp.Dataset{shifted, ref}, true)
	assert.ErrorIs(t, err, core.ErrFrequencyMismatch)
	assert.Contains(t, err.Error(), "index 1")

	_, err = NewEstimator().Estimate(context.Background(), ref, []*usnp.Dataset{nudged, ref}, true)
	assert.NoError(t, err)
}

func TestEstimate_PortMismatch(t *testing.T) {
	ref := dataset(t, 2, twoPortRow)
	one := dataset(t, 1, func(int) []complex128 { return []complex128{0.5} })
	_, err := NewEstimator().Estimate(context.Background(), ref, []*usnp.Dataset{ref, one}, true)
	assert.ErrorIs(t, err, core.ErrPortMismatch)
}

func TestEstimate_NilSample(t *testing.T) {
	ref := dataset(t, 2, twoPortRow)
	_, err := NewEstimator().Estimate(context.Background(), ref, []*usnp.Dataset{ref, nil}, true)
	assert.ErrorIs(t, err, core.ErrShapeMismatch)
	assert.Contains(t, err.Error(), "sample 1")
}

func TestEstimate_NilReference(t *testing.T) {
	_, err := NewEstimator().Estimate(context.Background(), nil, nil, true)
	assert.Error(t, err)
}

func TestEstimate_CancelledContext(t *testing.T) {
	ref := dataset(t, 2, twoPortRow)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewEstimator().Estimate(ctx, ref, []*usnp.Dataset{ref, ref}, true)
	assert.ErrorIs(t, err, context.Canceled)
}
