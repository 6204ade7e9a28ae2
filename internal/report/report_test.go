package report

import (
	"context"
	"math/rand"
	"strings"
	"testing"

	"github.com/elstanto/muncon/domain/core"
	"github.com/elstanto/muncon/domain/usnp"
	"github.com/elstanto/muncon/internal/covariance"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// onePort has variances 4e-6 (re) and 9e-6 (im) at 1 GHz and four times
// that at 2 GHz.
func onePort(t *testing.T) *usnp.Dataset {
	t.Helper()
	b, err := usnp.NewBuilder(1)
	require.NoError(t, err)
	b.AppendPoint(1e9, []complex128{complex(0.5, 0.1)})
	b.AppendPoint(2e9, []complex128{complex(0.4, 0.2)})
	b.SetCovariance([]*mat.SymDense{
		mat.NewSymDense(2, []float64{4e-6, 1e-6, 1e-6, 9e-6}),
		mat.NewSymDense(2, []float64{16e-6, 0, 0, 36e-6}),
	})
	ds, err := b.Build()
	require.NoError(t, err)
	return ds
}

func TestBuild(t *testing.T) {
	r, err := Build("DUT", onePort(t))
	require.NoError(t, err)

	require.Len(t, r.Columns, 2)
	assert.Equal(t, "S11 re", r.Columns[0].Label)
	assert.Equal(t, "S11 im", r.Columns[1].Label)
	assert.Equal(t, []float64{0.5, 0.4}, r.Columns[0].Mean)
	assert.InDeltaSlice(t, []float64{2e-3, 4e-3}, r.Columns[0].Uncertainty, 1e-15)
	assert.InDeltaSlice(t, []float64{3e-3, 6e-3}, r.Columns[1].Uncertainty, 1e-15)

	s := r.Summaries[1]
	assert.InDelta(t, 4.5e-3, s.Mean, 1e-15)
	assert.InDelta(t, 4.5e-3, s.Median, 1e-15)
	assert.InDelta(t, 3e-3, s.Min, 1e-15)
	assert.InDelta(t, 6e-3, s.Max, 1e-15)
}

func TestBuild_NeedsCovariance(t *testing.T) {
	b, err := usnp.NewBuilder(1)
	require.NoError(t, err)
	b.AppendPoint(1e9, []complex128{1})
	ds, err := b.Build()
	require.NoError(t, err)

	_, err = Build("x", ds)
	assert.ErrorIs(t, err, core.ErrMissingCovariance)
}

func TestCheckSamples_AcceptsDrawsFromCovariance(t *testing.T) {
	ds := onePort(t)
	samples, err := covariance.NewSampler().Sample(context.Background(), ds, 500, rand.New(rand.NewSource(3)))
	require.NoError(t, err)

	check, err := CheckSamples(ds, samples, 0.01)
	require.NoError(t, err)
	assert.Equal(t, 4, check.Tested)
	assert.True(t, check.Acceptable())
}

func TestCheckSamples_RejectsInflatedSpread(t *testing.T) {
	ds := onePort(t)
	// Every sample sits 5 standard uncertainties from the mean.
	var samples []*usnp.Dataset
	for i := 0; i < 50; i++ {
		sign := 1.0
		if i%2 == 1 {
			sign = -1
		}
		b, err := usnp.NewBuilder(1)
		require.NoError(t, err)
		b.AppendPoint(1e9, []complex128{ds.SParam(0, 1, 1) + complex(sign*5*2e-3, sign*5*3e-3)})
		b.AppendPoint(2e9, []complex128{ds.SParam(1, 1, 1) + complex(sign*5*4e-3, sign*5*6e-3)})
		s, err := b.Build()
		require.NoError(t, err)
		samples = append(samples, s)
	}

	check, err := CheckSamples(ds, samples, 0.01)
	require.NoError(t, err)
	assert.Equal(t, 4, check.Failed)
	assert.Less(t, check.MinP, 1e-10)
	assert.False(t, check.Acceptable())
}

func TestCheckSamples_Errors(t *testing.T) {
	ds := onePort(t)
	_, err := CheckSamples(ds, nil, 0.01)
	assert.ErrorIs(t, err, core.ErrInsufficientSamples)
	_, err = CheckSamples(ds, []*usnp.Dataset{ds}, 1.5)
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	r, err := Build("Line standard", onePort(t))
	require.NoError(t, err)
	r.Check = &SampleCheck{Samples: 100, Alpha: 0.01, Tested: 4, MinP: 0.2, MinPFreq: 1e9, MinPLabel: "S11 re"}

	md := r.Markdown()
	assert.True(t, strings.HasPrefix(md, "# Line standard\n"))
	assert.Contains(t, md, "(1 GHz to 2 GHz)")
	assert.Contains(t, md, "| S11 im | 0.0045 | 0.0045 | 0.003 | 0.006 |")
	assert.Contains(t, md, "samples are consistent")

	page := string(r.HTML())
	assert.Contains(t, page, "<title>Line standard</title>")
	assert.Contains(t, page, "<table>")
	assert.Contains(t, page, "<td>S11 im</td>")
}
