package dsd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/elstanto/muncon/domain/core"
	"github.com/elstanto/muncon/domain/usnp"
	"github.com/elstanto/muncon/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// distinctCov has a different value in every upper-triangle entry, so any
// axis permutation is visible.
func distinctCov(scale float64) *mat.SymDense {
	c := mat.NewSymDense(8, nil)
	for i := 0; i < 8; i++ {
		c.SetSym(i, i, scale*float64(10+i))
		for j := i + 1; j < 8; j++ {
			c.SetSym(i, j, scale*float64(i*8+j)/100)
		}
	}
	return c
}

func twoPort(t *testing.T) *usnp.Dataset {
	t.Helper()
	b, err := usnp.NewBuilder(2)
	require.NoError(t, err)
	b.AddComment("! campaign line-1")
	b.AppendPoint(1e9, []complex128{complex(0.1, -0.05), complex(0.88, -0.09), complex(0.9, -0.1), complex(0.2, 0.3)})
	b.AppendPoint(2e9, []complex128{complex(0.11, -0.04), complex(0.79, -0.21), complex(0.8, -0.2), complex(0.19, 0.31)})
	b.SetCovariance([]*mat.SymDense{distinctCov(1e-6), distinctCov(2e-6)})
	ds, err := b.Build()
	require.NoError(t, err)
	return ds
}

func write(t *testing.T, ds *usnp.Dataset, opts ports.WriteOptions) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, NewWriter().WriteDataset(context.Background(), &buf, ds, opts))
	return &buf
}

func TestRoundTrip(t *testing.T) {
	ds := twoPort(t)
	buf := write(t, ds, ports.DefaultWriteOptions())

	back, err := NewReader(false).Parse(buf, "out.dsd")
	require.NoError(t, err)
	assert.Equal(t, ds.Fingerprint(), back.Fingerprint())
	assert.Equal(t, ds.Comments(), back.Comments())
}

func TestSParametersAreRowMajor(t *testing.T) {
	buf := write(t, twoPort(t), ports.DefaultWriteOptions())
	lines := strings.Split(buf.String(), "\n")
	// comment, option line, then the first record.
	assert.Equal(t, "# GHz S RI R 50", lines[1])
	assert.Equal(t, "1 0.1 -0.05 0.88 -0.09 0.9 -0.1 0.2 0.3", lines[2])
	assert.Len(t, strings.Fields(lines[3]), 8)
}

func TestLegacyCovarianceOrder(t *testing.T) {
	ds := twoPort(t)
	plain := write(t, ds, ports.DefaultWriteOptions()).String()
	legacy := write(t, ds, ports.WriteOptions{Format: usnp.FormatRI, Unit: usnp.GHz, LegacyCovarianceOrder: true}).String()

	// The S-parameter line is the same either way.
	assert.Equal(t, strings.Split(plain, "\n")[2], strings.Split(legacy, "\n")[2])
	assert.NotEqual(t, plain, legacy)

	swapped, err := NewReader(false).Parse(strings.NewReader(legacy), "legacy.dsd")
	require.NoError(t, err)
	assert.Equal(t, ds.Covariance(0).At(2, 2), swapped.Covariance(0).At(4, 4))

	restored, err := NewReader(true).Parse(strings.NewReader(legacy), "legacy.dsd")
	require.NoError(t, err)
	assert.Equal(t, ds.Fingerprint(), restored.Fingerprint())
}

func TestOnePortIsPadded(t *testing.T) {
	b, err := usnp.NewBuilder(1)
	require.NoError(t, err)
	b.AppendPoint(1e9, []complex128{complex(0.5, 0.1)})
	c := mat.NewSymDense(2, []float64{4e-6, 1e-6, 1e-6, 9e-6})
	b.SetCovariance([]*mat.SymDense{c})
	ds, err := b.Build()
	require.NoError(t, err)

	back, err := NewReader(false).Parse(write(t, ds, ports.DefaultWriteOptions()), "one.dsd")
	require.NoError(t, err)
	assert.Equal(t, 2, back.Ports())
	assert.Equal(t, complex(0.5, 0.1), back.SParam(0, 1, 1))
	assert.Equal(t, complex128(0), back.SParam(0, 2, 2))
	assert.Equal(t, 9e-6, back.Covariance(0).At(1, 1))
	assert.Equal(t, 0.0, back.Covariance(0).At(7, 7))
}

func TestWriterRejects(t *testing.T) {
	b, err := usnp.NewBuilder(2)
	require.NoError(t, err)
	b.AppendPoint(1e9, make([]complex128, 4))
	noCov, err := b.Build()
	require.NoError(t, err)
	err = NewWriter().WriteDataset(context.Background(), &bytes.Buffer{}, noCov, ports.DefaultWriteOptions())
	assert.ErrorIs(t, err, core.ErrMissingCovariance)

	b3, err := usnp.NewBuilder(3)
	require.NoError(t, err)
	b3.AppendPoint(1e9, make([]complex128, 9))
	b3.SetCovariance([]*mat.SymDense{mat.NewSymDense(18, nil)})
	three, err := b3.Build()
	require.NoError(t, err)
	err = NewWriter().WriteDataset(context.Background(), &bytes.Buffer{}, three, ports.DefaultWriteOptions())
	assert.ErrorIs(t, err, core.ErrInvalidPortCount)
}

func TestReadDataset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.dsd")
	require.NoError(t, os.WriteFile(path, write(t, twoPort(t), ports.DefaultWriteOptions()).Bytes(), 0o644))

	ds, err := NewReader(false).ReadDataset(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, ds.HasCovariance())
	assert.Equal(t, 2, ds.Len())

	_, err = NewReader(false).Parse(strings.NewReader("# GHz S RI R 50\n1 0 0 0 0 0 0 0 0\n"), "short.dsd")
	assert.ErrorIs(t, err, core.ErrMalformedFile)
}
