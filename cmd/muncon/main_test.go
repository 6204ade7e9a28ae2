package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/elstanto/muncon/adapters/dsd"
	"github.com/elstanto/muncon/domain/usnp"
	"github.com/elstanto/muncon/internal"
	"github.com/elstanto/muncon/internal/config"
	"github.com/elstanto/muncon/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(dir string) *config.Config {
	return &config.Config{
		Estimation: config.EstimationConfig{FrequencyTolerance: 1e-9, Workers: 2},
		Sampling:   config.SamplingConfig{Seed: 1, Samples: 10},
		Output:     config.OutputConfig{Dir: dir, Format: usnp.FormatRI, Unit: usnp.GHz},
		LogLevel:   internal.LogLevelError,
	}
}

// writeCampaign lays out a reference and three cross-validation samples that
// differ only in S11.
func writeCampaign(t *testing.T, dir string) string {
	t.Helper()
	for i, d := range []float64{0, 0.01, -0.01, 0.02} {
		name := "ref.s2p"
		if i > 0 {
			name = fmt.Sprintf("cv_%d.s2p", i)
		}
		text := fmt.Sprintf("! sample %d\n# GHz S RI R 50\n1 %g 0 0.9 0 0.9 0 0.1 0\n2 %g 0 0.8 0 0.8 0 0.1 0\n", i, 0.1+d, 0.2+d)
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(text), 0o644))
	}
	manifest := "name: line\nreference: ref.s2p\ncross_validation_glob: cv_*.s2p\n"
	path := filepath.Join(dir, "line.yaml")
	require.NoError(t, os.WriteFile(path, []byte(manifest), 0o644))
	return path
}

func run(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(cfg)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestBuildReportAndSample(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	manifest := writeCampaign(t, dir)
	outDSD := filepath.Join(dir, "line.dsd")

	_, err := run(t, cfg, "build", manifest, "--ensemble", "cv", "--out", outDSD)
	require.NoError(t, err)

	ds, err := dsd.NewReader(false).ReadDataset(t.Context(), outDSD)
	require.NoError(t, err)
	assert.True(t, ds.HasCovariance())
	assert.Equal(t, complex(0.1, 0), ds.SParam(0, 1, 1), "reference mean by default")

	xlsx := filepath.Join(dir, "line.xlsx")
	html := filepath.Join(dir, "line.html")
	md, err := run(t, cfg, "report", outDSD, "--xlsx", xlsx, "--html", html, "--check-samples", "50")
	require.NoError(t, err)
	assert.Contains(t, md, "# line.dsd")
	assert.Contains(t, md, "Generated sample check")
	assert.FileExists(t, xlsx)
	assert.FileExists(t, html)

	samplesDir := filepath.Join(dir, "samples")
	_, err = run(t, cfg, "sample", outDSD, "--count", "3", "--out-dir", samplesDir)
	require.NoError(t, err)
	for i := 1; i <= 3; i++ {
		assert.FileExists(t, filepath.Join(samplesDir, fmt.Sprintf("sample_%04d.s2p", i)))
	}
}

func TestResample(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	manifest := writeCampaign(t, dir)
	out := filepath.Join(dir, "mc.dsd")

	_, err := run(t, cfg, "resample", manifest, "--count", "200", "--out", out)
	require.NoError(t, err)
	assert.FileExists(t, out)
}

func TestExitCodes(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)

	_, err := run(t, cfg, "build", filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, 3, errors.ExitCode(err))

	manifest := writeCampaign(t, dir)
	_, err = run(t, cfg, "build", manifest, "--ensemble", "mc")
	require.Error(t, err)
	assert.Equal(t, 6, errors.ExitCode(err), "manifest lists no Monte Carlo samples")

	_, err = run(t, cfg, "build", manifest, "--format", "XY", "--out", filepath.Join(dir, "x.dsd"))
	require.Error(t, err)
	assert.Equal(t, 4, errors.ExitCode(err))
}
