package report

import (
	"fmt"

	"github.com/elstanto/muncon/domain/core"
	"github.com/elstanto/muncon/domain/usnp"

	"gonum.org/v1/gonum/stat/distuv"
)

// SampleCheck compares generated samples with the covariance they were drawn
// from. For each frequency and component with nonzero uncertainty the sum of
// squared standardized deviations over N samples is chi-squared with N
// degrees of freedom; a component fails when its two-sided p-value is below
// Alpha.
type SampleCheck struct {
	Samples int
	Alpha   float64
	Tested  int
	Failed  int
	// MinP is the smallest p-value seen and where it occurred.
	MinP      float64
	MinPFreq  float64
	MinPLabel string
}

// PassRate is the fraction of tested components that passed.
func (c *SampleCheck) PassRate() float64 {
	if c.Tested == 0 {
		return 1
	}
	return float64(c.Tested-c.Failed) / float64(c.Tested)
}

// Acceptable reports whether failures are within what Alpha allows, with a
// margin of three binomial standard deviations.
func (c *SampleCheck) Acceptable() bool {
	n := float64(c.Tested)
	expected := c.Alpha * n
	sd := distuv.Binomial{N: n, P: c.Alpha}.StdDev()
	return float64(c.Failed) <= expected+3*sd+1
}

// CheckSamples runs the chi-squared check of samples against ds.
func CheckSamples(ds *usnp.Dataset, samples []*usnp.Dataset, alpha float64) (*SampleCheck, error) {
	if !ds.HasCovariance() {
		return nil, core.ErrMissingCovariance
	}
	if len(samples) < 1 {
		return nil, core.NewInsufficientSamplesError(len(samples))
	}
	if alpha <= 0 || alpha >= 1 {
		return nil, fmt.Errorf("alpha %g must be in (0, 1)", alpha)
	}
	for i, s := range samples {
		if s.Ports() != ds.Ports() {
			return nil, core.NewPortMismatchError(i, s.Ports(), ds.Ports())
		}
		if s.Len() != ds.Len() {
			return nil, core.NewFrequencyLengthError(i, s.Len(), ds.Len())
		}
	}

	n := len(samples)
	dist := distuv.ChiSquared{K: float64(n)}
	check := &SampleCheck{Samples: n, Alpha: alpha, MinP: 1}
	w := ds.Width()
	p := ds.Ports()
	for f := 0; f < ds.Len(); f++ {
		mean := usnp.Interleave(ds.SParams(f))
		u := ds.StandardUncertainty(f)
		stat := make([]float64, w)
		for _, s := range samples {
			x := usnp.Interleave(s.SParams(f))
			for k := 0; k < w; k++ {
				if u[k] > 0 {
					z := (x[k] - mean[k]) / u[k]
					stat[k] += z * z
				}
			}
		}
		for k := 0; k < w; k++ {
			if u[k] == 0 {
				continue
			}
			cdf := dist.CDF(stat[k])
			pv := 2 * min(cdf, 1-cdf)
			check.Tested++
			if pv < alpha {
				check.Failed++
			}
			if pv < check.MinP {
				check.MinP = pv
				check.MinPFreq = ds.Frequency(f)
				check.MinPLabel = componentLabel(k, p)
			}
		}
	}
	return check, nil
}

func componentLabel(k, p int) string {
	part := "re"
	if k%2 == 1 {
		part = "im"
	}
	return fmt.Sprintf("S%d%d %s", k/2/p+1, k/2%p+1, part)
}
