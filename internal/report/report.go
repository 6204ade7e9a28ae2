// Package report summarizes the uncertainty carried by a dataset.
package report

import (
	"fmt"
	"math"

	"github.com/elstanto/muncon/domain/core"
	"github.com/elstanto/muncon/domain/usnp"

	"github.com/montanaflynn/stats"
)

// Column is one real component of one S-parameter across frequency.
type Column struct {
	Label       string // e.g. "S21 re"
	Out, In     int    // 1-based port indices
	Imag        bool
	Mean        []float64
	Uncertainty []float64 // standard uncertainty, sqrt of the covariance diagonal
}

// Summary describes a column's uncertainty over the frequency axis.
type Summary struct {
	Label  string
	Mean   float64
	Median float64
	Min    float64
	Max    float64
}

// Report is the per-frequency mean and standard uncertainty of a dataset.
type Report struct {
	Title       string
	Ports       int
	Frequencies []float64
	Fingerprint string
	Columns     []Column
	Summaries   []Summary
	Check       *SampleCheck
}

// Build tabulates ds, which must carry covariance.
func Build(title string, ds *usnp.Dataset) (*Report, error) {
	if !ds.HasCovariance() {
		return nil, core.ErrMissingCovariance
	}
	p := ds.Ports()
	nf := ds.Len()
	r := &Report{
		Title:       title,
		Ports:       p,
		Frequencies: ds.Frequencies(),
		Fingerprint: ds.Fingerprint().Short(),
		Columns:     make([]Column, 2*p*p),
	}
	for k := range r.Columns {
		out, in := k/2/p+1, k/2%p+1
		part := "re"
		if k%2 == 1 {
			part = "im"
		}
		r.Columns[k] = Column{
			Label:       fmt.Sprintf("S%d%d %s", out, in, part),
			Out:         out,
			In:          in,
			Imag:        k%2 == 1,
			Mean:        make([]float64, nf),
			Uncertainty: make([]float64, nf),
		}
	}
	for f := 0; f < nf; f++ {
		mean := usnp.Interleave(ds.SParams(f))
		u := ds.StandardUncertainty(f)
		for k := range r.Columns {
			r.Columns[k].Mean[f] = mean[k]
			r.Columns[k].Uncertainty[f] = u[k]
		}
	}
	for _, c := range r.Columns {
		s, err := summarize(c.Label, c.Uncertainty)
		if err != nil {
			return nil, fmt.Errorf("summarize %s: %w", c.Label, err)
		}
		r.Summaries = append(r.Summaries, s)
	}
	return r, nil
}

func summarize(label string, data []float64) (Summary, error) {
	s := Summary{Label: label}
	if len(data) == 0 {
		s.Mean, s.Median, s.Min, s.Max = math.NaN(), math.NaN(), math.NaN(), math.NaN()
		return s, nil
	}
	var err error
	if s.Mean, err = stats.Mean(data); err != nil {
		return s, err
	}
	if s.Median, err = stats.Median(data); err != nil {
		return s, err
	}
	if s.Min, err = stats.Min(data); err != nil {
		return s, err
	}
	if s.Max, err = stats.Max(data); err != nil {
		return s, err
	}
	return s, nil
}
