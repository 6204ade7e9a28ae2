package covariance

import (
	"runtime"

	"github.com/elstanto/muncon/internal"
)

// DefaultFrequencyTolerance is the relative tolerance used to compare frequency axes.
const DefaultFrequencyTolerance = 1e-9

type options struct {
	workers int
	freqTol float64
	log     *internal.Logger
}

// Option configures an Estimator or Sampler.
type Option func(*options)

// WithWorkers bounds the number of frequencies processed concurrently.
// Values below 1 are ignored.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n >= 1 {
			o.workers = n
		}
	}
}

// WithFrequencyTolerance sets the relative tolerance for axis comparison.
func WithFrequencyTolerance(tol float64) Option {
	return func(o *options) {
		if tol >= 0 {
			o.freqTol = tol
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *internal.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		workers: runtime.NumCPU(),
		freqTol: DefaultFrequencyTolerance,
		log:     internal.DefaultLogger,
	}
	for _, opt := range opts {
		opt(&o)
	}
	o.log = o.log.With("covariance")
	return o
}
