// Package covariance estimates, repairs and samples per-frequency covariance
// of S-parameter datasets.
//
// What:
//
//   - Estimator: mean and unbiased sample covariance of an ensemble, with the
//     mean taken from the ensemble or from a reference estimate.
//   - Repair: nearest positive semi-definite matrix by eigenvalue clipping.
//   - Factor: Cholesky factor with transparent fallback to Repair.
//   - Sampler: correlated synthetic datasets drawn from a covariance.
//
// Every frequency is independent, so all three engines fan out across a
// bounded worker pool. Results never depend on the worker count: the sampler
// derives one generator per frequency from the caller's generator before any
// work starts.
//
// Errors:
//
//   - core.ErrInsufficientSamples: fewer than 2 samples.
//   - core.ErrFrequencyMismatch: a sample's axis departs from the reference.
//   - core.ErrPortMismatch: a sample has a different port count.
//   - core.ErrMissingCovariance: sampling a dataset without covariance.
//   - core.ErrCovarianceNotRepairable: factorization failed even after repair.
package covariance
