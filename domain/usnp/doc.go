// Package usnp holds the S-parameter dataset with uncertainty and the pure
// conversions applied at file boundaries.
//
// What:
//
//   - Dataset: ports, per-port reference impedance, frequency axis (Hz),
//     F rows of ports² complex S-parameters, and an optional covariance per
//     frequency.
//   - Builder: the provisional structure readers fill; Build validates shapes.
//   - Format / FrequencyUnit: RI, MA and DB values and Hz/KHz/MHz/GHz tags.
//   - PadTo2Port, SwapS12S21, SwapV12V21: port-order conventions.
//
// Covariance layout:
//
// Each S-parameter row is flattened to the real vector
// [re S11, im S11, re S12, im S12, ...] of width W = 2·ports². The covariance
// at one frequency is the W×W real symmetric covariance of that vector.
//
// Errors:
//
//   - core.ErrInvalidPortCount: ports < 1.
//   - core.ErrShapeMismatch: an array does not match ports or the frequency axis.
//   - core.ErrUnknownFrequencyUnit: a unit tag outside Hz, KHz, MHz, GHz.
package usnp
