// Package analysis turns trajectories into the data of a chaos study.
//
//   - [FindMaxima], [Normalize], [ReturnMap]: discrete first-return map from
//     the peaks of one coordinate
//   - [Perturber]: seedable nearby starting points
//   - [Separation], [LogTransform]: divergence of two aligned trajectories
//   - [SaturationIndex], [GrowthRate]: end of the exponential regime and its
//     slope, an estimate of the largest Lyapunov exponent
//   - [CobwebPath], [PoincareMap], [MapCurve]: cobweb diagrams of scalar maps
//
// # Divergence
//
// Trajectories are compared index for index, so both runs must be sampled
// on the same grid:
//
//	ic := dynamo.NewInitialConditions(0, tCut, dt, x0, rtol, atol).WithOutputInterval(dt)
//	sep, err := analysis.Separation(ref.Trajectory, near.Trajectory)
//	logSep, err := analysis.LogTransform(sep)
//
// A positive growth rate indicates chaotic dynamics.
//
// Everything here is a pure function except Perturber, which owns its random
// source.
package analysis
