// Package physics provides the vector fields of the studied chaotic flows.
//
// The set of systems is closed, so selection is by tag rather than by
// interface:
//
//   - [Lorenz]: sigma=10, rho=28, beta=8/3
//   - [Rossler]: a=0.2, b=0.2, c=5.7
//
// A [System] satisfies [dynamo.System] and can be handed to an integrator:
//
//	sys, err := physics.ParseSystem("lorenz")
//	res, err := integ.Integrate(ctx, sys, ic)
package physics
