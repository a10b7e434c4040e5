// Package dynamo provides the core types shared by the integrator and the
// analysis code.
//
//   - [State]: a point (x, y, z) in phase space
//   - [System]: a vector field dX/dt = f(t, X)
//   - [Trajectory]: time-ordered samples of one integration run
//   - [InitialConditions]: configuration of one integration run
//   - [Batch]: worker pool for independent integrations
//
// # Errors
//
// Failures fall into a small taxonomy of sentinel errors. Integration and
// numeric-domain failures are reported per run so batches can continue;
// precondition violations and unknown systems indicate caller bugs:
//
//	res, err := integ.Integrate(ctx, sys, ic)
//	if errors.Is(err, dynamo.ErrIntegrationFailure) {
//	    // res.Trajectory holds the partial run
//	}
//
// # Thread Safety
//
// All types here are values or read-only after construction. Independent
// integrations share no state and may run on a [Batch].
package dynamo
