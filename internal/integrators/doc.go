// Package integrators solves initial value problems for dynamo.System with
// the Dormand-Prince 5(4) embedded Runge-Kutta pair.
//
// Step size is adapted from the embedded error estimate. A run yields either
// one sample per accepted step or, with an output interval set, samples on a
// uniform grid from the 4th order continuous extension.
package integrators
