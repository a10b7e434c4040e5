package physics

import "github.com/san-kum/attractor/internal/dynamo"

// LorenzParams are the coefficients of the Lorenz system.
type LorenzParams struct{ Sigma, Rho, Beta float64 }

// LorenzClassic is the chaotic parameter set sigma=10, rho=28, beta=8/3.
var LorenzClassic = LorenzParams{Sigma: 10.0, Rho: 28.0, Beta: 8.0 / 3.0}

// lorenz calculates the Lorenz attractor derivatives.
func lorenz(p LorenzParams, s dynamo.State) dynamo.State {
	return dynamo.State{p.Sigma * (s[1] - s[0]), s[0]*(p.Rho-s[2]) - s[1], s[0]*s[1] - p.Beta*s[2]}
}
