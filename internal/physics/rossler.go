package physics

import "github.com/san-kum/attractor/internal/dynamo"

// RosslerParams are the coefficients of the Rossler system.
type RosslerParams struct{ A, B, C float64 }

// RosslerClassic is the chaotic parameter set a=0.2, b=0.2, c=5.7.
var RosslerClassic = RosslerParams{A: 0.2, B: 0.2, C: 5.7}

// rossler calculates the Rossler attractor derivatives.
func rossler(p RosslerParams, s dynamo.State) dynamo.State {
	return dynamo.State{-s[1] - s[2], s[0] + p.A*s[1], p.B + s[2]*(s[0]-p.C)}
}
