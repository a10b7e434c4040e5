package physics

import (
	"fmt"
	"strings"

	"github.com/san-kum/attractor/internal/dynamo"
)

// System selects one of the two studied attractors. The zero value is not a
// valid system.
type System int

const (
	Lorenz System = iota + 1
	Rossler
)

var systemNames = map[System]string{
	Lorenz:  "lorenz",
	Rossler: "rossler",
}

// ParseSystem maps a selection tag ("lorenz" or "rossler") to a System.
// Matching ignores case and surrounding whitespace.
func ParseSystem(tag string) (System, error) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "lorenz", "lorentz":
		return Lorenz, nil
	case "rossler", "rössler":
		return Rossler, nil
	}
	return 0, fmt.Errorf("%w: %q (want one of %v)", dynamo.ErrUnrecognizedSystem, tag, Names())
}

// Names lists the accepted system tags.
func Names() []string {
	return []string{systemNames[Lorenz], systemNames[Rossler]}
}

func (s System) String() string {
	if name, ok := systemNames[s]; ok {
		return name
	}
	return fmt.Sprintf("System(%d)", int(s))
}

func (s System) Valid() bool {
	_, ok := systemNames[s]
	return ok
}

// Derive evaluates the vector field at x. Neither system depends on t.
// Derive panics for an invalid System; use ParseSystem to build one.
func (s System) Derive(_ float64, x dynamo.State) dynamo.State {
	switch s {
	case Lorenz:
		return lorenz(LorenzClassic, x)
	case Rossler:
		return rossler(RosslerClassic, x)
	}
	panic(fmt.Sprintf("physics: derive on invalid system %d", int(s)))
}

// Params returns the fixed coefficients by name.
func (s System) Params() map[string]float64 {
	switch s {
	case Lorenz:
		p := LorenzClassic
		return map[string]float64{"sigma": p.Sigma, "rho": p.Rho, "beta": p.Beta}
	case Rossler:
		p := RosslerClassic
		return map[string]float64{"a": p.A, "b": p.B, "c": p.C}
	}
	return nil
}
