package experiment

import (
	"context"
	"fmt"
	"sort"

	"github.com/san-kum/attractor/internal/dynamo"
)

// Func runs one named experiment. tCut is used by experiments that need a
// cut-off time; zero selects the configured one.
type Func func(ctx context.Context, r *Runner, tCut float64) (any, error)

type entry struct {
	run         Func
	interactive bool
}

type Registry struct {
	experiments map[string]entry
}

func NewRegistry() *Registry {
	r := &Registry{experiments: make(map[string]entry)}

	r.experiments["attractor"] = entry{run: func(ctx context.Context, rn *Runner, _ float64) (any, error) {
		return rn.Attractor(ctx)
	}}
	r.experiments["return_map"] = entry{run: func(ctx context.Context, rn *Runner, _ float64) (any, error) {
		return rn.ReturnMap(ctx)
	}}
	r.experiments["divergence"] = entry{run: func(ctx context.Context, rn *Runner, tCut float64) (any, error) {
		if tCut == 0 {
			tCut = rn.cfg.Divergence.TCut
		}
		return rn.Divergence(ctx, tCut)
	}}
	r.experiments["cobweb"] = entry{run: func(ctx context.Context, rn *Runner, _ float64) (any, error) {
		return rn.Cobweb(ctx)
	}}
	r.experiments["cutoff"] = entry{interactive: true, run: func(ctx context.Context, rn *Runner, _ float64) (any, error) {
		return rn.Cutoff(ctx)
	}}
	r.experiments["study"] = entry{interactive: true, run: func(ctx context.Context, rn *Runner, _ float64) (any, error) {
		return rn.Study(ctx)
	}}

	return r
}

func (r *Registry) Get(name string) (Func, error) {
	e, ok := r.experiments[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown experiment %q", dynamo.ErrPrecondition, name)
	}
	return e.run, nil
}

// Interactive reports whether an experiment prompts the user.
func (r *Registry) Interactive(name string) bool {
	return r.experiments[name].interactive
}

func (r *Registry) List() []string {
	names := make([]string, 0, len(r.experiments))
	for name := range r.experiments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
