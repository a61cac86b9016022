package crud

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Registry binds a catalog of named actions to a compiler.
type Registry struct {
	compiler *Compiler
	actions  Catalog
}

// NewRegistry creates a registry serving actions through compiler.
func NewRegistry(compiler *Compiler, actions Catalog) *Registry {
	if actions == nil {
		actions = Catalog{}
	}
	return &Registry{compiler: compiler, actions: actions}
}

// Names returns the registered action names in sorted order.
func (r *Registry) Names() []string {
	return r.actions.Names()
}

// Action returns the named action.
func (r *Registry) Action(name string) (*Action, bool) {
	a, ok := r.actions[name]
	return a, ok
}

// Get compiles (or fetches from cache) the named action.
func (r *Registry) Get(ctx context.Context, name string) (*Command, error) {
	a, ok := r.actions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, name)
	}
	cmd, err := r.compiler.Compile(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("action %s: %w", name, err)
	}
	return cmd, nil
}

// Precompile compiles every registered action with at most limit
// compilations in flight, stopping at the first failure.
func (r *Registry) Precompile(ctx context.Context, limit int) error {
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for _, name := range r.Names() {
		g.Go(func() error {
			_, err := r.Get(ctx, name)
			return err
		})
	}
	return g.Wait()
}

// Commands compiles every registered action and returns the commands in
// name order.
func (r *Registry) Commands(ctx context.Context) ([]*Command, error) {
	names := r.Names()
	commands := make([]*Command, 0, len(names))
	for _, name := range names {
		cmd, err := r.Get(ctx, name)
		if err != nil {
			return nil, err
		}
		commands = append(commands, cmd)
	}
	return commands, nil
}
