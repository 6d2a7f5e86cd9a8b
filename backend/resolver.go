package backend

import (
	"errors"
	"fmt"
	"path/filepath"
	"plugin"
	"sync"

	"go.uber.org/multierr"
)

// ErrNotFound is returned by resolvers that do not know a routine.
var ErrNotFound = errors.New("routine not found")

// A Resolver finds routines by backend name.
type Resolver interface {
	Resolve(name string) (Routine, error)
}

// A StaticResolver serves routines linked into the program.
type StaticResolver struct {
	lock     sync.RWMutex
	routines map[string]Routine
}

// NewStaticResolver creates an empty StaticResolver.
func NewStaticResolver() *StaticResolver {
	return &StaticResolver{routines: make(map[string]Routine)}
}

// Register makes a routine available under a name. It panics if the name is
// taken.
func (r *StaticResolver) Register(name string, routine Routine) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.routines[name]; ok {
		panic(fmt.Sprintf("routine %q already registered", name))
	}

	r.routines[name] = routine
}

// Resolve returns a registered routine.
func (r *StaticResolver) Resolve(name string) (Routine, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	routine, ok := r.routines[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q is not linked in", ErrNotFound, name)
	}

	return routine, nil
}

// A PluginResolver loads routines from Go plugins named <name>.so in a
// directory. A plugin exports its routine as the symbol Routine.
type PluginResolver struct {
	Dir string
}

// Resolve opens the plugin of a backend.
func (r PluginResolver) Resolve(name string) (Routine, error) {
	if r.Dir == "" {
		return nil, fmt.Errorf("%w: no plugin directory", ErrNotFound)
	}

	path := filepath.Join(r.Dir, name+".so")

	p, err := plugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	sym, err := p.Lookup("Routine")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	switch routine := sym.(type) {
	case *Routine:
		return *routine, nil
	case Routine:
		return routine, nil
	default:
		return nil, fmt.Errorf("%s: symbol Routine is a %T", path, sym)
	}
}

// A ChainResolver asks several resolvers in turn.
type ChainResolver []Resolver

// Resolve returns the routine of the first resolver that finds it.
func (c ChainResolver) Resolve(name string) (Routine, error) {
	var errs error

	for _, r := range c {
		routine, err := r.Resolve(name)
		if err == nil {
			return routine, nil
		}

		errs = multierr.Append(errs, err)
	}

	if errs == nil {
		return nil, fmt.Errorf("%w: no resolver", ErrNotFound)
	}

	return nil, errs
}
