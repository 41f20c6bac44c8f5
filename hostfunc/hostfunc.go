package hostfunc

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// ModuleName is the import module guests use for the boundary.
const ModuleName = "sexpr"

// Func is a host function exported to guests.
type Func struct {
	Params  []api.ValueType
	Results []api.ValueType
	Fn      api.GoModuleFunc
}

type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Func
}

func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]Func)}
}

// Default returns a registry holding the complete boundary ABI.
func Default() *Registry {
	r := NewRegistry()
	for _, op := range abi {
		r.Register(op.name, op.hostFunc())
	}
	return r
}

func (r *Registry) Register(name string, fn Func) {
	r.mu.Lock()
	r.funcs[name] = fn
	r.mu.Unlock()
}

func (r *Registry) Get(name string) (Func, bool) {
	r.mu.RLock()
	fn, ok := r.funcs[name]
	r.mu.RUnlock()
	return fn, ok
}

// List returns the registered names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Instantiate exports every registered function from a host module named
// module in rt.
func (r *Registry) Instantiate(ctx context.Context, rt wazero.Runtime, module string) (api.Module, error) {
	b := rt.NewHostModuleBuilder(module)
	for _, name := range r.List() {
		fn, _ := r.Get(name)
		b.NewFunctionBuilder().
			WithGoModuleFunction(fn.Fn, fn.Params, fn.Results).
			WithName(name).
			Export(name)
	}
	mod, err := b.Instantiate(ctx)
	if err != nil {
		return nil, fmt.Errorf("instantiate host module %s: %w", module, err)
	}
	return mod, nil
}
