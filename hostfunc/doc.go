// Package hostfunc implements the boundary between guests and the host: the
// functions a guest imports from the "sexpr" module to build, inspect and
// exchange values.
//
// # Overview
//
// Guests never see host memory. Values and vectors live on the host and the
// guest refers to them through 32-bit handles issued per execution by a
// [State]. Every parameter and result crossing the boundary is an i32.
//
//	registry := hostfunc.Default()
//	host, err := registry.Instantiate(ctx, runtime, hostfunc.ModuleName)
//
//	st := hostfunc.NewState(input)
//	defer st.Close()
//	mod, err := runtime.InstantiateModule(hostfunc.WithState(ctx, st), compiled, cfg)
//
// # Ownership
//
// Constructors (cons, integer, string, read_value) return owned handles
// which the guest releases with drop exactly once. car and cdr return
// borrowed handles into an owned tree; they stay valid until the owning
// root is dropped and are never dropped themselves. null returns a handle
// to the shared empty value that lives for the whole execution.
//
// cons, set_car and set_cdr copy their value arguments, so two trees never
// share nodes. A guest aliases a node only by copying a handle or by
// holding borrowed handles into a tree; mutation through set_car and
// set_cdr is visible through all of them.
//
// # Errors
//
// There is no error channel to the guest. A contract violation (car of an
// integer, an index past the end of a vector, a stale handle, invalid
// UTF-8) aborts the execution: the host function panics with an
// [abort.Error], wazero fails the guest call, and nothing the execution
// committed is kept.
//
// # Guest callbacks
//
// alloc_string, drop_string and the field protocol call back into the
// guest: the allocator exports named by [WithAllocator] (malloc and free by
// default) and descriptor, reader and writer functions in the guest's
// function table 0.
package hostfunc
