// Package sexprbox runs WebAssembly guests that manipulate s-expression
// values owned by the host.
//
// # Overview
//
// Values live on the host side. A guest sees them only as 32-bit handles
// and works on them through the host functions of the "sexpr" import
// module: construction, traversal, mutation, text conversion, word vectors,
// a one-shot input channel and an append-only journal. Any misuse of a
// handle aborts the execution and discards its journal.
//
// # Basic Usage
//
//	exec, _ := executor.New(nil)
//	defer exec.Close()
//
//	guest, _ := executor.LoadFile("reverse.wasm")
//	result := exec.Run(ctx, guest,
//	    executor.WithInputValue(sexpr.MustParse("(1 2 3)")))
//	records, _ := result.Records()
//	fmt.Println(records[0]) // (3 2 1)
//
// # Persisting Executions
//
//	store, _ := journal.Open("runs.db")
//	exec, _ := executor.New(nil, executor.WithRecorder(store))
//
// See the [sexpr], [wire], [handle], [field], [channel], [hostfunc],
// [executor] and [journal] packages for detailed API documentation, and
// [guest] for writing guests in Go.
package sexprbox
