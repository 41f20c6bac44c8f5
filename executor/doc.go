// Package executor runs WebAssembly guests against the sexpr boundary.
//
// # Overview
//
// An [Executor] owns one wazero runtime with WASI and the boundary host
// module instantiated, plus a cache of compiled guests keyed by module
// digest. Each [Executor.Run] instantiates the guest afresh with its own
// handle tables and I/O channel, runs its entry point to completion and
// returns the committed journal.
//
// # Basic Usage
//
//	exec, err := executor.New(nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer exec.Close()
//
//	guest, err := executor.LoadFile("reverse.wasm")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result := exec.Run(ctx, guest, executor.WithInputValue(sexpr.MustParse("(1 2 3)")))
//	if result.Error != nil {
//	    log.Fatal(result.Error)
//	}
//	records, _ := result.Records()
//	fmt.Println(records[0]) // (3 2 1)
//
// # Failures
//
// An execution either completes and yields its journal, or fails and yields
// nothing. Contract violations at the boundary surface as [ErrAborted]
// wrapping the [abort.Error]; a run cut off by its deadline as [ErrTimeout].
//
// # Persistence
//
// [WithRecorder] hands every finished execution to a [Recorder], such as
// the SQLite store in the journal package.
package executor
