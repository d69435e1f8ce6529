// Package stress drives a tail-call stress run: it wires the engine, the
// callee pool, the trial oracle, the diagnostic listener and the optional
// mismatch corpus, runs single trials or a bounded loop and produces the
// final summary.
//
//	cfg := stress.DefaultConfig()
//	contract, _ := abi.Detect()
//	r, _ := stress.New(ctx, cfg, contract)
//	defer r.Close(ctx)
//	sum, _ := r.Run(ctx, func(p stress.Progress) { ... })
//	os.Exit(sum.ExitCode())
package stress
