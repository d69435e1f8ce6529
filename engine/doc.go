// Package engine loads generated wasm modules into wazero and reports how
// each return_call was lowered.
//
// wazero does not expose its lowering decisions, so the engine decodes every
// module before compiling it and classifies each return_call the way the
// selected backend treats it:
//
//	Compiler     accepted when every callee parameter, plus the two hidden
//	             context pointers, fits in argument registers
//	Interpreter  rejected when the target is an imported function
//	Disabled     always rejected; return_call is rewritten to call + return
//
// Decisions are published on the Diagnostics stream once the module has been
// instantiated. Subscribers receive events on their own goroutine and never
// block the engine:
//
//	eng, _ := engine.New(ctx, nil)
//	sub := eng.Diagnostics().Subscribe(func(ev engine.Event) {
//		fmt.Println(ev.Routine, ev.Kind, ev.Reason)
//	}, engine.EventTailCallRejected)
//	defer sub.Close()
//
//	mod, _ := eng.Load(ctx, "tailcaller_0", bin)
//	fn, _ := mod.Routine("tailcaller_0")
//	out, _ := fn.Invoke(ctx, 1, 2)
package engine
