// Package types holds the catalog of parameter value types used by
// generated callers and callees.
//
// The catalog is fixed: seven primitive scalars (u8, s16, s32, s64, f32,
// f64, v128) and a set of flat aggregates whose fields are always scalars.
// Aggregate names follow the "s<size><p|u>" convention, where p marks an
// aggregate an ABI may promote to a single scalar register. Homogeneous
// float aggregates are named hfa<n><f|d>.
//
// Each entry carries a WIT description. Size, alignment and field offsets
// are computed from that description with natural alignment rules:
//
//	record s17u { f0: s64, f1: s64, f2: u8 }   // size 24, align 8
//
// Values are lowered to wasm core values field by field:
//
//	types.SMix.Lower()                // [i32 f32]
//	v := types.SMix.Construct(fields) // panics on a contract violation
//	slots := v.Flatten()              // host call slots
//	h := types.Fold([]types.Value{v}) // reference hash of the callee bodies
//
// Catalog entries are compared by pointer identity.
package types
