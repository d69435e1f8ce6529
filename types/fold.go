package types

// Fold hash parameters. The callee bodies compute the same function in wasm.
const (
	FoldOffset uint64 = 0xcbf29ce484222325
	FoldPrime  uint64 = 0x100000001b3
)

// FoldWord mixes one word into h.
func FoldWord(h, w uint64) uint64 {
	return (h ^ w) * FoldPrime
}

// Fold combines the flattened words of values into one order-dependent hash.
func Fold(values []Value) uint64 {
	h := FoldOffset
	for _, w := range FlattenAll(values) {
		h = FoldWord(h, w)
	}
	return h
}
