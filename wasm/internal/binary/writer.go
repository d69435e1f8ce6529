package binary

import (
	"bytes"
	"encoding/binary"
)

// Writer accumulates binary primitives in memory.
type Writer struct {
	buf bytes.Buffer
}

func NewWriter() *Writer {
	return &Writer{}
}

// Bytes returns the written bytes. The slice aliases the buffer.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

func (w *Writer) Len() int {
	return w.buf.Len()
}

func (w *Writer) Byte(b byte) {
	w.buf.WriteByte(b)
}

func (w *Writer) WriteBytes(data []byte) {
	w.buf.Write(data)
}

// WriteSized writes len(data) as a u32 followed by data.
func (w *Writer) WriteSized(data []byte) {
	w.WriteU32(uint32(len(data)))
	w.buf.Write(data)
}

func (w *Writer) WriteU32(v uint32) {
	for v >= 0x80 {
		w.buf.WriteByte(byte(v) | 0x80)
		v >>= 7
	}
	w.buf.WriteByte(byte(v))
}

func (w *Writer) WriteS32(v int32) {
	w.WriteS64(int64(v))
}

func (w *Writer) WriteS64(v int64) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			w.buf.WriteByte(b)
			return
		}
		w.buf.WriteByte(b | 0x80)
	}
}

// WriteName writes a length-prefixed UTF-8 string.
func (w *Writer) WriteName(s string) {
	w.WriteU32(uint32(len(s)))
	w.buf.WriteString(s)
}

func (w *Writer) WriteU32LE(v uint32) {
	w.buf.Write(binary.LittleEndian.AppendUint32(nil, v))
}

func (w *Writer) WriteU64LE(v uint64) {
	w.buf.Write(binary.LittleEndian.AppendUint64(nil, v))
}

// WriteVector writes the element count followed by each element.
func WriteVector[T any](w *Writer, items []T, elem func(*Writer, T)) {
	w.WriteU32(uint32(len(items)))
	for _, it := range items {
		elem(w, it)
	}
}
