package binary

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

var (
	// ErrOverflow is returned when a LEB128 value does not fit its type.
	ErrOverflow = errors.New("leb128: overflow")
	// ErrVectorLength is returned when a vector claims more elements than
	// there are bytes left to hold them.
	ErrVectorLength = errors.New("vector length exceeds input")
)

// Reader decodes binary primitives from an in-memory buffer.
type Reader struct {
	data []byte
	pos  int
}

// NewReader creates a Reader over data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Position returns the offset of the next unread byte.
func (r *Reader) Position() int {
	return r.pos
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int {
	return len(r.data) - r.pos
}

// ReadByte returns io.EOF at the end of input.
func (r *Reader) ReadByte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

// ReadBytes reads exactly n bytes. The returned slice aliases the buffer.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 || r.Len() < n {
		return nil, r.WrapError("", io.ErrUnexpectedEOF)
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// ReadRemaining consumes the rest of the buffer.
func (r *Reader) ReadRemaining() ([]byte, error) {
	return r.ReadBytes(r.Len())
}

// Sub reads a u32 length prefix and returns a Reader over that many bytes.
func (r *Reader) Sub() (*Reader, error) {
	n, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	b, err := r.ReadBytes(int(n))
	if err != nil {
		return nil, err
	}
	return NewReader(b), nil
}

func (r *Reader) ReadU32() (uint32, error) {
	var v uint32
	for shift := uint(0); ; shift += 7 {
		if shift >= 35 {
			return 0, r.WrapError("", ErrOverflow)
		}
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		v |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			return v, nil
		}
	}
}

func (r *Reader) ReadS32() (int32, error) {
	v, err := r.readSigned(35)
	return int32(v), err
}

func (r *Reader) ReadS64() (int64, error) {
	return r.readSigned(70)
}

// readSigned decodes a signed LEB128 of at most limit payload bits.
func (r *Reader) readSigned(limit uint) (int64, error) {
	var v int64
	var shift uint
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		v |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			if shift < 64 && b&0x40 != 0 {
				v |= ^int64(0) << shift
			}
			return v, nil
		}
		if shift >= limit {
			return 0, r.WrapError("", ErrOverflow)
		}
	}
}

// ReadName reads a length-prefixed UTF-8 string.
func (r *Reader) ReadName() (string, error) {
	sub, err := r.Sub()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(sub.data) {
		return "", r.WrapError("", errors.New("invalid UTF-8 in name"))
	}
	return string(sub.data), nil
}

func (r *Reader) ReadU32LE() (uint32, error) {
	buf, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf), nil
}

func (r *Reader) ReadU64LE() (uint64, error) {
	buf, err := r.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf), nil
}

// ReadVector reads a u32 element count followed by that many elements.
// Every element occupies at least one byte, so a count larger than the
// unread input is rejected before anything is allocated. An empty vector
// decodes as nil.
func ReadVector[T any](r *Reader, elem func(*Reader) (T, error)) ([]T, error) {
	n, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	if int(n) > r.Len() {
		return nil, r.WrapError("", fmt.Errorf("%w: %d elements, %d bytes", ErrVectorLength, n, r.Len()))
	}
	out := make([]T, n)
	for i := range out {
		if out[i], err = elem(r); err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
	}
	return out, nil
}

// ParseError carries the position, and optionally the section, at which
// decoding failed.
type ParseError struct {
	Err      error
	Section  string
	Position int
}

func (e *ParseError) Error() string {
	if e.Section != "" {
		return fmt.Sprintf("wasm: %s at position %d: %v", e.Section, e.Position, e.Err)
	}
	return fmt.Sprintf("wasm: at position %d: %v", e.Position, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// WrapError annotates err with the reader's position.
func (r *Reader) WrapError(section string, err error) error {
	return &ParseError{Err: err, Section: section, Position: r.pos}
}
