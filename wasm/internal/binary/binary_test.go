package binary

import (
	"bytes"
	"errors"
	"io"
	"math"
	"slices"
	"testing"
)

func TestReaderReadByte(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03}
	r := NewReader(data)

	for i, want := range data {
		if r.Position() != i {
			t.Errorf("position before read %d: got %d, want %d", i, r.Position(), i)
		}
		b, err := r.ReadByte()
		if err != nil {
			t.Fatalf("ReadByte %d: %v", i, err)
		}
		if b != want {
			t.Errorf("ReadByte %d: got 0x%02x, want 0x%02x", i, b, want)
		}
	}

	_, err := r.ReadByte()
	if !errors.Is(err, io.EOF) {
		t.Errorf("expected EOF, got %v", err)
	}
}

func TestReaderReadBytesPastEnd(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02})
	if _, err := r.ReadBytes(3); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("expected unexpected EOF, got %v", err)
	}
}

func TestLEB128RoundTrip(t *testing.T) {
	unsigned := []uint32{0, 1, 63, 64, 127, 128, 255, 16384, math.MaxUint32}
	for _, v := range unsigned {
		w := NewWriter()
		w.WriteU32(v)
		got, err := NewReader(w.Bytes()).ReadU32()
		if err != nil {
			t.Fatalf("ReadU32(%d): %v", v, err)
		}
		if got != v {
			t.Errorf("u32 round trip: got %d, want %d", got, v)
		}
	}

	signed32 := []int32{0, 1, -1, 63, -64, 64, -65, math.MaxInt32, math.MinInt32}
	for _, v := range signed32 {
		w := NewWriter()
		w.WriteS32(v)
		got, err := NewReader(w.Bytes()).ReadS32()
		if err != nil {
			t.Fatalf("ReadS32(%d): %v", v, err)
		}
		if got != v {
			t.Errorf("s32 round trip: got %d, want %d", got, v)
		}
	}

	signed64 := []int64{0, -1, 1 << 40, -(1 << 40), math.MaxInt64, math.MinInt64}
	for _, v := range signed64 {
		w := NewWriter()
		w.WriteS64(v)
		got, err := NewReader(w.Bytes()).ReadS64()
		if err != nil {
			t.Fatalf("ReadS64(%d): %v", v, err)
		}
		if got != v {
			t.Errorf("s64 round trip: got %d, want %d", got, v)
		}
	}
}

func TestKnownEncodings(t *testing.T) {
	tests := []struct {
		name  string
		write func(w *Writer)
		want  []byte
	}{
		{"u32 624485", func(w *Writer) { w.WriteU32(624485) }, []byte{0xE5, 0x8E, 0x26}},
		{"s64 -123456", func(w *Writer) { w.WriteS64(-123456) }, []byte{0xC0, 0xBB, 0x78}},
		{"s32 -1", func(w *Writer) { w.WriteS32(-1) }, []byte{0x7F}},
		{"name", func(w *Writer) { w.WriteName("ab") }, []byte{0x02, 'a', 'b'}},
		{"u64le", func(w *Writer) { w.WriteU64LE(0x0102030405060708) }, []byte{8, 7, 6, 5, 4, 3, 2, 1}},
		{"sized", func(w *Writer) { w.WriteSized([]byte{9, 9}) }, []byte{0x02, 9, 9}},
		{"vector", func(w *Writer) { WriteVector(w, []uint32{1, 300}, (*Writer).WriteU32) }, []byte{0x02, 0x01, 0xAC, 0x02}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWriter()
			tt.write(w)
			if !bytes.Equal(w.Bytes(), tt.want) {
				t.Errorf("got % x, want % x", w.Bytes(), tt.want)
			}
		})
	}
}

func TestReadU32Overflow(t *testing.T) {
	r := NewReader([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x01})
	if _, err := r.ReadU32(); !errors.Is(err, ErrOverflow) {
		t.Errorf("expected overflow, got %v", err)
	}
}

func TestParseErrorWrapsCause(t *testing.T) {
	r := NewReader([]byte{0x00})
	_, _ = r.ReadByte()
	err := r.WrapError("code", io.EOF)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if pe.Position != 1 || pe.Section != "code" {
		t.Errorf("unexpected parse error %+v", pe)
	}
	if !errors.Is(err, io.EOF) {
		t.Error("cause should unwrap to io.EOF")
	}
}

func TestReadVector(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		want    []uint32
		wantErr error
	}{
		{"two", []byte{0x02, 0x01, 0xAC, 0x02}, []uint32{1, 300}, nil},
		{"empty", []byte{0x00}, nil, nil},
		{"count beyond input", []byte{0xFF, 0xFF, 0x03, 0x01}, nil, ErrVectorLength},
		{"short element", []byte{0x02, 0x01, 0x80}, nil, io.EOF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadVector(NewReader(tt.data), (*Reader).ReadU32)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadVector: %v", err)
			}
			if !slices.Equal(got, tt.want) || (got == nil) != (tt.want == nil) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSub(t *testing.T) {
	r := NewReader([]byte{0x02, 0xAA, 0xBB, 0xCC})
	sub, err := r.Sub()
	if err != nil {
		t.Fatalf("Sub: %v", err)
	}
	if sub.Len() != 2 || r.Len() != 1 {
		t.Errorf("sub has %d bytes, parent %d left", sub.Len(), r.Len())
	}
	if _, err := NewReader([]byte{0x05, 0x01}).Sub(); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("short sub: %v", err)
	}
}
