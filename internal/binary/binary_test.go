package binary

import (
	"errors"
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

	if r.Len() != 0 {
		t.Errorf("Len after reading everything: got %d", r.Len())
	}
	if _, err := r.ReadByte(); !errors.Is(err, ErrUnexpectedEOF) {
		t.Errorf("expected ErrUnexpectedEOF, got %v", err)
	}
}

func TestReaderReadBytes(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02, 0x03, 0x04, 0x05})

	b, err := r.ReadBytes(3)
	if err != nil {
		t.Fatalf("ReadBytes: %v", err)
	}
	if string(b) != "\x01\x02\x03" {
		t.Errorf("ReadBytes: got %x", b)
	}
	if _, err := r.ReadBytes(3); !errors.Is(err, ErrUnexpectedEOF) {
		t.Errorf("short read: expected ErrUnexpectedEOF, got %v", err)
	}
	if r.Position() != 3 {
		t.Errorf("failed read moved the cursor to %d", r.Position())
	}
}

func TestU32RoundTrip(t *testing.T) {
	for _, v := range []uint32{0, 1, 127, 128, 624485, 1<<32 - 1} {
		w := NewWriter()
		w.WriteU32(v)
		if w.Len() != SizeU32(v) {
			t.Errorf("SizeU32(%d) = %d, wrote %d bytes", v, SizeU32(v), w.Len())
		}
		got, err := NewReader(w.Bytes()).ReadU32()
		if err != nil {
			t.Fatalf("ReadU32(%d): %v", v, err)
		}
		if got != v {
			t.Errorf("ReadU32: got %d, want %d", got, v)
		}
	}
}

func TestReadU32Overflow(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"too long", []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x01}},
		{"high bits in last byte", []byte{0xff, 0xff, 0xff, 0xff, 0x1f}},
		{"bit 32 set", []byte{0x80, 0x80, 0x80, 0x80, 0x10}},
	}
	for _, tt := range tests {
		if _, err := NewReader(tt.data).ReadU32(); !errors.Is(err, ErrOverflow) {
			t.Errorf("%s: expected ErrOverflow, got %v", tt.name, err)
		}
	}

	v, err := NewReader([]byte{0xff, 0xff, 0xff, 0xff, 0x0f}).ReadU32()
	if err != nil || v != 1<<32-1 {
		t.Errorf("max uint32: got %d, %v", v, err)
	}
}

func TestSkipLEB128(t *testing.T) {
	r := NewReader([]byte{0xe5, 0x8e, 0x26, 0x07})
	if err := r.SkipLEB128(); err != nil {
		t.Fatalf("SkipLEB128: %v", err)
	}
	b, err := r.ReadByte()
	if err != nil || b != 0x07 {
		t.Errorf("after skip: got 0x%02x, %v", b, err)
	}
}

func TestNames(t *testing.T) {
	w := NewWriter()
	w.WriteName("component-type:wit-bindgen")
	w.WriteName("")

	r := NewReader(w.Bytes())
	for _, want := range []string{"component-type:wit-bindgen", ""} {
		got, err := r.ReadName()
		if err != nil {
			t.Fatalf("ReadName: %v", err)
		}
		if got != want {
			t.Errorf("ReadName: got %q, want %q", got, want)
		}
	}

	bad := NewReader([]byte{0x02, 0xff, 0xfe})
	if _, err := bad.ReadName(); err == nil {
		t.Error("expected invalid UTF-8 error")
	}
}

func TestReadU32LE(t *testing.T) {
	r := NewReader([]byte{0x00, 0x61, 0x73, 0x6d})
	v, err := r.ReadU32LE()
	if err != nil {
		t.Fatalf("ReadU32LE: %v", err)
	}
	if v != 0x6d736100 {
		t.Errorf("ReadU32LE: got 0x%08x", v)
	}
}

func TestWrapError(t *testing.T) {
	r := NewReader([]byte{0x01})
	_, _ = r.ReadByte()
	err := r.WrapError("import section", ErrOverflow)

	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if pe.Position != 1 || pe.Section != "import section" {
		t.Errorf("unexpected ParseError %+v", pe)
	}
	if !errors.Is(err, ErrOverflow) {
		t.Error("ParseError should unwrap to its cause")
	}
}
