package binary

import (
	"bytes"
	stderrors "errors"
	"io"
	"math"
	"testing"

	"github.com/wippyai/gatan-dm/errors"
)

func newCursor(t *testing.T, data []byte) *Cursor {
	t.Helper()
	c, err := NewCursor(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("NewCursor: %v", err)
	}
	return c
}

func TestCursorReadByte(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03}
	c := newCursor(t, data)

	for i, want := range data {
		if c.Position() != int64(i) {
			t.Errorf("position before read %d: got %d, want %d", i, c.Position(), i)
		}
		b, err := c.ReadByte()
		if err != nil {
			t.Fatalf("ReadByte %d: %v", i, err)
		}
		if b != want {
			t.Errorf("ReadByte %d: got 0x%02x, want 0x%02x", i, b, want)
		}
	}

	if c.Position() != 3 {
		t.Errorf("final position: got %d, want 3", c.Position())
	}

	_, err := c.ReadByte()
	if !stderrors.Is(err, errors.ErrTruncatedStream) {
		t.Errorf("expected truncated stream, got %v", err)
	}
	if c.Position() != 3 {
		t.Errorf("failed read must not advance: got %d", c.Position())
	}
}

func TestCursorReadBytes(t *testing.T) {
	c := newCursor(t, []byte{0x01, 0x02, 0x03, 0x04, 0x05})

	got, err := c.ReadBytes(3)
	if err != nil {
		t.Fatalf("ReadBytes: %v", err)
	}
	if !bytes.Equal(got, []byte{0x01, 0x02, 0x03}) {
		t.Errorf("ReadBytes: got %v, want [1 2 3]", got)
	}
	if c.Position() != 3 {
		t.Errorf("position: got %d, want 3", c.Position())
	}

	if _, err := c.ReadBytes(10); !stderrors.Is(err, errors.ErrTruncatedStream) {
		t.Errorf("expected truncated stream for reading past end, got %v", err)
	}
	if _, err := c.ReadBytes(-1); !stderrors.Is(err, errors.ErrTruncatedStream) {
		t.Errorf("expected truncated stream for negative length, got %v", err)
	}
	if c.Remaining() != 2 {
		t.Errorf("Remaining: got %d, want 2", c.Remaining())
	}
}

func TestCursorBigEndian(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		width    int
		unsigned uint64
		signed   int64
	}{
		{"byte", []byte{0xff}, 1, 0xff, -1},
		{"short", []byte{0x00, 0x10}, 2, 16, 16},
		{"negative short", []byte{0xff, 0xfe}, 2, 0xfffe, -2},
		{"long", []byte{0x00, 0x00, 0x00, 0x03}, 4, 3, 3},
		{"negative long", []byte{0xff, 0xff, 0xff, 0xff}, 4, 0xffffffff, -1},
		{"long long", []byte{0, 0, 0, 1, 0, 0, 0, 0}, 8, 1 << 32, 1 << 32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := newCursor(t, tt.data).ReadUintBE(tt.width)
			if err != nil {
				t.Fatalf("ReadUintBE: %v", err)
			}
			if u != tt.unsigned {
				t.Errorf("ReadUintBE: got %d, want %d", u, tt.unsigned)
			}
			s, err := newCursor(t, tt.data).ReadIntBE(tt.width)
			if err != nil {
				t.Fatalf("ReadIntBE: %v", err)
			}
			if s != tt.signed {
				t.Errorf("ReadIntBE: got %d, want %d", s, tt.signed)
			}
		})
	}
}

func TestCursorUnsupportedWidth(t *testing.T) {
	c := newCursor(t, []byte{1, 2, 3})
	if _, err := c.ReadUintBE(3); err == nil {
		t.Fatal("expected error for width 3")
	}
	if c.Position() != 0 {
		t.Errorf("position: got %d, want 0", c.Position())
	}
}

func TestCursorLittleEndian(t *testing.T) {
	w := NewWriter()
	w.U16LE(0xfffe)
	w.U32LE(0x04030201)
	w.U64LE(0x0807060504030201)
	w.F32LE(1.5)
	w.F64LE(-2.25)
	c := newCursor(t, w.Bytes())

	i16, err := c.ReadInt16LE()
	if err != nil || i16 != -2 {
		t.Errorf("ReadInt16LE: got %d, %v", i16, err)
	}
	u32, err := c.ReadUint32LE()
	if err != nil || u32 != 0x04030201 {
		t.Errorf("ReadUint32LE: got 0x%08x, %v", u32, err)
	}
	u64, err := c.ReadUint64LE()
	if err != nil || u64 != 0x0807060504030201 {
		t.Errorf("ReadUint64LE: got 0x%016x, %v", u64, err)
	}
	f32, err := c.ReadFloat32LE()
	if err != nil || f32 != 1.5 {
		t.Errorf("ReadFloat32LE: got %v, %v", f32, err)
	}
	f64, err := c.ReadFloat64LE()
	if err != nil || f64 != -2.25 {
		t.Errorf("ReadFloat64LE: got %v, %v", f64, err)
	}
	if c.Position() != int64(w.Len()) {
		t.Errorf("position: got %d, want %d", c.Position(), w.Len())
	}
}

func TestCursorSignedLittleEndian(t *testing.T) {
	w := NewWriter()
	w.U32LE(math.MaxUint32)
	w.U64LE(math.MaxUint64)
	w.U16LE(7)
	c := newCursor(t, w.Bytes())

	if v, _ := c.ReadInt32LE(); v != -1 {
		t.Errorf("ReadInt32LE: got %d, want -1", v)
	}
	if v, _ := c.ReadInt64LE(); v != -1 {
		t.Errorf("ReadInt64LE: got %d, want -1", v)
	}
	if v, _ := c.ReadUint16LE(); v != 7 {
		t.Errorf("ReadUint16LE: got %d, want 7", v)
	}
}

func TestCursorSkipBuffered(t *testing.T) {
	c := newCursor(t, []byte{0, 1, 2, 3, 4, 5, 6, 7})
	if _, err := c.ReadByte(); err != nil {
		t.Fatal(err)
	}
	if err := c.Skip(4); err != nil {
		t.Fatalf("Skip: %v", err)
	}
	if c.Position() != 5 {
		t.Errorf("position: got %d, want 5", c.Position())
	}
	b, _ := c.ReadByte()
	if b != 5 {
		t.Errorf("ReadByte after skip: got %d, want 5", b)
	}
}

func TestCursorSkipBeyondBuffer(t *testing.T) {
	data := make([]byte, 3*bufferSize)
	for i := range data {
		data[i] = byte(i % 251)
	}
	c := newCursor(t, data)

	if _, err := c.ReadByte(); err != nil {
		t.Fatal(err)
	}
	target := int64(2*bufferSize + 17)
	if err := c.Skip(target - 1); err != nil {
		t.Fatalf("Skip: %v", err)
	}
	if c.Position() != target {
		t.Errorf("position: got %d, want %d", c.Position(), target)
	}
	b, err := c.ReadByte()
	if err != nil {
		t.Fatal(err)
	}
	if b != data[target] {
		t.Errorf("ReadByte after long skip: got %d, want %d", b, data[target])
	}
}

func TestCursorSkipPastEnd(t *testing.T) {
	c := newCursor(t, []byte{1, 2, 3, 4})
	err := c.Skip(5)
	if !stderrors.Is(err, errors.ErrTruncatedStream) {
		t.Fatalf("expected truncated stream, got %v", err)
	}
	if c.Position() != 0 {
		t.Errorf("position: got %d, want 0", c.Position())
	}
	if err := c.Skip(4); err != nil {
		t.Errorf("skip to exact end: %v", err)
	}
}

func TestCursorSeek(t *testing.T) {
	c := newCursor(t, []byte{10, 11, 12, 13, 14})

	if err := c.Seek(3); err != nil {
		t.Fatalf("Seek forward: %v", err)
	}
	if b, _ := c.ReadByte(); b != 13 {
		t.Errorf("after forward seek: got %d, want 13", b)
	}
	if err := c.Seek(1); err != nil {
		t.Fatalf("Seek back: %v", err)
	}
	if b, _ := c.ReadByte(); b != 11 {
		t.Errorf("after backward seek: got %d, want 11", b)
	}
	if err := c.Seek(6); !stderrors.Is(err, errors.ErrTruncatedStream) {
		t.Errorf("seek past end: got %v", err)
	}
	if err := c.Seek(-1); !stderrors.Is(err, errors.ErrTruncatedStream) {
		t.Errorf("seek before start: got %v", err)
	}
}

func TestCursorStartsAtCurrentOffset(t *testing.T) {
	r := bytes.NewReader([]byte{0, 1, 2, 3})
	if _, err := r.Seek(2, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	c, err := NewCursor(r)
	if err != nil {
		t.Fatal(err)
	}
	if c.Position() != 2 || c.Size() != 4 {
		t.Errorf("position/size: got %d/%d, want 2/4", c.Position(), c.Size())
	}
	if b, _ := c.ReadByte(); b != 2 {
		t.Errorf("ReadByte: got %d, want 2", b)
	}
}

func TestWriterBasic(t *testing.T) {
	w := NewWriter()
	if w.Len() != 0 {
		t.Errorf("initial Len: got %d, want 0", w.Len())
	}

	w.Byte(0x42)
	w.WriteBytes([]byte{0x01, 0x02})
	w.U16BE(0x0304)
	w.U32BE(0x05060708)
	w.U64BE(0x090a0b0c0d0e0f10)

	want := []byte{
		0x42, 0x01, 0x02, 0x03, 0x04,
		0x05, 0x06, 0x07, 0x08,
		0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10,
	}
	if !bytes.Equal(w.Bytes(), want) {
		t.Errorf("Bytes: got %x, want %x", w.Bytes(), want)
	}
}

func TestWriterUnsupportedWidthPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for width 3")
		}
	}()
	NewWriter().UintBE(3, 1)
}
