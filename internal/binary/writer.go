package binary

import (
	"bytes"
	"encoding/binary"
	"math"
)

// Writer assembles fixed-width big- and little-endian values into a buffer.
// It backs the synthetic stream builder used by tests.
type Writer struct {
	buf *bytes.Buffer
}

// NewWriter creates a new Writer.
func NewWriter() *Writer {
	return &Writer{buf: &bytes.Buffer{}}
}

// Bytes returns the written bytes.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// Byte writes a single byte.
func (w *Writer) Byte(b byte) {
	w.buf.WriteByte(b)
}

// WriteBytes writes a byte slice.
func (w *Writer) WriteBytes(data []byte) {
	w.buf.Write(data)
}

// UintBE writes v as a big-endian integer of width 1, 2, 4 or 8 bytes.
// Other widths panic; callers pass constants.
func (w *Writer) UintBE(width int, v uint64) {
	var tmp [8]byte
	switch width {
	case 1:
		tmp[0] = byte(v)
	case 2:
		binary.BigEndian.PutUint16(tmp[:2], uint16(v))
	case 4:
		binary.BigEndian.PutUint32(tmp[:4], uint32(v))
	case 8:
		binary.BigEndian.PutUint64(tmp[:8], v)
	default:
		panic("binary: unsupported integer width")
	}
	w.buf.Write(tmp[:width])
}

// U16BE writes a big-endian uint16.
func (w *Writer) U16BE(v uint16) { w.UintBE(2, uint64(v)) }

// U32BE writes a big-endian uint32.
func (w *Writer) U32BE(v uint32) { w.UintBE(4, uint64(v)) }

// U64BE writes a big-endian uint64.
func (w *Writer) U64BE(v uint64) { w.UintBE(8, v) }

// U16LE writes a little-endian uint16.
func (w *Writer) U16LE(v uint16) {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	w.buf.Write(tmp[:])
}

// U32LE writes a little-endian uint32.
func (w *Writer) U32LE(v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	w.buf.Write(tmp[:])
}

// U64LE writes a little-endian uint64.
func (w *Writer) U64LE(v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	w.buf.Write(tmp[:])
}

// F32LE writes a little-endian float32.
func (w *Writer) F32LE(v float32) {
	w.U32LE(math.Float32bits(v))
}

// F64LE writes a little-endian float64.
func (w *Writer) F64LE(v float64) {
	w.U64LE(math.Float64bits(v))
}
