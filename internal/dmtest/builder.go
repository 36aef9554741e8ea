// Package dmtest builds synthetic DM3/DM4 streams for tests.
package dmtest

import (
	"bytes"

	"golang.org/x/text/encoding/unicode"

	"github.com/wippyai/gatan-dm/internal/binary"
)

// Encoded type ids, duplicated here so tests can write malformed streams
// without depending on the decoder.
const (
	Short      int64 = 2
	Long       int64 = 3
	UShort     int64 = 4
	ULong      int64 = 5
	Float      int64 = 6
	Double     int64 = 7
	Boolean    int64 = 8
	Char       int64 = 9
	Octet      int64 = 10
	LongLong   int64 = 11
	BELongLong int64 = 12
	Struct     int64 = 15
	String     int64 = 18
	Array      int64 = 20

	DataKind  byte = 21
	GroupKind byte = 20
)

// Stream writes a DM body entry by entry. The header is prepended by Bytes.
// Methods return the Stream for chaining.
type Stream struct {
	body       *binary.Writer
	rootLength *int64
	version    int64
	byteOrder  uint32
}

// New starts a stream for format version 3 or 4. Other versions produce a
// header with that version number and DM3 field widths.
func New(version int64) *Stream {
	return &Stream{
		body:      binary.NewWriter(),
		version:   version,
		byteOrder: 1,
	}
}

func (s *Stream) wideWidth() int {
	if s.version == 4 {
		return 8
	}
	return 4
}

// HeaderSize is the header length for the stream's version.
func (s *Stream) HeaderSize() int64 {
	return 8 + int64(s.wideWidth())
}

// RootLength overrides the computed root length field.
func (s *Stream) RootLength(n int64) *Stream {
	s.rootLength = &n
	return s
}

// ByteOrder overrides the byte order flag.
func (s *Stream) ByteOrder(flag uint32) *Stream {
	s.byteOrder = flag
	return s
}

// Pos returns the absolute position the next body byte will have.
func (s *Stream) Pos() int64 {
	return s.HeaderSize() + int64(s.body.Len())
}

// Wide writes a version-width big-endian integer.
func (s *Stream) Wide(v int64) *Stream {
	s.body.UintBE(s.wideWidth(), uint64(v))
	return s
}

// Raw writes bytes verbatim.
func (s *Stream) Raw(b []byte) *Stream {
	s.body.WriteBytes(b)
	return s
}

// Group writes a group header with the given entry count.
func (s *Stream) Group(count int64) *Stream {
	return s.GroupFlags(false, true, count)
}

// GroupFlags writes a group header with explicit sorted and open flags.
func (s *Stream) GroupFlags(sorted, open bool, count int64) *Stream {
	s.body.Byte(flag(sorted))
	s.body.Byte(flag(open))
	return s.Wide(count)
}

func (s *Stream) entry(kind byte, label string) {
	s.body.Byte(kind)
	s.body.U16BE(uint16(len(label)))
	s.body.WriteBytes([]byte(label))
	if s.version == 4 {
		// Entry byte length, ignored by readers.
		s.body.U64BE(0)
	}
}

// GroupEntry writes a nested group entry and its group header. An empty
// label makes the reader synthesize the entry index.
func (s *Stream) GroupEntry(label string, count int64) *Stream {
	s.entry(GroupKind, label)
	return s.Group(count)
}

// Tag writes a data entry header up to and including the use count. A
// typed value must follow.
func (s *Stream) Tag(label string) *Stream {
	s.entry(DataKind, label)
	s.body.WriteBytes([]byte("%%%%"))
	return s.Wide(1)
}

// TagDelimiter writes a data entry header with a custom delimiter.
func (s *Stream) TagDelimiter(label, delim string) *Stream {
	s.entry(DataKind, label)
	s.body.WriteBytes([]byte(delim))
	return s.Wide(1)
}

// Type writes an encoded type id.
func (s *Stream) Type(t int64) *Stream {
	return s.Wide(t)
}

func (s *Stream) Short(v int16) *Stream {
	s.Type(Short)
	s.body.U16LE(uint16(v))
	return s
}

func (s *Stream) Long(v int32) *Stream {
	s.Type(Long)
	s.body.U32LE(uint32(v))
	return s
}

func (s *Stream) UShort(v uint16) *Stream {
	s.Type(UShort)
	s.body.U16LE(v)
	return s
}

func (s *Stream) ULong(v uint32) *Stream {
	s.Type(ULong)
	s.body.U32LE(v)
	return s
}

func (s *Stream) Float(v float32) *Stream {
	s.Type(Float)
	s.body.F32LE(v)
	return s
}

func (s *Stream) Double(v float64) *Stream {
	s.Type(Double)
	s.body.F64LE(v)
	return s
}

func (s *Stream) Bool(v bool) *Stream {
	s.Type(Boolean)
	s.body.Byte(flag(v))
	return s
}

func (s *Stream) Char(v byte) *Stream {
	s.Type(Char)
	s.body.Byte(v)
	return s
}

func (s *Stream) Octet(v byte) *Stream {
	s.Type(Octet)
	s.body.Byte(v)
	return s
}

// LongLong writes a little-endian 64-bit value (DM4 only).
func (s *Stream) LongLong(v int64) *Stream {
	s.Type(LongLong)
	s.body.U64LE(uint64(v))
	return s
}

// BELongLong writes a big-endian 64-bit value (DM4 only).
func (s *Stream) BELongLong(v int64) *Stream {
	s.Type(BELongLong)
	s.body.U64BE(uint64(v))
	return s
}

// Text writes a String value encoded as UTF-16LE.
func (s *Stream) Text(v string) *Stream {
	b := UTF16(v)
	s.Type(String)
	s.Wide(int64(len(b)))
	s.body.WriteBytes(b)
	return s
}

// StructTypes writes a Struct descriptor with the given field types.
// Field values must follow.
func (s *Stream) StructTypes(fields ...int64) *Stream {
	s.Type(Struct)
	return s.structDescriptor(fields)
}

func (s *Stream) structDescriptor(fields []int64) *Stream {
	s.Wide(0) // name length
	s.Wide(int64(len(fields)))
	for _, f := range fields {
		s.Wide(0)
		s.Wide(f)
	}
	return s
}

// Array writes an Array value of a single item type and count. The
// payload must follow.
func (s *Stream) Array(item, count int64) *Stream {
	s.Type(Array)
	s.Type(item)
	return s.Wide(count)
}

// StructArray writes an Array of structs with the given field types.
func (s *Stream) StructArray(count int64, fields ...int64) *Stream {
	s.Type(Array)
	s.Type(Struct)
	s.structDescriptor(fields)
	return s.Wide(count)
}

// TextArray writes v as a UShort array, the way Digital Micrograph stores
// most strings.
func (s *Stream) TextArray(v string) *Stream {
	b := UTF16(v)
	s.Array(UShort, int64(len(b)/2))
	s.body.WriteBytes(b)
	return s
}

// Uint16s writes little-endian uint16 payload values.
func (s *Stream) Uint16s(vs ...uint16) *Stream {
	for _, v := range vs {
		s.body.U16LE(v)
	}
	return s
}

// Float32s writes little-endian float32 payload values.
func (s *Stream) Float32s(vs ...float32) *Stream {
	for _, v := range vs {
		s.body.F32LE(v)
	}
	return s
}

// Bytes returns the complete stream. Unless overridden, the root length
// matches what Digital Micrograph writes for a stream of this size.
func (s *Stream) Bytes() []byte {
	total := s.HeaderSize() + int64(s.body.Len())
	rootLen := total - s.HeaderSize() - 4
	if s.version == 4 {
		rootLen = total - s.HeaderSize() - 8
	}
	if s.rootLength != nil {
		rootLen = *s.rootLength
	}

	h := binary.NewWriter()
	h.U32BE(uint32(s.version))
	h.UintBE(s.wideWidth(), uint64(rootLen))
	h.U32BE(s.byteOrder)
	h.WriteBytes(s.body.Bytes())
	return h.Bytes()
}

// Reader returns the stream as a *bytes.Reader.
func (s *Stream) Reader() *bytes.Reader {
	return bytes.NewReader(s.Bytes())
}

// UTF16 encodes v as UTF-16LE without a byte order mark.
func UTF16(v string) []byte {
	b, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder().Bytes([]byte(v))
	if err != nil {
		panic(err)
	}
	return b
}

func flag(v bool) byte {
	if v {
		return 1
	}
	return 0
}
