package dm

import (
	"strconv"

	"github.com/wippyai/gatan-dm/internal/binary"
)

// Version is the DM file format version.
type Version int

const (
	Version3 Version = 3
	Version4 Version = 4
)

// WideWidth returns the byte width of count, length and type fields.
func (v Version) WideWidth() int {
	if v == Version4 {
		return 8
	}
	return 4
}

// headerSize is the number of bytes before the root group.
func (v Version) headerSize() int64 {
	if v == Version4 {
		return 16
	}
	return 12
}

// lengthOverhead is what Digital Micrograph subtracts from the file size
// when it writes the root length field: the header plus zero padding at
// the end of the file.
func (v Version) lengthOverhead() int64 {
	if v == Version4 {
		return 24
	}
	return 16
}

func (v Version) String() string {
	return "DM" + strconv.Itoa(int(v))
}

// EncodedType identifies the type of a tag value.
type EncodedType int64

const (
	Short      EncodedType = 2
	Long       EncodedType = 3
	UShort     EncodedType = 4
	ULong      EncodedType = 5
	Float      EncodedType = 6
	Double     EncodedType = 7
	Boolean    EncodedType = 8
	Char       EncodedType = 9
	Octet      EncodedType = 10
	LongLong   EncodedType = 11 // DM4 only
	BELongLong EncodedType = 12 // DM4 only, big-endian
	Struct     EncodedType = 15
	String     EncodedType = 18
	Array      EncodedType = 20
)

// Format constants.
const (
	// MaxDepth bounds tag group nesting; the root group is depth 0.
	MaxDepth = 64

	dataEntryKind    = 21
	tagDelimiter     = "%%%%"
	maxStructFields  = 100
	textArrayLimit   = 256
	imageDataSuffix  = "ImageData.Data"
	rootPath         = "root"
	littleEndianFlag = 1
)

type scalarReader func(c *binary.Cursor) (string, error)

type typeInfo struct {
	name   string
	width  int
	v4Only bool
	read   scalarReader
}

var typeTable = map[EncodedType]typeInfo{
	Short: {"short", 2, false, func(c *binary.Cursor) (string, error) {
		v, err := c.ReadInt16LE()
		return formatInt(int64(v)), err
	}},
	Long: {"long", 4, false, func(c *binary.Cursor) (string, error) {
		v, err := c.ReadInt32LE()
		return formatInt(int64(v)), err
	}},
	UShort: {"ushort", 2, false, func(c *binary.Cursor) (string, error) {
		v, err := c.ReadUint16LE()
		return formatUint(uint64(v)), err
	}},
	ULong: {"ulong", 4, false, func(c *binary.Cursor) (string, error) {
		v, err := c.ReadUint32LE()
		return formatUint(uint64(v)), err
	}},
	Float: {"float", 4, false, func(c *binary.Cursor) (string, error) {
		v, err := c.ReadFloat32LE()
		return formatFloat(float64(v)), err
	}},
	Double: {"double", 8, false, func(c *binary.Cursor) (string, error) {
		v, err := c.ReadFloat64LE()
		return formatFloat(v), err
	}},
	Boolean: {"bool", 1, false, func(c *binary.Cursor) (string, error) {
		v, err := c.ReadByte()
		return formatBool(v != 0), err
	}},
	Char: {"char", 1, false, func(c *binary.Cursor) (string, error) {
		v, err := c.ReadByte()
		return formatChar(v), err
	}},
	Octet: {"octet", 1, false, func(c *binary.Cursor) (string, error) {
		v, err := c.ReadByte()
		return formatUint(uint64(v)), err
	}},
	LongLong: {"longlong", 8, true, func(c *binary.Cursor) (string, error) {
		v, err := c.ReadInt64LE()
		return formatInt(v), err
	}},
	BELongLong: {"be-longlong", 8, true, func(c *binary.Cursor) (string, error) {
		v, err := c.ReadIntBE(8)
		return formatInt(v), err
	}},
	Struct: {"struct", -1, false, nil},
	String: {"string", -1, false, nil},
	Array:  {"array", -1, false, nil},
}

// Width returns the fixed byte width of t, or -1 for variable-width and
// unknown types.
func (t EncodedType) Width() int {
	if info, ok := typeTable[t]; ok {
		return info.width
	}
	return -1
}

// Scalar reports whether t is a fixed-width type.
func (t EncodedType) Scalar() bool {
	return t.Width() > 0
}

func (t EncodedType) String() string {
	if info, ok := typeTable[t]; ok {
		return info.name
	}
	return "type(" + strconv.FormatInt(int64(t), 10) + ")"
}

// lookupType resolves t for the given version. The 64-bit integer types
// exist only in DM4.
func lookupType(t EncodedType, v Version) (typeInfo, bool) {
	info, ok := typeTable[t]
	if !ok || (info.v4Only && v != Version4) {
		return typeInfo{}, false
	}
	return info, true
}
