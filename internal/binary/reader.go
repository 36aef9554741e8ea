package binary

import (
	"bufio"
	"encoding/binary"
	stderrors "errors"
	"io"
	"math"

	"github.com/wippyai/gatan-dm/errors"
)

const bufferSize = 64 << 10

// Cursor is a forward-reading, seekable view over a DM stream. It tracks the
// absolute position and refuses any read, skip or seek past the stream end.
type Cursor struct {
	rs      io.ReadSeeker
	br      *bufio.Reader
	pos     int64
	size    int64
	scratch [8]byte
}

// NewCursor wraps rs starting at its current offset. The stream size is
// taken once from io.SeekEnd.
func NewCursor(rs io.ReadSeeker) (*Cursor, error) {
	start, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseHeader, errors.KindIO, err, "locate stream start")
	}
	size, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseHeader, errors.KindIO, err, "measure stream")
	}
	if _, err := rs.Seek(start, io.SeekStart); err != nil {
		return nil, errors.Wrap(errors.PhaseHeader, errors.KindIO, err, "rewind stream")
	}
	return &Cursor{
		rs:   rs,
		br:   bufio.NewReaderSize(rs, bufferSize),
		pos:  start,
		size: size,
	}, nil
}

// Position returns the absolute stream position.
func (c *Cursor) Position() int64 {
	return c.pos
}

// Size returns the total stream length in bytes.
func (c *Cursor) Size() int64 {
	return c.size
}

// Remaining returns the number of bytes between Position and the end.
func (c *Cursor) Remaining() int64 {
	return c.size - c.pos
}

func (c *Cursor) ensure(n int64) error {
	if n < 0 || n > c.size-c.pos {
		return errors.TruncatedStream(c.pos, n, c.size-c.pos)
	}
	return nil
}

func (c *Cursor) fill(buf []byte) error {
	if err := c.ensure(int64(len(buf))); err != nil {
		return err
	}
	n, err := io.ReadFull(c.br, buf)
	if err != nil {
		if stderrors.Is(err, io.EOF) || stderrors.Is(err, io.ErrUnexpectedEOF) {
			return errors.TruncatedStream(c.pos+int64(n), int64(len(buf)-n), 0)
		}
		return errors.New(errors.PhaseValue, errors.KindIO).Offset(c.pos).Cause(err).Build()
	}
	c.pos += int64(n)
	return nil
}

// ReadByte reads a single byte and advances the position.
func (c *Cursor) ReadByte() (byte, error) {
	if err := c.fill(c.scratch[:1]); err != nil {
		return 0, err
	}
	return c.scratch[0], nil
}

// ReadBytes reads exactly n bytes.
func (c *Cursor) ReadBytes(n int64) ([]byte, error) {
	if err := c.ensure(n); err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if err := c.fill(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadUintBE reads a big-endian unsigned integer of width 1, 2, 4 or 8 bytes.
func (c *Cursor) ReadUintBE(width int) (uint64, error) {
	switch width {
	case 1, 2, 4, 8:
	default:
		return 0, errors.InvalidInput(errors.PhaseValue, "unsupported integer width")
	}
	buf := c.scratch[:width]
	if err := c.fill(buf); err != nil {
		return 0, err
	}
	switch width {
	case 1:
		return uint64(buf[0]), nil
	case 2:
		return uint64(binary.BigEndian.Uint16(buf)), nil
	case 4:
		return uint64(binary.BigEndian.Uint32(buf)), nil
	default:
		return binary.BigEndian.Uint64(buf), nil
	}
}

// ReadIntBE reads a big-endian signed integer of width 1, 2, 4 or 8 bytes,
// sign-extended to int64.
func (c *Cursor) ReadIntBE(width int) (int64, error) {
	u, err := c.ReadUintBE(width)
	if err != nil {
		return 0, err
	}
	switch width {
	case 1:
		return int64(int8(u)), nil
	case 2:
		return int64(int16(u)), nil
	case 4:
		return int64(int32(u)), nil
	default:
		return int64(u), nil
	}
}

// ReadUint16LE reads a little-endian uint16.
func (c *Cursor) ReadUint16LE() (uint16, error) {
	if err := c.fill(c.scratch[:2]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(c.scratch[:2]), nil
}

// ReadInt16LE reads a little-endian int16.
func (c *Cursor) ReadInt16LE() (int16, error) {
	v, err := c.ReadUint16LE()
	return int16(v), err
}

// ReadUint32LE reads a little-endian uint32.
func (c *Cursor) ReadUint32LE() (uint32, error) {
	if err := c.fill(c.scratch[:4]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(c.scratch[:4]), nil
}

// ReadInt32LE reads a little-endian int32.
func (c *Cursor) ReadInt32LE() (int32, error) {
	v, err := c.ReadUint32LE()
	return int32(v), err
}

// ReadUint64LE reads a little-endian uint64.
func (c *Cursor) ReadUint64LE() (uint64, error) {
	if err := c.fill(c.scratch[:8]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(c.scratch[:8]), nil
}

// ReadInt64LE reads a little-endian int64.
func (c *Cursor) ReadInt64LE() (int64, error) {
	v, err := c.ReadUint64LE()
	return int64(v), err
}

// ReadFloat32LE reads a little-endian IEEE 754 float32.
func (c *Cursor) ReadFloat32LE() (float32, error) {
	v, err := c.ReadUint32LE()
	return math.Float32frombits(v), err
}

// ReadFloat64LE reads a little-endian IEEE 754 float64.
func (c *Cursor) ReadFloat64LE() (float64, error) {
	v, err := c.ReadUint64LE()
	return math.Float64frombits(v), err
}

// Skip advances the position by n bytes without reading them. Skips that
// fit in the buffered window are discarded in place; larger ones seek the
// underlying stream.
func (c *Cursor) Skip(n int64) error {
	if err := c.ensure(n); err != nil {
		return err
	}
	if n <= int64(c.br.Buffered()) {
		if _, err := c.br.Discard(int(n)); err != nil {
			return errors.New(errors.PhaseValue, errors.KindIO).Offset(c.pos).Cause(err).Build()
		}
		c.pos += n
		return nil
	}
	return c.reposition(c.pos + n)
}

// Seek moves to the absolute position pos.
func (c *Cursor) Seek(pos int64) error {
	if pos < 0 || pos > c.size {
		return errors.TruncatedStream(c.pos, pos-c.pos, c.size-c.pos)
	}
	if pos >= c.pos {
		return c.Skip(pos - c.pos)
	}
	return c.reposition(pos)
}

func (c *Cursor) reposition(pos int64) error {
	if _, err := c.rs.Seek(pos, io.SeekStart); err != nil {
		return errors.New(errors.PhaseValue, errors.KindIO).Offset(c.pos).Cause(err).Build()
	}
	c.br.Reset(c.rs)
	c.pos = pos
	return nil
}
