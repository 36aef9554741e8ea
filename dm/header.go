package dm

import (
	"io"

	"go.uber.org/zap"

	"github.com/wippyai/gatan-dm/errors"
	"github.com/wippyai/gatan-dm/internal/binary"
)

// Header is the fixed preamble of a DM3/DM4 stream.
type Header struct {
	Version    Version
	RootLength int64
	ByteOrder  uint32
	StreamSize int64

	// LengthMismatch is set when RootLength disagrees with StreamSize.
	// Real files are known to carry small mismatches; it is advisory only.
	LengthMismatch bool
}

// Size returns the header length in bytes.
func (h Header) Size() int64 {
	return h.Version.headerSize()
}

// ReadHeader reads and validates the header at the current position of rs.
func ReadHeader(rs io.ReadSeeker) (Header, error) {
	c, err := binary.NewCursor(rs)
	if err != nil {
		return Header{}, err
	}
	return readHeader(c, Logger())
}

func readHeader(c *binary.Cursor, log *zap.Logger) (Header, error) {
	start := c.Position()

	raw, err := c.ReadIntBE(4)
	if err != nil {
		return Header{}, annotate(err, errors.PhaseHeader, "")
	}
	version := Version(raw)
	if version != Version3 && version != Version4 {
		return Header{}, errors.UnsupportedFormat(start, "version %d, want 3 or 4", raw)
	}

	rootLen, err := c.ReadIntBE(version.WideWidth())
	if err != nil {
		return Header{}, annotate(err, errors.PhaseHeader, "")
	}

	orderPos := c.Position()
	order, err := c.ReadUintBE(4)
	if err != nil {
		return Header{}, annotate(err, errors.PhaseHeader, "")
	}
	if order != littleEndianFlag {
		return Header{}, errors.UnsupportedFormat(orderPos, "byte order flag %d, only little-endian bodies are supported", order)
	}

	h := Header{
		Version:    version,
		RootLength: rootLen,
		ByteOrder:  uint32(order),
		StreamSize: c.Size() - start,
	}
	if want := h.StreamSize - version.lengthOverhead(); rootLen != want {
		h.LengthMismatch = true
		log.Warn("root length does not match stream size",
			zap.Int64("root_length", rootLen),
			zap.Int64("expected", want),
			zap.Int64("stream_size", h.StreamSize))
	}

	log.Debug("header",
		zap.Stringer("version", version),
		zap.Int64("root_length", rootLen),
		zap.Int64("stream_size", h.StreamSize))

	return h, nil
}
