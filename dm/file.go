package dm

import (
	"io"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/gatan-dm/errors"
	"github.com/wippyai/gatan-dm/internal/binary"
	"github.com/wippyai/gatan-dm/tagstore"
)

// File is a parsed DM3/DM4 stream.
type File struct {
	Tags   *tagstore.Store
	src    io.ReadSeeker
	closer io.Closer
	Name   string
	Header Header
}

// Parse decodes the tag tree of rs starting at its current position.
func Parse(rs io.ReadSeeker) (*File, error) {
	return ParseWithOptions(rs, DefaultOptions())
}

// ParseWithOptions decodes the tag tree of rs with custom options.
// Any error aborts the parse; no partial tag store is returned.
func ParseWithOptions(rs io.ReadSeeker, opts Options) (*File, error) {
	opts = opts.normalize()

	c, err := binary.NewCursor(rs)
	if err != nil {
		return nil, err
	}
	h, err := readHeader(c, opts.Logger)
	if err != nil {
		return nil, err
	}

	p := newParser(c, h, opts)
	if err := p.parseRoot(); err != nil {
		return nil, err
	}

	opts.Logger.Debug("parsed",
		zap.Stringer("version", h.Version),
		zap.Int("tags", p.store.Len()),
		zap.Int64("position", c.Position()))

	return &File{
		Header: h,
		Tags:   p.store,
		src:    rs,
	}, nil
}

// Open parses the named file. The file stays open for pixel reads until
// Close is called.
func Open(name string) (*File, error) {
	return OpenWithOptions(name, DefaultOptions())
}

// OpenWithOptions parses the named file with custom options.
func OpenWithOptions(name string, opts Options) (_ *File, err error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseHeader, errors.KindIO, err, "open "+filepath.Base(name))
	}
	defer func() {
		if err != nil {
			err = multierr.Append(err, f.Close())
		}
	}()

	df, err := ParseWithOptions(f, opts)
	if err != nil {
		return nil, err
	}
	df.Name = name
	df.closer = f
	return df, nil
}

// Close releases the underlying file when the File was created by Open.
func (f *File) Close() error {
	if f.closer == nil {
		return nil
	}
	err := f.closer.Close()
	f.closer = nil
	return err
}

// ReaderAt returns random access to the source stream for pixel reads,
// or nil if the source does not support it.
func (f *File) ReaderAt() io.ReaderAt {
	if ra, ok := f.src.(io.ReaderAt); ok {
		return ra
	}
	return nil
}
