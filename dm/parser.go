package dm

import (
	stderrors "errors"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"

	"github.com/wippyai/gatan-dm/errors"
	"github.com/wippyai/gatan-dm/internal/binary"
	"github.com/wippyai/gatan-dm/tagstore"
)

// parser walks the tag tree of one stream. It lives for a single parse.
type parser struct {
	c        *binary.Cursor
	store    *tagstore.Store
	log      *zap.Logger
	version  Version
	wide     int
	maxDepth int
}

func newParser(c *binary.Cursor, h Header, opts Options) *parser {
	return &parser{
		c:        c,
		store:    tagstore.New(),
		log:      opts.Logger,
		version:  h.Version,
		wide:     h.Version.WideWidth(),
		maxDepth: opts.MaxDepth,
	}
}

// annotate attributes cursor errors to the parse phase and tag path they
// occurred in. Errors that already carry a path are returned unchanged.
func annotate(err error, phase errors.Phase, path string) error {
	var e *errors.Error
	if !stderrors.As(err, &e) {
		return errors.Wrap(phase, errors.KindIO, err, "read failed").WithPath(path)
	}
	if len(e.Path) > 0 {
		return e
	}
	switch e.Kind {
	case errors.KindTruncatedStream, errors.KindIO, errors.KindInvalidInput:
		e = e.WithPhase(phase)
	}
	return e.WithPath(path)
}

func (p *parser) readWide(phase errors.Phase, path string) (int64, error) {
	v, err := p.c.ReadIntBE(p.wide)
	if err != nil {
		return 0, annotate(err, phase, path)
	}
	return v, nil
}

// readCount reads a wide integer that must not be negative.
func (p *parser) readCount(phase errors.Phase, path, what string) (int64, error) {
	pos := p.c.Position()
	n, err := p.readWide(phase, path)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, errors.CorruptTag(phase, pos, path, "negative %s: %d", what, n)
	}
	return n, nil
}

func (p *parser) parseRoot() error {
	return p.parseGroup(rootPath, 0)
}

func (p *parser) parseGroup(path string, depth int) error {
	if depth >= p.maxDepth {
		return errors.DepthExceeded(p.c.Position(), path, p.maxDepth)
	}

	sorted, err := p.c.ReadByte()
	if err != nil {
		return annotate(err, errors.PhaseGroup, path)
	}
	open, err := p.c.ReadByte()
	if err != nil {
		return annotate(err, errors.PhaseGroup, path)
	}
	count, err := p.readCount(errors.PhaseGroup, path, "entry count")
	if err != nil {
		return err
	}

	p.log.Debug("group",
		zap.String("path", path),
		zap.Int("depth", depth),
		zap.Bool("sorted", sorted != 0),
		zap.Bool("open", open != 0),
		zap.Int64("entries", count))

	for i := int64(0); i < count; i++ {
		if err := p.parseEntry(path, depth, i); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) parseEntry(parent string, depth int, index int64) error {
	kind, err := p.c.ReadByte()
	if err != nil {
		return annotate(err, errors.PhaseEntry, parent)
	}
	labelLen, err := p.c.ReadUintBE(2)
	if err != nil {
		return annotate(err, errors.PhaseEntry, parent)
	}

	var label string
	if labelLen > 0 {
		raw, err := p.c.ReadBytes(int64(labelLen))
		if err != nil {
			return annotate(err, errors.PhaseEntry, parent)
		}
		label, err = decodeLabel(raw)
		if err != nil {
			return errors.Wrap(errors.PhaseEntry, errors.KindCorruptTag, err, "label").WithPath(parent)
		}
	} else {
		label = strconv.FormatInt(index, 10)
	}
	path := parent + "." + label

	if p.version == Version4 {
		// Entry byte length; the walk is self-delimiting so it goes unused.
		if _, err := p.c.ReadIntBE(8); err != nil {
			return annotate(err, errors.PhaseEntry, path)
		}
	}

	if kind == dataEntryKind {
		return p.parseTagType(path)
	}
	return p.parseGroup(path, depth+1)
}

func (p *parser) parseTagType(path string) error {
	pos := p.c.Position()
	delim, err := p.c.ReadBytes(int64(len(tagDelimiter)))
	if err != nil {
		return annotate(err, errors.PhaseEntry, path)
	}
	if string(delim) != tagDelimiter {
		return errors.CorruptTag(errors.PhaseEntry, pos, path, "missing %s delimiter, got %q", tagDelimiter, delim)
	}
	// Use count.
	if _, err := p.readWide(errors.PhaseEntry, path); err != nil {
		return err
	}
	return p.decodeValue(path)
}

// decodeLabel maps single-byte labels to UTF-8. Labels are written in the
// Windows code page, so bytes above 0x7f (the micro sign in "µm") are
// decoded as ISO-8859-1.
func decodeLabel(raw []byte) (string, error) {
	b, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
