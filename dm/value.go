package dm

import (
	"encoding/binary"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/unicode"

	"github.com/wippyai/gatan-dm/errors"
	"github.com/wippyai/gatan-dm/tagstore"
)

// decodeValue reads one typed value and stores its text rendering at path.
func (p *parser) decodeValue(path string) error {
	pos := p.c.Position()
	raw, err := p.readWide(errors.PhaseValue, path)
	if err != nil {
		return err
	}
	t := EncodedType(raw)
	info, ok := lookupType(t, p.version)
	if !ok {
		return errors.New(errors.PhaseValue, errors.KindCorruptTag).
			Path(path).
			Offset(pos).
			Value(raw).
			Detail("unrecognized encoded type %d", raw).
			Build()
	}

	switch t {
	case String:
		n, err := p.readWide(errors.PhaseValue, path)
		if err != nil {
			return err
		}
		return p.readText(path, n)
	case Struct:
		types, err := p.readStructTypes(path)
		if err != nil {
			return err
		}
		return p.readStructData(path, types)
	case Array:
		types, err := p.readArrayTypes(path, 0)
		if err != nil {
			return err
		}
		return p.readArrayData(path, types)
	}

	text, err := info.read(p.c)
	if err != nil {
		return annotate(err, errors.PhaseValue, path)
	}
	p.store.Put(path, text)
	return nil
}

// readText reads n bytes of UTF-16LE text and stores it at path. Text with
// an odd byte length or an unpaired surrogate is rejected.
func (p *parser) readText(path string, n int64) error {
	if n <= 0 {
		p.store.Put(path, "")
		return nil
	}
	pos := p.c.Position()
	raw, err := p.c.ReadBytes(n)
	if err != nil {
		return annotate(err, errors.PhaseValue, path)
	}
	if i, msg := checkUTF16(raw); msg != "" {
		return errors.CorruptTag(errors.PhaseValue, pos+int64(i), path, "utf-16 text: %s", msg)
	}
	text, err := decodeUTF16(raw)
	if err != nil {
		return errors.Wrap(errors.PhaseValue, errors.KindCorruptTag, err, "utf-16 text").WithPath(path)
	}
	p.store.Put(path, text)
	return nil
}

// checkUTF16 returns the byte index and reason of the first malformed code
// unit in raw, or an empty reason. The x/text decoder substitutes U+FFFD
// for these instead of failing.
func checkUTF16(raw []byte) (int, string) {
	if len(raw)%2 != 0 {
		return len(raw) - 1, "odd byte length " + strconv.Itoa(len(raw))
	}
	for i := 0; i < len(raw); i += 2 {
		u := binary.LittleEndian.Uint16(raw[i:])
		switch {
		case u >= 0xdc00 && u <= 0xdfff:
			return i, "unpaired low surrogate"
		case u >= 0xd800 && u <= 0xdbff:
			if i+4 > len(raw) {
				return i, "unpaired high surrogate"
			}
			next := binary.LittleEndian.Uint16(raw[i+2:])
			if next < 0xdc00 || next > 0xdfff {
				return i, "unpaired high surrogate"
			}
			i += 2
		}
	}
	return 0, ""
}

func decodeUTF16(raw []byte) (string, error) {
	b, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// readStructTypes reads a struct descriptor and returns its field types.
func (p *parser) readStructTypes(path string) ([]EncodedType, error) {
	// Struct name length.
	if _, err := p.readWide(errors.PhaseValue, path); err != nil {
		return nil, err
	}
	pos := p.c.Position()
	n, err := p.readWide(errors.PhaseValue, path)
	if err != nil {
		return nil, err
	}
	if n > maxStructFields {
		return nil, errors.New(errors.PhaseValue, errors.KindCorruptTag).
			Path(path).
			Offset(pos).
			Value(n).
			Detail("too many struct fields: %d", n).
			Build()
	}
	if n < 0 {
		return nil, errors.CorruptTag(errors.PhaseValue, pos, path, "negative struct field count: %d", n)
	}

	types := make([]EncodedType, 0, n)
	for i := int64(0); i < n; i++ {
		// Field name length.
		if _, err := p.readWide(errors.PhaseValue, path); err != nil {
			return nil, err
		}
		t, err := p.readWide(errors.PhaseValue, path)
		if err != nil {
			return nil, err
		}
		types = append(types, EncodedType(t))
	}
	return types, nil
}

// readStructData consumes one scalar per field. Field values are not stored.
func (p *parser) readStructData(path string, types []EncodedType) error {
	for i, t := range types {
		info, ok := lookupType(t, p.version)
		if !ok || info.read == nil {
			return errors.CorruptTag(errors.PhaseValue, p.c.Position(), path,
				"struct field %d has non-scalar type %s", i, t)
		}
		if _, err := info.read(p.c); err != nil {
			return annotate(err, errors.PhaseValue, path)
		}
	}
	return nil
}

// readArrayTypes reads an array item descriptor. Struct items expand to
// their field types; nested arrays resolve to the innermost item types.
func (p *parser) readArrayTypes(path string, level int) ([]EncodedType, error) {
	if level >= p.maxDepth {
		return nil, errors.New(errors.PhaseValue, errors.KindDepthExceeded).
			Path(path).
			Offset(p.c.Position()).
			Value(p.maxDepth).
			Detail("array descriptor nesting exceeds %d levels", p.maxDepth).
			Build()
	}
	raw, err := p.readWide(errors.PhaseValue, path)
	if err != nil {
		return nil, err
	}
	switch t := EncodedType(raw); t {
	case Struct:
		return p.readStructTypes(path)
	case Array:
		return p.readArrayTypes(path, level+1)
	default:
		return []EncodedType{t}, nil
	}
}

func (p *parser) readArrayData(path string, types []EncodedType) error {
	count, err := p.readCount(errors.PhaseValue, path, "array element count")
	if err != nil {
		return err
	}

	var itemWidth int64
	for _, t := range types {
		info, ok := lookupType(t, p.version)
		if !ok || info.width <= 0 {
			return errors.CorruptTag(errors.PhaseValue, p.c.Position(), path,
				"array item type %s has no fixed width", t)
		}
		itemWidth += int64(info.width)
	}

	if itemWidth > 0 && count > math.MaxInt64/itemWidth {
		return errors.CorruptTag(errors.PhaseValue, p.c.Position(), path,
			"array of %d items of %d bytes overflows", count, itemWidth)
	}
	total := count * itemWidth

	if isTextArray(path, types, count) {
		p.log.Debug("text array", zap.String("path", path), zap.Int64("count", count))
		return p.readText(path, total)
	}

	offset := p.c.Position()
	p.store.Put(path+tagstore.SizeSuffix, strconv.FormatInt(total, 10))
	p.store.Put(path+tagstore.OffsetSuffix, strconv.FormatInt(offset, 10))
	p.log.Debug("skip array",
		zap.String("path", path),
		zap.Int64("offset", offset),
		zap.Int64("size", total))

	if err := p.c.Skip(total); err != nil {
		return annotate(err, errors.PhaseValue, path)
	}
	return nil
}

// isTextArray reports whether an array is encoded text: a short UShort
// array anywhere except the image pixel buffer.
func isTextArray(path string, types []EncodedType, count int64) bool {
	return !strings.HasSuffix(path, imageDataSuffix) &&
		len(types) == 1 &&
		types[0] == UShort &&
		count < textArrayLimit
}
