package dump

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/multierr"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/wippyai/gatan-dm/errors"
	"github.com/wippyai/gatan-dm/tagstore"
)

// DefaultCharset is the output encoding when Options.Charset is empty.
const DefaultCharset = "utf-8"

// Suffix is appended to the base name of a dump file.
const Suffix = ".tagdump.txt"

// Options configures a tag dump.
type Options struct {
	// Charset is any label known to the WHATWG encoding registry, e.g.
	// "utf-8", "windows-1252" or "shift_jis". Empty means DefaultCharset.
	Charset string

	// Compress wraps the output in a zstd stream.
	Compress bool
}

// strictLatin1 are labels that mean ISO-8859-1 itself. The WHATWG registry
// folds them into windows-1252, which differs in 0x80-0x9f.
var strictLatin1 = map[string]struct{}{
	"latin-1":    {},
	"iso-8859-1": {},
	"iso8859-1":  {},
}

// Lookup resolves a charset label and returns the encoding and its
// canonical name.
func Lookup(label string) (encoding.Encoding, string, error) {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == "" {
		label = DefaultCharset
	}
	if _, ok := strictLatin1[label]; ok {
		return charmap.ISO8859_1, "iso-8859-1", nil
	}
	enc, name := charset.Lookup(label)
	if enc == nil {
		return nil, "", errors.InvalidInput(errors.PhaseDump, "unknown charset "+label)
	}
	return enc, name, nil
}

// Write writes one line per log entry of store to w. Characters the
// charset cannot represent become HTML character references for registry
// charsets and the SUB control character for strict ISO-8859-1.
func Write(w io.Writer, store *tagstore.Store, opts Options) error {
	enc, _, err := Lookup(opts.Charset)
	if err != nil {
		return err
	}

	var zw *zstd.Encoder
	if opts.Compress {
		zw, err = zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return errors.Wrap(errors.PhaseDump, errors.KindIO, err, "zstd writer")
		}
		w = zw
	}

	tw := transform.NewWriter(w, encoding.ReplaceUnsupported(enc.NewEncoder()))
	bw := bufio.NewWriter(tw)

	if _, err := store.WriteTo(bw); err != nil {
		return errors.Wrap(errors.PhaseDump, errors.KindIO, err, "write tags")
	}
	if err := bw.Flush(); err != nil {
		return errors.Wrap(errors.PhaseDump, errors.KindIO, err, "flush")
	}
	if err := tw.Close(); err != nil {
		return errors.Wrap(errors.PhaseDump, errors.KindIO, err, "encode")
	}
	if zw != nil {
		if err := zw.Close(); err != nil {
			return errors.Wrap(errors.PhaseDump, errors.KindIO, err, "zstd close")
		}
	}
	return nil
}

// FileName returns the dump file name for base.
func FileName(base string, opts Options) string {
	name := filepath.Base(base) + Suffix
	if opts.Compress {
		name += ".zst"
	}
	return name
}

// ToFile writes the dump to dir and returns the file path.
func ToFile(dir, base string, store *tagstore.Store, opts Options) (_ string, err error) {
	// Fail on a bad charset before creating the file.
	if _, _, err := Lookup(opts.Charset); err != nil {
		return "", err
	}

	path := filepath.Join(dir, FileName(base, opts))
	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(errors.PhaseDump, errors.KindIO, err, "create "+path)
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()

	if err := Write(f, store, opts); err != nil {
		return "", err
	}
	return path, nil
}
