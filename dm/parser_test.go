package dm

import (
	"bytes"
	stderrors "errors"
	"io"
	"strconv"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/gatan-dm/errors"
	"github.com/wippyai/gatan-dm/internal/binary"
	"github.com/wippyai/gatan-dm/internal/dmtest"
)

func mustParse(t *testing.T, data []byte) *File {
	t.Helper()
	f, err := Parse(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return f
}

// parseRaw runs the parser directly so tests can inspect the cursor.
func parseRaw(t *testing.T, rs io.ReadSeeker, opts Options) (*parser, error) {
	t.Helper()
	c, err := binary.NewCursor(rs)
	if err != nil {
		t.Fatalf("NewCursor failed: %v", err)
	}
	opts = opts.normalize()
	h, err := readHeader(c, opts.Logger)
	if err != nil {
		t.Fatalf("readHeader failed: %v", err)
	}
	p := newParser(c, h, opts)
	return p, p.parseRoot()
}

func expectKind(t *testing.T, err error, target *errors.Error) *errors.Error {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", target.Kind)
	}
	if !stderrors.Is(err, target) {
		t.Fatalf("expected %s error, got %v", target.Kind, err)
	}
	var e *errors.Error
	if !stderrors.As(err, &e) {
		t.Fatalf("expected *errors.Error, got %T", err)
	}
	return e
}

func TestParseExactMap(t *testing.T) {
	for _, version := range []int64{3, 4} {
		t.Run(strconv.FormatInt(version, 10), func(t *testing.T) {
			s := dmtest.New(version)
			s.Group(3)
			s.Tag("Version").Long(42)
			s.GroupEntry("ImageList", 1)
			s.GroupEntry("", 1)
			s.GroupEntry("ImageData", 2)
			s.Tag("Data").Array(dmtest.Float, 4)
			offset := s.Pos()
			s.Float32s(1, 2, 3, 4)
			s.GroupEntry("Dimensions", 2)
			s.Tag("").ULong(2)
			s.Tag("").ULong(2)
			s.Tag("Name").TextArray("abc")

			f := mustParse(t, s.Bytes())

			want := map[string]string{
				"root.Version":                            "42",
				"root.ImageList.0.ImageData.Data.Size":    "16",
				"root.ImageList.0.ImageData.Data.Offset":  strconv.FormatInt(offset, 10),
				"root.ImageList.0.ImageData.Dimensions.0": "2",
				"root.ImageList.0.ImageData.Dimensions.1": "2",
				"root.Name":                               "abc",
			}
			got := f.Tags.Map()
			if len(got) != len(want) {
				t.Fatalf("expected %d tags, got %d: %v", len(want), len(got), got)
			}
			for k, v := range want {
				if got[k] != v {
					t.Errorf("%s: expected %q, got %q", k, v, got[k])
				}
			}

			keys := f.Tags.Keys()
			if keys[0] != "root.Version" || keys[len(keys)-1] != "root.Name" {
				t.Errorf("keys not in stream order: %v", keys)
			}
			if f.Header.Version != Version(version) {
				t.Errorf("expected version %d, got %d", version, f.Header.Version)
			}
			if f.Header.LengthMismatch {
				t.Error("unexpected length mismatch")
			}
		})
	}
}

func TestParseScalars(t *testing.T) {
	tests := []struct {
		name    string
		version int64
		write   func(s *dmtest.Stream)
		want    string
	}{
		{"short", 3, func(s *dmtest.Stream) { s.Short(-2) }, "-2"},
		{"long", 3, func(s *dmtest.Stream) { s.Long(-100000) }, "-100000"},
		{"ushort", 3, func(s *dmtest.Stream) { s.UShort(65535) }, "65535"},
		{"ulong", 3, func(s *dmtest.Stream) { s.ULong(4294967295) }, "4294967295"},
		{"float", 3, func(s *dmtest.Stream) { s.Float(0.5) }, "0.5"},
		{"float widened", 3, func(s *dmtest.Stream) { s.Float(0.1) }, "0.10000000149011612"},
		{"double integral", 3, func(s *dmtest.Stream) { s.Double(200) }, "200.0"},
		{"double large", 3, func(s *dmtest.Stream) { s.Double(1e16) }, "1e+16"},
		{"double small", 3, func(s *dmtest.Stream) { s.Double(1.5e-5) }, "1.5e-05"},
		{"double zero", 3, func(s *dmtest.Stream) { s.Double(0) }, "0.0"},
		{"bool true", 3, func(s *dmtest.Stream) { s.Bool(true) }, "True"},
		{"bool false", 3, func(s *dmtest.Stream) { s.Bool(false) }, "False"},
		{"char", 3, func(s *dmtest.Stream) { s.Char('A') }, "A"},
		{"char latin1", 3, func(s *dmtest.Stream) { s.Char(0xb5) }, "µ"},
		{"octet", 3, func(s *dmtest.Stream) { s.Octet(200) }, "200"},
		{"string", 3, func(s *dmtest.Stream) { s.Text("Gatan µm") }, "Gatan µm"},
		{"empty string", 3, func(s *dmtest.Stream) { s.Text("") }, ""},
		{"longlong", 4, func(s *dmtest.Stream) { s.LongLong(-5) }, "-5"},
		{"be longlong", 4, func(s *dmtest.Stream) { s.BELongLong(1 << 40) }, "1099511627776"},
		{"v4 long", 4, func(s *dmtest.Stream) { s.Long(7) }, "7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := dmtest.New(tt.version)
			s.Group(1)
			s.Tag("V")
			tt.write(s)

			f := mustParse(t, s.Bytes())
			got, ok := f.Tags.Get("root.V")
			if !ok {
				t.Fatal("root.V not stored")
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestParseLabelSynthesis(t *testing.T) {
	s := dmtest.New(3)
	s.Group(3)
	s.Tag("").Double(1.5)
	s.Tag("").Text("x")
	s.Tag("").Array(dmtest.Octet, 300)
	s.Raw(make([]byte, 300))

	f := mustParse(t, s.Bytes())

	for _, k := range []string{"root.0", "root.1", "root.2.Size", "root.2.Offset"} {
		if !f.Tags.Has(k) {
			t.Errorf("expected tag %s, have %v", k, f.Tags.Keys())
		}
	}
}

func TestParseIndexPerGroup(t *testing.T) {
	s := dmtest.New(3)
	s.Group(2)
	s.GroupEntry("", 1)
	s.Tag("").Long(1)
	s.GroupEntry("", 2)
	s.Tag("").Long(2)
	s.Tag("named").Long(3)

	f := mustParse(t, s.Bytes())

	want := map[string]string{"root.0.0": "1", "root.1.0": "2", "root.1.named": "3"}
	for k, v := range want {
		if got, _ := f.Tags.Get(k); got != v {
			t.Errorf("%s: expected %q, got %q", k, v, got)
		}
	}
}

func TestParseLatin1Label(t *testing.T) {
	s := dmtest.New(3)
	s.Group(1)
	s.Tag("\xb5m").Long(1)

	f := mustParse(t, s.Bytes())

	if !f.Tags.Has("root.µm") {
		t.Errorf("expected latin-1 label decoded, got %v", f.Tags.Keys())
	}
}

func TestParseCollision(t *testing.T) {
	s := dmtest.New(3)
	s.Group(2)
	s.Tag("A").Long(1)
	s.Tag("A").Long(2)

	f := mustParse(t, s.Bytes())

	if f.Tags.Len() != 1 {
		t.Errorf("expected 1 distinct path, got %d", f.Tags.Len())
	}
	if f.Tags.LogLen() != 2 {
		t.Errorf("expected 2 log entries, got %d", f.Tags.LogLen())
	}
	if v, _ := f.Tags.Get("root.A"); v != "2" {
		t.Errorf("expected last write to win, got %q", v)
	}
	lines := f.Tags.Lines()
	if lines[0] != "root.A = 1" || lines[1] != "root.A = 2" {
		t.Errorf("unexpected log: %v", lines)
	}
}

func TestParseIdempotent(t *testing.T) {
	s := dmtest.New(4)
	s.Group(3)
	s.Tag("A").Double(3.25)
	s.Tag("B").TextArray("hello")
	s.Tag("C").Array(dmtest.Long, 1000)
	s.Raw(make([]byte, 4000))
	data := s.Bytes()

	a := mustParse(t, data)
	b := mustParse(t, data)

	if a.Tags.Digest() != b.Tags.Digest() {
		t.Error("digests differ between parses")
	}
	la, lb := a.Tags.Lines(), b.Tags.Lines()
	if len(la) != len(lb) {
		t.Fatalf("log lengths differ: %d vs %d", len(la), len(lb))
	}
	for i := range la {
		if la[i] != lb[i] {
			t.Errorf("line %d differs: %q vs %q", i, la[i], lb[i])
		}
	}
}

func TestArrayTextHeuristic(t *testing.T) {
	text := dmtest.UTF16("Hello")

	t.Run("short ushort array is text", func(t *testing.T) {
		s := dmtest.New(3)
		s.Group(2)
		s.Tag("X").Long(0)
		s.GroupEntry("", 1)
		s.Tag("Foo").Array(dmtest.UShort, 5)
		s.Raw(text)

		f := mustParse(t, s.Bytes())

		if v, _ := f.Tags.Get("root.1.Foo"); v != "Hello" {
			t.Errorf("expected text %q, got %q", "Hello", v)
		}
		if f.Tags.Has("root.1.Foo.Size") {
			t.Error("text array must not record a region")
		}
	})

	t.Run("long ushort array is binary", func(t *testing.T) {
		s := dmtest.New(3)
		s.Group(2)
		s.Tag("X").Long(0)
		s.GroupEntry("", 1)
		s.Tag("Foo").Array(dmtest.UShort, 300)
		offset := s.Pos()
		s.Raw(make([]byte, 600))

		p, err := parseRaw(t, bytes.NewReader(s.Bytes()), DefaultOptions())
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}

		r, err := p.store.Region("root.1.Foo")
		if err != nil {
			t.Fatalf("Region failed: %v", err)
		}
		if r.Size != 600 || r.Offset != offset {
			t.Errorf("expected region {%d 600}, got %+v", offset, r)
		}
		if p.c.Position() != r.End() {
			t.Errorf("cursor at %d, expected Offset+Size %d", p.c.Position(), r.End())
		}
		if p.store.Has("root.1.Foo") {
			t.Error("binary array must not store a value at its own path")
		}
	})

	t.Run("image data is always binary", func(t *testing.T) {
		s := dmtest.New(3)
		s.Group(1)
		s.GroupEntry("ImageData", 1)
		s.Tag("Data").Array(dmtest.UShort, 5)
		offset := s.Pos()
		s.Raw(text)

		f := mustParse(t, s.Bytes())

		if v, _ := f.Tags.Get("root.ImageData.Data.Size"); v != "10" {
			t.Errorf("expected Size 10, got %q", v)
		}
		if v, _ := f.Tags.Get("root.ImageData.Data.Offset"); v != strconv.FormatInt(offset, 10) {
			t.Errorf("expected Offset %d, got %q", offset, v)
		}
		if f.Tags.Has("root.ImageData.Data") {
			t.Error("image data must not be decoded as text")
		}
	})

	t.Run("size is recorded before offset", func(t *testing.T) {
		s := dmtest.New(3)
		s.Group(1)
		s.Tag("Big").Array(dmtest.Octet, 256)
		s.Raw(make([]byte, 256))

		f := mustParse(t, s.Bytes())

		e := f.Tags.Entries()
		if len(e) != 2 || e[0].Path != "root.Big.Size" || e[1].Path != "root.Big.Offset" {
			t.Errorf("unexpected log order: %v", e)
		}
	})
}

func TestArrayOfStructs(t *testing.T) {
	s := dmtest.New(3)
	s.Group(2)
	s.Tag("Pairs").StructArray(3, dmtest.Short, dmtest.Float)
	s.Raw(make([]byte, 18))
	s.Tag("After").Long(9)

	f := mustParse(t, s.Bytes())

	if v, _ := f.Tags.Get("root.Pairs.Size"); v != "18" {
		t.Errorf("expected Size 18, got %q", v)
	}
	if v, _ := f.Tags.Get("root.After"); v != "9" {
		t.Errorf("expected following tag parsed, got %q", v)
	}
}

func TestNestedArrayDescriptor(t *testing.T) {
	s := dmtest.New(3)
	s.Group(1)
	s.Tag("Nested").Type(dmtest.Array).Type(dmtest.Array).Type(dmtest.Double).Wide(2)
	s.Raw(make([]byte, 16))

	f := mustParse(t, s.Bytes())

	if v, _ := f.Tags.Get("root.Nested.Size"); v != "16" {
		t.Errorf("expected Size 16, got %q", v)
	}
}

func TestStructValuesNotStored(t *testing.T) {
	s := dmtest.New(3)
	s.Group(2)
	s.Tag("Point").StructTypes(dmtest.Short, dmtest.Double)
	s.Raw([]byte{1, 0})
	s.Raw(make([]byte, 8))
	s.Tag("After").Text("ok")

	f := mustParse(t, s.Bytes())

	if f.Tags.Has("root.Point") {
		t.Error("struct value must not be stored")
	}
	if v, _ := f.Tags.Get("root.After"); v != "ok" {
		t.Errorf("expected following tag parsed, got %q", v)
	}
}

func TestStructTooManyFields(t *testing.T) {
	s := dmtest.New(3)
	s.Group(1)
	s.Tag("S").Type(dmtest.Struct).Wide(0).Wide(150)
	afterCount := s.Pos()
	s.Raw(make([]byte, 64))

	p, err := parseRaw(t, bytes.NewReader(s.Bytes()), DefaultOptions())
	e := expectKind(t, err, errors.ErrCorruptTag)

	if p.c.Position() != afterCount {
		t.Errorf("cursor at %d, expected %d", p.c.Position(), afterCount)
	}
	if e.Offset != afterCount-4 {
		t.Errorf("expected error offset %d, got %d", afterCount-4, e.Offset)
	}
	if len(e.Path) != 1 || e.Path[0] != "root.S" {
		t.Errorf("expected path root.S, got %v", e.Path)
	}
}

func TestStructNonScalarField(t *testing.T) {
	s := dmtest.New(3)
	s.Group(1)
	s.Tag("S").StructTypes(dmtest.String)

	_, err := Parse(s.Reader())
	expectKind(t, err, errors.ErrCorruptTag)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		build  func() []byte
		target *errors.Error
	}{
		{
			name: "version 5",
			build: func() []byte {
				return dmtest.New(5).Group(0).Bytes()
			},
			target: errors.ErrUnsupportedFormat,
		},
		{
			name: "version 2",
			build: func() []byte {
				return dmtest.New(2).Group(0).Bytes()
			},
			target: errors.ErrUnsupportedFormat,
		},
		{
			name: "big-endian body",
			build: func() []byte {
				return dmtest.New(3).ByteOrder(0).Group(0).Bytes()
			},
			target: errors.ErrUnsupportedFormat,
		},
		{
			name: "bad delimiter",
			build: func() []byte {
				s := dmtest.New(3).Group(1)
				s.TagDelimiter("A", "%%%#").Long(1)
				return s.Bytes()
			},
			target: errors.ErrCorruptTag,
		},
		{
			name: "unknown encoded type",
			build: func() []byte {
				s := dmtest.New(3).Group(1)
				s.Tag("A").Type(13).Raw([]byte{0, 0, 0, 0})
				return s.Bytes()
			},
			target: errors.ErrCorruptTag,
		},
		{
			name: "longlong on v3",
			build: func() []byte {
				s := dmtest.New(3).Group(1)
				s.Tag("A").Type(dmtest.LongLong).Raw(make([]byte, 8))
				return s.Bytes()
			},
			target: errors.ErrCorruptTag,
		},
		{
			name: "array of strings",
			build: func() []byte {
				s := dmtest.New(3).Group(1)
				s.Tag("A").Array(dmtest.String, 2)
				return s.Bytes()
			},
			target: errors.ErrCorruptTag,
		},
		{
			name: "array of unknown type",
			build: func() []byte {
				s := dmtest.New(3).Group(1)
				s.Tag("A").Array(99, 2)
				return s.Bytes()
			},
			target: errors.ErrCorruptTag,
		},
		{
			name: "negative entry count",
			build: func() []byte {
				return dmtest.New(3).Group(-1).Bytes()
			},
			target: errors.ErrCorruptTag,
		},
		{
			name: "array overflow",
			build: func() []byte {
				s := dmtest.New(4).Group(1)
				s.Tag("A").Array(dmtest.Double, 1<<61)
				return s.Bytes()
			},
			target: errors.ErrCorruptTag,
		},
		{
			name: "truncated header",
			build: func() []byte {
				return []byte{0, 0, 0, 3, 0, 0}
			},
			target: errors.ErrTruncatedStream,
		},
		{
			name: "truncated group",
			build: func() []byte {
				s := dmtest.New(3).Group(2)
				s.Tag("A").Long(1)
				return s.Bytes()
			},
			target: errors.ErrTruncatedStream,
		},
		{
			name: "truncated scalar",
			build: func() []byte {
				s := dmtest.New(3).Group(1)
				s.Tag("A").Type(dmtest.Double).Raw([]byte{1, 2, 3})
				return s.Bytes()
			},
			target: errors.ErrTruncatedStream,
		},
		{
			name: "skip past end",
			build: func() []byte {
				s := dmtest.New(3).Group(1)
				s.Tag("A").Array(dmtest.Octet, 1000)
				s.Raw(make([]byte, 10))
				return s.Bytes()
			},
			target: errors.ErrTruncatedStream,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse(bytes.NewReader(tt.build()))
			if f != nil {
				t.Error("expected no partial result")
			}
			expectKind(t, err, tt.target)
		})
	}
}

func TestUnsupportedVersionFailsBeforeGroups(t *testing.T) {
	// A version 5 header followed by garbage must fail at offset 0.
	data := append([]byte{0, 0, 0, 5}, bytes.Repeat([]byte{0xff}, 32)...)

	_, err := Parse(bytes.NewReader(data))
	e := expectKind(t, err, errors.ErrUnsupportedFormat)
	if e.Phase != errors.PhaseHeader {
		t.Errorf("expected header phase, got %s", e.Phase)
	}
	if e.Offset != 0 {
		t.Errorf("expected offset 0, got %d", e.Offset)
	}
}

func TestDepthLimit(t *testing.T) {
	nested := func(levels int) []byte {
		s := dmtest.New(3)
		s.Group(1)
		for i := 0; i < levels-1; i++ {
			s.GroupEntry("g", 1)
		}
		s.GroupEntry("g", 0)
		return s.Bytes()
	}

	if _, err := Parse(bytes.NewReader(nested(MaxDepth - 1))); err != nil {
		t.Fatalf("nesting to depth %d failed: %v", MaxDepth-1, err)
	}

	_, err := Parse(bytes.NewReader(nested(MaxDepth)))
	e := expectKind(t, err, errors.ErrDepthExceeded)
	if e.Phase != errors.PhaseGroup {
		t.Errorf("expected group phase, got %s", e.Phase)
	}

	_, err = ParseWithOptions(bytes.NewReader(nested(3)), Options{MaxDepth: 3})
	expectKind(t, err, errors.ErrDepthExceeded)
}

func TestArrayDescriptorDepthLimit(t *testing.T) {
	s := dmtest.New(3)
	s.Group(1)
	s.Tag("A")
	for i := 0; i <= MaxDepth; i++ {
		s.Type(dmtest.Array)
	}
	s.Type(dmtest.Octet).Wide(0)

	_, err := Parse(s.Reader())
	expectKind(t, err, errors.ErrDepthExceeded)
}

// sparseStream is a large stream whose bytes past data read as zero.
type sparseStream struct {
	data []byte
	size int64
	pos  int64
}

func (s *sparseStream) Read(p []byte) (int, error) {
	n, err := s.ReadAt(p, s.pos)
	s.pos += int64(n)
	return n, err
}

func (s *sparseStream) ReadAt(p []byte, off int64) (int, error) {
	if off >= s.size {
		return 0, io.EOF
	}
	if rem := s.size - off; int64(len(p)) > rem {
		p = p[:rem]
	}
	for i := range p {
		pos := off + int64(i)
		if pos < int64(len(s.data)) {
			p[i] = s.data[pos]
		} else {
			p[i] = 0
		}
	}
	return len(p), nil
}

func (s *sparseStream) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		s.pos = offset
	case io.SeekCurrent:
		s.pos += offset
	case io.SeekEnd:
		s.pos = s.size + offset
	}
	return s.pos, nil
}

func TestWideCountsNeedVersion4(t *testing.T) {
	const count = 1<<32 + 1

	s := dmtest.New(4)
	s.Group(1)
	s.Tag("Big").Array(dmtest.Octet, count)
	offset := s.Pos()
	body := s.Bytes()

	stream := &sparseStream{data: body, size: int64(len(body)) + count}
	f, err := Parse(stream)
	if err != nil {
		t.Fatalf("v4 parse failed: %v", err)
	}
	if v, _ := f.Tags.Get("root.Big.Size"); v != "4294967297" {
		t.Errorf("expected Size 4294967297, got %q", v)
	}
	if v, _ := f.Tags.Get("root.Big.Offset"); v != strconv.FormatInt(offset, 10) {
		t.Errorf("expected Offset %d, got %q", offset, v)
	}

	// The same body under a v3 header reads every wide field as 4 bytes.
	v3 := append([]byte{0, 0, 0, 3, 0, 0, 0, 0, 0, 0, 0, 1}, body[16:]...)
	g, err := Parse(&sparseStream{data: v3, size: int64(len(v3)) + count})
	if err == nil && g.Tags.Has("root.Big.Size") {
		t.Errorf("v3 widths must not recover the v4 element count, got %v", g.Tags.Map())
	}
}

func TestWideCountsVersion3Truncates(t *testing.T) {
	s := dmtest.New(3)
	s.Group(1)
	s.Tag("Big").Array(dmtest.Octet, 1<<32+1)
	s.Raw([]byte{0})

	f := mustParse(t, s.Bytes())

	if v, _ := f.Tags.Get("root.Big.Size"); v != "1" {
		t.Errorf("expected 4-byte count 1, got %q", v)
	}
}

func TestParseStartsAtCurrentOffset(t *testing.T) {
	s := dmtest.New(3)
	s.Group(1)
	s.Tag("A").Array(dmtest.Octet, 300)
	offset := s.Pos()
	s.Raw(make([]byte, 300))

	prefix := []byte("junk")
	r := bytes.NewReader(append(prefix, s.Bytes()...))
	if _, err := r.Seek(int64(len(prefix)), io.SeekStart); err != nil {
		t.Fatal(err)
	}

	f, err := Parse(r)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	region, err := f.Tags.Region("root.A")
	if err != nil {
		t.Fatal(err)
	}
	if want := int64(len(prefix)) + offset; region.Offset != want {
		t.Errorf("expected absolute offset %d, got %d", want, region.Offset)
	}
	if f.Header.LengthMismatch {
		t.Error("prefix must not count toward the stream size")
	}
}

func TestLengthMismatchIsAdvisory(t *testing.T) {
	s := dmtest.New(3).RootLength(999)
	s.Group(1)
	s.Tag("A").Long(5)

	core, logs := observer.New(zap.WarnLevel)
	f, err := ParseWithOptions(s.Reader(), Options{Logger: zap.New(core)})
	if err != nil {
		t.Fatalf("ParseWithOptions failed: %v", err)
	}
	if !f.Header.LengthMismatch {
		t.Error("expected LengthMismatch")
	}
	if f.Header.RootLength != 999 {
		t.Errorf("expected RootLength 999, got %d", f.Header.RootLength)
	}
	if v, _ := f.Tags.Get("root.A"); v != "5" {
		t.Errorf("expected parse to continue, got %q", v)
	}
	if logs.FilterMessage("root length does not match stream size").Len() != 1 {
		t.Errorf("expected one mismatch warning, got %v", logs.All())
	}
}

func TestParseLogsSkips(t *testing.T) {
	s := dmtest.New(3)
	s.Group(2)
	s.GroupEntry("Inner", 0)
	s.Tag("Data").Array(dmtest.Octet, 300)
	s.Raw(make([]byte, 300))

	core, logs := observer.New(zap.DebugLevel)
	if _, err := ParseWithOptions(s.Reader(), Options{Logger: zap.New(core)}); err != nil {
		t.Fatalf("ParseWithOptions failed: %v", err)
	}

	if n := logs.FilterMessage("group").Len(); n != 2 {
		t.Errorf("expected 2 group events, got %d", n)
	}
	skips := logs.FilterMessage("skip array").All()
	if len(skips) != 1 {
		t.Fatalf("expected 1 skip event, got %d", len(skips))
	}
	if skips[0].ContextMap()["size"] != int64(300) {
		t.Errorf("unexpected skip fields: %v", skips[0].ContextMap())
	}
}

func TestParseMalformedText(t *testing.T) {
	tests := []struct {
		name  string
		array bool
		raw   []byte
		bad   int64 // byte index of the malformed unit
	}{
		{"odd length", false, []byte{'A', 0, 'B'}, 2},
		{"lone high surrogate", false, []byte{0x00, 0xd8}, 0},
		{"lone low surrogate", false, []byte{'A', 0, 0x00, 0xdc}, 2},
		{"high surrogate before text", false, []byte{0x3d, 0xd8, 'A', 0}, 0},
		{"text array surrogate", true, []byte{'A', 0, 0x00, 0xd8}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := dmtest.New(3)
			s.Group(1)
			s.Tag("T")
			if tt.array {
				s.Array(dmtest.UShort, int64(len(tt.raw)/2))
			} else {
				s.Type(dmtest.String).Wide(int64(len(tt.raw)))
			}
			start := s.Pos()
			s.Raw(tt.raw)

			_, err := Parse(s.Reader())
			e := expectKind(t, err, errors.ErrCorruptTag)
			if e.Offset != start+tt.bad {
				t.Errorf("expected offset %d, got %d", start+tt.bad, e.Offset)
			}
		})
	}
}

func TestParseSurrogatePair(t *testing.T) {
	s := dmtest.New(3)
	s.Group(1)
	s.Tag("T").Type(dmtest.String).Wide(4)
	s.Raw([]byte{0x3d, 0xd8, 0x00, 0xde})

	f := mustParse(t, s.Bytes())
	if v, _ := f.Tags.Get("root.T"); v != "\U0001F600" {
		t.Errorf("expected U+1F600, got %q", v)
	}
}
