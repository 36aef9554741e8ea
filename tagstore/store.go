package tagstore

import (
	"io"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/elliotchance/orderedmap/v3"

	"github.com/wippyai/gatan-dm/errors"
)

// Suffixes of the synthetic entries recorded for a skipped binary payload.
const (
	SizeSuffix   = ".Size"
	OffsetSuffix = ".Offset"
)

// Entry is one write to the store.
type Entry struct {
	Path  string
	Value string
}

// String renders the entry as a log line.
func (e Entry) String() string {
	return e.Path + " = " + e.Value
}

// Region locates a binary payload in the source stream.
type Region struct {
	Offset int64
	Size   int64
}

// End returns the first byte after the payload.
func (r Region) End() int64 {
	return r.Offset + r.Size
}

// Store holds decoded tags as text: an append-only log of every write and a
// path-keyed view where a later write to the same path replaces the value.
// Not safe for concurrent writes; reads are safe once filling is done.
type Store struct {
	log    []Entry
	values *orderedmap.OrderedMap[string, string]
}

// New creates an empty store.
func New() *Store {
	return &Store{values: orderedmap.NewOrderedMap[string, string]()}
}

// Put records value at path.
func (s *Store) Put(path, value string) {
	s.log = append(s.log, Entry{Path: path, Value: value})
	s.values.Set(path, value)
}

// Get returns the latest value written at path.
func (s *Store) Get(path string) (string, bool) {
	return s.values.Get(path)
}

// Has reports whether path was written.
func (s *Store) Has(path string) bool {
	_, ok := s.values.Get(path)
	return ok
}

// Len returns the number of distinct paths.
func (s *Store) Len() int {
	return s.values.Len()
}

// LogLen returns the number of writes, including overwritten ones.
func (s *Store) LogLen() int {
	return len(s.log)
}

// Entries returns a copy of the write log.
func (s *Store) Entries() []Entry {
	out := make([]Entry, len(s.log))
	copy(out, s.log)
	return out
}

// Lines returns the write log rendered as "path = value" lines.
func (s *Store) Lines() []string {
	out := make([]string, len(s.log))
	for i, e := range s.log {
		out[i] = e.String()
	}
	return out
}

// Keys returns the distinct paths in order of first write.
func (s *Store) Keys() []string {
	keys := make([]string, 0, s.values.Len())
	for el := s.values.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Key)
	}
	return keys
}

// Map returns a copy of the path-keyed view.
func (s *Store) Map() map[string]string {
	m := make(map[string]string, s.values.Len())
	for el := s.values.Front(); el != nil; el = el.Next() {
		m[el.Key] = el.Value
	}
	return m
}

// Filter returns the log entries whose path starts with prefix.
func (s *Store) Filter(prefix string) []Entry {
	var out []Entry
	for _, e := range s.log {
		if strings.HasPrefix(e.Path, prefix) {
			out = append(out, e)
		}
	}
	return out
}

// Int parses the value at path as a base-10 integer.
func (s *Store) Int(path string) (int64, error) {
	v, ok := s.Get(path)
	if !ok {
		return 0, errors.NotFound(errors.PhaseStore, "tag", path)
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, errors.New(errors.PhaseStore, errors.KindInvalidData).
			Path(path).
			Value(v).
			Cause(err).
			Detail("not an integer").
			Build()
	}
	return n, nil
}

// Float parses the value at path as a floating point number.
func (s *Store) Float(path string) (float64, error) {
	v, ok := s.Get(path)
	if !ok {
		return 0, errors.NotFound(errors.PhaseStore, "tag", path)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.New(errors.PhaseStore, errors.KindInvalidData).
			Path(path).
			Value(v).
			Cause(err).
			Detail("not a number").
			Build()
	}
	return f, nil
}

// Region returns the payload location recorded for path.
func (s *Store) Region(path string) (Region, error) {
	off, err := s.Int(path + OffsetSuffix)
	if err != nil {
		return Region{}, err
	}
	size, err := s.Int(path + SizeSuffix)
	if err != nil {
		return Region{}, err
	}
	return Region{Offset: off, Size: size}, nil
}

// Digest returns the xxhash64 of the write log. Two stores filled by the
// same sequence of writes have the same digest.
func (s *Store) Digest() uint64 {
	d := xxhash.New()
	for _, e := range s.log {
		_, _ = d.WriteString(e.Path)
		_, _ = d.WriteString(" = ")
		_, _ = d.WriteString(e.Value)
		_, _ = d.WriteString("\n")
	}
	return d.Sum64()
}

// WriteTo writes the log, one line per write.
func (s *Store) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, e := range s.log {
		n, err := io.WriteString(w, e.String()+"\n")
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
