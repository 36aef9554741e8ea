package dm

import (
	"math"
	"strconv"
	"strings"
)

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}

func formatUint(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func formatBool(v bool) string {
	if v {
		return "True"
	}
	return "False"
}

// formatChar renders a single-byte character as ISO-8859-1, where every
// byte value is its own code point.
func formatChar(b byte) string {
	return string(rune(b))
}

// formatFloat renders the shortest decimal that round-trips v. Values in
// [1e-4, 1e16) use plain notation with at least one fractional digit;
// everything else uses exponent notation.
func formatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}

	abs := math.Abs(v)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}

	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}
