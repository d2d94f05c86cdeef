// Package textkey derives the canonical comparison key for display names.
//
// A key is the NFKC form of the trimmed name after full Unicode case folding,
// so "Straße", "STRASSE" and "strasse" share one key. Diacritics are kept:
// "Côte d'Ivoire" and "CÔTE D'IVOIRE" match, "Cote d'Ivoire" does not.
//
// The same function is used when writing rows, when backfilling historical
// rows, and for every case-insensitive comparison in the query paths.
package textkey

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// maxPasses bounds the fold/compose iteration in Normalize.
const maxPasses = 8

// Normalize returns the canonical key for name. The boolean is false when the
// name is empty after trimming whitespace.
//
// One pass is NFKC, full case fold, NFKC, then trim; compatibility mappings
// can introduce leading spaces (U+00A8 becomes " \u0308"). Passes repeat
// until the string is stable. A few folds in x/text are not stable (the
// Cherokee letters alternate between cases), so when the passes cycle the
// smallest string of the cycle is the key. Either way Normalize(key) == key.
func Normalize(name string) (string, bool) {
	s := strings.TrimSpace(name)
	if s == "" {
		return "", false
	}
	seen := []string{s}
	for range maxPasses {
		next := pass(s)
		if next == s {
			break
		}
		if i := slices.Index(seen, next); i >= 0 {
			s = slices.Min(seen[i:])
			break
		}
		seen = append(seen, next)
		s = next
	}
	if s == "" {
		return "", false
	}
	return s, true
}

func pass(s string) string {
	// Caser values carry state; build one per call.
	return strings.TrimSpace(norm.NFKC.String(cases.Fold().String(norm.NFKC.String(s))))
}

// Key is Normalize without the presence flag; empty input yields "".
func Key(name string) string {
	k, _ := Normalize(name)
	return k
}

// Equal reports whether a and b normalize to the same non-empty key.
func Equal(a, b string) bool {
	ka, ok := Normalize(a)
	if !ok {
		return false
	}
	kb, ok := Normalize(b)
	return ok && ka == kb
}

// EqualPtr is Equal for optional columns; a nil value never matches.
func EqualPtr(col *string, want string) bool {
	if col == nil {
		return false
	}
	return Equal(*col, want)
}
