// Package utils holds tiny helpers with no domain knowledge, shared across
// layers. Anything here must stay dependency-free.
package utils

import "strconv"

// AtoiDefault parses s as an integer, returning def when s is empty or not a
// valid int. Query parameters like "page" and "page_size" go through this so
// malformed input degrades to defaults instead of erroring.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// ClampInt bounds n to the inclusive range [lo, hi].
func ClampInt(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
