package profiles

import "strings"

const (
	// HandlePrefix is the sentinel every stored handle starts with
	HandlePrefix = "@"

	// prefixRangeSentinel closes the half-open range used for prefix scans.
	// It sorts after every character a handle is expected to contain.
	prefixRangeSentinel = "\uf8ff"
)

// NormalizeHandle strips surrounding whitespace and any leading "@" characters,
// then prepends exactly one "@". NormalizeHandle is idempotent.
// An input with no body normalizes to the empty string.
func NormalizeHandle(handle string) string {
	body := HandleBody(handle)
	if body == "" {
		return ""
	}
	return HandlePrefix + body
}

// HandleBody returns the handle without its "@" prefix
func HandleBody(handle string) string {
	return strings.TrimLeft(strings.TrimSpace(handle), HandlePrefix)
}

// HandleRange returns the half-open range [lo, hi) covering every handle
// that starts with prefix.
func HandleRange(prefix string) (lo, hi string) {
	return prefix, prefix + prefixRangeSentinel
}
