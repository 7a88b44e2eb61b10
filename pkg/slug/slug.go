package slug

import (
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Generate creates a URL-friendly slug from the given name: lowercased, every
// run of characters outside [a-z0-9] collapsed to a single hyphen, and
// leading or trailing hyphens removed. Non-ASCII letters are not
// transliterated, so a name with no ASCII alphanumerics yields "".
//
// Examples:
//   - "My Org!" → "my-org"
//   - "  Acme -- Labs  " → "acme-labs"
func Generate(name string) string {
	s := nonAlnum.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(s, "-")
}
