// Package routepath joins and normalizes URL route paths.
package routepath

import (
	"path"
	"strings"
)

// Root is the path every unmounted router resolves to.
const Root = "/"

// Join composes route path segments. The result is rooted, cleaned and has
// no trailing separator unless it is the root itself.
func Join(parts ...string) string {
	joined := path.Join(append([]string{Root}, parts...)...)
	return Normalize(joined)
}

// Normalize strips a trailing separator unless the path is the root, and maps
// the empty path to the root.
func Normalize(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	if p == "" {
		return Root
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
		if p == "" {
			return Root
		}
	}
	return p
}

// IsRoot reports whether p normalizes to the root path.
func IsRoot(p string) bool {
	return Normalize(p) == Root
}
