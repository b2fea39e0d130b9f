package reactive

import (
	"strconv"
	"strings"
)

// Delimiter separates access path segments. It cannot appear in an
// expression identifier, so a path never collides with a property name
// used in markup.
const Delimiter = "*"

// Join appends key to the parent path.
func Join(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + Delimiter + key
}

// IndexPath returns the path of element i of the sequence at parent.
func IndexPath(parent string, i int) string {
	return Join(parent, strconv.Itoa(i))
}

// Split returns the segments of path.
func Split(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, Delimiter)
}

// Field returns the top-level field a path belongs to.
func Field(path string) string {
	if i := strings.Index(path, Delimiter); i >= 0 {
		return path[:i]
	}
	return path
}

// IsDeep reports whether path addresses something below a top-level field.
func IsDeep(path string) bool {
	return strings.Contains(path, Delimiter)
}

// IndexUnder reports the index a path designates directly below prefix, and
// the remainder after that index segment ("" or "*rest").
//
//	IndexUnder("items", "items*3*text") == (3, "*text", true)
func IndexUnder(prefix, path string) (int, string, bool) {
	head := prefix
	if prefix != "" {
		head += Delimiter
	}
	if !strings.HasPrefix(path, head) {
		return 0, "", false
	}
	rest := path[len(head):]
	seg := rest
	tail := ""
	if i := strings.Index(rest, Delimiter); i >= 0 {
		seg, tail = rest[:i], rest[i:]
	}
	n, err := strconv.Atoi(seg)
	if err != nil || n < 0 {
		return 0, "", false
	}
	return n, tail, true
}
