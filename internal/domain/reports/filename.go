package reports

import "strings"

// FilePart makes a project number safe inside a file name or object key.
// Anything other than letters, digits, '.', '-' and '_' becomes '_'.
func FilePart(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, strings.TrimSpace(s))
}
