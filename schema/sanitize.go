package schema

import "strings"

// Sanitize case-folds name and replaces every rune outside [a-z0-9] with an
// underscore, producing a diagram-language identifier. Two different names
// may sanitize to the same identifier; that is left to the caller.
func Sanitize(name string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		} else {
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

// SanitizeField is like Sanitize but keeps the original letter case, so
// attribute names such as "userId" stay readable.
func SanitizeField(name string) string {
	var sb strings.Builder
	for _, r := range name {
		if isIdentRune(r) {
			sb.WriteRune(r)
		} else {
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

// ValidIdentifier reports whether s can be used as-is in the diagram
// language: non-empty, starting with a letter and containing at least one
// character that is not an underscore.
func ValidIdentifier(s string) bool {
	if s == "" || strings.Trim(s, "_") == "" {
		return false
	}
	first := s[0]
	if !((first >= 'a' && first <= 'z') || (first >= 'A' && first <= 'Z') || first == '_') {
		return false
	}
	for _, r := range s {
		if !isIdentRune(r) {
			return false
		}
	}
	return true
}

func isIdentRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_'
}
