package textutil

import "strings"

// SanitizeToken converts a string to a lowercase token safe for SQL
// identifiers and file names. Letters are lowercased, digits and underscores
// are kept, everything else becomes an underscore. A leading digit gains an
// underscore prefix. Returns "unknown" for empty input.
func SanitizeToken(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '_' || r == '-':
			b.WriteByte('_')
		default:
			b.WriteByte('_')
		}
	}
	token := strings.Trim(b.String(), "_")
	if token == "" {
		return "unknown"
	}
	if token[0] >= '0' && token[0] <= '9' {
		token = "_" + token
	}
	return token
}
