package schema

import (
	"strings"
	"unicode"
)

// ToFieldName converts a Go field name to the snake_case name used for
// flags and preset keys: "MaxRecords" → "max_records", "HTTPPort" →
// "http_port", "Retry2Count" → "retry2_count". Dashes become underscores.
func ToFieldName(goName string) string {
	runes := []rune(goName)
	var b strings.Builder
	b.Grow(len(goName) + 4)

	for i, r := range runes {
		if r == '-' {
			r = '_'
		}
		if unicode.IsUpper(r) && i > 0 && wordStart(runes, i) && !strings.HasSuffix(b.String(), "_") {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// wordStart reports whether the upper-case rune at i begins a new word:
// after a lower-case letter or digit, or as the last capital of an acronym
// followed by a lower-case letter.
func wordStart(runes []rune, i int) bool {
	prev := runes[i-1]
	if unicode.IsLower(prev) || unicode.IsDigit(prev) {
		return true
	}
	return unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1])
}
