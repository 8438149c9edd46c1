package schema

import "strings"

// IntText prepares integer text for parsing with base prefixes honoured:
// "0x1f", "0o17" and "0b101" keep their base, while plain digits are always
// decimal, so "010" is ten and "08" is eight.
func IntText(s string) string {
	s = strings.TrimSpace(s)
	sign := ""
	if s != "" && (s[0] == '-' || s[0] == '+') {
		sign, s = s[:1], s[1:]
	}
	if len(s) > 1 && s[0] == '0' {
		switch s[1] {
		case 'x', 'X', 'o', 'O', 'b', 'B':
			return sign + s
		}
		s = strings.TrimLeft(s, "0")
		if s == "" || s[0] == '_' {
			s = "0" + s
		}
	}
	return sign + s
}
