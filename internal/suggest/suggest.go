// Package suggest offers "did you mean" hints for mistyped flags and
// subcommand names.
package suggest

import (
	"fmt"
	"strings"
)

// MaxDistance is the largest edit distance that still yields a suggestion.
const MaxDistance = 3

// Closest finds the candidate nearest to name. It returns an empty string
// when no candidate is within MaxDistance. Ties keep the earliest candidate.
func Closest(name string, candidates []string) string {
	bestDist := -1
	bestName := ""

	for _, c := range candidates {
		d := Distance(name, c)
		if bestDist < 0 || d < bestDist {
			bestDist = d
			bestName = c
		}
	}

	if bestDist >= 0 && bestDist <= MaxDistance {
		return bestName
	}
	return ""
}

// NotFound builds the message for an unknown name, listing what is
// available and appending a suggestion when one is close.
//
//	unknown subcommand 'alpah' (available: alpha, beta). Did you mean 'alpha'?
func NotFound(what, name string, available []string) string {
	msg := fmt.Sprintf("unknown %s '%s'", what, name)
	if len(available) > 0 {
		msg += fmt.Sprintf(" (available: %s)", strings.Join(available, ", "))
	}
	if s := Closest(name, available); s != "" {
		msg += fmt.Sprintf(". Did you mean '%s'?", s)
	}
	return msg
}
