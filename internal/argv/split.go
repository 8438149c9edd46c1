// Package argv turns a shell-style command line into an argument list.
package argv

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// QuoteError reports a quote that is never closed.
type QuoteError struct {
	Quote rune
	Pos   int // Rune offset of the opening quote
}

func (e *QuoteError) Error() string {
	return fmt.Sprintf("unterminated %c quote at offset %d", e.Quote, e.Pos)
}

type state int

const (
	stateSpace state = iota
	stateWord
	stateSingle
	stateDouble
)

// Split breaks line into arguments the way a POSIX shell would, without
// expansion. Single quotes are literal; inside double quotes a backslash
// escapes only '"', '\' and '$'; outside quotes it escapes any rune.
// Quoted empty strings produce empty arguments.
func Split(line string) ([]string, error) {
	var (
		args  []string
		word  strings.Builder
		st    = stateSpace
		open  int
		runes = []rune(line)
	)

	flush := func() {
		args = append(args, word.String())
		word.Reset()
	}

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch st {
		case stateSingle:
			if r == '\'' {
				st = stateWord
				continue
			}
			word.WriteRune(r)

		case stateDouble:
			switch {
			case r == '"':
				st = stateWord
			case r == '\\' && i+1 < len(runes) && strings.ContainsRune(`"\$`, runes[i+1]):
				i++
				word.WriteRune(runes[i])
			default:
				word.WriteRune(r)
			}

		default:
			switch {
			case isSpace(r):
				if st == stateWord {
					flush()
					st = stateSpace
				}
			case r == '\'' || r == '"':
				open = i
				if r == '\'' {
					st = stateSingle
				} else {
					st = stateDouble
				}
			case r == '\\' && i+1 < len(runes):
				i++
				word.WriteRune(runes[i])
				st = stateWord
			default:
				word.WriteRune(r)
				st = stateWord
			}
		}
	}

	switch st {
	case stateSingle:
		return nil, errors.WithStack(&QuoteError{Quote: '\'', Pos: open})
	case stateDouble:
		return nil, errors.WithStack(&QuoteError{Quote: '"', Pos: open})
	case stateWord:
		flush()
	}
	return args, nil
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
