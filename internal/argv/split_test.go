package argv

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"plain words", "alpha --xs 1 2", []string{"alpha", "--xs", "1", "2"}},
		{"single quotes", "--name 'a b'", []string{"--name", "a b"}},
		{"double quotes", `--name "a b"`, []string{"--name", "a b"}},
		{"apostrophe in double quotes", `--msg "it's"`, []string{"--msg", "it's"}},
		{"escaped space", `--path my\ file.json`, []string{"--path", "my file.json"}},
		{"escaped quote in double quotes", `--msg "say \"hi\""`, []string{"--msg", `say "hi"`}},
		{"other backslash kept in double quotes", `--msg "a\nb"`, []string{"--msg", `a\nb`}},
		{"backslash kept in single quotes", `--msg 'a\"b'`, []string{"--msg", `a\"b`}},
		{"quotes join a word", `--name=a'b c'd`, []string{"--name=ab cd"}},
		{"empty double quoted", `--name ""`, []string{"--name", ""}},
		{"empty single quoted", "--name ''", []string{"--name", ""}},
		{"trailing backslash", `a\`, []string{`a\`}},
		{"tabs and newlines", "a\tb\nc", []string{"a", "b", "c"}},
		{"repeated spaces", "  a   b  ", []string{"a", "b"}},
		{"empty", "", nil},
		{"blank", " \t ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Split(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplit_Unterminated(t *testing.T) {
	tests := []struct {
		input string
		quote rune
		pos   int
	}{
		{"echo 'open", '\'', 5},
		{`a "b`, '"', 2},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := Split(tt.input)
			var qe *QuoteError
			require.True(t, errors.As(err, &qe), "got %v", err)
			assert.Equal(t, tt.quote, qe.Quote)
			assert.Equal(t, tt.pos, qe.Pos)
		})
	}
}
