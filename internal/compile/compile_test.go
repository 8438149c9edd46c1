package compile

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thellimist/schemacli/internal/flagspec"
	"github.com/thellimist/schemacli/internal/schema"
)

type options struct {
	InputFile  string   `help:"Input file"`
	MaxRecords int      `cli:"-m" default:"10" help:"Max records"`
	Ratio      float64  `default:"0.5"`
	Mode       string   `choices:"fast,slow" default:"fast"`
	Xs         []int    `cli:"-x,--xs"`
	Names      []string `default:"a"`
	DryRun     bool     `default:"false"`
	Strict     *bool    `cli:"--strict,--lenient"`
}

func newSpec(t *testing.T, v any, meta Meta, reserved Reserved) *Spec {
	t.Helper()
	fields, err := schema.Extract(reflect.TypeOf(v))
	require.NoError(t, err)
	specs, err := flagspec.Synthesize(fields, flagspec.DefaultPrefixes())
	require.NoError(t, err)
	s, err := New(meta, specs, reserved)
	require.NoError(t, err)
	return s
}

func defaultSpec(t *testing.T) *Spec {
	return newSpec(t, options{}, Meta{Name: "tool", Description: "A test tool", Version: "1.2.3"},
		Reserved{JSONFlag: "json-config", CompletionFlag: "emit-completion", SchemaFlag: "emit-json-schema"})
}

// ---------------------------------------------------------------------------
// New tests
// ---------------------------------------------------------------------------

func TestNew_ReservedCollision(t *testing.T) {
	type opts struct {
		Version string
	}
	fields, err := schema.Extract(reflect.TypeOf(opts{}))
	require.NoError(t, err)
	specs, err := flagspec.Synthesize(fields, flagspec.DefaultPrefixes())
	require.NoError(t, err)

	_, err = New(Meta{Name: "x", Version: "1"}, specs, Reserved{})
	var ce *flagspec.CollisionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "--version", ce.Flag)

	// Without a version the name is free.
	_, err = New(Meta{Name: "x"}, specs, Reserved{})
	require.NoError(t, err)
}

func TestReservedFlags(t *testing.T) {
	s := defaultSpec(t)
	assert.Equal(t, []string{"--help", "--version", "--json-config", "--emit-completion", "--emit-json-schema"}, s.ReservedFlags())

	bare := newSpec(t, options{}, Meta{Name: "tool"}, Reserved{})
	assert.Equal(t, []string{"--help"}, bare.ReservedFlags())
}

func TestFieldFlags(t *testing.T) {
	s := defaultSpec(t)
	assert.Equal(t, []string{"-m", "--max_records"}, s.FieldFlags("max_records"))
	assert.Equal(t, []string{"--enable-dry_run", "--disable-dry_run"}, s.FieldFlags("dry_run"))
	assert.Empty(t, s.FieldFlags("nope"))
}

// ---------------------------------------------------------------------------
// Parse tests
// ---------------------------------------------------------------------------

func TestParse_Scalars(t *testing.T) {
	s := defaultSpec(t)
	p, err := s.Parse([]string{"--input_file", "in.txt", "-m", "5", "--ratio=0.25", "--mode", "slow"})
	require.NoError(t, err)

	assert.Equal(t, []string{"input_file", "max_records", "ratio", "mode"}, p.Order)
	assert.Equal(t, "in.txt", p.Tokens["input_file"].Last())
	assert.Equal(t, "5", p.Tokens["max_records"].Last())
	assert.Equal(t, "0.25", p.Tokens["ratio"].Last())
	assert.Equal(t, "slow", p.Tokens["mode"].Last())
	assert.False(t, p.Eager())
}

func TestParse_ShortAttachedValue(t *testing.T) {
	s := defaultSpec(t)
	p, err := s.Parse([]string{"-m7"})
	require.NoError(t, err)
	assert.Equal(t, "7", p.Tokens["max_records"].Last())

	p, err = s.Parse([]string{"-m=8"})
	require.NoError(t, err)
	assert.Equal(t, "8", p.Tokens["max_records"].Last())
}

func TestParse_RepeatedScalarLastWins(t *testing.T) {
	s := defaultSpec(t)
	p, err := s.Parse([]string{"-m", "1", "--max_records", "2"})
	require.NoError(t, err)
	assert.Equal(t, "2", p.Tokens["max_records"].Last())
}

func TestParse_NegativeNumberIsValue(t *testing.T) {
	s := defaultSpec(t)
	p, err := s.Parse([]string{"--ratio", "-1.5", "--xs", "-1", "2", "-3"})
	require.NoError(t, err)
	assert.Equal(t, "-1.5", p.Tokens["ratio"].Last())
	assert.Equal(t, []string{"-1", "2", "-3"}, p.Tokens["xs"].Values)
}

func TestParse_GreedyCollections(t *testing.T) {
	s := defaultSpec(t)
	p, err := s.Parse([]string{"--xs", "1", "2", "3", "--names", "a", "b", "-m", "4"})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, p.Tokens["xs"].Values)
	assert.Equal(t, []string{"a", "b"}, p.Tokens["names"].Values)
	assert.Equal(t, "4", p.Tokens["max_records"].Last())

	p, err = s.Parse([]string{"-x", "7", "8", "--xs=9"})
	require.NoError(t, err)
	assert.Equal(t, []string{"7", "8", "9"}, p.Tokens["xs"].Values)
}

func TestParse_GreedyValuesKeepCommas(t *testing.T) {
	s := defaultSpec(t)
	p, err := s.Parse([]string{"--names", "a,b", "c"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a,b", "c"}, p.Tokens["names"].Values)
}

func TestParse_Toggles(t *testing.T) {
	s := defaultSpec(t)

	p, err := s.Parse([]string{"--enable-dry_run"})
	require.NoError(t, err)
	assert.Equal(t, []string{"true"}, p.Tokens["dry_run"].Values)
	assert.Equal(t, []string{"--enable-dry_run"}, p.Tokens["dry_run"].Flags)

	p, err = s.Parse([]string{"--lenient"})
	require.NoError(t, err)
	assert.Equal(t, []string{"false"}, p.Tokens["strict"].Values)

	p, err = s.Parse([]string{"--disable-dry_run=false"})
	require.NoError(t, err)
	assert.Equal(t, []string{"true"}, p.Tokens["dry_run"].Values)

	p, err = s.Parse([]string{"--strict", "--lenient"})
	require.NoError(t, err)
	assert.Equal(t, []string{"--strict", "--lenient"}, p.Tokens["strict"].Flags)
}

func TestParse_ReservedValues(t *testing.T) {
	s := defaultSpec(t)
	p, err := s.Parse([]string{"--json-config", "preset.json"})
	require.NoError(t, err)
	assert.True(t, p.JSONPathSet)
	assert.Equal(t, "preset.json", p.JSONPath)

	p, err = s.Parse([]string{"--emit-completion", "zsh"})
	require.NoError(t, err)
	assert.Equal(t, "zsh", p.Completion)
	assert.True(t, p.Eager())

	p, err = s.Parse([]string{"--emit-json-schema"})
	require.NoError(t, err)
	assert.True(t, p.EmitSchema)
	assert.True(t, p.Eager())

	_, err = s.Parse([]string{"--emit-completion", "tcsh"})
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Error(), "tcsh")
}

func TestParse_EagerHelpAndVersion(t *testing.T) {
	s := defaultSpec(t)

	// Eager flags win over errors that come after them.
	p, err := s.Parse([]string{"--help", "--bogus", "positional"})
	require.NoError(t, err)
	assert.True(t, p.Help)
	assert.True(t, p.Eager())

	p, err = s.Parse([]string{"--version"})
	require.NoError(t, err)
	assert.True(t, p.Version)

	p, err = s.Parse([]string{"-m", "1", "--help=true"})
	require.NoError(t, err)
	assert.True(t, p.Help)

	bare := newSpec(t, options{}, Meta{Name: "tool"}, Reserved{})
	_, err = bare.Parse([]string{"--version"})
	require.Error(t, err)
}

func TestParse_Errors(t *testing.T) {
	s := defaultSpec(t)
	tests := []struct {
		name       string
		args       []string
		contains   string
		suggestion string
	}{
		{"unknown long", []string{"--max_recrods", "3"}, "unknown flag --max_recrods", "--max_records"},
		{"unknown short", []string{"-q", "3"}, "unknown flag -q", "-m"},
		{"positional", []string{"file.txt"}, "positional arguments are not supported", ""},
		{"after terminator", []string{"--", "file.txt"}, "positional arguments are not supported", ""},
		{"missing value", []string{"--ratio"}, "needs a value", ""},
		{"value is a toggle", []string{"--input_file", "--enable-dry_run"}, "flag --input_file needs a value", ""},
		{"value is a short flag", []string{"--input_file", "-m", "3"}, "flag --input_file needs a value", ""},
		{"short value is a long flag", []string{"-m", "--ratio=1"}, "flag -m needs a value", ""},
		{"value is the help flag", []string{"--ratio", "--help"}, "flag --ratio needs a value", ""},
		{"empty greedy", []string{"--xs", "--ratio", "1"}, "expects at least one value", ""},
		{"bad choice", []string{"--mode", "medium"}, "must be one of {fast|slow}", ""},
		{"bad choice inline", []string{"--mode=medium"}, "must be one of", ""},
		{"toggle bad bool", []string{"--enable-dry_run=maybe"}, "expected a boolean", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Parse(tc.args)
			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Contains(t, pe.Error(), tc.contains)
			assert.Equal(t, tc.suggestion, pe.Suggestion)
		})
	}
}

func TestParse_DashedValues(t *testing.T) {
	s := defaultSpec(t)
	p, err := s.Parse([]string{"--input_file", "-", "--mode", "fast", "--ratio", "-2"})
	require.NoError(t, err)
	assert.Equal(t, "-", p.Tokens["input_file"].Last())
	assert.Equal(t, "-2", p.Tokens["ratio"].Last())

	// Unknown dashed words are passed through as values.
	p, err = s.Parse([]string{"--input_file", "--not-a-flag"})
	require.NoError(t, err)
	assert.Equal(t, "--not-a-flag", p.Tokens["input_file"].Last())
}

func TestParse_FreshStatePerCall(t *testing.T) {
	s := defaultSpec(t)
	_, err := s.Parse([]string{"--xs", "1", "2"})
	require.NoError(t, err)

	p, err := s.Parse([]string{"--xs", "3"})
	require.NoError(t, err)
	assert.Equal(t, []string{"3"}, p.Tokens["xs"].Values)

	p, err = s.Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, p.Tokens)
}

// ---------------------------------------------------------------------------
// Help and completion tests
// ---------------------------------------------------------------------------

func TestHelp(t *testing.T) {
	s := defaultSpec(t)
	var buf bytes.Buffer
	require.NoError(t, s.Help(&buf))
	out := buf.String()

	for _, want := range []string{
		"A test tool",
		"--input_file string",
		"Input file (required)",
		"-m, --max_records int",
		"Max records (default: 10)",
		"{fast|slow}",
		"--xs ints",
		"--enable-dry_run",
		"--disable-dry_run",
		"--json-config",
		"--emit-completion",
	} {
		assert.Contains(t, out, want)
	}

	// Declaration order is preserved.
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("--input_file")), bytes.Index(buf.Bytes(), []byte("--max_records")))
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("--max_records")), bytes.Index(buf.Bytes(), []byte("--strict")))
}

func TestWriteCompletion(t *testing.T) {
	s := defaultSpec(t)
	for _, shell := range Shells {
		t.Run(shell, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteCompletion(s.Command(), &buf, shell))
			assert.Contains(t, buf.String(), "tool")
		})
	}

	var buf bytes.Buffer
	require.Error(t, WriteCompletion(s.Command(), &buf, "tcsh"))
}

func TestTypeName(t *testing.T) {
	s := defaultSpec(t)
	got := map[string]string{}
	for i := range s.Specs() {
		got[s.Specs()[i].Long] = typeName(&s.Specs()[i])
	}
	assert.Equal(t, "string", got["input_file"])
	assert.Equal(t, "int", got["max_records"])
	assert.Equal(t, "float", got["ratio"])
	assert.Equal(t, "ints", got["xs"])
	assert.Equal(t, "strings", got["names"])
	assert.Equal(t, "bool", got["enable-dry_run"])
}
