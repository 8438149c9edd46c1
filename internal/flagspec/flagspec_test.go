package flagspec

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thellimist/schemacli/internal/schema"
)

func extract(t *testing.T, v any) []schema.Field {
	t.Helper()
	fields, err := schema.Extract(reflect.TypeOf(v))
	require.NoError(t, err)
	return fields
}

// ---------------------------------------------------------------------------
// Non-boolean fields
// ---------------------------------------------------------------------------

func TestSynthesize_ValueFlags(t *testing.T) {
	type opts struct {
		InputFile  string
		MaxRecords int      `cli:"-m" default:"10"`
		Output     string   `cli:"--out"`
		Level      string   `cli:"-l,--lvl" choices:"info,debug" default:"info"`
		Tags       []string `help:"Labels"`
	}
	specs, err := Synthesize(extract(t, opts{}), DefaultPrefixes())
	require.NoError(t, err)
	require.Len(t, specs, 5)

	tests := []struct {
		flags []string
		long  string
		short string
		arity Arity
	}{
		{[]string{"--input_file"}, "input_file", "", ArityScalar},
		{[]string{"-m", "--max_records"}, "max_records", "m", ArityScalar},
		{[]string{"--out"}, "out", "", ArityScalar},
		{[]string{"-l", "--lvl"}, "lvl", "l", ArityScalar},
		{[]string{"--tags"}, "tags", "", ArityMulti},
	}
	for i, tc := range tests {
		assert.Equal(t, tc.flags, specs[i].Flags, "spec %d", i)
		assert.Equal(t, tc.long, specs[i].Long, "spec %d", i)
		assert.Equal(t, tc.short, specs[i].Short, "spec %d", i)
		assert.Equal(t, tc.arity, specs[i].Arity, "spec %d", i)
	}

	assert.True(t, specs[0].Required)
	assert.Empty(t, specs[0].DefaultText)
	assert.Equal(t, "10", specs[1].DefaultText)
	assert.Equal(t, []string{"info", "debug"}, specs[3].Choices)
	assert.Equal(t, "Labels", specs[4].Description)
}

func TestSynthesize_ValueOverrideErrors(t *testing.T) {
	tests := []struct {
		name string
		v    any
	}{
		{"malformed single", struct {
			A string `cli:"alpha"`
		}{}},
		{"long then short", struct {
			A string `cli:"--alpha,-a"`
		}{}},
		{"three entries", struct {
			A string `cli:"-a,--alpha,--al"`
		}{}},
		{"multi-char short", struct {
			A string `cli:"-ab,--alpha"`
		}{}},
		{"digit short", struct {
			A string `cli:"-5"`
		}{}},
		{"digit short pair", struct {
			A int `cli:"-1,--alpha"`
		}{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Synthesize(extract(t, tc.v), DefaultPrefixes())
			var se *SpecError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, "a", se.Field)
		})
	}
}

// ---------------------------------------------------------------------------
// Boolean fields
// ---------------------------------------------------------------------------

func TestSynthesize_BoolWithDefaultGeneratesPair(t *testing.T) {
	type opts struct {
		DryRun bool `default:"false" help:"Do nothing"`
	}
	specs, err := Synthesize(extract(t, opts{}), DefaultPrefixes())
	require.NoError(t, err)
	require.Len(t, specs, 2)

	assert.Equal(t, []string{"--enable-dry_run"}, specs[0].Flags)
	assert.True(t, specs[0].ValueOnPresent)
	assert.Equal(t, ArityToggle, specs[0].Arity)
	assert.Equal(t, "Do nothing", specs[0].Description)

	assert.Equal(t, []string{"--disable-dry_run"}, specs[1].Flags)
	assert.False(t, specs[1].ValueOnPresent)
	assert.Equal(t, "dry_run", specs[1].Field.Name)
	assert.Equal(t, "false", specs[1].DefaultText)
}

func TestSynthesize_CustomPrefixes(t *testing.T) {
	type opts struct {
		Cache bool `default:"true"`
	}
	specs, err := Synthesize(extract(t, opts{}), Prefixes{True: "--with-", False: "--without-"})
	require.NoError(t, err)
	assert.Equal(t, []string{"--with-cache", "--without-cache"}, AllFlags(specs))

	_, err = Synthesize(extract(t, opts{}), Prefixes{True: "--x-", False: "--x-"})
	require.Error(t, err)
}

func TestSynthesize_BoolOverridePair(t *testing.T) {
	type opts struct {
		Epsilon bool  `cli:"--epsilon,--disable-epsilon"`
		Strict  *bool `cli:"--strict,--lenient"`
		Fast    bool  `cli:"--fast,--slow" default:"true"`
	}
	specs, err := Synthesize(extract(t, opts{}), DefaultPrefixes())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"--epsilon", "--disable-epsilon",
		"--strict", "--lenient",
		"--fast", "--slow",
	}, AllFlags(specs))
	assert.True(t, specs[0].Required)
	assert.False(t, specs[2].Required)
	assert.Equal(t, "none", specs[2].DefaultText)
}

func TestSynthesize_BoolErrors(t *testing.T) {
	tests := []struct {
		name string
		v    any
	}{
		{"required without override", struct{ B bool }{}},
		{"optional without override", struct{ B *bool }{}},
		{"single override", struct {
			B bool `cli:"--b" default:"true"`
		}{}},
		{"short in pair", struct {
			B bool `cli:"-b,--no-b"`
		}{}},
		{"same spelling twice", struct {
			B *bool `cli:"--b,--b"`
		}{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Synthesize(extract(t, tc.v), DefaultPrefixes())
			var se *SpecError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, "b", se.Field)
		})
	}
}

// ---------------------------------------------------------------------------
// Collisions
// ---------------------------------------------------------------------------

func TestCheckCollisions(t *testing.T) {
	type clash struct {
		Alpha string `cli:"-a,--alpha"`
		Also  string `cli:"-a,--also"`
	}
	specs, err := Synthesize(extract(t, clash{}), DefaultPrefixes())
	require.NoError(t, err)

	err = CheckCollisions(specs)
	var ce *CollisionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "-a", ce.Flag)
	assert.Equal(t, "field alpha", ce.First)
	assert.Equal(t, "field also", ce.Second)
}

func TestCheckCollisions_Reserved(t *testing.T) {
	type opts struct {
		JSONConfig string `json:"json-config"`
	}
	specs, err := Synthesize(extract(t, opts{}), DefaultPrefixes())
	require.NoError(t, err)

	err = CheckCollisions(specs, "--help", "--json-config")
	var ce *CollisionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "--json-config", ce.Flag)
	assert.Equal(t, "reserved flag --json-config", ce.First)
}

func TestCheckCollisions_GeneratedToggleClash(t *testing.T) {
	type opts struct {
		X       bool   `default:"true"`
		EnableX string `json:"x_name" cli:"--enable-x"`
	}
	specs, err := Synthesize(extract(t, opts{}), DefaultPrefixes())
	require.NoError(t, err)
	require.Error(t, CheckCollisions(specs))
}

func TestCheckCollisions_None(t *testing.T) {
	type opts struct {
		A string
		B bool `default:"true"`
	}
	specs, err := Synthesize(extract(t, opts{}), DefaultPrefixes())
	require.NoError(t, err)
	assert.NoError(t, CheckCollisions(specs, "--help", "--version"))
}

func TestIsShort(t *testing.T) {
	assert.True(t, IsShort("-n"))
	assert.True(t, IsShort("-N"))
	assert.False(t, IsShort("-5"))
	assert.False(t, IsShort("-0"))
	assert.False(t, IsShort("--n"))
	assert.False(t, IsShort("-_"))
}

func TestArityString(t *testing.T) {
	assert.Equal(t, "0", ArityToggle.String())
	assert.Equal(t, "1", ArityScalar.String())
	assert.Equal(t, "N", ArityMulti.String())
}
