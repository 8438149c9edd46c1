package compile

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/thellimist/schemacli/internal/flagspec"
	"github.com/thellimist/schemacli/internal/suggest"
)

// Token is everything the command line said about one field.
type Token struct {
	Field  string
	Flags  []string // Distinct spellings passed, in order
	Values []string // Raw values in order; toggles record "true" or "false"
}

// Last returns the final value given, which wins for scalar fields.
func (t Token) Last() string {
	if len(t.Values) == 0 {
		return ""
	}
	return t.Values[len(t.Values)-1]
}

// Parsed is the result of one Parse call.
type Parsed struct {
	Tokens map[string]Token // Keyed by field name
	Order  []string         // Field names in the order they were first seen

	Help        bool
	Version     bool
	JSONPath    string
	JSONPathSet bool
	Completion  string
	EmitSchema  bool
}

// Eager reports whether an eager flag short-circuits the run.
func (p *Parsed) Eager() bool {
	return p.Help || p.Version || p.Completion != "" || p.EmitSchema
}

// ParseError is a malformed command line.
type ParseError struct {
	Flag       string
	Msg        string
	Suggestion string
}

func (e *ParseError) Error() string {
	msg := e.Msg
	if e.Suggestion != "" {
		msg += fmt.Sprintf(". Did you mean %s?", e.Suggestion)
	}
	return msg
}

// Parse scans args against the flags of s. Each call uses a fresh FlagSet.
//
// Collection flags are greedy: "--xs a b c" gives three values, stopping at
// the next token that looks like a flag. Positional arguments are rejected.
func (s *Spec) Parse(args []string) (*Parsed, error) {
	expanded, eager, err := s.expand(args)
	if err != nil {
		return nil, err
	}
	if eager != nil {
		return eager, nil
	}

	rec := newRecorder()
	fs := pflag.NewFlagSet(s.meta.Name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	fs.SortFlags = false
	s.register(fs, rec)

	if err := fs.Parse(expanded); err != nil {
		return nil, &ParseError{Msg: err.Error()}
	}
	if rest := fs.Args(); len(rest) > 0 {
		return nil, positionalError(rest[0])
	}
	if help, _ := fs.GetBool(HelpFlag); help {
		return &Parsed{Help: true}, nil
	}
	if s.meta.Version != "" {
		if version, _ := fs.GetBool(VersionFlag); version {
			return &Parsed{Version: true}, nil
		}
	}

	p := &Parsed{Tokens: make(map[string]Token, len(rec.order)), Order: rec.order}
	for _, name := range rec.order {
		p.Tokens[name] = *rec.tokens[name]
	}
	if s.reserved.JSONFlag != "" && fs.Changed(s.reserved.JSONFlag) {
		p.JSONPath, _ = fs.GetString(s.reserved.JSONFlag)
		p.JSONPathSet = true
	}
	if s.reserved.CompletionFlag != "" && fs.Changed(s.reserved.CompletionFlag) {
		shell, _ := fs.GetString(s.reserved.CompletionFlag)
		if !slices.Contains(Shells, shell) {
			return nil, &ParseError{
				Flag: "--" + s.reserved.CompletionFlag,
				Msg:  fmt.Sprintf("unsupported shell %q for --%s (%s)", shell, s.reserved.CompletionFlag, strings.Join(Shells, "|")),
			}
		}
		p.Completion = shell
	}
	if s.reserved.SchemaFlag != "" && fs.Changed(s.reserved.SchemaFlag) {
		p.EmitSchema = true
	}
	return p, nil
}

// flagKind classifies a spelling during expansion.
type flagKind int

const (
	kindUnknown flagKind = iota
	kindSwitch           // takes no value
	kindValue            // takes exactly one value
	kindMulti            // greedy collection
)

func (s *Spec) classifyLong(name string) (flagKind, *flagspec.FlagSpec) {
	switch name {
	case HelpFlag:
		return kindSwitch, nil
	case s.reserved.SchemaFlag:
		if name != "" {
			return kindSwitch, nil
		}
	case s.reserved.JSONFlag, s.reserved.CompletionFlag:
		if name != "" {
			return kindValue, nil
		}
	}
	if name == VersionFlag && s.meta.Version != "" {
		return kindSwitch, nil
	}
	i, ok := s.byLong[name]
	if !ok {
		return kindUnknown, nil
	}
	return specKind(&s.specs[i]), &s.specs[i]
}

func specKind(fs *flagspec.FlagSpec) flagKind {
	switch fs.Arity {
	case flagspec.ArityToggle:
		return kindSwitch
	case flagspec.ArityMulti:
		return kindMulti
	default:
		return kindValue
	}
}

// expand rewrites args into "--long=value" form, one entry per value, so
// pflag sees a plain list. It stops early on --help or --version.
func (s *Spec) expand(args []string) ([]string, *Parsed, error) {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		a := args[i]

		switch {
		case a == "--":
			if i+1 < len(args) {
				return nil, nil, positionalError(args[i+1])
			}
			return out, nil, nil

		case strings.HasPrefix(a, "--"):
			name, value, hasValue := strings.Cut(a[2:], "=")
			if !hasValue {
				if name == HelpFlag {
					return nil, &Parsed{Help: true}, nil
				}
				if name == VersionFlag && s.meta.Version != "" {
					return nil, &Parsed{Version: true}, nil
				}
			}
			kind, spec := s.classifyLong(name)
			long := "--" + name
			switch {
			case kind == kindUnknown:
				return nil, nil, s.unknownFlag(long)
			case hasValue:
				if kind == kindMulti {
					out = append(out, long+"="+value)
				} else {
					out = append(out, a)
				}
			case kind == kindMulti:
				vals, next := greedy(args, i+1)
				if len(vals) == 0 {
					return nil, nil, &ParseError{Flag: long, Msg: fmt.Sprintf("flag %s expects at least one value", long)}
				}
				for _, v := range vals {
					out = append(out, "--"+spec.Long+"="+v)
				}
				i = next - 1
			case kind == kindValue:
				if i+1 >= len(args) || s.isKnownFlag(args[i+1]) {
					return nil, nil, &ParseError{Flag: long, Msg: fmt.Sprintf("flag %s needs a value", long)}
				}
				out = append(out, long+"="+args[i+1])
				i++
			default:
				out = append(out, a)
			}

		case looksLikeFlag(a):
			short := a[1:2]
			idx, ok := s.byShort[short]
			if !ok {
				return nil, nil, s.unknownFlag("-" + short)
			}
			spec := &s.specs[idx]
			long := "--" + spec.Long
			attached := strings.TrimPrefix(a[2:], "=")
			switch {
			case len(a) > 2:
				out = append(out, long+"="+attached)
			case specKind(spec) == kindMulti:
				vals, next := greedy(args, i+1)
				if len(vals) == 0 {
					return nil, nil, &ParseError{Flag: a, Msg: fmt.Sprintf("flag %s expects at least one value", a)}
				}
				for _, v := range vals {
					out = append(out, long+"="+v)
				}
				i = next - 1
			default:
				if i+1 >= len(args) || s.isKnownFlag(args[i+1]) {
					return nil, nil, &ParseError{Flag: a, Msg: fmt.Sprintf("flag %s needs a value", a)}
				}
				out = append(out, long+"="+args[i+1])
				i++
			}

		default:
			return nil, nil, positionalError(a)
		}
	}
	return out, nil, nil
}

// isKnownFlag reports whether tok spells a flag this Spec accepts. A value
// flag followed by one is missing its value.
func (s *Spec) isKnownFlag(tok string) bool {
	if !looksLikeFlag(tok) || tok == "--" {
		return false
	}
	if strings.HasPrefix(tok, "--") {
		name, _, _ := strings.Cut(tok[2:], "=")
		kind, _ := s.classifyLong(name)
		return kind != kindUnknown
	}
	_, ok := s.byShort[tok[1:2]]
	return ok
}

// greedy collects values starting at args[from] until the next flag.
func greedy(args []string, from int) ([]string, int) {
	i := from
	for i < len(args) && args[i] != "--" && !looksLikeFlag(args[i]) {
		i++
	}
	return args[from:i], i
}

// looksLikeFlag treats negative numbers as values.
func looksLikeFlag(s string) bool {
	if len(s) < 2 || s[0] != '-' {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err != nil
}

func (s *Spec) unknownFlag(flag string) *ParseError {
	return &ParseError{
		Flag:       flag,
		Msg:        "unknown flag " + flag,
		Suggestion: suggest.Closest(flag, s.knownFlags()),
	}
}

func positionalError(arg string) *ParseError {
	return &ParseError{Msg: fmt.Sprintf("unexpected argument %q: positional arguments are not supported", arg)}
}
