package compile

import (
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/thellimist/schemacli/internal/flagspec"
	"github.com/thellimist/schemacli/internal/schema"
)

// register adds the reserved flags and every schema flag to fs. rec may be
// nil when the FlagSet is only used for help or completion.
func (s *Spec) register(fs *pflag.FlagSet, rec *recorder) {
	fs.Bool(HelpFlag, false, "Print help and exit")
	if s.meta.Version != "" {
		fs.Bool(VersionFlag, false, "Print version and exit")
	}
	if s.reserved.JSONFlag != "" {
		fs.String(s.reserved.JSONFlag, "", "Path to a JSON file of preset values")
	}
	if s.reserved.CompletionFlag != "" {
		fs.String(s.reserved.CompletionFlag, "", "Emit a shell completion script ("+strings.Join(Shells, "|")+")")
	}
	if s.reserved.SchemaFlag != "" {
		fs.Bool(s.reserved.SchemaFlag, false, "Emit the JSON Schema of the preset file and exit")
	}

	for i := range s.specs {
		spec := &s.specs[i]
		usage := usageText(spec)
		switch spec.Arity {
		case flagspec.ArityToggle:
			f := fs.VarPF(&toggleValue{spec: spec, rec: rec}, spec.Long, "", usage)
			f.NoOptDefVal = "true"
		case flagspec.ArityMulti:
			fs.VarP(&rawSlice{spec: spec, rec: rec}, spec.Long, spec.Short, usage)
		default:
			fs.VarP(&rawValue{spec: spec, rec: rec}, spec.Long, spec.Short, usage)
		}
	}
}

// Command renders s as a cobra command. A new command is built on
// every call; it is used for help output and completion scripts only.
func (s *Spec) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:           s.meta.Name,
		Short:         s.meta.Description,
		Version:       s.meta.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Run:           func(*cobra.Command, []string) {},
	}
	cmd.Flags().SortFlags = false
	s.register(cmd.Flags(), nil)
	cmd.CompletionOptions.DisableDefaultCmd = true

	for _, spec := range s.specs {
		if len(spec.Choices) > 0 {
			_ = cmd.RegisterFlagCompletionFunc(spec.Long, cobra.FixedCompletions(spec.Choices, cobra.ShellCompDirectiveNoFileComp))
		}
	}
	if s.reserved.CompletionFlag != "" {
		_ = cmd.RegisterFlagCompletionFunc(s.reserved.CompletionFlag, cobra.FixedCompletions(Shells, cobra.ShellCompDirectiveNoFileComp))
	}
	if s.reserved.JSONFlag != "" {
		_ = cmd.MarkFlagFilename(s.reserved.JSONFlag, "json")
	}
	return cmd
}

// Help writes the description and flag usage to w.
func (s *Spec) Help(w io.Writer) error {
	return WriteHelp(s.Command(), w)
}

// WriteHelp writes cmd's help text to w.
func WriteHelp(cmd *cobra.Command, w io.Writer) error {
	cmd.SetOut(w)
	return cmd.Help()
}

// WriteCompletion writes the completion script for shell, generated for the
// root of cmd's tree.
func WriteCompletion(cmd *cobra.Command, w io.Writer, shell string) error {
	root := cmd.Root()
	switch shell {
	case "bash":
		return root.GenBashCompletionV2(w, true)
	case "zsh":
		return root.GenZshCompletion(w)
	case "fish":
		return root.GenFishCompletion(w, true)
	case "powershell":
		return root.GenPowerShellCompletionWithDesc(w)
	}
	return errors.Errorf("compile: unsupported shell %q", shell)
}

// typeName is the placeholder shown after a flag in help output.
func typeName(spec *flagspec.FlagSpec) string {
	f := spec.Field
	kind := f.Kind
	if kind.IsCollection() {
		kind = f.Elem
	}

	var name string
	switch kind {
	case schema.KindInteger:
		name = "int"
		if f.Unsigned {
			name = "uint"
		}
	case schema.KindFloat:
		name = "float"
	case schema.KindBool, schema.KindOptionalBool:
		return "bool"
	default:
		name = "string"
	}
	if f.Kind.IsCollection() {
		return name + "s"
	}
	return name
}

// usageText is the description followed by choices and the default or a
// required marker.
func usageText(spec *flagspec.FlagSpec) string {
	parts := make([]string, 0, 3)
	if spec.Description != "" {
		parts = append(parts, spec.Description)
	}
	if len(spec.Choices) > 0 {
		parts = append(parts, "{"+strings.Join(spec.Choices, "|")+"}")
	}
	switch {
	case spec.Required:
		parts = append(parts, "(required)")
	case spec.DefaultText != "":
		parts = append(parts, "(default: "+spec.DefaultText+")")
	}
	return strings.Join(parts, " ")
}
