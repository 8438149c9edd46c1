// Package schemacli builds command-line programs from annotated structs.
//
// Each exported field of a schema struct becomes a flag. Values are taken
// from the command line first, then from an optional JSON preset file, then
// from the field's default tag; a field with no default is required unless
// one of the other two sources supplies it.
//
//	type Options struct {
//		InputFile  string `cli:"-i,--input" help:"Input file"`
//		MaxRecords int    `cli:"-m" default:"10"`
//		DryRun     bool   `default:"false"`
//	}
//
//	func (o *Options) Run(ctx context.Context) error { ... }
//
//	func main() {
//		cmd := schemacli.MustCommand[Options]("Process records", schemacli.Config{JSONEnable: true})
//		r, err := schemacli.NewRunner(cmd, schemacli.Options{Version: "1.0.0"})
//		if err != nil {
//			log.Fatal(err)
//		}
//		schemacli.RunAndExit(r)
//	}
//
// Struct tags:
//
//	json:"name"        field name (default: snake_case of the Go name); "-" skips
//	cli:"-m,--max"     flag spellings; booleans take a (set-true, set-false) pair
//	default:"10"       default value; lists are comma separated
//	choices:"a,b"      allowed values of a string field
//	help:"..."         help text
//	validate:"gte=1"   go-playground/validator constraints
package schemacli
