package schemacli

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/pkg/errors"
)

var errorLabel = color.New(color.FgRed, color.Bold)

// DefaultExceptionHandler prints err with any stack trace attached by
// github.com/pkg/errors and returns its exit code.
func DefaultExceptionHandler(err error) int {
	return NewExceptionHandler(os.Stderr, true)(err)
}

// MinimalExceptionHandler prints only the error message.
func MinimalExceptionHandler(err error) int {
	return NewExceptionHandler(os.Stderr, false)(err)
}

// NewExceptionHandler returns a handler writing to w. With verbose set the
// error is formatted with %+v and recovered panics include their stack.
func NewExceptionHandler(w io.Writer, verbose bool) ExceptionHandler {
	return func(err error) int {
		errorLabel.Fprint(w, "Error: ")
		if verbose {
			fmt.Fprintf(w, "%+v\n", err)
			var pe *PanicError
			if errors.As(err, &pe) && len(pe.Stack) > 0 {
				fmt.Fprintf(w, "%s\n", pe.Stack)
			}
		} else {
			fmt.Fprintln(w, err.Error())
		}
		return ExitCodeOf(err)
	}
}

// ExitCodeOf returns the code of the first *ExitError or ExitCode in err's
// chain, or ExitFailure.
func ExitCodeOf(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	var code ExitCode
	if errors.As(err, &code) {
		return int(code)
	}
	var ue *UsageError
	if errors.As(err, &ue) {
		return ExitUsage
	}
	return ExitFailure
}

// printUsageError reports a rejected invocation on w.
func printUsageError(w io.Writer, prog string, err error) {
	errorLabel.Fprint(w, "Error: ")
	fmt.Fprintln(w, err.Error())
	fmt.Fprintf(w, "Run '%s --help' for usage.\n", prog)
}
