package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/toyz/servicereg/internal/errors"
)

// ErrorReporter prints errors with their code, location, context and suggestions
type ErrorReporter struct {
	out       io.Writer
	verbose   bool
	useColors bool
}

// NewErrorReporter creates a reporter writing to out
func NewErrorReporter(out io.Writer, verbose, useColors bool) *ErrorReporter {
	return &ErrorReporter{out: out, verbose: verbose, useColors: useColors}
}

// Report prints err. Every error collected in a MultipleErrors is printed on its own.
func (r *ErrorReporter) Report(err error) {
	if err == nil {
		return
	}

	var multi *errors.MultipleErrors
	if errors.As(err, &multi) && len(multi.Errors) > 0 {
		fmt.Fprintf(r.out, "%d errors:\n\n", len(multi.Errors))
		for _, e := range multi.Errors {
			r.report(e)
		}
		return
	}
	r.report(err)
}

func (r *ErrorReporter) report(err error) {
	var svcErr errors.ServiceError
	if !errors.As(err, &svcErr) {
		r.header("Error")
		fmt.Fprintf(r.out, "%s\n\n", err)
		return
	}

	r.header(svcErr.ErrorCode().String())
	fmt.Fprintf(r.out, "%s\n", err)

	if ctx := svcErr.Context(); len(ctx) > 0 {
		keys := make([]string, 0, len(ctx))
		for key := range ctx {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Fprintf(r.out, "  %s: %v\n", formatContextKey(key), ctx[key])
		}
	}

	if suggestions := svcErr.Suggestions(); len(suggestions) > 0 {
		fmt.Fprintln(r.out, "Suggestions:")
		for i, s := range suggestions {
			fmt.Fprintf(r.out, "  %d. %s\n", i+1, s)
		}
	}

	if r.verbose {
		level := 1
		for cause := svcErr.Unwrap(); cause != nil; level++ {
			fmt.Fprintf(r.out, "  cause %d: %s\n", level, cause)
			next, ok := cause.(interface{ Unwrap() error })
			if !ok {
				break
			}
			cause = next.Unwrap()
		}
	}
	fmt.Fprintln(r.out)
}

func (r *ErrorReporter) header(title string) {
	c := color.New(color.FgRed, color.Bold)
	if r.useColors {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	c.Fprintf(r.out, "✗ %s\n", title)
}

// formatContextKey converts snake_case context keys to Title Case
func formatContextKey(key string) string {
	parts := strings.Split(key, "_")
	for i, part := range parts {
		if len(part) > 0 {
			parts[i] = strings.ToUpper(part[:1]) + part[1:]
		}
	}
	return strings.Join(parts, " ")
}
