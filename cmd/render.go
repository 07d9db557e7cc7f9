package cmd

import (
	"fmt"
	"github.com/cottand/kinfer/frontend/ilerr"
	"github.com/cottand/kinfer/frontend/scenario"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"io"
	"slices"
)

var (
	calleeColor = color.New(color.Bold)
	typeColor   = color.New(color.FgBlue)
	errorColor  = color.New(color.FgRed)
	faintColor  = color.New(color.Faint)
)

func render(w io.Writer, report scenario.Report) {
	for _, call := range report.Completed {
		_, _ = calleeColor.Fprintf(w, "%s\n", call.Callee)
		for _, v := range call.Variables {
			if !v.Fixed {
				_, _ = fmt.Fprintf(w, "  %s := %s\n", v.Param, faintColor.Sprint("(not fixed)"))
				continue
			}
			_, _ = fmt.Fprintf(w, "  %s := %s\n", v.Param, typeColor.Sprint(v.Type))
		}
		for _, err := range slices.Concat(call.Diagnostics, call.Errors) {
			_, _ = fmt.Fprintf(w, "  %s\n", errorColor.Sprint(ilerr.FormatWithCode(err)))
		}
	}
	for _, failed := range report.Failed {
		_, _ = fmt.Fprintf(w, "%s %s\n", calleeColor.Sprint(failed), errorColor.Sprint("(resolution failed)"))
	}
}

// ParseStackPrinting reads the value of --error-stacks
func ParseStackPrinting(value string) (ilerr.StackPrinting, error) {
	switch value {
	case "", "none":
		return ilerr.NoStacks, nil
	case "frame":
		return ilerr.CallerFrame, nil
	case "full":
		return ilerr.FullStack, nil
	}
	return ilerr.NoStacks, errors.Errorf("unknown --error-stacks value '%s': expected 'frame' or 'full'", value)
}
