// Package report renders a renumbering run for the terminal.
package report

import (
	"fmt"
	"io"
	"os"

	"github.com/rubiojr/renumber/engine"
	"golang.org/x/term"
)

// Options controls report rendering.
type Options struct {
	// Source names the input in the header line.
	Source string
	Color  bool
}

// ColorEnabled reports whether output on f should carry ANSI codes. The
// flag and NO_COLOR turn color off; otherwise f must be a terminal.
func ColorEnabled(noColor bool, f *os.File) bool {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	return f != nil && term.IsTerminal(int(f.Fd()))
}

func paint(on bool, code, s string) string {
	if !on {
		return s
	}
	return "\033[" + code + "m" + s + "\033[0m"
}

// Write prints the run summary to w.
func Write(w io.Writer, res *engine.Result, opts Options) error {
	bold := func(s string) string { return paint(opts.Color, "1", s) }
	yellow := func(s string) string { return paint(opts.Color, "33", s) }
	green := func(s string) string { return paint(opts.Color, "32", s) }
	gray := func(s string) string { return paint(opts.Color, "90", s) }

	ew := &errWriter{w: w}
	if opts.Source != "" {
		ew.printf("%s\n", bold("=== "+opts.Source+" ==="))
	}

	nums := res.Numbers()
	ew.printf("lines: %d (numbered %d, blank %d, comment %d, preamble %d)\n",
		len(res.Lines), len(nums), res.Count(engine.KindBlank), res.Count(engine.KindComment), res.Count(engine.KindPreamble))
	ew.printf("numbering starts at line %d\n", res.Activated+1)
	if len(nums) > 0 {
		ew.printf("numbers: %06d .. %06d\n", nums[0], nums[len(nums)-1])
	}
	ew.printf("pad width: %d\n", res.Width)

	rules := res.Rules()
	if len(rules) > 0 {
		ew.printf("\n%s\n", bold("rules"))
		for i, r := range rules {
			n := res.FireCount(i)
			mark := green("ok")
			if n != 1 {
				mark = yellow("!!")
			}
			ew.printf("  %s %-16s %-40s fired %d\n", mark, r.Label(i), r.String(), n)
		}
		if len(res.Firings) > 0 {
			ew.printf("\n%s\n", bold("firings"))
			for _, f := range res.Firings {
				ew.printf("  line %-6d %-16s %d -> %d\n", f.Line+1, rules[f.Rule].Label(f.Rule), f.Before, f.After)
			}
		}
	}

	if len(res.Warnings) == 0 {
		ew.printf("\n%s\n", green("no warnings"))
		return ew.err
	}
	ew.printf("\n%s\n", yellow(fmt.Sprintf("%d warning(s)", len(res.Warnings))))
	for _, warn := range res.Warnings {
		ew.printf("  %s %s\n", gray("["+warn.Kind.String()+"]"), warn.Message)
	}
	return ew.err
}

// errWriter keeps the first write error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
