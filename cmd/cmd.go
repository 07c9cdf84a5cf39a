package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rubiojr/renumber/listing"
	"github.com/rubiojr/renumber/profile"
	"github.com/rubiojr/renumber/report"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// ErrRuleWarnings is returned in strict mode when the rule table drifted.
var ErrRuleWarnings = errors.New("rule table warnings")

// Execute runs the renumber CLI with the given version string.
func Execute(version string) {
	app := newApp(version, os.Stdout, os.Stderr)
	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp(version string, stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:                   "renumber",
		Usage:                  "Restore original line numbers onto an annotated listing",
		Version:                version,
		UseShortOptionHandling: true,
		Writer:                 stdout,
		ErrWriter:              stderr,
		Flags:                  globalFlags(),
		// Allow `renumber listing.mad` as shorthand for `renumber apply listing.mad`
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() > 0 {
				return applyAction(ctx, cmd)
			}
			return cli.DefaultShowRootCommandHelp(cmd)
		},
		Commands: []*cli.Command{
			{
				Name:      "apply",
				Usage:     "Renumber a listing and write the result",
				ArgsUsage: "<listing>",
				Action:    applyAction,
			},
			{
				Name:      "check",
				Usage:     "Run the rule table against a listing without writing output",
				ArgsUsage: "<listing>",
				Action:    checkAction,
			},
			{
				Name:  "profile",
				Usage: "Print the effective profile as YAML",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "list",
						Usage: "List built-in profiles",
					},
				},
				Action: profileAction,
			},
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "profile",
			Aliases: []string{"p"},
			Usage:   "YAML profile file",
		},
		&cli.StringFlag{
			Name:    "builtin",
			Aliases: []string{"b"},
			Usage:   "Built-in profile used when --profile is not given",
			Value:   profile.DefaultBuiltin,
		},
		&cli.StringFlag{
			Name:  "start-marker",
			Usage: "Substring marking the first numbered line",
		},
		&cli.StringFlag{
			Name:  "comment-marker",
			Usage: "Prefix of unnumbered comment lines",
		},
		&cli.IntFlag{
			Name:  "initial",
			Usage: "Number given to the start marker line",
		},
		&cli.IntFlag{
			Name:  "step",
			Usage: "Increment between numbered lines",
		},
		&cli.IntFlag{
			Name:  "margin",
			Usage: "Spaces added to the longest line to get the pad width",
		},
		&cli.IntFlag{
			Name:  "number-width",
			Usage: "Zero-padded width of line numbers",
		},
		&cli.BoolFlag{
			Name:  "raw-preamble",
			Usage: "Leave lines before the start marker unpadded",
		},
		&cli.StringFlag{
			Name:    "encoding",
			Aliases: []string{"e"},
			Usage:   "Text encoding of input and output",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output file (default: stdout)",
		},
		&cli.BoolFlag{
			Name:  "strict",
			Usage: "Fail on rule table warnings",
		},
		&cli.BoolFlag{
			Name:    "quiet",
			Aliases: []string{"q"},
			Usage:   "Do not print the summary",
		},
		&cli.BoolFlag{
			Name:    "no-color",
			Aliases: []string{"C"},
			Usage:   "Disable ANSI color output",
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "Trace profile resolution and rule firings",
		},
	}
}

func applyAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() < 1 {
		return fmt.Errorf("usage: renumber apply [-o output] <listing>")
	}
	input := cmd.Args().First()
	output := cmd.String("output")
	if output != "" && listing.SamePath(input, output) {
		return fmt.Errorf("refusing to overwrite input listing %s", input)
	}

	r, err := newRun(cmd)
	if err != nil {
		return err
	}
	defer r.close()

	res, err := r.renumber(input)
	if err != nil {
		return err
	}
	if err := r.summarize(cmd, input, res); err != nil {
		return err
	}
	if err := r.strictCheck(cmd, res); err != nil {
		return err
	}

	if output == "" {
		return listing.WriteTo(cmd.Root().Writer, res.Output, r.settings.encoding)
	}
	if err := listing.Write(output, res.Output, r.settings.encoding); err != nil {
		return err
	}
	r.log.Info("wrote listing", zap.String("path", output), zap.Int("lines", len(res.Output)))
	return nil
}

func checkAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() < 1 {
		return fmt.Errorf("usage: renumber check <listing>")
	}
	input := cmd.Args().First()

	r, err := newRun(cmd)
	if err != nil {
		return err
	}
	defer r.close()

	res, err := r.renumber(input)
	if err != nil {
		return err
	}
	if err := r.summarize(cmd, input, res); err != nil {
		return err
	}
	return r.strictCheck(cmd, res)
}

func profileAction(ctx context.Context, cmd *cli.Command) error {
	out := cmd.Root().Writer
	if cmd.Bool("list") {
		for _, name := range profile.Builtins() {
			fmt.Fprintln(out, name)
		}
		return nil
	}

	s, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	data, err := profile.FromConfig(s.name, s.cfg, s.encoding).Marshal()
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}

func colorFor(cmd *cli.Command, w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return report.ColorEnabled(cmd.Bool("no-color"), f)
}
