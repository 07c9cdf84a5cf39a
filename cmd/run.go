package cmd

import (
	"fmt"
	"io"

	"github.com/rubiojr/renumber/engine"
	"github.com/rubiojr/renumber/listing"
	"github.com/rubiojr/renumber/profile"
	"github.com/rubiojr/renumber/report"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// settings is the resolved configuration for one invocation.
type settings struct {
	name     string
	cfg      engine.Config
	encoding string
}

// resolveSettings applies flag > profile file > built-in > engine default.
func resolveSettings(cmd *cli.Command) (*settings, error) {
	var p *profile.Profile
	if path := cmd.String("profile"); path != "" {
		loaded, err := profile.Load(path)
		if err != nil {
			return nil, err
		}
		p = loaded
	} else {
		name := cmd.String("builtin")
		builtin, ok := profile.Builtin(name)
		if !ok {
			return nil, fmt.Errorf("unknown built-in profile %q (have %v)", name, profile.Builtins())
		}
		p = builtin
	}

	if cmd.IsSet("start-marker") {
		p.StartMarker = cmd.String("start-marker")
	}
	if cmd.IsSet("comment-marker") {
		v := cmd.String("comment-marker")
		p.CommentMarker = &v
	}
	if cmd.IsSet("initial") {
		v := int(cmd.Int("initial"))
		p.InitialCounter = &v
	}
	if cmd.IsSet("step") {
		v := int(cmd.Int("step"))
		p.Step = &v
	}
	if cmd.IsSet("margin") {
		v := int(cmd.Int("margin"))
		p.PaddingMargin = &v
	}
	if cmd.IsSet("number-width") {
		v := int(cmd.Int("number-width"))
		p.NumberWidth = &v
	}
	if cmd.IsSet("raw-preamble") {
		p.RawPreamble = cmd.Bool("raw-preamble")
	}
	if cmd.IsSet("encoding") {
		p.Encoding = cmd.String("encoding")
	}

	cfg, err := p.Config()
	if err != nil {
		return nil, err
	}
	enc, err := listing.CanonicalName(p.Encoding)
	if err != nil {
		return nil, err
	}
	return &settings{name: p.Name, cfg: cfg, encoding: enc}, nil
}

// run carries the state shared by apply and check.
type run struct {
	settings *settings
	log      *zap.Logger
}

func newRun(cmd *cli.Command) (*run, error) {
	log := newLogger(cmd.Bool("verbose"), cmd.Root().ErrWriter)
	s, err := resolveSettings(cmd)
	if err != nil {
		return nil, err
	}
	log.Debug("resolved profile",
		zap.String("profile", s.name),
		zap.String("start_marker", s.cfg.StartMarker),
		zap.Int("initial", s.cfg.InitialCounter),
		zap.Int("step", s.cfg.Step),
		zap.Int("rules", len(s.cfg.Rules)),
		zap.String("encoding", s.encoding))
	return &run{settings: s, log: log}, nil
}

func (r *run) close() {
	_ = r.log.Sync()
}

func (r *run) renumber(input string) (*engine.Result, error) {
	lines, err := listing.Read(input, r.settings.encoding)
	if err != nil {
		return nil, err
	}
	r.log.Debug("read listing", zap.String("path", input), zap.Int("lines", len(lines)))

	res, err := engine.Renumber(r.settings.cfg, lines)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", input, err)
	}

	r.log.Debug("numbering activated", zap.Int("line", res.Activated+1))
	rules := res.Rules()
	for _, f := range res.Firings {
		r.log.Debug("rule fired",
			zap.String("rule", rules[f.Rule].Label(f.Rule)),
			zap.Int("line", f.Line+1),
			zap.Int("before", f.Before),
			zap.Int("after", f.After))
	}
	for _, w := range res.Warnings {
		r.log.Warn("rule table", zap.Stringer("kind", w.Kind), zap.String("detail", w.Message))
	}
	return res, nil
}

func (r *run) summarize(cmd *cli.Command, input string, res *engine.Result) error {
	if cmd.Bool("quiet") {
		return nil
	}
	w := cmd.Root().ErrWriter
	return report.Write(w, res, report.Options{Source: input, Color: colorFor(cmd, w)})
}

func (r *run) strictCheck(cmd *cli.Command, res *engine.Result) error {
	if !cmd.Bool("strict") || len(res.Warnings) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d warning(s), first: %s", ErrRuleWarnings, len(res.Warnings), res.Warnings[0].Message)
}

// newLogger returns a console logger on w when verbose, a no-op otherwise.
func newLogger(verbose bool, w io.Writer) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), zapcore.DebugLevel)
	return zap.New(core)
}
