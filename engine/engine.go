// Package engine restores the sequential line numbers of a legacy listing.
//
// The engine makes a single forward pass over the lines of an annotated copy.
// Lines before the start marker are preamble and are never numbered. From the
// start marker on, blank and comment lines are kept unnumbered and every
// other line gets the running counter as a zero-padded suffix. An ordered
// table of discontinuity rules corrects the counter where the original
// listing skipped numbers.
package engine

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"
)

var (
	// ErrEmptyInput is returned when there are no lines to renumber.
	ErrEmptyInput = errors.New("empty input")
	// ErrStartMarkerNotFound is returned when no line contains the start
	// marker, so numbering never activates.
	ErrStartMarkerNotFound = errors.New("start marker not found")
	// ErrInvalidConfig wraps every configuration validation failure.
	ErrInvalidConfig = errors.New("invalid config")
)

// Config holds the engine options and the discontinuity table.
type Config struct {
	// StartMarker is the substring marking the first numberable line.
	StartMarker string
	// CommentMarker is the prefix of comment lines, checked after leading
	// spaces and tabs.
	CommentMarker string
	// InitialCounter is the number given to the start marker line unless a
	// rule adjusts it first.
	InitialCounter int
	// Step is added to the counter after each numbered line.
	Step int
	// PaddingMargin is added to the longest line length to get the pad width.
	PaddingMargin int
	// NumberWidth is the zero-padded width of the number suffix.
	NumberWidth int
	// RawPreamble emits preamble lines without padding.
	RawPreamble bool
	// Rules is evaluated in order; the first match fires.
	Rules []Rule
}

// DefaultConfig returns the stock options. StartMarker is left empty and
// must be set by the caller.
func DefaultConfig() Config {
	return Config{
		CommentMarker:  ";",
		InitialCounter: 80,
		Step:           10,
		PaddingMargin:  4,
		NumberWidth:    6,
	}
}

// Validate checks the options and every rule.
func (c Config) Validate() error {
	if c.StartMarker == "" {
		return fmt.Errorf("%w: start marker is empty", ErrInvalidConfig)
	}
	if c.Step <= 0 {
		return fmt.Errorf("%w: step must be positive, got %d", ErrInvalidConfig, c.Step)
	}
	if c.PaddingMargin < 0 {
		return fmt.Errorf("%w: padding margin must not be negative, got %d", ErrInvalidConfig, c.PaddingMargin)
	}
	if c.NumberWidth <= 0 {
		return fmt.Errorf("%w: number width must be positive, got %d", ErrInvalidConfig, c.NumberWidth)
	}
	seen := make(map[string]int)
	for i, r := range c.Rules {
		if err := r.validate(i); err != nil {
			return err
		}
		if r.Name == "" {
			continue
		}
		if prev, ok := seen[r.Name]; ok {
			return fmt.Errorf("%w: rule name %q used by rules #%d and #%d", ErrInvalidConfig, r.Name, prev+1, i+1)
		}
		seen[r.Name] = i
	}
	return nil
}

// Kind classifies an emitted line.
type Kind int

const (
	// KindPreamble is a line before the start marker.
	KindPreamble Kind = iota
	// KindBlank is an empty or whitespace-only line after activation.
	KindBlank
	// KindComment is a comment-prefixed line after activation.
	KindComment
	// KindNumbered is a line that received a number.
	KindNumbered
)

func (k Kind) String() string {
	switch k {
	case KindPreamble:
		return "preamble"
	case KindBlank:
		return "blank"
	case KindComment:
		return "comment"
	case KindNumbered:
		return "numbered"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// State is the counter threaded through Step.
type State struct {
	Counter int
	Active  bool
}

// Firing records one rule application.
type Firing struct {
	Rule   int
	Line   int
	Before int
	After  int
}

// Line is one processed input line.
type Line struct {
	Index   int
	Content string
	Kind    Kind
	// Number is only meaningful when Kind is KindNumbered.
	Number int
	// Fired is set when a rule adjusted the counter on this line.
	Fired *Firing
}

// Numbered reports whether the line carries a number.
func (l Line) Numbered() bool {
	return l.Kind == KindNumbered
}

// Engine renumbers listings under a fixed Config.
type Engine struct {
	cfg Config
}

// New validates cfg and returns an engine for it.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Rules = slices.Clone(cfg.Rules)
	return &Engine{cfg: cfg}, nil
}

// Config returns a copy of the engine's configuration.
func (e *Engine) Config() Config {
	cfg := e.cfg
	cfg.Rules = slices.Clone(e.cfg.Rules)
	return cfg
}

// Start returns the state before the first line.
func (e *Engine) Start() State {
	return State{Counter: e.cfg.InitialCounter}
}

// Classify returns the kind an active line would get.
func (e *Engine) Classify(content string) Kind {
	if strings.TrimSpace(content) == "" {
		return KindBlank
	}
	if e.cfg.CommentMarker != "" && strings.HasPrefix(strings.TrimLeft(content, " \t"), e.cfg.CommentMarker) {
		return KindComment
	}
	return KindNumbered
}

// Step processes a single line and returns the next state.
func (e *Engine) Step(st State, index int, content string) (State, Line) {
	line := Line{Index: index, Content: content, Kind: KindPreamble}
	if !st.Active {
		if !strings.Contains(content, e.cfg.StartMarker) {
			return st, line
		}
		st.Active = true
	}

	if r := firstMatch(e.cfg.Rules, st.Counter, content); r >= 0 {
		after := e.cfg.Rules[r].Adjust.Apply(st.Counter)
		line.Fired = &Firing{Rule: r, Line: index, Before: st.Counter, After: after}
		st.Counter = after
	}

	line.Kind = e.Classify(content)
	if line.Kind == KindNumbered {
		line.Number = st.Counter
		st.Counter += e.cfg.Step
	}
	return st, line
}

// Format renders a processed line padded to width.
func (e *Engine) Format(l Line, width int) string {
	if l.Kind == KindPreamble && e.cfg.RawPreamble {
		return l.Content
	}
	padded := pad(l.Content, width)
	if l.Kind != KindNumbered {
		return padded
	}
	return padded + fmt.Sprintf("%0*d", e.cfg.NumberWidth, l.Number)
}

// TargetWidth returns the longest line length, in runes, plus margin.
func TargetWidth(lines []string, margin int) int {
	longest := 0
	for _, l := range lines {
		longest = max(longest, utf8.RuneCountInString(l))
	}
	return longest + margin
}

func pad(s string, width int) string {
	n := width - utf8.RuneCountInString(s)
	if n <= 0 {
		return s
	}
	return s + strings.Repeat(" ", n)
}

// Run renumbers lines in one pass.
func (e *Engine) Run(lines []string) (*Result, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyInput
	}

	res := &Result{
		Lines:     make([]Line, 0, len(lines)),
		Output:    make([]string, 0, len(lines)),
		Width:     TargetWidth(lines, e.cfg.PaddingMargin),
		Activated: -1,
		rules:     e.cfg.Rules,
		fires:     make([]int, len(e.cfg.Rules)),
	}

	st := e.Start()
	for i, content := range lines {
		var line Line
		st, line = e.Step(st, i, content)
		if res.Activated < 0 && line.Kind != KindPreamble {
			res.Activated = i
		}
		if line.Fired != nil {
			res.fires[line.Fired.Rule]++
			res.Firings = append(res.Firings, *line.Fired)
		}
		res.Lines = append(res.Lines, line)
		res.Output = append(res.Output, e.Format(line, res.Width))
	}

	if res.Activated < 0 {
		return nil, fmt.Errorf("%w: %q", ErrStartMarkerNotFound, e.cfg.StartMarker)
	}
	res.Warnings = diagnose(e.cfg.Rules, res.fires, res.Firings)
	return res, nil
}

// Renumber builds an engine for cfg and runs it over lines.
func Renumber(cfg Config, lines []string) (*Result, error) {
	e, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return e.Run(lines)
}
