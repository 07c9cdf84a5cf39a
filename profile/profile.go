// Package profile loads renumbering profiles: the engine options and the
// discontinuity table for one listing, stored as YAML.
package profile

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rubiojr/renumber/engine"
	"gopkg.in/yaml.v3"
)

// Profile is the YAML form of an engine configuration.
type Profile struct {
	Name           string     `yaml:"name,omitempty"`
	Description    string     `yaml:"description,omitempty"`
	StartMarker    string     `yaml:"start_marker"`
	CommentMarker  *string    `yaml:"comment_marker,omitempty"`
	InitialCounter *int       `yaml:"initial_counter,omitempty"`
	Step           *int       `yaml:"step,omitempty"`
	PaddingMargin  *int       `yaml:"padding_margin,omitempty"`
	NumberWidth    *int       `yaml:"number_width,omitempty"`
	RawPreamble    bool       `yaml:"raw_preamble,omitempty"`
	Encoding       string     `yaml:"encoding,omitempty"`
	Rules          []RuleSpec `yaml:"rules,omitempty"`
}

// RuleSpec is one discontinuity rule. Exactly one trigger and exactly one
// adjustment must be set.
type RuleSpec struct {
	Name string `yaml:"name,omitempty"`
	When When   `yaml:"when"`
	Add  *int   `yaml:"add,omitempty"`
	Jump *int   `yaml:"jump,omitempty"`
}

// When selects the trigger kind of a rule.
type When struct {
	Counter  *int   `yaml:"counter,omitempty"`
	Contains string `yaml:"contains,omitempty"`
}

func (r RuleSpec) label(i int) string {
	if r.Name != "" {
		return fmt.Sprintf("rule #%d (%s)", i+1, r.Name)
	}
	return fmt.Sprintf("rule #%d", i+1)
}

// Validate checks the shape of every rule.
func (p *Profile) Validate() error {
	for i, r := range p.Rules {
		switch {
		case r.When.Counter != nil && r.When.Contains != "":
			return fmt.Errorf("profile: %s: when.counter and when.contains are mutually exclusive", r.label(i))
		case r.When.Counter == nil && r.When.Contains == "":
			return fmt.Errorf("profile: %s: when needs counter or contains", r.label(i))
		}
		switch {
		case r.Add != nil && r.Jump != nil:
			return fmt.Errorf("profile: %s: add and jump are mutually exclusive", r.label(i))
		case r.Add == nil && r.Jump == nil:
			return fmt.Errorf("profile: %s: needs add or jump", r.label(i))
		}
	}
	return nil
}

// Config converts the profile into an engine configuration. Omitted options
// take engine.DefaultConfig values.
func (p *Profile) Config() (engine.Config, error) {
	if err := p.Validate(); err != nil {
		return engine.Config{}, err
	}
	cfg := engine.DefaultConfig()
	cfg.StartMarker = p.StartMarker
	if p.CommentMarker != nil {
		cfg.CommentMarker = *p.CommentMarker
	}
	if p.InitialCounter != nil {
		cfg.InitialCounter = *p.InitialCounter
	}
	if p.Step != nil {
		cfg.Step = *p.Step
	}
	if p.PaddingMargin != nil {
		cfg.PaddingMargin = *p.PaddingMargin
	}
	if p.NumberWidth != nil {
		cfg.NumberWidth = *p.NumberWidth
	}
	cfg.RawPreamble = p.RawPreamble

	for _, r := range p.Rules {
		rule := engine.Rule{Name: r.Name}
		if r.When.Counter != nil {
			rule.Trigger = engine.CounterEquals(*r.When.Counter)
		} else {
			rule.Trigger = engine.Contains(r.When.Contains)
		}
		if r.Add != nil {
			rule.Adjust = engine.Add(*r.Add)
		} else {
			rule.Adjust = engine.JumpTo(*r.Jump)
		}
		cfg.Rules = append(cfg.Rules, rule)
	}

	if err := cfg.Validate(); err != nil {
		return engine.Config{}, fmt.Errorf("profile: %w", err)
	}
	return cfg, nil
}

// FromConfig builds a fully populated profile from an engine configuration.
func FromConfig(name string, cfg engine.Config, encoding string) *Profile {
	p := &Profile{
		Name:           name,
		StartMarker:    cfg.StartMarker,
		CommentMarker:  &cfg.CommentMarker,
		InitialCounter: &cfg.InitialCounter,
		Step:           &cfg.Step,
		PaddingMargin:  &cfg.PaddingMargin,
		NumberWidth:    &cfg.NumberWidth,
		RawPreamble:    cfg.RawPreamble,
		Encoding:       encoding,
	}
	for _, r := range cfg.Rules {
		rs := RuleSpec{Name: r.Name}
		switch r.Trigger.Kind {
		case engine.TriggerCounter:
			n := r.Trigger.Counter
			rs.When.Counter = &n
		case engine.TriggerContains:
			rs.When.Contains = r.Trigger.Text
		}
		v := r.Adjust.Value
		if r.Adjust.Kind == engine.AdjustJump {
			rs.Jump = &v
		} else {
			rs.Add = &v
		}
		p.Rules = append(p.Rules, rs)
	}
	return p
}

// Marshal encodes the profile as YAML.
func (p *Profile) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return nil, fmt.Errorf("profile: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("profile: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// Parse decodes and validates a YAML profile.
func Parse(data []byte) (*Profile, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("profile: payload is empty")
	}
	var p Profile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("profile: decode: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Load reads a YAML profile from disk.
func Load(path string) (*Profile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("profile: stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("profile: %s is a directory", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("profile: read %s: %w", path, err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Clean(path), err)
	}
	if p.Name == "" {
		p.Name = filepath.Base(path)
	}
	return p, nil
}
