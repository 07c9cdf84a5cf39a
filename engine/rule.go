package engine

import (
	"fmt"
	"strings"
)

// TriggerKind selects what a rule's trigger inspects.
type TriggerKind int

const (
	// TriggerCounter matches when the running counter equals Trigger.Counter.
	TriggerCounter TriggerKind = iota
	// TriggerContains matches when the line content contains Trigger.Text.
	TriggerContains
)

func (k TriggerKind) String() string {
	switch k {
	case TriggerCounter:
		return "counter"
	case TriggerContains:
		return "contains"
	}
	return fmt.Sprintf("TriggerKind(%d)", int(k))
}

// Trigger is the predicate half of a discontinuity rule.
type Trigger struct {
	Kind    TriggerKind
	Counter int
	Text    string
}

// CounterEquals returns a trigger that fires when the counter reaches n.
func CounterEquals(n int) Trigger {
	return Trigger{Kind: TriggerCounter, Counter: n}
}

// Contains returns a trigger that fires on lines containing text.
func Contains(text string) Trigger {
	return Trigger{Kind: TriggerContains, Text: text}
}

// Matches reports whether the trigger fires for the given counter and line.
func (t Trigger) Matches(counter int, content string) bool {
	switch t.Kind {
	case TriggerCounter:
		return counter == t.Counter
	case TriggerContains:
		return t.Text != "" && strings.Contains(content, t.Text)
	}
	return false
}

func (t Trigger) String() string {
	if t.Kind == TriggerContains {
		return fmt.Sprintf("contains %q", t.Text)
	}
	return fmt.Sprintf("counter == %d", t.Counter)
}

// AdjustKind selects how a fired rule changes the counter.
type AdjustKind int

const (
	// AdjustAdd adds Value to the counter.
	AdjustAdd AdjustKind = iota
	// AdjustJump sets the counter to Value.
	AdjustJump
)

func (k AdjustKind) String() string {
	switch k {
	case AdjustAdd:
		return "add"
	case AdjustJump:
		return "jump"
	}
	return fmt.Sprintf("AdjustKind(%d)", int(k))
}

// Adjustment is the counter correction half of a discontinuity rule.
type Adjustment struct {
	Kind  AdjustKind
	Value int
}

// Add returns an adjustment that adds n to the counter.
func Add(n int) Adjustment {
	return Adjustment{Kind: AdjustAdd, Value: n}
}

// JumpTo returns an adjustment that sets the counter to n.
func JumpTo(n int) Adjustment {
	return Adjustment{Kind: AdjustJump, Value: n}
}

// Apply returns the counter after the adjustment.
func (a Adjustment) Apply(counter int) int {
	if a.Kind == AdjustJump {
		return a.Value
	}
	return counter + a.Value
}

func (a Adjustment) String() string {
	if a.Kind == AdjustJump {
		return fmt.Sprintf("jump to %d", a.Value)
	}
	return fmt.Sprintf("add %d", a.Value)
}

// Rule is one entry of the discontinuity table.
type Rule struct {
	// Name identifies the rule in reports. Optional.
	Name    string
	Trigger Trigger
	Adjust  Adjustment
}

// Label returns the rule name, or a positional label when unnamed.
func (r Rule) Label(index int) string {
	if r.Name != "" {
		return r.Name
	}
	return fmt.Sprintf("rule #%d", index+1)
}

func (r Rule) String() string {
	return fmt.Sprintf("%s -> %s", r.Trigger, r.Adjust)
}

func (r Rule) validate(index int) error {
	switch r.Trigger.Kind {
	case TriggerCounter:
	case TriggerContains:
		if r.Trigger.Text == "" {
			return fmt.Errorf("%w: %s: contains trigger needs non-empty text", ErrInvalidConfig, r.Label(index))
		}
	default:
		return fmt.Errorf("%w: %s: unknown trigger kind %v", ErrInvalidConfig, r.Label(index), r.Trigger.Kind)
	}
	switch r.Adjust.Kind {
	case AdjustAdd, AdjustJump:
	default:
		return fmt.Errorf("%w: %s: unknown adjustment kind %v", ErrInvalidConfig, r.Label(index), r.Adjust.Kind)
	}
	return nil
}

// firstMatch returns the index of the first rule that fires, or -1.
func firstMatch(rules []Rule, counter int, content string) int {
	for i, r := range rules {
		if r.Trigger.Matches(counter, content) {
			return i
		}
	}
	return -1
}
