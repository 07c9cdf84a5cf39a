package engine

import "fmt"

// Result is the outcome of a Run.
type Result struct {
	// Lines holds one classified record per input line, in input order.
	Lines []Line
	// Output holds the formatted lines, in input order.
	Output []string
	// Width is the padded width before the number suffix.
	Width int
	// Activated is the index of the start marker line.
	Activated int
	// Firings lists every rule application in line order.
	Firings  []Firing
	Warnings []Warning

	rules []Rule
	fires []int
}

// FireCount returns how many times rule i fired.
func (r *Result) FireCount(i int) int {
	if i < 0 || i >= len(r.fires) {
		return 0
	}
	return r.fires[i]
}

// Rules returns the rule table the result was produced with.
func (r *Result) Rules() []Rule {
	return r.rules
}

// Numbers returns the assigned numbers in line order.
func (r *Result) Numbers() []int {
	var nums []int
	for _, l := range r.Lines {
		if l.Numbered() {
			nums = append(nums, l.Number)
		}
	}
	return nums
}

// Count returns the number of lines of kind k.
func (r *Result) Count(k Kind) int {
	n := 0
	for _, l := range r.Lines {
		if l.Kind == k {
			n++
		}
	}
	return n
}

// WarningKind classifies a rule table diagnostic.
type WarningKind int

const (
	// WarnRuleNeverFired means no line matched the rule's trigger.
	WarnRuleNeverFired WarningKind = iota
	// WarnRuleFiredRepeatedly means the rule fired on more than one line.
	WarnRuleFiredRepeatedly
	// WarnNonMonotonic means a firing left the counter at or below its
	// previous value.
	WarnNonMonotonic
)

func (k WarningKind) String() string {
	switch k {
	case WarnRuleNeverFired:
		return "never-fired"
	case WarnRuleFiredRepeatedly:
		return "fired-repeatedly"
	case WarnNonMonotonic:
		return "non-monotonic"
	}
	return fmt.Sprintf("WarningKind(%d)", int(k))
}

// Warning flags a likely drift between the rule table and the listing.
type Warning struct {
	Kind WarningKind
	Rule int
	// Line is the input index of the offending firing, or -1.
	Line    int
	Message string
}

func (w Warning) String() string {
	return w.Message
}

func diagnose(rules []Rule, fires []int, firings []Firing) []Warning {
	var warns []Warning
	for i, r := range rules {
		switch n := fires[i]; {
		case n == 0:
			warns = append(warns, Warning{
				Kind:    WarnRuleNeverFired,
				Rule:    i,
				Line:    -1,
				Message: fmt.Sprintf("%s (%s) never fired", r.Label(i), r.Trigger),
			})
		case n > 1:
			warns = append(warns, Warning{
				Kind:    WarnRuleFiredRepeatedly,
				Rule:    i,
				Line:    -1,
				Message: fmt.Sprintf("%s (%s) fired %d times", r.Label(i), r.Trigger, n),
			})
		}
	}
	for _, f := range firings {
		if f.After > f.Before {
			continue
		}
		warns = append(warns, Warning{
			Kind:    WarnNonMonotonic,
			Rule:    f.Rule,
			Line:    f.Line,
			Message: fmt.Sprintf("%s moved the counter from %d to %d at line %d", rules[f.Rule].Label(f.Rule), f.Before, f.After, f.Line+1),
		})
	}
	return warns
}
