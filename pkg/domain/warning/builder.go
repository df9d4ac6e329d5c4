package warning

import (
	"encoding/json"
	"sort"
)

// Ranked is a warning list in final priority order. It can only be produced
// by an Engine, so narration and caller-visible severity always come from the
// same list.
type Ranked struct {
	items []Warning
}

// Warnings returns a copy of the ranked list.
func (r Ranked) Warnings() []Warning {
	out := make([]Warning, len(r.items))
	copy(out, r.items)
	return out
}

// Len returns the number of warnings.
func (r Ranked) Len() int { return len(r.items) }

// Top returns the highest-ranked warning.
func (r Ranked) Top() (Warning, bool) {
	if len(r.items) == 0 {
		return Warning{}, false
	}
	return r.items[0], true
}

// Severity is the severity of the top-ranked warning, or info when empty.
func (r Ranked) Severity() Severity {
	if top, ok := r.Top(); ok {
		return top.Severity
	}
	return SeverityInfo
}

// Count returns how many warnings carry the given severity.
func (r Ranked) Count(sev Severity) int {
	n := 0
	for _, w := range r.items {
		if w.Severity == sev {
			n++
		}
	}
	return n
}

// MarshalJSON encodes the ranked list as a plain array.
func (r Ranked) MarshalJSON() ([]byte, error) {
	if r.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(r.items)
}

// Engine evaluates a rule table and ranks the results.
type Engine struct {
	rules []Rule
}

// NewEngine creates an engine over rules. With no rules it uses DefaultRules.
func NewEngine(rules ...Rule) *Engine {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Engine{rules: rules}
}

// Build evaluates every rule independently and sorts the warnings by score
// descending, then severity rank descending. Equal keys keep rule order.
func (e *Engine) Build(in Inputs) Ranked {
	var items []Warning
	for _, rule := range e.rules {
		items = append(items, rule.Evaluate(in)...)
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].Severity.Rank() > items[j].Severity.Rank()
	})
	return Ranked{items: items}
}

var defaultEngine = NewEngine()

// Build ranks the inputs with the default rule table.
func Build(in Inputs) Ranked {
	return defaultEngine.Build(in)
}
