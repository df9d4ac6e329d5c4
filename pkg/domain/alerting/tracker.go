// Package alerting tracks the alert level of every insight across report
// refreshes so that notifications fire on changes, not on every run.
package alerting

import (
	"fmt"
	"sort"
	"sync"

	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/pulse/pkg/domain/insight"
	"github.com/felixgeelhaar/pulse/pkg/domain/warning"
)

// Alert states.
const (
	StateOK    = "ok"
	StateWatch = "watch"
	StateAlert = "alert"
)

// Events accepted by the alert machine.
const (
	EventEscalate = "escalate"
	EventWarn     = "warn"
	EventRecover  = "recover"
)

// EventFor maps an insight severity to the machine event it triggers.
func EventFor(sev warning.Severity) string {
	switch sev {
	case warning.SeverityHigh:
		return EventEscalate
	case warning.SeverityMedium:
		return EventWarn
	default:
		return EventRecover
	}
}

type alertContext struct {
	InsightID string
}

// Machine is the alert state of one insight.
type Machine struct {
	interpreter *statekit.Interpreter[alertContext]
}

// NewMachine builds an alert machine starting in initial.
func NewMachine(insightID, initial string) (*Machine, error) {
	builder := statekit.NewMachine[alertContext]("alert-" + insightID).
		WithInitial(statekit.StateID(initial)).
		WithContext(alertContext{InsightID: insightID})

	builder.State(StateOK).
		On(EventWarn).Target(StateWatch).
		On(EventEscalate).Target(StateAlert).
		Done()

	builder.State(StateWatch).
		On(EventEscalate).Target(StateAlert).
		On(EventRecover).Target(StateOK).
		Done()

	builder.State(StateAlert).
		On(EventWarn).Target(StateWatch).
		On(EventRecover).Target(StateOK).
		Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build alert machine: %w", err)
	}
	interpreter := statekit.NewInterpreter(machine)
	interpreter.Start()
	return &Machine{interpreter: interpreter}, nil
}

// Send feeds an event and reports whether the state changed.
func (m *Machine) Send(event string) bool {
	before := m.Current()
	m.interpreter.Send(statekit.Event{Type: statekit.EventType(event)})
	return m.Current() != before
}

// Current returns the machine state.
func (m *Machine) Current() string {
	return string(m.interpreter.State().Value)
}

// Transition is one state change produced by Observe.
type Transition struct {
	InsightID string          `json:"insight_id"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	Insight   insight.Insight `json:"insight"`
}

// Escalated reports whether the transition raised the alert level.
func (t Transition) Escalated() bool {
	return level(t.To) > level(t.From)
}

func level(state string) int {
	switch state {
	case StateAlert:
		return 2
	case StateWatch:
		return 1
	default:
		return 0
	}
}

// Tracker keeps one machine per insight id. It is safe for concurrent use.
type Tracker struct {
	mu       sync.Mutex
	machines map[string]*Machine
	last     map[string]insight.Insight
}

// NewTracker creates an empty tracker; every insight starts in StateOK.
func NewTracker() *Tracker {
	return &Tracker{
		machines: make(map[string]*Machine),
		last:     make(map[string]insight.Insight),
	}
}

// Observe feeds the latest insight list and returns the state changes in
// insight id order. Insights missing from the list recover.
func (t *Tracker) Observe(list []insight.Insight) ([]Transition, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	seen := make(map[string]bool, len(list))
	var out []Transition
	for _, in := range list {
		seen[in.ID] = true
		t.last[in.ID] = in
		tr, err := t.send(in.ID, EventFor(in.Severity), in)
		if err != nil {
			return nil, err
		}
		if tr != nil {
			out = append(out, *tr)
		}
	}
	for id := range t.machines {
		if seen[id] {
			continue
		}
		tr, err := t.send(id, EventRecover, t.last[id])
		if err != nil {
			return nil, err
		}
		if tr != nil {
			out = append(out, *tr)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].InsightID < out[j].InsightID })
	return out, nil
}

func (t *Tracker) send(id, event string, in insight.Insight) (*Transition, error) {
	m, ok := t.machines[id]
	if !ok {
		var err error
		m, err = NewMachine(id, StateOK)
		if err != nil {
			return nil, err
		}
		t.machines[id] = m
	}
	from := m.Current()
	if !m.Send(event) {
		return nil, nil
	}
	return &Transition{InsightID: id, From: from, To: m.Current(), Insight: in}, nil
}

// State returns the current state for an insight id.
func (t *Tracker) State(id string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if m, ok := t.machines[id]; ok {
		return m.Current()
	}
	return StateOK
}
