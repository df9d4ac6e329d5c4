// Package wbs flattens level-tagged work-breakdown outlines into leaf
// statistics and reduces them across a portfolio.
package wbs

import (
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/pulse/pkg/domain/guard"
)

// Row is one outline node as it appears in a WBS document. Nesting is implied
// by the sequence of levels; there are no parent pointers.
type Row map[string]any

var dueAliases = []string{
	"due", "due_date", "dueDate",
	"end", "end_date", "endDate",
	"finish", "finish_date",
	"target_date", "deadline",
}

var effortHourFields = []string{
	"effort_hours", "estimate_hours", "estimated_hours",
	"hours", "work_hours", "effort", "estimate",
}

var effortSizeFields = []string{"size", "effort_size"}

var doneStatuses = map[string]bool{
	"done":      true,
	"closed":    true,
	"complete":  true,
	"completed": true,
	"cancelled": true,
	"canceled":  true,
}

var stalledStatuses = map[string]bool{
	"blocked": true,
	"on_hold": true,
	"on-hold": true,
	"on hold": true,
	"stalled": true,
	"paused":  true,
	"stuck":   true,
}

// Level returns the nesting depth, never negative.
func (r Row) Level() int {
	return guard.NonNegInt(r["level"])
}

// Status returns the normalized status, reading "status" then "state".
func (r Row) Status() string {
	for _, key := range []string{"status", "state"} {
		if s, ok := r[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.ToLower(strings.TrimSpace(s))
		}
	}
	return ""
}

// Progress returns completion in [0, 100].
func (r Row) Progress() float64 {
	p := guard.Float(r["progress"], 0)
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// ID returns a stable identifier for the row; index is its position in the document.
func (r Row) ID(index int) string {
	for _, key := range []string{"id", "wbs", "code", "key"} {
		switch v := r[key].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64, int, int64:
			return fmt.Sprint(v)
		}
	}
	return fmt.Sprintf("row-%d", index+1)
}

// Title returns the row's display name if it has one.
func (r Row) Title() string {
	for _, key := range []string{"title", "name", "task"} {
		if s, ok := r[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// Due resolves the due date from the first alias that parses.
func (r Row) Due() (time.Time, bool) {
	for _, key := range dueAliases {
		v, ok := r[key]
		if !ok {
			continue
		}
		if t, ok := guard.ParseDate(v); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// IsDone reports whether the row is finished by status or progress.
func (r Row) IsDone() bool {
	return doneStatuses[r.Status()] || r.Progress() >= 100
}

// IsStalled reports whether the row's status marks it as not moving.
func (r Row) IsStalled() bool {
	return stalledStatuses[r.Status()]
}

// HasEffort reports whether any effort evidence is present: a positive
// hour-like number or a coarse S/M/L size.
func (r Row) HasEffort() bool {
	for _, key := range effortHourFields {
		// "effort" and "estimate" sometimes carry the size enum instead of hours.
		if v, ok := r[key]; ok && (isSizeValue(v) || guard.Float(v, 0) > 0) {
			return true
		}
	}
	for _, key := range effortSizeFields {
		if isSizeValue(r[key]) {
			return true
		}
	}
	return false
}

func isSizeValue(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	switch strings.TrimSpace(s) {
	case "S", "M", "L":
		return true
	}
	return false
}

// IsLeaf reports whether rows[i] has no deeper row immediately after it.
func IsLeaf(rows []Row, i int) bool {
	if i < 0 || i >= len(rows) {
		return false
	}
	if i == len(rows)-1 {
		return true
	}
	return rows[i+1].Level() <= rows[i].Level()
}
