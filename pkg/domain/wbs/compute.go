package wbs

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/pulse/pkg/domain/guard"
)

// Horizon bounds how far ahead of today a leaf may be due and still count in
// the scoped statistics. The zero value is unbounded.
type Horizon struct {
	days    int
	bounded bool
}

// Unbounded puts every leaf with a due date in scope.
var Unbounded = Horizon{}

// WithinDays limits scope to leaves due in the past or within n days.
// A negative n is treated as zero.
func WithinDays(n int) Horizon {
	if n < 0 {
		n = 0
	}
	return Horizon{days: n, bounded: true}
}

// Days returns the horizon length and whether it is bounded.
func (h Horizon) Days() (int, bool) {
	return h.days, h.bounded
}

func (h Horizon) String() string {
	if !h.bounded {
		return "all"
	}
	return strconv.Itoa(h.days) + "d"
}

// ParseHorizon accepts "", "all", "<n>" or "<n>d". Empty and "all" are
// unbounded.
func ParseHorizon(s string) (Horizon, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "all" {
		return Unbounded, nil
	}
	n, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
	if err != nil || n < 0 {
		return Horizon{}, fmt.Errorf("invalid horizon %q", s)
	}
	return WithinDays(n), nil
}

func (h Horizon) includes(due, today time.Time) bool {
	if !h.bounded || due.Before(today) {
		return true
	}
	return !due.After(guard.AddDays(today, h.days))
}

// Computed holds leaf statistics for one document or a portfolio sum.
type Computed struct {
	TotalLeaves      int      `json:"total_leaves"`
	Done             int      `json:"done"`
	Remaining        int      `json:"remaining"`
	Overdue          int      `json:"overdue"`
	Due7             int      `json:"due_7"`
	Due14            int      `json:"due_14"`
	Due30            int      `json:"due_30"`
	Due60            int      `json:"due_60"`
	MissingEffort    int      `json:"missing_effort"`
	MissingEffortIDs []string `json:"missing_effort_ids,omitempty"`
	Stalled          int      `json:"stalled"`
	StalledIDs       []string `json:"stalled_ids,omitempty"`
}

// DueSoon returns the number of open leaves due within 14 days.
func (c Computed) DueSoon() int {
	return c.Due7 + c.Due14
}

// Add returns the field-wise sum of c and o.
func (c Computed) Add(o Computed) Computed {
	return Computed{
		TotalLeaves:      c.TotalLeaves + o.TotalLeaves,
		Done:             c.Done + o.Done,
		Remaining:        c.Remaining + o.Remaining,
		Overdue:          c.Overdue + o.Overdue,
		Due7:             c.Due7 + o.Due7,
		Due14:            c.Due14 + o.Due14,
		Due30:            c.Due30 + o.Due30,
		Due60:            c.Due60 + o.Due60,
		MissingEffort:    c.MissingEffort + o.MissingEffort,
		MissingEffortIDs: appendIDs(c.MissingEffortIDs, o.MissingEffortIDs),
		Stalled:          c.Stalled + o.Stalled,
		StalledIDs:       appendIDs(c.StalledIDs, o.StalledIDs),
	}
}

func appendIDs(a, b []string) []string {
	if len(a)+len(b) == 0 {
		return nil
	}
	out := make([]string, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

// Compute flattens rows into leaf statistics. today must already be a UTC day
// boundary shared by every call in the same run; see guard.DayUTC.
//
// Two passes run per leaf. Pressure buckets (Due7..Due60) ignore the horizon
// and always reflect near-term risk. Scoped stats (TotalLeaves, Done,
// Remaining, Overdue, MissingEffort, Stalled) honor the horizon. Leaves
// without a due date are skipped by both.
func Compute(rows []Row, today time.Time, h Horizon) Computed {
	today = guard.DayUTC(today)
	var c Computed

	for i, row := range rows {
		if !IsLeaf(rows, i) {
			continue
		}
		due, ok := row.Due()
		if !ok {
			continue
		}
		done := row.IsDone()
		overdue := !done && due.Before(today)

		if !done && !overdue {
			c.addPressure(due, today)
		}

		if !h.includes(due, today) {
			continue
		}
		c.TotalLeaves++
		if done {
			c.Done++
		} else {
			c.Remaining++
		}
		if overdue {
			c.Overdue++
		}
		if !row.HasEffort() {
			c.MissingEffort++
			c.MissingEffortIDs = append(c.MissingEffortIDs, row.ID(i))
		}
		if !done && row.IsStalled() {
			c.Stalled++
			c.StalledIDs = append(c.StalledIDs, row.ID(i))
		}
	}

	return c
}

// addPressure counts an open, not yet overdue leaf in the nearest bucket.
// Leaves due beyond 60 days land in none.
func (c *Computed) addPressure(due, today time.Time) {
	within := func(days int) bool { return !due.After(guard.AddDays(today, days)) }
	switch {
	case within(7):
		c.Due7++
	case within(14):
		c.Due14++
	case within(30):
		c.Due30++
	case within(60):
		c.Due60++
	}
}
