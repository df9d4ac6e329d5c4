package guard_test

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/felixgeelhaar/pulse/pkg/domain/guard"
)

func TestFloat(t *testing.T) {
	tests := []struct {
		name     string
		in       any
		fallback float64
		want     float64
	}{
		{"nil", nil, 7, 7},
		{"int", 4, 0, 4},
		{"float", 2.5, 0, 2.5},
		{"numeric string", " 12.5 ", 0, 12.5},
		{"percent string", "40%", 0, 40},
		{"garbage string", "abc", -1, -1},
		{"empty string", "", 3, 3},
		{"nan", math.NaN(), 0, 0},
		{"inf", math.Inf(1), 9, 9},
		{"json number", json.Number("8"), 0, 8},
		{"bool", true, 1, 1},
		{"guard number", guard.Number(6), 0, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := guard.Float(tt.in, tt.fallback); got != tt.want {
				t.Errorf("Float(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestIntAndNonNegInt(t *testing.T) {
	if got := guard.Int("3.9"); got != 3 {
		t.Errorf("Int(3.9) = %d, want 3", got)
	}
	if got := guard.NonNegInt(-4); got != 0 {
		t.Errorf("NonNegInt(-4) = %d, want 0", got)
	}
	if got := guard.NonNegInt(nil); got != 0 {
		t.Errorf("NonNegInt(nil) = %d, want 0", got)
	}
}

func TestPct(t *testing.T) {
	tests := []struct {
		in   any
		want float64
	}{
		{0.7, 70},
		{1, 100},
		{70, 70},
		{45.26, 45.3},
		{150, 100},
		{-3, 0},
		{"0.455", 45.5},
		{nil, 0},
	}
	for _, tt := range tests {
		if got := guard.Pct(tt.in); got != tt.want {
			t.Errorf("Pct(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRatio(t *testing.T) {
	if got := guard.Ratio(3, 20); got != 15 {
		t.Errorf("Ratio(3,20) = %v, want 15", got)
	}
	if got := guard.Ratio(5, 0); got != 0 {
		t.Errorf("Ratio with zero denominator = %v, want 0", got)
	}
	if got := guard.Ratio(1, 3); got != 33.3 {
		t.Errorf("Ratio(1,3) = %v, want 33.3", got)
	}
}

func TestNumber_UnmarshalJSON(t *testing.T) {
	var v struct {
		A guard.Number `json:"a"`
		B guard.Number `json:"b"`
		C guard.Number `json:"c"`
		D guard.Number `json:"d"`
	}
	if err := json.Unmarshal([]byte(`{"a": 4, "b": "2.5", "c": null, "d": {"x": 1}}`), &v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.A != 4 || v.B != 2.5 || v.C != 0 || v.D != 0 {
		t.Errorf("unexpected decode: %+v", v)
	}
}

func TestDayUTC(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	in := time.Date(2026, 3, 2, 5, 30, 0, 0, loc) // 2026-03-01 20:30 UTC
	got := guard.DayUTC(in)
	want := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("DayUTC = %v, want %v", got, want)
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		in   any
		ok   bool
	}{
		{"date only", "2026-04-10", true},
		{"rfc3339", "2026-04-10T18:45:00Z", true},
		{"slashes", "2026/04/10", true},
		{"unix seconds", float64(want.Unix() + 3600), true},
		{"unix millis", float64(want.UnixMilli() + 60000), true},
		{"time value", want.Add(13 * time.Hour), true},
		{"empty", "", false},
		{"garbage", "next tuesday", false},
		{"nil", nil, false},
		{"zero", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := guard.ParseDate(tt.in)
			if ok != tt.ok {
				t.Fatalf("ParseDate(%v) ok = %v, want %v", tt.in, ok, tt.ok)
			}
			if ok && !got.Equal(want) {
				t.Errorf("ParseDate(%v) = %v, want %v", tt.in, got, want)
			}
		})
	}
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2026, 1, 1, 23, 0, 0, 0, time.UTC)
	b := time.Date(2026, 1, 8, 1, 0, 0, 0, time.UTC)
	if got := guard.DaysBetween(a, b); got != 7 {
		t.Errorf("DaysBetween = %d, want 7", got)
	}
}
