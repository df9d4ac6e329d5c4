package domain_test

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/pulse/pkg/domain"
)

func TestEventCalculateHashDeterminism(t *testing.T) {
	event := &domain.Event{
		ID:        "e1",
		Action:    domain.ActionReportGenerated,
		Actor:     "cli",
		Timestamp: time.Date(2026, time.May, 10, 12, 0, 0, 0, time.UTC),
		Metadata:  map[string]any{"b": 2, "a": "x"},
		PrevHash:  "prev",
	}

	first := event.CalculateHash()
	if first != event.CalculateHash() {
		t.Fatal("expected deterministic hash")
	}

	event.Metadata = map[string]any{"a": "x", "b": 2}
	if first != event.CalculateHash() {
		t.Fatal("metadata key order must not change the hash")
	}

	event.ID = "e2"
	if first == event.CalculateHash() {
		t.Fatal("hash should change when ID changes")
	}
}

func TestVerifyChain(t *testing.T) {
	ts := time.Date(2026, time.May, 10, 12, 0, 0, 0, time.UTC)
	first := domain.Event{ID: "e1", Timestamp: ts, Action: domain.ActionInit, Actor: "cli"}
	first.Seal("")
	second := domain.Event{ID: "e2", Timestamp: ts.Add(time.Minute), Action: domain.ActionReportGenerated, Actor: "cli"}
	second.Seal(first.Hash)

	if v := domain.VerifyChain([]domain.Event{first, second}); len(v) != 0 {
		t.Fatalf("expected intact chain, got %v", v)
	}

	tampered := second
	tampered.Action = domain.ActionAlertSent
	if v := domain.VerifyChain([]domain.Event{first, tampered}); len(v) != 1 {
		t.Errorf("expected one content violation, got %v", v)
	}

	if v := domain.VerifyChain([]domain.Event{second}); len(v) != 1 {
		t.Errorf("expected one link violation, got %v", v)
	}
}
