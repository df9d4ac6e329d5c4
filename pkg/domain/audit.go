package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Audit actions recorded by pulse.
const (
	ActionInit            = "workspace.init"
	ActionReportGenerated = "report.generated"
	ActionAlertSent       = "alert.sent"
	ActionAlertFailed     = "alert.failed"
	ActionSnapshotPushed  = "snapshot.pushed"
)

// Event is one entry of the append-only audit trail. Each event carries the
// hash of its predecessor so that edits to history are detectable.
type Event struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Action    string         `json:"action"`
	Actor     string         `json:"actor"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	PrevHash  string         `json:"prev_hash,omitempty"`
	Hash      string         `json:"hash,omitempty"`
}

// CalculateHash returns the SHA-256 of the event content and its PrevHash.
// Hash itself is not part of the input.
func (e *Event) CalculateHash() string {
	h := sha256.New()
	for _, part := range []string{
		e.PrevHash,
		e.ID,
		e.Timestamp.UTC().Format(time.RFC3339Nano),
		e.Action,
		e.Actor,
		canonicalMetadata(e.Metadata),
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// canonicalMetadata relies on encoding/json emitting map keys in sorted order.
func canonicalMetadata(m map[string]any) string {
	if len(m) == 0 {
		return ""
	}
	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Sprintf("%v", m)
	}
	return string(b)
}

// Seal links e to prev and stores its hash.
func (e *Event) Seal(prevHash string) {
	e.PrevHash = prevHash
	e.Hash = e.CalculateHash()
}

// VerifyChain checks links and content hashes and returns one message per
// broken event.
func VerifyChain(events []Event) []string {
	var violations []string
	last := ""
	for i, e := range events {
		if e.PrevHash != last {
			violations = append(violations, fmt.Sprintf("event %d (%s): previous hash mismatch", i, e.ID))
		}
		if e.Hash != e.CalculateHash() {
			violations = append(violations, fmt.Sprintf("event %d (%s): content hash mismatch", i, e.ID))
		}
		last = e.Hash
	}
	return violations
}
