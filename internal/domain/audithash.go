package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"
)

// AuditZeroHash seeds the chain for the first event of a stream.
const AuditZeroHash = "0000000000000000000000000000000000000000000000000000000000000000"

// AuditPayloadJSON marshals an event payload deterministically and returns
// the bytes plus their sha256 hex digest. Payloads are maps of scalar
// values; encoding/json emits map keys in sorted order, which is canonical
// enough for this chain.
func AuditPayloadJSON(payload any) ([]byte, string, error) {
	if payload == nil {
		payload = map[string]any{}
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, "", err
	}
	sum := sha256.Sum256(b)
	return b, hex.EncodeToString(sum[:]), nil
}

// AuditEventHash computes the chained hash for an event whose Seq,
// PayloadHash and PrevEventHash are already assigned.
func AuditEventHash(event AuditEvent) (string, error) {
	if event.PayloadHash == "" {
		return "", errors.New("payload_hash is required")
	}
	if event.PrevEventHash == "" {
		return "", errors.New("prev_event_hash is required")
	}
	scope := map[string]any{
		"v":               AuditChainVersion,
		"stream":          event.Stream,
		"seq":             event.Seq,
		"event_type":      string(event.EventType),
		"payload_hash":    event.PayloadHash,
		"prev_event_hash": event.PrevEventHash,
		"created_at":      event.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	b, err := json.Marshal(scope)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
