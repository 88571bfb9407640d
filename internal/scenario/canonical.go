package scenario

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// CanonicalJSON serializes v with sorted object keys, no insignificant
// whitespace, and no trailing newline. The content hash is computed over this
// form, so file formatting (indentation, key order) never affects integrity.
func CanonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber() // preserve numeric literals exactly across the round trip
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, err
	}
	return json.Marshal(generic) // map keys marshal sorted
}

// HashHeartbeats returns the SHA-256 hex digest of the canonical JSON
// serialization of the heartbeat list.
func HashHeartbeats(heartbeats []HeartbeatPayload) (string, error) {
	canonical, err := CanonicalJSON(heartbeats)
	if err != nil {
		return "", fmt.Errorf("canonicalize heartbeats: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// HashRawHeartbeats hashes heartbeats already held as raw JSON, e.g. the
// bytes of heartbeats.json at load time.
func HashRawHeartbeats(raw []byte) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return "", fmt.Errorf("parse heartbeats JSON: %w", err)
	}
	canonical, err := json.Marshal(generic)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
