// Package ledger provides an append-only, hash-chained record of completed
// benchmark runs. Every entry links to the previous entry's hash, so any
// tampering with recorded results is detectable — the same integrity
// posture the manifest content hash gives scenario packages.
package ledger

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Store manages the run ledger in a SQLite database.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Entry is one immutable run record.
type Entry struct {
	ID             string `json:"id"`
	RecordedAt     string `json:"recorded_at"`
	ScenarioID     string `json:"scenario_id"`
	RunID          string `json:"run_id"`
	AgentModel     string `json:"agent_model"`
	ScenarioHash   string `json:"scenario_hash"`
	TranscriptHash string `json:"transcript_hash"`
	Heartbeats     int    `json:"heartbeats"`
	PrevHash       string `json:"prev_hash"`
	Hash           string `json:"hash"`
}

// Open opens (or creates) the ledger database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			recorded_at TEXT NOT NULL,
			scenario_id TEXT NOT NULL,
			run_id TEXT NOT NULL UNIQUE,
			agent_model TEXT NOT NULL,
			scenario_hash TEXT NOT NULL,
			transcript_hash TEXT NOT NULL,
			heartbeats INTEGER NOT NULL,
			prev_hash TEXT NOT NULL,
			hash TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create runs table: %w", err)
	}
	return nil
}

// Append records a completed run. This is the only write path — the ledger
// is append-only.
func (s *Store) Append(scenarioID, runID, agentModel, scenarioHash string, heartbeats int, transcriptJSON []byte) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prevHash, err := s.lastHash()
	if err != nil {
		return nil, fmt.Errorf("get last hash: %w", err)
	}

	tSum := sha256.Sum256(transcriptJSON)
	entry := &Entry{
		ID:             fmt.Sprintf("entry-%d", time.Now().UnixNano()),
		RecordedAt:     time.Now().UTC().Format(time.RFC3339),
		ScenarioID:     scenarioID,
		RunID:          runID,
		AgentModel:     agentModel,
		ScenarioHash:   scenarioHash,
		TranscriptHash: hex.EncodeToString(tSum[:]),
		Heartbeats:     heartbeats,
		PrevHash:       prevHash,
	}
	entry.Hash = entryHash(entry)

	_, err = s.db.Exec(`
		INSERT INTO runs (id, recorded_at, scenario_id, run_id, agent_model,
			scenario_hash, transcript_hash, heartbeats, prev_hash, hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.RecordedAt, entry.ScenarioID, entry.RunID, entry.AgentModel,
		entry.ScenarioHash, entry.TranscriptHash, entry.Heartbeats, entry.PrevHash, entry.Hash,
	)
	if err != nil {
		return nil, fmt.Errorf("insert run entry: %w", err)
	}
	return entry, nil
}

// Verify walks the chain and reports the first broken link, if any.
func (s *Store) Verify() error {
	rows, err := s.db.Query(`
		SELECT id, recorded_at, scenario_id, run_id, agent_model,
			scenario_hash, transcript_hash, heartbeats, prev_hash, hash
		FROM runs ORDER BY rowid`)
	if err != nil {
		return fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	prev := ""
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.RecordedAt, &e.ScenarioID, &e.RunID, &e.AgentModel,
			&e.ScenarioHash, &e.TranscriptHash, &e.Heartbeats, &e.PrevHash, &e.Hash); err != nil {
			return err
		}
		if e.PrevHash != prev {
			return fmt.Errorf("entry %s: broken chain (prev_hash %s, expected %s)", e.ID, e.PrevHash, prev)
		}
		if entryHash(&e) != e.Hash {
			return fmt.Errorf("entry %s: hash mismatch", e.ID)
		}
		prev = e.Hash
	}
	return rows.Err()
}

func (s *Store) lastHash() (string, error) {
	var hash string
	err := s.db.QueryRow(`SELECT hash FROM runs ORDER BY rowid DESC LIMIT 1`).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return hash, nil
}

func entryHash(e *Entry) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%s|%s|%s|%s|%d|%s",
		e.ID, e.RecordedAt, e.ScenarioID, e.RunID, e.AgentModel,
		e.ScenarioHash, e.TranscriptHash, e.Heartbeats, e.PrevHash)
	return hex.EncodeToString(h.Sum(nil))
}
