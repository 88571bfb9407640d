// Package runner executes a scenario package against an LLM agent: scenario
// loading with integrity checks, prompt assembly, the multi-turn tool loop,
// tool routing, and transcript recording.
package runner

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/crisisbench/crisisbench/internal/generator"
	"github.com/crisisbench/crisisbench/internal/scenario"
)

// Scenario load failures. All of them abort the run before any model call.
var (
	ErrMissingFile  = errors.New("scenario package file missing")
	ErrHashMismatch = errors.New("scenario content hash mismatch")
)

var requiredFiles = []string{
	"manifest.json",
	"scenario.json",
	"heartbeats.json",
	"tools.json",
	"persona.md",
}

// LoadScenario reads a scenario package directory, verifies every required
// file, re-hashes heartbeats.json canonically against the manifest, and
// returns a validated package. The inverse of generator.WritePackage.
func LoadScenario(dir string) (*scenario.Package, error) {
	for _, name := range requiredFiles {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingFile, name)
		}
	}
	memDir := filepath.Join(dir, "memories")
	info, err := os.Stat(memDir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: memories/", ErrMissingFile)
	}

	var manifest scenario.ScenarioManifest
	if err := readJSON(filepath.Join(dir, "manifest.json"), &manifest); err != nil {
		return nil, err
	}
	if err := manifest.Validate(); err != nil {
		return nil, fmt.Errorf("manifest.json: %w", err)
	}

	var meta generator.ScenarioMeta
	if err := readJSON(filepath.Join(dir, "scenario.json"), &meta); err != nil {
		return nil, err
	}

	rawHeartbeats, err := os.ReadFile(filepath.Join(dir, "heartbeats.json"))
	if err != nil {
		return nil, fmt.Errorf("read heartbeats.json: %w", err)
	}
	computed, err := scenario.HashRawHeartbeats(rawHeartbeats)
	if err != nil {
		return nil, fmt.Errorf("heartbeats.json: %w", err)
	}
	if computed != manifest.ContentHash {
		return nil, fmt.Errorf("%w: manifest %s, computed %s",
			ErrHashMismatch, manifest.ContentHash, computed)
	}

	var heartbeats []scenario.HeartbeatPayload
	if err := json.Unmarshal(rawHeartbeats, &heartbeats); err != nil {
		return nil, fmt.Errorf("parse heartbeats.json: %w", err)
	}

	var tools []scenario.ToolDefinition
	if err := readJSON(filepath.Join(dir, "tools.json"), &tools); err != nil {
		return nil, err
	}

	personaBytes, err := os.ReadFile(filepath.Join(dir, "persona.md"))
	if err != nil {
		return nil, fmt.Errorf("read persona.md: %w", err)
	}

	entries, err := os.ReadDir(memDir)
	if err != nil {
		return nil, fmt.Errorf("read memories/: %w", err)
	}
	var memories []scenario.MemoryFile
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		content, err := os.ReadFile(filepath.Join(memDir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read memory %s: %w", e.Name(), err)
		}
		memories = append(memories, scenario.MemoryFile{
			Key:     strings.TrimSuffix(e.Name(), ".md"),
			Content: string(content),
		})
	}
	if len(memories) == 0 {
		return nil, fmt.Errorf("%w: memories/*.md (directory is empty)", ErrMissingFile)
	}

	pkg := &scenario.Package{
		ScenarioID:        meta.ScenarioID,
		Version:           meta.Version,
		Seed:              meta.Seed,
		CrisisType:        meta.CrisisType,
		NoiseTier:         meta.NoiseTier,
		CrisisHeartbeatID: meta.CrisisHeartbeatID,
		Person:            meta.Person,
		Contacts:          meta.Contacts,
		AgentIdentity:     meta.AgentIdentity,
		Heartbeats:        heartbeats,
		ToolDefinitions:   tools,
		MemoryFiles:       memories,
		PersonaDocument:   string(personaBytes),
		Manifest:          manifest,
	}
	if err := pkg.Validate(); err != nil {
		return nil, fmt.Errorf("scenario package invalid: %w", err)
	}
	return pkg, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}
