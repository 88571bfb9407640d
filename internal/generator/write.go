package generator

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/crisisbench/crisisbench/internal/scenario"
)

// ScenarioMeta is scenario.json: the package minus heartbeats, tool
// definitions, memory files, and the persona document — each of those gets
// its own file.
type ScenarioMeta struct {
	ScenarioID        string                    `json:"scenario_id"`
	Version           string                    `json:"version"`
	Seed              int64                     `json:"seed"`
	CrisisType        string                    `json:"crisis_type"`
	NoiseTier         scenario.NoiseTier        `json:"noise_tier"`
	CrisisHeartbeatID int                       `json:"crisis_heartbeat_id"`
	Person            scenario.PersonProfile    `json:"person"`
	Contacts          []scenario.Contact        `json:"contacts"`
	AgentIdentity     scenario.AgentIdentity    `json:"agent_identity"`
	Manifest          scenario.ScenarioManifest `json:"manifest"`
}

// WritePackage writes a scenario package into dir/<scenario_id>/ and returns
// the package directory path. All files are UTF-8; JSON files are
// two-space indented with a trailing newline. The content hash stays valid
// regardless of formatting — it is computed over the canonical form.
func WritePackage(pkg *scenario.Package, dir string) (string, error) {
	out := filepath.Join(dir, pkg.ScenarioID)
	if err := os.MkdirAll(out, 0o755); err != nil {
		return "", fmt.Errorf("create scenario directory: %w", err)
	}

	meta := ScenarioMeta{
		ScenarioID:        pkg.ScenarioID,
		Version:           pkg.Version,
		Seed:              pkg.Seed,
		CrisisType:        pkg.CrisisType,
		NoiseTier:         pkg.NoiseTier,
		CrisisHeartbeatID: pkg.CrisisHeartbeatID,
		Person:            pkg.Person,
		Contacts:          pkg.Contacts,
		AgentIdentity:     pkg.AgentIdentity,
		Manifest:          pkg.Manifest,
	}

	if err := writeJSON(filepath.Join(out, "manifest.json"), pkg.Manifest); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(out, "scenario.json"), meta); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(out, "heartbeats.json"), pkg.Heartbeats); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(out, "tools.json"), pkg.ToolDefinitions); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(out, "persona.md"), []byte(pkg.PersonaDocument), 0o644); err != nil {
		return "", fmt.Errorf("write persona.md: %w", err)
	}

	memDir := filepath.Join(out, "memories")
	if err := os.MkdirAll(memDir, 0o755); err != nil {
		return "", fmt.Errorf("create memories directory: %w", err)
	}
	for _, mf := range pkg.MemoryFiles {
		path := filepath.Join(memDir, mf.Key+".md")
		if err := os.WriteFile(path, []byte(mf.Content), 0o644); err != nil {
			return "", fmt.Errorf("write memory %s: %w", mf.Key, err)
		}
	}
	return out, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
