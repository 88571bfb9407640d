package runner

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/crisisbench/crisisbench/internal/llm"
	"github.com/crisisbench/crisisbench/internal/runtime"
)

// Options tune a single run beyond the run configuration.
type Options struct {
	// MaxHeartbeats bounds the whole run for quick inspection; zero runs
	// the full scenario.
	MaxHeartbeats int
	// Model substitutes the model caller; nil builds an llm.Client from the
	// run configuration.
	Model ModelCaller
}

// RunBenchmark is the importable entry point: load and verify the scenario,
// seed a temporary per-run memory directory, drive the heartbeat loop, and
// return the completed transcript. The memory directory is discarded when
// the run ends.
func RunBenchmark(ctx context.Context, scenarioDir string, config runtime.RunConfig, opts Options) (*runtime.RunTranscript, error) {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("run config: %w", err)
	}

	pkg, err := LoadScenario(scenarioDir)
	if err != nil {
		return nil, fmt.Errorf("load scenario: %w", err)
	}

	model := opts.Model
	if model == nil {
		client, err := llm.NewClient(llm.Config{
			Model:       config.AgentModel,
			Tools:       pkg.ToolDefinitions,
			ModelParams: config.ModelParams,
		})
		if err != nil {
			return nil, err
		}
		model = client
	}

	memoryDir, err := os.MkdirTemp("", "crisisbench-memory-*")
	if err != nil {
		return nil, fmt.Errorf("create memory directory: %w", err)
	}
	defer os.RemoveAll(memoryDir)

	orchestrator, err := NewOrchestrator(pkg, config, model, memoryDir)
	if err != nil {
		return nil, err
	}
	if opts.MaxHeartbeats > 0 {
		orchestrator.SetMaxHeartbeats(opts.MaxHeartbeats)
	}

	runID := uuid.NewString()
	log.Info().
		Str("scenario_id", pkg.ScenarioID).
		Str("run_id", runID).
		Str("agent_model", config.AgentModel).
		Msg("run starting")

	return orchestrator.Run(ctx, runID)
}
