package runner

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/crisisbench/crisisbench/internal/llm"
	"github.com/crisisbench/crisisbench/internal/runtime"
	"github.com/crisisbench/crisisbench/internal/scenario"
)

// ModelCaller is the completion contract the orchestrator needs. Satisfied
// by llm.Client; tests substitute a scripted mock.
type ModelCaller interface {
	Complete(ctx context.Context, messages []llm.Message) (*llm.AgentResponse, error)
}

// Orchestrator drives one benchmark run: strictly sequential heartbeats,
// each an independent fresh-context model conversation with a bounded
// multi-turn tool loop. The only state crossing heartbeats is the action
// log and the on-disk memory directory.
type Orchestrator struct {
	pkg    *scenario.Package
	config runtime.RunConfig
	model  ModelCaller

	prompts   *PromptBuilder
	actionLog *ActionLog
	router    *ToolRouter
	scenData  *ScenarioDataHandler

	// Caller-imposed bound for quick inspection runs; zero means no bound.
	maxHeartbeats int
}

// NewOrchestrator wires the prompt builder, action log, and tool router.
// Handler registration order is part of the routing contract.
func NewOrchestrator(pkg *scenario.Package, config runtime.RunConfig, model ModelCaller, memoryDir string) (*Orchestrator, error) {
	config.ApplyDefaults()

	scenData := NewScenarioDataHandler(pkg)
	memory, err := NewMemoryHandler(memoryDir, pkg.MemoryFiles)
	if err != nil {
		return nil, err
	}

	router := NewToolRouter()
	router.Register("ScenarioDataHandler", scenData)
	router.Register("MemoryHandler", memory)

	return &Orchestrator{
		pkg:       pkg,
		config:    config,
		model:     model,
		prompts:   NewPromptBuilder(pkg, config.ActionLogWindow),
		actionLog: NewActionLog(config.ActionLogWindow),
		router:    router,
		scenData:  scenData,
	}, nil
}

// SetMaxHeartbeats imposes an overall heartbeat bound for inspection runs.
func (o *Orchestrator) SetMaxHeartbeats(n int) { o.maxHeartbeats = n }

// Run executes heartbeats in order until the list is exhausted or the
// post-crisis window closes. The full post-crisis window always runs — no
// early exit on agent success. Model and infrastructure errors propagate;
// retry policy belongs to the caller.
func (o *Orchestrator) Run(ctx context.Context, runID string) (*runtime.RunTranscript, error) {
	transcript := &runtime.RunTranscript{
		ScenarioID: o.pkg.ScenarioID,
		RunID:      runID,
		RunConfig:  o.config,
	}

	postCrisis := 0
	for i := range o.pkg.Heartbeats {
		hb := &o.pkg.Heartbeats[i]
		if hb.HeartbeatID > o.pkg.CrisisHeartbeatID {
			postCrisis++
			if postCrisis > o.config.MaxPostCrisisHeartbeats {
				break
			}
		}
		if o.maxHeartbeats > 0 && len(transcript.Heartbeats) >= o.maxHeartbeats {
			break
		}

		log.Info().
			Int("heartbeat_id", hb.HeartbeatID).
			Str("timestamp", hb.Timestamp).
			Msg("heartbeat")

		hbTranscript, err := o.runHeartbeat(ctx, hb, i)
		if err != nil {
			return nil, fmt.Errorf("heartbeat %d: %w", hb.HeartbeatID, err)
		}
		transcript.Heartbeats = append(transcript.Heartbeats, hbTranscript)

		if hb.HeartbeatID == o.pkg.CrisisHeartbeatID {
			log.Info().Int("heartbeat_id", hb.HeartbeatID).Msg("terminal window entered")
		}
	}

	log.Info().
		Int("total_heartbeats", len(transcript.Heartbeats)).
		Int("post_crisis_heartbeats", postCrisis).
		Msg("run complete")

	return transcript, nil
}

// runHeartbeat executes one heartbeat: a fresh [system, user] conversation
// and up to MaxToolTurns+1 model calls. No prior heartbeat's messages ever
// enter the conversation — reading one would break the benchmark's
// constant-cost and memory-only-continuity properties.
func (o *Orchestrator) runHeartbeat(ctx context.Context, hb *scenario.HeartbeatPayload, index int) (runtime.HeartbeatTranscript, error) {
	o.scenData.SetCurrentHeartbeat(hb, index)

	entries, total := o.actionLog.Window()
	userMessage, err := o.prompts.BuildUserMessage(hb, entries, total, nil)
	if err != nil {
		return runtime.HeartbeatTranscript{}, err
	}

	hbTranscript := runtime.HeartbeatTranscript{
		HeartbeatID:  hb.HeartbeatID,
		Timestamp:    hb.Timestamp,
		ScenarioHash: o.pkg.Manifest.ContentHash,
		ContextSent: runtime.ContextSent{
			SystemPromptTokens: EstimateTokens(o.prompts.SystemPrompt()),
			UserMessageTokens:  EstimateTokens(userMessage),
		},
		Turns:               []runtime.Turn{},
		MemoryOps:           []runtime.MemoryOp{},
		UserSimInteractions: []runtime.UserSimInteraction{},
	}

	messages := []llm.Message{
		{Role: "system", Content: o.prompts.SystemPrompt()},
		{Role: "user", Content: userMessage},
	}

	for turn := 0; turn <= o.config.MaxToolTurns; turn++ {
		resp, err := o.model.Complete(ctx, messages)
		if err != nil {
			return runtime.HeartbeatTranscript{}, err
		}

		if len(resp.ToolCalls) == 0 {
			hbTranscript.Turns = append(hbTranscript.Turns, runtime.Turn{
				AgentText: resp.Text,
				ToolCalls: []runtime.RecordedToolCall{},
			})
			break
		}

		// Echo the assistant message back with re-sanitized names and
		// JSON-string arguments — the model saw sanitized names and expects
		// them on later turns.
		assistant := llm.Message{Role: "assistant"}
		if resp.Text != nil {
			assistant.Content = *resp.Text
		}
		for _, tc := range resp.ToolCalls {
			argsJSON, err := json.Marshal(tc.Arguments)
			if err != nil {
				return runtime.HeartbeatTranscript{}, fmt.Errorf("re-marshal arguments for %s: %w", tc.Name, err)
			}
			assistant.ToolCalls = append(assistant.ToolCalls, llm.ToolCallPayload{
				ID:   tc.ID,
				Type: "function",
				Function: llm.FunctionCall{
					Name:      llm.SanitizeToolName(tc.Name),
					Arguments: string(argsJSON),
				},
			})
		}
		messages = append(messages, assistant)

		recorded := make([]runtime.RecordedToolCall, 0, len(resp.ToolCalls))
		for _, tc := range resp.ToolCalls {
			response, routedTo := o.router.Route(ctx, tc.Name, tc.Arguments)
			resultJSON, err := runtime.MarshalResponse(response)
			if err != nil {
				return runtime.HeartbeatTranscript{}, err
			}

			o.actionLog.Record(runtime.ActionLogEntry{
				Time:       hb.Timestamp,
				ActionType: ClassifyAction(tc.Name),
				ToolName:   tc.Name,
				Summary:    SummarizeToolCall(tc.Name, tc.Arguments),
			})
			if op, ok := memoryOpFor(tc); ok {
				hbTranscript.MemoryOps = append(hbTranscript.MemoryOps, op)
			}

			recorded = append(recorded, runtime.RecordedToolCall{
				Tool:     tc.Name,
				Args:     tc.Arguments,
				Result:   resultJSON,
				RoutedTo: routedTo,
			})
			messages = append(messages, llm.Message{
				Role:       "tool",
				ToolCallID: tc.ID,
				Content:    string(resultJSON),
			})
		}

		hbTranscript.Turns = append(hbTranscript.Turns, runtime.Turn{
			AgentText: resp.Text,
			ToolCalls: recorded,
		})
		// At the budget, the final turn's tool calls have executed; the
		// agent finds out from its action log next heartbeat.
	}

	return hbTranscript, nil
}

// memoryOpFor derives the transcript memory-op record from a memory tool
// call, if it is one.
func memoryOpFor(tc llm.ParsedToolCall) (runtime.MemoryOp, bool) {
	strPtr := func(key string) *string {
		if v, ok := tc.Arguments[key].(string); ok {
			return &v
		}
		return nil
	}
	switch tc.Name {
	case "read_memory":
		return runtime.MemoryOp{Op: "read", Key: strPtr("key")}, true
	case "write_memory":
		return runtime.MemoryOp{Op: "write", Key: strPtr("key"), Content: strPtr("content")}, true
	case "list_memories":
		return runtime.MemoryOp{Op: "list"}, true
	}
	return runtime.MemoryOp{}, false
}
