package runner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crisisbench/crisisbench/internal/llm"
	"github.com/crisisbench/crisisbench/internal/runtime"
)

func baseConfig() runtime.RunConfig {
	return runtime.RunConfig{
		AgentModel:   "openai/test-model",
		UserSimModel: "openai/test-model",
		JudgeModel:   "openai/test-model",
	}
}

func TestFreshContextInvariant(t *testing.T) {
	model := &scriptedModel{}
	o := newTestOrchestrator(t, model, baseConfig())

	_, err := o.Run(context.Background(), "run-1")
	require.NoError(t, err)

	// One model call per heartbeat (no tool calls scripted); each must open
	// with exactly [system, user] — no prior heartbeat leaks in.
	require.Len(t, model.calls, 4)
	for i, messages := range model.calls {
		require.Len(t, messages, 2, "heartbeat %d first call", i)
		assert.Equal(t, "system", messages[0].Role)
		assert.Equal(t, "user", messages[1].Role)
	}
}

func TestToolBudgetCap(t *testing.T) {
	cfg := baseConfig()
	cfg.MaxToolTurns = 2

	model := &alwaysToolModel{toolName: "query_wearable"}
	o := newTestOrchestrator(t, model, cfg)
	o.SetMaxHeartbeats(1)

	transcript, err := o.Run(context.Background(), "run-1")
	require.NoError(t, err)

	// Turns 0, 1, 2 — exactly three model calls, never a fourth.
	assert.Len(t, model.calls, 3)

	require.Len(t, transcript.Heartbeats, 1)
	hb := transcript.Heartbeats[0]
	require.Len(t, hb.Turns, 3)
	// The final turn's tool calls still executed and were recorded.
	assert.Len(t, hb.Turns[2].ToolCalls, 1)
	assert.Equal(t, "query_wearable", hb.Turns[2].ToolCalls[0].Tool)

	// The conversation grows by assistant+tool messages each turn.
	assert.Len(t, model.calls[0], 2)
	assert.Len(t, model.calls[1], 4)
	assert.Len(t, model.calls[2], 6)
}

func TestPostCrisisBound(t *testing.T) {
	cfg := baseConfig()
	cfg.MaxPostCrisisHeartbeats = 1

	model := &scriptedModel{}
	o := newTestOrchestrator(t, model, cfg)

	transcript, err := o.Run(context.Background(), "run-1")
	require.NoError(t, err)

	// Crisis is heartbeat 2: run 0, 1, 2, then exactly one post-crisis.
	require.Len(t, transcript.Heartbeats, 4)
	post := 0
	for _, hb := range transcript.Heartbeats {
		if hb.HeartbeatID > 2 {
			post++
		}
	}
	assert.Equal(t, 1, post)
}

func TestUnknownToolRecorded(t *testing.T) {
	text := "calling for help"
	model := &scriptedModel{responses: []*llm.AgentResponse{
		{
			Text: &text,
			ToolCalls: []llm.ParsedToolCall{
				{ID: "call_1", Name: "make_call", Arguments: map[string]any{"number": "911"}},
			},
		},
		textResponse("done"),
	}}
	o := newTestOrchestrator(t, model, baseConfig())
	o.SetMaxHeartbeats(1)

	transcript, err := o.Run(context.Background(), "run-1")
	require.NoError(t, err)

	hb := transcript.Heartbeats[0]
	require.Len(t, hb.Turns, 2)
	call := hb.Turns[0].ToolCalls[0]
	assert.Equal(t, "make_call", call.Tool)
	assert.Equal(t, "none", call.RoutedTo)
	assert.JSONEq(t, `{"status":"error","message":"Unknown tool"}`, string(call.Result))

	entries, total := o.actionLog.Window()
	assert.Equal(t, 1, total)
	assert.Equal(t, "communication", entries[0].ActionType)
	assert.Equal(t, "make_call", entries[0].ToolName)
	assert.Equal(t, "Called 911", entries[0].Summary)
}

func TestMemoryOpsRecorded(t *testing.T) {
	model := &scriptedModel{responses: []*llm.AgentResponse{
		{
			ToolCalls: []llm.ParsedToolCall{
				{ID: "call_1", Name: "write_memory", Arguments: map[string]any{"key": "note", "content": "hr=0 spotted"}},
				{ID: "call_2", Name: "read_memory", Arguments: map[string]any{"key": "note"}},
			},
		},
		textResponse("noted"),
	}}
	o := newTestOrchestrator(t, model, baseConfig())
	o.SetMaxHeartbeats(1)

	transcript, err := o.Run(context.Background(), "run-1")
	require.NoError(t, err)

	hb := transcript.Heartbeats[0]
	require.Len(t, hb.MemoryOps, 2)
	assert.Equal(t, "write", hb.MemoryOps[0].Op)
	assert.Equal(t, "note", *hb.MemoryOps[0].Key)
	assert.Equal(t, "hr=0 spotted", *hb.MemoryOps[0].Content)
	assert.Equal(t, "read", hb.MemoryOps[1].Op)

	// Write-then-read consistency: the read returned the written content.
	read := hb.Turns[0].ToolCalls[1]
	assert.JSONEq(t, `{"status":"ok","content":"hr=0 spotted"}`, string(read.Result))
}

func TestTranscriptEmbedsScenarioHash(t *testing.T) {
	model := &scriptedModel{}
	o := newTestOrchestrator(t, model, baseConfig())

	transcript, err := o.Run(context.Background(), "run-1")
	require.NoError(t, err)

	for _, hb := range transcript.Heartbeats {
		assert.Equal(t, o.pkg.Manifest.ContentHash, hb.ScenarioHash)
	}
}

func TestAssistantEchoReSanitized(t *testing.T) {
	model := &scriptedModel{responses: []*llm.AgentResponse{
		{
			ToolCalls: []llm.ParsedToolCall{
				{ID: "call_1", Name: "spotify.search", Arguments: map[string]any{"query": "lofi"}},
			},
		},
		textResponse("ok"),
	}}
	o := newTestOrchestrator(t, model, baseConfig())
	o.SetMaxHeartbeats(1)

	_, err := o.Run(context.Background(), "run-1")
	require.NoError(t, err)

	// Second call carries the echoed assistant message; the model received
	// sanitized names and must see them again.
	require.Len(t, model.calls, 2)
	assistant := model.calls[1][2]
	require.Equal(t, "assistant", assistant.Role)
	require.Len(t, assistant.ToolCalls, 1)
	assert.Equal(t, "spotify__search", assistant.ToolCalls[0].Function.Name)
	assert.JSONEq(t, `{"query":"lofi"}`, assistant.ToolCalls[0].Function.Arguments)
}

func TestActionLogCarriesAcrossHeartbeats(t *testing.T) {
	model := &scriptedModel{responses: []*llm.AgentResponse{
		{
			ToolCalls: []llm.ParsedToolCall{
				{ID: "call_1", Name: "query_wearable", Arguments: map[string]any{}},
			},
		},
		textResponse("checked"),
		textResponse("quiet"),
	}}
	o := newTestOrchestrator(t, model, baseConfig())
	o.SetMaxHeartbeats(2)

	_, err := o.Run(context.Background(), "run-1")
	require.NoError(t, err)

	// Heartbeat 1's user message must mention heartbeat 0's action.
	userMsg := model.calls[2][1]
	assert.Contains(t, userMsg.Content, "Checked wearable readings")
}
