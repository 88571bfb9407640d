package runtime

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunConfigDefaults(t *testing.T) {
	cfg := RunConfig{
		AgentModel:   "openai/gpt-5.2",
		UserSimModel: "openai/gpt-5.2-mini",
		JudgeModel:   "anthropic/claude-sonnet-4-20250514",
	}
	cfg.ApplyDefaults()

	assert.Equal(t, 10, cfg.MaxToolTurns)
	assert.Equal(t, 20, cfg.MaxPostCrisisHeartbeats)
	assert.Equal(t, 20, cfg.ActionLogWindow)
	assert.NoError(t, cfg.Validate())
}

func TestRunConfigValidate(t *testing.T) {
	cfg := RunConfig{AgentModel: "openai/gpt-5.2"}
	cfg.ApplyDefaults()
	assert.Error(t, cfg.Validate())
}

func TestRunConfigExplicitValuesKept(t *testing.T) {
	cfg := RunConfig{
		AgentModel: "a", UserSimModel: "b", JudgeModel: "c",
		MaxToolTurns: 3, MaxPostCrisisHeartbeats: 5, ActionLogWindow: 7,
	}
	cfg.ApplyDefaults()
	assert.Equal(t, 3, cfg.MaxToolTurns)
	assert.Equal(t, 5, cfg.MaxPostCrisisHeartbeats)
	assert.Equal(t, 7, cfg.ActionLogWindow)
}

func TestErrorResponseShape(t *testing.T) {
	resp := NewErrorResponse("Unknown tool")
	data, err := MarshalResponse(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"error","message":"Unknown tool"}`, string(data))
	assert.Equal(t, "error", resp.ResponseStatus())
}

func TestReadMemoryResponseShape(t *testing.T) {
	t.Run("with content", func(t *testing.T) {
		content := "hr=0 spotted"
		data, err := MarshalResponse(ReadMemoryResponse{Status: "ok", Content: &content})
		require.NoError(t, err)
		assert.JSONEq(t, `{"status":"ok","content":"hr=0 spotted"}`, string(data))
	})

	t.Run("missing key serializes null content", func(t *testing.T) {
		data, err := MarshalResponse(ReadMemoryResponse{Status: "ok"})
		require.NoError(t, err)
		assert.JSONEq(t, `{"status":"ok","content":null}`, string(data))
	})
}

func TestHeartbeatTranscriptRoundTrip(t *testing.T) {
	text := "on it"
	key := "note"
	transcript := HeartbeatTranscript{
		HeartbeatID:  139,
		Timestamp:    "2027-06-15T18:05:12Z",
		ScenarioHash: "abc123",
		ContextSent:  ContextSent{SystemPromptTokens: 900, UserMessageTokens: 1200},
		Turns: []Turn{
			{
				AgentText: &text,
				ToolCalls: []RecordedToolCall{
					{
						Tool:     "write_memory",
						Args:     map[string]any{"key": "note", "content": "x"},
						Result:   json.RawMessage(`{"status":"written"}`),
						RoutedTo: "MemoryHandler",
					},
				},
			},
		},
		MemoryOps:           []MemoryOp{{Op: "write", Key: &key}},
		UserSimInteractions: []UserSimInteraction{},
	}

	data, err := json.Marshal(transcript)
	require.NoError(t, err)

	var back HeartbeatTranscript
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, transcript.HeartbeatID, back.HeartbeatID)
	assert.Equal(t, *transcript.Turns[0].AgentText, *back.Turns[0].AgentText)
	assert.JSONEq(t, string(transcript.Turns[0].ToolCalls[0].Result), string(back.Turns[0].ToolCalls[0].Result))
}
