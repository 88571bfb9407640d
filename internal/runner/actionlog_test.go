package runner

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/crisisbench/crisisbench/internal/runtime"
)

func TestActionLogWindow(t *testing.T) {
	l := NewActionLog(3)

	entries, total := l.Window()
	assert.Empty(t, entries)
	assert.Zero(t, total)

	for i := 0; i < 5; i++ {
		l.Record(runtime.ActionLogEntry{
			Time:       fmt.Sprintf("2027-06-15T07:%02d:00Z", i*5),
			ActionType: "query",
			ToolName:   "query_wearable",
			Summary:    fmt.Sprintf("action %d", i),
		})
	}

	entries, total = l.Window()
	assert.Equal(t, 5, total)
	assert.Len(t, entries, 3)
	assert.Equal(t, "action 2", entries[0].Summary)
	assert.Equal(t, "action 4", entries[2].Summary)
}

func TestClassifyAction(t *testing.T) {
	cases := map[string]string{
		"query_wearable":     "query",
		"get_recent_updates": "query",
		"get_forecast":       "query",
		"read_memory":        "memory",
		"write_memory":       "memory",
		"list_memories":      "memory",
		"send_message":       "communication",
		"make_call":          "communication",
		"spotify.search":     "tool_call",
		"unknown_thing":      "tool_call",
	}
	for tool, want := range cases {
		assert.Equal(t, want, ClassifyAction(tool), "tool %s", tool)
	}
}

func TestSummarizeToolCall(t *testing.T) {
	assert.Equal(t, "Called 911",
		SummarizeToolCall("make_call", map[string]any{"number": "911"}))
	assert.Equal(t, "Updated memory note",
		SummarizeToolCall("write_memory", map[string]any{"key": "note", "content": "x"}))
	assert.Equal(t, "Checked wearable readings",
		SummarizeToolCall("query_wearable", map[string]any{}))
	assert.Equal(t, "Called spotify.search",
		SummarizeToolCall("spotify.search", map[string]any{"query": "x"}))

	t.Run("malformed args never crash the summary", func(t *testing.T) {
		assert.Equal(t, "Called ?", SummarizeToolCall("make_call", map[string]any{"number": 911}))
		assert.Equal(t, "Called ?", SummarizeToolCall("make_call", nil))
	})
}
