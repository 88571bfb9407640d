package runner

import (
	"fmt"

	"github.com/crisisbench/crisisbench/internal/runtime"
)

// ActionLog is the bounded rolling window of the agent's own tool calls,
// injected into each user message so the agent can reason about what it has
// already done. Append-only; nothing else writes it during a run.
type ActionLog struct {
	entries []runtime.ActionLogEntry
	window  int
}

// NewActionLog creates a log with the given window size.
func NewActionLog(window int) *ActionLog {
	return &ActionLog{window: window}
}

// Record appends one entry.
func (l *ActionLog) Record(entry runtime.ActionLogEntry) {
	l.entries = append(l.entries, entry)
}

// Window returns the last window entries and the running total.
func (l *ActionLog) Window() ([]runtime.ActionLogEntry, int) {
	total := len(l.entries)
	start := total - l.window
	if start < 0 {
		start = 0
	}
	return l.entries[start:], total
}

// Action categories for log entries.
const (
	actionQuery         = "query"
	actionMemory        = "memory"
	actionCommunication = "communication"
	actionToolCall      = "tool_call"
)

var queryTools = map[string]bool{
	"query_wearable":     true,
	"get_recent_updates": true,
	"get_contacts":       true,
	"get_conversations":  true,
	"list_events":        true,
	"get_forecast":       true,
	"get_balance":        true,
	"get_transactions":   true,
}

var memoryTools = map[string]bool{
	"read_memory":   true,
	"write_memory":  true,
	"list_memories": true,
}

var communicationTools = map[string]bool{
	"send_message": true,
	"make_call":    true,
}

// ClassifyAction derives the action category from a tool name.
func ClassifyAction(toolName string) string {
	switch {
	case queryTools[toolName]:
		return actionQuery
	case memoryTools[toolName]:
		return actionMemory
	case communicationTools[toolName]:
		return actionCommunication
	default:
		return actionToolCall
	}
}

// SummarizeToolCall renders a brief human-readable summary for the log.
// Argument access is defensive — the summary is cosmetic and must not choke
// on whatever arguments the model supplied.
func SummarizeToolCall(toolName string, args map[string]any) string {
	str := func(key string) string {
		if v, ok := args[key].(string); ok {
			return v
		}
		return "?"
	}
	switch toolName {
	case "make_call":
		return "Called " + str("number")
	case "send_message":
		return fmt.Sprintf("Messaged %s: %s", str("contact_id"), truncateSummary(str("text")))
	case "write_memory":
		return "Updated memory " + str("key")
	case "read_memory":
		return "Read memory " + str("key")
	case "list_memories":
		return "Listed memory files"
	case "query_wearable":
		return "Checked wearable readings"
	case "get_recent_updates":
		return "Pulled recent device updates"
	case "get_contacts":
		return "Looked up contacts"
	case "get_conversations":
		return "Checked conversations"
	case "list_events":
		return "Listed calendar events"
	case "get_forecast":
		return "Checked the forecast"
	case "get_balance":
		return "Checked account balance"
	case "get_transactions":
		return "Reviewed transactions"
	default:
		return "Called " + toolName
	}
}

func truncateSummary(s string) string {
	const max = 60
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
