package runner

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/crisisbench/crisisbench/internal/runtime"
	"github.com/crisisbench/crisisbench/internal/scenario"
)

// ScenarioDataHandler serves the read-only scenario queries. The
// orchestrator updates the current-heartbeat pointer before dispatching each
// heartbeat's tool calls.
type ScenarioDataHandler struct {
	pkg     *scenario.Package
	current *scenario.HeartbeatPayload
	index   int
}

// NewScenarioDataHandler wraps a loaded scenario package.
func NewScenarioDataHandler(pkg *scenario.Package) *ScenarioDataHandler {
	return &ScenarioDataHandler{pkg: pkg}
}

// SetCurrentHeartbeat points the handler at the heartbeat being executed.
func (h *ScenarioDataHandler) SetCurrentHeartbeat(hb *scenario.HeartbeatPayload, index int) {
	h.current = hb
	h.index = index
}

var scenarioToolNames = map[string]bool{
	"query_wearable":     true,
	"get_recent_updates": true,
	"get_contacts":       true,
	"get_conversations":  true,
	"list_events":        true,
	"get_forecast":       true,
	"get_balance":        true,
	"get_transactions":   true,
}

// CanHandle reports whether the tool is a scenario-data query.
func (h *ScenarioDataHandler) CanHandle(toolName string) bool {
	return scenarioToolNames[toolName]
}

// Handle dispatches a scenario-data tool call. Modules that are null for
// the tier produce an empty-shape response (forecast, events, balance) or a
// tier-unavailability error (transactions).
func (h *ScenarioDataHandler) Handle(_ context.Context, toolName string, args map[string]any) runtime.ToolResponse {
	switch toolName {
	case "query_wearable":
		return h.queryWearable()
	case "get_recent_updates":
		return h.recentUpdates(args)
	case "get_contacts":
		return h.contacts()
	case "get_conversations":
		// Conversation tracking is a future increment.
		return runtime.ConversationsResponse{Status: "ok", Conversations: []any{}}
	case "list_events":
		return h.listEvents()
	case "get_forecast":
		return h.forecast()
	case "get_balance":
		return h.balance()
	case "get_transactions":
		return h.transactions(args)
	default:
		return runtime.NewErrorResponse("Unknown scenario tool " + toolName)
	}
}

// asMap round-trips a typed record through JSON into its serialized view.
func asMap(v any) map[string]any {
	data, err := json.Marshal(v)
	if err != nil {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return map[string]any{}
	}
	return m
}

func (h *ScenarioDataHandler) queryWearable() runtime.ToolResponse {
	if h.current == nil || h.current.Wearable == nil {
		return runtime.QueryWearableResponse{Status: "ok", Data: map[string]any{}}
	}
	return runtime.QueryWearableResponse{Status: "ok", Data: asMap(h.current.Wearable)}
}

func (h *ScenarioDataHandler) recentUpdates(args map[string]any) runtime.ToolResponse {
	count, ok := intArg(args, "count")
	if !ok || count < 1 {
		return runtime.NewErrorResponse("get_recent_updates requires a positive integer 'count'")
	}
	end := h.index + 1
	start := end - count
	if start < 0 {
		start = 0
	}
	updates := make([]map[string]any, 0, end-start)
	for _, hb := range h.pkg.Heartbeats[start:end] {
		updates = append(updates, asMap(hb))
	}
	return runtime.RecentUpdatesResponse{Status: "ok", Heartbeats: updates}
}

func (h *ScenarioDataHandler) contacts() runtime.ToolResponse {
	list := make([]map[string]any, 0, len(h.pkg.Contacts))
	for _, c := range h.pkg.Contacts {
		list = append(list, asMap(c))
	}
	return runtime.ContactsResponse{Status: "ok", Contacts: list}
}

func (h *ScenarioDataHandler) listEvents() runtime.ToolResponse {
	if h.current == nil || h.current.Calendar == nil {
		return runtime.ListEventsResponse{Status: "ok", Events: []map[string]any{}}
	}
	events := make([]map[string]any, 0, len(h.current.Calendar.Next3Events))
	for _, ev := range h.current.Calendar.Next3Events {
		events = append(events, asMap(ev))
	}
	return runtime.ListEventsResponse{Status: "ok", Events: events}
}

func (h *ScenarioDataHandler) forecast() runtime.ToolResponse {
	if h.current == nil || h.current.Weather == nil {
		return runtime.ForecastResponse{Status: "ok", Forecast: map[string]any{}}
	}
	return runtime.ForecastResponse{Status: "ok", Forecast: asMap(h.current.Weather)}
}

func (h *ScenarioDataHandler) balance() runtime.ToolResponse {
	if h.current == nil || h.current.Financial == nil {
		return runtime.BalanceResponse{Status: "ok", Data: map[string]any{}}
	}
	fin := h.current.Financial
	pending := make([]map[string]any, 0, len(fin.PendingCharges))
	for _, pc := range fin.PendingCharges {
		pending = append(pending, asMap(pc))
	}
	return runtime.BalanceResponse{Status: "ok", Data: map[string]any{
		"account_balance": fin.AccountBalance,
		"pending_charges": pending,
	}}
}

func (h *ScenarioDataHandler) transactions(args map[string]any) runtime.ToolResponse {
	if h.current == nil || h.current.Financial == nil {
		return runtime.NewErrorResponse("Financial data not available at this tier")
	}
	count, ok := intArg(args, "count")
	if !ok || count < 1 {
		return runtime.NewErrorResponse("get_transactions requires a positive integer 'count'")
	}
	txs := h.current.Financial.Last3Transactions
	if count < len(txs) {
		txs = txs[:count]
	}
	list := make([]map[string]any, 0, len(txs))
	for _, tx := range txs {
		list = append(list, asMap(tx))
	}
	return runtime.TransactionsResponse{Status: "ok", Transactions: list}
}

// intArg reads an integer argument the model may have sent as a JSON number
// or a numeric string.
func intArg(args map[string]any, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
