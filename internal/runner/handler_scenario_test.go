package runner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crisisbench/crisisbench/internal/runtime"
)

func newScenarioHandler(t *testing.T) *ScenarioDataHandler {
	t.Helper()
	pkg := testPackage(t)
	h := NewScenarioDataHandler(pkg)
	h.SetCurrentHeartbeat(&pkg.Heartbeats[1], 1)
	return h
}

func TestQueryWearable(t *testing.T) {
	h := newScenarioHandler(t)

	resp := h.Handle(context.Background(), "query_wearable", nil)
	data, ok := resp.(runtime.QueryWearableResponse)
	require.True(t, ok)
	assert.Equal(t, "ok", data.Status)
	assert.EqualValues(t, 145, data.Data["heart_rate"])
	assert.Contains(t, data.Data, "spo2")
	assert.Contains(t, data.Data, "body_battery")
}

func TestGetRecentUpdates(t *testing.T) {
	h := newScenarioHandler(t)
	ctx := context.Background()

	t.Run("returns up to count payloads ending at the current heartbeat", func(t *testing.T) {
		resp := h.Handle(ctx, "get_recent_updates", map[string]any{"count": float64(2)})
		data, ok := resp.(runtime.RecentUpdatesResponse)
		require.True(t, ok)
		require.Len(t, data.Heartbeats, 2)
		assert.EqualValues(t, 0, data.Heartbeats[0]["heartbeat_id"])
		assert.EqualValues(t, 1, data.Heartbeats[1]["heartbeat_id"])
	})

	t.Run("count larger than history", func(t *testing.T) {
		resp := h.Handle(ctx, "get_recent_updates", map[string]any{"count": float64(50)})
		data := resp.(runtime.RecentUpdatesResponse)
		assert.Len(t, data.Heartbeats, 2)
	})

	t.Run("missing count is an error", func(t *testing.T) {
		resp := h.Handle(ctx, "get_recent_updates", map[string]any{})
		_, ok := resp.(runtime.ErrorResponse)
		assert.True(t, ok)
	})

	t.Run("never returns future heartbeats", func(t *testing.T) {
		resp := h.Handle(ctx, "get_recent_updates", map[string]any{"count": float64(10)})
		data := resp.(runtime.RecentUpdatesResponse)
		for _, hb := range data.Heartbeats {
			assert.LessOrEqual(t, hb["heartbeat_id"].(float64), float64(1))
		}
	})
}

func TestGetContacts(t *testing.T) {
	h := newScenarioHandler(t)

	resp := h.Handle(context.Background(), "get_contacts", nil)
	data, ok := resp.(runtime.ContactsResponse)
	require.True(t, ok)
	require.Len(t, data.Contacts, 1)
	assert.Equal(t, "Sarah Mitchell", data.Contacts[0]["name"])
	assert.Equal(t, "wife", data.Contacts[0]["relationship"])
}

func TestGetConversationsEmpty(t *testing.T) {
	h := newScenarioHandler(t)

	resp := h.Handle(context.Background(), "get_conversations", nil)
	data, ok := resp.(runtime.ConversationsResponse)
	require.True(t, ok)
	assert.Empty(t, data.Conversations)
}

func TestMissingModuleResponses(t *testing.T) {
	// The T2 test package has no calendar or financial modules.
	h := newScenarioHandler(t)
	ctx := context.Background()

	t.Run("list_events with no calendar is empty-shape", func(t *testing.T) {
		resp := h.Handle(ctx, "list_events", map[string]any{"date": "2027-06-15"})
		data, ok := resp.(runtime.ListEventsResponse)
		require.True(t, ok)
		assert.Equal(t, "ok", data.Status)
		assert.Empty(t, data.Events)
	})

	t.Run("get_forecast with no weather is empty-shape", func(t *testing.T) {
		resp := h.Handle(ctx, "get_forecast", map[string]any{"location": "NYC"})
		data, ok := resp.(runtime.ForecastResponse)
		require.True(t, ok)
		assert.Empty(t, data.Forecast)
	})

	t.Run("get_transactions with no financial is a tier error", func(t *testing.T) {
		resp := h.Handle(ctx, "get_transactions", map[string]any{"count": float64(3)})
		errResp, ok := resp.(runtime.ErrorResponse)
		require.True(t, ok)
		assert.Contains(t, errResp.Message, "not available at this tier")
	})

	t.Run("get_balance with no financial is empty-shape", func(t *testing.T) {
		resp := h.Handle(ctx, "get_balance", map[string]any{"account": "checking"})
		data, ok := resp.(runtime.BalanceResponse)
		require.True(t, ok)
		assert.Empty(t, data.Data)
	})
}
