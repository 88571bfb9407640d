package generator

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crisisbench/crisisbench/internal/scenario"
)

func toolNames(tools []scenario.ToolDefinition) []string {
	names := make([]string, len(tools))
	for i, td := range tools {
		names[i] = td.Name
	}
	return names
}

func TestCollectToolDefinitions(t *testing.T) {
	t.Run("T1 is core only", func(t *testing.T) {
		tools, err := CollectToolDefinitions(scenario.TierT1)
		require.NoError(t, err)
		assert.Len(t, tools, 9)
		names := toolNames(tools)
		assert.Contains(t, names, "query_wearable")
		assert.Contains(t, names, "make_call")
		assert.Contains(t, names, "write_memory")
		assert.NotContains(t, names, "get_forecast")
	})

	t.Run("T2 adds the weather tool", func(t *testing.T) {
		tools, err := CollectToolDefinitions(scenario.TierT2)
		require.NoError(t, err)
		assert.Len(t, tools, 10)
		assert.Contains(t, toolNames(tools), "get_forecast")
		assert.NotContains(t, toolNames(tools), "list_events")
	})

	t.Run("T3 adds calendar and the external catalogue", func(t *testing.T) {
		tools, err := CollectToolDefinitions(scenario.TierT3)
		require.NoError(t, err)
		names := toolNames(tools)
		assert.Contains(t, names, "list_events")
		dotted := 0
		for _, n := range names {
			if strings.Contains(n, ".") {
				dotted++
			}
		}
		assert.Greater(t, dotted, 0, "T3 must carry dotted external tools")
		assert.NotContains(t, names, "get_balance")
	})

	t.Run("T4 adds financial tools", func(t *testing.T) {
		tools, err := CollectToolDefinitions(scenario.TierT4)
		require.NoError(t, err)
		names := toolNames(tools)
		assert.Contains(t, names, "get_balance")
		assert.Contains(t, names, "get_transactions")
	})

	t.Run("counts strictly increase across tiers", func(t *testing.T) {
		var counts []int
		for _, tier := range scenario.Tiers {
			tools, err := CollectToolDefinitions(tier)
			require.NoError(t, err)
			counts = append(counts, len(tools))
		}
		for i := 1; i < len(counts); i++ {
			assert.Less(t, counts[i-1], counts[i])
		}
	})

	t.Run("sorted by name", func(t *testing.T) {
		for _, tier := range scenario.Tiers {
			tools, err := CollectToolDefinitions(tier)
			require.NoError(t, err)
			names := toolNames(tools)
			assert.True(t, sort.StringsAreSorted(names), "tier %s tools not sorted", tier)
		}
	})

	t.Run("no banned stems anywhere", func(t *testing.T) {
		tools, err := CollectToolDefinitions(scenario.TierT4)
		require.NoError(t, err)
		require.NoError(t, scenario.CheckToolDefinitions(tools))
	})

	t.Run("query_wearable takes no parameters", func(t *testing.T) {
		tools, err := CollectToolDefinitions(scenario.TierT1)
		require.NoError(t, err)
		for _, td := range tools {
			if td.Name == "query_wearable" {
				assert.Empty(t, td.Parameters)
				return
			}
		}
		t.Fatal("query_wearable not found")
	})
}
