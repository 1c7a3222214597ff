package template

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/derekwisong/datui/pipeline"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)
	m.now = func() time.Time { return time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC) }
	return m
}

func TestCreatePersistsAndReloads(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir)
	require.NoError(t, err)

	created, err := m.Create("daily", "daily trades view", MatchCriteria{
		FilenamePattern: "trades_*.csv",
	}, pipeline.Snapshot{
		Query:   "select sym, avg_px: avg price by sym",
		Filters: []pipeline.FilterStatement{{Column: "qty", Operator: ">", Value: "0"}},
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	reloaded, err := NewManager(dir)
	require.NoError(t, err)
	got, ok := reloaded.ByName("daily")
	require.True(t, ok)
	require.Equal(t, created.ID, got.ID)
	require.Equal(t, "select sym, avg_px: avg price by sym", got.Settings.Query)
	require.Len(t, got.Settings.Filters, 1)
}

func TestCreateRejectsDuplicateName(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Create("x", "", MatchCriteria{}, pipeline.Snapshot{})
	require.NoError(t, err)
	_, err = m.Create("x", "", MatchCriteria{}, pipeline.Snapshot{})
	require.Error(t, err)
}

func TestDeleteAndUpdate(t *testing.T) {
	m := newTestManager(t)
	tpl, err := m.Create("x", "", MatchCriteria{}, pipeline.Snapshot{})
	require.NoError(t, err)

	tpl.Description = "updated"
	require.NoError(t, m.Update(tpl))
	got, ok := m.ByID(tpl.ID)
	require.True(t, ok)
	require.Equal(t, "updated", got.Description)

	require.NoError(t, m.Delete(tpl.ID))
	_, ok = m.ByID(tpl.ID)
	require.False(t, ok)
	require.Error(t, m.Delete(tpl.ID))
}

func TestNextName(t *testing.T) {
	m := newTestManager(t)
	require.Equal(t, "template_1", m.NextName())
	_, err := m.Create("template_1", "", MatchCriteria{}, pipeline.Snapshot{})
	require.NoError(t, err)
	require.Equal(t, "template_2", m.NextName())
}

func TestRecordUsage(t *testing.T) {
	m := newTestManager(t)
	tpl, err := m.Create("x", "", MatchCriteria{}, pipeline.Snapshot{})
	require.NoError(t, err)
	require.NoError(t, m.RecordUsage(tpl.ID))
	got, _ := m.ByID(tpl.ID)
	require.Equal(t, 1, got.UsageCount)
	require.NotNil(t, got.LastUsed)
}

func TestRelevanceTiers(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	cols := []string{"sym", "qty", "price"}
	base := Template{Created: now}

	exact := base
	exact.Criteria = MatchCriteria{ExactPath: "/data/trades.parquet", SchemaColumns: cols}
	require.Equal(t, scoreExactPathAndSchema, relevance(exact, "/data/trades.parquet", cols, now))
	require.Equal(t, scoreExactPath, relevance(exact, "/data/trades.parquet", []string{"sym"}, now))

	schemaOnly := base
	schemaOnly.Criteria = MatchCriteria{SchemaColumns: []string{"price", "qty", "sym"}}
	require.Equal(t, scoreExactSchema, relevance(schemaOnly, "/other.csv", cols, now),
		"schema match is order-insensitive")

	pattern := base
	pattern.Criteria = MatchCriteria{FilenamePattern: "trades_*.parquet"}
	got := relevance(pattern, "/data/trades_2026.parquet", cols, now)
	require.Equal(t, scoreFilenamePattern+5, got, "one wildcard earns a 5 point bonus")

	nothing := base
	nothing.Criteria = MatchCriteria{ExactPath: "/elsewhere.csv"}
	require.Equal(t, 0.0, relevance(nothing, "/data/trades.parquet", cols, now))
}

func TestRelevanceUsageAndAge(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	lastWeek := now.AddDate(0, 0, -3)
	cols := []string{"a"}

	tpl := Template{
		Created:    now.AddDate(0, -2, 0), // two months old
		UsageCount: 25,                    // capped at 10
		LastUsed:   &lastWeek,             // +5 recency
		Criteria:   MatchCriteria{SchemaColumns: []string{"a", "b"}},
	}
	// 2 (one matching column) + 10 (usage) + 5 (recency) - 2 (age).
	require.Equal(t, 15.0, relevance(tpl, "/x.csv", cols, now))
}

func TestFindRelevantOrdering(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Create("generic", "", MatchCriteria{FilenamePattern: "*.csv"}, pipeline.Snapshot{})
	require.NoError(t, err)
	specific, err := m.Create("specific", "", MatchCriteria{ExactPath: "/data/x.csv"}, pipeline.Snapshot{})
	require.NoError(t, err)

	scored := m.FindRelevant("/data/x.csv", []string{"a"})
	require.Len(t, scored, 2)
	require.Equal(t, specific.ID, scored[0].Template.ID)
	require.Greater(t, scored[0].Score, scored[1].Score)

	best, ok := m.MostRelevant("/data/x.csv", []string{"a"})
	require.True(t, ok)
	require.Equal(t, "specific", best.Name)
}

func TestMatchesPattern(t *testing.T) {
	tests := []struct {
		text, pattern string
		want          bool
	}{
		{"trades.csv", "*.csv", true},
		{"trades.csv", "trades.*", true},
		{"trades.csv", "*", true},
		{"trades.csv", "trades.csv", true},
		{"trades.csv", "*.parquet", false},
		{"trades_2026.csv", "trades_????.csv", true},
		{"trades_26.csv", "trades_????.csv", false},
		{"a/b/c.csv", "a/*/c.csv", true},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, matchesPattern(tt.text, tt.pattern),
			"matchesPattern(%q, %q)", tt.text, tt.pattern)
	}
}
