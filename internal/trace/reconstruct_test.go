package trace

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/elsatrace/internal/graph"
	"github.com/roach88/elsatrace/internal/status"
)

func edgeSummary(g *graph.Graph) []string {
	out := make([]string, len(g.Edges))
	for i, e := range g.Edges {
		out[i] = e.SourceID + "->" + e.TargetID + ":" + string(e.Confidence)
	}
	return out
}

func TestReconstruct_Scenario(t *testing.T) {
	r := Reconstruct(decode(t, scenarioSummaries), decode(t, scenarioReport), decode(t, scenarioJournal))

	require.Len(t, r.Graph.Nodes, 3)
	assert.Equal(t, []string{"A->B:high", "B->C:high"}, edgeSummary(r.Graph))

	a, _ := r.Graph.Lookup("A")
	b, _ := r.Graph.Lookup("B")
	c, _ := r.Graph.Lookup("C")
	assert.Equal(t, status.Running, a.Status)
	assert.Equal(t, status.Completed, b.Status)
	assert.Equal(t, status.Running, c.Status)
	assert.Equal(t, "Elsa.Finish", c.Name, "falls back to activity type")

	require.Len(t, r.Timeline, 4)
	assert.Equal(t, "Note", r.Timeline[0].EventName, "untimed last entry sorts after the latest real instant")
	assert.Equal(t, "C", r.Timeline[1].NodeID)
	assert.Equal(t, "Running", r.Timeline[1].Activity.StatusLabel)
	assert.Equal(t, "B", r.Timeline[2].NodeID)
	assert.Equal(t, "A", r.Timeline[3].NodeID)

	assert.Len(t, r.Fingerprint, 64)
}

func TestReconstruct_ReportStatsDriveStatus(t *testing.T) {
	report := decode(t, `{"Stats":[{"ActivityNodeId":"B","IsFaulted":true},{"activityNodeId":"C","isBlocked":true}]}`)
	r := Reconstruct(decode(t, scenarioSummaries), report, nil)

	b, _ := r.Graph.Lookup("B")
	c, _ := r.Graph.Lookup("C")
	assert.Equal(t, status.Faulted, b.Status)
	assert.Equal(t, status.Blocked, c.Status)
	assert.Empty(t, r.Timeline)
}

func TestReconstruct_NilAndMalformedInputs(t *testing.T) {
	inputs := []any{nil, "text", 42, []any{}, map[string]any{}, []any{"x", nil}}
	for _, in := range inputs {
		r := Reconstruct(in, in, in)
		require.NotNil(t, r)
		require.NotNil(t, r.Graph)
		assert.NotNil(t, r.Timeline)
		assert.NotEmpty(t, r.Fingerprint)
	}
}

func TestReconstruct_Idempotent(t *testing.T) {
	first := Reconstruct(decode(t, scenarioSummaries), decode(t, scenarioReport), decode(t, scenarioJournal))
	second := Reconstruct(decode(t, scenarioSummaries), decode(t, scenarioReport), decode(t, scenarioJournal))

	assert.Equal(t, first.Fingerprint, second.Fingerprint)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestReconstruct_FingerprintTracksInput(t *testing.T) {
	base := Reconstruct(decode(t, scenarioSummaries), decode(t, scenarioReport), nil)
	faulted := Reconstruct(decode(t, scenarioSummaries), decode(t, `{"stats":[{"activityNodeId":"A","isFaulted":true}]}`), nil)

	assert.NotEqual(t, base.Fingerprint, faulted.Fingerprint)
}

func TestReconstruct_GraphOptions(t *testing.T) {
	r := Reconstruct(decode(t, scenarioSummaries), nil, nil, graph.WithLanes(1))

	for i, n := range r.Graph.Nodes {
		assert.Equal(t, 0, n.Position.Column)
		assert.Equal(t, i, n.Position.Row)
	}
}
