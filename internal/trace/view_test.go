package trace

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/elsatrace/internal/elsa"
	"github.com/roach88/elsatrace/internal/graph"
	"github.com/roach88/elsatrace/internal/store"
)

func TestLoad_BlankIsIdle(t *testing.T) {
	src := newScenarioSource(t)

	v := Load(context.Background(), src, "   ", LoadOptions{})
	assert.Equal(t, StateIdle, v.State)
	assert.Nil(t, v.Reconstruction)
	assert.Nil(t, v.Graph())
	assert.Equal(t, 0, src.Calls(elsa.OpWorkflowInstance))
}

func TestLoad_Ready(t *testing.T) {
	src := newScenarioSource(t)

	v := Load(context.Background(), src, " wf-1 ", LoadOptions{Graph: []graph.Option{graph.WithLanes(2)}})
	assert.Equal(t, "wf-1", v.InstanceID)
	assert.Equal(t, StateReady, v.State)
	assert.Empty(t, v.Error)
	assert.NotNil(t, v.Instance)
	assert.NotNil(t, v.ExecutionState)
	require.NotNil(t, v.Graph())
	assert.Len(t, v.Graph().Edges, 2)
	assert.Equal(t, 1, v.Graph().Nodes[2].Position.Row)
	assert.NotNil(t, v.Fetched())
}

func TestLoad_PartialDataOnError(t *testing.T) {
	src := newScenarioSource(t)
	p := scenarioPayloads(t)
	p.Errors = map[string]error{
		elsa.OpActivitySummaries: &elsa.APIError{StatusCode: 500, Status: "500 Internal Server Error", Body: "boom"},
		elsa.OpExecutionState:    errors.New("state unavailable"),
	}
	src.Set("wf-1", p)

	v := Load(context.Background(), src, "wf-1", LoadOptions{})
	assert.Equal(t, StateError, v.State)
	assert.Equal(t, "Elsa API 500: boom", v.Error, "summaries fail before execution state")
	assert.Empty(t, v.Graph().Nodes)
	assert.Len(t, v.Reconstruction.Timeline, 4, "journal still renders")
	assert.Nil(t, v.ExecutionState)
}

func TestLoad_UnknownInstance(t *testing.T) {
	v := Load(context.Background(), newScenarioSource(t), "wf-404", LoadOptions{})
	assert.Equal(t, StateError, v.State)
	assert.Equal(t, "Elsa API 404: Not Found", v.Error)
}

func TestLoad_SnapshotMatchesLive(t *testing.T) {
	live := Load(context.Background(), newScenarioSource(t), "wf-1", LoadOptions{})

	capture := store.Capture{ID: "cap-1", InstanceID: "wf-1"}
	for kind, body := range map[string]string{
		elsa.OpWorkflowInstance:  `{"id":"wf-1","name":"Demo","status":"Running"}`,
		elsa.OpJournal:           scenarioJournal,
		elsa.OpExecutionState:    `{"status":"Running","subStatus":"Executing"}`,
		elsa.OpActivitySummaries: scenarioSummaries,
		elsa.OpExecutionReport:   scenarioReport,
	} {
		capture.Payloads = append(capture.Payloads, store.Payload{Kind: kind, Body: []byte(body)})
	}
	replayed := Load(context.Background(), store.NewSnapshot(capture), "wf-1", LoadOptions{})

	assert.Equal(t, StateReady, replayed.State)
	assert.Equal(t, live.Reconstruction.Fingerprint, replayed.Reconstruction.Fingerprint)
}

func TestState_Label(t *testing.T) {
	assert.Equal(t, "Idle", StateIdle.Label())
	assert.Equal(t, "Loading...", StateLoading.Label())
	assert.Equal(t, "Ready", StateReady.Label())
	assert.Equal(t, "Error", StateError.Label())
}
