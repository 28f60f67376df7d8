package cli

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/elsatrace/internal/elsa"
)

func TestNodeMissingFlags(t *testing.T) {
	_, err := execute(t, NewNodeCommand(testRootOptions(newScenarioSource(t), "text")), "--instance", "wf-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestNodeText_Golden(t *testing.T) {
	out, err := execute(t, NewNodeCommand(testRootOptions(newScenarioSource(t), "text")), "--instance", "wf-1", "--node", "B")
	require.NoError(t, err)

	newGoldie(t).Assert(t, "node_detail", []byte(out))
}

func TestNodeJSON(t *testing.T) {
	out, err := execute(t, NewNodeCommand(testRootOptions(newScenarioSource(t), "json")), "--instance", "wf-1", "--node", "B")
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Selection struct {
				SessionID  string `json:"session_id"`
				InstanceID string `json:"instance_id"`
				NodeID     string `json:"node_id"`
				Generation uint64 `json:"generation"`
			} `json:"selection"`
			State  string `json:"state"`
			Detail struct {
				TypeLabel  string `json:"type_label"`
				Executions []any  `json:"executions"`
			} `json:"detail"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Len(t, resp.Data.Selection.SessionID, 36)
	assert.Equal(t, "wf-1", resp.Data.Selection.InstanceID)
	assert.Equal(t, "B", resp.Data.Selection.NodeID)
	assert.Equal(t, uint64(1), resp.Data.Selection.Generation)
	assert.Equal(t, "ready", resp.Data.State)
	assert.Equal(t, "Elsa.WriteLine", resp.Data.Detail.TypeLabel)
	assert.Len(t, resp.Data.Detail.Executions, 1)
}

func TestNodeUnknownNode(t *testing.T) {
	_, err := execute(t, NewNodeCommand(testRootOptions(newScenarioSource(t), "text")), "--instance", "wf-1", "--node", "Z")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `cannot select node "Z"`)
}

func TestNodeUnknownInstance(t *testing.T) {
	_, err := execute(t, NewNodeCommand(testRootOptions(newScenarioSource(t), "text")), "--instance", "wf-404", "--node", "A")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "Elsa API 404: Not Found", err.Error())
}

func TestNodeHistoryFailure(t *testing.T) {
	src := newScenarioSource(t)
	p := scenarioPayloads(t)
	p.Errors = map[string]error{elsa.OpActivityExecutions: errors.New("history unavailable")}
	src.Set("wf-1", p)

	out, err := execute(t, NewNodeCommand(testRootOptions(src, "text")), "--instance", "wf-1", "--node", "A")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Name: Start")
	assert.Contains(t, out, "History error: history unavailable")
}

func TestNodeUnknownNodeJSON(t *testing.T) {
	out, err := execute(t, NewNodeCommand(testRootOptions(newScenarioSource(t), "json")), "--instance", "wf-1", "--node", "Z")
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeNodeNotFound, resp.Error.Code)
	assert.Equal(t, map[string]any{"instance": "wf-1", "node": "Z"}, resp.Error.Details)
}
