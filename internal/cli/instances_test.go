package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/elsatrace/internal/elsa"
	"github.com/roach88/elsatrace/internal/testutil"
	"github.com/roach88/elsatrace/internal/trace"
)

func TestInstancesText(t *testing.T) {
	out, err := execute(t, NewInstancesCommand(testRootOptions(newScenarioSource(t), "text")))
	require.NoError(t, err)

	assert.Equal(t,
		"Demo (Running · 10:00:05) - wf-1\n"+
			"approval (Finished) - wf-2\n",
		out)
}

func TestInstancesJSON(t *testing.T) {
	out, err := execute(t, NewInstancesCommand(testRootOptions(newScenarioSource(t), "json")), "--take", "10")
	require.NoError(t, err)

	var resp struct {
		Status string                 `json:"status"`
		Data   []trace.InstanceOption `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "wf-2", resp.Data[1].ID)
	assert.Nil(t, resp.Data[1].Timestamp)
}

func TestInstancesEmpty(t *testing.T) {
	src := testutil.NewFakeSource()
	src.SetListing(map[string]any{"items": []any{}}, nil)

	out, err := execute(t, NewInstancesCommand(testRootOptions(src, "text")))
	require.NoError(t, err)
	assert.Equal(t, "No instances found\n", out)
}

func TestInstancesNegativePaging(t *testing.T) {
	_, err := execute(t, NewInstancesCommand(testRootOptions(newScenarioSource(t), "text")), "--skip", "-1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestInstancesUpstreamError(t *testing.T) {
	src := testutil.NewFakeSource()
	src.SetListing(nil, &elsa.APIError{StatusCode: 401, Status: "401 Unauthorized"})

	_, err := execute(t, NewInstancesCommand(testRootOptions(src, "text")))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "Elsa API 401: Unauthorized")
}

func TestInstancesUpstreamErrorJSON(t *testing.T) {
	src := testutil.NewFakeSource()
	src.SetListing(nil, &elsa.APIError{StatusCode: 502, Status: "502 Bad Gateway"})

	out, err := execute(t, NewInstancesCommand(testRootOptions(src, "json")))
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeUpstream, resp.Error.Code)
	assert.Equal(t, "Elsa API 502: Bad Gateway", resp.Error.Message)
}
