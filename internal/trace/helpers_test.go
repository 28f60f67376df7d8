package trace

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/elsatrace/internal/record"
	"github.com/roach88/elsatrace/internal/testutil"
)

// decode parses a JSON fixture the way the Elsa client does.
func decode(t *testing.T, s string) any {
	t.Helper()
	v, err := record.Decode([]byte(s))
	require.NoError(t, err)
	return v
}

const (
	scenarioSummaries = `{"items":[
		{"activityNodeId":"A","activityName":"Start","activityType":"Elsa.Start","startedAt":"2024-01-01T10:00:00Z"},
		{"activityNodeId":"B","activityName":"Print","activityType":"Elsa.WriteLine","startedAt":"2024-01-01T10:00:01Z","completedAt":"2024-01-01T10:00:02Z"},
		{"activityNodeId":"C","activityType":"Elsa.Finish","startedAt":"2024-01-01T10:00:03Z"}
	]}`

	scenarioReport = `{"stats":[]}`

	scenarioJournal = `{"items":[
		{"eventName":"Started","timestamp":"2024-01-01T10:00:00Z","activityNodeId":"A"},
		{"eventName":"Completed","timestamp":"2024-01-01T10:00:02Z","activityNodeId":"B"},
		{"eventName":"Started","timestamp":"2024-01-01T10:00:03Z","activityNodeId":"C"},
		{"eventName":"Note"}
	]}`
)

// scenarioPayloads is the three-node chain A → B → C.
func scenarioPayloads(t *testing.T) testutil.Payloads {
	t.Helper()
	return testutil.Payloads{
		Instance:       decode(t, `{"id":"wf-1","name":"Demo","status":"Running"}`),
		Journal:        decode(t, scenarioJournal),
		ExecutionState: decode(t, `{"status":"Running","subStatus":"Executing"}`),
		Summaries:      decode(t, scenarioSummaries),
		Report:         decode(t, scenarioReport),
		Executions: map[string]any{
			"B": decode(t, `[{"id":"exec-1","activityNodeId":"B","status":"Completed"}]`),
		},
	}
}

func newScenarioSource(t *testing.T) *testutil.FakeSource {
	t.Helper()
	src := testutil.NewFakeSource()
	src.Set("wf-1", scenarioPayloads(t))
	return src
}
