package cli

import (
	"bytes"
	"regexp"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/elsatrace/internal/config"
	"github.com/roach88/elsatrace/internal/record"
	"github.com/roach88/elsatrace/internal/testutil"
)

const (
	scenarioSummaries = `{"items":[
		{"activityNodeId":"A","activityName":"Start","activityType":"Elsa.Start","startedAt":"2024-01-01T10:00:00Z"},
		{"activityNodeId":"B","activityName":"Print","activityType":"Elsa.WriteLine","startedAt":"2024-01-01T10:00:01Z","completedAt":"2024-01-01T10:00:02Z"},
		{"activityNodeId":"C","activityType":"Elsa.Finish","startedAt":"2024-01-01T10:00:03Z"}
	]}`

	scenarioJournal = `{"items":[
		{"eventName":"Started","timestamp":"2024-01-01T10:00:00Z","activityNodeId":"A"},
		{"eventName":"Completed","timestamp":"2024-01-01T10:00:02Z","activityNodeId":"B"},
		{"eventName":"Started","timestamp":"2024-01-01T10:00:03Z","activityNodeId":"C"},
		{"eventName":"Note"}
	]}`
)

func decode(t *testing.T, s string) any {
	t.Helper()
	v, err := record.Decode([]byte(s))
	require.NoError(t, err)
	return v
}

func scenarioPayloads(t *testing.T) testutil.Payloads {
	t.Helper()
	return testutil.Payloads{
		Instance:       decode(t, `{"id":"wf-1","name":"Demo","status":"Running"}`),
		Journal:        decode(t, scenarioJournal),
		ExecutionState: decode(t, `{"status":"Running"}`),
		Summaries:      decode(t, scenarioSummaries),
		Report:         decode(t, `{"stats":[]}`),
		Executions: map[string]any{
			"B": decode(t, `[{"id":"exec-1","activityNodeId":"B","status":"Completed"}]`),
		},
	}
}

func newScenarioSource(t *testing.T) *testutil.FakeSource {
	t.Helper()
	src := testutil.NewFakeSource()
	src.Set("wf-1", scenarioPayloads(t))
	src.SetListing(decode(t, `{"items":[
		{"id":"wf-1","name":"Demo","status":"Running","updatedAt":"2024-01-01T10:00:05Z"},
		{"id":"wf-2","definitionId":"approval","status":"Finished"},
		{"name":"no id"}
	]}`), nil)
	return src
}

func testConfig() *config.Config {
	return &config.Config{
		BaseURL:       "http://elsa.test/elsa/api",
		APIKeyHeader:  "X-Api-Key",
		Timeout:       5 * time.Second,
		JournalTake:   200,
		InstancesTake: 50,
		Lanes:         3,
		LogLevel:      "error",
		LogFormat:     "text",
		Listen:        "127.0.0.1:0",
	}
}

func testRootOptions(src *testutil.FakeSource, format string) *RootOptions {
	return &RootOptions{Format: format, Config: testConfig(), Source: src}
}

// execute runs cmd with args and returns its stdout.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

var fingerprintLine = regexp.MustCompile(`Fingerprint: [0-9a-f]*`)

// blankFingerprint keeps golden files independent of the hash encoding.
func blankFingerprint(s string) []byte {
	return []byte(fingerprintLine.ReplaceAllString(s, "Fingerprint: <fingerprint>"))
}
