package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/elsatrace/internal/elsa"
)

// createTestStore creates a new on-disk store under t.TempDir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestCapture returns a capture holding one payload per instance read.
func createTestCapture(id, instanceID string, at time.Time) Capture {
	return Capture{
		ID:         id,
		InstanceID: instanceID,
		CapturedAt: at,
		Payloads: []Payload{
			{Kind: elsa.OpWorkflowInstance, Body: []byte(`{"id":"` + instanceID + `","status":"Finished"}`)},
			{Kind: elsa.OpJournal, Body: []byte(`{"items":[{"eventName":"Started","timestamp":"2024-01-01T00:00:01Z","activityNodeId":"A"}]}`)},
			{Kind: elsa.OpExecutionState, Body: []byte(`{"status":"Finished"}`)},
			{Kind: elsa.OpActivitySummaries, Body: []byte(`{"items":[{"activityNodeId":"A","startedAt":"2024-01-01T00:00:01Z"}]}`)},
			{Kind: elsa.OpExecutionReport, Body: []byte(`{"stats":[{"activityNodeId":"A","isFaulted":false}]}`)},
		},
	}
}
