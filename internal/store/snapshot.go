package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/elsatrace/internal/elsa"
	"github.com/roach88/elsatrace/internal/record"
)

// ErrNotCaptured is returned by a Snapshot for a read that the capture does
// not contain.
var ErrNotCaptured = errors.New("not captured")

// Snapshot answers API reads from one stored capture.
type Snapshot struct {
	capture  Capture
	payloads map[payloadKey]Payload
}

type payloadKey struct {
	kind   string
	nodeID string
}

// Snapshot loads a capture for offline reads.
func (s *Store) Snapshot(ctx context.Context, captureID string) (*Snapshot, error) {
	c, err := s.ReadCapture(ctx, captureID)
	if err != nil {
		return nil, err
	}
	return NewSnapshot(c), nil
}

// NewSnapshot indexes the payloads of c.
func NewSnapshot(c Capture) *Snapshot {
	snap := &Snapshot{capture: c, payloads: make(map[payloadKey]Payload, len(c.Payloads))}
	for _, p := range c.Payloads {
		snap.payloads[payloadKey{p.Kind, p.NodeID}] = p
	}
	return snap
}

// Capture returns the capture header.
func (s *Snapshot) Capture() Capture {
	c := s.capture
	c.Payloads = nil
	return c
}

// WorkflowInstance returns the captured instance metadata.
func (s *Snapshot) WorkflowInstance(ctx context.Context, instanceID string) (any, error) {
	return s.read(ctx, elsa.OpWorkflowInstance, instanceID, "")
}

// Journal returns the captured journal page. The page argument is ignored;
// a capture holds exactly one page.
func (s *Snapshot) Journal(ctx context.Context, instanceID string, _ elsa.Page) (any, error) {
	return s.read(ctx, elsa.OpJournal, instanceID, "")
}

// ExecutionState returns the captured execution state.
func (s *Snapshot) ExecutionState(ctx context.Context, instanceID string) (any, error) {
	return s.read(ctx, elsa.OpExecutionState, instanceID, "")
}

// ActivitySummaries returns the captured summaries.
func (s *Snapshot) ActivitySummaries(ctx context.Context, instanceID string) (any, error) {
	return s.read(ctx, elsa.OpActivitySummaries, instanceID, "")
}

// ExecutionReport returns the captured execution report.
func (s *Snapshot) ExecutionReport(ctx context.Context, instanceID string) (any, error) {
	return s.read(ctx, elsa.OpExecutionReport, instanceID, "")
}

// ActivityExecutions returns the captured history of one node.
func (s *Snapshot) ActivityExecutions(ctx context.Context, instanceID, nodeID string) (any, error) {
	return s.read(ctx, elsa.OpActivityExecutions, instanceID, nodeID)
}

// WorkflowInstances returns the captured instance listing, if any.
func (s *Snapshot) WorkflowInstances(ctx context.Context, _ elsa.Page) (any, error) {
	return s.read(ctx, elsa.OpWorkflowInstances, s.capture.InstanceID, "")
}

func (s *Snapshot) read(ctx context.Context, kind, instanceID, nodeID string) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if instanceID != s.capture.InstanceID {
		return nil, fmt.Errorf("%s for instance %s: %w", kind, instanceID, ErrNotCaptured)
	}
	p, ok := s.payloads[payloadKey{kind, nodeID}]
	if !ok {
		return nil, fmt.Errorf("%s: %w", describe(kind, nodeID), ErrNotCaptured)
	}
	if p.Err != "" {
		return nil, &CapturedError{Kind: kind, Message: p.Err}
	}
	v, err := record.Decode(p.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", kind, err)
	}
	return v, nil
}

func describe(kind, nodeID string) string {
	if nodeID == "" {
		return kind
	}
	return kind + " for node " + nodeID
}

// CapturedError replays a fetch failure recorded at capture time.
type CapturedError struct {
	Kind    string
	Message string
}

func (e *CapturedError) Error() string {
	return e.Message
}
