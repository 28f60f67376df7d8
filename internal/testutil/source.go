package testutil

import (
	"context"
	"net/http"
	"sync"

	"github.com/roach88/elsatrace/internal/elsa"
)

// Payloads is the scripted API content of one workflow instance.
type Payloads struct {
	Instance       any
	Journal        any
	ExecutionState any
	Summaries      any
	Report         any
	Executions     map[string]any // by activity node id

	// Errors fails reads by elsa operation name (elsa.OpJournal, ...).
	Errors map[string]error
}

// Hook runs before a read is answered. It may block to hold the read in
// flight; it should honor ctx.
type Hook func(ctx context.Context, op, instanceID, nodeID string)

// FakeSource answers trace.Source reads from scripted payloads and counts
// every call. Unknown instances answer with an Elsa 404.
//
// Thread-safety: FakeSource is safe for concurrent use via internal mutex.
type FakeSource struct {
	mu         sync.Mutex
	instances  map[string]Payloads
	listing    any
	listingErr error
	calls      map[string]int
	hook       Hook
}

// NewFakeSource creates an empty source.
func NewFakeSource() *FakeSource {
	return &FakeSource{
		instances: map[string]Payloads{},
		calls:     map[string]int{},
	}
}

// Set scripts the payloads of one instance.
func (f *FakeSource) Set(instanceID string, p Payloads) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.instances[instanceID] = p
}

// SetListing scripts the instance listing.
func (f *FakeSource) SetListing(v any, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listing, f.listingErr = v, err
}

// SetHook installs a hook run before every read.
func (f *FakeSource) SetHook(h Hook) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hook = h
}

// Calls returns how many times op was read.
func (f *FakeSource) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *FakeSource) WorkflowInstance(ctx context.Context, instanceID string) (any, error) {
	return f.read(ctx, elsa.OpWorkflowInstance, instanceID, "", func(p Payloads) any { return p.Instance })
}

func (f *FakeSource) Journal(ctx context.Context, instanceID string, _ elsa.Page) (any, error) {
	return f.read(ctx, elsa.OpJournal, instanceID, "", func(p Payloads) any { return p.Journal })
}

func (f *FakeSource) ExecutionState(ctx context.Context, instanceID string) (any, error) {
	return f.read(ctx, elsa.OpExecutionState, instanceID, "", func(p Payloads) any { return p.ExecutionState })
}

func (f *FakeSource) ActivitySummaries(ctx context.Context, instanceID string) (any, error) {
	return f.read(ctx, elsa.OpActivitySummaries, instanceID, "", func(p Payloads) any { return p.Summaries })
}

func (f *FakeSource) ExecutionReport(ctx context.Context, instanceID string) (any, error) {
	return f.read(ctx, elsa.OpExecutionReport, instanceID, "", func(p Payloads) any { return p.Report })
}

func (f *FakeSource) ActivityExecutions(ctx context.Context, instanceID, nodeID string) (any, error) {
	return f.read(ctx, elsa.OpActivityExecutions, instanceID, nodeID, func(p Payloads) any {
		if v, ok := p.Executions[nodeID]; ok {
			return v
		}
		return []any{}
	})
}

func (f *FakeSource) WorkflowInstances(ctx context.Context, _ elsa.Page) (any, error) {
	f.mu.Lock()
	f.calls[elsa.OpWorkflowInstances]++
	hook := f.hook
	f.mu.Unlock()

	if hook != nil {
		hook(ctx, elsa.OpWorkflowInstances, "", "")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listing, f.listingErr
}

func (f *FakeSource) read(ctx context.Context, op, instanceID, nodeID string, pick func(Payloads) any) (any, error) {
	f.mu.Lock()
	f.calls[op]++
	hook := f.hook
	f.mu.Unlock()

	if hook != nil {
		hook(ctx, op, instanceID, nodeID)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.instances[instanceID]
	if !ok {
		return nil, &elsa.APIError{StatusCode: http.StatusNotFound, Status: "404 Not Found"}
	}
	if err := p.Errors[op]; err != nil {
		return nil, err
	}
	return pick(p), nil
}
