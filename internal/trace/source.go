package trace

import (
	"context"

	"github.com/roach88/elsatrace/internal/elsa"
)

// Source is the read-only Elsa API surface the trace pipeline consumes.
// Every read returns the decoded JSON value as-is.
//
// *elsa.Client reads the live server; *store.Snapshot replays a capture.
type Source interface {
	WorkflowInstance(ctx context.Context, instanceID string) (any, error)
	Journal(ctx context.Context, instanceID string, page elsa.Page) (any, error)
	ExecutionState(ctx context.Context, instanceID string) (any, error)
	ActivitySummaries(ctx context.Context, instanceID string) (any, error)
	ExecutionReport(ctx context.Context, instanceID string) (any, error)
	ActivityExecutions(ctx context.Context, instanceID, nodeID string) (any, error)
	WorkflowInstances(ctx context.Context, page elsa.Page) (any, error)
}

var _ Source = (*elsa.Client)(nil)
