package trace

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/roach88/elsatrace/internal/graph"
	"github.com/roach88/elsatrace/internal/record"
)

var (
	// ErrNoSelection is returned when a detail is requested without a node.
	ErrNoSelection = errors.New("no node selected")

	// ErrNodeNotFound is returned when a node id is in neither the graph nor
	// the timeline of the loaded view.
	ErrNodeNotFound = errors.New("node not found")
)

// Detail is the resolved view of one selected node.
type Detail struct {
	InstanceID string      `json:"instance_id"`
	NodeID     string      `json:"node_id"`
	Node       *graph.Node `json:"node,omitempty"` // nil when the node has no summary
	TypeLabel  string      `json:"type_label"`
	Executions any         `json:"executions,omitempty"`
	Error      string      `json:"error,omitempty"`

	// Shared is set when the executions came from a read issued for another
	// concurrent request.
	Shared bool `json:"-"`
}

// Resolver maps a selected node to its summary and fetches its execution
// history on demand. Concurrent requests for the same (instance, node) pair
// share one read; nothing is cached once the read returns.
type Resolver struct {
	src   Source
	group singleflight.Group
}

// NewResolver creates a resolver reading from src.
func NewResolver(src Source) *Resolver {
	return &Resolver{src: src}
}

// Resolve looks nodeID up in the view's graph and fetches its executions.
// A failed history read is reported in Detail.Error; only a missing instance
// or node id is returned as an error.
func (r *Resolver) Resolve(ctx context.Context, view *View, nodeID string) (*Detail, error) {
	if view == nil || view.InstanceID == "" {
		return nil, errors.New("resolve: no instance loaded")
	}
	if nodeID == "" {
		return nil, ErrNoSelection
	}

	d := &Detail{
		InstanceID: view.InstanceID,
		NodeID:     nodeID,
		TypeLabel:  "Unknown",
	}
	if node, ok := view.Graph().Lookup(nodeID); ok {
		d.Node = node
		d.TypeLabel = record.String(node.Summary, record.ActivityType, "Unknown")
	}

	data, shared, err := r.Executions(ctx, view.InstanceID, nodeID)
	d.Executions = data
	d.Shared = shared
	if err != nil {
		d.Error = err.Error()
	}
	return d, nil
}

// Executions reads the execution history of one node, joining an in-flight
// read for the same pair if there is one. The shared read runs detached from
// any single caller's cancellation; each caller stops waiting on its own ctx.
func (r *Resolver) Executions(ctx context.Context, instanceID, nodeID string) (any, bool, error) {
	key := instanceID + "\x00" + nodeID
	readCtx := context.WithoutCancel(ctx)
	ch := r.group.DoChan(key, func() (any, error) {
		slog.Debug("fetching node executions", "instance", instanceID, "node", nodeID)
		return r.src.ActivityExecutions(readCtx, instanceID, nodeID)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			slog.Warn("node executions failed", "instance", instanceID, "node", nodeID, "error", res.Err)
		}
		return res.Val, res.Shared, res.Err
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}
