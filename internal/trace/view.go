package trace

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/roach88/elsatrace/internal/graph"
)

// State is the lifecycle of one loaded instance.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateError   State = "error"
)

// Label is the capitalized form shown in status lines.
func (s State) Label() string {
	switch s {
	case StateLoading:
		return "Loading..."
	case StateReady:
		return "Ready"
	case StateError:
		return "Error"
	default:
		return "Idle"
	}
}

// View is everything known about one instance after a load. Partial data
// is kept even in the error state.
type View struct {
	InstanceID     string          `json:"instance_id"`
	State          State           `json:"state"`
	Error          string          `json:"error,omitempty"`
	Instance       any             `json:"instance,omitempty"`
	ExecutionState any             `json:"execution_state,omitempty"`
	Reconstruction *Reconstruction `json:"reconstruction,omitempty"`

	fetched *Fetched
}

// Fetched returns the raw panels behind the view, or nil for an idle view.
func (v *View) Fetched() *Fetched {
	if v == nil {
		return nil
	}
	return v.fetched
}

// Graph returns the reconstructed graph, or nil.
func (v *View) Graph() *graph.Graph {
	if v == nil || v.Reconstruction == nil {
		return nil
	}
	return v.Reconstruction.Graph
}

// LoadOptions tunes Load.
type LoadOptions struct {
	Fetch FetchOptions
	Graph []graph.Option
}

// Load fetches and reconstructs one instance. A blank id yields an idle
// view without touching src.
func Load(ctx context.Context, src Source, instanceID string, opts LoadOptions) *View {
	instanceID = strings.TrimSpace(instanceID)
	if instanceID == "" {
		return &View{State: StateIdle}
	}

	start := time.Now()
	slog.Info("loading instance", "instance", instanceID)

	f := Fetch(ctx, src, instanceID, opts.Fetch)
	v := &View{
		InstanceID:     instanceID,
		State:          StateReady,
		Instance:       f.Instance.Data,
		ExecutionState: f.ExecutionState.Data,
		Reconstruction: ReconstructFetched(f, opts.Graph...),
		fetched:        f,
	}
	if err := f.FirstError(); err != nil {
		v.State = StateError
		v.Error = err.Error()
	}

	slog.Info("instance loaded",
		"instance", instanceID,
		"state", v.State,
		"nodes", len(v.Reconstruction.Graph.Nodes),
		"edges", len(v.Reconstruction.Graph.Edges),
		"events", len(v.Reconstruction.Timeline),
		"duration", time.Since(start),
	)
	return v
}
