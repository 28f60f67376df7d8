package trace

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/elsatrace/internal/timeline"
)

var (
	// ErrSuperseded is returned for a result whose instance was replaced
	// while the read was in flight.
	ErrSuperseded = errors.New("superseded by a newer instance")

	// ErrNoInstance is returned when an operation needs a loaded instance.
	ErrNoInstance = errors.New("no instance selected")
)

// IDGenerator produces session ids.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable session ids.
type UUIDv7Generator struct{}

// Generate returns a new hyphenated UUIDv7.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Selection is the transient browsing state of a session.
type Selection struct {
	SessionID  string `json:"session_id"`
	InstanceID string `json:"instance_id,omitempty"`
	NodeID     string `json:"node_id,omitempty"`
	Generation uint64 `json:"generation"`
}

// SessionOptions configures a Session. Zero values select defaults.
type SessionOptions struct {
	IDs  IDGenerator
	Load LoadOptions
}

// Session is the single owner of the selected instance and node. Every
// reconstruction it triggers is pure; the session only decides which result
// is current.
//
// Thread-safety: all methods are safe for concurrent use.
type Session struct {
	id       string
	src      Source
	resolver *Resolver
	opts     LoadOptions

	mu         sync.Mutex
	generation uint64
	instanceID string
	nodeID     string
	view       *View
}

// NewSession creates an idle session over src.
func NewSession(src Source, opts SessionOptions) *Session {
	if opts.IDs == nil {
		opts.IDs = UUIDv7Generator{}
	}
	return &Session{
		id:       opts.IDs.Generate(),
		src:      src,
		resolver: NewResolver(src),
		opts:     opts.Load,
		view:     &View{State: StateIdle},
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Open makes instanceID current and clears the node selection. Any load in
// flight for the previous instance is superseded. Opening a blank id is an
// error and leaves the session unchanged.
func (s *Session) Open(instanceID string) error {
	instanceID = strings.TrimSpace(instanceID)
	if instanceID == "" {
		return ErrNoInstance
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.instanceID = instanceID
	s.nodeID = ""
	s.view = &View{InstanceID: instanceID, State: StateLoading}
	return nil
}

// Load fetches and reconstructs the current instance. The result becomes
// current only if no other instance was opened meanwhile; otherwise it is
// discarded and ErrSuperseded returned. Reloading the same instance is
// always safe and yields an identical reconstruction for unchanged data.
func (s *Session) Load(ctx context.Context) (*View, error) {
	s.mu.Lock()
	gen, instanceID := s.generation, s.instanceID
	s.mu.Unlock()

	if instanceID == "" {
		return nil, ErrNoInstance
	}

	v := Load(ctx, s.src, instanceID, s.opts)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return nil, ErrSuperseded
	}
	s.view = v
	return v, nil
}

// View returns the current view.
func (s *Session) View() *View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Select marks nodeID as selected. The id must name a graph node or be
// referenced by a timeline entry of the current view.
func (s *Session) Select(nodeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.instanceID == "" {
		return ErrNoInstance
	}
	if !references(s.view, nodeID) {
		return ErrNodeNotFound
	}
	s.nodeID = nodeID
	return nil
}

// ClearSelection deselects the node, keeping the instance.
func (s *Session) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodeID = ""
}

// Selection returns a copy of the browsing state.
func (s *Session) Selection() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Selection{
		SessionID:  s.id,
		InstanceID: s.instanceID,
		NodeID:     s.nodeID,
		Generation: s.generation,
	}
}

// Detail resolves the selected node. Like Load, a result that outlives its
// instance is discarded with ErrSuperseded.
func (s *Session) Detail(ctx context.Context) (*Detail, error) {
	s.mu.Lock()
	gen, view, nodeID := s.generation, s.view, s.nodeID
	s.mu.Unlock()

	if nodeID == "" {
		return nil, ErrNoSelection
	}

	d, err := s.resolver.Resolve(ctx, view, nodeID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return nil, ErrSuperseded
	}
	return d, nil
}

func references(v *View, nodeID string) bool {
	if nodeID == "" || v == nil || v.Reconstruction == nil {
		return false
	}
	if _, ok := v.Graph().Lookup(nodeID); ok {
		return true
	}
	return len(timeline.Filter(v.Reconstruction.Timeline, nodeID)) > 0
}
