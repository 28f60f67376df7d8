package graph

import (
	"fmt"
	"time"

	"github.com/roach88/elsatrace/internal/record"
	"github.com/roach88/elsatrace/internal/status"
)

// Node is one activity node of a reconstructed trace.
type Node struct {
	ID          string        `json:"id"`  // reported activityNodeId, or node-<index>
	Key         string        `json:"key"` // unique render key within one graph
	Name        string        `json:"name"`
	Type        string        `json:"type,omitempty"`
	StartedAt   *time.Time    `json:"started_at,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	Status      status.Status `json:"status"`
	StatusLabel string        `json:"status_label"`
	Sequence    int           `json:"sequence"` // position in the summaries list
	Position    Position      `json:"position"`
	Summary     record.Record `json:"summary,omitempty"`
}

func newNode(index int, summary record.Record, stats map[string]record.Record) Node {
	id, ok := record.NonEmptyString(summary, record.NodeID)
	if !ok {
		id = fmt.Sprintf("node-%d", index)
	}

	name, ok := record.NonEmptyString(summary, record.ActivityName)
	if !ok {
		name, ok = record.NonEmptyString(summary, record.ActivityType)
	}
	if !ok {
		name = "Activity"
	}

	st := status.Classify(summary, stats[id])
	return Node{
		ID:          id,
		Key:         id,
		Name:        name,
		Type:        record.String(summary, record.ActivityType, ""),
		StartedAt:   record.TimePtr(summary, record.StartedAt),
		CompletedAt: record.TimePtr(summary, record.CompletedAt),
		Status:      st,
		StatusLabel: status.Label(st),
		Sequence:    index,
		Summary:     summary,
	}
}

// instant is the node's effective instant: start, else completion.
func (n *Node) instant() (time.Time, bool) {
	if n.StartedAt != nil {
		return *n.StartedAt, true
	}
	if n.CompletedAt != nil {
		return *n.CompletedAt, true
	}
	return time.Time{}, false
}

// anchor is the instant a successor is measured against: completion, else start.
func (n *Node) anchor() (time.Time, bool) {
	if n.CompletedAt != nil {
		return *n.CompletedAt, true
	}
	if n.StartedAt != nil {
		return *n.StartedAt, true
	}
	return time.Time{}, false
}

// TimeLabel renders the node's execution window as wall-clock time in loc
// (UTC when loc is nil): "15:04:05", or "15:04:05 → 15:04:07" once completed.
func (n *Node) TimeLabel(loc *time.Location) string {
	started := formatClock(n.StartedAt, loc)
	if n.CompletedAt == nil {
		return started
	}
	return started + " → " + formatClock(n.CompletedAt, loc)
}

func formatClock(t *time.Time, loc *time.Location) string {
	if t == nil {
		return "n/a"
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("15:04:05")
}
