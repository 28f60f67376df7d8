// Package timeline merges the raw execution journal with node annotations
// from the reconstructed graph into one reverse-chronological feed.
package timeline

import (
	"time"

	"github.com/roach88/elsatrace/internal/chrono"
	"github.com/roach88/elsatrace/internal/graph"
	"github.com/roach88/elsatrace/internal/record"
	"github.com/roach88/elsatrace/internal/status"
)

// NodeLookup resolves a reported activity node id. *graph.Graph satisfies it.
type NodeLookup interface {
	Lookup(id string) (*graph.Node, bool)
}

var _ NodeLookup = (*graph.Graph)(nil)

// Activity is the node annotation attached to a journal entry.
type Activity struct {
	Name        string        `json:"name"`
	Type        string        `json:"type"`
	Status      status.Status `json:"status,omitempty"`
	StatusLabel string        `json:"status_label"`
}

// Entry is one decorated journal event.
type Entry struct {
	Index     int           `json:"index"` // position in the journal as fetched
	EventName string        `json:"event_name"`
	Timestamp *time.Time    `json:"timestamp,omitempty"`
	NodeID    string        `json:"node_id,omitempty"`
	Activity  *Activity     `json:"activity,omitempty"`
	Raw       record.Record `json:"raw,omitempty"`
}

// Merge decorates journal entries and sorts them newest first. Entries
// without a timestamp are placed with the synthetic-key rule of package
// chrono; ties break by descending journal index.
func Merge(journal []record.Record, nodes NodeLookup) []Entry {
	entries := make([]Entry, len(journal))
	instants := make([]*time.Time, len(journal))

	for i, item := range journal {
		entries[i] = decorate(i, item, nodes)
		instants[i] = entries[i].Timestamp
	}

	order := chrono.Order(chrono.Keys(instants), true)
	sorted := make([]Entry, len(entries))
	for i, j := range order {
		sorted[i] = entries[j]
	}
	return sorted
}

// Filter returns the entries that reference nodeID, preserving order.
func Filter(entries []Entry, nodeID string) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.NodeID == nodeID {
			out = append(out, e)
		}
	}
	return out
}

func decorate(index int, item record.Record, nodes NodeLookup) Entry {
	name, ok := record.NonEmptyString(item, record.EventName)
	if !ok {
		name, ok = record.NonEmptyString(item, record.Name)
	}
	if !ok {
		name = "Event"
	}

	entry := Entry{
		Index:     index,
		EventName: name,
		Raw:       item,
	}
	if ts, ok := record.FirstTime(item, record.Timestamp, record.CreatedAt, record.ExecutedAt); ok {
		entry.Timestamp = &ts
	}

	nodeID, ok := record.NonEmptyString(item, record.NodeID)
	if !ok {
		return entry
	}
	entry.NodeID = nodeID
	entry.Activity = annotate(item, nodeID, nodes)
	return entry
}

// annotate resolves the activity for a journal entry. Fields fall back from
// the resolved node to its summary (or the entry itself when the node is
// unknown) and finally to fixed literals.
func annotate(item record.Record, nodeID string, nodes NodeLookup) *Activity {
	var node *graph.Node
	if nodes != nil {
		node, _ = nodes.Lookup(nodeID)
	}

	source := item
	if node != nil && node.Summary != nil {
		source = node.Summary
	}

	a := &Activity{
		Type:        record.String(source, record.ActivityType, "Unknown"),
		StatusLabel: "Unknown",
	}

	if node != nil {
		a.Name = node.Name
	} else if name, ok := record.NonEmptyString(source, record.ActivityName); ok {
		a.Name = name
	} else if name, ok := record.NonEmptyString(source, record.ActivityType); ok {
		a.Name = name
	} else {
		a.Name = "Activity"
	}

	if node != nil {
		a.Status = node.Status
		a.StatusLabel = node.StatusLabel
		return a
	}
	if raw, ok := record.NonEmptyString(source, record.Status); ok {
		a.Status = status.Status(raw)
		a.StatusLabel = status.Capitalize(raw)
	}
	return a
}
