package graph

import (
	"fmt"
	"time"

	"github.com/roach88/elsatrace/internal/chrono"
	"github.com/roach88/elsatrace/internal/record"
)

// Confidence qualifies how much evidence backs an inferred edge.
type Confidence string

const (
	High    Confidence = "high"
	Low     Confidence = "low"
	Unknown Confidence = "unknown"
)

// Edge is an inferred predecessor → successor relation.
type Edge struct {
	ID         string     `json:"id"`
	Source     string     `json:"source"` // node key
	Target     string     `json:"target"` // node key
	SourceID   string     `json:"source_id"`
	TargetID   string     `json:"target_id"`
	Confidence Confidence `json:"confidence"`
}

// Graph is the reconstructed execution graph of one workflow instance.
type Graph struct {
	Nodes []Node `json:"nodes"` // chronological order
	Edges []Edge `json:"edges"`

	byID  map[string]int
	byKey map[string]int
}

// Build reconstructs the graph from activity summaries and per-node
// statistics. Statistics are correlated by node id; when several share an id
// the last one wins.
func Build(summaries, stats []record.Record, opts ...Option) *Graph {
	o := newOptions(opts)

	statsByID := make(map[string]record.Record, len(stats))
	for _, stat := range stats {
		if id, ok := record.NonEmptyString(stat, record.NodeID); ok {
			statsByID[id] = stat
		}
	}

	nodes := make([]Node, len(summaries))
	for i, summary := range summaries {
		nodes[i] = newNode(i, summary, statsByID)
	}

	g := &Graph{
		Nodes: sortChronological(nodes),
		byID:  make(map[string]int, len(nodes)),
		byKey: make(map[string]int, len(nodes)),
	}
	g.assignKeys()
	layout(g.Nodes, o)
	g.Edges = inferEdges(g.Nodes)
	return g
}

// Lookup returns the node reported under id. When an id repeats, the last
// node in chronological order is returned.
func (g *Graph) Lookup(id string) (*Node, bool) {
	if g == nil {
		return nil, false
	}
	i, ok := g.byID[id]
	if !ok {
		return nil, false
	}
	return &g.Nodes[i], true
}

// ByKey returns the node with the given render key.
func (g *Graph) ByKey(key string) (*Node, bool) {
	if g == nil {
		return nil, false
	}
	i, ok := g.byKey[key]
	if !ok {
		return nil, false
	}
	return &g.Nodes[i], true
}

func sortChronological(nodes []Node) []Node {
	instants := make([]*time.Time, len(nodes))
	for i := range nodes {
		if at, ok := nodes[i].instant(); ok {
			instants[i] = &at
		}
	}

	order := chrono.Order(chrono.Keys(instants), false)
	sorted := make([]Node, len(nodes))
	for i, j := range order {
		sorted[i] = nodes[j]
	}
	return sorted
}

// assignKeys gives repeated ids a numeric suffix so no two nodes share a key,
// and indexes the graph by id and key.
func (g *Graph) assignKeys() {
	for i := range g.Nodes {
		n := &g.Nodes[i]
		key := n.ID
		for suffix := 2; ; suffix++ {
			if _, taken := g.byKey[key]; !taken {
				break
			}
			key = fmt.Sprintf("%s-%d", n.ID, suffix)
		}
		n.Key = key
		g.byKey[key] = i
		g.byID[n.ID] = i
	}
}

// inferEdges links every node after the first to its nearest preceding
// completion. nodes must be in chronological order.
func inferEdges(nodes []Node) []Edge {
	edges := make([]Edge, 0, max(len(nodes)-1, 0))
	taken := make(map[string]bool, len(nodes))

	for i := 1; i < len(nodes); i++ {
		current := &nodes[i]
		candidate := i - 1
		confidence := Unknown

		if start, ok := current.instant(); ok {
			var best time.Duration
			found := false
			for j := 0; j < i; j++ {
				prev, ok := nodes[j].anchor()
				if !ok {
					continue
				}
				gap := start.Sub(prev)
				if gap >= 0 && (!found || gap < best) {
					best = gap
					candidate = j
					found = true
				}
			}
			if found {
				confidence = High
			}
		} else {
			confidence = Low
		}

		source := &nodes[candidate]
		if source.Key == current.Key {
			continue
		}

		edges = append(edges, Edge{
			ID:         edgeID(source.ID, current.ID, taken),
			Source:     source.Key,
			Target:     current.Key,
			SourceID:   source.ID,
			TargetID:   current.ID,
			Confidence: confidence,
		})
	}
	return edges
}

func edgeID(source, target string, taken map[string]bool) string {
	base := fmt.Sprintf("edge-%s-%s", source, target)
	id := base
	for counter := 2; taken[id]; counter++ {
		id = fmt.Sprintf("%s-%d", base, counter)
	}
	taken[id] = true
	return id
}
