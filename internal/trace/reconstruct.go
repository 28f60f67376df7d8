package trace

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"

	"github.com/roach88/elsatrace/internal/graph"
	"github.com/roach88/elsatrace/internal/record"
	"github.com/roach88/elsatrace/internal/timeline"
)

// DomainReconstruction prefixes the fingerprint hash. The version suffix
// changes whenever the serialized shape of a reconstruction does.
const DomainReconstruction = "elsatrace/reconstruction/v1"

// Reconstruction is the graph and timeline derived from one set of payloads.
type Reconstruction struct {
	Graph       *graph.Graph     `json:"graph"`
	Timeline    []timeline.Entry `json:"timeline"`
	Fingerprint string           `json:"fingerprint"`
}

// Reconstruct builds the graph from summaries and the report's per-node
// stats, then merges the journal against it. Any argument may be nil or
// malformed; absent data yields an empty graph or timeline, never an error.
func Reconstruct(summaries, report, journal any, opts ...graph.Option) *Reconstruction {
	var stats []record.Record
	if v, ok := record.LookupFold(record.AsRecord(report), record.Stats); ok {
		stats = record.List(v)
	}

	g := graph.Build(record.List(summaries), stats, opts...)
	r := &Reconstruction{
		Graph:    g,
		Timeline: timeline.Merge(record.List(journal), g),
	}
	r.Fingerprint = fingerprint(r)
	return r
}

// ReconstructFetched reconstructs from a completed fetch. Failed panels
// contribute nothing.
func ReconstructFetched(f *Fetched, opts ...graph.Option) *Reconstruction {
	return Reconstruct(f.Summaries.Data, f.Report.Data, f.Journal.Data, opts...)
}

// fingerprint hashes the serialized reconstruction with domain separation.
// Format: hex(SHA256(domain + 0x00 + json)).
func fingerprint(r *Reconstruction) string {
	data, err := json.Marshal(struct {
		Nodes    []graph.Node     `json:"nodes"`
		Edges    []graph.Edge     `json:"edges"`
		Timeline []timeline.Entry `json:"timeline"`
	}{r.Graph.Nodes, r.Graph.Edges, r.Timeline})
	if err != nil {
		slog.Warn("fingerprint skipped", "error", err)
		return ""
	}

	h := sha256.New()
	h.Write([]byte(DomainReconstruction))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
