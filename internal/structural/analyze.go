// Package structural computes class hierarchy and richness metrics over an
// RDF graph. Every function here is a pure read of the graph.
package structural

import (
	"context"
	"io"
	"log/slog"

	"github.com/efebarandurmaz/ontometer/internal/rdf"
)

// Analyze computes the structural metrics of g. A nil or empty graph yields
// a zero Result.
func Analyze(g *rdf.Graph, opts Options) Result {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var r Result
	if g.Len() == 0 {
		return r
	}

	// 1. Properties and richness inputs
	r.ObjectProperties = len(ObjectProperties(g))
	r.DatatypeProperties = len(DatatypeProperties(g))
	r.Properties = r.ObjectProperties + r.DatatypeProperties
	r.SubclassEdges = SubclassEdgeCount(g)

	// 2. Hierarchy
	h := NewHierarchy(g)
	r.Classes = h.Len()
	counts, sum, mean := h.SubclassCounts()
	r.SubclassCounts = make(map[string]int, len(counts))
	debug := logger.Enabled(context.Background(), slog.LevelDebug)
	for i, n := range counts {
		r.SubclassCounts[h.Class(i).Value] = n
		if debug {
			logger.Debug("subclass count", "class", h.Class(i).Value, "count", n)
		}
	}
	r.SubclassSum = sum
	r.SubclassMean = mean
	r.InheritanceDepth = h.MaxDepth()
	r.Roots, r.Leaves = h.RootsAndLeaves()
	r.Components = h.Components()
	r.Cycles = h.Cycles()
	if len(r.Cycles) > 0 {
		logger.Warn("subclass cycles detected", "count", len(r.Cycles))
	}

	// 3. Richness
	r.RelationshipRichness = RelationshipRichness(r.ObjectProperties, r.DatatypeProperties, r.SubclassEdges)
	r.InheritanceRichness = InheritanceRichness(r.SubclassSum, r.Classes)

	// 4. Average depth of leaf paths, with the degenerate-case substitution
	r.ADITRaw = h.AverageLeafDepth()
	r.ADIT, r.ADITFallback = DegenerateADITFallback(r.ADITRaw, r.SubclassMean)
	if r.ADITFallback {
		logger.Debug("adit-ln degenerate, using subclass mean", "raw", r.ADITRaw, "value", r.ADIT)
	}

	return r
}

// BuildTaxonomy returns the hierarchy of g as nodes, child-to-parent edges
// and the metrics of Analyze.
func BuildTaxonomy(g *rdf.Graph, opts Options) *Taxonomy {
	t := &Taxonomy{Stats: Analyze(g, opts)}
	if g.Len() == 0 {
		return t
	}
	h := NewHierarchy(g)
	depths := h.Depths()
	for i, term := range h.nodes {
		n := Node{
			ID:       term.Value,
			Name:     term.LocalName(),
			Kind:     NodeReferenced,
			Depth:    depths[i],
			Children: len(h.children[i]),
		}
		if h.Declared(i) {
			n.Kind = NodeClass
			n.Root = h.IsRoot(i)
			n.Leaf = h.IsLeaf(i)
		}
		t.Nodes = append(t.Nodes, n)
		for _, p := range h.parents[i] {
			t.Edges = append(t.Edges, Edge{From: term.Value, To: h.nodes[p].Value})
		}
	}
	return t
}
