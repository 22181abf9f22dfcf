package structural

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ExportDOT generates a Graphviz DOT representation of the taxonomy, with
// edges drawn from parent to child.
func ExportDOT(t *Taxonomy) string {
	var b strings.Builder
	b.WriteString("digraph taxonomy {\n")
	b.WriteString("  rankdir=TB;\n")
	b.WriteString("  node [fontname=\"Helvetica\"];\n")
	b.WriteString("  edge [fontname=\"Helvetica\" fontsize=10];\n\n")

	for _, n := range t.Nodes {
		b.WriteString(fmt.Sprintf("  \"%s\" [label=\"%s\" shape=%s style=filled fillcolor=\"%s\"];\n",
			n.ID, n.Name, nodeShape(n), nodeColor(n)))
	}
	if len(t.Nodes) > 0 {
		b.WriteString("\n")
	}

	for _, e := range t.Edges {
		b.WriteString(fmt.Sprintf("  \"%s\" -> \"%s\";\n", e.To, e.From))
	}

	b.WriteString("}\n")
	return b.String()
}

// ExportMermaid generates a Mermaid flowchart of the taxonomy.
func ExportMermaid(t *Taxonomy) string {
	var b strings.Builder
	b.WriteString("graph TD\n")

	for _, n := range t.Nodes {
		b.WriteString(fmt.Sprintf("  %s%s\n", sanitizeMermaidID(n.ID), mermaidNodeShape(n)))
	}
	for _, e := range t.Edges {
		b.WriteString(fmt.Sprintf("  %s --> %s\n", sanitizeMermaidID(e.To), sanitizeMermaidID(e.From)))
	}

	return b.String()
}

// ExportJSON serializes the taxonomy to JSON.
func ExportJSON(t *Taxonomy) ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// FormatStats returns a human-readable summary of the taxonomy metrics.
func FormatStats(r Result) string {
	var b strings.Builder
	b.WriteString("Class Hierarchy Statistics\n")
	b.WriteString("==========================\n\n")
	b.WriteString(fmt.Sprintf("Classes:     %d\n", r.Classes))
	b.WriteString(fmt.Sprintf("  Roots:     %d\n", r.Roots))
	b.WriteString(fmt.Sprintf("  Leaves:    %d\n", r.Leaves))
	b.WriteString(fmt.Sprintf("Properties:  %d (%d object, %d datatype)\n",
		r.Properties, r.ObjectProperties, r.DatatypeProperties))
	b.WriteString(fmt.Sprintf("Subclassing: %d edges\n", r.SubclassEdges))
	b.WriteString(fmt.Sprintf("Max Depth:   %d\n", r.InheritanceDepth))
	b.WriteString(fmt.Sprintf("Components:  %d\n", r.Components))

	if len(r.Cycles) > 0 {
		b.WriteString(fmt.Sprintf("\nSubclass Cycles: %d\n", len(r.Cycles)))
		for i, cycle := range r.Cycles {
			b.WriteString(fmt.Sprintf("  %d: %s\n", i+1, strings.Join(cycle, " -> ")))
		}
	}

	if len(r.SubclassCounts) > 0 {
		b.WriteString("\nSubclasses per class:\n")
		names := make([]string, 0, len(r.SubclassCounts))
		for name := range r.SubclassCounts {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			b.WriteString(fmt.Sprintf("  %s: %d\n", name, r.SubclassCounts[name]))
		}
	}

	return b.String()
}

func sanitizeMermaidID(s string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			return r
		}
		return '_'
	}, s)
}

func nodeShape(n Node) string {
	switch {
	case n.Kind == NodeReferenced:
		return "note"
	case n.Root:
		return "box3d"
	case n.Leaf:
		return "ellipse"
	default:
		return "box"
	}
}

func nodeColor(n Node) string {
	switch {
	case n.Kind == NodeReferenced:
		return "#30363d"
	case n.Root:
		return "#1f6feb"
	case n.Leaf:
		return "#238636"
	default:
		return "#8957e5"
	}
}

func mermaidNodeShape(n Node) string {
	switch {
	case n.Kind == NodeReferenced:
		return fmt.Sprintf("{{\"%s\"}}", n.Name)
	case n.Root:
		return fmt.Sprintf("[[\"%s\"]]", n.Name)
	case n.Leaf:
		return fmt.Sprintf("([\"%s\"])", n.Name)
	default:
		return fmt.Sprintf("[\"%s\"]", n.Name)
	}
}
