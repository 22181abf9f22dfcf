package history

import (
	"fmt"
	"sort"
	"strings"

	"github.com/efebarandurmaz/ontometer/internal/evaluation"
)

// MetricDelta is the change of one structural metric between two
// assessments.
type MetricDelta struct {
	Name  string  `json:"name"`
	Old   float64 `json:"old"`
	New   float64 `json:"new"`
	Delta float64 `json:"delta"`
}

// Comparison describes how an ontology changed between two assessments.
type Comparison struct {
	OldID   string        `json:"old_id"`
	NewID   string        `json:"new_id"`
	Metrics []MetricDelta `json:"metrics"`

	// Classes appearing in only one of the two subclass tallies.
	ClassesAdded   []string `json:"classes_added,omitempty"`
	ClassesRemoved []string `json:"classes_removed,omitempty"`

	ConsistencyChanged bool   `json:"consistency_changed"`
	OldGateStatus      string `json:"old_gate_status,omitempty"`
	NewGateStatus      string `json:"new_gate_status,omitempty"`
}

// Changed returns the metrics whose value differs.
func (c *Comparison) Changed() []MetricDelta {
	var out []MetricDelta
	for _, m := range c.Metrics {
		if m.Delta != 0 {
			out = append(out, m)
		}
	}
	return out
}

// Compare diffs the structural results of two assessments.
func Compare(prev, next *evaluation.Assessment) *Comparison {
	o, n := prev.Structural, next.Structural
	c := &Comparison{
		OldID:              prev.ID,
		NewID:              next.ID,
		ConsistencyChanged: prev.Consistency.Outcome != next.Consistency.Outcome,
		OldGateStatus:      gateStatus(prev),
		NewGateStatus:      gateStatus(next),
	}

	add := func(name string, ov, nv float64) {
		c.Metrics = append(c.Metrics, MetricDelta{Name: name, Old: ov, New: nv, Delta: nv - ov})
	}
	add("classes", float64(o.Classes), float64(n.Classes))
	add("object_properties", float64(o.ObjectProperties), float64(n.ObjectProperties))
	add("datatype_properties", float64(o.DatatypeProperties), float64(n.DatatypeProperties))
	add("subclass_edges", float64(o.SubclassEdges), float64(n.SubclassEdges))
	add("relationship_richness", o.RelationshipRichness, n.RelationshipRichness)
	add("inheritance_richness", o.InheritanceRichness, n.InheritanceRichness)
	add("inheritance_depth", float64(o.InheritanceDepth), float64(n.InheritanceDepth))
	add("roots", float64(o.Roots), float64(n.Roots))
	add("leaves", float64(o.Leaves), float64(n.Leaves))
	add("adit_ln", o.ADIT, n.ADIT)
	add("components", float64(o.Components), float64(n.Components))
	add("cycles", float64(len(o.Cycles)), float64(len(n.Cycles)))

	for name := range n.SubclassCounts {
		if _, ok := o.SubclassCounts[name]; !ok {
			c.ClassesAdded = append(c.ClassesAdded, name)
		}
	}
	for name := range o.SubclassCounts {
		if _, ok := n.SubclassCounts[name]; !ok {
			c.ClassesRemoved = append(c.ClassesRemoved, name)
		}
	}
	sort.Strings(c.ClassesAdded)
	sort.Strings(c.ClassesRemoved)
	return c
}

func gateStatus(a *evaluation.Assessment) string {
	if a.Gates == nil {
		return ""
	}
	return string(a.Gates.Status)
}

// String renders the comparison for terminals, listing only what changed.
func (c *Comparison) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Comparing %s -> %s\n", c.OldID, c.NewID)

	changed := c.Changed()
	if len(changed) == 0 && len(c.ClassesAdded) == 0 && len(c.ClassesRemoved) == 0 && !c.ConsistencyChanged {
		b.WriteString("No structural changes.\n")
	}
	for _, m := range changed {
		fmt.Fprintf(&b, "  %-22s %10g -> %-10g (%+g)\n", m.Name, m.Old, m.New, m.Delta)
	}
	if c.ConsistencyChanged {
		b.WriteString("  consistency changed\n")
	}
	if c.OldGateStatus != c.NewGateStatus {
		fmt.Fprintf(&b, "  gates: %s -> %s\n", orDash(c.OldGateStatus), orDash(c.NewGateStatus))
	}
	for _, name := range c.ClassesAdded {
		fmt.Fprintf(&b, "  + %s\n", name)
	}
	for _, name := range c.ClassesRemoved {
		fmt.Fprintf(&b, "  - %s\n", name)
	}
	return b.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
