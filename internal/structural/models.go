package structural

import "log/slog"

// Options configure Analyze.
type Options struct {
	// Logger receives per-class diagnostics at debug level. Nil discards.
	Logger *slog.Logger
}

// Result holds every structural metric computed for one graph.
type Result struct {
	Classes              int            `json:"classes"`
	ObjectProperties     int            `json:"object_properties"`
	DatatypeProperties   int            `json:"datatype_properties"`
	Properties           int            `json:"properties"`
	SubclassEdges        int            `json:"subclass_edges"`
	SubclassCounts       map[string]int `json:"subclass_counts,omitempty"`
	SubclassSum          int            `json:"subclass_sum"`
	SubclassMean         float64        `json:"subclass_mean"`
	RelationshipRichness float64        `json:"relationship_richness"`
	InheritanceRichness  float64        `json:"inheritance_richness"`
	InheritanceDepth     int            `json:"inheritance_depth"`
	Roots                int            `json:"roots"`
	Leaves               int            `json:"leaves"`
	ADIT                 float64        `json:"adit_ln"`
	ADITRaw              float64        `json:"adit_ln_raw"`
	ADITFallback         bool           `json:"adit_ln_fallback"`
	Components           int            `json:"components"`
	Cycles               [][]string     `json:"cycles,omitempty"`
}

// NodeKind classifies taxonomy nodes.
type NodeKind string

const (
	NodeClass      NodeKind = "class"      // declared owl:Class or rdfs:Class
	NodeReferenced NodeKind = "referenced" // only appears in rdfs:subClassOf
)

// Node is one class in an exported taxonomy.
type Node struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Kind     NodeKind `json:"kind"`
	Depth    int      `json:"depth"`
	Children int      `json:"children"`
	Root     bool     `json:"root,omitempty"`
	Leaf     bool     `json:"leaf,omitempty"`
}

// Edge points from a subclass to its parent.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Taxonomy is the exportable form of the class hierarchy.
type Taxonomy struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
	Stats Result `json:"stats"`
}
