// Package probe times a fixed battery of read queries against a graph.
package probe

import (
	"time"

	"github.com/efebarandurmaz/ontometer/internal/rdf"
)

// TripleSampleLimit bounds the third query.
const TripleSampleLimit = 100

// Query is one timed read.
type Query struct {
	Name string
	Run  func(g *rdf.Graph) int
}

// Battery is the fixed query set: all classes, all object properties, and
// up to TripleSampleLimit arbitrary triples.
var Battery = []Query{
	{
		Name: "classes",
		Run: func(g *rdf.Graph) int {
			return len(g.Match(nil, &rdf.RDFType, &rdf.OWLClass, 0))
		},
	},
	{
		Name: "object_properties",
		Run: func(g *rdf.Graph) int {
			return len(g.Match(nil, &rdf.RDFType, &rdf.OWLObjectProperty, 0))
		},
	},
	{
		Name: "triples",
		Run: func(g *rdf.Graph) int {
			return len(g.Match(nil, nil, nil, TripleSampleLimit))
		},
	},
}

// Timing is the measured duration of one query.
type Timing struct {
	Name     string        `json:"name"`
	Rows     int           `json:"rows"`
	Duration time.Duration `json:"duration"`
}

// RunBattery executes Battery in order and returns one timing per query.
// A nil graph still yields a timing for every query.
func RunBattery(g *rdf.Graph) []Timing {
	out := make([]Timing, 0, len(Battery))
	for _, q := range Battery {
		start := time.Now()
		rows := q.Run(g)
		d := time.Since(start)
		if d < 0 {
			d = 0
		}
		out = append(out, Timing{Name: q.Name, Rows: rows, Duration: d})
	}
	return out
}
