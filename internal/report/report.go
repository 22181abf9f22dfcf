// Package report assembles evaluation results into the fixed, ordered
// metrics report.
package report

import (
	"encoding/json"
	"fmt"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"

	"github.com/efebarandurmaz/ontometer/internal/probe"
	"github.com/efebarandurmaz/ontometer/internal/reasoner"
	"github.com/efebarandurmaz/ontometer/internal/structural"
)

// Report keys, in output order.
const (
	KeyRelationshipRichness = "Relationship Richness"
	KeyInheritanceRichness  = "Inheritance Richness"
	KeySubclassSum          = "Sum of the number of subclasses"
	KeySubclassMean         = "Average number of subclasses per class"
	KeyInheritanceDepth     = "Inheritance Depth"
	KeyObjectProperties     = "Number of object properties"
	KeyDatatypeProperties   = "Number of datatype properties"
	KeyTotalProperties      = "Total number of relationships (properties)"
	KeyRoots                = "Number of Roots (NoR)"
	KeyLeaves               = "Number of Leaves (NoL)"
	KeyADIT                 = "Average Depth of Inheritance Tree of Leaf Nodes (ADIT-LN)"
	KeyConsistency          = "Consistency"
	KeyLoadTime             = "Time to load ontology"
	KeyReasoningTime        = "Time to perform reasoning"
	KeyQuery1               = "Time to execute query 1"
	KeyQuery2               = "Time to execute query 2"
	KeyQuery3               = "Time to execute query 3"
)

// Keys lists every report key in order.
var Keys = []string{
	KeyRelationshipRichness, KeyInheritanceRichness, KeySubclassSum, KeySubclassMean,
	KeyInheritanceDepth, KeyObjectProperties, KeyDatatypeProperties, KeyTotalProperties,
	KeyRoots, KeyLeaves, KeyADIT, KeyConsistency,
	KeyLoadTime, KeyReasoningTime, KeyQuery1, KeyQuery2, KeyQuery3,
}

// QueryCount is the fixed number of query timing entries.
const QueryCount = 3

// Inputs are the computed results a report is built from.
type Inputs struct {
	Structural  structural.Result
	Consistency reasoner.Result
	LoadTime    time.Duration
	Queries     []probe.Timing
}

// Report is an immutable ordered mapping of metric names to values.
type Report struct {
	m *orderedmap.OrderedMap[string, any]
}

// Build formats in into a report. Missing inputs become zero values, so
// every key is always present.
func Build(in Inputs) *Report {
	s := in.Structural
	m := orderedmap.New[string, any]()
	m.Set(KeyRelationshipRichness, Percent(s.RelationshipRichness))
	m.Set(KeyInheritanceRichness, Percent(s.InheritanceRichness))
	m.Set(KeySubclassSum, s.SubclassSum)
	m.Set(KeySubclassMean, s.SubclassMean)
	m.Set(KeyInheritanceDepth, s.InheritanceDepth)
	m.Set(KeyObjectProperties, s.ObjectProperties)
	m.Set(KeyDatatypeProperties, s.DatatypeProperties)
	m.Set(KeyTotalProperties, s.ObjectProperties+s.DatatypeProperties)
	m.Set(KeyRoots, s.Roots)
	m.Set(KeyLeaves, s.Leaves)
	m.Set(KeyADIT, Percent(s.ADIT))
	m.Set(KeyConsistency, in.Consistency.Scalar())
	m.Set(KeyLoadTime, Seconds(in.LoadTime))
	m.Set(KeyReasoningTime, Seconds(in.Consistency.ReportedDuration()))
	for i, key := range []string{KeyQuery1, KeyQuery2, KeyQuery3} {
		var d time.Duration
		if i < len(in.Queries) {
			d = in.Queries[i].Duration
		}
		m.Set(key, PreciseSeconds(d))
	}
	return &Report{m: m}
}

// Empty returns the all-default report.
func Empty() *Report { return Build(Inputs{}) }

// Percent formats v with two decimals and a percent sign.
func Percent(v float64) string { return fmt.Sprintf("%.2f%%", v) }

// Seconds formats d with four decimals.
func Seconds(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.4f seconds", d.Seconds())
}

// PreciseSeconds formats d with eight decimals, for sub-millisecond timers.
func PreciseSeconds(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.8f seconds", d.Seconds())
}

// Get returns the value stored under key.
func (r *Report) Get(key string) (any, bool) {
	if r == nil || r.m == nil {
		return nil, false
	}
	return r.m.Get(key)
}

// Len returns the number of entries.
func (r *Report) Len() int {
	if r == nil || r.m == nil {
		return 0
	}
	return r.m.Len()
}

// Each calls fn for every entry in order.
func (r *Report) Each(fn func(key string, value any)) {
	if r == nil || r.m == nil {
		return
	}
	for pair := r.m.Oldest(); pair != nil; pair = pair.Next() {
		fn(pair.Key, pair.Value)
	}
}

// Map returns a copy of the entries as a plain map.
func (r *Report) Map() map[string]any {
	out := make(map[string]any, r.Len())
	r.Each(func(k string, v any) { out[k] = v })
	return out
}

// MarshalJSON writes the entries as an object in report order.
func (r *Report) MarshalJSON() ([]byte, error) {
	if r == nil || r.m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(r.m)
}

// UnmarshalJSON restores a report, keeping key order as stored.
func (r *Report) UnmarshalJSON(data []byte) error {
	m := orderedmap.New[string, any]()
	if err := json.Unmarshal(data, m); err != nil {
		return err
	}
	r.m = m
	return nil
}

// MarshalYAML writes the entries as a mapping in report order.
func (r *Report) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	var err error
	r.Each(func(k string, v any) {
		if err != nil {
			return
		}
		var val yaml.Node
		if encErr := val.Encode(v); encErr != nil {
			err = encErr
			return
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
			&val,
		)
	})
	if err != nil {
		return nil, err
	}
	return node, nil
}
