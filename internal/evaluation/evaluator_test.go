package evaluation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efebarandurmaz/ontometer/internal/observability"
	"github.com/efebarandurmaz/ontometer/internal/rdf"
	"github.com/efebarandurmaz/ontometer/internal/reasoner"
	"github.com/efebarandurmaz/ontometer/internal/report"
)

const ns = "http://example.org/onto#"

func iri(local string) rdf.Term { return rdf.IRI(ns + local) }

// chainGraph declares A <- B <- C with one object and one datatype property.
func chainGraph() *rdf.Graph {
	g := rdf.NewGraph()
	for _, c := range []string{"A", "B", "C"} {
		g.AddSPO(iri(c), rdf.RDFType, rdf.OWLClass)
	}
	g.AddSPO(iri("B"), rdf.RDFSSubClassOf, iri("A"))
	g.AddSPO(iri("C"), rdf.RDFSSubClassOf, iri("B"))
	g.AddSPO(iri("relatesTo"), rdf.RDFType, rdf.OWLObjectProperty)
	g.AddSPO(iri("label"), rdf.RDFType, rdf.OWLDatatypeProperty)
	return g
}

type failingReasoner struct{}

func (failingReasoner) Name() string { return "failing" }
func (failingReasoner) Check(context.Context, *rdf.Graph) (reasoner.Verdict, error) {
	return reasoner.Verdict{}, errors.New("reasoner crashed")
}

func get(t *testing.T, r *report.Report, key string) any {
	t.Helper()
	v, ok := r.Get(key)
	require.True(t, ok, "missing key %q", key)
	return v
}

func TestEvaluate_Chain(t *testing.T) {
	m := observability.NewMetrics()
	ev := NewEvaluator(Options{Metrics: m}).Evaluate(context.Background(), chainGraph(), 250*time.Millisecond)

	require.NotNil(t, ev.Report)
	assert.Equal(t, len(report.Keys), ev.Report.Len())
	assert.Equal(t, "50.00%", get(t, ev.Report, report.KeyRelationshipRichness))
	assert.Equal(t, "66.67%", get(t, ev.Report, report.KeyInheritanceRichness))
	assert.Equal(t, 2, get(t, ev.Report, report.KeySubclassSum))
	assert.Equal(t, 3, get(t, ev.Report, report.KeyInheritanceDepth))
	assert.Equal(t, 1, get(t, ev.Report, report.KeyObjectProperties))
	assert.Equal(t, 1, get(t, ev.Report, report.KeyDatatypeProperties))
	assert.Equal(t, 2, get(t, ev.Report, report.KeyTotalProperties))
	assert.Equal(t, 1, get(t, ev.Report, report.KeyRoots))
	assert.Equal(t, 1, get(t, ev.Report, report.KeyLeaves))
	assert.Equal(t, "200.00%", get(t, ev.Report, report.KeyADIT))
	assert.Equal(t, 1, get(t, ev.Report, report.KeyConsistency))
	assert.Equal(t, "0.2500 seconds", get(t, ev.Report, report.KeyLoadTime))

	assert.Equal(t, reasoner.Consistent, ev.Consistency.Outcome)
	assert.Len(t, ev.Queries, report.QueryCount)
	for _, q := range ev.Queries {
		assert.GreaterOrEqual(t, q.Duration, time.Duration(0))
	}
}

func TestEvaluate_ReasonerFailureCollapses(t *testing.T) {
	ev := NewEvaluator(Options{Reasoner: failingReasoner{}}).Evaluate(context.Background(), chainGraph(), 0)

	assert.Equal(t, reasoner.CheckFailed, ev.Consistency.Outcome)
	assert.Error(t, ev.Consistency.Err)
	assert.Equal(t, 0, get(t, ev.Report, report.KeyConsistency))
	assert.Equal(t, "0.0000 seconds", get(t, ev.Report, report.KeyReasoningTime))
	// Structural metrics are unaffected.
	assert.Equal(t, 3, get(t, ev.Report, report.KeyInheritanceDepth))
}

func TestEvaluate_EmptyAndNilGraph(t *testing.T) {
	e := NewEvaluator(Options{})
	for name, g := range map[string]*rdf.Graph{"nil": nil, "empty": rdf.NewGraph()} {
		t.Run(name, func(t *testing.T) {
			ev := e.Evaluate(context.Background(), g, 0)
			assert.Equal(t, len(report.Keys), ev.Report.Len())
			assert.Equal(t, "0.00%", get(t, ev.Report, report.KeyRelationshipRichness))
			assert.Equal(t, 0, get(t, ev.Report, report.KeyInheritanceDepth))
			assert.Equal(t, 0, get(t, ev.Report, report.KeyConsistency))
			assert.Equal(t, "0.00000000 seconds", get(t, ev.Report, report.KeyQuery3))
			assert.ErrorIs(t, ev.Consistency.Err, ErrEmptyGraph)
		})
	}
}

func TestEvaluate_Cyclic(t *testing.T) {
	g := rdf.NewGraph()
	g.AddSPO(iri("A"), rdf.RDFType, rdf.OWLClass)
	g.AddSPO(iri("B"), rdf.RDFType, rdf.OWLClass)
	g.AddSPO(iri("A"), rdf.RDFSSubClassOf, iri("B"))
	g.AddSPO(iri("B"), rdf.RDFSSubClassOf, iri("A"))
	g.AddSPO(iri("A"), rdf.RDFSSubClassOf, iri("A"))

	done := make(chan *Evaluation, 1)
	go func() { done <- NewEvaluator(Options{}).Evaluate(context.Background(), g, 0) }()
	select {
	case ev := <-done:
		assert.Equal(t, len(report.Keys), ev.Report.Len())
	case <-time.After(5 * time.Second):
		t.Fatal("evaluation of a cyclic hierarchy did not terminate")
	}
}
