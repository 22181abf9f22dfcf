package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/efebarandurmaz/ontometer/internal/probe"
	"github.com/efebarandurmaz/ontometer/internal/reasoner"
	"github.com/efebarandurmaz/ontometer/internal/structural"
)

func keysOf(r *Report) []string {
	var keys []string
	r.Each(func(k string, _ any) { keys = append(keys, k) })
	return keys
}

func TestEmptyReportHasEveryKeyWithDefaults(t *testing.T) {
	r := Empty()
	assert.Equal(t, Keys, keysOf(r))
	assert.Equal(t, len(Keys), r.Len())

	expect := map[string]any{
		KeyRelationshipRichness: "0.00%",
		KeyInheritanceRichness:  "0.00%",
		KeySubclassSum:          0,
		KeySubclassMean:         0.0,
		KeyInheritanceDepth:     0,
		KeyRoots:                0,
		KeyLeaves:               0,
		KeyADIT:                 "0.00%",
		KeyConsistency:          0,
		KeyLoadTime:             "0.0000 seconds",
		KeyReasoningTime:        "0.0000 seconds",
		KeyQuery1:               "0.00000000 seconds",
		KeyQuery3:               "0.00000000 seconds",
	}
	for k, want := range expect {
		got, ok := r.Get(k)
		require.True(t, ok, k)
		assert.Equal(t, want, got, k)
	}
}

func TestBuild(t *testing.T) {
	r := Build(Inputs{
		Structural: structural.Result{
			ObjectProperties:     2,
			DatatypeProperties:   1,
			RelationshipRichness: 75,
			InheritanceRichness:  133.3333,
			SubclassSum:          4,
			SubclassMean:         1.3333333333333333,
			InheritanceDepth:     3,
			Roots:                1,
			Leaves:               2,
			ADIT:                 200,
		},
		Consistency: reasoner.Result{Outcome: reasoner.Consistent, Duration: 1500 * time.Millisecond},
		LoadTime:    250 * time.Millisecond,
		Queries: []probe.Timing{
			{Duration: time.Microsecond}, {Duration: 2 * time.Microsecond}, {Duration: 3 * time.Microsecond},
		},
	})

	get := func(k string) any {
		v, ok := r.Get(k)
		require.True(t, ok, k)
		return v
	}
	assert.Equal(t, "75.00%", get(KeyRelationshipRichness))
	assert.Equal(t, "133.33%", get(KeyInheritanceRichness))
	assert.Equal(t, 3, get(KeyTotalProperties))
	assert.Equal(t, "200.00%", get(KeyADIT))
	assert.Equal(t, 1, get(KeyConsistency))
	assert.Equal(t, "1.5000 seconds", get(KeyReasoningTime))
	assert.Equal(t, "0.2500 seconds", get(KeyLoadTime))
	assert.Equal(t, "0.00000200 seconds", get(KeyQuery2))
}

func TestBuild_FailedCheckHidesReasoningTime(t *testing.T) {
	for _, o := range []reasoner.Outcome{reasoner.Inconsistent, reasoner.CheckFailed} {
		r := Build(Inputs{Consistency: reasoner.Result{Outcome: o, Duration: time.Second}})
		v, _ := r.Get(KeyConsistency)
		assert.Equal(t, 0, v)
		v, _ = r.Get(KeyReasoningTime)
		assert.Equal(t, "0.0000 seconds", v)
	}
}

func TestBuild_MissingQueriesStillThreeEntries(t *testing.T) {
	r := Build(Inputs{Queries: []probe.Timing{{Duration: time.Millisecond}}})
	for _, k := range []string{KeyQuery1, KeyQuery2, KeyQuery3} {
		_, ok := r.Get(k)
		assert.True(t, ok, k)
	}
	v, _ := r.Get(KeyQuery2)
	assert.Equal(t, "0.00000000 seconds", v)
}

func TestJSONKeepsOrder(t *testing.T) {
	data, err := json.Marshal(Empty())
	require.NoError(t, err)
	s := string(data)
	last := -1
	for _, k := range Keys {
		idx := strings.Index(s, `"`+k+`"`)
		require.GreaterOrEqual(t, idx, 0, k)
		assert.Greater(t, idx, last, k)
		last = idx
	}

	var back Report
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, Keys, keysOf(&back))
}

func TestYAMLKeepsOrder(t *testing.T) {
	data, err := yaml.Marshal(Empty())
	require.NoError(t, err)
	var node yaml.Node
	require.NoError(t, yaml.Unmarshal(data, &node))
	mapping := node.Content[0]
	require.Equal(t, 2*len(Keys), len(mapping.Content))
	for i, k := range Keys {
		assert.Equal(t, k, mapping.Content[2*i].Value)
	}
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	Empty().PrintSummary(&buf, "pizza.owl")
	out := buf.String()
	assert.Contains(t, out, "pizza.owl")
	assert.Contains(t, out, "Cohesion Metrics")
	assert.Contains(t, out, KeyADIT)
	assert.Contains(t, out, "0.0000 seconds")
}

func TestNilReport(t *testing.T) {
	var r *Report
	assert.Zero(t, r.Len())
	_, ok := r.Get(KeyRoots)
	assert.False(t, ok)
	data, err := r.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}
