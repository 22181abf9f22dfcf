package rdf

import "sort"

// Graph is an in-memory set of triples indexed by subject, predicate and
// object. A Graph is not safe for concurrent mutation; once loading is done
// it is only read.
type Graph struct {
	triples []Triple
	seen    map[Triple]struct{}
	bySubj  map[Term][]int
	byPred  map[Term][]int
	byObj   map[Term][]int
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		seen:   make(map[Triple]struct{}),
		bySubj: make(map[Term][]int),
		byPred: make(map[Term][]int),
		byObj:  make(map[Term][]int),
	}
}

// Add inserts a triple. Duplicates are ignored. It reports whether the
// triple was new.
func (g *Graph) Add(t Triple) bool {
	if _, ok := g.seen[t]; ok {
		return false
	}
	idx := len(g.triples)
	g.triples = append(g.triples, t)
	g.seen[t] = struct{}{}
	g.bySubj[t.Subject] = append(g.bySubj[t.Subject], idx)
	g.byPred[t.Predicate] = append(g.byPred[t.Predicate], idx)
	g.byObj[t.Object] = append(g.byObj[t.Object], idx)
	return true
}

// AddSPO is shorthand for Add(Triple{s, p, o}).
func (g *Graph) AddSPO(s, p, o Term) bool {
	return g.Add(Triple{Subject: s, Predicate: p, Object: o})
}

// Len returns the number of distinct triples. A nil graph has length 0.
func (g *Graph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.triples)
}

// Has reports whether the exact triple is present.
func (g *Graph) Has(s, p, o Term) bool {
	if g == nil {
		return false
	}
	_, ok := g.seen[Triple{Subject: s, Predicate: p, Object: o}]
	return ok
}

// Triples returns the triples in insertion order. The slice is shared and
// must not be modified.
func (g *Graph) Triples() []Triple {
	if g == nil {
		return nil
	}
	return g.triples
}

// Match returns triples matching the non-nil pattern positions. A limit of
// zero or less means unbounded.
func (g *Graph) Match(s, p, o *Term, limit int) []Triple {
	if g == nil || len(g.triples) == 0 {
		return nil
	}
	candidates, all := g.candidates(s, p, o)
	var out []Triple
	emit := func(t Triple) bool {
		if s != nil && t.Subject != *s {
			return true
		}
		if p != nil && t.Predicate != *p {
			return true
		}
		if o != nil && t.Object != *o {
			return true
		}
		out = append(out, t)
		return limit <= 0 || len(out) < limit
	}
	if all {
		for _, t := range g.triples {
			if !emit(t) {
				break
			}
		}
		return out
	}
	for _, idx := range candidates {
		if !emit(g.triples[idx]) {
			break
		}
	}
	return out
}

// candidates picks the smallest index list among the bound positions.
func (g *Graph) candidates(s, p, o *Term) ([]int, bool) {
	var best []int
	found := false
	consider := func(index map[Term][]int, t *Term) {
		if t == nil {
			return
		}
		list := index[*t]
		if !found || len(list) < len(best) {
			best = list
			found = true
		}
	}
	consider(g.bySubj, s)
	consider(g.byPred, p)
	consider(g.byObj, o)
	return best, !found
}

// Subjects returns the distinct subjects of triples with predicate p and
// object o, sorted.
func (g *Graph) Subjects(p, o Term) []Term {
	set := make(map[Term]struct{})
	for _, t := range g.Match(nil, &p, &o, 0) {
		set[t.Subject] = struct{}{}
	}
	return SortedTerms(set)
}

// Objects returns the distinct objects of triples with subject s and
// predicate p, sorted.
func (g *Graph) Objects(s, p Term) []Term {
	set := make(map[Term]struct{})
	for _, t := range g.Match(&s, &p, nil, 0) {
		set[t.Object] = struct{}{}
	}
	return SortedTerms(set)
}

// Merge adds every triple of other into g and returns the number of new
// triples. Blank nodes are shared by label, so callers merging unrelated
// documents should make labels unique when decoding.
func (g *Graph) Merge(other *Graph) int {
	if other == nil {
		return 0
	}
	added := 0
	for _, t := range other.triples {
		if g.Add(t) {
			added++
		}
	}
	return added
}

// List walks an rdf:first/rdf:rest collection starting at head.
func (g *Graph) List(head Term) []Term {
	var out []Term
	visited := make(map[Term]bool)
	for cur := head; cur != RDFNil && !cur.IsZero() && !visited[cur]; {
		visited[cur] = true
		firsts := g.Objects(cur, RDFFirst)
		if len(firsts) > 0 {
			out = append(out, firsts[0])
		}
		rests := g.Objects(cur, RDFRest)
		if len(rests) == 0 {
			break
		}
		cur = rests[0]
	}
	return out
}

// SortedTerms flattens a term set into a deterministic slice.
func SortedTerms(set map[Term]struct{}) []Term {
	out := make([]Term, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		if out[i].Value != out[j].Value {
			return out[i].Value < out[j].Value
		}
		if out[i].Datatype != out[j].Datatype {
			return out[i].Datatype < out[j].Datatype
		}
		return out[i].Lang < out[j].Lang
	})
	return out
}
