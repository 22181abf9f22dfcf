package reasoner

import (
	"context"
	"sort"
	"strings"

	"github.com/efebarandurmaz/ontometer/internal/rdf"
)

// StructuralReasoner saturates told subsumptions over named classes. It
// understands rdfs:subClassOf, owl:equivalentClass, owl:intersectionOf on
// equivalent classes, owl:disjointWith, owl:AllDisjointClasses and
// owl:Nothing. Everything else is ignored, so it can miss contradictions a
// full OWL reasoner would find. Only sound inferences are drawn, so a clash
// it reports is a real one.
type StructuralReasoner struct{}

// NewStructural returns the built-in reasoner.
func NewStructural() *StructuralReasoner { return &StructuralReasoner{} }

func (StructuralReasoner) Name() string { return "structural" }

var owlIntersectionOf = rdf.IRI(rdf.OWLNS + "intersectionOf")

// conjunction records C ≡ A1 ⊓ ... ⊓ An.
type conjunction struct {
	class     rdf.Term
	conjuncts []rdf.Term
}

type tbox struct {
	told     map[rdf.Term][]rdf.Term
	conj     []conjunction
	disjoint map[rdf.Term][]rdf.Term
	named    map[rdf.Term]struct{}
	closures map[rdf.Term]map[rdf.Term]bool
}

// Check implements Reasoner.
func (StructuralReasoner) Check(ctx context.Context, g *rdf.Graph) (Verdict, error) {
	tb := buildTBox(g)

	// 1. Classify named classes
	var unsat []string
	names := make([]rdf.Term, 0, len(tb.named))
	for c := range tb.named {
		names = append(names, c)
	}
	sort.Slice(names, func(i, j int) bool { return names[i].Value < names[j].Value })
	for _, c := range names {
		if err := ctx.Err(); err != nil {
			return Verdict{}, err
		}
		if c == rdf.OWLNothing {
			continue
		}
		if tb.clashes(tb.closure([]rdf.Term{c})) {
			unsat = append(unsat, c.Value)
		}
	}

	// 2. Realize individuals
	v := Verdict{Consistent: true, Unsatisfiable: unsat}
	for _, ind := range individuals(g) {
		if err := ctx.Err(); err != nil {
			return Verdict{}, err
		}
		types := assertedTypes(g, ind)
		if len(types) == 0 {
			continue
		}
		if tb.clashes(tb.closure(types)) {
			v.Consistent = false
			break
		}
	}
	return v, nil
}

func buildTBox(g *rdf.Graph) *tbox {
	tb := &tbox{
		told:     make(map[rdf.Term][]rdf.Term),
		disjoint: make(map[rdf.Term][]rdf.Term),
		named:    make(map[rdf.Term]struct{}),
		closures: make(map[rdf.Term]map[rdf.Term]bool),
	}
	name := func(t rdf.Term) bool {
		if !t.IsIRI() {
			return false
		}
		tb.named[t] = struct{}{}
		return true
	}
	for _, c := range g.Subjects(rdf.RDFType, rdf.OWLClass) {
		name(c)
	}
	for _, c := range g.Subjects(rdf.RDFType, rdf.RDFSClass) {
		name(c)
	}

	for _, t := range g.Match(nil, &rdf.RDFSSubClassOf, nil, 0) {
		if name(t.Subject) && name(t.Object) {
			tb.told[t.Subject] = append(tb.told[t.Subject], t.Object)
		}
	}
	for _, t := range g.Match(nil, &rdf.OWLEquivalentClass, nil, 0) {
		switch {
		case t.Subject.IsIRI() && t.Object.IsIRI():
			name(t.Subject)
			name(t.Object)
			tb.told[t.Subject] = append(tb.told[t.Subject], t.Object)
			tb.told[t.Object] = append(tb.told[t.Object], t.Subject)
		case t.Subject.IsIRI() && t.Object.IsBlank():
			tb.addIntersection(g, t.Subject, t.Object)
		case t.Object.IsIRI() && t.Subject.IsBlank():
			tb.addIntersection(g, t.Object, t.Subject)
		}
	}

	addPair := func(a, b rdf.Term) {
		if !name(a) || !name(b) {
			return
		}
		tb.disjoint[a] = append(tb.disjoint[a], b)
		tb.disjoint[b] = append(tb.disjoint[b], a)
	}
	for _, t := range g.Match(nil, &rdf.OWLDisjointWith, nil, 0) {
		addPair(t.Subject, t.Object)
	}
	for _, ax := range g.Subjects(rdf.RDFType, rdf.OWLAllDisjointClasses) {
		for _, head := range g.Objects(ax, rdf.OWLMembers) {
			members := g.List(head)
			for i := range members {
				for j := i + 1; j < len(members); j++ {
					addPair(members[i], members[j])
				}
			}
		}
	}
	return tb
}

// addIntersection handles C ≡ intersectionOf(A1 ... An). C is subsumed by
// each named Ai. Only when every member is named does holding all Ai imply
// C; a restriction member would need reasoning this type does not do.
func (tb *tbox) addIntersection(g *rdf.Graph, class, expr rdf.Term) {
	for _, head := range g.Objects(expr, owlIntersectionOf) {
		members := g.List(head)
		var named []rdf.Term
		for _, m := range members {
			if m.IsIRI() {
				named = append(named, m)
			}
		}
		if len(named) == 0 {
			continue
		}
		tb.named[class] = struct{}{}
		for _, m := range named {
			tb.named[m] = struct{}{}
			tb.told[class] = append(tb.told[class], m)
		}
		if len(named) == len(members) {
			tb.conj = append(tb.conj, conjunction{class: class, conjuncts: named})
		}
	}
}

// closure saturates seeds under told subsumption and conjunction, starting
// from {seeds, owl:Thing}.
func (tb *tbox) closure(seeds []rdf.Term) map[rdf.Term]bool {
	if len(seeds) == 1 {
		if s, ok := tb.closures[seeds[0]]; ok {
			return s
		}
	}
	set := map[rdf.Term]bool{rdf.OWLThing: true}
	queue := make([]rdf.Term, 0, len(seeds))
	for _, s := range seeds {
		if !set[s] {
			set[s] = true
			queue = append(queue, s)
		}
	}
	changed := true
	for changed {
		changed = false
		for len(queue) > 0 {
			x := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			for _, sup := range tb.told[x] {
				if !set[sup] {
					set[sup] = true
					queue = append(queue, sup)
				}
			}
		}
		for _, c := range tb.conj {
			if set[c.class] {
				continue
			}
			all := true
			for _, m := range c.conjuncts {
				if !set[m] {
					all = false
					break
				}
			}
			if all {
				set[c.class] = true
				queue = append(queue, c.class)
				changed = true
			}
		}
	}
	if len(seeds) == 1 {
		tb.closures[seeds[0]] = set
	}
	return set
}

func (tb *tbox) clashes(set map[rdf.Term]bool) bool {
	if set[rdf.OWLNothing] {
		return true
	}
	for c := range set {
		for _, d := range tb.disjoint[c] {
			if set[d] {
				return true
			}
		}
	}
	return false
}

// individuals returns subjects typed owl:NamedIndividual or typed with a
// class outside the RDF, RDFS and OWL vocabularies.
func individuals(g *rdf.Graph) []rdf.Term {
	set := make(map[rdf.Term]struct{})
	for _, t := range g.Match(nil, &rdf.RDFType, nil, 0) {
		if !t.Subject.IsIRI() {
			continue
		}
		if t.Object == rdf.OWLNamedIndividual || t.Object == rdf.OWLNothing || isDomainClass(t.Object) {
			set[t.Subject] = struct{}{}
		}
	}
	return rdf.SortedTerms(set)
}

func assertedTypes(g *rdf.Graph, ind rdf.Term) []rdf.Term {
	var out []rdf.Term
	for _, t := range g.Objects(ind, rdf.RDFType) {
		if t == rdf.OWLNothing || isDomainClass(t) {
			out = append(out, t)
		}
	}
	return out
}

func isDomainClass(t rdf.Term) bool {
	if !t.IsIRI() {
		return false
	}
	for _, ns := range []string{rdf.RDFNS, rdf.RDFSNS, rdf.OWLNS} {
		if strings.HasPrefix(t.Value, ns) {
			return false
		}
	}
	return true
}
