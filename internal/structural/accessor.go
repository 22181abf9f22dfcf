package structural

import "github.com/efebarandurmaz/ontometer/internal/rdf"

// Classes returns every subject typed owl:Class or rdfs:Class.
func Classes(g *rdf.Graph) []rdf.Term {
	set := make(map[rdf.Term]struct{})
	for _, c := range g.Subjects(rdf.RDFType, rdf.OWLClass) {
		set[c] = struct{}{}
	}
	for _, c := range g.Subjects(rdf.RDFType, rdf.RDFSClass) {
		set[c] = struct{}{}
	}
	return rdf.SortedTerms(set)
}

// ObjectProperties returns every subject typed owl:ObjectProperty.
func ObjectProperties(g *rdf.Graph) []rdf.Term {
	return g.Subjects(rdf.RDFType, rdf.OWLObjectProperty)
}

// DatatypeProperties returns every subject typed owl:DatatypeProperty.
func DatatypeProperties(g *rdf.Graph) []rdf.Term {
	return g.Subjects(rdf.RDFType, rdf.OWLDatatypeProperty)
}

// SubclassesOf returns the direct children of cls.
func SubclassesOf(g *rdf.Graph, cls rdf.Term) []rdf.Term {
	return g.Subjects(rdf.RDFSSubClassOf, cls)
}

// ParentsOf returns the direct parents of cls.
func ParentsOf(g *rdf.Graph, cls rdf.Term) []rdf.Term {
	return g.Objects(cls, rdf.RDFSSubClassOf)
}

// SubclassEdgeCount counts asserted rdfs:subClassOf triples.
func SubclassEdgeCount(g *rdf.Graph) int {
	return len(g.Match(nil, &rdf.RDFSSubClassOf, nil, 0))
}

// ElementCounts summarizes a loaded ontology.
type ElementCounts struct {
	ObjectProperties int `json:"object_properties"`
	Classes          int `json:"classes"`
}

// CountElements counts object properties and owl:Class declarations,
// including those only reachable through owl:onProperty on an
// owl:Restriction.
func CountElements(g *rdf.Graph) ElementCounts {
	props := make(map[rdf.Term]struct{})
	for _, p := range ObjectProperties(g) {
		props[p] = struct{}{}
	}
	cls := make(map[rdf.Term]struct{})
	for _, c := range g.Subjects(rdf.RDFType, rdf.OWLClass) {
		cls[c] = struct{}{}
	}
	for _, r := range g.Subjects(rdf.RDFType, rdf.OWLRestriction) {
		for _, on := range g.Objects(r, rdf.OWLOnProperty) {
			switch {
			case g.Has(on, rdf.RDFType, rdf.OWLObjectProperty):
				props[on] = struct{}{}
			case g.Has(on, rdf.RDFType, rdf.OWLClass):
				cls[on] = struct{}{}
			}
		}
	}
	return ElementCounts{ObjectProperties: len(props), Classes: len(cls)}
}
