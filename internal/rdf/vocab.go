package rdf

// Namespaces used by the evaluator.
const (
	RDFNS  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFSNS = "http://www.w3.org/2000/01/rdf-schema#"
	OWLNS  = "http://www.w3.org/2002/07/owl#"
	XSDNS  = "http://www.w3.org/2001/XMLSchema#"
)

var (
	RDFType  = IRI(RDFNS + "type")
	RDFFirst = IRI(RDFNS + "first")
	RDFRest  = IRI(RDFNS + "rest")
	RDFNil   = IRI(RDFNS + "nil")

	RDFSClass      = IRI(RDFSNS + "Class")
	RDFSSubClassOf = IRI(RDFSNS + "subClassOf")
	RDFSLabel      = IRI(RDFSNS + "label")
	RDFSDomain     = IRI(RDFSNS + "domain")
	RDFSRange      = IRI(RDFSNS + "range")

	OWLClass              = IRI(OWLNS + "Class")
	OWLThing              = IRI(OWLNS + "Thing")
	OWLNothing            = IRI(OWLNS + "Nothing")
	OWLObjectProperty     = IRI(OWLNS + "ObjectProperty")
	OWLDatatypeProperty   = IRI(OWLNS + "DatatypeProperty")
	OWLNamedIndividual    = IRI(OWLNS + "NamedIndividual")
	OWLOntology           = IRI(OWLNS + "Ontology")
	OWLImports            = IRI(OWLNS + "imports")
	OWLEquivalentClass    = IRI(OWLNS + "equivalentClass")
	OWLDisjointWith       = IRI(OWLNS + "disjointWith")
	OWLAllDisjointClasses = IRI(OWLNS + "AllDisjointClasses")
	OWLMembers            = IRI(OWLNS + "members")
	OWLRestriction        = IRI(OWLNS + "Restriction")
	OWLOnProperty         = IRI(OWLNS + "onProperty")
)
