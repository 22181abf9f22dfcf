package rdf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const turtleDoc = `@prefix owl: <http://www.w3.org/2002/07/owl#> .
@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .
@prefix ex: <http://example.org/onto#> .

ex:Animal a owl:Class .
ex:Dog a owl:Class ;
    rdfs:subClassOf ex:Animal .
ex:owns a owl:ObjectProperty .
ex:name a owl:DatatypeProperty .
`

const rdfxmlDoc = `<?xml version="1.0"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:rdfs="http://www.w3.org/2000/01/rdf-schema#"
         xmlns:owl="http://www.w3.org/2002/07/owl#">
  <owl:Class rdf:about="http://example.org/onto#Animal"/>
  <owl:Class rdf:about="http://example.org/onto#Dog">
    <rdfs:subClassOf rdf:resource="http://example.org/onto#Animal"/>
  </owl:Class>
</rdf:RDF>
`

func TestDecodeTurtle(t *testing.T) {
	g, err := Decode(strings.NewReader(turtleDoc), FormatTurtle, DecodeOptions{})
	require.NoError(t, err)
	assert.Equal(t, 5, g.Len())
	assert.True(t, g.Has(IRI(ex+"Dog"), RDFSSubClassOf, IRI(ex+"Animal")))
	assert.True(t, g.Has(IRI(ex+"owns"), RDFType, OWLObjectProperty))
}

func TestDecodeRDFXML(t *testing.T) {
	g, err := Decode(strings.NewReader(rdfxmlDoc), FormatRDFXML, DecodeOptions{})
	require.NoError(t, err)
	assert.True(t, g.Has(IRI(ex+"Animal"), RDFType, OWLClass))
	assert.True(t, g.Has(IRI(ex+"Dog"), RDFSSubClassOf, IRI(ex+"Animal")))
}

const jsonldDoc = `{
  "@context": {
    "owl": "http://www.w3.org/2002/07/owl#",
    "rdfs": "http://www.w3.org/2000/01/rdf-schema#",
    "ex": "http://example.org/onto#",
    "subClassOf": {"@id": "rdfs:subClassOf", "@type": "@id"}
  },
  "@graph": [
    {"@id": "ex:Animal", "@type": "owl:Class", "rdfs:label": {"@value": "Animal", "@language": "en"}},
    {"@id": "ex:Dog", "@type": "owl:Class", "subClassOf": "ex:Animal"},
    {"@id": "ex:Kennel", "@type": "owl:Class", "subClassOf": {"@type": "owl:Restriction"}}
  ]
}`

func TestDecodeJSONLD(t *testing.T) {
	g, err := Decode(strings.NewReader(jsonldDoc), FormatJSONLD, DecodeOptions{BlankPrefix: "d1_"})
	require.NoError(t, err)
	assert.True(t, g.Has(IRI(ex+"Animal"), RDFType, OWLClass))
	assert.True(t, g.Has(IRI(ex+"Dog"), RDFSSubClassOf, IRI(ex+"Animal")))
	assert.True(t, g.Has(IRI(ex+"Animal"), RDFSLabel, LangLiteral("Animal", "en")))

	restrictions := g.Match(nil, &RDFType, &OWLRestriction, 0)
	require.Len(t, restrictions, 1)
	assert.True(t, restrictions[0].Subject.IsBlank())
	assert.True(t, strings.HasPrefix(restrictions[0].Subject.Value, "d1_"))
}

func TestDecodeJSONLD_RefusesLocalContext(t *testing.T) {
	doc := `{"@context": "file:///etc/passwd", "@id": "http://example.org/onto#A"}`
	_, err := Decode(strings.NewReader(doc), FormatJSONLD, DecodeOptions{})
	assert.Error(t, err)

	_, err = Decode(strings.NewReader("{not json"), FormatJSONLD, DecodeOptions{})
	assert.Error(t, err)
}

func TestDecodeRoundTripNTriples(t *testing.T) {
	g, err := Decode(strings.NewReader(turtleDoc), FormatTurtle, DecodeOptions{})
	require.NoError(t, err)
	var sb strings.Builder
	require.NoError(t, EncodeNTriples(&sb, g))
	back, err := Decode(strings.NewReader(sb.String()), FormatNTriples, DecodeOptions{})
	require.NoError(t, err)
	assert.Equal(t, g.Len(), back.Len())
}

func TestDecodeUnknownFormat(t *testing.T) {
	_, err := Decode(strings.NewReader(""), FormatUnknown, DecodeOptions{})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestFormatDetection(t *testing.T) {
	assert.Equal(t, FormatTurtle, FormatFromPath("/data/pizza.ttl"))
	assert.Equal(t, FormatRDFXML, FormatFromPath("http://x/pizza.owl?v=2"))
	assert.Equal(t, FormatNTriples, FormatFromPath("dump.nt"))
	assert.Equal(t, FormatJSONLD, FormatFromPath("https://x/pizza.jsonld"))
	assert.Equal(t, FormatUnknown, FormatFromPath("README"))

	assert.Equal(t, FormatTurtle, FormatFromMediaType("text/turtle; charset=utf-8"))
	assert.Equal(t, FormatRDFXML, FormatFromMediaType("application/rdf+xml"))
	assert.Equal(t, FormatJSONLD, FormatFromMediaType("application/ld+json; profile=\"http://www.w3.org/ns/json-ld#expanded\""))
	assert.Equal(t, FormatUnknown, FormatFromMediaType("text/html"))

	f, err := ParseFormat("xml")
	require.NoError(t, err)
	assert.Equal(t, FormatRDFXML, f)
	f, err = ParseFormat("json-ld")
	require.NoError(t, err)
	assert.Equal(t, FormatJSONLD, f)
	assert.Equal(t, "jsonld", FormatJSONLD.String())
}
