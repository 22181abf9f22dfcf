// Package rdf holds the in-memory triple graph that every evaluation runs
// over, together with the vocabulary terms and the parsers that fill it.
package rdf

import "strings"

// TermKind distinguishes the three RDF node kinds.
type TermKind uint8

const (
	KindIRI TermKind = iota + 1
	KindBlank
	KindLiteral
)

func (k TermKind) String() string {
	switch k {
	case KindIRI:
		return "iri"
	case KindBlank:
		return "blank"
	case KindLiteral:
		return "literal"
	default:
		return "unknown"
	}
}

// Term is a single RDF node. It is comparable so it can key maps directly.
type Term struct {
	Kind     TermKind
	Value    string
	Datatype string
	Lang     string
}

// IRI returns an IRI term.
func IRI(v string) Term { return Term{Kind: KindIRI, Value: v} }

// Blank returns a blank node term. A leading "_:" is stripped.
func Blank(id string) Term { return Term{Kind: KindBlank, Value: strings.TrimPrefix(id, "_:")} }

// Literal returns a plain literal.
func Literal(v string) Term { return Term{Kind: KindLiteral, Value: v} }

// TypedLiteral returns a literal with a datatype IRI.
func TypedLiteral(v, datatype string) Term {
	return Term{Kind: KindLiteral, Value: v, Datatype: datatype}
}

// LangLiteral returns a language-tagged literal.
func LangLiteral(v, lang string) Term {
	return Term{Kind: KindLiteral, Value: v, Lang: lang}
}

func (t Term) IsIRI() bool     { return t.Kind == KindIRI }
func (t Term) IsBlank() bool   { return t.Kind == KindBlank }
func (t Term) IsLiteral() bool { return t.Kind == KindLiteral }
func (t Term) IsZero() bool    { return t.Kind == 0 }

// LocalName returns the fragment or last path segment of an IRI.
func (t Term) LocalName() string {
	v := t.Value
	if i := strings.LastIndexAny(v, "#/"); i >= 0 && i < len(v)-1 {
		return v[i+1:]
	}
	return v
}

// String renders the term in N-Triples syntax.
func (t Term) String() string {
	switch t.Kind {
	case KindIRI:
		return "<" + t.Value + ">"
	case KindBlank:
		return "_:" + t.Value
	case KindLiteral:
		s := `"` + escapeLiteral(t.Value) + `"`
		if t.Lang != "" {
			return s + "@" + t.Lang
		}
		if t.Datatype != "" {
			return s + "^^<" + t.Datatype + ">"
		}
		return s
	default:
		return ""
	}
}

var literalEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "\t", `\t`)

func escapeLiteral(s string) string { return literalEscaper.Replace(s) }

// Triple is one subject-predicate-object statement.
type Triple struct {
	Subject   Term
	Predicate Term
	Object    Term
}

func (t Triple) String() string {
	return t.Subject.String() + " " + t.Predicate.String() + " " + t.Object.String() + " ."
}
