package rdf

import (
	"fmt"
	"io"
	"strings"

	"github.com/piprate/json-gold/ld"
)

// remoteContextLoader resolves remote @context documents over http(s)
// only. Local paths and file:// IRIs are refused.
type remoteContextLoader struct {
	next ld.DocumentLoader
}

func (l remoteContextLoader) LoadDocument(u string) (*ld.RemoteDocument, error) {
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		return nil, ld.NewJsonLdError(ld.LoadingDocumentFailed, fmt.Sprintf("context %q is not an http(s) URL", u))
	}
	return l.next.LoadDocument(u)
}

// decodeJSONLD expands a JSON-LD document to RDF and adds the triples of
// every graph in the dataset to g.
func decodeJSONLD(g *Graph, r io.Reader, opts DecodeOptions) error {
	doc, err := ld.DocumentFromReader(r)
	if err != nil {
		return fmt.Errorf("decode %s: %w", FormatJSONLD, err)
	}

	options := ld.NewJsonLdOptions(opts.Base)
	options.DocumentLoader = remoteContextLoader{next: ld.NewDefaultDocumentLoader(nil)}
	res, err := ld.NewJsonLdProcessor().ToRDF(doc, options)
	if err != nil {
		return fmt.Errorf("decode %s: %w", FormatJSONLD, err)
	}
	dataset, ok := res.(*ld.RDFDataset)
	if !ok {
		return fmt.Errorf("decode %s: unexpected result %T", FormatJSONLD, res)
	}

	for _, quads := range dataset.Graphs {
		for _, q := range quads {
			s, sok := fromJSONLD(q.Subject, opts.BlankPrefix)
			p, pok := fromJSONLD(q.Predicate, opts.BlankPrefix)
			o, ook := fromJSONLD(q.Object, opts.BlankPrefix)
			if sok && pok && ook {
				g.Add(Triple{Subject: s, Predicate: p, Object: o})
			}
		}
	}
	return nil
}

func fromJSONLD(n ld.Node, blankPrefix string) (Term, bool) {
	if n == nil {
		return Term{}, false
	}
	if l, ok := n.(*ld.Literal); ok {
		return jsonLDLiteral(l), true
	}
	v := n.GetValue()
	if strings.HasPrefix(v, "_:") {
		return Blank(blankPrefix + strings.TrimPrefix(v, "_:")), true
	}
	return IRI(v), true
}

func jsonLDLiteral(l *ld.Literal) Term {
	if l.Language != "" {
		return LangLiteral(l.Value, l.Language)
	}
	if l.Datatype == XSDNS+"string" {
		return Literal(l.Value)
	}
	return TypedLiteral(l.Value, l.Datatype)
}
