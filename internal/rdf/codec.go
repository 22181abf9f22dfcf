package rdf

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	krdf "github.com/knakk/rdf"
)

// Format identifies a serialization.
type Format int

const (
	FormatUnknown Format = iota
	FormatTurtle
	FormatNTriples
	FormatRDFXML
	FormatJSONLD
)

func (f Format) String() string {
	switch f {
	case FormatTurtle:
		return "turtle"
	case FormatNTriples:
		return "ntriples"
	case FormatRDFXML:
		return "rdfxml"
	case FormatJSONLD:
		return "jsonld"
	default:
		return "unknown"
	}
}

// ErrUnsupportedFormat is returned when a format cannot be decoded.
var ErrUnsupportedFormat = errors.New("unsupported rdf format")

// ParseFormat maps a user-facing name ("ttl", "turtle", "nt", "xml", ...)
// to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "ttl", "turtle":
		return FormatTurtle, nil
	case "nt", "ntriples", "n-triples":
		return FormatNTriples, nil
	case "rdf", "owl", "xml", "rdfxml", "rdf/xml":
		return FormatRDFXML, nil
	case "jsonld", "json-ld":
		return FormatJSONLD, nil
	default:
		return FormatUnknown, fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

// FormatFromPath guesses a format from a file name or URL path.
func FormatFromPath(p string) Format {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	f, err := ParseFormat(path.Ext(p))
	if err != nil {
		return FormatUnknown
	}
	return f
}

// FormatFromMediaType maps an HTTP Content-Type to a Format.
func FormatFromMediaType(contentType string) Format {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return FormatUnknown
	}
	switch mt {
	case "text/turtle", "application/x-turtle":
		return FormatTurtle
	case "application/n-triples":
		return FormatNTriples
	case "application/rdf+xml", "application/owl+xml", "application/xml", "text/xml":
		return FormatRDFXML
	case "application/ld+json":
		return FormatJSONLD
	default:
		return FormatUnknown
	}
}

func (f Format) knakk() (krdf.Format, error) {
	switch f {
	case FormatTurtle:
		return krdf.Turtle, nil
	case FormatNTriples:
		return krdf.NTriples, nil
	case FormatRDFXML:
		return krdf.RDFXML, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
}

// DecodeOptions tune Decode.
type DecodeOptions struct {
	// Base resolves relative IRIs. Empty means none.
	Base string
	// BlankPrefix is prepended to blank node labels so that graphs decoded
	// from different documents can be merged without label clashes.
	BlankPrefix string
}

// Decode reads every triple from r into a new graph.
func Decode(r io.Reader, f Format, opts DecodeOptions) (*Graph, error) {
	g := NewGraph()
	if err := DecodeInto(g, r, f, opts); err != nil {
		return nil, err
	}
	return g, nil
}

// DecodeInto reads every triple from r into g.
func DecodeInto(g *Graph, r io.Reader, f Format, opts DecodeOptions) error {
	if f == FormatJSONLD {
		return decodeJSONLD(g, r, opts)
	}
	kf, err := f.knakk()
	if err != nil {
		return err
	}
	dec := krdf.NewTripleDecoder(r, kf)
	if opts.Base != "" {
		base, err := krdf.NewIRI(opts.Base)
		if err != nil {
			return fmt.Errorf("invalid base %q: %w", opts.Base, err)
		}
		if err := dec.SetOption(krdf.Base, base); err != nil {
			return fmt.Errorf("setting base: %w", err)
		}
	}
	for {
		kt, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("decode %s: %w", f, err)
		}
		g.Add(Triple{
			Subject:   fromKnakk(kt.Subj, opts.BlankPrefix),
			Predicate: fromKnakk(kt.Pred, opts.BlankPrefix),
			Object:    fromKnakk(kt.Obj, opts.BlankPrefix),
		})
	}
}

func fromKnakk(t krdf.Term, blankPrefix string) Term {
	switch v := t.(type) {
	case krdf.IRI:
		return IRI(v.String())
	case krdf.Blank:
		return Blank(blankPrefix + strings.TrimPrefix(v.String(), "_:"))
	case krdf.Literal:
		if lang := v.Lang(); lang != "" {
			return LangLiteral(v.String(), lang)
		}
		dt := v.DataType.String()
		if dt == XSDNS+"string" {
			dt = ""
		}
		return TypedLiteral(v.String(), dt)
	default:
		return Literal(t.String())
	}
}

// EncodeNTriples writes g as N-Triples, one statement per line, in
// insertion order.
func EncodeNTriples(w io.Writer, g *Graph) error {
	for _, t := range g.Triples() {
		if _, err := io.WriteString(w, t.String()+"\n"); err != nil {
			return fmt.Errorf("encode ntriples: %w", err)
		}
	}
	return nil
}
