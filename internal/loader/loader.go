// Package loader reads ontologies from local files or http(s) URLs into an
// rdf.Graph, following owl:imports.
package loader

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/efebarandurmaz/ontometer/internal/httpx"
	"github.com/efebarandurmaz/ontometer/internal/rdf"
)

// AcceptHeader is sent when fetching ontologies over HTTP.
const AcceptHeader = "text/turtle,application/rdf+xml,application/owl+xml,application/ld+json"

// ErrUnsupportedFormat is returned when a document cannot be decoded in
// any supported serialization.
var ErrUnsupportedFormat = rdf.ErrUnsupportedFormat

// ErrEmptySource is returned for an empty source string.
var ErrEmptySource = errors.New("empty ontology source")

// ErrLocalSource is returned by a RemoteOnly loader for local paths and
// file:// IRIs.
var ErrLocalSource = errors.New("local ontology sources are not allowed")

// Options configure a Loader.
type Options struct {
	Retry          *httpx.RetryConfig
	ResolveImports bool
	MaxImportDepth int
	// DefaultFormat is used when neither Content-Type nor extension
	// identify the serialization.
	DefaultFormat rdf.Format
	// RemoteOnly restricts sources and imports to http(s) URLs.
	RemoteOnly bool
	Logger     *slog.Logger
}

// Loader fetches and parses ontology documents.
type Loader struct {
	client *httpx.Client
	opts   Options
	logger *slog.Logger
}

// New creates a Loader.
func New(opts Options) *Loader {
	if opts.DefaultFormat == rdf.FormatUnknown {
		opts.DefaultFormat = rdf.FormatTurtle
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		client: httpx.NewClient(opts.Retry, "ontometer/1.0"),
		opts:   opts,
		logger: logger,
	}
}

// Document is a fetched, not yet parsed, ontology document.
type Document struct {
	Source string
	Base   string
	Format rdf.Format
	Data   []byte
}

// Load reads source (a path or URL), merges its imports and returns the
// graph with the time spent fetching and parsing.
func (l *Loader) Load(ctx context.Context, source string) (*rdf.Graph, time.Duration, error) {
	start := time.Now()
	doc, err := l.Fetch(ctx, source)
	if err != nil {
		return nil, time.Since(start), err
	}
	g, err := l.parse(ctx, doc)
	return g, time.Since(start), err
}

// LoadBytes parses an already read document, for uploads. name supplies
// the extension used for format detection.
func (l *Loader) LoadBytes(ctx context.Context, name string, data []byte) (*rdf.Graph, time.Duration, error) {
	start := time.Now()
	doc := &Document{Source: name, Format: rdf.FormatFromPath(name), Data: data}
	doc.Base = directiveBase(data)
	g, err := l.parse(ctx, doc)
	return g, time.Since(start), err
}

// Fetch reads source without parsing it.
func (l *Loader) Fetch(ctx context.Context, source string) (*Document, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, ErrEmptySource
	}
	if isRemote(source) {
		return l.fetchRemote(ctx, source)
	}
	if l.opts.RemoteOnly {
		return nil, fmt.Errorf("%w: %s", ErrLocalSource, source)
	}
	return l.fetchLocal(strings.TrimPrefix(source, "file://"))
}

func (l *Loader) fetchRemote(ctx context.Context, source string) (*Document, error) {
	resp, err := l.client.Get(ctx, source, AcceptHeader)
	if err != nil {
		return nil, fmt.Errorf("fetch ontology: %w", err)
	}
	f := rdf.FormatFromMediaType(resp.Header.Get("Content-Type"))
	if f == rdf.FormatUnknown {
		f = rdf.FormatFromPath(resp.URL)
	}
	base := directiveBase(resp.Body)
	if base == "" {
		base = BaseOf(resp.URL)
	}
	return &Document{Source: resp.URL, Base: base, Format: f, Data: resp.Body}, nil
}

func (l *Loader) fetchLocal(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ontology: %w", err)
	}
	base := directiveBase(data)
	if base == "" {
		base = filepath.Dir(path) + string(filepath.Separator)
	}
	return &Document{
		Source: path,
		Base:   base,
		Format: rdf.FormatFromPath(path),
		Data:   data,
	}, nil
}

func (l *Loader) parse(ctx context.Context, doc *Document) (*rdf.Graph, error) {
	g := rdf.NewGraph()
	if err := l.decode(g, doc, "d0_"); err != nil {
		return nil, err
	}
	if l.opts.ResolveImports {
		visited := map[string]bool{doc.Source: true}
		l.resolveImports(ctx, g, g, doc.Base, 1, visited)
	}
	return g, nil
}

func (l *Loader) decode(g *rdf.Graph, doc *Document, blankPrefix string) error {
	f := doc.Format
	if f == rdf.FormatUnknown {
		f = sniff(doc.Data, l.opts.DefaultFormat)
	}
	opts := rdf.DecodeOptions{BlankPrefix: blankPrefix}
	// Local directories resolve imports only; the decoder needs an IRI.
	if strings.Contains(doc.Base, "://") {
		opts.Base = doc.Base
	}
	if err := rdf.DecodeInto(g, bytes.NewReader(doc.Data), f, opts); err != nil {
		return fmt.Errorf("parse %s: %w", doc.Source, err)
	}
	return nil
}

// resolveImports merges every owl:imports target declared in src into dst.
// Failed imports are logged and skipped.
func (l *Loader) resolveImports(ctx context.Context, dst, src *rdf.Graph, base string, depth int, visited map[string]bool) {
	if l.opts.MaxImportDepth > 0 && depth > l.opts.MaxImportDepth {
		return
	}
	for _, t := range src.Match(nil, &rdf.OWLImports, nil, 0) {
		if ctx.Err() != nil {
			return
		}
		target := ResolveIRI(base, t.Object.Value)
		if target == "" || visited[target] {
			continue
		}
		visited[target] = true

		doc, err := l.Fetch(ctx, target)
		if err != nil {
			l.logger.Warn("failed to load import", "import", target, "error", err)
			continue
		}
		imported := rdf.NewGraph()
		if err := l.decode(imported, doc, fmt.Sprintf("d%d_", len(visited))); err != nil {
			l.logger.Warn("failed to parse import", "import", target, "error", err)
			continue
		}
		added := dst.Merge(imported)
		l.logger.Debug("merged import", "import", target, "triples", added, "depth", depth)

		nextBase := doc.Base
		if nextBase == "" {
			nextBase = base
		}
		l.resolveImports(ctx, dst, imported, nextBase, depth+1, visited)
	}
}

// BaseOf returns the directory of a URL, with a trailing slash.
func BaseOf(source string) string {
	i := strings.LastIndex(source, "/")
	if i < 0 {
		return ""
	}
	return source[:i+1]
}

// ResolveIRI resolves ref against base. Absolute references are returned
// unchanged.
func ResolveIRI(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	if r.IsAbs() || base == "" {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	if b.Scheme == "" {
		return filepath.Join(base, ref)
	}
	return b.ResolveReference(r).String()
}

// IsRemote reports whether source is an http(s) URL.
func IsRemote(source string) bool { return isRemote(source) }

func isRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// directiveBase returns the IRI of a leading Turtle @base or BASE
// directive, if any.
func directiveBase(data []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "@base") && !strings.HasPrefix(strings.ToUpper(line), "BASE ") {
			continue
		}
		open := strings.Index(line, "<")
		end := strings.Index(line, ">")
		if open >= 0 && end > open {
			return line[open+1 : end]
		}
	}
	return ""
}

// sniff guesses the serialization of data from its first non-blank bytes.
func sniff(data []byte, fallback rdf.Format) rdf.Format {
	trimmed := bytes.TrimSpace(data)
	if bytes.HasPrefix(trimmed, []byte("<?xml")) || bytes.HasPrefix(trimmed, []byte("<rdf:RDF")) {
		return rdf.FormatRDFXML
	}
	if bytes.HasPrefix(trimmed, []byte("{")) || bytes.HasPrefix(trimmed, []byte("[")) {
		return rdf.FormatJSONLD
	}
	return fallback
}
