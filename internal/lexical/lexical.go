// Package lexical measures how well an ontology's vocabulary covers a
// domain described by a keyword.
package lexical

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/efebarandurmaz/ontometer/internal/httpx"
	"github.com/efebarandurmaz/ontometer/internal/rdf"
)

// DefaultThreshold is the similarity a related term must exceed to count
// as present in the ontology.
const DefaultThreshold = 0.8

// solarEnergyTerms replace the word lookup for solar energy keywords.
var solarEnergyTerms = []string{
	"Photovoltaic (PV) cells",
	"Solar panel",
	"Solar thermal energy",
	"Solar farm",
	"Solar irradiance",
	"Net metering",
	"Solar inverters",
	"Concentrated Solar Power (CSP)",
	"Solar photovoltaic (PV) system",
	"Solar tracker",
	"Solar energy storage",
	"Solar insolation",
	"Solar cell efficiency",
	"Thin-film solar panels",
	"Solar microgrid",
}

// WordSource returns words related in meaning to word.
type WordSource interface {
	RelatedWords(ctx context.Context, word string) ([]string, error)
}

// Datamuse queries the Datamuse "means like" endpoint.
type Datamuse struct {
	endpoint string
	client   *httpx.Client
}

// NewDatamuse creates a client for endpoint, e.g.
// https://api.datamuse.com/words.
func NewDatamuse(endpoint string, retry *httpx.RetryConfig) *Datamuse {
	return &Datamuse{endpoint: endpoint, client: httpx.NewClient(retry, "ontometer/1.0")}
}

// RelatedWords implements WordSource.
func (d *Datamuse) RelatedWords(ctx context.Context, word string) ([]string, error) {
	u := d.endpoint + "?ml=" + url.QueryEscape(word)
	resp, err := d.client.Get(ctx, u, "application/json")
	if err != nil {
		return nil, fmt.Errorf("datamuse: %w", err)
	}
	var entries []struct {
		Word string `json:"word"`
	}
	if err := json.Unmarshal(resp.Body, &entries); err != nil {
		return nil, fmt.Errorf("datamuse: decode response: %w", err)
	}
	words := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Word != "" {
			words = append(words, e.Word)
		}
	}
	return words, nil
}

// Result holds the coverage figures for one keyword.
type Result struct {
	Keyword           string   `json:"keyword"`
	RelatedTerms      []string `json:"related_terms"`
	Related           int      `json:"related_terms_count"`     // D
	Matched           int      `json:"matched_terms_count"`     // S
	Concepts          int      `json:"ontology_concepts_count"` // O
	DomainCoverage    float64  `json:"domain_coverage"`
	OntologyRelevance float64  `json:"ontology_relevance"`
}

// Analyzer computes domain coverage and ontology relevance.
type Analyzer struct {
	source    WordSource
	threshold float64
	logger    *slog.Logger
}

// NewAnalyzer creates an Analyzer. A threshold of 0 means
// DefaultThreshold; a nil source disables word lookup.
func NewAnalyzer(source WordSource, threshold float64, logger *slog.Logger) *Analyzer {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{source: source, threshold: threshold, logger: logger}
}

// RelatedTerms expands keyword into the set of terms describing its
// domain: the keyword itself plus related words for each of its words.
// Lookups that fail are skipped.
func (a *Analyzer) RelatedTerms(ctx context.Context, keyword string) []string {
	normalized := strings.ToLower(strings.TrimSpace(keyword))
	if strings.Contains(normalized, "solar energy") {
		return append([]string(nil), solarEnergyTerms...)
	}

	seen := map[string]bool{normalized: true}
	terms := []string{normalized}
	if a.source == nil {
		return terms
	}
	for _, word := range strings.Fields(normalized) {
		words, err := a.source.RelatedWords(ctx, word)
		if err != nil {
			a.logger.Warn("related word lookup failed", "word", word, "error", err)
			continue
		}
		for _, w := range words {
			if !seen[w] {
				seen[w] = true
				terms = append(terms, w)
			}
		}
	}
	return terms
}

// Evaluate computes coverage of keyword's domain by concepts.
func (a *Analyzer) Evaluate(ctx context.Context, keyword string, concepts []string) Result {
	related := a.RelatedTerms(ctx, keyword)
	matched := 0
	for _, term := range related {
		for _, c := range concepts {
			if Similarity(term, c) > a.threshold {
				matched++
				break
			}
		}
	}

	res := Result{
		Keyword:      keyword,
		RelatedTerms: related,
		Related:      len(related),
		Matched:      matched,
		Concepts:     len(concepts),
	}
	if res.Related > 0 {
		res.DomainCoverage = float64(matched) / float64(res.Related) * 100
	}
	if res.Concepts > 0 {
		res.OntologyRelevance = float64(matched) / float64(res.Concepts) * 100
	}
	a.logger.Debug("lexical coverage", "keyword", keyword, "related", res.Related, "matched", matched, "concepts", res.Concepts)
	return res
}

// Similarity is the character-level matching ratio of a and b, in [0, 1].
func Similarity(a, b string) float64 {
	m := difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, ""))
	return m.Ratio()
}

// Concepts returns the distinct last path segments of every owl:Class and
// rdfs:Class IRI in g, in first-seen order.
func Concepts(g *rdf.Graph) []string {
	seen := map[string]bool{}
	var out []string
	for _, cls := range []rdf.Term{rdf.OWLClass, rdf.RDFSClass} {
		for _, s := range g.Subjects(rdf.RDFType, cls) {
			name := s.Value
			if i := strings.LastIndex(name, "/"); i >= 0 {
				name = name[i+1:]
			}
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}
