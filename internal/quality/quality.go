// Package quality collects FAIR quality indicators for a published
// ontology: a FOOPS! assessment and a content negotiation probe.
package quality

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/net/html"

	"github.com/efebarandurmaz/ontometer/internal/httpx"
	"github.com/efebarandurmaz/ontometer/internal/loader"
)

// DefaultFOOPSURL is the assessment endpoint of a local FOOPS! service.
const DefaultFOOPSURL = "http://localhost:8083/assessOntology"

// NegotiationFormats are the file extensions looked for when probing a
// publication directory.
var NegotiationFormats = []string{".ttl", ".rdf", ".owl", ".jsonld", ".n3", ".nt"}

// FOOPS is a client for the FOOPS! ontology assessment service.
type FOOPS struct {
	endpoint string
	client   *httpx.Client
}

// NewFOOPS creates a client for endpoint.
func NewFOOPS(endpoint string, retry *httpx.RetryConfig) *FOOPS {
	if endpoint == "" {
		endpoint = DefaultFOOPSURL
	}
	return &FOOPS{endpoint: endpoint, client: httpx.NewClient(retry, "ontometer/1.0")}
}

// Assess asks FOOPS! to evaluate the ontology published at ontologyURL and
// returns its JSON report.
func (f *FOOPS) Assess(ctx context.Context, ontologyURL string) (map[string]any, error) {
	resp, err := f.client.PostJSON(ctx, f.endpoint, map[string]string{"ontologyUri": ontologyURL})
	if err != nil {
		return nil, fmt.Errorf("foops: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, fmt.Errorf("foops: decode response: %w", err)
	}
	return out, nil
}

// Negotiation is the outcome of a content negotiation probe.
type Negotiation struct {
	BaseURL      string   `json:"base_url"`
	FoundFormats []string `json:"found_formats"`
	Score        int      `json:"content_negotiation_score"`
	MaxScore     int      `json:"max_score"`
}

// Prober checks which serializations a publication directory links to.
type Prober struct {
	client *httpx.Client
}

// NewProber creates a Prober.
func NewProber(retry *httpx.RetryConfig) *Prober {
	return &Prober{client: httpx.NewClient(retry, "ontometer/1.0")}
}

// Probe fetches baseURL and scores the distinct NegotiationFormats its
// anchors link to.
func (p *Prober) Probe(ctx context.Context, baseURL string) (Negotiation, error) {
	n := Negotiation{BaseURL: baseURL, FoundFormats: []string{}, MaxScore: len(NegotiationFormats)}
	resp, err := p.client.Get(ctx, baseURL, "text/html")
	if err != nil {
		return n, fmt.Errorf("content negotiation: %w", err)
	}
	links, err := extractLinks(resp.Body)
	if err != nil {
		return n, fmt.Errorf("content negotiation: %w", err)
	}
	found := map[string]bool{}
	for _, href := range links {
		for _, ext := range NegotiationFormats {
			if strings.HasSuffix(href, ext) {
				found[ext] = true
			}
		}
	}
	for _, ext := range NegotiationFormats {
		if found[ext] {
			n.FoundFormats = append(n.FoundFormats, ext)
		}
	}
	n.Score = len(n.FoundFormats)
	return n, nil
}

// extractLinks returns the href of every anchor in an HTML document.
func extractLinks(content []byte) ([]string, error) {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	var links []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, a := range n.Attr {
				if a.Key == "href" && a.Val != "" {
					links = append(links, a.Val)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links, nil
}

// Result is the quality section of an assessment.
type Result struct {
	OntologyURL string         `json:"ontology_url"`
	FOOPS       map[string]any `json:"foops,omitempty"`
	Negotiation Negotiation    `json:"content_negotiation"`
}

// Assessor runs both quality checks. Failures are logged and leave the
// corresponding part of the result empty.
type Assessor struct {
	foops  *FOOPS
	prober *Prober
	logger *slog.Logger
}

// NewAssessor creates an Assessor. A nil foops client skips the FOOPS!
// assessment.
func NewAssessor(foops *FOOPS, prober *Prober, logger *slog.Logger) *Assessor {
	if prober == nil {
		prober = NewProber(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Assessor{foops: foops, prober: prober, logger: logger}
}

// Assess evaluates the ontology published at ontologyURL.
func (a *Assessor) Assess(ctx context.Context, ontologyURL string) Result {
	res := Result{OntologyURL: ontologyURL}
	if a.foops != nil {
		report, err := a.foops.Assess(ctx, ontologyURL)
		if err != nil {
			a.logger.Warn("FOOPS! assessment failed", "url", ontologyURL, "error", err)
		} else {
			res.FOOPS = report
		}
	}

	base := loader.BaseOf(ontologyURL)
	n, err := a.prober.Probe(ctx, base)
	if err != nil {
		a.logger.Warn("content negotiation check failed", "url", base, "error", err)
	}
	res.Negotiation = n
	return res
}
