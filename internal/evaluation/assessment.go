package evaluation

import (
	"context"
	"time"

	"github.com/efebarandurmaz/ontometer/internal/lexical"
	"github.com/efebarandurmaz/ontometer/internal/quality"
	"github.com/efebarandurmaz/ontometer/internal/qualitygate"
	"github.com/efebarandurmaz/ontometer/internal/reasoner"
	"github.com/efebarandurmaz/ontometer/internal/report"
	"github.com/efebarandurmaz/ontometer/internal/structural"
)

// Request describes one assessment. Either Source or Upload must be set.
type Request struct {
	// Source is a local path or http(s) URL of the ontology.
	Source string `json:"source,omitempty"`
	// Upload holds the document body when the ontology was uploaded;
	// UploadName supplies its file name.
	Upload     []byte `json:"-"`
	UploadName string `json:"upload_name,omitempty"`
	// OntologyURL is where the ontology is published, used for the
	// quality checks. Empty means Source when Source is a URL.
	OntologyURL string `json:"ontology_url,omitempty"`
	// Keyword drives lexical coverage. Empty skips it.
	Keyword string `json:"keyword,omitempty"`
}

// Name returns the source or upload name of the request.
func (r Request) Name() string {
	if r.Source != "" {
		return r.Source
	}
	return r.UploadName
}

// QualityURL is the published URL the quality checks run against, or ""
// when there is none.
func (r Request) QualityURL() string {
	if r.OntologyURL != "" {
		return r.OntologyURL
	}
	if isHTTP(r.Source) {
		return r.Source
	}
	return ""
}

// Assessment is the complete result of one assessment.
type Assessment struct {
	ID          string                      `json:"id"`
	Source      string                      `json:"source"`
	Keyword     string                      `json:"keyword,omitempty"`
	Triples     int                         `json:"triples"`
	Elements    structural.ElementCounts    `json:"elements"`
	CreatedAt   time.Time                   `json:"created_at"`
	CompletedAt time.Time                   `json:"completed_at"`
	Report      *report.Report              `json:"report"`
	Structural  structural.Result           `json:"structural"`
	Consistency reasoner.Result             `json:"consistency"`
	Lexical     *lexical.Result             `json:"lexical,omitempty"`
	Quality     *quality.Result             `json:"quality,omitempty"`
	Gates       *qualitygate.PipelineResult `json:"gates,omitempty"`
	Errors      []string                    `json:"errors,omitempty"`
}

// GateContext extracts the figures quality gates are evaluated against.
func GateContext(a *Assessment) *qualitygate.EvalContext {
	ctx := &qualitygate.EvalContext{
		Consistency:          a.Consistency.Scalar(),
		ConsistencyOutcome:   a.Consistency.Outcome.String(),
		Classes:              a.Structural.Classes,
		Roots:                a.Structural.Roots,
		InheritanceDepth:     a.Structural.InheritanceDepth,
		RelationshipRichness: a.Structural.RelationshipRichness,
		Errors:               a.Errors,
	}
	if a.Lexical != nil {
		ctx.HasLexical = true
		ctx.DomainCoverage = a.Lexical.DomainCoverage
	}
	if a.Quality != nil {
		ctx.HasQuality = true
		ctx.NegotiatedFormats = a.Quality.Negotiation.Score
	}
	return ctx
}

// Store persists finished assessments.
type Store interface {
	Save(ctx context.Context, a *Assessment) error
}

// Publisher announces finished assessments.
type Publisher interface {
	Publish(ctx context.Context, a *Assessment) error
}
