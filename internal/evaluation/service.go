package evaluation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/efebarandurmaz/ontometer/internal/lexical"
	"github.com/efebarandurmaz/ontometer/internal/loader"
	"github.com/efebarandurmaz/ontometer/internal/observability"
	"github.com/efebarandurmaz/ontometer/internal/quality"
	"github.com/efebarandurmaz/ontometer/internal/qualitygate"
	"github.com/efebarandurmaz/ontometer/internal/rdf"
	"github.com/efebarandurmaz/ontometer/internal/structural"
)

// ServiceOptions wire a Service. Only Loader and Evaluator are required.
type ServiceOptions struct {
	Loader    *loader.Loader
	Evaluator *Evaluator
	Lexical   *lexical.Analyzer
	Quality   *quality.Assessor
	Gates     *qualitygate.Pipeline
	Store     Store
	Publisher Publisher
	Metrics   *observability.Metrics
	Audit     *observability.AuditLogger
	Logger    *slog.Logger
}

// Service performs complete assessments: load, structural metrics, lexical
// coverage, quality checks, gates and persistence.
type Service struct {
	opts   ServiceOptions
	logger *slog.Logger
	audit  *observability.AuditLogger
}

// NewService creates a Service.
func NewService(opts ServiceOptions) *Service {
	if opts.Evaluator == nil {
		opts.Evaluator = NewEvaluator(Options{Logger: opts.Logger, Metrics: opts.Metrics})
	}
	if opts.Loader == nil {
		opts.Loader = loader.New(loader.Options{Logger: opts.Logger})
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	audit := opts.Audit
	if audit == nil {
		audit = observability.Audit()
	}
	return &Service{opts: opts, logger: logger, audit: audit}
}

// Assess runs every stage for req. Only a failure to load the ontology is
// returned as an error; later stages degrade into Assessment.Errors.
func (s *Service) Assess(ctx context.Context, req Request) (*Assessment, error) {
	start := time.Now()
	if s.opts.Metrics != nil {
		s.opts.Metrics.ActiveAssessments.Inc()
		defer s.opts.Metrics.ActiveAssessments.Dec()
	}

	id := uuid.NewString()
	ctx, span := observability.StartAssessmentSpan(ctx, id, req.Name())
	defer span.End()

	a, concepts, err := s.Evaluate(ctx, id, req)
	if err != nil {
		observability.RecordError(span, err)
		if s.opts.Metrics != nil {
			s.opts.Metrics.RecordAssessment(time.Since(start), err)
		}
		return nil, err
	}
	a.Lexical = s.AssessLexical(ctx, req.Keyword, concepts)
	a.Quality = s.AssessQuality(ctx, a.ID, req.QualityURL())
	s.Finalize(ctx, a)

	if s.opts.Metrics != nil {
		s.opts.Metrics.RecordAssessment(time.Since(start), nil)
	}
	return a, nil
}

// Evaluate loads the ontology named by req and computes its structural
// report under assessment id (a new one when empty). It also returns the
// concept names used for lexical coverage.
func (s *Service) Evaluate(ctx context.Context, id string, req Request) (*Assessment, []string, error) {
	if id == "" {
		id = uuid.NewString()
	}
	a := &Assessment{
		ID:        id,
		Source:    req.Name(),
		Keyword:   req.Keyword,
		CreatedAt: time.Now().UTC(),
	}
	s.audit.LogAssessmentStart(ctx, a.ID, a.Source, req.Keyword)

	g, loadTime, err := s.load(ctx, req)
	if err != nil {
		s.audit.LogAssessmentError(ctx, a.ID, a.Source, err)
		return nil, nil, fmt.Errorf("load %s: %w", a.Source, err)
	}
	a.Triples = g.Len()
	a.Elements = structural.CountElements(g)
	s.logger.Info("ontology loaded",
		"assessment_id", a.ID,
		"source", a.Source,
		"triples", a.Triples,
		"object_properties", a.Elements.ObjectProperties,
		"classes", a.Elements.Classes,
		"duration", loadTime)
	s.audit.LogOntologyLoad(ctx, a.ID, a.Source, a.Triples, loadTime)

	ev := s.opts.Evaluator.Evaluate(ctx, g, loadTime)
	a.Report = ev.Report
	a.Structural = ev.Structural
	a.Consistency = ev.Consistency
	s.audit.LogReasoner(ctx, a.ID, ev.Consistency.Reasoner, ev.Consistency.Outcome.String(), ev.Consistency.Duration, ev.Consistency.Err)
	if ev.Consistency.Err != nil {
		a.Errors = append(a.Errors, fmt.Sprintf("consistency check: %v", ev.Consistency.Err))
	}
	if s.opts.Metrics != nil {
		s.opts.Metrics.RecordOntology(a.Triples, a.Structural.Classes)
	}
	return a, lexical.Concepts(g), nil
}

func (s *Service) load(ctx context.Context, req Request) (*rdf.Graph, time.Duration, error) {
	ctx, span := observability.StartStageSpan(ctx, observability.StageLoad)
	defer span.End()

	var (
		g        *rdf.Graph
		loadTime time.Duration
		err      error
	)
	switch {
	case len(req.Upload) > 0:
		g, loadTime, err = s.opts.Loader.LoadBytes(ctx, req.UploadName, req.Upload)
	case req.Source != "":
		g, loadTime, err = s.opts.Loader.Load(ctx, req.Source)
	default:
		err = loader.ErrEmptySource
	}
	observability.RecordError(span, err)
	if s.opts.Metrics != nil && err == nil {
		s.opts.Metrics.RecordStage(observability.StageLoad, loadTime)
	}
	return g, loadTime, err
}

// AssessLexical computes coverage of keyword's domain. It returns nil when
// no keyword is given or lexical analysis is not configured.
func (s *Service) AssessLexical(ctx context.Context, keyword string, concepts []string) *lexical.Result {
	if s.opts.Lexical == nil || strings.TrimSpace(keyword) == "" {
		return nil
	}
	ctx, span := observability.StartStageSpan(ctx, observability.StageLexical)
	defer span.End()
	start := time.Now()
	res := s.opts.Lexical.Evaluate(ctx, keyword, concepts)
	if s.opts.Metrics != nil {
		s.opts.Metrics.RecordStage(observability.StageLexical, time.Since(start))
	}
	return &res
}

// AssessQuality runs the external quality checks against a published
// ontology URL. It returns nil for non-http URLs or when quality checks are
// not configured.
func (s *Service) AssessQuality(ctx context.Context, assessmentID, ontologyURL string) *quality.Result {
	if s.opts.Quality == nil || !isHTTP(ontologyURL) {
		return nil
	}
	ctx, span := observability.StartStageSpan(ctx, observability.StageQuality)
	defer span.End()
	start := time.Now()
	res := s.opts.Quality.Assess(ctx, ontologyURL)
	if res.FOOPS == nil {
		s.audit.LogExternalCall(ctx, assessmentID, "foops", ontologyURL, fmt.Errorf("no FOOPS! report"))
		if s.opts.Metrics != nil {
			s.opts.Metrics.RecordExternalError("foops")
		}
	} else {
		s.audit.LogExternalCall(ctx, assessmentID, "foops", ontologyURL, nil)
	}
	if s.opts.Metrics != nil {
		s.opts.Metrics.RecordStage(observability.StageQuality, time.Since(start))
	}
	return &res
}

// Finalize runs the gate pipeline, stamps completion and hands a to the
// configured store and publisher. Sink failures are logged and recorded in
// a.Errors.
func (s *Service) Finalize(ctx context.Context, a *Assessment) *Assessment {
	if s.opts.Gates != nil {
		_, span := observability.StartStageSpan(ctx, observability.StageGates)
		a.Gates = s.opts.Gates.Run(GateContext(a))
		observability.RecordGates(span, string(a.Gates.Status), a.Gates.PassedCount, a.Gates.FailedCount, a.Gates.WarningCount)
		span.End()
		if s.opts.Metrics != nil {
			s.opts.Metrics.RecordGates(string(a.Gates.Status))
		}
	}
	a.CompletedAt = time.Now().UTC()

	if s.opts.Store != nil {
		if err := s.opts.Store.Save(ctx, a); err != nil {
			s.logger.Warn("failed to store assessment", "id", a.ID, "error", err)
			a.Errors = append(a.Errors, fmt.Sprintf("store: %v", err))
		}
	}
	if s.opts.Publisher != nil {
		if err := s.opts.Publisher.Publish(ctx, a); err != nil {
			s.logger.Warn("failed to publish assessment", "id", a.ID, "error", err)
			a.Errors = append(a.Errors, fmt.Sprintf("publish: %v", err))
		}
	}

	gateStatus := ""
	if a.Gates != nil {
		gateStatus = string(a.Gates.Status)
	}
	s.audit.LogAssessmentComplete(ctx, a.ID, a.Source, a.CompletedAt.Sub(a.CreatedAt), a.Consistency.Scalar(), gateStatus)
	s.logger.Info("assessment complete", "id", a.ID, "source", a.Source, "gates", gateStatus)
	return a
}

func isHTTP(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}
