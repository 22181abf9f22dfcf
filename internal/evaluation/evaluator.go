// Package evaluation runs the metrics core over a loaded graph and
// orchestrates complete ontology assessments.
package evaluation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/efebarandurmaz/ontometer/internal/observability"
	"github.com/efebarandurmaz/ontometer/internal/probe"
	"github.com/efebarandurmaz/ontometer/internal/rdf"
	"github.com/efebarandurmaz/ontometer/internal/reasoner"
	"github.com/efebarandurmaz/ontometer/internal/report"
	"github.com/efebarandurmaz/ontometer/internal/structural"
)

// ErrEmptyGraph marks the consistency result of a graph with no triples.
var ErrEmptyGraph = errors.New("empty graph")

// Options configure an Evaluator.
type Options struct {
	// Reasoner checks consistency. Nil means the built-in structural
	// reasoner.
	Reasoner reasoner.Reasoner
	// ReasonerTimeout bounds the consistency check; <= 0 means no bound.
	ReasonerTimeout time.Duration
	Logger          *slog.Logger
	Metrics         *observability.Metrics
}

// Evaluator computes the metrics report for one graph at a time. It holds
// no per-evaluation state and is safe for concurrent use.
type Evaluator struct {
	reasoner reasoner.Reasoner
	timeout  time.Duration
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(opts Options) *Evaluator {
	if opts.Reasoner == nil {
		opts.Reasoner = reasoner.NewStructural()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Evaluator{
		reasoner: opts.Reasoner,
		timeout:  opts.ReasonerTimeout,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
	}
}

// Evaluation is the outcome of Evaluate.
type Evaluation struct {
	Report      *report.Report
	Structural  structural.Result
	Consistency reasoner.Result
	Queries     []probe.Timing
	LoadTime    time.Duration
}

// Evaluate computes every structural metric, checks consistency, times the
// query battery and assembles the report. It never fails: a nil or empty
// graph yields the all-zero report, reasoner failures collapse to
// consistency 0.
func (e *Evaluator) Evaluate(ctx context.Context, g *rdf.Graph, loadTime time.Duration) *Evaluation {
	if g == nil || g.Len() == 0 {
		e.logger.Debug("empty graph, skipping evaluation")
		return &Evaluation{
			Report:      report.Build(report.Inputs{LoadTime: loadTime}),
			Consistency: reasoner.Result{Outcome: reasoner.CheckFailed, Err: ErrEmptyGraph},
			LoadTime:    loadTime,
		}
	}

	ev := &Evaluation{LoadTime: loadTime}

	_, span := observability.StartStageSpan(ctx, observability.StageStructural)
	start := time.Now()
	ev.Structural = structural.Analyze(g, structural.Options{Logger: e.logger})
	observability.RecordGraphSize(span, g.Len(), ev.Structural.Classes, ev.Structural.Properties)
	span.End()
	e.recordStage(observability.StageStructural, time.Since(start))

	rctx, span := observability.StartStageSpan(ctx, observability.StageReasoning)
	ev.Consistency = reasoner.Run(rctx, e.reasoner, g, e.timeout, e.logger)
	observability.RecordReasoning(span, ev.Consistency.Reasoner, ev.Consistency.Outcome.String(), ev.Consistency.Duration)
	observability.RecordError(span, ev.Consistency.Err)
	span.End()
	e.recordStage(observability.StageReasoning, ev.Consistency.Duration)
	if e.metrics != nil {
		e.metrics.RecordReasoner(ev.Consistency.Reasoner, ev.Consistency.Outcome.String())
	}

	_, span = observability.StartStageSpan(ctx, observability.StageQueries)
	start = time.Now()
	ev.Queries = probe.RunBattery(g)
	span.End()
	e.recordStage(observability.StageQueries, time.Since(start))

	ev.Report = report.Build(report.Inputs{
		Structural:  ev.Structural,
		Consistency: ev.Consistency,
		LoadTime:    loadTime,
		Queries:     ev.Queries,
	})

	e.logger.Info("evaluated ontology",
		"triples", g.Len(),
		"classes", ev.Structural.Classes,
		"depth", ev.Structural.InheritanceDepth,
		"consistency", ev.Consistency.Outcome.String(),
	)
	return ev
}

func (e *Evaluator) recordStage(stage string, d time.Duration) {
	if e.metrics != nil {
		e.metrics.RecordStage(stage, d)
	}
}
