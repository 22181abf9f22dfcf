package qualitygate

import (
	"fmt"
	"time"
)

// GateStatus represents the result of a quality gate check.
type GateStatus string

const (
	GatePassed  GateStatus = "passed"
	GateFailed  GateStatus = "failed"
	GateSkipped GateStatus = "skipped"
	GateWarning GateStatus = "warning"
)

// GateSeverity indicates how critical a gate failure is.
type GateSeverity string

const (
	SeverityCritical GateSeverity = "critical" // later gates are skipped
	SeverityRequired GateSeverity = "required" // fails the run
	SeverityAdvisory GateSeverity = "advisory" // reported as a warning only
)

// GateResult captures the outcome of a single gate evaluation.
type GateResult struct {
	Name        string        `json:"name"`
	Status      GateStatus    `json:"status"`
	Severity    GateSeverity  `json:"severity"`
	Value       float64       `json:"value"`     // measured figure
	Threshold   float64       `json:"threshold"` // bound the value is checked against
	Message     string        `json:"message"`
	Details     []string      `json:"details,omitempty"`
	Duration    time.Duration `json:"duration"`
	EvaluatedAt time.Time     `json:"evaluated_at"`
}

// Gate is the interface all quality gates must implement.
type Gate interface {
	Name() string
	Severity() GateSeverity
	Evaluate(ctx *EvalContext) (*GateResult, error)
}

// EvalContext carries the assessment figures gates are evaluated against.
// Has* flags mark sections that were actually computed; gates over missing
// sections are skipped.
type EvalContext struct {
	Consistency          int     // 1 consistent, 0 otherwise
	ConsistencyOutcome   string  // consistent, inconsistent or check_failed
	Classes              int     // declared classes
	Roots                int     // classes without parents
	InheritanceDepth     int     // longest subclass chain
	RelationshipRichness float64 // percent
	HasLexical           bool
	DomainCoverage       float64 // percent
	HasQuality           bool
	NegotiatedFormats    int      // serializations found next to the ontology
	Errors               []string // non-fatal assessment errors
}

// PipelineResult captures the complete gate pipeline evaluation.
type PipelineResult struct {
	Status       GateStatus    `json:"status"` // passed unless a critical or required gate failed
	Gates        []GateResult  `json:"gates"`
	PassedCount  int           `json:"passed_count"`
	FailedCount  int           `json:"failed_count"`
	SkippedCount int           `json:"skipped_count"`
	WarningCount int           `json:"warning_count"`
	Duration     time.Duration `json:"duration"`
	EvaluatedAt  time.Time     `json:"evaluated_at"`
	Summary      string        `json:"summary"`
}

// Pipeline orchestrates multiple quality gates in sequence.
type Pipeline struct {
	gates []Gate
}

// NewPipeline creates a new quality gate pipeline.
func NewPipeline(gates ...Gate) *Pipeline {
	return &Pipeline{gates: gates}
}

// AddGate appends a gate to the pipeline.
func (p *Pipeline) AddGate(g Gate) {
	p.gates = append(p.gates, g)
}

// Run evaluates all gates against the provided context.
func (p *Pipeline) Run(ctx *EvalContext) *PipelineResult {
	start := time.Now()
	result := &PipelineResult{
		Status:      GatePassed,
		EvaluatedAt: start,
	}

	aborted := false

	for _, gate := range p.gates {
		if aborted {
			result.Gates = append(result.Gates, GateResult{
				Name:        gate.Name(),
				Status:      GateSkipped,
				Severity:    gate.Severity(),
				Message:     "Skipped after critical gate failure",
				EvaluatedAt: time.Now(),
			})
			result.SkippedCount++
			continue
		}

		gateStart := time.Now()
		gr, err := gate.Evaluate(ctx)
		if err != nil {
			gr = &GateResult{
				Name:     gate.Name(),
				Status:   GateFailed,
				Severity: gate.Severity(),
				Message:  fmt.Sprintf("Gate evaluation error: %v", err),
			}
		}
		gr.Duration = time.Since(gateStart)
		gr.EvaluatedAt = gateStart
		if gr.Status == GateFailed && gr.Severity == SeverityAdvisory {
			gr.Status = GateWarning
		}

		result.Gates = append(result.Gates, *gr)

		switch gr.Status {
		case GatePassed:
			result.PassedCount++
		case GateFailed:
			result.FailedCount++
			if gr.Severity == SeverityCritical {
				aborted = true
				result.Status = GateFailed
			} else if gr.Severity == SeverityRequired {
				result.Status = GateFailed
			}
		case GateWarning:
			result.WarningCount++
		case GateSkipped:
			result.SkippedCount++
		}
	}

	result.Duration = time.Since(start)
	result.Summary = formatSummary(result)

	return result
}

func formatSummary(r *PipelineResult) string {
	return fmt.Sprintf("Quality Gates: %d passed, %d failed, %d warnings, %d skipped [%s]",
		r.PassedCount, r.FailedCount, r.WarningCount, r.SkippedCount, r.Status)
}
