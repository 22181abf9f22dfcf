package temporal

import (
	"fmt"
	"time"

	sdktemporal "go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/efebarandurmaz/ontometer/internal/evaluation"
	"github.com/efebarandurmaz/ontometer/internal/lexical"
	"github.com/efebarandurmaz/ontometer/internal/quality"
)

// DefaultStructuralTimeout bounds the structural activity, reasoner
// included, when the input does not set one.
const DefaultStructuralTimeout = 10 * time.Minute

// AssessmentInput holds the workflow parameters. It mirrors
// evaluation.Request but keeps the uploaded bytes, which the request does
// not serialize.
type AssessmentInput struct {
	AssessmentID string
	Source       string
	Upload       []byte
	UploadName   string
	OntologyURL  string
	Keyword      string

	// StructuralTimeout is the StartToCloseTimeout of the structural
	// activity. The reasoner runs inside it, so a hung reasoner is cut off
	// by the workflow service even if it ignores cancellation.
	StructuralTimeout time.Duration
}

// Request converts the input to an evaluation.Request.
func (in AssessmentInput) Request() evaluation.Request {
	return evaluation.Request{
		Source:      in.Source,
		Upload:      in.Upload,
		UploadName:  in.UploadName,
		OntologyURL: in.OntologyURL,
		Keyword:     in.Keyword,
	}
}

// AssessmentWorkflow runs an assessment as three activities plus
// finalization. Lexical and quality failures degrade into the
// assessment's error list; only the structural step can fail the workflow.
func AssessmentWorkflow(ctx workflow.Context, input AssessmentInput) (*evaluation.Assessment, error) {
	logger := workflow.GetLogger(ctx)

	id := input.AssessmentID
	if id == "" {
		id = workflow.GetInfo(ctx).WorkflowExecution.RunID
	}

	timeout := input.StructuralTimeout
	if timeout <= 0 {
		timeout = DefaultStructuralTimeout
	}
	structuralCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: timeout,
		RetryPolicy: &sdktemporal.RetryPolicy{
			MaximumAttempts: 2,
		},
	})
	remoteCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &sdktemporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2,
			MaximumAttempts:    3,
		},
	})
	finalizeCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
	})

	// Step 1: load + structural metrics + reasoning
	var structural StructuralResult
	if err := workflow.ExecuteActivity(structuralCtx, StructuralActivity, id, input).Get(ctx, &structural); err != nil {
		return nil, fmt.Errorf("structural: %w", err)
	}
	a := structural.Assessment

	// Steps 2 + 3 are independent.
	lexicalF := workflow.ExecuteActivity(remoteCtx, LexicalActivity, input.Keyword, structural.Concepts)
	qualityF := workflow.ExecuteActivity(remoteCtx, QualityActivity, id, input.Request().QualityURL())

	var lex *lexical.Result
	if err := lexicalF.Get(ctx, &lex); err != nil {
		logger.Warn("lexical activity failed", "error", err)
		a.Errors = append(a.Errors, fmt.Sprintf("lexical: %v", err))
	}
	a.Lexical = lex

	var qual *quality.Result
	if err := qualityF.Get(ctx, &qual); err != nil {
		logger.Warn("quality activity failed", "error", err)
		a.Errors = append(a.Errors, fmt.Sprintf("quality: %v", err))
	}
	a.Quality = qual

	// Step 4: gates, history, publishing
	var final evaluation.Assessment
	if err := workflow.ExecuteActivity(finalizeCtx, FinalizeActivity, a).Get(ctx, &final); err != nil {
		return nil, fmt.Errorf("finalize: %w", err)
	}
	return &final, nil
}
