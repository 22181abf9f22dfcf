package temporal

import (
	"context"
	"errors"
	"fmt"

	sdktemporal "go.temporal.io/sdk/temporal"

	"github.com/efebarandurmaz/ontometer/internal/evaluation"
	"github.com/efebarandurmaz/ontometer/internal/lexical"
	"github.com/efebarandurmaz/ontometer/internal/quality"
)

// Error types reported to the workflow service.
const (
	ErrTypeLoad          = "OntologyLoadError"
	ErrTypeNotConfigured = "NotConfigured"
)

// StructuralResult is the serializable result of StructuralActivity.
type StructuralResult struct {
	Assessment *evaluation.Assessment
	Concepts   []string
}

// Dependencies holds shared resources injected into activities.
type Dependencies struct {
	Service *evaluation.Service
}

var deps *Dependencies

// SetDependencies injects shared resources (called during worker setup).
func SetDependencies(d *Dependencies) {
	deps = d
}

func service() (*evaluation.Service, error) {
	if deps == nil || deps.Service == nil {
		return nil, sdktemporal.NewNonRetryableApplicationError(
			"assessment service not configured", ErrTypeNotConfigured, nil)
	}
	return deps.Service, nil
}

// StructuralActivity loads the ontology and computes the structural
// report. Load failures are not retried.
func StructuralActivity(ctx context.Context, id string, input AssessmentInput) (StructuralResult, error) {
	svc, err := service()
	if err != nil {
		return StructuralResult{}, err
	}
	a, concepts, err := svc.Evaluate(ctx, id, input.Request())
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return StructuralResult{}, err
		}
		return StructuralResult{}, sdktemporal.NewNonRetryableApplicationError(
			fmt.Sprintf("load ontology: %v", err), ErrTypeLoad, err)
	}
	return StructuralResult{Assessment: a, Concepts: concepts}, nil
}

// LexicalActivity computes keyword coverage. It returns nil without a
// keyword.
func LexicalActivity(ctx context.Context, keyword string, concepts []string) (*lexical.Result, error) {
	svc, err := service()
	if err != nil {
		return nil, err
	}
	return svc.AssessLexical(ctx, keyword, concepts), nil
}

// QualityActivity runs the external quality checks. It returns nil when
// the ontology has no published http(s) URL.
func QualityActivity(ctx context.Context, id, ontologyURL string) (*quality.Result, error) {
	svc, err := service()
	if err != nil {
		return nil, err
	}
	return svc.AssessQuality(ctx, id, ontologyURL), nil
}

// FinalizeActivity runs the gates and hands the assessment to the store
// and publisher.
func FinalizeActivity(ctx context.Context, a *evaluation.Assessment) (*evaluation.Assessment, error) {
	svc, err := service()
	if err != nil {
		return nil, err
	}
	return svc.Finalize(ctx, a), nil
}
