package reasoner

import (
	"context"
	"errors"

	"github.com/efebarandurmaz/ontometer/internal/rdf"
)

// ErrDisabled is reported when consistency checking is turned off.
var ErrDisabled = errors.New("consistency checking disabled")

// Disabled never checks. Every run ends in CheckFailed with ErrDisabled,
// so consistency reads 0.
type Disabled struct{}

func (Disabled) Name() string { return "none" }

func (Disabled) Check(context.Context, *rdf.Graph) (Verdict, error) {
	return Verdict{}, ErrDisabled
}
