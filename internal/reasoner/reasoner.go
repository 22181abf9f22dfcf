// Package reasoner checks ontology consistency. Every check ends in one of
// three outcomes; callers that only want the legacy scalar use Result.Scalar.
package reasoner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/efebarandurmaz/ontometer/internal/rdf"
)

// Outcome is the tagged result of a consistency check.
type Outcome int

const (
	CheckFailed Outcome = iota
	Consistent
	Inconsistent
)

func (o Outcome) String() string {
	switch o {
	case Consistent:
		return "consistent"
	case Inconsistent:
		return "inconsistent"
	default:
		return "check_failed"
	}
}

// MarshalText lets outcomes appear by name in JSON and YAML.
func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

func (o *Outcome) UnmarshalText(b []byte) error {
	switch string(b) {
	case "consistent":
		*o = Consistent
	case "inconsistent":
		*o = Inconsistent
	case "check_failed":
		*o = CheckFailed
	default:
		return fmt.Errorf("unknown outcome %q", b)
	}
	return nil
}

// Verdict is what a Reasoner concludes about a graph.
type Verdict struct {
	Consistent bool
	// Unsatisfiable lists named classes that can have no instances. They do
	// not make the ontology inconsistent on their own.
	Unsatisfiable []string
}

// Reasoner decides whether a graph is logically consistent. Check must
// honor ctx cancellation where it can.
type Reasoner interface {
	Name() string
	Check(ctx context.Context, g *rdf.Graph) (Verdict, error)
}

// Result is the outcome of Run.
type Result struct {
	Reasoner      string        `json:"reasoner"`
	Outcome       Outcome       `json:"outcome"`
	Duration      time.Duration `json:"duration"`
	Unsatisfiable []string      `json:"unsatisfiable,omitempty"`
	Err           error         `json:"-"`
}

// Scalar collapses the outcome to 1 for consistent and 0 for both
// inconsistent and failed checks.
func (r Result) Scalar() int {
	if r.Outcome == Consistent {
		return 1
	}
	return 0
}

// ReportedDuration is the reasoning time shown to users: the measured time
// when consistent, zero otherwise.
func (r Result) ReportedDuration() time.Duration {
	if r.Outcome == Consistent {
		return r.Duration
	}
	return 0
}

// ErrPanic wraps a panic raised inside a reasoner.
var ErrPanic = errors.New("reasoner panicked")

// Run checks g with r under timeout (none when timeout <= 0). Errors,
// panics and deadline expiry all yield CheckFailed. Run does not wait for a
// reasoner that ignores cancellation.
func Run(ctx context.Context, r Reasoner, g *rdf.Graph, timeout time.Duration, logger *slog.Logger) Result {
	if logger == nil {
		logger = slog.Default()
	}
	res := Result{Outcome: CheckFailed}
	if r == nil {
		res.Err = errors.New("no reasoner configured")
		return res
	}
	res.Reasoner = r.Name()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type checked struct {
		v   Verdict
		err error
	}
	ch := make(chan checked, 1)
	start := time.Now()
	go func() {
		defer func() {
			if p := recover(); p != nil {
				ch <- checked{err: fmt.Errorf("%w: %v", ErrPanic, p)}
			}
		}()
		v, err := r.Check(ctx, g)
		ch <- checked{v: v, err: err}
	}()

	select {
	case c := <-ch:
		res.Duration = time.Since(start)
		switch {
		case c.err != nil:
			res.Err = c.err
		case c.v.Consistent:
			res.Outcome = Consistent
		default:
			res.Outcome = Inconsistent
		}
		res.Unsatisfiable = c.v.Unsatisfiable
	case <-ctx.Done():
		res.Duration = time.Since(start)
		res.Err = fmt.Errorf("consistency check aborted: %w", ctx.Err())
	}

	if res.Err != nil {
		logger.Warn("consistency check failed", "reasoner", res.Reasoner, "error", res.Err)
	} else {
		logger.Info("consistency check complete",
			"reasoner", res.Reasoner,
			"outcome", res.Outcome.String(),
			"duration", res.Duration,
			"unsatisfiable", len(res.Unsatisfiable),
		)
	}
	return res
}
