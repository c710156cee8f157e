package contingency

import (
	"errors"
	"fmt"
	"time"

	"gridtwin/pkg/model"
	"gridtwin/pkg/powerflow"
)

// OutcomeKind classifies how a scenario ended. A scenario only ever moves
// from prepared to exactly one of these.
type OutcomeKind string

const (
	// OutcomeSolved means the power flow converged; loadings are recorded.
	OutcomeSolved OutcomeKind = "solved"
	// OutcomeDiverged means the solver found no steady state, including
	// solves cut off by the per-scenario timeout.
	OutcomeDiverged OutcomeKind = "diverged"
	// OutcomeSkipped means no solve was attempted, e.g. the element was
	// already out of service in the baseline.
	OutcomeSkipped OutcomeKind = "skipped"
)

// Result is the immutable record of one contingency scenario. Exactly one
// is produced per eligible element.
type Result struct {
	Element model.Element
	Outcome OutcomeKind

	// MaxLoadingPct and Violations are only meaningful when solved.
	MaxLoadingPct float64
	Violations    []powerflow.BranchLoading

	// Detail carries the divergence reason or the skip reason.
	Detail string

	// Elapsed is the wall-clock solve time. It is diagnostic only and
	// never flows into the report, which must be deterministic.
	Elapsed time.Duration
}

// Violated reports whether any branch exceeded its thermal rating.
func (r Result) Violated() bool { return len(r.Violations) > 0 }

// Pass is the outcome of one full N-1 sweep: the base case plus one result
// per eligible element, in enumeration order.
type Pass struct {
	BaseCase Result
	Results  []Result
}

// ErrBaseCaseDiverged signals that the intact network has no steady state,
// which points at the input data rather than at any contingency.
var ErrBaseCaseDiverged = errors.New("base case did not converge")

// BaseCaseError carries the divergence detail for the intact network.
type BaseCaseError struct {
	Detail string
}

// Error implements the error interface.
func (e *BaseCaseError) Error() string {
	return fmt.Sprintf("base case did not converge: %s", e.Detail)
}

// Is matches the sentinel.
func (e *BaseCaseError) Is(target error) bool { return target == ErrBaseCaseDiverged }
