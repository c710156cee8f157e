// Package powerflow defines the boundary to the steady-state solver. The
// contingency engine only depends on the Solver interface; every invocation
// is independently fallible and convergence never carries over between
// calls. A reference linearized DC implementation is provided.
package powerflow

import (
	"context"
	"errors"
	"fmt"

	"gridtwin/pkg/model"
)

// ErrNotConverged is the sentinel every convergence failure wraps, so
// callers can distinguish the expected failure mode from a generic fault.
var ErrNotConverged = errors.New("power flow did not converge")

// NotConvergedError carries the reason a solve failed to converge.
type NotConvergedError struct {
	Reason string
}

// Error implements the error interface.
func (e *NotConvergedError) Error() string {
	return fmt.Sprintf("power flow did not converge: %s", e.Reason)
}

// Is matches the sentinel.
func (e *NotConvergedError) Is(target error) bool { return target == ErrNotConverged }

func notConverged(format string, args ...any) error {
	return &NotConvergedError{Reason: fmt.Sprintf(format, args...)}
}

// BranchLoading is the per-branch result of a successful solve.
type BranchLoading struct {
	ID         string
	Kind       model.ElementKind
	FlowMW     float64
	RatingMW   float64
	LoadingPct float64
}

// Solution is the outcome of a converged solve.
type Solution struct {
	// Loadings lists every in-service AC branch in construction order.
	Loadings []BranchLoading
	// HVDCTransfersMW lists the scheduled transfer per in-service DC link.
	HVDCTransfersMW map[string]float64
	// SlackMW is the injection the slack had to provide to balance the case.
	SlackMW float64
	// MaxLoadingPct is the maximum branch loading observed.
	MaxLoadingPct float64
}

// Overloaded returns the branches loaded beyond their thermal rating.
func (s *Solution) Overloaded() []BranchLoading {
	var out []BranchLoading
	for _, l := range s.Loadings {
		if l.LoadingPct > 100 {
			out = append(out, l)
		}
	}
	return out
}

// Solver is the narrow contract the contingency engine depends on.
type Solver interface {
	// Solve attempts a steady-state solution for the given snapshot. It
	// returns a *NotConvergedError (wrapping ErrNotConverged) when no
	// solution exists; any other error is a fault.
	Solve(ctx context.Context, net *model.Network) (*Solution, error)
}
