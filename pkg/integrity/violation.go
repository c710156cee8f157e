package integrity

import (
	"fmt"
	"strings"
)

// Check names a single validation rule in the battery.
type Check string

const (
	CheckDeadBus       Check = "dead_bus"
	CheckVoltageMatch  Check = "voltage_match"
	CheckImpedanceBand Check = "impedance_band"
	CheckThermalRating Check = "thermal_rating"
	CheckTransformer   Check = "transformer_boundary"
	CheckHVDC          Check = "hvdc_parameters"
)

// Violation is one specific, actionable data-quality defect.
type Violation struct {
	Check      Check
	EntityKind string
	EntityID   string
	Detail     string
}

// String renders the violation with enough context to act on it.
func (v Violation) String() string {
	return fmt.Sprintf("%s: %s %q: %s", v.Check, v.EntityKind, v.EntityID, v.Detail)
}

// Result is the outcome of a full validation pass. The battery always runs
// to completion so every defect is reported at once.
type Result struct {
	Violations []Violation
}

// Valid reports whether the network passed every check.
func (r Result) Valid() bool { return len(r.Violations) == 0 }

// Err converts a failed result into a GateError, or nil when valid.
func (r Result) Err() error {
	if r.Valid() {
		return nil
	}
	return &GateError{Violations: r.Violations}
}

// GateError aborts the pipeline before any solve is attempted.
type GateError struct {
	Violations []Violation
}

// Error implements the error interface.
func (e *GateError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.String())
	}
	return fmt.Sprintf("integrity gate failed with %d violation(s): %s",
		len(e.Violations), strings.Join(parts, "; "))
}
