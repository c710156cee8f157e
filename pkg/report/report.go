// Package report turns a contingency pass into the operator-facing result
// table: one classified row per eligible element plus summary counts and a
// planning recommendation. Construction is pure, so the same pass always
// yields the same report.
package report

import (
	"fmt"

	"gridtwin/pkg/contingency"
	"gridtwin/pkg/model"
)

// Status is the security classification of a single contingency row.
type Status string

const (
	// StatusSecure: converged with every branch at or below 90 % loading.
	StatusSecure Status = "secure"
	// StatusWarning: converged, worst branch above 90 % but within rating.
	StatusWarning Status = "warning"
	// StatusCritical: converged with at least one branch above its rating.
	StatusCritical Status = "critical-overload"
	// StatusCollapse: the scenario did not converge.
	StatusCollapse Status = "collapse"
	// StatusSkipped: the element was already out of service.
	StatusSkipped Status = "skipped"
)

// WarningLoadingPct is the loading above which a converged scenario is
// flagged as operating near its thermal limits.
const WarningLoadingPct = 90.0

// Row is one line of the result table.
type Row struct {
	ElementID        string
	Kind             model.ElementKind
	Outcome          contingency.OutcomeKind
	Status           Status
	MaxLoadingPct    float64
	ViolatedBranches []string
	Detail           string
}

// Summary aggregates the rows. BaseCase is excluded from the counts; it is
// reported separately because a study never reaches the sweep without it.
type Summary struct {
	Total     int
	Solved    int
	Diverged  int
	Skipped   int
	Violating int
	Warnings  int
	Critical  int

	WorstElementID  string
	WorstLoadingPct float64
}

// Report is the aggregated outcome of one study run.
type Report struct {
	BaseCase       Row
	Rows           []Row
	Summary        Summary
	N1Secure       bool
	Recommendation string
}

// Build aggregates a base-case result and the ordered contingency results
// into a report. It is pure and idempotent: rows keep the input order and
// nothing time- or ID-dependent is carried over.
func Build(baseCase contingency.Result, results []contingency.Result) *Report {
	rep := &Report{
		BaseCase: toRow(baseCase),
		Rows:     make([]Row, 0, len(results)),
	}

	s := &rep.Summary
	for _, r := range results {
		row := toRow(r)
		rep.Rows = append(rep.Rows, row)

		s.Total++
		switch row.Outcome {
		case contingency.OutcomeSolved:
			s.Solved++
		case contingency.OutcomeDiverged:
			s.Diverged++
		case contingency.OutcomeSkipped:
			s.Skipped++
		}
		switch row.Status {
		case StatusWarning:
			s.Warnings++
		case StatusCritical:
			s.Critical++
		}
		if len(row.ViolatedBranches) > 0 {
			s.Violating++
		}
		if row.Outcome == contingency.OutcomeSolved && row.MaxLoadingPct > s.WorstLoadingPct {
			s.WorstLoadingPct = row.MaxLoadingPct
			s.WorstElementID = row.ElementID
		}
	}

	rep.N1Secure = s.Critical == 0 && s.Diverged == 0
	rep.Recommendation = recommend(s)
	return rep
}

// FromPass builds the report straight from an engine pass.
func FromPass(p *contingency.Pass) *Report {
	return Build(p.BaseCase, p.Results)
}

func toRow(r contingency.Result) Row {
	row := Row{
		ElementID:     r.Element.ID,
		Kind:          r.Element.Kind,
		Outcome:       r.Outcome,
		MaxLoadingPct: r.MaxLoadingPct,
		Detail:        r.Detail,
	}
	for _, v := range r.Violations {
		row.ViolatedBranches = append(row.ViolatedBranches, v.ID)
	}
	row.Status = classify(r)
	return row
}

func classify(r contingency.Result) Status {
	switch r.Outcome {
	case contingency.OutcomeSkipped:
		return StatusSkipped
	case contingency.OutcomeDiverged:
		return StatusCollapse
	}
	switch {
	case r.MaxLoadingPct > 100:
		return StatusCritical
	case r.MaxLoadingPct > WarningLoadingPct:
		return StatusWarning
	default:
		return StatusSecure
	}
}

func recommend(s *Summary) string {
	critical := s.Critical + s.Diverged
	switch {
	case critical > 0:
		return fmt.Sprintf(
			"action required: %d contingencies violate the N-1 security criterion; redispatch or grid expansion needed",
			critical)
	case s.Warnings > 0:
		return fmt.Sprintf(
			"system is N-1 secure but %d contingencies operate near thermal limits; monitor closely",
			s.Warnings)
	default:
		return "system is fully N-1 compliant"
	}
}
