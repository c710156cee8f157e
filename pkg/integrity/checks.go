// Package integrity runs the static sanity battery against a network
// snapshot before any power flow is attempted. It is a hard gate: a single
// violation stops the pipeline, because downstream divergence would
// otherwise be misattributed to contingency severity instead of bad input
// data.
package integrity

import (
	"fmt"

	"gridtwin/pkg/model"
)

// Tolerance bands. The source material defines no standard values for a
// synthetic corridor, so these are fixed here and treated as part of the
// validator's contract.
const (
	// VoltageMatchTolerance is the maximum relative nominal-voltage
	// mismatch allowed across an AC line (0.5 %). Anything larger is a
	// modeling error, not a transformer boundary.
	VoltageMatchTolerance = 0.005

	// MinRXRatio and MaxRXRatio bound the plausible resistance/reactance
	// ratio of an overhead transmission line.
	MinRXRatio = 0.01
	MaxRXRatio = 1.0

	// MaxConverterLossShare bounds HVDC converter loss relative to the
	// rated transfer.
	MaxConverterLossShare = 0.10
)

// reactanceBand returns the plausible per-km reactance range for the
// declared voltage class, in ohm/km.
func reactanceBand(nominalKV float64) (min, max float64) {
	switch {
	case nominalKV >= 300:
		return 0.20, 0.50
	case nominalKV >= 150:
		return 0.25, 0.65
	default:
		return 0.10, 1.00
	}
}

// Validate runs the full check battery. It never stops at the first defect;
// the result carries every violation found.
func Validate(net *model.Network) Result {
	var r Result
	r.Violations = append(r.Violations, checkLines(net)...)
	r.Violations = append(r.Violations, checkTransformers(net)...)
	r.Violations = append(r.Violations, checkHVDC(net)...)
	r.Violations = append(r.Violations, checkReachability(net)...)
	return r
}

func checkLines(net *model.Network) []Violation {
	var out []Violation
	for _, l := range net.Lines() {
		from, _ := net.Bus(l.FromBus)
		to, _ := net.Bus(l.ToBus)

		// Voltage levels on both ends must match within tolerance.
		hi := from.NominalKV
		if to.NominalKV > hi {
			hi = to.NominalKV
		}
		if diff := abs(from.NominalKV - to.NominalKV); hi > 0 && diff/hi > VoltageMatchTolerance {
			out = append(out, Violation{
				Check: CheckVoltageMatch, EntityKind: "line", EntityID: l.ID,
				Detail: fmt.Sprintf("terminal voltages %.0f kV and %.0f kV do not match", from.NominalKV, to.NominalKV),
			})
		}

		// Zero or negative reactance makes the branch unsolvable; when it
		// is present the ratio and band checks are meaningless, so the
		// branch yields exactly this one impedance violation.
		if l.XOhm() <= 0 {
			out = append(out, Violation{
				Check: CheckImpedanceBand, EntityKind: "line", EntityID: l.ID,
				Detail: fmt.Sprintf("reactance %.4f ohm must be positive", l.XOhm()),
			})
		} else {
			if ratio := l.ROhm() / l.XOhm(); ratio < MinRXRatio || ratio > MaxRXRatio {
				out = append(out, Violation{
					Check: CheckImpedanceBand, EntityKind: "line", EntityID: l.ID,
					Detail: fmt.Sprintf("R/X ratio %.3f outside plausible band [%.2f, %.2f]", ratio, MinRXRatio, MaxRXRatio),
				})
			}
			lo, hiX := reactanceBand(from.NominalKV)
			if l.XOhmPerKM < lo || l.XOhmPerKM > hiX {
				out = append(out, Violation{
					Check: CheckImpedanceBand, EntityKind: "line", EntityID: l.ID,
					Detail: fmt.Sprintf("reactance %.3f ohm/km outside [%.2f, %.2f] for the %.0f kV class", l.XOhmPerKM, lo, hiX, from.NominalKV),
				})
			}
		}

		if l.RatedKA <= 0 {
			out = append(out, Violation{
				Check: CheckThermalRating, EntityKind: "line", EntityID: l.ID,
				Detail: fmt.Sprintf("thermal rating %.3f kA must be positive", l.RatedKA),
			})
		}
	}
	return out
}

func checkTransformers(net *model.Network) []Violation {
	var out []Violation
	for _, tr := range net.Transformers() {
		from, _ := net.Bus(tr.FromBus)
		to, _ := net.Bus(tr.ToBus)

		if from.NominalKV == to.NominalKV {
			out = append(out, Violation{
				Check: CheckTransformer, EntityKind: "transformer", EntityID: tr.ID,
				Detail: fmt.Sprintf("both terminals at %.0f kV; a transformer must couple different voltage levels", from.NominalKV),
			})
		}
		if tr.RatedMVA <= 0 {
			out = append(out, Violation{
				Check: CheckThermalRating, EntityKind: "transformer", EntityID: tr.ID,
				Detail: fmt.Sprintf("rated power %.1f MVA must be positive", tr.RatedMVA),
			})
		}
		if tr.ShortCircuitPct <= 0 || tr.ShortCircuitPct > 25 {
			out = append(out, Violation{
				Check: CheckTransformer, EntityKind: "transformer", EntityID: tr.ID,
				Detail: fmt.Sprintf("short-circuit reactance %.2f%% outside (0, 25]", tr.ShortCircuitPct),
			})
		}
	}
	return out
}

func checkHVDC(net *model.Network) []Violation {
	var out []Violation
	for _, h := range net.HVDCLinks() {
		if h.RatedMW <= 0 {
			out = append(out, Violation{
				Check: CheckHVDC, EntityKind: "hvdc", EntityID: h.ID,
				Detail: fmt.Sprintf("rated power %.1f MW must be positive", h.RatedMW),
			})
			continue
		}
		if share := h.LossMW / h.RatedMW; share > MaxConverterLossShare {
			out = append(out, Violation{
				Check: CheckHVDC, EntityKind: "hvdc", EntityID: h.ID,
				Detail: fmt.Sprintf("converter loss share %.1f%% above %.0f%%", share*100, MaxConverterLossShare*100),
			})
		}
	}
	return out
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
