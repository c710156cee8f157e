package model

import "math"

// BusRole tags which side of the corridor a bus sits on.
type BusRole string

const (
	RoleGeneration   BusRole = "generation"
	RoleLoad         BusRole = "load"
	RoleIntermediate BusRole = "intermediate"
)

// ElementKind identifies the outage-eligible element types.
type ElementKind string

const (
	KindLine        ElementKind = "line"
	KindHVDC        ElementKind = "hvdc"
	KindTransformer ElementKind = "transformer"
)

// Bus is a single electrical node.
type Bus struct {
	ID        string
	NominalKV float64
	Role      BusRole
	InService bool
}

// Line is an AC overhead-line branch between two buses.
type Line struct {
	ID           string
	FromBus      string
	ToBus        string
	LengthKM     float64
	ROhmPerKM    float64
	XOhmPerKM    float64
	ShuntNFPerKM float64
	RatedKA      float64
	InService    bool
}

// ROhm returns the total series resistance of the line.
func (l *Line) ROhm() float64 { return l.ROhmPerKM * l.LengthKM }

// XOhm returns the total series reactance of the line.
func (l *Line) XOhm() float64 { return l.XOhmPerKM * l.LengthKM }

// RatingMW returns the three-phase MW-equivalent thermal rating at the
// given operating voltage (MVA at unity power factor).
func (l *Line) RatingMW(nominalKV float64) float64 {
	return math.Sqrt(3) * nominalKV * l.RatedKA
}

// Transformer couples two buses at different voltage levels.
type Transformer struct {
	ID        string
	FromBus   string
	ToBus     string
	RatedMVA  float64
	// ShortCircuitPct is the short-circuit reactance uk in percent of the
	// rated impedance, the usual nameplate figure.
	ShortCircuitPct float64
	InService       bool
}

// HVDCLink is a point-to-point DC corridor. It carries a scheduled transfer
// rather than an impedance, which is why its contingency treatment differs
// from AC branches: tripping it removes the full transfer at once.
type HVDCLink struct {
	ID        string
	FromBus   string
	ToBus     string
	RatedMW   float64
	LossMW    float64
	InService bool
}

// DeliveredMW is the power arriving at the receiving terminal.
func (h *HVDCLink) DeliveredMW() float64 { return h.RatedMW - h.LossMW }

// Generator is a scheduled injection at a bus. Exactly one generator per
// network is the slack (the external interconnection) and absorbs the
// system imbalance.
type Generator struct {
	ID        string
	Bus       string
	PMW       float64
	QMvar     float64
	Slack     bool
	InService bool
}

// Load is a scheduled demand at a bus.
type Load struct {
	ID        string
	Bus       string
	PMW       float64
	QMvar     float64
	InService bool
}

// Element is the view of an outage-eligible element the contingency loop
// iterates over.
type Element struct {
	ID   string
	Kind ElementKind
}
