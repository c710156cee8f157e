// Package model holds the in-memory transmission network snapshot that the
// topology builder constructs, the integrity validator inspects, and the
// contingency engine derives per-scenario copies from. The baseline network
// is never mutated after construction; outages are expressed as derived
// copies with a single element out of service.
package model

import (
	"github.com/google/uuid"
)

// Network is a single immutable snapshot of the transmission model.
// Entities are kept in construction order, which is also the contingency
// enumeration order.
type Network struct {
	snapshotID string

	buses        []Bus
	lines        []Line
	transformers []Transformer
	hvdc         []HVDCLink
	generators   []Generator
	loads        []Load

	busIdx  map[string]int
	lineIdx map[string]int
	trafIdx map[string]int
	hvdcIdx map[string]int
	genIdx  map[string]int
	loadIdx map[string]int
}

// New creates an empty network snapshot.
func New() *Network {
	return &Network{
		snapshotID: uuid.NewString(),
		busIdx:     make(map[string]int),
		lineIdx:    make(map[string]int),
		trafIdx:    make(map[string]int),
		hvdcIdx:    make(map[string]int),
		genIdx:     make(map[string]int),
		loadIdx:    make(map[string]int),
	}
}

// SnapshotID identifies this snapshot. Derived copies get fresh IDs.
func (n *Network) SnapshotID() string { return n.snapshotID }

func (n *Network) idTaken(id string) bool {
	if _, ok := n.busIdx[id]; ok {
		return true
	}
	if _, ok := n.lineIdx[id]; ok {
		return true
	}
	if _, ok := n.trafIdx[id]; ok {
		return true
	}
	if _, ok := n.hvdcIdx[id]; ok {
		return true
	}
	if _, ok := n.genIdx[id]; ok {
		return true
	}
	_, ok := n.loadIdx[id]
	return ok
}

// AddBus adds a bus. Bus voltages must be positive.
func (n *Network) AddBus(b Bus) error {
	const op = "AddBus"
	if n.idTaken(b.ID) {
		return newError(op, "bus", b.ID, ErrDuplicateID)
	}
	if b.NominalKV <= 0 {
		return newError(op, "bus", b.ID, ErrNegativeParam)
	}
	n.busIdx[b.ID] = len(n.buses)
	n.buses = append(n.buses, b)
	return nil
}

// AddLine adds an AC line. Both terminals must exist, electrical parameters
// must be non-negative and the line must not be electrically degenerate.
func (n *Network) AddLine(l Line) error {
	const op = "AddLine"
	if n.idTaken(l.ID) {
		return newError(op, "line", l.ID, ErrDuplicateID)
	}
	if _, ok := n.busIdx[l.FromBus]; !ok {
		return newError(op, "line", l.ID, ErrUnknownBus)
	}
	if _, ok := n.busIdx[l.ToBus]; !ok {
		return newError(op, "line", l.ID, ErrUnknownBus)
	}
	if l.ROhmPerKM < 0 || l.XOhmPerKM < 0 || l.LengthKM < 0 || l.RatedKA < 0 || l.ShuntNFPerKM < 0 {
		return newError(op, "line", l.ID, ErrNegativeParam)
	}
	if l.ROhm() == 0 && l.XOhm() == 0 {
		return newError(op, "line", l.ID, ErrDegenerateLine)
	}
	n.lineIdx[l.ID] = len(n.lines)
	n.lines = append(n.lines, l)
	return nil
}

// AddTransformer adds a two-winding transformer.
func (n *Network) AddTransformer(t Transformer) error {
	const op = "AddTransformer"
	if n.idTaken(t.ID) {
		return newError(op, "transformer", t.ID, ErrDuplicateID)
	}
	if _, ok := n.busIdx[t.FromBus]; !ok {
		return newError(op, "transformer", t.ID, ErrUnknownBus)
	}
	if _, ok := n.busIdx[t.ToBus]; !ok {
		return newError(op, "transformer", t.ID, ErrUnknownBus)
	}
	if t.RatedMVA < 0 || t.ShortCircuitPct < 0 {
		return newError(op, "transformer", t.ID, ErrNegativeParam)
	}
	n.trafIdx[t.ID] = len(n.transformers)
	n.transformers = append(n.transformers, t)
	return nil
}

// AddHVDCLink adds a DC corridor between two buses.
func (n *Network) AddHVDCLink(h HVDCLink) error {
	const op = "AddHVDCLink"
	if n.idTaken(h.ID) {
		return newError(op, "hvdc", h.ID, ErrDuplicateID)
	}
	if _, ok := n.busIdx[h.FromBus]; !ok {
		return newError(op, "hvdc", h.ID, ErrUnknownBus)
	}
	if _, ok := n.busIdx[h.ToBus]; !ok {
		return newError(op, "hvdc", h.ID, ErrUnknownBus)
	}
	if h.RatedMW < 0 || h.LossMW < 0 {
		return newError(op, "hvdc", h.ID, ErrNegativeParam)
	}
	if h.LossMW >= h.RatedMW && h.RatedMW > 0 {
		return newError(op, "hvdc", h.ID, ErrLossExceedsRating)
	}
	n.hvdcIdx[h.ID] = len(n.hvdc)
	n.hvdc = append(n.hvdc, h)
	return nil
}

// AddGenerator adds a scheduled injection.
func (n *Network) AddGenerator(g Generator) error {
	const op = "AddGenerator"
	if n.idTaken(g.ID) {
		return newError(op, "generator", g.ID, ErrDuplicateID)
	}
	if _, ok := n.busIdx[g.Bus]; !ok {
		return newError(op, "generator", g.ID, ErrUnknownBus)
	}
	if g.PMW < 0 {
		return newError(op, "generator", g.ID, ErrNegativeParam)
	}
	n.genIdx[g.ID] = len(n.generators)
	n.generators = append(n.generators, g)
	return nil
}

// AddLoad adds a scheduled demand.
func (n *Network) AddLoad(l Load) error {
	const op = "AddLoad"
	if n.idTaken(l.ID) {
		return newError(op, "load", l.ID, ErrDuplicateID)
	}
	if _, ok := n.busIdx[l.Bus]; !ok {
		return newError(op, "load", l.ID, ErrUnknownBus)
	}
	if l.PMW < 0 {
		return newError(op, "load", l.ID, ErrNegativeParam)
	}
	n.loadIdx[l.ID] = len(n.loads)
	n.loads = append(n.loads, l)
	return nil
}

// Finalize checks whole-network invariants once construction is complete.
// A network is not usable before Finalize has passed.
func (n *Network) Finalize() error {
	slacks := 0
	for i := range n.generators {
		if n.generators[i].Slack && n.generators[i].InService {
			slacks++
		}
	}
	if slacks != 1 {
		return newError("Finalize", "network", n.snapshotID, ErrSlackCount)
	}
	return nil
}

// Buses returns the buses in construction order.
func (n *Network) Buses() []Bus { return append([]Bus(nil), n.buses...) }

// Lines returns the AC lines in construction order.
func (n *Network) Lines() []Line { return append([]Line(nil), n.lines...) }

// Transformers returns the transformers in construction order.
func (n *Network) Transformers() []Transformer {
	return append([]Transformer(nil), n.transformers...)
}

// HVDCLinks returns the DC links in construction order.
func (n *Network) HVDCLinks() []HVDCLink { return append([]HVDCLink(nil), n.hvdc...) }

// Generators returns the generators in construction order.
func (n *Network) Generators() []Generator {
	return append([]Generator(nil), n.generators...)
}

// Loads returns the loads in construction order.
func (n *Network) Loads() []Load { return append([]Load(nil), n.loads...) }

// Bus looks up a bus by ID.
func (n *Network) Bus(id string) (Bus, bool) {
	i, ok := n.busIdx[id]
	if !ok {
		return Bus{}, false
	}
	return n.buses[i], true
}

// Line looks up an AC line by ID.
func (n *Network) Line(id string) (Line, bool) {
	i, ok := n.lineIdx[id]
	if !ok {
		return Line{}, false
	}
	return n.lines[i], true
}

// HVDCLink looks up a DC link by ID.
func (n *Network) HVDCLink(id string) (HVDCLink, bool) {
	i, ok := n.hvdcIdx[id]
	if !ok {
		return HVDCLink{}, false
	}
	return n.hvdc[i], true
}

// SlackBus returns the bus hosting the in-service slack generator.
func (n *Network) SlackBus() (string, bool) {
	for i := range n.generators {
		if n.generators[i].Slack && n.generators[i].InService {
			return n.generators[i].Bus, true
		}
	}
	return "", false
}

// Elements enumerates the outage-eligible elements in the deterministic
// contingency order: AC lines first, then HVDC links, each in construction
// order.
func (n *Network) Elements() []Element {
	out := make([]Element, 0, len(n.lines)+len(n.hvdc))
	for i := range n.lines {
		out = append(out, Element{ID: n.lines[i].ID, Kind: KindLine})
	}
	for i := range n.hvdc {
		out = append(out, Element{ID: n.hvdc[i].ID, Kind: KindHVDC})
	}
	return out
}

// clone produces a deep copy of the network with a fresh snapshot ID.
func (n *Network) clone() *Network {
	c := &Network{
		snapshotID:   uuid.NewString(),
		buses:        append([]Bus(nil), n.buses...),
		lines:        append([]Line(nil), n.lines...),
		transformers: append([]Transformer(nil), n.transformers...),
		hvdc:         append([]HVDCLink(nil), n.hvdc...),
		generators:   append([]Generator(nil), n.generators...),
		loads:        append([]Load(nil), n.loads...),
		busIdx:       make(map[string]int, len(n.busIdx)),
		lineIdx:      make(map[string]int, len(n.lineIdx)),
		trafIdx:      make(map[string]int, len(n.trafIdx)),
		hvdcIdx:      make(map[string]int, len(n.hvdcIdx)),
		genIdx:       make(map[string]int, len(n.genIdx)),
		loadIdx:      make(map[string]int, len(n.loadIdx)),
	}
	for k, v := range n.busIdx {
		c.busIdx[k] = v
	}
	for k, v := range n.lineIdx {
		c.lineIdx[k] = v
	}
	for k, v := range n.trafIdx {
		c.trafIdx[k] = v
	}
	for k, v := range n.hvdcIdx {
		c.hvdcIdx[k] = v
	}
	for k, v := range n.genIdx {
		c.genIdx[k] = v
	}
	for k, v := range n.loadIdx {
		c.loadIdx[k] = v
	}
	return c
}

// WithElementOut derives a copy of the network with exactly the named line
// or HVDC link marked out of service. The receiver is left untouched.
func (n *Network) WithElementOut(id string) (*Network, error) {
	const op = "WithElementOut"
	if i, ok := n.lineIdx[id]; ok {
		c := n.clone()
		c.lines[i].InService = false
		return c, nil
	}
	if i, ok := n.hvdcIdx[id]; ok {
		c := n.clone()
		c.hvdc[i].InService = false
		return c, nil
	}
	return nil, newError(op, "element", id, ErrUnknownElement)
}
