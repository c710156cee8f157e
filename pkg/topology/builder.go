// Package topology constructs the synthetic "Wind North / Industry South"
// reference corridor: a generation-heavy northern cluster, a load-heavy
// southern cluster, parallel 380 kV AC circuits and one long-distance HVDC
// corridor. Construction is fully deterministic; the same config always
// yields the same network.
package topology

import (
	"fmt"

	"gridtwin/pkg/model"
)

type busSpec struct {
	ID   string
	KV   float64
	Role model.BusRole
}

// corridorBuses returns the fixed substation set of the reference corridor.
func corridorBuses() []busSpec {
	return []busSpec{
		{BusNorth, 380, model.RoleGeneration},
		{BusCentral, 380, model.RoleIntermediate},
		{BusSouth, 380, model.RoleLoad},
	}
}

// Build constructs a new network from the given config. It never mutates
// shared state; every call returns an independent snapshot.
func Build(cfg Config) (*model.Network, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	lines := cfg.Lines
	if len(lines) == 0 {
		lines = DefaultLines()
	}

	// A substation that no branch or injection touches is switched off on
	// purpose, so the dead-bus check does not flag it.
	used := map[string]bool{BusNorth: true, BusSouth: true}
	for _, l := range lines {
		used[l.From] = true
		used[l.To] = true
	}
	if cfg.HVDC.Enabled {
		used[BusNorth] = true
		used[BusSouth] = true
	}

	net := model.New()

	for _, b := range corridorBuses() {
		if err := net.AddBus(model.Bus{
			ID:        b.ID,
			NominalKV: b.KV,
			Role:      b.Role,
			InService: used[b.ID],
		}); err != nil {
			return nil, fmt.Errorf("build corridor: %w", err)
		}
	}

	// External interconnection acts as the slack; the wind park is a
	// scheduled injection like the original corridor model.
	if err := net.AddGenerator(model.Generator{
		ID: "ext-interconnection", Bus: BusNorth, Slack: true, InService: true,
	}); err != nil {
		return nil, fmt.Errorf("build corridor: %w", err)
	}
	if err := net.AddGenerator(model.Generator{
		ID: "offshore-wind-park", Bus: BusNorth, PMW: cfg.WindMW, InService: true,
	}); err != nil {
		return nil, fmt.Errorf("build corridor: %w", err)
	}

	if err := net.AddLoad(model.Load{
		ID: "industry-cluster-south", Bus: BusSouth, PMW: cfg.LoadMW, QMvar: cfg.LoadMvar, InService: true,
	}); err != nil {
		return nil, fmt.Errorf("build corridor: %w", err)
	}

	for _, l := range lines {
		if err := net.AddLine(model.Line{
			ID:           l.ID,
			FromBus:      l.From,
			ToBus:        l.To,
			LengthKM:     l.LengthKM,
			ROhmPerKM:    l.ROhmPerKM,
			XOhmPerKM:    l.XOhmPerKM,
			ShuntNFPerKM: l.ShuntNFPerKM,
			RatedKA:      l.RatedKA,
			InService:    !l.OutOfService,
		}); err != nil {
			return nil, fmt.Errorf("build corridor: %w", err)
		}
	}

	if cfg.HVDC.Enabled {
		if err := net.AddHVDCLink(model.HVDCLink{
			ID:        "hvdc-corridor",
			FromBus:   BusNorth,
			ToBus:     BusSouth,
			RatedMW:   cfg.HVDC.RatedMW,
			LossMW:    cfg.HVDC.LossMW,
			InService: true,
		}); err != nil {
			return nil, fmt.Errorf("build corridor: %w", err)
		}
	}

	if err := net.Finalize(); err != nil {
		return nil, fmt.Errorf("build corridor: %w", err)
	}
	return net, nil
}
