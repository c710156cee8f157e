package model

import (
	"errors"
	"testing"
)

func twoBusNetwork(t *testing.T) *Network {
	t.Helper()
	n := New()
	if err := n.AddBus(Bus{ID: "north", NominalKV: 380, Role: RoleGeneration, InService: true}); err != nil {
		t.Fatalf("AddBus north: %v", err)
	}
	if err := n.AddBus(Bus{ID: "south", NominalKV: 380, Role: RoleLoad, InService: true}); err != nil {
		t.Fatalf("AddBus south: %v", err)
	}
	return n
}

// TestAddBus_RejectsDuplicateID verifies identifier uniqueness across entities
func TestAddBus_RejectsDuplicateID(t *testing.T) {
	n := twoBusNetwork(t)

	err := n.AddBus(Bus{ID: "north", NominalKV: 380, InService: true})
	if !errors.Is(err, ErrDuplicateID) {
		t.Errorf("expected ErrDuplicateID, got %v", err)
	}

	// IDs are unique across entity kinds, not just within one
	err = n.AddGenerator(Generator{ID: "north", Bus: "south", PMW: 10, InService: true})
	if !errors.Is(err, ErrDuplicateID) {
		t.Errorf("expected ErrDuplicateID across kinds, got %v", err)
	}
}

// TestAddBus_RejectsNonPositiveVoltage tests construction-time voltage check
func TestAddBus_RejectsNonPositiveVoltage(t *testing.T) {
	n := New()
	err := n.AddBus(Bus{ID: "bad", NominalKV: 0, InService: true})
	if !errors.Is(err, ErrNegativeParam) {
		t.Errorf("expected ErrNegativeParam, got %v", err)
	}
}

// TestAddLine_RejectsDanglingBusReference tests the bus-reference invariant
func TestAddLine_RejectsDanglingBusReference(t *testing.T) {
	n := twoBusNetwork(t)

	err := n.AddLine(Line{ID: "l1", FromBus: "north", ToBus: "nowhere", LengthKM: 10, XOhmPerKM: 0.3, RatedKA: 2, InService: true})
	if !errors.Is(err, ErrUnknownBus) {
		t.Errorf("expected ErrUnknownBus, got %v", err)
	}
}

// TestAddLine_RejectsDegenerateImpedance tests the R=X=0 invariant
func TestAddLine_RejectsDegenerateImpedance(t *testing.T) {
	n := twoBusNetwork(t)

	err := n.AddLine(Line{ID: "l1", FromBus: "north", ToBus: "south", LengthKM: 10, RatedKA: 2, InService: true})
	if !errors.Is(err, ErrDegenerateLine) {
		t.Errorf("expected ErrDegenerateLine, got %v", err)
	}
}

// TestAddHVDCLink_RejectsLossAboveRating tests converter loss sanity
func TestAddHVDCLink_RejectsLossAboveRating(t *testing.T) {
	n := twoBusNetwork(t)

	err := n.AddHVDCLink(HVDCLink{ID: "dc1", FromBus: "north", ToBus: "south", RatedMW: 100, LossMW: 100, InService: true})
	if !errors.Is(err, ErrLossExceedsRating) {
		t.Errorf("expected ErrLossExceedsRating, got %v", err)
	}
}

// TestFinalize_RequiresExactlyOneSlack tests the slack invariant
func TestFinalize_RequiresExactlyOneSlack(t *testing.T) {
	n := twoBusNetwork(t)

	if err := n.Finalize(); !errors.Is(err, ErrSlackCount) {
		t.Errorf("expected ErrSlackCount with no slack, got %v", err)
	}

	if err := n.AddGenerator(Generator{ID: "ext", Bus: "north", Slack: true, InService: true}); err != nil {
		t.Fatalf("AddGenerator: %v", err)
	}
	if err := n.Finalize(); err != nil {
		t.Errorf("expected valid network, got %v", err)
	}

	if err := n.AddGenerator(Generator{ID: "ext2", Bus: "south", Slack: true, InService: true}); err != nil {
		t.Fatalf("AddGenerator: %v", err)
	}
	if err := n.Finalize(); !errors.Is(err, ErrSlackCount) {
		t.Errorf("expected ErrSlackCount with two slacks, got %v", err)
	}
}

// TestElements_EnumerationOrder verifies lines precede HVDC links in
// construction order
func TestElements_EnumerationOrder(t *testing.T) {
	n := twoBusNetwork(t)

	mustAdd := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	mustAdd(n.AddHVDCLink(HVDCLink{ID: "dc1", FromBus: "north", ToBus: "south", RatedMW: 1000, LossMW: 20, InService: true}))
	mustAdd(n.AddLine(Line{ID: "ac-a", FromBus: "north", ToBus: "south", LengthKM: 150, ROhmPerKM: 0.03, XOhmPerKM: 0.32, RatedKA: 2, InService: true}))
	mustAdd(n.AddLine(Line{ID: "ac-b", FromBus: "north", ToBus: "south", LengthKM: 150, ROhmPerKM: 0.03, XOhmPerKM: 0.32, RatedKA: 2, InService: true}))

	got := n.Elements()
	want := []Element{
		{ID: "ac-a", Kind: KindLine},
		{ID: "ac-b", Kind: KindLine},
		{ID: "dc1", Kind: KindHVDC},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d elements, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("element %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

// TestWithElementOut_DoesNotMutateBaseline verifies scenario isolation at
// the model level
func TestWithElementOut_DoesNotMutateBaseline(t *testing.T) {
	n := twoBusNetwork(t)
	if err := n.AddLine(Line{ID: "ac-a", FromBus: "north", ToBus: "south", LengthKM: 150, ROhmPerKM: 0.03, XOhmPerKM: 0.32, RatedKA: 2, InService: true}); err != nil {
		t.Fatalf("AddLine: %v", err)
	}

	derived, err := n.WithElementOut("ac-a")
	if err != nil {
		t.Fatalf("WithElementOut: %v", err)
	}

	if dl, _ := derived.Line("ac-a"); dl.InService {
		t.Error("derived copy should have ac-a out of service")
	}
	if bl, _ := n.Line("ac-a"); !bl.InService {
		t.Error("baseline must remain untouched")
	}
	if derived.SnapshotID() == n.SnapshotID() {
		t.Error("derived copy must carry a fresh snapshot ID")
	}
}

// TestWithElementOut_UnknownElement tests the error path
func TestWithElementOut_UnknownElement(t *testing.T) {
	n := twoBusNetwork(t)
	_, err := n.WithElementOut("ghost")
	if !errors.Is(err, ErrUnknownElement) {
		t.Errorf("expected ErrUnknownElement, got %v", err)
	}
}

// TestLine_RatingMW sanity-checks the MW-equivalent rating derivation
func TestLine_RatingMW(t *testing.T) {
	l := Line{RatedKA: 2.0}
	got := l.RatingMW(380)
	// sqrt(3) * 380 kV * 2.0 kA ~ 1316 MVA
	if got < 1315 || got > 1317 {
		t.Errorf("expected rating near 1316 MW, got %.1f", got)
	}
}
