package strategy

import (
	"testing"

	"github.com/freeeve/rampart/internal/model"
	"github.com/freeeve/rampart/pkg/terminal"
)

func intPtr(v int) *int { return &v }

func frontWall() *WallSweep {
	return &WallSweep{Kind: RoleWall, Row: 13, From: 7, To: 20, GuardForward: true, EmergencyX: intPtr(17)}
}

func TestFrontWall_PlacesRowInOrder(t *testing.T) {
	r, err := wallSweepRule(RuleFrontWall, frontWall(), testKinds)
	if err != nil {
		t.Fatalf("build rule: %v", err)
	}
	snap := newFakeSnapshot(0, 40, 0)
	runRule(t, r, snap, nil)

	if len(snap.calls) != 14 {
		t.Fatalf("expected 14 walls, got %d", len(snap.calls))
	}
	for i, c := range snap.calls {
		if c.kind != "FF" || c.loc != terminal.Loc(7+i, 13) {
			t.Errorf("call %d: expected FF at (%d,13), got %s at %v", i, 7+i, c.kind, c.loc)
		}
	}
	if snap.cores != 26 {
		t.Errorf("expected 26 cores left, got %v", snap.cores)
	}
}

func TestFrontWall_ForwardGuard(t *testing.T) {
	r, _ := wallSweepRule(RuleFrontWall, frontWall(), testKinds)
	snap := newFakeSnapshot(0, 40, 0)
	snap.occupied[terminal.Loc(9, 14)] = true
	snap.occupied[terminal.Loc(15, 14)] = true
	runRule(t, r, snap, nil)

	for _, x := range []int{9, 15} {
		if n := len(snap.placedAt(terminal.Loc(x, 13))); n != 0 {
			t.Errorf("expected (%d,13) to be skipped, got %d placements", x, n)
		}
	}
	if len(snap.calls) != 12 {
		t.Errorf("expected 12 walls, got %d", len(snap.calls))
	}
}

func TestFrontWall_NoGuardIgnoresForwardRow(t *testing.T) {
	s := frontWall()
	s.GuardForward = false
	r, _ := wallSweepRule(RuleFrontWall, s, testKinds)
	snap := newFakeSnapshot(0, 40, 0)
	snap.occupied[terminal.Loc(9, 14)] = true
	runRule(t, r, snap, nil)

	if len(snap.calls) != 14 {
		t.Errorf("expected 14 walls, got %d", len(snap.calls))
	}
}

func TestFrontWall_Emergency(t *testing.T) {
	tests := []struct {
		name    string
		turn    int
		blocked []int
		want    bool
	}{
		{"first turn never raises", 0, nil, false},
		{"right side rebuilt", 4, []int{7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 19, 20}, true},
		{"left side only", 4, []int{18, 19, 20}, false},
		{"edge of threshold", 4, []int{18, 19, 20, 16}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, _ := wallSweepRule(RuleFrontWall, frontWall(), testKinds)
			snap := newFakeSnapshot(tc.turn, 40, 0)
			for _, x := range tc.blocked {
				snap.occupied[terminal.Loc(x, 13)] = true
			}
			mem := model.NewMemory()
			runRule(t, r, snap, &mem)
			if mem.Emergency != tc.want {
				t.Errorf("expected emergency %v, got %v", tc.want, mem.Emergency)
			}
		})
	}
}

func TestFrontWall_UnaffordableIsNoop(t *testing.T) {
	r, _ := wallSweepRule(RuleFrontWall, frontWall(), testKinds)
	snap := newFakeSnapshot(2, 3, 0)
	turn := runRule(t, r, snap, nil)

	if len(snap.calls) != 3 {
		t.Errorf("expected 3 walls, got %d", len(snap.calls))
	}
	if snap.cores != 0 {
		t.Errorf("expected balance spent, got %v", snap.cores)
	}
	if len(turn.fired) != 1 || turn.fired[0] != RuleFrontWall {
		t.Errorf("expected front-wall recorded as fired, got %v", turn.fired)
	}
}

func TestFrontWall_RepeatedOnBuiltRow(t *testing.T) {
	r, err := wallSweepRule(RuleFrontWall, frontWall(), testKinds)
	if err != nil {
		t.Fatalf("build rule: %v", err)
	}
	first := loadBoard(t, "frame_turn0.json")
	runRule(t, r, first, nil)
	walls := first.BuildStack()
	if len(walls) != 14 {
		t.Fatalf("expected 14 walls on the first turn, got %d", len(walls))
	}

	next := boardWith(t, 1, 30, 0, walls)
	mem := model.NewMemory()
	turn := runRule(t, r, next, &mem)

	if len(turn.build) != 0 || len(next.BuildStack()) != 0 {
		t.Errorf("expected no new walls on a built row, got %v", turn.build)
	}
	if got := next.ResourceBalance(terminal.Cores); got != 30 {
		t.Errorf("expected cores untouched, got %v", got)
	}
	if len(turn.fired) != 0 || mem.Emergency {
		t.Errorf("expected nothing fired and no emergency, got %v %v", turn.fired, mem.Emergency)
	}
}

func TestPerimeterSweep_ReverseDirection(t *testing.T) {
	s := &WallSweep{Kind: RoleWall, Row: 13, From: 27, To: 6, GuardForward: true}
	r, _ := wallSweepRule(RulePerimeterSweep, s, testKinds)
	snap := newFakeSnapshot(1, 3, 0)
	runRule(t, r, snap, nil)

	want := []terminal.Location{terminal.Loc(27, 13), terminal.Loc(26, 13), terminal.Loc(25, 13)}
	if len(snap.calls) != len(want) {
		t.Fatalf("expected %d walls, got %d", len(want), len(snap.calls))
	}
	for i, w := range want {
		if snap.calls[i].loc != w {
			t.Errorf("call %d: expected %v, got %v", i, w, snap.calls[i].loc)
		}
	}
}

func flank() *FlankRule {
	return &FlankRule{
		Kind:             RoleTurret,
		Cells:            []Cell{{5, 12}, {23, 12}},
		Followups:        []Cell{{4, 12}, {24, 12}},
		FollowupFromTurn: 1,
	}
}

func TestFlankTurrets_FirstTurnSkipsFollowups(t *testing.T) {
	r, _ := flankRule(flank(), testKinds)
	snap := newFakeSnapshot(0, 40, 0)
	runRule(t, r, snap, nil)

	if len(snap.calls) != 2 {
		t.Fatalf("expected 2 turrets, got %d", len(snap.calls))
	}
	if snap.calls[0].loc != terminal.Loc(5, 12) || snap.calls[1].loc != terminal.Loc(23, 12) {
		t.Errorf("unexpected turret cells: %v", snap.calls)
	}
}

func TestFlankTurrets_Followups(t *testing.T) {
	r, _ := flankRule(flank(), testKinds)
	snap := newFakeSnapshot(3, 40, 0)
	runRule(t, r, snap, nil)

	want := []terminal.Location{terminal.Loc(5, 12), terminal.Loc(4, 12), terminal.Loc(23, 12), terminal.Loc(24, 12)}
	if len(snap.calls) != len(want) {
		t.Fatalf("expected %d turrets, got %d", len(want), len(snap.calls))
	}
	for i, w := range want {
		if snap.calls[i].loc != w {
			t.Errorf("call %d: expected %v, got %v", i, w, snap.calls[i].loc)
		}
	}
}

func TestFlankTurrets_FollowupNeedsPrimary(t *testing.T) {
	r, _ := flankRule(flank(), testKinds)
	snap := newFakeSnapshot(3, 40, 0)
	snap.occupied[terminal.Loc(5, 12)] = true
	runRule(t, r, snap, nil)

	if n := len(snap.placedAt(terminal.Loc(4, 12))); n != 0 {
		t.Errorf("expected no followup at (4,12), got %d", n)
	}
	if n := len(snap.placedAt(terminal.Loc(24, 12))); n != 1 {
		t.Errorf("expected followup at (24,12), got %d", n)
	}
}

func reinforcement() *ReinforcementRule {
	return &ReinforcementRule{Kind: RoleHeavy, Watch: Cell{2, 13}, Cell: Cell{3, 10}, Threshold: 1}
}

func TestReinforcement_Threshold(t *testing.T) {
	tests := []struct {
		threats int
		want    int
	}{
		{0, 0},
		{1, 0},
		{2, 1},
		{5, 1},
	}
	for _, tc := range tests {
		r, _ := reinforcementRule(reinforcement(), testKinds)
		snap := newFakeSnapshot(2, 0, 10)
		snap.threats[terminal.Loc(2, 13)] = tc.threats
		runRule(t, r, snap, nil)

		if len(snap.calls) != tc.want {
			t.Errorf("threats=%d: expected %d placements, got %d", tc.threats, tc.want, len(snap.calls))
			continue
		}
		if tc.want == 1 && (snap.calls[0].kind != "EI" || snap.calls[0].loc != terminal.Loc(3, 10)) {
			t.Errorf("threats=%d: unexpected placement %+v", tc.threats, snap.calls[0])
		}
	}
}

func TestReinforcement_RefusedIsNoop(t *testing.T) {
	r, _ := reinforcementRule(reinforcement(), testKinds)
	snap := newFakeSnapshot(2, 0, 1)
	snap.threats[terminal.Loc(2, 13)] = 3
	turn := runRule(t, r, snap, nil)

	if len(snap.calls) != 0 || len(turn.deploy) != 0 {
		t.Errorf("expected nothing placed without bits, got %v", snap.calls)
	}
}

func TestCellRule_EmergencyGate(t *testing.T) {
	c := &CellRule{Kind: RoleShield, Cells: []Cell{{23, 12}}}
	r, err := cellRule(RuleEmergencyShield, "Emergency", c, testKinds)
	if err != nil {
		t.Fatalf("build rule: %v", err)
	}

	snap := newFakeSnapshot(2, 10, 0)
	runRule(t, r, snap, nil)
	if len(snap.calls) != 0 {
		t.Errorf("expected no shield without emergency, got %d", len(snap.calls))
	}

	mem := model.NewMemory()
	mem.Emergency = true
	runRule(t, r, snap, &mem)
	if len(snap.placedAt(terminal.Loc(23, 12))) != 1 {
		t.Errorf("expected shield at (23,12) during emergency, got %v", snap.calls)
	}
}

func TestInteriorFill_Staircase(t *testing.T) {
	d := &DiagonalFill{Kind: RoleShield, Start: Cell{6, 10}, Floor: 6}
	r, _ := diagonalFillRule(d, testKinds)
	snap := newFakeSnapshot(1, 100, 0)
	runRule(t, r, snap, nil)

	want := []terminal.Location{
		terminal.Loc(6, 10), terminal.Loc(7, 10),
		terminal.Loc(7, 9), terminal.Loc(8, 9),
		terminal.Loc(8, 8), terminal.Loc(9, 8),
		terminal.Loc(9, 7), terminal.Loc(10, 7),
	}
	if len(snap.calls) != len(want) {
		t.Fatalf("expected %d shields, got %d: %v", len(want), len(snap.calls), snap.calls)
	}
	for i, w := range want {
		if snap.calls[i].loc != w || snap.calls[i].kind != "EF" {
			t.Errorf("call %d: expected EF at %v, got %s at %v", i, w, snap.calls[i].kind, snap.calls[i].loc)
		}
	}
}

func TestInteriorFill_StopsWhenUnaffordable(t *testing.T) {
	d := &DiagonalFill{Kind: RoleShield, Start: Cell{6, 10}, Floor: 6}
	r, _ := diagonalFillRule(d, testKinds)
	snap := newFakeSnapshot(1, 9, 0)
	runRule(t, r, snap, nil)

	if len(snap.calls) != 2 {
		t.Errorf("expected 2 shields for 9 cores, got %d", len(snap.calls))
	}
	if snap.cores != 1 {
		t.Errorf("expected 1 core left, got %v", snap.cores)
	}
}

func TestInteriorFill_SkipsOccupied(t *testing.T) {
	d := &DiagonalFill{Kind: RoleShield, Start: Cell{6, 10}, Floor: 6}
	r, _ := diagonalFillRule(d, testKinds)
	snap := newFakeSnapshot(1, 8, 0)
	snap.occupied[terminal.Loc(6, 10)] = true
	snap.occupied[terminal.Loc(7, 10)] = true
	runRule(t, r, snap, nil)

	if len(snap.calls) != 2 || snap.calls[0].loc != terminal.Loc(7, 9) {
		t.Errorf("expected to continue down the staircase, got %v", snap.calls)
	}
}

func TestScatterFill_Seeded(t *testing.T) {
	s := &ScatterFill{Kind: RoleShield, Limit: 3}
	run := func() []placeCall {
		SeedRng(7)
		defer ResetRng()
		r, _ := scatterFillRule(s, testKinds)
		snap := newFakeSnapshot(1, 100, 0)
		runRule(t, r, snap, nil)
		return snap.calls
	}

	first, second := run(), run()
	if len(first) != 3 {
		t.Fatalf("expected 3 placements under the limit, got %d", len(first))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("call %d differs between seeded runs: %v vs %v", i, first[i], second[i])
		}
		if first[i].loc.Y >= terminal.HalfArena || !terminal.InArenaBounds(first[i].loc) {
			t.Errorf("call %d landed off our half: %v", i, first[i].loc)
		}
	}
}

func TestScatterFill_UntilUnaffordable(t *testing.T) {
	r, _ := scatterFillRule(&ScatterFill{Kind: RoleShield}, testKinds)
	snap := newFakeSnapshot(1, 13, 0)
	runRule(t, r, snap, nil)

	if len(snap.calls) != 3 {
		t.Errorf("expected 3 shields for 13 cores, got %d", len(snap.calls))
	}
}
