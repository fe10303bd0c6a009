package strategy

import (
	"fmt"

	"github.com/freeeve/rampart/pkg/terminal"
)

// Placement rule names, in execution order.
const (
	RuleFrontWall       = "front-wall"
	RuleFlankTurrets    = "flank-turrets"
	RuleEmergencyShield = "emergency-shield"
	RuleReinforcement   = "reinforcement"
	RuleShieldCluster   = "shield-cluster"
	RulePerimeterSweep  = "perimeter-sweep"
	RuleInteriorFill    = "interior-fill"
	RuleScatterFill     = "scatter-fill"
)

// placementRules builds the placement planner from the profile.
func placementRules(p *Profile, k Kinds) ([]*Rule, error) {
	var rules []*Rule
	add := func(r *Rule, err error) error {
		if err != nil {
			return err
		}
		rules = append(rules, r)
		return nil
	}

	pl := p.Placement
	if s := pl.FrontWall; s != nil {
		if err := add(wallSweepRule(RuleFrontWall, s, k)); err != nil {
			return nil, err
		}
	}
	if f := pl.FlankTurrets; f != nil {
		if err := add(flankRule(f, k)); err != nil {
			return nil, err
		}
	}
	if c := pl.EmergencyShield; c != nil {
		if err := add(cellRule(RuleEmergencyShield, "Emergency", c, k)); err != nil {
			return nil, err
		}
	}
	if r := pl.Reinforcement; r != nil {
		if err := add(reinforcementRule(r, k)); err != nil {
			return nil, err
		}
	}
	if c := pl.ShieldCluster; c != nil {
		if err := add(cellRule(RuleShieldCluster, "true", c, k)); err != nil {
			return nil, err
		}
	}
	if s := pl.PerimeterSweep; s != nil {
		if err := add(wallSweepRule(RulePerimeterSweep, s, k)); err != nil {
			return nil, err
		}
	}
	if d := pl.InteriorFill; d != nil {
		if err := add(diagonalFillRule(d, k)); err != nil {
			return nil, err
		}
	}
	if s := pl.ScatterFill; s != nil {
		if err := add(scatterFillRule(s, k)); err != nil {
			return nil, err
		}
	}
	return rules, nil
}

func resolve(name string, k Kinds, r Role) (terminal.UnitType, error) {
	kind, err := k.ByRole(r)
	if err != nil {
		return "", fmt.Errorf("rule %q: %w", name, err)
	}
	return kind, nil
}

// wallSweepRule walks one row cell by cell. With the forward guard on, a cell
// is skipped when the cell one row ahead holds a structure.
func wallSweepRule(name string, s *WallSweep, k Kinds) (*Rule, error) {
	kind, err := resolve(name, k, s.Kind)
	if err != nil {
		return nil, err
	}
	step := 1
	if s.To < s.From {
		step = -1
	}
	return newRule(name, s.Gate, "true", func(t *Turn) {
		for x := s.From; ; x += step {
			loc := terminal.Loc(x, s.Row)
			guarded := s.GuardForward && t.snap.IsOccupiedByStationary(terminal.Loc(x, s.Row+1))
			if !guarded && t.place(kind, loc) {
				if s.EmergencyX != nil && t.Number() != 0 && x > *s.EmergencyX {
					t.raiseEmergency(loc)
				}
			}
			if x == s.To {
				return
			}
		}
	})
}

func flankRule(f *FlankRule, k Kinds) (*Rule, error) {
	kind, err := resolve(RuleFlankTurrets, k, f.Kind)
	if err != nil {
		return nil, err
	}
	return newRule(RuleFlankTurrets, f.Gate, "true", func(t *Turn) {
		for i, c := range f.Cells {
			if !t.place(kind, c.Loc()) {
				continue
			}
			if i < len(f.Followups) && t.Number() >= f.FollowupFromTurn {
				t.place(kind, f.Followups[i].Loc())
			}
		}
	})
}

func cellRule(name, def string, c *CellRule, k Kinds) (*Rule, error) {
	kind, err := resolve(name, k, c.Kind)
	if err != nil {
		return nil, err
	}
	return newRule(name, c.Gate, def, func(t *Turn) {
		for _, cell := range c.Cells {
			t.place(kind, cell.Loc())
		}
	})
}

// reinforcementRule attempts a single placement when the watched cell is
// covered by more enemy turrets than the threshold allows.
func reinforcementRule(r *ReinforcementRule, k Kinds) (*Rule, error) {
	kind, err := resolve(RuleReinforcement, k, r.Kind)
	if err != nil {
		return nil, err
	}
	return newRule(RuleReinforcement, r.Gate, "true", func(t *Turn) {
		threats := len(t.snap.ThreatsOn(r.Watch.Loc(), terminal.Us))
		if threats <= r.Threshold {
			return
		}
		t.log.Debug().Int("threats", threats).Str("watch", r.Watch.String()).Msg("Watched cell under fire")
		t.place(kind, r.Cell.Loc())
	})
}

// diagonalFillRule walks a staircase: try (x,y), step right and try again,
// then drop a row. It stops when the kind is unaffordable or the row reaches
// the floor.
func diagonalFillRule(d *DiagonalFill, k Kinds) (*Rule, error) {
	kind, err := resolve(RuleInteriorFill, k, d.Kind)
	if err != nil {
		return nil, err
	}
	return newRule(RuleInteriorFill, d.Gate, "true", func(t *Turn) {
		pool := poolOf(k, kind)
		x, y := d.Start.X, d.Start.Y
		for t.snap.ResourceBalance(pool) >= t.snap.UnitCost(kind) && y > d.Floor {
			t.place(kind, terminal.Loc(x, y))
			x++
			t.place(kind, terminal.Loc(x, y))
			y--
		}
	})
}

// scatterFillRule places the kind on random free cells of our half until it
// is unaffordable, the cells run out or the limit is hit.
func scatterFillRule(s *ScatterFill, k Kinds) (*Rule, error) {
	kind, err := resolve(RuleScatterFill, k, s.Kind)
	if err != nil {
		return nil, err
	}
	return newRule(RuleScatterFill, s.Gate, "true", func(t *Turn) {
		var free []terminal.Location
		for _, l := range terminal.OwnHalf() {
			if !t.snap.IsOccupiedByStationary(l) {
				free = append(free, l)
			}
		}
		placed := 0
		for len(free) > 0 && t.snap.AffordableCount(kind) > 0 {
			if s.Limit > 0 && placed >= s.Limit {
				return
			}
			i := rngIntn(len(free))
			if t.place(kind, free[i]) {
				placed++
			}
			free[i] = free[len(free)-1]
			free = free[:len(free)-1]
		}
	})
}

func poolOf(k Kinds, kind terminal.UnitType) terminal.Resource {
	if k.IsStructure(kind) {
		return terminal.Cores
	}
	return terminal.Bits
}
