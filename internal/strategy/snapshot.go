package strategy

import (
	"fmt"

	"github.com/freeeve/rampart/pkg/terminal"
)

// Snapshot is the per-turn board the planners read and mutate. The snapshot
// owns legality and resource accounting: Place must reflect its spend in
// ResourceBalance before it returns.
type Snapshot interface {
	TurnNumber() int
	Health(side terminal.Side) float64
	ResourceBalance(pool terminal.Resource) float64
	UnitCost(kind terminal.UnitType) float64
	AffordableCount(kind terminal.UnitType) int
	IsOccupiedByStationary(loc terminal.Location) bool
	CanPlace(kind terminal.UnitType, loc terminal.Location, n int) bool
	Place(kind terminal.UnitType, loc terminal.Location, n int) int
	ThreatsOn(loc terminal.Location, side terminal.Side) []terminal.Unit
	Submit() error
}

var _ Snapshot = (*terminal.Board)(nil)

// Role names a unit kind by what the strategy uses it for.
type Role string

const (
	RoleWall      Role = "wall"
	RoleShield    Role = "shield"
	RoleTurret    Role = "turret"
	RoleSwarm     Role = "swarm"
	RoleHeavy     Role = "heavy"
	RoleDisruptor Role = "disruptor"
)

// Kinds maps each role to the match's unit shorthand. Resolved once at
// match start.
type Kinds struct {
	Wall      terminal.UnitType
	Shield    terminal.UnitType
	Turret    terminal.UnitType
	Swarm     terminal.UnitType
	Heavy     terminal.UnitType
	Disruptor terminal.UnitType
}

// ResolveKinds reads the six kinds from the catalog in config order.
func ResolveKinds(cat *terminal.Catalog) (Kinds, error) {
	var out [6]terminal.UnitType
	for i := range out {
		t, err := cat.TypeAt(i)
		if err != nil {
			return Kinds{}, fmt.Errorf("resolve kinds: %w", err)
		}
		out[i] = t
	}
	return Kinds{
		Wall:      out[0],
		Shield:    out[1],
		Turret:    out[2],
		Swarm:     out[3],
		Heavy:     out[4],
		Disruptor: out[5],
	}, nil
}

// ByRole returns the unit kind playing role r.
func (k Kinds) ByRole(r Role) (terminal.UnitType, error) {
	switch r {
	case RoleWall:
		return k.Wall, nil
	case RoleShield:
		return k.Shield, nil
	case RoleTurret:
		return k.Turret, nil
	case RoleSwarm:
		return k.Swarm, nil
	case RoleHeavy:
		return k.Heavy, nil
	case RoleDisruptor:
		return k.Disruptor, nil
	}
	return "", fmt.Errorf("unknown role %q", r)
}

// IsStructure reports whether kind is one of the three stationary kinds.
func (k Kinds) IsStructure(kind terminal.UnitType) bool {
	return kind == k.Wall || kind == k.Shield || kind == k.Turret
}

func validRole(r Role) bool {
	_, err := Kinds{}.ByRole(r)
	return err == nil
}
