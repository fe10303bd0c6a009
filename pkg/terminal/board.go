package terminal

import (
	"errors"
	"fmt"
)

// ErrAlreadySubmitted is returned when Submit is called twice on one board.
var ErrAlreadySubmitted = errors.New("turn already submitted")

// Side identifies a player. The algo always plays the bottom half.
type Side int

const (
	Us    Side = 0
	Enemy Side = 1
)

// Unit is a unit standing on the board.
type Unit struct {
	Type     UnitType
	Side     Side
	Location Location
	Health   float64
	ID       string
}

// Board is the per-turn snapshot of the arena. It answers legality and
// affordability questions and records placements for submission. A board
// is built fresh from each deploy frame and discarded after Submit.
type Board struct {
	catalog   *Catalog
	turn      int
	stats     [2]PlayerStats
	cells     map[Location][]Unit
	build     []Action
	deploy    []Action
	submitter Submitter
	submitted bool
}

// NewBoard builds a board from a decoded frame. submitter may be nil when
// the board is only used for what-if planning.
func NewBoard(cat *Catalog, f *Frame, submitter Submitter) *Board {
	b := &Board{
		catalog:   cat,
		turn:      f.Turn,
		stats:     f.Players,
		cells:     make(map[Location][]Unit),
		submitter: submitter,
	}
	for side := range f.Units {
		for idx, group := range f.Units[side] {
			// removal markers sit on top of structures that are still standing
			if idx >= removalUnitSlot {
				continue
			}
			t, err := cat.TypeAt(idx)
			if err != nil {
				continue
			}
			for _, rec := range group {
				b.addUnit(Unit{Type: t, Side: Side(side), Location: rec.Location, Health: rec.Health, ID: rec.ID})
			}
		}
	}
	return b
}

// NewEmptyBoard returns a board with no units and the given balances for us.
func NewEmptyBoard(cat *Catalog, turn int, cores, bits float64, submitter Submitter) *Board {
	return &Board{
		catalog: cat,
		turn:    turn,
		stats: [2]PlayerStats{
			{Cores: cores, Bits: bits},
			{},
		},
		cells:     make(map[Location][]Unit),
		submitter: submitter,
	}
}

func (b *Board) addUnit(u Unit) {
	b.cells[u.Location] = append(b.cells[u.Location], u)
}

// Catalog returns the unit catalog the board was built with.
func (b *Board) Catalog() *Catalog { return b.catalog }

// TurnNumber returns the turn this board belongs to.
func (b *Board) TurnNumber() int { return b.turn }

// Health returns a player's remaining health.
func (b *Board) Health(side Side) float64 { return b.stats[side].Health }

// ResourceBalance returns our current balance of the given pool.
func (b *Board) ResourceBalance(pool Resource) float64 {
	return b.balance(Us, pool)
}

func (b *Board) balance(side Side, pool Resource) float64 {
	if pool == Cores {
		return b.stats[side].Cores
	}
	return b.stats[side].Bits
}

func (b *Board) spend(side Side, pool Resource, amount float64) {
	if pool == Cores {
		b.stats[side].Cores -= amount
		return
	}
	b.stats[side].Bits -= amount
}

// UnitCost returns the price of one unit of t.
func (b *Board) UnitCost(t UnitType) float64 { return b.catalog.Cost(t) }

// AffordableCount returns how many units of t we could buy right now.
func (b *Board) AffordableCount(t UnitType) int {
	cost := b.catalog.Cost(t)
	if cost <= 0 {
		return 0
	}
	// tolerate float noise from fractional decay
	return int(b.ResourceBalance(b.catalog.Pool(t))/cost + 1e-9)
}

// UnitsAt returns the units standing on loc.
func (b *Board) UnitsAt(loc Location) []Unit {
	return b.cells[loc]
}

// IsOccupiedByStationary reports whether any structure stands on loc.
func (b *Board) IsOccupiedByStationary(loc Location) bool {
	for _, u := range b.cells[loc] {
		if b.catalog.IsStationary(u.Type) {
			return true
		}
	}
	return false
}

// CanPlace reports whether n units of t can be placed at loc for us right now.
func (b *Board) CanPlace(t UnitType, loc Location, n int) bool {
	if n <= 0 || !b.catalog.Known(t) || !InArenaBounds(loc) {
		return false
	}
	if loc.Y >= HalfArena {
		return false
	}
	if b.AffordableCount(t) < n {
		return false
	}
	stationary := b.catalog.IsStationary(t)
	if b.IsOccupiedByStationary(loc) {
		return false
	}
	if stationary {
		return n == 1 && len(b.cells[loc]) == 0
	}
	return IsFriendlyEdge(loc)
}

// Place attempts to place n units of t at loc one at a time and returns how
// many were committed. Each success is paid for before the next attempt.
func (b *Board) Place(t UnitType, loc Location, n int) int {
	placed := 0
	for i := 0; i < n; i++ {
		if !b.CanPlace(t, loc, 1) {
			break
		}
		b.spend(Us, b.catalog.Pool(t), b.catalog.Cost(t))
		b.addUnit(Unit{Type: t, Side: Us, Location: loc})
		a := Action{Type: t, Location: loc}
		if b.catalog.IsStationary(t) {
			b.build = append(b.build, a)
		} else {
			b.deploy = append(b.deploy, a)
		}
		placed++
	}
	return placed
}

// ThreatsOn returns the opposing turrets whose range covers loc, where side
// is the player being threatened.
func (b *Board) ThreatsOn(loc Location, side Side) []Unit {
	turret, err := b.catalog.TypeAt(structureKinds - 1)
	if err != nil {
		return nil
	}
	var out []Unit
	for _, l := range LocationsInRange(loc, b.catalog.Range(turret)) {
		for _, u := range b.cells[l] {
			if u.Type == turret && u.Side != side {
				out = append(out, u)
			}
		}
	}
	return out
}

// BuildStack returns the structure placements committed so far.
func (b *Board) BuildStack() []Action {
	return append([]Action(nil), b.build...)
}

// DeployStack returns the mobile launches committed so far.
func (b *Board) DeployStack() []Action {
	return append([]Action(nil), b.deploy...)
}

// Submit sends the committed stacks to the engine. A board can only be
// submitted once.
func (b *Board) Submit() error {
	if b.submitted {
		return ErrAlreadySubmitted
	}
	b.submitted = true
	if b.submitter == nil {
		return nil
	}
	if err := b.submitter.SendActions(b.build, b.deploy); err != nil {
		return fmt.Errorf("submit turn %d: %w", b.turn, err)
	}
	return nil
}

// OwnHalf returns every in-arena cell on our side of the board.
func OwnHalf() []Location {
	var out []Location
	for y := 0; y < HalfArena; y++ {
		for x := 0; x < ArenaSize; x++ {
			if l := Loc(x, y); InArenaBounds(l) {
				out = append(out, l)
			}
		}
	}
	return out
}
