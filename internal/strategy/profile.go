package strategy

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/freeeve/rampart/pkg/terminal"
)

//go:embed profiles/*.yaml
var builtinProfiles embed.FS

// DefaultProfile is the profile used when none is configured.
const DefaultProfile = "fortress"

// Cell is a board coordinate written as [x, y] in profile files.
type Cell struct {
	X, Y int
}

// Loc converts the cell to a board location.
func (c Cell) Loc() terminal.Location { return terminal.Loc(c.X, c.Y) }

func (c Cell) String() string { return fmt.Sprintf("[%d, %d]", c.X, c.Y) }

// UnmarshalYAML accepts a two-element sequence.
func (c *Cell) UnmarshalYAML(value *yaml.Node) error {
	var xy []int
	if err := value.Decode(&xy); err != nil {
		return fmt.Errorf("line %d: cell: %w", value.Line, err)
	}
	if len(xy) != 2 {
		return fmt.Errorf("line %d: cell needs [x, y], got %d values", value.Line, len(xy))
	}
	c.X, c.Y = xy[0], xy[1]
	return nil
}

// MarshalYAML writes the cell back as [x, y].
func (c Cell) MarshalYAML() (any, error) {
	return []int{c.X, c.Y}, nil
}

// Gate is an optional expr condition evaluated against RuleEnv right before
// a rule runs. An empty gate uses the rule's default condition.
type Gate struct {
	When string `yaml:"when,omitempty"`
}

// WallSweep lays a kind along one row, from From to To inclusive in either
// direction.
type WallSweep struct {
	Gate         `yaml:",inline"`
	Kind         Role `yaml:"kind"`
	Row          int  `yaml:"row"`
	From         int  `yaml:"from"`
	To           int  `yaml:"to"`
	GuardForward bool `yaml:"guard_forward"`
	// EmergencyX raises the emergency flag when a wall lands strictly right
	// of it on any turn but the first. Nil disables the trigger.
	EmergencyX *int `yaml:"emergency_x,omitempty"`
}

// FlankRule places one kind on fixed cells, then on each cell's paired
// followup once FollowupFromTurn is reached and the primary succeeded.
type FlankRule struct {
	Gate             `yaml:",inline"`
	Kind             Role   `yaml:"kind"`
	Cells            []Cell `yaml:"cells"`
	Followups        []Cell `yaml:"followups,omitempty"`
	FollowupFromTurn int    `yaml:"followup_from_turn"`
}

// CellRule places one kind on a fixed list of cells.
type CellRule struct {
	Gate  `yaml:",inline"`
	Kind  Role   `yaml:"kind"`
	Cells []Cell `yaml:"cells"`
}

// ReinforcementRule fires a single placement when more than Threshold enemy
// turrets cover Watch.
type ReinforcementRule struct {
	Gate      `yaml:",inline"`
	Kind      Role `yaml:"kind"`
	Watch     Cell `yaml:"watch"`
	Cell      Cell `yaml:"cell"`
	Threshold int  `yaml:"threshold"`
}

// DiagonalFill walks a staircase from Start, one step right then one row
// down, while the kind stays affordable and the row is above Floor.
type DiagonalFill struct {
	Gate  `yaml:",inline"`
	Kind  Role `yaml:"kind"`
	Start Cell `yaml:"start"`
	Floor int  `yaml:"floor"`
}

// ScatterFill places a kind on random free cells of our half. Limit caps the
// number of placements; zero means until unaffordable.
type ScatterFill struct {
	Gate  `yaml:",inline"`
	Kind  Role `yaml:"kind"`
	Limit int  `yaml:"limit"`
}

// LaunchRule sends Count units to one cell, all or nothing.
type LaunchRule struct {
	Gate  `yaml:",inline"`
	Kind  Role `yaml:"kind"`
	Cell  Cell `yaml:"cell"`
	Count int  `yaml:"count"`
}

// PreemptiveRule sends one unit when we could afford more than Threshold of
// the Watch kind.
type PreemptiveRule struct {
	Gate      `yaml:",inline"`
	Kind      Role `yaml:"kind"`
	Watch     Role `yaml:"watch"`
	Cell      Cell `yaml:"cell"`
	Threshold int  `yaml:"threshold"`
}

// FloodRule spends the rest of the pool on one kind at one cell and stops
// at the first refusal.
type FloodRule struct {
	Gate `yaml:",inline"`
	Kind Role `yaml:"kind"`
	Cell Cell `yaml:"cell"`
}

// PlacementPlan lists the placement rules in execution order. A nil section
// disables its rule.
type PlacementPlan struct {
	FrontWall       *WallSweep         `yaml:"front_wall,omitempty"`
	FlankTurrets    *FlankRule         `yaml:"flank_turrets,omitempty"`
	EmergencyShield *CellRule          `yaml:"emergency_shield,omitempty"`
	Reinforcement   *ReinforcementRule `yaml:"reinforcement,omitempty"`
	ShieldCluster   *CellRule          `yaml:"shield_cluster,omitempty"`
	PerimeterSweep  *WallSweep         `yaml:"perimeter_sweep,omitempty"`
	InteriorFill    *DiagonalFill      `yaml:"interior_fill,omitempty"`
	ScatterFill     *ScatterFill       `yaml:"scatter_fill,omitempty"`
}

// DeploymentPlan lists the deployment rules in execution order.
type DeploymentPlan struct {
	OpeningDisruptor    *LaunchRule     `yaml:"opening_disruptor,omitempty"`
	PreemptiveDisruptor *PreemptiveRule `yaml:"preemptive_disruptor,omitempty"`
	SwarmVolley         *LaunchRule     `yaml:"swarm_volley,omitempty"`
	SwarmFlood          *FloodRule      `yaml:"swarm_flood,omitempty"`
}

// EmergencyPolicy controls how the emergency flag survives between turns.
type EmergencyPolicy struct {
	// Sticky keeps a raised flag until the match ends instead of clearing
	// it at the start of each placement phase.
	Sticky bool `yaml:"sticky"`
}

// Profile is a named, tunable strategy.
type Profile struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description,omitempty"`
	Seed        int64           `yaml:"seed,omitempty"`
	Emergency   EmergencyPolicy `yaml:"emergency"`
	Placement   PlacementPlan   `yaml:"placement"`
	Deployment  DeploymentPlan  `yaml:"deployment"`
}

// BuiltinProfiles returns the names of the embedded profiles.
func BuiltinProfiles() []string {
	entries, err := builtinProfiles.ReadDir("profiles")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

// LoadProfile resolves nameOrPath as a built-in profile name first and as a
// YAML file path otherwise. The result is validated.
func LoadProfile(nameOrPath string) (*Profile, error) {
	if nameOrPath == "" {
		nameOrPath = DefaultProfile
	}
	data, err := builtinProfiles.ReadFile(path.Join("profiles", nameOrPath+".yaml"))
	if err != nil {
		data, err = os.ReadFile(nameOrPath)
		if err != nil {
			return nil, fmt.Errorf("load profile %q: not a built-in (%s) and %w",
				nameOrPath, strings.Join(BuiltinProfiles(), ", "), err)
		}
	}
	return ParseProfile(data)
}

// ParseProfile decodes and validates a YAML profile.
func ParseProfile(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks the profile for values the planners cannot act on and
// compiles every gate once so bad expressions fail at load.
func (p *Profile) Validate() error {
	var errs []error
	bad := func(rule, format string, args ...any) {
		errs = append(errs, fmt.Errorf("%s: %s", rule, fmt.Sprintf(format, args...)))
	}
	role := func(rule string, r Role) {
		if !validRole(r) {
			bad(rule, "unknown kind %q", r)
		}
	}
	cell := func(rule string, c Cell) {
		if !terminal.InArenaBounds(c.Loc()) {
			bad(rule, "cell %s is outside the arena", c)
		}
	}
	gate := func(rule string, g Gate) {
		if g.When == "" {
			return
		}
		if _, err := compileGate(g.When); err != nil {
			bad(rule, "when: %v", err)
		}
	}
	sweep := func(rule string, s *WallSweep) {
		role(rule, s.Kind)
		gate(rule, s.Gate)
		if s.Row < 0 || s.Row >= terminal.HalfArena {
			bad(rule, "row %d is not on our half", s.Row)
		}
		if s.From < 0 || s.From >= terminal.ArenaSize || s.To < 0 || s.To >= terminal.ArenaSize {
			bad(rule, "columns %d..%d leave the arena", s.From, s.To)
		}
	}

	if p.Name == "" {
		errs = append(errs, errors.New("profile needs a name"))
	}

	pl := p.Placement
	if r := pl.FrontWall; r != nil {
		sweep("front_wall", r)
	}
	if r := pl.FlankTurrets; r != nil {
		role("flank_turrets", r.Kind)
		gate("flank_turrets", r.Gate)
		for _, c := range append(append([]Cell(nil), r.Cells...), r.Followups...) {
			cell("flank_turrets", c)
		}
		if len(r.Followups) > len(r.Cells) {
			bad("flank_turrets", "%d followups for %d cells", len(r.Followups), len(r.Cells))
		}
	}
	for _, nr := range []struct {
		name string
		r    *CellRule
	}{{"emergency_shield", pl.EmergencyShield}, {"shield_cluster", pl.ShieldCluster}} {
		if nr.r == nil {
			continue
		}
		role(nr.name, nr.r.Kind)
		gate(nr.name, nr.r.Gate)
		for _, c := range nr.r.Cells {
			cell(nr.name, c)
		}
	}
	if r := pl.Reinforcement; r != nil {
		role("reinforcement", r.Kind)
		gate("reinforcement", r.Gate)
		cell("reinforcement", r.Watch)
		cell("reinforcement", r.Cell)
		if r.Threshold < 0 {
			bad("reinforcement", "negative threshold %d", r.Threshold)
		}
	}
	if r := pl.PerimeterSweep; r != nil {
		sweep("perimeter_sweep", r)
	}
	if r := pl.InteriorFill; r != nil {
		role("interior_fill", r.Kind)
		gate("interior_fill", r.Gate)
		if r.Floor < -1 || r.Start.Y >= terminal.HalfArena {
			bad("interior_fill", "start %s with floor %d", r.Start, r.Floor)
		}
	}
	if r := pl.ScatterFill; r != nil {
		role("scatter_fill", r.Kind)
		gate("scatter_fill", r.Gate)
		if r.Limit < 0 {
			bad("scatter_fill", "negative limit %d", r.Limit)
		}
	}

	dp := p.Deployment
	for _, nr := range []struct {
		name string
		r    *LaunchRule
	}{{"opening_disruptor", dp.OpeningDisruptor}, {"swarm_volley", dp.SwarmVolley}} {
		if nr.r == nil {
			continue
		}
		role(nr.name, nr.r.Kind)
		gate(nr.name, nr.r.Gate)
		cell(nr.name, nr.r.Cell)
		if nr.r.Count < 1 {
			bad(nr.name, "count must be at least 1, got %d", nr.r.Count)
		}
	}
	if r := dp.PreemptiveDisruptor; r != nil {
		role("preemptive_disruptor", r.Kind)
		role("preemptive_disruptor", r.Watch)
		gate("preemptive_disruptor", r.Gate)
		cell("preemptive_disruptor", r.Cell)
	}
	if r := dp.SwarmFlood; r != nil {
		role("swarm_flood", r.Kind)
		gate("swarm_flood", r.Gate)
		cell("swarm_flood", r.Cell)
	}

	if len(errs) > 0 {
		return fmt.Errorf("profile %q: %w", p.Name, errors.Join(errs...))
	}
	return nil
}
