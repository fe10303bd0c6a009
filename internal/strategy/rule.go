package strategy

import (
	"context"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/rs/zerolog"

	"github.com/freeeve/rampart/internal/model"
	"github.com/freeeve/rampart/pkg/terminal"
)

// RuleEnv is the environment rule gates are evaluated against. It is rebuilt
// before every rule so a gate sees what earlier rules of the turn changed.
type RuleEnv struct {
	TurnNumber  int
	Emergency   bool
	Cores       float64
	Bits        float64
	Health      float64
	EnemyHealth float64
}

// Rule is one step of a planner: a gate and the placements it attempts.
type Rule struct {
	Name         string
	ConditionSrc string
	program      *vm.Program
	Apply        func(t *Turn)
}

func compileGate(src string) (*vm.Program, error) {
	return expr.Compile(src, expr.Env(RuleEnv{}), expr.AsBool())
}

// newRule compiles the gate, falling back to def when the profile left it
// empty.
func newRule(name string, g Gate, def string, apply func(t *Turn)) (*Rule, error) {
	src := g.When
	if src == "" {
		src = def
	}
	prog, err := compileGate(src)
	if err != nil {
		return nil, fmt.Errorf("compile rule %q: %w", name, err)
	}
	return &Rule{Name: name, ConditionSrc: src, program: prog, Apply: apply}, nil
}

func (r *Rule) enabled(t *Turn) bool {
	result, err := vm.Run(r.program, t.env())
	if err != nil {
		t.log.Warn().Err(err).Str("rule", r.Name).Msg("Rule condition error")
		return false
	}
	ok, _ := result.(bool)
	return ok
}

// Turn carries one turn's state through the rules. It is created by the
// controller and never outlives ExecuteTurn.
type Turn struct {
	ctx     context.Context
	snap    Snapshot
	kinds   Kinds
	mem     *model.Memory
	log     zerolog.Logger
	metrics *turnMetrics

	rule   string
	fired  []string
	build  []terminal.Action
	deploy []terminal.Action
}

// Number returns the turn number.
func (t *Turn) Number() int { return t.snap.TurnNumber() }

func (t *Turn) raiseEmergency(at terminal.Location) {
	if t.mem.Emergency {
		return
	}
	t.mem.Emergency = true
	t.log.Info().Str("rule", t.rule).Int("x", at.X).Int("y", at.Y).Msg("Emergency raised")
}

func (t *Turn) env() RuleEnv {
	return RuleEnv{
		TurnNumber:  t.snap.TurnNumber(),
		Emergency:   t.mem.Emergency,
		Cores:       t.snap.ResourceBalance(terminal.Cores),
		Bits:        t.snap.ResourceBalance(terminal.Bits),
		Health:      t.snap.Health(terminal.Us),
		EnemyHealth: t.snap.Health(terminal.Enemy),
	}
}

// place commits one unit of kind at loc if the snapshot allows it.
func (t *Turn) place(kind terminal.UnitType, loc terminal.Location) bool {
	return t.placeN(kind, loc, 1) == 1
}

// placeN commits n units of kind at loc, or none if all n are not
// placeable right now.
func (t *Turn) placeN(kind terminal.UnitType, loc terminal.Location, n int) int {
	if !t.snap.CanPlace(kind, loc, n) {
		return 0
	}
	got := t.snap.Place(kind, loc, n)
	if got == 0 {
		return 0
	}
	structure := t.kinds.IsStructure(kind)
	for i := 0; i < got; i++ {
		a := terminal.Action{Type: kind, Location: loc}
		if structure {
			t.build = append(t.build, a)
		} else {
			t.deploy = append(t.deploy, a)
		}
	}
	t.metrics.committed(t.ctx, string(kind), structure, got)
	t.log.Debug().
		Str("rule", t.rule).
		Str("kind", string(kind)).
		Int("x", loc.X).
		Int("y", loc.Y).
		Int("n", got).
		Msg("Placed")
	return got
}

func (t *Turn) run(rules []*Rule) {
	for _, r := range rules {
		if !r.enabled(t) {
			continue
		}
		t.rule = r.Name
		before := len(t.build) + len(t.deploy)
		r.Apply(t)
		if len(t.build)+len(t.deploy) > before {
			t.fired = append(t.fired, r.Name)
		}
	}
	t.rule = ""
}
