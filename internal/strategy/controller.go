package strategy

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/rampart/internal/model"
	"github.com/freeeve/rampart/internal/repository"
	"github.com/freeeve/rampart/pkg/terminal"
)

// TurnPhase is where a turn is in its lifecycle. A turn always starts at
// PhasePlacing and is never resumed.
type TurnPhase int

const (
	PhasePlacing TurnPhase = iota
	PhaseDeploying
	PhaseSubmitted
)

func (p TurnPhase) String() string {
	switch p {
	case PhasePlacing:
		return "placing"
	case PhaseDeploying:
		return "deploying"
	case PhaseSubmitted:
		return "submitted"
	}
	return fmt.Sprintf("TurnPhase(%d)", int(p))
}

// MarshalText encodes the phase by name.
func (p TurnPhase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a phase name written by MarshalText.
func (p *TurnPhase) UnmarshalText(text []byte) error {
	for _, candidate := range []TurnPhase{PhasePlacing, PhaseDeploying, PhaseSubmitted} {
		if candidate.String() == string(text) {
			*p = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown turn phase %q", text)
}

// TurnReport summarizes one executed turn.
type TurnReport struct {
	MatchID    string            `json:"match_id"`
	Profile    string            `json:"profile"`
	Turn       int               `json:"turn"`
	Phase      TurnPhase         `json:"phase"`
	Emergency  bool              `json:"emergency"`
	Cores      float64           `json:"cores"` // balance before planning
	Bits       float64           `json:"bits"`
	CoresLeft  float64           `json:"cores_left"`
	BitsLeft   float64           `json:"bits_left"`
	Build      []terminal.Action `json:"build"`
	Deploy     []terminal.Action `json:"deploy"`
	RulesFired []string          `json:"rules_fired"`
}

// Controller runs the placement planner then the deployment planner for
// each turn of one match and submits the result. It is not safe for
// concurrent use; a match plays one turn at a time.
type Controller struct {
	matchID    string
	profile    *Profile
	kinds      Kinds
	placement  []*Rule
	deployment []*Rule
	mem        model.Memory
	store      repository.MemoryStore
	metrics    *turnMetrics
	logger     zerolog.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithMemoryStore mirrors the match memory to s after every turn.
func WithMemoryStore(s repository.MemoryStore) Option {
	return func(c *Controller) { c.store = s }
}

// WithLogger replaces the default logger, the global one tagged with the
// match ID.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// NewController compiles the profile's rules for the match's unit kinds.
func NewController(matchID string, kinds Kinds, profile *Profile, opts ...Option) (*Controller, error) {
	if profile == nil {
		return nil, errors.New("new controller: nil profile")
	}
	placement, err := placementRules(profile, kinds)
	if err != nil {
		return nil, fmt.Errorf("new controller: %w", err)
	}
	deployment, err := deploymentRules(profile, kinds)
	if err != nil {
		return nil, fmt.Errorf("new controller: %w", err)
	}
	tm, err := newTurnMetrics()
	if err != nil {
		return nil, fmt.Errorf("new controller: %w", err)
	}
	c := &Controller{
		matchID:    matchID,
		profile:    profile,
		kinds:      kinds,
		placement:  placement,
		deployment: deployment,
		mem:        model.NewMemory(),
		metrics:    tm,
		logger:     log.With().Str("matchId", matchID).Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With().Str("profile", profile.Name).Logger()
	return c, nil
}

// Restore loads memory saved by an earlier process for the same match.
// A match with nothing saved keeps fresh memory.
func (c *Controller) Restore(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	mem, err := c.store.LoadMemory(ctx, c.matchID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("restore memory: %w", err)
	}
	c.mem = mem
	c.logger.Info().Int("lastTurn", mem.LastTurn).Bool("emergency", mem.Emergency).Msg("Memory restored")
	return nil
}

// Memory returns a copy of the match memory.
func (c *Controller) Memory() model.Memory { return c.mem }

// RuleNames returns the compiled rule names in execution order.
func (c *Controller) RuleNames() []string {
	var names []string
	for _, r := range c.placement {
		names = append(names, r.Name)
	}
	for _, r := range c.deployment {
		names = append(names, r.Name)
	}
	return names
}

// ExecuteTurn plans and submits one turn. Placement always runs to
// completion before deployment, so deployment sees the emergency flag and
// the balances placement left behind. Memory is only committed once the
// snapshot has been submitted.
func (c *Controller) ExecuteTurn(ctx context.Context, snap Snapshot) (*TurnReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	turn := snap.TurnNumber()
	report := &TurnReport{
		MatchID: c.matchID,
		Profile: c.profile.Name,
		Turn:    turn,
		Phase:   PhasePlacing,
		Cores:   snap.ResourceBalance(terminal.Cores),
		Bits:    snap.ResourceBalance(terminal.Bits),
	}

	mem := c.mem
	wasEmergency := mem.Emergency
	if !c.profile.Emergency.Sticky {
		mem.Emergency = false
	}
	t := &Turn{
		ctx:     ctx,
		snap:    snap,
		kinds:   c.kinds,
		mem:     &mem,
		log:     c.logger.With().Int("turn", turn).Logger(),
		metrics: c.metrics,
	}

	t.run(c.placement)
	report.Phase = PhaseDeploying
	t.run(c.deployment)

	if err := snap.Submit(); err != nil {
		return nil, fmt.Errorf("execute turn %d: %w", turn, err)
	}
	report.Phase = PhaseSubmitted

	if mem.Emergency {
		if !wasEmergency || mem.EmergencySince < 0 {
			mem.EmergencySince = turn
		}
		c.metrics.emergencyTurn(ctx)
	} else {
		mem.EmergencySince = -1
	}
	mem.LastTurn = turn
	c.mem = mem

	if c.store != nil {
		// the turn is already submitted
		if err := c.store.SaveMemory(ctx, c.matchID, mem); err != nil {
			t.log.Warn().Err(err).Msg("Failed to save memory")
		}
	}

	report.Emergency = mem.Emergency
	report.CoresLeft = snap.ResourceBalance(terminal.Cores)
	report.BitsLeft = snap.ResourceBalance(terminal.Bits)
	report.Build = t.build
	report.Deploy = t.deploy
	report.RulesFired = t.fired

	t.log.Info().
		Int("build", len(report.Build)).
		Int("deploy", len(report.Deploy)).
		Bool("emergency", report.Emergency).
		Strs("rules", report.RulesFired).
		Msg("Turn submitted")
	return report, nil
}
