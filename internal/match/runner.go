// Package match drives one game from the engine's config line to its end
// frame, planning a turn for every deploy frame.
package match

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/rampart/internal/model"
	"github.com/freeeve/rampart/internal/repository"
	"github.com/freeeve/rampart/internal/strategy"
	"github.com/freeeve/rampart/pkg/terminal"
)

// Conn is the engine connection a match is played over.
type Conn interface {
	ReadLine(ctx context.Context) ([]byte, error)
	terminal.Submitter
}

// Publisher receives every submitted turn, e.g. to forward it to spectators.
type Publisher interface {
	PublishTurn(report *strategy.TurnReport)
}

// EndNotifier is implemented by publishers that also want the final result.
type EndNotifier interface {
	PublishMatchEnded(res *Result)
}

// Result summarizes a finished match.
type Result struct {
	MatchID     string                 `json:"match_id"`
	Profile     string                 `json:"profile"`
	Turns       []*strategy.TurnReport `json:"turns"`
	FinalTurn   int                    `json:"final_turn"`
	Health      float64                `json:"health"`
	EnemyHealth float64                `json:"enemy_health"`
	Ended       bool                   `json:"ended"` // saw the end frame rather than EOF
}

// Runner plays one match.
type Runner struct {
	conn       Conn
	matchID    string
	profile    *strategy.Profile
	ctrlOpts   []strategy.Option
	recording  io.Writer
	turns      repository.TurnRepository
	cache      repository.LiveCache
	publisher  Publisher
	keepTurns  bool
	logger     zerolog.Logger
	persisting bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithRecording appends every engine line to w, one per line.
func WithRecording(w io.Writer) Option {
	return func(r *Runner) { r.recording = w }
}

// WithTurnRepository persists the match and each planned turn.
func WithTurnRepository(repo repository.TurnRepository) Option {
	return func(r *Runner) { r.turns = repo }
}

// WithLiveCache stores the latest turn report for late spectators.
func WithLiveCache(c repository.LiveCache) Option {
	return func(r *Runner) { r.cache = c }
}

// WithPublisher forwards each turn report to p.
func WithPublisher(p Publisher) Option {
	return func(r *Runner) { r.publisher = p }
}

// WithControllerOptions passes options through to the turn controller.
func WithControllerOptions(opts ...strategy.Option) Option {
	return func(r *Runner) { r.ctrlOpts = append(r.ctrlOpts, opts...) }
}

// WithTurnReports keeps every turn report on the Result.
func WithTurnReports() Option {
	return func(r *Runner) { r.keepTurns = true }
}

// NewRunner creates a Runner for a match played over conn.
func NewRunner(conn Conn, matchID string, profile *strategy.Profile, opts ...Option) *Runner {
	r := &Runner{
		conn:    conn,
		matchID: matchID,
		profile: profile,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = log.With().Str("matchId", matchID).Logger()
	return r
}

// Run reads the config line, then plans a turn for every deploy frame until
// the end frame arrives or the engine closes the stream.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	line, err := r.conn.ReadLine(ctx)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	r.record(line)
	cfg, err := terminal.ParseConfig(line)
	if err != nil {
		return nil, err
	}
	cat := terminal.NewCatalog(cfg)
	kinds, err := strategy.ResolveKinds(cat)
	if err != nil {
		return nil, err
	}

	opts := append([]strategy.Option{strategy.WithLogger(r.logger)}, r.ctrlOpts...)
	ctrl, err := strategy.NewController(r.matchID, kinds, r.profile, opts...)
	if err != nil {
		return nil, err
	}
	if err := ctrl.Restore(ctx); err != nil {
		return nil, err
	}

	if r.turns != nil {
		if _, err := r.turns.CreateMatch(ctx, r.matchID, r.profile.Name); err != nil {
			r.logger.Warn().Err(err).Msg("Failed to create match record, persistence disabled")
		} else {
			r.persisting = true
		}
	}

	r.logger.Info().
		Str("profile", r.profile.Name).
		Strs("rules", ctrl.RuleNames()).
		Float64("startingCores", cfg.Resources.StartingCores).
		Float64("startingBits", cfg.Resources.StartingBits).
		Msg("Match started")

	res := &Result{MatchID: r.matchID, Profile: r.profile.Name, FinalTurn: -1}
	for {
		line, err := r.conn.ReadLine(ctx)
		if errors.Is(err, io.EOF) {
			r.logger.Info().Int("turns", res.FinalTurn+1).Msg("Engine closed the stream")
			r.finish(ctx, res)
			return res, nil
		}
		if err != nil {
			return res, err
		}
		r.record(line)

		frame, err := terminal.ParseFrame(line)
		if err != nil {
			return res, err
		}
		res.Health = frame.Players[terminal.Us].Health
		res.EnemyHealth = frame.Players[terminal.Enemy].Health

		switch frame.Phase {
		case terminal.PhaseDeploy:
			board := terminal.NewBoard(cat, frame, r.conn)
			report, err := ctrl.ExecuteTurn(ctx, board)
			if err != nil {
				return res, err
			}
			res.FinalTurn = report.Turn
			if r.keepTurns {
				res.Turns = append(res.Turns, report)
			}
			r.afterTurn(ctx, frame, report)
		case terminal.PhaseAction:
			r.logger.Trace().Int("turn", frame.Turn).Int("frame", frame.FrameIndex).Msg("Action frame")
		case terminal.PhaseEnd:
			res.Ended = true
			r.logger.Info().
				Float64("health", res.Health).
				Float64("enemyHealth", res.EnemyHealth).
				Msg("Match ended")
			r.finish(ctx, res)
			return res, nil
		default:
			r.logger.Warn().Int("phase", int(frame.Phase)).Msg("Unknown frame phase")
		}
	}
}

func (r *Runner) record(line []byte) {
	if r.recording == nil {
		return
	}
	if _, err := r.recording.Write(append(line, '\n')); err != nil {
		r.logger.Warn().Err(err).Msg("Recording write failed, recording stopped")
		r.recording = nil
	}
}

// afterTurn hands a submitted turn to the optional sinks. Sink failures are
// logged; the match keeps playing.
func (r *Runner) afterTurn(ctx context.Context, frame *terminal.Frame, report *strategy.TurnReport) {
	if r.persisting {
		build, _ := terminal.EncodeActions(report.Build)
		deploy, _ := terminal.EncodeActions(report.Deploy)
		turn := model.Turn{
			MatchID:   r.matchID,
			Turn:      report.Turn,
			Frame:     frame.Raw,
			Build:     build,
			Deploy:    deploy,
			Emergency: report.Emergency,
			Cores:     report.Cores,
			Bits:      report.Bits,
		}
		if err := r.turns.SaveTurn(ctx, turn); err != nil {
			r.logger.Warn().Err(err).Int("turn", report.Turn).Msg("Failed to save turn")
		}
	}
	if r.cache != nil {
		data, err := json.Marshal(report)
		if err == nil {
			err = r.cache.SetLastTurn(ctx, r.matchID, data)
		}
		if err != nil {
			r.logger.Warn().Err(err).Int("turn", report.Turn).Msg("Failed to cache turn")
		}
	}
	if r.publisher != nil {
		r.publisher.PublishTurn(report)
	}
}

func (r *Runner) finish(ctx context.Context, res *Result) {
	if n, ok := r.publisher.(EndNotifier); ok {
		n.PublishMatchEnded(res)
	}
	if !r.persisting {
		return
	}
	if err := r.turns.SetFinished(ctx, r.matchID, res.FinalTurn, res.Health, res.EnemyHealth); err != nil {
		r.logger.Warn().Err(err).Msg("Failed to mark match finished")
	}
}
