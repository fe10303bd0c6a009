package strategy

// Deployment rule names, in execution order.
const (
	RuleOpeningDisruptor    = "opening-disruptor"
	RulePreemptiveDisruptor = "preemptive-disruptor"
	RuleSwarmVolley         = "swarm-volley"
	RuleSwarmFlood          = "swarm-flood"
)

// deploymentRules builds the deployment planner from the profile.
func deploymentRules(p *Profile, k Kinds) ([]*Rule, error) {
	var rules []*Rule
	dp := p.Deployment
	if l := dp.OpeningDisruptor; l != nil {
		r, err := launchRule(RuleOpeningDisruptor, "TurnNumber == 0 || Emergency", l, k)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	if pr := dp.PreemptiveDisruptor; pr != nil {
		r, err := preemptiveRule(pr, k)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	if l := dp.SwarmVolley; l != nil {
		r, err := launchRule(RuleSwarmVolley, "true", l, k)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	if f := dp.SwarmFlood; f != nil {
		r, err := floodRule(f, k)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}

func launchRule(name, def string, l *LaunchRule, k Kinds) (*Rule, error) {
	kind, err := resolve(name, k, l.Kind)
	if err != nil {
		return nil, err
	}
	return newRule(name, l.Gate, def, func(t *Turn) {
		t.placeN(kind, l.Cell.Loc(), l.Count)
	})
}

// preemptiveRule sends one unit when the pool would buy more than the
// threshold of the watched kind.
func preemptiveRule(p *PreemptiveRule, k Kinds) (*Rule, error) {
	kind, err := resolve(RulePreemptiveDisruptor, k, p.Kind)
	if err != nil {
		return nil, err
	}
	watch, err := resolve(RulePreemptiveDisruptor, k, p.Watch)
	if err != nil {
		return nil, err
	}
	return newRule(RulePreemptiveDisruptor, p.Gate, "true", func(t *Turn) {
		if t.snap.AffordableCount(watch) > p.Threshold {
			t.place(kind, p.Cell.Loc())
		}
	})
}

// floodRule launches units one at a time while the pool covers one more,
// and gives up for the turn on the first refusal.
func floodRule(f *FloodRule, k Kinds) (*Rule, error) {
	kind, err := resolve(RuleSwarmFlood, k, f.Kind)
	if err != nil {
		return nil, err
	}
	return newRule(RuleSwarmFlood, f.Gate, "true", func(t *Turn) {
		pool := poolOf(k, kind)
		loc := f.Cell.Loc()
		for t.snap.ResourceBalance(pool) >= t.snap.UnitCost(kind) {
			if !t.place(kind, loc) {
				t.log.Debug().
					Float64("balance", t.snap.ResourceBalance(pool)).
					Int("x", loc.X).
					Int("y", loc.Y).
					Msg("Flood cell refused, stopping")
				return
			}
		}
	})
}
