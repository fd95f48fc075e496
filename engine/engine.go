// Package engine evaluates moderation rules against incoming event
// contexts and dispatches the configured actions for matches. It owns
// rule ordering, first-trigger-wins semantics, silent-match handling,
// and per-action failure isolation; the triggers and actions packages
// own the individual kind semantics.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/havenchat/warden/actions"
	"github.com/havenchat/warden/countstore"
	"github.com/havenchat/warden/event"
	"github.com/havenchat/warden/notify"
	"github.com/havenchat/warden/triggers"
)

// runtime for executing rules against event contexts and dispatching
// actions.
//
// TODO: careful when initializing: collaborator fields should not be
// nil even though they are pointer or interface types.
type Engine struct {
	Logger      *slog.Logger
	TriggerDeps *triggers.Deps
	ActionDeps  *actions.Deps
	Counters    countstore.CountStore
	Notifier    notify.Notifier
	// ActionLimiter throttles outbound moderation API calls (optional)
	ActionLimiter *rate.Limiter

	rules atomic.Pointer[RuleSet]

	cooldownOnce sync.Once
	cooldowns    *lru.Cache[string, time.Time]
}

// SetRuleSet atomically swaps in a new rule set. In-flight evaluations
// finish against the set they started with.
func (eng *Engine) SetRuleSet(rs *RuleSet) {
	eng.rules.Store(rs)
}

func (eng *Engine) RuleSet() *RuleSet {
	rs := eng.rules.Load()
	if rs == nil {
		return &RuleSet{}
	}
	return rs
}

func (eng *Engine) logger() *slog.Logger {
	if eng.Logger != nil {
		return eng.Logger
	}
	return slog.Default()
}

func (eng *Engine) cooldownCache() *lru.Cache[string, time.Time] {
	eng.cooldownOnce.Do(func() {
		eng.cooldowns, _ = lru.New[string, time.Time](4096)
	})
	return eng.cooldowns
}

// ProcessEvent runs the full rule set against one incoming context,
// with action side effects. Rule evaluation panics are recovered so a
// single bad rule cannot take down event processing.
func (eng *Engine) ProcessEvent(ctx context.Context, mc *event.MatchContext) error {
	// similar to an HTTP server, we want to recover any panics from rule execution
	defer func() {
		if r := recover(); r != nil {
			eng.logger().Error("rule execution exception", "err", r, "event", mc.Key())
			eventErrorCount.WithLabelValues("process").Inc()
		}
	}()
	start := time.Now()

	outcomes := eng.evaluate(ctx, mc, false)

	matched := 0
	for _, out := range outcomes {
		if out.Matched {
			matched++
		}
	}
	eng.logger().Debug("processed event", "event", mc.Key(), "rules", len(outcomes), "matched", matched)
	eventProcessCount.WithLabelValues("process").Inc()
	eventProcessDuration.WithLabelValues("process").Observe(time.Since(start).Seconds())
	return nil
}

// Evaluate runs the full rule set against one context with action side
// effects, returning the per-rule outcomes.
func (eng *Engine) Evaluate(ctx context.Context, mc *event.MatchContext) []RuleOutcome {
	return eng.evaluate(ctx, mc, false)
}

// DebugEvaluate runs the same evaluation without executing any actions,
// incrementing counters, or arming cooldowns. Used by operator
// diagnostics to answer "why did (or didn't) this rule fire".
func (eng *Engine) DebugEvaluate(ctx context.Context, mc *event.MatchContext) []RuleOutcome {
	return eng.evaluate(ctx, mc, true)
}

func (eng *Engine) evaluate(ctx context.Context, mc *event.MatchContext, dry bool) []RuleOutcome {
	rs := eng.RuleSet()
	outcomes := make([]RuleOutcome, 0, len(rs.Rules))
	for _, rule := range rs.Rules {
		outcomes = append(outcomes, eng.evaluateRule(ctx, rule, mc, dry))
	}
	return outcomes
}

func (eng *Engine) evaluateRule(ctx context.Context, rule *Rule, mc *event.MatchContext, dry bool) RuleOutcome {
	out := RuleOutcome{Rule: rule.Name}
	if !rule.Enabled {
		out.NoMatchReason = "rule disabled"
		return out
	}

	// cooldowns throttle per offending user; user-less events (thread and
	// channel lifecycle) are never throttled
	uid := mc.UserID()
	cooldownKey := rule.Name + "/" + uid
	if rule.Cooldown > 0 && uid != "" {
		if until, ok := eng.cooldownCache().Get(cooldownKey); ok && mc.At.Before(until) {
			out.NoMatchReason = "on cooldown"
			return out
		}
	}

	// OR semantics: first trigger to match wins
	var res *triggers.Result
	for i, tcfg := range rule.Triggers {
		r, err := triggers.Match(ctx, mc, tcfg, eng.TriggerDeps)
		if err != nil {
			// internal error: abort this rule only
			eng.logger().Error("trigger evaluation failed", "rule", rule.Name, "trigger", tcfg.Kind(), "err", err)
			eventErrorCount.WithLabelValues("trigger").Inc()
			out.NoMatchReason = fmt.Sprintf("trigger %s error: %v", tcfg.Kind(), err)
			return out
		}
		if r != nil {
			res = r
			out.Matched = true
			out.TriggerKind = tcfg.Kind()
			out.TriggerIndex = i
			out.Summary = r.Summary
			break
		}
	}
	if res == nil {
		out.NoMatchReason = "no trigger matched"
		return out
	}

	if res.Silent {
		// evidence was recorded by the trigger; no actions, no alert
		out.Silent = true
		if !dry {
			ruleMatchCount.WithLabelValues(rule.Name, "silent").Inc()
		}
		return out
	}
	if dry {
		return out
	}

	ruleMatchCount.WithLabelValues(rule.Name, "full").Inc()
	if eng.Counters != nil {
		if err := eng.Counters.RecordHit(ctx, rule.Name); err != nil {
			eng.logger().Warn("recording rule hit failed", "rule", rule.Name, "err", err)
		}
		if uid != "" {
			if err := eng.Counters.RecordOffender(ctx, rule.Name, uid); err != nil {
				eng.logger().Warn("recording offender failed", "rule", rule.Name, "err", err)
			}
		}
	}
	if rule.Cooldown > 0 && uid != "" {
		eng.cooldownCache().Add(cooldownKey, mc.At.Add(rule.Cooldown))
	}

	in := &actions.Input{
		RuleName:     rule.Name,
		MatchSummary: res.Summary,
		Contexts:     event.Dedupe(append(append([]*event.MatchContext(nil), res.Extra...), mc)),
	}
	out.ActionErrors = eng.applyActions(ctx, rule, in)
	return out
}

// applyActions runs the rule's action list in order. AND semantics with
// isolation: one action's failure is alerted and recorded but never
// stops the remaining actions.
func (eng *Engine) applyActions(ctx context.Context, rule *Rule, in *actions.Input) []string {
	var errs []string
	for _, acfg := range rule.Actions {
		if eng.ActionLimiter != nil {
			if err := eng.ActionLimiter.Wait(ctx); err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", acfg.Kind(), err))
				break
			}
		}
		if err := actions.Apply(ctx, acfg, in, eng.ActionDeps); err != nil {
			eng.logger().Warn("action failed", "rule", rule.Name, "action", acfg.Kind(), "err", err)
			actionErrorCount.WithLabelValues(acfg.Kind()).Inc()
			errs = append(errs, fmt.Sprintf("%s: %v", acfg.Kind(), err))
			if eng.Notifier != nil {
				text := fmt.Sprintf("rule %q action %s failed: %v", rule.Name, acfg.Kind(), err)
				if aerr := eng.Notifier.Alert(ctx, text); aerr != nil {
					eng.logger().Warn("operator alert failed", "err", aerr)
				}
			}
		}
	}
	return errs
}
