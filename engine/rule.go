package engine

import (
	"time"

	"github.com/havenchat/warden/actions"
	"github.com/havenchat/warden/triggers"
)

// Rule is one validated moderation rule: an ordered trigger list with OR
// semantics (first match wins) and an ordered action list with AND
// semantics (all applied, in order). Rules are immutable once loaded;
// reload replaces the whole set.
type Rule struct {
	Name    string
	Enabled bool
	// Cooldown suppresses re-matching this rule for the same user for
	// the given duration after a non-silent match. Zero disables.
	Cooldown time.Duration

	Triggers []triggers.Config
	Actions  []actions.Config
}

// RuleSet holds the rules of one moderated community, in evaluation
// order.
type RuleSet struct {
	Rules []*Rule
}

// RuleOutcome reports what one rule did with one context. DebugEvaluate
// returns these for every rule; live evaluation returns them for
// observability and tests.
type RuleOutcome struct {
	Rule    string `json:"rule"`
	Matched bool   `json:"matched"`
	Silent  bool   `json:"silent,omitempty"`
	// For matches: which trigger fired, by kind and position in the
	// rule's trigger list.
	TriggerKind  string `json:"trigger_kind,omitempty"`
	TriggerIndex int    `json:"trigger_index,omitempty"`
	Summary      string `json:"summary,omitempty"`
	// For non-matches: why (all triggers declined, rule disabled, on
	// cooldown, or an evaluation error).
	NoMatchReason string `json:"no_match_reason,omitempty"`
	// Failures from individual actions; the rest of the action list
	// still ran.
	ActionErrors []string `json:"action_errors,omitempty"`
}
