package engine

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/havenchat/warden/actions"
	"github.com/havenchat/warden/triggers"
)

// Serialized rule-set shape. Trigger and action configs are decoded and
// validated by their own packages; this file only handles the envelope.

type ruleSetJSON struct {
	Rules []ruleJSON `json:"rules"`
}

type ruleJSON struct {
	Name     string      `json:"name"`
	Enabled  *bool       `json:"enabled,omitempty"`
	Cooldown string      `json:"cooldown,omitempty"`
	Triggers []entryJSON `json:"triggers"`
	Actions  []entryJSON `json:"actions"`
}

type entryJSON struct {
	Kind   string          `json:"kind"`
	Config json.RawMessage `json:"config,omitempty"`
}

// ValidationError pins one config problem to the rule and entry it came
// from.
type ValidationError struct {
	Rule string `json:"rule"`
	Path string `json:"path,omitempty"`
	Err  string `json:"err"`
}

func (e ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("rule %q %s: %s", e.Rule, e.Path, e.Err)
	}
	return fmt.Sprintf("rule %q: %s", e.Rule, e.Err)
}

// ValidationErrors is the full list of problems found in one load
// attempt. LoadRuleSet never returns a partial rule set: it is all
// valid, or this.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, ve := range e {
		msgs[i] = ve.Error()
	}
	return fmt.Sprintf("%d invalid rule configs: %s", len(e), strings.Join(msgs, "; "))
}

// LoadRuleSet parses and validates a serialized rule set. On any
// problem it returns nil plus a ValidationErrors listing every
// malformed trigger and action config, so operators can fix a config
// file in one pass.
func LoadRuleSet(raw []byte) (*RuleSet, error) {
	var doc ruleSetJSON
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing rule set: %w", err)
	}

	var verrs ValidationErrors
	addErr := func(rule, path string, err error) {
		verrs = append(verrs, ValidationError{Rule: rule, Path: path, Err: err.Error()})
	}

	rs := &RuleSet{}
	seen := make(map[string]bool)
	for i, rj := range doc.Rules {
		name := rj.Name
		if name == "" {
			addErr(fmt.Sprintf("#%d", i), "", fmt.Errorf("name is required"))
			continue
		}
		if seen[name] {
			addErr(name, "", fmt.Errorf("duplicate rule name"))
			continue
		}
		seen[name] = true

		rule := &Rule{Name: name, Enabled: true}
		if rj.Enabled != nil {
			rule.Enabled = *rj.Enabled
		}
		if rj.Cooldown != "" {
			dur, err := time.ParseDuration(rj.Cooldown)
			if err != nil || dur < 0 {
				addErr(name, "cooldown", fmt.Errorf("invalid duration %q", rj.Cooldown))
			} else {
				rule.Cooldown = dur
			}
		}

		if len(rj.Triggers) == 0 {
			addErr(name, "triggers", fmt.Errorf("at least one trigger is required"))
		}
		for j, ej := range rj.Triggers {
			cfg, err := triggers.ParseConfig(ej.Kind, ej.Config)
			if err != nil {
				addErr(name, fmt.Sprintf("triggers[%d]", j), err)
				continue
			}
			rule.Triggers = append(rule.Triggers, cfg)
		}

		if len(rj.Actions) == 0 {
			addErr(name, "actions", fmt.Errorf("at least one action is required"))
		}
		for j, ej := range rj.Actions {
			cfg, err := actions.ParseConfig(ej.Kind, ej.Config)
			if err != nil {
				addErr(name, fmt.Sprintf("actions[%d]", j), err)
				continue
			}
			rule.Actions = append(rule.Actions, cfg)
		}

		rs.Rules = append(rs.Rules, rule)
	}

	if len(verrs) > 0 {
		return nil, verrs
	}
	return rs, nil
}
