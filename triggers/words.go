package triggers

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/havenchat/warden/event"
	"github.com/havenchat/warden/sandbox"
)

const (
	KindMatchWords = "match_words"
	KindMatchRegex = "match_regex"
)

const (
	looseMatchingSlackMin     = 1
	looseMatchingSlackMax     = 64
	looseMatchingSlackDefault = 4
)

// MatchWordsConfig matches message text against a configured word list.
// The words are merged into a single pattern, compiled once at load time,
// and evaluated inside the sandbox.
type MatchWordsConfig struct {
	Words []string `json:"words"`
	// OnlyFullWords anchors each word at word boundaries.
	OnlyFullWords bool `json:"only_full_words,omitempty"`
	// LooseMatching allows bounded interleaving of whitespace/punctuation
	// between the characters of a word ("s p-a.m").
	LooseMatching bool `json:"loose_matching,omitempty"`
	// LooseMatchingThreshold bounds the interleaving, clamped to [1,64].
	LooseMatchingThreshold int `json:"loose_matching_threshold,omitempty"`

	TextFields
	TextNormalize

	compileOnce sync.Once
	compileErr  error
	merged      *regexp.Regexp
}

func (c *MatchWordsConfig) Kind() string   { return KindMatchWords }
func (c *MatchWordsConfig) triggerConfig() {}

func (c *MatchWordsConfig) Validate() error {
	if len(c.Words) == 0 {
		return errors.New("words list is required")
	}
	for _, w := range c.Words {
		if w == "" {
			return errors.New("empty word in words list")
		}
	}
	if c.LooseMatchingThreshold < 0 {
		return errors.New("loose_matching_threshold must be positive")
	}
	return c.compile()
}

func (c *MatchWordsConfig) compile() error {
	c.compileOnce.Do(func() {
		slack := c.LooseMatchingThreshold
		if slack == 0 {
			slack = looseMatchingSlackDefault
		}
		if slack < looseMatchingSlackMin {
			slack = looseMatchingSlackMin
		}
		if slack > looseMatchingSlackMax {
			slack = looseMatchingSlackMax
		}

		parts := make([]string, 0, len(c.Words))
		for _, word := range c.Words {
			var pat string
			if c.LooseMatching {
				chars := make([]string, 0, len(word))
				for _, r := range word {
					chars = append(chars, regexp.QuoteMeta(string(r)))
				}
				pat = strings.Join(chars, fmt.Sprintf(`[\s\-_.,!?]{0,%d}`, slack))
			} else {
				pat = regexp.QuoteMeta(word)
			}
			if c.OnlyFullWords {
				pat = `\b` + pat + `\b`
			}
			parts = append(parts, "(?:"+pat+")")
		}
		merged := strings.Join(parts, "|")
		if !c.CaseSensitive {
			merged = "(?i)" + merged
		}
		c.merged, c.compileErr = regexp.Compile(merged)
	})
	return c.compileErr
}

func (c *MatchWordsConfig) match(ctx context.Context, mc *event.MatchContext, deps *Deps) (*Result, error) {
	if err := c.compile(); err != nil {
		return nil, err
	}
	return matchPattern(c.merged, &c.TextFields, &c.TextNormalize, mc, deps, "word")
}

// MatchRegexConfig matches message text against administrator-supplied
// regular expressions. Patterns are untrusted: evaluation always goes
// through the sandbox, and a pattern that exceeds its deadline counts as
// no match.
type MatchRegexConfig struct {
	Patterns []string `json:"patterns"`

	TextFields
	TextNormalize

	compileOnce sync.Once
	compileErr  error
	compiled    []*regexp.Regexp
}

func (c *MatchRegexConfig) Kind() string   { return KindMatchRegex }
func (c *MatchRegexConfig) triggerConfig() {}

func (c *MatchRegexConfig) Validate() error {
	if len(c.Patterns) == 0 {
		return errors.New("patterns list is required")
	}
	return c.compile()
}

func (c *MatchRegexConfig) compile() error {
	c.compileOnce.Do(func() {
		for _, pat := range c.Patterns {
			if !c.CaseSensitive {
				pat = "(?i)" + pat
			}
			re, err := regexp.Compile(pat)
			if err != nil {
				c.compileErr = fmt.Errorf("pattern %q: %w", pat, err)
				return
			}
			c.compiled = append(c.compiled, re)
		}
	})
	return c.compileErr
}

func (c *MatchRegexConfig) match(ctx context.Context, mc *event.MatchContext, deps *Deps) (*Result, error) {
	if err := c.compile(); err != nil {
		return nil, err
	}
	for _, re := range c.compiled {
		res, err := matchPattern(re, &c.TextFields, &c.TextNormalize, mc, deps, "regex")
		if err != nil || res != nil {
			return res, err
		}
	}
	return nil, nil
}

// matchPattern runs one compiled pattern over the configured text sources
// via the sandbox. Timeout and pool saturation fail open as "no match"
// with an operator-visible log and counter.
func matchPattern(re *regexp.Regexp, tf *TextFields, tn *TextNormalize, mc *event.MatchContext, deps *Deps, label string) (*Result, error) {
	for _, src := range tf.sources(mc) {
		text := tn.apply(src.text)
		hits, err := deps.Sandbox.Exec(re, text, deps.patternTimeout())
		if err != nil {
			if errors.Is(err, sandbox.ErrTimedOut) || errors.Is(err, sandbox.ErrBusy) {
				deps.logger().Warn("pattern match failed open",
					"trigger", label, "pattern", re.String(), "source", src.name, "err", err)
				continue
			}
			return nil, err
		}
		if len(hits) > 0 {
			return &Result{
				Summary: fmt.Sprintf("matched %s %q in %s", label, hits[0], src.name),
			}, nil
		}
	}
	return nil, nil
}
