package triggers

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/havenchat/warden/event"
	"github.com/havenchat/warden/keyword"
	"github.com/havenchat/warden/sandbox"
)

const KindMatchLinks = "match_links"

// MatchLinksConfig matches URLs found in the configured text sources.
// Filter precedence is regex > word > domain, most specific first, and at
// every level an exclude beats a broader include. Optionally consults the
// external domain-reputation collaborator for links no static filter
// decided.
type MatchLinksConfig struct {
	IncludeDomains    []string `json:"include_domains,omitempty"`
	ExcludeDomains    []string `json:"exclude_domains,omitempty"`
	IncludeSubdomains bool     `json:"include_subdomains,omitempty"`
	IncludeWords      []string `json:"include_words,omitempty"`
	ExcludeWords      []string `json:"exclude_words,omitempty"`
	IncludeRegex      []string `json:"include_regex,omitempty"`
	ExcludeRegex      []string `json:"exclude_regex,omitempty"`
	// ClassifyDomains consults the reputation service for undecided
	// links; lookup failure means "could not confirm" and never matches.
	ClassifyDomains bool `json:"classify_domains,omitempty"`

	TextFields

	compileOnce sync.Once
	compileErr  error
	includeRe   []*regexp.Regexp
	excludeRe   []*regexp.Regexp
}

func (c *MatchLinksConfig) Kind() string   { return KindMatchLinks }
func (c *MatchLinksConfig) triggerConfig() {}

func (c *MatchLinksConfig) Validate() error {
	if len(c.IncludeDomains) == 0 && len(c.IncludeWords) == 0 &&
		len(c.IncludeRegex) == 0 && !c.ClassifyDomains {
		return errors.New("at least one include filter (or classify_domains) is required")
	}
	return c.compile()
}

func (c *MatchLinksConfig) compile() error {
	c.compileOnce.Do(func() {
		compileAll := func(pats []string) ([]*regexp.Regexp, error) {
			var out []*regexp.Regexp
			for _, pat := range pats {
				re, err := regexp.Compile("(?i)" + pat)
				if err != nil {
					return nil, fmt.Errorf("pattern %q: %w", pat, err)
				}
				out = append(out, re)
			}
			return out, nil
		}
		c.includeRe, c.compileErr = compileAll(c.IncludeRegex)
		if c.compileErr != nil {
			return
		}
		c.excludeRe, c.compileErr = compileAll(c.ExcludeRegex)
	})
	return c.compileErr
}

func (c *MatchLinksConfig) match(ctx context.Context, mc *event.MatchContext, deps *Deps) (*Result, error) {
	if err := c.compile(); err != nil {
		return nil, err
	}
	for _, src := range c.sources(mc) {
		for _, link := range keyword.DedupeStrings(keyword.ExtractURLs(src.text)) {
			matched, reason, err := c.checkLink(ctx, link, deps)
			if err != nil {
				return nil, err
			}
			if matched {
				return &Result{
					Summary: fmt.Sprintf("matched link %q in %s (%s)", link, src.name, reason),
				}, nil
			}
		}
	}
	return nil, nil
}

// checkLink applies the regex > word > domain precedence with
// exclude-before-include at each level.
func (c *MatchLinksConfig) checkLink(ctx context.Context, link string, deps *Deps) (bool, string, error) {
	hit, err := c.anyPattern(c.excludeRe, link, deps)
	if err != nil {
		return false, "", err
	}
	if hit {
		return false, "", nil
	}
	hit, err = c.anyPattern(c.includeRe, link, deps)
	if err != nil {
		return false, "", err
	}
	if hit {
		return true, "regex", nil
	}

	lower := strings.ToLower(link)
	for _, w := range c.ExcludeWords {
		if strings.Contains(lower, strings.ToLower(w)) {
			return false, "", nil
		}
	}
	for _, w := range c.IncludeWords {
		if strings.Contains(lower, strings.ToLower(w)) {
			return true, "word", nil
		}
	}

	host := keyword.DomainOf(link)
	if host == "" {
		return false, "", nil
	}
	if domainInList(host, c.ExcludeDomains, c.IncludeSubdomains) {
		return false, "", nil
	}
	if domainInList(host, c.IncludeDomains, c.IncludeSubdomains) {
		return true, "domain", nil
	}

	if c.ClassifyDomains && deps.Reputation != nil {
		cat, err := deps.Reputation.ClassifyDomain(ctx, host)
		if err != nil {
			// could not confirm: fail toward no-match
			deps.logger().Warn("domain classification unavailable", "host", host, "err", err)
			return false, "", nil
		}
		if cat.Bad() {
			return true, string(cat), nil
		}
	}
	return false, "", nil
}

// anyPattern runs admin-supplied link patterns through the sandbox;
// timeouts fail open.
func (c *MatchLinksConfig) anyPattern(res []*regexp.Regexp, link string, deps *Deps) (bool, error) {
	for _, re := range res {
		hits, err := deps.Sandbox.Exec(re, link, deps.patternTimeout())
		if err != nil {
			if errors.Is(err, sandbox.ErrTimedOut) || errors.Is(err, sandbox.ErrBusy) {
				deps.logger().Warn("link pattern match failed open", "pattern", re.String(), "err", err)
				continue
			}
			return false, err
		}
		if len(hits) > 0 {
			return true, nil
		}
	}
	return false, nil
}

func domainInList(host string, domains []string, subdomains bool) bool {
	for _, d := range domains {
		d = strings.ToLower(d)
		if host == d {
			return true
		}
		if subdomains && strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
