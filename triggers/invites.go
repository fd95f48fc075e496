package triggers

import (
	"context"
	"fmt"
	"strings"

	"github.com/havenchat/warden/event"
	"github.com/havenchat/warden/keyword"
)

const KindMatchInvites = "match_invites"

// MatchInvitesConfig matches invite codes found in text. With no include
// filters configured, any invite matches. Excludes are checked first.
// Resolution failures are "could not confirm" and never match on the
// guild-level criteria.
type MatchInvitesConfig struct {
	IncludeGuilds      []string `json:"include_guilds,omitempty"`
	ExcludeGuilds      []string `json:"exclude_guilds,omitempty"`
	IncludeInviteCodes []string `json:"include_invite_codes,omitempty"`
	ExcludeInviteCodes []string `json:"exclude_invite_codes,omitempty"`
	// AllowGroupDMInvites permits invites that do not resolve to a guild.
	AllowGroupDMInvites bool `json:"allow_group_dm_invites,omitempty"`

	TextFields
}

func (c *MatchInvitesConfig) Kind() string   { return KindMatchInvites }
func (c *MatchInvitesConfig) triggerConfig() {}

func (c *MatchInvitesConfig) Validate() error {
	return nil
}

func (c *MatchInvitesConfig) match(ctx context.Context, mc *event.MatchContext, deps *Deps) (*Result, error) {
	hasIncludes := len(c.IncludeGuilds) > 0 || len(c.IncludeInviteCodes) > 0

	for _, src := range c.sources(mc) {
		for _, code := range keyword.DedupeStrings(keyword.ExtractInviteCodes(src.text)) {
			if listContainsFold(c.ExcludeInviteCodes, code) {
				continue
			}
			if listContainsFold(c.IncludeInviteCodes, code) {
				return &Result{Summary: fmt.Sprintf("matched invite code %q", code)}, nil
			}

			var info *reputationGuild
			if deps.Reputation != nil {
				gi, err := deps.Reputation.ResolveInvite(ctx, code)
				if err != nil {
					// could not confirm: skip guild-level criteria
					deps.logger().Warn("invite resolution unavailable", "code", code, "err", err)
					continue
				}
				if gi != nil {
					info = &reputationGuild{id: gi.GuildID, groupDM: gi.IsGroupDM}
				}
			}

			if info == nil || info.groupDM {
				// unresolvable or group-DM invite
				if !c.AllowGroupDMInvites {
					return &Result{Summary: fmt.Sprintf("matched group DM invite %q", code)}, nil
				}
				continue
			}
			if listContainsFold(c.ExcludeGuilds, info.id) {
				continue
			}
			if listContainsFold(c.IncludeGuilds, info.id) {
				return &Result{Summary: fmt.Sprintf("matched invite %q to guild %s", code, info.id)}, nil
			}
			if !hasIncludes {
				// no include filters: any invite is a match
				return &Result{Summary: fmt.Sprintf("matched invite %q", code)}, nil
			}
		}
	}
	return nil, nil
}

type reputationGuild struct {
	id      string
	groupDM bool
}

func listContainsFold(list []string, val string) bool {
	for _, v := range list {
		if strings.EqualFold(v, val) {
			return true
		}
	}
	return false
}
