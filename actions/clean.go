package actions

import (
	"context"
	"fmt"
	"time"

	"github.com/havenchat/warden/platform"
)

const KindClean = "clean"

// CleanConfig deletes every matched message, batched per channel. Each
// deletion is flagged to the audit pipeline first so the engine's own
// cleanup is not re-logged as moderator activity.
type CleanConfig struct{}

func (c *CleanConfig) Kind() string    { return KindClean }
func (c *CleanConfig) actionConfig()   {}
func (c *CleanConfig) Validate() error { return nil }

func (c *CleanConfig) apply(ctx context.Context, in *Input, deps *Deps) error {
	byChannel := make(map[string][]string)
	var channels []string
	seen := make(map[string]bool)
	for _, mc := range in.Contexts {
		if mc.Message == nil || mc.Message.ID == "" {
			continue
		}
		key := mc.Message.ChannelID + "/" + mc.Message.ID
		if seen[key] {
			continue
		}
		seen[key] = true
		if _, ok := byChannel[mc.Message.ChannelID]; !ok {
			channels = append(channels, mc.Message.ChannelID)
		}
		byChannel[mc.Message.ChannelID] = append(byChannel[mc.Message.ChannelID], mc.Message.ID)
	}

	for _, cid := range channels {
		ids := byChannel[cid]
		if deps.Audit != nil {
			kind := platform.LogMessageDelete
			if len(ids) > 1 {
				kind = platform.LogMessageDeleteBulk
			}
			for _, id := range ids {
				deps.Audit.IgnoreNextLog(kind, id, 30*time.Second)
			}
		}
		if err := deps.Chat.DeleteMessages(ctx, cid, ids); err != nil {
			return fmt.Errorf("cleaning %d messages in %s: %w", len(ids), cid, err)
		}
		deps.logger().Info("cleaned messages", "rule", in.RuleName, "channel", cid, "count", len(ids))
	}
	return nil
}
