package triggers

import (
	"context"
	"errors"
	"fmt"

	"github.com/havenchat/warden/correlator"
	"github.com/havenchat/warden/event"
	"github.com/havenchat/warden/keyword"
)

const (
	KindMessageSpam    = "message_spam"
	KindMentionSpam    = "mention_spam"
	KindLinkSpam       = "link_spam"
	KindAttachmentSpam = "attachment_spam"
	KindEmojiSpam      = "emoji_spam"
	KindLineSpam       = "line_spam"
	KindCharacterSpam  = "character_spam"
)

// SpamConfig is the rate-correlated trigger family: "Amount units within
// Within from the same identifier". The kind selects what is counted;
// one message can contribute several units (eg, five mentions).
//
// The Amount-th qualifying unit produces a full match carrying the prior
// window as extra contexts; while that burst is still being handled,
// further events match silently and are only appended to the burst's
// evidence archive.
type SpamConfig struct {
	kind string

	Amount int      `json:"amount"`
	Within Duration `json:"within"`
	// PerChannel scopes the identifier to user+channel instead of user.
	PerChannel bool `json:"per_channel,omitempty"`
}

func (c *SpamConfig) Kind() string   { return c.kind }
func (c *SpamConfig) triggerConfig() {}

func (c *SpamConfig) Validate() error {
	if c.kind == "" {
		return errors.New("spam trigger kind not set")
	}
	if c.Amount < 2 {
		return errors.New("amount must be at least 2")
	}
	if c.Within.Std() <= 0 {
		return errors.New("within duration is required")
	}
	return nil
}

// weight returns how many units this message contributes, 0 if none.
func (c *SpamConfig) weight(msg *event.Message) int {
	switch c.kind {
	case KindMessageSpam:
		return 1
	case KindMentionSpam:
		return keyword.CountMentions(msg.Content)
	case KindLinkSpam:
		return len(keyword.ExtractURLs(msg.Content))
	case KindAttachmentSpam:
		return len(msg.Attachments)
	case KindEmojiSpam:
		return keyword.CountEmoji(msg.Content)
	case KindLineSpam:
		n := 1
		for _, r := range msg.Content {
			if r == '\n' {
				n++
			}
		}
		if msg.Content == "" {
			return 0
		}
		return n
	case KindCharacterSpam:
		return len([]rune(msg.Content))
	default:
		return 0
	}
}

// identifier scopes the correlation window. Hashed so platform IDs never
// leak into shared-store keys and key length stays fixed.
func (c *SpamConfig) identifier(mc *event.MatchContext) string {
	ident := mc.Message.AuthorID
	if c.PerChannel {
		ident += "/" + mc.Message.ChannelID
	}
	return keyword.HashOfString(ident)
}

func (c *SpamConfig) match(ctx context.Context, mc *event.MatchContext, deps *Deps) (*Result, error) {
	if mc.Message == nil {
		return nil, nil
	}
	weight := c.weight(mc.Message)
	if weight <= 0 {
		return nil, nil
	}

	ident := c.identifier(mc)
	rec := correlator.Record{At: mc.At, Weight: weight, Context: mc}
	out, err := deps.Correlator.Observe(ctx, c.kind, ident, rec, c.Amount, c.Within.Std())
	if err != nil {
		return nil, fmt.Errorf("spam correlation: %w", err)
	}

	switch out.State {
	case correlator.StateBelow:
		return nil, nil

	case correlator.StateSilent:
		// the burst was already actioned; append evidence only
		if out.ArchiveID != "" && deps.Archives != nil {
			if err := deps.Archives.Append(ctx, out.ArchiveID, []*event.MatchContext{mc}); err != nil {
				deps.logger().Warn("appending spam evidence failed", "archive", out.ArchiveID, "err", err)
			}
		}
		return &Result{
			Silent:  true,
			Summary: fmt.Sprintf("ongoing %s burst from %s", c.kind, ident),
		}, nil

	case correlator.StateMatched:
		extra := make([]*event.MatchContext, 0, len(out.Prior))
		for _, prior := range out.Prior {
			if prior.Context != nil {
				extra = append(extra, prior.Context)
			}
		}
		if deps.Archives != nil {
			all := append(append([]*event.MatchContext(nil), extra...), mc)
			archiveID, err := deps.Archives.Create(ctx, all)
			if err != nil {
				deps.logger().Warn("creating spam evidence archive failed", "err", err)
			} else if err := deps.Correlator.SetBurstArchive(ctx, c.kind, ident, archiveID); err != nil {
				deps.logger().Warn("attaching spam evidence archive failed", "archive", archiveID, "err", err)
			}
		}
		return &Result{
			Summary: fmt.Sprintf("%s: %d within %s from %s", c.kind, c.Amount, c.Within.Std(), ident),
			Extra:   extra,
		}, nil

	default:
		return nil, fmt.Errorf("unhandled correlator state: %v", out.State)
	}
}
