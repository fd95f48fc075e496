package triggers

import (
	"github.com/havenchat/warden/event"
	"github.com/havenchat/warden/keyword"
)

// TextFields selects which context text fields a text-matching trigger
// inspects. Zero value matches message content only.
type TextFields struct {
	MatchMessages     *bool `json:"match_messages,omitempty"`
	MatchEmbeds       bool  `json:"match_embeds,omitempty"`
	MatchVisibleNames bool  `json:"match_visible_names,omitempty"`
	MatchUsernames    bool  `json:"match_usernames,omitempty"`
	MatchNicknames    bool  `json:"match_nicknames,omitempty"`
	MatchCustomStatus bool  `json:"match_custom_status,omitempty"`
}

type textSource struct {
	name string
	text string
}

// sources collects the text fields this trigger is configured to look at.
func (tf *TextFields) sources(mc *event.MatchContext) []textSource {
	var out []textSource
	if boolDefault(tf.MatchMessages, true) && mc.Message != nil && mc.Message.Content != "" {
		out = append(out, textSource{name: "message", text: mc.Message.Content})
	}
	if tf.MatchEmbeds && mc.Message != nil {
		for _, em := range mc.Message.Embeds {
			for _, part := range []string{em.Title, em.Description, em.URL} {
				if part != "" {
					out = append(out, textSource{name: "embed", text: part})
				}
			}
		}
	}
	if mc.User != nil {
		if tf.MatchVisibleNames && mc.User.VisibleName() != "" {
			out = append(out, textSource{name: "visible name", text: mc.User.VisibleName()})
		}
		if tf.MatchUsernames && mc.User.Username != "" {
			out = append(out, textSource{name: "username", text: mc.User.Username})
		}
		if tf.MatchNicknames && mc.User.Nickname != "" {
			out = append(out, textSource{name: "nickname", text: mc.User.Nickname})
		}
		if tf.MatchCustomStatus && mc.User.CustomStatus != "" {
			out = append(out, textSource{name: "custom status", text: mc.User.CustomStatus})
		}
	}
	return out
}

// TextNormalize selects pre-match text normalization.
type TextNormalize struct {
	StripMarkdown bool `json:"strip_markdown,omitempty"`
	NormalizeText bool `json:"normalize,omitempty"`
	CaseSensitive bool `json:"case_sensitive,omitempty"`
}

func (tn *TextNormalize) apply(text string) string {
	if tn.StripMarkdown {
		text = keyword.StripMarkdown(text)
	}
	if tn.NormalizeText {
		text = keyword.FoldConfusables(text)
	}
	return text
}
