package actions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/havenchat/warden/event"
	"github.com/havenchat/warden/platform"
)

type fixture struct {
	chat  *platform.FakeChatAPI
	cases *platform.FakeCaseStore
	audit *platform.FakeAuditLog
	deps  *Deps
}

func newFixture() *fixture {
	f := &fixture{
		chat:  platform.NewFakeChatAPI(),
		cases: platform.NewFakeCaseStore(),
		audit: &platform.FakeAuditLog{},
	}
	f.deps = &Deps{Chat: f.chat, Cases: f.cases, Audit: f.audit}
	return f
}

func msgInput(rule string, msgs ...*event.Message) *Input {
	in := &Input{RuleName: rule, MatchSummary: "matched word \"spam\""}
	for _, m := range msgs {
		in.Contexts = append(in.Contexts, &event.MatchContext{
			At:      time.Now(),
			GuildID: "g1",
			Message: m,
		})
	}
	return in
}

func mustParseAction(t *testing.T, kind, raw string) Config {
	t.Helper()
	cfg, err := ParseConfig(kind, []byte(raw))
	require.NoError(t, err)
	return cfg
}

func TestBanDistinctUsers(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	f := newFixture()

	in := msgInput("no-spam",
		&event.Message{ID: "m1", ChannelID: "c1", AuthorID: "u1"},
		&event.Message{ID: "m2", ChannelID: "c1", AuthorID: "u2"},
		&event.Message{ID: "m3", ChannelID: "c1", AuthorID: "u1"},
	)
	cfg := mustParseAction(t, KindBan, `{"reason": "spamming", "delete_message_days": 1}`)

	require.NoError(Apply(context.Background(), cfg, in, f.deps))
	require.Len(f.cases.Cases, 2)
	assert.Equal("ban", f.cases.Cases[0].Action)
	assert.Equal("u1", f.cases.Cases[0].Opts.UserID)
	assert.Equal("u2", f.cases.Cases[1].Opts.UserID)
	assert.True(f.cases.Cases[0].Opts.Automatic)
	assert.Equal("spamming", f.cases.Cases[0].Opts.Reason)
	assert.Equal(in.MatchSummary, f.cases.Cases[0].Opts.MatchSummary)
}

func TestCleanBatchesPerChannel(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	f := newFixture()

	in := msgInput("no-spam",
		&event.Message{ID: "m1", ChannelID: "c1", AuthorID: "u1"},
		&event.Message{ID: "m2", ChannelID: "c2", AuthorID: "u1"},
		&event.Message{ID: "m3", ChannelID: "c1", AuthorID: "u1"},
		&event.Message{ID: "m1", ChannelID: "c1", AuthorID: "u1"}, // duplicate
	)
	cfg := mustParseAction(t, KindClean, `{}`)

	require.NoError(Apply(context.Background(), cfg, in, f.deps))
	assert.Equal([]string{"m1", "m3"}, f.chat.Deleted["c1"])
	assert.Equal([]string{"m2"}, f.chat.Deleted["c2"])
	// every deletion was flagged to the audit pipeline beforehand
	assert.Len(f.audit.Ignored, 3)
}

func TestReplyTemplateAndPermissions(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	f := newFixture()

	in := msgInput("no-spam", &event.Message{ID: "m1", ChannelID: "c1", AuthorID: "u1"})
	cfg := mustParseAction(t, KindReply, `{"text": "<@{{ user }}> please stop ({{ rule }})"}`)

	require.NoError(Apply(context.Background(), cfg, in, f.deps))
	require.Len(f.chat.Sent, 1)
	assert.Equal("c1", f.chat.Sent[0].ChannelID)
	assert.Equal("<@u1> please stop (no-spam)", f.chat.Sent[0].Content)

	// missing send permission: skipped, not an error
	f.chat.DeniedPerms["c1"] = platform.PermSendMessages
	require.NoError(Apply(context.Background(), cfg, in, f.deps))
	assert.Len(f.chat.Sent, 1)
}

func TestChangePermsMergesAndDenyWins(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	f := newFixture()

	f.chat.Overwrites["c1/u1"] = platform.Overwrite{
		TargetID: "u1",
		Kind:     platform.OverwriteMember,
		Allow:    platform.PermSendMessages | platform.PermEmbedLinks,
	}

	in := msgInput("quiet-down", &event.Message{ID: "m1", ChannelID: "c1", AuthorID: "u1"})
	cfg := mustParseAction(t, KindChangePerms, `{"deny": ["send_messages", "mention_everyone"]}`)

	require.NoError(Apply(context.Background(), cfg, in, f.deps))
	ow := f.chat.Overwrites["c1/u1"]
	assert.Equal(platform.PermSendMessages|platform.PermMentionEveryone, ow.Deny)
	// send_messages was allowed before; the new deny takes it away
	assert.Equal(platform.PermEmbedLinks, ow.Allow)
}

func TestThreadActions(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	f := newFixture()

	in := &Input{
		RuleName: "auto-lock",
		Contexts: []*event.MatchContext{{
			At:      time.Now(),
			GuildID: "g1",
			Thread:  &event.ThreadChange{ThreadID: "t1", ParentID: "c1", Change: event.ThreadArchived},
		}},
	}
	cfg := mustParseAction(t, KindLockThread, `{}`)
	require.NoError(Apply(context.Background(), cfg, in, f.deps))
	assert.Equal([]string{"lock/t1/true"}, f.chat.ThreadOps)

	f = newFixture()
	msgIn := msgInput("discuss", &event.Message{ID: "m1", ChannelID: "c1", AuthorID: "u1"})
	start := mustParseAction(t, KindStartThread, `{"name": "re: {{ rule }}"}`)
	require.NoError(Apply(context.Background(), start, msgIn, f.deps))
	assert.Equal([]string{"start/c1/m1/re: discuss"}, f.chat.ThreadOps)
}

func TestPauseInvites(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	f := newFixture()

	in := msgInput("raid-brake", &event.Message{ID: "m1", ChannelID: "c1", AuthorID: "u1"})
	cfg := mustParseAction(t, KindPauseInvites, `{}`)
	require.NoError(Apply(context.Background(), cfg, in, f.deps))
	assert.True(f.chat.InvitesPause["g1"])

	cfg = mustParseAction(t, KindPauseInvites, `{"paused": false}`)
	require.NoError(Apply(context.Background(), cfg, in, f.deps))
	assert.False(f.chat.InvitesPause["g1"])
}

type recordingNotifier struct {
	alerts []string
}

func (n *recordingNotifier) Alert(ctx context.Context, text string) error {
	n.alerts = append(n.alerts, text)
	return nil
}

func TestAlert(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	f := newFixture()
	notifier := &recordingNotifier{}
	f.deps.Notifier = notifier

	in := msgInput("no-spam", &event.Message{ID: "m1", ChannelID: "c1", AuthorID: "u1"})
	cfg := mustParseAction(t, KindAlert, `{"text": "rule {{ rule }} hit: {{ summary }}"}`)
	require.NoError(Apply(context.Background(), cfg, in, f.deps))
	require.Len(notifier.alerts, 1)
	assert.Contains(notifier.alerts[0], "no-spam")

	// with a channel configured the alert goes in-platform instead
	cfg = mustParseAction(t, KindAlert, `{"text": "hit", "channel_id": "c-mod"}`)
	require.NoError(Apply(context.Background(), cfg, in, f.deps))
	require.Len(f.chat.Sent, 1)
	assert.Equal("c-mod", f.chat.Sent[0].ChannelID)
	assert.Len(notifier.alerts, 1)
}

func TestParseActionConfigErrors(t *testing.T) {
	assert := assert.New(t)

	_, err := ParseConfig("timeout", []byte(`{}`))
	assert.Error(err)

	_, err = ParseConfig(KindBan, []byte(`{"delete_message_days": 30}`))
	assert.Error(err)

	_, err = ParseConfig(KindReply, []byte(`{}`))
	assert.Error(err)

	_, err = ParseConfig(KindChangePerms, []byte(`{"deny": ["fly"]}`))
	assert.Error(err)

	_, err = ParseConfig(KindReply, []byte(`{"text": "hi", "txet": "oops"}`))
	assert.Error(err)
}
