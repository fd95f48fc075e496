package triggers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/havenchat/warden/archivestore"
	"github.com/havenchat/warden/correlator"
	"github.com/havenchat/warden/event"
	"github.com/havenchat/warden/reputation"
	"github.com/havenchat/warden/sandbox"
)

func testDeps(t *testing.T) *Deps {
	t.Helper()
	pool := sandbox.NewPool(2, 8, nil)
	t.Cleanup(pool.Close)
	corr := correlator.NewMemCorrelator()
	t.Cleanup(corr.Close)
	return &Deps{
		Sandbox:        pool,
		Correlator:     corr,
		Reputation:     reputation.NewMockClient(),
		Archives:       archivestore.NewMemArchiveStore(),
		PatternTimeout: time.Second,
	}
}

func msgContext(at time.Time, user, channel, msgID, content string) *event.MatchContext {
	return &event.MatchContext{
		At:      at,
		GuildID: "g1",
		Message: &event.Message{
			ID:        msgID,
			ChannelID: channel,
			AuthorID:  user,
			Content:   content,
		},
	}
}

func mustParse(t *testing.T, kind, raw string) Config {
	t.Helper()
	cfg, err := ParseConfig(kind, []byte(raw))
	require.NoError(t, err)
	return cfg
}

func TestMatchWordsFullWords(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()
	deps := testDeps(t)

	cfg := mustParse(t, KindMatchWords, `{"words": ["spam"], "only_full_words": true}`)
	t0 := time.Now()

	res, err := Match(ctx, msgContext(t0, "u1", "c1", "m1", "this is spam"), cfg, deps)
	require.NoError(err)
	require.NotNil(res)
	assert.False(res.Silent)
	assert.Contains(res.Summary, "spam")

	res, err = Match(ctx, msgContext(t0, "u1", "c1", "m2", "spammer"), cfg, deps)
	require.NoError(err)
	assert.Nil(res)
}

func TestMatchWordsSubstringAndCase(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()
	deps := testDeps(t)

	cfg := mustParse(t, KindMatchWords, `{"words": ["spam"]}`)
	res, err := Match(ctx, msgContext(time.Now(), "u1", "c1", "m1", "SPAMMER alert"), cfg, deps)
	require.NoError(err)
	assert.NotNil(res)

	sensitive := mustParse(t, KindMatchWords, `{"words": ["spam"], "case_sensitive": true}`)
	res, err = Match(ctx, msgContext(time.Now(), "u1", "c1", "m2", "SPAM"), sensitive, deps)
	require.NoError(err)
	assert.Nil(res)
}

func TestMatchWordsLooseMatching(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()
	deps := testDeps(t)

	cfg := mustParse(t, KindMatchWords, `{"words": ["spam"], "loose_matching": true}`)
	res, err := Match(ctx, msgContext(time.Now(), "u1", "c1", "m1", "s p-a.m for sale"), cfg, deps)
	require.NoError(err)
	assert.NotNil(res)

	// slack is bounded: huge gaps do not match
	res, err = Match(ctx, msgContext(time.Now(), "u1", "c1", "m2", "s          p          a          m"), cfg, deps)
	require.NoError(err)
	assert.Nil(res)
}

func TestMatchWordsNormalization(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()
	deps := testDeps(t)

	cfg := mustParse(t, KindMatchWords, `{"words": ["spam"], "normalize": true}`)
	res, err := Match(ctx, msgContext(time.Now(), "u1", "c1", "m1", "buy ｓｐáｍ today"), cfg, deps)
	require.NoError(err)
	assert.NotNil(res)
}

func TestMatchWordsOtherFields(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()
	deps := testDeps(t)

	cfg := mustParse(t, KindMatchWords, `{"words": ["bot"], "match_messages": false, "match_usernames": true}`)
	mc := msgContext(time.Now(), "u1", "c1", "m1", "bot bot bot")
	mc.User = &event.User{ID: "u1", Username: "cool-bot-9000"}

	res, err := Match(ctx, mc, cfg, deps)
	require.NoError(err)
	require.NotNil(res)
	assert.Contains(res.Summary, "username")
}

func TestMatchRegex(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()
	deps := testDeps(t)

	cfg := mustParse(t, KindMatchRegex, `{"patterns": ["fr[e3]{2} +nitro"]}`)
	res, err := Match(ctx, msgContext(time.Now(), "u1", "c1", "m1", "FREE NITRO click here"), cfg, deps)
	require.NoError(err)
	assert.NotNil(res)

	res, err = Match(ctx, msgContext(time.Now(), "u1", "c1", "m2", "nothing to see"), cfg, deps)
	require.NoError(err)
	assert.Nil(res)
}

func TestMatchRegexInvalidPatternRejectedAtLoad(t *testing.T) {
	require := require.New(t)
	_, err := ParseConfig(KindMatchRegex, []byte(`{"patterns": ["(unclosed"]}`))
	require.Error(err)
}

func TestMatchFailsOpenWhenSandboxBusy(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	pool := sandbox.NewPool(1, 0, nil)
	defer pool.Close()
	deps := testDeps(t)
	deps.Sandbox = pool

	// saturate the only worker
	release := make(chan struct{})
	defer close(release)
	blocked := make(chan struct{})
	go pool.ExecFunc(func() []string {
		close(blocked)
		<-release
		return nil
	}, time.Minute)
	<-blocked

	cfg := mustParse(t, KindMatchWords, `{"words": ["spam"]}`)
	res, err := Match(ctx, msgContext(time.Now(), "u1", "c1", "m1", "this is spam"), cfg, deps)
	require.NoError(err)
	assert.Nil(res)
}
