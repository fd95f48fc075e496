package triggers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/havenchat/warden/archivestore"
)

func TestMessageSpamWindow(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()
	deps := testDeps(t)
	archives := deps.Archives.(*archivestore.MemArchiveStore)

	cfg := mustParse(t, KindMessageSpam, `{"amount": 3, "within": "10s"}`)
	t0 := time.Now()

	send := func(at time.Time, msgID string) *Result {
		res, err := Match(ctx, msgContext(at, "u1", "c1", msgID, "hi"), cfg, deps)
		require.NoError(err)
		return res
	}

	assert.Nil(send(t0, "m1"))
	assert.Nil(send(t0.Add(2*time.Second), "m2"))

	// third message inside the window: full match with the prior two
	// attached as extra contexts
	res := send(t0.Add(4*time.Second), "m3")
	require.NotNil(res)
	assert.False(res.Silent)
	require.Len(res.Extra, 2)
	assert.Equal("m1", res.Extra[0].Message.ID)
	assert.Equal("m2", res.Extra[1].Message.ID)
	assert.Equal(1, archives.Count())

	// still inside the burst: silent, evidence appended to the same
	// archive rather than a new one
	res = send(t0.Add(5*time.Second), "m4")
	require.NotNil(res)
	assert.True(res.Silent)
	assert.Equal(1, archives.Count())

	// burst expired: counting starts over
	assert.Nil(send(t0.Add(20*time.Second), "m5"))
}

func TestMessageSpamPerChannel(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()
	deps := testDeps(t)

	cfg := mustParse(t, KindMessageSpam, `{"amount": 2, "within": "10s", "per_channel": true}`)
	t0 := time.Now()

	res, err := Match(ctx, msgContext(t0, "u1", "c1", "m1", "hi"), cfg, deps)
	require.NoError(err)
	assert.Nil(res)

	// same user in a different channel does not combine
	res, err = Match(ctx, msgContext(t0.Add(time.Second), "u1", "c2", "m2", "hi"), cfg, deps)
	require.NoError(err)
	assert.Nil(res)

	res, err = Match(ctx, msgContext(t0.Add(2*time.Second), "u1", "c1", "m3", "hi"), cfg, deps)
	require.NoError(err)
	assert.NotNil(res)
}

func TestMentionSpamWeights(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()
	deps := testDeps(t)

	cfg := mustParse(t, KindMentionSpam, `{"amount": 5, "within": "10s"}`)
	t0 := time.Now()

	// one message with three mentions counts three units
	res, err := Match(ctx, msgContext(t0, "u1", "c1", "m1", "<@1> <@2> <@3>"), cfg, deps)
	require.NoError(err)
	assert.Nil(res)

	// a mention-free message contributes nothing
	res, err = Match(ctx, msgContext(t0.Add(time.Second), "u1", "c1", "m2", "no pings here"), cfg, deps)
	require.NoError(err)
	assert.Nil(res)

	res, err = Match(ctx, msgContext(t0.Add(2*time.Second), "u1", "c1", "m3", "<@4> <@5>"), cfg, deps)
	require.NoError(err)
	require.NotNil(res)
	// the mention-free message is not part of the burst evidence
	assert.Len(res.Extra, 1)
}

func TestSpamValidation(t *testing.T) {
	assert := assert.New(t)

	_, err := ParseConfig(KindMessageSpam, []byte(`{"amount": 1, "within": "10s"}`))
	assert.Error(err)

	_, err = ParseConfig(KindMessageSpam, []byte(`{"amount": 3}`))
	assert.Error(err)
}
