package triggers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/havenchat/warden/reputation"
)

func TestMatchLinksDomains(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()
	deps := testDeps(t)

	cfg := mustParse(t, KindMatchLinks, `{"include_domains": ["scam.example"], "include_subdomains": true}`)

	res, err := Match(ctx, msgContext(time.Now(), "u1", "c1", "m1", "go to https://scam.example/win"), cfg, deps)
	require.NoError(err)
	assert.NotNil(res)

	res, err = Match(ctx, msgContext(time.Now(), "u1", "c1", "m2", "go to https://deep.scam.example/win"), cfg, deps)
	require.NoError(err)
	assert.NotNil(res)

	res, err = Match(ctx, msgContext(time.Now(), "u1", "c1", "m3", "go to https://example.com"), cfg, deps)
	require.NoError(err)
	assert.Nil(res)
}

func TestMatchLinksExcludeBeatsInclude(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()
	deps := testDeps(t)

	// parent domain included via subdomain matching, exact subdomain
	// excluded: the more specific exclude wins
	cfg := mustParse(t, KindMatchLinks, `{
		"include_domains": ["example.com"],
		"include_subdomains": true,
		"exclude_domains": ["docs.example.com"]
	}`)

	res, err := Match(ctx, msgContext(time.Now(), "u1", "c1", "m1", "see https://docs.example.com/page"), cfg, deps)
	require.NoError(err)
	assert.Nil(res)

	res, err = Match(ctx, msgContext(time.Now(), "u1", "c1", "m2", "see https://evil.example.com/page"), cfg, deps)
	require.NoError(err)
	assert.NotNil(res)
}

func TestMatchLinksRegexPrecedence(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()
	deps := testDeps(t)

	// exclude regex beats include domain for the same link
	cfg := mustParse(t, KindMatchLinks, `{
		"include_domains": ["example.com"],
		"exclude_regex": ["example\\.com/allowed"]
	}`)

	res, err := Match(ctx, msgContext(time.Now(), "u1", "c1", "m1", "https://example.com/allowed/path"), cfg, deps)
	require.NoError(err)
	assert.Nil(res)

	res, err = Match(ctx, msgContext(time.Now(), "u1", "c1", "m2", "https://example.com/other"), cfg, deps)
	require.NoError(err)
	assert.NotNil(res)
}

func TestMatchLinksClassification(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()
	deps := testDeps(t)

	mock := reputation.NewMockClient()
	mock.Domains["phish.example"] = reputation.CategoryPhishing
	deps.Reputation = mock

	cfg := mustParse(t, KindMatchLinks, `{"classify_domains": true}`)

	res, err := Match(ctx, msgContext(time.Now(), "u1", "c1", "m1", "https://phish.example/login"), cfg, deps)
	require.NoError(err)
	require.NotNil(res)
	assert.Contains(res.Summary, "phishing")

	res, err = Match(ctx, msgContext(time.Now(), "u1", "c1", "m2", "https://fine.example/page"), cfg, deps)
	require.NoError(err)
	assert.Nil(res)

	// unreachable classifier: could not confirm, never a positive match
	mock.Unreachable = true
	res, err = Match(ctx, msgContext(time.Now(), "u1", "c1", "m3", "https://phish.example/login"), cfg, deps)
	require.NoError(err)
	assert.Nil(res)
}
