package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/havenchat/warden/engine"
	"github.com/havenchat/warden/event"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	rs := engine.MustLoadRuleSet(`{
		"rules": [{
			"name": "no-spam",
			"triggers": [{"kind": "match_words", "config": {"words": ["spam"]}}],
			"actions": [{"kind": "alert", "config": {"text": "spam seen"}}]
		}]
	}`)
	srv, err := NewServer(Config{
		RuleSet:        rs,
		SandboxWorkers: 2,
		SandboxQueue:   8,
	})
	require.NoError(t, err)
	return srv
}

func TestNewServerRejectsBadGatewayURL(t *testing.T) {
	require := require.New(t)

	_, err := NewServer(Config{GatewayURL: "http://localhost:6820"})
	require.Error(err)
}

func TestServerShutdown(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	srv := testServer(t)
	require.NotNil(srv.corr)

	// the dry-run path still evaluates rules end to end
	mc := &event.MatchContext{
		At:      time.Now(),
		GuildID: "g1",
		Message: &event.Message{ID: "m1", ChannelID: "c1", AuthorID: "u1", Content: "spam"},
	}
	outcomes := srv.engine.DebugEvaluate(context.Background(), mc)
	require.Len(outcomes, 1)
	assert.True(outcomes[0].Matched)

	// Shutdown stops the correlator and sandbox; calling it twice is safe
	srv.Shutdown()
	assert.NotPanics(srv.Shutdown)
}
