package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRuleSet(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	rs, err := LoadRuleSet([]byte(`{
		"rules": [
			{
				"name": "no-spam",
				"cooldown": "30s",
				"triggers": [
					{"kind": "match_words", "config": {"words": ["spam"], "only_full_words": true}},
					{"kind": "message_spam", "config": {"amount": 5, "within": "10s"}}
				],
				"actions": [
					{"kind": "clean"},
					{"kind": "mute", "config": {"duration": "10m", "reason": "spamming"}}
				]
			},
			{
				"name": "paused",
				"enabled": false,
				"triggers": [{"kind": "any_message"}],
				"actions": [{"kind": "alert", "config": {"text": "hi"}}]
			}
		]
	}`))
	require.NoError(err)
	require.Len(rs.Rules, 2)

	assert.Equal("no-spam", rs.Rules[0].Name)
	assert.True(rs.Rules[0].Enabled)
	assert.Equal(30*time.Second, rs.Rules[0].Cooldown)
	assert.Len(rs.Rules[0].Triggers, 2)
	assert.Equal("match_words", rs.Rules[0].Triggers[0].Kind())
	assert.Len(rs.Rules[0].Actions, 2)
	assert.False(rs.Rules[1].Enabled)
}

func TestLoadRuleSetCollectsAllErrors(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	rs, err := LoadRuleSet([]byte(`{
		"rules": [
			{
				"name": "broken",
				"cooldown": "-5s",
				"triggers": [
					{"kind": "match_regex", "config": {"patterns": ["("]}},
					{"kind": "not_a_trigger"}
				],
				"actions": [{"kind": "ban", "config": {"delete_message_days": 99}}]
			},
			{
				"name": "empty",
				"triggers": [],
				"actions": []
			},
			{
				"name": "fine",
				"triggers": [{"kind": "any_message"}],
				"actions": [{"kind": "clean"}]
			}
		]
	}`))

	// never a partial rule set
	assert.Nil(rs)
	var verrs ValidationErrors
	require.True(errors.As(err, &verrs))
	require.Len(verrs, 6)

	paths := make(map[string]string)
	for _, ve := range verrs {
		paths[ve.Rule+"/"+ve.Path] = ve.Err
	}
	assert.Contains(paths, "broken/cooldown")
	assert.Contains(paths, "broken/triggers[0]")
	assert.Contains(paths, "broken/triggers[1]")
	assert.Contains(paths, "broken/actions[0]")
	assert.Contains(paths, "empty/triggers")
	assert.Contains(paths, "empty/actions")
}

func TestLoadRuleSetDuplicateNames(t *testing.T) {
	assert := assert.New(t)

	_, err := LoadRuleSet([]byte(`{
		"rules": [
			{"name": "dup", "triggers": [{"kind": "any_message"}], "actions": [{"kind": "clean"}]},
			{"name": "dup", "triggers": [{"kind": "any_message"}], "actions": [{"kind": "clean"}]}
		]
	}`))
	assert.Error(err)
}
