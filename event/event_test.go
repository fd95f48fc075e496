package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDedupe(t *testing.T) {
	assert := assert.New(t)
	at := time.Now()

	m1 := &MatchContext{At: at, GuildID: "g1", Message: &Message{ID: "m1", ChannelID: "c1", AuthorID: "u1"}}
	m1again := &MatchContext{At: at.Add(time.Second), GuildID: "g1", Message: &Message{ID: "m1", ChannelID: "c1", AuthorID: "u1"}}
	m2 := &MatchContext{At: at, GuildID: "g1", Message: &Message{ID: "m2", ChannelID: "c1", AuthorID: "u1"}}

	out := Dedupe([]*MatchContext{m1, nil, m2, m1again})
	assert.Equal([]*MatchContext{m1, m2}, out)
}

func TestContextAccessors(t *testing.T) {
	assert := assert.New(t)

	mc := &MatchContext{Message: &Message{ID: "m1", ChannelID: "c1", AuthorID: "u1"}}
	assert.Equal("u1", mc.UserID())
	assert.Equal("c1", mc.ChannelID())
	assert.Equal("msg/c1/m1", mc.Key())

	mc = &MatchContext{Voice: &VoiceChange{UserID: "u2", ChannelID: "vc1", Joined: true}}
	assert.Equal("u2", mc.UserID())
	assert.Equal("vc1", mc.ChannelID())

	mc = &MatchContext{Thread: &ThreadChange{ThreadID: "t1", ParentID: "c2", Change: ThreadArchived}}
	assert.Equal("", mc.UserID())
	assert.Equal("c2", mc.ChannelID())

	u := &User{Username: "name", Nickname: "nick"}
	assert.Equal("nick", u.VisibleName())
	u.Nickname = ""
	assert.Equal("name", u.VisibleName())
}
