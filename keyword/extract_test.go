package keyword

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractURLs(t *testing.T) {
	assert := assert.New(t)

	fixtures := []struct {
		text string
		out  []string
	}{
		{"", nil},
		{"no links here", nil},
		{"go to https://example.com/page now", []string{"https://example.com/page"}},
		{"bare domain example.org works", []string{"example.org"}},
	}
	for _, fix := range fixtures {
		assert.Equal(fix.out, ExtractURLs(fix.text))
	}
}

func TestDomainOf(t *testing.T) {
	assert := assert.New(t)

	fixtures := []struct {
		link string
		out  string
	}{
		{"https://example.com/page?q=1", "example.com"},
		{"EXAMPLE.com", "example.com"},
		{"https://sub.example.com:8080/x", "sub.example.com"},
		{"nodots", ""},
	}
	for _, fix := range fixtures {
		assert.Equal(fix.out, DomainOf(fix.link))
	}
}

func TestExtractInviteCodes(t *testing.T) {
	assert := assert.New(t)

	assert.Equal([]string{"abc123"}, ExtractInviteCodes("join discord.gg/abc123"))
	assert.Equal([]string{"xYz-9"}, ExtractInviteCodes("https://discordapp.com/invite/xYz-9"))
	assert.Nil(ExtractInviteCodes("no invites"))
}

func TestCounts(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(2, CountMentions("hey <@123> and <@!456>"))
	assert.Equal(1, CountMentions("@everyone wake up"))
	assert.Equal(0, CountMentions("email me at a@b.c"))

	assert.Equal(1, CountEmoji("nice <:pog:12345>"))
	assert.Equal(2, CountEmoji("🔥🔥"))
	assert.Equal(0, CountEmoji("plain"))
}

func TestHashOfString(t *testing.T) {
	assert := assert.New(t)

	h := HashOfString("u1/c1")
	assert.Len(h, 16)
	assert.Equal(h, HashOfString("u1/c1"))
	assert.NotEqual(h, HashOfString("u1/c2"))
	assert.Equal("0000000000000000", HashOfString(""))
}
