package keyword

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFoldConfusables(t *testing.T) {
	assert := assert.New(t)

	fixtures := []struct {
		input  string
		output string
	}{
		{"spam", "spam"},
		{"spám", "spam"},
		{"ｓｐａｍ", "spam"},
		{"ﬁne", "fine"},
	}
	for _, fix := range fixtures {
		assert.Equal(fix.output, FoldConfusables(fix.input))
	}
}

func TestStripMarkdown(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("spam here", StripMarkdown("**spam** _here_"))
	assert.Equal("plain text", StripMarkdown("plain text"))
	assert.Contains(StripMarkdown("`buy` now"), "buy")
}
