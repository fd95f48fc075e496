package keyword

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/spaolacci/murmur3"
)

// based on: https://stackoverflow.com/a/48769624, with no trailing period allowed
var urlRegex = regexp.MustCompile(`(?:(?:https?|ftp):\/\/)?[\w/\-?=%.]+\.[\w/\-&?=%.]*[\w/\-&?=%]+`)

// ExtractURLs returns all URL-shaped substrings of the raw text.
func ExtractURLs(raw string) []string {
	return urlRegex.FindAllString(raw, -1)
}

// DomainOf returns the lower-cased host part of a URL-shaped string, or
// empty if no host can be recognized.
func DomainOf(link string) string {
	s := strings.ToLower(link)
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.IndexByte(s, '@'); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.IndexByte(s, ':'); i >= 0 {
		s = s[:i]
	}
	s = strings.Trim(s, ".")
	if !strings.Contains(s, ".") {
		return ""
	}
	return s
}

var inviteRegex = regexp.MustCompile(`(?i)(?:discord\.gg|discord(?:app)?\.com/invite|invite\.gg)/([\w-]+)`)

// ExtractInviteCodes returns all invite codes found in text, in order,
// without de-duplication.
func ExtractInviteCodes(raw string) []string {
	var out []string
	for _, m := range inviteRegex.FindAllStringSubmatch(raw, -1) {
		out = append(out, m[1])
	}
	return out
}

var mentionRegex = regexp.MustCompile(`<@!?(\d+)>|<@&(\d+)>|@(?:everyone|here)`)

// CountMentions returns the number of user, role, and everyone/here
// mentions in message text.
func CountMentions(raw string) int {
	return len(mentionRegex.FindAllString(raw, -1))
}

var customEmojiRegex = regexp.MustCompile(`<a?:\w+:\d+>`)

// CountEmoji returns the number of custom emoji plus unicode emoji in
// message text.
func CountEmoji(raw string) int {
	n := len(customEmojiRegex.FindAllString(raw, -1))
	stripped := customEmojiRegex.ReplaceAllString(raw, "")
	for _, r := range stripped {
		if isEmojiRune(r) {
			n++
		}
	}
	return n
}

func isEmojiRune(r rune) bool {
	switch {
	case r >= 0x1F300 && r <= 0x1FAFF: // pictographs, emoticons, symbols
		return true
	case r >= 0x2600 && r <= 0x27BF: // misc symbols, dingbats
		return true
	default:
		return false
	}
}

// DedupeStrings returns the input with duplicates removed, first
// occurrence wins.
func DedupeStrings(in []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, v := range in {
		if !seen[v] {
			out = append(out, v)
			seen[v] = true
		}
	}
	return out
}

// HashOfString returns a fast, compact hash of a string.
//
// current implementation uses murmur3, default seed, and hex encoding
func HashOfString(s string) string {
	val := murmur3.Sum64([]byte(s))
	return fmt.Sprintf("%016x", val)
}
