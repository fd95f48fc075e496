package triggers

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/havenchat/warden/event"
)

const (
	KindMatchAttachmentType = "match_attachment_type"
	KindMatchMimeType       = "match_mime_type"
)

// MatchAttachmentTypeConfig filters attachments by file extension.
// Blacklist is checked before whitelist; each list is independently
// togglable.
type MatchAttachmentTypeConfig struct {
	WhitelistEnabled  bool     `json:"whitelist_enabled,omitempty"`
	FiletypeWhitelist []string `json:"filetype_whitelist,omitempty"`
	BlacklistEnabled  bool     `json:"blacklist_enabled,omitempty"`
	FiletypeBlacklist []string `json:"filetype_blacklist,omitempty"`
}

func (c *MatchAttachmentTypeConfig) Kind() string   { return KindMatchAttachmentType }
func (c *MatchAttachmentTypeConfig) triggerConfig() {}

func (c *MatchAttachmentTypeConfig) Validate() error {
	if !c.WhitelistEnabled && !c.BlacklistEnabled {
		return errors.New("at least one of whitelist_enabled or blacklist_enabled is required")
	}
	if c.WhitelistEnabled && len(c.FiletypeWhitelist) == 0 {
		return errors.New("filetype_whitelist is required when whitelist_enabled")
	}
	if c.BlacklistEnabled && len(c.FiletypeBlacklist) == 0 {
		return errors.New("filetype_blacklist is required when blacklist_enabled")
	}
	return nil
}

func (c *MatchAttachmentTypeConfig) match(mc *event.MatchContext) (*Result, error) {
	if mc.Message == nil {
		return nil, nil
	}
	for _, att := range mc.Message.Attachments {
		ext := strings.TrimPrefix(strings.ToLower(path.Ext(att.FileName)), ".")
		if c.BlacklistEnabled && listContainsFold(c.FiletypeBlacklist, ext) {
			return &Result{Summary: fmt.Sprintf("matched blacklisted filetype %q (%s)", ext, att.FileName)}, nil
		}
		if c.WhitelistEnabled && !listContainsFold(c.FiletypeWhitelist, ext) {
			return &Result{Summary: fmt.Sprintf("matched non-whitelisted filetype %q (%s)", ext, att.FileName)}, nil
		}
	}
	return nil, nil
}

// MatchMimeTypeConfig filters attachments by content type. Blacklist is
// checked before whitelist.
//
// LegacyFirstOnly preserves historical behavior where only the first
// attachment of a message was inspected; moderators may depend on it, so
// it defaults to on. Set it to false to inspect every attachment.
type MatchMimeTypeConfig struct {
	WhitelistEnabled  bool     `json:"whitelist_enabled,omitempty"`
	MimeTypeWhitelist []string `json:"mime_type_whitelist,omitempty"`
	BlacklistEnabled  bool     `json:"blacklist_enabled,omitempty"`
	MimeTypeBlacklist []string `json:"mime_type_blacklist,omitempty"`
	LegacyFirstOnly   *bool    `json:"legacy_first_only,omitempty"`
}

func (c *MatchMimeTypeConfig) Kind() string   { return KindMatchMimeType }
func (c *MatchMimeTypeConfig) triggerConfig() {}

func (c *MatchMimeTypeConfig) Validate() error {
	if !c.WhitelistEnabled && !c.BlacklistEnabled {
		return errors.New("at least one of whitelist_enabled or blacklist_enabled is required")
	}
	if c.WhitelistEnabled && len(c.MimeTypeWhitelist) == 0 {
		return errors.New("mime_type_whitelist is required when whitelist_enabled")
	}
	if c.BlacklistEnabled && len(c.MimeTypeBlacklist) == 0 {
		return errors.New("mime_type_blacklist is required when blacklist_enabled")
	}
	return nil
}

func (c *MatchMimeTypeConfig) match(mc *event.MatchContext) (*Result, error) {
	if mc.Message == nil {
		return nil, nil
	}
	for _, att := range mc.Message.Attachments {
		mime := strings.ToLower(att.ContentType)
		if c.BlacklistEnabled && listContainsFold(c.MimeTypeBlacklist, mime) {
			return &Result{Summary: fmt.Sprintf("matched blacklisted content type %q (%s)", mime, att.FileName)}, nil
		}
		if c.WhitelistEnabled && !listContainsFold(c.MimeTypeWhitelist, mime) {
			return &Result{Summary: fmt.Sprintf("matched non-whitelisted content type %q (%s)", mime, att.FileName)}, nil
		}
		if boolDefault(c.LegacyFirstOnly, true) {
			break
		}
	}
	return nil, nil
}
