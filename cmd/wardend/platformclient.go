package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/havenchat/warden/platform"
)

// platformClient implements the engine's outbound collaborator
// interfaces (ChatAPI, CaseStore, AuditLog) against the gateway's
// moderation HTTP API. Every call is a JSON POST; the gateway owns rate
// limiting against the upstream platform, we just retry transient
// failures.
type platformClient struct {
	baseURL string
	client  *retryablehttp.Client
}

func newPlatformClient(baseURL string) *platformClient {
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.Logger = nil
	return &platformClient{
		baseURL: baseURL,
		client:  client,
	}
}

func (c *platformClient) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s failed. status=%d", path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(out)
}

func (c *platformClient) SendMessage(ctx context.Context, channelID, content string) (string, error) {
	var out struct {
		MessageID string `json:"message_id"`
	}
	err := c.post(ctx, "/messages/send", map[string]string{
		"channel_id": channelID,
		"content":    content,
	}, &out)
	return out.MessageID, err
}

func (c *platformClient) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	return c.DeleteMessages(ctx, channelID, []string{messageID})
}

func (c *platformClient) DeleteMessages(ctx context.Context, channelID string, messageIDs []string) error {
	return c.post(ctx, "/messages/delete", map[string]any{
		"channel_id":  channelID,
		"message_ids": messageIDs,
	}, nil)
}

func (c *platformClient) HasPermissions(ctx context.Context, channelID string, perms platform.Permissions) (bool, error) {
	var out struct {
		Allowed bool `json:"allowed"`
	}
	err := c.post(ctx, "/permissions/check", map[string]any{
		"channel_id":  channelID,
		"permissions": uint64(perms),
	}, &out)
	return out.Allowed, err
}

func (c *platformClient) PermissionOverwrite(ctx context.Context, channelID, targetID string) (*platform.Overwrite, error) {
	var out struct {
		Overwrite *platform.Overwrite `json:"overwrite"`
	}
	err := c.post(ctx, "/permissions/overwrite/get", map[string]string{
		"channel_id": channelID,
		"target_id":  targetID,
	}, &out)
	return out.Overwrite, err
}

func (c *platformClient) EditPermissionOverwrite(ctx context.Context, channelID string, ow platform.Overwrite) error {
	return c.post(ctx, "/permissions/overwrite/edit", map[string]any{
		"channel_id": channelID,
		"target_id":  ow.TargetID,
		"kind":       ow.Kind,
		"allow":      uint64(ow.Allow),
		"deny":       uint64(ow.Deny),
	}, nil)
}

func (c *platformClient) SetThreadArchived(ctx context.Context, threadID string, archived bool) error {
	return c.post(ctx, "/threads/archive", map[string]any{
		"thread_id": threadID,
		"archived":  archived,
	}, nil)
}

func (c *platformClient) SetThreadLocked(ctx context.Context, threadID string, locked bool) error {
	return c.post(ctx, "/threads/lock", map[string]any{
		"thread_id": threadID,
		"locked":    locked,
	}, nil)
}

func (c *platformClient) StartThread(ctx context.Context, channelID, messageID, name string) (string, error) {
	var out struct {
		ThreadID string `json:"thread_id"`
	}
	err := c.post(ctx, "/threads/start", map[string]string{
		"channel_id": channelID,
		"message_id": messageID,
		"name":       name,
	}, &out)
	return out.ThreadID, err
}

func (c *platformClient) CrosspostMessage(ctx context.Context, channelID, messageID string) error {
	return c.post(ctx, "/messages/crosspost", map[string]string{
		"channel_id": channelID,
		"message_id": messageID,
	}, nil)
}

func (c *platformClient) SetInvitesPaused(ctx context.Context, guildID string, paused bool) error {
	return c.post(ctx, "/invites/pause", map[string]any{
		"guild_id": guildID,
		"paused":   paused,
	}, nil)
}

func (c *platformClient) createCase(ctx context.Context, action string, opts platform.CaseOpts, extra map[string]any) (string, error) {
	body := map[string]any{
		"action":        action,
		"guild_id":      opts.GuildID,
		"user_id":       opts.UserID,
		"reason":        opts.Reason,
		"match_summary": opts.MatchSummary,
		"automatic":     opts.Automatic,
		"contact_user":  opts.ContactUser,
	}
	for k, v := range extra {
		body[k] = v
	}
	var out struct {
		CaseID string `json:"case_id"`
	}
	err := c.post(ctx, "/cases/create", body, &out)
	return out.CaseID, err
}

func (c *platformClient) CreateCase(ctx context.Context, opts platform.CaseOpts) (string, error) {
	return c.createCase(ctx, "note", opts, nil)
}

func (c *platformClient) BanUser(ctx context.Context, opts platform.CaseOpts, deleteMessageDays int) (string, error) {
	return c.createCase(ctx, "ban", opts, map[string]any{"delete_message_days": deleteMessageDays})
}

func (c *platformClient) MuteUser(ctx context.Context, opts platform.CaseOpts, duration time.Duration) (string, error) {
	return c.createCase(ctx, "mute", opts, map[string]any{"duration_ms": duration.Milliseconds()})
}

func (c *platformClient) KickUser(ctx context.Context, opts platform.CaseOpts) (string, error) {
	return c.createCase(ctx, "kick", opts, nil)
}

func (c *platformClient) WarnUser(ctx context.Context, opts platform.CaseOpts) (string, error) {
	return c.createCase(ctx, "warn", opts, nil)
}

// IgnoreNextLog is fire-and-forget: the audit pipeline races the
// deletion it is meant to suppress, so we do not block the action on
// confirmation.
func (c *platformClient) IgnoreNextLog(kind platform.LogKind, id string, within time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	go func() {
		defer cancel()
		// best effort; a duplicate audit entry is cosmetic
		_ = c.post(ctx, "/audit/ignore-next", map[string]any{
			"kind":      kind,
			"id":        id,
			"within_ms": within.Milliseconds(),
		}, nil)
	}()
}
