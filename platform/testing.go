package platform

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Recording fakes for engine and action tests. Intentionally exported for
// use in other packages.

type FakeChatAPI struct {
	Mu sync.Mutex

	Sent         []FakeSentMessage
	Deleted      map[string][]string // channelID -> message ids
	Overwrites   map[string]Overwrite
	ThreadOps    []string
	InvitesPause map[string]bool

	// missing permissions, keyed by channel; HasPermissions returns false
	// when any requested bit is listed here
	DeniedPerms map[string]Permissions
	// errors to inject, keyed by method name
	Errs map[string]error
}

type FakeSentMessage struct {
	ChannelID string
	Content   string
}

func NewFakeChatAPI() *FakeChatAPI {
	return &FakeChatAPI{
		Deleted:      make(map[string][]string),
		Overwrites:   make(map[string]Overwrite),
		InvitesPause: make(map[string]bool),
		DeniedPerms:  make(map[string]Permissions),
		Errs:         make(map[string]error),
	}
}

func (f *FakeChatAPI) err(method string) error {
	return f.Errs[method]
}

func (f *FakeChatAPI) SendMessage(ctx context.Context, channelID, content string) (string, error) {
	f.Mu.Lock()
	defer f.Mu.Unlock()
	if err := f.err("SendMessage"); err != nil {
		return "", err
	}
	f.Sent = append(f.Sent, FakeSentMessage{ChannelID: channelID, Content: content})
	return fmt.Sprintf("sent-%d", len(f.Sent)), nil
}

func (f *FakeChatAPI) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	return f.DeleteMessages(ctx, channelID, []string{messageID})
}

func (f *FakeChatAPI) DeleteMessages(ctx context.Context, channelID string, messageIDs []string) error {
	f.Mu.Lock()
	defer f.Mu.Unlock()
	if err := f.err("DeleteMessages"); err != nil {
		return err
	}
	f.Deleted[channelID] = append(f.Deleted[channelID], messageIDs...)
	return nil
}

func (f *FakeChatAPI) HasPermissions(ctx context.Context, channelID string, perms Permissions) (bool, error) {
	f.Mu.Lock()
	defer f.Mu.Unlock()
	if err := f.err("HasPermissions"); err != nil {
		return false, err
	}
	return f.DeniedPerms[channelID]&perms == 0, nil
}

func (f *FakeChatAPI) PermissionOverwrite(ctx context.Context, channelID, targetID string) (*Overwrite, error) {
	f.Mu.Lock()
	defer f.Mu.Unlock()
	ow, ok := f.Overwrites[channelID+"/"+targetID]
	if !ok {
		return nil, nil
	}
	return &ow, nil
}

func (f *FakeChatAPI) EditPermissionOverwrite(ctx context.Context, channelID string, ow Overwrite) error {
	f.Mu.Lock()
	defer f.Mu.Unlock()
	if err := f.err("EditPermissionOverwrite"); err != nil {
		return err
	}
	f.Overwrites[channelID+"/"+ow.TargetID] = ow
	return nil
}

func (f *FakeChatAPI) SetThreadArchived(ctx context.Context, threadID string, archived bool) error {
	f.Mu.Lock()
	defer f.Mu.Unlock()
	if err := f.err("SetThreadArchived"); err != nil {
		return err
	}
	f.ThreadOps = append(f.ThreadOps, fmt.Sprintf("archive/%s/%v", threadID, archived))
	return nil
}

func (f *FakeChatAPI) SetThreadLocked(ctx context.Context, threadID string, locked bool) error {
	f.Mu.Lock()
	defer f.Mu.Unlock()
	if err := f.err("SetThreadLocked"); err != nil {
		return err
	}
	f.ThreadOps = append(f.ThreadOps, fmt.Sprintf("lock/%s/%v", threadID, locked))
	return nil
}

func (f *FakeChatAPI) StartThread(ctx context.Context, channelID, messageID, name string) (string, error) {
	f.Mu.Lock()
	defer f.Mu.Unlock()
	if err := f.err("StartThread"); err != nil {
		return "", err
	}
	f.ThreadOps = append(f.ThreadOps, fmt.Sprintf("start/%s/%s/%s", channelID, messageID, name))
	return "thread-" + messageID, nil
}

func (f *FakeChatAPI) CrosspostMessage(ctx context.Context, channelID, messageID string) error {
	f.Mu.Lock()
	defer f.Mu.Unlock()
	if err := f.err("CrosspostMessage"); err != nil {
		return err
	}
	f.ThreadOps = append(f.ThreadOps, fmt.Sprintf("crosspost/%s/%s", channelID, messageID))
	return nil
}

func (f *FakeChatAPI) SetInvitesPaused(ctx context.Context, guildID string, paused bool) error {
	f.Mu.Lock()
	defer f.Mu.Unlock()
	if err := f.err("SetInvitesPaused"); err != nil {
		return err
	}
	f.InvitesPause[guildID] = paused
	return nil
}

type FakeCase struct {
	Action string
	Opts   CaseOpts
}

type FakeCaseStore struct {
	Mu    sync.Mutex
	Cases []FakeCase
	Errs  map[string]error
}

func NewFakeCaseStore() *FakeCaseStore {
	return &FakeCaseStore{Errs: make(map[string]error)}
}

func (f *FakeCaseStore) record(action string, opts CaseOpts) (string, error) {
	f.Mu.Lock()
	defer f.Mu.Unlock()
	if err := f.Errs[action]; err != nil {
		return "", err
	}
	f.Cases = append(f.Cases, FakeCase{Action: action, Opts: opts})
	return fmt.Sprintf("case-%d", len(f.Cases)), nil
}

func (f *FakeCaseStore) CreateCase(ctx context.Context, opts CaseOpts) (string, error) {
	return f.record("note", opts)
}

func (f *FakeCaseStore) BanUser(ctx context.Context, opts CaseOpts, deleteMessageDays int) (string, error) {
	return f.record("ban", opts)
}

func (f *FakeCaseStore) MuteUser(ctx context.Context, opts CaseOpts, duration time.Duration) (string, error) {
	return f.record("mute", opts)
}

func (f *FakeCaseStore) KickUser(ctx context.Context, opts CaseOpts) (string, error) {
	return f.record("kick", opts)
}

func (f *FakeCaseStore) WarnUser(ctx context.Context, opts CaseOpts) (string, error) {
	return f.record("warn", opts)
}

type FakeAuditLog struct {
	Mu      sync.Mutex
	Ignored []string
}

func (f *FakeAuditLog) IgnoreNextLog(kind LogKind, id string, within time.Duration) {
	f.Mu.Lock()
	defer f.Mu.Unlock()
	f.Ignored = append(f.Ignored, string(kind)+"/"+id)
}
