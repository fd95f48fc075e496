package reputation

import (
	"context"
	"errors"
	"sync"
)

// MockClient is a canned-response client for tests.
type MockClient struct {
	Mu      sync.Mutex
	Domains map[string]Category
	Invites map[string]*GuildInfo
	// when true, every lookup fails (simulates an unreachable service)
	Unreachable bool

	DomainLookups int
	InviteLookups int
}

var errUnreachable = errors.New("reputation service unreachable")

func NewMockClient() *MockClient {
	return &MockClient{
		Domains: make(map[string]Category),
		Invites: make(map[string]*GuildInfo),
	}
}

func (m *MockClient) ClassifyDomain(ctx context.Context, host string) (Category, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.DomainLookups++
	if m.Unreachable {
		return CategoryUnknown, errUnreachable
	}
	if cat, ok := m.Domains[host]; ok {
		return cat, nil
	}
	return CategoryUnknown, nil
}

func (m *MockClient) ResolveInvite(ctx context.Context, code string) (*GuildInfo, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.InviteLookups++
	if m.Unreachable {
		return nil, errUnreachable
	}
	return m.Invites[code], nil
}
