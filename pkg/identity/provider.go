package identity

import (
	"context"
	"sync"
)

// Identity is the signed-in user as the providers report it.
type Identity struct {
	Uid   string `json:"uid"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// ChangeListener receives every identity transition, including the initial
// resolution at startup and nil on sign-out.
type ChangeListener func(*Identity)

// Provider is the authentication service surface the browser consumes.
type Provider interface {
	Current() *Identity
	OnChange(ChangeListener)
	// Start fires the initial identity resolution to all listeners.
	Start()
	SignInWithCredentials(ctx context.Context, email, secret string) (*Identity, error)
	RegisterWithCredentials(ctx context.Context, email, secret string) (*Identity, error)
	SignOut(ctx context.Context) error
}

// notifier is the shared listener plumbing for provider implementations.
type notifier struct {
	mu        sync.Mutex
	current   *Identity
	listeners []ChangeListener
}

func (n *notifier) Current() *Identity {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

func (n *notifier) OnChange(l ChangeListener) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.listeners = append(n.listeners, l)
}

func (n *notifier) set(id *Identity) {
	n.mu.Lock()
	n.current = id
	listeners := make([]ChangeListener, len(n.listeners))
	copy(listeners, n.listeners)
	n.mu.Unlock()
	for _, l := range listeners {
		l(id)
	}
}

// Mock is the in-process provider used by tests.
type Mock struct {
	notifier
	FailSignIn bool
}

func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) Start() {
	m.set(m.Current())
}

func (m *Mock) SetIdentity(id *Identity) {
	m.set(id)
}

func (m *Mock) SignInWithCredentials(_ context.Context, email, _ string) (*Identity, error) {
	if m.FailSignIn {
		return nil, ErrInvalidCredentials
	}
	id := &Identity{Uid: "mock-" + email, Email: email}
	m.set(id)
	return id, nil
}

func (m *Mock) RegisterWithCredentials(ctx context.Context, email, secret string) (*Identity, error) {
	return m.SignInWithCredentials(ctx, email, secret)
}

func (m *Mock) SignOut(context.Context) error {
	m.set(nil)
	return nil
}
