package auth

import (
	"crypto/subtle"
	"errors"
	"sync"
)

// ErrInvalidToken is returned when a login attempt presents the wrong token.
var ErrInvalidToken = errors.New("invalid session token")

// Manager tracks whether an operator session is active. Listeners registered
// with OnChange are invoked on transitions only, so a repeated login while
// already active does not restart the sync machinery behind it.
type Manager struct {
	token string

	mu        sync.RWMutex
	active    bool
	listeners []func(active bool)
}

// NewManager creates a session manager bound to the shared operator token.
func NewManager(token string) *Manager {
	return &Manager{token: token}
}

// OnChange registers a listener for session transitions. Listeners run
// synchronously inside the transition, in registration order.
func (m *Manager) OnChange(fn func(active bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Login activates the session when the token matches.
func (m *Manager) Login(token string) error {
	if subtle.ConstantTimeCompare([]byte(token), []byte(m.token)) != 1 {
		return ErrInvalidToken
	}
	m.transition(true)
	return nil
}

// Logout deactivates the session. Logging out twice is harmless.
func (m *Manager) Logout() {
	m.transition(false)
}

// Active reports whether a session is currently active.
func (m *Manager) Active() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active
}

func (m *Manager) transition(active bool) {
	m.mu.Lock()
	if m.active == active {
		m.mu.Unlock()
		return
	}
	m.active = active
	listeners := make([]func(bool), len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(active)
	}
}
