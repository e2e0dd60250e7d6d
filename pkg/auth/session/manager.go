// Package session checks dashboard access tokens against the session markers
// the identity service keeps in Redis.
package session

import (
	"context"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"
)

// ErrNoAccessID is returned for tokens without a jti.
var ErrNoAccessID = errors.New("session: access id is required")

// Backend is satisfied by *redis.Client from pkg/redis.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	AccessSessionKey(accessID string) string
}

// AccessSessionChecker is the read side the auth middleware depends on.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

// Manager treats a token whose jti has no marker as logged out.
type Manager struct {
	backend Backend
}

func NewManager(backend Backend) (*Manager, error) {
	if backend == nil {
		return nil, errors.New("session: backend is required")
	}
	return &Manager{backend: backend}, nil
}

func (m *Manager) HasSession(ctx context.Context, accessID string) (bool, error) {
	key, err := m.key(accessID)
	if err != nil {
		return false, err
	}
	switch _, err := m.backend.Get(ctx, key); {
	case err == nil:
		return true, nil
	case errors.Is(err, redis.Nil):
		return false, nil
	default:
		return false, err
	}
}

// Revoke removes the marker; later requests with the same token get 401.
func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	key, err := m.key(accessID)
	if err != nil {
		return err
	}
	return m.backend.Del(ctx, key)
}

func (m *Manager) key(accessID string) (string, error) {
	accessID = strings.TrimSpace(accessID)
	if accessID == "" {
		return "", ErrNoAccessID
	}
	return m.backend.AccessSessionKey(accessID), nil
}
