package session

import (
	"context"
	"errors"
	"fmt"
	"testing"

	redislib "github.com/redis/go-redis/v9"
)

type mockStore struct {
	data   map[string]string
	getErr error
}

func (m *mockStore) Get(ctx context.Context, key string) (string, error) {
	if m.getErr != nil {
		return "", m.getErr
	}
	val, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return val, nil
}

func (m *mockStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *mockStore) AccessSessionKey(accessID string) string {
	return fmt.Sprintf("sess:%s", accessID)
}

func TestHasSession(t *testing.T) {
	store := &mockStore{data: map[string]string{"sess:live": "1"}}
	mgr := &Manager{backend: store}
	ctx := context.Background()

	ok, err := mgr.HasSession(ctx, "live")
	if err != nil || !ok {
		t.Fatalf("expected live session, ok=%v err=%v", ok, err)
	}

	ok, err = mgr.HasSession(ctx, "gone")
	if err != nil || ok {
		t.Fatalf("expected missing session, ok=%v err=%v", ok, err)
	}

	if _, err := mgr.HasSession(ctx, " "); !errors.Is(err, ErrNoAccessID) {
		t.Fatalf("expected ErrNoAccessID for blank access id, got %v", err)
	}
}

func TestHasSessionPropagatesStoreErrors(t *testing.T) {
	boom := errors.New("redis down")
	store := &mockStore{data: map[string]string{}, getErr: boom}
	mgr := &Manager{backend: store}
	if _, err := mgr.HasSession(context.Background(), "x"); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestRevoke(t *testing.T) {
	store := &mockStore{data: map[string]string{"sess:live": "1"}}
	mgr := &Manager{backend: store}
	if err := mgr.Revoke(context.Background(), "live"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if ok, _ := mgr.HasSession(context.Background(), "live"); ok {
		t.Fatalf("expected session removed")
	}
}

func TestNewManagerRequiresBackend(t *testing.T) {
	if _, err := NewManager(nil); err == nil {
		t.Fatal("expected error without backend")
	}
}
