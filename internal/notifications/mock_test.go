package notifications

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// fakeStore is an in-memory Store double.
type fakeStore struct {
	users    map[string]UserRecord
	byRole   map[Role][]UserRecord
	inactive []UserRecord
	results  map[string][]ResultRecord

	failAll    bool             // every call errors (store unreachable)
	resultErrs map[string]error // per-user ResultsSince failures
}

var errStoreDown = errors.New("store unreachable")

func (s *fakeStore) GetUser(_ context.Context, id string) (UserRecord, error) {
	if s.failAll {
		return UserRecord{}, errStoreDown
	}
	u, ok := s.users[id]
	if !ok {
		return UserRecord{}, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return u, nil
}

func (s *fakeStore) UsersByRole(_ context.Context, role Role) ([]UserRecord, error) {
	if s.failAll {
		return nil, errStoreDown
	}
	return s.byRole[role], nil
}

func (s *fakeStore) UsersInactiveBefore(_ context.Context, _ Role, _ time.Time) ([]UserRecord, error) {
	if s.failAll {
		return nil, errStoreDown
	}
	return s.inactive, nil
}

func (s *fakeStore) ResultsSince(_ context.Context, userID string, since time.Time) ([]ResultRecord, error) {
	if s.failAll {
		return nil, errStoreDown
	}
	if err := s.resultErrs[userID]; err != nil {
		return nil, err
	}
	var out []ResultRecord
	for _, r := range s.results[userID] {
		if !r.CreatedAt.Before(since) {
			out = append(out, r)
		}
	}
	return out, nil
}

// fakeGateway records every send and can be told to fail specific targets.
type fakeGateway struct {
	mu         sync.Mutex
	sent       []*Message
	failTokens map[string]bool
	failTopics map[string]bool
}

func (g *fakeGateway) Send(_ context.Context, msg *Message) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = append(g.sent, msg)
	if g.failTokens[msg.Token] || g.failTopics[msg.Topic] {
		return "", errors.New("gateway refused")
	}
	return fmt.Sprintf("receipt-%d", len(g.sent)), nil
}

func (g *fakeGateway) messages() []*Message {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*Message(nil), g.sent...)
}

var testNow = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

func newTestDispatcher(t *testing.T, store *fakeStore, gw *fakeGateway) *Dispatcher {
	t.Helper()
	if store.users == nil {
		store.users = map[string]UserRecord{}
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	d := New(store, gw, DefaultOptions(), logger)
	d.now = func() time.Time { return testNow }
	return d
}

func daysAgo(n int) *time.Time {
	t := testNow.Add(-time.Duration(n) * 24 * time.Hour)
	return &t
}
