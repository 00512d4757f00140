package notify

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Vishaljain290502/Rydr/internal/domain"
	"github.com/Vishaljain290502/Rydr/internal/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUsers struct {
	users map[uuid.UUID]*domain.User
	err   error
}

func (s *stubUsers) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (s *stubUsers) GetByIDs(_ context.Context, ids []uuid.UUID) ([]*domain.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	result := []*domain.User{}
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			result = append(result, u)
		}
	}
	return result, nil
}

// recordingSender ведет себя как FCM: без токена - ErrNoDeviceToken
type recordingSender struct {
	mu       sync.Mutex
	sent     []Message
	failFor  map[uuid.UUID]bool
	delay    time.Duration
	inFlight int32
	maxSeen  int32
	closed   bool
}

func (s *recordingSender) Send(ctx context.Context, msg Message) error {
	cur := atomic.AddInt32(&s.inFlight, 1)
	defer atomic.AddInt32(&s.inFlight, -1)
	for {
		seen := atomic.LoadInt32(&s.maxSeen)
		if cur <= seen || atomic.CompareAndSwapInt32(&s.maxSeen, seen, cur) {
			break
		}
	}

	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if msg.DeviceToken == "" {
		return ErrNoDeviceToken
	}
	if s.failFor[msg.UserID] {
		return errors.New("gateway unavailable")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return nil
}

func (s *recordingSender) Close() error {
	s.closed = true
	return nil
}

func (s *recordingSender) tokens() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var tokens []string
	for _, m := range s.sent {
		tokens = append(tokens, m.DeviceToken)
	}
	return tokens
}

func newUser(token string) *domain.User {
	return &domain.User{ID: uuid.New(), FirstName: "User", DeviceToken: token}
}

func TestDispatcher_Notify(t *testing.T) {
	withToken := newUser("fresh-token")
	noToken := newUser("")
	failing := newUser("failing-token")
	another := newUser("another-token")

	users := &stubUsers{users: map[uuid.UUID]*domain.User{
		withToken.ID: withToken,
		noToken.ID:   noToken,
		failing.ID:   failing,
		another.ID:   another,
	}}
	sender := &recordingSender{failFor: map[uuid.UUID]bool{failing.ID: true}}
	d := NewDispatcher(users, sender, time.Second, 2, logger.NewNoop())

	recipients := []domain.TripUser{
		domain.NewTripUser(withToken),
		domain.NewTripUser(noToken),
		domain.NewTripUser(failing),
		domain.NewTripUser(another),
		{ID: uuid.New(), FirstName: "Deleted"},
	}

	// Отмена контекста запроса не должна прерывать рассылку
	ctx, cancel := context.WithCancel(context.Background())
	d.Notify(ctx, recipients, "🚗 Trip Created", "You've joined a trip")
	cancel()

	require.NoError(t, d.Close())
	assert.True(t, sender.closed)
	assert.ElementsMatch(t, []string{"fresh-token", "another-token"}, sender.tokens())
}

func TestDispatcher_ConcurrencyLimit(t *testing.T) {
	users := &stubUsers{users: map[uuid.UUID]*domain.User{}}
	var recipients []domain.TripUser
	for i := 0; i < 10; i++ {
		u := newUser("token")
		users.users[u.ID] = u
		recipients = append(recipients, domain.NewTripUser(u))
	}

	sender := &recordingSender{delay: 10 * time.Millisecond}
	d := NewDispatcher(users, sender, time.Second, 3, logger.NewNoop())

	d.Notify(context.Background(), recipients, "title", "body")
	d.Wait()

	assert.Len(t, sender.tokens(), 10)
	assert.LessOrEqual(t, atomic.LoadInt32(&sender.maxSeen), int32(3))
}

func TestDispatcher_ResolveFailureIsSwallowed(t *testing.T) {
	users := &stubUsers{err: errors.New("db down")}
	sender := &recordingSender{}
	d := NewDispatcher(users, sender, time.Second, 1, logger.NewNoop())

	d.Notify(context.Background(), []domain.TripUser{{ID: uuid.New()}}, "title", "body")
	d.Wait()

	assert.Empty(t, sender.tokens())
}

func TestDispatcher_NoRecipients(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(&stubUsers{}, sender, time.Second, 1, logger.NewNoop())

	d.Notify(context.Background(), nil, "title", "body")
	d.Wait()

	assert.Empty(t, sender.tokens())
}
