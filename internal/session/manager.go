// Package session keeps one cart and one checkout flow per shopper. Every
// client of the same shopper reads the same cart.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"orderup/internal/cart"
	"orderup/internal/checkout"

	"go.uber.org/zap"
)

// ErrSessionMerged is returned by Submit on a guest session whose cart has
// moved to a customer session.
var ErrSessionMerged = errors.New("session merged into a customer session")

// CustomerKey and GuestKey build session keys.
func CustomerKey(customerID string) string { return "customer:" + customerID }
func GuestKey(anonymousID string) string   { return "anon:" + anonymousID }

// Session is one shopper's cart and current checkout.
type Session struct {
	Key        string
	CustomerID *string
	Cart       *cart.Store

	mu       sync.Mutex
	flow     *checkout.Flow
	lastSeen time.Time
	newFlow  func() *checkout.Flow
	inflight int
	merged   bool
}

// Flow returns the current checkout flow.
func (s *Session) Flow() *checkout.Flow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flow
}

// Submit checks out the cart. A flow that already succeeded is replaced by a
// fresh one first, so the next order starts from Idle.
func (s *Session) Submit(ctx context.Context, form checkout.Form) (*checkout.Confirmation, error) {
	s.mu.Lock()
	if s.merged {
		s.mu.Unlock()
		return nil, ErrSessionMerged
	}
	if s.flow.State() == checkout.StateSucceeded {
		s.flow = s.newFlow()
	}
	flow := s.flow
	s.inflight++
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inflight--
		s.mu.Unlock()
	}()
	return flow.Submit(ctx, form)
}

// busy reports whether a checkout is in flight. s.mu must be held.
func (s *Session) busy() bool {
	state := s.flow.State()
	return s.inflight > 0 || state == checkout.StateSubmitting || state == checkout.StateValidating
}

// Config configures a Manager.
type Config struct {
	FeePolicy cart.FeePolicy
	Currency  string
	Gateway   checkout.Gateway
	Timeout   time.Duration
	Logger    *zap.Logger
}

// Manager owns all live sessions.
type Manager struct {
	cfg      Config
	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

func NewManager(cfg Config) *Manager {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Manager{cfg: cfg, sessions: make(map[string]*Session), now: time.Now}
}

// Get returns the session for key, creating it on first use.
func (m *Manager) Get(key string, customerID *string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[key]
	if !ok {
		s = m.newSession(key, customerID)
		m.sessions[key] = s
		m.cfg.Logger.Debug("session: created", zap.String("key", key))
	}
	s.mu.Lock()
	s.lastSeen = m.now()
	s.mu.Unlock()
	return s
}

// Merge moves the cart lines of the session at from into the session at to
// and drops from. It is used when a guest logs in. A source session with a
// checkout in flight is left in place and nothing is moved.
func (m *Manager) Merge(from, to string, customerID *string) *Session {
	m.mu.Lock()
	src, ok := m.sessions[from]
	if ok && from != to {
		src.mu.Lock()
		if src.busy() {
			src.mu.Unlock()
			m.mu.Unlock()
			m.cfg.Logger.Info("session: merge skipped, checkout in flight", zap.String("from", from), zap.String("to", to))
			return m.Get(to, customerID)
		}
		src.merged = true
		src.mu.Unlock()
		delete(m.sessions, from)
	}
	m.mu.Unlock()

	dst := m.Get(to, customerID)
	if !ok || from == to {
		return dst
	}
	for _, l := range src.Cart.Lines() {
		if err := dst.Cart.AddItem(l.Item, l.Quantity); err != nil {
			m.cfg.Logger.Warn("session: merge line", zap.String("from", from), zap.String("to", to), zap.String("item_id", l.Item.ID), zap.Error(err))
		}
	}
	m.cfg.Logger.Info("session: merged", zap.String("from", from), zap.String("to", to))
	return dst
}

// Sweep drops sessions idle for longer than maxIdle whose checkout is not in
// flight, and returns how many were dropped.
func (m *Manager) Sweep(maxIdle time.Duration) int {
	cutoff := m.now().Add(-maxIdle)
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for key, s := range m.sessions {
		s.mu.Lock()
		idle := s.lastSeen.Before(cutoff)
		busy := s.busy()
		s.mu.Unlock()
		if idle && !busy {
			delete(m.sessions, key)
			n++
		}
	}
	return n
}

// Len is the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) newSession(key string, customerID *string) *Session {
	store := cart.NewStore(m.cfg.FeePolicy, m.cfg.Currency)
	s := &Session{Key: key, CustomerID: customerID, Cart: store}
	s.newFlow = func() *checkout.Flow {
		return checkout.New(store, m.cfg.Gateway, checkout.Options{
			Timeout: m.cfg.Timeout,
			Logger:  m.cfg.Logger.With(zap.String("session", key)),
			Owner:   checkout.Owner{SessionKey: key, CustomerID: customerID},
		})
	}
	s.flow = s.newFlow()
	return s
}
