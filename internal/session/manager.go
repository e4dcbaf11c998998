package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/antoniostano/omnicart/internal/catalog"
)

var (
	ErrNotFound = errors.New("session not found")
	ErrEnded    = errors.New("session ended")
)

type entry struct {
	// turn serializes every access to state.
	turn  sync.Mutex
	state *State
}

type Manager struct {
	mu                sync.RWMutex
	sessions          map[string]*entry
	inactivityTimeout time.Duration
	snapshots         SnapshotStore
	log               logrus.FieldLogger
	onExpire          func(*State)
	now               func() time.Time
}

type Option func(*Manager)

// WithSnapshots persists a copy of every session after each change and lets
// the manager rehydrate sessions it no longer holds in memory.
func WithSnapshots(store SnapshotStore) Option {
	return func(m *Manager) { m.snapshots = store }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(m *Manager) { m.log = log }
}

func withClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func NewManager(inactivityTimeout time.Duration, opts ...Option) *Manager {
	if inactivityTimeout <= 0 {
		inactivityTimeout = 30 * time.Minute
	}
	m := &Manager{
		sessions:          make(map[string]*entry),
		inactivityTimeout: inactivityTimeout,
		log:               logrus.StandardLogger(),
		now:               func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) InactivityTimeout() time.Duration { return m.inactivityTimeout }

func (m *Manager) SetExpireHook(hook func(*State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onExpire = hook
}

// Create opens a session. customer may be nil for anonymous browsing.
func (m *Manager) Create(ctx context.Context, channel Channel, customer *catalog.Customer) *State {
	if !channel.Valid() {
		channel = ChannelWeb
	}
	s := newState(uuid.NewString(), channel, m.now())
	s.AttachCustomer(customer)

	m.mu.Lock()
	m.sessions[s.ID] = &entry{state: s}
	m.mu.Unlock()

	out := s.Clone()
	m.persist(ctx, out)
	return out
}

// Get returns a copy of the session, ended or not.
func (m *Manager) Get(ctx context.Context, sessionID string) (*State, error) {
	e, err := m.lookup(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	e.turn.Lock()
	defer e.turn.Unlock()
	return e.state.Clone(), nil
}

// Do runs fn against the live session while holding its turn lock, so turns
// on one session never interleave. The returned copy reflects fn's changes
// even when fn fails.
func (m *Manager) Do(ctx context.Context, sessionID string, fn func(*State) error) (*State, error) {
	e, err := m.lookup(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	e.turn.Lock()
	defer e.turn.Unlock()
	if e.state.Status != StatusActive {
		return nil, ErrEnded
	}

	fnErr := fn(e.state)
	e.state.LastActivityAt = m.now()
	out := e.state.Clone()
	m.persist(ctx, out)
	return out, fnErr
}

func (m *Manager) End(ctx context.Context, sessionID string) (*State, error) {
	e, err := m.lookup(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	e.turn.Lock()
	defer e.turn.Unlock()
	e.state.Status = StatusEnded
	e.state.LastActivityAt = m.now()
	out := e.state.Clone()
	m.persist(ctx, out)
	return out, nil
}

func (m *Manager) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.expireInactive(ctx)
			}
		}
	}()
}

func (m *Manager) ActiveCount() int {
	count := 0
	for _, e := range m.entries() {
		e.turn.Lock()
		if e.state.Status == StatusActive {
			count++
		}
		e.turn.Unlock()
	}
	return count
}

// List returns copies of the sessions currently held in memory.
func (m *Manager) List() []*State {
	entries := m.entries()
	out := make([]*State, 0, len(entries))
	for _, e := range entries {
		e.turn.Lock()
		out = append(out, e.state.Clone())
		e.turn.Unlock()
	}
	return out
}

// expireInactive ends idle sessions and drops sessions that were already
// ended at the previous sweep, snapshots included.
func (m *Manager) expireInactive(ctx context.Context) {
	now := m.now()
	var (
		expired []*State
		evict   []string
	)

	for _, e := range m.entries() {
		e.turn.Lock()
		switch {
		case e.state.Status == StatusEnded:
			evict = append(evict, e.state.ID)
		case now.Sub(e.state.LastActivityAt) >= m.inactivityTimeout:
			e.state.Status = StatusEnded
			e.state.LastActivityAt = now
			expired = append(expired, e.state.Clone())
		}
		e.turn.Unlock()
	}

	m.mu.Lock()
	for _, id := range evict {
		delete(m.sessions, id)
	}
	hook := m.onExpire
	m.mu.Unlock()

	for _, id := range evict {
		m.forget(ctx, id)
	}
	for _, s := range expired {
		m.persist(ctx, s)
		if hook != nil {
			hook(s)
		}
	}
}

func (m *Manager) entries() []*entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*entry, 0, len(m.sessions))
	for _, e := range m.sessions {
		out = append(out, e)
	}
	return out
}

func (m *Manager) lookup(ctx context.Context, sessionID string) (*entry, error) {
	m.mu.RLock()
	e, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if ok {
		return e, nil
	}
	if m.snapshots == nil {
		return nil, ErrNotFound
	}

	s, err := m.snapshots.Load(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			m.log.WithError(err).WithField("session_id", sessionID).Warn("session snapshot load failed")
		}
		return nil, ErrNotFound
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[sessionID]; ok {
		return existing, nil
	}
	e = &entry{state: s}
	m.sessions[sessionID] = e
	return e, nil
}

func (m *Manager) persist(ctx context.Context, s *State) {
	if m.snapshots == nil {
		return
	}
	if err := m.snapshots.Save(ctx, s); err != nil {
		m.log.WithError(err).WithField("session_id", s.ID).Warn("session snapshot save failed")
	}
}

func (m *Manager) forget(ctx context.Context, sessionID string) {
	if m.snapshots == nil {
		return
	}
	if err := m.snapshots.Delete(ctx, sessionID); err != nil {
		m.log.WithError(err).WithField("session_id", sessionID).Warn("session snapshot delete failed")
	}
}
