package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/debemdeboas/yasny-slukh/internal/repository"
	"github.com/debemdeboas/yasny-slukh/internal/util"
)

var ErrSessionNotFound = errors.New("session not found")

// Manager keeps the sessions of logged-in admins, keyed by a random id.
type Manager struct {
	sessions sync.Map

	opts    Options
	follow  repository.Watcher
	timeout time.Duration
	newID   func() string
}

// NewManager returns a manager whose sessions follow w when it is not nil.
// Sessions idle for longer than timeout are dropped; zero keeps them forever.
func NewManager(opts Options, w repository.Watcher, timeout time.Duration) *Manager {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Manager{
		opts:    opts,
		follow:  w,
		timeout: timeout,
		newID:   util.NewID,
	}
}

// Create starts a session and loads the draft. A failed load still yields a
// usable session with an empty draft; the error is returned alongside it.
func (m *Manager) Create(ctx context.Context) (*Session, error) {
	s := New(m.newID(), m.opts)

	if m.follow != nil {
		followCtx, cancel := context.WithCancel(context.Background())
		if err := s.Follow(followCtx, m.follow); err != nil {
			cancel()
			sessionLogger.Error().Err(err).Str("session", s.ID).Msg("Error following content store")
		} else {
			s.setStop(cancel)
		}
	}

	m.sessions.Store(s.ID, s)
	sessionLogger.Info().Str("session", s.ID).Msg("Admin session created")

	return s, s.Load(ctx)
}

// Get returns the session with id and marks it as used.
func (m *Manager) Get(id string) (*Session, error) {
	v, ok := m.sessions.Load(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s := v.(*Session)

	now := m.opts.Now()
	if m.expired(s, now) {
		m.Delete(id)
		return nil, fmt.Errorf("%w: %s expired", ErrSessionNotFound, id)
	}
	s.touch(now)
	return s, nil
}

func (m *Manager) expired(s *Session, now time.Time) bool {
	return m.timeout > 0 && s.idle(now) > m.timeout
}

func (m *Manager) Delete(id string) {
	if v, ok := m.sessions.LoadAndDelete(id); ok {
		v.(*Session).Close()
		sessionLogger.Info().Str("session", id).Msg("Admin session closed")
	}
}

// Sweep drops expired sessions and returns how many were removed.
func (m *Manager) Sweep() int {
	now := m.opts.Now()
	n := 0
	m.sessions.Range(func(key, value any) bool {
		if m.expired(value.(*Session), now) {
			m.Delete(key.(string))
			n++
		}
		return true
	})
	return n
}

// Run sweeps expired sessions every interval until ctx ends.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				sessionLogger.Debug().Int("count", n).Msg("Expired admin sessions removed")
			}
		}
	}
}

// Close ends every session.
func (m *Manager) Close() {
	m.sessions.Range(func(key, _ any) bool {
		m.Delete(key.(string))
		return true
	})
}
