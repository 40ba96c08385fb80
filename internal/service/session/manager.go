package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-vocab/internal/domain/srs"
)

// Manager keeps the live sessions of the process, keyed by session ID.
type Manager struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session

	syncer    Syncer
	scheduler srs.Service
	config    Config
	opts      []Option
	logger    *slog.Logger
}

// NewManager creates a Manager. opts are applied to every session it starts.
func NewManager(
	sync Syncer,
	scheduler srs.Service,
	config Config,
	log *slog.Logger,
	opts ...Option,
) *Manager {
	if sync == nil {
		panic("syncer cannot be nil")
	}
	if scheduler == nil {
		panic("scheduler cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &Manager{
		sessions:  make(map[uuid.UUID]*Session),
		syncer:    sync,
		scheduler: scheduler,
		config:    config,
		opts:      opts,
		logger:    log,
	}
}

// Start creates, loads and registers a session over collectionID.
// Sessions that load Empty are registered too, so they can be restarted.
func (m *Manager) Start(ctx context.Context, collectionID uuid.UUID) (*Session, error) {
	s := New(collectionID, m.syncer, m.scheduler, m.config, m.logger, m.opts...)
	if err := s.Start(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()
	return s, nil
}

// Get returns a live session.
func (m *Manager) Get(id uuid.UUID) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Close tears a session down and forgets it.
func (m *Manager) Close(id uuid.UUID) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	s.Close()
	return nil
}

// PruneIdle closes every session inactive for longer than maxIdle as of now
// and returns how many were closed.
func (m *Manager) PruneIdle(now time.Time, maxIdle time.Duration) int {
	cutoff := now.Add(-maxIdle)

	m.mu.Lock()
	var idle []*Session
	for id, s := range m.sessions {
		if s.LastActivity().Before(cutoff) {
			idle = append(idle, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range idle {
		s.Close()
	}
	if len(idle) > 0 {
		m.logger.Info("closed idle review sessions", slog.Int("count", len(idle)))
	}
	return len(idle)
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
