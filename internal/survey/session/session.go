// Package session keeps one isolated survey store per client session.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kaykim0310/wmsd-report/internal/survey/store"
)

var ErrSessionNotFound = errors.New("session not found")

// Mirror persists serialized save files outside the process so a session
// survives a restart. Load returns ErrSessionNotFound for unknown ids.
type Mirror interface {
	Save(ctx context.Context, id string, data []byte, ttl time.Duration) error
	Load(ctx context.Context, id string) ([]byte, error)
	Delete(ctx context.Context, id string) error
}

// Session 세션
type Session struct {
	ID        string
	Store     *store.Store
	CreatedAt time.Time

	lastSeen time.Time
}

// Options 세션 관리자 설정
type Options struct {
	TTL           time.Duration
	CategoryCount int
	Mirror        Mirror
	Logger        *zap.Logger
	// OnCount is called with the number of live sessions after every change.
	OnCount func(int)
}

// Manager 세션 관리자
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	ttl           time.Duration
	categoryCount int
	mirror        Mirror
	logger        *zap.Logger
	onCount       func(int)
	now           func() time.Time
}

func NewManager(opts Options) *Manager {
	m := &Manager{
		sessions:      make(map[string]*Session),
		ttl:           opts.TTL,
		categoryCount: opts.CategoryCount,
		mirror:        opts.Mirror,
		logger:        opts.Logger,
		onCount:       opts.OnCount,
		now:           time.Now,
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	if m.ttl <= 0 {
		m.ttl = 12 * time.Hour
	}
	return m
}

// Create starts a session with an empty survey.
func (m *Manager) Create(ctx context.Context) (*Session, error) {
	now := m.now()
	sess := &Session{
		ID:        uuid.New().String(),
		Store:     store.New(m.categoryCount),
		CreatedAt: now,
		lastSeen:  now,
	}
	m.mu.Lock()
	m.sessions[sess.ID] = sess
	n := len(m.sessions)
	m.mu.Unlock()
	m.report(n)

	if err := m.Persist(ctx, sess); err != nil {
		m.logger.Warn("mirror new session failed", zap.String("session_id", sess.ID), zap.Error(err))
	}
	m.logger.Info("session created", zap.String("session_id", sess.ID))
	return sess, nil
}

// Get returns a live session and extends its lifetime. A session missing
// from memory is restored from the mirror when one is configured.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	now := m.now()
	m.mu.Lock()
	sess, ok := m.sessions[id]
	if ok && now.Sub(sess.lastSeen) > m.ttl {
		delete(m.sessions, id)
		ok = false
	}
	if ok {
		sess.lastSeen = now
	}
	m.mu.Unlock()
	if ok {
		return sess, nil
	}
	return m.restore(ctx, id)
}

func (m *Manager) restore(ctx context.Context, id string) (*Session, error) {
	if m.mirror == nil {
		return nil, ErrSessionNotFound
	}
	data, err := m.mirror.Load(ctx, id)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	sv, err := store.Decode(data)
	if err != nil {
		m.logger.Error("mirrored session is malformed", zap.String("session_id", id), zap.Error(err))
		return nil, ErrSessionNotFound
	}

	now := m.now()
	m.mu.Lock()
	// Another request may have restored it first.
	sess, ok := m.sessions[id]
	if !ok {
		sess = &Session{ID: id, Store: store.FromSurvey(sv), CreatedAt: now}
		m.sessions[id] = sess
	}
	sess.lastSeen = now
	n := len(m.sessions)
	m.mu.Unlock()
	m.report(n)
	m.logger.Info("session restored", zap.String("session_id", id))
	return sess, nil
}

// Persist writes the session's current state to the mirror, if any.
func (m *Manager) Persist(ctx context.Context, sess *Session) error {
	if m.mirror == nil {
		return nil
	}
	data, err := sess.Store.Serialize()
	if err != nil {
		return err
	}
	return m.mirror.Save(ctx, sess.ID, data, m.ttl)
}

func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	n := len(m.sessions)
	m.mu.Unlock()
	m.report(n)

	if m.mirror != nil {
		return m.mirror.Delete(ctx, id)
	}
	if !ok {
		return ErrSessionNotFound
	}
	return nil
}

// Sweep drops sessions idle for longer than the TTL and returns how many
// were removed. Mirrored copies expire on their own.
func (m *Manager) Sweep() int {
	now := m.now()
	m.mu.Lock()
	removed := 0
	for id, sess := range m.sessions {
		if now.Sub(sess.lastSeen) > m.ttl {
			delete(m.sessions, id)
			removed++
		}
	}
	n := len(m.sessions)
	m.mu.Unlock()
	if removed > 0 {
		m.report(n)
		m.logger.Info("expired sessions swept", zap.Int("removed", removed), zap.Int("active", n))
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// TTL is the idle lifetime of a session.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

func (m *Manager) report(n int) {
	if m.onCount != nil {
		m.onCount(n)
	}
}
