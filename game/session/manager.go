package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	mathrand "math/rand"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/wricardo/mcp-training/mergegame/game/engine"
	"github.com/wricardo/mcp-training/mergegame/game/service"
)

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrInvalidSessionID     = errors.New("invalid session ID")
)

// CustomConfigName is the preset name given to sessions built from an explicit grid
const CustomConfigName = "custom"

// Option configures a Manager
type Option func(*Manager)

// WithSeed makes every new session's tile spawning reproducible. Session n
// created by the manager is seeded with seed+n.
func WithSeed(seed int64) Option {
	return func(m *Manager) {
		m.seed = seed
		m.seeded = true
	}
}

// Manager handles game session lifecycle. All sessions share one high score.
type Manager struct {
	sessions  map[string]*service.Session
	highScore *engine.HighScore
	seed      int64
	seeded    bool
	created   int64
	mu        sync.RWMutex
}

// NewManager creates a new session manager. A nil highScore gets a fresh tracker.
func NewManager(highScore *engine.HighScore, opts ...Option) *Manager {
	if highScore == nil {
		highScore = engine.NewHighScore()
	}
	m := &Manager{
		sessions:  make(map[string]*service.Session),
		highScore: highScore,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// HighScore returns the tracker shared by every session
func (m *Manager) HighScore() *engine.HighScore {
	return m.highScore
}

// Create creates a new session with the given ID and configuration. A nil
// config means the classic 4x4 board.
func (m *Manager) Create(id string, config *engine.GameConfig) (*service.Session, error) {
	if config == nil {
		config = engine.DefaultConfig()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id, err := m.claimID(id)
	if err != nil {
		return nil, err
	}

	eng, err := engine.NewEngineFromConfig(config, m.engineOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	return m.store(id, eng, config), nil
}

// CreateCustom creates a session on a copy of grid. No start tiles are spawned.
func (m *Manager) CreateCustom(id string, grid [][]int) (*service.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, err := m.claimID(id)
	if err != nil {
		return nil, err
	}

	config := engine.DefaultConfig()
	config.Name = CustomConfigName
	config.Description = "Explicit starting grid"

	eng, err := engine.NewEngineFromGrid(grid, append(m.engineOptions(), engine.WithConfig(config))...)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	config.Rows, config.Cols = eng.Rows(), eng.Cols()
	config.Layout = eng.Grid()

	return m.store(id, eng, config), nil
}

// claimID validates a caller-supplied ID or generates a free one. Must be
// called with the write lock held.
func (m *Manager) claimID(id string) (string, error) {
	if id == "" {
		for {
			id = m.generateSessionID()
			if !m.sessionExists(id) {
				return id, nil
			}
		}
	}

	if strings.TrimSpace(id) != id {
		return "", fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
	}

	// Check if session already exists (case-insensitive)
	if m.sessionExists(id) {
		return "", ErrSessionAlreadyExists
	}
	return id, nil
}

func (m *Manager) engineOptions() []engine.Option {
	opts := []engine.Option{engine.WithHighScore(m.highScore)}
	if m.seeded {
		opts = append(opts, engine.WithRand(mathrand.New(mathrand.NewSource(m.seed+m.created))))
	}
	m.created++
	return opts
}

func (m *Manager) store(id string, eng *engine.GameEngine, config *engine.GameConfig) *service.Session {
	now := time.Now()
	session := &service.Session{
		ID:             id,
		Engine:         eng,
		Config:         config,
		CreatedAt:      now,
		LastAccessedAt: now,
	}
	m.sessions[strings.ToLower(id)] = session

	log.Debug("session stored", "id", id, "config", config.Name, "rows", eng.Rows(), "cols", eng.Cols())
	return session
}

// Get retrieves a session by ID (case-insensitive)
func (m *Manager) Get(id string) (*service.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[strings.ToLower(id)]
	if !exists {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// GetOrCreate gets an existing session or creates a new one
func (m *Manager) GetOrCreate(id string, config *engine.GameConfig) (*service.Session, error) {
	session, err := m.Get(id)
	if err == nil {
		return session, nil
	}

	if errors.Is(err, ErrSessionNotFound) {
		return m.Create(id, config)
	}

	return nil, err
}

// List returns all active sessions
func (m *Manager) List() []*service.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}

	return result
}

// Delete removes a session
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	lowerID := strings.ToLower(id)
	if _, exists := m.sessions[lowerID]; !exists {
		return ErrSessionNotFound
	}
	delete(m.sessions, lowerID)
	return nil
}

// UpdateLastAccessed updates the last accessed time for a session
func (m *Manager) UpdateLastAccessed(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, exists := m.sessions[strings.ToLower(id)]
	if !exists {
		return ErrSessionNotFound
	}

	session.LastAccessedAt = time.Now()
	return nil
}

// CleanupExpiredSessions removes sessions that haven't been accessed in the given duration
func (m *Manager) CleanupExpiredSessions(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for id, session := range m.sessions {
		if session.LastAccessedAt.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}

	if removed > 0 {
		log.Info("expired sessions removed", "count", removed, "max_age", maxAge)
	}
	return removed
}

// Count returns the number of active sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// generateSessionID generates a random 4-character session ID
func (m *Manager) generateSessionID() string {
	// Generate 2 random bytes (4 hex characters)
	bytes := make([]byte, 2)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// sessionExists checks if a session exists (case-insensitive)
func (m *Manager) sessionExists(id string) bool {
	_, exists := m.sessions[strings.ToLower(id)]
	return exists
}
