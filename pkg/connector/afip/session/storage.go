// Package session persists authenticated AFIP sessions across runs. A
// restored session skips the login form entirely, which means skipping the
// captcha as well, so storage reliability directly reduces solver spend.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL is how long a freshly created session stays usable. The portal
// invalidates sessions server-side well before a day; two hours matches
// observed behavior with margin.
const DefaultTTL = 2 * time.Hour

// Session is an authenticated portal session: the cookie jar plus enough
// metadata to decide whether it is still worth restoring.
type Session struct {
	ID        string            `json:"session_id"`
	CUIT      string            `json:"cuit"`
	Cookies   map[string]string `json:"cookies"`
	CreatedAt time.Time         `json:"created_at"`
	ExpiresAt time.Time         `json:"expires_at"`
	Valid     bool              `json:"is_valid"`
}

// New creates a session for the given CUIT with a fresh ID and the default
// TTL.
func New(cuit string, cookies map[string]string) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.New().String(),
		CUIT:      cuit,
		Cookies:   cookies,
		CreatedAt: now,
		ExpiresAt: now.Add(DefaultTTL),
		Valid:     true,
	}
}

// Expired reports whether the session is past its expiry or was marked
// invalid.
func (s *Session) Expired() bool {
	return !s.Valid || time.Now().After(s.ExpiresAt)
}

// Storage persists sessions keyed by CUIT.
type Storage interface {
	// Save stores the session, replacing any existing one for the same CUIT.
	Save(session *Session) error

	// Load retrieves the session for a CUIT. It returns (nil, nil) when no
	// session is stored; an error means the store itself failed.
	Load(cuit string) (*Session, error)

	// Delete removes the stored session for a CUIT. Deleting a CUIT with no
	// stored session is not an error.
	Delete(cuit string) error
}

// MemoryStorage keeps sessions in memory. Useful for tests and for runs
// where persistence across processes is not wanted.
type MemoryStorage struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryStorage creates an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{sessions: make(map[string]*Session)}
}

// Save stores a copy of the session.
func (m *MemoryStorage) Save(session *Session) error {
	if session == nil || session.CUIT == "" {
		return fmt.Errorf("session must have a CUIT")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *session
	m.sessions[session.CUIT] = &copied
	return nil
}

// Load returns a copy of the stored session, or (nil, nil) when absent.
func (m *MemoryStorage) Load(cuit string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored, ok := m.sessions[cuit]
	if !ok {
		return nil, nil
	}

	copied := *stored
	return &copied, nil
}

// Delete removes the stored session for cuit.
func (m *MemoryStorage) Delete(cuit string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, cuit)
	return nil
}
