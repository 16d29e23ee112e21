// session/session.go
package session

import (
	"sync"
	"time"

	"github.com/wfunc/duelserver/network"
)

type Session struct {
	ID         string
	Conn       network.Connection
	UserID     string
	Username   string
	RoomID     string
	CreatedAt  time.Time
	LastActive time.Time
	mutex      sync.RWMutex
}

func NewSession(id string, conn network.Connection) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		Conn:       conn,
		CreatedAt:  now,
		LastActive: now,
	}
}

// SetIdentity binds the authenticated user to the connection.
func (s *Session) SetIdentity(userID, username string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.UserID = userID
	s.Username = username
}

func (s *Session) SetRoomID(roomID string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.RoomID = roomID
}

func (s *Session) GetRoomID() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.RoomID
}

func (s *Session) Send(msgID uint16, data []byte) error {
	s.LastActive = time.Now()
	return s.Conn.Send(msgID, data)
}

func (s *Session) GetID() string {
	return s.ID
}

func (s *Session) Close() error {
	return s.Conn.Close()
}

// Session管理器
type Manager struct {
	sessions map[string]*Session
	mutex    sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) Add(session *Session) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sessions[session.ID] = session
}

func (m *Manager) Remove(sessionID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.sessions, sessionID)
}

func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	session, exists := m.sessions[sessionID]
	return session, exists
}

func (m *Manager) GetByUserID(userID string) []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var result []*Session
	for _, session := range m.sessions {
		if session.UserID == userID {
			result = append(result, session)
		}
	}
	return result
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}
