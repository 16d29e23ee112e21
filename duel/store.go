// duel/store.go
package duel

import (
	"sync"

	"github.com/google/uuid"

	"github.com/wfunc/duelserver/logger"
)

// Store 活跃对决房间的集合。rooms 为权威映射，byConn 是派生的
// 连接 -> 房间ID 索引，两者在同一把锁下变更，不会漂移。
type Store struct {
	rooms  map[string]*Room
	byConn map[string]string
	mutex  sync.RWMutex
}

func NewStore() *Store {
	return &Store{
		rooms:  make(map[string]*Room),
		byConn: make(map[string]string),
	}
}

// Create allocates a room with a fresh id and indexes both
// participants' connections.
func (s *Store) Create(p1, p2 *Player, rules Rules) *Room {
	room := NewRoom(uuid.New().String(), p1, p2, rules)

	s.mutex.Lock()
	s.rooms[room.ID] = room
	s.byConn[p1.SessionID] = room.ID
	s.byConn[p2.SessionID] = room.ID
	s.mutex.Unlock()

	logger.Log.Infof("创建对决房间 %s: %s vs %s", room.ID, p1.Username, p2.Username)
	return room
}

func (s *Store) Find(roomID string) (*Room, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	room, exists := s.rooms[roomID]
	return room, exists
}

// FindByConnection resolves the room a connection participates in.
// Absence means "no active duel for this actor", not an error.
func (s *Store) FindByConnection(sessionID string) (*Room, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	roomID, exists := s.byConn[sessionID]
	if !exists {
		return nil, false
	}
	room, exists := s.rooms[roomID]
	return room, exists
}

// Remove deletes the room and every connection index entry pointing
// to it. Removing an absent room is a no-op.
func (s *Store) Remove(roomID string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	room, exists := s.rooms[roomID]
	if !exists {
		return
	}
	for _, p := range room.Players {
		if s.byConn[p.SessionID] == roomID {
			delete(s.byConn, p.SessionID)
		}
	}
	delete(s.rooms, roomID)
}

// HasParticipant reports whether the user is in any live duel.
func (s *Store) HasParticipant(userID string) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	for _, room := range s.rooms {
		for _, p := range room.Players {
			if p.UserID == userID {
				return true
			}
		}
	}
	return false
}

func (s *Store) Count() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.rooms)
}
