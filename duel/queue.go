// duel/queue.go
package duel

import (
	"errors"
	"sync"

	"github.com/wfunc/duelserver/logger"
)

var (
	ErrAlreadyQueued  = errors.New("user already in queue")
	ErrAlreadyInMatch = errors.New("user already in an active duel")
)

// RoomIndex reports whether a user currently participates in any live
// duel. Implemented by the Store.
type RoomIndex interface {
	HasParticipant(userID string) bool
}

// Queue 匹配等待队列。严格按到达顺序配对，不做任何实力匹配。
type Queue struct {
	waiting []*Player
	rooms   RoomIndex
	mutex   sync.Mutex
}

func NewQueue(rooms RoomIndex) *Queue {
	return &Queue{rooms: rooms}
}

// Join appends the player and, if the queue then holds two or more
// entries, atomically pops the two oldest as a pair. Returns nil when
// no pairing happened yet.
//
// The duplicate checks and the pair pop run under one lock so that
// concurrent joins cannot interleave between append and pop.
func (q *Queue) Join(p *Player) ([2]*Player, bool, error) {
	var none [2]*Player

	q.mutex.Lock()
	defer q.mutex.Unlock()

	for _, waiting := range q.waiting {
		if waiting.UserID == p.UserID {
			logger.Log.Infof("玩家 %s 已在队列中", p.Username)
			return none, false, ErrAlreadyQueued
		}
	}

	if q.rooms != nil && q.rooms.HasParticipant(p.UserID) {
		logger.Log.Infof("玩家 %s 已在对决中", p.Username)
		return none, false, ErrAlreadyInMatch
	}

	q.waiting = append(q.waiting, p)

	if len(q.waiting) < 2 {
		return none, false, nil
	}

	pair := [2]*Player{q.waiting[0], q.waiting[1]}
	q.waiting = q.waiting[2:]
	return pair, true, nil
}

// Leave removes the user's entry if present. Removing an absent user
// is a no-op, not an error.
func (q *Queue) Leave(userID string) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	waiting := q.waiting[:0]
	for _, p := range q.waiting {
		if p.UserID != userID {
			waiting = append(waiting, p)
		}
	}
	q.waiting = waiting
}

// LeaveBySession removes the entry bound to the given connection.
func (q *Queue) LeaveBySession(sessionID string) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	waiting := q.waiting[:0]
	for _, p := range q.waiting {
		if p.SessionID != sessionID {
			waiting = append(waiting, p)
		}
	}
	q.waiting = waiting
}

// Requeue puts a player back at the head of the queue. Used when a
// pairing is abandoned before a room is created.
func (q *Queue) Requeue(p *Player) {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	q.waiting = append([]*Player{p}, q.waiting...)
}

func (q *Queue) Len() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return len(q.waiting)
}

// Contains reports whether the user has an entry in the queue.
func (q *Queue) Contains(userID string) bool {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	for _, p := range q.waiting {
		if p.UserID == userID {
			return true
		}
	}
	return false
}
