// broadcast/broadcast.go
package broadcast

import (
	"errors"

	"github.com/wfunc/duelserver/duel"
	"github.com/wfunc/duelserver/session"
)

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrSessionNotFound = errors.New("session not found")
)

// 广播接口
type Broadcaster interface {
	BroadcastToRoom(roomID string, msgID uint16, data []byte) error
	SendToSession(sessionID string, msgID uint16, data []byte) error
	SendToUser(userID string, msgID uint16, data []byte) error
}

// DuelBroadcaster 将消息发送给对决房间的双方或单个连接
type DuelBroadcaster struct {
	store          *duel.Store
	sessionManager *session.Manager
}

func NewDuelBroadcaster(store *duel.Store, sessionManager *session.Manager) *DuelBroadcaster {
	return &DuelBroadcaster{
		store:          store,
		sessionManager: sessionManager,
	}
}

func (b *DuelBroadcaster) BroadcastToRoom(roomID string, msgID uint16, data []byte) error {
	room, exists := b.store.Find(roomID)
	if !exists {
		return ErrRoomNotFound
	}

	for _, p := range room.Players {
		sess, ok := b.sessionManager.Get(p.SessionID)
		if !ok {
			// 参与者可能已断线，跳过
			continue
		}
		if err := sess.Send(msgID, data); err != nil {
			continue
		}
	}
	return nil
}

func (b *DuelBroadcaster) SendToSession(sessionID string, msgID uint16, data []byte) error {
	sess, ok := b.sessionManager.Get(sessionID)
	if !ok {
		return ErrSessionNotFound
	}
	return sess.Send(msgID, data)
}

func (b *DuelBroadcaster) SendToUser(userID string, msgID uint16, data []byte) error {
	for _, sess := range b.sessionManager.GetByUserID(userID) {
		if err := sess.Send(msgID, data); err != nil {
			continue
		}
	}
	return nil
}
