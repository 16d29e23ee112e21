// events/events.go
package events

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/wfunc/duelserver/logger"
	"github.com/wfunc/duelserver/models"
)

const (
	SubjectDuelStarted = "duels.started"
	SubjectDuelEnded   = "duels.ended"
)

// Publisher 向 NATS 发布对决生命周期事件，供下游服务消费。
// nil Publisher 的所有方法都是安全的空操作，未配置 NATS 时直接传 nil。
type Publisher struct {
	nc *nats.Conn
}

func NewPublisher(url string) (*Publisher, error) {
	nc, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, err
	}
	return &Publisher{nc: nc}, nil
}

type DuelStartedEvent struct {
	RoomID    string    `json:"room_id"`
	UserIDs   []string  `json:"user_ids"`
	StartedAt time.Time `json:"started_at"`
}

func (p *Publisher) DuelStarted(roomID string, userIDs []string) {
	if p == nil {
		return
	}
	p.publish(SubjectDuelStarted, DuelStartedEvent{
		RoomID:    roomID,
		UserIDs:   userIDs,
		StartedAt: time.Now(),
	})
}

func (p *Publisher) DuelEnded(record models.DuelRecord) {
	if p == nil {
		return
	}
	p.publish(SubjectDuelEnded, record)
}

func (p *Publisher) publish(subject string, event interface{}) {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Log.Errorf("Failed to marshal %s event: %v", subject, err)
		return
	}
	if err := p.nc.Publish(subject, data); err != nil {
		logger.Log.Warnf("Failed to publish %s event: %v", subject, err)
	}
}

func (p *Publisher) Close() {
	if p == nil || p.nc == nil {
		return
	}
	p.nc.Drain()
}
