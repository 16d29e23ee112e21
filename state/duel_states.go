package state

import (
	"github.com/wfunc/duelserver/logger"
)

// State ids for the duel round machine. A round settles inside the
// room's critical section, so the machine only ever rests in
// awaiting_plays or finished.
const (
	StateAwaitingPlays = "awaiting_plays"
	StateFinished      = "finished"
)

// AwaitingPlaysState 等待双方出牌
type AwaitingPlaysState struct {
	DuelStateBase
	Round int
}

func NewAwaitingPlaysState(duel DuelContext, round int) *AwaitingPlaysState {
	return &AwaitingPlaysState{
		DuelStateBase: DuelStateBase{
			ID:   StateAwaitingPlays,
			Duel: duel,
		},
		Round: round,
	}
}

func (s *AwaitingPlaysState) OnEnter() {
	logger.Log.Infof("房间 %s 第 %d 回合等待出牌", s.Duel.GetID(), s.Round)
}

// FinishedState 对决结束
type FinishedState struct {
	DuelStateBase
	WinnerID string // 空字符串表示平局
}

func NewFinishedState(duel DuelContext, winnerID string) *FinishedState {
	return &FinishedState{
		DuelStateBase: DuelStateBase{
			ID:   StateFinished,
			Duel: duel,
		},
		WinnerID: winnerID,
	}
}

func (s *FinishedState) OnEnter() {
	logger.Log.Infof("房间 %s 对决结束", s.Duel.GetID())
}
