// duel/room.go
package duel

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wfunc/duelserver/logger"
	"github.com/wfunc/duelserver/models"
	"github.com/wfunc/duelserver/state"
)

var (
	ErrDuelFinished     = errors.New("duel already finished")
	ErrNotParticipant   = errors.New("session is not a participant of this duel")
	ErrAlreadyCommitted = errors.New("card already committed this round")
	ErrCardNotOwned     = errors.New("card is not in the player's hand")
)

// Rules 对决终局规则：先到 WinScore 分获胜，或打满 MaxRounds 回合。
type Rules struct {
	WinScore  int
	MaxRounds int
}

// DefaultRules is the production rule set: first to 2 points, hard
// cap of 3 rounds.
var DefaultRules = Rules{WinScore: 2, MaxRounds: 3}

type roundPlay struct {
	cardID    string
	committed bool
}

// Room 一场进行中的 1v1 对决。创建时双方顺序固定。
//
// 所有回合状态的变更都必须持有 mutex，两侧"同时"出牌不会都观察到
// 未结算的回合。
type Room struct {
	ID        string
	Players   [2]*Player
	CreatedAt time.Time

	rules    Rules
	round    int
	plays    [2]roundPlay
	finished bool
	machine  state.StateMachine
	mutex    sync.Mutex
}

func NewRoom(id string, p1, p2 *Player, rules Rules) *Room {
	r := &Room{
		ID:        id,
		Players:   [2]*Player{p1, p2},
		CreatedAt: time.Now(),
		rules:     rules,
		round:     1,
	}
	p1.Score = 0
	p2.Score = 0
	r.machine = state.NewBaseStateMachine(state.NewAwaitingPlaysState(r, 1))
	return r
}

// --- state.DuelContext ---

func (r *Room) GetID() string {
	return r.ID
}

func (r *Room) ChangeState(newState state.State) error {
	return r.machine.ChangeState(newState)
}

// --- accessors ---

func (r *Room) Round() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.round
}

func (r *Room) Finished() bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.finished
}

func (r *Room) StateID() string {
	return r.machine.GetCurrentState().GetID()
}

// Scores returns a copy of the cumulative scores keyed by user id.
func (r *Room) Scores() map[string]int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.scoresLocked()
}

func (r *Room) scoresLocked() map[string]int {
	return map[string]int{
		r.Players[0].UserID: r.Players[0].Score,
		r.Players[1].UserID: r.Players[1].Score,
	}
}

func (r *Room) slotOf(sessionID string) int {
	for i, p := range r.Players {
		if p.SessionID == sessionID {
			return i
		}
	}
	return -1
}

// Opponent returns the other participant.
func (r *Room) Opponent(sessionID string) (*Player, bool) {
	slot := r.slotOf(sessionID)
	if slot < 0 {
		return nil, false
	}
	return r.Players[1-slot], true
}

// RoundOutcome 一个已结算回合的结果。Finished 为真时对决终止。
type RoundOutcome struct {
	Round    int
	Cards    [2]models.Card
	Metrics  [2]float64
	Result   string
	Scores   map[string]int
	Finished bool
	Winner   *Player // nil while running, or draw at the end
	Rounds   int     // settled rounds, valid when Finished

	// Next round data, valid when !Finished.
	NextRound int
	Hands     [2][]models.Card
}

// CommitPlay records one side's card for the current round. It
// returns (nil, nil) while the other side's play is still outstanding
// and the settled outcome once both sides have committed.
//
// Calls for the same room execute atomically with respect to each
// other; a round never settles twice.
func (r *Room) CommitPlay(sessionID, cardID string) (*RoundOutcome, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.finished {
		return nil, ErrDuelFinished
	}

	slot := r.slotOf(sessionID)
	if slot < 0 {
		return nil, ErrNotParticipant
	}
	if r.plays[slot].committed {
		return nil, ErrAlreadyCommitted
	}

	player := r.Players[slot]
	if _, ok := player.CardInHand(cardID); !ok {
		return nil, ErrCardNotOwned
	}

	r.plays[slot] = roundPlay{cardID: cardID, committed: true}

	if !r.plays[1-slot].committed {
		// 等待对方出牌
		return nil, nil
	}

	return r.settleRound(), nil
}

// settleRound resolves the current round. Caller holds the mutex and
// has verified both plays are committed.
func (r *Room) settleRound() *RoundOutcome {
	var cards [2]models.Card
	for i, p := range r.Players {
		card, ok := p.CardInHand(r.plays[i].cardID)
		if !ok {
			// Committed plays are validated against the hand; a miss
			// here means the play record is corrupt.
			logger.Log.Panicf("room %s: committed card %s missing from %s's hand",
				r.ID, r.plays[i].cardID, p.Username)
		}
		cards[i] = card
	}

	metrics := [2]float64{cards[0].Metric(), cards[1].Metric()}

	var result string
	switch {
	case metrics[0] > metrics[1]:
		r.Players[0].Score++
		result = fmt.Sprintf("%s won round %d", r.Players[0].Username, r.round)
	case metrics[1] > metrics[0]:
		r.Players[1].Score++
		result = fmt.Sprintf("%s won round %d", r.Players[1].Username, r.round)
	default:
		result = fmt.Sprintf("round %d ended in a draw", r.round)
	}

	logger.Log.Infof("房间 %s 第 %d 回合: %s (%.2f vs %.2f)",
		r.ID, r.round, result, metrics[0], metrics[1])

	outcome := &RoundOutcome{
		Round:   r.round,
		Cards:   cards,
		Metrics: metrics,
		Result:  result,
		Scores:  r.scoresLocked(),
	}

	if r.Players[0].Score >= r.rules.WinScore ||
		r.Players[1].Score >= r.rules.WinScore ||
		r.round >= r.rules.MaxRounds {
		r.finished = true
		outcome.Finished = true
		outcome.Rounds = r.round
		outcome.Winner = r.leaderLocked()

		winnerID := ""
		if outcome.Winner != nil {
			winnerID = outcome.Winner.UserID
		}
		r.ChangeState(state.NewFinishedState(r, winnerID))
		return outcome
	}

	// 双方弃掉已打出的牌，进入下一回合。回合记录只在结算之后清空。
	for i, p := range r.Players {
		p.RemoveFromHand(r.plays[i].cardID)
	}
	r.round++
	r.plays = [2]roundPlay{}

	outcome.NextRound = r.round
	for i, p := range r.Players {
		outcome.Hands[i] = append([]models.Card(nil), p.Hand...)
	}
	r.ChangeState(state.NewAwaitingPlaysState(r, r.round))
	return outcome
}

func (r *Room) leaderLocked() *Player {
	switch {
	case r.Players[0].Score > r.Players[1].Score:
		return r.Players[0]
	case r.Players[1].Score > r.Players[0].Score:
		return r.Players[1]
	default:
		return nil
	}
}

// ForfeitOutcome 一方断线导致的强制终局
type ForfeitOutcome struct {
	Disconnected *Player
	Remaining    *Player
	Scores       map[string]int
	Winner       *Player // nil on draw
	Rounds       int
}

// Forfeit terminates the duel because the given participant's
// connection dropped. The remaining side wins only if strictly ahead
// on score; otherwise the duel is a draw.
func (r *Room) Forfeit(sessionID string) (*ForfeitOutcome, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.finished {
		return nil, ErrDuelFinished
	}

	slot := r.slotOf(sessionID)
	if slot < 0 {
		return nil, ErrNotParticipant
	}

	disconnected := r.Players[slot]
	remaining := r.Players[1-slot]

	outcome := &ForfeitOutcome{
		Disconnected: disconnected,
		Remaining:    remaining,
		Scores:       r.scoresLocked(),
		Rounds:       r.round,
	}
	if remaining.Score > disconnected.Score {
		outcome.Winner = remaining
	}

	r.finished = true
	winnerID := ""
	if outcome.Winner != nil {
		winnerID = outcome.Winner.UserID
	}
	r.ChangeState(state.NewFinishedState(r, winnerID))

	logger.Log.Infof("房间 %s: 玩家 %s 断线, 剩余玩家 %s, 比分 %d:%d",
		r.ID, disconnected.Username, remaining.Username,
		disconnected.Score, remaining.Score)

	return outcome, nil
}
