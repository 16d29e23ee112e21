package duel

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/wfunc/duelserver/models"
	"github.com/wfunc/duelserver/state"
)

// handOf builds a hand with the given KDA values, ids <prefix>-0..n.
func handOf(prefix string, kdas ...string) []models.Card {
	hand := make([]models.Card, 0, len(kdas))
	for i, kda := range kdas {
		hand = append(hand, models.Card{
			ID:           fmt.Sprintf("%s-%d", prefix, i),
			ChampionName: "Champion",
			KDA:          kda,
		})
	}
	return hand
}

// newDuelRoom creates a room where alice holds kdas1 and bob kdas2.
func newDuelRoom(kdas1, kdas2 []string) *Room {
	p1 := NewPlayer("s1", "u1", "alice", nil)
	p2 := NewPlayer("s2", "u2", "bob", nil)
	p1.Hand = handOf("a", kdas1...)
	p2.Hand = handOf("b", kdas2...)
	return NewRoom("room-1", p1, p2, DefaultRules)
}

func TestRoom_FirstCommitWaitsForOpponent(t *testing.T) {
	r := newDuelRoom([]string{"3.0", "2.0", "1.0"}, []string{"1.5", "2.5", "0.5"})

	outcome, err := r.CommitPlay("s1", "a-0")
	if err != nil {
		t.Fatalf("CommitPlay failed: %v", err)
	}
	if outcome != nil {
		t.Fatal("a round must not settle with one commit outstanding")
	}
	if r.Round() != 1 {
		t.Errorf("round must not advance, got %d", r.Round())
	}
}

func TestRoom_CommitTwiceSameRound(t *testing.T) {
	r := newDuelRoom([]string{"3.0", "2.0", "1.0"}, []string{"1.5", "2.5", "0.5"})

	if _, err := r.CommitPlay("s1", "a-0"); err != nil {
		t.Fatalf("CommitPlay failed: %v", err)
	}
	if _, err := r.CommitPlay("s1", "a-1"); err != ErrAlreadyCommitted {
		t.Errorf("expected ErrAlreadyCommitted, got %v", err)
	}
}

func TestRoom_CommitCardNotInHand(t *testing.T) {
	r := newDuelRoom([]string{"3.0", "2.0", "1.0"}, []string{"1.5", "2.5", "0.5"})

	if _, err := r.CommitPlay("s1", "b-0"); err != ErrCardNotOwned {
		t.Errorf("expected ErrCardNotOwned, got %v", err)
	}
	if _, err := r.CommitPlay("s0", "a-0"); err != ErrNotParticipant {
		t.Errorf("expected ErrNotParticipant, got %v", err)
	}
}

func TestRoom_RoundSettlement(t *testing.T) {
	r := newDuelRoom([]string{"3.0", "2.0", "1.0"}, []string{"1.5", "2.5", "0.5"})

	r.CommitPlay("s1", "a-0") // 3.0
	outcome, err := r.CommitPlay("s2", "b-0") // 1.5
	if err != nil {
		t.Fatalf("CommitPlay failed: %v", err)
	}
	if outcome == nil {
		t.Fatal("both sides committed, round should settle")
	}

	if outcome.Round != 1 {
		t.Errorf("expected round 1, got %d", outcome.Round)
	}
	if outcome.Metrics[0] != 3.0 || outcome.Metrics[1] != 1.5 {
		t.Errorf("unexpected metrics: %v", outcome.Metrics)
	}
	if !strings.Contains(outcome.Result, "alice") {
		t.Errorf("alice should win the round, result: %s", outcome.Result)
	}
	if outcome.Scores["u1"] != 1 || outcome.Scores["u2"] != 0 {
		t.Errorf("unexpected scores: %v", outcome.Scores)
	}
	if outcome.Finished {
		t.Error("duel should not be finished after one round")
	}

	// Hands deplete by the played card, round advances, plays clear.
	if outcome.NextRound != 2 || r.Round() != 2 {
		t.Errorf("expected round 2, got %d", r.Round())
	}
	if len(outcome.Hands[0]) != 2 || len(outcome.Hands[1]) != 2 {
		t.Errorf("hands should hold 2 cards, got %d and %d", len(outcome.Hands[0]), len(outcome.Hands[1]))
	}
	if _, ok := r.Players[0].CardInHand("a-0"); ok {
		t.Error("played card should have left alice's hand")
	}
	if r.StateID() != state.StateAwaitingPlays {
		t.Errorf("expected awaiting_plays state, got %s", r.StateID())
	}
}

func TestRoom_UnparsableKDACountsAsZero(t *testing.T) {
	r := newDuelRoom([]string{"garbage", "2.0", "1.0"}, []string{"0.5", "2.5", "0.5"})

	r.CommitPlay("s1", "a-0") // unparsable -> 0
	outcome, _ := r.CommitPlay("s2", "b-0")

	if outcome.Metrics[0] != 0 {
		t.Errorf("unparsable KDA should score 0, got %f", outcome.Metrics[0])
	}
	if outcome.Scores["u2"] != 1 {
		t.Errorf("bob should take the round, scores: %v", outcome.Scores)
	}
}

func TestRoom_ScoreThresholdEndsDuel(t *testing.T) {
	r := newDuelRoom([]string{"5.0", "5.0", "5.0"}, []string{"1.0", "1.0", "1.0"})

	r.CommitPlay("s1", "a-0")
	if outcome, _ := r.CommitPlay("s2", "b-0"); outcome.Finished {
		t.Fatal("duel must not finish at score 1")
	}

	r.CommitPlay("s1", "a-1")
	outcome, _ := r.CommitPlay("s2", "b-1")
	if !outcome.Finished {
		t.Fatal("reaching score 2 must terminate the duel")
	}
	if outcome.Winner == nil || outcome.Winner.UserID != "u1" {
		t.Errorf("alice should win the duel, got %+v", outcome.Winner)
	}
	if outcome.Rounds != 2 {
		t.Errorf("expected 2 settled rounds, got %d", outcome.Rounds)
	}
	if r.StateID() != state.StateFinished {
		t.Errorf("expected finished state, got %s", r.StateID())
	}

	if _, err := r.CommitPlay("s1", "a-2"); err != ErrDuelFinished {
		t.Errorf("expected ErrDuelFinished, got %v", err)
	}
}

func TestRoom_RoundLimitDraw(t *testing.T) {
	r := newDuelRoom([]string{"2.0", "2.0", "2.0"}, []string{"2.0", "2.0", "2.0"})

	for i := 0; i < 3; i++ {
		r.CommitPlay("s1", fmt.Sprintf("a-%d", i))
		outcome, err := r.CommitPlay("s2", fmt.Sprintf("b-%d", i))
		if err != nil {
			t.Fatalf("round %d failed: %v", i+1, err)
		}
		if i < 2 && outcome.Finished {
			t.Fatalf("duel finished early at round %d", i+1)
		}
		if i == 2 {
			if !outcome.Finished {
				t.Fatal("duel must terminate at the round limit")
			}
			if outcome.Winner != nil {
				t.Errorf("equal scores should draw, got winner %s", outcome.Winner.Username)
			}
			if outcome.Rounds != 3 {
				t.Errorf("expected 3 settled rounds, got %d", outcome.Rounds)
			}
		}
	}
}

func TestRoom_RoundLimitWithLeader(t *testing.T) {
	// alice takes round 1, rounds 2 and 3 draw: 1-0 at the limit.
	r := newDuelRoom([]string{"9.0", "2.0", "2.0"}, []string{"1.0", "2.0", "2.0"})

	for i := 0; i < 3; i++ {
		r.CommitPlay("s1", fmt.Sprintf("a-%d", i))
		outcome, _ := r.CommitPlay("s2", fmt.Sprintf("b-%d", i))
		if i == 2 {
			if !outcome.Finished {
				t.Fatal("duel must terminate at the round limit")
			}
			if outcome.Winner == nil || outcome.Winner.UserID != "u1" {
				t.Errorf("alice leads 1-0 and should win, got %+v", outcome.Winner)
			}
		}
	}
}

func TestRoom_ForfeitWithLeaderAwardsWin(t *testing.T) {
	r := newDuelRoom([]string{"5.0", "5.0", "5.0"}, []string{"1.0", "1.0", "1.0"})

	// alice takes round 1, then bob disconnects.
	r.CommitPlay("s1", "a-0")
	r.CommitPlay("s2", "b-0")

	outcome, err := r.Forfeit("s2")
	if err != nil {
		t.Fatalf("Forfeit failed: %v", err)
	}
	if outcome.Winner == nil || outcome.Winner.UserID != "u1" {
		t.Errorf("alice leads and should win the forfeit, got %+v", outcome.Winner)
	}
	if outcome.Remaining.UserID != "u1" || outcome.Disconnected.UserID != "u2" {
		t.Error("remaining/disconnected sides are swapped")
	}

	if _, err := r.Forfeit("s1"); err != ErrDuelFinished {
		t.Errorf("second forfeit should fail, got %v", err)
	}
}

func TestRoom_ForfeitWithEqualScoresDraws(t *testing.T) {
	r := newDuelRoom([]string{"5.0", "5.0", "5.0"}, []string{"1.0", "1.0", "1.0"})

	outcome, err := r.Forfeit("s2")
	if err != nil {
		t.Fatalf("Forfeit failed: %v", err)
	}
	if outcome.Winner != nil {
		t.Errorf("0-0 forfeit should draw, got winner %s", outcome.Winner.Username)
	}
}

func TestRoom_ConcurrentCommitsSettleOnce(t *testing.T) {
	r := newDuelRoom([]string{"3.0", "2.0", "1.0"}, []string{"1.5", "2.5", "0.5"})

	var wg sync.WaitGroup
	outcomes := make([]*RoundOutcome, 2)
	errs := make([]error, 2)

	wg.Add(2)
	go func() {
		defer wg.Done()
		outcomes[0], errs[0] = r.CommitPlay("s1", "a-0")
	}()
	go func() {
		defer wg.Done()
		outcomes[1], errs[1] = r.CommitPlay("s2", "b-0")
	}()
	wg.Wait()

	if errs[0] != nil || errs[1] != nil {
		t.Fatalf("commits failed: %v, %v", errs[0], errs[1])
	}

	settled := 0
	for _, o := range outcomes {
		if o != nil {
			settled++
		}
	}
	if settled != 1 {
		t.Fatalf("exactly one commit must observe the settlement, got %d", settled)
	}
	if got := r.Scores()["u1"]; got != 1 {
		t.Errorf("score must apply exactly once, got %d", got)
	}
}
