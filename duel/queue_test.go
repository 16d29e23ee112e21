package duel

import (
	"testing"
)

// fakeRoomIndex is a test double for the RoomIndex interface.
type fakeRoomIndex struct {
	participants map[string]bool
}

func (f *fakeRoomIndex) HasParticipant(userID string) bool {
	return f.participants[userID]
}

func TestQueue_JoinPairsFIFO(t *testing.T) {
	q := NewQueue(nil)

	a := newTestPlayer("s1", "u1", "alice")
	b := newTestPlayer("s2", "u2", "bob")
	c := newTestPlayer("s3", "u3", "carol")
	d := newTestPlayer("s4", "u4", "dave")

	if _, paired, err := q.Join(a); err != nil || paired {
		t.Fatalf("first join should wait, got paired=%v err=%v", paired, err)
	}

	pair, paired, err := q.Join(b)
	if err != nil || !paired {
		t.Fatalf("second join should pair, got paired=%v err=%v", paired, err)
	}
	if pair[0] != a || pair[1] != b {
		t.Errorf("expected pair (alice, bob), got (%s, %s)", pair[0].Username, pair[1].Username)
	}

	if _, paired, _ := q.Join(c); paired {
		t.Fatal("third join should wait")
	}
	pair, paired, _ = q.Join(d)
	if !paired || pair[0] != c || pair[1] != d {
		t.Errorf("expected pair (carol, dave), got paired=%v", paired)
	}

	if q.Len() != 0 {
		t.Errorf("expected empty queue, got %d entries", q.Len())
	}
}

func TestQueue_JoinDuplicateUser(t *testing.T) {
	q := NewQueue(nil)

	if _, _, err := q.Join(newTestPlayer("s1", "u1", "alice")); err != nil {
		t.Fatalf("first join failed: %v", err)
	}

	_, _, err := q.Join(newTestPlayer("s2", "u1", "alice"))
	if err != ErrAlreadyQueued {
		t.Errorf("expected ErrAlreadyQueued, got %v", err)
	}
	if q.Len() != 1 {
		t.Errorf("duplicate join must not grow the queue, got %d entries", q.Len())
	}
}

func TestQueue_JoinWhileInMatch(t *testing.T) {
	rooms := &fakeRoomIndex{participants: map[string]bool{"u1": true}}
	q := NewQueue(rooms)

	_, _, err := q.Join(newTestPlayer("s1", "u1", "alice"))
	if err != ErrAlreadyInMatch {
		t.Errorf("expected ErrAlreadyInMatch, got %v", err)
	}
	if q.Len() != 0 {
		t.Errorf("rejected join must not grow the queue, got %d entries", q.Len())
	}
}

func TestQueue_LeaveIsIdempotent(t *testing.T) {
	q := NewQueue(nil)
	q.Join(newTestPlayer("s1", "u1", "alice"))

	q.Leave("u1")
	if q.Contains("u1") {
		t.Error("alice should have left the queue")
	}

	// Leaving again, or leaving an unknown user, is a no-op.
	q.Leave("u1")
	q.Leave("unknown")
	if q.Len() != 0 {
		t.Errorf("expected empty queue, got %d entries", q.Len())
	}
}

func TestQueue_LeaveBySession(t *testing.T) {
	q := NewQueue(nil)
	q.Join(newTestPlayer("s1", "u1", "alice"))

	q.LeaveBySession("s1")
	if q.Len() != 0 {
		t.Errorf("expected empty queue, got %d entries", q.Len())
	}
}

func TestQueue_RequeuePutsPlayerAtHead(t *testing.T) {
	q := NewQueue(nil)
	q.Join(newTestPlayer("s1", "u1", "alice"))

	q.Requeue(newTestPlayer("s2", "u2", "bob"))

	pair, paired, err := q.Join(newTestPlayer("s3", "u3", "carol"))
	if err != nil || !paired {
		t.Fatalf("third join should pair, got paired=%v err=%v", paired, err)
	}
	if pair[0].UserID != "u2" || pair[1].UserID != "u1" {
		t.Errorf("requeued player should pair first, got (%s, %s)", pair[0].UserID, pair[1].UserID)
	}
}
