package duel

import (
	"testing"
)

func TestStore_CreateAndFind(t *testing.T) {
	s := NewStore()
	p1 := newTestPlayer("s1", "u1", "alice")
	p2 := newTestPlayer("s2", "u2", "bob")

	room := s.Create(p1, p2, DefaultRules)
	if room == nil || room.ID == "" {
		t.Fatal("Create should return a room with a fresh id")
	}

	found, exists := s.Find(room.ID)
	if !exists || found != room {
		t.Fatal("Find should return the created room")
	}

	for _, sessionID := range []string{"s1", "s2"} {
		found, exists = s.FindByConnection(sessionID)
		if !exists || found != room {
			t.Fatalf("FindByConnection(%s) should return the room", sessionID)
		}
	}

	if _, exists := s.FindByConnection("s3"); exists {
		t.Error("unknown connection should resolve to no room")
	}
	if s.Count() != 1 {
		t.Errorf("expected 1 room, got %d", s.Count())
	}
}

func TestStore_RemoveCleansConnectionIndex(t *testing.T) {
	s := NewStore()
	room := s.Create(newTestPlayer("s1", "u1", "alice"), newTestPlayer("s2", "u2", "bob"), DefaultRules)

	s.Remove(room.ID)

	if _, exists := s.Find(room.ID); exists {
		t.Error("room should be gone after Remove")
	}
	if _, exists := s.FindByConnection("s1"); exists {
		t.Error("connection index entry for s1 should be gone")
	}
	if _, exists := s.FindByConnection("s2"); exists {
		t.Error("connection index entry for s2 should be gone")
	}

	// Idempotent removal is tolerated.
	s.Remove(room.ID)
	if s.Count() != 0 {
		t.Errorf("expected empty store, got %d rooms", s.Count())
	}
}

func TestStore_HasParticipant(t *testing.T) {
	s := NewStore()
	room := s.Create(newTestPlayer("s1", "u1", "alice"), newTestPlayer("s2", "u2", "bob"), DefaultRules)

	if !s.HasParticipant("u1") || !s.HasParticipant("u2") {
		t.Error("both participants should be reported as in a duel")
	}
	if s.HasParticipant("u3") {
		t.Error("unknown user should not be reported as in a duel")
	}

	s.Remove(room.ID)
	if s.HasParticipant("u1") {
		t.Error("removed room's participants should be free again")
	}
}

func TestStore_QueueRejectsActiveParticipant(t *testing.T) {
	s := NewStore()
	q := NewQueue(s)

	s.Create(newTestPlayer("s1", "u1", "alice"), newTestPlayer("s2", "u2", "bob"), DefaultRules)

	// u1 is dueling on another connection; a second queue entry would
	// put the same user in the queue and a session at once.
	_, _, err := q.Join(newTestPlayer("s9", "u1", "alice"))
	if err != ErrAlreadyInMatch {
		t.Errorf("expected ErrAlreadyInMatch, got %v", err)
	}
}
