// state/interfaces.go
package state

// DuelContext defines the interface a duel room must implement to be
// driven by the state machine. This breaks the import cycle between
// duel and state.
type DuelContext interface {
	GetID() string
	ChangeState(newState State) error
}
