// duel/dealer.go
package duel

import (
	"errors"
	"math/rand"
	"sync"

	"github.com/wfunc/duelserver/models"
)

// ErrInsufficientDeck is returned when a deck does not hold enough
// qualifying cards to enter a duel.
var ErrInsufficientDeck = errors.New("insufficient deck")

// Dealer samples round hands from a player's deck. The randomness
// source is injected so tests can seed it; it must never be derived
// from client-observable state.
type Dealer struct {
	minDeckSize int
	handSize    int
	rng         *rand.Rand
	mutex       sync.Mutex
}

func NewDealer(minDeckSize, handSize int, source rand.Source) *Dealer {
	return &Dealer{
		minDeckSize: minDeckSize,
		handSize:    handSize,
		rng:         rand.New(source),
	}
}

// Deal draws a uniform sample of handSize cards without replacement.
// The input deck is not modified.
func (d *Dealer) Deal(deck []models.Card) ([]models.Card, error) {
	if len(deck) < d.minDeckSize {
		return nil, ErrInsufficientDeck
	}

	d.mutex.Lock()
	perm := d.rng.Perm(len(deck))
	d.mutex.Unlock()

	hand := make([]models.Card, 0, d.handSize)
	for _, idx := range perm[:d.handSize] {
		hand = append(hand, deck[idx])
	}
	return hand, nil
}
