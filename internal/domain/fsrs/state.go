package fsrs

import (
	"errors"
	"math"
	"time"
)

// State identifies where a card sits in the memory-state machine.
type State string

// Possible card states.
const (
	StateNew        State = "new"
	StateLearning   State = "learning"
	StateReview     State = "review"
	StateRelearning State = "relearning"
)

// ErrInvalidCardState is returned when a card's scheduling fields violate the
// model invariants (NaN or negative stability, difficulty outside [1,10],
// negative counters). A card in this condition must not be persisted.
var ErrInvalidCardState = errors.New("invalid card state")

// CardState is the complete scheduling state of a single card. It is a value
// type: the scheduler never mutates its input and never touches storage. The
// caller owns the read-modify-write cycle.
type CardState struct {
	State        State      `json:"state"`
	Stability    float64    `json:"stability"`
	Difficulty   float64    `json:"difficulty"`
	Reps         int        `json:"reps"`
	Lapses       int        `json:"lapses"`
	NextReview   *time.Time `json:"next_review,omitempty"`
	LastReviewed *time.Time `json:"last_reviewed,omitempty"`
}

// NewCardState returns the scheduling state of a card that has never been
// graded: state new, zero stability, default difficulty, no next review.
func NewCardState() CardState {
	return CardState{
		State:      StateNew,
		Stability:  0,
		Difficulty: DefaultDifficulty,
		Reps:       0,
		Lapses:     0,
	}
}

// Validate checks the model invariants. New cards are allowed zero stability;
// every other state requires strictly positive stability.
func (c CardState) Validate() error {
	if math.IsNaN(c.Stability) || math.IsInf(c.Stability, 0) || c.Stability < 0 {
		return ErrInvalidCardState
	}
	if math.IsNaN(c.Difficulty) || c.Difficulty < MinDifficulty || c.Difficulty > MaxDifficulty {
		return ErrInvalidCardState
	}
	if c.State != StateNew && c.Stability == 0 {
		return ErrInvalidCardState
	}
	if c.Reps < 0 || c.Lapses < 0 {
		return ErrInvalidCardState
	}
	switch c.State {
	case StateNew, StateLearning, StateReview, StateRelearning:
		return nil
	default:
		return ErrInvalidCardState
	}
}
