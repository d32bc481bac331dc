package fsrs

import (
	"errors"
	"time"
)

// Common errors
var (
	ErrInvalidDays    = errors.New("postpone days must be at least 1")
	ErrNeverScheduled = errors.New("card has never been scheduled")
)

// DBFields is the subset of a scheduling result that callers persist on the
// concept row alongside the full card state.
type DBFields struct {
	State         State
	NextReview    time.Time
	ScheduledDays float64
}

// Result is the outcome of grading one card once.
type Result struct {
	Card     CardState
	DBFields DBFields
}

// Scheduler computes review schedules. Implementations must be pure: the same
// card, grade and clock reading always produce the same result, which makes
// retried recordings safe and the whole machine testable.
type Scheduler interface {
	// ScheduleNextReview grades a card and returns its next scheduling state.
	// Returns ErrInvalidCardState if the input card violates the model
	// invariants; such a card must not be persisted.
	ScheduleNextReview(card CardState, correct bool, now time.Time) (Result, error)

	// Postpone pushes a scheduled card's next review forward by whole days
	// without touching its memory state.
	Postpone(card CardState, days int, now time.Time) (CardState, error)
}

type defaultScheduler struct {
	params *Params
}

// NewDefaultScheduler returns a Scheduler with default parameters.
func NewDefaultScheduler() Scheduler {
	return &defaultScheduler{params: NewDefaultParams()}
}

// NewScheduler returns a Scheduler with the given parameters.
func NewScheduler(params *Params) Scheduler {
	return &defaultScheduler{params: params}
}

func (s *defaultScheduler) ScheduleNextReview(
	card CardState,
	correct bool,
	now time.Time,
) (Result, error) {
	if err := card.Validate(); err != nil {
		return Result{}, err
	}

	grade := ratingAgain
	if correct {
		grade = ratingGood
	}

	next, scheduledDays := nextState(card, grade, now, s.params)

	return Result{
		Card: next,
		DBFields: DBFields{
			State:         next.State,
			NextReview:    *next.NextReview,
			ScheduledDays: scheduledDays,
		},
	}, nil
}

func (s *defaultScheduler) Postpone(
	card CardState,
	days int,
	now time.Time,
) (CardState, error) {
	if err := card.Validate(); err != nil {
		return CardState{}, err
	}
	if days < 1 {
		return CardState{}, ErrInvalidDays
	}
	if card.NextReview == nil {
		return CardState{}, ErrNeverScheduled
	}

	next := card
	postponed := card.NextReview.AddDate(0, 0, days)
	next.NextReview = &postponed
	return next, nil
}
