package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/concordsrs/concord-api/internal/domain/fsrs"
)

// Interaction-specific validation errors
var (
	ErrInteractionIDEmpty        = errors.New("interaction ID cannot be empty")
	ErrInteractionConceptIDEmpty = errors.New("interaction concept ID cannot be empty")
	ErrInteractionUserIDEmpty    = errors.New("interaction user ID cannot be empty")
)

// InteractionContext is the snapshot of the scheduling fields produced by the
// grading event that created the interaction. It exists for audit and
// analytics; the scheduler never reads it back.
type InteractionContext struct {
	SessionID     *string    `json:"session_id,omitempty"`
	ScheduledDays float64    `json:"scheduled_days"`
	NextReview    time.Time  `json:"next_review"`
	FSRSState     fsrs.State `json:"fsrs_state"`
}

// Interaction is one immutable, append-only record of a graded attempt.
// Interactions are created exactly once per recorded grading and are never
// mutated or deleted.
type Interaction struct {
	ID          uuid.UUID          `json:"id"`
	ConceptID   uuid.UUID          `json:"concept_id"`
	UserID      uuid.UUID          `json:"user_id"`
	UserAnswer  string             `json:"user_answer"`
	IsCorrect   bool               `json:"is_correct"`
	TimeSpentMs *int               `json:"time_spent_ms,omitempty"`
	SessionID   *string            `json:"session_id,omitempty"`
	Context     InteractionContext `json:"context"`
	CreatedAt   time.Time          `json:"created_at"`
}

// NewInteraction creates an interaction record for one graded attempt.
func NewInteraction(
	conceptID, userID uuid.UUID,
	userAnswer string,
	isCorrect bool,
	timeSpentMs *int,
	sessionID *string,
	context InteractionContext,
) (*Interaction, error) {
	interaction := &Interaction{
		ID:          uuid.New(),
		ConceptID:   conceptID,
		UserID:      userID,
		UserAnswer:  userAnswer,
		IsCorrect:   isCorrect,
		TimeSpentMs: timeSpentMs,
		SessionID:   sessionID,
		Context:     context,
		CreatedAt:   time.Now().UTC(),
	}

	if err := interaction.Validate(); err != nil {
		return nil, err
	}

	return interaction, nil
}

// Validate checks if the Interaction has valid data.
func (i *Interaction) Validate() error {
	if i.ID == uuid.Nil {
		return ErrInteractionIDEmpty
	}

	if i.ConceptID == uuid.Nil {
		return ErrInteractionConceptIDEmpty
	}

	if i.UserID == uuid.Nil {
		return ErrInteractionUserIDEmpty
	}

	return nil
}
