package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/concordsrs/concord-api/internal/domain/fsrs"
)

// Concept-specific validation errors
var (
	// ErrConceptIDEmpty is returned when a concept ID is empty or nil.
	ErrConceptIDEmpty = errors.New("concept ID cannot be empty")

	// ErrConceptUserIDEmpty is returned when a concept's user ID is empty or nil.
	ErrConceptUserIDEmpty = errors.New("concept user ID cannot be empty")

	// ErrConceptTitleEmpty is returned when a concept's title is empty.
	ErrConceptTitleEmpty = errors.New("concept title cannot be empty")

	// ErrConceptCountsInvalid is returned when the attempt/correct counters are
	// negative or inconsistent with each other.
	ErrConceptCountsInvalid = errors.New("concept counters are invalid")
)

// Concept is one reviewable unit of knowledge. The embedded scheduling state
// is owned exclusively by the scheduler/recorder pair; the advisory scores
// are written by external collaborators and are read-only here, used for
// queue filtering and sorting only.
type Concept struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`

	Scheduling fsrs.CardState `json:"scheduling"`

	AttemptCount int `json:"attempt_count"`
	CorrectCount int `json:"correct_count"`

	ConflictScore *float64 `json:"conflict_score,omitempty"`
	ThinScore     *float64 `json:"thin_score,omitempty"`
	QualityScore  *float64 `json:"quality_score,omitempty"`

	PhrasingCount int `json:"phrasing_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewConcept creates a Concept in the never-reviewed state: state new, zero
// counters, no next review.
func NewConcept(userID uuid.UUID, title, description string) (*Concept, error) {
	now := time.Now().UTC()
	concept := &Concept{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       title,
		Description: description,
		Scheduling:  fsrs.NewCardState(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := concept.Validate(); err != nil {
		return nil, err
	}

	return concept, nil
}

// Validate checks if the Concept has valid data.
// Returns an error if any field fails validation.
func (c *Concept) Validate() error {
	if c.ID == uuid.Nil {
		return ErrConceptIDEmpty
	}

	if c.UserID == uuid.Nil {
		return ErrConceptUserIDEmpty
	}

	if c.Title == "" {
		return ErrConceptTitleEmpty
	}

	if c.AttemptCount < 0 || c.CorrectCount < 0 || c.CorrectCount > c.AttemptCount {
		return ErrConceptCountsInvalid
	}

	if c.PhrasingCount < 0 {
		return ErrConceptCountsInvalid
	}

	return c.Scheduling.Validate()
}
