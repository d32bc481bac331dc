package api

import (
	"time"

	"github.com/google/uuid"
)

// Common request/response structures

// RecordInteractionRequest defines the payload for recording a graded attempt.
type RecordInteractionRequest struct {
	ConceptID   uuid.UUID `json:"concept_id"    validate:"required"`
	UserAnswer  string    `json:"user_answer"`
	IsCorrect   bool      `json:"is_correct"`
	TimeSpentMs *int      `json:"time_spent_ms" validate:"omitempty,gte=0"`
	SessionID   *string   `json:"session_id"    validate:"omitempty,max=128"`
}

// RecordInteractionResponse defines the scheduling outcome returned after a
// recorded attempt.
type RecordInteractionResponse struct {
	NextReview    time.Time `json:"next_review"`
	ScheduledDays float64   `json:"scheduled_days"`
	NewState      string    `json:"new_state"`
}

// PostponeRequest defines the payload for postponing a concept's next review.
type PostponeRequest struct {
	Days int `json:"days" validate:"required,gte=1,lte=365"`
}

// CreatePhrasingRequest defines the payload for adding a phrasing.
type CreatePhrasingRequest struct {
	Text    string   `json:"text"    validate:"required,max=10000"`
	Options []string `json:"options" validate:"omitempty,dive,max=1000"`
}

// OptionsResponse carries a phrasing's answer options in the caller's
// deterministic shuffled order.
type OptionsResponse struct {
	PhrasingID uuid.UUID `json:"phrasing_id"`
	Options    []string  `json:"options"`
}
