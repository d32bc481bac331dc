package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Phrasing-specific validation errors
var (
	// ErrPhrasingIDEmpty is returned when a phrasing ID is empty or nil.
	ErrPhrasingIDEmpty = errors.New("phrasing ID cannot be empty")

	// ErrPhrasingConceptIDEmpty is returned when a phrasing's concept ID is empty or nil.
	ErrPhrasingConceptIDEmpty = errors.New("phrasing concept ID cannot be empty")

	// ErrPhrasingTextEmpty is returned when a phrasing's text is empty.
	ErrPhrasingTextEmpty = errors.New("phrasing text cannot be empty")
)

// Phrasing is one textual rendering of a Concept. At most one phrasing per
// concept is canonical. Archived phrasings are excluded from active review
// but kept for audit; deleting a concept cascades to its phrasings.
type Phrasing struct {
	ID          uuid.UUID `json:"id"`
	ConceptID   uuid.UUID `json:"concept_id"`
	Text        string    `json:"text"`
	Options     []string  `json:"options,omitempty"`
	IsCanonical bool      `json:"is_canonical"`
	Archived    bool      `json:"archived"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewPhrasing creates a new, non-canonical, non-archived phrasing.
func NewPhrasing(conceptID uuid.UUID, text string, options []string) (*Phrasing, error) {
	now := time.Now().UTC()
	phrasing := &Phrasing{
		ID:        uuid.New(),
		ConceptID: conceptID,
		Text:      text,
		Options:   options,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := phrasing.Validate(); err != nil {
		return nil, err
	}

	return phrasing, nil
}

// Validate checks if the Phrasing has valid data.
func (p *Phrasing) Validate() error {
	if p.ID == uuid.Nil {
		return ErrPhrasingIDEmpty
	}

	if p.ConceptID == uuid.Nil {
		return ErrPhrasingConceptIDEmpty
	}

	if p.Text == "" {
		return ErrPhrasingTextEmpty
	}

	return nil
}
