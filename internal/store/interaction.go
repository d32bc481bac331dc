package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/concordsrs/concord-api/internal/domain"
)

// InteractionStore defines the interface for the append-only interaction log.
// There are deliberately no update or delete operations.
type InteractionStore interface {
	// Create appends one interaction record.
	Create(ctx context.Context, interaction *domain.Interaction) error

	// ListByConcept returns a concept's interactions, newest first.
	ListByConcept(ctx context.Context, conceptID uuid.UUID, limit, offset int) ([]*domain.Interaction, error)

	// WithTx returns an InteractionStore bound to the given transaction.
	WithTx(tx *sql.Tx) InteractionStore
}
