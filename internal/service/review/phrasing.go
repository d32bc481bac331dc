package review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/concordsrs/concord-api/internal/domain"
	"github.com/concordsrs/concord-api/internal/platform/logger"
	"github.com/concordsrs/concord-api/internal/store"
)

// PhrasingService manages the textual renderings of concepts.
type PhrasingService interface {
	// CreatePhrasing adds a phrasing to a concept the user owns and bumps
	// the concept's active-phrasing counter, atomically.
	CreatePhrasing(
		ctx context.Context,
		userID, conceptID uuid.UUID,
		text string,
		options []string,
	) (*domain.Phrasing, error)

	// ListPhrasings returns the concept's phrasings, oldest first. Archived
	// phrasings are excluded unless includeArchived is set.
	ListPhrasings(
		ctx context.Context,
		userID, conceptID uuid.UUID,
		includeArchived bool,
	) ([]*domain.Phrasing, error)

	// SetCanonical marks a phrasing canonical, atomically clearing the
	// previous canonical flag on the same concept.
	SetCanonical(ctx context.Context, userID, phrasingID uuid.UUID) error

	// ArchivePhrasing excludes a phrasing from active review and decrements
	// the concept's active-phrasing counter. Archiving is idempotent.
	ArchivePhrasing(ctx context.Context, userID, phrasingID uuid.UUID) error

	// ShuffledOptions returns the phrasing's answer options in the
	// deterministic per-user order produced by ShuffleOptions.
	ShuffledOptions(ctx context.Context, userID, phrasingID uuid.UUID) ([]string, error)
}

// Verify interface compliance at compile time
var _ PhrasingService = (*phrasingServiceImpl)(nil)

type phrasingServiceImpl struct {
	tx        store.Transactor
	concepts  store.ConceptStore
	phrasings store.PhrasingStore
	logger    *slog.Logger
}

// NewPhrasingService creates a PhrasingService backed by the given stores.
func NewPhrasingService(
	tx store.Transactor,
	concepts store.ConceptStore,
	phrasings store.PhrasingStore,
	logger *slog.Logger,
) PhrasingService {
	if tx == nil {
		panic("transactor cannot be nil")
	}
	if concepts == nil {
		panic("concepts store cannot be nil")
	}
	if phrasings == nil {
		panic("phrasings store cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &phrasingServiceImpl{
		tx:        tx,
		concepts:  concepts,
		phrasings: phrasings,
		logger:    logger.With(slog.String("component", "phrasing_service")),
	}
}

// CreatePhrasing implements PhrasingService.CreatePhrasing.
func (s *phrasingServiceImpl) CreatePhrasing(
	ctx context.Context,
	userID, conceptID uuid.UUID,
	text string,
	options []string,
) (*domain.Phrasing, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	phrasing, err := domain.NewPhrasing(conceptID, text, options)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	err = s.tx.Transact(ctx, func(ctx context.Context, tx *sql.Tx) error {
		concepts := s.concepts.WithTx(tx)

		concept, err := concepts.GetForUpdate(ctx, conceptID)
		if err != nil {
			if store.IsNotFoundError(err) {
				return ErrConceptNotFound
			}
			return fmt.Errorf("failed to load concept: %w", err)
		}
		if concept.UserID != userID {
			return ErrConceptNotFound
		}

		if err := s.phrasings.WithTx(tx).Create(ctx, phrasing); err != nil {
			return fmt.Errorf("failed to create phrasing: %w", err)
		}

		return concepts.IncrementPhrasingCount(ctx, conceptID, 1)
	})

	if err != nil {
		if errors.Is(err, ErrConceptNotFound) {
			return nil, ErrConceptNotFound
		}
		log.Error("failed to create phrasing",
			slog.String("error", err.Error()),
			slog.String("concept_id", conceptID.String()))
		return nil, err
	}

	return phrasing, nil
}

// ListPhrasings implements PhrasingService.ListPhrasings.
func (s *phrasingServiceImpl) ListPhrasings(
	ctx context.Context,
	userID, conceptID uuid.UUID,
	includeArchived bool,
) ([]*domain.Phrasing, error) {
	if _, err := s.loadOwnedConcept(ctx, userID, conceptID); err != nil {
		return nil, err
	}

	phrasings, err := s.phrasings.ListByConcept(ctx, conceptID, includeArchived)
	if err != nil {
		return nil, fmt.Errorf("failed to list phrasings: %w", err)
	}

	return phrasings, nil
}

// SetCanonical implements PhrasingService.SetCanonical.
func (s *phrasingServiceImpl) SetCanonical(
	ctx context.Context,
	userID, phrasingID uuid.UUID,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	err := s.tx.Transact(ctx, func(ctx context.Context, tx *sql.Tx) error {
		phrasings := s.phrasings.WithTx(tx)

		phrasing, err := s.loadOwnedPhrasing(ctx, s.concepts.WithTx(tx), phrasings, userID, phrasingID)
		if err != nil {
			return err
		}
		if phrasing.Archived {
			return fmt.Errorf("%w: archived phrasing cannot be canonical", store.ErrInvalidEntity)
		}

		return phrasings.SetCanonical(ctx, phrasingID)
	})

	if err != nil {
		if errors.Is(err, ErrPhrasingNotFound) || errors.Is(err, store.ErrInvalidEntity) {
			return err
		}
		log.Error("failed to set canonical phrasing",
			slog.String("error", err.Error()),
			slog.String("phrasing_id", phrasingID.String()))
		return err
	}

	return nil
}

// ArchivePhrasing implements PhrasingService.ArchivePhrasing.
func (s *phrasingServiceImpl) ArchivePhrasing(
	ctx context.Context,
	userID, phrasingID uuid.UUID,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	err := s.tx.Transact(ctx, func(ctx context.Context, tx *sql.Tx) error {
		concepts := s.concepts.WithTx(tx)
		phrasings := s.phrasings.WithTx(tx)

		phrasing, err := s.loadOwnedPhrasing(ctx, concepts, phrasings, userID, phrasingID)
		if err != nil {
			return err
		}
		if phrasing.Archived {
			// Already archived; the counter was adjusted the first time.
			return nil
		}

		if err := phrasings.Archive(ctx, phrasingID); err != nil {
			return fmt.Errorf("failed to archive phrasing: %w", err)
		}

		return concepts.IncrementPhrasingCount(ctx, phrasing.ConceptID, -1)
	})

	if err != nil {
		if errors.Is(err, ErrPhrasingNotFound) {
			return err
		}
		log.Error("failed to archive phrasing",
			slog.String("error", err.Error()),
			slog.String("phrasing_id", phrasingID.String()))
		return err
	}

	return nil
}

// ShuffledOptions implements PhrasingService.ShuffledOptions.
func (s *phrasingServiceImpl) ShuffledOptions(
	ctx context.Context,
	userID, phrasingID uuid.UUID,
) ([]string, error) {
	phrasing, err := s.loadOwnedPhrasing(ctx, s.concepts, s.phrasings, userID, phrasingID)
	if err != nil {
		return nil, err
	}

	return ShuffleOptions(phrasing.ID, &userID, phrasing.Options), nil
}

// loadOwnedConcept fetches a concept and verifies ownership, mapping both
// "missing" and "not owned" to ErrConceptNotFound.
func (s *phrasingServiceImpl) loadOwnedConcept(
	ctx context.Context,
	userID, conceptID uuid.UUID,
) (*domain.Concept, error) {
	concept, err := s.concepts.GetByID(ctx, conceptID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrConceptNotFound
		}
		return nil, fmt.Errorf("failed to load concept: %w", err)
	}
	if concept.UserID != userID {
		return nil, ErrConceptNotFound
	}
	return concept, nil
}

// loadOwnedPhrasing fetches a phrasing and verifies the user owns its
// concept, mapping missing/unowned to ErrPhrasingNotFound.
func (s *phrasingServiceImpl) loadOwnedPhrasing(
	ctx context.Context,
	concepts store.ConceptStore,
	phrasings store.PhrasingStore,
	userID, phrasingID uuid.UUID,
) (*domain.Phrasing, error) {
	phrasing, err := phrasings.GetByID(ctx, phrasingID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrPhrasingNotFound
		}
		return nil, fmt.Errorf("failed to load phrasing: %w", err)
	}

	concept, err := concepts.GetByID(ctx, phrasing.ConceptID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrPhrasingNotFound
		}
		return nil, fmt.Errorf("failed to load concept: %w", err)
	}
	if concept.UserID != userID {
		return nil, ErrPhrasingNotFound
	}

	return phrasing, nil
}
