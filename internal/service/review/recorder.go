package review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/concordsrs/concord-api/internal/domain"
	"github.com/concordsrs/concord-api/internal/domain/fsrs"
	"github.com/concordsrs/concord-api/internal/platform/logger"
	"github.com/concordsrs/concord-api/internal/store"
)

// RecordRequest carries one graded attempt to be recorded.
type RecordRequest struct {
	ConceptID   uuid.UUID
	UserAnswer  string
	IsCorrect   bool
	TimeSpentMs *int
	SessionID   *string
}

// RecordResult is the scheduling outcome of one recorded attempt.
type RecordResult struct {
	NextReview    time.Time  `json:"next_review"`
	ScheduledDays float64    `json:"scheduled_days"`
	NewState      fsrs.State `json:"new_state"`
}

// Recorder records graded attempts and adjusts review schedules.
type Recorder interface {
	// RecordInteraction grades one attempt: it reschedules the concept,
	// bumps its counters and appends an interaction record, all in a single
	// transaction. Returns ErrConceptNotFound if the concept does not exist
	// or is not owned by userID.
	//
	// There is no client-side deduplication: a retried request records a
	// second attempt. The concept's scheduling state converges regardless
	// because grading an already-graded card is just another grading.
	RecordInteraction(ctx context.Context, userID uuid.UUID, req RecordRequest) (*RecordResult, error)

	// Postpone pushes a scheduled concept's next review forward by whole
	// days without touching its memory state. Returns ErrConceptNotFound for
	// missing/unowned concepts and ErrInvalidPostpone for days < 1 or
	// never-scheduled concepts.
	Postpone(ctx context.Context, userID, conceptID uuid.UUID, days int) (*RecordResult, error)
}

// Verify interface compliance at compile time
var _ Recorder = (*recorderImpl)(nil)

type recorderImpl struct {
	tx           store.Transactor
	concepts     store.ConceptStore
	interactions store.InteractionStore
	scheduler    fsrs.Scheduler
	clock        Clock
	logger       *slog.Logger
}

// NewRecorder creates a Recorder backed by the given stores and scheduler.
func NewRecorder(
	tx store.Transactor,
	concepts store.ConceptStore,
	interactions store.InteractionStore,
	scheduler fsrs.Scheduler,
	clock Clock,
	logger *slog.Logger,
) Recorder {
	if tx == nil {
		panic("transactor cannot be nil")
	}
	if concepts == nil {
		panic("concepts store cannot be nil")
	}
	if interactions == nil {
		panic("interactions store cannot be nil")
	}
	if scheduler == nil {
		panic("scheduler cannot be nil")
	}
	if clock == nil {
		clock = NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &recorderImpl{
		tx:           tx,
		concepts:     concepts,
		interactions: interactions,
		scheduler:    scheduler,
		clock:        clock,
		logger:       logger.With(slog.String("component", "recorder")),
	}
}

// RecordInteraction implements Recorder.RecordInteraction.
func (r *recorderImpl) RecordInteraction(
	ctx context.Context,
	userID uuid.UUID,
	req RecordRequest,
) (*RecordResult, error) {
	log := logger.FromContextOrDefault(ctx, r.logger)

	log.Debug("recording interaction",
		slog.String("user_id", userID.String()),
		slog.String("concept_id", req.ConceptID.String()),
		slog.Bool("is_correct", req.IsCorrect))

	now := r.clock.Now().UTC()

	var result *RecordResult
	err := r.tx.Transact(ctx, func(ctx context.Context, tx *sql.Tx) error {
		concepts := r.concepts.WithTx(tx)

		// The row lock serializes concurrent recordings for this concept;
		// recordings against other concepts proceed in parallel.
		concept, err := r.loadOwnedForUpdate(ctx, concepts, userID, req.ConceptID)
		if err != nil {
			return err
		}

		scheduled, err := r.scheduler.ScheduleNextReview(concept.Scheduling, req.IsCorrect, now)
		if err != nil {
			log.Error("scheduling failed for stored card state",
				slog.String("error", err.Error()),
				slog.String("concept_id", concept.ID.String()))
			return fmt.Errorf("failed to schedule next review: %w", err)
		}

		if err := concepts.ApplyReview(ctx, store.ReviewPatch{
			ConceptID: concept.ID,
			Card:      scheduled.Card,
			IsCorrect: req.IsCorrect,
			UpdatedAt: now,
		}); err != nil {
			return fmt.Errorf("failed to apply review patch: %w", err)
		}

		interaction, err := domain.NewInteraction(
			concept.ID,
			userID,
			req.UserAnswer,
			req.IsCorrect,
			req.TimeSpentMs,
			req.SessionID,
			domain.InteractionContext{
				SessionID:     req.SessionID,
				ScheduledDays: scheduled.DBFields.ScheduledDays,
				NextReview:    scheduled.DBFields.NextReview,
				FSRSState:     scheduled.DBFields.State,
			},
		)
		if err != nil {
			return fmt.Errorf("failed to build interaction record: %w", err)
		}

		if err := r.interactions.WithTx(tx).Create(ctx, interaction); err != nil {
			return fmt.Errorf("failed to append interaction: %w", err)
		}

		result = &RecordResult{
			NextReview:    scheduled.DBFields.NextReview,
			ScheduledDays: scheduled.DBFields.ScheduledDays,
			NewState:      scheduled.DBFields.State,
		}
		return nil
	})

	if err != nil {
		if errors.Is(err, ErrConceptNotFound) {
			return nil, ErrConceptNotFound
		}
		log.Error("failed to record interaction",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("concept_id", req.ConceptID.String()))
		return nil, err
	}

	log.Info("interaction recorded",
		slog.String("user_id", userID.String()),
		slog.String("concept_id", req.ConceptID.String()),
		slog.Bool("is_correct", req.IsCorrect),
		slog.String("new_state", string(result.NewState)),
		slog.Time("next_review", result.NextReview))

	return result, nil
}

// Postpone implements Recorder.Postpone.
func (r *recorderImpl) Postpone(
	ctx context.Context,
	userID, conceptID uuid.UUID,
	days int,
) (*RecordResult, error) {
	log := logger.FromContextOrDefault(ctx, r.logger)

	now := r.clock.Now().UTC()

	var result *RecordResult
	err := r.tx.Transact(ctx, func(ctx context.Context, tx *sql.Tx) error {
		concepts := r.concepts.WithTx(tx)

		concept, err := r.loadOwnedForUpdate(ctx, concepts, userID, conceptID)
		if err != nil {
			return err
		}

		postponed, err := r.scheduler.Postpone(concept.Scheduling, days, now)
		if err != nil {
			if errors.Is(err, fsrs.ErrInvalidDays) || errors.Is(err, fsrs.ErrNeverScheduled) {
				return fmt.Errorf("%w: %v", ErrInvalidPostpone, err)
			}
			return fmt.Errorf("failed to postpone: %w", err)
		}

		if err := concepts.UpdateScheduling(ctx, concept.ID, postponed); err != nil {
			return fmt.Errorf("failed to update scheduling: %w", err)
		}

		result = &RecordResult{
			NextReview: *postponed.NextReview,
			NewState:   postponed.State,
		}
		return nil
	})

	if err != nil {
		if errors.Is(err, ErrConceptNotFound) || errors.Is(err, ErrInvalidPostpone) {
			return nil, err
		}
		log.Error("failed to postpone concept",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("concept_id", conceptID.String()))
		return nil, err
	}

	log.Info("concept postponed",
		slog.String("user_id", userID.String()),
		slog.String("concept_id", conceptID.String()),
		slog.Int("days", days),
		slog.Time("next_review", result.NextReview))

	return result, nil
}

// loadOwnedForUpdate fetches a concept under a row lock and verifies
// ownership, mapping both "missing" and "not owned" to ErrConceptNotFound.
func (r *recorderImpl) loadOwnedForUpdate(
	ctx context.Context,
	concepts store.ConceptStore,
	userID, conceptID uuid.UUID,
) (*domain.Concept, error) {
	concept, err := concepts.GetForUpdate(ctx, conceptID)
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
