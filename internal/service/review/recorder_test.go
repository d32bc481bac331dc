package review

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/concordsrs/concord-api/internal/domain"
	"github.com/concordsrs/concord-api/internal/domain/fsrs"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testNow() time.Time {
	return time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
}

// seedConcept stores a fresh never-reviewed concept and returns it.
func seedConcept(t *testing.T, concepts *memConceptStore, userID uuid.UUID) *domain.Concept {
	t.Helper()
	concept, err := domain.NewConcept(userID, "Photosynthesis", "How plants make energy")
	require.NoError(t, err)
	concepts.put(concept)
	return concept
}

// seedReviewConcept stores a concept already graduated to the review state.
func seedReviewConcept(t *testing.T, concepts *memConceptStore, userID uuid.UUID) *domain.Concept {
	t.Helper()
	concept, err := domain.NewConcept(userID, "Mitosis", "")
	require.NoError(t, err)

	lastReviewed := testNow().AddDate(0, 0, -10)
	nextReview := testNow().AddDate(0, 0, -1)
	concept.Scheduling = fsrs.CardState{
		State:        fsrs.StateReview,
		Stability:    10,
		Difficulty:   5,
		Reps:         4,
		Lapses:       0,
		NextReview:   &nextReview,
		LastReviewed: &lastReviewed,
	}
	concepts.put(concept)
	return concept
}

func newTestRecorder(concepts *memConceptStore, interactions *memInteractionStore) Recorder {
	return NewRecorder(
		&memTransactor{},
		concepts,
		interactions,
		fsrs.NewDefaultScheduler(),
		fixedClock{now: testNow()},
		testLogger(),
	)
}

func TestRecordInteractionCorrect(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	concepts := newMemConceptStore()
	interactions := newMemInteractionStore()
	concept := seedConcept(t, concepts, userID)

	recorder := newTestRecorder(concepts, interactions)

	result, err := recorder.RecordInteraction(context.Background(), userID, RecordRequest{
		ConceptID:  concept.ID,
		UserAnswer: "Chlorophyll absorbs light",
		IsCorrect:  true,
	})
	require.NoError(t, err)

	assert.Equal(t, fsrs.StateLearning, result.NewState)
	assert.True(t, result.NextReview.After(testNow()))

	stored, err := concepts.GetByID(context.Background(), concept.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.AttemptCount)
	assert.Equal(t, 1, stored.CorrectCount)
	assert.Equal(t, fsrs.StateLearning, stored.Scheduling.State)
	require.NotNil(t, stored.Scheduling.NextReview)
	assert.True(t, stored.Scheduling.NextReview.Equal(result.NextReview))

	recorded := interactions.all()
	require.Len(t, recorded, 1)
	assert.Equal(t, concept.ID, recorded[0].ConceptID)
	assert.Equal(t, userID, recorded[0].UserID)
	assert.True(t, recorded[0].IsCorrect)
	// The interaction snapshots the scheduling outcome that created it.
	assert.Equal(t, result.NewState, recorded[0].Context.FSRSState)
	assert.True(t, recorded[0].Context.NextReview.Equal(result.NextReview))
	assert.Equal(t, result.ScheduledDays, recorded[0].Context.ScheduledDays)
}

func TestRecordInteractionIncorrectBumpsOnlyAttempts(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	concepts := newMemConceptStore()
	interactions := newMemInteractionStore()
	concept := seedConcept(t, concepts, userID)

	recorder := newTestRecorder(concepts, interactions)

	_, err := recorder.RecordInteraction(context.Background(), userID, RecordRequest{
		ConceptID:  concept.ID,
		UserAnswer: "wrong",
		IsCorrect:  false,
	})
	require.NoError(t, err)

	stored, err := concepts.GetByID(context.Background(), concept.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.AttemptCount)
	assert.Equal(t, 0, stored.CorrectCount)
}

func TestRecordInteractionUnknownConcept(t *testing.T) {
	t.Parallel()

	concepts := newMemConceptStore()
	interactions := newMemInteractionStore()
	recorder := newTestRecorder(concepts, interactions)

	_, err := recorder.RecordInteraction(context.Background(), uuid.New(), RecordRequest{
		ConceptID: uuid.New(),
		IsCorrect: true,
	})
	assert.ErrorIs(t, err, ErrConceptNotFound)
	assert.Empty(t, interactions.all())
}

func TestRecordInteractionNotOwnedConcept(t *testing.T) {
	t.Parallel()

	owner := uuid.New()
	concepts := newMemConceptStore()
	interactions := newMemInteractionStore()
	concept := seedConcept(t, concepts, owner)

	recorder := newTestRecorder(concepts, interactions)

	// Another user's concept must be indistinguishable from a missing one.
	_, err := recorder.RecordInteraction(context.Background(), uuid.New(), RecordRequest{
		ConceptID: concept.ID,
		IsCorrect: true,
	})
	assert.ErrorIs(t, err, ErrConceptNotFound)
	assert.Empty(t, interactions.all())

	stored, err := concepts.GetByID(context.Background(), concept.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.AttemptCount)
}

func TestRecordInteractionConcurrent(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	concepts := newMemConceptStore()
	interactions := newMemInteractionStore()
	concept := seedConcept(t, concepts, userID)

	recorder := newTestRecorder(concepts, interactions)

	const workers = 8
	var g errgroup.Group
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			_, err := recorder.RecordInteraction(context.Background(), userID, RecordRequest{
				ConceptID: concept.ID,
				IsCorrect: true,
			})
			return err
		})
	}
	require.NoError(t, g.Wait())

	// Every recording lands: one attempt and one interaction each.
	stored, err := concepts.GetByID(context.Background(), concept.ID)
	require.NoError(t, err)
	assert.Equal(t, workers, stored.AttemptCount)
	assert.Equal(t, workers, stored.CorrectCount)
	assert.Len(t, interactions.all(), workers)
}

func TestRecordInteractionApplyFailureAppendsNothing(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	concepts := newMemConceptStore()
	concepts.applyReviewErr = errors.New("connection reset")
	interactions := newMemInteractionStore()
	concept := seedConcept(t, concepts, userID)

	recorder := newTestRecorder(concepts, interactions)

	_, err := recorder.RecordInteraction(context.Background(), userID, RecordRequest{
		ConceptID: concept.ID,
		IsCorrect: true,
	})
	require.Error(t, err)
	assert.Empty(t, interactions.all())
}

func TestPostpone(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	concepts := newMemConceptStore()
	interactions := newMemInteractionStore()
	concept := seedReviewConcept(t, concepts, userID)
	originalNext := *concept.Scheduling.NextReview

	recorder := newTestRecorder(concepts, interactions)

	result, err := recorder.Postpone(context.Background(), userID, concept.ID, 3)
	require.NoError(t, err)

	assert.True(t, result.NextReview.Equal(originalNext.AddDate(0, 0, 3)))
	assert.Equal(t, fsrs.StateReview, result.NewState)

	// Memory state is untouched; only the due date moves.
	stored, err := concepts.GetByID(context.Background(), concept.ID)
	require.NoError(t, err)
	assert.Equal(t, concept.Scheduling.Stability, stored.Scheduling.Stability)
	assert.Equal(t, concept.Scheduling.Difficulty, stored.Scheduling.Difficulty)
	assert.Equal(t, concept.Scheduling.Reps, stored.Scheduling.Reps)
	require.NotNil(t, stored.Scheduling.NextReview)
	assert.True(t, stored.Scheduling.NextReview.Equal(result.NextReview))

	// Postponing records no interaction.
	assert.Empty(t, interactions.all())
}

func TestPostponeValidation(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	concepts := newMemConceptStore()
	interactions := newMemInteractionStore()
	scheduled := seedReviewConcept(t, concepts, userID)
	unscheduled := seedConcept(t, concepts, userID)

	recorder := newTestRecorder(concepts, interactions)

	t.Run("rejects zero days", func(t *testing.T) {
		_, err := recorder.Postpone(context.Background(), userID, scheduled.ID, 0)
		assert.ErrorIs(t, err, ErrInvalidPostpone)
	})

	t.Run("rejects negative days", func(t *testing.T) {
		_, err := recorder.Postpone(context.Background(), userID, scheduled.ID, -2)
		assert.ErrorIs(t, err, ErrInvalidPostpone)
	})

	t.Run("rejects never-scheduled concept", func(t *testing.T) {
		_, err := recorder.Postpone(context.Background(), userID, unscheduled.ID, 1)
		assert.ErrorIs(t, err, ErrInvalidPostpone)
	})

	t.Run("unknown concept maps to not found", func(t *testing.T) {
		_, err := recorder.Postpone(context.Background(), userID, uuid.New(), 1)
		assert.ErrorIs(t, err, ErrConceptNotFound)
	})

	t.Run("unowned concept maps to not found", func(t *testing.T) {
		_, err := recorder.Postpone(context.Background(), uuid.New(), scheduled.ID, 1)
		assert.ErrorIs(t, err, ErrConceptNotFound)
	})
}

func TestNewRecorderPanicsOnNilDeps(t *testing.T) {
	t.Parallel()

	concepts := newMemConceptStore()
	interactions := newMemInteractionStore()

	assert.Panics(t, func() {
		NewRecorder(nil, concepts, interactions, fsrs.NewDefaultScheduler(), nil, nil)
	})
	assert.Panics(t, func() {
		NewRecorder(&memTransactor{}, nil, interactions, fsrs.NewDefaultScheduler(), nil, nil)
	})
	assert.Panics(t, func() {
		NewRecorder(&memTransactor{}, concepts, nil, fsrs.NewDefaultScheduler(), nil, nil)
	})
	assert.Panics(t, func() {
		NewRecorder(&memTransactor{}, concepts, interactions, nil, nil, nil)
	})
}
