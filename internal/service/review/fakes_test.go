package review

import (
	"bytes"
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/concordsrs/concord-api/internal/domain"
	"github.com/concordsrs/concord-api/internal/domain/fsrs"
	"github.com/concordsrs/concord-api/internal/store"
)

// fixedClock returns the same instant on every call.
type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

// memTransactor emulates serializable transactions over the in-memory fakes:
// one big lock instead of row locks, which is strictly stronger.
type memTransactor struct {
	mu sync.Mutex
}

func (t *memTransactor) Transact(ctx context.Context, fn store.TxFn) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx, nil)
}

// memConceptStore is an in-memory store.ConceptStore. ListPage mirrors the
// SQL keyset predicates so pagination behavior can be tested without a
// database.
type memConceptStore struct {
	mu       sync.Mutex
	concepts map[uuid.UUID]*domain.Concept

	applyReviewErr error
	listPageErr    error
}

func newMemConceptStore() *memConceptStore {
	return &memConceptStore{concepts: make(map[uuid.UUID]*domain.Concept)}
}

func (s *memConceptStore) put(concept *domain.Concept) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *concept
	s.concepts[c.ID] = &c
}

func (s *memConceptStore) Create(ctx context.Context, concept *domain.Concept) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.concepts[concept.ID]; ok {
		return store.ErrDuplicate
	}
	c := *concept
	s.concepts[c.ID] = &c
	return nil
}

func (s *memConceptStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Concept, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	concept, ok := s.concepts[id]
	if !ok {
		return nil, store.ErrConceptNotFound
	}
	c := *concept
	return &c, nil
}

func (s *memConceptStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Concept, error) {
	return s.GetByID(ctx, id)
}

func (s *memConceptStore) ApplyReview(ctx context.Context, patch store.ReviewPatch) error {
	if s.applyReviewErr != nil {
		return s.applyReviewErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	concept, ok := s.concepts[patch.ConceptID]
	if !ok {
		return store.ErrConceptNotFound
	}
	concept.Scheduling = patch.Card
	concept.AttemptCount++
	if patch.IsCorrect {
		concept.CorrectCount++
	}
	concept.UpdatedAt = patch.UpdatedAt
	return nil
}

func (s *memConceptStore) UpdateScheduling(ctx context.Context, id uuid.UUID, card fsrs.CardState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	concept, ok := s.concepts[id]
	if !ok {
		return store.ErrConceptNotFound
	}
	concept.Scheduling = card
	concept.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *memConceptStore) IncrementPhrasingCount(ctx context.Context, id uuid.UUID, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	concept, ok := s.concepts[id]
	if !ok {
		return store.ErrConceptNotFound
	}
	concept.PhrasingCount += delta
	if concept.PhrasingCount < 0 {
		concept.PhrasingCount = 0
	}
	return nil
}

func (s *memConceptStore) ListPage(ctx context.Context, query store.QueueQuery) ([]*domain.Concept, error) {
	if s.listPageErr != nil {
		return nil, s.listPageErr
	}
	if err := query.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*domain.Concept
	for _, concept := range s.concepts {
		if concept.UserID != query.UserID {
			continue
		}
		if !matchesQuery(concept, query) {
			continue
		}
		if query.After != nil && !afterKey(concept, query) {
			continue
		}
		c := *concept
		matched = append(matched, &c)
	}

	sort.Slice(matched, func(i, j int) bool {
		return lessInSort(matched[i], matched[j], query.Sort)
	})

	if len(matched) > query.Limit {
		matched = matched[:query.Limit]
	}
	if matched == nil {
		matched = []*domain.Concept{}
	}
	return matched, nil
}

func matchesQuery(concept *domain.Concept, query store.QueueQuery) bool {
	if query.Mode == store.QueueModeSearch {
		needle := strings.ToLower(query.Search)
		return strings.Contains(strings.ToLower(concept.Title), needle) ||
			strings.Contains(strings.ToLower(concept.Description), needle)
	}
	switch query.View {
	case store.QueueViewDue:
		nr := concept.Scheduling.NextReview
		return nr != nil && !nr.After(query.DueBefore)
	case store.QueueViewThin:
		return concept.ThinScore != nil && *concept.ThinScore >= query.ThinThreshold
	case store.QueueViewConflict:
		return concept.ConflictScore != nil && *concept.ConflictScore >= query.ConflictThreshold
	default:
		return true
	}
}

// afterKey applies the keyset continuation predicate of the sort.
func afterKey(concept *domain.Concept, query store.QueueQuery) bool {
	after := query.After
	switch query.Sort {
	case store.QueueSortNextReview:
		if after.NextReview == nil {
			return concept.Scheduling.NextReview == nil && idLess(after.ID, concept.ID)
		}
		nr := concept.Scheduling.NextReview
		if nr == nil {
			return true
		}
		if nr.After(*after.NextReview) {
			return true
		}
		return nr.Equal(*after.NextReview) && idLess(after.ID, concept.ID)
	default: // store.QueueSortRecent
		if concept.CreatedAt.Before(after.CreatedAt) {
			return true
		}
		return concept.CreatedAt.Equal(after.CreatedAt) && idLess(concept.ID, after.ID)
	}
}

func lessInSort(a, b *domain.Concept, sortBy store.QueueSort) bool {
	switch sortBy {
	case store.QueueSortNextReview:
		an, bn := a.Scheduling.NextReview, b.Scheduling.NextReview
		switch {
		case an == nil && bn == nil:
			return idLess(a.ID, b.ID)
		case an == nil:
			return false // NULLS LAST
		case bn == nil:
			return true
		case !an.Equal(*bn):
			return an.Before(*bn)
		default:
			return idLess(a.ID, b.ID)
		}
	default: // store.QueueSortRecent
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return idLess(b.ID, a.ID)
	}
}

// idLess compares UUIDs bytewise, matching Postgres uuid ordering.
func idLess(a, b uuid.UUID) bool {
	return bytes.Compare(a[:], b[:]) < 0
}

func (s *memConceptStore) Summary(ctx context.Context, userID uuid.UUID, now time.Time) (*domain.StatsSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	summary := &domain.StatsSummary{}
	var stabilitySum, difficultySum float64
	var nonNew int
	for _, concept := range s.concepts {
		if concept.UserID != userID {
			continue
		}
		summary.TotalConcepts++
		if nr := concept.Scheduling.NextReview; nr != nil && !nr.After(now) {
			summary.DueConcepts++
		}
		switch concept.Scheduling.State {
		case fsrs.StateNew:
			summary.NewConcepts++
		case fsrs.StateLearning:
			summary.LearningCount++
		case fsrs.StateReview:
			summary.ReviewCount++
		case fsrs.StateRelearning:
			summary.RelearningCount++
		}
		summary.TotalAttempts += concept.AttemptCount
		summary.TotalCorrect += concept.CorrectCount
		if concept.Scheduling.State != fsrs.StateNew {
			stabilitySum += concept.Scheduling.Stability
			nonNew++
		}
		difficultySum += concept.Scheduling.Difficulty
	}
	if summary.TotalAttempts > 0 {
		summary.Accuracy = float64(summary.TotalCorrect) / float64(summary.TotalAttempts)
	}
	if nonNew > 0 {
		summary.AvgStability = stabilitySum / float64(nonNew)
	}
	if summary.TotalConcepts > 0 {
		summary.AvgDifficulty = difficultySum / float64(summary.TotalConcepts)
	}
	return summary, nil
}

func (s *memConceptStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.concepts[id]; !ok {
		return store.ErrConceptNotFound
	}
	delete(s.concepts, id)
	return nil
}

func (s *memConceptStore) WithTx(tx *sql.Tx) store.ConceptStore { return s }

var _ store.ConceptStore = (*memConceptStore)(nil)

// memInteractionStore is an in-memory append-only store.InteractionStore.
type memInteractionStore struct {
	mu           sync.Mutex
	interactions []*domain.Interaction

	createErr error
}

func newMemInteractionStore() *memInteractionStore {
	return &memInteractionStore{}
}

func (s *memInteractionStore) Create(ctx context.Context, interaction *domain.Interaction) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := *interaction
	s.interactions = append(s.interactions, &i)
	return nil
}

func (s *memInteractionStore) ListByConcept(
	ctx context.Context,
	conceptID uuid.UUID,
	limit, offset int,
) ([]*domain.Interaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []*domain.Interaction
	for _, interaction := range s.interactions {
		if interaction.ConceptID == conceptID {
			i := *interaction
			matched = append(matched, &i)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if offset >= len(matched) {
		return []*domain.Interaction{}, nil
	}
	matched = matched[offset:]
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (s *memInteractionStore) all() []*domain.Interaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Interaction, len(s.interactions))
	copy(out, s.interactions)
	return out
}

func (s *memInteractionStore) WithTx(tx *sql.Tx) store.InteractionStore { return s }

var _ store.InteractionStore = (*memInteractionStore)(nil)

// memPhrasingStore is an in-memory store.PhrasingStore.
type memPhrasingStore struct {
	mu        sync.Mutex
	phrasings map[uuid.UUID]*domain.Phrasing
}

func newMemPhrasingStore() *memPhrasingStore {
	return &memPhrasingStore{phrasings: make(map[uuid.UUID]*domain.Phrasing)}
}

func (s *memPhrasingStore) put(phrasing *domain.Phrasing) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := *phrasing
	s.phrasings[p.ID] = &p
}

func (s *memPhrasingStore) Create(ctx context.Context, phrasing *domain.Phrasing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.phrasings[phrasing.ID]; ok {
		return store.ErrDuplicate
	}
	p := *phrasing
	s.phrasings[p.ID] = &p
	return nil
}

func (s *memPhrasingStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Phrasing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	phrasing, ok := s.phrasings[id]
	if !ok {
		return nil, store.ErrPhrasingNotFound
	}
	p := *phrasing
	return &p, nil
}

func (s *memPhrasingStore) ListByConcept(
	ctx context.Context,
	conceptID uuid.UUID,
	includeArchived bool,
) ([]*domain.Phrasing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []*domain.Phrasing
	for _, phrasing := range s.phrasings {
		if phrasing.ConceptID != conceptID {
			continue
		}
		if phrasing.Archived && !includeArchived {
			continue
		}
		p := *phrasing
		matched = append(matched, &p)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return idLess(matched[i].ID, matched[j].ID)
	})
	if matched == nil {
		matched = []*domain.Phrasing{}
	}
	return matched, nil
}

func (s *memPhrasingStore) SetCanonical(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	phrasing, ok := s.phrasings[id]
	if !ok {
		return store.ErrPhrasingNotFound
	}
	for _, other := range s.phrasings {
		if other.ConceptID == phrasing.ConceptID {
			other.IsCanonical = false
		}
	}
	phrasing.IsCanonical = true
	return nil
}

func (s *memPhrasingStore) Archive(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	phrasing, ok := s.phrasings[id]
	if !ok {
		return store.ErrPhrasingNotFound
	}
	phrasing.Archived = true
	phrasing.IsCanonical = false
	return nil
}

func (s *memPhrasingStore) WithTx(tx *sql.Tx) store.PhrasingStore { return s }

var _ store.PhrasingStore = (*memPhrasingStore)(nil)
