package review

import "errors"

// Common error types for the review services.
var (
	// ErrConceptNotFound indicates that the concept does not exist or is not
	// owned by the requesting user. The two cases are deliberately
	// indistinguishable so the API does not leak concept existence.
	ErrConceptNotFound = errors.New("concept not found")

	// ErrPhrasingNotFound indicates that the phrasing does not exist or
	// belongs to a concept the requesting user does not own.
	ErrPhrasingNotFound = errors.New("phrasing not found")

	// ErrInvalidCursor indicates a pagination cursor that could not be
	// decoded. Callers should restart from the first page.
	ErrInvalidCursor = errors.New("invalid pagination cursor")

	// ErrInvalidQueueRequest indicates an unknown view or sort value.
	ErrInvalidQueueRequest = errors.New("invalid queue request")

	// ErrInvalidPostpone indicates a postpone request with days < 1 or for a
	// concept that has never been scheduled.
	ErrInvalidPostpone = errors.New("invalid postpone request")
)
