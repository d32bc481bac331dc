// Package review implements the review workflow on top of the fsrs scheduler
// and the persistence layer: recording graded attempts, building paginated
// review queues, postponing scheduled reviews, and managing phrasings.
package review
