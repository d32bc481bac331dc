// Package domain contains the core entities of the review engine: concepts
// with their embedded scheduling state, phrasings, and the append-only
// interaction log. Entities validate themselves; persistence and scheduling
// live elsewhere.
package domain
