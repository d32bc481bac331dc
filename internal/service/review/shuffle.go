package review

import (
	"hash/fnv"
	"math/rand"

	"github.com/google/uuid"
)

// anonymousSeedSuffix stands in for the user ID when shuffling for an
// unauthenticated caller, so anonymous sessions still see a stable order.
const anonymousSeedSuffix = "anon"

// ShuffleOptions returns the answer options in a deterministic pseudo-random
// order derived from the question and user identities. The same question and
// user always produce the same order; different users generally see different
// orders. The input slice is not modified.
func ShuffleOptions(questionID uuid.UUID, userID *uuid.UUID, options []string) []string {
	shuffled := make([]string, len(options))
	copy(shuffled, options)

	suffix := anonymousSeedSuffix
	if userID != nil {
		suffix = userID.String()
	}

	h := fnv.New64a()
	// Hash writes never fail.
	_, _ = h.Write([]byte(questionID.String() + ":" + suffix))

	rng := rand.New(rand.NewSource(int64(h.Sum64()))) // #nosec G404 -- ordering, not security
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	return shuffled
}
