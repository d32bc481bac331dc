package review

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/concordsrs/concord-api/internal/store"
)

// Cursors are opaque to clients: base64url-encoded JSON of the keyset
// position of the last row of a page. Clients must treat them as tokens and
// never construct or inspect them.

// EncodeCursor serializes a keyset position into an opaque cursor token.
func EncodeCursor(key store.QueueKey) string {
	// QueueKey marshaling cannot fail: fixed struct of time/uuid fields.
	data, _ := json.Marshal(key)
	return base64.RawURLEncoding.EncodeToString(data)
}

// DecodeCursor parses an opaque cursor token back into a keyset position.
// Returns ErrInvalidCursor for anything that is not a token this service
// produced.
func DecodeCursor(cursor string) (*store.QueueKey, error) {
	data, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}

	var key store.QueueKey
	if err := json.Unmarshal(data, &key); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}

	return &key, nil
}
