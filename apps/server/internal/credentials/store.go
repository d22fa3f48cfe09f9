package credentials

import (
	"context"
	"time"
)

// Record is a user's linked GitHub credential at rest. Encrypted holds the
// nonce:tag:ciphertext string produced by Cipher.Encrypt; the plaintext token
// is never persisted.
type Record struct {
	UserID    string    `json:"userId"`
	Encrypted string    `json:"encrypted"`
	LinkedAt  time.Time `json:"linkedAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store persists encrypted credentials keyed by user ID.
// Implementations: RedisStore (cache-style), PGStore (durable).
type Store interface {
	Put(ctx context.Context, userID, encrypted string) error
	Get(ctx context.Context, userID string) (string, error)
	Delete(ctx context.Context, userID string) error
}
