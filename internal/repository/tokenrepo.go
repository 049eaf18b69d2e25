package repository

import (
	"context"

	"github.com/and161185/gophauth/internal/model"
)

// TokenRepository records which access tokens are live. Tokens are keyed by
// a digest of their value, never by the value itself.
type TokenRepository interface {
	// Save records (or refreshes) a live token.
	Save(ctx context.Context, digest []byte, g model.Grant) error
	// Get returns the grant of a live token.
	Get(ctx context.Context, digest []byte) (*model.Grant, error)
	// Delete forgets a token; deleting an unknown token is not an error.
	Delete(ctx context.Context, digest []byte) error
}
