package postgres

import (
	"context"
	"strings"

	"github.com/and161185/gophauth/internal/errs"
	"github.com/and161185/gophauth/internal/model"
	"github.com/and161185/gophauth/internal/scope"
)

// TokenRepo implements TokenRepository using PostgreSQL.
type TokenRepo struct{ db *DB }

// NewTokenRepo constructs a token repository.
func NewTokenRepo(db *DB) *TokenRepo { return &TokenRepo{db: db} }

// Save inserts the token row or refreshes its scope when it already exists.
// A user or application deleted in the meantime yields errs.ErrNotFound.
func (r *TokenRepo) Save(ctx context.Context, digest []byte, g model.Grant) error {
	const q = `
INSERT INTO tokens (token_hash, user_id, app_id, scope)
VALUES ($1, $2, $3, $4)
ON CONFLICT (token_hash) DO UPDATE SET scope = EXCLUDED.scope`
	_, err := r.db.Pool.Exec(ctx, q, digest, g.UserID, g.ClientID, scope.Join(g.Scopes))
	if isForeignKeyViolation(err) {
		return errs.ErrNotFound
	}
	return err
}

// Get selects a live token row.
func (r *TokenRepo) Get(ctx context.Context, digest []byte) (*model.Grant, error) {
	const q = `SELECT user_id, app_id, scope, created_at FROM tokens WHERE token_hash=$1`
	var (
		g   model.Grant
		raw string
	)
	if err := r.db.Pool.QueryRow(ctx, q, digest).Scan(&g.UserID, &g.ClientID, &raw, &g.CreatedAt); err != nil {
		return nil, scanErr(err, errs.ErrNotFound)
	}
	g.Scopes = strings.Fields(raw)
	return &g, nil
}

// Delete removes a token row if present.
func (r *TokenRepo) Delete(ctx context.Context, digest []byte) error {
	const q = `DELETE FROM tokens WHERE token_hash=$1`
	_, err := r.db.Pool.Exec(ctx, q, digest)
	return err
}
