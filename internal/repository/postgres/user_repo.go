package postgres

import (
	"context"

	"github.com/and161185/gophauth/internal/errs"
	"github.com/and161185/gophauth/internal/model"
)

// UserRepo implements UserRepository using PostgreSQL.
type UserRepo struct{ db *DB }

// NewUserRepo constructs a user repository.
func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

// GetByLogin selects a user by email.
func (r *UserRepo) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	const q = `SELECT id, password FROM users WHERE email=$1`
	var u model.User
	if err := r.db.Pool.QueryRow(ctx, q, login).Scan(&u.ID, &u.PasswordHash); err != nil {
		return nil, scanErr(err, errs.ErrNotFound)
	}
	return &u, nil
}

// GetPasswordHash selects the current password hash of a user.
func (r *UserRepo) GetPasswordHash(ctx context.Context, id int64) (string, error) {
	const q = `SELECT password FROM users WHERE id=$1`
	var hash string
	if err := r.db.Pool.QueryRow(ctx, q, id).Scan(&hash); err != nil {
		return "", scanErr(err, errs.ErrNotFound)
	}
	return hash, nil
}
