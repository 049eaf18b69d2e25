package postgres

import (
	"context"

	"github.com/and161185/gophauth/internal/errs"
	"github.com/and161185/gophauth/internal/model"
)

// ClientRepo implements ClientRepository using PostgreSQL.
type ClientRepo struct{ db *DB }

// NewClientRepo constructs an application repository.
func NewClientRepo(db *DB) *ClientRepo { return &ClientRepo{db: db} }

// GetByID selects an application by id.
func (r *ClientRepo) GetByID(ctx context.Context, id int64) (*model.Application, error) {
	const q = `SELECT id, name, redirect_uri FROM applications WHERE id=$1`
	var a model.Application
	if err := r.db.Pool.QueryRow(ctx, q, id).Scan(&a.ID, &a.Name, &a.RedirectURI); err != nil {
		return nil, scanErr(err, errs.ErrNotFound)
	}
	return &a, nil
}
