// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/and161185/gophauth/internal/model"
)

// UserRepository resolves login credentials. Users are provisioned elsewhere.
type UserRepository interface {
	// GetByLogin loads a user by login (email).
	GetByLogin(ctx context.Context, login string) (*model.User, error)
	// GetPasswordHash returns the current password hash of a user.
	GetPasswordHash(ctx context.Context, id int64) (string, error)
}
