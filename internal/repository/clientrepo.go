package repository

import (
	"context"

	"github.com/and161185/gophauth/internal/model"
)

// ClientRepository resolves registered client applications.
type ClientRepository interface {
	// GetByID loads an application by its client id.
	GetByID(ctx context.Context, id int64) (*model.Application, error)
}
