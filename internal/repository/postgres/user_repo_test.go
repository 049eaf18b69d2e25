package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/and161185/gophauth/internal/errs"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

func TestUserRepo_GetByLogin(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT id, password FROM users WHERE email=\$1`).
		WithArgs("alice@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"id", "password"}).AddRow(int64(7), "$argon2id$hash"))
	u, err := r.GetByLogin(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, int64(7), u.ID)
	require.Equal(t, "$argon2id$hash", u.PasswordHash)

	mock.ExpectQuery(`SELECT id, password FROM users WHERE email=\$1`).
		WithArgs("nobody@example.com").
		WillReturnError(pgx.ErrNoRows)
	_, err = r.GetByLogin(ctx, "nobody@example.com")
	require.ErrorIs(t, err, errs.ErrNotFound)

	boom := errors.New("conn reset")
	mock.ExpectQuery(`SELECT id, password FROM users WHERE email=\$1`).
		WithArgs("alice@example.com").
		WillReturnError(boom)
	_, err = r.GetByLogin(ctx, "alice@example.com")
	require.ErrorIs(t, err, boom)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_GetPasswordHash(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT password FROM users WHERE id=\$1`).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"password"}).AddRow("H"))
	h, err := r.GetPasswordHash(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, "H", h)

	mock.ExpectQuery(`SELECT password FROM users WHERE id=\$1`).
		WithArgs(int64(8)).
		WillReturnError(pgx.ErrNoRows)
	_, err = r.GetPasswordHash(ctx, 8)
	require.ErrorIs(t, err, errs.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}
