// Package token issues and validates bearer access tokens.
//
// A token is a compact HS256 JWT over {sub: user id, aud: client id} without
// time claims, so issuing twice for the same user and client yields the same
// string. The signing key mixes the server secret with the user's current
// password hash: changing the password invalidates every token of that user.
// Liveness is tracked in TokenRepository under the SHA-256 digest of the token.
package token

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"strconv"

	"github.com/and161185/gophauth/internal/errs"
	"github.com/and161185/gophauth/internal/model"
	"github.com/and161185/gophauth/internal/repository"
	"github.com/golang-jwt/jwt/v5"
)

// PasswordHashes is the part of the user store the issuer depends on.
type PasswordHashes interface {
	GetPasswordHash(ctx context.Context, id int64) (string, error)
}

// Issuer creates, validates and revokes access tokens.
type Issuer struct {
	secret []byte
	users  PasswordHashes
	tokens repository.TokenRepository
}

// NewIssuer constructs an Issuer. secret must not be empty.
func NewIssuer(secret []byte, users PasswordHashes, tokens repository.TokenRepository) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, errors.New("token: empty secret")
	}
	return &Issuer{secret: secret, users: users, tokens: tokens}, nil
}

// Digest returns the storage key of a token value.
func Digest(value string) []byte {
	h := sha256.Sum256([]byte(value))
	return h[:]
}

func (i *Issuer) key(passwordHash string) []byte {
	k := make([]byte, 0, len(i.secret)+len(passwordHash))
	k = append(k, i.secret...)
	return append(k, passwordHash...)
}

// Issue signs a token for (userID, clientID) and records it as live with scopes.
func (i *Issuer) Issue(ctx context.Context, userID int64, passwordHash string, clientID int64, scopes []string) (model.Token, error) {
	claims := jwt.RegisteredClaims{
		Subject:  strconv.FormatInt(userID, 10),
		Audience: jwt.ClaimStrings{strconv.FormatInt(clientID, 10)},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key(passwordHash))
	if err != nil {
		return model.Token{}, fmt.Errorf("token: sign: %w", err)
	}
	g := model.Grant{UserID: userID, ClientID: clientID, Scopes: scopes}
	if err := i.tokens.Save(ctx, Digest(signed), g); err != nil {
		return model.Token{}, fmt.Errorf("token: save: %w", err)
	}
	return model.Token{Value: signed, UserID: userID, ClientID: clientID, Scopes: scopes}, nil
}

// Validate resolves a presented token into its grant. Every failure, including
// store errors, is reported as errs.ErrUnauthorized wrapping the cause.
func (i *Issuer) Validate(ctx context.Context, raw string) (model.Grant, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		id, err := strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad subject %q", claims.Subject)
		}
		hash, err := i.users.GetPasswordHash(ctx, id)
		if err != nil {
			return nil, err
		}
		return i.key(hash), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return model.Grant{}, unauthorized(err)
	}

	userID, _ := strconv.ParseInt(claims.Subject, 10, 64)
	if len(claims.Audience) != 1 {
		return model.Grant{}, unauthorized(errors.New("bad audience"))
	}
	clientID, err := strconv.ParseInt(claims.Audience[0], 10, 64)
	if err != nil {
		return model.Grant{}, unauthorized(err)
	}

	g, err := i.tokens.Get(ctx, Digest(raw))
	if err != nil {
		return model.Grant{}, unauthorized(err)
	}
	if g.UserID != userID || g.ClientID != clientID {
		return model.Grant{}, unauthorized(errors.New("grant mismatch"))
	}
	return *g, nil
}

// Revoke forgets a token. Revoking an unknown token succeeds.
func (i *Issuer) Revoke(ctx context.Context, t model.Token) error {
	return i.tokens.Delete(ctx, Digest(t.Value))
}

func unauthorized(cause error) error {
	return fmt.Errorf("%w: %v", errs.ErrUnauthorized, cause)
}
