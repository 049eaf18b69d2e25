// Package model defines domain entities used by services and repositories.
package model

import "time"

// Application is a registered OAuth2 client application.
type Application struct {
	ID          int64
	Name        string
	RedirectURI string // registered, compared verbatim
}

// User is the subset of an account the authorization flow needs.
type User struct {
	ID           int64
	PasswordHash string // opaque encoded hash; also a token signing ingredient
}

// AuthCode is the transient record stored under an issued authorization code.
// The code itself is not stored: it is recomputed from SigningKey at exchange time.
type AuthCode struct {
	UserID     int64
	SigningKey []byte
	Scopes     []string
}

// Token is an issued access token.
type Token struct {
	Value    string
	UserID   int64
	ClientID int64
	Scopes   []string
}

// Grant is what a live token entitles its bearer to.
type Grant struct {
	UserID    int64
	ClientID  int64
	Scopes    []string
	CreatedAt time.Time
}
