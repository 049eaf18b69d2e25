package httpserver

import (
	"context"

	"github.com/and161185/gophauth/internal/model"
)

type ctxKey string

const (
	tokenKey     ctxKey = "gophauth.token"
	requestIDKey ctxKey = "gophauth.requestID"
)

// WithToken stores the resolved bearer token in context.
func WithToken(ctx context.Context, t model.Token) context.Context {
	return context.WithValue(ctx, tokenKey, t)
}

// TokenFromCtx fetches the bearer token stored by the auth middleware.
func TokenFromCtx(ctx context.Context) (model.Token, bool) {
	t, ok := ctx.Value(tokenKey).(model.Token)
	return t, ok
}

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromCtx returns the id assigned to the current request, or "".
func RequestIDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
