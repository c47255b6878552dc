package token

import (
	"context"
	"time"
)

// Kinds of issued tokens.
const (
	KindAccess    = "access"
	KindAnonymous = "anonymous"
)

// Token is an issued bearer token. Exactly one of CustomerID and AnonymousID
// is set, matching Kind.
type Token struct {
	Token       string
	CustomerID  *string
	AnonymousID *string
	Kind        string
	ExpiresAt   time.Time
	CreatedAt   time.Time
}

type Repository interface {
	Create(ctx context.Context, token Token) error
	Get(ctx context.Context, token string) (*Token, error)
	Delete(ctx context.Context, token string) error
	// DeleteExpired removes tokens that expired at or before before.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
