// Package anonymous issues guest sessions so carts can be built before login.
package anonymous

import (
	"context"
	"errors"
	"time"

	tokenrepo "orderup/internal/repository/token"
	tokensvc "orderup/internal/service/token"

	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

type Service struct {
	tokens    *tokensvc.Manager
	accessTTL time.Duration
}

func New(tokens tokenrepo.Repository) *Service {
	return &Service{
		tokens:    tokensvc.NewManager(tokens, tokenrepo.KindAnonymous),
		accessTTL: 24 * time.Hour,
	}
}

// Issue creates a guest identity and a token for it.
func (s *Service) Issue(ctx context.Context) (accessToken, anonymousID string, err error) {
	anonID := uuid.NewString()
	accessToken, err = s.tokens.Issue(ctx, anonID, s.accessTTL)
	if err != nil {
		return "", "", err
	}
	return accessToken, anonID, nil
}

func (s *Service) LookupByToken(ctx context.Context, token string) (string, error) {
	claims, ok := s.tokens.Validate(ctx, token)
	if !ok {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

func (s *Service) AccessTTLSeconds() int {
	return int(s.accessTTL.Seconds())
}
