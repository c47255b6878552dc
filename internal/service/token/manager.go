// Package token issues and checks the opaque bearer tokens used by customers
// and guests.
package token

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"orderup/internal/domain"
	tokenrepo "orderup/internal/repository/token"
)

const issueAttempts = 5

// ErrCollision means every generated token was already taken.
var ErrCollision = errors.New("token collision")

// Claims is what a valid token resolves to.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
}

// Manager handles tokens of one kind. The subject is a customer id for
// KindAccess and an anonymous id for KindAnonymous.
type Manager struct {
	repo tokenrepo.Repository
	kind string
	now  func() time.Time
}

func NewManager(repo tokenrepo.Repository, kind string) *Manager {
	return &Manager{repo: repo, kind: kind, now: time.Now}
}

func (m *Manager) Issue(ctx context.Context, subject string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("issue %s token: empty subject", m.kind)
	}
	rec := tokenrepo.Token{Kind: m.kind, ExpiresAt: m.now().Add(ttl)}
	sub := subject
	switch m.kind {
	case tokenrepo.KindAccess:
		rec.CustomerID = &sub
	case tokenrepo.KindAnonymous:
		rec.AnonymousID = &sub
	default:
		return "", fmt.Errorf("issue token: unknown kind %q", m.kind)
	}

	for i := 0; i < issueAttempts; i++ {
		tok, err := randomToken()
		if err != nil {
			return "", err
		}
		rec.Token = tok
		err = m.repo.Create(ctx, rec)
		if err == nil {
			return tok, nil
		}
		if !errors.Is(err, domain.ErrAlreadyExists) {
			return "", err
		}
	}
	return "", ErrCollision
}

// Validate resolves token. Tokens of another kind are rejected; expired
// tokens are rejected and deleted.
func (m *Manager) Validate(ctx context.Context, token string) (Claims, bool) {
	if token == "" {
		return Claims{}, false
	}
	rec, err := m.repo.Get(ctx, token)
	if err != nil || rec.Kind != m.kind {
		return Claims{}, false
	}
	subject := rec.CustomerID
	if m.kind == tokenrepo.KindAnonymous {
		subject = rec.AnonymousID
	}
	if subject == nil {
		return Claims{}, false
	}
	if !m.now().Before(rec.ExpiresAt) {
		_ = m.repo.Delete(ctx, token)
		return Claims{}, false
	}
	return Claims{Subject: *subject, ExpiresAt: rec.ExpiresAt}, true
}

// Revoke deletes token. An unknown token is not an error.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	if err := m.repo.Delete(ctx, token); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
