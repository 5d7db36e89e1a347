package auth

import (
	"errors"
	"strings"

	"emlak-backend/internal/apperr"
	"emlak-backend/internal/models"
)

// ErrInvalidCredential is returned by a Verifier for any unusable token.
var ErrInvalidCredential = errors.New("invalid credential")

// Identity is the caller of a request. A nil *Identity is the anonymous caller.
type Identity struct {
	UserID uint
	Role   models.UserRole
}

func (i *Identity) IsAnonymous() bool { return i == nil }

func (i *Identity) IsAdmin() bool { return i != nil && i.Role == models.RoleAdmin }

func (i *Identity) IsAdvisor() bool { return i != nil && i.Role == models.RoleAdvisor }

// Is reports whether the caller is the given user.
func (i *Identity) Is(userID uint) bool { return i != nil && userID != 0 && i.UserID == userID }

// Verifier decodes a bearer token into an identity.
type Verifier interface {
	Verify(token string) (*Identity, error)
}

// Resolver turns an Authorization header into an identity.
type Resolver struct {
	verifier Verifier
}

func NewResolver(v Verifier) *Resolver {
	return &Resolver{verifier: v}
}

// Resolve returns (nil, nil) for an absent header and Unauthorized for a
// present but malformed, invalid or expired credential.
func (r *Resolver) Resolve(authHeader string) (*Identity, error) {
	authHeader = strings.TrimSpace(authHeader)
	if authHeader == "" {
		return nil, nil
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || strings.TrimSpace(parts[1]) == "" {
		return nil, apperr.Unauthorized("Authorization formatı 'Bearer <token>' olmalı")
	}

	id, err := r.verifier.Verify(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, apperr.Unauthorized("Geçersiz veya süresi dolmuş token")
	}
	return id, nil
}
