// Package auth issues and verifies the bearer tokens that carry a caller's
// identity. Identity management itself lives outside this service; tokens
// are minted by the scheduling system (or `consult token` in development).
package auth

import (
	"crypto/sha256"
	"errors"
	"time"

	"github.com/dkeye/Consult/internal/domain"
	"github.com/gorilla/securecookie"
)

const tokenName = "consult-token"

var ErrInvalidToken = errors.New("invalid or expired token")

type claims struct {
	UserID string      `json:"uid"`
	Role   domain.Role `json:"role"`
}

// TokenCodec signs and encrypts {user id, role} with keys derived from one secret.
type TokenCodec struct {
	sc *securecookie.SecureCookie
}

func NewTokenCodec(secret string, ttl time.Duration) (*TokenCodec, error) {
	if secret == "" {
		return nil, errors.New("auth: empty secret")
	}
	hashKey := sha256.Sum256([]byte("hash:" + secret))
	blockKey := sha256.Sum256([]byte("block:" + secret))
	sc := securecookie.New(hashKey[:], blockKey[:])
	sc.SetSerializer(securecookie.JSONEncoder{})
	sc.MaxAge(int(ttl / time.Second))
	return &TokenCodec{sc: sc}, nil
}

func (t *TokenCodec) Issue(u *domain.User) (string, error) {
	return t.sc.Encode(tokenName, claims{UserID: string(u.ID), Role: u.Role})
}

func (t *TokenCodec) Verify(token string) (*domain.User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	var c claims
	if err := t.sc.Decode(tokenName, token, &c); err != nil {
		return nil, ErrInvalidToken
	}
	u, err := domain.NewUser(c.UserID, c.Role)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return u, nil
}
