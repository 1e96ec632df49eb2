package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/kbazanov/bookly/internal/apperrors"
)

const (
	AccessTokenTTL  = time.Hour
	RefreshTokenTTL = 24 * time.Hour
)

// Claims is the payload of a minted bearer token: the subject data handed in
// at login, the refresh marker, and the registered jti/exp fields. A token is
// never mutated after minting; it dies by expiry or by its jti landing in the
// blocklist.
type Claims struct {
	User    map[string]any `json:"user"`
	Refresh bool           `json:"refresh"`
	jwt.RegisteredClaims
}

type Codec struct {
	secret []byte
}

func NewCodec(secret []byte) *Codec {
	return &Codec{secret: secret}
}

func (c *Codec) MintClaims(user map[string]any, ttl time.Duration, refresh bool) (string, error) {
	if ttl <= 0 {
		ttl = AccessTokenTTL
	}

	claims := Claims{
		User:    user,
		Refresh: refresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(c.secret)
}

// DecodeClaims verifies signature and expiry in one step. Every failure mode
// collapses into ErrInvalidToken; callers cannot tell expired from malformed.
func (c *Codec) DecodeClaims(raw string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperrors.ErrInvalidToken
		}
		return c.secret, nil
	})
	if err != nil || !t.Valid {
		return nil, apperrors.ErrInvalidToken
	}

	claims, ok := t.Claims.(*Claims)
	if !ok {
		return nil, apperrors.ErrInvalidToken
	}
	return claims, nil
}
