package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/kbazanov/bookly/internal/apperrors"
)

const DefaultActionMaxAge = 24 * time.Hour

// Serializer signs small payloads for one-off links (email verification,
// password reset). A token carries its issue time and self-invalidates by
// age alone; the blocklist never tracks action tokens.
type Serializer struct {
	key    []byte
	maxAge time.Duration
}

// NewSerializer derives a signing key from the server secret and a
// purpose-specific salt, so action tokens can never pass as claims tokens.
func NewSerializer(secret []byte, salt string, maxAge time.Duration) *Serializer {
	if maxAge <= 0 {
		maxAge = DefaultActionMaxAge
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(salt))
	return &Serializer{key: mac.Sum(nil), maxAge: maxAge}
}

func (s *Serializer) Sign(payload map[string]string) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	msg := base64.RawURLEncoding.EncodeToString(data) + "." + strconv.FormatInt(time.Now().Unix(), 10)
	return msg + "." + base64.RawURLEncoding.EncodeToString(s.mac(msg)), nil
}

// Verify checks the signature and the max-age window. Any failure yields
// ErrInvalidToken.
func (s *Serializer) Verify(raw string) (map[string]string, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return nil, apperrors.ErrInvalidToken
	}

	msg := parts[0] + "." + parts[1]
	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil || !hmac.Equal(sig, s.mac(msg)) {
		return nil, apperrors.ErrInvalidToken
	}

	issued, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || time.Since(time.Unix(issued, 0)) > s.maxAge {
		return nil, apperrors.ErrInvalidToken
	}

	data, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, apperrors.ErrInvalidToken
	}
	var payload map[string]string
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, apperrors.ErrInvalidToken
	}
	return payload, nil
}

func (s *Serializer) mac(msg string) []byte {
	m := hmac.New(sha256.New, s.key)
	m.Write([]byte(msg))
	return m.Sum(nil)
}
