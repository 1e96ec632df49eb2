package token

import (
	"encoding/base64"
	"encoding/json"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbazanov/bookly/internal/apperrors"
)

func TestSerializer_SignAndVerify(t *testing.T) {
	t.Parallel()

	s := NewSerializer(testSecret, "test-salt", time.Hour)

	raw, err := s.Sign(map[string]string{"email": "a@x.com"})
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	payload, err := s.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", payload["email"])
}

func TestSerializer_SaltSeparatesPurposes(t *testing.T) {
	t.Parallel()

	s1 := NewSerializer(testSecret, "salt-one", time.Hour)
	s2 := NewSerializer(testSecret, "salt-two", time.Hour)

	raw, err := s1.Sign(map[string]string{"email": "a@x.com"})
	require.NoError(t, err)

	_, err = s2.Verify(raw)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestSerializer_TamperedTokenIsInvalid(t *testing.T) {
	t.Parallel()

	s := NewSerializer(testSecret, "test-salt", time.Hour)

	raw, err := s.Sign(map[string]string{"email": "a@x.com"})
	require.NoError(t, err)

	forged, _ := json.Marshal(map[string]string{"email": "b@x.com"})
	parts := strings.Split(raw, ".")
	parts[0] = base64.RawURLEncoding.EncodeToString(forged)

	_, err = s.Verify(strings.Join(parts, "."))
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestSerializer_ExpiredByMaxAge(t *testing.T) {
	t.Parallel()

	s := NewSerializer(testSecret, "test-salt", time.Hour)

	// A correctly signed token whose issue time is past the window.
	data, err := json.Marshal(map[string]string{"email": "a@x.com"})
	require.NoError(t, err)
	msg := base64.RawURLEncoding.EncodeToString(data) + "." + strconv.FormatInt(time.Now().Add(-2*time.Hour).Unix(), 10)
	raw := msg + "." + base64.RawURLEncoding.EncodeToString(s.mac(msg))

	_, err = s.Verify(raw)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestSerializer_GarbageIsInvalid(t *testing.T) {
	t.Parallel()

	s := NewSerializer(testSecret, "test-salt", time.Hour)

	for _, raw := range []string{"", "no-dots", "one.dot", "a.b.!!!not-base64!!!"} {
		_, err := s.Verify(raw)
		assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
	}
}
