package token

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanasan/todo-api/internal/model"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestCodec(t *testing.T, now func() time.Time) *Codec {
	t.Helper()

	codec, err := NewCodec("test-secret", "HS256", now)
	require.NoError(t, err)
	return codec
}

func claimsFor(kind Kind, expiresAt time.Time) Claims {
	return Claims{
		Kind:  kind,
		Email: "a@x.com",
		Name:  "Alice",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "7d3f2c1e-0000-4000-8000-000000000001",
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
}

func TestNewCodec(t *testing.T) {
	t.Parallel()

	t.Run("defaults to HS256", func(t *testing.T) {
		codec, err := NewCodec("secret", "", nil)
		require.NoError(t, err)
		assert.Equal(t, "HS256", codec.Algorithm())
	})

	t.Run("accepts lower case algorithm names", func(t *testing.T) {
		codec, err := NewCodec("secret", "hs512", nil)
		require.NoError(t, err)
		assert.Equal(t, "HS512", codec.Algorithm())
	})

	t.Run("rejects empty secret", func(t *testing.T) {
		_, err := NewCodec("  ", "HS256", nil)
		require.Error(t, err)
	})

	t.Run("rejects non HMAC algorithms", func(t *testing.T) {
		for _, alg := range []string{"RS256", "ES256", "none", "bogus"} {
			_, err := NewCodec("secret", alg, nil)
			require.Error(t, err, alg)
		}
	})
}

func TestCodecRoundTrip(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t, func() time.Time { return fixedNow })

	raw, err := codec.Encode(claimsFor(KindAccess, fixedNow.Add(time.Hour)))
	require.NoError(t, err)
	require.Len(t, strings.Split(raw, "."), 3)

	claims, err := codec.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, KindAccess, claims.Kind)
	assert.Equal(t, "7d3f2c1e-0000-4000-8000-000000000001", claims.Subject)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, fixedNow.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
}

func TestCodecEncodeRejectsIncompleteClaims(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t, nil)

	_, err := codec.Encode(claimsFor("", fixedNow.Add(time.Hour)))
	require.Error(t, err)

	noExpiry := claimsFor(KindRefresh, fixedNow)
	noExpiry.ExpiresAt = nil
	_, err = codec.Encode(noExpiry)
	require.Error(t, err)
}

func TestCodecDecodeFailures(t *testing.T) {
	t.Parallel()

	now := fixedNow
	codec := newTestCodec(t, func() time.Time { return now })

	t.Run("expired token", func(t *testing.T) {
		raw, err := codec.Encode(claimsFor(KindAccess, now.Add(-time.Second)))
		require.NoError(t, err)

		_, err = codec.Decode(raw)
		require.ErrorIs(t, err, model.ErrTokenExpired)
	})

	t.Run("token expires once the clock passes exp", func(t *testing.T) {
		issuedAt := now
		raw, err := codec.Encode(claimsFor(KindRefresh, issuedAt.Add(time.Minute)))
		require.NoError(t, err)

		later := newTestCodec(t, func() time.Time { return issuedAt.Add(2 * time.Minute) })
		_, err = later.Decode(raw)
		require.ErrorIs(t, err, model.ErrTokenExpired)
	})

	t.Run("signed with another secret", func(t *testing.T) {
		other, err := NewCodec("another-secret", "HS256", func() time.Time { return now })
		require.NoError(t, err)
		raw, err := other.Encode(claimsFor(KindAccess, now.Add(time.Hour)))
		require.NoError(t, err)

		_, err = codec.Decode(raw)
		require.ErrorIs(t, err, model.ErrTokenSignature)
	})

	t.Run("signed with another algorithm", func(t *testing.T) {
		other, err := NewCodec("test-secret", "HS512", func() time.Time { return now })
		require.NoError(t, err)
		raw, err := other.Encode(claimsFor(KindAccess, now.Add(time.Hour)))
		require.NoError(t, err)

		_, err = codec.Decode(raw)
		require.ErrorIs(t, err, model.ErrTokenSignature)
	})

	t.Run("tampered payload", func(t *testing.T) {
		raw, err := codec.Encode(claimsFor(KindRefresh, now.Add(time.Hour)))
		require.NoError(t, err)

		forged, err := codec.Encode(claimsFor(KindAccess, now.Add(time.Hour)))
		require.NoError(t, err)

		parts := strings.Split(raw, ".")
		forgedParts := strings.Split(forged, ".")
		tampered := parts[0] + "." + forgedParts[1] + "." + parts[2]

		_, err = codec.Decode(tampered)
		require.ErrorIs(t, err, model.ErrTokenSignature)
	})

	t.Run("garbage", func(t *testing.T) {
		for _, raw := range []string{"", "not-a-token", "a.b", "a.b.c"} {
			_, err := codec.Decode(raw)
			require.ErrorIs(t, err, model.ErrMalformedToken, raw)
		}
	})

	t.Run("missing expiry", func(t *testing.T) {
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub":  "someone",
			"type": "access",
		}).SignedString([]byte("test-secret"))
		require.NoError(t, err)

		_, err = codec.Decode(raw)
		require.ErrorIs(t, err, model.ErrMalformedToken)
	})
}

func TestCodecExpiredWinsOverBadSignature(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t, func() time.Time { return fixedNow })
	other, err := NewCodec("another-secret", "HS256", func() time.Time { return fixedNow })
	require.NoError(t, err)

	raw, err := other.Encode(claimsFor(KindAccess, fixedNow.Add(-time.Hour)))
	require.NoError(t, err)

	_, err = codec.Decode(raw)
	require.ErrorIs(t, err, model.ErrTokenExpired)

	fresh, err := other.Encode(claimsFor(KindAccess, fixedNow.Add(time.Hour)))
	require.NoError(t, err)

	_, err = codec.Decode(fresh)
	require.ErrorIs(t, err, model.ErrTokenSignature)

	otherAlg, err := NewCodec("test-secret", "HS512", func() time.Time { return fixedNow })
	require.NoError(t, err)
	expiredOtherAlg, err := otherAlg.Encode(claimsFor(KindRefresh, fixedNow.Add(-time.Second)))
	require.NoError(t, err)

	_, err = codec.Decode(expiredOtherAlg)
	require.ErrorIs(t, err, model.ErrTokenExpired)
}
