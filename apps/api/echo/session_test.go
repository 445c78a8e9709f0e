package echoapi

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enghaven/portal/core"
	"github.com/enghaven/portal/core/user"
)

func testCodec(secret, issuer string, maxAge time.Duration) *sessionCodec {
	return newSessionCodec(&core.Config{
		AppName: issuer,
		Session: core.SessionConfig{Secret: secret, CookieName: "sess", MaxAge: maxAge},
	})
}

func Test_sessionCodec(t *testing.T) {
	sess := &user.Session{ID: "u1", Name: "Sara", Email: "sara@test.pk", Role: user.RoleAdmin}
	codec := testCodec("s3cret", "English Haven", time.Hour)

	token, err := codec.Encode(sess)
	require.NoError(t, err)

	got, err := codec.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, sess, got)

	tests := []struct {
		name  string
		codec *sessionCodec
		token string
	}{
		{name: "other secret", codec: testCodec("other", "English Haven", time.Hour), token: token},
		{name: "other issuer", codec: testCodec("s3cret", "Other App", time.Hour), token: token},
		{name: "garbage", codec: codec, token: "a.b.c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.codec.Decode(tt.token)
			assert.Error(t, err)
		})
	}

	t.Run("expired", func(t *testing.T) {
		expired, err := testCodec("s3cret", "English Haven", -time.Minute).Encode(sess)
		require.NoError(t, err)
		_, err = codec.Decode(expired)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("other algorithm", func(t *testing.T) {
		claims := jwt.RegisteredClaims{Issuer: "English Haven", Subject: "u1"}
		none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = codec.Decode(none)
		assert.Error(t, err)
	})
}

func Test_safeNext(t *testing.T) {
	tests := []struct {
		next string
		want string
	}{
		{next: "", want: "/portal"},
		{next: "/quiz/1", want: "/quiz/1"},
		{next: " /admin ", want: "/admin"},
		{next: "https://evil.com", want: "/portal"},
		{next: "//evil.com", want: "/portal"},
		{next: "/\\evil.com", want: "/portal"},
		{next: "portal", want: "/portal"},
	}
	for _, tt := range tests {
		t.Run(tt.next, func(t *testing.T) {
			assert.Equal(t, tt.want, safeNext(tt.next))
		})
	}
}
