package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/academiax/internal/domain"
)

var testSecret = []byte("test-secret")

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// tamper flips the first character of the signature segment.
func tamper(token string) string {
	i := strings.LastIndex(token, ".") + 1
	replacement := "A"
	if token[i] == 'A' {
		replacement = "B"
	}
	return token[:i] + replacement + token[i+1:]
}

func TestIssueAndVerify(t *testing.T) {
	t.Parallel()

	issuer, err := NewIssuer(testSecret, time.Hour)
	require.NoError(t, err)
	verifier, err := NewVerifier(testSecret)
	require.NoError(t, err)

	token, expiresAt, err := issuer.Issue("a@x.io")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	id, err := verifier.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "a@x.io", id.Email)
}

func TestNewIssuer_Rejects(t *testing.T) {
	t.Parallel()

	_, err := NewIssuer(nil, time.Hour)
	assert.ErrorIs(t, err, ErrEmptySecret)

	_, err = NewIssuer(testSecret, 0)
	assert.Error(t, err)

	_, err = NewVerifier([]byte{})
	assert.ErrorIs(t, err, ErrEmptySecret)
}

func TestVerify_Missing(t *testing.T) {
	t.Parallel()

	verifier, err := NewVerifier(testSecret)
	require.NoError(t, err)

	_, err = verifier.Verify("")
	assert.ErrorIs(t, err, ErrTokenMissing)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	assert.Equal(t, http.StatusUnauthorized, domain.StatusCode(err))
}

func TestVerify_Rejected(t *testing.T) {
	t.Parallel()

	issued := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	issuer, err := NewIssuer(testSecret, time.Hour, WithClock(fixedClock(issued)))
	require.NoError(t, err)
	good, _, err := issuer.Issue("a@x.io")
	require.NoError(t, err)

	other, err := NewIssuer([]byte("other-secret"), time.Hour, WithClock(fixedClock(issued)))
	require.NoError(t, err)
	wrongKey, _, err := other.Issue("a@x.io")
	require.NoError(t, err)

	noEmail, _, err := issuer.Issue("")
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		Email: "a@x.io",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(issued.Add(time.Hour)),
		},
	})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	hs512 := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		Email: "a@x.io",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(issued.Add(time.Hour)),
		},
	})
	wrongAlg, err := hs512.SignedString(testSecret)
	require.NoError(t, err)

	noExpiry := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Email: "a@x.io"})
	eternal, err := noExpiry.SignedString(testSecret)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		now   time.Time
	}{
		{name: "tampered", token: tamper(good), now: issued},
		{name: "wrong key", token: wrongKey, now: issued},
		{name: "expired", token: good, now: issued.Add(2 * time.Hour)},
		{name: "garbage", token: "not.a.jwt", now: issued},
		{name: "alg none", token: unsigned, now: issued},
		{name: "alg hs512", token: wrongAlg, now: issued},
		{name: "no expiry", token: eternal, now: issued},
		{name: "empty email claim", token: noEmail, now: issued},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			verifier, err := NewVerifier(testSecret, WithClock(fixedClock(tt.now)))
			require.NoError(t, err)

			_, err = verifier.Verify(tt.token)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrTokenInvalid), "got %v", err)
			assert.Equal(t, http.StatusForbidden, domain.StatusCode(err))
		})
	}
}

func TestVerify_IsPure(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	issuer, err := NewIssuer(testSecret, time.Minute, WithClock(fixedClock(now)))
	require.NoError(t, err)
	token, _, err := issuer.Issue("b@x.io")
	require.NoError(t, err)

	verifier, err := NewVerifier(testSecret, WithClock(fixedClock(now.Add(30*time.Second))))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		id, err := verifier.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, "b@x.io", id.Email)
	}
}

func TestCheckOwnership(t *testing.T) {
	t.Parallel()

	id := Identity{Email: "a@x.io"}

	tests := []struct {
		name     string
		supplied string
		wantErr  bool
	}{
		{name: "match", supplied: "a@x.io"},
		{name: "other user", supplied: "b@x.io", wantErr: true},
		{name: "missing", supplied: "", wantErr: true},
		{name: "case differs", supplied: "A@x.io", wantErr: true},
		{name: "whitespace", supplied: "a@x.io ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckOwnership(id, tt.supplied)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrOwnershipMismatch)
			assert.Equal(t, http.StatusBadRequest, domain.StatusCode(err))
		})
	}
}

func TestTokenCookie(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		production bool
		wantSecure bool
		wantSite   http.SameSite
	}{
		{name: "development", production: false, wantSecure: false, wantSite: http.SameSiteStrictMode},
		{name: "production", production: true, wantSecure: true, wantSite: http.SameSiteNoneMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			SetTokenCookie(rec, "abc", CookieOptions{Production: tt.production, TTL: time.Hour})

			cookies := rec.Result().Cookies()
			require.Len(t, cookies, 1)
			c := cookies[0]
			assert.Equal(t, CookieName, c.Name)
			assert.Equal(t, "abc", c.Value)
			assert.True(t, c.HttpOnly)
			assert.Equal(t, tt.wantSecure, c.Secure)
			assert.Equal(t, tt.wantSite, c.SameSite)
			assert.Equal(t, 3600, c.MaxAge)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.AddCookie(c)
			assert.Equal(t, "abc", TokenFromRequest(req))
		})
	}
}

func TestClearTokenCookie(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	ClearTokenCookie(rec, CookieOptions{})

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.Equal(t, "", cookies[0].Value)
	assert.True(t, cookies[0].MaxAge < 0)
}

func TestTokenFromRequest_NoCookie(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "", TokenFromRequest(req))
}
