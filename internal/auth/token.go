package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/felixgeelhaar/academiax/internal/domain"
)

var (
	// ErrTokenMissing is returned when no session token was presented.
	ErrTokenMissing = fmt.Errorf("session token missing: %w", domain.ErrUnauthenticated)
	// ErrTokenInvalid covers bad signatures, unexpected algorithms, malformed
	// tokens, expired tokens and tokens without an email claim.
	ErrTokenInvalid = fmt.Errorf("session token invalid: %w", domain.ErrForbidden)
	// ErrEmptySecret is returned when an issuer or verifier is built without a key.
	ErrEmptySecret = errors.New("token secret must not be empty")
)

// Claims is the payload of a session token.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Issuer mints signed session tokens for an email address.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Option customizes an Issuer or Verifier.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the time source, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewIssuer creates an issuer signing with HS256. ttl is the token lifetime.
func NewIssuer(secret []byte, ttl time.Duration, opts ...Option) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	o := buildOptions(opts)
	return &Issuer{secret: secret, ttl: ttl, now: o.now}, nil
}

// TTL returns the configured token lifetime.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue signs a token asserting email. It returns the token and its expiry.
func (i *Issuer) Issue(email string) (string, time.Time, error) {
	now := i.now()
	expiresAt := now.Add(i.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verifier validates session tokens. Verification is a pure function of the
// token, the secret and the clock.
type Verifier struct {
	secret []byte
	now    func() time.Time
}

// NewVerifier creates a verifier for tokens signed with secret.
func NewVerifier(secret []byte, opts ...Option) (*Verifier, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	o := buildOptions(opts)
	return &Verifier{secret: secret, now: o.now}, nil
}

// Verify decodes token and returns the identity it proves.
func (v *Verifier) Verify(token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrTokenMissing
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !parsed.Valid {
		return Identity{}, ErrTokenInvalid
	}
	if claims.Email == "" {
		return Identity{}, fmt.Errorf("%w: missing email claim", ErrTokenInvalid)
	}

	return Identity{Email: claims.Email}, nil
}
