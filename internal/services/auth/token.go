package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// DefaultIssuer is the iss claim stamped on and required from caller tokens
const DefaultIssuer = "appointment-scheduler"

// ErrInvalidSubject is returned when the sub claim is not a positive user id
var ErrInvalidSubject = errors.New("token subject is not a user id")

// Verifier verifies HS256 caller tokens and extracts the user id
type Verifier struct {
	secret []byte
	issuer string
	skew   time.Duration
	clock  func() time.Time
}

// NewVerifier creates a new token verifier for the shared secret
func NewVerifier(secret []byte) *Verifier {
	return &Verifier{
		secret: secret,
		issuer: DefaultIssuer,
		skew:   30 * time.Second,
		clock:  time.Now,
	}
}

// Verify checks the signature, expiry and issuer, and returns the numeric sub claim
func (v *Verifier) Verify(tokenString string) (int64, error) {
	token, err := jwt.Parse([]byte(tokenString),
		jwt.WithKey(jwa.HS256, v.secret),
		jwt.WithValidate(true),
		jwt.WithIssuer(v.issuer),
		jwt.WithAcceptableSkew(v.skew),
		jwt.WithClock(jwt.ClockFunc(v.clock)),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to parse/verify token: %w", err)
	}

	id, err := strconv.ParseInt(token.Subject(), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidSubject
	}
	return id, nil
}

// Issuer signs caller tokens. Used by the configure CLI and tests.
type Issuer struct {
	secret []byte
	issuer string
	clock  func() time.Time
}

// NewIssuer creates a token issuer for the shared secret
func NewIssuer(secret []byte) *Issuer {
	return &Issuer{secret: secret, issuer: DefaultIssuer, clock: time.Now}
}

// Issue returns a signed token for userID that expires after ttl
func (i *Issuer) Issue(userID int64, ttl time.Duration) (string, error) {
	if userID <= 0 {
		return "", ErrInvalidSubject
	}
	now := i.clock()
	token, err := jwt.NewBuilder().
		Issuer(i.issuer).
		Subject(strconv.FormatInt(userID, 10)).
		IssuedAt(now).
		Expiration(now.Add(ttl)).
		Build()
	if err != nil {
		return "", fmt.Errorf("failed to build token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, i.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return string(signed), nil
}
