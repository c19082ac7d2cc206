package api

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims represents the JWT payload used for API authentication.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenOptions customises issued JWT claims.
type TokenOptions struct {
	Audience string
	TTL      time.Duration
}

// maxTokenTTL caps the lifetime a caller can request.
const maxTokenTTL = 24 * time.Hour

// Authenticator issues and validates HS256 JWTs for the API.
type Authenticator struct {
	secret     []byte
	issuer     string
	defaultTTL time.Duration
	parser     *jwt.Parser
}

// NewAuthenticator constructs an authenticator using the provided secret and issuer.
func NewAuthenticator(secret []byte, issuer string, defaultTTL time.Duration) (*Authenticator, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwt secret must not be empty")
	}
	issuer = strings.TrimSpace(issuer)
	if issuer == "" {
		return nil, errors.New("jwt issuer must not be empty")
	}
	if defaultTTL <= 0 {
		defaultTTL = time.Hour
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	return &Authenticator{secret: secret, issuer: issuer, defaultTTL: defaultTTL, parser: parser}, nil
}

// Mint generates a signed JWT for the provided subject and audience.
func (a *Authenticator) Mint(subject, audience string, ttl time.Duration) (string, time.Time, error) {
	return a.MintWithOptions(subject, TokenOptions{Audience: audience, TTL: ttl})
}

// MintWithOptions generates a signed JWT using the provided options.
func (a *Authenticator) MintWithOptions(subject string, opts TokenOptions) (string, time.Time, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", time.Time{}, errors.New("subject is required")
	}
	audience := strings.TrimSpace(opts.Audience)
	if audience == "" {
		audience = "default"
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = a.defaultTTL
	}
	if ttl > maxTokenTTL {
		ttl = maxTokenTTL
	}
	now := time.Now().UTC().Truncate(time.Second)
	expires := now.Add(ttl)
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    a.issuer,
		Subject:   subject,
		Audience:  jwt.ClaimStrings{audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
		ID:        uuid.NewString(),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, expires, nil
}

// Validate parses and validates a JWT, returning the embedded claims.
func (a *Authenticator) Validate(token string) (Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}, errors.New("token is required")
	}
	var claims Claims
	_, err := a.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("invalid token: %w", err)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return Claims{}, errors.New("invalid token: missing subject")
	}
	return claims, nil
}

// failureReason maps a validation error to a metric label.
func failureReason(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "expired"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "signature"
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return "issuer"
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "malformed"
	default:
		return "invalid"
	}
}
