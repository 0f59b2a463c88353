package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ovaphlow/pitchfork/service-construction-go/internal/config"
)

// ErrInvalidToken is returned for every decode failure: bad signature,
// algorithm mismatch, expiry or malformed input.
var ErrInvalidToken = errors.New("invalid token")

var reservedClaims = map[string]bool{"sub": true, "iat": true, "exp": true}

// Claims is the decoded claim set of an access token.
type Claims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Email     string
	IsAdmin   bool
	// Raw holds every claim as decoded, including unknown ones.
	Raw jwt.MapClaims
}

// TokenCodec issues and verifies HMAC-signed JWT access tokens.
type TokenCodec struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenCodec builds a codec from the JWT section of the configuration.
func NewTokenCodec(cfg config.JWT) (*TokenCodec, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	method, ok := jwt.GetSigningMethod(cfg.Algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported jwt algorithm %q", cfg.Algorithm)
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("token lifetime must be positive, got %s", cfg.TTL)
	}
	return &TokenCodec{secret: []byte(cfg.Secret), method: method, ttl: cfg.TTL, now: time.Now}, nil
}

// Issue signs a token for subject. A non-positive ttl uses the configured
// lifetime. Extra claims cannot override sub, iat or exp.
func (c *TokenCodec) Issue(subject string, extra map[string]any, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = c.ttl
	}
	now := c.now()
	claims := jwt.MapClaims{}
	for k, v := range extra {
		if !reservedClaims[k] {
			claims[k] = v
		}
	}
	claims["sub"] = subject
	claims["iat"] = jwt.NewNumericDate(now)
	claims["exp"] = jwt.NewNumericDate(now.Add(ttl))

	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Decode verifies signature, algorithm and expiry in a single parse.
func (c *TokenCodec) Decode(token string) (*Claims, error) {
	mc := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, mc, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	out := &Claims{Raw: mc}
	out.Subject, _ = mc.GetSubject()
	if iat, _ := mc.GetIssuedAt(); iat != nil {
		out.IssuedAt = iat.Time
	}
	if exp, _ := mc.GetExpirationTime(); exp != nil {
		out.ExpiresAt = exp.Time
	}
	out.Email, _ = mc["email"].(string)
	out.IsAdmin, _ = mc["is_admin"].(bool)
	return out, nil
}

// ExtractSubject returns the sub claim of a valid token.
func (c *TokenCodec) ExtractSubject(token string) (string, bool) {
	claims, err := c.Decode(token)
	if err != nil || claims.Subject == "" {
		return "", false
	}
	return claims.Subject, true
}

// TTL is the default token lifetime.
func (c *TokenCodec) TTL() time.Duration { return c.ttl }
